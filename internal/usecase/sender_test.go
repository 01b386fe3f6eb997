package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"DailyByte/internal/domain"
)

func TestSenderPreviewWritesFileWithoutProviderCall(t *testing.T) {
	t.Parallel()

	provider := &fakeDelivery{id: "should-not-happen"}
	path := filepath.Join(t.TempDir(), "tmp", "digest_preview.md")
	sender := NewSender(provider, path, nil)

	result, err := sender.Send(context.Background(), domain.RenderedDigest{Subject: "Hello", Body: "body text"}, true)
	require.NoError(t, err)
	require.Zero(t, provider.calls)
	require.True(t, result.Preview)
	require.Equal(t, path, result.Path)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "# Hello\n\nbody text", string(written))
}

func TestSenderLiveDelivers(t *testing.T) {
	t.Parallel()

	provider := &fakeDelivery{id: "email-42"}
	sender := NewSender(provider, "", nil)

	result, err := sender.Send(context.Background(), domain.RenderedDigest{Subject: "s", Body: "b"}, false)
	require.NoError(t, err)
	require.Equal(t, 1, provider.calls)
	require.Equal(t, "email-42", result.DeliveryID)
	require.False(t, result.Preview)
}

func TestSenderSurfacesProviderError(t *testing.T) {
	t.Parallel()

	failure := errors.New("400 bad request")
	provider := &fakeDelivery{err: failure}
	sender := NewSender(provider, "", nil)

	_, err := sender.Send(context.Background(), domain.RenderedDigest{Subject: "s", Body: "b"}, false)
	require.ErrorIs(t, err, failure)
	require.Equal(t, 1, provider.calls)
}
