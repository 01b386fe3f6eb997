package scanner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"DailyByte/internal/domain"
)

type namedScanner struct {
	name  string
	items []domain.RawItem
}

func (s namedScanner) Name() string { return s.name }

func (s namedScanner) Scan(context.Context, Request) ([]domain.RawItem, error) {
	return s.items, nil
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(namedScanner{name: "feed"})
	reg.Register(namedScanner{name: "feed", items: []domain.RawItem{{URL: "https://replaced"}}})

	got, err := reg.Resolve("feed")
	require.NoError(t, err)
	items, err := got.Scan(context.Background(), Request{})
	require.NoError(t, err)
	require.Len(t, items, 1)

	_, err = reg.Resolve("social")
	require.EqualError(t, err, "scanner social is not registered")
}

func TestRegistryZeroValueRegister(t *testing.T) {
	t.Parallel()

	var reg Registry
	reg.Register(namedScanner{name: "newsletter"})

	_, err := reg.Resolve("newsletter")
	require.NoError(t, err)
}

func TestRequestTypeFor(t *testing.T) {
	t.Parallel()

	req := Request{SourceType: domain.SourceArticle}
	require.Equal(t, domain.SourceArticle, req.TypeFor(Source{Name: "hn"}))
	require.Equal(t, domain.SourcePaper, req.TypeFor(Source{Name: "arxiv", SourceType: domain.SourcePaper}))
}
