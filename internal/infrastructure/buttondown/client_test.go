package buttondown

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"DailyByte/internal/config"
)

func TestClientDeliver(t *testing.T) {
	t.Parallel()

	requests := make(chan emailRequest, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Token secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		var req emailRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		requests <- req
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"em_123","status":"draft"}`))
	}))
	defer server.Close()

	client := NewClient(config.ButtondownConfig{Endpoint: server.URL, APIKey: "secret", Status: "draft"})
	id, err := client.Deliver(context.Background(), "🔥 Daily Byte", "body")
	require.NoError(t, err)
	require.Equal(t, "em_123", id)
	require.Equal(t, emailRequest{Subject: "🔥 Daily Byte", Body: "body", Status: "draft"}, <-requests)
}

func TestClientDeliverFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"invalid status"}`))
	}))
	defer server.Close()

	client := NewClient(config.ButtondownConfig{Endpoint: server.URL, APIKey: "secret", AuthScheme: "Bearer"})
	_, err := client.Deliver(context.Background(), "s", "b")

	var delivery *DeliveryError
	require.True(t, errors.As(err, &delivery))
	require.Equal(t, http.StatusBadRequest, delivery.StatusCode)
	require.Contains(t, delivery.Body, "invalid status")
}

func TestClientMisconfigured(t *testing.T) {
	t.Parallel()

	_, err := NewClient(config.ButtondownConfig{Endpoint: "http://unused"}).Deliver(context.Background(), "s", "b")
	require.ErrorContains(t, err, "misconfigured")
}
