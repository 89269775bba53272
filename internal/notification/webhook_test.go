package notification

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dnspod-certbot/internal/config"
)

func newTestNotifier(cfg *config.WebhookConfig) *WebhookNotifier {
	w := NewWebhookNotifier(cfg, logr.Discard())
	if w != nil {
		w.retryInterval = time.Millisecond
	}
	return w
}

func TestNewWebhookNotifier_Disabled(t *testing.T) {
	assert.Nil(t, NewWebhookNotifier(nil, logr.Discard()))
	assert.Nil(t, NewWebhookNotifier(&config.WebhookConfig{Enabled: false}, logr.Discard()))

	var w *WebhookNotifier
	assert.False(t, w.IsEnabled())
	assert.NoError(t, w.NotifyCertFailed(context.Background(), "example.com", "boom"))
}

func TestNotify_SendsJSON(t *testing.T) {
	var got EventData
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := newTestNotifier(&config.WebhookConfig{
		Enabled: true,
		URL:     srv.URL,
		Headers: map[string]string{"Authorization": "Bearer token"},
	})

	err := n.NotifyCleanupFailed(context.Background(), "example.com", "_acme-challenge.example.com", "delete failed")
	require.NoError(t, err)

	assert.Equal(t, "Bearer token", auth)
	assert.Equal(t, string(EventCleanupFailed), got.Event)
	assert.Equal(t, "example.com", got.Domain)
	assert.Equal(t, "_acme-challenge.example.com", got.Data["validation_name"])
}

func TestNotify_RetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := newTestNotifier(&config.WebhookConfig{Enabled: true, URL: srv.URL, Retries: 3})

	require.NoError(t, n.NotifyCertFailed(context.Background(), "example.com", "boom"))
	assert.Equal(t, int32(3), calls.Load())
}

func TestNotify_GivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := newTestNotifier(&config.WebhookConfig{Enabled: true, URL: srv.URL, Retries: 2})

	require.Error(t, n.NotifyCertFailed(context.Background(), "example.com", "boom"))
	assert.Equal(t, int32(2), calls.Load())
}

func TestNotify_EventFilter(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	n := newTestNotifier(&config.WebhookConfig{
		Enabled: true,
		URL:     srv.URL,
		Events:  []string{string(EventCertFailed)},
	})

	require.NoError(t, n.NotifyCertRenewed(context.Background(), "example.com", time.Now()))
	assert.Equal(t, int32(0), calls.Load())

	require.NoError(t, n.NotifyCertFailed(context.Background(), "example.com", "boom"))
	assert.Equal(t, int32(1), calls.Load())
}

func TestNotify_BodyTemplate(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
	}))
	defer srv.Close()

	n := newTestNotifier(&config.WebhookConfig{
		Enabled:      true,
		URL:          srv.URL,
		BodyTemplate: `{"text":"{{.Message}}","data":{{toJson .Data}}}`,
	})

	require.NoError(t, n.NotifyCertFailed(context.Background(), "example.com", "boom"))
	assert.JSONEq(t, `{"text":"证书申请失败: example.com","data":{"reason":"boom"}}`, body)
}
