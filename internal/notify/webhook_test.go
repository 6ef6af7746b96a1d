package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	sonic "github.com/bytedance/sonic"
)

func TestWebhookSendAlert(t *testing.T) {
	t.Parallel()

	var received atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode alert body: %v", err)
		}
		received.Store(payload)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	webhook := NewWebhook(WebhookConfig{URL: server.URL, Token: "secret"}, nil)
	if err := webhook.SendAlert(context.Background(), "tapology", "run exceeded wall-clock budget"); err != nil {
		t.Fatalf("SendAlert returned error: %v", err)
	}

	payload, _ := received.Load().(map[string]any)
	if payload["source"] != "tapology" {
		t.Fatalf("unexpected source %v", payload["source"])
	}
	if payload["message"] != "run exceeded wall-clock budget" {
		t.Fatalf("unexpected message %v", payload["message"])
	}
}

func TestWebhookSendAlertRejectsBadEndpoint(t *testing.T) {
	t.Parallel()

	webhook := NewWebhook(WebhookConfig{URL: "not a url"}, nil)
	if err := webhook.SendAlert(context.Background(), "ufc", "boom"); err == nil {
		t.Fatal("expected error for invalid endpoint")
	}
}

func TestWebhookSendAlertSurfacesServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "teapot is down", http.StatusInternalServerError)
	}))
	defer server.Close()

	webhook := NewWebhook(WebhookConfig{URL: server.URL}, nil)
	if err := webhook.SendAlert(context.Background(), "ufc", "boom"); err == nil {
		t.Fatal("expected error for 5xx response")
	}
}
