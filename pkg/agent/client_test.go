package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/williamn/expense-assistant/pkg/retry"
)

func fastRetry() retry.Config {
	return retry.Config{
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestClientSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("unexpected auth header %q", auth)
		}

		var req engineRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.AppName != "expense-assistant" || req.UserID != "alice" || req.SessionID != "s1" {
			t.Errorf("unexpected identifiers: %+v", req)
		}
		if len(req.NewMessage.Parts) != 1 || req.NewMessage.Parts[0].Text != "hello" {
			t.Errorf("unexpected content: %+v", req.NewMessage)
		}

		json.NewEncoder(w).Encode(engineResponse{Response: "# FINAL RESPONSE\nhi"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "expense-assistant", 5*time.Second)
	client.SetAPIKey("secret")
	client.SetRetryConfig(fastRetry())

	reply, err := client.Send(context.Background(), "alice", "s1", BuildContent("hello", nil))
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if reply != "# FINAL RESPONSE\nhi" {
		t.Errorf("unexpected reply: %q", reply)
	}
}

func TestClientSendRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "try later", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(engineResponse{Response: "ok"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "expense-assistant", 5*time.Second)
	client.SetRetryConfig(fastRetry())

	reply, err := client.Send(context.Background(), "alice", "s1", BuildContent("hi", nil))
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if reply != "ok" {
		t.Errorf("unexpected reply: %q", reply)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
}

func TestClientSendEngineError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(engineResponse{Error: "model unavailable"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "expense-assistant", 5*time.Second)
	client.SetRetryConfig(fastRetry())

	if _, err := client.Send(context.Background(), "alice", "s1", BuildContent("hi", nil)); err == nil {
		t.Fatal("expected error from engine")
	}
}
