package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Parallel()

	if NewClient(Config{}) != nil {
		t.Fatal("expected nil client without api key")
	}
	if _, err := NewCompleter(Config{}); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestCompleterSendsSystemAndUserMessages(t *testing.T) {
	t.Parallel()

	var body struct {
		Model       string  `json:"model"`
		Temperature float64 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Title"); got != "DriftDesk" {
			t.Errorf("unexpected X-Title %q", got)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":" Sales\n"}}]}`))
	}))
	defer srv.Close()

	c, err := NewCompleter(Config{BaseURL: srv.URL + "/", APIKey: "k", Model: "router-model", SiteName: "DriftDesk", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := c.Complete(context.Background(), "classify", "I want a desk")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != " Sales\n" {
		t.Fatalf("unexpected completion %q", out)
	}
	if body.Model != "router-model" || len(body.Messages) != 2 {
		t.Fatalf("unexpected request: %+v", body)
	}
	if body.Messages[0].Role != "system" || body.Messages[1].Content != "I want a desk" {
		t.Fatalf("unexpected messages: %+v", body.Messages)
	}
}
