package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, caching bool, ttl string) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(ClientConfig{
		APIKey:        "test-key",
		BaseURL:       srv.URL,
		EnableCaching: caching,
		CacheTTL:      ttl,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, srv
}

func okResponse(text string) []byte {
	data, _ := json.Marshal(map[string]any{
		"content": []map[string]any{{"type": "text", "text": text}},
		"usage": map[string]int{
			"input_tokens":  100,
			"output_tokens": 50,
		},
	})
	return data
}

func TestClientSend_CachingEnabled(t *testing.T) {
	var captured requestBody
	var headers http.Header

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write(okResponse("ответ"))
	}, true, "1h")

	got, err := client.Send(context.Background(), "КЭШИРУЕМЫЙ", "ДИНАМИЧЕСКИЙ", 0)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got != "ответ" {
		t.Errorf("unexpected text: %q", got)
	}

	if headers.Get("X-Api-Key") != "test-key" {
		t.Error("missing api key header")
	}
	if headers.Get("Anthropic-Version") != anthropicVersion {
		t.Error("missing version header")
	}
	beta := headers.Get("Anthropic-Beta")
	if beta != promptCachingBeta+",extended-cache-ttl-2025-04-11" {
		t.Errorf("unexpected beta header: %q", beta)
	}

	if len(captured.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(captured.Messages))
	}
	blocks := captured.Messages[0].Content
	if len(blocks) != 2 {
		t.Fatalf("expected 2 content blocks, got %d", len(blocks))
	}
	if blocks[0].CacheControl == nil || blocks[0].CacheControl.Type != "ephemeral" {
		t.Error("cached block must carry ephemeral cache_control")
	}
	if blocks[0].CacheControl.TTL != "1h" {
		t.Errorf("expected ttl 1h, got %q", blocks[0].CacheControl.TTL)
	}
	if blocks[1].CacheControl != nil {
		t.Error("dynamic block must not carry cache_control")
	}
	if captured.MaxTokens != defaultMaxTokens {
		t.Errorf("expected default max_tokens, got %d", captured.MaxTokens)
	}
	if captured.Temperature != 0 {
		t.Errorf("temperature must be 0, got %v", captured.Temperature)
	}
}

func TestClientSend_CachingDisabled(t *testing.T) {
	var captured requestBody

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Anthropic-Beta") != "" {
			t.Error("beta header must be absent without caching")
		}
		json.NewDecoder(r.Body).Decode(&captured)
		w.Write(okResponse("ok"))
	}, false, "")

	if _, err := client.Send(context.Background(), "КЭШ", "ДИНАМИКА", 10); err != nil {
		t.Fatalf("Send: %v", err)
	}

	blocks := captured.Messages[0].Content
	if len(blocks) != 1 {
		t.Fatalf("expected single merged block, got %d", len(blocks))
	}
	if blocks[0].Text != "КЭШДИНАМИКА" {
		t.Errorf("segments must be concatenated: %q", blocks[0].Text)
	}
	if captured.MaxTokens != 10 {
		t.Errorf("explicit max_tokens lost: %d", captured.MaxTokens)
	}
}

func TestClientSend_APIError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"type": "rate_limit_error", "message": "slow down"}}`))
	}, true, "")

	_, err := client.Send(context.Background(), "a", "b", 0)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestNewClient_NoAPIKey(t *testing.T) {
	_, err := NewClient(ClientConfig{})
	if !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
}
