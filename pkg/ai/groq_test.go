package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/johnquangdev/meeting-scribe/pkg/config"
	"github.com/johnquangdev/meeting-scribe/pkg/invoker"
)

func groqTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *GroqClient) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	client := NewGroqClient(&config.GroqConfig{
		APIKey:  "test-key",
		BaseURL: ts.URL,
		Model:   "test-model",
	}, nil)
	return ts, client
}

func TestExtractActionItems_Success(t *testing.T) {
	_, client := groqTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/openai/v1/chat/completions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("unexpected auth header %q", got)
		}

		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("invalid payload: %v", err)
		}
		if req.Model != "test-model" {
			t.Fatalf("unexpected model %q", req.Model)
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": `{"action_items":[]}`}},
			},
		})
	})

	content, err := client.ExtractActionItems(context.Background(), "we should ship the fix tomorrow")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if content != `{"action_items":[]}` {
		t.Fatalf("unexpected content %q", content)
	}
}

func TestChat_RateLimitClassified(t *testing.T) {
	_, client := groqTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.ExtractActionItems(context.Background(), "fragment")
	if !errors.Is(err, invoker.ErrRateLimited) {
		t.Fatalf("expected rate limit classification, got %v", err)
	}
}

func TestChat_ServerErrorRetriedThenSucceeds(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "ok"}},
			},
		})
	}))
	defer ts.Close()

	inv := invoker.New(invoker.Config{MaxAttempts: 3, BaseDelay: time.Millisecond}, nil)
	client := NewGroqClient(&config.GroqConfig{APIKey: "k", BaseURL: ts.URL, Model: "m"}, inv)

	content, err := client.GenerateFinalAnalysis(context.Background(), "full transcript text")
	if err != nil {
		t.Fatalf("expected recovery after retry: %v", err)
	}
	if content != "ok" || calls != 2 {
		t.Fatalf("content=%q calls=%d", content, calls)
	}
}

func TestChat_EmptyChoicesRejected(t *testing.T) {
	_, client := groqTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	})

	_, err := client.ExtractActionItems(context.Background(), "fragment")
	if !errors.Is(err, invoker.ErrRejected) {
		t.Fatalf("expected rejection for empty choices, got %v", err)
	}
	if !strings.Contains(err.Error(), "empty response") {
		t.Fatalf("error should describe the condition: %v", err)
	}
}
