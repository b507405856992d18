package summarizer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	openaioption "github.com/openai/openai-go/v3/option"
)

func TestOpenAIBackendComplete(t *testing.T) {
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/responses") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "resp_1",
			"object": "response",
			"created_at": 1,
			"status": "completed",
			"model": "gpt-4o",
			"output": [{
				"type": "message",
				"id": "msg_1",
				"role": "assistant",
				"status": "completed",
				"content": [{"type": "output_text", "text": "  The agreement is a lease.  ", "annotations": []}]
			}]
		}`)
	}))
	defer srv.Close()

	b := NewOpenAIBackend("test-key",
		openaioption.WithBaseURL(srv.URL+"/v1/"),
		openaioption.WithMaxRetries(0))

	got, err := b.Complete(context.Background(), Prompt{System: "sys", User: "user"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got != "The agreement is a lease." {
		t.Fatalf("unexpected summary: %q", got)
	}

	if gotBody["instructions"] != "sys" || gotBody["input"] != "user" || gotBody["model"] != "gpt-4o" {
		t.Fatalf("unexpected request body: %v", gotBody)
	}
}

func TestAnthropicBackendComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/messages") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-sonnet-4-20250514",
			"content": [{"type": "text", "text": "Parties: A and B."}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`)
	}))
	defer srv.Close()

	b := NewAnthropicBackend("test-key",
		anthropicoption.WithBaseURL(srv.URL),
		anthropicoption.WithMaxRetries(0))

	got, err := b.Complete(context.Background(), Prompt{System: "sys", User: "user"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got != "Parties: A and B." {
		t.Fatalf("unexpected summary: %q", got)
	}
}

func TestOpenAIBackendRequestError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error": {"message": "bad key", "type": "invalid_request_error"}}`)
	}))
	defer srv.Close()

	b := NewOpenAIBackend("bad",
		openaioption.WithBaseURL(srv.URL+"/v1/"),
		openaioption.WithMaxRetries(0))

	if _, err := b.Complete(context.Background(), Prompt{System: "sys", User: "user"}); err == nil {
		t.Fatalf("expected error for unauthorized response")
	}
}
