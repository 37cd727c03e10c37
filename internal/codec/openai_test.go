package codec

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newChatServer(t *testing.T, content string, status int) (*httptest.Server, *map[string]any) {
	t.Helper()
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 3, "completion_tokens": 2, "total_tokens": 5},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestOpenAI_Generate(t *testing.T) {
	srv, req := newChatServer(t, "stabilized", http.StatusOK)
	c, err := NewOpenAIClient(OpenAIConfig{APIKey: "test", BaseURL: srv.URL + "/v1", Model: "gpt-4o-mini"}, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	got, err := c.Generate(context.Background(), "layer prompt")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got != "stabilized" {
		t.Fatalf("unexpected content %q", got)
	}

	msgs, _ := (*req)["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected system + user messages, got %v", (*req)["messages"])
	}
	user, _ := msgs[1].(map[string]any)
	if user["content"] != "layer prompt" {
		t.Fatalf("user message content %v", user["content"])
	}
}

func TestOpenAI_EmptyChoice(t *testing.T) {
	srv, _ := newChatServer(t, "", http.StatusOK)
	c, _ := NewOpenAIClient(OpenAIConfig{APIKey: "test", BaseURL: srv.URL + "/v1"}, nil)

	if _, err := c.Generate(context.Background(), "p"); !errors.Is(err, ErrEmptyReply) {
		t.Fatalf("expected ErrEmptyReply, got %v", err)
	}
}

func TestOpenAI_HTTPError(t *testing.T) {
	srv, _ := newChatServer(t, "", http.StatusBadRequest)
	c, _ := NewOpenAIClient(OpenAIConfig{APIKey: "test", BaseURL: srv.URL + "/v1"}, nil)

	if _, err := c.Generate(context.Background(), "p"); err == nil {
		t.Fatal("expected error on 400")
	}
}

func TestOpenAI_RequiresKey(t *testing.T) {
	if _, err := NewOpenAIClient(OpenAIConfig{}, nil); err == nil {
		t.Fatal("expected missing key error")
	}
}
