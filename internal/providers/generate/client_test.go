package generate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientGenerate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("unexpected auth header: %s", got)
		}
		var payload generateRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if payload.Prompt != "cooking video about pasta. Style: vibrant" {
			t.Fatalf("prompt mismatch: %q", payload.Prompt)
		}
		if payload.AspectRatio != "16:9" || payload.NumOutputs != 1 {
			t.Fatalf("defaults not applied: %+v", payload)
		}
		if payload.ReferenceImage != "https://cdn.example.com/ref.png" {
			t.Fatalf("reference image mismatch: %q", payload.ReferenceImage)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"output": []any{map[string]string{"url": "https://img.example.com/out.png"}},
		})
	}))
	defer ts.Close()

	client := NewClient(Options{APIKey: "test-key", BaseURL: ts.URL})
	got, err := client.Generate(context.Background(), Request{
		Prompt:         "cooking video about pasta. Style: vibrant",
		ReferenceImage: "https://cdn.example.com/ref.png",
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if got != "https://img.example.com/out.png" {
		t.Fatalf("unexpected url: %s", got)
	}
}

func TestClientGenerateMissingKey(t *testing.T) {
	client := NewClient(Options{})
	if _, err := client.Generate(context.Background(), Request{Prompt: "anything"}); err == nil {
		t.Fatalf("expected error when api key missing")
	}
}

func TestClientGenerateUpstreamError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "model overloaded"})
	}))
	defer ts.Close()

	client := NewClient(Options{APIKey: "test-key", BaseURL: ts.URL})
	_, err := client.Generate(context.Background(), Request{Prompt: "anything"})
	if err == nil || err.Error() != "model overloaded" {
		t.Fatalf("expected upstream message, got %v", err)
	}
}

func TestClientGenerateEmptyOutput(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"output": []any{}})
	}))
	defer ts.Close()

	client := NewClient(Options{APIKey: "test-key", BaseURL: ts.URL})
	if _, err := client.Generate(context.Background(), Request{Prompt: "anything"}); err == nil {
		t.Fatalf("expected error for empty output")
	}
}
