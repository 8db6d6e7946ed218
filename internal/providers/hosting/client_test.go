package hosting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientUpload(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer host-key" {
			t.Fatalf("unexpected auth header: %s", got)
		}
		var payload uploadRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if payload.File != "https://img.example.com/raw.png" {
			t.Fatalf("file mismatch: %q", payload.File)
		}
		if payload.Transformation.Width != 1280 || payload.Transformation.Height != 720 {
			t.Fatalf("transform mismatch: %+v", payload.Transformation)
		}
		if payload.Transformation.Crop != "pad" || payload.Transformation.Quality != "auto" {
			t.Fatalf("transform mode mismatch: %+v", payload.Transformation)
		}
		_ = json.NewEncoder(w).Encode(UploadResult{
			SecureURL: "https://cdn.imghost.example.com/thumbnails/abc.webp",
			PublicID:  "thumbnails/abc",
			Width:     1280,
			Height:    720,
			Format:    "webp",
		})
	}))
	defer ts.Close()

	client := NewClient(Options{APIKey: "host-key", BaseURL: ts.URL, Folder: "thumbnails"})
	got, err := client.Upload(context.Background(), "https://img.example.com/raw.png", ThumbnailTransform())
	if err != nil {
		t.Fatalf("Upload error: %v", err)
	}
	if got.SecureURL != "https://cdn.imghost.example.com/thumbnails/abc.webp" || got.PublicID != "thumbnails/abc" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestClientUploadMissingKey(t *testing.T) {
	client := NewClient(Options{})
	if _, err := client.Upload(context.Background(), "https://img.example.com/raw.png", ThumbnailTransform()); err == nil {
		t.Fatalf("expected error when api key missing")
	}
}

func TestClientUploadUpstreamError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "fetch failed"})
	}))
	defer ts.Close()

	client := NewClient(Options{APIKey: "host-key", BaseURL: ts.URL})
	_, err := client.Upload(context.Background(), "https://img.example.com/raw.png", ThumbnailTransform())
	if err == nil || err.Error() != "fetch failed" {
		t.Fatalf("expected upstream message, got %v", err)
	}
}
