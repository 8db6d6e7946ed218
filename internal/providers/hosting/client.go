// Package hosting wraps the image hosting/transform service that stores
// generated images and serves the final thumbnail URLs.
package hosting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Transform describes the server-side resize applied on upload. Pad mode
// letterboxes the source into the target box instead of cropping it.
type Transform struct {
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Crop    string `json:"crop"`
	Quality string `json:"quality"`
	Format  string `json:"fetch_format"`
}

// ThumbnailTransform is the canonical 16:9 thumbnail preset: pad to 1280x720
// with quality and format negotiated by the host.
func ThumbnailTransform() Transform {
	return Transform{Width: 1280, Height: 720, Crop: "pad", Quality: "auto", Format: "auto"}
}

// UploadResult is the hosted image reference returned by the service.
type UploadResult struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Format    string `json:"format"`
}

// Uploader is the contract the worker depends on.
type Uploader interface {
	Upload(ctx context.Context, sourceURL string, t Transform) (UploadResult, error)
}

// Options configures the hosting HTTP client.
type Options struct {
	BaseURL    string
	APIKey     string
	Folder     string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client performs fetch-by-URL uploads against the hosting service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	folder     string
}

func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = "https://api.imghost.example.com/v1"
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Client{
		httpClient: client,
		baseURL:    base,
		token:      strings.TrimSpace(opts.APIKey),
		folder:     opts.Folder,
	}
}

type uploadRequest struct {
	File           string    `json:"file"`
	Folder         string    `json:"folder,omitempty"`
	Transformation Transform `json:"transformation"`
}

type uploadResponse struct {
	UploadResult
	Error string `json:"error"`
}

// Upload asks the service to fetch sourceURL, apply the transform, and store
// the result.
func (c *Client) Upload(ctx context.Context, sourceURL string, t Transform) (UploadResult, error) {
	if c == nil {
		return UploadResult{}, errors.New("hosting client not configured")
	}
	if c.token == "" {
		return UploadResult{}, errors.New("hosting: API key is missing")
	}
	source := strings.TrimSpace(sourceURL)
	if source == "" {
		return UploadResult{}, errors.New("hosting: source url required")
	}

	body, err := json.Marshal(uploadRequest{File: source, Folder: c.folder, Transformation: t})
	if err != nil {
		return UploadResult{}, fmt.Errorf("hosting: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", bytes.NewReader(body))
	if err != nil {
		return UploadResult{}, fmt.Errorf("hosting: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return UploadResult{}, fmt.Errorf("hosting: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return UploadResult{}, fmt.Errorf("hosting: read response: %w", err)
	}

	var decoded uploadResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return UploadResult{}, fmt.Errorf("hosting: decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := decoded.Error
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return UploadResult{}, errors.New(msg)
	}
	if decoded.Error != "" {
		return UploadResult{}, errors.New(decoded.Error)
	}
	if decoded.SecureURL == "" {
		return UploadResult{}, errors.New("hosting: response missing secure_url")
	}
	return decoded.UploadResult, nil
}

var _ Uploader = (*Client)(nil)
