package generate

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

// Options configures the generation HTTP client.
type Options struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client talks to the text-to-image service. One synchronous call per job,
// no internal retry; the worker treats any error as terminal.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	model      string
}

func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = "https://api.imagine.example.com/v1"
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	model := opts.Model
	if model == "" {
		model = "flux-schnell"
	}
	return &Client{
		httpClient: client,
		baseURL:    base,
		token:      strings.TrimSpace(opts.APIKey),
		model:      model,
	}
}

type generateRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	AspectRatio    string `json:"aspect_ratio"`
	OutputFormat   string `json:"output_format"`
	Quality        int    `json:"quality"`
	NumOutputs     int    `json:"num_outputs"`
	ReferenceImage string `json:"reference_image,omitempty"`
}

type generateResponse struct {
	Output []json.RawMessage `json:"output"`
	Error  string            `json:"error"`
}

// Generate runs one generation call and returns the URL of the first output.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	if c == nil {
		return "", errors.New("generate client not configured")
	}
	if c.token == "" {
		return "", errors.New("generate: API key is missing")
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", errors.New("generate: prompt required")
	}

	payload := generateRequest{
		Model:          c.model,
		Prompt:         prompt,
		AspectRatio:    req.AspectRatio,
		OutputFormat:   req.OutputFormat,
		Quality:        req.Quality,
		NumOutputs:     req.NumOutputs,
		ReferenceImage: req.ReferenceImage,
	}
	if payload.AspectRatio == "" {
		payload.AspectRatio = "16:9"
	}
	if payload.OutputFormat == "" {
		payload.OutputFormat = "png"
	}
	if payload.Quality <= 0 {
		payload.Quality = 90
	}
	if payload.NumOutputs <= 0 {
		payload.NumOutputs = 1
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("generate: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("generate: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("generate: read response: %w", err)
	}

	var decoded generateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("generate: decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := decoded.Error
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return "", errors.New(msg)
	}
	if decoded.Error != "" {
		return "", errors.New(decoded.Error)
	}
	if len(decoded.Output) == 0 {
		return "", errors.New("generate: empty output")
	}

	return NormalizeOutput(decoded.Output[0])
}

var _ Generator = (*Client)(nil)
