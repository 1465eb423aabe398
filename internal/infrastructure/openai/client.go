package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"NewsForge/internal/config"
	"NewsForge/internal/ports"
)

// Client implements ports.ContentProvider backed by OpenAI-compatible
// completion and image-generation APIs.
type Client struct {
	textEndpoint  string
	imageEndpoint string
	model         string
	apiKey        string
	temperature   float64
	limiter       *rate.Limiter
	httpClient    *http.Client
}

var _ ports.ContentProvider = (*Client)(nil)

// NewClient builds a client from configuration.
func NewClient(cfg config.OpenAIConfig) *Client {
	perMinute := cfg.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 20
	}

	return &Client{
		textEndpoint:  cfg.TextEndpoint,
		imageEndpoint: cfg.ImageEndpoint,
		model:         cfg.Model,
		apiKey:        cfg.APIKey,
		temperature:   cfg.Temperature,
		limiter:       rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// GenerateText requests a completion for the prompt, bounded by maxTokens.
func (c *Client) GenerateText(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if c.apiKey == "" || c.textEndpoint == "" || c.model == "" {
		return "", fmt.Errorf("openai client misconfigured")
	}

	body := map[string]any{
		"model":       c.model,
		"prompt":      prompt,
		"temperature": c.temperature,
		"max_tokens":  maxTokens,
	}

	var resp struct {
		Choices []struct {
			Text string `json:"text"`
		} `json:"choices"`
	}

	if err := c.post(ctx, c.textEndpoint, body, &resp); err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}

	return resp.Choices[0].Text, nil
}

// GenerateImage requests one 1024x1024 image and returns its transient,
// provider-hosted URL. The URL carries no durability guarantee.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" || c.imageEndpoint == "" {
		return "", fmt.Errorf("openai client misconfigured")
	}

	body := map[string]any{
		"prompt": prompt,
		"n":      1,
		"size":   "1024x1024",
	}

	var resp struct {
		Data []struct {
			URL string `json:"url"`
		} `json:"data"`
	}

	if err := c.post(ctx, c.imageEndpoint, body, &resp); err != nil {
		return "", err
	}

	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", fmt.Errorf("image generation returned no url")
	}

	return resp.Data[0].URL, nil
}

func (c *Client) post(ctx context.Context, endpoint string, payload any, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("openai error %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	if v == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
