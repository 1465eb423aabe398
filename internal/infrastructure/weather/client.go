package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"NewsForge/internal/config"
	"NewsForge/internal/ports"
)

// Client fetches current conditions from OpenWeatherMap. The first reading
// is cached for the process lifetime; the front page only needs one.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client

	mu     sync.Mutex
	cached string
}

var _ ports.WeatherProvider = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(cfg config.WeatherConfig) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

// CurrentWeather returns a "City, description temp°C" reading for the
// coordinates, serving the cached value once one exists. The lock only guards
// the cache; concurrent first calls may each fetch, and the first writer wins.
func (c *Client) CurrentWeather(ctx context.Context, lat, lon float64) (string, error) {
	c.mu.Lock()
	cached := c.cached
	c.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	if c.apiKey == "" || c.endpoint == "" {
		return "", fmt.Errorf("weather client misconfigured")
	}

	query := url.Values{}
	query.Set("lat", fmt.Sprintf("%f", lat))
	query.Set("lon", fmt.Sprintf("%f", lon))
	query.Set("appid", c.apiKey)
	query.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("weather error: %s", resp.Status)
	}

	var payload struct {
		Name    string `json:"name"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	description := ""
	if len(payload.Weather) > 0 {
		description = payload.Weather[0].Description
	}

	reading := fmt.Sprintf("%s, %s %.1f°C", payload.Name, description, payload.Main.Temp)

	c.mu.Lock()
	if c.cached == "" {
		c.cached = reading
	}
	reading = c.cached
	c.mu.Unlock()

	return reading, nil
}
