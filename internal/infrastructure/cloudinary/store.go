package cloudinary

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"NewsForge/internal/config"
	"NewsForge/internal/ports"
)

// Store implements ports.MediaStore on the Cloudinary upload API. Uploading
// by source URL makes the provider fetch the transient image itself, and the
// returned delivery URL is stable as long as the asset exists.
type Store struct {
	cloudName string
	apiKey    string
	apiSecret string
	uploadURL string
	clock     func() time.Time
	client    *http.Client
}

var _ ports.MediaStore = (*Store)(nil)

// NewStore builds a store from configuration.
func NewStore(cfg config.CloudinaryConfig) *Store {
	return &Store{
		cloudName: cfg.CloudName,
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		uploadURL: fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/image/upload", cfg.CloudName),
		clock:     time.Now,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Upload asks Cloudinary to fetch sourceURL and store it under key, then
// returns the 256x256 fill-cropped delivery URL for the stored asset.
func (s *Store) Upload(ctx context.Context, sourceURL, key string) (string, error) {
	if s.cloudName == "" || s.apiKey == "" || s.apiSecret == "" {
		return "", fmt.Errorf("cloudinary store misconfigured")
	}
	if sourceURL == "" {
		return "", fmt.Errorf("empty source url")
	}

	timestamp := s.clock().Unix()

	form := url.Values{}
	form.Set("file", sourceURL)
	form.Set("public_id", key)
	form.Set("timestamp", fmt.Sprintf("%d", timestamp))
	form.Set("api_key", s.apiKey)
	form.Set("signature", s.sign(key, timestamp))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.uploadURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cloudinary error: %s", resp.Status)
	}

	var uploaded struct {
		PublicID string `json:"public_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if uploaded.PublicID == "" {
		uploaded.PublicID = key
	}

	return s.deliveryURL(uploaded.PublicID), nil
}

// sign produces the SHA-1 request signature over the sorted upload
// parameters, per the Cloudinary authentication scheme.
func (s *Store) sign(key string, timestamp int64) string {
	payload := fmt.Sprintf("public_id=%s&timestamp=%d%s", key, timestamp, s.apiSecret)
	sum := sha1.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])
}

func (s *Store) deliveryURL(publicID string) string {
	return fmt.Sprintf("https://res.cloudinary.com/%s/image/upload/c_fill,h_256,w_256/%s", s.cloudName, publicID)
}
