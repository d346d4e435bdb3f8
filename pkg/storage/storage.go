// Package storage uploads business photos to an S3-compatible object store
// over its HTTP API.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Store is the photo storage interface consumed by the business service
type Store interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)
	Remove(ctx context.Context, path string) error
}

// Config holds object storage configuration
type Config struct {
	BaseURL   string
	Bucket    string
	APIKey    string
	PublicURL string
}

// Client talks to the bucket API
type Client struct {
	baseURL   string
	bucket    string
	apiKey    string
	publicURL string
	client    *http.Client
}

// NewClient creates a new storage client
func NewClient(cfg Config) *Client {
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		bucket:    cfg.Bucket,
		apiKey:    cfg.APIKey,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Upload stores data at path in the bucket and returns the public URL
func (c *Client) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	endpoint := fmt.Sprintf("%s/object/%s/%s", c.baseURL, c.bucket, path)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("upload returned status %d: %s", resp.StatusCode, string(body))
	}

	return fmt.Sprintf("%s/object/public/%s/%s", c.publicURL, c.bucket, path), nil
}

// Remove deletes the object at path from the bucket
func (c *Client) Remove(ctx context.Context, path string) error {
	endpoint := fmt.Sprintf("%s/object/%s/%s", c.baseURL, c.bucket, path)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build remove request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("remove request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("remove returned status %d", resp.StatusCode)
	}

	return nil
}

// DevStore is a no-op Store for local development; it logs uploads and
// returns deterministic fake URLs.
type DevStore struct {
	PublicURL string
}

// Upload logs the upload and returns a fake public URL
func (s *DevStore) Upload(_ context.Context, path string, data []byte, contentType string) (string, error) {
	log.Printf("DEV STORAGE: upload %s (%d bytes, %s)", path, len(data), contentType)
	base := s.PublicURL
	if base == "" {
		base = "http://localhost/storage"
	}
	return strings.TrimRight(base, "/") + "/" + path, nil
}

// Remove logs the removal
func (s *DevStore) Remove(_ context.Context, path string) error {
	log.Printf("DEV STORAGE: remove %s", path)
	return nil
}
