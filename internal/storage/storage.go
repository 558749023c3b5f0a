// Package storage uploads generated images to object storage and resolves
// their public URLs.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/facestudio/facestudio/internal/config"
	"github.com/google/uuid"
)

// ErrNotConfigured is returned when no storage backend is configured.
var ErrNotConfigured = errors.New("object storage not configured")

// Client talks to an object storage service over its REST API. A blob is
// uploaded under a key, resolves to a public URL and can be deleted by key.
type Client struct {
	baseURL    string
	bucket     string
	serviceKey string
	httpClient *http.Client
}

// NewClient constructs a Client from configuration. Returns nil when storage
// is unconfigured; callers treat a nil client as the data-URI fallback path.
func NewClient(cfg config.StorageConfig) *Client {
	if cfg.BaseURL == "" || cfg.Bucket == "" {
		return nil
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		bucket:     cfg.Bucket,
		serviceKey: cfg.ServiceKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// NewObjectKey builds a per-user object key with a timestamp and random
// suffix so concurrent uploads never collide.
func NewObjectKey(userID uint64) string {
	return fmt.Sprintf("%d/%d_%s.png", userID, time.Now().UnixMilli(), uuid.NewString())
}

// Upload stores the blob under key with the given content type.
func (c *Client) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if c == nil {
		return ErrNotConfigured
	}

	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, c.bucket, key)
	req, errNew := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if errNew != nil {
		return errNew
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)

	resp, errDo := c.httpClient.Do(req)
	if errDo != nil {
		return errDo
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("storage upload status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// PublicURL returns the publicly resolvable URL for key.
func (c *Client) PublicURL(key string) string {
	if c == nil {
		return ""
	}
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.baseURL, c.bucket, key)
}

// Delete removes the blob stored under key.
func (c *Client) Delete(ctx context.Context, key string) error {
	if c == nil {
		return ErrNotConfigured
	}

	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, c.bucket, key)
	req, errNew := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if errNew != nil {
		return errNew
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)

	resp, errDo := c.httpClient.Do(req)
	if errDo != nil {
		return errDo
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("storage delete status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
