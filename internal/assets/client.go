// Package assets builds the processed reference clips: it scrapes sound
// library pages for audio links, downloads them, normalizes each clip to a
// fixed duration and writes tagged WAV files.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/aykutaksit/marine-animals/pkg/utils"
)

const (
	maxPageBytes  = 4 << 20
	maxAudioBytes = 64 << 20
)

// Client fetches sound library pages and audio files.
type Client struct {
	httpClient *http.Client
	userAgent  string
	retryDelay time.Duration
}

// NewClient creates a Client with the given request timeout and User-Agent.
func NewClient(timeout time.Duration, userAgent string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		retryDelay: 2 * time.Second,
	}
}

// FetchPage returns the body of an HTML page.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (string, error) {
	var body string
	err := c.withRetry(ctx, func() error {
		resp, err := c.get(ctx, pageURL, "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
		if err != nil {
			return fmt.Errorf("failed to read page %s: %w", pageURL, err)
		}
		body = string(data)
		return nil
	})
	return body, err
}

// Download saves the resource at fileURL to dst.
func (c *Client) Download(ctx context.Context, fileURL, dst string) error {
	return c.withRetry(ctx, func() error {
		resp, err := c.get(ctx, fileURL, "audio/*,*/*;q=0.8")
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if _, err := utils.WriteFile(dst, resp.Body, maxAudioBytes); err != nil {
			return fmt.Errorf("failed to save %s: %w", fileURL, err)
		}
		return nil
	})
}

func (c *Client) get(ctx context.Context, target, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", target, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%s returned %d", target, resp.StatusCode)
	}
	return resp, nil
}

// withRetry runs fn and retries it once after a network-level failure.
func (c *Client) withRetry(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil || !isTransient(err) {
		return err
	}

	select {
	case <-ctx.Done():
		return err
	case <-time.After(c.retryDelay):
	}
	return fn()
}

func isTransient(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr)
}
