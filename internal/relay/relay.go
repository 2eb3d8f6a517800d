// Package relay wraps the pass-through fetch proxy used to reach resources
// the app cannot hit directly: source pages for extraction and image files
// whose direct download failed.
package relay

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// maxBodySize caps relay responses; pages and images past this point are
// not worth caching.
const maxBodySize = 10 << 20

type Client struct {
	httpClient *http.Client
	baseURL    string // e.g. "https://api.allorigins.win/raw?url="
}

func NewClient(httpClient *http.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{httpClient: httpClient, baseURL: baseURL}
}

// Get fetches target through the relay and returns the body and its content
// type. The relay offers no guarantees; any non-200 is an error.
func (c *Client) Get(ctx context.Context, target string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+url.QueryEscape(target), nil)
	if err != nil {
		return nil, "", fmt.Errorf("building relay request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("relay fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("relay returned %s for %s", resp.Status, target)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, "", fmt.Errorf("reading relay body: %w", err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}
