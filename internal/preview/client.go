package preview

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Client asks a preview endpoint for metadata instead of fetching pages
// itself. Browsers use it since they cannot read cross-origin pages.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient targets the preview endpoint, e.g. "http://host/preview".
func NewClient(endpoint string, c *http.Client) *Client {
	if c == nil {
		c = http.DefaultClient
	}
	return &Client{endpoint: strings.TrimRight(endpoint, "/"), http: c}
}

func (c *Client) Fetch(ctx context.Context, target string) (Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?url="+url.QueryEscape(target), nil)
	if err != nil {
		return Metadata{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Metadata{}, fmt.Errorf("request preview: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return Metadata{}, fmt.Errorf("preview endpoint: status %d: %s", resp.StatusCode, body.Error)
	}

	var meta Metadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return Metadata{}, fmt.Errorf("decode preview: %w", err)
	}
	return meta, nil
}
