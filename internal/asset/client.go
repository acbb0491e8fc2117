package asset

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

// Client uploads images to an asset endpoint.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient targets the upload endpoint, e.g. "http://host/assets/upload".
func NewClient(endpoint string, c *http.Client) *Client {
	if c == nil {
		c = http.DefaultClient
	}
	return &Client{endpoint: endpoint, http: c}
}

// Upload sends data as a multipart "file" field and returns the stored URL.
func (c *Client) Upload(ctx context.Context, data []byte, mimeType string) (string, error) {
	ext, ok := extensions[mimeType]
	if !ok {
		return "", fmt.Errorf("unsupported image type %q", mimeType)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="pasted%s"`, ext))
	hdr.Set("Content-Type", mimeType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		return "", fmt.Errorf("create form part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write form part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("upload: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	return out.URL, nil
}
