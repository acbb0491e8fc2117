// Package preview fetches link metadata (title, description, image, icon)
// for pasted URLs.
package preview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/sync/singleflight"
)

const maxDocumentSize = 2 << 20 // 2MB

var ErrUnsupportedURL = errors.New("only http and https links can be previewed")

// Metadata describes a page. Fields the page does not provide stay nil.
type Metadata struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Image       *string `json:"image,omitempty"`
	Favicon     *string `json:"favicon,omitempty"`
}

// Fetcher downloads pages and extracts their metadata. Concurrent requests
// for the same URL share one download.
type Fetcher struct {
	client *http.Client
	group  singleflight.Group
}

func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{client: &http.Client{Timeout: timeout}}
}

// NewFetcherWithClient uses a caller-provided client.
func NewFetcherWithClient(c *http.Client) *Fetcher {
	return &Fetcher{client: c}
}

func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Metadata, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return Metadata{}, fmt.Errorf("parse url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Metadata{}, ErrUnsupportedURL
	}

	v, err, _ := f.group.Do(u.String(), func() (any, error) {
		return f.fetch(ctx, u)
	})
	if err != nil {
		return Metadata{}, err
	}
	return v.(Metadata), nil
}

func (f *Fetcher) fetch(ctx context.Context, u *url.URL) (Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Metadata{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("User-Agent", "rimo-link-preview/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return Metadata{}, fmt.Errorf("fetch %s: %w", u.Host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Metadata{}, fmt.Errorf("fetch %s: status %d", u.Host, resp.StatusCode)
	}

	ct := resp.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "image/") {
		// Direct image link: the image is its own preview.
		s := u.String()
		return Metadata{Image: &s}, nil
	}

	base := u
	if resp.Request != nil && resp.Request.URL != nil {
		base = resp.Request.URL
	}
	return Parse(io.LimitReader(resp.Body, maxDocumentSize), base)
}

// Parse extracts metadata from an HTML document. Relative image and icon
// links are resolved against base. Open Graph tags win over plain ones.
func Parse(r io.Reader, base *url.URL) (Metadata, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Metadata{}, fmt.Errorf("parse html: %w", err)
	}

	var (
		title, ogTitle       string
		desc, ogDesc         string
		ogImage, icon, touch string
	)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				key := strings.ToLower(attr(n, "property"))
				if key == "" {
					key = strings.ToLower(attr(n, "name"))
				}
				content := strings.TrimSpace(attr(n, "content"))
				switch key {
				case "og:title":
					ogTitle = content
				case "og:description":
					ogDesc = content
				case "description":
					desc = content
				case "og:image", "og:image:url", "twitter:image":
					if ogImage == "" {
						ogImage = content
					}
				}
			case "link":
				rel := strings.ToLower(attr(n, "rel"))
				href := strings.TrimSpace(attr(n, "href"))
				switch {
				case href == "":
				case rel == "icon" || rel == "shortcut icon":
					if icon == "" {
						icon = href
					}
				case rel == "apple-touch-icon":
					if touch == "" {
						touch = href
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if icon == "" {
		icon = touch
	}
	if icon == "" && base != nil {
		icon = "/favicon.ico"
	}

	return Metadata{
		Title:       optional(first(ogTitle, title)),
		Description: optional(first(ogDesc, desc)),
		Image:       optional(resolve(base, ogImage)),
		Favicon:     optional(resolve(base, icon)),
	}, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func resolve(base *url.URL, ref string) string {
	if ref == "" || base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}
