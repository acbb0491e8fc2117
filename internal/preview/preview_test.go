package preview

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const page = `<!doctype html>
<html><head>
<title> Plain title </title>
<meta name="description" content="Plain description">
<meta property="og:title" content="OG title">
<meta property="og:image" content="/img/cover.png">
<link rel="icon" href="favicon.png">
</head><body>hi</body></html>`

func str(p *string) string {
	if p == nil {
		return "<nil>"
	}
	return *p
}

func TestParse(t *testing.T) {
	base, _ := url.Parse("https://example.com/blog/post")
	meta, err := Parse(strings.NewReader(page), base)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	tests := []struct {
		name string
		got  *string
		want string
	}{
		{"title", meta.Title, "OG title"},
		{"description", meta.Description, "Plain description"},
		{"image", meta.Image, "https://example.com/img/cover.png"},
		{"favicon", meta.Favicon, "https://example.com/blog/favicon.png"},
	}
	for _, tt := range tests {
		if str(tt.got) != tt.want {
			t.Errorf("%s = %s, want %s", tt.name, str(tt.got), tt.want)
		}
	}
}

func TestParse_MissingFieldsStayNil(t *testing.T) {
	meta, err := Parse(strings.NewReader(`<html><body>nothing</body></html>`), nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if meta.Title != nil || meta.Description != nil || meta.Image != nil || meta.Favicon != nil {
		t.Fatalf("Parse() = %+v, want all nil", meta)
	}
}

func TestFetcher_DeduplicatesConcurrentFetches(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(page))
	}))
	defer srv.Close()

	f := NewFetcher(5 * time.Second)
	errs := make(chan error, 3)
	for range 3 {
		go func() {
			_, err := f.Fetch(context.Background(), srv.URL)
			errs <- err
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	for range 3 {
		if err := <-errs; err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
	}
	if n := hits.Load(); n != 1 {
		t.Fatalf("server hits = %d, want 1", n)
	}
}

func TestFetcher_RejectsNonHTTP(t *testing.T) {
	_, err := NewFetcher(time.Second).Fetch(context.Background(), "ftp://example.com")
	if !errors.Is(err, ErrUnsupportedURL) {
		t.Fatalf("Fetch() error = %v, want ErrUnsupportedURL", err)
	}
}

type stubSource struct {
	meta Metadata
	err  error
}

func (s stubSource) Fetch(context.Context, string) (Metadata, error) { return s.meta, s.err }

func TestHandler(t *testing.T) {
	title := "Title"
	tests := []struct {
		name   string
		query  string
		source stubSource
		status int
		body   string
	}{
		{"missing url", "", stubSource{}, http.StatusBadRequest, `"error":"No URL"`},
		{"ok", "?url=https://example.com", stubSource{meta: Metadata{Title: &title}}, http.StatusOK, `"title":"Title"`},
		{"upstream failure", "?url=https://example.com", stubSource{err: errors.New("boom")}, http.StatusInternalServerError, `Failed to fetch link preview`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewHandler(tt.source).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/preview"+tt.query, nil))
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if !strings.Contains(rec.Body.String(), tt.body) {
				t.Fatalf("body = %s, want it to contain %s", rec.Body.String(), tt.body)
			}
		})
	}
}

func TestClient_RoundTripsThroughHandler(t *testing.T) {
	title := "Remote"
	srv := httptest.NewServer(NewHandler(stubSource{meta: Metadata{Title: &title}}))
	defer srv.Close()

	meta, err := NewClient(srv.URL+"/preview", srv.Client()).Fetch(context.Background(), "https://example.com/?a=b&c=d")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if str(meta.Title) != "Remote" {
		t.Fatalf("Title = %s, want Remote", str(meta.Title))
	}
}
