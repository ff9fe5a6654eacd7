package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"
)

// DefaultIndexPath is where a site publishes its search index
const DefaultIndexPath = "/search.xml"

// StatusError reports a non-200 response for the index resource
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

// ResolveIndexURL joins a site base URL with the index path.
// An absolute path replaces the site's path, like a root-relative link.
func ResolveIndexURL(siteURL, indexPath string) (string, error) {
	base, err := url.Parse(siteURL)
	if err != nil {
		return "", fmt.Errorf("invalid site URL %q: %w", siteURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("invalid site URL %q: scheme and host are required", siteURL)
	}
	if indexPath == "" {
		indexPath = DefaultIndexPath
	}
	ref, err := url.Parse(indexPath)
	if err != nil {
		return "", fmt.Errorf("invalid index path %q: %w", indexPath, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// HTTPSource fetches the index resource over HTTP
type HTTPSource struct {
	Client *http.Client
	URL    string
}

// NewHTTPSource creates a source for the given index URL.
// A zero timeout leaves requests bounded only by the caller's context.
func NewHTTPSource(indexURL string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		Client: &http.Client{Timeout: timeout},
		URL:    indexURL,
	}
}

// Fetch downloads and decodes the index
func (s *HTTPSource) Fetch(ctx context.Context) ([]Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/xml, text/xml, application/json;q=0.9, */*;q=0.1")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.URL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: s.URL, StatusCode: resp.StatusCode}
	}

	return Decode(resp.Body, FormatFor(s.URL, resp.Header.Get("Content-Type")))
}

// String returns the index URL
func (s *HTTPSource) String() string {
	return s.URL
}

// FileSource reads the index resource from a local file
type FileSource struct {
	Path string
}

// Fetch opens and decodes the index file
func (s *FileSource) Fetch(_ context.Context) ([]Entry, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Decode(f, FormatFor(s.Path, ""))
}

// String returns the index file path
func (s *FileSource) String() string {
	return s.Path
}
