package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dsjohal14/sitesearch/internal/libs/obs"
	"github.com/dsjohal14/sitesearch/internal/scope/feed"
	"github.com/dsjohal14/sitesearch/internal/scope/search"
	"github.com/go-chi/chi/v5"
)

const testOrigin = "https://blog.example.com"

func writeTestIndex(t *testing.T) string {
	t.Helper()

	var buf bytes.Buffer
	err := feed.Encode(&buf, []feed.Entry{
		{Title: "Cats", URL: "/a", Content: "I love cats and dogs"},
		{Title: "Dogs", URL: "/b", Content: "Dogs are great pets"},
		{Title: "Markup", URL: "/c", Content: "escape <b>this</b> please"},
	})
	if err != nil {
		t.Fatalf("failed to encode index: %v", err)
	}

	path := filepath.Join(t.TempDir(), "search.xml")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("failed to write index: %v", err)
	}
	return path
}

func setupTestHandler(t *testing.T, indexPath string) (*Handler, *chi.Mux) {
	obs.InitLogger("error") // Quiet logs during tests
	logger := obs.Logger("test")

	index := search.NewIndex(&feed.FileSource{Path: indexPath}, logger)
	handler := NewHandler(index, logger)

	return handler, NewRouter(handler, []string{testOrigin})
}

func waitForLoad(t *testing.T, h *Handler) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		switch h.index.State() {
		case search.StateLoaded, search.StateFailed:
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("index did not finish loading, state %s", h.index.State())
}

func doSearch(t *testing.T, router http.Handler, req *http.Request) SearchResponse {
	t.Helper()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp SearchResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestHandleHealth(t *testing.T) {
	_, router := setupTestHandler(t, writeTestIndex(t))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Status != "healthy" {
		t.Errorf("expected status healthy, got %v", resp.Status)
	}
	if resp.State != "uninitialized" {
		t.Errorf("expected state uninitialized, got %v", resp.State)
	}
	if resp.DocCount != 0 {
		t.Errorf("expected doc_count 0 before open, got %d", resp.DocCount)
	}
}

func TestHandleOpen(t *testing.T) {
	handler, router := setupTestHandler(t, writeTestIndex(t))

	req := httptest.NewRequest(http.MethodPost, "/search/open", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d", w.Code)
	}

	waitForLoad(t, handler)

	if handler.index.State() != search.StateLoaded {
		t.Fatalf("expected loaded index, got %s", handler.index.State())
	}
	if handler.index.Len() != 3 {
		t.Errorf("expected 3 entries, got %d", handler.index.Len())
	}

	// A second open must not reload
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/search/open", nil))

	var resp OpenResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.State != "loaded" {
		t.Errorf("expected state loaded, got %s", resp.State)
	}
}

func TestHandleSearchBeforeOpen(t *testing.T) {
	_, router := setupTestHandler(t, writeTestIndex(t))

	resp := doSearch(t, router, httptest.NewRequest(http.MethodGet, "/search?q=dog", nil))

	if resp.Count != 0 || len(resp.Results) != 0 {
		t.Errorf("expected no results before load, got %d", resp.Count)
	}
	if resp.Message != "" {
		t.Errorf("expected no message before load, got %q", resp.Message)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search/results?q=dog", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("expected blank list before load, got %q", w.Body.String())
	}
}

func TestHandleSearch(t *testing.T) {
	handler, router := setupTestHandler(t, writeTestIndex(t))
	handler.index.EnsureLoaded(t.Context())

	tests := []struct {
		name     string
		req      func() *http.Request
		expected []string
		message  string
	}{
		{
			name:     "get matches title and content in index order",
			req:      func() *http.Request { return httptest.NewRequest(http.MethodGet, "/search?q=dog", nil) },
			expected: []string{"/a", "/b"},
		},
		{
			name:     "get is case insensitive",
			req:      func() *http.Request { return httptest.NewRequest(http.MethodGet, "/search?q=DOG", nil) },
			expected: []string{"/a", "/b"},
		},
		{
			name: "post with limit",
			req: func() *http.Request {
				body, _ := json.Marshal(SearchRequest{Query: "dog", Limit: 1})
				return httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader(body))
			},
			expected: []string{"/a"},
		},
		{
			name: "post limit above cap",
			req: func() *http.Request {
				body, _ := json.Marshal(SearchRequest{Query: "e", Limit: 500})
				return httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader(body))
			},
			expected: []string{"/a", "/b", "/c"},
		},
		{
			name:     "no matches",
			req:      func() *http.Request { return httptest.NewRequest(http.MethodGet, "/search?q=zzz", nil) },
			expected: []string{},
			message:  search.EmptyMessage,
		},
		{
			name:     "empty query",
			req:      func() *http.Request { return httptest.NewRequest(http.MethodGet, "/search?q=+++", nil) },
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doSearch(t, router, tt.req())

			if resp.Count != len(tt.expected) || len(resp.Results) != len(tt.expected) {
				t.Fatalf("expected %d results, got %d", len(tt.expected), resp.Count)
			}
			for i, url := range tt.expected {
				if resp.Results[i].URL != url {
					t.Errorf("result %d: expected %s, got %s", i, url, resp.Results[i].URL)
				}
			}
			if resp.Message != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, resp.Message)
			}
		})
	}
}

func TestHandleSearchSnippets(t *testing.T) {
	handler, router := setupTestHandler(t, writeTestIndex(t))
	handler.index.EnsureLoaded(t.Context())

	resp := doSearch(t, router, httptest.NewRequest(http.MethodGet, "/search?q=this", nil))
	if resp.Count != 1 {
		t.Fatalf("expected 1 result, got %d", resp.Count)
	}

	if resp.Results[0].Snippet != "escape &lt;b>this&lt;/b> please..." {
		t.Errorf("unexpected snippet: %q", resp.Results[0].Snippet)
	}
	if resp.Results[0].Title != "Markup" {
		t.Errorf("expected title Markup, got %s", resp.Results[0].Title)
	}
}

func TestHandleSearchInvalidJSON(t *testing.T) {
	_, router := setupTestHandler(t, writeTestIndex(t))

	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Code != "INVALID_JSON" {
		t.Errorf("expected code INVALID_JSON, got %s", resp.Code)
	}
}

func TestHandleResults(t *testing.T) {
	handler, router := setupTestHandler(t, writeTestIndex(t))
	handler.index.EnsureLoaded(t.Context())

	tests := []struct {
		name     string
		query    string
		expected string
	}{
		{
			name:     "matches",
			query:    "cats",
			expected: `<a href="/a" class="search-result-item"><h4>Cats</h4><p>I love cats and dogs...</p></a>`,
		},
		{
			name:     "no matches",
			query:    "zzz",
			expected: `<div class="search-result-item"><h4>` + search.EmptyMessage + `</h4></div>`,
		},
		{
			name:     "empty query clears results",
			query:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/search/results?q="+tt.query, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", w.Code)
			}
			if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
				t.Errorf("expected text/html, got %s", ct)
			}
			if w.Body.String() != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, w.Body.String())
			}
		})
	}
}

func TestCORS(t *testing.T) {
	_, router := setupTestHandler(t, writeTestIndex(t))

	req := httptest.NewRequest(http.MethodOptions, "/search", nil)
	req.Header.Set("Origin", testOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != testOrigin {
		t.Errorf("expected allowed origin %s, got %q", testOrigin, got)
	}

	req = httptest.NewRequest(http.MethodGet, "/search?q=x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no allowed origin for foreign site, got %q", got)
	}
}

func TestIndexUnavailable(t *testing.T) {
	handler, router := setupTestHandler(t, filepath.Join(t.TempDir(), "missing.xml"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/search/open", nil))
	waitForLoad(t, handler)

	if handler.index.State() != search.StateFailed {
		t.Fatalf("expected failed state, got %s", handler.index.State())
	}

	resp := doSearch(t, router, httptest.NewRequest(http.MethodGet, "/search?q=anything", nil))
	if resp.Count != 0 {
		t.Errorf("expected no results, got %d", resp.Count)
	}
	if resp.Message != search.EmptyMessage {
		t.Errorf("expected empty-state message once load failed, got %q", resp.Message)
	}
}

// Black-box smoke test: open → search → render
func TestFullPipeline(t *testing.T) {
	handler, router := setupTestHandler(t, writeTestIndex(t))

	// Step 1: open the search box
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/search/open", nil))
	if w.Code != http.StatusAccepted {
		t.Fatalf("open failed: %d", w.Code)
	}
	waitForLoad(t, handler)

	// Step 2: type a query
	body, _ := json.Marshal(SearchRequest{Query: "  Pets "})
	resp := doSearch(t, router, httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader(body)))
	if resp.Count != 1 || resp.Results[0].URL != "/b" {
		t.Fatalf("expected /b, got %+v", resp.Results)
	}
	if resp.Results[0].Snippet != "Dogs are great pets..." {
		t.Errorf("unexpected snippet %q", resp.Results[0].Snippet)
	}

	// Step 3: render the same query as HTML
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search/results?q=pets", nil))
	if !strings.Contains(w.Body.String(), `href="/b"`) {
		t.Errorf("rendered results missing /b: %s", w.Body.String())
	}
}
