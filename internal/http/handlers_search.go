package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dsjohal14/sitesearch/internal/scope/search"
)

// HandleOpen starts loading the index the first time the search box opens.
// It never waits for the load.
func (h *Handler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())
	go func() {
		if h.index.EnsureLoaded(ctx) {
			h.logger.Debug().Str("state", h.index.State().String()).Msg("index load finished")
		}
	}()

	writeJSON(w, http.StatusAccepted, OpenResponse{State: h.index.State().String()})
}

// HandleSearch filters the loaded index by substring.
// GET reads the term from ?q=, POST from a JSON SearchRequest.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	req := SearchRequest{Query: r.URL.Query().Get("q")}
	if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.logger.Warn().Err(err).Msg("invalid search request")
			writeError(w, http.StatusBadRequest, "invalid JSON", "INVALID_JSON")
			return
		}
	}

	// Set default and max limits
	if req.Limit <= 0 || req.Limit > search.MaxResults {
		req.Limit = search.MaxResults
	}

	matches := h.index.Search(req.Query)
	if len(matches) > req.Limit {
		matches = matches[:req.Limit]
	}

	results := make([]SearchResult, len(matches))
	for i, m := range matches {
		results[i] = SearchResult{
			Title:   m.Title,
			URL:     m.URL,
			Snippet: m.Snippet,
		}
	}

	resp := SearchResponse{
		Results: results,
		Count:   len(results),
		Query:   req.Query,
	}
	if len(results) == 0 && isQuery(req.Query) && h.loadFinished() {
		resp.Message = search.EmptyMessage
	}

	h.logger.Info().
		Str("query", req.Query).
		Int("results", len(results)).
		Str("state", h.index.State().String()).
		Msg("search completed")

	writeJSON(w, http.StatusOK, resp)
}

// HandleResults renders matches for ?q= as the overlay's HTML fragment.
// An empty term, or an index still waiting on its first load, clears the list.
func (h *Handler) HandleResults(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if !isQuery(q) || !h.loadFinished() {
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := search.RenderHTML(w, h.index.Search(q)); err != nil {
		h.logger.Error().Err(err).Str("query", q).Msg("failed to render results")
	}
}

// loadFinished reports whether the first load has completed, either way.
// Until then an empty result means no data rather than no match.
func (h *Handler) loadFinished() bool {
	switch h.index.State() {
	case search.StateLoaded, search.StateFailed:
		return true
	}
	return false
}

func isQuery(q string) bool {
	return strings.TrimSpace(q) != ""
}
