package httpapi

import "net/http"

// HandleHealth returns API health status, index state and document count
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{
		Status:   "healthy",
		State:    h.index.State().String(),
		DocCount: h.index.Len(),
	}

	h.logger.Debug().Str("state", resp.State).Int("doc_count", resp.DocCount).Msg("health check")

	writeJSON(w, http.StatusOK, resp)
}
