package preview

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// Source resolves metadata. *Fetcher implements it.
type Source interface {
	Fetch(ctx context.Context, url string) (Metadata, error)
}

// Handler serves GET /preview?url=.
type Handler struct {
	source Source
}

func NewHandler(source Source) *Handler {
	return &Handler{source: source}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		writeError(w, http.StatusBadRequest, "No URL")
		return
	}

	meta, err := h.source.Fetch(r.Context(), target)
	if err != nil {
		if errors.Is(err, ErrUnsupportedURL) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Warn("link preview fetch failed", "url", target, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch link preview")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(meta)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
