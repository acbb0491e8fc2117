package export

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/dedbin/rimo/internal/board"
	"github.com/dedbin/rimo/internal/store"
)

// Source looks up the current content of an open board.
type Source interface {
	Snapshot(boardID string) (store.Snapshot, bool)
}

type Handler struct {
	source Source
}

func NewHandler(source Source) *Handler {
	return &Handler{source: source}
}

// ExportBoard handles GET /boards/{boardId}/export. format=snapshot (the
// default) returns the layer map and paint order; format=layers returns the
// layers in paint order as a clipboard payload that pastes into any board.
func (h *Handler) ExportBoard(w http.ResponseWriter, r *http.Request) {
	boardID := mux.Vars(r)["boardId"]

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "snapshot"
	}
	if format != "snapshot" && format != "layers" {
		http.Error(w, "invalid format: must be snapshot or layers", http.StatusBadRequest)
		return
	}

	snap, ok := h.source.Snapshot(boardID)
	if !ok {
		http.Error(w, "board not found", http.StatusNotFound)
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = boardID
	}
	// Sanitize filename
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)

	var (
		data []byte
		err  error
	)
	switch format {
	case "snapshot":
		data, err = json.Marshal(snap)
	case "layers":
		data, err = board.MarshalLayers(snap.Ordered())
	}
	if err != nil {
		slog.Error("encode board export", "error", err, "board", boardID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	slog.Info("board exported", "board", boardID, "format", format, "layers", len(snap.Order))

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s.json"`, name, format))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
