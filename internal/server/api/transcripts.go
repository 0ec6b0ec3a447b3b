package api

import (
	"net/http"
	"strings"

	"github.com/ayusman/mudra/internal/store"
)

// TranscriptHandler handles HTTP requests for stored transcripts.
type TranscriptHandler struct {
	store *store.Store
}

// NewTranscriptHandler creates a new TranscriptHandler with the given store.
func NewTranscriptHandler(s *store.Store) *TranscriptHandler {
	return &TranscriptHandler{store: s}
}

type listTranscriptsResponse struct {
	Transcripts []*store.Record `json:"transcripts"`
}

// ServeHTTP routes /api/transcripts and /api/transcripts/{id}.
func (h *TranscriptHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/transcripts")
	id = strings.Trim(id, "/")

	if id == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, id)
	case http.MethodDelete:
		h.delete(w, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// list handles GET /api/transcripts, optionally filtered by ?session=.
func (h *TranscriptHandler) list(w http.ResponseWriter, r *http.Request) {
	var (
		records []*store.Record
		err     error
	)
	if sessionID := r.URL.Query().Get("session"); sessionID != "" {
		records, err = h.store.Transcripts().ListBySession(sessionID)
	} else {
		records, err = h.store.Transcripts().List()
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list transcripts")
		return
	}
	writeJSON(w, http.StatusOK, listTranscriptsResponse{Transcripts: records})
}

func (h *TranscriptHandler) get(w http.ResponseWriter, id string) {
	rec, err := h.store.Transcripts().GetByID(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *TranscriptHandler) delete(w http.ResponseWriter, id string) {
	if err := h.store.Transcripts().Delete(id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
