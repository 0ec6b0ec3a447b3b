package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/session"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/transcript"
)

// ConfirmHook is notified after a transcript is confirmed and stored.
// transcriptID is empty when persistence is disabled.
type ConfirmHook interface {
	TranscriptConfirmed(ctx context.Context, sessionID, transcriptID string, t transcript.Transcript) error
}

// SessionHandler handles HTTP requests for recognition sessions.
type SessionHandler struct {
	manager *session.Manager
	store   *store.Store
	hook    ConfirmHook
	log     logrus.FieldLogger
}

// NewSessionHandler creates a SessionHandler. A nil store disables
// persistence on confirm; a nil hook disables confirm notifications.
func NewSessionHandler(m *session.Manager, s *store.Store, hook ConfirmHook, log logrus.FieldLogger) *SessionHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SessionHandler{manager: m, store: s, hook: hook, log: log}
}

// ServeHTTP routes /api/sessions, /api/sessions/{id} and
// /api/sessions/{id}/{action}.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, listSessionsResponse{Sessions: h.manager.List()})
		case http.MethodPost:
			s := h.manager.Create(r.Context())
			h.log.WithField("session", s.ID()).Info("session created")
			writeJSON(w, http.StatusCreated, s.Snapshot())
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id, action, _ := strings.Cut(path, "/")
	s, err := h.manager.Get(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if action == "" {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, s.Snapshot())
		case http.MethodDelete:
			if err := h.manager.Remove(r.Context(), id); err != nil {
				writeDomainError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch action {
	case "ready":
		h.ready(w, r, s)
	case "start":
		h.control(w, s, s.Start)
	case "stop":
		h.control(w, s, s.Stop)
	case "discard":
		s.Discard()
		writeJSON(w, http.StatusOK, s.Snapshot())
	case "finalize":
		h.finalize(w, r, s)
	case "confirm":
		h.confirm(w, r, s)
	case "frames":
		h.frame(w, r, s)
	default:
		writeError(w, http.StatusNotFound, "Unknown session action")
	}
}

type listSessionsResponse struct {
	Sessions []session.Snapshot `json:"sessions"`
}

type readyRequest struct {
	Available bool `json:"available"`
}

type frameRequest struct {
	Hand *detector.WireHand `json:"hand"`
}

type confirmResponse struct {
	TranscriptID string                `json:"transcript_id,omitempty"`
	Transcript   transcript.Transcript `json:"transcript"`
}

func (h *SessionHandler) ready(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var req readyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	s.SetModelReady(req.Available)
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *SessionHandler) control(w http.ResponseWriter, s *session.Session, signal func() error) {
	if err := signal(); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *SessionHandler) finalize(w http.ResponseWriter, r *http.Request, s *session.Session) {
	t, err := s.Finalize(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *SessionHandler) confirm(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var resp confirmResponse
	var commit func(transcript.Transcript) error
	if h.store != nil {
		commit = func(t transcript.Transcript) error {
			rec := store.NewRecord(s.ID(), t)
			if err := h.store.Transcripts().Create(rec); err != nil {
				return err
			}
			resp.TranscriptID = rec.ID
			return nil
		}
	}

	t, err := s.ConfirmWith(commit)
	if errors.Is(err, session.ErrInvalidTransition) {
		writeDomainError(w, err)
		return
	}
	if err != nil {
		h.log.WithError(err).WithField("session", s.ID()).Error("failed to store transcript")
		writeError(w, http.StatusInternalServerError, "Failed to store transcript")
		return
	}
	resp.Transcript = t

	if h.hook != nil {
		// The transcript is already confirmed; hook failures are only logged.
		if err := h.hook.TranscriptConfirmed(r.Context(), s.ID(), resp.TranscriptID, t); err != nil {
			h.log.WithError(err).WithField("session", s.ID()).Warn("confirm hook failed")
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *SessionHandler) frame(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var req frameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	hand, err := req.Hand.ToHandLandmarks()
	if err != nil {
		// Degraded input counts as a frame without a hand.
		h.log.WithError(err).WithField("session", s.ID()).Debug("dropping malformed hand")
		hand = nil
	}
	writeJSON(w, http.StatusOK, s.Observe(r.Context(), hand))
}
