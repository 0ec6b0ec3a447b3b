package server

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// LandmarksHandler ingests landmark frames for one session over a
// WebSocket. Each text message is a frame ({"t":ms,"hand":{...}|null}) and
// is answered with the session's frame result.
type LandmarksHandler struct {
	sessions *session.Manager
	log      logrus.FieldLogger
}

// NewLandmarksHandler creates a LandmarksHandler over the given sessions.
func NewLandmarksHandler(m *session.Manager, log logrus.FieldLogger) *LandmarksHandler {
	return &LandmarksHandler{sessions: m, log: log}
}

// ServeHTTP handles /api/sessions/{id}/landmarks.
func (h *LandmarksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	id = strings.TrimSuffix(id, "/landmarks")

	s, err := h.sessions.Get(id)
	if err != nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade error")
		return
	}
	defer conn.Close()

	log := h.log.WithField("session", id)
	log.Debug("landmark stream opened")
	defer log.Debug("landmark stream closed")

	ctx := r.Context()
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Warn("landmark stream read error")
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		hand, _, err := detector.DecodeFrame(data)
		if err != nil {
			log.WithError(err).Debug("dropping malformed frame")
			hand = nil
		}

		if err := conn.WriteJSON(s.Observe(ctx, hand)); err != nil {
			log.WithError(err).Warn("landmark stream write error")
			return
		}
	}
}
