package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/ayusman/handtype/internal/server/api"
	"github.com/ayusman/handtype/internal/session"
)

// maxMessageBytes bounds a single WebSocket frame message.
const maxMessageBytes = 1 << 20

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// SessionSocketHandler streams frames into a session over a WebSocket at
// /api/sessions/{id}/ws. Every text message is one frame and is answered
// with one message: the step result, or {"error": ...} for a frame that could
// not be used, either malformed or stamped earlier than the previous frame.
// Bad frames do not close the connection.
type SessionSocketHandler struct {
	sessions *session.Manager
	logger   *slog.Logger
}

// NewSessionSocketHandler creates a handler serving sessions from m.
func NewSessionSocketHandler(m *session.Manager, logger *slog.Logger) *SessionSocketHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SessionSocketHandler{sessions: m, logger: logger}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *SessionSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/sessions/"), "/ws")
	s, err := h.sessions.Get(id)
	if err != nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade", "session", id, "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageBytes)

	logger := h.logger.With("session", id)
	logger.Debug("websocket connected")

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("websocket read", "error", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		frame, err := api.DecodeFrame(data)
		if err != nil {
			logger.Warn("malformed frame", "error", err)
			if err := conn.WriteMessage(websocket.TextMessage, api.ErrorMessage(err)); err != nil {
				return
			}
			continue
		}

		res, err := s.Submit(r.Context(), frame)
		if errors.Is(err, session.ErrOutOfOrder) {
			if err := conn.WriteMessage(websocket.TextMessage, api.ErrorMessage(err)); err != nil {
				return
			}
			continue
		}
		if err != nil {
			if errors.Is(err, session.ErrClosed) {
				conn.WriteMessage(websocket.TextMessage, api.ErrorMessage(err))
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
			}
			return
		}

		msg, _ := json.Marshal(api.NewResultResponse(res))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}
