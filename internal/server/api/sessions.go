package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ayusman/handtype/internal/detector"
	"github.com/ayusman/handtype/internal/gesture"
	"github.com/ayusman/handtype/internal/session"
)

// SessionHandler handles HTTP requests for typing sessions.
type SessionHandler struct {
	sessions *session.Manager
	logger   *slog.Logger
}

// NewSessionHandler creates a new SessionHandler backed by m.
func NewSessionHandler(m *session.Manager, logger *slog.Logger) *SessionHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SessionHandler{sessions: m, logger: logger}
}

// ServeHTTP routes /api/sessions, /api/sessions/{id} and
// /api/sessions/{id}/frames.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id, sub, _ := strings.Cut(path, "/")
	switch sub {
	case "":
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, id)
		case http.MethodDelete:
			h.delete(w, r, id)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case "frames":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.submitFrame(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

type sessionResponse struct {
	ID         string          `json:"id"`
	CreatedAt  string          `json:"created_at"`
	Settings   tunables        `json:"settings"`
	Text       string          `json:"text"`
	State      gesture.State   `json:"state"`
	Frames     int             `json:"frames"`
	Actions    int             `json:"actions"`
	LastAction *gesture.Action `json:"last_action"`
}

type listSessionsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

func toSessionResponse(s session.Snapshot) sessionResponse {
	return sessionResponse{
		ID:         s.ID,
		CreatedAt:  s.CreatedAt.Format(time.RFC3339),
		Settings:   toTunables(s.Config),
		Text:       s.Text,
		State:      s.State,
		Frames:     s.Frames,
		Actions:    s.Actions,
		LastAction: s.LastAction,
	}
}

// list handles GET /api/sessions.
func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	sessions := h.sessions.List()
	response := listSessionsResponse{
		Sessions: make([]sessionResponse, 0, len(sessions)),
	}
	for _, s := range sessions {
		response.Sessions = append(response.Sessions, toSessionResponse(s.Snapshot()))
	}
	writeJSON(w, http.StatusOK, response)
}

// create handles POST /api/sessions. The optional body overrides the
// current tunables for this session only.
func (h *SessionHandler) create(w http.ResponseWriter, r *http.Request) {
	var patch tunablesPatch
	present, err := decodeBody(r, &patch)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var cfg *gesture.Config
	if present {
		c := patch.apply(h.sessions.Config())
		cfg = &c
	}

	s, err := h.sessions.Create(cfg)
	if err != nil {
		if errors.Is(err, gesture.ErrInvalidConfig) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	writeJSON(w, http.StatusCreated, toSessionResponse(s.Snapshot()))
}

// get handles GET /api/sessions/{id}.
func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	s, err := h.sessions.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(s.Snapshot()))
}

// delete handles DELETE /api/sessions/{id}.
func (h *SessionHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.sessions.Delete(id); err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// submitFrame handles POST /api/sessions/{id}/frames.
func (h *SessionHandler) submitFrame(w http.ResponseWriter, r *http.Request, id string) {
	s, err := h.sessions.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	frame, err := DecodeFrame(body)
	if err != nil {
		if errors.Is(err, detector.ErrMalformedFrame) {
			h.logger.Warn("malformed frame", "session", id, "error", err)
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.Submit(r.Context(), frame)
	if err != nil {
		if errors.Is(err, session.ErrClosed) {
			writeError(w, http.StatusGone, "Session closed")
			return
		}
		if errors.Is(err, session.ErrOutOfOrder) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, NewResultResponse(res))
}
