package api

import (
	"log/slog"
	"net/http"

	"github.com/ayusman/handtype/internal/session"
	"github.com/ayusman/handtype/internal/store"
)

// SettingsHandler serves the debouncer tunables at /api/settings.
type SettingsHandler struct {
	sessions *session.Manager
	store    *store.Store
	logger   *slog.Logger
}

// NewSettingsHandler creates a SettingsHandler. st may be nil, in which case
// changes only last for the lifetime of the process.
func NewSettingsHandler(m *session.Manager, st *store.Store, logger *slog.Logger) *SettingsHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SettingsHandler{sessions: m, store: st, logger: logger}
}

// ServeHTTP implements the http.Handler interface.
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, toTunables(h.sessions.Config()))
	case http.MethodPut:
		h.update(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// update handles PUT /api/settings. Fields left out of the body keep their
// current value. New values apply to sessions created afterwards.
func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	var patch tunablesPatch
	if _, err := decodeBody(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cfg := patch.apply(h.sessions.Config())
	if err := cfg.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if h.store != nil {
		if err := h.store.Settings().SaveTunables(cfg); err != nil {
			h.logger.Error("saving settings", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to save settings")
			return
		}
	}
	if err := h.sessions.SetConfig(cfg); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Info("settings updated", "required", cfg.RequiredConsecutive, "cooldown", cfg.Cooldown)
	writeJSON(w, http.StatusOK, toTunables(cfg))
}
