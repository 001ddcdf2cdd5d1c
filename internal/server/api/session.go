package api

import (
	"encoding/json"
	"net/http"
)

// SessionHandler serves /api/session: the recognition toggle and the
// training flag.
type SessionHandler struct {
	controller Controller
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(c Controller) *SessionHandler {
	return &SessionHandler{controller: c}
}

type updateSessionRequest struct {
	Enabled  *bool `json:"enabled"`
	Training *bool `json:"training"`
}

func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.controller.Status())
	case http.MethodPut:
		h.update(w, r)
	default:
		methodNotAllowed(w)
	}
}

// update applies enabled before training, so one request can switch
// recognition on and start learning.
func (h *SessionHandler) update(w http.ResponseWriter, r *http.Request) {
	var req updateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Enabled == nil && req.Training == nil {
		writeError(w, http.StatusBadRequest, "enabled or training is required")
		return
	}

	enabled := h.controller.Status().Enabled
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	if req.Training != nil && *req.Training && !enabled {
		writeError(w, http.StatusConflict, "Recognition must be enabled to train")
		return
	}

	if req.Enabled != nil {
		if err := h.controller.SetEnabled(*req.Enabled); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save setting")
			return
		}
	}
	if req.Training != nil {
		h.controller.SetTraining(*req.Training)
	}

	writeJSON(w, http.StatusOK, h.controller.Status())
}
