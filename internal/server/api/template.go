package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/gestureos/internal/detector"
	"github.com/ayusman/gestureos/internal/gesture"
)

// TemplateHandler serves /api/template, the custom gesture template as 21
// normalized landmarks.
type TemplateHandler struct {
	controller Controller
}

// NewTemplateHandler creates a TemplateHandler.
func NewTemplateHandler(c Controller) *TemplateHandler {
	return &TemplateHandler{controller: c}
}

type templateBody struct {
	Landmarks []detector.Landmark `json:"landmarks"`
}

func (h *TemplateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w)
	case http.MethodPut:
		h.put(w, r)
	case http.MethodDelete:
		h.delete(w)
	default:
		methodNotAllowed(w)
	}
}

func (h *TemplateHandler) get(w http.ResponseWriter) {
	points, ok := h.controller.Template()
	if !ok {
		writeError(w, http.StatusNotFound, "No template")
		return
	}
	writeJSON(w, http.StatusOK, templateBody{Landmarks: points})
}

func (h *TemplateHandler) put(w http.ResponseWriter, r *http.Request) {
	var req templateBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.controller.SetTemplate(req.Landmarks); err != nil {
		if errors.Is(err, gesture.ErrInvalidTemplate) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to save template")
		return
	}

	points, _ := h.controller.Template()
	writeJSON(w, http.StatusOK, templateBody{Landmarks: points})
}

func (h *TemplateHandler) delete(w http.ResponseWriter) {
	h.controller.ClearTemplate()
	w.WriteHeader(http.StatusNoContent)
}
