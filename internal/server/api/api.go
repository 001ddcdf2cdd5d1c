// Package api provides the JSON HTTP handlers of the GestureOS service.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/gestureos/internal/app"
	"github.com/ayusman/gestureos/internal/detector"
)

// Controller is the slice of app.Controller the handlers use.
type Controller interface {
	Status() app.Status
	SetEnabled(enabled bool) error
	SetTraining(training bool)
	Template() ([]detector.Landmark, bool)
	SetTemplate(points []detector.Landmark) error
	ClearTemplate()
}

const timeFormat = "2006-01-02T15:04:05.000Z07:00"

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}
