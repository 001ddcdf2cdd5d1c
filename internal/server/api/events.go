package api

import (
	"net/http"
	"strconv"

	"github.com/ayusman/gestureos/internal/store"
)

// Limits for GET /api/events.
const (
	DefaultEventLimit = 50
	MaxEventLimit     = 500
)

// EventSource reads the gesture history. *store.EventRepository
// implements it.
type EventSource interface {
	Recent(limit int) ([]*store.EventRecord, error)
}

// EventsHandler serves the recent gesture history.
type EventsHandler struct {
	events EventSource
}

// NewEventsHandler creates an EventsHandler.
func NewEventsHandler(events EventSource) *EventsHandler {
	return &EventsHandler{events: events}
}

type eventResponse struct {
	ID         int64   `json:"id"`
	SessionID  string  `json:"session_id"`
	Gesture    string  `json:"gesture"`
	Confidence float64 `json:"confidence"`
	OccurredAt string  `json:"occurred_at"`
}

type listEventsResponse struct {
	Events []eventResponse `json:"events"`
}

// ServeHTTP handles GET /api/events?limit=N, newest first.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	limit := DefaultEventLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, MaxEventLimit)
	}

	records, err := h.events.Recent(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list events")
		return
	}

	response := listEventsResponse{Events: make([]eventResponse, 0, len(records))}
	for _, rec := range records {
		response.Events = append(response.Events, eventResponse{
			ID:         rec.ID,
			SessionID:  rec.SessionID,
			Gesture:    string(rec.Gesture),
			Confidence: rec.Confidence,
			OccurredAt: rec.OccurredAt.Format(timeFormat),
		})
	}

	writeJSON(w, http.StatusOK, response)
}
