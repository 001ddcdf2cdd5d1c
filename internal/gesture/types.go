// Package gesture turns normalized hand poses into debounced gesture events.
//
// The pipeline for one frame is Normalize -> Window -> {Classifier, Matcher}
// -> Machine. All mutable state for a tracking session lives in a Session,
// which Recognizer.Process reads and updates one frame at a time.
package gesture

import (
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/gestureos/internal/detector"
)

// Errors reported by the pipeline. ErrNoHand and ErrDegenerateGeometry are
// absorbed by Recognizer.Process; callers only see them from Normalize.
var (
	ErrNoHand             = errors.New("no hand detected")
	ErrDegenerateGeometry = detector.ErrDegenerateGeometry
	ErrTrainingTimeout    = errors.New("training timed out before a stable pose was held")
	ErrInvalidTemplate    = errors.New("invalid template")
)

// Type is the closed set of gestures the pipeline can emit.
type Type string

const (
	None       Type = "NONE"
	ScrollUp   Type = "SCROLL_UP"
	ScrollDown Type = "SCROLL_DOWN"
	GoBack     Type = "GO_BACK"
	GoHome     Type = "GO_HOME"
	Custom     Type = "CUSTOM"
)

// Types lists every emittable gesture type, NONE excluded.
func Types() []Type {
	return []Type{ScrollUp, ScrollDown, GoBack, GoHome, Custom}
}

// ParseType validates s against the known gesture types.
func ParseType(s string) (Type, error) {
	t := Type(s)
	switch t {
	case None, ScrollUp, ScrollDown, GoBack, GoHome, Custom:
		return t, nil
	}
	return None, fmt.Errorf("unknown gesture type %q", s)
}

// IsMotion reports whether t comes from the motion classifier.
func (t Type) IsMotion() bool {
	switch t {
	case ScrollUp, ScrollDown, GoBack, GoHome:
		return true
	}
	return false
}

// Candidate is one frame's proposal from the classifier or the matcher.
type Candidate struct {
	Type       Type    `json:"type"`
	Confidence float64 `json:"confidence"`
}

// NoCandidate is the empty proposal.
var NoCandidate = Candidate{Type: None}

// Event is emitted exactly once per confirmed gesture.
type Event struct {
	Type       Type      `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	Confidence float64   `json:"confidence"`
}

// Arbitrate picks one candidate for the state machine. A trained CUSTOM
// match wins over incidental motion.
func Arbitrate(classifier, matcher Candidate) Candidate {
	if matcher.Type != None {
		return matcher
	}
	if classifier.Type != None {
		return classifier
	}
	return NoCandidate
}
