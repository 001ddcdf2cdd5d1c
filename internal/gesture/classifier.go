package gesture

import (
	"math"
	"time"

	"github.com/ayusman/gestureos/internal/detector"
)

// Classifier detects directional motion from the tracking window.
//
// Vertical motion is read from the index fingertip in the normalized pose,
// so lifting or lowering the finger scrolls while the hand stays put.
// Horizontal motion is read from the raw wrist, divided by the palm length
// so the same swipe counts at any distance from the camera.
type Classifier struct {
	verticalThreshold   float64
	horizontalThreshold float64
	maxSpan             time.Duration
	verticalRef         int
}

// NewClassifier creates a Classifier from the pipeline config.
func NewClassifier(cfg Config) *Classifier {
	return &Classifier{
		verticalThreshold:   cfg.VerticalThreshold,
		horizontalThreshold: cfg.HorizontalThreshold,
		maxSpan:             cfg.MaxSpan,
		verticalRef:         detector.IndexTip,
	}
}

// Classify compares the oldest and newest samples in w. Swipes take
// priority over scrolls when both cross their thresholds.
func (c *Classifier) Classify(w *Window) Candidate {
	if w.Len() < 2 {
		return NoCandidate
	}
	if w.Span() > c.maxSpan {
		return NoCandidate
	}

	oldest, _ := w.Oldest()
	newest, _ := w.Newest()

	if cand := c.horizontal(oldest, newest); cand.Type != None {
		return cand
	}
	return c.vertical(oldest, newest)
}

func (c *Classifier) horizontal(oldest, newest Sample) Candidate {
	scale := (oldest.Scale + newest.Scale) / 2
	if scale < detector.MinScale {
		return NoCandidate
	}

	dx := (newest.Wrist.X - oldest.Wrist.X) / scale
	if math.Abs(dx) < c.horizontalThreshold {
		return NoCandidate
	}

	t := GoHome
	if dx < 0 {
		t = GoBack
	}
	return Candidate{Type: t, Confidence: confidence(dx, c.horizontalThreshold)}
}

func (c *Classifier) vertical(oldest, newest Sample) Candidate {
	// Image Y grows downward, so a negative delta is upward motion.
	dy := newest.Pose.Points[c.verticalRef].Y - oldest.Pose.Points[c.verticalRef].Y
	if math.Abs(dy) < c.verticalThreshold {
		return NoCandidate
	}

	t := ScrollDown
	if dy < 0 {
		t = ScrollUp
	}
	return Candidate{Type: t, Confidence: confidence(dy, c.verticalThreshold)}
}

// confidence grows linearly with displacement and saturates at twice the
// threshold.
func confidence(delta, threshold float64) float64 {
	return math.Min(1, math.Abs(delta)/(2*threshold))
}
