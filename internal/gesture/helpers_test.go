package gesture

import (
	"testing"
	"time"

	"github.com/ayusman/gestureos/internal/detector"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// at returns the frame time ms milliseconds after epoch.
func at(ms int) time.Time {
	return epoch.Add(time.Duration(ms) * time.Millisecond)
}

// detection wraps a single hand into a detection taken at ts.
func detection(h detector.HandFrame, ts time.Time) detector.DetectionResult {
	h.Timestamp = ts
	return detector.DetectionResult{Hands: []detector.HandFrame{h}, Timestamp: ts}
}

// noHand is a detection with nothing in it.
func noHand(ts time.Time) detector.DetectionResult {
	return detector.DetectionResult{Timestamp: ts}
}

func sampleOf(t *testing.T, h detector.HandFrame, ts time.Time) Sample {
	t.Helper()
	s, err := Normalize(detection(h, ts))
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	return s
}

func poseOf(t *testing.T, h detector.HandFrame, ts time.Time) detector.NormalizedPose {
	t.Helper()
	return sampleOf(t, h, ts).Pose
}

// withIndexTipY returns the hand with its index fingertip moved to y.
func withIndexTipY(h detector.HandFrame, y float64) detector.HandFrame {
	h.Points[detector.IndexTip].Y = y
	return h
}

// jitteredFist returns a closed fist with a small, frame-dependent wobble on
// two fingertips, well inside the stability threshold.
func jitteredFist(k int) detector.HandFrame {
	h := detector.ClosedFistLandmarks()
	h.Points[detector.IndexTip].Y += 0.001 * float64(k%2)
	h.Points[detector.MiddleTip].X += 0.0005 * float64(k%3)
	return h
}

func collectEvents(outs []Output) []Event {
	var evs []Event
	for _, o := range outs {
		if o.Event != nil {
			evs = append(evs, *o.Event)
		}
	}
	return evs
}

func newTestRecognizer(mutate func(*Config)) (*Recognizer, *Session) {
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	r := NewRecognizer(cfg)
	return r, r.NewSession()
}
