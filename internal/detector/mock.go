package detector

import (
	"time"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	hands []HandFrame
	err   error
	now   func() time.Time
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{now: time.Now}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandFrame) {
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// SetClock overrides the timestamp source used for results.
func (m *MockDetector) SetClock(now func() time.Time) {
	m.now = now
}

// Detect returns the pre-configured hands or error, stamped with the clock.
func (m *MockDetector) Detect(frame *gocv.Mat) (DetectionResult, error) {
	ts := m.now()
	if m.err != nil {
		return DetectionResult{Timestamp: ts}, m.err
	}

	result := DetectionResult{Timestamp: ts}
	for _, h := range m.hands {
		h.Timestamp = ts
		result.Hands = append(result.Hands, h)
	}
	return result, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// ThumbsUpLandmarks returns a preset hand with the thumb extended upward
// and the other fingers curled.
func ThumbsUpLandmarks() HandFrame {
	hand := HandFrame{
		Handedness: "Right",
		Score:      0.95,
	}

	hand.Points[Wrist] = Landmark{X: 0.5, Y: 0.8, Z: 0.0}

	// Thumb extended upward (Y decreases going up)
	hand.Points[ThumbCMC] = Landmark{X: 0.55, Y: 0.75, Z: 0.0}
	hand.Points[ThumbMCP] = Landmark{X: 0.58, Y: 0.65, Z: 0.0}
	hand.Points[ThumbIP] = Landmark{X: 0.58, Y: 0.50, Z: 0.0}
	hand.Points[ThumbTip] = Landmark{X: 0.58, Y: 0.35, Z: 0.0}

	hand.Points[IndexMCP] = Landmark{X: 0.55, Y: 0.70, Z: -0.02}
	hand.Points[IndexPIP] = Landmark{X: 0.55, Y: 0.68, Z: -0.05}
	hand.Points[IndexDIP] = Landmark{X: 0.52, Y: 0.70, Z: -0.04}
	hand.Points[IndexTip] = Landmark{X: 0.50, Y: 0.72, Z: -0.02}

	hand.Points[MiddleMCP] = Landmark{X: 0.50, Y: 0.68, Z: -0.02}
	hand.Points[MiddlePIP] = Landmark{X: 0.50, Y: 0.66, Z: -0.05}
	hand.Points[MiddleDIP] = Landmark{X: 0.47, Y: 0.68, Z: -0.04}
	hand.Points[MiddleTip] = Landmark{X: 0.45, Y: 0.70, Z: -0.02}

	hand.Points[RingMCP] = Landmark{X: 0.45, Y: 0.70, Z: -0.02}
	hand.Points[RingPIP] = Landmark{X: 0.45, Y: 0.68, Z: -0.05}
	hand.Points[RingDIP] = Landmark{X: 0.42, Y: 0.70, Z: -0.04}
	hand.Points[RingTip] = Landmark{X: 0.40, Y: 0.72, Z: -0.02}

	hand.Points[PinkyMCP] = Landmark{X: 0.40, Y: 0.72, Z: -0.02}
	hand.Points[PinkyPIP] = Landmark{X: 0.40, Y: 0.70, Z: -0.05}
	hand.Points[PinkyDIP] = Landmark{X: 0.37, Y: 0.72, Z: -0.04}
	hand.Points[PinkyTip] = Landmark{X: 0.35, Y: 0.74, Z: -0.02}

	return hand
}

// OpenPalmLandmarks returns a preset hand with all fingers extended.
func OpenPalmLandmarks() HandFrame {
	hand := HandFrame{
		Handedness: "Right",
		Score:      0.95,
	}

	hand.Points[Wrist] = Landmark{X: 0.5, Y: 0.8, Z: 0.0}

	hand.Points[ThumbCMC] = Landmark{X: 0.55, Y: 0.75, Z: 0.02}
	hand.Points[ThumbMCP] = Landmark{X: 0.62, Y: 0.70, Z: 0.03}
	hand.Points[ThumbIP] = Landmark{X: 0.68, Y: 0.65, Z: 0.03}
	hand.Points[ThumbTip] = Landmark{X: 0.73, Y: 0.60, Z: 0.03}

	hand.Points[IndexMCP] = Landmark{X: 0.55, Y: 0.68, Z: 0.0}
	hand.Points[IndexPIP] = Landmark{X: 0.57, Y: 0.55, Z: 0.0}
	hand.Points[IndexDIP] = Landmark{X: 0.58, Y: 0.45, Z: 0.0}
	hand.Points[IndexTip] = Landmark{X: 0.58, Y: 0.35, Z: 0.0}

	hand.Points[MiddleMCP] = Landmark{X: 0.50, Y: 0.66, Z: 0.0}
	hand.Points[MiddlePIP] = Landmark{X: 0.50, Y: 0.52, Z: 0.0}
	hand.Points[MiddleDIP] = Landmark{X: 0.50, Y: 0.40, Z: 0.0}
	hand.Points[MiddleTip] = Landmark{X: 0.50, Y: 0.28, Z: 0.0}

	hand.Points[RingMCP] = Landmark{X: 0.45, Y: 0.68, Z: 0.0}
	hand.Points[RingPIP] = Landmark{X: 0.43, Y: 0.55, Z: 0.0}
	hand.Points[RingDIP] = Landmark{X: 0.42, Y: 0.45, Z: 0.0}
	hand.Points[RingTip] = Landmark{X: 0.42, Y: 0.35, Z: 0.0}

	hand.Points[PinkyMCP] = Landmark{X: 0.40, Y: 0.70, Z: 0.0}
	hand.Points[PinkyPIP] = Landmark{X: 0.37, Y: 0.60, Z: 0.0}
	hand.Points[PinkyDIP] = Landmark{X: 0.35, Y: 0.50, Z: 0.0}
	hand.Points[PinkyTip] = Landmark{X: 0.34, Y: 0.42, Z: 0.0}

	return hand
}

// ClosedFistLandmarks returns a preset hand with every finger, thumb
// included, folded against the palm.
func ClosedFistLandmarks() HandFrame {
	hand := HandFrame{
		Handedness: "Right",
		Score:      0.93,
	}

	hand.Points[Wrist] = Landmark{X: 0.5, Y: 0.8, Z: 0.0}

	hand.Points[ThumbCMC] = Landmark{X: 0.55, Y: 0.76, Z: 0.0}
	hand.Points[ThumbMCP] = Landmark{X: 0.58, Y: 0.71, Z: -0.02}
	hand.Points[ThumbIP] = Landmark{X: 0.56, Y: 0.67, Z: -0.05}
	hand.Points[ThumbTip] = Landmark{X: 0.52, Y: 0.66, Z: -0.06}

	hand.Points[IndexMCP] = Landmark{X: 0.55, Y: 0.68, Z: -0.02}
	hand.Points[IndexPIP] = Landmark{X: 0.56, Y: 0.63, Z: -0.06}
	hand.Points[IndexDIP] = Landmark{X: 0.55, Y: 0.67, Z: -0.07}
	hand.Points[IndexTip] = Landmark{X: 0.54, Y: 0.70, Z: -0.05}

	hand.Points[MiddleMCP] = Landmark{X: 0.50, Y: 0.67, Z: -0.02}
	hand.Points[MiddlePIP] = Landmark{X: 0.50, Y: 0.62, Z: -0.06}
	hand.Points[MiddleDIP] = Landmark{X: 0.50, Y: 0.66, Z: -0.07}
	hand.Points[MiddleTip] = Landmark{X: 0.50, Y: 0.70, Z: -0.05}

	hand.Points[RingMCP] = Landmark{X: 0.45, Y: 0.68, Z: -0.02}
	hand.Points[RingPIP] = Landmark{X: 0.45, Y: 0.63, Z: -0.06}
	hand.Points[RingDIP] = Landmark{X: 0.45, Y: 0.67, Z: -0.07}
	hand.Points[RingTip] = Landmark{X: 0.46, Y: 0.70, Z: -0.05}

	hand.Points[PinkyMCP] = Landmark{X: 0.41, Y: 0.70, Z: -0.02}
	hand.Points[PinkyPIP] = Landmark{X: 0.41, Y: 0.66, Z: -0.05}
	hand.Points[PinkyDIP] = Landmark{X: 0.41, Y: 0.69, Z: -0.06}
	hand.Points[PinkyTip] = Landmark{X: 0.42, Y: 0.72, Z: -0.04}

	return hand
}

// Translate returns a copy of the hand shifted by (dx, dy) in image space.
func Translate(h HandFrame, dx, dy float64) HandFrame {
	out := h
	for i := range out.Points {
		out.Points[i].X += dx
		out.Points[i].Y += dy
	}
	return out
}

// ScaleAbout returns a copy of the hand scaled by factor around its wrist,
// as if it moved toward or away from the camera.
func ScaleAbout(h HandFrame, factor float64) HandFrame {
	out := h
	wrist := h.Points[Wrist]
	for i := range out.Points {
		out.Points[i].X = wrist.X + (h.Points[i].X-wrist.X)*factor
		out.Points[i].Y = wrist.Y + (h.Points[i].Y-wrist.Y)*factor
		out.Points[i].Z = wrist.Z + (h.Points[i].Z-wrist.Z)*factor
	}
	return out
}
