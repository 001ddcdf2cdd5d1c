// Package detector provides hand detection interfaces and the landmark types
// shared by the gesture pipeline.
package detector

import (
	"errors"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// MinScale is the smallest wrist to middle-MCP distance accepted by Normalize.
// Anything shorter is treated as degenerate geometry.
const MinScale = 1e-6

// ErrDegenerateGeometry is returned when a hand's reference bone has
// effectively zero length and cannot be used to scale the pose.
var ErrDegenerateGeometry = errors.New("degenerate hand geometry")

// Landmark is a 3D point in normalized image or world space.
type Landmark struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Vec returns the landmark as a gonum vector.
func (l Landmark) Vec() r3.Vec {
	return r3.Vec{X: l.X, Y: l.Y, Z: l.Z}
}

// FromVec converts a gonum vector back into a Landmark.
func FromVec(v r3.Vec) Landmark {
	return Landmark{X: v.X, Y: v.Y, Z: v.Z}
}

// Distance returns the Euclidean distance between two landmarks.
func Distance(a, b Landmark) float64 {
	return r3.Norm(r3.Sub(a.Vec(), b.Vec()))
}

// HandFrame is one detected hand: 21 image-space landmarks, the matching
// world-space landmarks, and handedness metadata.
type HandFrame struct {
	Points     [NumLandmarks]Landmark `json:"points"`
	World      [NumLandmarks]Landmark `json:"world,omitempty"`
	Handedness string                 `json:"handedness"` // "Left" or "Right"
	Score      float64                `json:"score"`
	Timestamp  time.Time              `json:"timestamp"`
}

// DetectionResult holds every hand observed in one camera frame.
type DetectionResult struct {
	Hands     []HandFrame `json:"hands"`
	Timestamp time.Time   `json:"timestamp"`
}

// Primary returns the hand the pipeline tracks for this frame. The rule is
// the lowest index in Hands; handedness is not considered.
func (r *DetectionResult) Primary() (*HandFrame, bool) {
	if r == nil || len(r.Hands) == 0 {
		return nil, false
	}
	return &r.Hands[0], true
}

// NormalizedPose is a hand re-expressed with the wrist at the origin and the
// wrist to middle-MCP distance scaled to 1. It is invariant to where the hand
// is in the image and how far it is from the camera.
type NormalizedPose struct {
	Points     [NumLandmarks]Landmark `json:"points"`
	Handedness string                 `json:"handedness"`
	Timestamp  time.Time              `json:"timestamp"`
}

// Scale returns the reference bone length used for normalization.
func (h *HandFrame) Scale() float64 {
	return Distance(h.Points[Wrist], h.Points[MiddleMCP])
}

// Normalize translates the hand so the wrist sits at the origin and divides
// every point by the wrist to middle-MCP distance. Returns
// ErrDegenerateGeometry when that distance is below MinScale.
func (h *HandFrame) Normalize() (*NormalizedPose, error) {
	if h == nil {
		return nil, errors.New("nil hand frame")
	}

	scale := h.Scale()
	if scale < MinScale {
		return nil, ErrDegenerateGeometry
	}

	normalized := &NormalizedPose{
		Handedness: h.Handedness,
		Timestamp:  h.Timestamp,
	}

	wrist := h.Points[Wrist].Vec()
	for i := 0; i < NumLandmarks; i++ {
		v := r3.Scale(1/scale, r3.Sub(h.Points[i].Vec(), wrist))
		normalized.Points[i] = FromVec(v)
	}

	return normalized, nil
}

// Landmarks returns the pose as an ordered 21-point slice.
func (p *NormalizedPose) Landmarks() []Landmark {
	out := make([]Landmark, NumLandmarks)
	copy(out, p.Points[:])
	return out
}
