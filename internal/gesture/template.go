package gesture

import (
	"fmt"
	"math"

	"github.com/ayusman/gestureos/internal/detector"
)

// templateTolerance bounds how far a seeded template may sit from the
// normalized frame (wrist at origin, unit palm length).
const templateTolerance = 0.05

// Template is the single learned custom pose. It is immutable; retraining
// replaces the whole value.
type Template struct {
	pose detector.NormalizedPose
}

// TemplateFromPose wraps an already normalized pose.
func TemplateFromPose(p detector.NormalizedPose) *Template {
	return &Template{pose: p}
}

// NewTemplate builds a template from 21 ordered landmarks, as returned by
// Landmarks. The points must already be normalized.
func NewTemplate(points []detector.Landmark) (*Template, error) {
	if len(points) != detector.NumLandmarks {
		return nil, fmt.Errorf("%w: expected %d landmarks, got %d",
			ErrInvalidTemplate, detector.NumLandmarks, len(points))
	}

	var pose detector.NormalizedPose
	for i, p := range points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsNaN(p.Z) ||
			math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) || math.IsInf(p.Z, 0) {
			return nil, fmt.Errorf("%w: landmark %d is not finite", ErrInvalidTemplate, i)
		}
		pose.Points[i] = p
	}

	if d := detector.Distance(detector.Landmark{}, pose.Points[detector.Wrist]); d > templateTolerance {
		return nil, fmt.Errorf("%w: wrist is %.3f from origin, landmarks are not normalized", ErrInvalidTemplate, d)
	}
	palm := detector.Distance(pose.Points[detector.Wrist], pose.Points[detector.MiddleMCP])
	if math.Abs(palm-1) > templateTolerance {
		return nil, fmt.Errorf("%w: palm length %.3f, landmarks are not normalized", ErrInvalidTemplate, palm)
	}

	return &Template{pose: pose}, nil
}

// Pose returns the template pose.
func (t *Template) Pose() detector.NormalizedPose {
	return t.pose
}

// Landmarks returns the template as 21 ordered points.
func (t *Template) Landmarks() []detector.Landmark {
	return t.pose.Landmarks()
}
