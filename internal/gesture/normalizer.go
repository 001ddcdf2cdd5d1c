package gesture

import (
	"time"

	"github.com/ayusman/gestureos/internal/detector"
)

// Sample is one normalized pose plus where the hand sat in the image. The
// placement is kept beside the pose, never inside it, so that swipes (which
// move the whole hand) can still be measured by the window.
type Sample struct {
	Pose  detector.NormalizedPose
	Wrist detector.Landmark
	Scale float64
	Time  time.Time
}

// Normalize picks the primary hand of a detection and normalizes it.
// It returns ErrNoHand when the detection is empty and
// ErrDegenerateGeometry when the hand cannot be scaled.
func Normalize(result detector.DetectionResult) (Sample, error) {
	hand, ok := result.Primary()
	if !ok {
		return Sample{}, ErrNoHand
	}

	pose, err := hand.Normalize()
	if err != nil {
		return Sample{}, err
	}

	ts := result.Timestamp
	if ts.IsZero() {
		ts = hand.Timestamp
	}
	pose.Timestamp = ts

	return Sample{
		Pose:  *pose,
		Wrist: hand.Points[detector.Wrist],
		Scale: hand.Scale(),
		Time:  ts,
	}, nil
}
