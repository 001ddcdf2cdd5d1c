package gesture

import (
	"time"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/ayusman/gestureos/internal/detector"
)

// TrainerState is the phase of a Trainer.
type TrainerState int

const (
	TrainerIdle TrainerState = iota
	TrainerCapturing
)

func (s TrainerState) String() string {
	if s == TrainerCapturing {
		return "capturing"
	}
	return "idle"
}

// TrainingOutcome describes what a frame did to a capture session.
type TrainingOutcome string

const (
	// TrainingNone means no capture session is running.
	TrainingNone      TrainingOutcome = ""
	TrainingPending   TrainingOutcome = "pending"
	TrainingComplete  TrainingOutcome = "complete"
	TrainingTimeout   TrainingOutcome = "timeout"
	TrainingCancelled TrainingOutcome = "cancelled"
)

// TrainingResult is reported by the Trainer for every observed frame.
type TrainingResult struct {
	Outcome  TrainingOutcome
	Template *Template
	Err      error
}

// Done reports whether the result ends a capture session.
func (r TrainingResult) Done() bool {
	switch r.Outcome {
	case TrainingComplete, TrainingTimeout, TrainingCancelled:
		return true
	}
	return false
}

// Trainer captures a stable pose into a Template.
//
// While capturing, consecutive poses whose frame-to-frame variance stays
// below epsilon form a streak; a pose that moves too much restarts the
// streak from itself. A streak of the configured length becomes the template
// as the per-landmark mean of its poses.
type Trainer struct {
	epsilon float64
	frames  int
	timeout time.Duration

	state   TrainerState
	buffer  []detector.NormalizedPose
	started time.Time
}

// NewTrainer creates an idle Trainer from the pipeline config.
func NewTrainer(cfg Config) *Trainer {
	return &Trainer{
		epsilon: cfg.StabilityEpsilon,
		frames:  cfg.CaptureFrames,
		timeout: cfg.TrainingTimeout,
		buffer:  make([]detector.NormalizedPose, 0, cfg.CaptureFrames),
	}
}

// State returns the current trainer phase.
func (t *Trainer) State() TrainerState {
	return t.state
}

// Buffered returns the length of the current stable streak.
func (t *Trainer) Buffered() int {
	return len(t.buffer)
}

// Begin starts a capture session, discarding anything captured before.
// The timeout clock starts with the first frame seen afterwards.
func (t *Trainer) Begin() {
	t.reset()
	t.state = TrainerCapturing
}

// Cancel aborts a capture session without producing a template.
func (t *Trainer) Cancel() TrainingResult {
	if t.state != TrainerCapturing {
		return TrainingResult{Outcome: TrainingNone}
	}
	t.reset()
	return TrainingResult{Outcome: TrainingCancelled}
}

// Observe feeds one normalized pose to the capture session.
func (t *Trainer) Observe(pose detector.NormalizedPose) TrainingResult {
	if t.state != TrainerCapturing {
		return TrainingResult{Outcome: TrainingNone}
	}
	if t.started.IsZero() {
		t.started = pose.Timestamp
	}

	if n := len(t.buffer); n > 0 && FrameVariance(t.buffer[n-1], pose) >= t.epsilon {
		t.buffer = t.buffer[:0]
	}
	t.buffer = append(t.buffer, pose)

	if len(t.buffer) >= t.frames {
		tmpl := TemplateFromPose(MeanPose(t.buffer[len(t.buffer)-t.frames:]))
		t.reset()
		return TrainingResult{Outcome: TrainingComplete, Template: tmpl}
	}

	return t.Expire(pose.Timestamp)
}

// Expire checks the session timeout against a frame time. It is called for
// frames without a pose so that an absent hand still times out.
func (t *Trainer) Expire(now time.Time) TrainingResult {
	if t.state != TrainerCapturing {
		return TrainingResult{Outcome: TrainingNone}
	}
	if t.started.IsZero() {
		t.started = now
	}
	if now.Sub(t.started) >= t.timeout {
		t.reset()
		return TrainingResult{Outcome: TrainingTimeout, Err: ErrTrainingTimeout}
	}
	return TrainingResult{Outcome: TrainingPending}
}

func (t *Trainer) reset() {
	t.state = TrainerIdle
	t.buffer = t.buffer[:0]
	t.started = time.Time{}
}

// FrameVariance is the mean squared landmark displacement between two poses.
func FrameVariance(a, b detector.NormalizedPose) float64 {
	sq := make([]float64, detector.NumLandmarks)
	for i := range sq {
		sq[i] = r3.Norm2(r3.Sub(a.Points[i].Vec(), b.Points[i].Vec()))
	}
	return stat.Mean(sq, nil)
}

// MeanPose averages poses landmark by landmark. The timestamp is taken from
// the last pose. A running mean is used so that identical poses average to
// themselves exactly.
func MeanPose(poses []detector.NormalizedPose) detector.NormalizedPose {
	var out detector.NormalizedPose
	if len(poses) == 0 {
		return out
	}

	var acc [detector.NumLandmarks]r3.Vec
	for k, p := range poses {
		w := 1 / float64(k+1)
		for i := range acc {
			acc[i] = r3.Add(acc[i], r3.Scale(w, r3.Sub(p.Points[i].Vec(), acc[i])))
		}
	}
	for i, v := range acc {
		out.Points[i] = detector.FromVec(v)
	}

	last := poses[len(poses)-1]
	out.Handedness = last.Handedness
	out.Timestamp = last.Timestamp
	return out
}
