package gesture

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the calibration parameters of the pipeline. Distances are in
// palm lengths (wrist to middle-finger MCP) unless noted otherwise.
type Config struct {
	// WindowSize is the tracking window capacity in frames.
	WindowSize int
	// WindowMaxAge drops samples older than this relative to the newest one.
	WindowMaxAge time.Duration
	// MaxSpan rejects motion whose window endpoints are further apart in time.
	MaxSpan time.Duration

	// VerticalThreshold is the index fingertip displacement that counts as a scroll.
	VerticalThreshold float64
	// HorizontalThreshold is the wrist displacement that counts as a swipe.
	HorizontalThreshold float64

	// ConfirmFrames is how many consecutive frames a candidate must persist.
	ConfirmFrames int
	// Cooldown is the refractory period after an emitted event.
	Cooldown time.Duration

	// MatchThreshold is the mean landmark distance below which a pose
	// matches the custom template.
	MatchThreshold float64

	// StabilityEpsilon bounds the frame-to-frame variance of a held pose.
	StabilityEpsilon float64
	// CaptureFrames is the number of stable frames needed to learn a template.
	CaptureFrames int
	// TrainingTimeout aborts a capture session that never stabilizes.
	TrainingTimeout time.Duration
}

// DefaultConfig returns a Config with values tuned for a 15-30 FPS webcam.
func DefaultConfig() Config {
	return Config{
		WindowSize:          10,
		WindowMaxAge:        time.Second,
		MaxSpan:             700 * time.Millisecond,
		VerticalThreshold:   1.0,
		HorizontalThreshold: 1.5,
		ConfirmFrames:       3,
		Cooldown:            time.Second,
		MatchThreshold:      0.35,
		StabilityEpsilon:    0.002,
		CaptureFrames:       15,
		TrainingTimeout:     10 * time.Second,
	}
}

// Validate reports the first parameter that cannot drive the pipeline.
func (c Config) Validate() error {
	var errs []error
	if c.WindowSize < 2 {
		errs = append(errs, fmt.Errorf("window size must be at least 2, got %d", c.WindowSize))
	}
	if c.WindowMaxAge <= 0 {
		errs = append(errs, errors.New("window max age must be positive"))
	}
	if c.MaxSpan <= 0 {
		errs = append(errs, errors.New("max span must be positive"))
	}
	if c.VerticalThreshold <= 0 || c.HorizontalThreshold <= 0 {
		errs = append(errs, errors.New("motion thresholds must be positive"))
	}
	if c.ConfirmFrames < 1 {
		errs = append(errs, fmt.Errorf("confirm frames must be at least 1, got %d", c.ConfirmFrames))
	}
	if c.Cooldown < 0 {
		errs = append(errs, errors.New("cooldown must not be negative"))
	}
	if c.MatchThreshold <= 0 {
		errs = append(errs, errors.New("match threshold must be positive"))
	}
	if c.StabilityEpsilon <= 0 {
		errs = append(errs, errors.New("stability epsilon must be positive"))
	}
	if c.CaptureFrames < 1 {
		errs = append(errs, fmt.Errorf("capture frames must be at least 1, got %d", c.CaptureFrames))
	}
	if c.TrainingTimeout <= 0 {
		errs = append(errs, errors.New("training timeout must be positive"))
	}
	return errors.Join(errs...)
}
