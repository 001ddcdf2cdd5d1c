package app

import (
	"context"
	"time"

	"github.com/ayusman/gestureos/internal/capture"
	"github.com/ayusman/gestureos/internal/detector"
)

// loopState tracks the idle/active mode of the frame loop.
//
// The loop runs at the configured FPS while a hand or motion has been seen
// within the idle timeout. After that it drops to the idle FPS and only
// runs hand detection on frames that show motion; still frames are fed to
// the controller as empty detections so the session keeps its clock.
type loopState struct {
	active       bool
	lastActivity time.Time
}

func newLoopState() *loopState {
	return &loopState{active: true}
}

func (a *App) runPipeline(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	st := newLoopState()
	ticker := time.NewTicker(a.cfg.FrameInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !a.controller.Enabled() {
				continue
			}

			frame, err := a.camera.ReadFrame()
			if err != nil {
				a.logger.Warn("failed to read frame", "err", err)
				continue
			}
			switched := a.processFrame(frame, st)
			frame.Close()

			if !switched {
				continue
			}
			fps, interval := a.cfg.FPS, a.cfg.FrameInterval()
			if !st.active {
				fps, interval = a.cfg.IdleFPS, a.cfg.IdleInterval()
			}
			a.camera.SetFPS(fps)
			ticker.Reset(interval)
			a.logger.Debug("frame rate changed", "active", st.active, "fps", fps)
		}
	}
}

// processFrame runs one captured frame through motion gating, hand
// detection and the controller. It reports whether the loop switched
// between idle and active.
func (a *App) processFrame(frame *capture.Frame, st *loopState) bool {
	now := frame.Timestamp
	throttled := a.cfg.IdleInterval() > 0

	if st.lastActivity.IsZero() {
		st.lastActivity = now
	}

	moving := false
	if throttled {
		if m := a.motion.Detect(&frame.Mat); m.Detected {
			moving = true
			st.lastActivity = now
		}
	}

	result := detector.DetectionResult{Timestamp: now}
	if st.active || moving {
		result = a.detect(frame)
		if len(result.Hands) > 0 {
			st.lastActivity = now
		}
	}

	a.controller.Process(result)

	active := !throttled || now.Sub(st.lastActivity) < a.cfg.IdleTimeout()
	if active == st.active {
		return false
	}
	st.active = active
	return true
}

// detect runs the hand detector and stamps the result with the capture
// time. A detector error is treated as a frame without a hand.
func (a *App) detect(frame *capture.Frame) detector.DetectionResult {
	d := a.Detector()
	if d == nil {
		return detector.DetectionResult{Timestamp: frame.Timestamp}
	}

	result, err := d.Detect(&frame.Mat)
	if err != nil {
		a.logger.Warn("hand detection failed", "err", err)
		return detector.DetectionResult{Timestamp: frame.Timestamp}
	}

	result.Timestamp = frame.Timestamp
	for i := range result.Hands {
		result.Hands[i].Timestamp = frame.Timestamp
	}
	return result
}
