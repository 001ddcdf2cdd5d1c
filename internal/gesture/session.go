package gesture

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/gestureos/internal/detector"
)

// FrameOutcome classifies how a frame entered the pipeline.
type FrameOutcome string

const (
	FramePose       FrameOutcome = "pose"
	FrameNoHand     FrameOutcome = "no_hand"
	FrameDegenerate FrameOutcome = "degenerate"
	FrameSkipped    FrameOutcome = "skipped"
)

// Observer receives pipeline activity, typically for metrics.
type Observer interface {
	ObserveFrame(FrameOutcome)
	ObserveEvent(Event)
	ObserveTraining(TrainingOutcome)
}

type noopObserver struct{}

func (noopObserver) ObserveFrame(FrameOutcome)       {}
func (noopObserver) ObserveEvent(Event)              {}
func (noopObserver) ObserveTraining(TrainingOutcome) {}

// Session is the mutable state of one tracking session. It is not safe for
// concurrent use; a single owner feeds it frames through Recognizer.Process.
type Session struct {
	ID string

	enabled   bool
	window    *Window
	machine   *Machine
	trainer   *Trainer
	template  *Template
	lastEvent *Event
	lastFrame time.Time
}

// NewSession creates an enabled session with no template.
func NewSession(cfg Config) *Session {
	return &Session{
		ID:      uuid.NewString(),
		enabled: true,
		window:  NewWindow(cfg.WindowSize, cfg.WindowMaxAge),
		machine: NewMachine(cfg),
		trainer: NewTrainer(cfg),
	}
}

// Enabled reports whether frames are being ingested.
func (s *Session) Enabled() bool { return s.enabled }

// Training reports whether a capture session is running.
func (s *Session) Training() bool { return s.trainer.State() == TrainerCapturing }

// Phase returns the state machine phase.
func (s *Session) Phase() Phase { return s.machine.Phase() }

// Template returns the custom template, or nil.
func (s *Session) Template() *Template { return s.template }

// Window exposes the tracking window for inspection.
func (s *Session) Window() *Window { return s.window }

// LastEvent returns the most recent emitted event, or nil.
func (s *Session) LastEvent() *Event { return s.lastEvent }

// SetEnabled gates frame ingestion. Disabling freezes the session and
// cancels any capture in progress. Re-enabling discards partial
// confirmation progress so a full confirmation window is needed again.
func (s *Session) SetEnabled(enabled bool) TrainingResult {
	if enabled == s.enabled {
		return TrainingResult{Outcome: TrainingNone}
	}
	s.enabled = enabled
	if enabled {
		s.machine.Interrupt()
		return TrainingResult{Outcome: TrainingNone}
	}
	return s.trainer.Cancel()
}

// SetTraining starts or cancels template capture. Starting while already
// capturing restarts the capture.
func (s *Session) SetTraining(training bool) TrainingResult {
	if training {
		s.trainer.Begin()
		return TrainingResult{Outcome: TrainingPending}
	}
	return s.trainer.Cancel()
}

// SetTemplate replaces the custom template. A nil template clears it.
func (s *Session) SetTemplate(t *Template) {
	s.template = t
}

// Output is what one frame produced.
type Output struct {
	Frame     FrameOutcome
	Candidate Candidate
	Match     Match
	Event     *Event
	Training  TrainingResult
}

// Recognizer runs the per-frame pipeline over a Session. It is stateless
// apart from its configuration and may be shared between sessions.
type Recognizer struct {
	cfg        Config
	classifier *Classifier
	matcher    *Matcher
	logger     *slog.Logger
	observer   Observer
}

// Option configures a Recognizer.
type Option func(*Recognizer)

// WithLogger sets the logger used for pipeline events.
func WithLogger(l *slog.Logger) Option {
	return func(r *Recognizer) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithObserver attaches an Observer, such as a metrics recorder.
func WithObserver(o Observer) Option {
	return func(r *Recognizer) {
		if o != nil {
			r.observer = o
		}
	}
}

// NewRecognizer builds a Recognizer from cfg.
func NewRecognizer(cfg Config, opts ...Option) *Recognizer {
	r := &Recognizer{
		cfg:        cfg,
		classifier: NewClassifier(cfg),
		matcher:    NewMatcher(cfg),
		logger:     slog.Default(),
		observer:   noopObserver{},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "recognizer")
	return r
}

// Config returns the recognizer configuration.
func (r *Recognizer) Config() Config {
	return r.cfg
}

// NewSession creates a session sized for this recognizer.
func (r *Recognizer) NewSession() *Session {
	return NewSession(r.cfg)
}

// Process handles one detection result against s. Frames must be passed in
// arrival order; a disabled session ignores them.
func (r *Recognizer) Process(s *Session, result detector.DetectionResult) Output {
	if !s.enabled {
		r.observer.ObserveFrame(FrameSkipped)
		return Output{Frame: FrameSkipped, Candidate: NoCandidate}
	}

	out := Output{Frame: FramePose, Candidate: NoCandidate}
	now := frameTime(result, s.lastFrame)
	s.lastFrame = now

	sample, err := Normalize(result)
	switch {
	case err == nil:
		s.window.Push(sample)
		out.Training = s.trainer.Observe(sample.Pose)
		if out.Training.Outcome == TrainingComplete {
			s.template = out.Training.Template
			// The pose just learned is still in view; it fires only after
			// the hand lets go of it once.
			s.machine.Hold(Custom)
		}

		out.Match = r.matcher.Match(&sample.Pose, s.template)
		out.Candidate = Arbitrate(r.classifier.Classify(s.window), out.Match.Candidate())

	case errors.Is(err, ErrDegenerateGeometry):
		out.Frame = FrameDegenerate
		r.logger.Debug("dropped degenerate frame", "session", s.ID)
		s.window.MarkGap(now)
		out.Training = s.trainer.Expire(now)

	default:
		out.Frame = FrameNoHand
		s.window.MarkGap(now)
		out.Training = s.trainer.Expire(now)
	}
	r.observer.ObserveFrame(out.Frame)

	if out.Training.Done() {
		r.observer.ObserveTraining(out.Training.Outcome)
		switch out.Training.Outcome {
		case TrainingComplete:
			r.logger.Info("custom template learned", "session", s.ID)
		case TrainingTimeout:
			r.logger.Warn("training timed out", "session", s.ID, "err", out.Training.Err)
		}
	}

	if ev, ok := s.machine.Step(out.Candidate, now); ok {
		out.Event = &ev
		s.lastEvent = &ev
		if ev.Type.IsMotion() {
			// The displacement that produced this event must not fire again
			// once the cooldown ends.
			s.window.KeepNewest()
		}
		r.observer.ObserveEvent(ev)
		r.logger.Info("gesture", "session", s.ID, "gesture", ev.Type, "confidence", ev.Confidence)
	}

	return out
}

// frameTime is the detection time, else the primary hand's time, else the
// previous frame's time.
func frameTime(result detector.DetectionResult, prev time.Time) time.Time {
	if !result.Timestamp.IsZero() {
		return result.Timestamp
	}
	if h, ok := result.Primary(); ok && !h.Timestamp.IsZero() {
		return h.Timestamp
	}
	return prev
}
