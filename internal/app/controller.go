package app

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/ayusman/gestureos/internal/detector"
	"github.com/ayusman/gestureos/internal/gesture"
	"github.com/ayusman/gestureos/internal/store"
)

// Settings persists the enabled flag between runs. *store.SettingsRepository
// implements it. The template is never persisted; it lives only as long as
// the session.
type Settings interface {
	Bool(key string, def bool) (bool, error)
	SetBool(key string, value bool) error
}

// Status is a snapshot of the recognition session.
type Status struct {
	SessionID   string         `json:"session_id"`
	Enabled     bool           `json:"enabled"`
	Training    bool           `json:"training"`
	Phase       gesture.Phase  `json:"phase"`
	HasTemplate bool           `json:"has_template"`
	LastEvent   *gesture.Event `json:"last_event,omitempty"`
}

// UpdateKind tags an Update.
type UpdateKind string

const (
	UpdateEvent    UpdateKind = "event"
	UpdateTraining UpdateKind = "training"
	UpdateStatus   UpdateKind = "status"
)

// TrainingUpdate reports the end of a capture session. Landmarks holds the
// learned template on completion.
type TrainingUpdate struct {
	Outcome   gesture.TrainingOutcome `json:"outcome"`
	Landmarks []detector.Landmark     `json:"landmarks,omitempty"`
	Error     string                  `json:"error,omitempty"`
}

// Update is delivered to listeners after the controller changes state.
type Update struct {
	Kind     UpdateKind      `json:"kind"`
	Event    *gesture.Event  `json:"event,omitempty"`
	Training *TrainingUpdate `json:"training,omitempty"`
	Status   *Status         `json:"status,omitempty"`
}

// Listener receives updates. Listeners run on the caller's goroutine after
// the controller lock is released, so they may call back into the
// controller but must not block.
type Listener func(Update)

// Controller serializes access to one gesture session. The frame loop, the
// HTTP API and the tray all go through it.
type Controller struct {
	recognizer *gesture.Recognizer
	settings   Settings
	logger     *slog.Logger

	mu      sync.Mutex
	session *gesture.Session

	lmu       sync.RWMutex
	listeners map[int]Listener
	nextID    int
}

// NewController creates a controller around a fresh session. When settings
// is non-nil the enabled flag is restored from it.
func NewController(rec *gesture.Recognizer, settings Settings, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		recognizer: rec,
		settings:   settings,
		logger:     logger.With("component", "controller"),
		session:    rec.NewSession(),
		listeners:  make(map[int]Listener),
	}
	c.restore()
	return c
}

func (c *Controller) restore() {
	if c.settings == nil {
		return
	}

	enabled, err := c.settings.Bool(store.SettingEnabled, true)
	if err != nil {
		c.logger.Warn("failed to read enabled setting", "err", err)
	}
	c.session.SetEnabled(enabled)
}

// Subscribe registers l and returns a function that removes it.
func (c *Controller) Subscribe(l Listener) func() {
	c.lmu.Lock()
	defer c.lmu.Unlock()

	id := c.nextID
	c.nextID++
	c.listeners[id] = l

	return func() {
		c.lmu.Lock()
		defer c.lmu.Unlock()
		delete(c.listeners, id)
	}
}

func (c *Controller) notify(updates ...Update) {
	if len(updates) == 0 {
		return
	}
	c.lmu.RLock()
	listeners := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.lmu.RUnlock()

	for _, u := range updates {
		for _, l := range listeners {
			l(u)
		}
	}
}

// Status returns a snapshot of the session.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

func (c *Controller) statusLocked() Status {
	st := Status{
		SessionID:   c.session.ID,
		Enabled:     c.session.Enabled(),
		Training:    c.session.Training(),
		Phase:       c.session.Phase(),
		HasTemplate: c.session.Template() != nil,
	}
	if ev := c.session.LastEvent(); ev != nil {
		last := *ev
		st.LastEvent = &last
	}
	return st
}

// Enabled reports whether frames are being ingested.
func (c *Controller) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Enabled()
}

// SessionID returns the session identifier.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.ID
}

// SetEnabled turns recognition on or off and persists the choice.
func (c *Controller) SetEnabled(enabled bool) error {
	c.mu.Lock()
	res := c.session.SetEnabled(enabled)
	st := c.statusLocked()
	c.mu.Unlock()

	var err error
	if c.settings != nil {
		if err = c.settings.SetBool(store.SettingEnabled, enabled); err != nil {
			err = fmt.Errorf("persist enabled: %w", err)
		}
	}

	c.logger.Info("recognition toggled", "enabled", enabled)
	c.notify(append(trainingUpdates(res), Update{Kind: UpdateStatus, Status: &st})...)
	return err
}

// SetTraining starts or cancels template capture.
func (c *Controller) SetTraining(training bool) {
	c.mu.Lock()
	res := c.session.SetTraining(training)
	st := c.statusLocked()
	c.mu.Unlock()

	if training {
		c.logger.Info("training started")
	}
	c.notify(append(trainingUpdates(res), Update{Kind: UpdateStatus, Status: &st})...)
}

// SetTemplate seeds the custom template from 21 normalized landmarks.
func (c *Controller) SetTemplate(points []detector.Landmark) error {
	tmpl, err := gesture.NewTemplate(points)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.session.SetTemplate(tmpl)
	st := c.statusLocked()
	c.mu.Unlock()

	c.notify(Update{Kind: UpdateStatus, Status: &st})
	return nil
}

// ClearTemplate removes the custom template.
func (c *Controller) ClearTemplate() {
	c.mu.Lock()
	c.session.SetTemplate(nil)
	st := c.statusLocked()
	c.mu.Unlock()

	c.notify(Update{Kind: UpdateStatus, Status: &st})
}

// Template returns the custom template landmarks, if any.
func (c *Controller) Template() ([]detector.Landmark, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tmpl := c.session.Template()
	if tmpl == nil {
		return nil, false
	}
	return tmpl.Landmarks(), true
}

// Process feeds one detection result through the recognizer.
func (c *Controller) Process(result detector.DetectionResult) gesture.Output {
	c.mu.Lock()
	out := c.recognizer.Process(c.session, result)
	var st Status
	if out.Training.Done() {
		st = c.statusLocked()
	}
	c.mu.Unlock()

	var updates []Update
	if out.Training.Done() {
		updates = append(updates, trainingUpdates(out.Training)...)
		updates = append(updates, Update{Kind: UpdateStatus, Status: &st})
	}
	if out.Event != nil {
		ev := *out.Event
		updates = append(updates, Update{Kind: UpdateEvent, Event: &ev})
	}
	c.notify(updates...)

	return out
}

func trainingUpdates(res gesture.TrainingResult) []Update {
	if !res.Done() {
		return nil
	}
	tu := &TrainingUpdate{Outcome: res.Outcome}
	if res.Template != nil {
		tu.Landmarks = res.Template.Landmarks()
	}
	if res.Err != nil {
		tu.Error = res.Err.Error()
	}
	return []Update{{Kind: UpdateTraining, Training: tu}}
}
