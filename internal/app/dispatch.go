package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ayusman/gestureos/internal/gesture"
	"github.com/ayusman/gestureos/internal/plugin"
	"github.com/ayusman/gestureos/internal/store"
)

// dispatchQueueSize bounds the events waiting for plugin execution.
const dispatchQueueSize = 32

var (
	// ErrActionFailed is returned when a plugin reports success=false.
	ErrActionFailed = errors.New("plugin action failed")
	// ErrActionUnsupported is returned when a binding names an action its
	// plugin does not list.
	ErrActionUnsupported = errors.New("plugin does not support action")
)

// BindingSource looks up the enabled bindings for a gesture.
type BindingSource interface {
	ForGesture(t gesture.Type) ([]*store.Binding, error)
}

// EventLog records gesture history.
type EventLog interface {
	Append(sessionID string, ev gesture.Event) (*store.EventRecord, error)
	Prune(keep int) (int64, error)
}

// PluginSource resolves plugins by name.
type PluginSource interface {
	Get(name string) (*plugin.Plugin, error)
}

// Runner executes one plugin request.
type Runner interface {
	Execute(ctx context.Context, p *plugin.Plugin, req *plugin.Request) (*plugin.Response, error)
}

// ActionObserver is told about every plugin invocation.
type ActionObserver interface {
	ObserveAction(plugin string, err error)
}

// DispatcherConfig holds the collaborators of a Dispatcher. Bindings and
// History may be nil.
type DispatcherConfig struct {
	Bindings     BindingSource
	History      EventLog
	Plugins      PluginSource
	Runner       Runner
	Observer     ActionObserver
	HistoryLimit int
	Logger       *slog.Logger
}

// ActionResult is the outcome of running one binding.
type ActionResult struct {
	BindingID string
	Plugin    string
	Action    string
	Err       error
}

type dispatchJob struct {
	sessionID string
	event     gesture.Event
}

// Dispatcher records gesture events and runs their bound plugin actions off
// the frame loop.
type Dispatcher struct {
	cfg    DispatcherConfig
	logger *slog.Logger
	queue  chan dispatchJob
}

// NewDispatcher creates a Dispatcher. Call Run to start processing.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		cfg:    cfg,
		logger: logger.With("component", "dispatcher"),
		queue:  make(chan dispatchJob, dispatchQueueSize),
	}
}

// Enqueue schedules ev without blocking. It reports false when the queue is
// full and the event was dropped.
func (d *Dispatcher) Enqueue(sessionID string, ev gesture.Event) bool {
	select {
	case d.queue <- dispatchJob{sessionID: sessionID, event: ev}:
		return true
	default:
		d.logger.Warn("dispatch queue full, dropping event", "gesture", ev.Type)
		return false
	}
}

// Run processes queued events until ctx ends.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-d.queue:
			d.Dispatch(ctx, job.sessionID, job.event)
		}
	}
}

// Dispatch records ev and runs every enabled binding for its type in
// creation order. A failing binding does not stop the others.
func (d *Dispatcher) Dispatch(ctx context.Context, sessionID string, ev gesture.Event) []ActionResult {
	d.record(sessionID, ev)

	if d.cfg.Bindings == nil {
		return nil
	}

	bindings, err := d.cfg.Bindings.ForGesture(ev.Type)
	if err != nil {
		d.logger.Error("failed to load bindings", "gesture", ev.Type, "err", err)
		return nil
	}

	results := make([]ActionResult, 0, len(bindings))
	for _, b := range bindings {
		res := ActionResult{BindingID: b.ID, Plugin: b.PluginName, Action: b.ActionName}
		res.Err = d.run(ctx, sessionID, ev, b)
		if d.cfg.Observer != nil {
			d.cfg.Observer.ObserveAction(b.PluginName, res.Err)
		}
		if res.Err != nil {
			d.logger.Warn("action failed", "gesture", ev.Type, "plugin", b.PluginName, "action", b.ActionName, "err", res.Err)
		} else {
			d.logger.Debug("action executed", "gesture", ev.Type, "plugin", b.PluginName, "action", b.ActionName)
		}
		results = append(results, res)
	}
	return results
}

func (d *Dispatcher) run(ctx context.Context, sessionID string, ev gesture.Event, b *store.Binding) error {
	p, err := d.cfg.Plugins.Get(b.PluginName)
	if err != nil {
		return err
	}
	if !p.Manifest.Supports(b.ActionName) {
		return fmt.Errorf("%w: %s/%s", ErrActionUnsupported, b.PluginName, b.ActionName)
	}

	resp, err := d.cfg.Runner.Execute(ctx, p, &plugin.Request{
		Action:      b.ActionName,
		Gesture:     string(ev.Type),
		Confidence:  ev.Confidence,
		TimestampMs: ev.Timestamp.UnixMilli(),
		SessionID:   sessionID,
		Config:      b.Config,
	})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%w: %s", ErrActionFailed, resp.Error)
	}
	return nil
}

func (d *Dispatcher) record(sessionID string, ev gesture.Event) {
	if d.cfg.History == nil {
		return
	}
	if _, err := d.cfg.History.Append(sessionID, ev); err != nil {
		d.logger.Error("failed to record event", "gesture", ev.Type, "err", err)
		return
	}
	if d.cfg.HistoryLimit > 0 {
		if _, err := d.cfg.History.Prune(d.cfg.HistoryLimit); err != nil {
			d.logger.Warn("failed to prune event history", "err", err)
		}
	}
}
