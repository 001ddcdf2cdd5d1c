// Package app wires the camera, the hand detector, the gesture recognizer
// and plugin dispatch into one running service.
package app

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ayusman/gestureos/internal/capture"
	"github.com/ayusman/gestureos/internal/config"
	"github.com/ayusman/gestureos/internal/detector"
	"github.com/ayusman/gestureos/internal/gesture"
	"github.com/ayusman/gestureos/internal/metrics"
	"github.com/ayusman/gestureos/internal/plugin"
	"github.com/ayusman/gestureos/internal/store"
)

// App is the running service: a frame loop feeding the Controller and a
// Dispatcher turning gesture events into plugin actions.
type App struct {
	cfg    *config.Config
	store  *store.Store
	logger *slog.Logger

	camera     capture.Camera
	motion     *capture.MotionDetector
	controller *Controller
	recorder   *metrics.Recorder
	plugins    *plugin.Manager
	executor   *plugin.Executor
	dispatcher *Dispatcher

	mu       sync.RWMutex
	detector detector.Detector
	cancel   context.CancelFunc
	done     chan struct{}
}

// Option customizes an App.
type Option func(*App)

// WithCamera replaces the capture device, typically with a MockCamera.
func WithCamera(c capture.Camera) Option {
	return func(a *App) { a.camera = c }
}

// WithDetector replaces the hand detector.
func WithDetector(d detector.Detector) Option {
	return func(a *App) { a.detector = d }
}

// WithRecorder shares a metrics recorder.
func WithRecorder(r *metrics.Recorder) Option {
	return func(a *App) { a.recorder = r }
}

// New builds an App. st may be nil, in which case nothing is persisted and
// no bindings are dispatched.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger, opts ...Option) *App {
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{
		cfg:    cfg,
		store:  st,
		logger: logger,
		motion: capture.NewMotionDetector(cfg.MotionThreshold),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.camera == nil {
		a.camera = capture.NewCamera(cfg.CameraID)
	}
	if a.recorder == nil {
		a.recorder = metrics.NewRecorder()
	}
	if a.detector == nil {
		if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig(), logger); err == nil {
			a.detector = mp
			logger.Info("using mediapipe hand detection")
		} else {
			logger.Warn("mediapipe not available, using mock detector", "err", err)
			a.detector = detector.NewMockDetector()
		}
	}

	recognizer := gesture.NewRecognizer(cfg.Recognizer(),
		gesture.WithLogger(logger),
		gesture.WithObserver(a.recorder),
	)

	var settings Settings
	if st != nil {
		settings = st.Settings()
	}
	a.controller = NewController(recognizer, settings, logger)
	a.recorder.SetEnabled(a.controller.Enabled())

	a.plugins = plugin.NewManager(cfg.Plugins(), logger)
	a.executor = plugin.NewExecutor(cfg.PluginTimeout())

	var (
		bindings BindingSource
		history  EventLog
	)
	if st != nil {
		bindings = st.Bindings()
		history = st.Events()
	}
	a.dispatcher = NewDispatcher(DispatcherConfig{
		Bindings:     bindings,
		History:      history,
		Plugins:      a.plugins,
		Runner:       a.executor,
		Observer:     a.recorder,
		HistoryLimit: cfg.EventHistory,
		Logger:       logger,
	})

	a.controller.Subscribe(a.onUpdate)

	return a
}

func (a *App) onUpdate(u Update) {
	switch u.Kind {
	case UpdateStatus:
		a.recorder.SetEnabled(u.Status.Enabled)
	case UpdateEvent:
		a.dispatcher.Enqueue(a.controller.SessionID(), *u.Event)
	}
}

// DiscoverPlugins scans the plugin directory.
func (a *App) DiscoverPlugins() error {
	return a.plugins.Discover()
}

// Start opens the camera and runs the frame loop and the dispatcher until
// Stop is called or ctx ends. Starting a running App is a no-op.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}
	a.camera.SetFPS(a.cfg.FPS)

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.done = make(chan struct{})

	go a.dispatcher.Run(ctx)
	go a.runPipeline(ctx, a.done)

	a.logger.Info("detection pipeline started", "fps", a.cfg.FPS, "idle_fps", a.cfg.IdleFPS)
	return nil
}

// Stop halts the frame loop and releases the camera and the detector.
func (a *App) Stop() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.cancel, a.done = nil, nil
	a.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	if err := a.camera.Close(); err != nil {
		a.logger.Warn("failed to close camera", "err", err)
	}
	a.motion.Close()

	if d := a.Detector(); d != nil {
		if err := d.Close(); err != nil {
			a.logger.Warn("failed to close detector", "err", err)
		}
	}

	a.logger.Info("detection pipeline stopped")
}

// SetDetector swaps the hand detector.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// Controller returns the session controller.
func (a *App) Controller() *Controller {
	return a.controller
}

// Camera returns the capture device.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Recorder returns the metrics recorder.
func (a *App) Recorder() *metrics.Recorder {
	return a.recorder
}

// PluginManager returns the plugin manager.
func (a *App) PluginManager() *plugin.Manager {
	return a.plugins
}

// Store returns the backing store, which may be nil.
func (a *App) Store() *store.Store {
	return a.store
}
