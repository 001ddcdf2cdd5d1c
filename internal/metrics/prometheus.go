// Package metrics exposes Prometheus metrics for the recognition pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ayusman/gestureos/internal/gesture"
)

// Recorder counts pipeline activity. It implements gesture.Observer.
type Recorder struct {
	namespace         string
	subsystem         string
	confidenceBuckets []float64
	registry          *prometheus.Registry

	frames     *prometheus.CounterVec
	events     *prometheus.CounterVec
	confidence *prometheus.HistogramVec
	training   *prometheus.CounterVec
	actions    *prometheus.CounterVec
	enabled    prometheus.Gauge
}

var _ gesture.Observer = (*Recorder)(nil)

// NewRecorder registers the pipeline metrics on a fresh registry unless
// WithRegistry supplies one.
func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{
		namespace:         "gestureos",
		subsystem:         "pipeline",
		confidenceBuckets: []float64{0.1, 0.25, 0.5, 0.75, 0.9, 1},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.registry == nil {
		r.registry = prometheus.NewRegistry()
	}
	r.initializeMetrics()
	return r
}

func (r *Recorder) initializeMetrics() {
	auto := promauto.With(r.registry)

	r.frames = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: r.subsystem,
		Name:      "frames_total",
		Help:      "Frames handled, by outcome (pose, no_hand, degenerate, skipped).",
	}, []string{"outcome"})

	r.events = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: r.subsystem,
		Name:      "gestures_total",
		Help:      "Confirmed gesture events, by type.",
	}, []string{"gesture"})

	r.confidence = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Subsystem: r.subsystem,
		Name:      "gesture_confidence",
		Help:      "Confidence of confirmed gesture events.",
		Buckets:   r.confidenceBuckets,
	}, []string{"gesture"})

	r.training = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: r.subsystem,
		Name:      "training_sessions_total",
		Help:      "Finished template training sessions, by outcome.",
	}, []string{"outcome"})

	r.actions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: r.subsystem,
		Name:      "plugin_actions_total",
		Help:      "Plugin actions dispatched for gestures, by plugin and status.",
	}, []string{"plugin", "status"})

	r.enabled = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: r.namespace,
		Subsystem: r.subsystem,
		Name:      "enabled",
		Help:      "1 while recognition is enabled.",
	})

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// ObserveFrame counts one frame.
func (r *Recorder) ObserveFrame(outcome gesture.FrameOutcome) {
	r.frames.WithLabelValues(string(outcome)).Inc()
}

// ObserveEvent counts one emitted gesture.
func (r *Recorder) ObserveEvent(ev gesture.Event) {
	r.events.WithLabelValues(string(ev.Type)).Inc()
	r.confidence.WithLabelValues(string(ev.Type)).Observe(ev.Confidence)
}

// ObserveTraining counts a finished training session.
func (r *Recorder) ObserveTraining(outcome gesture.TrainingOutcome) {
	r.training.WithLabelValues(string(outcome)).Inc()
}

// ObserveAction counts a plugin dispatch.
func (r *Recorder) ObserveAction(plugin string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.actions.WithLabelValues(plugin, status).Inc()
}

// SetEnabled mirrors the recognition toggle.
func (r *Recorder) SetEnabled(enabled bool) {
	if enabled {
		r.enabled.Set(1)
		return
	}
	r.enabled.Set(0)
}

// Registry returns the registry backing the recorder.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
