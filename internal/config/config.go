// Package config defines the process configuration and its loader.
//
// Durations are plain integer milliseconds in the *_ms fields so that they
// can be set from environment variables without a duration parser.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ayusman/gestureos/internal/gesture"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// CameraID selects the capture device.
	CameraID int `koanf:"camera_id"`

	// FPS is the frame loop rate while a hand or motion is in view.
	FPS int `koanf:"fps"`

	// IdleFPS is the frame loop rate once the scene has been still for
	// IdleTimeoutMS. Zero disables idle throttling.
	IdleFPS int `koanf:"idle_fps"`

	// IdleTimeoutMS is how long the scene must be still before idling.
	IdleTimeoutMS int `koanf:"idle_timeout_ms"`

	// MotionThreshold is the percentage of changed pixels that counts as
	// motion.
	MotionThreshold float64 `koanf:"motion_threshold"`

	// DataDir holds the database and the default plugin directory.
	DataDir string `koanf:"data_dir"`

	// DBPath is the sqlite database file. Empty means DataDir/gestureos.db.
	DBPath string `koanf:"db_path"`

	// PluginDir is scanned for plugin.json manifests.
	PluginDir string `koanf:"plugin_dir"`

	// StaticDir, when set, is served at "/".
	StaticDir string `koanf:"static_dir"`

	// PluginTimeoutMS bounds a single plugin invocation.
	PluginTimeoutMS int `koanf:"plugin_timeout_ms"`

	// EventHistory is how many gesture events the store keeps. Zero keeps
	// every event.
	EventHistory int `koanf:"event_history"`

	// Recognition calibration, see gesture.Config.
	WindowSize          int     `koanf:"window_size"`
	WindowMaxAgeMS      int     `koanf:"window_max_age_ms"`
	MaxSpanMS           int     `koanf:"max_span_ms"`
	VerticalThreshold   float64 `koanf:"vertical_threshold"`
	HorizontalThreshold float64 `koanf:"horizontal_threshold"`
	ConfirmFrames       int     `koanf:"confirm_frames"`
	CooldownMS          int     `koanf:"cooldown_ms"`
	MatchThreshold      float64 `koanf:"match_threshold"`
	StabilityEpsilon    float64 `koanf:"stability_epsilon"`
	CaptureFrames       int     `koanf:"capture_frames"`
	TrainingTimeoutMS   int     `koanf:"training_timeout_ms"`
}

// New returns a Config holding the defaults.
func New() *Config {
	g := gesture.DefaultConfig()
	return &Config{
		LogLevel:        "info",
		Addr:            ":8080",
		CameraID:        0,
		FPS:             15,
		IdleFPS:         5,
		IdleTimeoutMS:   2000,
		MotionThreshold: 1.0,
		DataDir:         defaultDataDir(),
		PluginTimeoutMS: 5000,
		EventHistory:    500,

		WindowSize:          g.WindowSize,
		WindowMaxAgeMS:      int(g.WindowMaxAge / time.Millisecond),
		MaxSpanMS:           int(g.MaxSpan / time.Millisecond),
		VerticalThreshold:   g.VerticalThreshold,
		HorizontalThreshold: g.HorizontalThreshold,
		ConfirmFrames:       g.ConfirmFrames,
		CooldownMS:          int(g.Cooldown / time.Millisecond),
		MatchThreshold:      g.MatchThreshold,
		StabilityEpsilon:    g.StabilityEpsilon,
		CaptureFrames:       g.CaptureFrames,
		TrainingTimeoutMS:   int(g.TrainingTimeout / time.Millisecond),
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gestureos"
	}
	return filepath.Join(home, ".gestureos")
}

// Database returns the resolved sqlite path.
func (c *Config) Database() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return filepath.Join(c.DataDir, "gestureos.db")
}

// Plugins returns the resolved plugin directory.
func (c *Config) Plugins() string {
	if c.PluginDir != "" {
		return c.PluginDir
	}
	return filepath.Join(c.DataDir, "plugins")
}

// PluginTimeout returns the plugin invocation timeout.
func (c *Config) PluginTimeout() time.Duration {
	return time.Duration(c.PluginTimeoutMS) * time.Millisecond
}

// FrameInterval returns the frame loop period.
func (c *Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.FPS)
}

// IdleInterval returns the frame loop period while idle, or zero when idle
// throttling is off.
func (c *Config) IdleInterval() time.Duration {
	if c.IdleFPS <= 0 {
		return 0
	}
	return time.Second / time.Duration(c.IdleFPS)
}

// IdleTimeout returns how long the scene must be still before idling.
func (c *Config) IdleTimeout() time.Duration {
	return ms(c.IdleTimeoutMS)
}

// Recognizer builds the pipeline calibration.
func (c *Config) Recognizer() gesture.Config {
	return gesture.Config{
		WindowSize:          c.WindowSize,
		WindowMaxAge:        ms(c.WindowMaxAgeMS),
		MaxSpan:             ms(c.MaxSpanMS),
		VerticalThreshold:   c.VerticalThreshold,
		HorizontalThreshold: c.HorizontalThreshold,
		ConfirmFrames:       c.ConfirmFrames,
		Cooldown:            ms(c.CooldownMS),
		MatchThreshold:      c.MatchThreshold,
		StabilityEpsilon:    c.StabilityEpsilon,
		CaptureFrames:       c.CaptureFrames,
		TrainingTimeout:     ms(c.TrainingTimeoutMS),
	}
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

// Validate checks the process settings and the recognizer calibration.
func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	if c.FPS <= 0 {
		errs = append(errs, fmt.Errorf("fps must be positive, got %d", c.FPS))
	}
	if c.IdleFPS < 0 || c.IdleFPS > c.FPS {
		errs = append(errs, fmt.Errorf("idle_fps must be between 0 and fps, got %d", c.IdleFPS))
	}
	if c.IdleFPS > 0 && c.IdleTimeoutMS <= 0 {
		errs = append(errs, fmt.Errorf("idle_timeout_ms must be positive, got %d", c.IdleTimeoutMS))
	}
	if c.MotionThreshold <= 0 {
		errs = append(errs, fmt.Errorf("motion_threshold must be positive, got %v", c.MotionThreshold))
	}
	if c.PluginTimeoutMS <= 0 {
		errs = append(errs, fmt.Errorf("plugin_timeout_ms must be positive, got %d", c.PluginTimeoutMS))
	}
	if c.EventHistory < 0 {
		errs = append(errs, fmt.Errorf("event_history must not be negative, got %d", c.EventHistory))
	}
	if err := c.Recognizer().Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
