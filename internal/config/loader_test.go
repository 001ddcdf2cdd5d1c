package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/ayusman/gestureos/internal/config"
	"github.com/ayusman/gestureos/internal/gesture"
)

var configEnvVars = []string{
	"GESTUREOS_CONFIG",
	"GESTUREOS_ADDR",
	"GESTUREOS_FPS",
	"GESTUREOS_COOLDOWN_MS",
	"GESTUREOS_MATCH_THRESHOLD",
	"GESTUREOS_CONFIRM_FRAMES",
	"GESTUREOS_LOG_LEVEL",
}

func clearConfigEnvVars() {
	for _, k := range configEnvVars {
		_ = os.Unsetenv(k)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gestureos.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then the recognizer calibration matches the pipeline defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.FPS, convey.ShouldEqual, 15)
				convey.So(cfg.Recognizer(), convey.ShouldResemble, gesture.DefaultConfig())
			})
		})

		convey.Convey("When environment variables are set", func() {
			_ = os.Setenv("GESTUREOS_ADDR", ":9999")
			_ = os.Setenv("GESTUREOS_COOLDOWN_MS", "250")
			_ = os.Setenv("GESTUREOS_MATCH_THRESHOLD", "0.2")

			cfg, err := config.Load(ctx)

			convey.Convey("Then they override the defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9999")
				convey.So(cfg.Recognizer().Cooldown, convey.ShouldEqual, 250*time.Millisecond)
				convey.So(cfg.MatchThreshold, convey.ShouldEqual, 0.2)
			})
		})

		convey.Convey("When a YAML file is named", func() {
			path := writeConfigFile(t, `
addr: ":7070"
fps: 30
confirm_frames: 5
log_level: debug
`)
			_ = os.Setenv("GESTUREOS_CONFIG", path)
			_ = os.Setenv("GESTUREOS_FPS", "20")

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values apply and env still wins", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.ConfirmFrames, convey.ShouldEqual, 5)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.FPS, convey.ShouldEqual, 20)
				convey.So(cfg.FrameInterval(), convey.ShouldEqual, 50*time.Millisecond)
			})
		})

		convey.Convey("When the named file does not exist", func() {
			_ = os.Setenv("GESTUREOS_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

			_, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the calibration is invalid", func() {
			_ = os.Setenv("GESTUREOS_CONFIRM_FRAMES", "0")

			_, err := config.Load(ctx)

			convey.Convey("Then an invalid config error is returned", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func TestConfigPaths(t *testing.T) {
	convey.Convey("Given a config with a data directory", t, func() {
		cfg := config.New()
		cfg.DataDir = "/var/lib/gestureos"

		convey.Convey("Then derived paths sit inside it", func() {
			convey.So(cfg.Database(), convey.ShouldEqual, "/var/lib/gestureos/gestureos.db")
			convey.So(cfg.Plugins(), convey.ShouldEqual, "/var/lib/gestureos/plugins")
		})

		convey.Convey("When explicit paths are set", func() {
			cfg.DBPath = "/tmp/g.db"
			cfg.PluginDir = "/opt/plugins"

			convey.Convey("Then they take precedence", func() {
				convey.So(cfg.Database(), convey.ShouldEqual, "/tmp/g.db")
				convey.So(cfg.Plugins(), convey.ShouldEqual, "/opt/plugins")
			})
		})

		convey.Convey("Then idle throttling defaults to 5 fps after 2s", func() {
			convey.So(cfg.IdleInterval(), convey.ShouldEqual, 200*time.Millisecond)
			convey.So(cfg.IdleTimeout(), convey.ShouldEqual, 2*time.Second)
		})

		convey.Convey("When idle throttling is off", func() {
			cfg.IdleFPS = 0

			convey.Convey("Then there is no idle interval and the config is valid", func() {
				convey.So(cfg.IdleInterval(), convey.ShouldEqual, time.Duration(0))
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the idle rate exceeds the active rate", func() {
			cfg.IdleFPS = cfg.FPS + 1

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the address is empty", func() {
			cfg.Addr = ""

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}
