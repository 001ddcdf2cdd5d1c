package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/ayusman/gestureos/internal/app"
	"github.com/ayusman/gestureos/internal/config"
	"github.com/ayusman/gestureos/internal/logging"
	"github.com/ayusman/gestureos/internal/server"
	"github.com/ayusman/gestureos/internal/store"
	"github.com/ayusman/gestureos/internal/tray"
)

func main() {
	withTray := flag.Bool("tray", false, "show a system tray menu")
	flag.Parse()

	if err := run(*withTray); err != nil {
		fmt.Fprintln(os.Stderr, "gestureos:", err)
		os.Exit(1)
	}
}

func run(withTray bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	st, err := store.New(cfg.Database())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	a := app.New(cfg, st, logger)
	if err := a.DiscoverPlugins(); err != nil {
		logger.Warn("plugin discovery failed", "dir", cfg.Plugins(), "err", err)
	}
	if err := a.Start(ctx); err != nil {
		return fmt.Errorf("start pipeline: %w", err)
	}
	defer a.Stop()

	staticDir := cfg.StaticDir
	if staticDir == "" {
		staticDir = findWebDir(cfg.DataDir)
	}
	if staticDir != "" {
		logger.Info("serving static files", "dir", staticDir)
	}

	srv := server.New(server.Config{
		StaticDir:  staticDir,
		Store:      st,
		Controller: a.Controller(),
		Plugins:    a.PluginManager(),
		Metrics:    a.Recorder().Handler(),
		Logger:     logger,
	})

	if !withTray {
		return srv.Run(ctx, cfg.Addr)
	}

	// The tray owns the main goroutine; the server runs beside it.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx, cfg.Addr) }()

	t := tray.New(a.Controller(), logger)
	t.OnSettings(func() { openBrowser(settingsURL(cfg.Addr), logger) })
	t.OnQuit(cancel)
	go func() {
		<-ctx.Done()
		t.Quit()
	}()
	t.Run()

	cancel()
	return <-errCh
}

func settingsURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func openBrowser(url string, logger *slog.Logger) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		logger.Warn("failed to open browser", "url", url, "err", err)
	}
}

// findWebDir searches "web", "../web", "../../web" and dataDir/web, and
// returns the first existing directory or "".
func findWebDir(dataDir string) string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	p := filepath.Join(dataDir, "web")
	if info, err := os.Stat(p); err == nil && info.IsDir() {
		return p
	}
	return ""
}
