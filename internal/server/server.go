// Package server provides the HTTP server for the GestureOS service.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ayusman/gestureos/internal/app"
	"github.com/ayusman/gestureos/internal/server/api"
	"github.com/ayusman/gestureos/internal/store"
)

const shutdownTimeout = 5 * time.Second

// Controller is what the server needs from app.Controller.
type Controller interface {
	api.Controller
	Subscribe(l app.Listener) func()
}

// PluginCatalog resolves and lists plugins. *plugin.Manager implements it.
type PluginCatalog interface {
	api.PluginSource
	api.PluginLister
}

// Config holds the server configuration. Every field is optional; routes
// whose dependency is missing are not registered.
type Config struct {
	StaticDir  string
	Store      *store.Store
	Controller Controller
	Plugins    PluginCatalog
	Metrics    http.Handler
	Logger     *slog.Logger
}

// Server represents the HTTP server.
type Server struct {
	config      Config
	mux         *http.ServeMux
	start       time.Time
	logger      *slog.Logger
	stream      *EventStream
	unsubscribe func()
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
		logger: logger.With("component", "server"),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if c := s.config.Controller; c != nil {
		s.mux.Handle("/api/session", api.NewSessionHandler(c))
		s.mux.Handle("/api/template", api.NewTemplateHandler(c))

		s.stream = NewEventStream(c.Status, s.logger)
		s.unsubscribe = c.Subscribe(s.stream.Publish)
		s.mux.Handle("/api/events/ws", s.stream)
	}

	if st := s.config.Store; st != nil {
		var plugins api.PluginSource
		if s.config.Plugins != nil {
			plugins = s.config.Plugins
		}
		bindings := api.NewBindingHandler(st.Bindings(), plugins)
		s.mux.Handle("/api/bindings", bindings)
		s.mux.Handle("/api/bindings/", bindings)
		s.mux.Handle("/api/events", api.NewEventsHandler(st.Events()))
	}

	if s.config.Plugins != nil {
		s.mux.Handle("/api/plugins", api.NewPluginsHandler(s.config.Plugins))
	}

	if s.config.Metrics != nil {
		s.mux.Handle("/metrics", s.config.Metrics)
	}

	if s.config.StaticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Stream returns the websocket event stream, or nil without a controller.
func (s *Server) Stream() *EventStream {
	return s.stream
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).Round(time.Second).String(),
	}
	if c := s.config.Controller; c != nil {
		st := c.Status()
		response["enabled"] = st.Enabled
		response["phase"] = st.Phase
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// Run serves on addr until ctx ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// Close detaches from the controller and disconnects websocket clients.
func (s *Server) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	if s.stream != nil {
		s.stream.Close()
	}
}
