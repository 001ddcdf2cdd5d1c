// Package main provides a plugin that simulates the navigation state of a
// touch device. Each gesture action updates a JSON state file so the
// effect of a binding can be inspected without real input injection.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action  string          `json:"action"`
	Gesture string          `json:"gesture"`
	Config  json.RawMessage `json:"config"`
	Params  json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Config is the per-binding plugin configuration.
type Config struct {
	StateFile  string `json:"state_file"`
	ScrollStep int    `json:"scroll_step"`
	Screen     string `json:"screen"`
}

const (
	defaultStateFile  = "device-sim.json"
	defaultScrollStep = 100
	homeScreen        = "home"
)

// State is the simulated device.
type State struct {
	Screen      string   `json:"screen"`
	ScrollY     int      `json:"scroll_y"`
	History     []string `json:"history"`
	CustomCount int      `json:"custom_count"`
}

type actionHandler func(s *State, req Request, cfg Config) error

var actionHandlers = map[string]actionHandler{
	"scroll": scroll,
	"back":   back,
	"home":   home,
	"custom": custom,
}

func main() {
	resp := handle(os.Stdin)
	json.NewEncoder(os.Stdout).Encode(resp)
}

func handle(r io.Reader) Response {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return errorResponse(fmt.Sprintf("failed to decode request: %v", err))
	}

	handler, ok := actionHandlers[req.Action]
	if !ok {
		return errorResponse(fmt.Sprintf("unknown action: %s", req.Action))
	}

	cfg := Config{StateFile: defaultStateFile, ScrollStep: defaultScrollStep}
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			return errorResponse(fmt.Sprintf("invalid config: %v", err))
		}
	}
	if cfg.ScrollStep <= 0 {
		cfg.ScrollStep = defaultScrollStep
	}

	state, err := loadState(cfg.StateFile)
	if err != nil {
		return errorResponse(err.Error())
	}
	if err := handler(state, req, cfg); err != nil {
		return errorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
	}
	if err := saveState(cfg.StateFile, state); err != nil {
		return errorResponse(err.Error())
	}

	data, err := json.Marshal(state)
	if err != nil {
		return errorResponse(err.Error())
	}
	return Response{Success: true, Data: data}
}

func errorResponse(msg string) Response {
	return Response{Success: false, Error: msg}
}

func loadState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &State{Screen: homeScreen}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	if s.Screen == "" {
		s.Screen = homeScreen
	}
	return &s, nil
}

func saveState(path string, s *State) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return os.Rename(tmp, path)
}

// scroll moves the page up for SCROLL_UP and down for anything else.
// The offset never goes above the top of the page.
func scroll(s *State, req Request, cfg Config) error {
	if req.Gesture == "SCROLL_UP" {
		s.ScrollY = max(0, s.ScrollY-cfg.ScrollStep)
		return nil
	}
	s.ScrollY += cfg.ScrollStep
	return nil
}

func back(s *State, _ Request, _ Config) error {
	if len(s.History) == 0 {
		return errors.New("no previous screen")
	}
	last := len(s.History) - 1
	s.Screen = s.History[last]
	s.History = s.History[:last]
	s.ScrollY = 0
	return nil
}

func home(s *State, _ Request, _ Config) error {
	if s.Screen != homeScreen {
		s.History = append(s.History, s.Screen)
	}
	s.Screen = homeScreen
	s.ScrollY = 0
	return nil
}

// custom opens the screen named in the binding config, or only counts the
// gesture when none is configured.
func custom(s *State, _ Request, cfg Config) error {
	s.CustomCount++
	if cfg.Screen != "" && cfg.Screen != s.Screen {
		s.History = append(s.History, s.Screen)
		s.Screen = cfg.Screen
		s.ScrollY = 0
	}
	return nil
}
