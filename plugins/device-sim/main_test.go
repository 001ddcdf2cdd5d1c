package main

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func run(t *testing.T, stateFile, action, gesture string, extra map[string]any) Response {
	t.Helper()
	cfg := map[string]any{"state_file": stateFile}
	for k, v := range extra {
		cfg[k] = v
	}
	req, err := json.Marshal(map[string]any{
		"action":  action,
		"gesture": gesture,
		"config":  cfg,
	})
	if err != nil {
		t.Fatal(err)
	}
	return handle(strings.NewReader(string(req)))
}

func stateOf(t *testing.T, resp Response) State {
	t.Helper()
	if !resp.Success {
		t.Fatalf("expected success, got %q", resp.Error)
	}
	var s State
	if err := json.Unmarshal(resp.Data, &s); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return s
}

func TestHandle_Navigation(t *testing.T) {
	file := filepath.Join(t.TempDir(), "state.json")

	s := stateOf(t, run(t, file, "scroll", "SCROLL_DOWN", nil))
	if s.ScrollY != defaultScrollStep {
		t.Errorf("ScrollY = %d, want %d", s.ScrollY, defaultScrollStep)
	}

	s = stateOf(t, run(t, file, "scroll", "SCROLL_UP", map[string]any{"scroll_step": 250}))
	if s.ScrollY != 0 {
		t.Errorf("ScrollY = %d, want clamp at 0", s.ScrollY)
	}

	stateOf(t, run(t, file, "custom", "CUSTOM", map[string]any{"screen": "camera"}))
	s = stateOf(t, run(t, file, "custom", "CUSTOM", map[string]any{"screen": "gallery"}))
	want := State{Screen: "gallery", History: []string{"home", "camera"}, CustomCount: 2}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}

	s = stateOf(t, run(t, file, "back", "GO_BACK", nil))
	if s.Screen != "camera" {
		t.Errorf("Screen = %q after back, want camera", s.Screen)
	}

	s = stateOf(t, run(t, file, "home", "GO_HOME", nil))
	want = State{Screen: "home", History: []string{"home", "camera"}, CustomCount: 2}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestHandle_Errors(t *testing.T) {
	file := filepath.Join(t.TempDir(), "state.json")

	tests := []struct {
		name string
		resp Response
		want string
	}{
		{"unknown action", run(t, file, "fly", "CUSTOM", nil), "unknown action: fly"},
		{"back with empty history", run(t, file, "back", "GO_BACK", nil), "no previous screen"},
		{"invalid request", handle(strings.NewReader("{")), "failed to decode request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.resp.Success {
				t.Fatal("expected failure")
			}
			if !strings.Contains(tt.resp.Error, tt.want) {
				t.Errorf("Error = %q, want it to contain %q", tt.resp.Error, tt.want)
			}
		})
	}
}
