// Package plugin discovers and runs action plugins. A plugin is a directory
// holding a plugin.json manifest and an executable that reads one Request
// as JSON on stdin and writes one Response as JSON on stdout.
package plugin

import "encoding/json"

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Actions      []string        `json:"actions"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Supports reports whether the manifest lists action. A manifest without an
// action list accepts any action.
func (m Manifest) Supports(action string) bool {
	if len(m.Actions) == 0 {
		return true
	}
	for _, a := range m.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Request is sent to a plugin for one recognized gesture.
type Request struct {
	Action      string          `json:"action"`
	Gesture     string          `json:"gesture"`
	Confidence  float64         `json:"confidence"`
	TimestampMs int64           `json:"timestamp_ms"`
	SessionID   string          `json:"session_id,omitempty"`
	Config      json.RawMessage `json:"config,omitempty"`
	Params      json.RawMessage `json:"params,omitempty"`
}

// Response is the result of a plugin execution.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin is a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
