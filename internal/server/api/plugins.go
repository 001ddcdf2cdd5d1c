package api

import (
	"net/http"

	"github.com/ayusman/gestureos/internal/plugin"
)

// PluginLister lists discovered plugins. *plugin.Manager implements it.
type PluginLister interface {
	List() []*plugin.Plugin
}

// PluginsHandler serves GET /api/plugins so clients can pick a binding
// target.
type PluginsHandler struct {
	plugins PluginLister
}

// NewPluginsHandler creates a PluginsHandler.
func NewPluginsHandler(plugins PluginLister) *PluginsHandler {
	return &PluginsHandler{plugins: plugins}
}

type pluginResponse struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Actions     []string `json:"actions"`
}

type listPluginsResponse struct {
	Plugins []pluginResponse `json:"plugins"`
}

func (h *PluginsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	plugins := h.plugins.List()
	response := listPluginsResponse{Plugins: make([]pluginResponse, 0, len(plugins))}
	for _, p := range plugins {
		actions := p.Manifest.Actions
		if actions == nil {
			actions = []string{}
		}
		response.Plugins = append(response.Plugins, pluginResponse{
			Name:        p.Manifest.Name,
			Version:     p.Manifest.Version,
			Description: p.Manifest.Description,
			Actions:     actions,
		})
	}

	writeJSON(w, http.StatusOK, response)
}
