package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/gestureos/internal/app"
	"github.com/ayusman/gestureos/internal/detector"
	"github.com/ayusman/gestureos/internal/gesture"
	"github.com/ayusman/gestureos/internal/logging"
	"github.com/ayusman/gestureos/internal/metrics"
	"github.com/ayusman/gestureos/internal/plugin"
	"github.com/ayusman/gestureos/internal/store"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fistAt(ms int) detector.DetectionResult {
	ts := epoch.Add(time.Duration(ms) * time.Millisecond)
	h := detector.ClosedFistLandmarks()
	h.Timestamp = ts
	return detector.DetectionResult{Hands: []detector.HandFrame{h}, Timestamp: ts}
}

func fistLandmarks(t *testing.T) []detector.Landmark {
	t.Helper()
	h := detector.ClosedFistLandmarks()
	pose, err := h.Normalize()
	require.NoError(t, err)
	return pose.Landmarks()
}

type fixture struct {
	store      *store.Store
	controller *app.Controller
	plugins    *plugin.Manager
	server     *Server
	http       *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	st, err := store.New(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	pluginDir := filepath.Join(dir, "plugins", "device-sim")
	require.NoError(t, os.MkdirAll(pluginDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pluginDir, "plugin.json"), []byte(`{
		"name": "device-sim",
		"version": "1.0.0",
		"executable": "device-sim",
		"actions": ["scroll", "back", "home", "custom"]
	}`), 0o644))
	plugins := plugin.NewManager(filepath.Join(dir, "plugins"), logging.Discard())
	require.NoError(t, plugins.Discover())

	rec := gesture.NewRecognizer(gesture.DefaultConfig(), gesture.WithLogger(logging.Discard()))
	controller := app.NewController(rec, st.Settings(), logging.Discard())

	srv := New(Config{
		Store:      st,
		Controller: controller,
		Plugins:    plugins,
		Metrics:    metrics.NewRecorder().Handler(),
		Logger:     logging.Discard(),
	})
	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})

	return &fixture{store: st, controller: controller, plugins: plugins, server: srv, http: ts}
}

func (f *fixture) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	var r *bytes.Reader
	if body != "" {
		r = bytes.NewReader([]byte(body))
	} else {
		r = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, f.http.URL+path, r)
	require.NoError(t, err)
	resp, err := f.http.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestServer_Health(t *testing.T) {
	s := New(Config{Logger: logging.Discard()})

	t.Run("returns 200 with JSON response", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var response map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, "ok", response["status"])
		assert.Contains(t, response, "uptime")
	})

	t.Run("only allows GET method", func(t *testing.T) {
		for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, httptest.NewRequest(method, "/api/health", nil))
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, method)
		}
	})
}

func TestServer_UnconfiguredRoutes(t *testing.T) {
	s := New(Config{Logger: logging.Discard()})

	for _, path := range []string{"/", "/api/session", "/api/bindings", "/api/events", "/metrics", "/api/nonexistent"} {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
	assert.Nil(t, s.Stream())
}

func TestServer_StaticFiles(t *testing.T) {
	dir := t.TempDir()
	const index = "<html><body>GestureOS</body></html>"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte(index), 0o644))

	s := New(Config{StaticDir: dir, Logger: logging.Discard()})

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, index, rec.Body.String())

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing.css", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_SessionToggleAndTraining(t *testing.T) {
	f := newFixture(t)

	var st app.Status
	decode(t, f.do(t, http.MethodGet, "/api/session", ""), &st)
	assert.True(t, st.Enabled)
	assert.False(t, st.Training)
	assert.Equal(t, gesture.PhaseIdle, st.Phase)

	resp := f.do(t, http.MethodPut, "/api/session", `{"enabled": false}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &st)
	assert.False(t, st.Enabled)

	enabled, err := f.store.Settings().Bool(store.SettingEnabled, true)
	require.NoError(t, err)
	assert.False(t, enabled, "toggle is persisted")

	resp = f.do(t, http.MethodPut, "/api/session", `{"training": true}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "training needs recognition enabled")

	resp = f.do(t, http.MethodPut, "/api/session", `{"enabled": true, "training": true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &st)
	assert.True(t, st.Enabled)
	assert.True(t, st.Training)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPut, "/api/session", `{}`).StatusCode)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPut, "/api/session", `{bad`).StatusCode)
	assert.Equal(t, http.StatusMethodNotAllowed, f.do(t, http.MethodPost, "/api/session", `{}`).StatusCode)
}

func TestAPI_Template(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/template", "").StatusCode)

	body, err := json.Marshal(map[string]any{"landmarks": fistLandmarks(t)})
	require.NoError(t, err)
	resp := f.do(t, http.MethodPut, "/api/template", string(body))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		Landmarks []detector.Landmark `json:"landmarks"`
	}
	decode(t, f.do(t, http.MethodGet, "/api/template", ""), &got)
	assert.Equal(t, fistLandmarks(t), got.Landmarks)
	assert.True(t, f.controller.Status().HasTemplate)

	resp = f.do(t, http.MethodPut, "/api/template", `{"landmarks": [{"x": 0, "y": 0, "z": 0}]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "wrong landmark count is rejected")

	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/api/template", "").StatusCode)
	assert.False(t, f.controller.Status().HasTemplate)
}

func TestAPI_BindingWorkflow(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/api/bindings",
		`{"gesture": "SCROLL_UP", "plugin_name": "device-sim", "action_name": "scroll", "config": {"state_file": "/tmp/s.json"}}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		ID      string          `json:"id"`
		Gesture string          `json:"gesture"`
		Config  json.RawMessage `json:"config"`
		Enabled bool            `json:"enabled"`
	}
	decode(t, resp, &created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "SCROLL_UP", created.Gesture)
	assert.True(t, created.Enabled)
	assert.JSONEq(t, `{"state_file": "/tmp/s.json"}`, string(created.Config))

	var listed struct {
		Bindings []struct {
			ID string `json:"id"`
		} `json:"bindings"`
	}
	decode(t, f.do(t, http.MethodGet, "/api/bindings", ""), &listed)
	require.Len(t, listed.Bindings, 1)
	assert.Equal(t, created.ID, listed.Bindings[0].ID)

	resp = f.do(t, http.MethodPut, "/api/bindings/"+created.ID, `{"enabled": false}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	active, err := f.store.Bindings().ForGesture(gesture.ScrollUp)
	require.NoError(t, err)
	assert.Empty(t, active, "disabled binding is not dispatched")

	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/api/bindings/"+created.ID, "").StatusCode)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/bindings/"+created.ID, "").StatusCode)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodDelete, "/api/bindings/"+created.ID, "").StatusCode)
}

func TestAPI_BindingValidation(t *testing.T) {
	f := newFixture(t)

	cases := map[string]string{
		"unknown gesture":    `{"gesture": "WAVE", "plugin_name": "device-sim", "action_name": "scroll"}`,
		"none gesture":       `{"gesture": "NONE", "plugin_name": "device-sim", "action_name": "scroll"}`,
		"missing plugin":     `{"gesture": "GO_BACK", "action_name": "back"}`,
		"missing action":     `{"gesture": "GO_BACK", "plugin_name": "device-sim"}`,
		"unknown plugin":     `{"gesture": "GO_BACK", "plugin_name": "ghost", "action_name": "back"}`,
		"unsupported action": `{"gesture": "GO_BACK", "plugin_name": "device-sim", "action_name": "fly"}`,
		"invalid json":       `{"gesture": `,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp := f.do(t, http.MethodPost, "/api/bindings", body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestAPI_Events(t *testing.T) {
	f := newFixture(t)

	for i, typ := range []gesture.Type{gesture.ScrollUp, gesture.GoBack, gesture.Custom} {
		_, err := f.store.Events().Append("s1", gesture.Event{
			Type:       typ,
			Timestamp:  epoch.Add(time.Duration(i) * time.Second),
			Confidence: 0.5,
		})
		require.NoError(t, err)
	}

	var got struct {
		Events []struct {
			Gesture   string `json:"gesture"`
			SessionID string `json:"session_id"`
		} `json:"events"`
	}
	decode(t, f.do(t, http.MethodGet, "/api/events?limit=2", ""), &got)
	require.Len(t, got.Events, 2)
	assert.Equal(t, "CUSTOM", got.Events[0].Gesture, "newest first")
	assert.Equal(t, "GO_BACK", got.Events[1].Gesture)
	assert.Equal(t, "s1", got.Events[0].SessionID)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/events?limit=zero", "").StatusCode)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/events?limit=-1", "").StatusCode)
}

func TestAPI_Plugins(t *testing.T) {
	f := newFixture(t)

	var got struct {
		Plugins []struct {
			Name    string   `json:"name"`
			Actions []string `json:"actions"`
		} `json:"plugins"`
	}
	decode(t, f.do(t, http.MethodGet, "/api/plugins", ""), &got)
	require.Len(t, got.Plugins, 1)
	assert.Equal(t, "device-sim", got.Plugins[0].Name)
	assert.ElementsMatch(t, []string{"scroll", "back", "home", "custom"}, got.Plugins[0].Actions)
}

func TestAPI_Metrics(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "gestureos_pipeline_enabled")
}

func TestEventStream_DeliversEvents(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.controller.SetTemplate(fistLandmarks(t)))

	url := "ws" + strings.TrimPrefix(f.http.URL, "http") + "/api/events/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() app.Update {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
		var u app.Update
		require.NoError(t, conn.ReadJSON(&u))
		return u
	}

	first := read()
	require.Equal(t, app.UpdateStatus, first.Kind, "a new client starts with the current status")
	require.NotNil(t, first.Status)
	assert.True(t, first.Status.HasTemplate)

	require.Eventually(t, func() bool { return f.server.Stream().Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	for _, ms := range []int{0, 33, 66} {
		f.controller.Process(fistAt(ms))
	}

	ev := read()
	require.Equal(t, app.UpdateEvent, ev.Kind)
	require.NotNil(t, ev.Event)
	assert.Equal(t, gesture.Custom, ev.Event.Type)
	assert.InDelta(t, 1.0, ev.Event.Confidence, 1e-9)

	conn.Close()
	require.Eventually(t, func() bool { return f.server.Stream().Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}
