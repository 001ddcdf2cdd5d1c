package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/gestureos/internal/gesture"
)

// newTestStore creates a Store in a temporary directory.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	_, err := os.Stat(dbPath)
	require.True(t, os.IsNotExist(err), "database file should not exist before creating store")

	s, err := New(dbPath)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "database file should exist after creating store")
	assert.Equal(t, dbPath, s.Path())
}

func TestNewStore_RunsMigrations(t *testing.T) {
	s := newTestStore(t)

	for _, table := range []string{"bindings", "events", "settings"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		assert.NoError(t, err, "table %q should exist after migrations", table)
	}

	for _, idx := range []string{"idx_bindings_gesture", "idx_events_occurred_at"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='index' AND name=?",
			idx,
		).Scan(&name)
		assert.NoError(t, err, "index %q should exist after migrations", idx)
	}
}

func TestNewStore_ReopenIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := New(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Bindings().Create(&Binding{Gesture: gesture.GoHome, PluginName: "p", ActionName: "a", Enabled: true}))
	require.NoError(t, s.Close())

	s, err = New(dbPath)
	require.NoError(t, err)
	defer s.Close()

	list, err := s.Bindings().List()
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestStore_Close(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	require.NoError(t, s.Close())

	_, err = s.DB().Exec("SELECT 1")
	assert.Error(t, err, "DB operations should fail after close")
}

func TestBindingRepository_CRUD(t *testing.T) {
	repo := newTestStore(t).Bindings()

	b := &Binding{
		Gesture:    gesture.ScrollUp,
		PluginName: "device-sim",
		ActionName: "scroll",
		Config:     json.RawMessage(`{"direction":"up"}`),
		Enabled:    true,
	}
	require.NoError(t, repo.Create(b))
	assert.NotEmpty(t, b.ID, "Create should assign an ID")
	assert.False(t, b.CreatedAt.IsZero())

	got, err := repo.GetByID(b.ID)
	require.NoError(t, err)
	assert.Equal(t, gesture.ScrollUp, got.Gesture)
	assert.Equal(t, "device-sim", got.PluginName)
	assert.Equal(t, "scroll", got.ActionName)
	assert.JSONEq(t, `{"direction":"up"}`, string(got.Config))
	assert.True(t, got.Enabled)

	got.ActionName = "scroll-fast"
	got.Enabled = false
	require.NoError(t, repo.Update(got))

	updated, err := repo.GetByID(b.ID)
	require.NoError(t, err)
	assert.Equal(t, "scroll-fast", updated.ActionName)
	assert.False(t, updated.Enabled)

	require.NoError(t, repo.Delete(b.ID))
	_, err = repo.GetByID(b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBindingRepository_NotFound(t *testing.T) {
	repo := newTestStore(t).Bindings()

	_, err := repo.GetByID("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Update(&Binding{ID: "missing", Gesture: gesture.GoBack}), ErrNotFound)
	assert.ErrorIs(t, repo.Delete("missing"), ErrNotFound)
}

func TestBindingRepository_RejectsUnknownGesture(t *testing.T) {
	repo := newTestStore(t).Bindings()

	err := repo.Create(&Binding{Gesture: gesture.None, PluginName: "p", ActionName: "a"})
	assert.Error(t, err)
}

func TestBindingRepository_ForGesture(t *testing.T) {
	repo := newTestStore(t).Bindings()

	require.NoError(t, repo.Create(&Binding{Gesture: gesture.Custom, PluginName: "device-sim", ActionName: "custom", Enabled: true}))
	require.NoError(t, repo.Create(&Binding{Gesture: gesture.Custom, PluginName: "keyboard", ActionName: "press", Enabled: false}))
	require.NoError(t, repo.Create(&Binding{Gesture: gesture.GoHome, PluginName: "device-sim", ActionName: "home", Enabled: true}))

	custom, err := repo.ForGesture(gesture.Custom)
	require.NoError(t, err)
	require.Len(t, custom, 1, "disabled bindings must not be returned")
	assert.Equal(t, "custom", custom[0].ActionName)

	none, err := repo.ForGesture(gesture.ScrollDown)
	require.NoError(t, err)
	assert.Empty(t, none)

	all, err := repo.List()
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestEventRepository(t *testing.T) {
	repo := newTestStore(t).Events()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, typ := range []gesture.Type{gesture.ScrollUp, gesture.GoBack, gesture.Custom, gesture.GoHome} {
		rec, err := repo.Append("session-1", gesture.Event{
			Type:       typ,
			Timestamp:  base.Add(time.Duration(i) * time.Second),
			Confidence: 0.5,
		})
		require.NoError(t, err)
		assert.NotZero(t, rec.ID)
	}

	recent, err := repo.Recent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, gesture.GoHome, recent[0].Gesture)
	assert.Equal(t, gesture.Custom, recent[1].Gesture)
	assert.True(t, recent[0].OccurredAt.Equal(base.Add(3*time.Second)))
	assert.Equal(t, "session-1", recent[0].SessionID)

	empty, err := repo.Recent(0)
	require.NoError(t, err)
	assert.Empty(t, empty)

	removed, err := repo.Prune(1)
	require.NoError(t, err)
	assert.EqualValues(t, 3, removed)

	rest, err := repo.Recent(10)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, gesture.GoHome, rest[0].Gesture)
}

func TestSettingsRepository(t *testing.T) {
	repo := newTestStore(t).Settings()

	_, err := repo.Get(SettingEnabled)
	assert.ErrorIs(t, err, ErrNotFound)

	v, err := repo.Bool(SettingEnabled, true)
	require.NoError(t, err)
	assert.True(t, v, "unset setting falls back to the default")

	require.NoError(t, repo.SetBool(SettingEnabled, false))
	v, err = repo.Bool(SettingEnabled, true)
	require.NoError(t, err)
	assert.False(t, v)

	require.NoError(t, repo.Set(SettingEnabled, "true"))
	raw, err := repo.Get(SettingEnabled)
	require.NoError(t, err)
	assert.Equal(t, "true", raw)
}
