// Package tray provides a system tray menu for controlling GestureOS.
package tray

import (
	"log/slog"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/gestureos/internal/app"
)

// Controller is what the tray drives. *app.Controller implements it.
type Controller interface {
	Status() app.Status
	SetEnabled(enabled bool) error
	SetTraining(training bool)
	Subscribe(l app.Listener) func()
}

// Tray mirrors the controller state in the menu bar.
type Tray struct {
	controller Controller
	logger     *slog.Logger

	mu         sync.RWMutex
	onSettings func()
	onQuit     func()
	status     app.Status

	unsubscribe func()

	menuToggle      *systray.MenuItem
	menuLearn       *systray.MenuItem
	menuLastGesture *systray.MenuItem
}

// New creates a Tray for controller.
func New(controller Controller, logger *slog.Logger) *Tray {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tray{
		controller: controller,
		logger:     logger.With("component", "tray"),
		status:     controller.Status(),
	}
}

// OnSettings sets the callback for the settings menu item.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback for the quit menu item.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the tray. It blocks until Quit is called and must run on the
// main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit tears the tray down from any goroutine.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("GestureOS")
	systray.SetTooltip("GestureOS hand gesture control")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.status.Enabled), "Toggle gesture recognition")
	t.menuLearn = systray.AddMenuItem(learnTitle(t.status.Training), "Learn a custom gesture")
	systray.AddSeparator()
	t.menuLastGesture = systray.AddMenuItem(lastGestureTitle(t.status.LastEvent), "Last detected gesture")
	t.menuLastGesture.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit GestureOS")

	t.unsubscribe = t.controller.Subscribe(t.apply)

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-t.menuLearn.ClickedCh:
				t.handleLearn()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {
	if t.unsubscribe != nil {
		t.unsubscribe()
	}
}

// apply refreshes the menu from a controller update.
func (t *Tray) apply(u app.Update) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch u.Kind {
	case app.UpdateStatus:
		if u.Status != nil {
			t.status = *u.Status
		}
	case app.UpdateEvent:
		if u.Event != nil {
			ev := *u.Event
			t.status.LastEvent = &ev
		}
	default:
		return
	}

	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(t.status.Enabled))
	}
	if t.menuLearn != nil {
		t.menuLearn.SetTitle(learnTitle(t.status.Training))
	}
	if t.menuLastGesture != nil {
		t.menuLastGesture.SetTitle(lastGestureTitle(t.status.LastEvent))
	}
}

func (t *Tray) handleToggle() {
	t.mu.RLock()
	enabled := !t.status.Enabled
	t.mu.RUnlock()

	if err := t.controller.SetEnabled(enabled); err != nil {
		t.logger.Warn("failed to toggle recognition", "err", err)
	}
}

// handleLearn starts training, enabling recognition first if needed, or
// cancels a capture in progress.
func (t *Tray) handleLearn() {
	t.mu.RLock()
	st := t.status
	t.mu.RUnlock()

	if st.Training {
		t.controller.SetTraining(false)
		return
	}
	if !st.Enabled {
		if err := t.controller.SetEnabled(true); err != nil {
			t.logger.Warn("failed to enable recognition", "err", err)
			return
		}
	}
	t.controller.SetTraining(true)
}

func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// Status returns the state the menu currently shows.
func (t *Tray) Status() app.Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}
