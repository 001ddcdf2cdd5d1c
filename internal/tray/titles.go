package tray

import "github.com/ayusman/gestureos/internal/gesture"

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func learnTitle(training bool) string {
	if training {
		return "Cancel Learning"
	}
	return "Learn Gesture..."
}

func lastGestureTitle(ev *gesture.Event) string {
	if ev == nil {
		return "Last: none"
	}
	return "Last: " + string(ev.Type)
}
