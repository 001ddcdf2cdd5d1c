package gesture

import (
	"fmt"
	"time"
)

// Phase is the state of the gesture Machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCandidate
	PhaseConfirmed
	PhaseCooldown
)

var phaseNames = [...]string{"idle", "candidate", "confirmed", "cooldown"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Phase) UnmarshalText(text []byte) error {
	for i, name := range phaseNames {
		if name == string(text) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// Machine debounces candidates into edge-triggered events.
//
//	IDLE      -> CANDIDATE  non-NONE candidate, type latched
//	CANDIDATE -> CANDIDATE  same type, count++
//	CANDIDATE -> IDLE       type changed or NONE, nothing emitted
//	CANDIDATE -> CONFIRMED  count reached confirmFrames, event emitted
//	CONFIRMED -> COOLDOWN   immediately
//	COOLDOWN  -> IDLE       cooldown elapsed on frame time
//
// A type that has just fired stays held until one frame proposes something
// else, so a pose kept in view emits once rather than once per cooldown.
type Machine struct {
	confirmFrames int
	cooldown      time.Duration

	phase         Phase
	latched       Type
	count         int
	cooldownStart time.Time
	held          Type
}

// NewMachine creates an idle Machine from the pipeline config.
func NewMachine(cfg Config) *Machine {
	confirm := cfg.ConfirmFrames
	if confirm < 1 {
		confirm = 1
	}
	return &Machine{
		confirmFrames: confirm,
		cooldown:      cfg.Cooldown,
		latched:       None,
		held:          None,
	}
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	return m.phase
}

// Latched returns the candidate type being confirmed, or None.
func (m *Machine) Latched() Type {
	return m.latched
}

// Count returns how many consecutive frames the latched type has persisted.
func (m *Machine) Count() int {
	return m.count
}

// Step advances the machine by one frame taken at now. It returns the event
// and true only on the frame that confirms a gesture.
func (m *Machine) Step(c Candidate, now time.Time) (Event, bool) {
	if m.held != None && c.Type != m.held {
		m.held = None
	}

	if m.phase == PhaseCooldown {
		if now.Sub(m.cooldownStart) < m.cooldown {
			return Event{}, false
		}
		m.toIdle()
	}

	switch m.phase {
	case PhaseIdle:
		if c.Type == None || c.Type == m.held {
			return Event{}, false
		}
		m.phase = PhaseCandidate
		m.latched = c.Type
		m.count = 1

	case PhaseCandidate:
		if c.Type != m.latched {
			m.toIdle()
			return Event{}, false
		}
		m.count++
	}

	if m.count < m.confirmFrames {
		return Event{}, false
	}

	// CONFIRMED lasts no longer than this frame.
	ev := Event{Type: m.latched, Timestamp: now, Confidence: c.Confidence}

	m.phase = PhaseCooldown
	m.cooldownStart = now
	m.held = m.latched
	m.latched = None
	m.count = 0
	return ev, true
}

// Interrupt discards partial confirmation progress. Cooldown is kept.
func (m *Machine) Interrupt() {
	if m.phase == PhaseCandidate {
		m.toIdle()
	}
}

// Hold keeps t from latching until a frame proposes another type.
// Progress already made towards t is dropped.
func (m *Machine) Hold(t Type) {
	if t == None {
		return
	}
	m.held = t
	if m.phase == PhaseCandidate && m.latched == t {
		m.toIdle()
	}
}

// Held returns the type waiting for a release, or None.
func (m *Machine) Held() Type {
	return m.held
}

// Reset returns the machine to IDLE, dropping any cooldown and hold.
func (m *Machine) Reset() {
	m.toIdle()
	m.cooldownStart = time.Time{}
	m.held = None
}

func (m *Machine) toIdle() {
	m.phase = PhaseIdle
	m.latched = None
	m.count = 0
}
