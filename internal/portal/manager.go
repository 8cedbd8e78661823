package portal

import (
	"sync/atomic"
	"time"
)

// Manager holds the portal transition flag. It's latched by the planner when the leader jumps
// far away in a single tick and cleared by the planner once the bot is close to the leader again.
type Manager struct {
	active atomic.Bool
	since  atomic.Int64
}

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) IsInTransition() bool {
	return m.active.Load()
}

// Enter latches the flag and reports whether it was not set before.
func (m *Manager) Enter(at time.Time) bool {
	if m.active.CompareAndSwap(false, true) {
		m.since.Store(at.UnixNano())
		return true
	}
	return false
}

// Recover clears the flag and reports whether it was set.
func (m *Manager) Recover() bool {
	if m.active.CompareAndSwap(true, false) {
		m.since.Store(0)
		return true
	}
	return false
}

// Since returns when the current transition started, the zero time when there is none.
func (m *Manager) Since() time.Time {
	v := m.since.Load()
	if v == 0 {
		return time.Time{}
	}
	return time.Unix(0, v)
}
