package context

import (
	"sync/atomic"
	"time"
)

// SharedState is the state the planner and the executor share across ticks. Each field has a
// single writer:
//   - teleport in progress: set by the planner when it queues a TeleportButton task, cleared by
//     the executor when that task ends
//   - last action: written by the executor after every input, last writer wins
//   - last dash: written by the executor when the dash key is pressed
type SharedState struct {
	teleportInProgress atomic.Bool
	lastAction         atomic.Int64
	lastDash           atomic.Int64
}

func (s *SharedState) IsTeleportInProgress() bool {
	return s.teleportInProgress.Load()
}

func (s *SharedState) SetTeleportInProgress() {
	s.teleportInProgress.Store(true)
}

func (s *SharedState) ClearTeleportInProgress() {
	s.teleportInProgress.Store(false)
}

func (s *SharedState) MarkAction(t time.Time) {
	s.lastAction.Store(t.UnixNano())
}

func (s *SharedState) LastAction() time.Time {
	return unixNano(s.lastAction.Load())
}

func (s *SharedState) MarkDash(t time.Time) {
	s.lastDash.Store(t.UnixNano())
}

func (s *SharedState) LastDash() time.Time {
	return unixNano(s.lastDash.Load())
}

func unixNano(v int64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.Unix(0, v)
}
