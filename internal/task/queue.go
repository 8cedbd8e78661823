package task

import (
	"log/slog"
	"sync"

	"github.com/copilot-bot/copilot/internal/game"
)

// Queue is the ordered list of planned tasks. The planner adds and prunes, the executor peeks the
// head and removes it once done, the status server reads snapshots from its own goroutine. Every
// operation holds the same mutex and none of them panics on an empty queue.
type Queue struct {
	mu     sync.Mutex
	nodes  []*Node
	logger *slog.Logger
}

func NewQueue(logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{logger: logger}
}

// Add appends n. Transition-class tasks go through the same check as AddTransition.
func (q *Queue) Add(n *Node) bool {
	if n == nil {
		return false
	}
	if n.Type().IsTransitionClass() {
		return q.AddTransition(n)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.nodes = append(q.nodes, n)
	return true
}

// AddTransition appends n unless a transition-class task is already queued.
func (q *Queue) AddTransition(n *Node) bool {
	if n == nil {
		return false
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	for _, existing := range q.nodes {
		if existing.Type().IsTransitionClass() {
			q.logger.Warn("Refusing to queue a second transition task",
				slog.String("queued", existing.Type().String()),
				slog.String("refused", n.Type().String()),
			)
			return false
		}
	}
	q.nodes = append(q.nodes, n)
	return true
}

func (q *Queue) RemoveFirst() (*Node, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.nodes) == 0 {
		return nil, false
	}
	n := q.nodes[0]
	q.nodes[0] = nil
	q.nodes = q.nodes[1:]
	return n, true
}

func (q *Queue) First() (*Node, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.nodes) == 0 {
		return nil, false
	}
	return q.nodes[0], true
}

func (q *Queue) Last() (*Node, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.nodes) == 0 {
		return nil, false
	}
	return q.nodes[len(q.nodes)-1], true
}

func (q *Queue) Remove(n *Node) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	i := q.indexOf(n)
	if i < 0 {
		return false
	}
	last := len(q.nodes) - 1
	copy(q.nodes[i:], q.nodes[i+1:])
	q.nodes[last] = nil
	q.nodes = q.nodes[:last]
	return true
}

// Replace swaps old for n keeping its position in the queue.
func (q *Queue) Replace(old, n *Node) bool {
	if n == nil {
		return false
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	i := q.indexOf(old)
	if i < 0 {
		return false
	}
	q.nodes[i] = n
	return true
}

func (q *Queue) Contains(n *Node) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.indexOf(n) >= 0
}

// RemoveWhere drops every task matching pred and returns how many were removed.
func (q *Queue) RemoveWhere(pred func(n *Node) bool) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	kept := q.nodes[:0]
	removed := 0
	for _, n := range q.nodes {
		if pred(n) {
			removed++
			continue
		}
		kept = append(kept, n)
	}
	for i := len(kept); i < len(q.nodes); i++ {
		q.nodes[i] = nil
	}
	q.nodes = kept
	return removed
}

func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.nodes = nil
}

// ClearPreservingTransitions removes every task except the transition-class ones, which keep
// their relative order.
func (q *Queue) ClearPreservingTransitions() int {
	return q.RemoveWhere(func(n *Node) bool {
		return !n.Type().IsTransitionClass()
	})
}

// IncrementAttempts records a failed execution of n and returns the new count.
func (q *Queue) IncrementAttempts(n *Node) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n.AttemptCount++
	return n.AttemptCount
}

func (q *Queue) Count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.nodes)
}

// Snapshot returns copies of the queued tasks, safe to read while the queue keeps changing.
func (q *Queue) Snapshot() []Node {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Node, len(q.nodes))
	for i, n := range q.nodes {
		out[i] = *n
		if n.Label != nil {
			label := *n.Label
			out[i].Label = &label
		}
	}
	return out
}

func (q *Queue) HasTransition() bool {
	return q.HasAny(Transition, TeleportConfirm, TeleportButton)
}

func (q *Queue) HasAny(types ...Type) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, n := range q.nodes {
		for _, t := range types {
			if n.Type() == t {
				return true
			}
		}
	}
	return false
}

// PathLength is the length of the walk from `from` through every positional task in order.
func (q *Queue) PathLength(from game.Vector3) float64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	length := 0.0
	prev := from
	for _, n := range q.nodes {
		if !n.Type().IsPositional() {
			continue
		}
		length += prev.Distance(n.WorldPosition)
		prev = n.WorldPosition
	}
	return length
}

func (q *Queue) indexOf(n *Node) int {
	if n == nil {
		return -1
	}
	for i, existing := range q.nodes {
		if existing == n {
			return i
		}
	}
	return -1
}
