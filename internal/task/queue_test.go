package task

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/copilot-bot/copilot/internal/game"
)

func newTestQueue() *Queue {
	return NewQueue(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestEmptyQueue(t *testing.T) {
	q := newTestQueue()

	if n, ok := q.RemoveFirst(); ok || n != nil {
		t.Errorf("RemoveFirst on empty queue should return nothing")
	}
	if _, ok := q.First(); ok {
		t.Errorf("First on empty queue should return nothing")
	}
	if _, ok := q.Last(); ok {
		t.Errorf("Last on empty queue should return nothing")
	}
	if q.Remove(NewMovement(game.Vector3{}, 10)) {
		t.Errorf("Remove of an unknown task should fail")
	}
	if q.ClearPreservingTransitions() != 0 || q.Count() != 0 || len(q.Snapshot()) != 0 {
		t.Errorf("expected empty queue")
	}
	if q.PathLength(game.Vector3{}) != 0 {
		t.Errorf("expected zero path length")
	}
	q.Clear()
}

func TestRemoveReleasesTheSlot(t *testing.T) {
	q := newTestQueue()
	a := NewMovement(game.Vector3{X: 1}, 10)
	b := NewMovement(game.Vector3{X: 2}, 10)
	c := NewMovement(game.Vector3{X: 3}, 10)
	q.Add(a)
	q.Add(b)
	q.Add(c)

	if !q.Remove(b) {
		t.Fatalf("expected remove to succeed")
	}
	snapshot := q.Snapshot()
	if len(snapshot) != 2 || snapshot[0].ID != a.ID || snapshot[1].ID != c.ID {
		t.Fatalf("expected a and c to stay in order")
	}
	if tail := q.nodes[:3]; tail[2] != nil {
		t.Errorf("the vacated slot still references a task")
	}
}

func TestQueueOrder(t *testing.T) {
	q := newTestQueue()
	a := NewMovement(game.Vector3{X: 1}, 10)
	b := NewDash(game.Vector3{X: 2})
	c := NewMovement(game.Vector3{X: 3}, 10)
	q.Add(a)
	q.Add(b)
	q.Add(c)

	if first, _ := q.First(); first != a {
		t.Errorf("expected a to be first")
	}
	if last, _ := q.Last(); last != c {
		t.Errorf("expected c to be last")
	}

	replacement := b.AsMovement(10)
	if !q.Replace(b, replacement) {
		t.Fatalf("expected replace to succeed")
	}
	snapshot := q.Snapshot()
	if snapshot[1].ID != replacement.ID || snapshot[1].Type() != Movement {
		t.Errorf("replacement should keep the position of the replaced task")
	}
	if q.Contains(b) {
		t.Errorf("replaced task should not be queued anymore")
	}

	first, ok := q.RemoveFirst()
	if !ok || first != a {
		t.Errorf("expected RemoveFirst to return a")
	}
	if q.Count() != 2 {
		t.Errorf("expected 2 tasks left, got %d", q.Count())
	}
}

func TestAddTransitionRefusesDuplicates(t *testing.T) {
	q := newTestQueue()
	label := game.GroundLabel{ID: 7, Text: "Portal"}

	if !q.AddTransition(NewTransition(label)) {
		t.Fatalf("expected first transition to be queued")
	}
	if q.AddTransition(NewTeleportButton(game.Point{X: 10, Y: 10})) {
		t.Errorf("second transition-class task should be refused")
	}
	if q.Add(NewTeleportConfirm(game.Point{X: 10, Y: 10})) {
		t.Errorf("Add should apply the same guard to transition-class tasks")
	}
	if !q.Add(NewMovement(game.Vector3{}, 10)) {
		t.Errorf("movement tasks should still be accepted")
	}
	if q.Count() != 2 {
		t.Errorf("expected 2 tasks, got %d", q.Count())
	}
}

func TestClearPreservingTransitions(t *testing.T) {
	tests := []struct {
		name  string
		build func() []*Node
	}{
		{
			name: "transition in the middle",
			build: func() []*Node {
				return []*Node{
					NewMovement(game.Vector3{X: 1}, 10),
					NewDash(game.Vector3{X: 2}),
					NewTransition(game.GroundLabel{ID: 1}),
					NewMovement(game.Vector3{X: 3}, 10),
					NewClaimWaypoint(game.Vector3{X: 4}, 10),
				}
			},
		},
		{
			name: "teleport button first",
			build: func() []*Node {
				return []*Node{
					NewTeleportButton(game.Point{X: 1}),
					NewDash(game.Vector3{X: 2}),
					NewTeleportConfirm(game.Point{X: 2}),
				}
			},
		},
		{
			name: "no transitions",
			build: func() []*Node {
				return []*Node{NewMovement(game.Vector3{}, 10), NewDash(game.Vector3{})}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := newTestQueue()
			nodes := tt.build()
			// bypass the guard so the queue can hold several transition-class tasks
			q.nodes = append(q.nodes, nodes...)

			var want []*Node
			for _, n := range q.nodes {
				if n.Type().IsTransitionClass() {
					want = append(want, n)
				}
			}
			total := len(q.nodes)

			removed := q.ClearPreservingTransitions()
			if removed != total-len(want) {
				t.Errorf("expected %d removed, got %d", total-len(want), removed)
			}
			got := q.Snapshot()
			if len(got) != len(want) {
				t.Fatalf("expected %d tasks, got %d", len(want), len(got))
			}
			for i := range want {
				if got[i].ID != want[i].ID {
					t.Errorf("task %d: expected %s, got %s", i, want[i].Type(), got[i].Type())
				}
			}
		})
	}
}

func TestQueueConcurrentAccess(t *testing.T) {
	q := newTestQueue()
	const writers, perWriter = 8, 500

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				q.Add(NewMovement(game.Vector3{X: float64(i)}, 10))
			}
		}()
	}

	removed := make(chan int, writers)
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n := 0
			for i := 0; i < perWriter/2; i++ {
				if _, ok := q.RemoveFirst(); ok {
					n++
				}
			}
			removed <- n
		}()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			for _, n := range q.Snapshot() {
				if n.Type() != Movement || n.ID.String() == "" {
					t.Errorf("torn snapshot entry")
					return
				}
			}
		}
	}()

	wg.Wait()
	<-done
	close(removed)
	total := 0
	for n := range removed {
		total += n
	}

	if got := q.Count(); got != writers*perWriter-total {
		t.Errorf("expected %d tasks left, got %d", writers*perWriter-total, got)
	}
	if got := len(q.Snapshot()); got != q.Count() {
		t.Errorf("snapshot length %d differs from count %d", got, q.Count())
	}
}

func TestPathLength(t *testing.T) {
	q := newTestQueue()
	q.Add(NewMovement(game.Vector3{X: 300}, 10))
	q.Add(NewTransition(game.GroundLabel{ID: 1, Position: game.Vector3{X: 5000}}))
	q.Add(NewMovement(game.Vector3{X: 300, Y: 400}, 10))

	if got := q.PathLength(game.Vector3{}); got != 700 {
		t.Errorf("expected path length 700, got %v", got)
	}
}

func TestMaxAttempts(t *testing.T) {
	expected := map[Type]int{
		Movement:        10,
		Transition:      6,
		ClaimWaypoint:   3,
		Dash:            15,
		TeleportConfirm: 1,
		TeleportButton:  1,
	}
	for typ, want := range expected {
		if got := typ.MaxAttempts(); got != want {
			t.Errorf("%s: expected %d attempts, got %d", typ, want, got)
		}
	}
}
