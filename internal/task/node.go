package task

import (
	"github.com/copilot-bot/copilot/internal/game"
	"github.com/google/uuid"
)

type Type int

const (
	Movement Type = iota
	Transition
	ClaimWaypoint
	Dash
	TeleportConfirm
	TeleportButton
)

func (t Type) String() string {
	switch t {
	case Movement:
		return "Movement"
	case Transition:
		return "Transition"
	case ClaimWaypoint:
		return "ClaimWaypoint"
	case Dash:
		return "Dash"
	case TeleportConfirm:
		return "TeleportConfirm"
	case TeleportButton:
		return "TeleportButton"
	}
	return "Unknown"
}

// MaxAttempts is the number of failed executions after which a task of this type is dropped.
// Teleport clicks are single shot.
func (t Type) MaxAttempts() int {
	switch t {
	case Movement:
		return 10
	case Transition:
		return 6
	case ClaimWaypoint:
		return 3
	case Dash:
		return 15
	}
	return 1
}

// IsTransitionClass reports whether the type moves the bot to another zone. At most one of these
// can be queued at a time.
func (t Type) IsTransitionClass() bool {
	return t == Transition || t == TeleportConfirm || t == TeleportButton
}

// IsPositional reports whether the task targets a world position the bot walks or dashes to.
func (t Type) IsPositional() bool {
	return t == Movement || t == Dash || t == ClaimWaypoint
}

// Node is a unit of planned action. The type is fixed at construction.
type Node struct {
	ID            uuid.UUID
	WorldPosition game.Vector3
	Bounds        int
	AttemptCount  int
	// Label is the portal a Transition task clicks. It is a copy of the host label and has to be
	// resolved again by ID before use.
	Label *game.GroundLabel
	// ScreenTarget is the click position of teleport tasks.
	ScreenTarget game.Point

	typ Type
}

func (n *Node) Type() Type {
	return n.typ
}

// Exhausted reports whether the task reached its attempt ceiling.
func (n *Node) Exhausted() bool {
	return n.AttemptCount >= n.typ.MaxAttempts()
}

func newNode(t Type, pos game.Vector3, bounds int) *Node {
	return &Node{ID: uuid.New(), WorldPosition: pos, Bounds: bounds, typ: t}
}

func NewMovement(pos game.Vector3, bounds int) *Node {
	return newNode(Movement, pos, bounds)
}

func NewDash(pos game.Vector3) *Node {
	return newNode(Dash, pos, 0)
}

func NewClaimWaypoint(pos game.Vector3, bounds int) *Node {
	return newNode(ClaimWaypoint, pos, bounds)
}

func NewTransition(label game.GroundLabel) *Node {
	n := newNode(Transition, label.Position, 0)
	n.Label = &label
	return n
}

func NewTeleportConfirm(button game.Point) *Node {
	n := newNode(TeleportConfirm, game.Vector3{}, 0)
	n.ScreenTarget = button
	return n
}

func NewTeleportButton(button game.Point) *Node {
	n := newNode(TeleportButton, game.Vector3{}, 0)
	n.ScreenTarget = button
	return n
}

// AsMovement returns a Movement task with the same target, used when a dash can't be done.
func (n *Node) AsMovement(bounds int) *Node {
	return NewMovement(n.WorldPosition, bounds)
}
