package game

import (
	"math"
	"sync"
)

// Input is the OS input layer. Every call is fire-and-forget.
type Input interface {
	KeyDown(k Key)
	KeyUp(k Key)
	// KeyPress presses and releases the key with a short fixed delay in between.
	KeyPress(k Key)
	SetCursorPosition(p Point)
	LeftMouseDown()
	LeftMouseUp()
}

// HID wraps an Input and remembers where the cursor was last placed and which keys are held, so
// callers can reason about aim without reading the OS cursor back.
type HID struct {
	in        Input
	mu        sync.Mutex
	cursor    Point
	hasCursor bool
	held      map[Key]bool
}

func NewHID(in Input) *HID {
	return &HID{in: in, held: make(map[Key]bool)}
}

// MovePointer moves the mouse to the requested position. x and y are relative to the game window.
func (hid *HID) MovePointer(p Point) {
	hid.in.SetCursorPosition(p)
	hid.mu.Lock()
	hid.cursor = p
	hid.hasCursor = true
	hid.mu.Unlock()
}

// LastCursorPos returns the last position set through MovePointer.
func (hid *HID) LastCursorPos() (Point, bool) {
	hid.mu.Lock()
	defer hid.mu.Unlock()
	return hid.cursor, hid.hasCursor
}

// Click moves the pointer and does a single left click.
func (hid *HID) Click(p Point) {
	hid.MovePointer(p)
	hid.in.LeftMouseDown()
	hid.in.LeftMouseUp()
}

func (hid *HID) KeyDown(k Key) {
	if k == KeyNone {
		return
	}
	hid.in.KeyDown(k)
	hid.mu.Lock()
	hid.held[k] = true
	hid.mu.Unlock()
}

// KeyUp releases the key. Releasing a key that isn't held is a no-op.
func (hid *HID) KeyUp(k Key) {
	hid.mu.Lock()
	wasHeld := hid.held[k]
	delete(hid.held, k)
	hid.mu.Unlock()
	if wasHeld {
		hid.in.KeyUp(k)
	}
}

func (hid *HID) IsHeld(k Key) bool {
	hid.mu.Lock()
	defer hid.mu.Unlock()
	return hid.held[k]
}

func (hid *HID) PressKey(k Key) {
	if k == KeyNone {
		return
	}
	hid.in.KeyPress(k)
}

// ReleaseAll lets go of every held key, used when the bot is paused or the window loses focus.
func (hid *HID) ReleaseAll() {
	hid.mu.Lock()
	keys := make([]Key, 0, len(hid.held))
	for k := range hid.held {
		keys = append(keys, k)
	}
	hid.held = make(map[Key]bool)
	hid.mu.Unlock()
	for _, k := range keys {
		hid.in.KeyUp(k)
	}
}

// IsAimedAt reports whether the last cursor position points in the same direction as target,
// both seen from the window center. tolerance is the maximum angle in degrees.
func (hid *HID) IsAimedAt(target Point, window Rect, toleranceDeg float64) bool {
	cursor, ok := hid.LastCursorPos()
	if !ok {
		return false
	}
	center := window.Center()
	ax, ay := float64(cursor.X-center.X), float64(cursor.Y-center.Y)
	bx, by := float64(target.X-center.X), float64(target.Y-center.Y)
	la := math.Hypot(ax, ay)
	lb := math.Hypot(bx, by)
	if la == 0 || lb == 0 {
		return false
	}
	cos := (ax*bx + ay*by) / (la * lb)
	return cos >= math.Cos(toleranceDeg*math.Pi/180)
}
