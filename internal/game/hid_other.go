//go:build !windows

package game

import "errors"

var errWin32Unsupported = errors.New("win32 input injection is only available on windows")

// Win32Input is unavailable outside of Windows; NewWin32Input always fails.
type Win32Input struct{}

func NewWin32Input(uintptr) (*Win32Input, error) {
	return nil, errWin32Unsupported
}

func (w *Win32Input) IsForeground() bool { return false }
func (w *Win32Input) KeyDown(Key) {}
func (w *Win32Input) KeyUp(Key) {}
func (w *Win32Input) KeyPress(Key) {}
func (w *Win32Input) SetCursorPosition(Point) {}
func (w *Win32Input) LeftMouseDown() {}
func (w *Win32Input) LeftMouseUp() {}
