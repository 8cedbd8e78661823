package game

import (
	"github.com/copilot-bot/copilot/internal/utils"
	"github.com/copilot-bot/copilot/internal/utils/winproc"
	"github.com/lxn/win"
)

const keyPressTimeMs = 60

// Win32Input injects input into the game window through window messages, so the game can
// receive clicks and keys while it's not the foreground window.
type Win32Input struct {
	hwnd win.HWND
}

func NewWin32Input(hwnd uintptr) (*Win32Input, error) {
	winproc.SetProcessDpiAware.Call() //nolint:errcheck
	return &Win32Input{hwnd: win.HWND(hwnd)}, nil
}

// IsForeground reports whether the game window is the active one and not minimized.
func (w *Win32Input) IsForeground() bool {
	if iconic, _, _ := winproc.IsIconic.Call(uintptr(w.hwnd)); iconic != 0 {
		return false
	}
	return win.GetForegroundWindow() == w.hwnd
}

func (w *Win32Input) KeyDown(k Key) {
	win.PostMessage(w.hwnd, win.WM_KEYDOWN, uintptr(k), keyLparam(k, false))
}

func (w *Win32Input) KeyUp(k Key) {
	win.PostMessage(w.hwnd, win.WM_KEYUP, uintptr(k), keyLparam(k, true))
}

func (w *Win32Input) KeyPress(k Key) {
	w.KeyDown(k)
	utils.Sleep(keyPressTimeMs)
	w.KeyUp(k)
}

// SetCursorPosition moves the OS cursor to the position, relative to the game window client area.
func (w *Win32Input) SetCursorPosition(p Point) {
	pt := win.POINT{X: int32(p.X), Y: int32(p.Y)}
	win.ClientToScreen(w.hwnd, &pt)
	win.SetCursorPos(pt.X, pt.Y)

	lParam := calculateLparam(p.X, p.Y)
	win.SendMessage(w.hwnd, win.WM_NCHITTEST, 0, lParam)
	win.SendMessage(w.hwnd, win.WM_SETCURSOR, 0x000105A8, 0x2010001)
	win.PostMessage(w.hwnd, win.WM_MOUSEMOVE, 0, lParam)
}

func (w *Win32Input) LeftMouseDown() {
	win.SendMessage(w.hwnd, win.WM_LBUTTONDOWN, win.MK_LBUTTON, w.cursorLparam())
}

func (w *Win32Input) LeftMouseUp() {
	win.SendMessage(w.hwnd, win.WM_LBUTTONUP, 0, w.cursorLparam())
}

func (w *Win32Input) cursorLparam() uintptr {
	var pt win.POINT
	win.GetCursorPos(&pt)
	win.ScreenToClient(w.hwnd, &pt)
	return calculateLparam(int(pt.X), int(pt.Y))
}

func keyLparam(k Key, up bool) uintptr {
	lParam := uintptr(1) | uintptr(winproc.ScanCode(uint16(k)))<<16
	if up {
		lParam |= 1<<30 | 1<<31
	}
	return lParam
}

func calculateLparam(x, y int) uintptr {
	return uintptr(y<<16 | x)
}
