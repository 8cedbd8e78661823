package winproc

import "golang.org/x/sys/windows"

var (
	USER32             = windows.NewLazySystemDLL("user32.dll")
	IsIconic           = USER32.NewProc("IsIconic")
	SetProcessDpiAware = USER32.NewProc("SetProcessDPIAware")
	MapVirtualKey      = USER32.NewProc("MapVirtualKeyW")
)

const mapVKToVSC = 0

// ScanCode returns the hardware scan code of a virtual-key code.
func ScanCode(vk uint16) uint32 {
	r, _, _ := MapVirtualKey.Call(uintptr(vk), mapVKToVSC)
	return uint32(r)
}
