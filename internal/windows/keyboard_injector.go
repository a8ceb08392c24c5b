//go:build windows

package windows

import (
	"fmt"
	"log/slog"

	"github.com/Norgate-AV/pbirefresh/internal/logger"
)

// keyboardInjector implements the KeyboardInjector interface
type keyboardInjector struct {
	log logger.LoggerInterface
}

// newKeyboardInjector creates a new keyboard injector
func newKeyboardInjector(log logger.LoggerInterface) *keyboardInjector {
	return &keyboardInjector{log: log}
}

// ScanCode translates a virtual-key code into its hardware scan code
func (k *keyboardInjector) ScanCode(vk uint16) uint16 {
	ret, _, _ := procMapVirtualKeyW.Call(uintptr(vk), MAPVK_VK_TO_VSC)
	return uint16(ret)
}

// PostKeyMessage posts a single keystroke message to a window's queue.
// The message is queued rather than sent so the injector never blocks on a
// busy UI thread and never depends on keyboard focus.
func (k *keyboardInjector) PostKeyMessage(hwnd uintptr, msg uint32, vk uint16, lParam uintptr) bool {
	ret, _, err := procPostMessageW.Call(hwnd, uintptr(msg), uintptr(vk), lParam)
	if ret == 0 {
		k.log.Debug("PostMessage keystroke failed",
			slog.Uint64("hwnd", uint64(hwnd)),
			slog.String("msg", keyMessageName(msg)),
			slog.Uint64("vk", uint64(vk)),
			slog.Any("error", err))
		return false
	}

	k.log.Trace("Posted keystroke",
		slog.Uint64("hwnd", uint64(hwnd)),
		slog.String("msg", keyMessageName(msg)),
		slog.Uint64("vk", uint64(vk)),
		slog.String("lParam", formatLParam(lParam)))

	return true
}

func keyMessageName(msg uint32) string {
	switch msg {
	case WM_KEYDOWN:
		return "WM_KEYDOWN"
	case WM_KEYUP:
		return "WM_KEYUP"
	case WM_SYSKEYDOWN:
		return "WM_SYSKEYDOWN"
	case WM_SYSKEYUP:
		return "WM_SYSKEYUP"
	default:
		return "UNKNOWN"
	}
}

func formatLParam(lParam uintptr) string {
	return fmt.Sprintf("0x%08X", uint32(lParam))
}
