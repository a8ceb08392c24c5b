//go:build windows

package windows

import (
	"sync"
	"syscall"
)

var (
	foundWindows []WindowInfo
	windowsMu    sync.Mutex
)

func enumWindowsCallback(hwnd uintptr, lparam uintptr) uintptr {
	if IsWindowVisible(hwnd) {
		foundWindows = append(foundWindows, WindowInfo{
			Hwnd:      hwnd,
			Title:     GetWindowText(hwnd),
			Pid:       GetWindowPid(hwnd),
			ClassName: GetClassName(hwnd),
		})
	}

	return 1 // Continue enumeration
}

// enumWindowsCallbackPtr is created once; syscall.NewCallback slots are never freed
var enumWindowsCallbackPtr = syscall.NewCallback(enumWindowsCallback)

// EnumerateWindows performs a thread-safe enumeration of visible top-level windows
// in OS enumeration order (topmost first)
func EnumerateWindows() []WindowInfo {
	windowsMu.Lock()
	defer windowsMu.Unlock()

	foundWindows = nil
	ret, _, _ := procEnumWindows.Call(enumWindowsCallbackPtr, 0)
	if ret == 0 {
		return nil
	}

	// Make a copy to avoid races with subsequent enumerations
	windows := make([]WindowInfo, len(foundWindows))
	copy(windows, foundWindows)

	return windows
}

// ProcessWindows returns the visible top-level windows owned by pid
func ProcessWindows(pid uint32) []uintptr {
	var hwnds []uintptr

	for _, w := range EnumerateWindows() {
		if w.Pid == pid {
			hwnds = append(hwnds, w.Hwnd)
		}
	}

	return hwnds
}
