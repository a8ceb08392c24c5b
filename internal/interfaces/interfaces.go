// Package interfaces defines core interfaces for dependency injection and testing.
package interfaces

import (
	"context"
	"time"

	"github.com/Norgate-AV/pbirefresh/internal/model"
	"github.com/Norgate-AV/pbirefresh/internal/windows"
)

// Clock abstracts time so that hour-long waits can be tested instantly.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// WindowLister enumerates windows and their controls
type WindowLister interface {
	EnumerateWindows() []windows.WindowInfo
	CollectChildInfos(hwnd uintptr) []windows.ChildInfo
}

// WindowManager handles window operations
type WindowManager interface {
	IsWindow(hwnd uintptr) bool
	CloseWindow(hwnd uintptr, title string)
	SetForeground(hwnd uintptr) bool
	WindowRect(hwnd uintptr) (model.Rect, bool)
	IsMinimized(hwnd uintptr) bool
	Restore(hwnd uintptr) bool
	MoveWindow(hwnd uintptr, r model.Rect) bool
	ProcessWindows(pid uint32) []uintptr
	WindowPid(hwnd uintptr) uint32
	ProcessName(pid uint32) string
}

// ControlReader clicks buttons of classic Win32 dialogs
type ControlReader interface {
	FindAndClickButton(parentHwnd uintptr, buttonText string) bool
}

// AutomationTree reads and operates controls that exist only in the UI
// Automation tree, such as those of WPF windows
type AutomationTree interface {
	Elements(hwnd uintptr) ([]windows.Element, error)
	Activate(hwnd uintptr, el windows.Element) error
}

// KeyboardInjector posts keystroke messages to windows
type KeyboardInjector interface {
	IsWindow(hwnd uintptr) bool
	VisibleChildren(hwnd uintptr) []uintptr
	ScanCode(vk uint16) uint16
	PostKeyMessage(hwnd uintptr, msg uint32, vk uint16, lParam uintptr) bool
}

// Visibility places a window in front of, or away from, the operator
type Visibility interface {
	Hide(hwnd uintptr) error
	Reveal(hwnd uintptr) error
}

// Host drives the target application's refresh UI
type Host interface {
	SelectHomeTab(hwnd uintptr) (bool, error)
	TriggerRefresh(hwnd uintptr) error
	ReadRefreshDialog(target model.TargetProcess) (model.RefreshDialog, error)
	CloseRefreshDialog(dlg model.RefreshDialog) (bool, error)
}

// CrashRecoverer dismisses crash dialogs unrelated to the refresh
type CrashRecoverer interface {
	Run(ctx context.Context, host uintptr) bool
}
