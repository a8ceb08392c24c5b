//go:build windows

package windows

import (
	"log/slog"
	"time"

	"github.com/Norgate-AV/pbirefresh/internal/labels"
	"github.com/Norgate-AV/pbirefresh/internal/logger"
	"github.com/Norgate-AV/pbirefresh/internal/model"
	"github.com/Norgate-AV/pbirefresh/internal/timeouts"
)

// windowManager implements the WindowManager and ControlReader interfaces
type windowManager struct {
	log logger.LoggerInterface
}

// newWindowManager creates a new window manager
func newWindowManager(log logger.LoggerInterface) *windowManager {
	return &windowManager{log: log}
}

// CloseWindow posts WM_CLOSE and gives the window a moment to react.
// Callers check IsWindow to learn whether it actually went away.
func (w *windowManager) CloseWindow(hwnd uintptr, title string) {
	w.log.Debug("Closing window", slog.String("title", title), slog.Uint64("hwnd", uint64(hwnd)))

	if ret, _, err := procPostMessageW.Call(hwnd, WM_CLOSE, 0, 0); ret == 0 {
		w.log.Debug("PostMessage WM_CLOSE failed", slog.String("title", title), slog.Any("error", err))
		return
	}

	time.Sleep(timeouts.WindowMessageDelay)
}

// SetForeground brings a window to the foreground. Windows only lets the
// foreground thread hand out focus, so when the plain call is refused the
// target's input queue is briefly attached to the current foreground thread.
func (w *windowManager) SetForeground(hwnd uintptr) bool {
	w.Restore(hwnd)

	if ret, _, _ := procSetForegroundWindow.Call(hwnd); ret != 0 {
		return w.verifyForeground(hwnd)
	}

	fgHwnd, _, _ := procGetForegroundWindow.Call()
	if fgHwnd == hwnd {
		return true
	}

	if fgHwnd == 0 {
		w.log.Debug("No foreground window to borrow focus from")
		return false
	}

	w.log.Debug("SetForegroundWindow refused, attaching to foreground thread")

	if !w.withAttachedInput(fgHwnd, hwnd, func() bool {
		ret, _, _ := procSetForegroundWindow.Call(hwnd)
		return ret != 0
	}) {
		w.log.Warn("SetForegroundWindow failed after AttachThreadInput", slog.Uint64("hwnd", uint64(hwnd)))
		return false
	}

	return w.verifyForeground(hwnd)
}

// withAttachedInput runs fn while target's thread shares fg's input state
func (w *windowManager) withAttachedInput(fg, target uintptr, fn func() bool) bool {
	fgThreadID, _, _ := procGetWindowThreadProcessId.Call(fg, 0)
	targetThreadID, _, _ := procGetWindowThreadProcessId.Call(target, 0)

	if fgThreadID == 0 || targetThreadID == 0 {
		w.log.Debug("Could not get thread IDs",
			slog.Uint64("fgThreadID", uint64(fgThreadID)),
			slog.Uint64("targetThreadID", uint64(targetThreadID)))
		return false
	}

	if ret, _, _ := procAttachThreadInput.Call(targetThreadID, fgThreadID, 1); ret == 0 {
		w.log.Debug("AttachThreadInput failed")
		return false
	}

	defer func() {
		if ret, _, _ := procAttachThreadInput.Call(targetThreadID, fgThreadID, 0); ret == 0 {
			w.log.Warn("Failed to detach threads")
		}
	}()

	return fn()
}

// verifyForeground polls until hwnd owns the foreground or
// WindowMessageDelay passes
func (w *windowManager) verifyForeground(hwnd uintptr) bool {
	deadline := time.Now().Add(timeouts.WindowMessageDelay)

	for {
		fgHwnd, _, _ := procGetForegroundWindow.Call()
		if fgHwnd == hwnd {
			return true
		}

		if time.Now().After(deadline) {
			w.log.Debug("Different window in foreground",
				slog.Uint64("expected", uint64(hwnd)),
				slog.Uint64("got", uint64(fgHwnd)))
			return false
		}

		time.Sleep(timeouts.StatePollingInterval)
	}
}

// Restore un-minimizes a window without activating anything else
func (w *windowManager) Restore(hwnd uintptr) bool {
	if !IsIconic(hwnd) {
		return true
	}

	_, _, _ = procShowWindow.Call(hwnd, uintptr(SW_RESTORE))
	restored := !IsIconic(hwnd)
	w.log.Debug("ShowWindow(SW_RESTORE)",
		slog.Uint64("hwnd", uint64(hwnd)),
		slog.Bool("restored", restored))

	return restored
}

// MoveWindow places a window at r without changing its z-order or activation
func (w *windowManager) MoveWindow(hwnd uintptr, r model.Rect) bool {
	ret, _, err := procSetWindowPos.Call(
		hwnd,
		HWND_TOP,
		uintptr(r.Left),
		uintptr(r.Top),
		uintptr(r.Width()),
		uintptr(r.Height()),
		SWP_NOZORDER|SWP_NOACTIVATE|SWP_SHOWWINDOW,
	)
	if ret == 0 {
		w.log.Debug("SetWindowPos failed",
			slog.Uint64("hwnd", uint64(hwnd)),
			slog.Any("error", err))
		return false
	}

	return true
}

// FindAndClickButton finds a button child control with the specified text and clicks it
func (w *windowManager) FindAndClickButton(parentHwnd uintptr, buttonText string) bool {
	childInfos := CollectChildInfos(parentHwnd)
	want := labels.Normalize(buttonText)

	for _, ci := range childInfos {
		if ci.ClassName == "Button" && labels.Normalize(ci.Text) == want {
			w.log.Debug("Found button, sending click",
				slog.String("text", buttonText),
				slog.Uint64("hwnd", uint64(ci.Hwnd)),
			)

			// Notify the button's parent directly:
			// WM_COMMAND: wParam = MAKEWPARAM(controlID, BN_CLICKED), lParam = hwnd
			wParam := uintptr(uint16(ci.ControlID)) | uintptr(BN_CLICKED)<<16
			ret, _, err := procPostMessageW.Call(ci.Parent, WM_COMMAND, wParam, ci.Hwnd)
			if ret == 0 {
				w.log.Debug("PostMessage BN_CLICKED failed",
					slog.String("text", ci.Text),
					slog.Any("error", err))
				return w.ClickControl(ci.Hwnd)
			}

			return true
		}
	}

	w.log.Debug("Button not found", slog.String("text", buttonText))
	return false
}

// ClickControl clicks a control by sending it BM_CLICK
func (w *windowManager) ClickControl(hwnd uintptr) bool {
	if !IsWindow(hwnd) {
		w.log.Debug("Cannot click invalid control", slog.Uint64("hwnd", uint64(hwnd)))
		return false
	}

	// PostMessage so a modal loop started by the click cannot block us
	ret, _, err := procPostMessageW.Call(hwnd, BM_CLICK, 0, 0)
	if ret == 0 {
		w.log.Debug("PostMessage BM_CLICK failed",
			slog.Uint64("hwnd", uint64(hwnd)),
			slog.Any("error", err))
		return false
	}

	return true
}
