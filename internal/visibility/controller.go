// Package visibility moves the host's windows out of the operator's sight and
// back without closing, minimizing or reconnecting them.
package visibility

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Norgate-AV/pbirefresh/internal/interfaces"
	"github.com/Norgate-AV/pbirefresh/internal/logger"
	"github.com/Norgate-AV/pbirefresh/internal/model"
)

const (
	// OffscreenX and OffscreenY lie outside any physical display arrangement
	OffscreenX int32 = -30000
	OffscreenY int32 = -30000

	// offscreenThreshold separates on-screen windows from hidden ones; a left
	// edge at or beyond it means the window is already off-screen
	offscreenThreshold int32 = -10000

	fallbackX int32 = 100
	fallbackY int32 = 100
)

// ErrWindowGone is returned when the window to place no longer exists
var ErrWindowGone = errors.New("window no longer exists")

// Controller implements interfaces.Visibility by off-screen repositioning.
// Every visible top-level window of the owning process moves together, so
// pop-ups and the refresh dialog follow the main window.
type Controller struct {
	log logger.LoggerInterface
	wm  interfaces.WindowManager

	mu      sync.Mutex
	origins map[uintptr]model.Rect
}

// NewController creates a visibility controller
func NewController(log logger.LoggerInterface, wm interfaces.WindowManager) *Controller {
	return &Controller{
		log:     log,
		wm:      wm,
		origins: make(map[uintptr]model.Rect),
	}
}

// processWindows returns the main window followed by its process siblings
func (c *Controller) processWindows(hwnd uintptr) []uintptr {
	hwnds := []uintptr{hwnd}

	pid := c.wm.WindowPid(hwnd)
	if pid == 0 {
		return hwnds
	}

	for _, h := range c.wm.ProcessWindows(pid) {
		if h != hwnd {
			hwnds = append(hwnds, h)
		}
	}

	return hwnds
}

// Hide moves the host off-screen. Minimized windows are restored first so the
// automation tree stays fully populated. Hiding a hidden window is a no-op.
func (c *Controller) Hide(hwnd uintptr) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.wm.IsWindow(hwnd) {
		return fmt.Errorf("cannot hide 0x%X: %w", hwnd, ErrWindowGone)
	}

	for _, h := range c.processWindows(hwnd) {
		if c.wm.IsMinimized(h) && !c.wm.Restore(h) {
			c.log.Debug("Could not restore minimized window", slog.Uint64("hwnd", uint64(h)))
		}

		rect, ok := c.wm.WindowRect(h)
		if !ok {
			if h == hwnd {
				return fmt.Errorf("cannot read position of 0x%X", hwnd)
			}

			continue
		}

		if rect.Left <= offscreenThreshold {
			continue
		}

		if !c.wm.MoveWindow(h, rect.MoveTo(OffscreenX, OffscreenY)) {
			if h == hwnd {
				return fmt.Errorf("failed to move 0x%X off-screen", hwnd)
			}

			c.log.Debug("Failed to move sibling window off-screen", slog.Uint64("hwnd", uint64(h)))
			continue
		}

		c.origins[h] = rect
		c.log.Trace("Window hidden",
			slog.Uint64("hwnd", uint64(h)),
			slog.Int("left", int(rect.Left)),
			slog.Int("top", int(rect.Top)))
	}

	return nil
}

// Reveal moves the host back to where it was before Hide, or to a fallback
// position, and tries to give it focus. Focus failure is logged only.
// Revealing a visible window moves nothing.
func (c *Controller) Reveal(hwnd uintptr) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.wm.IsWindow(hwnd) {
		return fmt.Errorf("cannot reveal 0x%X: %w", hwnd, ErrWindowGone)
	}

	for _, h := range c.processWindows(hwnd) {
		rect, ok := c.wm.WindowRect(h)
		if !ok || rect.Left > offscreenThreshold {
			continue
		}

		target, remembered := c.origins[h]
		if !remembered {
			target = rect.MoveTo(fallbackX, fallbackY)
		}

		if !c.wm.MoveWindow(h, target) {
			if h == hwnd {
				return fmt.Errorf("failed to move 0x%X on-screen", hwnd)
			}

			continue
		}

		delete(c.origins, h)
		c.log.Trace("Window revealed",
			slog.Uint64("hwnd", uint64(h)),
			slog.Int("left", int(target.Left)),
			slog.Int("top", int(target.Top)))
	}

	if !c.wm.SetForeground(hwnd) {
		c.log.Debug("Could not focus revealed window", slog.Uint64("hwnd", uint64(hwnd)))
	}

	return nil
}

// Placement reports where hwnd currently sits
func (c *Controller) Placement(hwnd uintptr) model.Placement {
	rect, ok := c.wm.WindowRect(hwnd)
	if ok && rect.Left <= offscreenThreshold {
		return model.Hidden
	}

	return model.Foreground
}
