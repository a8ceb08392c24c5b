//go:build windows

package pbi

import (
	"context"
	"log/slog"
	"time"

	"github.com/Norgate-AV/pbirefresh/internal/model"
	"github.com/Norgate-AV/pbirefresh/internal/timeouts"
	"github.com/Norgate-AV/pbirefresh/internal/windows"
)

// Launch opens file with Power BI Desktop and returns the new process id
func (c *Client) Launch(file string) (uint32, error) {
	c.log.Debug("Launching Power BI Desktop with file", slog.String("path", file))

	// SW_SHOWNORMAL = 1
	pid, err := windows.OpenWithApp(GetPBIPath(), file, 1, c.log)
	if err != nil {
		return 0, err
	}

	c.log.Info("Power BI Desktop process started", slog.Uint64("pid", uint64(pid)))
	return pid, nil
}

// WaitForAppear waits for a window whose title contains substring
func (c *Client) WaitForAppear(ctx context.Context, substring string, timeout time.Duration) (model.TargetProcess, bool) {
	deadline := time.Now().Add(timeout)

	c.log.Debug("Searching for window", slog.String("title", substring))

	for time.Now().Before(deadline) {
		if target, err := c.Locate(substring, false); err == nil {
			return target, true
		}

		if err := timeouts.Sleep(ctx, timeouts.StatePollingInterval*5); err != nil {
			return model.TargetProcess{}, false
		}
	}

	c.log.Debug("Timeout reached, performing final check")
	target, err := c.Locate(substring, false)
	return target, err == nil
}

// readyChecks is how many consecutive WM_NULL round trips make a window ready
const readyChecks = 3

// WaitForReady waits until hwnd answers readyChecks consecutive WM_NULL
// checks spaced StabilityCheckInterval apart. A freshly opened report keeps
// the UI thread busy while the model loads.
func (c *Client) WaitForReady(ctx context.Context, hwnd uintptr, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	streak := 0

	c.log.Debug("Waiting for window ready state",
		slog.Uint64("hwnd", uint64(hwnd)),
		slog.String("timeout", timeout.String()),
	)

	for time.Now().Before(deadline) {
		if !c.wm.IsWindow(hwnd) {
			c.log.Debug("Window disappeared while waiting for ready state")
			return false
		}

		if windows.IsResponsive(hwnd, time.Second) {
			streak++
		} else {
			if streak > 0 {
				c.log.Debug("Window stopped responding", slog.Int("streak", streak))
			}
			streak = 0
		}

		if streak >= readyChecks {
			c.log.Debug("Window is stable and ready")
			return true
		}

		if err := timeouts.Sleep(ctx, timeouts.StabilityCheckInterval); err != nil {
			return false
		}
	}

	c.log.Debug("Timeout waiting for window to be ready")
	return false
}

// Close ensures Power BI Desktop is properly closed, with fallback to force termination
func (c *Client) Close(hwnd uintptr, pid uint32) {
	if hwnd == 0 || !c.wm.IsWindow(hwnd) {
		return
	}

	c.log.Debug("Closing Power BI Desktop")

	// Try to close gracefully
	c.wm.CloseWindow(hwnd, "Power BI Desktop")

	// Saving a large model on exit can take a while
	deadline := time.Now().Add(timeouts.WindowReadyTimeout)

	for time.Now().Before(deadline) {
		if !c.wm.IsWindow(hwnd) {
			c.log.Debug("Window closed successfully")
			return
		}

		time.Sleep(timeouts.StatePollingInterval * 2)
	}

	// Window still exists after waiting - force terminate
	c.log.Warn("Power BI Desktop did not close properly after waiting")
	if pid != 0 {
		c.log.Debug("Attempting to force terminate process", slog.Uint64("pid", uint64(pid)))
		if err := windows.TerminateProcess(pid, timeouts.CleanupDelay*5); err != nil {
			c.log.Warn("Failed to terminate process", slog.Any("error", err))
		}
	}
}
