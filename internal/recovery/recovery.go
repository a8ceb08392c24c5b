// Package recovery dismisses embedded browser crash dialogs that a refresh can
// leave behind. Nothing here may abort the workflow.
package recovery

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/Norgate-AV/pbirefresh/internal/interfaces"
	"github.com/Norgate-AV/pbirefresh/internal/labels"
	"github.com/Norgate-AV/pbirefresh/internal/logger"
	"github.com/Norgate-AV/pbirefresh/internal/timeouts"
	"github.com/Norgate-AV/pbirefresh/internal/windows"
)

// dialogClass is the window class of a standard dialog box
const dialogClass = "#32770"

// Recoverer implements interfaces.CrashRecoverer
type Recoverer struct {
	log    logger.LoggerInterface
	lister interfaces.WindowLister
	wm     interfaces.WindowManager
	ctrl   interfaces.ControlReader
	vis    interfaces.Visibility
	labels *labels.Matcher
	clock  interfaces.Clock

	DetectTimeout  time.Duration
	DismissTimeout time.Duration
	PollInterval   time.Duration
}

// New creates a crash recoverer with the default timings
func New(
	log logger.LoggerInterface,
	lister interfaces.WindowLister,
	wm interfaces.WindowManager,
	ctrl interfaces.ControlReader,
	vis interfaces.Visibility,
	m *labels.Matcher,
	clock interfaces.Clock,
) *Recoverer {
	return &Recoverer{
		log:            log,
		lister:         lister,
		wm:             wm,
		ctrl:           ctrl,
		vis:            vis,
		labels:         m,
		clock:          clock,
		DetectTimeout:  timeouts.CrashDetectTimeout,
		DismissTimeout: timeouts.CrashDismissTimeout,
		PollInterval:   timeouts.DialogAppearPollInterval,
	}
}

// Run looks system-wide for a crash dialog and dismisses it. It reports
// whether a dialog was found and dismissed; every failure reads as false.
// Only dialog boxes raised by the host or a known crash reporter qualify, so
// an unrelated window with a similar title is never closed.
func (r *Recoverer) Run(ctx context.Context, host uintptr) (handled bool) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Warn("Crash recovery failed",
				slog.Any("panic", p),
				slog.String("stack", string(debug.Stack())))
			handled = false
		}
	}()

	crash, found := r.detect(ctx, r.wm.WindowPid(host))
	if !found {
		r.log.Debug("No crash dialog observed")
		return false
	}

	r.log.Info("Dismissing crash dialog", slog.String("title", crash.Title))

	if err := r.vis.Reveal(host); err != nil {
		r.log.Debug("Reveal failed", slog.Any("error", err))
	}

	defer func() {
		if err := r.vis.Hide(host); err != nil {
			r.log.Debug("Hide failed", slog.Any("error", err))
		}
	}()

	r.dismiss(crash)

	if err := r.waitGone(ctx, crash.Hwnd); err != nil {
		r.log.Warn("Crash dialog still open", slog.Any("error", err))
		return false
	}

	return true
}

func (r *Recoverer) detect(ctx context.Context, hostPid uint32) (windows.WindowInfo, bool) {
	giveUp := r.clock.Now().Add(r.DetectTimeout)

	for {
		for _, w := range r.lister.EnumerateWindows() {
			if r.isCrashDialog(w, hostPid) {
				return w, true
			}
		}

		if !r.clock.Now().Before(giveUp) {
			return windows.WindowInfo{}, false
		}

		if err := r.clock.Sleep(ctx, r.PollInterval); err != nil {
			return windows.WindowInfo{}, false
		}
	}
}

func (r *Recoverer) isCrashDialog(w windows.WindowInfo, hostPid uint32) bool {
	if w.ClassName != dialogClass || !r.labels.IsCrashDialogTitle(w.Title) {
		return false
	}

	if hostPid != 0 && w.Pid == hostPid {
		return true
	}

	exe := r.wm.ProcessName(w.Pid)
	if !r.labels.IsCrashReporter(exe) {
		r.log.Debug("Ignoring dialog from unrelated process",
			slog.String("title", w.Title),
			slog.String("process", exe),
			slog.Uint64("pid", uint64(w.Pid)))
		return false
	}

	return true
}

// dismiss clicks the first close-like button, falling back to WM_CLOSE
func (r *Recoverer) dismiss(crash windows.WindowInfo) {
	for _, label := range r.closeLabels(crash.Hwnd) {
		if r.ctrl.FindAndClickButton(crash.Hwnd, label) {
			r.log.Debug("Clicked crash dialog button", slog.String("label", label))
			return
		}
	}

	r.wm.CloseWindow(crash.Hwnd, crash.Title)
}

// closeLabels returns the dialog's own button captions that close it
func (r *Recoverer) closeLabels(hwnd uintptr) []string {
	var out []string

	for _, ci := range r.lister.CollectChildInfos(hwnd) {
		if ci.ClassName == "Button" && r.labels.IsClose(ci.Text) {
			out = append(out, ci.Text)
		}
	}

	return out
}

func (r *Recoverer) waitGone(ctx context.Context, hwnd uintptr) error {
	giveUp := r.clock.Now().Add(r.DismissTimeout)

	for r.wm.IsWindow(hwnd) {
		if !r.clock.Now().Before(giveUp) {
			return fmt.Errorf("dialog 0x%X did not close within %s", hwnd, r.DismissTimeout)
		}

		if err := r.clock.Sleep(ctx, r.PollInterval); err != nil {
			return err
		}
	}

	return nil
}
