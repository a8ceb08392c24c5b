package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Norgate-AV/pbirefresh/internal/errdefs"
	"github.com/Norgate-AV/pbirefresh/internal/interfaces"
	"github.com/Norgate-AV/pbirefresh/internal/logger"
	"github.com/Norgate-AV/pbirefresh/internal/model"
	"github.com/Norgate-AV/pbirefresh/internal/monitor"
	"github.com/Norgate-AV/pbirefresh/internal/output"
	"github.com/Norgate-AV/pbirefresh/internal/pbi"
	"github.com/Norgate-AV/pbirefresh/internal/timeouts"
)

// locator finds the target window
type locator interface {
	Locate(substring string, strict bool) (model.TargetProcess, error)
}

// lifecycle opens and closes the host application
type lifecycle interface {
	Launch(file string) (uint32, error)
	WaitForAppear(ctx context.Context, substring string, timeout time.Duration) (model.TargetProcess, bool)
	WaitForReady(ctx context.Context, hwnd uintptr, timeout time.Duration) bool
	Close(hwnd uintptr, pid uint32)
}

type refresher interface {
	Refresh(ctx context.Context, target model.TargetProcess) (monitor.Result, error)
}

type saver interface {
	Save(ctx context.Context, hwnd uintptr) error
}

// Workflow runs locate, hide, refresh, save and restore against one host
type Workflow struct {
	log       logger.LoggerInterface
	locator   locator
	lifecycle lifecycle
	vis       interfaces.Visibility
	refresher refresher
	saver     saver
	clock     interfaces.Clock

	// validateInstall is only consulted by --launch
	validateInstall func() error
}

// RunParams holds the inputs of one workflow run
type RunParams struct {
	Arg    string
	RunID  string
	Config *Config
}

// Run executes the workflow and returns the report of what happened. The
// report is filled in even when an error is returned.
func (w *Workflow) Run(ctx context.Context, params RunParams) (output.Report, error) {
	cfg := params.Config
	substring := pbi.TitleFromArg(params.Arg)

	w.log.Info("Locating Power BI Desktop window", slog.String("title", substring))

	target, err := w.locator.Locate(substring, cfg.Strict)
	if err != nil && cfg.Launch && errors.Is(err, errdefs.ErrConnectionFailure) {
		w.log.Info("No matching window, launching Power BI Desktop")
		target, err = w.launch(ctx, params.Arg, substring)
	}

	if err != nil {
		w.log.Error("Could not locate target", slog.Any("error", err))
		return output.NewReport(params.RunID, substring, 0, monitor.Result{}, false, err), err
	}

	w.log.Info("Target located",
		slog.String("title", target.Title),
		slog.Uint64("hwnd", uint64(target.Hwnd)),
		slog.Uint64("pid", uint64(target.Pid)),
	)

	if cfg.Close {
		defer w.lifecycle.Close(target.Hwnd, target.Pid)
	}

	if !cfg.LeaveHidden {
		defer w.bringBack(target.Hwnd)
	}

	if err := w.vis.Hide(target.Hwnd); err != nil {
		w.log.Warn("Could not hide window", slog.Any("error", err))
	}

	res, err := w.refresher.Refresh(ctx, target)
	if err != nil {
		w.log.Error("Refresh failed", slog.String("state", string(res.State)), slog.Any("error", err))
		return output.NewReport(params.RunID, substring, target.Pid, res, false, err), err
	}

	w.log.Info("Refresh complete",
		slog.Int("ticks", len(res.Ticks)),
		slog.Bool("autoClosed", res.AutoClosed),
		slog.String("elapsed", res.Elapsed.String()),
	)

	saved, err := w.save(ctx, target.Hwnd, cfg)

	return output.NewReport(params.RunID, substring, target.Pid, res, saved, err), err
}

// save injects the save shortcut and waits for the host to write the file
func (w *Workflow) save(ctx context.Context, hwnd uintptr, cfg *Config) (bool, error) {
	if cfg.NoSave {
		w.log.Info("Skipping save (--no-save)")
		return false, nil
	}

	w.log.Info("Saving report")

	if err := w.saver.Save(ctx, hwnd); err != nil {
		w.log.Error("Save failed", slog.Any("error", err))
		return false, err
	}

	w.log.Debug("Waiting for save to settle", slog.Duration("settle", cfg.Settle))

	if err := w.clock.Sleep(ctx, cfg.Settle); err != nil {
		return true, fmt.Errorf("save settle interrupted: %w", err)
	}

	w.log.Info("Save shortcut delivered")
	return true, nil
}

// bringBack returns the window to the operator. Failures are only logged.
func (w *Workflow) bringBack(hwnd uintptr) {
	w.log.Debug("Bringing window back on-screen", slog.Uint64("hwnd", uint64(hwnd)))

	if err := w.vis.Reveal(hwnd); err != nil {
		w.log.Warn("Could not bring window back", slog.Any("error", err))
	}
}

// launch opens arg with Power BI Desktop and waits for its window
func (w *Workflow) launch(ctx context.Context, arg, substring string) (model.TargetProcess, error) {
	if err := w.validateInstall(); err != nil {
		return model.TargetProcess{}, fmt.Errorf("%w: %w", errdefs.ErrConnectionFailure, err)
	}

	absPath, err := validateAndResolvePath(arg, w.log)
	if err != nil {
		return model.TargetProcess{}, fmt.Errorf("%w: %w", errdefs.ErrConnectionFailure, err)
	}

	pid, err := w.lifecycle.Launch(absPath)
	if err != nil {
		return model.TargetProcess{}, fmt.Errorf("%w: %w", errdefs.ErrConnectionFailure, err)
	}

	w.log.Info("Power BI Desktop process started", slog.Uint64("pid", uint64(pid)))
	w.log.Info("Waiting for Power BI Desktop to fully launch...")

	target, found := w.lifecycle.WaitForAppear(ctx, substring, timeouts.WindowAppearTimeout)
	if !found {
		return model.TargetProcess{}, fmt.Errorf("%w: no window matching %q appeared after %s",
			errdefs.ErrConnectionFailure, substring, timeouts.WindowAppearTimeout)
	}

	if !w.lifecycle.WaitForReady(ctx, target.Hwnd, timeouts.WindowReadyTimeout) {
		return model.TargetProcess{}, fmt.Errorf("%w: window appeared but is not responding", errdefs.ErrConnectionFailure)
	}

	w.log.Info("Waiting a few extra seconds for UI to settle...")

	if err := w.clock.Sleep(ctx, timeouts.UISettlingDelay); err != nil {
		return model.TargetProcess{}, fmt.Errorf("launch interrupted: %w", err)
	}

	return target, nil
}

// validateAndResolvePath validates the file exists and returns its absolute path
func validateAndResolvePath(filePath string, log logger.LoggerInterface) (string, error) {
	log.Debug("Processing file", slog.String("path", filePath))

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return "", fmt.Errorf("file does not exist: %s", filePath)
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("error resolving file path: %w", err)
	}

	return absPath, nil
}
