//go:build windows

package cmd

import (
	"log/slog"

	"github.com/Norgate-AV/pbirefresh/internal/injector"
	"github.com/Norgate-AV/pbirefresh/internal/labels"
	"github.com/Norgate-AV/pbirefresh/internal/logger"
	"github.com/Norgate-AV/pbirefresh/internal/monitor"
	"github.com/Norgate-AV/pbirefresh/internal/pbi"
	"github.com/Norgate-AV/pbirefresh/internal/recovery"
	"github.com/Norgate-AV/pbirefresh/internal/timeouts"
	"github.com/Norgate-AV/pbirefresh/internal/visibility"
	"github.com/Norgate-AV/pbirefresh/internal/windows"
)

// newWorkflow wires the Win32 backend into the workflow
func newWorkflow(log logger.LoggerInterface, cfg *Config, m *labels.Matcher) (*Workflow, error) {
	api := windows.NewWindowsAPI(log.With("component", "windows"))
	clock := timeouts.RealClock{}

	host := pbi.NewClient(log.With("component", "pbi"), api, api, api, m)
	vis := visibility.NewController(log.With("component", "visibility"), api)
	rec := recovery.New(log.With("component", "recovery"), api, api, api, vis, m, clock)
	mon := monitor.New(log.With("component", "monitor"), host, vis, rec, m, clock, cfg.MonitorOptions())
	inj := injector.New(log.With("component", "injector"), api, clock)

	return &Workflow{
		log:             log,
		locator:         host,
		lifecycle:       host,
		vis:             vis,
		refresher:       mon,
		saver:           inj,
		clock:           clock,
		validateInstall: pbi.ValidateInstallation,
	}, nil
}

// setupConsoleHandler catches console close, logoff and shutdown events
func setupConsoleHandler(ec *ExecutionContext) {
	err := windows.SetConsoleCtrlHandler(func(ctrlType uint32) uintptr {
		ec.log.Debug("Received console control event",
			slog.String("type", windows.GetCtrlTypeName(ctrlType)),
			slog.Uint64("code", uint64(ctrlType)),
		)

		ec.interrupt(windows.GetCtrlTypeName(ctrlType))
		return 1
	})
	if err != nil {
		ec.log.Debug("Could not install console control handler", slog.Any("error", err))
	}
}

// logElevation records the integrity level. Posting messages to an elevated
// host from a non-elevated process is silently dropped by UIPI.
func logElevation(log logger.LoggerInterface) {
	elevated, err := windows.TokenElevated()
	if err != nil {
		log.Debug("Could not read elevation status", slog.Any("error", err))
		return
	}

	if elevated {
		log.Debug("Running with administrator privileges")
		return
	}

	log.Debug("Running without administrator privileges; an elevated Power BI Desktop will ignore synthetic input")
}
