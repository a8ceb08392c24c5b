package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Norgate-AV/pbirefresh/internal/labels"
	"github.com/Norgate-AV/pbirefresh/internal/logger"
	"github.com/Norgate-AV/pbirefresh/internal/output"
	"github.com/Norgate-AV/pbirefresh/internal/timeouts"
	"github.com/Norgate-AV/pbirefresh/internal/version"
)

// ExecutionContext holds state needed throughout the run and for cleanup in
// signal handlers.
type ExecutionContext struct {
	log      logger.LoggerInterface
	cancel   context.CancelFunc
	done     chan struct{} // Closed once the workflow has returned
	grace    time.Duration
	exitFunc func(int) // Injectable for testing; defaults to os.Exit
}

// newExecutionContext derives a cancellable context for the workflow
func newExecutionContext(parent context.Context, log logger.LoggerInterface) (*ExecutionContext, context.Context) {
	if parent == nil {
		parent = context.Background()
	}

	ctx, cancel := context.WithCancel(parent)

	return &ExecutionContext{
		log:      log,
		cancel:   cancel,
		done:     make(chan struct{}),
		grace:    timeouts.ShutdownGracePeriod,
		exitFunc: os.Exit,
	}, ctx
}

// finish marks the workflow as returned
func (ec *ExecutionContext) finish() {
	select {
	case <-ec.done:
	default:
		close(ec.done)
	}
}

// interrupt cancels the workflow and gives its deferred cleanup a bounded
// amount of time to bring the window back before exiting.
func (ec *ExecutionContext) interrupt(reason string) {
	ec.log.Info("Interrupt received, starting cleanup", slog.String("reason", reason))
	ec.cancel()

	select {
	case <-ec.done:
		ec.log.Debug("Cleanup completed, exiting")
	case <-time.After(ec.grace):
		ec.log.Warn("Cleanup did not finish in time, exiting", slog.Duration("grace", ec.grace))
	}

	ec.exitFunc(130)
}

// RootCmd is the root command for the pbirefresh CLI application.
var RootCmd = &cobra.Command{
	Use:   "pbirefresh <title-or-file>",
	Short: "pbirefresh - Refresh and save an open Power BI Desktop report unattended",
	Long: `pbirefresh finds an open Power BI Desktop window by title (or by the base
name of a .pbix path), hides it from the operator, triggers Refresh, waits for
the refresh to finish and then saves the report with Ctrl+S.`,
	Version:      version.GetVersion(),
	Args:         validateArgs,
	RunE:         Execute,
	SilenceUsage: true, // Don't show usage on runtime errors
}

func init() {
	// Set custom version template to show full version info
	RootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	registerFlags(RootCmd)
}

// registerFlags adds the pbirefresh flags to cmd
func registerFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.BoolP("verbose", "V", false, "enable verbose output")
	flags.BoolP("logs", "l", false, "print the current log file to stdout and exit")

	flags.String("labels", "", "YAML file with UI labels, replaces the built-in table")
	flags.StringSlice("locale", nil, "restrict label matching to these locales (repeatable, default all)")

	flags.Duration("deadline", timeouts.RefreshDeadline, "give up when the refresh has not finished after this long")
	flags.Duration("slow-interval", timeouts.SlowPollInterval, "poll interval while the refresh is making progress")
	flags.Duration("fast-interval", timeouts.FastPollInterval, "poll interval once the dialog content stops changing")
	flags.Duration("dialog-timeout", timeouts.DialogAppearTimeout, "how long to wait for the refresh dialog to appear")
	flags.Duration("settle", timeouts.SaveSettleDelay, "how long to wait after sending the save shortcut")

	flags.Bool("strict", false, "fail when the title matches windows of more than one process")
	flags.Bool("launch", false, "open the file in Power BI Desktop when no window matches")
	flags.Bool("close", false, "close Power BI Desktop when the run ends")
	flags.Bool("leave-hidden", false, "leave the window off-screen when the run ends")
	flags.Bool("no-save", false, "refresh only, do not send the save shortcut")
	flags.String("report", "", "print a run report to stdout (yaml or json)")
}

// validateArgs allows no argument (for --logs) or exactly one target
func validateArgs(cmd *cobra.Command, args []string) error {
	// Allow 0 args for --logs flag, which is handled in Execute
	if len(args) == 0 {
		return nil
	}

	if err := cobra.ExactArgs(1)(cmd, args); err != nil {
		return err
	}

	if strings.TrimSpace(args[0]) == "" {
		return fmt.Errorf("target title must not be empty")
	}

	return nil
}

// handleLogsFlag processes the --logs flag and exits if needed
func handleLogsFlag(cfg *Config, exitFunc func(int)) error {
	if !cfg.ShowLogs {
		return nil
	}

	if err := logger.PrintLogFile(nil, logger.LoggerOptions{}); err != nil {
		if os.IsNotExist(err) {
			logPath := logger.GetLogPath(logger.LoggerOptions{})
			fmt.Fprintf(os.Stderr, "Log file does not exist: %s\n", logPath)
			exitFunc(1)
		}

		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		exitFunc(1)
	}

	exitFunc(0)
	return nil // Won't actually reach here due to exitFunc
}

// initializeLogger creates a logger scoped to this run
func initializeLogger(cfg *Config, runID string) (*logger.Logger, logger.LoggerInterface, error) {
	root, err := logger.NewLogger(logger.LoggerOptions{
		Verbose:  cfg.Verbose,
		Compress: true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return root, root.With("run", runID), nil
}

// loadLabels builds the label matcher from --labels and --locale
func loadLabels(cfg *Config, log logger.LoggerInterface) (*labels.Matcher, error) {
	m, err := labels.Load(cfg.LabelsFile, cfg.Locales)
	if err != nil {
		return nil, fmt.Errorf("failed to load labels: %w", err)
	}

	log.Debug("Labels loaded",
		slog.String("file", cfg.LabelsFile),
		slog.Any("locales", m.Locales()),
	)

	return m, nil
}

// setupSignalHandlers cancels the workflow on Ctrl+C, SIGTERM and console
// close events.
func setupSignalHandlers(ec *ExecutionContext) (stop func()) {
	setupConsoleHandler(ec)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	quit := make(chan struct{})

	go func() {
		select {
		case sig := <-sigChan:
			ec.log.Debug("Received signal", slog.Any("signal", sig))
			ec.interrupt(sig.String())
		case <-quit:
		}
	}()

	return func() {
		signal.Stop(sigChan)
		close(quit)
	}
}

// printReport writes the run report when --report was given
func printReport(cfg *Config, rep output.Report, log logger.LoggerInterface) {
	if err := output.Print(os.Stdout, cfg.Report, rep); err != nil {
		log.Error("Failed to print report", slog.Any("error", err))
	}
}

// Execute runs the provided command with the given arguments.
func Execute(cmd *cobra.Command, args []string) (err error) {
	cfg := NewConfigFromFlags(cmd)

	if err := handleLogsFlag(cfg, os.Exit); err != nil {
		return err
	}

	if len(args) == 0 {
		return fmt.Errorf("window title or file path required")
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	runID := uuid.NewString()

	root, log, err := initializeLogger(cfg, runID)
	if err != nil {
		return err
	}

	defer root.Close()

	log.Debug("Starting pbirefresh", slog.Any("args", args), slog.String("version", version.GetFullVersion()))
	log.Debug("Flags set",
		slog.Bool("verbose", cfg.Verbose),
		slog.Bool("strict", cfg.Strict),
		slog.Bool("launch", cfg.Launch),
		slog.Bool("close", cfg.Close),
		slog.Bool("leaveHidden", cfg.LeaveHidden),
		slog.Bool("noSave", cfg.NoSave),
		slog.Duration("deadline", cfg.Deadline),
	)

	// Recover from panics and log them
	defer func() {
		if r := recover(); r != nil {
			log.Error("PANIC RECOVERED",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)

			fmt.Fprintf(os.Stderr, "\n*** PANIC: %v ***\n", r)
			fmt.Fprintf(os.Stderr, "Check log file for details\n")
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	m, err := loadLabels(cfg, log)
	if err != nil {
		return err
	}

	logElevation(log)

	wf, err := newWorkflow(log, cfg, m)
	if err != nil {
		return err
	}

	ec, ctx := newExecutionContext(cmd.Context(), log)
	defer ec.cancel()

	stop := setupSignalHandlers(ec)
	defer stop()

	rep, err := wf.Run(ctx, RunParams{Arg: args[0], RunID: runID, Config: cfg})
	ec.finish()

	printReport(cfg, rep, log)

	if err != nil {
		return err
	}

	log.Info("Refresh and save complete", slog.String("outcome", rep.Outcome))
	return nil
}
