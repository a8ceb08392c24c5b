// Package cmd implements the command-line interface for pbirefresh.
package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Norgate-AV/pbirefresh/internal/monitor"
	"github.com/Norgate-AV/pbirefresh/internal/output"
	"github.com/Norgate-AV/pbirefresh/internal/timeouts"
)

// Config holds all application configuration
type Config struct {
	Verbose  bool
	ShowLogs bool

	LabelsFile string
	Locales    []string

	Deadline      time.Duration
	SlowInterval  time.Duration
	FastInterval  time.Duration
	DialogTimeout time.Duration
	Settle        time.Duration

	Strict      bool
	Launch      bool
	Close       bool
	LeaveHidden bool
	NoSave      bool

	Report output.Format
}

// NewConfigFromFlags creates a Config from parsed command flags
func NewConfigFromFlags(cmd *cobra.Command) *Config {
	return &Config{
		Verbose:       getBoolFlag(cmd, "verbose"),
		ShowLogs:      getBoolFlag(cmd, "logs"),
		LabelsFile:    getStringFlag(cmd, "labels"),
		Locales:       getStringSliceFlag(cmd, "locale"),
		Deadline:      getDurationFlag(cmd, "deadline", timeouts.RefreshDeadline),
		SlowInterval:  getDurationFlag(cmd, "slow-interval", timeouts.SlowPollInterval),
		FastInterval:  getDurationFlag(cmd, "fast-interval", timeouts.FastPollInterval),
		DialogTimeout: getDurationFlag(cmd, "dialog-timeout", timeouts.DialogAppearTimeout),
		Settle:        getDurationFlag(cmd, "settle", timeouts.SaveSettleDelay),
		Strict:        getBoolFlag(cmd, "strict"),
		Launch:        getBoolFlag(cmd, "launch"),
		Close:         getBoolFlag(cmd, "close"),
		LeaveHidden:   getBoolFlag(cmd, "leave-hidden"),
		NoSave:        getBoolFlag(cmd, "no-save"),
		Report:        output.Format(getStringFlag(cmd, "report")),
	}
}

// Validate rejects combinations the workflow cannot run with
func (c *Config) Validate() error {
	for name, d := range map[string]time.Duration{
		"deadline":       c.Deadline,
		"slow-interval":  c.SlowInterval,
		"fast-interval":  c.FastInterval,
		"dialog-timeout": c.DialogTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("--%s must be positive, got %s", name, d)
		}
	}

	if c.Settle < 0 {
		return fmt.Errorf("--settle must not be negative, got %s", c.Settle)
	}

	if c.FastInterval > c.SlowInterval {
		return fmt.Errorf("--fast-interval (%s) must not exceed --slow-interval (%s)", c.FastInterval, c.SlowInterval)
	}

	if _, err := output.ParseFormat(string(c.Report)); err != nil {
		return err
	}

	return nil
}

// MonitorOptions returns the refresh monitor timings for this configuration
func (c *Config) MonitorOptions() monitor.Options {
	opts := monitor.DefaultOptions()
	opts.Deadline = c.Deadline
	opts.SlowInterval = c.SlowInterval
	opts.FastInterval = c.FastInterval
	opts.DialogTimeout = c.DialogTimeout

	return opts
}

// getBoolFlag retrieves a boolean flag, checking both local and persistent flags
func getBoolFlag(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		// Try persistent flags if not found in local flags
		val, _ = cmd.PersistentFlags().GetBool(name)
	}

	return val
}

func getStringFlag(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		val, _ = cmd.PersistentFlags().GetString(name)
	}

	return val
}

func getStringSliceFlag(cmd *cobra.Command, name string) []string {
	val, err := cmd.Flags().GetStringSlice(name)
	if err != nil {
		val, _ = cmd.PersistentFlags().GetStringSlice(name)
	}

	return val
}

// getDurationFlag falls back to def when the flag is not registered
func getDurationFlag(cmd *cobra.Command, name string, def time.Duration) time.Duration {
	val, err := cmd.Flags().GetDuration(name)
	if err == nil {
		return val
	}

	if val, err = cmd.PersistentFlags().GetDuration(name); err == nil {
		return val
	}

	return def
}
