// Package timeouts defines timeout and delay constants for the refresh-then-save workflow.
package timeouts

import "time"

const (
	// Host Lifecycle Timeouts

	// WindowAppearTimeout is the maximum time to wait for Power BI Desktop to
	// show a window matching the requested title after --launch. Large models
	// can take a couple of minutes to open.
	WindowAppearTimeout = 3 * time.Minute

	// WindowReadyTimeout is the maximum time to wait for the host UI to
	// stabilize and become responsive after the window appears.
	WindowReadyTimeout = 30 * time.Second

	// UISettlingDelay allows the freshly launched host to finish painting its
	// ribbon before the automation tree is queried.
	UISettlingDelay = 5 * time.Second

	// Windows API Interaction Delays

	// WindowMessageDelay is the delay after sending window messages (WM_CLOSE,
	// focus changes, etc.) to allow the target application to process them.
	WindowMessageDelay = 500 * time.Millisecond

	// KeystrokeDelay is the gap between individual synthetic key messages.
	KeystrokeDelay = 50 * time.Millisecond

	// Refresh Monitor

	// RefreshDeadline is the global deadline for a refresh, measured from the
	// moment the refresh control is invoked.
	RefreshDeadline = time.Hour

	// DialogAppearTimeout bounds the wait for the progress dialog to show up
	// after the refresh control is invoked.
	DialogAppearTimeout = 30 * time.Second

	// DialogAppearPollInterval is the cadence of the progress dialog lookup.
	DialogAppearPollInterval = 500 * time.Millisecond

	// SlowPollInterval is the cadence while the refresh is making progress.
	// Each poll briefly brings the window on-screen, so this is kept long.
	SlowPollInterval = 60 * time.Second

	// FastPollInterval is the cadence once a plateau is suspected.
	FastPollInterval = 5 * time.Second

	// InProgressPause is the extra pause after an in-progress marker is read.
	InProgressPause = 2 * time.Second

	// DialogCloseTimeout bounds the wait for the progress dialog to disappear
	// after its close control is invoked.
	DialogCloseTimeout = 10 * time.Second

	// CooldownDelay lets the host settle after the dialog is gone.
	CooldownDelay = 2500 * time.Millisecond

	// Crash Recovery

	// CrashDetectTimeout bounds the search for a rendering engine crash dialog.
	CrashDetectTimeout = 3 * time.Second

	// CrashDismissTimeout bounds the wait for the crash dialog to go away.
	CrashDismissTimeout = 2 * time.Second

	// Save

	// SaveReinforcementDelay separates the broadcast Ctrl+S from the
	// Alt+digit quick access fallback.
	SaveReinforcementDelay = 500 * time.Millisecond

	// SaveSettleDelay is how long the caller waits after injecting the save
	// shortcut before assuming the host has written the file. Nothing
	// acknowledges the keystrokes.
	SaveSettleDelay = 5 * time.Second

	// Polling and Verification Intervals

	// StatePollingInterval is the delay between checks in tight polling loops
	// (window appearance, dialog disappearance, process discovery).
	StatePollingInterval = 100 * time.Millisecond

	// StabilityCheckInterval is the delay between consecutive responsiveness
	// checks to ensure a window is stable and ready for interaction.
	StabilityCheckInterval = 500 * time.Millisecond

	// CleanupDelay allows time for windows and processes to close gracefully
	// before performing verification checks or additional cleanup operations.
	CleanupDelay = 1 * time.Second

	// ShutdownGracePeriod is how long an interrupt waits for the cancelled
	// workflow to bring the window back before the process exits anyway.
	ShutdownGracePeriod = 5 * time.Second
)
