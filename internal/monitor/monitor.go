// Package monitor triggers a data refresh in the host and decides when it has
// finished by polling the refresh dialog at an adaptive cadence.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Norgate-AV/pbirefresh/internal/errdefs"
	"github.com/Norgate-AV/pbirefresh/internal/interfaces"
	"github.com/Norgate-AV/pbirefresh/internal/labels"
	"github.com/Norgate-AV/pbirefresh/internal/logger"
	"github.com/Norgate-AV/pbirefresh/internal/model"
	"github.com/Norgate-AV/pbirefresh/internal/timeouts"
)

// stableMatches is the number of consecutive identical reads that confirm completion
const stableMatches = 2

// Options tunes the monitor's waits
type Options struct {
	SlowInterval    time.Duration
	FastInterval    time.Duration
	DialogTimeout   time.Duration
	DialogPoll      time.Duration
	Deadline        time.Duration
	InProgressPause time.Duration
	CloseTimeout    time.Duration
	Cooldown        time.Duration
}

// DefaultOptions returns the production timings
func DefaultOptions() Options {
	return Options{
		SlowInterval:    timeouts.SlowPollInterval,
		FastInterval:    timeouts.FastPollInterval,
		DialogTimeout:   timeouts.DialogAppearTimeout,
		DialogPoll:      timeouts.DialogAppearPollInterval,
		Deadline:        timeouts.RefreshDeadline,
		InProgressPause: timeouts.InProgressPause,
		CloseTimeout:    timeouts.DialogCloseTimeout,
		Cooldown:        timeouts.CooldownDelay,
	}
}

// Monitor runs the refresh state machine against one host
type Monitor struct {
	log      logger.LoggerInterface
	host     interfaces.Host
	vis      interfaces.Visibility
	recovery interfaces.CrashRecoverer
	labels   *labels.Matcher
	clock    interfaces.Clock
	opts     Options
}

// New creates a monitor
func New(
	log logger.LoggerInterface,
	host interfaces.Host,
	vis interfaces.Visibility,
	recovery interfaces.CrashRecoverer,
	m *labels.Matcher,
	clock interfaces.Clock,
	opts Options,
) *Monitor {
	return &Monitor{
		log:      log,
		host:     host,
		vis:      vis,
		recovery: recovery,
		labels:   m,
		clock:    clock,
		opts:     opts,
	}
}

// run carries the mutable state of one Refresh call
type run struct {
	target   model.TargetProcess
	start    time.Time
	deadline time.Time
	tick     int
	res      Result
}

// Refresh triggers a refresh and blocks until it completes, fails, the global
// deadline passes or ctx is cancelled. The returned Result is always filled in
// as far as the run got.
func (m *Monitor) Refresh(ctx context.Context, target model.TargetProcess) (Result, error) {
	r := &run{
		target: target,
		start:  m.clock.Now(),
		res:    Result{State: StateIdle},
	}

	err := m.refresh(ctx, r)
	r.res.Elapsed = m.clock.Now().Sub(r.start)

	if errors.Is(err, errdefs.ErrTimedOut) {
		m.transition(r, StateTimedOut)
	}

	return r.res, err
}

func (m *Monitor) refresh(ctx context.Context, r *run) error {
	found, err := m.host.SelectHomeTab(r.target.Hwnd)
	switch {
	case err != nil:
		m.log.Warn("Could not select home tab", slog.Any("error", err))
	case !found:
		m.log.Debug("Home tab not found, continuing")
	}

	r.res.TabSelected = found && err == nil
	m.transition(r, StateTabSelected)

	if err := m.host.TriggerRefresh(r.target.Hwnd); err != nil {
		return fmt.Errorf("failed to trigger refresh: %w", err)
	}

	r.deadline = m.clock.Now().Add(m.opts.Deadline)
	m.transition(r, StateRefreshTriggered)
	m.log.Info("Refresh triggered")

	dlg, err := m.waitForDialog(ctx, r)
	if err != nil {
		return err
	}

	last, err := m.poll(ctx, r, dlg)
	if err != nil {
		return err
	}

	if r.res.State == StateStabilityConfirming {
		if err := m.closeDialog(ctx, r, last); err != nil {
			return err
		}
	}

	m.transition(r, StateRecovering)
	r.res.CrashRecovered = m.recovery.Run(ctx, r.target.Hwnd)

	m.transition(r, StateCooldown)
	if err := m.sleep(ctx, r, m.opts.Cooldown); err != nil {
		return err
	}

	m.transition(r, StateDone)
	m.log.Info("Refresh complete")

	return nil
}

// waitForDialog reveals the host and polls until the refresh dialog shows up
func (m *Monitor) waitForDialog(ctx context.Context, r *run) (model.RefreshDialog, error) {
	m.transition(r, StateWaitingForDialog)
	m.reveal(r)
	defer m.hide(r)

	giveUp := m.clock.Now().Add(m.opts.DialogTimeout)

	for {
		dlg, err := m.host.ReadRefreshDialog(r.target)
		switch {
		case errors.Is(err, errdefs.ErrConnectionFailure):
			return model.RefreshDialog{}, err
		case err != nil:
			m.log.Debug("Refresh dialog read failed", slog.Any("error", err))
		case dlg.Exists:
			m.log.Debug("Refresh dialog observed", slog.String("title", dlg.Title))
			return dlg, nil
		}

		if err := m.checkDeadline(r); err != nil {
			return model.RefreshDialog{}, err
		}

		if !m.clock.Now().Before(giveUp) {
			return model.RefreshDialog{}, fmt.Errorf("%w after %s", errdefs.ErrDialogNotObserved, m.opts.DialogTimeout)
		}

		if err := m.sleep(ctx, r, m.opts.DialogPoll); err != nil {
			return model.RefreshDialog{}, err
		}
	}
}

// poll runs the adaptive polling loop. It returns in STABILITY_CONFIRMING when
// the content settled, or still in POLLING when the dialog closed by itself.
func (m *Monitor) poll(ctx context.Context, r *run, dlg model.RefreshDialog) (model.RefreshDialog, error) {
	m.transition(r, StatePolling)

	rec := model.StabilityRecord{CurrentInterval: m.opts.SlowInterval}

	for {
		// Never sleep past the deadline
		wait := rec.CurrentInterval
		if remaining := r.deadline.Sub(m.clock.Now()); remaining < wait {
			wait = remaining
		}

		if err := m.sleep(ctx, r, wait); err != nil {
			return dlg, err
		}

		if err := m.checkDeadline(r); err != nil {
			return dlg, err
		}

		r.tick++

		m.reveal(r)
		next, err := m.host.ReadRefreshDialog(r.target)
		m.hide(r)

		obs := m.observe(r, &rec, next, err)
		if errors.Is(err, errdefs.ErrConnectionFailure) {
			return dlg, err
		}

		if err == nil && next.Exists {
			dlg = next
		}

		switch obs {
		case ObservedGone:
			r.res.AutoClosed = true
			m.log.Info("Refresh dialog closed by itself")
			return dlg, nil

		case ObservedInProgress:
			if err := m.sleep(ctx, r, m.opts.InProgressPause); err != nil {
				return dlg, err
			}

		case ObservedRepeat:
			if rec.ConsecutiveMatches >= stableMatches {
				r.res.ConfirmedAtTick = r.tick
				r.res.FinalContent = rec.LastContent
				m.transition(r, StateStabilityConfirming)
				m.log.Info("Refresh content is stable")
				return dlg, nil
			}
		}
	}
}

// observe applies one read to the stability record and logs the tick
func (m *Monitor) observe(r *run, rec *model.StabilityRecord, dlg model.RefreshDialog, err error) Observation {
	var obs Observation
	var marker string

	switch {
	case err != nil:
		obs = ObservedReadError
		rec.Reset()

	case !dlg.Exists:
		obs = ObservedGone

	case m.labels.IsCancelOnly(dlg.CloseLabel):
		obs = ObservedCancelOnly
		rec.Reset()

	case dlg.Summary == "":
		obs = ObservedEmpty
		rec.Reset()

	default:
		if mk, ok := m.labels.InProgress(dlg.Summary); ok {
			obs = ObservedInProgress
			marker = mk
			rec.Reset()
			break
		}

		if dlg.Summary == rec.LastContent {
			obs = ObservedRepeat
			rec.ConsecutiveMatches++
			if rec.ConsecutiveMatches == 1 {
				rec.CurrentInterval = m.opts.FastInterval
			}

			break
		}

		obs = ObservedChanged
		rec.LastContent = dlg.Summary
		rec.ConsecutiveMatches = 0
		rec.CurrentInterval = m.opts.SlowInterval
	}

	if obs != ObservedGone && obs != ObservedReadError {
		r.res.FinalContent = rec.LastContent
	}

	tr := TickRecord{
		Tick:        r.tick,
		Observation: obs,
		Content:     dlg.Summary,
		Marker:      marker,
		Matches:     rec.ConsecutiveMatches,
		Interval:    rec.CurrentInterval,
	}
	r.res.Ticks = append(r.res.Ticks, tr)

	attrs := []any{
		slog.Int("tick", tr.Tick),
		slog.String("observation", string(obs)),
		slog.Int("matches", tr.Matches),
		slog.Duration("interval", tr.Interval),
	}
	if marker != "" {
		attrs = append(attrs, slog.String("marker", marker))
	}
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
	}

	m.log.Debug("Poll tick", attrs...)

	return obs
}

// closeDialog presses the dialog's close control and waits briefly for it to
// go away. The outcome does not affect the run.
func (m *Monitor) closeDialog(ctx context.Context, r *run, dlg model.RefreshDialog) error {
	m.transition(r, StateClosing)
	m.reveal(r)
	defer m.hide(r)

	closed, err := m.host.CloseRefreshDialog(dlg)
	if err != nil {
		m.log.Warn("Could not close refresh dialog", slog.Any("error", err))
	} else if !closed {
		m.log.Debug("Refresh dialog was already gone")
		return nil
	}

	giveUp := m.clock.Now().Add(m.opts.CloseTimeout)

	for m.clock.Now().Before(giveUp) {
		if err := m.sleep(ctx, r, m.opts.DialogPoll); err != nil {
			return err
		}

		next, err := m.host.ReadRefreshDialog(r.target)
		if err == nil && !next.Exists {
			m.log.Debug("Refresh dialog closed")
			return nil
		}

		if err := m.checkDeadline(r); err != nil {
			return err
		}
	}

	m.log.Warn("Refresh dialog still open, continuing")
	return nil
}

// transition records a state change. A terminal state is final: later
// transitions are logged and dropped.
func (m *Monitor) transition(r *run, to State) {
	from := r.res.State
	if from.Terminal() {
		m.log.Debug("Ignoring transition out of terminal state",
			slog.String("from", string(from)),
			slog.String("to", string(to)))
		return
	}

	r.res.State = to

	at := m.clock.Now().Sub(r.start)
	r.res.Transitions = append(r.res.Transitions, Transition{From: from, To: to, Tick: r.tick, At: at})

	m.log.Debug("State transition",
		slog.String("from", string(from)),
		slog.String("to", string(to)),
		slog.Int("tick", r.tick),
		slog.Duration("at", at))
}

func (m *Monitor) checkDeadline(r *run) error {
	if r.deadline.IsZero() || m.clock.Now().Before(r.deadline) {
		return nil
	}

	return fmt.Errorf("%w: refresh still running after %s (state %s)", errdefs.ErrTimedOut, m.opts.Deadline, r.res.State)
}

func (m *Monitor) sleep(ctx context.Context, r *run, d time.Duration) error {
	if err := m.clock.Sleep(ctx, d); err != nil {
		return fmt.Errorf("refresh cancelled in %s: %w", r.res.State, err)
	}

	return nil
}

// reveal and hide are best effort; a failed placement only costs operator
// comfort, never the run
func (m *Monitor) reveal(r *run) {
	if err := m.vis.Reveal(r.target.Hwnd); err != nil {
		m.log.Debug("Reveal failed", slog.Any("error", err))
	}
}

func (m *Monitor) hide(r *run) {
	if err := m.vis.Hide(r.target.Hwnd); err != nil {
		m.log.Debug("Hide failed", slog.Any("error", err))
	}
}
