package monitor

import "time"

// State is a step of the refresh workflow
type State string

const (
	StateIdle                State = "IDLE"
	StateTabSelected         State = "TAB_SELECTED"
	StateRefreshTriggered    State = "REFRESH_TRIGGERED"
	StateWaitingForDialog    State = "WAITING_FOR_DIALOG"
	StatePolling             State = "POLLING"
	StateStabilityConfirming State = "STABILITY_CONFIRMING"
	StateClosing             State = "CLOSING"
	StateRecovering          State = "RECOVERING"
	StateCooldown            State = "COOLDOWN"
	StateDone                State = "DONE"
	StateTimedOut            State = "TIMED_OUT"
)

// Terminal reports whether no transition leaves s
func (s State) Terminal() bool {
	return s == StateDone || s == StateTimedOut
}

// Observation classifies one read of the refresh dialog while polling
type Observation string

const (
	ObservedGone       Observation = "gone"
	ObservedCancelOnly Observation = "cancel_only"
	ObservedInProgress Observation = "in_progress"
	ObservedEmpty      Observation = "empty"
	ObservedChanged    Observation = "changed"
	ObservedRepeat     Observation = "repeat"
	ObservedReadError  Observation = "read_error"
)

// Transition is one recorded state change
type Transition struct {
	From State
	To   State
	Tick int
	At   time.Duration
}

// TickRecord is what one polling tick saw and did
type TickRecord struct {
	Tick        int
	Observation Observation
	Content     string
	Marker      string
	Matches     int
	Interval    time.Duration
}

// Result summarises a refresh run. It is returned alongside any error so
// callers can report how far the run got.
type Result struct {
	State           State
	Transitions     []Transition
	Ticks           []TickRecord
	TabSelected     bool
	ConfirmedAtTick int
	AutoClosed      bool
	CrashRecovered  bool
	FinalContent    string
	Elapsed         time.Duration
}
