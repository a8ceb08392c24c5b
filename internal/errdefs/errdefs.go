// Package errdefs defines the failures the workflow reports to its caller.
// Callers test for them with errors.Is; producers wrap them with context.
package errdefs

import "errors"

var (
	// ErrConnectionFailure means the target window or process could not be located.
	ErrConnectionFailure = errors.New("connection failure")

	// ErrControlNotFound means a UI element the workflow cannot proceed without is missing.
	ErrControlNotFound = errors.New("control not found")

	// ErrDialogNotObserved means the refresh progress dialog never appeared.
	ErrDialogNotObserved = errors.New("refresh dialog not observed")

	// ErrTimedOut means the global refresh deadline elapsed.
	ErrTimedOut = errors.New("timed out")

	// ErrInjectionFailure means the target handle was no longer valid at injection time.
	ErrInjectionFailure = errors.New("injection failure")
)

// Outcome maps an error returned by the workflow to its terminal outcome name.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "DONE"
	case errors.Is(err, ErrConnectionFailure):
		return "ConnectionFailure"
	case errors.Is(err, ErrControlNotFound):
		return "ControlNotFound"
	case errors.Is(err, ErrDialogNotObserved):
		return "DialogNotObserved"
	case errors.Is(err, ErrTimedOut):
		return "TimedOut"
	case errors.Is(err, ErrInjectionFailure):
		return "InjectionFailure"
	default:
		return "Failed"
	}
}
