package errdefs

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutcome(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"success", nil, "DONE"},
		{"connection", fmt.Errorf("locate %q: %w", "Sales", ErrConnectionFailure), "ConnectionFailure"},
		{"control", fmt.Errorf("refresh button: %w", ErrControlNotFound), "ControlNotFound"},
		{"dialog", fmt.Errorf("after 30s: %w", ErrDialogNotObserved), "DialogNotObserved"},
		{"timeout", fmt.Errorf("state POLLING: %w", ErrTimedOut), "TimedOut"},
		{"injection", fmt.Errorf("hwnd 0x10: %w", ErrInjectionFailure), "InjectionFailure"},
		{"other", context.Canceled, "Failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, Outcome(tt.err))
		})
	}
}

func TestSentinels_AreDistinct(t *testing.T) {
	t.Parallel()

	all := []error{ErrConnectionFailure, ErrControlNotFound, ErrDialogNotObserved, ErrTimedOut, ErrInjectionFailure}
	for i, a := range all {
		for j, b := range all {
			if i != j {
				assert.False(t, errors.Is(a, b), "%v must not match %v", a, b)
			}
		}
	}
}
