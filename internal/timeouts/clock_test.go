package timeouts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSleep_Elapses(t *testing.T) {
	t.Parallel()

	start := time.Now()
	err := Sleep(context.Background(), 20*time.Millisecond)

	assert.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestSleep_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Sleep(ctx, time.Hour)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSleep_NonPositiveDuration(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Sleep(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, -time.Second), context.Canceled)
}

func TestRealClock_Now(t *testing.T) {
	t.Parallel()

	before := time.Now()
	now := RealClock{}.Now()

	assert.False(t, now.Before(before))
}

func TestIntervals_Ordering(t *testing.T) {
	t.Parallel()

	assert.Less(t, FastPollInterval, SlowPollInterval, "confirmation cadence must be faster than progress cadence")
	assert.Less(t, DialogAppearPollInterval, DialogAppearTimeout)
	assert.Less(t, SlowPollInterval, RefreshDeadline)
}
