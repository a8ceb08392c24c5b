package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyEvent_LParam_KeyDown(t *testing.T) {
	t.Parallel()

	ev := KeyEvent{VirtualKey: 0x53, ScanCode: 0x1F, Transition: KeyDown, RepeatCount: 1}

	assert.Equal(t, uintptr(0x001F0001), ev.LParam())
	assert.False(t, ev.PreviousStateSet())
	assert.False(t, ev.TransitionSet())
}

func TestKeyEvent_LParam_KeyUp(t *testing.T) {
	t.Parallel()

	ev := KeyEvent{VirtualKey: 0x53, ScanCode: 0x1F, Transition: KeyUp, RepeatCount: 1}

	assert.Equal(t, uintptr(0xC01F0001), ev.LParam())
	assert.True(t, ev.PreviousStateSet())
	assert.True(t, ev.TransitionSet())
}

func TestKeyEvent_LParam_AltContext(t *testing.T) {
	t.Parallel()

	ev := KeyEvent{VirtualKey: 0x31, ScanCode: 0x02, Transition: KeyDown, RepeatCount: 1, AltDown: true}

	assert.Equal(t, uintptr(0x20020001), ev.LParam())
}

func TestRect_MoveToPreservesSize(t *testing.T) {
	t.Parallel()

	r := Rect{Left: 100, Top: 50, Right: 1380, Bottom: 770}
	moved := r.MoveTo(-30000, -30000)

	assert.Equal(t, int32(-30000), moved.Left)
	assert.Equal(t, int32(-30000), moved.Top)
	assert.Equal(t, r.Width(), moved.Width())
	assert.Equal(t, r.Height(), moved.Height())
}

func TestPlacement_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "foreground", Foreground.String())
	assert.Equal(t, "hidden", Hidden.String())
	assert.Equal(t, "Placement(7)", Placement(7).String())
}

func TestStabilityRecord_ResetKeepsContent(t *testing.T) {
	t.Parallel()

	rec := StabilityRecord{LastContent: "Loading A", ConsecutiveMatches: 1}
	rec.Reset()

	assert.Equal(t, 0, rec.ConsecutiveMatches)
	assert.Equal(t, "Loading A", rec.LastContent)
}
