package injector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Norgate-AV/pbirefresh/internal/errdefs"
	"github.com/Norgate-AV/pbirefresh/internal/logger"
	"github.com/Norgate-AV/pbirefresh/internal/model"
	"github.com/Norgate-AV/pbirefresh/internal/testutil"
)

const (
	mainHwnd   uintptr = 0x100
	childHwnd1 uintptr = 0x101
	childHwnd2 uintptr = 0x102
)

func newInjector(kb *testutil.MockKeyboard, clock *testutil.FakeClock) *Injector {
	return New(logger.NewNoOpLogger(), kb, clock)
}

func TestBuildKeyEvent(t *testing.T) {
	t.Parallel()

	inj := newInjector(testutil.NewMockKeyboard(), testutil.NewFakeClock())

	for _, vk := range []uint16{VK_CONTROL, VK_MENU, VK_S, VK_1} {
		down := inj.BuildKeyEvent(vk, true)
		up := inj.BuildKeyEvent(vk, false)

		assert.Equal(t, model.KeyDown, down.Transition)
		assert.False(t, down.PreviousStateSet(), "key down must not set previous state (vk 0x%X)", vk)
		assert.False(t, down.TransitionSet(), "key down must not set transition (vk 0x%X)", vk)

		assert.Equal(t, model.KeyUp, up.Transition)
		assert.True(t, up.PreviousStateSet(), "key up must set previous state (vk 0x%X)", vk)
		assert.True(t, up.TransitionSet(), "key up must set transition (vk 0x%X)", vk)

		assert.Equal(t, uint16(1), down.RepeatCount)
		assert.NotZero(t, down.ScanCode)
	}
}

func TestBuildKeyEvent_TranslatesScanCode(t *testing.T) {
	t.Parallel()

	inj := newInjector(testutil.NewMockKeyboard(), testutil.NewFakeClock())

	ev := inj.BuildKeyEvent(VK_S, true)

	assert.Equal(t, uint16(VK_S), ev.VirtualKey)
	assert.Equal(t, uint16(0x1F), ev.ScanCode)
	assert.Equal(t, uintptr(0x001F0001), ev.LParam())
	assert.Equal(t, uintptr(0xC01F0001), inj.BuildKeyEvent(VK_S, false).LParam())
}

func TestSave_BroadcastsToMainAndChildren(t *testing.T) {
	t.Parallel()

	kb := testutil.NewMockKeyboard().WithChildren(mainHwnd, childHwnd1, childHwnd2)
	clock := testutil.NewFakeClock()

	require.NoError(t, newInjector(kb, clock).Save(context.Background(), mainHwnd))

	require.Len(t, kb.Posts, 16)

	ctrlS := []testutil.KeyPost{
		{Msg: WM_KEYDOWN, VK: VK_CONTROL, LParam: 0x001D0001},
		{Msg: WM_KEYDOWN, VK: VK_S, LParam: 0x001F0001},
		{Msg: WM_KEYUP, VK: VK_S, LParam: 0xC01F0001},
		{Msg: WM_KEYUP, VK: VK_CONTROL, LParam: 0xC01D0001},
	}

	// The whole sequence completes on one target before the next one starts
	for i, target := range []uintptr{mainHwnd, childHwnd1, childHwnd2} {
		for j, want := range ctrlS {
			want.Hwnd = target
			assert.Equal(t, want, kb.Posts[i*4+j], "target %d post %d", i, j)
		}
	}

	altOne := []testutil.KeyPost{
		{Hwnd: mainHwnd, Msg: WM_SYSKEYDOWN, VK: VK_MENU, LParam: 0x20380001},
		{Hwnd: mainHwnd, Msg: WM_SYSKEYDOWN, VK: VK_1, LParam: 0x20020001},
		{Hwnd: mainHwnd, Msg: WM_SYSKEYUP, VK: VK_1, LParam: 0xE0020001},
		{Hwnd: mainHwnd, Msg: WM_KEYUP, VK: VK_MENU, LParam: 0xC0380001},
	}
	assert.Equal(t, altOne, kb.Posts[12:], "Reinforcement goes to the main window only")
}

func TestSave_Timing(t *testing.T) {
	t.Parallel()

	kb := testutil.NewMockKeyboard().WithChildren(mainHwnd, childHwnd1)
	clock := testutil.NewFakeClock()

	require.NoError(t, newInjector(kb, clock).Save(context.Background(), mainHwnd))

	// three gaps per sequence, two Ctrl+S targets plus Alt+1
	assert.Equal(t, 9, clock.SleepCount(50*time.Millisecond))
	assert.Equal(t, 1, clock.SleepCount(500*time.Millisecond))
}

func TestSave_EnumeratesChildrenOnEveryCall(t *testing.T) {
	t.Parallel()

	kb := testutil.NewMockKeyboard()
	inj := newInjector(kb, testutil.NewFakeClock())

	require.NoError(t, inj.Save(context.Background(), mainHwnd))
	assert.Len(t, kb.Posts, 8)

	kb.WithChildren(mainHwnd, childHwnd1)
	kb.Posts = nil

	require.NoError(t, inj.Save(context.Background(), mainHwnd))
	assert.Len(t, kb.Posts, 12)
	assert.Len(t, kb.PostsTo(childHwnd1), 4)
	assert.Equal(t, 2, kb.ChildrenCalls)
}

func TestSave_InvalidWindow(t *testing.T) {
	t.Parallel()

	kb := testutil.NewMockKeyboard().WithGone(mainHwnd)

	err := newInjector(kb, testutil.NewFakeClock()).Save(context.Background(), mainHwnd)

	require.Error(t, err)
	assert.ErrorIs(t, err, errdefs.ErrInjectionFailure)
	assert.Equal(t, "InjectionFailure", errdefs.Outcome(err))
	assert.Empty(t, kb.Posts)
}

func TestSave_UndeliveredKeystrokesStillSucceed(t *testing.T) {
	t.Parallel()

	kb := testutil.NewMockKeyboard().WithPostResult(false)

	err := newInjector(kb, testutil.NewFakeClock()).Save(context.Background(), mainHwnd)

	assert.NoError(t, err)
	assert.Len(t, kb.Posts, 8)
}

func TestSave_Cancelled(t *testing.T) {
	t.Parallel()

	kb := testutil.NewMockKeyboard()
	ctx, cancel := context.WithCancel(context.Background())
	clock := testutil.NewFakeClock()
	clock.OnSleep = func(time.Duration) { cancel() }

	err := newInjector(kb, clock).Save(ctx, mainHwnd)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, kb.Posts, 1, "Nothing is posted after cancellation")
}
