// Package injector forces a save in the host by posting hardware-plausible
// keystrokes, since the save control cannot be reached reliably from outside.
package injector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Norgate-AV/pbirefresh/internal/errdefs"
	"github.com/Norgate-AV/pbirefresh/internal/interfaces"
	"github.com/Norgate-AV/pbirefresh/internal/logger"
	"github.com/Norgate-AV/pbirefresh/internal/model"
	"github.com/Norgate-AV/pbirefresh/internal/timeouts"
)

// Keystroke messages
const (
	WM_KEYDOWN    = 0x0100
	WM_KEYUP      = 0x0101
	WM_SYSKEYDOWN = 0x0104
	WM_SYSKEYUP   = 0x0105
)

// Virtual-key codes
const (
	VK_CONTROL = 0x11
	VK_MENU    = 0x12
	VK_S       = 0x53
	VK_1       = 0x31
)

// Injector implements the save broadcast
type Injector struct {
	log   logger.LoggerInterface
	kb    interfaces.KeyboardInjector
	clock interfaces.Clock

	KeystrokeDelay     time.Duration
	ReinforcementDelay time.Duration
}

// New creates an injector with the default timings
func New(log logger.LoggerInterface, kb interfaces.KeyboardInjector, clock interfaces.Clock) *Injector {
	return &Injector{
		log:                log,
		kb:                 kb,
		clock:              clock,
		KeystrokeDelay:     timeouts.KeystrokeDelay,
		ReinforcementDelay: timeouts.SaveReinforcementDelay,
	}
}

// BuildKeyEvent returns a fresh key event for vk carrying its hardware scan
// code. Only release events set the previous-state and transition bits.
func (i *Injector) BuildKeyEvent(vk uint16, isDown bool) model.KeyEvent {
	ev := model.KeyEvent{
		VirtualKey:  vk,
		ScanCode:    i.kb.ScanCode(vk),
		Transition:  model.KeyUp,
		RepeatCount: 1,
	}

	if isDown {
		ev.Transition = model.KeyDown
	}

	return ev
}

// stroke is one message of a key sequence
type stroke struct {
	msg   uint32
	vk    uint16
	down  bool
	alt   bool
	label string
}

var saveSequence = []stroke{
	{WM_KEYDOWN, VK_CONTROL, true, false, "Ctrl down"},
	{WM_KEYDOWN, VK_S, true, false, "S down"},
	{WM_KEYUP, VK_S, false, false, "S up"},
	{WM_KEYUP, VK_CONTROL, false, false, "Ctrl up"},
}

// Alt+1 selects the first quick access toolbar command, Save by default
var quickAccessSequence = []stroke{
	{WM_SYSKEYDOWN, VK_MENU, true, true, "Alt down"},
	{WM_SYSKEYDOWN, VK_1, true, true, "1 down"},
	{WM_SYSKEYUP, VK_1, false, true, "1 up"},
	{WM_KEYUP, VK_MENU, false, false, "Alt up"},
}

// Save broadcasts Ctrl+S to the main window and each of its visible children,
// then reinforces with Alt+1 on the main window. Delivery is not confirmed;
// callers should allow a settle delay before relying on the save. It fails
// only when hwnd is no longer a window.
func (i *Injector) Save(ctx context.Context, hwnd uintptr) error {
	if !i.kb.IsWindow(hwnd) {
		return fmt.Errorf("%w: window 0x%X is gone", errdefs.ErrInjectionFailure, hwnd)
	}

	// Children come and go, so they are enumerated on every call
	targets := append([]uintptr{hwnd}, i.kb.VisibleChildren(hwnd)...)

	i.log.Debug("Broadcasting save shortcut", slog.Int("targets", len(targets)))

	for _, target := range targets {
		if err := i.send(ctx, target, saveSequence); err != nil {
			return err
		}
	}

	if err := i.clock.Sleep(ctx, i.ReinforcementDelay); err != nil {
		return fmt.Errorf("save interrupted: %w", err)
	}

	i.log.Debug("Sending quick access save")
	return i.send(ctx, hwnd, quickAccessSequence)
}

// send posts a whole sequence to one target before returning
func (i *Injector) send(ctx context.Context, target uintptr, seq []stroke) error {
	for n, s := range seq {
		ev := i.BuildKeyEvent(s.vk, s.down)
		ev.AltDown = s.alt

		if !i.kb.PostKeyMessage(target, s.msg, ev.VirtualKey, ev.LParam()) {
			i.log.Debug("Keystroke not delivered",
				slog.String("key", s.label),
				slog.Uint64("hwnd", uint64(target)))
		}

		if n == len(seq)-1 {
			break
		}

		if err := i.clock.Sleep(ctx, i.KeystrokeDelay); err != nil {
			return fmt.Errorf("save interrupted: %w", err)
		}
	}

	return nil
}
