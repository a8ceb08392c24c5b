// Package model holds the data exchanged between the visibility controller,
// the refresh monitor, crash recovery and the keystroke injector.
package model

import (
	"fmt"
	"time"
)

// TargetProcess identifies the host being driven. It is fixed once located;
// child windows are never cached because they come and go.
type TargetProcess struct {
	Pid       uint32
	Hwnd      uintptr
	Title     string
	ClassName string
}

func (t TargetProcess) String() string {
	return fmt.Sprintf("%q (pid=%d hwnd=0x%X)", t.Title, t.Pid, t.Hwnd)
}

// Placement is where a window currently sits from the operator's point of view.
type Placement int

const (
	Foreground Placement = iota
	Hidden
)

func (p Placement) String() string {
	switch p {
	case Foreground:
		return "foreground"
	case Hidden:
		return "hidden"
	default:
		return fmt.Sprintf("Placement(%d)", int(p))
	}
}

// Rect is a window rectangle in virtual-screen coordinates.
type Rect struct {
	Left, Top, Right, Bottom int32
}

func (r Rect) Width() int32  { return r.Right - r.Left }
func (r Rect) Height() int32 { return r.Bottom - r.Top }

// MoveTo returns r translated so its top-left corner is (x, y).
func (r Rect) MoveTo(x, y int32) Rect {
	return Rect{Left: x, Top: y, Right: x + r.Width(), Bottom: y + r.Height()}
}

// RefreshDialog is a snapshot of the host's refresh progress dialog.
// A zero value (Exists == false) means the dialog is gone.
type RefreshDialog struct {
	Exists     bool
	Hwnd       uintptr
	Title      string
	CloseLabel string
	Summary    string
}

// StabilityRecord tracks how long the dialog content has stayed the same.
type StabilityRecord struct {
	LastContent        string
	ConsecutiveMatches int
	CurrentInterval    time.Duration
}

// Reset drops accumulated confidence without forgetting the last content.
func (s *StabilityRecord) Reset() {
	s.ConsecutiveMatches = 0
}

// Transition is the direction of a key event.
type Transition int

const (
	KeyDown Transition = iota
	KeyUp
)

func (t Transition) String() string {
	if t == KeyUp {
		return "up"
	}

	return "down"
}

// KeyEvent is one synthetic keystroke. It is built per injection and never reused.
type KeyEvent struct {
	VirtualKey  uint16
	ScanCode    uint16
	Transition  Transition
	RepeatCount uint16
	AltDown     bool // context code: the Alt key is held while this key is pressed
}

// LParam packs the event into the keystroke message lParam layout:
//
//	bits 0-15  repeat count
//	bits 16-23 scan code
//	bit 29     context code (Alt held)
//	bit 30     previous key state
//	bit 31     transition state
func (k KeyEvent) LParam() uintptr {
	lp := uintptr(k.RepeatCount) | uintptr(k.ScanCode&0xFF)<<16

	if k.AltDown {
		lp |= 1 << 29
	}

	if k.Transition == KeyUp {
		lp |= 1<<30 | 1<<31
	}

	return lp
}

// PreviousStateSet reports whether bit 30 is set in the packed event.
func (k KeyEvent) PreviousStateSet() bool {
	return k.LParam()&(1<<30) != 0
}

// TransitionSet reports whether bit 31 is set in the packed event.
func (k KeyEvent) TransitionSet() bool {
	return k.LParam()&(1<<31) != 0
}
