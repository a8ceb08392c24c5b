package windows

import "fmt"

// WindowInfo describes a visible top-level window.
type WindowInfo struct {
	Hwnd      uintptr
	Title     string
	Pid       uint32
	ClassName string
}

// ChildInfo describes a child control of a window.
type ChildInfo struct {
	Hwnd      uintptr
	Parent    uintptr
	ClassName string
	Text      string
	ControlID int
	Visible   bool
	Items     []string // For ListBox controls, stores items directly
}

// ControlType is a UI Automation control type id.
type ControlType int32

const (
	ControlButton      ControlType = 50000
	ControlEdit        ControlType = 50004
	ControlListItem    ControlType = 50007
	ControlList        ControlType = 50008
	ControlTabItem     ControlType = 50019
	ControlText        ControlType = 50020
	ControlDataItem    ControlType = 50029
	ControlSplitButton ControlType = 50031
	ControlWindow      ControlType = 50032
	ControlPane        ControlType = 50033
)

var controlTypeNames = map[ControlType]string{
	ControlButton:      "Button",
	ControlEdit:        "Edit",
	ControlListItem:    "ListItem",
	ControlList:        "List",
	ControlTabItem:     "TabItem",
	ControlText:        "Text",
	ControlDataItem:    "DataItem",
	ControlSplitButton: "SplitButton",
	ControlWindow:      "Window",
	ControlPane:        "Pane",
}

func (c ControlType) String() string {
	if name, ok := controlTypeNames[c]; ok {
		return name
	}

	return fmt.Sprintf("ControlType(%d)", int32(c))
}

// Element is a snapshot of one node of a window's UI Automation tree.
// Index is its position in the snapshot it was read from.
type Element struct {
	Index        int
	ControlType  ControlType
	Name         string
	AutomationID string
	ClassName    string
	Enabled      bool
}
