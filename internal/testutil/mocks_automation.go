package testutil

import (
	"github.com/Norgate-AV/pbirefresh/internal/windows"
)

// MockAutomation implements interfaces.AutomationTree over scripted element
// snapshots and records activations
type MockAutomation struct {
	Trees       map[uintptr][]windows.Element
	TreeErrors  map[uintptr]error
	ActivateErr error

	// OnActivate runs after every successful activation
	OnActivate func(hwnd uintptr, el windows.Element)

	ActivateCalls []ActivateCall
	ElementsCalls int
}

type ActivateCall struct {
	Hwnd    uintptr
	Element windows.Element
}

func NewMockAutomation() *MockAutomation {
	return &MockAutomation{
		Trees:      make(map[uintptr][]windows.Element),
		TreeErrors: make(map[uintptr]error),
	}
}

func (m *MockAutomation) Elements(hwnd uintptr) ([]windows.Element, error) {
	m.ElementsCalls++

	if err := m.TreeErrors[hwnd]; err != nil {
		return nil, err
	}

	return m.Trees[hwnd], nil
}

func (m *MockAutomation) Activate(hwnd uintptr, el windows.Element) error {
	m.ActivateCalls = append(m.ActivateCalls, ActivateCall{Hwnd: hwnd, Element: el})

	if m.ActivateErr != nil {
		return m.ActivateErr
	}

	if m.OnActivate != nil {
		m.OnActivate(hwnd, el)
	}

	return nil
}

// Activated returns the names of the activated elements, in order
func (m *MockAutomation) Activated() []string {
	out := make([]string, 0, len(m.ActivateCalls))
	for _, c := range m.ActivateCalls {
		out = append(out, c.Element.Name)
	}

	return out
}

// WithTree sets the snapshot of hwnd, numbering the elements in order
func (m *MockAutomation) WithTree(hwnd uintptr, elems ...windows.Element) *MockAutomation {
	tree := make([]windows.Element, len(elems))
	for i, el := range elems {
		el.Index = i
		tree[i] = el
	}

	m.Trees[hwnd] = tree
	return m
}

func (m *MockAutomation) WithTreeError(hwnd uintptr, err error) *MockAutomation {
	m.TreeErrors[hwnd] = err
	return m
}

func (m *MockAutomation) WithActivateError(err error) *MockAutomation {
	m.ActivateErr = err
	return m
}

// Control returns an enabled element of the given type
func Control(ct windows.ControlType, name, automationID string) windows.Element {
	return windows.Element{ControlType: ct, Name: name, AutomationID: automationID, Enabled: true}
}

// TabItem returns an enabled tab element
func TabItem(name, automationID string) windows.Element {
	return Control(windows.ControlTabItem, name, automationID)
}

// UIButton returns an enabled button element
func UIButton(name, automationID string) windows.Element {
	return Control(windows.ControlButton, name, automationID)
}

// Text returns a text element
func Text(name string) windows.Element {
	return Control(windows.ControlText, name, "")
}
