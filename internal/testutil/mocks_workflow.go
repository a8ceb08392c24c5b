package testutil

import (
	"context"

	"github.com/Norgate-AV/pbirefresh/internal/model"
)

// DialogHwnd is the handle scripted dialogs report
const DialogHwnd uintptr = 0x2000

// Dialog returns a closable refresh dialog showing content
func Dialog(content string) model.RefreshDialog {
	return model.RefreshDialog{
		Exists:     true,
		Hwnd:       DialogHwnd,
		Title:      "Refresh",
		CloseLabel: "Close",
		Summary:    content,
	}
}

// CancelOnlyDialog returns a refresh dialog that can only be cancelled
func CancelOnlyDialog(content string) model.RefreshDialog {
	d := Dialog(content)
	d.CloseLabel = "Cancel"
	return d
}

// Gone returns the snapshot of a dialog that no longer exists
func Gone() model.RefreshDialog {
	return model.RefreshDialog{}
}

// MockHost implements interfaces.Host with a scripted sequence of dialog reads
type MockHost struct {
	TabFound   bool
	TabErr     error
	TriggerErr error

	// Reads is consumed one entry per ReadRefreshDialog call; once exhausted
	// the last entry repeats
	Reads      []model.RefreshDialog
	ReadErrors map[int]error

	CloseResult    bool
	CloseErr       error
	GoneAfterClose bool

	SelectHomeTabCalls  int
	TriggerRefreshCalls int
	ReadCalls           int
	ClosedDialogs       []model.RefreshDialog

	closed bool
}

func NewMockHost() *MockHost {
	return &MockHost{
		TabFound:       true,
		ReadErrors:     make(map[int]error),
		CloseResult:    true,
		GoneAfterClose: true,
	}
}

func (m *MockHost) SelectHomeTab(hwnd uintptr) (bool, error) {
	m.SelectHomeTabCalls++
	return m.TabFound, m.TabErr
}

func (m *MockHost) TriggerRefresh(hwnd uintptr) error {
	m.TriggerRefreshCalls++
	return m.TriggerErr
}

func (m *MockHost) ReadRefreshDialog(target model.TargetProcess) (model.RefreshDialog, error) {
	idx := m.ReadCalls
	m.ReadCalls++

	if err, ok := m.ReadErrors[idx]; ok {
		return model.RefreshDialog{}, err
	}

	if m.closed && m.GoneAfterClose {
		return Gone(), nil
	}

	if len(m.Reads) == 0 {
		return Gone(), nil
	}

	if idx >= len(m.Reads) {
		idx = len(m.Reads) - 1
	}

	return m.Reads[idx], nil
}

func (m *MockHost) CloseRefreshDialog(dlg model.RefreshDialog) (bool, error) {
	m.ClosedDialogs = append(m.ClosedDialogs, dlg)
	if m.CloseResult && m.CloseErr == nil {
		m.closed = true
	}

	return m.CloseResult, m.CloseErr
}

// Helper methods for fluent configuration
func (m *MockHost) WithReads(reads ...model.RefreshDialog) *MockHost {
	m.Reads = reads
	return m
}

func (m *MockHost) WithReadError(idx int, err error) *MockHost {
	m.ReadErrors[idx] = err
	return m
}

func (m *MockHost) WithTab(found bool, err error) *MockHost {
	m.TabFound = found
	m.TabErr = err
	return m
}

func (m *MockHost) WithTriggerError(err error) *MockHost {
	m.TriggerErr = err
	return m
}

func (m *MockHost) WithGoneAfterClose(gone bool) *MockHost {
	m.GoneAfterClose = gone
	return m
}

// MockVisibility implements interfaces.Visibility and records the order of
// hide and reveal calls
type MockVisibility struct {
	HideErr   error
	RevealErr error
	Events    []string
}

func NewMockVisibility() *MockVisibility {
	return &MockVisibility{}
}

func (m *MockVisibility) Hide(hwnd uintptr) error {
	m.Events = append(m.Events, "hide")
	return m.HideErr
}

func (m *MockVisibility) Reveal(hwnd uintptr) error {
	m.Events = append(m.Events, "reveal")
	return m.RevealErr
}

// Count returns how many times event was recorded
func (m *MockVisibility) Count(event string) int {
	n := 0
	for _, e := range m.Events {
		if e == event {
			n++
		}
	}

	return n
}

// MockRecoverer implements interfaces.CrashRecoverer
type MockRecoverer struct {
	Result bool
	Calls  int
}

func NewMockRecoverer() *MockRecoverer {
	return &MockRecoverer{}
}

func (m *MockRecoverer) Run(ctx context.Context, host uintptr) bool {
	m.Calls++
	return m.Result
}

func (m *MockRecoverer) WithResult(result bool) *MockRecoverer {
	m.Result = result
	return m
}
