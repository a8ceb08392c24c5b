package pbi

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Norgate-AV/pbirefresh/internal/errdefs"
	"github.com/Norgate-AV/pbirefresh/internal/labels"
	"github.com/Norgate-AV/pbirefresh/internal/logger"
	"github.com/Norgate-AV/pbirefresh/internal/model"
	"github.com/Norgate-AV/pbirefresh/internal/testutil"
	"github.com/Norgate-AV/pbirefresh/internal/windows"
)

const (
	hostHwnd   uintptr = 0x100
	hostPid    uint32  = 4242
	dialogHwnd uintptr = 0x200
)

func newTestClient(mock *testutil.MockWindows) *Client {
	return newTreeClient(mock, testutil.NewMockAutomation())
}

func newTreeClient(mock *testutil.MockWindows, tree *testutil.MockAutomation) *Client {
	return NewClient(logger.NewNoOpLogger(), mock, mock, tree, labels.Default())
}

func hostTarget() model.TargetProcess {
	return model.TargetProcess{Pid: hostPid, Hwnd: hostHwnd, Title: "Sales - Power BI Desktop"}
}

func TestTitleFromArg(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		arg  string
		want string
	}{
		{"plain substring", "Sales", "Sales"},
		{"substring with spaces", "Sales Report", "Sales Report"},
		{"windows path", `C:\Reports\Sales Q1.pbix`, "Sales Q1"},
		{"forward slash path", "reports/Sales.pbix", "Sales"},
		{"bare file name", "Sales.PBIX", "Sales"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, TitleFromArg(tt.arg))
		})
	}
}

func TestLocate_CaseInsensitiveSubstring(t *testing.T) {
	t.Parallel()

	mock := testutil.NewMockWindows().
		WithWindow(0x10, 1, "Inbox - Outlook", "rctrl_renwnd32").
		WithWindow(hostHwnd, hostPid, "Sales - Power BI Desktop", "WindowsForms10.Window")

	target, err := newTestClient(mock).Locate("sales", false)

	require.NoError(t, err)
	assert.Equal(t, hostHwnd, target.Hwnd)
	assert.Equal(t, hostPid, target.Pid)
}

func TestLocate_NotFound(t *testing.T) {
	t.Parallel()

	mock := testutil.NewMockWindows().WithWindow(0x10, 1, "Notepad", "Notepad")

	_, err := newTestClient(mock).Locate("Sales", false)

	require.Error(t, err)
	assert.True(t, errors.Is(err, errdefs.ErrConnectionFailure))
}

func TestLocate_EmptySubstring(t *testing.T) {
	t.Parallel()

	mock := testutil.NewMockWindows().WithWindow(hostHwnd, hostPid, "Sales - Power BI Desktop", "")

	_, err := newTestClient(mock).Locate("  ", false)

	assert.ErrorIs(t, err, errdefs.ErrConnectionFailure)
}

func TestLocate_SkipsConsoleWindows(t *testing.T) {
	t.Parallel()

	mock := testutil.NewMockWindows().
		WithWindow(0x10, 1, `pbirefresh.exe Sales`, "ConsoleWindowClass").
		WithWindow(hostHwnd, hostPid, "Sales - Power BI Desktop", "WindowsForms10.Window")

	target, err := newTestClient(mock).Locate("Sales", false)

	require.NoError(t, err)
	assert.Equal(t, hostHwnd, target.Hwnd)
}

func TestLocate_PrefersHostHint(t *testing.T) {
	t.Parallel()

	mock := testutil.NewMockWindows().
		WithWindow(0x10, 1, "Sales.xlsx - Excel", "XLMAIN").
		WithWindow(hostHwnd, hostPid, "Sales - Power BI Desktop", "WindowsForms10.Window")

	target, err := newTestClient(mock).Locate("Sales", false)

	require.NoError(t, err)
	assert.Equal(t, hostHwnd, target.Hwnd, "Host-hinted title should win over earlier match")
}

func TestLocate_FirstMatchWithoutHint(t *testing.T) {
	t.Parallel()

	mock := testutil.NewMockWindows().
		WithWindow(0x10, 1, "Sales notes", "Notepad").
		WithWindow(0x20, 2, "Sales.xlsx - Excel", "XLMAIN")

	target, err := newTestClient(mock).Locate("Sales", false)

	require.NoError(t, err)
	assert.Equal(t, uintptr(0x10), target.Hwnd)
}

func TestLocate_StrictRejectsSeveralProcesses(t *testing.T) {
	t.Parallel()

	mock := testutil.NewMockWindows().
		WithWindow(0x10, 1, "Sales - Power BI Desktop", "").
		WithWindow(0x20, 2, "Sales - Power BI Desktop", "")

	_, err := newTestClient(mock).Locate("Sales", true)

	require.Error(t, err)
	assert.ErrorIs(t, err, errdefs.ErrConnectionFailure)
	assert.Contains(t, err.Error(), "2 processes")
}

func TestLocate_StrictAllowsSeveralWindowsOfOneProcess(t *testing.T) {
	t.Parallel()

	mock := testutil.NewMockWindows().
		WithWindow(hostHwnd, hostPid, "Sales - Power BI Desktop", "").
		WithWindow(0x20, hostPid, "Sales - Refresh", "")

	target, err := newTestClient(mock).Locate("Sales", true)

	require.NoError(t, err)
	assert.Equal(t, hostHwnd, target.Hwnd)
}

func TestSelectHomeTab(t *testing.T) {
	t.Parallel()

	t.Run("selects tab by automation id", func(t *testing.T) {
		t.Parallel()

		tree := testutil.NewMockAutomation().WithTree(hostHwnd,
			testutil.TabItem("File", "file"),
			testutil.TabItem("Start", "home"),
		)

		found, err := newTreeClient(testutil.NewMockWindows(), tree).SelectHomeTab(hostHwnd)

		require.NoError(t, err)
		assert.True(t, found)
		require.Len(t, tree.ActivateCalls, 1)
		assert.Equal(t, hostHwnd, tree.ActivateCalls[0].Hwnd)
		assert.Equal(t, 1, tree.ActivateCalls[0].Element.Index)
	})

	t.Run("matches translated label", func(t *testing.T) {
		t.Parallel()

		tree := testutil.NewMockAutomation().WithTree(hostHwnd, testutil.TabItem("Página Inicial", ""))

		found, err := newTreeClient(testutil.NewMockWindows(), tree).SelectHomeTab(hostHwnd)

		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, []string{"Página Inicial"}, tree.Activated())
	})

	t.Run("only tab items qualify", func(t *testing.T) {
		t.Parallel()

		tree := testutil.NewMockAutomation().WithTree(hostHwnd,
			testutil.UIButton("Home", "home"),
			testutil.TabItem("View", "view"),
		)

		found, err := newTreeClient(testutil.NewMockWindows(), tree).SelectHomeTab(hostHwnd)

		require.NoError(t, err)
		assert.False(t, found)
		assert.Empty(t, tree.ActivateCalls)
	})

	t.Run("activation failure is an error", func(t *testing.T) {
		t.Parallel()

		tree := testutil.NewMockAutomation().
			WithActivateError(errors.New("element not available")).
			WithTree(hostHwnd, testutil.TabItem("Home", "home"))

		found, err := newTreeClient(testutil.NewMockWindows(), tree).SelectHomeTab(hostHwnd)

		assert.True(t, found)
		assert.ErrorContains(t, err, "element not available")
	})

	t.Run("unreadable tree is an error", func(t *testing.T) {
		t.Parallel()

		tree := testutil.NewMockAutomation().WithTreeError(hostHwnd, errors.New("access denied"))

		found, err := newTreeClient(testutil.NewMockWindows(), tree).SelectHomeTab(hostHwnd)

		assert.False(t, found)
		assert.Error(t, err)
	})

	t.Run("gone window is an error", func(t *testing.T) {
		t.Parallel()

		tree := testutil.NewMockAutomation()

		found, err := newTreeClient(testutil.NewMockWindows().WithGone(hostHwnd), tree).SelectHomeTab(hostHwnd)

		assert.False(t, found)
		assert.Error(t, err)
		assert.Zero(t, tree.ElementsCalls)
	})
}

func TestTriggerRefresh(t *testing.T) {
	t.Parallel()

	t.Run("invokes refresh by automation id", func(t *testing.T) {
		t.Parallel()

		tree := testutil.NewMockAutomation().WithTree(hostHwnd,
			testutil.UIButton("Transform data", "transformData"),
			testutil.UIButton("Aktualisieren", "refreshQueries"),
		)

		require.NoError(t, newTreeClient(testutil.NewMockWindows(), tree).TriggerRefresh(hostHwnd))
		assert.Equal(t, []string{"Aktualisieren"}, tree.Activated())
	})

	t.Run("invokes refresh by label", func(t *testing.T) {
		t.Parallel()

		tree := testutil.NewMockAutomation().WithTree(hostHwnd,
			testutil.Text("Refresh"),
			testutil.Control(windows.ControlSplitButton, "Refresh", ""),
		)

		require.NoError(t, newTreeClient(testutil.NewMockWindows(), tree).TriggerRefresh(hostHwnd))
		require.Len(t, tree.ActivateCalls, 1)
		assert.Equal(t, windows.ControlSplitButton, tree.ActivateCalls[0].Element.ControlType)
	})

	t.Run("does not match a longer label", func(t *testing.T) {
		t.Parallel()

		tree := testutil.NewMockAutomation().WithTree(hostHwnd, testutil.UIButton("Refresh visuals", "refreshVisuals"))

		err := newTreeClient(testutil.NewMockWindows(), tree).TriggerRefresh(hostHwnd)

		assert.ErrorIs(t, err, errdefs.ErrControlNotFound)
	})

	t.Run("disabled control", func(t *testing.T) {
		t.Parallel()

		disabled := testutil.UIButton("Refresh", "refreshQueries")
		disabled.Enabled = false
		tree := testutil.NewMockAutomation().WithTree(hostHwnd, disabled)

		err := newTreeClient(testutil.NewMockWindows(), tree).TriggerRefresh(hostHwnd)

		assert.ErrorIs(t, err, errdefs.ErrControlNotFound)
		assert.ErrorContains(t, err, "disabled")
		assert.Empty(t, tree.ActivateCalls)
	})

	t.Run("missing control", func(t *testing.T) {
		t.Parallel()

		err := newTestClient(testutil.NewMockWindows()).TriggerRefresh(hostHwnd)

		require.Error(t, err)
		assert.ErrorIs(t, err, errdefs.ErrControlNotFound)
	})

	t.Run("unreadable tree", func(t *testing.T) {
		t.Parallel()

		tree := testutil.NewMockAutomation().WithTreeError(hostHwnd, errors.New("ElementFromHandle failed"))

		err := newTreeClient(testutil.NewMockWindows(), tree).TriggerRefresh(hostHwnd)

		assert.ErrorIs(t, err, errdefs.ErrControlNotFound)
		assert.ErrorContains(t, err, "ElementFromHandle failed")
	})

	t.Run("gone window", func(t *testing.T) {
		t.Parallel()

		err := newTestClient(testutil.NewMockWindows().WithGone(hostHwnd)).TriggerRefresh(hostHwnd)

		assert.ErrorIs(t, err, errdefs.ErrConnectionFailure)
	})
}

func TestReadRefreshDialog_Gone(t *testing.T) {
	t.Parallel()

	mock := testutil.NewMockWindows().
		WithWindow(hostHwnd, hostPid, "Sales - Power BI Desktop", "").
		WithWindow(0x300, 99, "Refresh", "") // other process

	dlg, err := newTestClient(mock).ReadRefreshDialog(hostTarget())

	require.NoError(t, err)
	assert.False(t, dlg.Exists)
}

func TestReadRefreshDialog_ReadsContentAndCloseLabel(t *testing.T) {
	t.Parallel()

	mock := testutil.NewMockWindows().
		WithWindow(hostHwnd, hostPid, "Sales - Power BI Desktop", "").
		WithWindow(dialogHwnd, hostPid, "Refresh", "HwndWrapper[PBIDesktop.exe;;]")
	tree := testutil.NewMockAutomation().WithTree(dialogHwnd,
		testutil.Text("Sales"),
		testutil.Control(windows.ControlListItem, "Customers  1,024 rows", ""),
		testutil.Text("Customers  1,024 rows"),
		testutil.Control(windows.ControlListItem, "Orders  88,120 rows", ""),
		testutil.UIButton("Cancel", ""),
		testutil.UIButton("Close", ""),
		testutil.Control(windows.ControlPane, "layout", ""),
	)

	dlg, err := newTreeClient(mock, tree).ReadRefreshDialog(hostTarget())

	require.NoError(t, err)
	assert.True(t, dlg.Exists)
	assert.Equal(t, dialogHwnd, dlg.Hwnd)
	assert.Equal(t, "Close", dlg.CloseLabel, "Close should outrank cancel")
	assert.Equal(t, "Sales\nCustomers  1,024 rows\nOrders  88,120 rows", dlg.Summary)
}

func TestReadRefreshDialog_CancelOnly(t *testing.T) {
	t.Parallel()

	mock := testutil.NewMockWindows().WithWindow(dialogHwnd, hostPid, "Atualizar", "")
	tree := testutil.NewMockAutomation().WithTree(dialogHwnd,
		testutil.Text("Carregando dados"),
		testutil.UIButton("Cancelar", ""),
	)

	dlg, err := newTreeClient(mock, tree).ReadRefreshDialog(hostTarget())

	require.NoError(t, err)
	assert.True(t, dlg.Exists)
	assert.Equal(t, "Cancelar", dlg.CloseLabel)
	assert.Equal(t, "Carregando dados", dlg.Summary)
}

func TestReadRefreshDialog_UnreadableDialog(t *testing.T) {
	t.Parallel()

	mock := testutil.NewMockWindows().WithWindow(dialogHwnd, hostPid, "Refresh", "")
	tree := testutil.NewMockAutomation().WithTreeError(dialogHwnd, errors.New("element not available"))

	_, err := newTreeClient(mock, tree).ReadRefreshDialog(hostTarget())

	require.Error(t, err)
	assert.NotErrorIs(t, err, errdefs.ErrConnectionFailure, "An unreadable dialog is a transient read error")
}

func TestReadRefreshDialog_IgnoresHostWindow(t *testing.T) {
	t.Parallel()

	// The host title itself may contain a refresh label
	target := model.TargetProcess{Pid: hostPid, Hwnd: hostHwnd, Title: "Refresh KPIs - Power BI Desktop"}
	mock := testutil.NewMockWindows().WithWindow(hostHwnd, hostPid, target.Title, "")

	dlg, err := newTestClient(mock).ReadRefreshDialog(target)

	require.NoError(t, err)
	assert.False(t, dlg.Exists)
}

func TestReadRefreshDialog_HostGone(t *testing.T) {
	t.Parallel()

	mock := testutil.NewMockWindows().WithGone(hostHwnd)

	_, err := newTestClient(mock).ReadRefreshDialog(hostTarget())

	assert.ErrorIs(t, err, errdefs.ErrConnectionFailure)
}

func TestCloseRefreshDialog(t *testing.T) {
	t.Parallel()

	dlg := model.RefreshDialog{Exists: true, Hwnd: dialogHwnd, Title: "Refresh", CloseLabel: "Close"}

	t.Run("invokes close button", func(t *testing.T) {
		t.Parallel()

		mock := testutil.NewMockWindows()
		tree := testutil.NewMockAutomation().WithTree(dialogHwnd,
			testutil.UIButton("Cancel", ""),
			testutil.UIButton("Close", ""),
		)

		closed, err := newTreeClient(mock, tree).CloseRefreshDialog(dlg)

		require.NoError(t, err)
		assert.True(t, closed)
		assert.Equal(t, []string{"Close"}, tree.Activated())
		assert.Empty(t, mock.CloseWindowCalls)
	})

	t.Run("falls back to WM_CLOSE when the button is missing", func(t *testing.T) {
		t.Parallel()

		mock := testutil.NewMockWindows()
		tree := testutil.NewMockAutomation().WithTree(dialogHwnd, testutil.UIButton("Cancel", ""))

		closed, err := newTreeClient(mock, tree).CloseRefreshDialog(dlg)

		require.NoError(t, err)
		assert.True(t, closed)
		assert.Empty(t, tree.ActivateCalls)
		assert.Equal(t, []testutil.CloseWindowCall{{Hwnd: dialogHwnd, Title: "Refresh"}}, mock.CloseWindowCalls)
	})

	t.Run("falls back to WM_CLOSE when invoke fails", func(t *testing.T) {
		t.Parallel()

		mock := testutil.NewMockWindows()
		tree := testutil.NewMockAutomation().
			WithActivateError(errors.New("element not enabled")).
			WithTree(dialogHwnd, testutil.UIButton("Close", ""))

		closed, err := newTreeClient(mock, tree).CloseRefreshDialog(dlg)

		require.NoError(t, err)
		assert.True(t, closed)
		assert.Len(t, mock.CloseWindowCalls, 1)
	})

	t.Run("nothing to close", func(t *testing.T) {
		t.Parallel()

		mock := testutil.NewMockWindows()
		tree := testutil.NewMockAutomation()

		closed, err := newTreeClient(mock, tree).CloseRefreshDialog(model.RefreshDialog{})

		require.NoError(t, err)
		assert.False(t, closed)
		assert.Empty(t, tree.ActivateCalls)
		assert.Empty(t, mock.CloseWindowCalls)
	})
}
