//go:build integration && windows

package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Norgate-AV/pbirefresh/internal/errdefs"
	"github.com/Norgate-AV/pbirefresh/internal/injector"
	"github.com/Norgate-AV/pbirefresh/internal/labels"
	"github.com/Norgate-AV/pbirefresh/internal/logger"
	"github.com/Norgate-AV/pbirefresh/internal/model"
	"github.com/Norgate-AV/pbirefresh/internal/monitor"
	"github.com/Norgate-AV/pbirefresh/internal/pbi"
	"github.com/Norgate-AV/pbirefresh/internal/recovery"
	"github.com/Norgate-AV/pbirefresh/internal/timeouts"
	"github.com/Norgate-AV/pbirefresh/internal/visibility"
	"github.com/Norgate-AV/pbirefresh/internal/windows"
)

// PBI_TEST_FILE names a .pbix whose refresh finishes in a few minutes and
// that is safe to overwrite.
const fixtureEnv = "PBI_TEST_FILE"

type stack struct {
	log    logger.LoggerInterface
	api    *windows.WindowsAPI
	client *pbi.Client
	vis    *visibility.Controller
	labels *labels.Matcher
}

func newStack(t *testing.T) *stack {
	t.Helper()

	log, err := logger.NewLogger(logger.LoggerOptions{Verbose: testing.Verbose()})
	require.NoError(t, err, "Should create logger")
	t.Cleanup(log.Close)

	api := windows.NewWindowsAPI(log)
	m := labels.Default()

	return &stack{
		log:    log,
		api:    api,
		client: pbi.NewClient(log, api, api, api, m),
		vis:    visibility.NewController(log, api),
		labels: m,
	}
}

// TestIntegration_LocateMissingWindow does not need Power BI Desktop
func TestIntegration_LocateMissingWindow(t *testing.T) {
	s := newStack(t)

	_, err := s.client.Locate("pbirefresh-"+uuid.NewString(), false)

	assert.ErrorIs(t, err, errdefs.ErrConnectionFailure)
}

func TestIntegration_HideAndReveal(t *testing.T) {
	s := newStack(t)
	target := openFixture(t, s)

	require.NoError(t, s.vis.Hide(target.Hwnd))
	assert.Equal(t, model.Hidden, s.vis.Placement(target.Hwnd), "Window should be off-screen")

	// The automation tree stays reachable while hidden
	found, err := s.client.SelectHomeTab(target.Hwnd)
	assert.NoError(t, err)
	t.Logf("Home tab found while hidden: %v", found)

	require.NoError(t, s.vis.Hide(target.Hwnd), "Hide should be idempotent")

	require.NoError(t, s.vis.Reveal(target.Hwnd))
	assert.Equal(t, model.Foreground, s.vis.Placement(target.Hwnd), "Window should be back on-screen")
}

// The ribbon is WPF: its controls are only visible through UI Automation
func TestIntegration_AutomationTreeExposesRibbon(t *testing.T) {
	s := newStack(t)
	target := openFixture(t, s)

	elems, err := s.api.Elements(target.Hwnd)
	require.NoError(t, err, "Should read the automation tree")
	require.NotEmpty(t, elems)

	var home, refresh bool
	for _, el := range elems {
		switch el.ControlType {
		case windows.ControlTabItem:
			home = home || s.labels.IsHomeTab(el.Name, el.AutomationID)
		case windows.ControlButton, windows.ControlSplitButton:
			refresh = refresh || s.labels.IsRefresh(el.Name, el.AutomationID)
		}
	}

	assert.True(t, home, "Home tab should be in the automation tree")
	assert.True(t, refresh, "Refresh button should be in the automation tree")
	t.Logf("%d automation elements, %d child windows", len(elems), len(s.api.CollectChildInfos(target.Hwnd)))
}

func TestIntegration_RefreshAndSave(t *testing.T) {
	if !windows.IsElevated() {
		t.Log("Not elevated; an elevated Power BI Desktop will ignore the save shortcut")
	}

	s := newStack(t)
	target := openFixture(t, s)
	clock := timeouts.RealClock{}

	rec := recovery.New(s.log, s.api, s.api, s.api, s.vis, s.labels, clock)
	opts := monitor.DefaultOptions()
	opts.Deadline = 20 * time.Minute
	opts.SlowInterval = 15 * time.Second
	mon := monitor.New(s.log, s.client, s.vis, rec, s.labels, clock, opts)

	require.NoError(t, s.vis.Hide(target.Hwnd))
	defer func() { _ = s.vis.Reveal(target.Hwnd) }()

	res, err := mon.Refresh(context.Background(), target)
	require.NoError(t, err, "Refresh should finish, ended in %s", res.State)
	assert.Equal(t, monitor.StateDone, res.State)
	t.Logf("Refresh finished after %s in %d ticks (auto-closed: %v)", res.Elapsed, len(res.Ticks), res.AutoClosed)

	inj := injector.New(s.log, s.api, clock)
	require.NoError(t, inj.Save(context.Background(), target.Hwnd))

	time.Sleep(timeouts.SaveSettleDelay)
}

// openFixture launches Power BI Desktop with the fixture and closes it when
// the test ends
func openFixture(t *testing.T, s *stack) model.TargetProcess {
	t.Helper()

	file := os.Getenv(fixtureEnv)
	if file == "" {
		t.Skipf("%s not set", fixtureEnv)
	}

	if err := pbi.ValidateInstallation(); err != nil {
		t.Skipf("Power BI Desktop not available: %v", err)
	}

	absPath, err := filepath.Abs(file)
	require.NoError(t, err, "Should resolve absolute path")
	require.FileExists(t, absPath)

	t.Logf("Opening Power BI Desktop with file: %s", absPath)
	pid, err := s.client.Launch(absPath)
	require.NoError(t, err, "Should launch Power BI Desktop")
	t.Logf("Power BI Desktop process started with PID: %d", pid)

	ctx := context.Background()
	title := pbi.TitleFromArg(absPath)

	target, found := s.client.WaitForAppear(ctx, title, timeouts.WindowAppearTimeout)
	require.True(t, found, "Power BI Desktop should appear within timeout")

	t.Cleanup(func() {
		t.Log("Cleaning up Power BI Desktop...")
		s.client.Close(target.Hwnd, target.Pid)
		time.Sleep(timeouts.CleanupDelay)
	})

	require.True(t, s.client.WaitForReady(ctx, target.Hwnd, timeouts.WindowReadyTimeout), "Window should become responsive")
	time.Sleep(timeouts.UISettlingDelay)

	return target
}
