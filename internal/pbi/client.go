// Package pbi drives Power BI Desktop: it finds the host window, presses the
// ribbon controls that start a refresh and reads the refresh progress dialog.
package pbi

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/Norgate-AV/pbirefresh/internal/errdefs"
	"github.com/Norgate-AV/pbirefresh/internal/interfaces"
	"github.com/Norgate-AV/pbirefresh/internal/labels"
	"github.com/Norgate-AV/pbirefresh/internal/logger"
	"github.com/Norgate-AV/pbirefresh/internal/model"
	"github.com/Norgate-AV/pbirefresh/internal/windows"
)

// consoleClasses are terminal windows whose title often repeats the command
// line, and with it the title substring being searched for
var consoleClasses = map[string]bool{
	"ConsoleWindowClass":            true,
	"CASCADIA_HOSTING_WINDOW_CLASS": true,
	"PseudoConsoleWindow":           true,
}

// Client provides methods for interacting with a Power BI Desktop process.
// Windows are found by enumeration; the ribbon and the refresh dialog are
// read through the UI Automation tree.
type Client struct {
	log    logger.LoggerInterface
	lister interfaces.WindowLister
	wm     interfaces.WindowManager
	tree   interfaces.AutomationTree
	labels *labels.Matcher
}

// NewClient creates a new host client
func NewClient(
	log logger.LoggerInterface,
	lister interfaces.WindowLister,
	wm interfaces.WindowManager,
	tree interfaces.AutomationTree,
	m *labels.Matcher,
) *Client {
	return &Client{
		log:    log,
		lister: lister,
		wm:     wm,
		tree:   tree,
		labels: m,
	}
}

// TitleFromArg turns the positional argument into a title substring. A file
// path, or any name ending in .pbix, yields its base name without extension.
func TitleFromArg(arg string) string {
	if !strings.ContainsAny(arg, `\/`) && !strings.EqualFold(filepath.Ext(arg), ".pbix") {
		return arg
	}

	// Both separators, so Windows paths split the same on any platform
	base := arg[strings.LastIndexAny(arg, `\/`)+1:]
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Locate finds the host window whose title contains substring, ignoring case.
// When several windows match, the first one carrying a host title hint wins,
// falling back to the first match in enumeration order. With strict set,
// matches spread over more than one process are rejected.
func (c *Client) Locate(substring string, strict bool) (model.TargetProcess, error) {
	needle := strings.ToLower(strings.TrimSpace(substring))
	if needle == "" {
		return model.TargetProcess{}, fmt.Errorf("%w: empty window title", errdefs.ErrConnectionFailure)
	}

	var candidates []windows.WindowInfo
	pids := make(map[uint32]bool)

	for _, w := range c.lister.EnumerateWindows() {
		if consoleClasses[w.ClassName] {
			continue
		}

		if !strings.Contains(strings.ToLower(w.Title), needle) {
			continue
		}

		c.log.Debug("Candidate window",
			slog.String("title", w.Title),
			slog.Uint64("hwnd", uint64(w.Hwnd)),
			slog.Uint64("pid", uint64(w.Pid)),
			slog.String("class", w.ClassName),
		)

		candidates = append(candidates, w)
		pids[w.Pid] = true
	}

	if len(candidates) == 0 {
		return model.TargetProcess{}, fmt.Errorf("%w: no window title contains %q", errdefs.ErrConnectionFailure, substring)
	}

	if strict && len(pids) > 1 {
		return model.TargetProcess{}, fmt.Errorf("%w: %d processes have a window matching %q",
			errdefs.ErrConnectionFailure, len(pids), substring)
	}

	chosen := candidates[0]
	for _, w := range candidates {
		if c.labels.IsHostTitle(w.Title) {
			chosen = w
			break
		}
	}

	if len(candidates) > 1 {
		c.log.Warn("Several windows match, using the best candidate",
			slog.Int("matches", len(candidates)),
			slog.String("title", chosen.Title))
	}

	return model.TargetProcess{
		Pid:       chosen.Pid,
		Hwnd:      chosen.Hwnd,
		Title:     chosen.Title,
		ClassName: chosen.ClassName,
	}, nil
}

// SelectHomeTab activates the ribbon tab holding the refresh control.
// It returns false with a nil error when no such tab exists.
func (c *Client) SelectHomeTab(hwnd uintptr) (bool, error) {
	if !c.wm.IsWindow(hwnd) {
		return false, fmt.Errorf("host window 0x%X is gone", hwnd)
	}

	elems, err := c.tree.Elements(hwnd)
	if err != nil {
		return false, fmt.Errorf("failed to read automation tree: %w", err)
	}

	for _, el := range elems {
		if el.ControlType != windows.ControlTabItem || !c.labels.IsHomeTab(el.Name, el.AutomationID) {
			continue
		}

		c.log.Debug("Found home tab", slog.String("name", el.Name), slog.String("automation_id", el.AutomationID))

		if err := c.tree.Activate(hwnd, el); err != nil {
			return true, fmt.Errorf("failed to activate home tab %q: %w", el.Name, err)
		}

		return true, nil
	}

	return false, nil
}

func isButton(el windows.Element) bool {
	return el.ControlType == windows.ControlButton || el.ControlType == windows.ControlSplitButton
}

// TriggerRefresh invokes the ribbon's refresh button
func (c *Client) TriggerRefresh(hwnd uintptr) error {
	if !c.wm.IsWindow(hwnd) {
		return fmt.Errorf("%w: host window 0x%X is gone", errdefs.ErrConnectionFailure, hwnd)
	}

	elems, err := c.tree.Elements(hwnd)
	if err != nil {
		return fmt.Errorf("%w: refresh: %w", errdefs.ErrControlNotFound, err)
	}

	disabled := false

	for _, el := range elems {
		if !isButton(el) || !c.labels.IsRefresh(el.Name, el.AutomationID) {
			continue
		}

		if !el.Enabled {
			disabled = true
			continue
		}

		c.log.Debug("Found refresh control",
			slog.String("name", el.Name),
			slog.String("automation_id", el.AutomationID),
			slog.String("type", el.ControlType.String()))

		if err := c.tree.Activate(hwnd, el); err != nil {
			return fmt.Errorf("failed to invoke refresh control %q: %w", el.Name, err)
		}

		return nil
	}

	if disabled {
		return fmt.Errorf("%w: refresh control is disabled", errdefs.ErrControlNotFound)
	}

	return fmt.Errorf("%w: refresh", errdefs.ErrControlNotFound)
}

// ReadRefreshDialog takes a snapshot of the refresh progress dialog. A dialog
// that does not exist is reported with Exists == false and a nil error.
func (c *Client) ReadRefreshDialog(target model.TargetProcess) (model.RefreshDialog, error) {
	if !c.wm.IsWindow(target.Hwnd) {
		return model.RefreshDialog{}, fmt.Errorf("%w: host window 0x%X is gone", errdefs.ErrConnectionFailure, target.Hwnd)
	}

	for _, w := range c.lister.EnumerateWindows() {
		if w.Pid != target.Pid || w.Hwnd == target.Hwnd {
			continue
		}

		if !c.labels.IsRefreshDialogTitle(w.Title) {
			continue
		}

		return c.readDialog(w)
	}

	return model.RefreshDialog{}, nil
}

// contentTypes are the element types whose names make up the dialog summary
var contentTypes = map[windows.ControlType]bool{
	windows.ControlText:     true,
	windows.ControlListItem: true,
	windows.ControlDataItem: true,
	windows.ControlEdit:     true,
}

// readDialog collects the button label and the text content of a dialog
func (c *Client) readDialog(w windows.WindowInfo) (model.RefreshDialog, error) {
	elems, err := c.tree.Elements(w.Hwnd)
	if err != nil {
		return model.RefreshDialog{}, fmt.Errorf("failed to read refresh dialog %q: %w", w.Title, err)
	}

	dlg := model.RefreshDialog{
		Exists: true,
		Hwnd:   w.Hwnd,
		Title:  w.Title,
	}

	var lines []string
	var cancelLabel string
	seen := make(map[string]bool)

	for _, el := range elems {
		name := strings.TrimSpace(el.Name)

		switch {
		case isButton(el):
			if dlg.CloseLabel == "" && c.labels.IsClose(name) {
				dlg.CloseLabel = name
			} else if cancelLabel == "" && c.labels.IsCancelOnly(name) {
				cancelLabel = name
			}

		// A list item and the text block inside it carry the same name
		case contentTypes[el.ControlType] && name != "" && !seen[name]:
			seen[name] = true
			lines = append(lines, name)
		}
	}

	// A close button outranks a cancel button on the same dialog
	if dlg.CloseLabel == "" {
		dlg.CloseLabel = cancelLabel
	}

	dlg.Summary = strings.Join(lines, "\n")

	c.log.Trace("Refresh dialog snapshot",
		slog.Uint64("hwnd", uint64(dlg.Hwnd)),
		slog.String("title", dlg.Title),
		slog.String("button", dlg.CloseLabel),
		slog.String("summary", dlg.Summary))

	return dlg, nil
}

// CloseRefreshDialog invokes the dialog's close button, falling back to
// WM_CLOSE when the button cannot be invoked. It returns false when there is
// nothing to close.
func (c *Client) CloseRefreshDialog(dlg model.RefreshDialog) (bool, error) {
	if !dlg.Exists || !c.wm.IsWindow(dlg.Hwnd) {
		return false, nil
	}

	if dlg.CloseLabel != "" {
		err := c.pressButton(dlg.Hwnd, dlg.CloseLabel)
		if err == nil {
			c.log.Debug("Invoked refresh dialog button", slog.String("label", dlg.CloseLabel))
			return true, nil
		}

		c.log.Debug("Close button not invocable", slog.Any("error", err))
	}

	c.log.Debug("Sending WM_CLOSE to refresh dialog", slog.String("title", dlg.Title))
	c.wm.CloseWindow(dlg.Hwnd, dlg.Title)

	return true, nil
}

func (c *Client) pressButton(hwnd uintptr, label string) error {
	elems, err := c.tree.Elements(hwnd)
	if err != nil {
		return err
	}

	for _, el := range elems {
		if isButton(el) && strings.TrimSpace(el.Name) == label {
			return c.tree.Activate(hwnd, el)
		}
	}

	return fmt.Errorf("no button labelled %q", label)
}
