//go:build windows

package windows

import (
	"strings"
	"sync"
	"syscall"
	"time"
	"unsafe"
)

// controlReadTimeout bounds each message sent to read a control
const controlReadTimeout = time.Second

// ControlExtractor is a function that extracts text and items from a specific control type
type ControlExtractor func(hwnd uintptr) (text string, items []string)

// controlExtractors is a table-driven map of control-specific extraction logic
var controlExtractors = map[string]ControlExtractor{
	"Edit": func(hwnd uintptr) (string, []string) {
		return GetEditText(hwnd), nil
	},
	"Static": func(hwnd uintptr) (string, []string) {
		// Progress summaries outgrow GetWindowText's buffer
		return GetEditText(hwnd), nil
	},
	"ListBox": func(hwnd uintptr) (string, []string) {
		items := GetListBoxItems(hwnd)
		return strings.Join(items, "\n"), items
	},
}

// extractControlInfo extracts information from a control using the appropriate extractor
func extractControlInfo(hwnd uintptr, className string) ChildInfo {
	info := ChildInfo{
		Hwnd:      hwnd,
		Parent:    GetParent(hwnd),
		ClassName: className,
		ControlID: GetDlgCtrlID(hwnd),
		Visible:   IsWindowVisible(hwnd),
	}

	extractor, exists := controlExtractors[className]
	if !exists {
		info.Text = GetWindowText(hwnd)
		return info
	}

	info.Text, info.Items = extractor(hwnd)
	return info
}

var (
	childInfos   []ChildInfo
	childInfosMu sync.Mutex
)

func enumChildInfoCallback(chWnd uintptr, lparam uintptr) uintptr {
	childInfos = append(childInfos, extractControlInfo(chWnd, GetClassName(chWnd)))
	return 1
}

var enumChildInfoCallbackPtr = syscall.NewCallback(enumChildInfoCallback)

// CollectChildInfos returns a slice of ChildInfo for all descendant controls of hwnd
func CollectChildInfos(hwnd uintptr) []ChildInfo {
	childInfosMu.Lock()
	defer childInfosMu.Unlock()

	childInfos = []ChildInfo{}

	// EnumChildWindows: return value indicates success but errors aren't meaningful here
	_, _, _ = procEnumChildWindows.Call(hwnd, enumChildInfoCallbackPtr, 0)

	infos := make([]ChildInfo, len(childInfos))
	copy(infos, childInfos)

	return infos
}

// VisibleChildren returns the visible immediate children of hwnd, enumerated fresh
func VisibleChildren(hwnd uintptr) []uintptr {
	var children []uintptr

	for _, ci := range CollectChildInfos(hwnd) {
		if ci.Visible && ci.Parent == hwnd {
			children = append(children, ci.Hwnd)
		}
	}

	return children
}

// sendTimeout is SendMessage that gives up on a hung or busy window. The
// host's UI thread can be tied up for seconds while a refresh runs.
func sendTimeout(hwnd uintptr, msg uint32, wParam, lParam uintptr, timeout time.Duration) (uintptr, bool) {
	var result uintptr

	ret, _, _ := ProcSendMessageTimeoutW.Call(
		hwnd,
		uintptr(msg),
		wParam,
		lParam,
		SMTO_ABORTIFHUNG,
		uintptr(timeout.Milliseconds()),
		uintptr(unsafe.Pointer(&result)),
	)

	return result, ret != 0
}

// IsResponsive reports whether hwnd answers WM_NULL within timeout
func IsResponsive(hwnd uintptr, timeout time.Duration) bool {
	_, ok := sendTimeout(hwnd, WM_NULL, 0, 0, timeout)
	return ok
}

// GetListBoxItems retrieves all items from a ListBox control
func GetListBoxItems(hwnd uintptr) []string {
	countResult, ok := sendTimeout(hwnd, LB_GETCOUNT, 0, 0, controlReadTimeout)
	count := int(int32(countResult))

	if !ok || count <= 0 {
		return nil
	}

	items := make([]string, 0, count)
	for i := range count {
		lenResult, ok := sendTimeout(hwnd, LB_GETTEXTLEN, uintptr(i), 0, controlReadTimeout)
		itemLen := int(int32(lenResult))

		if !ok || itemLen <= 0 {
			continue
		}

		buf := make([]uint16, itemLen+1)
		if _, ok := sendTimeout(hwnd, LB_GETTEXT, uintptr(i), uintptr(unsafe.Pointer(&buf[0])), controlReadTimeout); ok {
			items = append(items, syscall.UTF16ToString(buf))
		}
	}

	return items
}

// GetEditText retrieves the text of a control via WM_GETTEXT. A control
// that does not answer in time reads as empty.
func GetEditText(hwnd uintptr) string {
	lengthResult, ok := sendTimeout(hwnd, WM_GETTEXTLENGTH, 0, 0, controlReadTimeout)
	length := int(lengthResult)

	if !ok || length == 0 {
		return ""
	}

	buf := make([]uint16, length+1)
	if _, ok := sendTimeout(hwnd, WM_GETTEXT, uintptr(len(buf)), uintptr(unsafe.Pointer(&buf[0])), controlReadTimeout); !ok {
		return ""
	}

	return syscall.UTF16ToString(buf)
}
