//go:build windows

package windows

import (
	"syscall"

	"github.com/Norgate-AV/pbirefresh/internal/logger"
	"github.com/Norgate-AV/pbirefresh/internal/model"
)

const (
	WM_GETTEXT       = 0x000D
	WM_GETTEXTLENGTH = 0x000E
	LB_GETCOUNT      = 0x018B
	LB_GETTEXT       = 0x0189
	LB_GETTEXTLEN    = 0x018A
)

var (
	shell32                        = syscall.NewLazyDLL("shell32.dll")
	procShellExecuteEx             = shell32.NewProc("ShellExecuteExW")
	kernel32                       = syscall.NewLazyDLL("kernel32.dll")
	ProcCloseHandle                = kernel32.NewProc("CloseHandle")
	procGetCurrentProcess          = kernel32.NewProc("GetCurrentProcess")
	procGetProcessId               = kernel32.NewProc("GetProcessId")
	procOpenProcessToken           = kernel32.NewProc("OpenProcessToken")
	procOpenProcess                = kernel32.NewProc("OpenProcess")
	procTerminateProcess           = kernel32.NewProc("TerminateProcess")
	procWaitForSingleObject        = kernel32.NewProc("WaitForSingleObject")
	procQueryFullProcessImageNameW = kernel32.NewProc("QueryFullProcessImageNameW")
	advapi32                       = syscall.NewLazyDLL("advapi32.dll")
	procGetTokenInformation        = advapi32.NewProc("GetTokenInformation")
	user32                         = syscall.NewLazyDLL("user32.dll")
	procEnumWindows                = user32.NewProc("EnumWindows")
	procGetWindowTextW             = user32.NewProc("GetWindowTextW")
	procGetWindowTextLengthW       = user32.NewProc("GetWindowTextLengthW")
	procGetWindowThreadProcessId   = user32.NewProc("GetWindowThreadProcessId")
	procAttachThreadInput          = user32.NewProc("AttachThreadInput")
	procIsWindow                   = user32.NewProc("IsWindow")
	procIsWindowVisible            = user32.NewProc("IsWindowVisible")
	procIsIconic                   = user32.NewProc("IsIconic")
	ProcSendMessageTimeoutW        = user32.NewProc("SendMessageTimeoutW")
	procSendMessageW               = user32.NewProc("SendMessageW")
	procPostMessageW               = user32.NewProc("PostMessageW")
	procSetForegroundWindow        = user32.NewProc("SetForegroundWindow")
	procGetForegroundWindow        = user32.NewProc("GetForegroundWindow")
	procShowWindow                 = user32.NewProc("ShowWindow")
	procSetWindowPos               = user32.NewProc("SetWindowPos")
	procGetWindowRect              = user32.NewProc("GetWindowRect")
	procGetAncestor                = user32.NewProc("GetAncestor")
	procGetDlgCtrlID               = user32.NewProc("GetDlgCtrlID")
	procMapVirtualKeyW             = user32.NewProc("MapVirtualKeyW")
	procEnumChildWindows           = user32.NewProc("EnumChildWindows")
	procGetClassNameW              = user32.NewProc("GetClassNameW")
)

const (
	WM_NULL          = 0x0000
	WM_CLOSE         = 0x0010
	WM_COMMAND       = 0x0111
	WM_KEYDOWN       = 0x0100
	WM_KEYUP         = 0x0101
	WM_SYSKEYDOWN    = 0x0104
	WM_SYSKEYUP      = 0x0105
	BM_CLICK         = 0x00F5
	SMTO_ABORTIFHUNG = 0x0002
	BN_CLICKED       = 0

	SW_RESTORE = 9

	HWND_TOP       = 0
	SWP_NOZORDER   = 0x0004
	SWP_NOACTIVATE = 0x0010
	SWP_SHOWWINDOW = 0x0040

	GA_PARENT                         = 1
	MAPVK_VK_TO_VSC                   = 0
	TOKEN_QUERY                       = 0x0008
	TokenElevation                    = 20
	PROCESS_TERMINATE                 = 0x0001
	PROCESS_QUERY_LIMITED_INFORMATION = 0x1000
	SYNCHRONIZE                       = 0x00100000
	WAIT_OBJECT_0                     = 0
)

// WindowsAPI is a concrete implementation of all Windows-related interfaces
// It wraps a Client to provide the required functionality
type WindowsAPI struct {
	client *Client
}

// NewWindowsAPI creates a new WindowsAPI with the provided logger
func NewWindowsAPI(log logger.LoggerInterface) *WindowsAPI {
	return &WindowsAPI{
		client: NewClient(log),
	}
}

// WindowLister interface implementation
func (w *WindowsAPI) EnumerateWindows() []WindowInfo { return EnumerateWindows() }
func (w *WindowsAPI) CollectChildInfos(hwnd uintptr) []ChildInfo {
	return CollectChildInfos(hwnd)
}

// WindowManager interface implementation
func (w *WindowsAPI) IsWindow(hwnd uintptr) bool { return IsWindow(hwnd) }
func (w *WindowsAPI) CloseWindow(hwnd uintptr, title string) {
	w.client.Window.CloseWindow(hwnd, title)
}
func (w *WindowsAPI) SetForeground(hwnd uintptr) bool { return w.client.Window.SetForeground(hwnd) }
func (w *WindowsAPI) WindowRect(hwnd uintptr) (model.Rect, bool) {
	return GetWindowRect(hwnd)
}
func (w *WindowsAPI) IsMinimized(hwnd uintptr) bool { return IsIconic(hwnd) }
func (w *WindowsAPI) Restore(hwnd uintptr) bool     { return w.client.Window.Restore(hwnd) }
func (w *WindowsAPI) MoveWindow(hwnd uintptr, r model.Rect) bool {
	return w.client.Window.MoveWindow(hwnd, r)
}
func (w *WindowsAPI) ProcessWindows(pid uint32) []uintptr {
	return ProcessWindows(pid)
}
func (w *WindowsAPI) WindowPid(hwnd uintptr) uint32 { return GetWindowPid(hwnd) }
func (w *WindowsAPI) ProcessName(pid uint32) string { return ProcessImageName(pid) }

// ControlReader interface implementation
func (w *WindowsAPI) FindAndClickButton(parentHwnd uintptr, buttonText string) bool {
	return w.client.Window.FindAndClickButton(parentHwnd, buttonText)
}

// AutomationTree interface implementation
func (w *WindowsAPI) Elements(hwnd uintptr) ([]Element, error) {
	return w.client.Automation.Elements(hwnd)
}
func (w *WindowsAPI) Activate(hwnd uintptr, el Element) error {
	return w.client.Automation.Activate(hwnd, el)
}

// KeyboardInjector interface implementation
func (w *WindowsAPI) VisibleChildren(hwnd uintptr) []uintptr { return VisibleChildren(hwnd) }
func (w *WindowsAPI) ScanCode(vk uint16) uint16              { return w.client.Keyboard.ScanCode(vk) }
func (w *WindowsAPI) PostKeyMessage(hwnd uintptr, msg uint32, vk uint16, lParam uintptr) bool {
	return w.client.Keyboard.PostKeyMessage(hwnd, msg, vk, lParam)
}
