//go:build windows

package windows

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"syscall"
	"time"
	"unsafe"

	"github.com/Norgate-AV/pbirefresh/internal/logger"
	"github.com/Norgate-AV/pbirefresh/internal/model"
)

// utf16PtrOrNil converts s for a Win32 call; an empty string becomes NULL
func utf16PtrOrNil(s string) (*uint16, error) {
	if s == "" {
		return nil, nil
	}

	return syscall.UTF16PtrFromString(s)
}

// OpenWithApp starts exe with document as its only argument, in the
// document's directory, and returns the new process id.
func OpenWithApp(exe, document string, showCmd int, log logger.LoggerInterface) (uint32, error) {
	const SEE_MASK_NOCLOSEPROCESS = 0x00000040

	filePtr, err := syscall.UTF16PtrFromString(exe)
	if err != nil {
		return 0, err
	}

	verbPtr, _ := utf16PtrOrNil("open")

	argsPtr, err := utf16PtrOrNil(syscall.EscapeArg(document))
	if err != nil {
		return 0, err
	}

	cwdPtr, err := utf16PtrOrNil(filepath.Dir(document))
	if err != nil {
		return 0, err
	}

	sei := SHELLEXECUTEINFO{
		CbSize:       uint32(unsafe.Sizeof(SHELLEXECUTEINFO{})),
		FMask:        SEE_MASK_NOCLOSEPROCESS,
		LpVerb:       verbPtr,
		LpFile:       filePtr,
		LpParameters: argsPtr,
		LpDirectory:  cwdPtr,
		NShow:        int32(showCmd),
	}

	if ret, _, err := procShellExecuteEx.Call(uintptr(unsafe.Pointer(&sei))); ret == 0 {
		return 0, fmt.Errorf("ShellExecuteEx %s: %w", exe, err)
	}

	if sei.HProcess == 0 {
		return 0, fmt.Errorf("ShellExecuteEx %s did not return a process handle", exe)
	}

	// We only need the PID
	defer func() {
		if ret, _, err := ProcCloseHandle.Call(sei.HProcess); ret == 0 {
			log.Debug("Failed to close process handle", slog.Any("error", err))
		}
	}()

	pid, _, _ := procGetProcessId.Call(sei.HProcess)
	if pid == 0 {
		return 0, fmt.Errorf("failed to get process ID from handle")
	}

	return uint32(pid), nil
}

// GetWindowText retrieves the full title of a window. Power BI Desktop puts
// the report name in the title, which can exceed a fixed buffer.
func GetWindowText(hwnd uintptr) string {
	n, _, _ := procGetWindowTextLengthW.Call(hwnd)
	if n == 0 {
		return ""
	}

	buf := make([]uint16, n+1)

	ret, _, _ := procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if ret == 0 {
		return ""
	}

	return syscall.UTF16ToString(buf[:ret])
}

// GetClassName retrieves the class name of a window. Class names are
// limited to 256 characters.
func GetClassName(hwnd uintptr) string {
	var buf [257]uint16

	ret, _, _ := procGetClassNameW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if ret == 0 {
		return ""
	}

	return syscall.UTF16ToString(buf[:ret])
}

// IsWindow checks if a window handle is valid
func IsWindow(hwnd uintptr) bool {
	ret, _, _ := procIsWindow.Call(hwnd)
	return ret != 0
}

// IsWindowVisible checks if a window is visible. Off-screen windows still
// count as visible.
func IsWindowVisible(hwnd uintptr) bool {
	ret, _, _ := procIsWindowVisible.Call(hwnd)
	return ret != 0
}

// GetWindowPid retrieves the process ID of a window, 0 when hwnd is invalid
func GetWindowPid(hwnd uintptr) uint32 {
	var pid uint32

	if ret, _, _ := procGetWindowThreadProcessId.Call(hwnd, uintptr(unsafe.Pointer(&pid))); ret == 0 {
		return 0
	}

	return pid
}

// GetWindowRect retrieves the window rectangle in screen coordinates
func GetWindowRect(hwnd uintptr) (model.Rect, bool) {
	var r RECT

	ret, _, _ := procGetWindowRect.Call(hwnd, uintptr(unsafe.Pointer(&r)))
	if ret == 0 {
		return model.Rect{}, false
	}

	return model.Rect{Left: r.Left, Top: r.Top, Right: r.Right, Bottom: r.Bottom}, true
}

// IsIconic checks if a window is minimized
func IsIconic(hwnd uintptr) bool {
	ret, _, _ := procIsIconic.Call(hwnd)
	return ret != 0
}

// GetDlgCtrlID retrieves the control identifier of a child window
func GetDlgCtrlID(hwnd uintptr) int {
	ret, _, _ := procGetDlgCtrlID.Call(hwnd)
	return int(int32(ret))
}

// GetParent retrieves the parent window, never the owner
func GetParent(hwnd uintptr) uintptr {
	ret, _, _ := procGetAncestor.Call(hwnd, GA_PARENT)
	return ret
}

// TerminateProcess kills pid and waits up to wait for it to exit
func TerminateProcess(pid uint32, wait time.Duration) error {
	hProcess, _, err := procOpenProcess.Call(
		uintptr(PROCESS_TERMINATE|SYNCHRONIZE),
		uintptr(0),
		uintptr(pid),
	)
	if hProcess == 0 {
		return fmt.Errorf("failed to open process %d: %w", pid, err)
	}

	defer ProcCloseHandle.Call(hProcess) //nolint:errcheck

	if ret, _, err := procTerminateProcess.Call(hProcess, uintptr(1)); ret == 0 {
		return fmt.Errorf("failed to terminate process %d: %w", pid, err)
	}

	ret, _, _ := procWaitForSingleObject.Call(hProcess, uintptr(wait.Milliseconds()))
	if ret != WAIT_OBJECT_0 {
		return fmt.Errorf("process %d still running %s after termination", pid, wait)
	}

	return nil
}

// ProcessImageName returns the executable file name of pid, such as
// "WerFault.exe", or "" when the process cannot be queried
func ProcessImageName(pid uint32) string {
	if pid == 0 {
		return ""
	}

	hProcess, _, _ := procOpenProcess.Call(uintptr(PROCESS_QUERY_LIMITED_INFORMATION), uintptr(0), uintptr(pid))
	if hProcess == 0 {
		return ""
	}

	defer ProcCloseHandle.Call(hProcess) //nolint:errcheck

	buf := make([]uint16, syscall.MAX_PATH)
	size := uint32(len(buf))

	ret, _, _ := procQueryFullProcessImageNameW.Call(
		hProcess,
		uintptr(0),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(unsafe.Pointer(&size)),
	)
	if ret == 0 {
		return ""
	}

	path := syscall.UTF16ToString(buf[:size])
	return filepath.Base(path)
}
