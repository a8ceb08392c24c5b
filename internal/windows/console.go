//go:build windows

package windows

import (
	"sync"
	"syscall"
)

var procSetConsoleCtrlHandler = kernel32.NewProc("SetConsoleCtrlHandler")

// Console control event types
const (
	CTRL_C_EVENT        = 0
	CTRL_BREAK_EVENT    = 1
	CTRL_CLOSE_EVENT    = 2
	CTRL_LOGOFF_EVENT   = 5
	CTRL_SHUTDOWN_EVENT = 6
)

// ConsoleCtrlHandler is called for console control events. Returning non-zero
// marks the event as handled.
type ConsoleCtrlHandler func(ctrlType uint32) uintptr

var (
	consoleMu      sync.Mutex
	consoleHandler ConsoleCtrlHandler
	consoleOnce    sync.Once
	consoleErr     error
)

// SetConsoleCtrlHandler installs handler for console close, logoff and
// shutdown events. Ctrl+C and Ctrl+Break are left to the Go runtime, which
// delivers them as os.Interrupt. Calling it again replaces the handler.
func SetConsoleCtrlHandler(handler ConsoleCtrlHandler) error {
	consoleMu.Lock()
	consoleHandler = handler
	consoleMu.Unlock()

	// The callback slot is process-wide and syscall.NewCallback slots are
	// never freed, so register once
	consoleOnce.Do(func() {
		ret, _, err := procSetConsoleCtrlHandler.Call(
			syscall.NewCallback(consoleCtrlHandlerCallback),
			1, // TRUE - add handler
		)
		if ret == 0 {
			consoleErr = err
		}
	})

	return consoleErr
}

func consoleCtrlHandlerCallback(ctrlType uint32) uintptr {
	if ctrlType == CTRL_C_EVENT || ctrlType == CTRL_BREAK_EVENT {
		return 0 // FALSE - let the Go runtime turn it into os.Interrupt
	}

	consoleMu.Lock()
	handler := consoleHandler
	consoleMu.Unlock()

	if handler == nil {
		return 0
	}

	return handler(ctrlType)
}

// GetCtrlTypeName returns a human-readable name for a control event type
func GetCtrlTypeName(ctrlType uint32) string {
	switch ctrlType {
	case CTRL_C_EVENT:
		return "CTRL_C"
	case CTRL_BREAK_EVENT:
		return "CTRL_BREAK"
	case CTRL_CLOSE_EVENT:
		return "CTRL_CLOSE"
	case CTRL_LOGOFF_EVENT:
		return "CTRL_LOGOFF"
	case CTRL_SHUTDOWN_EVENT:
		return "CTRL_SHUTDOWN"
	default:
		return "UNKNOWN"
	}
}
