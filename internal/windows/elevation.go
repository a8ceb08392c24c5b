//go:build windows

package windows

import (
	"fmt"
	"unsafe"
)

// TokenElevated reports whether the current process token is elevated.
// Synthetic input posted from a medium integrity process to an elevated
// Power BI Desktop is dropped by UIPI without any error.
func TokenElevated() (bool, error) {
	var token uintptr

	currentProcess, _, _ := procGetCurrentProcess.Call()
	ret, _, err := procOpenProcessToken.Call(
		currentProcess,
		uintptr(TOKEN_QUERY),
		uintptr(unsafe.Pointer(&token)),
	)
	if ret == 0 {
		return false, fmt.Errorf("OpenProcessToken: %w", err)
	}

	defer ProcCloseHandle.Call(token) //nolint:errcheck

	var elevation TOKEN_ELEVATION
	var returnLength uint32

	ret, _, err = procGetTokenInformation.Call(
		token,
		uintptr(TokenElevation),
		uintptr(unsafe.Pointer(&elevation)),
		uintptr(unsafe.Sizeof(elevation)),
		uintptr(unsafe.Pointer(&returnLength)),
	)
	if ret == 0 {
		return false, fmt.Errorf("GetTokenInformation: %w", err)
	}

	return elevation.TokenIsElevated != 0, nil
}

// IsElevated is TokenElevated with failures read as not elevated
func IsElevated() bool {
	elevated, err := TokenElevated()
	return err == nil && elevated
}
