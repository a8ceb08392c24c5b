//go:build windows

package windows

type TOKEN_ELEVATION struct {
	TokenIsElevated uint32
}

type RECT struct {
	Left, Top, Right, Bottom int32
}

// SHELLEXECUTEINFO for ShellExecuteEx API
type SHELLEXECUTEINFO struct {
	CbSize       uint32
	FMask        uint32
	Hwnd         uintptr
	LpVerb       *uint16
	LpFile       *uint16
	LpParameters *uint16
	LpDirectory  *uint16
	NShow        int32
	HInstApp     uintptr
	LpIDList     uintptr
	LpClass      *uint16
	HkeyClass    uintptr
	DwHotKey     uint32
	HIcon        uintptr
	HProcess     uintptr
}
