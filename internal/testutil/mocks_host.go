package testutil

import (
	"github.com/Norgate-AV/pbirefresh/internal/model"
	"github.com/Norgate-AV/pbirefresh/internal/windows"
)

// MockWindows implements WindowLister, WindowManager and ControlReader and
// records all calls for verification
type MockWindows struct {
	Windows       []windows.WindowInfo
	ChildInfosMap map[uintptr][]windows.ChildInfo
	Rects         map[uintptr]model.Rect
	Minimized     map[uintptr]bool
	Gone          map[uintptr]bool
	ProcessNames  map[uint32]string

	SetForegroundResult bool
	MoveWindowResult    bool
	FindButtonResult    bool

	// DismissOnClose marks a window gone when it is closed or one of its
	// buttons is clicked
	DismissOnClose bool

	CloseWindowCalls        []CloseWindowCall
	SetForegroundCalls      []uintptr
	RestoreCalls            []uintptr
	MoveCalls               []MoveCall
	FindAndClickButtonCalls []FindAndClickButtonCall
	EnumerateCalls          int
}

type CloseWindowCall struct {
	Hwnd  uintptr
	Title string
}

type MoveCall struct {
	Hwnd uintptr
	Rect model.Rect
}

type FindAndClickButtonCall struct {
	ParentHwnd uintptr
	ButtonText string
}

func NewMockWindows() *MockWindows {
	return &MockWindows{
		ChildInfosMap:       make(map[uintptr][]windows.ChildInfo),
		Rects:               make(map[uintptr]model.Rect),
		Minimized:           make(map[uintptr]bool),
		Gone:                make(map[uintptr]bool),
		ProcessNames:        make(map[uint32]string),
		SetForegroundResult: true,
		MoveWindowResult:    true,
		FindButtonResult:    true,
	}
}

func (m *MockWindows) EnumerateWindows() []windows.WindowInfo {
	m.EnumerateCalls++

	var out []windows.WindowInfo
	for _, w := range m.Windows {
		if !m.Gone[w.Hwnd] {
			out = append(out, w)
		}
	}

	return out
}

func (m *MockWindows) CollectChildInfos(hwnd uintptr) []windows.ChildInfo {
	return m.ChildInfosMap[hwnd]
}

func (m *MockWindows) IsWindow(hwnd uintptr) bool {
	return hwnd != 0 && !m.Gone[hwnd]
}

func (m *MockWindows) CloseWindow(hwnd uintptr, title string) {
	m.CloseWindowCalls = append(m.CloseWindowCalls, CloseWindowCall{hwnd, title})
	if m.DismissOnClose {
		m.Gone[hwnd] = true
	}
}

func (m *MockWindows) SetForeground(hwnd uintptr) bool {
	m.SetForegroundCalls = append(m.SetForegroundCalls, hwnd)
	return m.SetForegroundResult
}

func (m *MockWindows) WindowRect(hwnd uintptr) (model.Rect, bool) {
	r, ok := m.Rects[hwnd]
	return r, ok
}

func (m *MockWindows) IsMinimized(hwnd uintptr) bool {
	return m.Minimized[hwnd]
}

func (m *MockWindows) Restore(hwnd uintptr) bool {
	m.RestoreCalls = append(m.RestoreCalls, hwnd)
	m.Minimized[hwnd] = false
	return true
}

func (m *MockWindows) MoveWindow(hwnd uintptr, r model.Rect) bool {
	m.MoveCalls = append(m.MoveCalls, MoveCall{hwnd, r})
	if m.MoveWindowResult {
		m.Rects[hwnd] = r
	}

	return m.MoveWindowResult
}

func (m *MockWindows) ProcessWindows(pid uint32) []uintptr {
	var hwnds []uintptr
	for _, w := range m.EnumerateWindows() {
		if w.Pid == pid {
			hwnds = append(hwnds, w.Hwnd)
		}
	}

	return hwnds
}

func (m *MockWindows) WindowPid(hwnd uintptr) uint32 {
	for _, w := range m.Windows {
		if w.Hwnd == hwnd {
			return w.Pid
		}
	}

	return 0
}

func (m *MockWindows) ProcessName(pid uint32) string {
	return m.ProcessNames[pid]
}

func (m *MockWindows) FindAndClickButton(parentHwnd uintptr, buttonText string) bool {
	m.FindAndClickButtonCalls = append(m.FindAndClickButtonCalls, FindAndClickButtonCall{
		ParentHwnd: parentHwnd,
		ButtonText: buttonText,
	})

	if m.FindButtonResult && m.DismissOnClose {
		m.Gone[parentHwnd] = true
	}

	return m.FindButtonResult
}

// Helper methods for fluent configuration
func (m *MockWindows) WithWindow(hwnd uintptr, pid uint32, title, className string) *MockWindows {
	m.Windows = append(m.Windows, windows.WindowInfo{
		Hwnd:      hwnd,
		Title:     title,
		Pid:       pid,
		ClassName: className,
	})

	return m
}

func (m *MockWindows) WithProcessName(pid uint32, exe string) *MockWindows {
	m.ProcessNames[pid] = exe
	return m
}

func (m *MockWindows) WithRect(hwnd uintptr, r model.Rect) *MockWindows {
	m.Rects[hwnd] = r
	return m
}

func (m *MockWindows) WithMinimized(hwnd uintptr) *MockWindows {
	m.Minimized[hwnd] = true
	return m
}

func (m *MockWindows) WithGone(hwnd uintptr) *MockWindows {
	m.Gone[hwnd] = true
	return m
}

func (m *MockWindows) WithChildInfosForHwnd(hwnd uintptr, infos ...windows.ChildInfo) *MockWindows {
	m.ChildInfosMap[hwnd] = infos
	return m
}

func (m *MockWindows) WithSetForegroundResult(result bool) *MockWindows {
	m.SetForegroundResult = result
	return m
}

func (m *MockWindows) WithMoveWindowResult(result bool) *MockWindows {
	m.MoveWindowResult = result
	return m
}

func (m *MockWindows) WithFindButtonResult(result bool) *MockWindows {
	m.FindButtonResult = result
	return m
}

func (m *MockWindows) WithDismissOnClose() *MockWindows {
	m.DismissOnClose = true
	return m
}

// Button returns a visible Button child of parent
func Button(hwnd, parent uintptr, text string) windows.ChildInfo {
	return windows.ChildInfo{Hwnd: hwnd, Parent: parent, ClassName: "Button", Text: text, Visible: true}
}

// Static returns a visible Static child of parent
func Static(hwnd, parent uintptr, text string) windows.ChildInfo {
	return windows.ChildInfo{Hwnd: hwnd, Parent: parent, ClassName: "Static", Text: text, Visible: true}
}

// MockKeyboard implements interfaces.KeyboardInjector
type MockKeyboard struct {
	Gone          map[uintptr]bool
	Children      map[uintptr][]uintptr
	ScanCodes     map[uint16]uint16
	PostResult    bool
	Posts         []KeyPost
	ChildrenCalls int
}

type KeyPost struct {
	Hwnd   uintptr
	Msg    uint32
	VK     uint16
	LParam uintptr
}

func NewMockKeyboard() *MockKeyboard {
	return &MockKeyboard{
		Gone:     make(map[uintptr]bool),
		Children: make(map[uintptr][]uintptr),
		// Set 1 scan codes of a US layout
		ScanCodes: map[uint16]uint16{
			0x11: 0x1D, // VK_CONTROL
			0x12: 0x38, // VK_MENU
			0x53: 0x1F, // 'S'
			0x31: 0x02, // '1'
		},
		PostResult: true,
	}
}

func (m *MockKeyboard) IsWindow(hwnd uintptr) bool {
	return hwnd != 0 && !m.Gone[hwnd]
}

func (m *MockKeyboard) VisibleChildren(hwnd uintptr) []uintptr {
	m.ChildrenCalls++
	return m.Children[hwnd]
}

func (m *MockKeyboard) ScanCode(vk uint16) uint16 {
	return m.ScanCodes[vk]
}

func (m *MockKeyboard) PostKeyMessage(hwnd uintptr, msg uint32, vk uint16, lParam uintptr) bool {
	m.Posts = append(m.Posts, KeyPost{hwnd, msg, vk, lParam})
	return m.PostResult
}

// PostsTo returns the posts delivered to hwnd, in order
func (m *MockKeyboard) PostsTo(hwnd uintptr) []KeyPost {
	var out []KeyPost
	for _, p := range m.Posts {
		if p.Hwnd == hwnd {
			out = append(out, p)
		}
	}

	return out
}

func (m *MockKeyboard) WithChildren(hwnd uintptr, children ...uintptr) *MockKeyboard {
	m.Children[hwnd] = children
	return m
}

func (m *MockKeyboard) WithGone(hwnd uintptr) *MockKeyboard {
	m.Gone[hwnd] = true
	return m
}

func (m *MockKeyboard) WithPostResult(result bool) *MockKeyboard {
	m.PostResult = result
	return m
}
