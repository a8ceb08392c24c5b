//go:build windows

package windows

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"syscall"
	"unsafe"

	ole "github.com/go-ole/go-ole"

	"github.com/Norgate-AV/pbirefresh/internal/logger"
)

var (
	clsidCUIAutomation      = ole.NewGUID("{FF48DBA4-60EF-4201-AA87-54103EEF594E}")
	iidIUIAutomation        = ole.NewGUID("{30CBE57D-D9D0-452A-AB13-7AC5AC4825EE}")
	iidInvokePattern        = ole.NewGUID("{FB377FBE-8EA6-46D5-9C73-6499642D3059}")
	iidSelectionItemPattern = ole.NewGUID("{A8EFA66A-0FDA-421A-9194-38021F3578EA}")

	errNoActivationPattern = errors.New("element supports neither invoke nor selection")
	errNoAutomationElement = errors.New("window has no automation element")
)

// vtable slots, counted from IUnknown's three methods
const (
	slotElementFromHandle    = 6  // IUIAutomation
	slotControlViewCondition = 18 // IUIAutomation
	slotFindAll              = 6  // IUIAutomationElement
	slotGetCurrentPattern    = 16 // IUIAutomationElement
	slotCurrentControlType   = 21 // IUIAutomationElement
	slotCurrentName          = 23 // IUIAutomationElement
	slotCurrentIsEnabled     = 28 // IUIAutomationElement
	slotCurrentAutomationID  = 29 // IUIAutomationElement
	slotCurrentClassName     = 30 // IUIAutomationElement
	slotArrayLength          = 3  // IUIAutomationElementArray
	slotArrayGetElement      = 4  // IUIAutomationElementArray
	slotInvoke               = 3  // IUIAutomationInvokePattern
	slotSelect               = 3  // IUIAutomationSelectionItemPattern
)

const (
	treeScopeDescendants  = 4
	patternInvoke         = 10000
	patternSelectionItem  = 10010
	maxAutomationElements = 5000

	S_FALSE            = 0x00000001
	RPC_E_CHANGED_MODE = 0x80010106
)

// automation reads and operates the UI Automation tree of a window. WPF
// surfaces such as the Power BI ribbon and its refresh dialog have no child
// windows; their controls only exist in this tree.
type automation struct {
	log logger.LoggerInterface
}

func newAutomation(log logger.LoggerInterface) *automation {
	return &automation{log: log}
}

func vtableSlot(obj *ole.IUnknown, slot int) uintptr {
	return (*[64]uintptr)(unsafe.Pointer(obj.RawVTable))[slot]
}

func hresultError(hr uintptr) error {
	if int32(hr) < 0 {
		return ole.NewError(hr)
	}

	return nil
}

// initCOM joins the multithreaded apartment on the current OS thread. It
// reports whether CoUninitialize must balance the call.
func initCOM() (bool, error) {
	err := ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED)
	if err == nil {
		return true, nil
	}

	var oleErr *ole.OleError
	if errors.As(err, &oleErr) {
		switch oleErr.Code() {
		case S_FALSE:
			return true, nil
		case RPC_E_CHANGED_MODE:
			return false, nil
		}
	}

	return false, fmt.Errorf("CoInitializeEx failed: %w", err)
}

// withDescendants runs fn over the control view descendants of hwnd. The
// element array is only valid inside fn.
func (a *automation) withDescendants(hwnd uintptr, fn func(arr *ole.IUnknown, n int) error) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	uninit, err := initCOM()
	if err != nil {
		return err
	}

	if uninit {
		defer ole.CoUninitialize()
	}

	uia, err := ole.CreateInstance(clsidCUIAutomation, iidIUIAutomation)
	if err != nil {
		return fmt.Errorf("failed to create UI Automation client: %w", err)
	}
	defer uia.Release()

	var root *ole.IUnknown
	hr, _, _ := syscall.SyscallN(vtableSlot(uia, slotElementFromHandle),
		uintptr(unsafe.Pointer(uia)), hwnd, uintptr(unsafe.Pointer(&root)))
	if err := hresultError(hr); err != nil {
		return fmt.Errorf("ElementFromHandle failed: %w", err)
	}

	if root == nil {
		return fmt.Errorf("%w: 0x%X", errNoAutomationElement, hwnd)
	}
	defer root.Release()

	var cond *ole.IUnknown
	hr, _, _ = syscall.SyscallN(vtableSlot(uia, slotControlViewCondition),
		uintptr(unsafe.Pointer(uia)), uintptr(unsafe.Pointer(&cond)))
	if err := hresultError(hr); err != nil {
		return fmt.Errorf("get_ControlViewCondition failed: %w", err)
	}
	defer cond.Release()

	var arr *ole.IUnknown
	hr, _, _ = syscall.SyscallN(vtableSlot(root, slotFindAll),
		uintptr(unsafe.Pointer(root)), treeScopeDescendants,
		uintptr(unsafe.Pointer(cond)), uintptr(unsafe.Pointer(&arr)))
	if err := hresultError(hr); err != nil {
		return fmt.Errorf("FindAll failed: %w", err)
	}

	if arr == nil {
		return fn(nil, 0)
	}
	defer arr.Release()

	var n int32
	hr, _, _ = syscall.SyscallN(vtableSlot(arr, slotArrayLength),
		uintptr(unsafe.Pointer(arr)), uintptr(unsafe.Pointer(&n)))
	if err := hresultError(hr); err != nil {
		return fmt.Errorf("get_Length failed: %w", err)
	}

	if n > maxAutomationElements {
		a.log.Debug("Automation tree truncated", slog.Int("elements", int(n)))
		n = maxAutomationElements
	}

	return fn(arr, int(n))
}

// elementAt returns element i of arr; the caller releases it
func elementAt(arr *ole.IUnknown, i int) *ole.IUnknown {
	var el *ole.IUnknown
	hr, _, _ := syscall.SyscallN(vtableSlot(arr, slotArrayGetElement),
		uintptr(unsafe.Pointer(arr)), uintptr(i), uintptr(unsafe.Pointer(&el)))
	if hresultError(hr) != nil {
		return nil
	}

	return el
}

func stringProperty(el *ole.IUnknown, slot int) string {
	var bstr *uint16
	hr, _, _ := syscall.SyscallN(vtableSlot(el, slot),
		uintptr(unsafe.Pointer(el)), uintptr(unsafe.Pointer(&bstr)))
	if hresultError(hr) != nil || bstr == nil {
		return ""
	}
	defer ole.SysFreeString((*int16)(unsafe.Pointer(bstr))) //nolint:errcheck

	return ole.BstrToString(bstr)
}

func int32Property(el *ole.IUnknown, slot int) int32 {
	var v int32
	hr, _, _ := syscall.SyscallN(vtableSlot(el, slot),
		uintptr(unsafe.Pointer(el)), uintptr(unsafe.Pointer(&v)))
	if hresultError(hr) != nil {
		return 0
	}

	return v
}

func readElement(el *ole.IUnknown, index int) Element {
	return Element{
		Index:        index,
		ControlType:  ControlType(int32Property(el, slotCurrentControlType)),
		Name:         stringProperty(el, slotCurrentName),
		AutomationID: stringProperty(el, slotCurrentAutomationID),
		ClassName:    stringProperty(el, slotCurrentClassName),
		Enabled:      int32Property(el, slotCurrentIsEnabled) != 0,
	}
}

// Elements returns a snapshot of the control view below hwnd, in tree order
func (a *automation) Elements(hwnd uintptr) ([]Element, error) {
	var out []Element

	err := a.withDescendants(hwnd, func(arr *ole.IUnknown, n int) error {
		out = make([]Element, 0, n)

		for i := 0; i < n; i++ {
			el := elementAt(arr, i)
			if el == nil {
				continue
			}

			out = append(out, readElement(el, i))
			el.Release()
		}

		return nil
	})

	return out, err
}

func sameElement(a, b Element) bool {
	return a.ControlType == b.ControlType && a.Name == b.Name && a.AutomationID == b.AutomationID
}

// Activate invokes target, or selects it when it is a selectable item such as
// a tab. The element is looked up again at its snapshot index, then anywhere
// in the tree when the tree has shifted since the snapshot.
func (a *automation) Activate(hwnd uintptr, target Element) error {
	return a.withDescendants(hwnd, func(arr *ole.IUnknown, n int) error {
		if target.Index >= 0 && target.Index < n {
			if el := elementAt(arr, target.Index); el != nil {
				defer el.Release()

				if sameElement(readElement(el, target.Index), target) {
					return a.activate(el, target)
				}
			}
		}

		for i := 0; i < n; i++ {
			el := elementAt(arr, i)
			if el == nil {
				continue
			}

			if sameElement(readElement(el, i), target) {
				err := a.activate(el, target)
				el.Release()
				return err
			}

			el.Release()
		}

		return fmt.Errorf("%s %q is no longer in the automation tree", target.ControlType, target.Name)
	})
}

// currentPattern returns the pattern interface iid of el, or nil when el
// does not support it
func currentPattern(el *ole.IUnknown, id int, iid *ole.GUID) *ole.IUnknown {
	var unk *ole.IUnknown
	hr, _, _ := syscall.SyscallN(vtableSlot(el, slotGetCurrentPattern),
		uintptr(unsafe.Pointer(el)), uintptr(id), uintptr(unsafe.Pointer(&unk)))
	if hresultError(hr) != nil || unk == nil {
		return nil
	}
	defer unk.Release()

	disp, err := unk.QueryInterface(iid)
	if err != nil {
		return nil
	}

	return &disp.IUnknown
}

func (a *automation) activate(el *ole.IUnknown, target Element) error {
	if p := currentPattern(el, patternInvoke, iidInvokePattern); p != nil {
		defer p.Release()

		a.log.Debug("Invoking element", slog.String("type", target.ControlType.String()), slog.String("name", target.Name))
		hr, _, _ := syscall.SyscallN(vtableSlot(p, slotInvoke), uintptr(unsafe.Pointer(p)))
		return hresultError(hr)
	}

	if p := currentPattern(el, patternSelectionItem, iidSelectionItemPattern); p != nil {
		defer p.Release()

		a.log.Debug("Selecting element", slog.String("type", target.ControlType.String()), slog.String("name", target.Name))
		hr, _, _ := syscall.SyscallN(vtableSlot(p, slotSelect), uintptr(unsafe.Pointer(p)))
		return hresultError(hr)
	}

	return fmt.Errorf("%s %q: %w", target.ControlType, target.Name, errNoActivationPattern)
}
