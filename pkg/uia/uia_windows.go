//go:build windows

package uia

import (
	"errors"
	"fmt"
	"sync"
	"syscall"
	"unsafe"

	"github.com/go-ole/go-ole"
	"golang.org/x/sys/windows"

	"github.com/zoeyai/cursorwatch/internal/logger"
)

var (
	clsidCUIAutomation = ole.NewGUID("{FF48DBA4-60EF-4201-AA87-54103EEF594E}")
	iidIUIAutomation   = ole.NewGUID("{30CBE57D-D9D0-452A-AB13-7AC5AC4825EE}")

	user32              = windows.NewLazySystemDLL("user32.dll")
	procWindowFromPoint = user32.NewProc("WindowFromPoint")
)

// vtable slots (IUnknown occupies 0-2)
const (
	vtElementFromPoint            = 7  // IUIAutomation::ElementFromPoint
	vtGetCurrentBoundingRectangle = 43 // IUIAutomationElement::get_CurrentBoundingRectangle
)

const (
	hrSFalse          = 0x00000001
	hrRPCEChangedMode = 0x80010106
)

// RECT Windows 矩形结构
type RECT struct {
	Left, Top, Right, Bottom int32
}

// IsSupported returns true if UI Automation is available on the current platform
func IsSupported() bool {
	return procWindowFromPoint.Find() == nil
}

// InitThread joins the calling OS thread to the multi-threaded COM apartment.
// Repeated calls, or a thread already in another apartment, are not errors.
// Callers should hold runtime.LockOSThread for the thread's lifetime.
func InitThread() error {
	err := ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED)
	if err == nil {
		return nil
	}

	var oleErr *ole.OleError
	if errors.As(err, &oleErr) {
		switch uint32(oleErr.Code()) {
		case hrSFalse, hrRPCEChangedMode:
			return nil
		}
	}
	return fmt.Errorf("初始化 COM 失败: %w", err)
}

// automationInspector queries IUIAutomation for the element under a point
type automationInspector struct {
	mu         sync.Mutex
	automation *ole.IUnknown
}

// New returns the platform inspector
func New() Inspector {
	return &automationInspector{}
}

// ElementSizeAt implements Inspector
func (a *automationInspector) ElementSizeAt(x, y int) (Size, bool) {
	if hwnd := windowFromPoint(x, y); hwnd == 0 {
		return Size{}, false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	automation, err := a.instance()
	if err != nil {
		logger.Debug("UI Automation 不可用: %v", err)
		return Size{}, false
	}

	var element *ole.IUnknown
	args := append(packPoint(x, y), uintptr(unsafe.Pointer(&element)))
	if hr := vtableCall(automation, vtElementFromPoint, args...); hr != 0 || element == nil {
		logger.Debug("ElementFromPoint(%d, %d) 失败: hr=0x%08X", x, y, uint32(hr))
		return Size{}, false
	}
	defer element.Release()

	var rect RECT
	if hr := vtableCall(element, vtGetCurrentBoundingRectangle, uintptr(unsafe.Pointer(&rect))); hr != 0 {
		logger.Debug("读取元素边界失败: hr=0x%08X", uint32(hr))
		return Size{}, false
	}

	return sizeFromRect(int(rect.Left), int(rect.Top), int(rect.Right), int(rect.Bottom)), true
}

// instance 懒加载 CUIAutomation，创建失败时下次调用重试
func (a *automationInspector) instance() (*ole.IUnknown, error) {
	if a.automation != nil {
		return a.automation, nil
	}

	unk, err := ole.CreateInstance(clsidCUIAutomation, iidIUIAutomation)
	if err != nil {
		return nil, fmt.Errorf("创建 CUIAutomation 失败: %w", err)
	}
	a.automation = unk
	return unk, nil
}

// Close releases the automation object. Call it on the thread that ran
// InitThread; the tracker does this when its sampling loop exits.
func (a *automationInspector) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.automation != nil {
		a.automation.Release()
		a.automation = nil
	}
}

// windowFromPoint 返回坐标处的窗口句柄，没有窗口时为 0
func windowFromPoint(x, y int) uintptr {
	if procWindowFromPoint.Find() != nil {
		return 0
	}
	hwnd, _, _ := procWindowFromPoint.Call(packPoint(x, y)...)
	return hwnd
}

// packPoint 按调用约定传递按值的 POINT
// 64 位下 8 字节结构体占一个寄存器，32 位下拆成两个栈参数
func packPoint(x, y int) []uintptr {
	if unsafe.Sizeof(uintptr(0)) == 8 {
		return []uintptr{uintptr(uint64(uint32(int32(x))) | uint64(uint32(int32(y)))<<32)}
	}
	return []uintptr{uintptr(uint32(int32(x))), uintptr(uint32(int32(y)))}
}

// vtableCall 调用 COM 对象 vtable 第 index 个方法
func vtableCall(obj *ole.IUnknown, index int, args ...uintptr) uintptr {
	slot := unsafe.Add(unsafe.Pointer(obj.RawVTable), uintptr(index)*unsafe.Sizeof(uintptr(0)))
	fn := *(*uintptr)(slot)
	hr, _, _ := syscall.SyscallN(fn, append([]uintptr{uintptr(unsafe.Pointer(obj))}, args...)...)
	return hr
}
