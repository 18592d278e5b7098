//go:build windows

package winapi

import (
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	gwlStyle = -16

	wsCaption    = 0x00C00000
	wsThickFrame = 0x00040000
	wsChild      = 0x40000000
	wsVisible    = 0x10000000

	swpNoZOrder     = 0x0004
	swpFrameChanged = 0x0020
	swpShowWindow   = 0x0040

	gwOwner = 4
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procSetLastError = kernel32.NewProc("SetLastError")

	procEnumWindows              = user32.NewProc("EnumWindows")
	procGetWindow                = user32.NewProc("GetWindow")
	procGetWindowLongPtrW        = user32.NewProc("GetWindowLongPtrW")
	procGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")
	procIsWindow                 = user32.NewProc("IsWindow")
	procIsWindowVisible          = user32.NewProc("IsWindowVisible")
	procSetParent                = user32.NewProc("SetParent")
	procSetWindowLongPtrW        = user32.NewProc("SetWindowLongPtrW")
	procSetWindowPos             = user32.NewProc("SetWindowPos")
	procWaitForInputIdle         = user32.NewProc("WaitForInputIdle")
)

// win32 implements Windowing against user32.
type win32 struct{}

// New returns the native Windowing implementation.
func New() Windowing { return win32{} }

type findContext struct {
	pid   uint32
	found Handle
}

// enumCallback is created once; EnumWindows callbacks cannot be released.
var enumCallback = windows.NewCallback(func(hwnd, lparam uintptr) uintptr {
	ctx := (*findContext)(unsafe.Pointer(lparam))

	var wpid uint32
	procGetWindowThreadProcessId.Call(hwnd, uintptr(unsafe.Pointer(&wpid)))
	if wpid != ctx.pid {
		return 1 // continue enumeration
	}
	if owner, _, _ := procGetWindow.Call(hwnd, gwOwner); owner != 0 {
		return 1 // owned popup, not the main window
	}
	if visible, _, _ := procIsWindowVisible.Call(hwnd); visible == 0 {
		return 1
	}

	ctx.found = Handle(hwnd)
	return 0 // stop
})

func (win32) FindMainWindow(pid int) (Handle, bool) {
	ctx := findContext{pid: uint32(pid)}
	procEnumWindows.Call(enumCallback, uintptr(unsafe.Pointer(&ctx)))
	return ctx.found, ctx.found != None
}

func (win32) IsWindow(h Handle) bool {
	r, _, _ := procIsWindow.Call(uintptr(h))
	return r != 0
}

func (win32) SetChildStyle(h Handle) error {
	index := gwlStyle

	// Zero is a legal style and a legal previous style; only a set
	// last-error distinguishes failure. Clear it before each call.
	procSetLastError.Call(0)
	style, _, err := procGetWindowLongPtrW.Call(uintptr(h), uintptr(index))
	if style == 0 && err != windows.ERROR_SUCCESS {
		return fmt.Errorf("get window style for %#x: %w", uintptr(h), err)
	}

	style &^= wsCaption | wsThickFrame
	style |= wsChild | wsVisible

	procSetLastError.Call(0)
	if prev, _, err := procSetWindowLongPtrW.Call(uintptr(h), uintptr(index), style); prev == 0 && err != windows.ERROR_SUCCESS {
		return fmt.Errorf("set window style for %#x: %w", uintptr(h), err)
	}
	return nil
}

func (win32) Reparent(h, parent Handle) error {
	if r, _, err := procSetParent.Call(uintptr(h), uintptr(parent)); r == 0 {
		return fmt.Errorf("reparent %#x into %#x: %w", uintptr(h), uintptr(parent), err)
	}
	return nil
}

func (win32) FitToContainer(h Handle, width, height int) error {
	return setWindowPos(h, width, height, swpNoZOrder|swpFrameChanged|swpShowWindow)
}

func (win32) Resize(h Handle, width, height int) error {
	return setWindowPos(h, width, height, swpNoZOrder)
}

func setWindowPos(h Handle, width, height int, flags uintptr) error {
	r, _, err := procSetWindowPos.Call(
		uintptr(h),
		0, // insert-after ignored with SWP_NOZORDER
		0, 0,
		uintptr(width), uintptr(height),
		flags,
	)
	if r == 0 {
		return fmt.Errorf("position window %#x: %w", uintptr(h), err)
	}
	return nil
}

func (win32) WaitInputIdle(pid int, timeout time.Duration) error {
	proc, err := windows.OpenProcess(
		windows.SYNCHRONIZE|windows.PROCESS_QUERY_LIMITED_INFORMATION,
		false,
		uint32(pid),
	)
	if err != nil {
		return fmt.Errorf("open process %d: %w", pid, err)
	}
	defer windows.CloseHandle(proc)

	ms := uintptr(timeout / time.Millisecond)
	// Returns WAIT_FAILED for console processes; callers treat any error
	// as advisory.
	if r, _, _ := procWaitForInputIdle.Call(uintptr(proc), ms); r != 0 {
		return fmt.Errorf("wait for input idle on pid %d: result %d", pid, r)
	}
	return nil
}
