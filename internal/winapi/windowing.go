// Package winapi isolates native window manipulation behind a narrow
// capability interface.
//
// The embedding subsystem needs exactly seven operations from the
// platform: find a process's top-level window, validate a handle,
// rewrite style bits for child behavior, reparent, the initial
// fit-to-container (which forces a non-client frame recompute), cheap
// resizes, and a best-effort input-idle wait. The Win32 bit-level
// encoding lives entirely in this package; everything above it works
// against the Windowing interface and is tested with winapitest.Fake.
package winapi

import (
	"errors"
	"time"
)

// Handle is an opaque native window handle (HWND on Windows).
type Handle uintptr

// None is the zero window handle.
const None Handle = 0

// ErrUnsupported is returned by every operation on platforms without a
// native windowing implementation.
var ErrUnsupported = errors.New("native windowing is not supported on this platform")

// Windowing is the capability surface the embedder and resize
// synchronizer depend on. Implementations must only be called from the
// thread that owns the relevant native objects; the UI loop enforces
// that for production use.
type Windowing interface {
	// FindMainWindow locates the process's top-level window: visible,
	// unowned, and belonging to pid. Returns false while none exists.
	FindMainWindow(pid int) (Handle, bool)

	// IsWindow reports whether the handle still identifies a live window.
	IsWindow(h Handle) bool

	// SetChildStyle rewrites the window's style bits for embedding:
	// caption and resizable thick frame cleared, child and visible set.
	SetChildStyle(h Handle) error

	// Reparent makes parent the window's new parent surface.
	Reparent(h, parent Handle) error

	// FitToContainer sizes the window to (0,0,width,height), forces the
	// window manager to recompute non-client decorations from the new
	// style, and shows the window, all without changing z-order.
	FitToContainer(h Handle, width, height int) error

	// Resize moves the window to (0,0,width,height) preserving z-order,
	// without the frame recompute. Cheaper than FitToContainer.
	Resize(h Handle, width, height int) error

	// WaitInputIdle gives the process a chance to reach an input-ready
	// state before window polling begins. Best-effort; errors are
	// advisory.
	WaitInputIdle(pid int, timeout time.Duration) error
}
