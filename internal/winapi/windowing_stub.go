//go:build !windows

package winapi

import "time"

// unsupported satisfies Windowing on platforms without native window
// embedding. Every operation fails with ErrUnsupported; FindMainWindow
// simply never finds a window.
type unsupported struct{}

// New returns the native Windowing implementation.
func New() Windowing { return unsupported{} }

func (unsupported) FindMainWindow(int) (Handle, bool)      { return None, false }
func (unsupported) IsWindow(Handle) bool                   { return false }
func (unsupported) SetChildStyle(Handle) error             { return ErrUnsupported }
func (unsupported) Reparent(Handle, Handle) error          { return ErrUnsupported }
func (unsupported) FitToContainer(Handle, int, int) error  { return ErrUnsupported }
func (unsupported) Resize(Handle, int, int) error          { return ErrUnsupported }
func (unsupported) WaitInputIdle(int, time.Duration) error { return ErrUnsupported }
