// Package winapitest provides an in-memory Windowing implementation for
// tests. It records every operation in order and lets tests script when a
// process's top-level window appears or dies.
package winapitest

import (
	"fmt"
	"sync"
	"time"

	"github.com/winpane/winpane/internal/winapi"
)

// Op records one windowing operation.
type Op struct {
	Name   string // "set_child_style", "reparent", "fit", "resize"
	Window winapi.Handle
	Parent winapi.Handle // reparent only
	Width  int
	Height int
}

// Fake implements winapi.Windowing in memory.
//
// Unlike the real implementation it is safe for concurrent use, so tests
// can script window appearance from a separate goroutine while the code
// under test polls.
type Fake struct {
	mu       sync.Mutex
	byPID    map[int]winapi.Handle
	windows  map[winapi.Handle]bool // live handles
	parents  map[winapi.Handle]winapi.Handle
	ops      []Op
	failNext map[string]error
}

// NewFake creates an empty fake with no windows.
func NewFake() *Fake {
	return &Fake{
		byPID:    make(map[int]winapi.Handle),
		windows:  make(map[winapi.Handle]bool),
		parents:  make(map[winapi.Handle]winapi.Handle),
		failNext: make(map[string]error),
	}
}

// AddWindow makes h the top-level window for pid.
func (f *Fake) AddWindow(pid int, h winapi.Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byPID[pid] = h
	f.windows[h] = true
}

// Invalidate destroys a window, as a fast-exiting process would.
func (f *Fake) Invalidate(h winapi.Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.windows, h)
	for pid, wh := range f.byPID {
		if wh == h {
			delete(f.byPID, pid)
		}
	}
}

// FailNext makes the next call to the named operation return err.
func (f *Fake) FailNext(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext[op] = err
}

// Ops returns a copy of all recorded operations in call order.
func (f *Fake) Ops() []Op {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Op, len(f.ops))
	copy(out, f.ops)
	return out
}

// OpsNamed returns recorded operations with the given name, in order.
func (f *Fake) OpsNamed(name string) []Op {
	var out []Op
	for _, op := range f.Ops() {
		if op.Name == name {
			out = append(out, op)
		}
	}
	return out
}

// Parent returns the recorded parent of h.
func (f *Fake) Parent(h winapi.Handle) winapi.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.parents[h]
}

func (f *Fake) FindMainWindow(pid int) (winapi.Handle, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.byPID[pid]
	return h, ok
}

func (f *Fake) IsWindow(h winapi.Handle) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.windows[h]
}

func (f *Fake) SetChildStyle(h winapi.Handle) error {
	return f.record(Op{Name: "set_child_style", Window: h})
}

func (f *Fake) Reparent(h, parent winapi.Handle) error {
	f.mu.Lock()
	f.parents[h] = parent
	f.mu.Unlock()
	return f.record(Op{Name: "reparent", Window: h, Parent: parent})
}

func (f *Fake) FitToContainer(h winapi.Handle, width, height int) error {
	return f.record(Op{Name: "fit", Window: h, Width: width, Height: height})
}

func (f *Fake) Resize(h winapi.Handle, width, height int) error {
	return f.record(Op{Name: "resize", Window: h, Width: width, Height: height})
}

func (f *Fake) WaitInputIdle(pid int, timeout time.Duration) error {
	return nil
}

func (f *Fake) record(op Op) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failNext[op.Name]; ok {
		delete(f.failNext, op.Name)
		return err
	}
	if !f.windows[op.Window] {
		return fmt.Errorf("%s: window %#x is not live", op.Name, uintptr(op.Window))
	}
	f.ops = append(f.ops, op)
	return nil
}
