// Package uiloop provides the single-threaded actor that owns every
// container, registry, and native-window operation.
//
// Most platform windowing APIs are only safe to call from the thread
// that created the relevant object. Instead of ad-hoc marshalling
// callbacks, all such work is a request enqueued to one event loop whose
// goroutine is pinned to its OS thread. Callers submit closures and
// await the result; tasks run strictly in submission order.
package uiloop

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// ErrClosed is returned when submitting work to a stopped loop.
var ErrClosed = errors.New("ui loop is closed")

// Loop is a single-threaded task executor.
type Loop struct {
	tasks chan func()
	quit  chan struct{}
	done  chan struct{}

	closeOnce sync.Once
}

// New creates a loop. Run must be called for tasks to execute.
func New() *Loop {
	return &Loop{
		tasks: make(chan func(), 64),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Run executes tasks until Close, pinned to one OS thread. It drains
// tasks already queued at close time so awaiting callers are released.
// Blocks; typically invoked as a dedicated goroutine at startup.
func (l *Loop) Run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(l.done)

	for {
		select {
		case task := <-l.tasks:
			task()
		case <-l.quit:
			for {
				select {
				case task := <-l.tasks:
					task()
				default:
					return
				}
			}
		}
	}
}

// Do runs fn on the loop thread and returns its error. Submission and
// completion both respect ctx; ErrClosed is returned when the loop has
// stopped.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	task := func() { result <- fn() }

	select {
	case l.tasks <- task:
	case <-l.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-result:
		return err
	case <-l.done:
		// The loop drained its queue and exited before running fn.
		select {
		case err := <-result:
			return err
		default:
			return ErrClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Post enqueues fn without awaiting it. Returns false if the loop has
// stopped accepting work.
func (l *Loop) Post(fn func()) bool {
	// The task channel is buffered, so a send can still succeed after
	// close; check quit first so post-close is a firm no.
	select {
	case <-l.quit:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.quit:
		return false
	}
}

// Close stops the loop and waits for queued tasks to finish.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		close(l.quit)
	})
	<-l.done
}
