package session

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/winpane/winpane/internal/launch"
	"github.com/winpane/winpane/internal/winapi"
)

const (
	// DefaultPollInterval is how often the waiter checks for a window.
	DefaultPollInterval = 100 * time.Millisecond
	// DefaultWindowTimeout bounds how long a program may take to show
	// its top-level window.
	DefaultWindowTimeout = 5 * time.Second
)

// WaitConfig tunes the window wait loop.
type WaitConfig struct {
	PollInterval time.Duration
	Timeout      time.Duration
}

func (c WaitConfig) withDefaults() WaitConfig {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultWindowTimeout
	}
	return c
}

// WaitForWindow polls until proc exposes a top-level window, the process
// exits, the timeout elapses, or ctx is cancelled.
//
// Success is the first non-null handle seen while the process is still
// alive, regardless of remaining budget. ErrExitedEarly is reported
// within one poll interval of the process dying; ErrWindowTimeout no
// earlier than the bound and no later than the bound plus one interval.
// The caller owns termination of the process on failure.
//
// The loop yields between ticks and must never run on the UI loop; run
// it on the session's own goroutine so at most one polling cycle exists
// per session.
func WaitForWindow(ctx context.Context, win winapi.Windowing, proc *launch.Process, cfg WaitConfig) (winapi.Handle, error) {
	cfg = cfg.withDefaults()

	// Give the program a chance to reach an input-ready state first.
	// Best-effort: console programs and slow starters fail this, and
	// that is fine.
	_ = win.WaitInputIdle(proc.PID(), cfg.PollInterval)

	limiter := rate.NewLimiter(rate.Every(cfg.PollInterval), 1)
	start := time.Now()

	for {
		if err := limiter.Wait(ctx); err != nil {
			return winapi.None, err
		}

		if h, ok := win.FindMainWindow(proc.PID()); ok && proc.Alive() {
			return h, nil
		}
		if !proc.Alive() {
			return winapi.None, ErrExitedEarly
		}
		if time.Since(start) >= cfg.Timeout {
			return winapi.None, ErrWindowTimeout
		}
	}
}
