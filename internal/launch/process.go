package launch

import (
	"os/exec"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// Process owns one spawned external process. Exit is observed by a
// single reaper goroutine; Done is closed exactly once on exit.
type Process struct {
	cmd  *exec.Cmd
	pid  int
	done chan struct{}

	exitErr  error // valid after done is closed
	killOnce sync.Once
}

func newProcess(cmd *exec.Cmd) *Process {
	p := &Process{
		cmd:  cmd,
		pid:  cmd.Process.Pid,
		done: make(chan struct{}),
	}
	go func() {
		p.exitErr = cmd.Wait()
		close(p.done)
	}()
	return p
}

// PID returns the OS process ID.
func (p *Process) PID() int { return p.pid }

// Done returns a channel closed when the process has exited.
func (p *Process) Done() <-chan struct{} { return p.done }

// Wait blocks until the process exits and returns its exit error.
func (p *Process) Wait() error {
	<-p.done
	return p.exitErr
}

// Exited reports whether the process has already exited.
func (p *Process) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Alive reports whether the process is still running. The reaper channel
// is the primary source; the OS process table is the tie-breaker for the
// window between exit and reaping.
func (p *Process) Alive() bool {
	if p.Exited() {
		return false
	}
	exists, err := process.PidExists(int32(p.pid))
	if err != nil {
		return true // can't tell; assume alive
	}
	return exists
}

// Kill terminates the process: a graceful terminate first, then a forced
// kill once the grace period elapses without exit. Calling Kill on an
// already-exited process, or calling it repeatedly, is a no-op; "process
// already finished" races are an expected outcome, not a fault.
func (p *Process) Kill(grace time.Duration) error {
	if p.Exited() {
		return nil
	}
	p.killOnce.Do(func() {
		p.terminate(grace)
	})
	return nil
}

func (p *Process) terminate(grace time.Duration) {
	proc, err := process.NewProcess(int32(p.pid))
	if err != nil {
		// Already gone from the process table, or unreadable; make sure.
		_ = p.cmd.Process.Kill()
		return
	}
	_ = proc.Terminate()

	if grace <= 0 {
		_ = p.cmd.Process.Kill()
		return
	}

	// Escalate off the caller's goroutine so teardown never stalls on a
	// program that ignores the polite request.
	go func() {
		select {
		case <-p.done:
		case <-time.After(grace):
			_ = proc.Kill()
			_ = p.cmd.Process.Kill()
		}
	}()
}
