// Package launch spawns and owns external processes.
//
// Programs are started with an explicit argv and working directory, never
// through a shell, so arguments survive verbatim. Each spawned process is
// wrapped in a Process handle that reports exit asynchronously and
// terminates gracefully with a force-kill escalation.
package launch

import (
	"errors"
	"fmt"
	"os/exec"

	"go.uber.org/zap"

	"github.com/winpane/winpane/internal/infrastructure/logging"
)

// Error reports a failed process launch. It is always recoverable: the
// host surfaces it to the user and carries on.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("launch %q: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Launcher spawns external processes from launch requests.
type Launcher struct {
	log *logging.Logger
}

// NewLauncher creates a launcher.
func NewLauncher(log *logging.Logger) *Launcher {
	if log == nil {
		log = logging.NewNop()
	}
	return &Launcher{log: log}
}

// Start spawns the process described by req. The argument list is passed
// verbatim with no shell interpretation. Returns *Error when the
// executable cannot be found or the spawn itself fails.
func (l *Launcher) Start(req Request) (*Process, error) {
	if req.Empty() {
		return nil, &Error{Path: req.Path, Err: errors.New("empty executable path")}
	}

	cmd := exec.Command(req.Path, req.Args...)
	cmd.Dir = req.Dir

	if err := cmd.Start(); err != nil {
		l.log.Warn("Failed to start process",
			zap.String("path", req.Path),
			zap.Error(err),
		)
		return nil, &Error{Path: req.Path, Err: err}
	}

	l.log.Info("Process started",
		zap.String("path", req.Path),
		zap.Int("pid", cmd.Process.Pid),
		zap.String("dir", req.Dir),
	)

	return newProcess(cmd), nil
}
