package session

import (
	"github.com/winpane/winpane/internal/launch"
	"github.com/winpane/winpane/internal/shared/id"
	"github.com/winpane/winpane/internal/winapi"
)

// State describes where a session is in its lifecycle.
type State int

const (
	// StateSpawned: process started, not yet polling for its window.
	StateSpawned State = iota
	// StatePolling: waiting for the top-level window to appear.
	StatePolling
	// StateEmbedded: window reparented into the container.
	StateEmbedded
	// StateClosed: torn down; terminal.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateSpawned:
		return "spawned"
	case StatePolling:
		return "polling"
	case StateEmbedded:
		return "embedded"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Geometry is a container client-area size.
type Geometry struct {
	Width  int
	Height int
}

// Container is the host-owned surface a window is embedded into. The
// host keeps ownership; sessions only reference it.
type Container struct {
	ID      id.ContainerID
	Surface winapi.Handle
	Width   int
	Height  int
}

// Session is one embedding instance: a container, the process launched
// into it, and the process's top-level window. The window handle, once
// captured, never changes for the session's lifetime; if the program
// replaces its main window the session does not follow it.
//
// Mutable fields (state, win, geom) are owned by the UI loop. The rest
// are set at creation and never change.
type Session struct {
	ID        id.SessionID
	Container Container

	name  string // program name for logs and notifications
	proc  *launch.Process
	win   winapi.Handle
	state State
	geom  Geometry // last-known container geometry
}

// Info is a point-in-time view of a session, safe to hold off the loop.
type Info struct {
	ID       id.SessionID
	PID      int
	Program  string
	State    State
	Window   winapi.Handle
	Geometry Geometry
}

// info snapshots the session; UI-loop only.
func (s *Session) info() Info {
	return Info{
		ID:       s.ID,
		PID:      s.proc.PID(),
		Program:  s.name,
		State:    s.state,
		Window:   s.win,
		Geometry: s.geom,
	}
}
