package session

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/winpane/winpane/internal/infrastructure/logging"
	"github.com/winpane/winpane/internal/infrastructure/monitoring"
	"github.com/winpane/winpane/internal/launch"
	"github.com/winpane/winpane/internal/shared/id"
	"github.com/winpane/winpane/internal/uiloop"
	"github.com/winpane/winpane/internal/winapi"
)

// Host is the external collaborator owning container UI. RemoveContainer
// and Notify are always invoked from the UI loop.
type Host interface {
	// RemoveContainer drops the container's UI representation (tab,
	// pane) after its session is gone.
	RemoveContainer(cid id.ContainerID)

	// Notify surfaces a user-visible message for a failed session.
	Notify(title, message string)
}

// Config tunes registry behavior.
type Config struct {
	PollInterval  time.Duration
	WindowTimeout time.Duration
	// KillGrace is how long a terminated process may linger before the
	// forced kill.
	KillGrace time.Duration
}

// Registry owns the mapping from containers to embedding sessions.
//
// The session map is confined to the UI loop: every read and write, and
// every native window call, happens there. Idempotent teardown falls out
// of that discipline: whichever termination trigger runs second finds
// the session already absent and does nothing. No locking involved.
type Registry struct {
	loop     *uiloop.Loop
	win      winapi.Windowing
	launcher *launch.Launcher
	host     Host
	cfg      Config
	log      *logging.Logger
	metrics  *monitoring.Metrics

	// UI-loop confined.
	sessions map[id.ContainerID]*Session
}

// NewRegistry creates a session registry.
func NewRegistry(loop *uiloop.Loop, win winapi.Windowing, launcher *launch.Launcher, host Host, cfg Config, log *logging.Logger, metrics *monitoring.Metrics) *Registry {
	if log == nil {
		log = logging.NewNop()
	}
	if metrics == nil {
		metrics = monitoring.NewMetrics()
	}
	return &Registry{
		loop:     loop,
		win:      win,
		launcher: launcher,
		host:     host,
		cfg:      cfg,
		log:      log,
		metrics:  metrics,
		sessions: make(map[id.ContainerID]*Session),
	}
}

// Open launches req into container and begins the wait-then-embed
// sequence. An empty request is "nothing to launch": no session, no
// error. Launch failures come back synchronously; everything after the
// spawn (timeout, early exit, embed race) is reported through the Host
// and tears the session down without touching any other session.
func (r *Registry) Open(ctx context.Context, container Container, req launch.Request) (id.SessionID, error) {
	if req.Empty() {
		return "", nil
	}

	proc, err := r.launcher.Start(req)
	if err != nil {
		r.metrics.RecordFailure("launch")
		r.notify(req.Path, fmt.Sprintf("could not start %s: %v", filepath.Base(req.Path), err))
		return "", err
	}

	sess := &Session{
		ID:        id.NewSessionID(),
		Container: container,
		name:      filepath.Base(req.Path),
		proc:      proc,
		state:     StateSpawned,
		geom:      Geometry{Width: container.Width, Height: container.Height},
	}

	if err := r.loop.Do(ctx, func() error {
		if _, exists := r.sessions[container.ID]; exists {
			return fmt.Errorf("container %s already hosts a session", container.ID)
		}
		r.sessions[container.ID] = sess
		sess.state = StatePolling
		return nil
	}); err != nil {
		_ = proc.Kill(r.cfg.KillGrace)
		return "", err
	}

	r.metrics.RecordLaunch()
	r.log.Info("Session opened",
		zap.String("session", sess.ID.String()),
		zap.String("container", container.ID.String()),
		zap.String("program", sess.name),
		zap.Int("pid", proc.PID()),
	)

	go r.waitAndEmbed(ctx, sess)

	return sess.ID, nil
}

// waitAndEmbed runs on the session's own goroutine: poll for the window,
// then marshal the embed onto the UI loop, then start watching for exit.
func (r *Registry) waitAndEmbed(ctx context.Context, sess *Session) {
	start := time.Now()
	h, err := WaitForWindow(ctx, r.win, sess.proc, WaitConfig{
		PollInterval: r.cfg.PollInterval,
		Timeout:      r.cfg.WindowTimeout,
	})
	if err != nil {
		// Terminate if still alive; already-exited is the common case
		// for ErrExitedEarly and is swallowed.
		_ = sess.proc.Kill(r.cfg.KillGrace)
		r.fail(sess, err)
		return
	}

	var gone bool
	err = r.loop.Do(ctx, func() error {
		current, ok := r.sessions[sess.Container.ID]
		if !ok || current != sess {
			// Host closed the container while we were waiting; the
			// teardown already handled the process.
			gone = true
			return nil
		}
		sess.win = h
		if embedErr := Embed(r.win, h, sess.Container.Surface, sess.geom); embedErr != nil {
			return embedErr
		}
		sess.state = StateEmbedded
		return nil
	})
	if err != nil {
		_ = sess.proc.Kill(r.cfg.KillGrace)
		r.fail(sess, err)
		return
	}
	if gone {
		return
	}

	r.metrics.RecordEmbed(time.Since(start))
	r.log.Info("Window embedded",
		zap.String("session", sess.ID.String()),
		zap.String("program", sess.name),
		zap.Duration("waited", time.Since(start)),
	)

	go r.watchExit(sess)
}

// watchExit couples the session to the process's lifetime: when the
// program exits on its own, the container side is torn down too.
func (r *Registry) watchExit(sess *Session) {
	<-sess.proc.Done()
	r.loop.Post(func() {
		r.teardown(sess.Container.ID, sess, false)
	})
}

// fail tears down a session that never reached the embedded state. A
// session the host already closed is not a failure: the waiter observing
// the process we just killed must stay silent, so the registered-session
// check gates the notification and the metric, not just the teardown.
func (r *Registry) fail(sess *Session, err error) {
	r.loop.Post(func() {
		if current, ok := r.sessions[sess.Container.ID]; !ok || current != sess {
			return
		}
		r.metrics.RecordFailure(failureReason(err))
		r.log.Warn("Session failed",
			zap.String("session", sess.ID.String()),
			zap.String("program", sess.name),
			zap.Error(err),
		)
		r.notifyOnLoop(sess.name, fmt.Sprintf("%s: %v", sess.name, err))
		r.teardown(sess.Container.ID, sess, false)
	})
}

// Close is the host-initiated trigger: terminate the process if it still
// runs, drop the container UI, and forget the session. Closing an
// unknown or already-closed container is a no-op.
func (r *Registry) Close(ctx context.Context, cid id.ContainerID) error {
	return r.loop.Do(ctx, func() error {
		r.teardown(cid, nil, true)
		return nil
	})
}

// Resize keeps the embedded window matched to the container geometry.
// Changes apply in submission order; before the embed completes they
// update the recorded geometry the embed will use. Unknown containers
// are ignored; the subscription dies with the session.
func (r *Registry) Resize(ctx context.Context, cid id.ContainerID, width, height int) error {
	return r.loop.Do(ctx, func() error {
		sess, ok := r.sessions[cid]
		if !ok {
			return nil
		}
		sess.geom = Geometry{Width: width, Height: height}
		if sess.state != StateEmbedded {
			return nil
		}
		return r.win.Resize(sess.win, width, height)
	})
}

// Shutdown applies the host-initiated close to every remaining session,
// so no external process outlives the host.
func (r *Registry) Shutdown(ctx context.Context) error {
	return r.loop.Do(ctx, func() error {
		for cid := range r.sessions {
			r.teardown(cid, nil, true)
		}
		return nil
	})
}

// Count returns the number of live sessions.
func (r *Registry) Count(ctx context.Context) (int, error) {
	n := 0
	err := r.loop.Do(ctx, func() error {
		n = len(r.sessions)
		return nil
	})
	return n, err
}

// Get returns a snapshot of the session for a container.
func (r *Registry) Get(ctx context.Context, cid id.ContainerID) (Info, bool, error) {
	var (
		info Info
		ok   bool
	)
	err := r.loop.Do(ctx, func() error {
		if sess, exists := r.sessions[cid]; exists {
			info = sess.info()
			ok = true
		}
		return nil
	})
	return info, ok, err
}

// teardown removes a session and releases its resources. UI-loop only.
// expect, when non-nil, guards against tearing down a replacement
// session that reused the container. kill selects the host-initiated
// path; the process-exit path skips the redundant kill.
func (r *Registry) teardown(cid id.ContainerID, expect *Session, kill bool) {
	sess, ok := r.sessions[cid]
	if !ok || (expect != nil && sess != expect) {
		return // second trigger: session already gone
	}
	delete(r.sessions, cid)
	sess.state = StateClosed

	if kill {
		_ = sess.proc.Kill(r.cfg.KillGrace)
	}

	r.host.RemoveContainer(cid)
	r.metrics.RecordClose()
	r.log.Info("Session closed",
		zap.String("session", sess.ID.String()),
		zap.String("program", sess.name),
		zap.Bool("host_initiated", kill),
	)
}

// notify marshals a host notification onto the UI loop.
func (r *Registry) notify(title, message string) {
	r.loop.Post(func() {
		r.notifyOnLoop(title, message)
	})
}

// notifyOnLoop delivers a notification; UI-loop only.
func (r *Registry) notifyOnLoop(title, message string) {
	if r.host != nil {
		r.host.Notify(title, message)
	}
}
