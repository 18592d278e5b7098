package session

import (
	"context"
	"os/exec"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/winpane/winpane/internal/infrastructure/logging"
	"github.com/winpane/winpane/internal/infrastructure/monitoring"
	"github.com/winpane/winpane/internal/launch"
	"github.com/winpane/winpane/internal/shared/id"
	"github.com/winpane/winpane/internal/uiloop"
	"github.com/winpane/winpane/internal/winapi"
	"github.com/winpane/winpane/internal/winapi/winapitest"
)

// recordingHost captures container removals and notifications.
type recordingHost struct {
	mu       sync.Mutex
	removed  []id.ContainerID
	messages []string
}

func (h *recordingHost) RemoveContainer(cid id.ContainerID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removed = append(h.removed, cid)
}

func (h *recordingHost) Notify(title, message string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, message)
}

func (h *recordingHost) removals() []id.ContainerID {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]id.ContainerID, len(h.removed))
	copy(out, h.removed)
	return out
}

func (h *recordingHost) notifications() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.messages))
	copy(out, h.messages)
	return out
}

type fixture struct {
	loop *uiloop.Loop
	fake *winapitest.Fake
	host *recordingHost
	reg  *Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	loop := uiloop.New()
	go loop.Run()
	t.Cleanup(loop.Close)

	fake := winapitest.NewFake()
	host := &recordingHost{}
	reg := NewRegistry(loop, fake, launch.NewLauncher(logging.NewNop()), host, Config{
		PollInterval:  20 * time.Millisecond,
		WindowTimeout: 2 * time.Second,
		KillGrace:     200 * time.Millisecond,
	}, logging.NewNop(), monitoring.NewMetrics())

	return &fixture{loop: loop, fake: fake, host: host, reg: reg}
}

func testContainer(surface winapi.Handle) Container {
	return Container{
		ID:      id.NewContainerID(),
		Surface: surface,
		Width:   800,
		Height:  600,
	}
}

// openViaRegistry opens a session around a long-lived process and
// scripts its window into the fake so the embed can proceed.
func (f *fixture) openViaRegistry(t *testing.T, container Container) id.SessionID {
	t.Helper()
	ctx := context.Background()

	sid, err := f.reg.Open(ctx, container, launch.NewRequest(lookPath(t, "sleep"), []string{"60"}, ""))
	require.NoError(t, err)
	require.NotEmpty(t, sid)

	info, ok, err := f.reg.Get(ctx, container.ID)
	require.NoError(t, err)
	require.True(t, ok)
	f.fake.AddWindow(info.PID, winapi.Handle(uintptr(info.PID)))
	return sid
}

// proc fetches the session's process handle; the pointer is immutable
// once the session exists, so holding it off the loop is safe.
func (f *fixture) proc(t *testing.T, cid id.ContainerID) *launch.Process {
	t.Helper()
	var p *launch.Process
	require.NoError(t, f.loop.Do(context.Background(), func() error {
		if sess, ok := f.reg.sessions[cid]; ok {
			p = sess.proc
		}
		return nil
	}))
	require.NotNil(t, p)
	return p
}

// embedded reports whether the container's session reached StateEmbedded.
func (f *fixture) embedded(cid id.ContainerID) func() bool {
	return func() bool {
		info, ok, err := f.reg.Get(context.Background(), cid)
		return err == nil && ok && info.State == StateEmbedded
	}
}

func TestOpenEmbedsWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	container := testContainer(0x500)

	f.openViaRegistry(t, container)
	require.Eventually(t, f.embedded(container.ID), 3*time.Second, 10*time.Millisecond)

	info, ok, err := f.reg.Get(ctx, container.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, container.Surface, f.fake.Parent(info.Window))
	assert.Equal(t, "sleep", info.Program)

	// Initial fit used the container's geometry.
	fits := f.fake.OpsNamed("fit")
	require.Len(t, fits, 1)
	assert.Equal(t, 800, fits[0].Width)
	assert.Equal(t, 600, fits[0].Height)
}

func TestOpenEmptyRequestIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sid, err := f.reg.Open(ctx, testContainer(0x500), launch.Request{})
	require.NoError(t, err)
	assert.Empty(t, sid)

	n, err := f.reg.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOpenLaunchFailureNotifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.reg.Open(ctx, testContainer(0x500), launch.NewRequest("no-such-binary-3872", nil, ""))
	require.Error(t, err)

	var lerr *launch.Error
	assert.ErrorAs(t, err, &lerr)

	require.Eventually(t, func() bool {
		return len(f.host.notifications()) == 1
	}, time.Second, 10*time.Millisecond)

	n, err := f.reg.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestResizeAppliesInOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	container := testContainer(0x500)

	f.openViaRegistry(t, container)
	require.Eventually(t, f.embedded(container.ID), 3*time.Second, 10*time.Millisecond)

	require.NoError(t, f.reg.Resize(ctx, container.ID, 100, 100))
	require.NoError(t, f.reg.Resize(ctx, container.ID, 50, 200))

	resizes := f.fake.OpsNamed("resize")
	require.Len(t, resizes, 2)
	assert.Equal(t, Geometry{Width: 100, Height: 100}, Geometry{Width: resizes[0].Width, Height: resizes[0].Height})
	assert.Equal(t, Geometry{Width: 50, Height: 200}, Geometry{Width: resizes[1].Width, Height: resizes[1].Height})
}

func TestResizeBeforeEmbedUpdatesGeometry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	container := testContainer(0x500)

	// Open without a scripted window: the session stays in polling.
	sid, err := f.reg.Open(ctx, container, launch.NewRequest(lookPath(t, "sleep"), []string{"60"}, ""))
	require.NoError(t, err)
	require.NotEmpty(t, sid)

	require.NoError(t, f.reg.Resize(ctx, container.ID, 320, 240))

	// Now let the window appear; the embed must use the latest geometry.
	info, ok, err := f.reg.Get(ctx, container.ID)
	require.NoError(t, err)
	require.True(t, ok)
	f.fake.AddWindow(info.PID, winapi.Handle(0x77))

	require.Eventually(t, func() bool {
		return len(f.fake.OpsNamed("fit")) == 1
	}, 3*time.Second, 10*time.Millisecond)

	fit := f.fake.OpsNamed("fit")[0]
	assert.Equal(t, 320, fit.Width)
	assert.Equal(t, 240, fit.Height)
	assert.Empty(t, f.fake.OpsNamed("resize"))
}

func TestResizeUnknownContainerIsNoOp(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.reg.Resize(context.Background(), id.NewContainerID(), 10, 10))
	assert.Empty(t, f.fake.OpsNamed("resize"))
}

func TestHostCloseKillsProcess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	container := testContainer(0x500)

	f.openViaRegistry(t, container)
	proc := f.proc(t, container.ID)

	require.NoError(t, f.reg.Close(ctx, container.ID))

	_, ok, err := f.reg.Get(ctx, container.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	// Process terminated (grace then force).
	require.Eventually(t, proc.Exited, 3*time.Second, 10*time.Millisecond)

	assert.Equal(t, []id.ContainerID{container.ID}, f.host.removals())
}

func TestCloseTwiceIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	container := testContainer(0x500)

	f.openViaRegistry(t, container)

	require.NoError(t, f.reg.Close(ctx, container.ID))
	require.NoError(t, f.reg.Close(ctx, container.ID))

	// Exactly one teardown reached the host.
	assert.Len(t, f.host.removals(), 1)
}

func TestCloseDuringWaitIsSilent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	container := testContainer(0x500)

	// No scripted window: the session is still polling when the host
	// closes it.
	sid, err := f.reg.Open(ctx, container, launch.NewRequest(lookPath(t, "sleep"), []string{"60"}, ""))
	require.NoError(t, err)
	require.NotEmpty(t, sid)

	require.NoError(t, f.reg.Close(ctx, container.ID))

	// The waiter observes the process we just killed; a close the user
	// asked for must not surface as a failure notification.
	assert.Never(t, func() bool {
		return len(f.host.notifications()) > 0
	}, 500*time.Millisecond, 20*time.Millisecond)
	assert.Equal(t, []id.ContainerID{container.ID}, f.host.removals())
}

func TestProcessExitClosesSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	container := testContainer(0x500)

	f.openViaRegistry(t, container)
	require.Eventually(t, f.embedded(container.ID), 3*time.Second, 10*time.Millisecond)

	// The program exits on its own.
	require.NoError(t, f.proc(t, container.ID).Kill(0))

	require.Eventually(t, func() bool {
		_, ok, err := f.reg.Get(ctx, container.ID)
		return err == nil && !ok
	}, 3*time.Second, 10*time.Millisecond)

	assert.Equal(t, []id.ContainerID{container.ID}, f.host.removals())
}

func TestExitedEarlySessionFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	container := testContainer(0x500)

	// A program that exits without ever showing a window.
	sid, err := f.reg.Open(ctx, container, launch.NewRequest(lookPath(t, "true"), nil, ""))
	require.NoError(t, err)
	require.NotEmpty(t, sid)

	require.Eventually(t, func() bool {
		_, ok, err := f.reg.Get(ctx, container.ID)
		return err == nil && !ok
	}, 3*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		return len(f.host.notifications()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Contains(t, f.host.notifications()[0], "exited before a window appeared")
	assert.Len(t, f.host.removals(), 1)
}

func TestShutdownSweepsAllSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var procs []*launch.Process
	for i := 0; i < 3; i++ {
		container := testContainer(winapi.Handle(0x500 + uintptr(i)))
		f.openViaRegistry(t, container)
		procs = append(procs, f.proc(t, container.ID))
	}

	require.NoError(t, f.reg.Shutdown(ctx))

	n, err := f.reg.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	for _, proc := range procs {
		require.Eventually(t, proc.Exited, 3*time.Second, 10*time.Millisecond,
			"process %d survived shutdown", proc.PID())
	}
	assert.Len(t, f.host.removals(), 3)
}

func lookPath(t *testing.T, name string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses unix helper binaries")
	}
	path, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("%s not available on this system", name)
	}
	return path
}
