// Package session couples external processes to host-owned containers.
//
// One session ties together a container surface, the process launched
// into it, and the process's embedded top-level window. The Registry
// owns all sessions and guarantees that the two independent termination
// triggers (host closes the container, process exits on its own)
// converge on a single idempotent teardown.
//
// Components:
//   - WaitForWindow: polls for a launched process's top-level window
//     under a timeout, racing against process exit
//   - Embed: reparents a discovered window into the container and
//     rewrites its style bits for child behavior
//   - Registry: session ownership, geometry synchronization, and
//     bidirectional lifecycle coupling
//
// Concurrency model: the registry map and every native window call run
// on the single UI loop. Spawning and window-waiting are the only
// off-loop activities, each confined to one goroutine per session; they
// marshal results back via the loop. For a given session, operations
// occur strictly in the order spawn, wait, embed, resizes (in
// geometry-change order), close.
package session
