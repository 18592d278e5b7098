package session

import "errors"

var (
	// ErrWindowTimeout: no top-level window appeared within the bound.
	ErrWindowTimeout = errors.New("no window appeared before timeout")

	// ErrExitedEarly: the process ended before a window ever appeared.
	ErrExitedEarly = errors.New("process exited before a window appeared")

	// ErrEmbedRace: the window handle was invalidated between discovery
	// and embedding. Treated the same as an early exit.
	ErrEmbedRace = errors.New("window disappeared before embedding")
)

// failureReason maps a session failure to a metrics label.
func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrWindowTimeout):
		return "timeout"
	case errors.Is(err, ErrExitedEarly):
		return "exited_early"
	case errors.Is(err, ErrEmbedRace):
		return "embed_race"
	default:
		return "internal"
	}
}
