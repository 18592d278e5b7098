// Package id provides centralized ID generation for winpane.
//
// IDs are prefixed ULIDs: lexicographically sortable, unique without
// coordination, and readable in logs (sess_*, cont_*). Separate types
// keep session and container identities from being mixed up at compile
// time.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// SessionID identifies one embedding session.
type SessionID string

// ContainerID identifies a host-owned container surface.
type ContainerID string

const (
	SessionPrefix   = "sess"
	ContainerPrefix = "cont"
)

// Generator generates ULIDs with optional prefixes.
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // protects entropy reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator with secure entropy.
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
// Useful for testing with deterministic entropy.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID.
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string.
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewSessionID generates a new session ID.
func NewSessionID() SessionID {
	return SessionID(Default().GenerateWithPrefix(SessionPrefix))
}

// NewContainerID generates a new container ID.
func NewContainerID() ContainerID {
	return ContainerID(Default().GenerateWithPrefix(ContainerPrefix))
}

func (id SessionID) String() string   { return string(id) }
func (id ContainerID) String() string { return string(id) }

// IsValid checks if a prefixed ID carries a well-formed ULID.
func IsValid(id string) bool {
	raw := id
	if i := strings.IndexByte(id, '_'); i >= 0 {
		raw = id[i+1:]
	}
	_, err := ulid.Parse(raw)
	return err == nil
}

// Timestamp extracts the creation time from a prefixed ID.
func Timestamp(id string) (time.Time, error) {
	raw := id
	if i := strings.IndexByte(id, '_'); i >= 0 {
		raw = id[i+1:]
	}
	parsed, err := ulid.Parse(raw)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
