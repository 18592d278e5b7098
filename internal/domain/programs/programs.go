// Package programs loads and persists the known-program list.
//
// The list is a single JSON document of {Title, Command, StartIn}
// entries, read once at startup. A missing or unparsable file falls
// back to a small built-in list rather than failing the host.
package programs

import (
	"fmt"
	"os"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/winpane/winpane/internal/command"
	"github.com/winpane/winpane/internal/infrastructure/logging"
	"github.com/winpane/winpane/internal/launch"
)

// Entry is one known program. Field names match the on-disk document.
type Entry struct {
	Title   string  `json:"Title"`
	Command string  `json:"Command"`
	StartIn *string `json:"StartIn"`
}

// LaunchRequest derives the launch request for this entry: the command
// string parsed into argv, the working directory from StartIn when set.
func (e Entry) LaunchRequest() launch.Request {
	exe, args := command.Parse(e.Command)
	startIn := ""
	if e.StartIn != nil {
		startIn = *e.StartIn
	}
	return launch.NewRequest(exe, args, startIn)
}

// Defaults returns the built-in program list used when no file exists.
func Defaults() []Entry {
	return []Entry{
		{Title: "Notepad", Command: "notepad.exe"},
		{Title: "Calculator", Command: "calc.exe"},
		{Title: "Paint", Command: "mspaint.exe"},
	}
}

// Load reads the program list from path. Absence or a malformed
// document yields the defaults; both are logged, neither is an error.
func Load(path string, log *logging.Logger) []Entry {
	if log == nil {
		log = logging.NewNop()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Info("Program list not found, using defaults",
			zap.String("path", path),
			zap.Error(err),
		)
		return Defaults()
	}

	var entries []Entry
	if err := sonic.Unmarshal(data, &entries); err != nil {
		log.Warn("Program list unparsable, using defaults",
			zap.String("path", path),
			zap.Error(err),
		)
		return Defaults()
	}

	return entries
}

// Save writes the program list to path.
func Save(path string, entries []Entry) error {
	data, err := sonic.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal program list: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write program list: %w", err)
	}
	return nil
}

// FindByTitle returns the entry with the given title.
func FindByTitle(entries []Entry, title string) (Entry, bool) {
	for _, e := range entries {
		if e.Title == title {
			return e, true
		}
	}
	return Entry{}, false
}
