package launch

import "path/filepath"

// Request describes one external program launch. Immutable once built.
type Request struct {
	// Path is the executable path or bare name (resolved via PATH).
	Path string
	// Args is the ordered argument list, passed verbatim without a shell.
	Args []string
	// Dir is the working directory; empty means inherit from the host.
	Dir string
}

// NewRequest builds a Request, resolving the working directory: an
// explicit startIn wins, then the directory component of the executable
// path, then the host's inherited default.
func NewRequest(path string, args []string, startIn string) Request {
	dir := startIn
	if dir == "" {
		if d := filepath.Dir(path); d != "." && d != "" {
			dir = d
		}
	}
	return Request{Path: path, Args: args, Dir: dir}
}

// Empty reports whether there is nothing to launch.
func (r Request) Empty() bool {
	return r.Path == ""
}
