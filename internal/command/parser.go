// Package command turns raw command strings into argv vectors.
//
// Parsing is deliberately minimal: whitespace splits tokens, double
// quotes group them, and nothing else is interpreted. Shell
// metacharacters (|, &&, redirection) become literal token content so
// an argument list is never re-quoted through an intermediate shell.
package command

// Parse splits a raw command string into an executable and its arguments.
//
// A double quote begins a token that runs to the next double quote (quotes
// stripped) or, if unterminated, to end of string. An unquoted token runs
// to the next whitespace. Empty or whitespace-only input yields an empty
// executable and nil arguments; callers treat that as nothing to launch.
func Parse(raw string) (string, []string) {
	tokens := tokenize(raw)
	if len(tokens) == 0 {
		return "", nil
	}
	return tokens[0], tokens[1:]
}

func tokenize(raw string) []string {
	var tokens []string
	i := 0
	for i < len(raw) {
		switch {
		case isSpace(raw[i]):
			i++
		case raw[i] == '"':
			j := i + 1
			for j < len(raw) && raw[j] != '"' {
				j++
			}
			tokens = append(tokens, raw[i+1:j])
			if j < len(raw) {
				j++ // skip closing quote
			}
			i = j
		default:
			j := i
			for j < len(raw) && !isSpace(raw[j]) {
				j++
			}
			tokens = append(tokens, raw[i:j])
			i = j
		}
	}
	return tokens
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
