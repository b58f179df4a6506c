// Package preprocess prepares raw source text for the lexer.
package preprocess

import "strings"

// DefaultMarker starts a comment line.
const DefaultMarker = '#'

// Clean removes every carriage return and blanks every line whose first
// character is marker. Line breaks are kept, so positions reported by the
// lexer and parser still point at the original lines.
func Clean(src string, marker byte) string {
	src = strings.ReplaceAll(src, "\r", "")
	lines := strings.Split(src, "\n")
	for i, line := range lines {
		if len(line) > 0 && line[0] == marker {
			lines[i] = ""
		}
	}
	return strings.Join(lines, "\n")
}

