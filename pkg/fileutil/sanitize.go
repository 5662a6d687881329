package fileutil

import (
	"strings"
	"unicode/utf8"
)

const maxFilenameLen = 120

// SanitizeFilename turns arbitrary text into a name safe to use as a single
// path segment on common filesystems. Reserved characters and control
// characters become underscores; the result is trimmed and length-capped.
func SanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	for _, r := range name {
		switch {
		case r == '\\' || r == '/' || r == ':' || r == '*' || r == '?' ||
			r == '"' || r == '<' || r == '>' || r == '|':
			b.WriteByte('_')
		case r < 0x20 || r == 0x7f:
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}

	out := strings.TrimSpace(b.String())
	// trailing dots break Windows paths
	out = strings.TrimRight(out, ".")

	for utf8.RuneCountInString(out) > maxFilenameLen {
		_, size := utf8.DecodeLastRuneInString(out)
		out = out[:len(out)-size]
	}

	if out == "" {
		return "untitled"
	}
	return out
}
