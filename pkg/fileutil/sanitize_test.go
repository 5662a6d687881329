package fileutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text untouched", "hello world", "hello world"},
		{"reserved characters replaced", `a\b/c:d*e?f"g<h>i|j`, "a_b_c_d_e_f_g_h_i_j"},
		{"control characters replaced", "a\x00b\nc", "a_b_c"},
		{"surrounding whitespace trimmed", "  spaced out  ", "spaced out"},
		{"trailing dots trimmed", "name...", "name"},
		{"unicode preserved", "美食探店 vlog", "美食探店 vlog"},
		{"empty input falls back", "", "untitled"},
		{"only reserved chars keeps underscores", "???", "___"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.input))
		})
	}
}

func TestSanitizeFilenameNoReservedRemain(t *testing.T) {
	got := SanitizeFilename(`check / this: out * now? "yes" <ok> |done|`)
	assert.NotContains(t, got, `\`)
	for _, c := range `/:*?"<>|` {
		assert.NotContains(t, got, string(c))
	}
}

func TestSanitizeFilenameCapsLength(t *testing.T) {
	got := SanitizeFilename(strings.Repeat("长", 500))
	assert.LessOrEqual(t, len([]rune(got)), maxFilenameLen)
	assert.NotEmpty(t, got)
}
