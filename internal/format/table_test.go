package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		width int
		want  string
	}{
		{"pads", "ab", 4, "ab  "},
		{"exact", "abcd", 4, "abcd"},
		{"cuts", "abcdef", 4, "abcd"},
		{"wide runes", "日本", 5, "日本 "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatString(tt.input, tt.width))
		})
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		width int
		want  string
	}{
		{"fits", "short", 8, "short   "},
		{"ellipsis", "a long description", 10, "a long ..."},
		{"tiny width", "abcdef", 2, "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, truncateString(tt.input, tt.width))
		})
	}
}

func TestMakeSeparator(t *testing.T) {
	assert.Equal(t, "---", makeSeparator(3))
	assert.Equal(t, "", makeSeparator(0))
}
