package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{name: "nil slice", input: nil, expected: nil},
		{name: "empty slice", input: []string{}, expected: []string{}},
		{
			name:     "trims whitespace",
			input:    []string{"  blurry scan ", "expired  "},
			expected: []string{"blurry scan", "expired"},
		},
		{
			name:     "drops repeats and blanks keeping order",
			input:    []string{"expired", "", "blurry scan", "  ", "expired"},
			expected: []string{"expired", "blurry scan"},
		},
		{
			name:     "preserves case",
			input:    []string{"Cropped", "cropped"},
			expected: []string{"Cropped", "cropped"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}
