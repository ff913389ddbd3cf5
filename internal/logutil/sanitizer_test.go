package logutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskEmail(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"john.doe@example.com", "j***@example.com"},
		{"a@b.nl", "a***@b.nl"},
		{"no-at-sign", "***"},
		{"@example.com", "***"},
		{"", "***"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, MaskEmail(tc.input))
		})
	}
}

func TestSanitizeSearchText(t *testing.T) {
	t.Run("passes plain text through", func(t *testing.T) {
		assert.Equal(t, "jo", SanitizeSearchText("jo"))
	})

	t.Run("strips control characters", func(t *testing.T) {
		assert.Equal(t, "forgedline", SanitizeSearchText("forged\nline\r\x1b"))
	})

	t.Run("truncates long input", func(t *testing.T) {
		long := strings.Repeat("a", 500)
		out := SanitizeSearchText(long)
		assert.LessOrEqual(t, len(out), 64)
	})
}
