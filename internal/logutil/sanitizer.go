// Package logutil provides logging utilities for sanitization
package logutil

import (
	"strings"
	"unicode"
)

// maxLoggedSearchLen bounds how much user-supplied search text ends up in
// a log line.
const maxLoggedSearchLen = 64

// MaskEmail redacts the local part of an email address, keeping the first
// character and the domain so log lines stay correlatable.
//
// Example:
//
//	MaskEmail("john.doe@example.com") => "j***@example.com"
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}

// SanitizeSearchText prepares user-supplied search text for logging:
// control characters are stripped (so crafted input cannot forge log
// lines) and the result is truncated.
func SanitizeSearchText(text string) string {
	var b strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
		if b.Len() >= maxLoggedSearchLen {
			break
		}
	}
	return b.String()
}
