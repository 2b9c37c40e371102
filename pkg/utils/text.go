// Package utils provides shared utilities for text, math, and logging.
package utils

import "strings"

// Truncate returns s truncated to maxLen runes, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

// CollapseSpace joins the whitespace-separated fields of s with single spaces, so that
// multi-line documents become one corpus line.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Clip returns the first maxRunes runes of s without a marker. Non-positive maxRunes
// returns s.
func Clip(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == maxRunes {
			return s[:i]
		}
		n++
	}
	return s
}
