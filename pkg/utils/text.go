// Package utils provides shared helpers for logging, subprocesses and text.
package utils

import "unicode/utf8"

// Truncate returns s cut to maxLen runes with "..." appended when anything was cut.
// maxLen <= 0 returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return TruncateRunes(s, maxLen) + "..."
}

// TruncateRunes returns at most the first n runes of s, never splitting a character.
func TruncateRunes(s string, n int) string {
	if n < 0 {
		n = 0
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
