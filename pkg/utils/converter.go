// Package utils provides validation and small formatting helpers shared by
// the HTTP layer and the application services.
package utils

import (
	"encoding/base64"
	"unicode/utf8"
)

// Truncate cuts s to at most maxLen bytes without splitting a rune.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// MaskID shows only the first 8 characters of an identifier.
func MaskID(id string) string {
	if len(id) <= 8 {
		return id + "..."
	}
	return id[:8] + "..."
}

// Base64EncodeString encodes s with the standard alphabet.
func Base64EncodeString(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}
