package utils

import "strings"

// MaskSensitiveString hides all but the first and last three characters
// of a secret so it can appear in API responses and logs.
func MaskSensitiveString(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return s[:3] + strings.Repeat("*", 6) + s[len(s)-3:]
}
