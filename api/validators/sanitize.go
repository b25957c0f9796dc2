package validators

import "strings"

// SanitizeString trims surrounding whitespace and caps the byte length of a
// free-text field before it reaches validation.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 && len(trimmed) > maxLen {
		return trimmed[:maxLen]
	}
	return trimmed
}
