package setting

import "strings"

// ParseBool interprets a stored setting as a boolean.
// Accepted, case-insensitive and trimmed: 1/0, true/false, on/off, yes/no and the empty string (false).
// The second result is false for anything else.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "on", "yes":
		return true, true
	case "0", "false", "off", "no", "":
		return false, true
	default:
		return false, false
	}
}

// FormatBool returns the stored form of b.
func FormatBool(b bool) string {
	if b {
		return "1"
	}

	return "0"
}
