package utils

// StartsWith reports whether s begins with any of the given prefixes.
func StartsWith(s string, prefixes ...string) bool {
	for _, prefix := range prefixes {
		if len(s) >= len(prefix) && s[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}
