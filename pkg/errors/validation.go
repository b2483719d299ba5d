package errors

import (
	"strings"
	"unicode"
)

// ValidateCrateName validates a crate name before it is mangled into Debian
// package names or used to build filesystem paths.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path traversal sequences (.., //, backslash)
//   - Maximum length of 256 characters
//
// Debian-specific name mangling (lowercasing, underscore replacement) is done
// separately by the debian package.
func ValidateCrateName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidCrate, "crate name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidCrate, "crate name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidCrate, "crate name contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
		"/",    // Crate names are never paths
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidCrate, "crate name contains invalid characters: %q", pattern)
		}
	}

	return nil
}
