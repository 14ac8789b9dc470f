package errors

import (
	"regexp"
	"strings"
	"unicode"
)

const maxIDLength = 256

// ValidateNodeID validates a project or node identifier for safety.
//
// The validation rules are intentionally conservative:
//   - No empty IDs
//   - No control characters
//   - No path traversal sequences (.., //) or backslashes
//   - Maximum length of 256 characters
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "node ID cannot be empty")
	}

	if len(id) > maxIDLength {
		return New(ErrCodeInvalidInput, "node ID too long (max %d characters)", maxIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "node ID contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidInput, "node ID contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// symbolicNameRegex matches dotted bundle symbolic names such as
// "org.example.core" or "com.acme.ui-tests".
var symbolicNameRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+(\.[A-Za-z0-9_-]+)*$`)

// ValidateSymbolicName validates a bundle symbolic name.
func ValidateSymbolicName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "symbolic name cannot be empty")
	}
	if len(name) > maxIDLength {
		return New(ErrCodeInvalidInput, "symbolic name too long (max %d characters)", maxIDLength)
	}
	if !symbolicNameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid symbolic name: %q", name)
	}
	return nil
}

// ValidatePath validates a classpath location for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
//
// Absolute paths are allowed: binary bundles usually live outside the
// workspace.
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	for _, seg := range strings.Split(path, "/") {
		if seg == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL uses one of the given schemes.
func ValidateURL(rawURL string, schemes ...string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	for _, s := range schemes {
		if strings.HasPrefix(rawURL, s+"://") {
			return nil
		}
	}
	return New(ErrCodeInvalidInput, "URL must use one of the schemes %s", strings.Join(schemes, ", "))
}
