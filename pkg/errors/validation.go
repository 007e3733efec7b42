package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxNameLength bounds service and method names.
const maxNameLength = 256

// nameRegex matches identifiers usable on both sides of a fully-qualified
// "service.method" reference.
var nameRegex = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_\-]*$`)

// ValidateServiceName validates a service name.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No dots (a dot separates service from method in call references)
//   - No whitespace or control characters
//   - Maximum length of 256 characters
func ValidateServiceName(name string) error {
	return validateName("service", name)
}

// ValidateMethodName validates a method name with the same rules as
// [ValidateServiceName].
func ValidateMethodName(name string) error {
	return validateName("method", name)
}

func validateName(kind, name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "%s name cannot be empty", kind)
	}
	if len(name) > maxNameLength {
		return New(ErrCodeInvalidName, "%s name too long (max %d characters)", kind, maxNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "%s name contains invalid control characters", kind)
		}
	}
	if strings.Contains(name, ".") {
		return New(ErrCodeInvalidName, "%s name %q must not contain '.'", kind, name)
	}
	if !nameRegex.MatchString(name) {
		return New(ErrCodeInvalidName, "invalid %s name: %q", kind, name)
	}
	return nil
}

// ValidateFilename validates a suggested output filename.
// It ensures the filename is a simple basename without path components.
func ValidateFilename(filename string) error {
	if filename == "" {
		return New(ErrCodeInvalidPath, "filename cannot be empty")
	}

	// Must be a simple filename, not a path
	if strings.ContainsAny(filename, "/\\") {
		return New(ErrCodeInvalidPath, "filename cannot contain path separators")
	}

	if strings.HasPrefix(filename, ".") {
		return New(ErrCodeInvalidPath, "filename cannot be a hidden file")
	}

	return nil
}

// ValidatePath validates a relative output path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
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

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	return nil
}
