package errors

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// maxPhotoIDLength bounds photo IDs accepted from the command line and the
// preview server.
const maxPhotoIDLength = 128

// ValidatePhotoID validates a photo ID before it is put into a URL or a
// cache key. IDs are opaque strings issued by the photo service; the rules
// only reject values that could never be one:
//   - No empty IDs
//   - No control characters or whitespace
//   - No path separators or traversal sequences
//   - Maximum length of 128 characters
func ValidatePhotoID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidPhotoID, "photo ID cannot be empty")
	}
	if len(id) > maxPhotoIDLength {
		return New(ErrCodeInvalidPhotoID, "photo ID too long (max %d characters)", maxPhotoIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidPhotoID, "photo ID contains invalid characters")
		}
	}
	for _, pattern := range []string{"..", "/", "\\"} {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidPhotoID, "photo ID contains invalid characters: %q", pattern)
		}
	}
	return nil
}

// ValidateRef validates the token part of a display reference, the UUID
// that follows the "blob:" scheme.
func ValidateRef(token string) error {
	if token == "" {
		return New(ErrCodeInvalidRef, "reference cannot be empty")
	}
	if err := uuid.Validate(token); err != nil {
		return Wrap(ErrCodeInvalidRef, err, "malformed reference %q", token)
	}
	return nil
}

// ValidatePath validates a local file path given on the command line or in
// the configuration file.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
