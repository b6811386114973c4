package errors

import (
	"os"
	"strings"
	"unicode"
)

// ValidateRange checks that [start, end) is a well-formed range inside a text
// of the given length.
func ValidateRange(start, end, textLength int) error {
	if start < 0 || end < 0 {
		return New(ErrCodeInvalidRange, "range [%d,%d) has negative bounds", start, end)
	}
	if end < start {
		return New(ErrCodeInvalidRange, "range [%d,%d) ends before it starts", start, end)
	}
	if end > textLength {
		return New(ErrCodeInvalidRange, "range [%d,%d) exceeds text length %d", start, end, textLength)
	}
	return nil
}

// ValidateOffset checks that offset is a valid caret position in a text of
// the given length. The end of the text is a valid position.
func ValidateOffset(offset, textLength int) error {
	if offset < 0 || offset > textLength {
		return New(ErrCodeInvalidRange, "offset %d outside text of length %d", offset, textLength)
	}
	return nil
}

// ValidatePath validates a user-supplied file path.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
//   - The file must exist and must not be a directory
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidInput, "path too long (max %d characters)", maxPathLength)
	}

	if strings.IndexFunc(path, unicode.IsControl) >= 0 {
		return New(ErrCodeInvalidInput, "path contains invalid characters")
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return New(ErrCodeFileNotFound, "%s does not exist", path)
	}
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "stat %s", path)
	}
	if info.IsDir() {
		return New(ErrCodeInvalidInput, "%s is a directory", path)
	}
	return nil
}
