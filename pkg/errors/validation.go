package errors

import (
	"math"
	"strings"
	"unicode"
)

// MaxDimension bounds canvas width and height in pixels.
const MaxDimension = 20000

// ValidateDimensions checks that a canvas size is finite, positive and
// within MaxDimension.
func ValidateDimensions(width, height float64) error {
	for _, d := range []struct {
		name string
		v    float64
	}{{"width", width}, {"height", height}} {
		switch {
		case math.IsNaN(d.v) || math.IsInf(d.v, 0):
			return New(ErrCodeInvalidDimensions, "%s must be a finite number", d.name)
		case d.v <= 0:
			return New(ErrCodeInvalidDimensions, "%s must be positive, got %g", d.name, d.v)
		case d.v > MaxDimension:
			return New(ErrCodeInvalidDimensions, "%s too large (max %d)", d.name, MaxDimension)
		}
	}
	return nil
}

// ValidateIdentifier validates an identifier that ends up in rendered
// output or in a URL path: intent ids, simulation ids, surface targets.
//
// Rules:
//   - not empty
//   - at most 256 bytes
//   - no control characters or null bytes
//   - no path traversal (.., /, \)
//   - no markup characters (<, >, ", ')
func ValidateIdentifier(kind, id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "%s cannot be empty", kind)
	}
	if len(id) > 256 {
		return New(ErrCodeInvalidInput, "%s too long (max 256 characters)", kind)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "%s contains invalid control characters", kind)
		}
	}
	for _, pattern := range []string{"..", "/", "\\", "<", ">", "\"", "'"} {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidInput, "%s contains invalid characters: %q", kind, pattern)
		}
	}
	return nil
}

// ValidatePath validates a local file path given to the file source.
// Absolute paths are allowed; control characters and empty paths are not.
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidSource, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidSource, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidSource, "path contains invalid characters")
		}
	}
	return nil
}

// ValidateMongoURI checks that uri uses a MongoDB connection scheme.
func ValidateMongoURI(uri string) error {
	if uri == "" {
		return New(ErrCodeInvalidSource, "MongoDB URI cannot be empty")
	}
	if !strings.HasPrefix(uri, "mongodb://") && !strings.HasPrefix(uri, "mongodb+srv://") {
		return New(ErrCodeInvalidSource, "MongoDB URI must use mongodb:// or mongodb+srv://")
	}
	return nil
}
