package utils

import "fmt"

// ImageProcessingError represents errors that can occur during image processing.
type ImageProcessingError struct {
	Operation string
	Err       error
}

func (e *ImageProcessingError) Error() string {
	return fmt.Sprintf("image processing error in %s: %v", e.Operation, e.Err)
}

func (e *ImageProcessingError) Unwrap() error { return e.Err }

// ImageConstraints defines dimension limits for input validation.
type ImageConstraints struct {
	MaxWidth  int
	MaxHeight int
	MinWidth  int
	MinHeight int
}

// DefaultImageConstraints returns the default constraints for scanned sheets.
// Scans of A4 roll pages at 300dpi land around 2480x3508; the ceiling leaves
// generous headroom for higher resolutions without admitting decompression bombs.
func DefaultImageConstraints() ImageConstraints {
	return ImageConstraints{
		MaxWidth:  12000,
		MaxHeight: 12000,
		MinWidth:  32,
		MinHeight: 32,
	}
}
