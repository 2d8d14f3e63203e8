package vision

import "errors"

var (
	// ErrDecode is returned when an image file cannot be opened or decoded.
	ErrDecode = errors.New("unable to decode image")
	// ErrInvalidDimensions is returned when the target width or height is not positive.
	ErrInvalidDimensions = errors.New("target dimensions must be positive")
	// ErrInvalidNormalization is returned when a normalization std contains zero.
	ErrInvalidNormalization = errors.New("normalization std must be non-zero per channel")
)
