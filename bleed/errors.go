package bleed

import "errors"

var (
	// ErrInvalidDimensions is returned when the pixel slice length does not
	// match the declared width, height and channel count.
	ErrInvalidDimensions = errors.New("bleed: invalid dimensions")

	// ErrUnsupportedFormat is returned for sources that are not 8-bit
	// straight-alpha RGBA.
	ErrUnsupportedFormat = errors.New("bleed: unsupported format")
)
