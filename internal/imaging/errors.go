package imaging

import "github.com/go-faster/errors"

// Error kinds returned by the keying pipeline. Callers match them with errors.Is;
// every returned error wraps exactly one of these.
var (
	// ErrInvalidColorFormat is returned when a key color is not 6 hex digits
	// with an optional leading '#'.
	ErrInvalidColorFormat = errors.New("invalid color format")

	// ErrImageDecode is returned when the input bytes are not a decodable raster image.
	ErrImageDecode = errors.New("image decode failure")

	// ErrInvalidDimensions is returned when a target color does not have one
	// component per image channel.
	ErrInvalidDimensions = errors.New("invalid dimensions")

	// ErrDimensionMismatch is returned when an image and a mask differ in size.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrResourceExhaustion is returned when an image is larger than the
	// configured pixel limit.
	ErrResourceExhaustion = errors.New("resource exhaustion")

	// ErrInvalidParameter is returned for negative tolerance, choke or feather values.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// IsClientError reports whether err was caused by bad caller input rather
// than an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidColorFormat) ||
		errors.Is(err, ErrImageDecode) ||
		errors.Is(err, ErrInvalidParameter)
}
