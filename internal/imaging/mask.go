package imaging

import (
	"math"

	"github.com/anthonynsimon/bild/parallel"
	"github.com/go-faster/errors"
)

// BuildMask computes the binary key mask of img against target.
//
// Parameters:
//   - img: Source image.
//   - target: Key color in img's channel order, one component per channel
//     (see KeyColor.Components).
//   - tolerance: Non-negative euclidean distance threshold, typically 0-100.
//
// Returns a mask of the image's size where a pixel is 0 (transparent) when
// its distance to target is strictly below tolerance and 255 otherwise.
//
// # Distance
//
// The distance is sqrt(sum_c (p[c]-target[c])^2) over the color channels,
// computed in float64. The comparison is strict, so a pixel exactly at the
// tolerance stays opaque. A tolerance of 0 is exact-match keying: only
// pixels identical to target become transparent.
//
// # Errors
//
//   - ErrInvalidDimensions if len(target) differs from img.Channels()
//   - ErrInvalidParameter if tolerance is negative or NaN
func BuildMask(img *Image, target []uint8, tolerance float64) (*Mask, error) {
	n := img.Channels()
	if len(target) != n {
		return nil, errors.Wrapf(ErrInvalidDimensions,
			"target has %d components, image has %d channels", len(target), n)
	}
	if tolerance < 0 || math.IsNaN(tolerance) {
		return nil, errors.Wrapf(ErrInvalidParameter, "tolerance %v must be >= 0", tolerance)
	}

	mask := NewMask(img.Width, img.Height, 0)
	exact := tolerance == 0

	parallel.Line(img.Height, func(start, end int) {
		for y := start; y < end; y++ {
			row := y * img.Width
			for x := 0; x < img.Width; x++ {
				p := img.Pix[(row+x)*n : (row+x)*n+n]

				var sum int
				for c, v := range p {
					d := int(v) - int(target[c])
					sum += d * d
				}

				keyed := math.Sqrt(float64(sum)) < tolerance
				if exact {
					keyed = sum == 0
				}
				if !keyed {
					mask.Pix[row+x] = 255
				}
			}
		}
	})

	return mask, nil
}
