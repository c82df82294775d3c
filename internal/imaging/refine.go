package imaging

import (
	"math"

	"github.com/anthonynsimon/bild/parallel"
	"github.com/go-faster/errors"
)

// Refine applies Choke and then Feather to m. Both steps are skipped when
// their pixel count is 0, in which case the result is a copy of m.
func Refine(m *Mask, chokePixels, featherPixels int) (*Mask, error) {
	choked, err := Choke(m, chokePixels)
	if err != nil {
		return nil, err
	}
	return Feather(choked, featherPixels)
}

// Choke shrinks the opaque region of m by eroding it with a full square
// structuring element of side 2*pixels+1, applied once.
//
// A result value is 255 only if every value in the square neighborhood
// centered on it is 255. Neighbors outside the mask take the value of the
// nearest edge pixel, so the border itself never erodes the subject.
//
// The erosion is computed as a separable minimum filter (rows, then
// columns), which is exact for a rectangular element. Choke(m, 0) returns a
// copy of m. Negative pixels fail with ErrInvalidParameter. m is not modified.
func Choke(m *Mask, pixels int) (*Mask, error) {
	if pixels < 0 {
		return nil, errors.Wrapf(ErrInvalidParameter, "choke pixels %d must be >= 0", pixels)
	}
	if pixels == 0 {
		return m.Clone(), nil
	}

	w, h := m.Width, m.Height
	tmp := make([]uint8, len(m.Pix))
	out := NewMask(w, h, 0)

	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			row := m.Pix[y*w : (y+1)*w]
			for x := 0; x < w; x++ {
				lo, hi := clamp(x-pixels, 0, w-1), clamp(x+pixels, 0, w-1)
				v := row[lo]
				for i := lo + 1; i <= hi && v > 0; i++ {
					if row[i] < v {
						v = row[i]
					}
				}
				tmp[y*w+x] = v
			}
		}
	})

	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			lo, hi := clamp(y-pixels, 0, h-1), clamp(y+pixels, 0, h-1)
			for x := 0; x < w; x++ {
				v := tmp[lo*w+x]
				for i := lo + 1; i <= hi && v > 0; i++ {
					if tmp[i*w+x] < v {
						v = tmp[i*w+x]
					}
				}
				out.Pix[y*w+x] = v
			}
		}
	})

	return out, nil
}

// Feather softens the edges of m with a Gaussian blur of kernel side
// 2*pixels+1, turning a hard edge into an alpha ramp roughly pixels wide on
// either side.
//
// # Kernel
//
// The standard deviation is derived from the kernel size k as
//
//	sigma = 0.3*((k-1)*0.5 - 1) + 0.8
//
// except for k <= 7, where the fixed kernels [1 2 1]/4, [1 4 6 4 1]/16 and
// [2 7 14 18 14 7 2]/64 are used. These are the kernels OpenCV picks for a
// blur with an automatic sigma, so results match a float32 mask blurred with
// cv2.GaussianBlur(mask, (k, k), 0), clipped and cast to uint8.
//
// # Borders
//
// Samples beyond the edge are mirrored without repeating the edge pixel
// (reflect-101: ...c b | a b c...).
//
// The blur runs on float64 data; the result is clipped to [0,255] and
// truncated toward zero (63.75 becomes 63). A tiny epsilon absorbs
// summation error so a constant mask is returned unchanged.
// Feather(m, 0) returns a copy of m. Negative pixels fail with
// ErrInvalidParameter. m is not modified.
func Feather(m *Mask, pixels int) (*Mask, error) {
	if pixels < 0 {
		return nil, errors.Wrapf(ErrInvalidParameter, "feather pixels %d must be >= 0", pixels)
	}
	if pixels == 0 {
		return m.Clone(), nil
	}

	kernel := gaussianKernel(2*pixels + 1)
	w, h := m.Width, m.Height
	tmp := make([]float64, len(m.Pix))
	out := NewMask(w, h, 0)

	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			row := m.Pix[y*w : (y+1)*w]
			for x := 0; x < w; x++ {
				var sum float64
				for k, kv := range kernel {
					sum += float64(row[reflect101(x+k-pixels, w)]) * kv
				}
				tmp[y*w+x] = sum
			}
		}
	})

	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				var sum float64
				for k, kv := range kernel {
					sum += tmp[reflect101(y+k-pixels, h)*w+x] * kv
				}
				out.Pix[y*w+x] = uint8(math.Floor(math.Max(0, math.Min(255, sum)) + truncEpsilon))
			}
		}
	})

	return out, nil
}

// truncEpsilon keeps sums like 254.99999999 from truncating a level lower.
const truncEpsilon = 1e-9

// smallGaussianKernels holds the fixed kernels used for sizes 1, 3, 5 and 7.
var smallGaussianKernels = map[int][]float64{
	1: {1},
	3: {0.25, 0.5, 0.25},
	5: {0.0625, 0.25, 0.375, 0.25, 0.0625},
	7: {0.03125, 0.109375, 0.21875, 0.28125, 0.21875, 0.109375, 0.03125},
}

// gaussianSigma returns the standard deviation implied by kernel size k.
func gaussianSigma(k int) float64 {
	return 0.3*((float64(k)-1)*0.5-1) + 0.8
}

// gaussianKernel returns a normalized 1D Gaussian kernel of odd size k.
func gaussianKernel(k int) []float64 {
	if fixed, ok := smallGaussianKernels[k]; ok {
		out := make([]float64, k)
		copy(out, fixed)
		return out
	}

	sigma := gaussianSigma(k)
	scale := -0.5 / (sigma * sigma)
	center := float64(k-1) / 2

	out := make([]float64, k)
	var sum float64
	for i := range out {
		d := float64(i) - center
		out[i] = math.Exp(scale * d * d)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// reflect101 maps an out-of-range index into [0, n) by mirroring around the
// edge pixels without repeating them.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*(n-1) - i
		}
	}
	return i
}

// clamp constrains val to the range [lo, hi].
func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
