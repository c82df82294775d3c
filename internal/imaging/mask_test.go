package imaging

import (
	"image/color"
	"math"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMask_SquareOnGreen(t *testing.T) {
	img := toImage(t, createSquareImage(10, 10, green, red, 3, 3, 4))
	target, err := KeyColor{0, 255, 0}.Components(img.Order)
	require.NoError(t, err)

	mask, err := BuildMask(img, target, 30)
	require.NoError(t, err)

	assert.Equal(t, 10, mask.Width)
	assert.Equal(t, 10, mask.Height)
	assert.Equal(t, []string{
		"..........",
		"..........",
		"..........",
		"...####...",
		"...####...",
		"...####...",
		"...####...",
		"..........",
		"..........",
		"..........",
	}, maskRows(mask))
}

func TestBuildMask_ZeroToleranceIsExactMatch(t *testing.T) {
	src := createSquareImage(3, 1, green, green, 0, 0, 0)
	src.SetNRGBA(1, 0, color.NRGBA{0, 254, 0, 255})
	src.SetNRGBA(2, 0, color.NRGBA{1, 255, 0, 255})
	img := toImage(t, src)

	mask, err := BuildMask(img, []uint8{0, 255, 0}, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 255, 255}, mask.Pix)
}

func TestBuildMask_DistanceAtToleranceStaysOpaque(t *testing.T) {
	// (3, 251, 0) is exactly 5 away from (0, 255, 0)
	img := toImage(t, createSquareImage(1, 1, color.NRGBA{3, 251, 0, 255}, green, 0, 0, 0))
	target := []uint8{0, 255, 0}

	mask, err := BuildMask(img, target, 5)
	require.NoError(t, err)
	assert.Equal(t, uint8(255), mask.Pix[0])

	mask, err = BuildMask(img, target, math.Nextafter(5, 6))
	require.NoError(t, err)
	assert.Equal(t, uint8(0), mask.Pix[0])
}

func TestBuildMask_OnlyBinaryValues(t *testing.T) {
	src := createSquareImage(16, 16, green, green, 0, 0, 0)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			src.SetNRGBA(x, y, color.NRGBA{uint8(x * 16), uint8(255 - y*8), uint8(x * y), 255})
		}
	}
	img := toImage(t, src)

	for _, tol := range []float64{0, 1, 10, 30, 100, 500} {
		mask, err := BuildMask(img, []uint8{0, 255, 0}, tol)
		require.NoError(t, err)
		for i, v := range mask.Pix {
			require.True(t, v == 0 || v == 255, "tolerance %v pixel %d = %d", tol, i, v)
		}
	}
}

func TestBuildMask_ChannelOrderMustMatch(t *testing.T) {
	rgb := toImage(t, createSquareImage(4, 4, red, green, 1, 1, 2))
	bgr, err := rgb.Reorder(OrderBGR)
	require.NoError(t, err)

	key := KeyColor{255, 0, 0}

	rgbTarget, err := key.Components(OrderRGB)
	require.NoError(t, err)
	bgrTarget, err := key.Components(OrderBGR)
	require.NoError(t, err)

	want, err := BuildMask(rgb, rgbTarget, 10)
	require.NoError(t, err)
	got, err := BuildMask(bgr, bgrTarget, 10)
	require.NoError(t, err)
	assert.Equal(t, want.Pix, got.Pix)

	// RGB components against BGR storage miss the red background entirely
	wrong, err := BuildMask(bgr, rgbTarget, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, wrong.Stats().TransparentPixels)
}

func TestBuildMask_TargetArity(t *testing.T) {
	img := toImage(t, createSquareImage(2, 2, green, green, 0, 0, 0))

	for _, target := range [][]uint8{nil, {0, 255}, {0, 255, 0, 255}} {
		_, err := BuildMask(img, target, 30)
		assert.True(t, errors.Is(err, ErrInvalidDimensions), "target %v: got %v", target, err)
	}
}

func TestBuildMask_InvalidTolerance(t *testing.T) {
	img := toImage(t, createSquareImage(2, 2, green, green, 0, 0, 0))

	for _, tol := range []float64{-1, -0.001, math.NaN()} {
		_, err := BuildMask(img, []uint8{0, 255, 0}, tol)
		assert.True(t, errors.Is(err, ErrInvalidParameter), "tolerance %v: got %v", tol, err)
	}
}

func TestBuildMask_DoesNotModifyInput(t *testing.T) {
	img := toImage(t, createSquareImage(5, 5, green, red, 1, 1, 3))
	before := append([]uint8(nil), img.Pix...)

	_, err := BuildMask(img, []uint8{0, 255, 0}, 30)
	require.NoError(t, err)
	assert.Equal(t, before, img.Pix)
}
