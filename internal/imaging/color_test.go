package imaging

import (
	"fmt"
	"image/color"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeyColor(t *testing.T) {
	tests := []struct {
		in   string
		want KeyColor
	}{
		{"#00FF00", KeyColor{0, 255, 0}},
		{"00FF00", KeyColor{0, 255, 0}},
		{"#ff8040", KeyColor{255, 128, 64}},
		{"#a1B2c3", KeyColor{0xa1, 0xb2, 0xc3}},
		{"#000000", KeyColor{0, 0, 0}},
		{"FFFFFF", KeyColor{255, 255, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKeyColor(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseKeyColor_Invalid(t *testing.T) {
	for _, in := range []string{
		"#ZZZZZZ",
		"#FFF",
		"FFF",
		"",
		"#",
		"##00FF00",
		"00FF00#",
		" #00FF00",
		"#00FF00 ",
		"#00FF0",
		"#00FF000",
		"#00FF00FF",
		"+0FF00",
		"0x0F0F",
		"-00001",
	} {
		t.Run(fmt.Sprintf("%q", in), func(t *testing.T) {
			_, err := ParseKeyColor(in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidColorFormat), "got %v", err)
		})
	}
}

func TestKeyColor_RoundTrip(t *testing.T) {
	values := []int{0, 1, 15, 16, 127, 128, 200, 254, 255}
	for _, r := range values {
		for _, g := range values {
			for _, b := range values {
				hex := fmt.Sprintf("#%02X%02X%02X", r, g, b)

				key, err := ParseKeyColor(hex)
				require.NoError(t, err)
				assert.Equal(t, hex, key.Hex())

				lower, err := ParseKeyColor(strings.ToLower(hex[1:]))
				require.NoError(t, err)
				assert.Equal(t, key, lower)

				for _, order := range []ChannelOrder{OrderRGB, OrderBGR, "GBR"} {
					comps, err := key.Components(order)
					require.NoError(t, err)
					back, err := FromComponents(order, comps)
					require.NoError(t, err)
					assert.Equal(t, hex, back.Hex(), "order %s", order)
				}
			}
		}
	}
}

func TestKeyColor_Components(t *testing.T) {
	key, err := ParseKeyColor("#FF8040")
	require.NoError(t, err)

	rgb, err := key.Components(OrderRGB)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0xFF, 0x80, 0x40}, rgb)

	bgr, err := key.Components(OrderBGR)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0x40, 0x80, 0xFF}, bgr)
}

func TestKeyColor_Components_InvalidOrder(t *testing.T) {
	key := KeyColor{1, 2, 3}
	for _, order := range []ChannelOrder{"", "RG", "RGBA", "RRB", "XYZ"} {
		_, err := key.Components(order)
		assert.True(t, errors.Is(err, ErrInvalidDimensions), "order %q: got %v", order, err)
	}
}

func TestFromComponents_WrongArity(t *testing.T) {
	_, err := FromComponents(OrderRGB, []uint8{1, 2})
	assert.True(t, errors.Is(err, ErrInvalidDimensions))

	_, err = FromComponents(OrderBGR, []uint8{1, 2, 3, 4})
	assert.True(t, errors.Is(err, ErrInvalidDimensions))
}

func TestSampleColor(t *testing.T) {
	img := toImage(t, createSquareImage(20, 20, green, color.NRGBA{255, 128, 64, 255}, 5, 5, 2))

	result, err := SampleColor(img, 5, 5)
	require.NoError(t, err)
	assert.Equal(t, "#FF8040", result.Hex)
	assert.Equal(t, RGBColor{R: 255, G: 128, B: 64}, result.RGB)

	result, err = SampleColor(img, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "#00FF00", result.Hex)
	assert.Equal(t, HSLColor{H: 120, S: 100, L: 50}, result.HSL)
}

func TestSampleColor_BGRImage(t *testing.T) {
	img := toImage(t, createSquareImage(4, 4, red, red, 0, 0, 0))
	bgr, err := img.Reorder(OrderBGR)
	require.NoError(t, err)

	result, err := SampleColor(bgr, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "#FF0000", result.Hex)
}

func TestSampleColor_OutOfBounds(t *testing.T) {
	img := toImage(t, createSquareImage(100, 100, red, red, 0, 0, 0))

	tests := []struct {
		name string
		x, y int
	}{
		{"negative x", -1, 50},
		{"negative y", 50, -1},
		{"x too large", 100, 50},
		{"y too large", 50, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SampleColor(img, tt.x, tt.y)
			assert.Error(t, err)
		})
	}
}

func TestSuggestKeyColors(t *testing.T) {
	img := toImage(t, createSquareImage(10, 10, green, red, 3, 3, 4))

	result, err := SuggestKeyColors(img, 3)
	require.NoError(t, err)

	assert.Equal(t, 36, result.SampledPixels)
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, "#00FF00", result.Candidates[0].Color.Hex)
	assert.Equal(t, 100.0, result.Candidates[0].Percentage)
}

func TestSuggestKeyColors_MeanOfNoisyBucket(t *testing.T) {
	src := createSquareImage(6, 6, color.NRGBA{0, 250, 0, 255}, red, 2, 2, 2)
	for x := 0; x < 6; x += 2 {
		src.SetNRGBA(x, 0, color.NRGBA{0, 254, 0, 255})
		src.SetNRGBA(x, 5, color.NRGBA{0, 254, 0, 255})
	}
	img := toImage(t, src)

	result, err := SuggestKeyColors(img, 5)
	require.NoError(t, err)
	require.Len(t, result.Candidates, 1)
	// 6 samples at 254 and 14 at 250
	assert.Equal(t, "#00FB00", result.Candidates[0].Color.Hex)
}

func TestSuggestKeyColors_OrderedByFrequency(t *testing.T) {
	// left column and most of the border are green, a red block covers the right edge
	img := toImage(t, createSquareImage(10, 10, green, red, 7, 0, 3))

	result, err := SuggestKeyColors(img, 1)
	require.NoError(t, err)
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, "#00FF00", result.Candidates[0].Color.Hex)
}

func TestSuggestKeyColors_InvalidCount(t *testing.T) {
	img := toImage(t, createSquareImage(4, 4, green, green, 0, 0, 0))
	_, err := SuggestKeyColors(img, 0)
	assert.Error(t, err)
}
