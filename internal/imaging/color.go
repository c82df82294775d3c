package imaging

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/lucasb-eyer/go-colorful"
)

// KeyColor is the background color to be keyed out, always held as red,
// green and blue. Use Components to obtain it in an image's channel order.
type KeyColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// ParseKeyColor parses a key color of exactly six hexadecimal digits with an
// optional leading '#', e.g. "#00FF00" or "00ff00".
//
// Any other input, including the three-digit CSS short form, fails with
// ErrInvalidColorFormat.
func ParseKeyColor(hex string) (KeyColor, error) {
	digits := strings.TrimPrefix(hex, "#")
	if len(digits) != 6 {
		return KeyColor{}, errors.Wrapf(ErrInvalidColorFormat, "%q: want 6 hex digits", hex)
	}
	val, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return KeyColor{}, errors.Wrapf(ErrInvalidColorFormat, "%q: not hexadecimal", hex)
	}
	return KeyColor{R: uint8(val >> 16), G: uint8(val >> 8), B: uint8(val)}, nil
}

// Components returns the color as one value per channel of order, so that
// Components(img.Order)[i] is comparable with img.At(x, y)[i].
func (k KeyColor) Components(order ChannelOrder) ([]uint8, error) {
	if err := order.validate(); err != nil {
		return nil, err
	}
	out := make([]uint8, order.Channels())
	for i := 0; i < len(order); i++ {
		switch order[i] {
		case 'R':
			out[i] = k.R
		case 'G':
			out[i] = k.G
		case 'B':
			out[i] = k.B
		}
	}
	return out, nil
}

// FromComponents is the inverse of KeyColor.Components.
func FromComponents(order ChannelOrder, comps []uint8) (KeyColor, error) {
	if err := order.validate(); err != nil {
		return KeyColor{}, err
	}
	if len(comps) != order.Channels() {
		return KeyColor{}, errors.Wrapf(ErrInvalidDimensions,
			"got %d components for channel order %q", len(comps), string(order))
	}
	var k KeyColor
	for i := 0; i < len(order); i++ {
		switch order[i] {
		case 'R':
			k.R = comps[i]
		case 'G':
			k.G = comps[i]
		case 'B':
			k.B = comps[i]
		}
	}
	return k, nil
}

// Hex formats the color as "#RRGGBB".
func (k KeyColor) Hex() string {
	return strings.ToUpper(k.colorful().Hex())
}

func (k KeyColor) String() string { return k.Hex() }

func (k KeyColor) colorful() colorful.Color {
	return colorful.Color{R: float64(k.R) / 255, G: float64(k.G) / 255, B: float64(k.B) / 255}
}

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// HSLColor is a color in HSL space: hue in degrees (0-360), saturation and
// lightness in percent (0-100).
type HSLColor struct {
	H int `json:"h"`
	S int `json:"s"`
	L int `json:"l"`
}

// ColorResult contains a sampled color in the representations a caller needs
// to pick a key color.
type ColorResult struct {
	Hex string   `json:"hex"` // "#RRGGBB", directly usable as a key color
	RGB RGBColor `json:"rgb"`
	HSL HSLColor `json:"hsl"`
}

func newColorResult(k KeyColor) ColorResult {
	h, s, l := k.colorful().Hsl()
	return ColorResult{
		Hex: k.Hex(),
		RGB: RGBColor{R: k.R, G: k.G, B: k.B},
		HSL: HSLColor{
			H: int(math.Round(h)) % 360,
			S: int(math.Round(s * 100)),
			L: int(math.Round(l * 100)),
		},
	}
}

// SampleColor returns the color of pixel (x, y).
//
// Coordinates are 0-based from the top-left corner; anything outside
// [0,Width) x [0,Height) is an error.
func SampleColor(img *Image, x, y int) (*ColorResult, error) {
	if x < 0 || x >= img.Width || y < 0 || y >= img.Height {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds %dx%d", x, y, img.Width, img.Height)
	}
	r, g, b := img.RGB(x, y)
	res := newColorResult(KeyColor{R: r, G: g, B: b})
	return &res, nil
}

// ColorFrequency is a candidate key color and the share of border pixels it covers.
type ColorFrequency struct {
	Color      ColorResult `json:"color"`
	Percentage float64     `json:"percentage"` // share of sampled pixels, 0-100
}

// KeySuggestion lists candidate key colors, most frequent first.
type KeySuggestion struct {
	SampledPixels int              `json:"sampled_pixels"`
	Candidates    []ColorFrequency `json:"candidates"`
}

// SuggestKeyColors looks at the outer border of an image, where a keyed
// background almost always shows, and returns up to count candidate colors.
//
// Border pixels are grouped by quantizing each component to a multiple of 16,
// so sensor noise and compression artifacts fall into one bucket. Each
// candidate reports the mean color of its bucket rather than the bucket
// corner, which makes it a good starting key for noisy photographs.
func SuggestKeyColors(img *Image, count int) (*KeySuggestion, error) {
	if count <= 0 {
		return nil, fmt.Errorf("count must be positive, got %d", count)
	}

	type bucket struct {
		n       int
		r, g, b int
	}
	buckets := make(map[[3]uint8]*bucket)
	total := 0

	add := func(x, y int) {
		r, g, b := img.RGB(x, y)
		key := [3]uint8{r / 16, g / 16, b / 16}
		bk, ok := buckets[key]
		if !ok {
			bk = &bucket{}
			buckets[key] = bk
		}
		bk.n++
		bk.r += int(r)
		bk.g += int(g)
		bk.b += int(b)
		total++
	}

	for x := 0; x < img.Width; x++ {
		add(x, 0)
		if img.Height > 1 {
			add(x, img.Height-1)
		}
	}
	for y := 1; y < img.Height-1; y++ {
		add(0, y)
		if img.Width > 1 {
			add(img.Width-1, y)
		}
	}

	candidates := make([]ColorFrequency, 0, len(buckets))
	for _, bk := range buckets {
		mean := KeyColor{
			R: uint8((bk.r + bk.n/2) / bk.n),
			G: uint8((bk.g + bk.n/2) / bk.n),
			B: uint8((bk.b + bk.n/2) / bk.n),
		}
		candidates = append(candidates, ColorFrequency{
			Color:      newColorResult(mean),
			Percentage: math.Round(float64(bk.n)/float64(total)*1000) / 10,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Percentage != candidates[j].Percentage {
			return candidates[i].Percentage > candidates[j].Percentage
		}
		return candidates[i].Color.Hex < candidates[j].Color.Hex
	})

	if len(candidates) > count {
		candidates = candidates[:count]
	}

	return &KeySuggestion{SampledPixels: total, Candidates: candidates}, nil
}
