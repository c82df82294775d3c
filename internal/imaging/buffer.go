package imaging

import (
	"math"

	"github.com/go-faster/errors"
)

// ChannelOrder names the storage order of the color channels in an Image,
// one letter per channel (for example "RGB" or "BGR").
type ChannelOrder string

const (
	// OrderRGB is Go's native order and the order produced by Decode.
	OrderRGB ChannelOrder = "RGB"
	// OrderBGR is the blue-green-red order used by OpenCV-style buffers.
	OrderBGR ChannelOrder = "BGR"
)

// Channels returns the number of color channels in the order.
func (o ChannelOrder) Channels() int { return len(o) }

// index returns the position of channel c ('R', 'G' or 'B') within the order.
func (o ChannelOrder) index(c byte) (int, error) {
	for i := 0; i < len(o); i++ {
		if o[i] == c {
			return i, nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidDimensions, "channel %q not in order %q", c, string(o))
}

// validate checks that the order is a permutation of R, G and B.
func (o ChannelOrder) validate() error {
	if len(o) != 3 {
		return errors.Wrapf(ErrInvalidDimensions, "channel order %q must have 3 channels", string(o))
	}
	for _, c := range []byte("RGB") {
		if _, err := o.index(c); err != nil {
			return err
		}
	}
	return nil
}

// Image is a dense 8-bit color raster with an explicit channel order.
//
// Pixel (x, y) occupies Pix[(y*Width+x)*3 : (y*Width+x)*3+3], stored in Order.
// An Image is never modified after construction; every operation that changes
// pixels returns a new Image.
type Image struct {
	Width  int
	Height int
	Order  ChannelOrder
	Pix    []uint8
}

// NewImage allocates a zeroed image. It fails with ErrInvalidDimensions for
// non-positive sizes or an invalid channel order.
func NewImage(width, height int, order ChannelOrder) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Wrapf(ErrInvalidDimensions, "image size %dx%d", width, height)
	}
	if err := order.validate(); err != nil {
		return nil, err
	}
	return &Image{
		Width:  width,
		Height: height,
		Order:  order,
		Pix:    make([]uint8, width*height*order.Channels()),
	}, nil
}

// Channels returns the number of color channels per pixel.
func (img *Image) Channels() int { return img.Order.Channels() }

// At returns the channel values of pixel (x, y) in the image's own order.
// The returned slice aliases the image buffer and must not be modified.
func (img *Image) At(x, y int) []uint8 {
	n := img.Channels()
	i := (y*img.Width + x) * n
	return img.Pix[i : i+n : i+n]
}

// RGB returns pixel (x, y) as red, green and blue regardless of storage order.
func (img *Image) RGB(x, y int) (r, g, b uint8) {
	p := img.At(x, y)
	ri, _ := img.Order.index('R')
	gi, _ := img.Order.index('G')
	bi, _ := img.Order.index('B')
	return p[ri], p[gi], p[bi]
}

// Reorder returns a copy of the image with its channels stored in order.
// Converting to the image's current order still returns a copy.
func (img *Image) Reorder(order ChannelOrder) (*Image, error) {
	out, err := NewImage(img.Width, img.Height, order)
	if err != nil {
		return nil, err
	}

	// perm[i] is the source channel feeding destination channel i
	perm := make([]int, order.Channels())
	for i := range perm {
		src, err := img.Order.index(order[i])
		if err != nil {
			return nil, err
		}
		perm[i] = src
	}

	n := img.Channels()
	for p := 0; p < img.Width*img.Height; p++ {
		base := p * n
		for i, src := range perm {
			out.Pix[base+i] = img.Pix[base+src]
		}
	}
	return out, nil
}

// Mask is a single-channel opacity map: 0 is fully transparent, 255 fully opaque.
//
// Value (x, y) is Pix[y*Width+x].
type Mask struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewMask allocates a mask of the given size with every value set to fill.
func NewMask(width, height int, fill uint8) *Mask {
	m := &Mask{Width: width, Height: height, Pix: make([]uint8, width*height)}
	if fill != 0 {
		for i := range m.Pix {
			m.Pix[i] = fill
		}
	}
	return m
}

// At returns the mask value at (x, y).
func (m *Mask) At(x, y int) uint8 { return m.Pix[y*m.Width+x] }

// Clone returns a deep copy of the mask.
func (m *Mask) Clone() *Mask {
	c := &Mask{Width: m.Width, Height: m.Height, Pix: make([]uint8, len(m.Pix))}
	copy(c.Pix, m.Pix)
	return c
}

// MaskStats summarizes the opacity distribution of a mask.
type MaskStats struct {
	// TotalPixels is Width * Height.
	TotalPixels int `json:"total_pixels"`

	// TransparentPixels counts values equal to 0.
	TransparentPixels int `json:"transparent_pixels"`

	// OpaquePixels counts values equal to 255.
	OpaquePixels int `json:"opaque_pixels"`

	// PartialPixels counts values strictly between 0 and 255.
	PartialPixels int `json:"partial_pixels"`

	// TransparentPercent is TransparentPixels as a percentage of TotalPixels,
	// rounded to one decimal.
	TransparentPercent float64 `json:"transparent_percent"`
}

// Stats counts transparent, opaque and partially transparent values.
func (m *Mask) Stats() MaskStats {
	s := MaskStats{TotalPixels: len(m.Pix)}
	for _, v := range m.Pix {
		switch v {
		case 0:
			s.TransparentPixels++
		case 255:
			s.OpaquePixels++
		default:
			s.PartialPixels++
		}
	}
	if s.TotalPixels > 0 {
		s.TransparentPercent = math.Round(float64(s.TransparentPixels)/float64(s.TotalPixels)*1000) / 10
	}
	return s
}
