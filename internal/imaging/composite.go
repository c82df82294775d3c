package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/disintegration/imaging"
	"github.com/go-faster/errors"
)

// Compose merges the color channels of img with m as the alpha channel.
//
// The result is non-premultiplied, so every one of the 256 alpha levels is
// stored exactly and color values under transparent pixels are preserved.
// Output pixels are laid out R, G, B, A whatever img.Order is; the reorder
// goes through the image's declared channel order, never through the raw
// byte layout.
//
// Fails with ErrDimensionMismatch if img and m differ in width or height.
func Compose(img *Image, m *Mask) (*image.NRGBA, error) {
	if img.Width != m.Width || img.Height != m.Height {
		return nil, errors.Wrapf(ErrDimensionMismatch,
			"image is %dx%d, mask is %dx%d", img.Width, img.Height, m.Width, m.Height)
	}
	rgb, err := img.Reorder(OrderRGB)
	if err != nil {
		return nil, err
	}

	out := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		src := rgb.Pix[y*img.Width*3 : (y+1)*img.Width*3]
		dst := out.Pix[y*out.Stride : y*out.Stride+img.Width*4]
		for x := 0; x < img.Width; x++ {
			dst[x*4+0] = src[x*3+0]
			dst[x*4+1] = src[x*3+1]
			dst[x*4+2] = src[x*3+2]
			dst[x*4+3] = m.Pix[y*m.Width+x]
		}
	}
	return out, nil
}

// EncodePNG writes rgba as a PNG with the given compression level.
func EncodePNG(w io.Writer, rgba *image.NRGBA, level png.CompressionLevel) error {
	if err := imaging.Encode(w, rgba, imaging.PNG, imaging.PNGCompressionLevel(level)); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// KeyImageResult contains a keyed image encoded as base64 PNG.
type KeyImageResult struct {
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	ImageBase64 string    `json:"image_base64,omitempty"`
	OutputPath  string    `json:"output_path,omitempty"`
	MimeType    string    `json:"mime_type"`
	KeyColor    string    `json:"key_color"`
	Mask        MaskStats `json:"mask"`
}

// NewKeyImageResult encodes res into a KeyImageResult with a base64 payload.
func NewKeyImageResult(res *KeyResult, level png.CompressionLevel) (*KeyImageResult, error) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, res.RGBA, level); err != nil {
		return nil, err
	}
	b := res.RGBA.Bounds()
	return &KeyImageResult{
		Width:       b.Dx(),
		Height:      b.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
		KeyColor:    res.Key.Hex(),
		Mask:        res.Stats,
	}, nil
}
