package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

var (
	green = color.NRGBA{0, 255, 0, 255}
	red   = color.NRGBA{255, 0, 0, 255}
)

// createSquareImage creates a width x height image filled with bg and a
// size x size square of fg whose top-left corner is at (x0, y0).
func createSquareImage(width, height int, bg, fg color.NRGBA, x0, y0, size int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := bg
			if x >= x0 && x < x0+size && y >= y0 && y < y0+size {
				c = fg
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// encodeTestPNG encodes img as PNG bytes.
func encodeTestPNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// decodeTestPNG decodes PNG bytes produced by the pipeline. Fully opaque
// output is stored without an alpha channel, so everything is converted to
// NRGBA.
func decodeTestPNG(t *testing.T, data []byte) *image.NRGBA {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return imaging.Clone(img)
}

// toImage converts a Go image into an RGB Image.
func toImage(t *testing.T, src image.Image) *Image {
	t.Helper()
	d, err := Decode(encodeTestPNG(t, src), 0)
	require.NoError(t, err)
	return d.Image
}

// maskFromRows builds a mask from rows of '#' (255) and '.' (0).
func maskFromRows(rows ...string) *Mask {
	m := NewMask(len(rows[0]), len(rows), 0)
	for y, row := range rows {
		for x, ch := range row {
			if ch == '#' {
				m.Pix[y*m.Width+x] = 255
			}
		}
	}
	return m
}

// maskRows renders a binary mask back into rows of '#' and '.'; partial
// values render as '+'.
func maskRows(m *Mask) []string {
	rows := make([]string, m.Height)
	for y := 0; y < m.Height; y++ {
		b := make([]byte, m.Width)
		for x := 0; x < m.Width; x++ {
			switch m.At(x, y) {
			case 0:
				b[x] = '.'
			case 255:
				b[x] = '#'
			default:
				b[x] = '+'
			}
		}
		rows[y] = string(b)
	}
	return rows
}

// alphaRows renders the alpha channel of an NRGBA image like maskRows.
func alphaRows(img *image.NRGBA) []string {
	b := img.Bounds()
	m := NewMask(b.Dx(), b.Dy(), 0)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			m.Pix[y*m.Width+x] = img.NRGBAAt(x, y).A
		}
	}
	return maskRows(m)
}

// writeTempFile writes data to a temp file and returns its path.
func writeTempFile(t *testing.T, pattern string, data []byte) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), pattern)
	require.NoError(t, err)
	defer f.Close()
	_, err = f.Write(data)
	require.NoError(t, err)
	return f.Name()
}
