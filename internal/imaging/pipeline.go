package imaging

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"math"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/ironsheep/chroma-alpha/internal/logger"
)

// Default keying parameters.
const (
	DefaultKeyColor  = "#00FF00"
	DefaultTolerance = 30.0
)

// Options is the complete, immutable configuration of one keying run.
// It is passed by value; nothing in this package keeps or mutates it.
type Options struct {
	// KeyColor is the background color, "#RRGGBB" or "RRGGBB".
	KeyColor string `json:"hex_color"`

	// Tolerance is the euclidean RGB distance below which a pixel is keyed.
	Tolerance float64 `json:"tolerance"`

	// ChokePixels erodes the opaque region by this many pixels.
	ChokePixels int `json:"choke_pixels"`

	// FeatherPixels softens the mask edge over roughly this many pixels.
	FeatherPixels int `json:"feather_pixels"`
}

// DefaultOptions returns green-screen keying with tolerance 30 and no refinement.
func DefaultOptions() Options {
	return Options{
		KeyColor:  DefaultKeyColor,
		Tolerance: DefaultTolerance,
	}
}

// Validate checks every field and returns the parsed key color.
func (o Options) Validate() (KeyColor, error) {
	key, err := ParseKeyColor(o.KeyColor)
	if err != nil {
		return KeyColor{}, err
	}
	if o.Tolerance < 0 || math.IsNaN(o.Tolerance) || math.IsInf(o.Tolerance, 0) {
		return KeyColor{}, errors.Wrapf(ErrInvalidParameter, "tolerance %v must be a finite number >= 0", o.Tolerance)
	}
	if o.ChokePixels < 0 {
		return KeyColor{}, errors.Wrapf(ErrInvalidParameter, "choke_pixels %d must be >= 0", o.ChokePixels)
	}
	if o.FeatherPixels < 0 {
		return KeyColor{}, errors.Wrapf(ErrInvalidParameter, "feather_pixels %d must be >= 0", o.FeatherPixels)
	}
	return key, nil
}

// PipelineOptions are the service-level limits of a Pipeline.
type PipelineOptions struct {
	// MaxPixels bounds width*height of accepted images; 0 means unlimited.
	MaxPixels int

	// Compression is the PNG compression level of encoded output.
	Compression png.CompressionLevel
}

// Pipeline runs the keying stages: parse the key color, build the mask,
// choke, feather, compose and encode.
//
// A Pipeline holds only read-only limits and is safe for concurrent use;
// every call owns its own image, mask and output buffers.
type Pipeline struct {
	opts PipelineOptions
}

// NewPipeline creates a pipeline with the given limits.
func NewPipeline(opts PipelineOptions) *Pipeline {
	return &Pipeline{opts: opts}
}

// Compression returns the PNG compression level used for output.
func (p *Pipeline) Compression() png.CompressionLevel { return p.opts.Compression }

// KeyResult is the output of a keying run before encoding.
type KeyResult struct {
	Key   KeyColor
	RGBA  *image.NRGBA
	Stats MaskStats
}

// Process decodes data, keys it with opts and returns the result as PNG bytes.
//
// The operation is all-or-nothing: on any error no output is returned.
// Errors wrap one of the package error kinds (ErrInvalidColorFormat,
// ErrImageDecode, ErrResourceExhaustion, ErrInvalidParameter, ...).
func (p *Pipeline) Process(ctx context.Context, data []byte, opts Options) ([]byte, error) {
	// reject bad parameters before paying for the decode
	if _, err := opts.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	img, err := Decode(data, p.opts.MaxPixels)
	if err != nil {
		return nil, err
	}
	logger.Debug(ctx, "image decoded",
		zap.String("format", img.Format),
		zap.Int("width", img.Width),
		zap.Int("height", img.Height),
		zap.Duration("elapsed", time.Since(start)),
	)

	res, err := p.Key(ctx, img.Image, opts)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := EncodePNG(&buf, res.RGBA, p.opts.Compression); err != nil {
		return nil, err
	}
	logger.Debug(ctx, "image keyed",
		zap.Int("bytes", buf.Len()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return buf.Bytes(), nil
}

// Key runs the keying stages on an already decoded image.
func (p *Pipeline) Key(ctx context.Context, img *Image, opts Options) (*KeyResult, error) {
	key, err := opts.Validate()
	if err != nil {
		return nil, err
	}
	if p.opts.MaxPixels > 0 && int64(img.Width)*int64(img.Height) > int64(p.opts.MaxPixels) {
		return nil, errors.Wrapf(ErrResourceExhaustion,
			"%dx%d image exceeds limit of %d pixels", img.Width, img.Height, p.opts.MaxPixels)
	}

	target, err := key.Components(img.Order)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mask, err := BuildMask(img, target, opts.Tolerance)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mask, err = Refine(mask, opts.ChokePixels, opts.FeatherPixels)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rgba, err := Compose(img, mask)
	if err != nil {
		return nil, err
	}

	stats := mask.Stats()
	logger.Debug(ctx, "mask built",
		zap.Stringer("key", key),
		zap.Float64("tolerance", opts.Tolerance),
		zap.Int("choke", opts.ChokePixels),
		zap.Int("feather", opts.FeatherPixels),
		zap.Int("transparent", stats.TransparentPixels),
		zap.Int("partial", stats.PartialPixels),
	)

	return &KeyResult{Key: key, RGBA: rgba, Stats: stats}, nil
}
