package imaging

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/go-faster/errors"
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// Decoded is an Image together with what is known about its source encoding.
type Decoded struct {
	*Image

	// Format is the registered decoder name: "png", "jpeg", "gif", "bmp",
	// "tiff" or "webp".
	Format string

	// HasAlpha reports whether the source carried any non-opaque pixel. The
	// source alpha is discarded; keying replaces it.
	HasAlpha bool
}

// Decode decodes an encoded raster image into an RGB Image.
//
// Parameters:
//   - data: Encoded image bytes. PNG, JPEG, GIF, BMP, TIFF and WebP are supported.
//   - maxPixels: Upper bound on width*height; 0 disables the check.
//
// EXIF orientation is applied, so a rotated camera JPEG is keyed the way it
// is displayed. Any source alpha is dropped and the stored (non-premultiplied)
// color is kept.
//
// # Errors
//
//   - ErrImageDecode if data is not a supported image
//   - ErrResourceExhaustion if the image header declares more than maxPixels
//     pixels; this is checked before any pixel data is decoded
func Decode(data []byte, maxPixels int) (*Decoded, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(ErrImageDecode, "read header: %v", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errors.Wrapf(ErrImageDecode, "empty %s image %dx%d", format, cfg.Width, cfg.Height)
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, errors.Wrapf(ErrResourceExhaustion,
			"%dx%d image exceeds limit of %d pixels", cfg.Width, cfg.Height, maxPixels)
	}

	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrapf(ErrImageDecode, "decode %s: %v", format, err)
	}

	nrgba := imaging.Clone(src)
	b := nrgba.Bounds()
	img, err := NewImage(b.Dx(), b.Dy(), OrderRGB)
	if err != nil {
		return nil, errors.Wrapf(ErrImageDecode, "decode %s: %v", format, err)
	}

	for y := 0; y < img.Height; y++ {
		row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+img.Width*4]
		dst := img.Pix[y*img.Width*3 : (y+1)*img.Width*3]
		for x := 0; x < img.Width; x++ {
			dst[x*3+0] = row[x*4+0]
			dst[x*3+1] = row[x*4+1]
			dst[x*3+2] = row[x*4+2]
		}
	}

	return &Decoded{Image: img, Format: format, HasAlpha: !nrgba.Opaque()}, nil
}

// ImageCache provides thread-safe caching of decoded images keyed by file path.
//
// Cached images are immutable, so one decoded image can be keyed by many
// concurrent requests; each request builds its own mask and output.
//
// # Memory Management
//
// Cached images remain in memory until explicitly removed via Evict() or Clear().
type ImageCache struct {
	mu        sync.RWMutex
	maxPixels int
	images    map[string]*Decoded
}

// NewImageCache creates an empty cache. Images larger than maxPixels are
// refused at load time (0 means unlimited).
func NewImageCache(maxPixels int) *ImageCache {
	return &ImageCache{
		maxPixels: maxPixels,
		images:    make(map[string]*Decoded),
	}
}

// Load retrieves an image from the cache or decodes it from disk if not cached.
//
// The image is cached using the exact path string provided. Different paths
// to the same file result in separate cache entries.
func (c *ImageCache) Load(path string) (*Decoded, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	img, err := Decode(data, c.maxPixels)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]*Decoded)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path.
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// ImageInfo contains metadata about a loaded image file.
type ImageInfo struct {
	// Width is the image width in pixels, after EXIF orientation.
	Width int `json:"width"`

	// Height is the image height in pixels, after EXIF orientation.
	Height int `json:"height"`

	// Format is the decoder that read the file, detected from its contents.
	Format string `json:"format"`

	// HasAlpha indicates whether the file already contains transparency.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an image into the cache (if not already cached) and
// returns its metadata.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return &ImageInfo{
		Width:         img.Width,
		Height:        img.Height,
		Format:        img.Format,
		HasAlpha:      img.HasAlpha,
		FileSizeBytes: stat.Size(),
	}, nil
}
