// Package imaging converts uploaded images into web-sized WebP renditions
// using libvips. Images narrower than the target width are never upscaled.
package imaging

import (
	"fmt"
	"log/slog"

	"github.com/davidbyttow/govips/v2/vips"

	"portfolio/internal/domain/models"
)

// Startup initialises libvips. Call once at application start; concurrency
// of 0 lets libvips pick.
func Startup(concurrency int) {
	vips.LoggingSettings(nil, vips.LogLevelWarning)
	vips.Startup(&vips.Config{
		ConcurrencyLevel: concurrency,
		MaxCacheSize:     100,
		MaxCacheMem:      50 * 1024 * 1024,
	})
	slog.Info("libvips started", slog.String("version", vips.Version))
}

func Shutdown() {
	vips.Shutdown()
}

// Processor is the libvips-backed implementation used by the upload
// pipeline.
type Processor struct {
	maxWidth       int
	quality        int
	thumbnailWidth int
}

func NewProcessor(maxWidth, quality, thumbnailWidth int) *Processor {
	return &Processor{
		maxWidth:       maxWidth,
		quality:        quality,
		thumbnailWidth: thumbnailWidth,
	}
}

// Dimensions reports the pixel size of an encoded image without resizing it.
func (p *Processor) Dimensions(original []byte) (int, int, error) {
	img, err := vips.NewImageFromBuffer(original)
	if err != nil {
		return 0, 0, fmt.Errorf("imaging: probe: %w", err)
	}
	defer img.Close()

	return img.Width(), img.Height(), nil
}

// WebVersion returns a WebP rendition no wider than the configured maximum,
// rotated according to its EXIF orientation.
func (p *Processor) WebVersion(original []byte) (models.Rendition, error) {
	return p.toWebP(original, p.maxWidth)
}

// Thumbnail returns a small WebP rendition of the first frame. Used for GIF
// previews.
func (p *Processor) Thumbnail(original []byte) (models.Rendition, error) {
	return p.toWebP(original, p.thumbnailWidth)
}

func (p *Processor) toWebP(original []byte, width int) (models.Rendition, error) {
	w, _, err := p.Dimensions(original)
	if err != nil {
		return models.Rendition{}, err
	}
	if w < width {
		width = w
	}

	img, err := vips.NewThumbnailFromBuffer(original, width, 0, vips.InterestingNone)
	if err != nil {
		return models.Rendition{}, fmt.Errorf("imaging: thumbnail %dpx: %w", width, err)
	}
	defer img.Close()

	if err := img.AutoRotate(); err != nil {
		return models.Rendition{}, fmt.Errorf("imaging: autorotate: %w", err)
	}

	params := vips.NewWebpExportParams()
	params.Quality = p.quality
	params.Lossless = false
	params.StripMetadata = true

	buf, meta, err := img.ExportWebp(params)
	if err != nil {
		return models.Rendition{}, fmt.Errorf("imaging: export webp: %w", err)
	}

	return models.Rendition{
		Width:       meta.Width,
		Height:      meta.Height,
		Data:        buf,
		ContentType: models.ContentTypeWebP,
	}, nil
}
