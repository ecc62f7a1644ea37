// Package media extracts metadata from picture payloads. Dimension
// decoding covers PNG, JPEG and WEBP; anything else is rejected.
package media

import (
	"bytes"
	"fmt"
	"image"

	// Registered header decoders for image.DecodeConfig.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/marcus-grant/depo/internal/apperr"
	"github.com/marcus-grant/depo/internal/models"
)

// ImageInfo is the metadata extracted from image bytes.
type ImageInfo struct {
	Format models.ContentFormat
	Width  int
	Height int
}

// Names reported by image.DecodeConfig for the registered decoders.
var decoderToFormat = map[string]models.ContentFormat{
	"png":  models.FormatPNG,
	"jpeg": models.FormatJPEG,
	"webp": models.FormatWEBP,
}

// Info decodes the image header and reports format and dimensions.
// Bytes that do not parse as a supported image yield ErrImageDecode;
// the caller surfaces it alongside classification failures.
func Info(data []byte) (ImageInfo, error) {
	cfg, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ImageInfo{}, fmt.Errorf("media: decode image header: %w", apperr.ErrImageDecode)
	}
	f, ok := decoderToFormat[name]
	if !ok {
		return ImageInfo{}, fmt.Errorf("media: unsupported image format %q: %w", name, apperr.ErrImageDecode)
	}
	return ImageInfo{Format: f, Width: cfg.Width, Height: cfg.Height}, nil
}
