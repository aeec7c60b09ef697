// Package generator writes rendered post images as JPEG or PNG.
//
// All output follows one pipeline: render an image.Image first, then
// encode it by the extension of the destination.
package generator

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	// DefaultQuality is the JPEG quality of composed posts.
	DefaultQuality = 90
	// EnhanceQuality is the JPEG quality of sharpened uploads.
	EnhanceQuality = 95
)

// Config holds parameters for output generation.
type Config struct {
	Image   image.Image // Rendered image (required)
	Quality int         // JPEG quality (default: DefaultQuality)
}

// Generate writes an output file. The format is inferred from the file extension:
//   - ".jpg", ".jpeg" → JPEG at cfg.Quality
//   - ".png"          → PNG
func Generate(output string, cfg Config) error {
	img, err := resolveImage(cfg)
	if err != nil {
		return err
	}

	switch ext := strings.ToLower(filepath.Ext(output)); ext {
	case ".png":
		return writePNG(output, img)
	case ".jpg", ".jpeg":
		return writeJPEG(output, img, quality(cfg))
	default:
		return fmt.Errorf("unsupported format %q: use .jpg or .png", ext)
	}
}

// GenerateToWriter writes the image to w. The format is specified by ext (".jpg" or ".png").
func GenerateToWriter(w io.Writer, ext string, cfg Config) error {
	img, err := resolveImage(cfg)
	if err != nil {
		return err
	}

	switch strings.ToLower(ext) {
	case ".png":
		return imaging.Encode(w, img, imaging.PNG)
	case ".jpg", ".jpeg":
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality(cfg)))
	default:
		return fmt.Errorf("unsupported format %q: use .jpg or .png", ext)
	}
}

// EncodeJPEG returns img as JPEG bytes at the given quality.
func EncodeJPEG(img image.Image, q int) ([]byte, error) {
	var buf bytes.Buffer
	if err := GenerateToWriter(&buf, ".jpg", Config{Image: img, Quality: q}); err != nil {
		return nil, fmt.Errorf("encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

func quality(cfg Config) int {
	if cfg.Quality <= 0 || cfg.Quality > 100 {
		return DefaultQuality
	}
	return cfg.Quality
}

func resolveImage(cfg Config) (image.Image, error) {
	if cfg.Image == nil {
		return nil, errors.New("nothing to write: no image")
	}
	return cfg.Image, nil
}
