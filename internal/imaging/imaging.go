// Package imaging decodes uploaded pictures and normalizes them for the vision backend.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrMalformedImage is returned when the payload is not a decodable image.
	ErrMalformedImage = errors.New("payload is not a valid image")
	// ErrImageTooLarge is returned when the declared dimensions exceed MaxPixels.
	ErrImageTooLarge = errors.New("image dimensions are too large")
)

const (
	jpegQuality = 90

	// MaxPixels bounds width*height before any pixel data is decoded.
	MaxPixels = 40_000_000
)

var supportedTypes = map[string]bool{
	"image/jpeg":     true,
	"image/jpg":      true,
	"image/png":      true,
	"image/gif":      true,
	"image/webp":     true,
	"image/bmp":      true,
	"image/x-ms-bmp": true,
	"image/tiff":     true,
}

// Supported reports whether NormalizeRGB has a decoder for the MIME type.
func Supported(mimeType string) bool {
	mimeType, _, _ = strings.Cut(mimeType, ";")
	return supportedTypes[strings.ToLower(strings.TrimSpace(mimeType))]
}

// NormalizeRGB decodes data and re-encodes it as an opaque 3-channel JPEG.
// Transparent pixels are composited over white.
func NormalizeRGB(data []byte) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: empty %dx%d canvas", ErrMalformedImage, cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedImage, err)
	}

	if format == "jpeg" && isRGB(src) {
		// already a 3-channel jpeg
		return data, nil
	}

	bounds := src.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Over)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return out.Bytes(), nil
}

func isRGB(img image.Image) bool {
	switch img.(type) {
	case *image.YCbCr:
		return true
	default:
		return false
	}
}
