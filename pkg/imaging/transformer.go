// Package imaging re-encodes uploaded images into bounded, web-friendly JPEGs.
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
	"io"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxDimension = 1200
	DefaultQuality      = 80
	DefaultMaxPixels    = 40_000_000

	OutputContentType = "image/jpeg"
	OutputExtension   = ".jpg"
)

// ErrTooManyPixels is returned before decoding when the header declares more pixels than MaxPixels.
var ErrTooManyPixels = errors.New("image dimensions exceed pixel budget")

// Transformer resizes to fit a MaxDimension square and encodes JPEG.
// Output depends only on the input bytes and the options.
type Transformer struct {
	MaxDimension uint
	Quality      int
	MaxPixels    int64 // decoded bitmap budget, checked from the header
}

func NewTransformer(maxDimension, quality int) *Transformer {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return &Transformer{MaxDimension: uint(maxDimension), Quality: quality, MaxPixels: DefaultMaxPixels}
}

// Transform decodes png, jpeg, gif or webp input. Images already inside the bounds keep their size.
// The header is read first so an oversized bitmap is never allocated.
func (t *Transformer) Transform(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image header: %w", err)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); t.MaxPixels > 0 && pixels > t.MaxPixels {
		return nil, fmt.Errorf("%w: %s %dx%d", ErrTooManyPixels, format, cfg.Width, cfg.Height)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	fitted := resize.Thumbnail(t.MaxDimension, t.MaxDimension, src, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flatten(fitted), &jpeg.Options{Quality: t.Quality}); err != nil {
		return nil, fmt.Errorf("encode %s as jpeg: %w", format, err)
	}
	return buf.Bytes(), nil
}

// flatten draws img over white so transparent pixels do not turn black in JPEG.
func flatten(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}
	bounds := img.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(dst, bounds, img, bounds.Min, draw.Over)
	return dst
}
