// Package imaging implements the media port with golang.org/x/image.
package imaging

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	"github.com/avishiprsd/llm-automation-agent/internal/port/media"
)

// ErrUnsupportedFormat is returned for output extensions with no encoder.
var ErrUnsupportedFormat = errors.New("unsupported image format")

const defaultQuality = 85

// Resizer scales images with a Catmull-Rom kernel.
type Resizer struct{}

var _ media.ImageResizer = (*Resizer)(nil)

// NewResizer creates a Resizer.
func NewResizer() *Resizer {
	return &Resizer{}
}

// Resize decodes src, scales it to exactly opts.Width x opts.Height and
// encodes it to dst by dst's extension. dst is left untouched when the
// extension has no encoder and removed when encoding fails.
func (r *Resizer) Resize(ctx context.Context, src, dst string, opts media.ResizeOptions) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		return fmt.Errorf("imaging: invalid size %dx%d", opts.Width, opts.Height)
	}
	if opts.Width > media.MaxDimension || opts.Height > media.MaxDimension {
		return fmt.Errorf("imaging: size %dx%d exceeds %d per side", opts.Width, opts.Height, media.MaxDimension)
	}
	enc, err := encoderFor(dst, opts.Quality)
	if err != nil {
		return err
	}

	in, err := os.Open(src) //nolint:gosec // G304: path is sandbox-checked by the caller
	if err != nil {
		return fmt.Errorf("imaging: open: %w", err)
	}
	img, _, err := image.Decode(in)
	_ = in.Close()
	if err != nil {
		return fmt.Errorf("imaging: decode: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	scaled := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Over, nil)

	out, err := os.Create(dst) //nolint:gosec // G304: path is sandbox-checked by the caller
	if err != nil {
		return fmt.Errorf("imaging: create: %w", err)
	}
	if err := enc(out, scaled); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("imaging: encode: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("imaging: close: %w", err)
	}
	return nil
}

type encoder func(w io.Writer, img image.Image) error

func encoderFor(name string, quality int) (encoder, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		if quality <= 0 || quality > 100 {
			quality = defaultQuality
		}
		return func(w io.Writer, img image.Image) error {
			return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
		}, nil
	case ".png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		return enc.Encode, nil
	case ".gif":
		return func(w io.Writer, img image.Image) error {
			return gif.Encode(w, img, nil)
		}, nil
	default:
		return nil, fmt.Errorf("imaging: %s: %w", filepath.Ext(name), ErrUnsupportedFormat)
	}
}
