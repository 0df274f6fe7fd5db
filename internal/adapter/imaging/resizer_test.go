package imaging

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/avishiprsd/llm-automation-agent/internal/port/media"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func decodeSize(t *testing.T, path string) (int, int, string) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()
	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	return cfg.Width, cfg.Height, format
}

func TestResize(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "credit_card.png")
	writePNG(t, src, 200, 120)

	tests := []struct {
		out    string
		format string
	}{
		{"small.png", "png"},
		{"small.jpg", "jpeg"},
		{"small.gif", "gif"},
	}
	for _, tt := range tests {
		t.Run(tt.out, func(t *testing.T) {
			dst := filepath.Join(dir, tt.out)
			if err := NewResizer().Resize(context.Background(), src, dst, media.ResizeOptions{Width: 100, Height: 50, Quality: 70}); err != nil {
				t.Fatal(err)
			}
			w, h, format := decodeSize(t, dst)
			if w != 100 || h != 50 {
				t.Errorf("expected 100x50, got %dx%d", w, h)
			}
			if format != tt.format {
				t.Errorf("expected %s, got %s", tt.format, format)
			}
		})
	}
}

func TestResizeErrors(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	writePNG(t, src, 10, 10)
	r := NewResizer()

	for _, name := range []string{"out.bmp", "out.webp", "noext"} {
		dst := filepath.Join(dir, name)
		if err := r.Resize(context.Background(), src, dst, media.ResizeOptions{Width: 5, Height: 5}); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("%s: expected ErrUnsupportedFormat, got %v", name, err)
		}
		if _, err := os.Stat(dst); !os.IsNotExist(err) {
			t.Errorf("%s: output file created for unsupported format", name)
		}
	}
	if err := r.Resize(context.Background(), src, filepath.Join(dir, "out.png"), media.ResizeOptions{}); err == nil {
		t.Error("expected error for zero size")
	}
	oversized := filepath.Join(dir, "huge.png")
	if err := r.Resize(context.Background(), src, oversized, media.ResizeOptions{Width: media.MaxDimension + 1, Height: 5}); err == nil {
		t.Error("expected error for oversized width")
	}
	if _, err := os.Stat(oversized); !os.IsNotExist(err) {
		t.Error("output file created for oversized target")
	}
	if err := r.Resize(context.Background(), filepath.Join(dir, "missing.png"), filepath.Join(dir, "out.png"), media.ResizeOptions{Width: 5, Height: 5}); err == nil {
		t.Error("expected error for missing source")
	}

	notImage := filepath.Join(dir, "text.png")
	if err := os.WriteFile(notImage, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := r.Resize(context.Background(), notImage, filepath.Join(dir, "out.png"), media.ResizeOptions{Width: 5, Height: 5}); err == nil {
		t.Error("expected decode error")
	}
}
