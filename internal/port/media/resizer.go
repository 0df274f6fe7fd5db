// Package media defines the port interface for image processing.
package media

import "context"

// MaxDimension bounds each side of a resize target.
const MaxDimension = 10000

// ResizeOptions controls an image resize.
type ResizeOptions struct {
	Width   int
	Height  int
	Quality int // JPEG only
}

// ImageResizer reads src, scales it and writes dst, choosing the encoding
// from dst's extension.
type ImageResizer interface {
	Resize(ctx context.Context, src, dst string, opts ResizeOptions) error
}
