// Package fetch defines the port interfaces for outbound HTTP retrieval.
package fetch

import (
	"context"
	"errors"
)

var (
	// ErrStatus is wrapped when the remote answers with a non-2xx status.
	ErrStatus = errors.New("unexpected status")
	// ErrTooLarge is wrapped when the body exceeds the configured size cap.
	ErrTooLarge = errors.New("response body too large")
)

// Response is a fetched document.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Fetcher performs a single GET.
type Fetcher interface {
	Get(ctx context.Context, url string) (*Response, error)
}

// TextExtractor reduces an HTML document to its visible text.
type TextExtractor interface {
	ExtractText(body []byte) (string, error)
}
