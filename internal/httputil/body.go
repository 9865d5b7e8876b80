// Package httputil provides helpers for reading HTTP payloads safely.
// Provider and vector store clients use it to cap response body reads.
package httputil

import (
	"errors"
	"io"
)

const (
	// MaxResponseBytes caps provider response bodies to 10MB.
	MaxResponseBytes int64 = 10 << 20

	// MaxErrorBytes caps error response bodies to 64KB.
	MaxErrorBytes int64 = 64 << 10
)

var ErrBodyTooLarge = errors.New("response body too large")

// ReadBody reads at most limit bytes from r. When the stream holds more
// than that it returns the first limit bytes together with
// ErrBodyTooLarge. A non-positive limit reads everything.
func ReadBody(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}

	lr := &io.LimitedReader{R: r, N: limit + 1}
	body, err := io.ReadAll(lr)
	switch {
	case err != nil:
		return body, err
	case lr.N == 0:
		return body[:limit], ErrBodyTooLarge
	}
	return body, nil
}
