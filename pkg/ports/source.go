package ports

import (
	"context"
	"image"
)

// StreamSource yields the decoded frames of one camera stream in decode order.
type StreamSource interface {
	// ReadFrame returns the next frame. It returns io.EOF once the stream is
	// exhausted. Any other error also ends the stream.
	ReadFrame() (image.Image, error)

	// FrameRate returns the nominal frame rate, or 0 if unknown.
	FrameRate() float64

	// Close releases decoder resources.
	Close() error
}

// SourceOpener opens a StreamSource from a collaborator-defined locator
// (file path, image directory, device URL).
type SourceOpener interface {
	Open(ctx context.Context, locator string) (StreamSource, error)
}

// SourceOpenerFunc is a function adapter for SourceOpener.
type SourceOpenerFunc func(ctx context.Context, locator string) (StreamSource, error)

// Open implements SourceOpener.
func (f SourceOpenerFunc) Open(ctx context.Context, locator string) (StreamSource, error) {
	return f(ctx, locator)
}
