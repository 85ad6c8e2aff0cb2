package ports

import (
	"image"
)

// BatchSink persists or forwards synchronized frame batches.
// The orchestrator calls WriteBatch once per batch, in batch order, from a
// single goroutine.
type BatchSink interface {
	// WriteBatch handles one batch. frames maps stream ID to image.
	// It returns the number of images written.
	WriteBatch(index int, timestamp float64, frames map[int]image.Image) (int, error)

	// Close flushes and releases the sink.
	Close() error
}
