// Package nullsink provides a batch sink that only counts what it receives.
package nullsink

import (
	"image"
	"sync/atomic"

	"github.com/user/camsync/pkg/ports"
)

// Sink discards batches. It is used when no output is configured, for
// example to measure synchronization alone.
type Sink struct {
	batches atomic.Int64
	frames  atomic.Int64
}

// New creates a new Sink.
func New() *Sink {
	return &Sink{}
}

// WriteBatch counts the batch and reports no files written.
func (s *Sink) WriteBatch(index int, timestamp float64, frames map[int]image.Image) (int, error) {
	s.batches.Add(1)
	s.frames.Add(int64(len(frames)))
	return 0, nil
}

// Close does nothing.
func (s *Sink) Close() error {
	return nil
}

// Batches returns the number of batches seen.
func (s *Sink) Batches() int {
	return int(s.batches.Load())
}

// Frames returns the number of frames seen.
func (s *Sink) Frames() int {
	return int(s.frames.Load())
}

var _ ports.BatchSink = (*Sink)(nil)
