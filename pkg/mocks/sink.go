package mocks

import (
	"image"
	"sync"

	"github.com/user/camsync/pkg/ports"
)

// RecordedBatch is one WriteBatch call captured by BatchSink.
type RecordedBatch struct {
	Index     int
	Timestamp float64
	Frames    map[int]image.Image
}

// BatchSink is a mock implementation of ports.BatchSink that records batches.
type BatchSink struct {
	mu sync.RWMutex

	WriteBatchFunc func(index int, timestamp float64, frames map[int]image.Image) (int, error)
	CloseFunc      func() error

	Batches []RecordedBatch
	Closed  bool
}

// NewBatchSink creates a new recording sink.
func NewBatchSink() *BatchSink {
	return &BatchSink{}
}

func (m *BatchSink) WriteBatch(index int, timestamp float64, frames map[int]image.Image) (int, error) {
	if m.WriteBatchFunc != nil {
		return m.WriteBatchFunc(index, timestamp, frames)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Batches = append(m.Batches, RecordedBatch{Index: index, Timestamp: timestamp, Frames: frames})
	return len(frames), nil
}

func (m *BatchSink) Close() error {
	m.mu.Lock()
	m.Closed = true
	m.mu.Unlock()
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Count returns the number of recorded batches.
func (m *BatchSink) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Batches)
}

var _ ports.BatchSink = (*BatchSink)(nil)
