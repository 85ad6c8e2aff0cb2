package mocks

import (
	"context"
	"fmt"
	"image"
	"io"
	"sync"
	"time"

	"github.com/user/camsync/pkg/ports"
)

// Frame is the image produced by StreamSource. It remembers which source and
// position it came from so tests can check alignment.
type Frame struct {
	image.Image
	Tag   int
	Index int
}

// StreamSource is a mock implementation of ports.StreamSource that yields a
// fixed number of frames.
type StreamSource struct {
	mu sync.Mutex

	Tag    int
	Frames int
	FPS    float64
	// Delay is slept before every read.
	Delay time.Duration
	// FailAt makes the read of that index return Err instead of a frame.
	// Negative disables it.
	FailAt int
	Err    error

	ReadFrameFunc func() (image.Image, error)
	CloseFunc     func() error

	reads  int
	closes int
}

// NewStreamSource creates a source with the given frame count and rate.
func NewStreamSource(tag, frames int, fps float64) *StreamSource {
	return &StreamSource{
		Tag:    tag,
		Frames: frames,
		FPS:    fps,
		FailAt: -1,
	}
}

func (m *StreamSource) ReadFrame() (image.Image, error) {
	if m.ReadFrameFunc != nil {
		return m.ReadFrameFunc()
	}
	if m.Delay > 0 {
		time.Sleep(m.Delay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reads == m.FailAt {
		err := m.Err
		if err == nil {
			err = fmt.Errorf("mock decode error at frame %d", m.reads)
		}
		return nil, err
	}
	if m.reads >= m.Frames {
		return nil, io.EOF
	}
	f := &Frame{
		Image: image.NewGray(image.Rect(0, 0, 2, 2)),
		Tag:   m.Tag,
		Index: m.reads,
	}
	m.reads++
	return f, nil
}

func (m *StreamSource) FrameRate() float64 {
	return m.FPS
}

func (m *StreamSource) Close() error {
	m.mu.Lock()
	m.closes++
	m.mu.Unlock()
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Reads returns the number of frames handed out.
func (m *StreamSource) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

// Closes returns how many times Close was called.
func (m *StreamSource) Closes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closes
}

var _ ports.StreamSource = (*StreamSource)(nil)

// SourceOpener is a mock implementation of ports.SourceOpener backed by a
// locator map.
type SourceOpener struct {
	mu sync.Mutex

	Sources map[string]*StreamSource
	Errors  map[string]error

	OpenFunc func(ctx context.Context, locator string) (ports.StreamSource, error)

	Opened []string
}

// NewSourceOpener creates an opener with no registered sources.
func NewSourceOpener() *SourceOpener {
	return &SourceOpener{
		Sources: make(map[string]*StreamSource),
		Errors:  make(map[string]error),
	}
}

func (m *SourceOpener) Open(ctx context.Context, locator string) (ports.StreamSource, error) {
	if m.OpenFunc != nil {
		return m.OpenFunc(ctx, locator)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.Errors[locator]; ok {
		return nil, err
	}
	src, ok := m.Sources[locator]
	if !ok {
		return nil, fmt.Errorf("no such source: %s", locator)
	}
	m.Opened = append(m.Opened, locator)
	return src, nil
}

var _ ports.SourceOpener = (*SourceOpener)(nil)
