package framesync

import (
	"context"
	"errors"
	"image"
	"io"
	"sync/atomic"

	"github.com/user/camsync/pkg/pipeline"
	"github.com/user/camsync/pkg/queue"
)

// ExtractSequential reads the streams in lock-step from a single goroutine:
// one frame from each stream in order, emitted as a batch, until the first
// stream ends or fails. For finite sources the output matches Start.
func ExtractSequential(ctx context.Context, streams []Stream, opts Options) (*Engine, error) {
	if err := validate(streams); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	ctx, cancel := context.WithCancel(ctx)
	out := queue.New[pipeline.FrameBatch]()
	var state atomic.Int32

	e := &Engine{
		out:    out,
		cancel: cancel,
		done:   make(chan struct{}),
		state:  func() State { return State(state.Load()) },
	}

	go func() {
		defer close(e.done)
		stats := lockstep(ctx, streams, out, opts)
		cancel()
		state.Store(int32(StateClosed))
		e.mu.Lock()
		e.stats = stats
		e.mu.Unlock()
	}()

	return e, nil
}

func lockstep(ctx context.Context, streams []Stream, out *queue.Channel[pipeline.FrameBatch], opts Options) Stats {
	log := opts.Logger.WithComponent("sequential")
	fps := referenceFPS(streams)
	stats := Stats{
		Streams:      len(streams),
		EndIndex:     make(map[int]int, len(streams)),
		Cutoff:       -1,
		ReferenceFPS: fps,
	}
	defer func() {
		for _, s := range streams {
			if err := s.Source.Close(); err != nil {
				log.Debug("Stream %d: close source: %v", s.ID, err)
			}
		}
		out.Close()
	}()

	if len(streams) == 0 {
		return stats
	}

	for index := 0; ; index++ {
		if ctx.Err() != nil {
			log.Debug("Stopped before frame %d", index)
			return truncated(stats, streams, index, opts.Observer)
		}

		frames := make(map[int]image.Image, len(streams))
		for _, s := range streams {
			frame, err := s.Source.ReadFrame()
			if err == nil && frame == nil {
				err = errNilFrame
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					log.Warn("Stream %d: decode stopped after %d frames: %v", s.ID, index, err)
				}
				stats.Discarded += len(frames)
				for id := range frames {
					opts.Observer.PacketDiscarded(id, index)
				}
				return truncated(stats, streams, index, opts.Observer)
			}
			stats.Received++
			opts.Observer.PacketReceived(s.ID)
			frames[s.ID] = frame
		}

		batch := pipeline.FrameBatch{Index: index, Frames: frames}
		if fps > 0 {
			batch.Timestamp = float64(index) / fps
		}
		out.Push(batch)
		opts.Observer.BatchEmitted(batch.Index, batch.Timestamp)
		stats.Emitted++
	}
}

// truncated records that every stream stopped at index, which is also the
// cutoff in lock-step mode.
func truncated(stats Stats, streams []Stream, index int, observer Observer) Stats {
	for _, s := range streams {
		stats.EndIndex[s.ID] = index
		observer.StreamEnded(s.ID, index)
	}
	stats.Cutoff = index
	return stats
}
