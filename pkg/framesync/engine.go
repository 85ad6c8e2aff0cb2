// Package framesync aligns frames from independently decoded streams into
// ordered batches.
//
// One reader goroutine per stream pushes packets onto a shared queue. A single
// synchronizer goroutine assembles batches by decode index, computes the cutoff
// (the shortest stream's length) and emits batches 0..cutoff-1 in order.
package framesync

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/user/camsync/pkg/adapters/logger"
	"github.com/user/camsync/pkg/pipeline"
	"github.com/user/camsync/pkg/ports"
	"github.com/user/camsync/pkg/queue"
)

var (
	// ErrNilSource is returned when a stream has no source.
	ErrNilSource = errors.New("framesync: stream has nil source")
	// ErrDuplicateStream is returned when two streams share an ID.
	ErrDuplicateStream = errors.New("framesync: duplicate stream id")
)

// Stream is one opened source registered with the engine.
type Stream struct {
	ID     int
	Source ports.StreamSource
}

// Options configures an engine run.
type Options struct {
	Logger   ports.Logger
	Observer Observer
	// Realtime paces each reader to its source's frame rate.
	Realtime bool
}

// State is the synchronizer lifecycle state.
type State int32

const (
	// StateRunning means at least one stream has not terminated.
	StateRunning State = iota
	// StateDraining means every stream terminated and the remaining packets are
	// being flushed.
	StateDraining
	// StateClosed means the output has been closed.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Stats summarizes a finished run.
type Stats struct {
	Streams   int
	Received  int // non-terminal packets popped by the synchronizer
	Discarded int // packets dropped at or beyond the cutoff
	Emitted   int // batches pushed to the output
	// EndIndex is the number of frames each stream delivered.
	EndIndex map[int]int
	// Cutoff is the minimum of EndIndex, or -1 when no stream terminated.
	Cutoff       int
	ReferenceFPS float64
}

// Engine is a running synchronization. Consumers call Pop until it reports
// false.
type Engine struct {
	out    *queue.Channel[pipeline.FrameBatch]
	cancel context.CancelFunc
	done   chan struct{}
	state  func() State

	mu    sync.Mutex
	stats Stats
}

// Start launches one reader per stream and the synchronizer. Sources are owned
// by the engine from here on and closed by their readers.
func Start(ctx context.Context, streams []Stream, opts Options) (*Engine, error) {
	if err := validate(streams); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	readerCtx, cancel := context.WithCancel(ctx)
	packets := queue.New[pipeline.FramePacket]()
	out := queue.New[pipeline.FrameBatch]()

	ids := make([]int, len(streams))
	for i, s := range streams {
		ids[i] = s.ID
	}
	syncer := newSynchronizer(ids, referenceFPS(streams), out, cancel, opts)

	e := &Engine{
		out:    out,
		cancel: cancel,
		done:   make(chan struct{}),
		state:  syncer.State,
	}

	log := opts.Logger.WithComponent("reader")
	var wg sync.WaitGroup
	for _, s := range streams {
		r := newReader(s, packets, opts.Realtime, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.run(readerCtx)
		}()
	}
	go func() {
		wg.Wait()
		packets.Close()
	}()

	go func() {
		defer close(e.done)
		stats := syncer.run(packets)
		e.mu.Lock()
		e.stats = stats
		e.mu.Unlock()
	}()

	return e, nil
}

// Pop returns the next batch. The boolean is false once the engine is done.
func (e *Engine) Pop() (pipeline.FrameBatch, bool) {
	return e.out.Pop()
}

// Stop asks every reader to finish early. The streams are truncated at the
// shortest delivered length and the engine closes as usual. Safe to call more
// than once.
func (e *Engine) Stop() {
	e.cancel()
}

// Done is closed after the output has been closed.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// State reports the synchronizer state.
func (e *Engine) State() State {
	return e.state()
}

// Wait blocks until the output is closed and returns the run statistics.
func (e *Engine) Wait() Stats {
	<-e.done
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = logger.NewNoop()
	}
	if o.Observer == nil {
		o.Observer = NopObserver{}
	}
	return o
}

func validate(streams []Stream) error {
	seen := make(map[int]bool, len(streams))
	for _, s := range streams {
		if s.Source == nil {
			return fmt.Errorf("%w: stream %d", ErrNilSource, s.ID)
		}
		if seen[s.ID] {
			return fmt.Errorf("%w: %d", ErrDuplicateStream, s.ID)
		}
		seen[s.ID] = true
	}
	return nil
}

// referenceFPS returns the first positive frame rate in input order.
func referenceFPS(streams []Stream) float64 {
	for _, s := range streams {
		if fps := s.Source.FrameRate(); fps > 0 {
			return fps
		}
	}
	return 0
}
