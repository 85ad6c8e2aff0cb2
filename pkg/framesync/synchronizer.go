package framesync

import (
	"image"
	"sync/atomic"

	"github.com/user/camsync/pkg/pipeline"
	"github.com/user/camsync/pkg/ports"
	"github.com/user/camsync/pkg/queue"
)

// synchronizer assembles batches from packets. All fields except state are
// owned by the goroutine calling handle and finish.
type synchronizer struct {
	streams      map[int]bool
	total        int
	referenceFPS float64

	pending  map[int]map[int]image.Image
	endIndex map[int]int
	cutoff   int // -1 until the first stream terminates
	next     int
	finished int

	out         *queue.Channel[pipeline.FrameBatch]
	stopReaders func()
	state       atomic.Int32

	observer  Observer
	logger    ports.Logger
	packets   int
	discarded int
}

func newSynchronizer(ids []int, fps float64, out *queue.Channel[pipeline.FrameBatch], stopReaders func(), opts Options) *synchronizer {
	s := &synchronizer{
		streams:      make(map[int]bool, len(ids)),
		total:        len(ids),
		referenceFPS: fps,
		pending:      make(map[int]map[int]image.Image),
		endIndex:     make(map[int]int, len(ids)),
		cutoff:       -1,
		out:          out,
		stopReaders:  stopReaders,
		observer:     opts.Observer,
		logger:       opts.Logger.WithComponent("sync"),
	}
	for _, id := range ids {
		s.streams[id] = true
	}
	s.state.Store(int32(StateRunning))
	return s
}

// State reports the current lifecycle state. Safe for concurrent use.
func (s *synchronizer) State() State {
	return State(s.state.Load())
}

// run consumes packets until the channel is closed and drained, then closes
// the output.
func (s *synchronizer) run(packets *queue.Channel[pipeline.FramePacket]) Stats {
	if s.total == 0 {
		s.logger.Debug("No streams, closing output")
		return s.finish()
	}
	for {
		p, ok := packets.Pop()
		if !ok {
			break
		}
		s.handle(p)
	}
	return s.finish()
}

func (s *synchronizer) handle(p pipeline.FramePacket) {
	if !s.streams[p.StreamID] {
		s.logger.Warn("Discarding packet from unknown stream %d", p.StreamID)
		return
	}
	if p.EndOfStream {
		s.handleEnd(p.StreamID, p.Index)
		return
	}

	s.packets++
	s.observer.PacketReceived(p.StreamID)

	if (s.cutoff >= 0 && p.Index >= s.cutoff) || p.Index < s.next {
		s.discard(p.StreamID, p.Index)
		return
	}

	slot := s.pending[p.Index]
	if slot == nil {
		slot = make(map[int]image.Image, s.total)
		s.pending[p.Index] = slot
	}
	if _, dup := slot[p.StreamID]; dup {
		s.logger.Warn("Stream %d: duplicate frame %d", p.StreamID, p.Index)
		s.discard(p.StreamID, p.Index)
		return
	}
	slot[p.StreamID] = p.Frame
	s.flush()
}

func (s *synchronizer) handleEnd(id, end int) {
	if _, seen := s.endIndex[id]; seen {
		s.logger.Warn("Stream %d: ignoring repeated end of stream", id)
		return
	}
	s.endIndex[id] = end
	s.finished++
	s.observer.StreamEnded(id, end)
	s.logger.Debug("Stream %d ended at frame %d (%d/%d finished)", id, end, s.finished, s.total)

	if s.cutoff < 0 || end < s.cutoff {
		s.cutoff = end
		for idx, slot := range s.pending {
			if idx < s.cutoff {
				continue
			}
			for sid := range slot {
				s.discard(sid, idx)
			}
			delete(s.pending, idx)
		}
	}

	if s.finished == s.total {
		s.stopReaders()
		s.state.Store(int32(StateDraining))
		s.logger.Debug("All streams ended, cutoff %d", s.cutoff)
	}
	s.flush()
}

// flush emits consecutive complete batches starting at next.
func (s *synchronizer) flush() {
	for s.cutoff < 0 || s.next < s.cutoff {
		slot, ok := s.pending[s.next]
		if !ok || len(slot) < s.total {
			return
		}
		delete(s.pending, s.next)

		batch := pipeline.FrameBatch{
			Index:     s.next,
			Timestamp: s.timestamp(s.next),
			Frames:    slot,
		}
		s.out.Push(batch)
		s.observer.BatchEmitted(batch.Index, batch.Timestamp)
		s.next++
	}
}

func (s *synchronizer) finish() Stats {
	s.flush()
	for idx, slot := range s.pending {
		for sid := range slot {
			s.discard(sid, idx)
		}
		delete(s.pending, idx)
	}
	s.out.Close()
	s.stopReaders()
	s.state.Store(int32(StateClosed))
	s.logger.Debug("Output closed after %d batches, %d packets discarded", s.next, s.discarded)

	ends := make(map[int]int, len(s.endIndex))
	for id, e := range s.endIndex {
		ends[id] = e
	}
	return Stats{
		Streams:      s.total,
		Received:     s.packets,
		Discarded:    s.discarded,
		Emitted:      s.next,
		EndIndex:     ends,
		Cutoff:       s.cutoff,
		ReferenceFPS: s.referenceFPS,
	}
}

func (s *synchronizer) discard(id, index int) {
	s.discarded++
	s.observer.PacketDiscarded(id, index)
}

func (s *synchronizer) timestamp(index int) float64 {
	if s.referenceFPS <= 0 {
		return 0
	}
	return float64(index) / s.referenceFPS
}
