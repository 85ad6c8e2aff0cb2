package orchestrator

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/user/camsync/pkg/adapters/logger"
	"github.com/user/camsync/pkg/discovery"
	"github.com/user/camsync/pkg/mocks"
	"github.com/user/camsync/pkg/pipeline"
	"github.com/user/camsync/pkg/ports"
	"github.com/user/camsync/pkg/stages/open"
	"github.com/user/camsync/pkg/stages/persist"
)

// mockDiscoverStage is a mock for the discover stage.
type mockDiscoverStage struct {
	result pipeline.DiscoverResult
	err    error
}

func (m *mockDiscoverStage) Execute(ctx context.Context, input pipeline.DiscoverInput) (pipeline.DiscoverResult, error) {
	if m.err != nil {
		return pipeline.DiscoverResult{}, m.err
	}
	return m.result, nil
}

func videoStreams(locators ...string) pipeline.DiscoverResult {
	var result pipeline.DiscoverResult
	for i, l := range locators {
		result.Streams = append(result.Streams, pipeline.StreamDescriptor{ID: i, Locator: l, Kind: pipeline.KindVideo})
	}
	return result
}

func newOrchestrator(discovered pipeline.DiscoverResult, opener *mocks.SourceOpener, sink *mocks.BatchSink) *Orchestrator {
	log := logger.NewNoop()
	openers := map[pipeline.SourceKind]ports.SourceOpener{pipeline.KindVideo: opener}
	return New(
		&mockDiscoverStage{result: discovered},
		open.NewStage(openers, log, 2),
		persist.NewStage([]ports.BatchSink{sink}, log),
		nil,
		log,
	)
}

func TestOrchestrator_Run(t *testing.T) {
	for _, sequential := range []bool{false, true} {
		opener := mocks.NewSourceOpener()
		opener.Sources["a.mp4"] = mocks.NewStreamSource(0, 10, 25)
		opener.Sources["b.mp4"] = mocks.NewStreamSource(1, 7, 25)
		opener.Sources["c.mp4"] = mocks.NewStreamSource(2, 12, 25)
		sink := mocks.NewBatchSink()

		orch := newOrchestrator(videoStreams("a.mp4", "b.mp4", "c.mp4"), opener, sink)
		config := DefaultConfig()
		config.Sequential = sequential

		result, err := orch.Run(context.Background(), config)
		if err != nil {
			t.Fatalf("sequential=%v: unexpected error: %v", sequential, err)
		}
		if result.RunID == "" {
			t.Error("expected a generated run id")
		}
		if result.Batches != 7 || sink.Count() != 7 {
			t.Errorf("sequential=%v: expected 7 batches, got %d (sink %d)", sequential, result.Batches, sink.Count())
		}
		if result.Images != 21 {
			t.Errorf("sequential=%v: expected 21 images, got %d", sequential, result.Images)
		}
		if result.Cutoff != 7 {
			t.Errorf("sequential=%v: expected cutoff 7, got %d", sequential, result.Cutoff)
		}
		if len(result.Streams) != 3 {
			t.Fatalf("sequential=%v: expected 3 streams, got %d", sequential, len(result.Streams))
		}
		for i, b := range sink.Batches {
			if b.Index != i || len(b.Frames) != 3 {
				t.Errorf("batch %d: index %d with %d frames", i, b.Index, len(b.Frames))
			}
			for id, f := range b.Frames {
				if frame := f.(*mocks.Frame); frame.Tag != id || frame.Index != i {
					t.Errorf("batch %d: stream %d carries frame %d of stream %d", i, id, frame.Index, frame.Tag)
				}
			}
		}
		if !sink.Closed {
			t.Error("expected sink to be closed")
		}
	}
}

func TestOrchestrator_Run_ModesAndRunID(t *testing.T) {
	opener := mocks.NewSourceOpener()
	opener.Sources["a.mp4"] = mocks.NewStreamSource(0, 2, 0)

	config := DefaultConfig()
	config.RunID = "fixed"
	config.Sequential = true
	result, err := newOrchestrator(videoStreams("a.mp4"), opener, mocks.NewBatchSink()).Run(context.Background(), config)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RunID != "fixed" || result.Mode != ModeSequential {
		t.Errorf("unexpected run id %q or mode %q", result.RunID, result.Mode)
	}
}

func TestOrchestrator_Run_ExcludesFailedStream(t *testing.T) {
	opener := mocks.NewSourceOpener()
	opener.Sources["a.mp4"] = mocks.NewStreamSource(0, 4, 30)
	opener.Errors["b.mp4"] = errors.New("corrupt header")
	opener.Sources["c.mp4"] = mocks.NewStreamSource(2, 5, 30)
	sink := mocks.NewBatchSink()

	result, err := newOrchestrator(videoStreams("a.mp4", "b.mp4", "c.mp4"), opener, sink).Run(context.Background(), DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.OpenErrors == nil {
		t.Error("expected aggregated open errors")
	}
	if len(result.Excluded) != 1 || result.Excluded[0].ID != 1 {
		t.Errorf("expected stream 1 excluded, got %+v", result.Excluded)
	}
	if result.Batches != 4 {
		t.Errorf("expected 4 batches, got %d", result.Batches)
	}
	for _, b := range sink.Batches {
		if _, ok := b.Frames[1]; ok || len(b.Frames) != 2 {
			t.Errorf("batch %d should carry streams 0 and 2 only", b.Index)
		}
	}
}

func TestOrchestrator_Run_DiscoverError(t *testing.T) {
	orch := New(
		&mockDiscoverStage{err: discovery.ErrSourceUnavailable},
		nil,
		nil,
		nil,
		logger.NewNoop(),
	)

	_, err := orch.Run(context.Background(), DefaultConfig())
	if !errors.Is(err, discovery.ErrSourceUnavailable) {
		t.Errorf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestOrchestrator_Run_AllStreamsFail(t *testing.T) {
	opener := mocks.NewSourceOpener()
	opener.Errors["a.mp4"] = errors.New("unreadable")
	sink := mocks.NewBatchSink()

	result, err := newOrchestrator(videoStreams("a.mp4"), opener, sink).Run(context.Background(), DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Batches != 0 || sink.Count() != 0 {
		t.Errorf("expected no batches, got %d", result.Batches)
	}
}

func TestOrchestrator_Run_PersistError(t *testing.T) {
	sources := []*mocks.StreamSource{
		mocks.NewStreamSource(0, 100, 30),
		mocks.NewStreamSource(1, 100, 30),
	}
	opener := mocks.NewSourceOpener()
	opener.Sources["a.mp4"] = sources[0]
	opener.Sources["b.mp4"] = sources[1]

	boom := errors.New("disk full")
	sink := mocks.NewBatchSink()
	sink.WriteBatchFunc = func(index int, _ float64, _ map[int]image.Image) (int, error) {
		if index == 2 {
			return 0, boom
		}
		return 2, nil
	}

	result, err := newOrchestrator(videoStreams("a.mp4", "b.mp4"), opener, sink).Run(context.Background(), DefaultConfig())
	if !errors.Is(err, boom) {
		t.Fatalf("expected sink error, got %v", err)
	}
	if result.Batches != 2 {
		t.Errorf("expected 2 persisted batches, got %d", result.Batches)
	}
	for i, src := range sources {
		if src.Closes() != 1 {
			t.Errorf("source %d closed %d times", i, src.Closes())
		}
	}
}
