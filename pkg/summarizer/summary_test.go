package summarizer

import (
	"errors"
	"testing"
	"time"

	"github.com/user/camsync/pkg/mocks"
)

func TestNewSummary(t *testing.T) {
	before := time.Now()
	summary := NewSummary()
	after := time.Now()

	if summary.GeneratedAt.Before(before) || summary.GeneratedAt.After(after) {
		t.Errorf("GeneratedAt should be between %v and %v, got %v",
			before, after, summary.GeneratedAt)
	}
	if summary.Sync.Cutoff != -1 {
		t.Errorf("expected unset cutoff, got %d", summary.Sync.Cutoff)
	}
}

func TestBuilder_SortsStreams(t *testing.T) {
	summary := NewBuilder().
		AddStream(2, "cam_2/a.mp4", "video", 12).
		AddExcluded(1, "cam_1/b.mp4", "video", "no such file").
		AddStream(0, "cam_0/c.mp4", "video", 10).
		Build()

	if len(summary.Streams) != 3 {
		t.Fatalf("expected 3 streams, got %d", len(summary.Streams))
	}
	for i, s := range summary.Streams {
		if s.ID != i {
			t.Errorf("stream %d has ID %d", i, s.ID)
		}
	}
	if !summary.Streams[1].Excluded || summary.Streams[1].Error != "no such file" {
		t.Errorf("expected stream 1 to be excluded, got %+v", summary.Streams[1])
	}
}

func TestBuilder_WithSyncAndOutput(t *testing.T) {
	summary := NewBuilder().
		WithRun(RunInfo{ID: "r1", Mode: "parallel", Duration: 2 * time.Second}).
		WithSync(SyncInfo{Batches: 7, Cutoff: 7, Received: 29, Discarded: 8, ReferenceFPS: 30}).
		WithOutput(OutputInfo{Images: 21, Mosaic: true}).
		Build()

	if summary.Run.ID != "r1" || summary.Sync.Batches != 7 || summary.Output.Images != 21 {
		t.Errorf("unexpected summary %+v", summary)
	}
}

func TestWriter_Write(t *testing.T) {
	fs := mocks.NewFileSystem()
	w := NewWriter(FormatFunc(func(s *Summary) string { return "batches: 3" }), fs)

	if err := w.Write("out/summary.md", NewSummary()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, ok := fs.GetFile("out/summary.md")
	if !ok || string(data) != "batches: 3" {
		t.Errorf("unexpected file content %q", data)
	}
}

func TestWriter_WriteError(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.WriteFileFunc = func(path string, data []byte) error { return errors.New("read-only") }

	if err := NewWriter(NewMarkdownFormatter(), fs).Write("summary.md", NewSummary()); err == nil {
		t.Error("expected error")
	}
}
