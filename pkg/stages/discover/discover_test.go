package discover

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/user/camsync/pkg/adapters/logger"
	"github.com/user/camsync/pkg/discovery"
	"github.com/user/camsync/pkg/pipeline"
)

func TestStage_Execute(t *testing.T) {
	fsys := fstest.MapFS{
		"cam_1/v.mp4": {},
		"cam_0/v.mp4": {},
	}
	stage := NewStageFS(fsys, logger.NewNoop())

	in := pipeline.DefaultDiscoverInput()
	in.Root = "videos"
	result, err := stage.Execute(context.Background(), in)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(result.Streams) != 2 || result.Streams[0].ID != 0 || result.Streams[1].ID != 1 {
		t.Errorf("unexpected streams %+v", result.Streams)
	}
}

func TestStage_MissingRoot(t *testing.T) {
	in := pipeline.DefaultDiscoverInput()
	in.Root = t.TempDir() + "/missing"

	_, err := NewStage(logger.NewNoop()).Execute(context.Background(), in)
	if !errors.Is(err, discovery.ErrSourceUnavailable) {
		t.Errorf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestStage_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStageFS(fstest.MapFS{}, logger.NewNoop()).Execute(ctx, pipeline.DefaultDiscoverInput())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
