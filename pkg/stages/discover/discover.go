// Package discover implements the stream discovery stage.
package discover

import (
	"context"
	"io/fs"

	"github.com/user/camsync/pkg/discovery"
	"github.com/user/camsync/pkg/pipeline"
	"github.com/user/camsync/pkg/ports"
)

// Stage lists the camera streams under the input root.
type Stage struct {
	fsys   fs.FS // nil walks the local filesystem at input.Root
	logger ports.Logger
}

// NewStage creates a discovery stage on the local filesystem.
func NewStage(logger ports.Logger) *Stage {
	return &Stage{logger: logger.WithComponent("discover")}
}

// NewStageFS creates a discovery stage over fsys, which must be rooted at the
// input root.
func NewStageFS(fsys fs.FS, logger ports.Logger) *Stage {
	return &Stage{fsys: fsys, logger: logger.WithComponent("discover")}
}

// Execute walks the input and returns the streams ordered by ID.
func (s *Stage) Execute(ctx context.Context, input pipeline.DiscoverInput) (pipeline.DiscoverResult, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.DiscoverResult{}, err
	}

	var (
		result pipeline.DiscoverResult
		err    error
	)
	if s.fsys != nil {
		result, err = discovery.Discover(s.fsys, input)
	} else {
		result, err = discovery.Dir(input)
	}
	if err != nil {
		return pipeline.DiscoverResult{}, err
	}

	for _, st := range result.Streams {
		s.logger.Debug("Stream %d: %s (%s)", st.ID, st.Locator, st.Kind)
	}
	return result, nil
}
