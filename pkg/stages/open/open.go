// Package open implements the stage that opens a source for every discovered
// stream.
package open

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/user/camsync/pkg/pipeline"
	"github.com/user/camsync/pkg/ports"
)

// Stage opens sources concurrently. A stream that fails to open is excluded
// from the run; the others go ahead.
type Stage struct {
	openers    map[pipeline.SourceKind]ports.SourceOpener
	logger     ports.Logger
	numWorkers int
}

// NewStage creates an open stage. openers maps each source kind to the
// backend that decodes it.
func NewStage(openers map[pipeline.SourceKind]ports.SourceOpener, logger ports.Logger, numWorkers int) *Stage {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &Stage{
		openers:    openers,
		logger:     logger.WithComponent("open"),
		numWorkers: numWorkers,
	}
}

type opened struct {
	source ports.StreamSource
	err    error
}

// Execute opens every stream. The returned error is only non-nil when ctx is
// cancelled; per-stream failures are reported in the result.
func (s *Stage) Execute(ctx context.Context, input pipeline.OpenInput) (pipeline.OpenResult, error) {
	results := make([]opened, len(input.Streams))
	jobs := make(chan int, len(input.Streams))
	for i := range input.Streams {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < s.numWorkers && w < len(input.Streams); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				src, err := s.open(ctx, input.Streams[i])
				results[i] = opened{source: src, err: err}
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		for _, r := range results {
			if r.source != nil {
				r.source.Close()
			}
		}
		return pipeline.OpenResult{}, err
	}

	var result pipeline.OpenResult
	var errs *multierror.Error
	for i, r := range results {
		desc := input.Streams[i]
		if r.err != nil {
			s.logger.Warn("Stream %d excluded: %v", desc.ID, r.err)
			result.Excluded = append(result.Excluded, pipeline.ExcludedStream{StreamDescriptor: desc, Err: r.err})
			errs = multierror.Append(errs, fmt.Errorf("stream %d (%s): %w", desc.ID, desc.Locator, r.err))
			continue
		}
		s.logger.Debug("Stream %d opened (%.2f fps)", desc.ID, r.source.FrameRate())
		result.Opened = append(result.Opened, pipeline.OpenedStream{Descriptor: desc, Source: r.source})
	}
	result.Err = errs.ErrorOrNil()
	return result, nil
}

func (s *Stage) open(ctx context.Context, desc pipeline.StreamDescriptor) (ports.StreamSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opener, ok := s.openers[desc.Kind]
	if !ok {
		return nil, fmt.Errorf("no decoder for %q sources", desc.Kind)
	}
	src, err := opener.Open(ctx, desc.Locator)
	if err != nil {
		return nil, err
	}
	if src == nil {
		return nil, fmt.Errorf("decoder returned no source")
	}
	return src, nil
}
