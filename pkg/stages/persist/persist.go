// Package persist implements the stage that drains synchronized batches into
// the configured sinks.
package persist

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/user/camsync/pkg/pipeline"
	"github.com/user/camsync/pkg/ports"
)

// progressBatches is how many leading batches are logged individually.
const progressBatches = 5

// Stage writes every batch to each sink in order and closes the sinks once the
// source is exhausted.
type Stage struct {
	sinks  []ports.BatchSink
	logger ports.Logger
}

// NewStage creates a persist stage.
func NewStage(sinks []ports.BatchSink, logger ports.Logger) *Stage {
	return &Stage{
		sinks:  sinks,
		logger: logger.WithComponent("persist"),
	}
}

// Execute pops batches until the source reports end. Cancellation is left to
// the source, which closes once its producers stop. A sink failure stops the
// stage; the caller is responsible for stopping and draining the source.
func (s *Stage) Execute(_ context.Context, input pipeline.PersistInput) (result pipeline.PersistResult, err error) {
	defer func() {
		if cerr := s.close(); cerr != nil {
			err = multierror.Append(err, cerr).ErrorOrNil()
		}
	}()

	for {
		batch, ok := input.Batches.Pop()
		if !ok {
			break
		}
		if input.StreamCount > 0 && len(batch.Frames) != input.StreamCount {
			s.logger.Warn("Batch %d has %d of %d cameras", batch.Index, len(batch.Frames), input.StreamCount)
		}
		if result.BatchCount < progressBatches {
			s.logger.Info("Batch %d: %d cameras", batch.Index, len(batch.Frames))
		}

		for _, sink := range s.sinks {
			n, err := sink.WriteBatch(batch.Index, batch.Timestamp, batch.Frames)
			if err != nil {
				return result, fmt.Errorf("write batch %d: %w", batch.Index, err)
			}
			result.ImageCount += n
		}
		result.BatchCount++
	}

	s.logger.Debug("Drained %d batches, %d images", result.BatchCount, result.ImageCount)
	return result, nil
}

func (s *Stage) close() error {
	var errs *multierror.Error
	for _, sink := range s.sinks {
		if err := sink.Close(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("close sink: %w", err))
		}
	}
	return errs.ErrorOrNil()
}
