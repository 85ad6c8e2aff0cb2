// Package orchestrator coordinates all pipeline stages.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/user/camsync/pkg/framesync"
	"github.com/user/camsync/pkg/pipeline"
	"github.com/user/camsync/pkg/ports"
)

// Mode selects the synchronization strategy.
type Mode string

const (
	// ModeConcurrent runs one reader per stream behind the synchronizer.
	ModeConcurrent Mode = "concurrent"
	// ModeSequential reads the streams in lock step from one goroutine.
	ModeSequential Mode = "sequential"
)

// Config contains all configuration for the orchestrator.
type Config struct {
	// RunID tags logs, the catalog and the summary. Generated when empty.
	RunID string

	// Input
	Input pipeline.DiscoverInput

	// Synchronization
	Sequential bool
	Realtime   bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Input: pipeline.DefaultDiscoverInput(),
	}
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Orchestrator coordinates the execution of all pipeline stages.
type Orchestrator struct {
	discoverStage pipeline.Stage[pipeline.DiscoverInput, pipeline.DiscoverResult]
	openStage     pipeline.Stage[pipeline.OpenInput, pipeline.OpenResult]
	persistStage  pipeline.Stage[pipeline.PersistInput, pipeline.PersistResult]
	observer      framesync.Observer
	logger        ports.Logger
}

// New creates a new Orchestrator. observer may be nil.
func New(
	discoverStage pipeline.Stage[pipeline.DiscoverInput, pipeline.DiscoverResult],
	openStage pipeline.Stage[pipeline.OpenInput, pipeline.OpenResult],
	persistStage pipeline.Stage[pipeline.PersistInput, pipeline.PersistResult],
	observer framesync.Observer,
	logger ports.Logger,
) *Orchestrator {
	return &Orchestrator{
		discoverStage: discoverStage,
		openStage:     openStage,
		persistStage:  persistStage,
		observer:      observer,
		logger:        logger,
	}
}

// Run discovers and opens the streams, synchronizes them and persists every
// batch. Streams that fail to open are excluded and reported in the result.
func (o *Orchestrator) Run(ctx context.Context, config Config) (RunResult, error) {
	started := time.Now()
	result := RunResult{
		RunID:  config.RunID,
		Mode:   ModeConcurrent,
		Cutoff: -1,
	}
	if result.RunID == "" {
		result.RunID = NewRunID()
	}
	if config.Sequential {
		result.Mode = ModeSequential
	}
	o.logger.Info("Starting run %s", result.RunID)

	// 1. Discover streams
	discovered, err := o.discoverStage.Execute(ctx, config.Input)
	if err != nil {
		o.logger.Error("Failed to discover streams: %v", err)
		return result, fmt.Errorf("discover stage: %w", err)
	}
	o.logger.Info("Found %d streams in %s", len(discovered.Streams), config.Input.Root)

	// 2. Open sources
	opened, err := o.openStage.Execute(ctx, pipeline.OpenInput{Streams: discovered.Streams})
	if err != nil {
		o.logger.Error("Failed to open streams: %v", err)
		return result, fmt.Errorf("open stage: %w", err)
	}
	result.Excluded = opened.Excluded
	result.OpenErrors = opened.Err
	if len(opened.Excluded) > 0 {
		o.logger.Warn("%d of %d streams excluded", len(opened.Excluded), len(discovered.Streams))
	}

	// 3. Synchronize
	streams := make([]framesync.Stream, len(opened.Opened))
	for i, s := range opened.Opened {
		streams[i] = framesync.Stream{ID: s.Descriptor.ID, Source: s.Source}
	}
	start := framesync.Start
	if config.Sequential {
		start = framesync.ExtractSequential
	}
	o.logger.Info("Synchronizing %d streams (%s)", len(streams), result.Mode)
	engine, err := start(ctx, streams, framesync.Options{
		Logger:   o.logger,
		Observer: o.observer,
		Realtime: config.Realtime,
	})
	if err != nil {
		closeAll(opened.Opened)
		o.logger.Error("Failed to start synchronization: %v", err)
		return result, fmt.Errorf("synchronize: %w", err)
	}

	// 4. Persist batches
	persisted, persistErr := o.persistStage.Execute(ctx, pipeline.PersistInput{
		Batches:     engine,
		StreamCount: len(streams),
	})
	if persistErr != nil {
		engine.Stop()
		for {
			if _, ok := engine.Pop(); !ok {
				break
			}
		}
	}
	stats := engine.Wait()

	result.Batches = persisted.BatchCount
	result.Images = persisted.ImageCount
	result.Cutoff = stats.Cutoff
	result.Received = stats.Received
	result.Discarded = stats.Discarded
	result.ReferenceFPS = stats.ReferenceFPS
	result.Interrupted = ctx.Err() != nil
	for _, s := range opened.Opened {
		result.Streams = append(result.Streams, StreamResult{
			StreamDescriptor: s.Descriptor,
			Frames:           stats.EndIndex[s.Descriptor.ID],
		})
	}
	result.Duration = time.Since(started)

	if persistErr != nil {
		o.logger.Error("Failed to persist batches: %v", persistErr)
		return result, fmt.Errorf("persist stage: %w", persistErr)
	}
	if result.Interrupted {
		o.logger.Warn("Interrupted, output truncated at batch %d", result.Batches)
	}
	o.logger.Info("Extracted %d batches, %d images", result.Batches, result.Images)
	return result, nil
}

func closeAll(opened []pipeline.OpenedStream) {
	for _, s := range opened {
		if s.Source != nil {
			s.Source.Close()
		}
	}
}

// StreamResult reports how many frames one stream delivered.
type StreamResult struct {
	pipeline.StreamDescriptor
	Frames int
}

// RunResult contains the results of a pipeline run for summary generation.
type RunResult struct {
	RunID string
	Mode  Mode

	// Streams
	Streams    []StreamResult
	Excluded   []pipeline.ExcludedStream
	OpenErrors error // aggregated open failures, nil when none

	// Output
	Batches int
	Images  int

	// Synchronization
	Cutoff       int // -1 when no stream terminated
	Received     int
	Discarded    int
	ReferenceFPS float64

	Duration    time.Duration
	Interrupted bool
}
