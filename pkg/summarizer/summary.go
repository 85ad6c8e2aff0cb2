// Package summarizer renders a human-readable report of a synchronization run.
package summarizer

import (
	"sort"
	"time"
)

// Summary contains everything reported about one run.
type Summary struct {
	// Metadata
	GeneratedAt time.Time

	Run     RunInfo
	Streams []StreamInfo
	Sync    SyncInfo
	Output  OutputInfo
}

// RunInfo identifies the run.
type RunInfo struct {
	ID       string
	Input    string
	Output   string
	Mode     string // "parallel" or "sequential"
	Duration time.Duration
}

// StreamInfo describes one discovered stream.
type StreamInfo struct {
	ID      int
	Locator string
	Kind    string
	// Frames is how many frames the stream delivered before it ended.
	Frames int
	// Excluded streams failed to open; Error holds the reason.
	Excluded bool
	Error    string
}

// SyncInfo contains the synchronizer counters.
type SyncInfo struct {
	Batches      int
	Cutoff       int // -1 when no stream ended
	Received     int
	Discarded    int
	ReferenceFPS float64
}

// OutputInfo describes what was written.
type OutputInfo struct {
	Images  int
	Mosaic  bool
	Catalog string
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
		Sync:        SyncInfo{Cutoff: -1},
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithRun sets run information.
func (b *Builder) WithRun(run RunInfo) *Builder {
	b.summary.Run = run
	return b
}

// AddStream records a stream that took part in the run.
func (b *Builder) AddStream(id int, locator, kind string, frames int) *Builder {
	b.summary.Streams = append(b.summary.Streams, StreamInfo{
		ID:      id,
		Locator: locator,
		Kind:    kind,
		Frames:  frames,
	})
	return b
}

// AddExcluded records a stream that could not be opened.
func (b *Builder) AddExcluded(id int, locator, kind, reason string) *Builder {
	b.summary.Streams = append(b.summary.Streams, StreamInfo{
		ID:       id,
		Locator:  locator,
		Kind:     kind,
		Excluded: true,
		Error:    reason,
	})
	return b
}

// WithSync sets synchronizer counters.
func (b *Builder) WithSync(sync SyncInfo) *Builder {
	b.summary.Sync = sync
	return b
}

// WithOutput sets output information.
func (b *Builder) WithOutput(output OutputInfo) *Builder {
	b.summary.Output = output
	return b
}

// Build returns the Summary with streams ordered by ID.
func (b *Builder) Build() *Summary {
	sort.SliceStable(b.summary.Streams, func(i, j int) bool {
		return b.summary.Streams[i].ID < b.summary.Streams[j].ID
	})
	return b.summary
}
