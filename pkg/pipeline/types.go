package pipeline

import (
	"image"

	"github.com/user/camsync/pkg/ports"
)

// =============================================================================
// Synchronization Types
// =============================================================================

// FramePacket carries one decoded frame, or the end marker, from a reader to
// the synchronizer.
type FramePacket struct {
	StreamID int
	// Index is the frame's 0-based decode position within its stream. On the
	// terminal packet it is the number of frames the stream delivered.
	Index       int
	Frame       image.Image // nil on the terminal packet
	EndOfStream bool
}

// FrameBatch holds one frame from every stream at the same decode position.
type FrameBatch struct {
	Index     int
	Timestamp float64 // seconds, Index / reference frame rate
	Frames    map[int]image.Image
}

// =============================================================================
// Discovery Types
// =============================================================================

// SourceKind identifies which backend decodes a stream.
type SourceKind string

const (
	// KindVideo is a container file decoded by ffmpeg.
	KindVideo SourceKind = "video"
	// KindImageSequence is a directory of still images, one per frame.
	KindImageSequence SourceKind = "images"
)

// StreamDescriptor is one discovered camera stream.
type StreamDescriptor struct {
	ID      int
	Locator string
	Kind    SourceKind
}

// DiscoverInput contains parameters for stream discovery.
type DiscoverInput struct {
	Root           string
	Extensions     []string // Video file extensions, including the dot
	ImageSequences bool     // Also treat cam_<n> image directories as streams
}

// DefaultDiscoverInput returns DiscoverInput with default values.
func DefaultDiscoverInput() DiscoverInput {
	return DiscoverInput{
		Extensions: []string{".mp4", ".avi", ".mov"},
	}
}

// DiscoverResult lists the discovered streams ordered by ID.
type DiscoverResult struct {
	Streams []StreamDescriptor
}

// =============================================================================
// Open Stage Types
// =============================================================================

// OpenInput lists the streams to open.
type OpenInput struct {
	Streams []StreamDescriptor
}

// OpenedStream is a stream whose source opened successfully.
type OpenedStream struct {
	Descriptor StreamDescriptor
	Source     ports.StreamSource
}

// ExcludedStream is a stream dropped from the run because its source failed
// to open.
type ExcludedStream struct {
	StreamDescriptor
	Err error
}

// OpenResult contains the usable streams and the ones excluded because their
// source failed to open.
type OpenResult struct {
	Opened   []OpenedStream
	Excluded []ExcludedStream
	// Err aggregates every open failure; nil when all streams opened.
	Err error
}

// =============================================================================
// Persist Stage Types
// =============================================================================

// BatchSource yields batches until it reports end.
type BatchSource interface {
	Pop() (FrameBatch, bool)
}

// PersistInput contains the batch source to drain.
type PersistInput struct {
	Batches BatchSource
	// StreamCount is the number of streams each batch is expected to carry.
	StreamCount int
}

// PersistResult contains counters gathered while draining.
type PersistResult struct {
	BatchCount int
	ImageCount int
}
