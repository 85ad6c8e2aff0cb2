package framesync

// Observer receives engine events. Calls come from the engine's synchronizer
// goroutine; an Observer shared across engines must be goroutine-safe.
type Observer interface {
	// PacketReceived is called for every frame packet the synchronizer pops.
	PacketReceived(streamID int)
	// PacketDiscarded is called for every frame dropped at or beyond the cutoff.
	PacketDiscarded(streamID, index int)
	// BatchEmitted is called after a batch is pushed to the output.
	BatchEmitted(index int, timestamp float64)
	// StreamEnded is called once per stream with the number of frames it delivered.
	StreamEnded(streamID, frames int)
}

// NopObserver ignores all events.
type NopObserver struct{}

func (NopObserver) PacketReceived(int) {}

func (NopObserver) PacketDiscarded(int, int) {}

func (NopObserver) BatchEmitted(int, float64) {}

func (NopObserver) StreamEnded(int, int) {}

var _ Observer = NopObserver{}
