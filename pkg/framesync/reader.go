package framesync

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/time/rate"

	"github.com/user/camsync/pkg/pipeline"
	"github.com/user/camsync/pkg/ports"
	"github.com/user/camsync/pkg/queue"
)

// errNilFrame is reported when a source returns neither a frame nor an error.
var errNilFrame = errors.New("framesync: source returned a nil frame")

// reader pulls frames from one source and forwards them as packets.
type reader struct {
	id      int
	source  ports.StreamSource
	out     *queue.Channel[pipeline.FramePacket]
	limiter *rate.Limiter // nil unless pacing to the source frame rate
	logger  ports.Logger
}

func newReader(s Stream, out *queue.Channel[pipeline.FramePacket], realtime bool, logger ports.Logger) *reader {
	r := &reader{
		id:     s.ID,
		source: s.Source,
		out:    out,
		logger: logger,
	}
	if realtime {
		if fps := s.Source.FrameRate(); fps > 0 {
			r.limiter = rate.NewLimiter(rate.Limit(fps), 1)
		}
	}
	return r
}

// run reads until the source ends, fails, or ctx is cancelled, then closes
// the source and pushes exactly one terminal packet.
func (r *reader) run(ctx context.Context) {
	delivered := 0
	defer func() {
		if err := r.source.Close(); err != nil {
			r.logger.Debug("Stream %d: close source: %v", r.id, err)
		}
		r.out.Push(pipeline.FramePacket{
			StreamID:    r.id,
			Index:       delivered,
			EndOfStream: true,
		})
	}()

	err := r.loop(ctx, &delivered)
	switch {
	case err == nil, errors.Is(err, io.EOF):
		r.logger.Debug("Stream %d: end of input after %d frames", r.id, delivered)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		r.logger.Debug("Stream %d: stopped after %d frames", r.id, delivered)
	default:
		r.logger.Warn("Stream %d: decode stopped after %d frames: %v", r.id, delivered, err)
	}
}

func (r *reader) loop(ctx context.Context, delivered *int) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("framesync: source panicked: %v", p)
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		frame, err := r.source.ReadFrame()
		if err != nil {
			return err
		}
		if frame == nil {
			return errNilFrame
		}

		r.out.Push(pipeline.FramePacket{
			StreamID: r.id,
			Index:    *delivered,
			Frame:    frame,
		})
		*delivered++
	}
}
