// Package ffmpegsource decodes video files into frames by running ffmpeg and
// reading a PNG image stream from its stdout.
package ffmpegsource

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/user/camsync/pkg/adapters/mp4probe"
	"github.com/user/camsync/pkg/ports"
)

// ErrNoFrames is returned by Open when the decoder exits without producing a
// frame.
var ErrNoFrames = errors.New("ffmpegsource: no decodable video frames")

// Opener starts one ffmpeg process per stream.
type Opener struct {
	ffmpegPath string
	logger     ports.Logger
}

// NewOpener creates an opener. An empty ffmpegPath searches the usual places.
func NewOpener(ffmpegPath string, logger ports.Logger) *Opener {
	return &Opener{
		ffmpegPath: ffmpegPath,
		logger:     logger.WithComponent("ffmpeg"),
	}
}

// Open validates locator and starts decoding it. It returns once the first
// frame is available, so unreadable files fail here rather than as empty
// streams.
func (o *Opener) Open(ctx context.Context, locator string) (ports.StreamSource, error) {
	info, err := os.Stat(locator)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", locator, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("open %s: is a directory", locator)
	}

	ffmpeg, err := FindFFmpeg(o.ffmpegPath)
	if err != nil {
		return nil, err
	}

	fps, err := o.probeFrameRate(locator)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", locator, err)
	}

	cmd := exec.CommandContext(ctx, ffmpeg,
		"-nostdin",
		"-v", "error",
		"-i", locator,
		"-an",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}
	o.logger.Debug("Decoding %s (%.2f fps)", locator, fps)

	s := newSource(stdout, fps)
	s.wait = func() error {
		if err := cmd.Wait(); err != nil {
			return fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return nil
	}
	s.kill = func() {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
	}

	if err := s.awaitFirstFrame(); err != nil {
		return nil, fmt.Errorf("open %s: %w", locator, err)
	}
	return s, nil
}

// probeFrameRate reads the frame rate of MP4 family containers. Other
// containers report 0. A container that cannot be parsed is an error.
func (o *Opener) probeFrameRate(locator string) (float64, error) {
	switch strings.ToLower(filepath.Ext(locator)) {
	case ".mp4", ".mov", ".m4v":
	default:
		return 0, nil
	}
	info, err := mp4probe.ProbeFile(locator)
	if err != nil {
		return 0, fmt.Errorf("probe container: %w", err)
	}
	return info.FrameRate, nil
}

// Source reads consecutive PNG images from a decoder pipe.
type Source struct {
	frames *bufio.Reader
	fps    float64

	wait func() error
	kill func()

	once     sync.Once
	closeErr error
	done     bool
}

func newSource(r io.Reader, fps float64) *Source {
	return &Source{
		frames: bufio.NewReaderSize(r, 1<<20),
		fps:    fps,
		wait:   func() error { return nil },
		kill:   func() {},
	}
}

// awaitFirstFrame blocks until the decoder has written something. On failure
// the decoder is stopped and reaped.
func (s *Source) awaitFirstFrame() error {
	_, err := s.frames.Peek(1)
	if err == nil {
		return nil
	}
	s.done = true
	if !errors.Is(err, io.EOF) {
		s.kill()
		s.finish()
		return err
	}
	if werr := s.finish(); werr != nil {
		return werr
	}
	return ErrNoFrames
}

// ReadFrame returns the next frame, or io.EOF once the decoder has finished.
func (s *Source) ReadFrame() (image.Image, error) {
	if s.done {
		return nil, io.EOF
	}
	if _, err := s.frames.Peek(1); err != nil {
		s.done = true
		if !errors.Is(err, io.EOF) {
			return nil, err
		}
		if err := s.finish(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}

	img, err := png.Decode(s.frames)
	if err != nil {
		s.done = true
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return img, nil
}

// FrameRate returns the container frame rate, or 0 when it could not be probed.
func (s *Source) FrameRate() float64 {
	return s.fps
}

// Close stops the decoder if it is still running.
func (s *Source) Close() error {
	if !s.done {
		s.kill()
	}
	s.finish()
	return nil
}

func (s *Source) finish() error {
	s.once.Do(func() {
		s.closeErr = s.wait()
	})
	return s.closeErr
}
