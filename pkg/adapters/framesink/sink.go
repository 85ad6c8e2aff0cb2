// Package framesink writes every frame of a batch as an image file.
//
// Layout: <base>/frame_<index>/cam_<id>.<ext>, index zero-padded to 6 digits.
package framesink

import (
	"fmt"
	"image"
	"path/filepath"
	"sort"

	"github.com/user/camsync/pkg/adapters/ggrenderer"
	"github.com/user/camsync/pkg/ports"
)

// Options controls how frames are encoded.
type Options struct {
	Format  ports.ImageFormat
	Quality int // JPEG only
	// MaxWidth scales wider frames down, keeping the aspect ratio. 0 keeps the
	// original size.
	MaxWidth int
}

// Sink saves batches as image files.
type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	renderer ports.Renderer
	opts     Options
}

// New creates a new Sink.
func New(baseDir string, fs ports.FileSystem, renderer ports.Renderer, opts Options) *Sink {
	return &Sink{
		baseDir:  baseDir,
		fs:       fs,
		renderer: renderer,
		opts:     opts,
	}
}

// BatchDir returns the directory holding batch index.
func BatchDir(baseDir string, index int) string {
	return filepath.Join(baseDir, fmt.Sprintf("frame_%06d", index))
}

// FramePath returns where the frame of stream id in batch index is written.
func FramePath(baseDir string, index, id int, format ports.ImageFormat) string {
	return filepath.Join(BatchDir(baseDir, index), fmt.Sprintf("cam_%d%s", id, format.Extension()))
}

// WriteBatch encodes every frame of the batch. It returns the number of files
// written.
func (s *Sink) WriteBatch(index int, _ float64, frames map[int]image.Image) (int, error) {
	if err := s.fs.MkdirAll(BatchDir(s.baseDir, index)); err != nil {
		return 0, fmt.Errorf("create batch dir: %w", err)
	}

	ids := make([]int, 0, len(frames))
	for id := range frames {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	saved := 0
	for _, id := range ids {
		img := frames[id]
		if w, h := ggrenderer.FitWidth(img.Bounds(), s.opts.MaxWidth); w != img.Bounds().Dx() {
			img = s.renderer.ResizeImage(img, w, h)
		}

		data, err := s.renderer.EncodeImage(img, s.opts.Format, s.opts.Quality)
		if err != nil {
			return saved, fmt.Errorf("encode batch %d cam %d: %w", index, id, err)
		}
		if err := s.fs.WriteFile(FramePath(s.baseDir, index, id, s.opts.Format), data); err != nil {
			return saved, fmt.Errorf("write batch %d cam %d: %w", index, id, err)
		}
		saved++
	}
	return saved, nil
}

// Close does nothing; every file is complete when WriteBatch returns.
func (s *Sink) Close() error {
	return nil
}

var _ ports.BatchSink = (*Sink)(nil)
