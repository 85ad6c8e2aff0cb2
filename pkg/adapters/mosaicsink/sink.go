// Package mosaicsink tiles every batch into one labelled image, giving a
// contact sheet of all cameras at the same decode position.
package mosaicsink

import (
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"sort"

	"github.com/user/camsync/pkg/ports"
)

const labelHeight = 18

// Options controls the mosaic layout.
type Options struct {
	Columns   int // 0 picks a near-square grid
	TileWidth int // width of one camera tile in pixels
	Quality   int // JPEG quality
}

// DefaultOptions returns Options with default values.
func DefaultOptions() Options {
	return Options{TileWidth: 320, Quality: 85}
}

// Sink writes mosaic_<index>.jpg per batch.
type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	renderer ports.Renderer
	opts     Options
}

// New creates a new Sink.
func New(baseDir string, fs ports.FileSystem, renderer ports.Renderer, opts Options) *Sink {
	if opts.TileWidth <= 0 {
		opts.TileWidth = DefaultOptions().TileWidth
	}
	return &Sink{
		baseDir:  baseDir,
		fs:       fs,
		renderer: renderer,
		opts:     opts,
	}
}

// Path returns the mosaic file of batch index.
func Path(baseDir string, index int) string {
	return filepath.Join(baseDir, fmt.Sprintf("mosaic_%06d.jpg", index))
}

// Grid returns the column and row count for n tiles.
func Grid(n, columns int) (int, int) {
	if n <= 0 {
		return 0, 0
	}
	if columns <= 0 {
		columns = 1
		for columns*columns < n {
			columns++
		}
	}
	if columns > n {
		columns = n
	}
	rows := (n + columns - 1) / columns
	return columns, rows
}

// WriteBatch renders and saves one mosaic. It returns 1 on success.
func (s *Sink) WriteBatch(index int, timestamp float64, frames map[int]image.Image) (int, error) {
	if len(frames) == 0 {
		return 0, nil
	}

	ids := make([]int, 0, len(frames))
	for id := range frames {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	// Tiles share the aspect ratio of the lowest camera id.
	first := frames[ids[0]].Bounds()
	tileW := s.opts.TileWidth
	tileH := tileW * 9 / 16
	if first.Dx() > 0 {
		tileH = tileW * first.Dy() / first.Dx()
	}
	if tileH < 1 {
		tileH = 1
	}

	cols, rows := Grid(len(ids), s.opts.Columns)
	cellH := tileH + labelHeight
	canvas := s.renderer.CreateCanvas(cols*tileW, rows*cellH, color.Black)

	label := ports.TextStyle{FontSize: 12, Color: color.White, Align: ports.AlignLeft}
	for i, id := range ids {
		x := (i % cols) * tileW
		y := (i / cols) * cellH
		canvas.DrawImageScaled(frames[id], x, y+labelHeight, tileW, tileH)
		canvas.DrawRect(x, y, tileW, labelHeight, color.RGBA{R: 32, G: 32, B: 32, A: 255})
		canvas.DrawText(fmt.Sprintf("cam %d  #%d  %.3fs", id, index, timestamp), x+4, y+labelHeight/2, label)
	}

	data, err := s.renderer.EncodeImage(canvas.ToImage(), ports.FormatJPEG, s.opts.Quality)
	if err != nil {
		return 0, fmt.Errorf("encode mosaic %d: %w", index, err)
	}
	if err := s.fs.WriteFile(Path(s.baseDir, index), data); err != nil {
		return 0, fmt.Errorf("write mosaic %d: %w", index, err)
	}
	return 1, nil
}

// Close does nothing.
func (s *Sink) Close() error {
	return nil
}

var _ ports.BatchSink = (*Sink)(nil)
