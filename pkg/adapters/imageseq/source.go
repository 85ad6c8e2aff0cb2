// Package imageseq serves a directory of still images as a stream, one image
// per frame in file name order.
package imageseq

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"
	"sort"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/user/camsync/pkg/discovery"
	"github.com/user/camsync/pkg/ports"
)

// DefaultFrameRate is reported for sequences, which carry no timing.
const DefaultFrameRate = 0.0

// Opener opens image-sequence directories through a FileSystem.
type Opener struct {
	fs  ports.FileSystem
	fps float64
}

// NewOpener creates an opener that reports fps for every sequence.
func NewOpener(fs ports.FileSystem, fps float64) *Opener {
	return &Opener{fs: fs, fps: fps}
}

// Open lists the images in dir. An empty directory is an open failure.
func (o *Opener) Open(ctx context.Context, dir string) (ports.StreamSource, error) {
	names, err := o.fs.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var files []string
	for _, name := range names {
		if discovery.IsImage(name) {
			files = append(files, filepath.Join(dir, name))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: no images", dir)
	}
	sort.Strings(files)

	return &Source{fs: o.fs, files: files, fps: o.fps}, nil
}

// Source decodes one file per ReadFrame.
type Source struct {
	fs    ports.FileSystem
	files []string
	next  int
	fps   float64
}

func (s *Source) ReadFrame() (image.Image, error) {
	if s.next >= len(s.files) {
		return nil, io.EOF
	}
	path := s.files[s.next]
	s.next++

	f, err := s.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

func (s *Source) FrameRate() float64 {
	return s.fps
}

func (s *Source) Close() error {
	s.next = len(s.files)
	return nil
}
