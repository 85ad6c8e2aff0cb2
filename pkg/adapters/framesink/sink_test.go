package framesink

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/user/camsync/pkg/adapters/ggrenderer"
	"github.com/user/camsync/pkg/mocks"
	"github.com/user/camsync/pkg/ports"
)

func frames(w, h int, ids ...int) map[int]image.Image {
	m := make(map[int]image.Image, len(ids))
	for _, id := range ids {
		m[id] = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	return m
}

func TestSink_WriteBatch(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New("out", fs, ggrenderer.New(), Options{Format: ports.FormatPNG})

	n, err := sink.WriteBatch(3, 0.1, frames(8, 6, 0, 2))
	if err != nil {
		t.Fatalf("WriteBatch failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 files, got %d", n)
	}

	for _, name := range []string{"cam_0.png", "cam_2.png"} {
		path := filepath.Join("out", "frame_000003", name)
		if _, ok := fs.GetFile(path); !ok {
			t.Errorf("expected %s to be written", path)
		}
	}
	if err := sink.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}

func TestSink_ScalesWideFrames(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New("out", fs, ggrenderer.New(), Options{Format: ports.FormatPNG, MaxWidth: 40})

	if _, err := sink.WriteBatch(0, 0, frames(80, 60, 1)); err != nil {
		t.Fatalf("WriteBatch failed: %v", err)
	}

	data, ok := fs.GetFile(FramePath("out", 0, 1, ports.FormatPNG))
	if !ok {
		t.Fatal("frame not written")
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 30 {
		t.Errorf("expected 40x30, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestSink_WriteError(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.WriteFileFunc = func(path string, data []byte) error {
		return errors.New("disk full")
	}
	sink := New("out", fs, ggrenderer.New(), Options{Format: ports.FormatJPEG, Quality: 80})

	n, err := sink.WriteBatch(0, 0, frames(4, 4, 0, 1))
	if err == nil {
		t.Fatal("expected error")
	}
	if n != 0 {
		t.Errorf("expected 0 files, got %d", n)
	}
}

func TestFramePath(t *testing.T) {
	got := FramePath("base", 12, 4, ports.FormatJPEG)
	want := filepath.Join("base", "frame_000012", "cam_4.jpg")
	if got != want {
		t.Errorf("FramePath() = %s, want %s", got, want)
	}
}
