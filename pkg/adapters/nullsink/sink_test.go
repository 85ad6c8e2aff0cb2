package nullsink

import (
	"image"
	"testing"
)

func TestSink_Counts(t *testing.T) {
	s := New()
	frames := map[int]image.Image{0: image.NewGray(image.Rect(0, 0, 1, 1)), 1: image.NewGray(image.Rect(0, 0, 1, 1))}

	for i := 0; i < 3; i++ {
		n, err := s.WriteBatch(i, 0, frames)
		if err != nil || n != 0 {
			t.Fatalf("WriteBatch() = %d, %v", n, err)
		}
	}
	if s.Batches() != 3 || s.Frames() != 6 {
		t.Errorf("got %d batches, %d frames", s.Batches(), s.Frames())
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}
