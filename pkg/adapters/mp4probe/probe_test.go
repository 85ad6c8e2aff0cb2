package mp4probe

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"
)

func TestFrameRate(t *testing.T) {
	tests := []struct {
		name      string
		timescale uint32
		counts    []uint32
		deltas    []uint32
		want      float64
	}{
		{"constant 30fps", 15360, []uint32{300}, []uint32{512}, 30},
		{"ntsc", 30000, []uint32{100}, []uint32{1001}, 29.97002997},
		{"mixed runs", 1000, []uint32{10, 10}, []uint32{40, 60}, 20},
		{"zero timescale", 0, []uint32{10}, []uint32{1}, 0},
		{"mismatched table", 1000, []uint32{10}, nil, 0},
		{"no samples", 1000, nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := frameRate(tt.timescale, tt.counts, tt.deltas)
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("frameRate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProbe_InvalidData(t *testing.T) {
	_, err := Probe(bytes.NewReader([]byte("not an mp4 file at all")))
	if err == nil {
		t.Fatal("expected error for invalid data")
	}
}

func TestProbeFile_Missing(t *testing.T) {
	_, err := ProbeFile(filepath.Join(t.TempDir(), "missing.mp4"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
