package ggrenderer

import (
	"image"
	"image/color"
	"testing"

	"github.com/user/camsync/pkg/ports"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestRenderer_EncodeDecode(t *testing.T) {
	r := New()
	img := solid(40, 20, color.RGBA{R: 255, A: 255})

	for _, format := range []ports.ImageFormat{ports.FormatJPEG, ports.FormatPNG} {
		data, err := r.EncodeImage(img, format, 0)
		if err != nil {
			t.Fatalf("EncodeImage(%d) failed: %v", format, err)
		}
		decoded, err := r.DecodeImage(data, format)
		if err != nil {
			t.Fatalf("DecodeImage(%d) failed: %v", format, err)
		}
		if b := decoded.Bounds(); b.Dx() != 40 || b.Dy() != 20 {
			t.Errorf("format %d: expected 40x20, got %dx%d", format, b.Dx(), b.Dy())
		}
	}
}

func TestRenderer_EncodeUnsupported(t *testing.T) {
	if _, err := New().EncodeImage(solid(1, 1, color.Black), ports.ImageFormat(99), 0); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestRenderer_ResizeImage(t *testing.T) {
	resized := New().ResizeImage(solid(100, 50, color.White), 10, 5)
	if b := resized.Bounds(); b.Dx() != 10 || b.Dy() != 5 {
		t.Errorf("expected 10x5, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestCanvas_DrawImageScaled(t *testing.T) {
	canvas := New().CreateCanvas(40, 20, color.Black)
	canvas.DrawImageScaled(solid(8, 8, color.RGBA{G: 255, A: 255}), 20, 0, 20, 20)

	img := canvas.ToImage()
	if _, g, _, _ := img.At(30, 10).RGBA(); g>>8 != 255 {
		t.Errorf("expected green tile, got g=%d", g>>8)
	}
	if _, g, _, _ := img.At(5, 10).RGBA(); g != 0 {
		t.Errorf("expected background left of the tile, got g=%d", g>>8)
	}
}

func TestCanvas_DrawRectAndText(t *testing.T) {
	canvas := New().CreateCanvas(60, 20, color.White)
	canvas.DrawRect(0, 0, 60, 20, color.Black)
	canvas.DrawText("cam 0", 4, 10, ports.TextStyle{Color: color.White, FontPath: "/nonexistent.ttf"})

	img := canvas.ToImage()
	if b := img.Bounds(); b.Dx() != 60 || b.Dy() != 20 {
		t.Fatalf("expected 60x20, got %dx%d", b.Dx(), b.Dy())
	}
	if r, _, _, _ := img.At(59, 19).RGBA(); r != 0 {
		t.Errorf("expected black corner, got r=%d", r>>8)
	}
}

func TestFitWidth(t *testing.T) {
	tests := []struct {
		w, h, max int
		wantW     int
		wantH     int
	}{
		{1920, 1080, 640, 640, 360},
		{320, 240, 640, 320, 240},
		{1920, 1080, 0, 1920, 1080},
		{1000, 1, 10, 10, 1},
	}
	for _, tt := range tests {
		gotW, gotH := FitWidth(image.Rect(0, 0, tt.w, tt.h), tt.max)
		if gotW != tt.wantW || gotH != tt.wantH {
			t.Errorf("FitWidth(%dx%d, %d) = %dx%d, want %dx%d", tt.w, tt.h, tt.max, gotW, gotH, tt.wantW, tt.wantH)
		}
	}
}
