package mocks

import (
	"errors"
	"image"
	"image/color"
	"sync"

	"github.com/user/camsync/pkg/ports"
)

// Renderer is a mock implementation of ports.Renderer. Canvases it creates
// record their draw calls.
type Renderer struct {
	mu sync.Mutex

	CreateCanvasFunc func(width, height int, bg color.Color) ports.Canvas
	DecodeImageFunc  func(data []byte, format ports.ImageFormat) (image.Image, error)
	EncodeImageFunc  func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error)
	ResizeImageFunc  func(img image.Image, width, height int) image.Image

	Canvases []*Canvas
}

func (m *Renderer) CreateCanvas(width, height int, bg color.Color) ports.Canvas {
	if m.CreateCanvasFunc != nil {
		return m.CreateCanvasFunc(width, height, bg)
	}
	c := &Canvas{Width: width, Height: height}
	m.mu.Lock()
	m.Canvases = append(m.Canvases, c)
	m.mu.Unlock()
	return c
}

func (m *Renderer) DecodeImage(data []byte, format ports.ImageFormat) (image.Image, error) {
	if m.DecodeImageFunc != nil {
		return m.DecodeImageFunc(data, format)
	}
	if len(data) == 0 {
		return nil, errors.New("mock: empty image data")
	}
	return image.NewRGBA(image.Rect(0, 0, 100, 100)), nil
}

func (m *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	if m.EncodeImageFunc != nil {
		return m.EncodeImageFunc(img, format, quality)
	}
	return []byte{byte(format)}, nil
}

func (m *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	if m.ResizeImageFunc != nil {
		return m.ResizeImageFunc(img, width, height)
	}
	return image.NewRGBA(image.Rect(0, 0, width, height))
}

var _ ports.Renderer = (*Renderer)(nil)

// DrawCall is one recorded canvas operation.
type DrawCall struct {
	Op   string // "image", "rect" or "text"
	Rect image.Rectangle
	Text string
}

// Canvas is a mock implementation of ports.Canvas.
type Canvas struct {
	Width  int
	Height int
	Calls  []DrawCall
}

func (m *Canvas) DrawImageScaled(img image.Image, x, y, width, height int) {
	m.Calls = append(m.Calls, DrawCall{Op: "image", Rect: image.Rect(x, y, x+width, y+height)})
}

func (m *Canvas) DrawRect(x, y, w, h int, c color.Color) {
	m.Calls = append(m.Calls, DrawCall{Op: "rect", Rect: image.Rect(x, y, x+w, y+h)})
}

func (m *Canvas) DrawText(text string, x, y int, style ports.TextStyle) {
	m.Calls = append(m.Calls, DrawCall{Op: "text", Rect: image.Rect(x, y, x, y), Text: text})
}

func (m *Canvas) ToImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, m.Width, m.Height))
}

// Ops returns the recorded calls of one kind.
func (m *Canvas) Ops(op string) []DrawCall {
	var out []DrawCall
	for _, c := range m.Calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

var _ ports.Canvas = (*Canvas)(nil)
