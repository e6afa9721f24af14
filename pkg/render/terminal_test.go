package render

import (
	"image/color"
	"testing"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/taigrr/softrender/pkg/texture"
)

func TestTerminalRendererFramebufferSize(t *testing.T) {
	r := NewTerminalRenderer(80, 24)
	if w, h := r.FramebufferSize(); w != 80 || h != 48 {
		t.Errorf("FramebufferSize() = %dx%d, want 80x48", w, h)
	}

	r = NewTerminalRenderer(-3, -1)
	if w, h := r.FramebufferSize(); w != 0 || h != 0 {
		t.Errorf("negative size gave %dx%d", w, h)
	}
}

func TestTerminalRendererHalfBlocks(t *testing.T) {
	red, blue := texture.RGB(1, 0, 0), texture.RGB(0, 0, 1)
	fb := NewFramebuffer(4, 4)
	for y := range 4 {
		for x := range 4 {
			c := red
			if y%2 == 1 {
				c = blue
			}
			fb.SetPixel(x, y, c)
		}
	}

	r := NewTerminalRenderer(4, 2)
	r.Render(fb)
	scr := uv.NewScreenBuffer(4, 2)
	r.Draw(scr, scr.Bounds())

	wantFg := color.RGBA{R: 255, A: 255}
	wantBg := color.RGBA{B: 255, A: 255}
	for y := range 2 {
		for x := range 4 {
			cell := scr.CellAt(x, y)
			if cell == nil {
				t.Fatalf("no cell at (%d,%d)", x, y)
			}
			if cell.Content != "▀" || cell.Width != 1 {
				t.Errorf("cell (%d,%d) = %q width %d", x, y, cell.Content, cell.Width)
			}
			if cell.Style.Fg != wantFg || cell.Style.Bg != wantBg {
				t.Errorf("cell (%d,%d) fg %v bg %v", x, y, cell.Style.Fg, cell.Style.Bg)
			}
		}
	}
}

func TestTerminalRendererDrawArea(t *testing.T) {
	fb := NewFramebuffer(4, 4)
	fb.Clear(texture.White)
	r := NewTerminalRenderer(4, 2)
	r.Render(fb)

	// A screen larger than the renderer only gets the renderer's cells.
	scr := uv.NewScreenBuffer(6, 3)
	r.Draw(scr, scr.Bounds())

	if got := scr.CellAt(3, 1).Content; got != "▀" {
		t.Errorf("cell (3,1) = %q", got)
	}
	if got := scr.CellAt(4, 0).Content; got == "▀" {
		t.Error("drew past the renderer width")
	}
	if got := scr.CellAt(0, 2).Content; got == "▀" {
		t.Error("drew past the renderer height")
	}
}

func TestTerminalRendererScales(t *testing.T) {
	fb := NewFramebuffer(8, 8)
	fb.Clear(texture.RGB(0, 1, 0))

	r := NewTerminalRenderer(2, 2)
	r.Render(fb)
	scr := uv.NewScreenBuffer(2, 2)
	r.Draw(scr, scr.Bounds())

	for y := range 2 {
		for x := range 2 {
			fg, ok := scr.CellAt(x, y).Style.Fg.(color.RGBA)
			if !ok {
				t.Fatalf("cell (%d,%d) fg is %T", x, y, scr.CellAt(x, y).Style.Fg)
			}
			if fg.G < 254 || fg.R > 1 || fg.B > 1 {
				t.Errorf("cell (%d,%d) fg = %v, want green", x, y, fg)
			}
		}
	}
}

func TestTerminalRendererBeforeRender(t *testing.T) {
	r := NewTerminalRenderer(2, 1)
	scr := uv.NewScreenBuffer(2, 1)
	r.Draw(scr, scr.Bounds())

	// An empty frame is transparent and leaves the default colors.
	if cell := scr.CellAt(0, 0); cell.Style.Fg != nil || cell.Style.Bg != nil {
		t.Errorf("empty frame styled the cell: %+v", cell.Style)
	}
}

func BenchmarkTerminalRender(b *testing.B) {
	fb := NewFramebuffer(160, 96)
	fb.Clear(testBackground)
	r := NewTerminalRenderer(80, 24)
	scr := uv.NewScreenBuffer(80, 24)

	for b.Loop() {
		r.Render(fb)
		r.Draw(scr, scr.Bounds())
	}
}
