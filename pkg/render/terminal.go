package render

import (
	"image"
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
	"golang.org/x/image/draw"
)

// TerminalRenderer presents framebuffers as terminal cells. Each cell is
// an upper half block (▀) with fg = top pixel and bg = bottom pixel, so a
// width×height cell area shows width×2height pixels.
//
// TerminalRenderer implements uv.Drawable.
type TerminalRenderer struct {
	width, height int // In cells

	// Scaler resamples framebuffers whose size differs from the cell grid.
	Scaler draw.Scaler

	frame *image.RGBA
}

// NewTerminalRenderer creates a renderer for a width×height cell area.
func NewTerminalRenderer(width, height int) *TerminalRenderer {
	width, height = max(width, 0), max(height, 0)
	return &TerminalRenderer{
		width:  width,
		height: height,
		Scaler: draw.ApproxBiLinear,
		frame:  image.NewRGBA(image.Rect(0, 0, width, height*2)),
	}
}

// FramebufferSize returns the pixel size that maps one to one onto the
// cell area.
func (r *TerminalRenderer) FramebufferSize() (width, height int) {
	return r.width, r.height * 2
}

// Render stores fb as the next frame, resampling it if its size differs
// from FramebufferSize.
func (r *TerminalRenderer) Render(fb *Framebuffer) {
	src := fb.Texture().ToImage()
	if src.Bounds() == r.frame.Bounds() {
		copy(r.frame.Pix, src.Pix)
		return
	}
	r.Scaler.Scale(r.frame, r.frame.Bounds(), src, src.Bounds(), draw.Src, nil)
}

// Draw writes the last rendered frame into area of scr.
func (r *TerminalRenderer) Draw(scr uv.Screen, area uv.Rectangle) {
	for row := area.Min.Y; row < area.Max.Y && row < r.height; row++ {
		top, bot := row*2, row*2+1
		for col := area.Min.X; col < area.Max.X && col < r.width; col++ {
			scr.SetCell(col, row, &uv.Cell{
				Content: "▀",
				Width:   1,
				Style: uv.Style{
					Fg: r.pixel(col, top),
					Bg: r.pixel(col, bot),
				},
			})
		}
	}
}

// pixel returns nil for transparent pixels so the cell keeps the terminal
// default color.
func (r *TerminalRenderer) pixel(x, y int) color.Color {
	c := r.frame.RGBAAt(x, y)
	if c.A == 0 {
		return nil
	}
	return c
}
