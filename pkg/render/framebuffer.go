// Package render rasterizes meshes into a framebuffer on the CPU.
package render

import (
	"github.com/taigrr/softrender/pkg/math3d"
	"github.com/taigrr/softrender/pkg/texture"
)

// Framebuffer holds the color buffer of a viewport and, per pixel, the
// inverse depth, camera-space position and unit normal of the nearest
// fragment. All buffers are row-major.
type Framebuffer struct {
	Width  int
	Height int
	Pixels []texture.Color
	Depth  []float64 // 1/z of the nearest fragment so far; 0 is empty
	World  []math3d.Vec3
	Normal []math3d.Vec3
}

// NewFramebuffer creates a framebuffer with the given dimensions.
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		Width:  width,
		Height: height,
		Pixels: make([]texture.Color, width*height),
		Depth:  make([]float64, width*height),
		World:  make([]math3d.Vec3, width*height),
		Normal: make([]math3d.Vec3, width*height),
	}
}

// Clear fills the color buffer with c and empties the depth, position and
// normal buffers.
func (fb *Framebuffer) Clear(c texture.Color) {
	n := len(fb.Pixels)
	if n == 0 {
		return
	}
	// Copy-doubling is faster than a per-element loop.
	fb.Pixels[0] = c
	for i := 1; i < n; i *= 2 {
		copy(fb.Pixels[i:], fb.Pixels[:i])
	}
	clear(fb.Depth)
	clear(fb.World)
	clear(fb.Normal)
}

// SetPixel sets a pixel at (x, y) to the given color.
// Out of bounds writes are ignored.
func (fb *Framebuffer) SetPixel(x, y int, c texture.Color) {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return
	}
	fb.Pixels[y*fb.Width+x] = c
}

// GetPixel returns the color at (x, y), or black if out of bounds.
func (fb *Framebuffer) GetPixel(x, y int) texture.Color {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return texture.Black
	}
	return fb.Pixels[y*fb.Width+x]
}

// GetDepth returns the inverse depth at (x, y), or 0 if out of bounds.
func (fb *Framebuffer) GetDepth(x, y int) float64 {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return 0
	}
	return fb.Depth[y*fb.Width+x]
}

// DrawLine draws a line from (x0, y0) to (x1, y1) using Bresenham's algorithm.
func (fb *Framebuffer) DrawLine(x0, y0, x1, y1 int, c texture.Color) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		fb.SetPixel(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Texture copies the color buffer into a new texture.
func (fb *Framebuffer) Texture() *texture.Texture {
	tex := texture.New(fb.Width, fb.Height)
	copy(tex.Pixels, fb.Pixels)
	return tex
}
