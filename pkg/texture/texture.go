package texture

import (
	"image"
	"math"
)

// WrapMode determines how texture coordinates outside [0,1] are handled.
type WrapMode int

const (
	WrapClamp  WrapMode = iota // Clamp to edge
	WrapRepeat                 // Tile the texture
)

// FilterMode determines how texture sampling is performed.
type FilterMode int

const (
	FilterBilinear FilterMode = iota // Blend the four enclosing texels
	FilterNearest                    // Nearest texel (pixelated)
)

// Texture is a row-major grid of colors. Texel (row, col) lives at
// Pixels[row*Width+col].
type Texture struct {
	Width  int
	Height int
	Pixels []Color
	Wrap   WrapMode
	Filter FilterMode
}

// New creates a black texture with the given dimensions.
func New(width, height int) *Texture {
	return &Texture{
		Width:  width,
		Height: height,
		Pixels: make([]Color, width*height),
	}
}

// FromImage creates a texture from an image.Image.
func FromImage(img image.Image) *Texture {
	bounds := img.Bounds()
	tex := New(bounds.Dx(), bounds.Dy())
	for y := range tex.Height {
		for x := range tex.Width {
			tex.Set(y, x, FromColor(img.At(bounds.Min.X+x, bounds.Min.Y+y)))
		}
	}
	return tex
}

// Missing creates the checkerboard placeholder used when a mesh has no
// texture: 0.5 and 0.9 gray squares of size texels, with texel (0,0) dark.
func Missing(width, height, size int) *Texture {
	return NewChecker(width, height, size, Gray(0.5), Gray(0.9))
}

// NewChecker creates a procedural checkerboard texture.
func NewChecker(width, height, size int, c1, c2 Color) *Texture {
	size = max(size, 1)
	tex := New(width, height)
	for y := range height {
		for x := range width {
			if (x/size+y/size)%2 == 0 {
				tex.Set(y, x, c1)
			} else {
				tex.Set(y, x, c2)
			}
		}
	}
	return tex
}

// NewGradient creates a horizontal gradient texture.
func NewGradient(width, height int, left, right Color) *Texture {
	tex := New(width, height)
	for y := range height {
		for x := range width {
			t := 0.0
			if width > 1 {
				t = float64(x) / float64(width-1)
			}
			tex.Set(y, x, left.Lerp(right, t))
		}
	}
	return tex
}

// Set stores a texel. Out-of-range writes are ignored.
func (t *Texture) Set(row, col int, c Color) {
	if col < 0 || col >= t.Width || row < 0 || row >= t.Height {
		return
	}
	t.Pixels[row*t.Width+col] = c
}

// At returns the texel at (row, col), or black when out of range.
func (t *Texture) At(row, col int) Color {
	if col < 0 || col >= t.Width || row < 0 || row >= t.Height {
		return Color{}
	}
	return t.Pixels[row*t.Width+col]
}

// Clone returns a deep copy of the texture.
func (t *Texture) Clone() *Texture {
	c := *t
	c.Pixels = make([]Color, len(t.Pixels))
	copy(c.Pixels, t.Pixels)
	return &c
}

// Sample returns the color at texture coordinates (u, v). u runs along
// columns and v along rows; (0,0) is texel (0,0) and (1,1) is the last
// texel. Coordinates map onto texel centers, so u = col/(Width-1) returns
// that column's texel exactly.
func (t *Texture) Sample(u, v float64) Color {
	if t.Width == 0 || t.Height == 0 {
		return Color{}
	}

	u = wrapCoord(u, t.Wrap)
	v = wrapCoord(v, t.Wrap)

	tx := u * float64(t.Width-1)
	ty := v * float64(t.Height-1)

	if t.Filter == FilterNearest {
		return t.At(int(math.Round(ty)), int(math.Round(tx)))
	}
	return t.sampleBilinear(tx, ty)
}

// sampleBilinear blends the texels at the floor and ceil of (tx, ty).
func (t *Texture) sampleBilinear(tx, ty float64) Color {
	x0, y0 := math.Floor(tx), math.Floor(ty)
	x1, y1 := math.Ceil(tx), math.Ceil(ty)
	fx, fy := tx-x0, ty-y0

	c00 := t.At(int(y0), int(x0))
	c10 := t.At(int(y0), int(x1))
	c01 := t.At(int(y1), int(x0))
	c11 := t.At(int(y1), int(x1))

	top := c00.Lerp(c10, fx)
	bot := c01.Lerp(c11, fx)
	return top.Lerp(bot, fy)
}

// wrapCoord maps a coordinate into [0, 1].
func wrapCoord(coord float64, mode WrapMode) float64 {
	if mode == WrapRepeat {
		f := coord - math.Floor(coord)
		if f == 0 && coord != 0 {
			return 1
		}
		return f
	}
	return math.Max(0, math.Min(1, coord))
}
