// Package texture provides float colors, sampled textures and the image
// codecs that move them in and out of files.
package texture

import "image/color"

// Color is a linear RGB color with channels nominally in [0, 1].
// Add and Sub clamp their result; Scale and Mul do not, so lighting can
// accumulate before the final write.
type Color struct {
	R, G, B float64
}

// RGB creates a Color.
func RGB(r, g, b float64) Color {
	return Color{r, g, b}
}

// Gray creates a Color with all three channels set to v.
func Gray(v float64) Color {
	return Color{v, v, v}
}

// Named colors.
var (
	Black   = Color{0, 0, 0}
	White   = Color{1, 1, 1}
	Magenta = Color{1, 0, 1}
)

// Add returns the channel-wise sum clamped into [0, 1].
func (c Color) Add(o Color) Color {
	return Color{clamp01(c.R + o.R), clamp01(c.G + o.G), clamp01(c.B + o.B)}
}

// Sub returns the channel-wise difference clamped into [0, 1].
func (c Color) Sub(o Color) Color {
	return Color{clamp01(c.R - o.R), clamp01(c.G - o.G), clamp01(c.B - o.B)}
}

// Scale multiplies every channel by s without clamping.
func (c Color) Scale(s float64) Color {
	return Color{c.R * s, c.G * s, c.B * s}
}

// Mul returns the Hadamard (channel-wise) product without clamping.
func (c Color) Mul(o Color) Color {
	return Color{c.R * o.R, c.G * o.G, c.B * o.B}
}

// Lerp interpolates between c and o by t.
func (c Color) Lerp(o Color, t float64) Color {
	return Color{
		c.R + (o.R-c.R)*t,
		c.G + (o.G-c.G)*t,
		c.B + (o.B-c.B)*t,
	}
}

// Clamp returns c with every channel clamped into [0, 1].
func (c Color) Clamp() Color {
	return Color{clamp01(c.R), clamp01(c.G), clamp01(c.B)}
}

// ToRGBA converts to 8-bit channels by truncation, after clamping.
// A channel that decoded from an 8-bit value converts back to that value.
func (c Color) ToRGBA() color.RGBA {
	c = c.Clamp()
	return color.RGBA{
		R: to8(c.R),
		G: to8(c.G),
		B: to8(c.B),
		A: 255,
	}
}

func to8(v float64) uint8 {
	return uint8(min(v*255+1e-9, 255))
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	return c.ToRGBA().RGBA()
}

// FromColor converts any color.Color into a Color. Alpha is dropped.
func FromColor(c color.Color) Color {
	r, g, b, _ := c.RGBA()
	return Color{float64(r) / 0xffff, float64(g) / 0xffff, float64(b) / 0xffff}
}

// From8 converts 8-bit channels into a Color.
func From8(r, g, b uint8) Color {
	return Color{float64(r) / 255, float64(g) / 255, float64(b) / 255}
}

func clamp01(v float64) float64 {
	if v >= 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}
