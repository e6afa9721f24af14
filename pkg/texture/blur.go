package texture

import "math"

// GaussianBlur returns a copy of tex convolved with a Gaussian of standard
// deviation radius, cut off at ±ceil(radius) texels. The kernel is
// separable, so rows are blurred and then columns. Texels past the border
// repeat the edge. A radius <= 0 returns an unchanged copy.
func GaussianBlur(tex *Texture, radius float64) *Texture {
	out := tex.Clone()
	if !(radius > 0) || tex.Width == 0 || tex.Height == 0 {
		return out
	}
	weights := gaussianWeights(radius)
	reach := len(weights) / 2

	rows := New(tex.Width, tex.Height)
	for y := range tex.Height {
		for x := range tex.Width {
			var c Color
			for i, w := range weights {
				sx := min(max(x+i-reach, 0), tex.Width-1)
				c = c.Add(tex.Pixels[y*tex.Width+sx].Scale(w))
			}
			rows.Pixels[y*tex.Width+x] = c
		}
	}
	for y := range tex.Height {
		for x := range tex.Width {
			var c Color
			for i, w := range weights {
				sy := min(max(y+i-reach, 0), tex.Height-1)
				c = c.Add(rows.Pixels[sy*tex.Width+x].Scale(w))
			}
			out.Pixels[y*tex.Width+x] = c
		}
	}
	return out
}

// gaussianWeights returns the normalized 1D kernel for offsets
// -ceil(radius)..ceil(radius).
func gaussianWeights(radius float64) []float64 {
	reach := int(math.Ceil(radius))
	weights := make([]float64, 2*reach+1)
	total := 0.0
	for i := range weights {
		d := float64(i - reach)
		weights[i] = math.Exp(-d * d / (2 * radius * radius))
		total += weights[i]
	}
	for i := range weights {
		weights[i] /= total
	}
	return weights
}
