package render

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/taigrr/softrender/pkg/math3d"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidOcclusion is returned by AmbientOcclusion for non-positive
// sample counts or radius.
var ErrInvalidOcclusion = errors.New("invalid occlusion parameters")

// occlusionKernel holds the sample offsets and screen noise of one
// ambient occlusion pass.
type occlusionKernel struct {
	samples []math3d.Vec3 // Inside the unit hemisphere around +Z, denser near the center
	noise   []math3d.Vec3 // Unit rotations in the XY plane
}

func newOcclusionKernel(samples, noise int, rng *rand.Rand) occlusionKernel {
	k := occlusionKernel{
		samples: make([]math3d.Vec3, samples),
		noise:   make([]math3d.Vec3, noise),
	}
	for i := range k.samples {
		dir := randomUnit(func() math3d.Vec3 {
			return math3d.V3(rng.Float64()*2-1, rng.Float64()*2-1, rng.Float64())
		})
		t := float64(i) / float64(samples)
		k.samples[i] = dir.Scale(rng.Float64() * (0.1 + 0.9*t*t))
	}
	for i := range k.noise {
		k.noise[i] = randomUnit(func() math3d.Vec3 {
			return math3d.V3(rng.Float64()*2-1, rng.Float64()*2-1, 0)
		})
	}
	return k
}

// randomUnit normalizes a draw from gen, drawing again on a zero vector.
func randomUnit(gen func() math3d.Vec3) math3d.Vec3 {
	for {
		if v := gen(); v.LenSq() > 1e-12 {
			return v.Normalize()
		}
	}
}

// AmbientOcclusion darkens every drawn pixel of v by how much nearby
// geometry hides it, using the depth, position and normal buffers of the
// current frame.
//
// Each pixel places samples points in the hemisphere of the given radius
// around its normal. A point is occluded when the surface drawn at its
// pixel lies more than bias in front of it, weighted down when that
// surface is far from the pixel's own depth. noise rotations of the
// sample kernel repeat across the screen. A nil rng uses a fixed seed, so
// frames are reproducible.
//
// Rows are shaded in parallel on v.Workers goroutines. When ctx is
// cancelled the pass stops with some rows untouched and ctx.Err() is
// returned.
func AmbientOcclusion(ctx context.Context, v *Viewport, samples, noise int, radius, bias float64, rng *rand.Rand) error {
	if samples <= 0 || noise <= 0 || !(radius > 0) {
		return fmt.Errorf("%w: %d samples, %d noise, radius %v", ErrInvalidOcclusion, samples, noise, radius)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	k := newOcclusionKernel(samples, noise, rng)
	fb := v.fb

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.workers())
	for y := range fb.Height {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for x := range fb.Width {
				idx := y*fb.Width + x
				if fb.Depth[idx] == 0 {
					continue
				}
				fb.Pixels[idx] = fb.Pixels[idx].Scale(k.visibility(v, x, y, radius, bias))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// visibility returns the unoccluded fraction, in [0,1], of the samples
// around the fragment at (x, y).
func (k *occlusionKernel) visibility(v *Viewport, x, y int, radius, bias float64) float64 {
	fb := v.fb
	idx := y*fb.Width + x
	n := fb.Normal[idx]
	if n == (math3d.Vec3{}) {
		return 1
	}
	pos := fb.World[idx]

	rot := k.noise[(x+13*y)%len(k.noise)]
	tangent := rot.Sub(n.Scale(rot.Dot(n)))
	if tangent.LenSq() < 1e-12 {
		// The rotation is parallel to n; any perpendicular will do.
		tangent = n.Cross(math3d.V3(1, 0, 0))
		if tangent.LenSq() < 1e-12 {
			tangent = n.Cross(math3d.V3(0, 1, 0))
		}
	}
	tangent = tangent.Normalize()
	bitangent := n.Cross(tangent)

	near := v.near()
	occluded := 0.0
	for _, s := range k.samples {
		p := pos.
			Add(tangent.Scale(s.X * radius)).
			Add(bitangent.Scale(s.Y * radius)).
			Add(n.Scale(s.Z * radius))
		if p.Z <= near {
			continue
		}
		sp := v.Project(p)
		sx, sy := int(math.Floor(sp.X)), int(math.Floor(sp.Y))
		if sx < 0 || sx >= fb.Width || sy < 0 || sy >= fb.Height {
			continue
		}
		stored := fb.Depth[sy*fb.Width+sx]
		if stored == 0 {
			continue
		}
		surfaceZ := 1 / stored
		if surfaceZ > p.Z-bias {
			continue
		}
		occluded += smoothstep(radius / math.Abs(pos.Z-surfaceZ))
	}
	return 1 - occluded/float64(len(k.samples))
}

// smoothstep eases x, clamped into [0,1], with 3x² - 2x³.
func smoothstep(x float64) float64 {
	x = clamp01(x)
	return x * x * (3 - 2*x)
}
