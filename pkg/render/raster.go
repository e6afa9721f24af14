package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/taigrr/softrender/pkg/math3d"
	"github.com/taigrr/softrender/pkg/models"
	"github.com/taigrr/softrender/pkg/texture"
)

// Strategy selects how triangle coverage is computed.
type Strategy int

const (
	// StrategyBarycentric tests edge functions at every pixel center of the
	// triangle's bounding box.
	StrategyBarycentric Strategy = iota
	// StrategyEdgeWalk walks the edges one scanline at a time and fills
	// the spans between them.
	StrategyEdgeWalk
)

func (s Strategy) String() string {
	switch s {
	case StrategyBarycentric:
		return "barycentric"
	case StrategyEdgeWalk:
		return "edgewalk"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy parses "barycentric" or "edgewalk".
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "barycentric", "bary":
		return StrategyBarycentric, nil
	case "edgewalk", "edge-walk", "scanline":
		return StrategyEdgeWalk, nil
	default:
		return 0, fmt.Errorf("unknown raster strategy %q", s)
	}
}

// payload is the per-vertex data interpolated across a triangle. Every
// attribute is pre-divided by z so that linear interpolation in screen
// space is perspective correct once divided by the interpolated invZ.
type payload struct {
	uv     math3d.Vec2
	world  math3d.Vec3
	normal math3d.Vec3
	invZ   float64
}

func newPayload(world, normal math3d.Vec3, uv math3d.Vec2) payload {
	invZ := 1 / world.Z
	return payload{
		uv:     uv.Scale(invZ),
		world:  world.Scale(invZ),
		normal: normal.Scale(invZ),
		invZ:   invZ,
	}
}

func (p payload) lerp(q payload, t float64) payload {
	return payload{
		uv:     p.uv.Lerp(q.uv, t),
		world:  p.world.Lerp(q.world, t),
		normal: p.normal.Lerp(q.normal, t),
		invZ:   p.invZ + (q.invZ-p.invZ)*t,
	}
}

func (p payload) add(q payload) payload {
	return payload{
		uv:     p.uv.Add(q.uv),
		world:  p.world.Add(q.world),
		normal: p.normal.Add(q.normal),
		invZ:   p.invZ + q.invZ,
	}
}

func (p payload) scale(s float64) payload {
	return payload{
		uv:     p.uv.Scale(s),
		world:  p.world.Scale(s),
		normal: p.normal.Scale(s),
		invZ:   p.invZ * s,
	}
}

// fragment undoes the division by z.
func (p payload) fragment() fragment {
	z := 1 / p.invZ
	return fragment{
		uv:     p.uv.Scale(z),
		world:  p.world.Scale(z),
		normal: p.normal.Scale(z),
		invZ:   p.invZ,
	}
}

// screenVertex is a projected corner with its payload.
type screenVertex struct {
	x, y float64
	p    payload
}

// span is one scanline's boundary of an edge-walked triangle.
type span struct {
	minX, maxX  float64
	left, right payload
	ok          bool
}

// triSetup is everything the tile workers need to rasterize one triangle.
// It is built sequentially and only read afterwards.
type triSetup struct {
	v          [3]screenVertex
	faceNormal math3d.Vec3
	material   *models.Material
	tex        *texture.Texture

	// Pixel bounds, inclusive and clamped to the viewport.
	minX, minY, maxX, maxY int

	// Barycentric edge functions, see edgeCoeffs.
	a, b, c [3]float64
	area    float64

	// Edge-walk spans indexed by row-minY.
	spans []span
}

// edgeCoeffs returns A, B, C for the edge function A*x + B*y + C of the
// edge (x0,y0)->(x1,y1). It is the signed parallelogram area spanned by
// the edge and the point, so its sign tells the side.
func edgeCoeffs(x0, y0, x1, y1 float64) (A, B, C float64) {
	A = y0 - y1
	B = x1 - x0
	C = x0*y1 - x1*y0
	return
}

// edgeFunc evaluates edge function at point (x, y)
func edgeFunc(A, B, C, x, y float64) float64 {
	return A*x + B*y + C
}

// newTriSetup prepares already projected corners for rasterization. It
// returns false for triangles that cover no pixel center.
func newTriSetup(v [3]screenVertex, width, height int, strategy Strategy) (*triSetup, bool) {
	s := &triSetup{v: v}

	// Edge 0: v1 -> v2, Edge 1: v2 -> v0, Edge 2: v0 -> v1
	s.a[0], s.b[0], s.c[0] = edgeCoeffs(v[1].x, v[1].y, v[2].x, v[2].y)
	s.a[1], s.b[1], s.c[1] = edgeCoeffs(v[2].x, v[2].y, v[0].x, v[0].y)
	s.a[2], s.b[2], s.c[2] = edgeCoeffs(v[0].x, v[0].y, v[1].x, v[1].y)
	s.area = edgeFunc(s.a[0], s.b[0], s.c[0], v[0].x, v[0].y)
	if s.area == 0 || math.IsNaN(s.area) || math.IsInf(s.area, 0) {
		return nil, false
	}

	// Pixel (x, y) has its center at (x+0.5, y+0.5).
	lo := func(a float64) int { return int(math.Ceil(a - 0.5)) }
	hi := func(a float64) int { return int(math.Floor(a - 0.5)) }
	s.minX = max(lo(min3(v[0].x, v[1].x, v[2].x)), 0)
	s.maxX = min(hi(max3(v[0].x, v[1].x, v[2].x)), width-1)
	s.minY = max(lo(min3(v[0].y, v[1].y, v[2].y)), 0)
	s.maxY = min(hi(max3(v[0].y, v[1].y, v[2].y)), height-1)
	if s.minX > s.maxX || s.minY > s.maxY {
		return nil, false
	}

	if strategy == StrategyEdgeWalk {
		s.walkEdges()
	}
	return s, true
}

func min3(a, b, c float64) float64 {
	return math.Min(a, math.Min(b, c))
}

func max3(a, b, c float64) float64 {
	return math.Max(a, math.Max(b, c))
}

// walkEdges records, for every row in [minY, maxY], the leftmost and
// rightmost points where an edge crosses the row's center line.
func (s *triSetup) walkEdges() {
	s.spans = make([]span, s.maxY-s.minY+1)
	for i := range 3 {
		a, b := s.v[i], s.v[(i+1)%3]
		if a.y == b.y {
			continue
		}
		if a.y > b.y {
			a, b = b, a
		}

		first := max(int(math.Ceil(a.y-0.5)), s.minY)
		last := min(int(math.Floor(b.y-0.5)), s.maxY)
		if first > last {
			continue
		}

		// y drives the walk: x and the payload step by a constant per row.
		dt := 1 / (b.y - a.y)
		t := (float64(first) + 0.5 - a.y) * dt
		x := a.x + (b.x-a.x)*t
		dx := (b.x - a.x) * dt
		p := a.p.lerp(b.p, t)
		dp := b.p.add(a.p.scale(-1)).scale(dt)

		for y := first; y <= last; y++ {
			sp := &s.spans[y-s.minY]
			if !sp.ok || x < sp.minX {
				sp.minX, sp.left = x, p
			}
			if !sp.ok || x > sp.maxX {
				sp.maxX, sp.right = x, p
			}
			sp.ok = true
			x += dx
			p = p.add(dp)
		}
	}
}

// rect is a half-open pixel rectangle.
type rect struct {
	x0, y0, x1, y1 int
}

// overlaps reports whether the triangle's pixel bounds touch r.
func (s *triSetup) overlaps(r rect) bool {
	return s.maxX >= r.x0 && s.minX < r.x1 && s.maxY >= r.y0 && s.minY < r.y1
}

// rasterize calls plot for every covered pixel of s inside r.
func (s *triSetup) rasterize(r rect, strategy Strategy, plot func(x, y int, p payload)) {
	x0, x1 := max(s.minX, r.x0), min(s.maxX, r.x1-1)
	y0, y1 := max(s.minY, r.y0), min(s.maxY, r.y1-1)
	if x0 > x1 || y0 > y1 {
		return
	}

	switch strategy {
	case StrategyEdgeWalk:
		s.rasterizeSpans(x0, y0, x1, y1, plot)
	default:
		s.rasterizeBarycentric(x0, y0, x1, y1, plot)
	}
}

// rasterizeBarycentric evaluates the edge functions directly at every
// pixel, so the result does not depend on where the tile starts.
func (s *triSetup) rasterizeBarycentric(x0, y0, x1, y1 int, plot func(x, y int, p payload)) {
	invArea := 1 / s.area
	for y := y0; y <= y1; y++ {
		py := float64(y) + 0.5
		for x := x0; x <= x1; x++ {
			px := float64(x) + 0.5
			w0 := edgeFunc(s.a[0], s.b[0], s.c[0], px, py) * invArea
			w1 := edgeFunc(s.a[1], s.b[1], s.c[1], px, py) * invArea
			w2 := edgeFunc(s.a[2], s.b[2], s.c[2], px, py) * invArea
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			p := s.v[0].p.scale(w0).add(s.v[1].p.scale(w1)).add(s.v[2].p.scale(w2))
			plot(x, y, p)
		}
	}
}

func (s *triSetup) rasterizeSpans(x0, y0, x1, y1 int, plot func(x, y int, p payload)) {
	for y := y0; y <= y1; y++ {
		sp := s.spans[y-s.minY]
		if !sp.ok {
			continue
		}
		first := max(int(math.Ceil(sp.minX-0.5)), x0)
		last := min(int(math.Floor(sp.maxX-0.5)), x1)
		width := sp.maxX - sp.minX
		for x := first; x <= last; x++ {
			t := 0.0
			if width > 0 {
				t = (float64(x) + 0.5 - sp.minX) / width
			}
			plot(x, y, sp.left.lerp(sp.right, t))
		}
	}
}
