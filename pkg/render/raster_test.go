package render

import (
	"math"
	"testing"

	"github.com/taigrr/softrender/pkg/math3d"
)

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"barycentric", StrategyBarycentric, false},
		{"bary", StrategyBarycentric, false},
		{"EdgeWalk", StrategyEdgeWalk, false},
		{" edge-walk ", StrategyEdgeWalk, false},
		{"scanline", StrategyEdgeWalk, false},
		{"raytrace", 0, true},
		{"", 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseStrategy(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseStrategy(%q) err = %v", tc.in, err)
			}
			if err == nil && got != tc.want {
				t.Errorf("ParseStrategy(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}

	for _, s := range strategies {
		if got, err := ParseStrategy(s.String()); err != nil || got != s {
			t.Errorf("round trip of %v gave %v, %v", s, got, err)
		}
	}
	if got := Strategy(7).String(); got != "Strategy(7)" {
		t.Errorf("unknown strategy prints %q", got)
	}
}

func TestEdgeFunction(t *testing.T) {
	A, B, C := edgeCoeffs(0, 0, 4, 0)

	tests := []struct {
		x, y float64
		want float64
	}{
		{2, 3, 12},
		{2, -3, -12},
		{7, 0, 0},
	}
	for _, tc := range tests {
		if got := edgeFunc(A, B, C, tc.x, tc.y); math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("edge at (%v,%v) = %v, want %v", tc.x, tc.y, got, tc.want)
		}
	}
}

func TestPayloadIsPerspectiveCorrect(t *testing.T) {
	p1 := newPayload(math3d.V3(-1, 0, 2), math3d.V3(0, 0, -1), math3d.V2(0, 0))
	p2 := newPayload(math3d.V3(1, 0, 4), math3d.V3(0, 0, -1), math3d.V2(1, 0))

	f := p1.lerp(p2, 0.5).fragment()

	if math.Abs(f.uv.X-1.0/3) > 1e-12 {
		t.Errorf("u = %v, want 1/3", f.uv.X)
	}
	if math.Abs(f.world.X+1.0/3) > 1e-12 {
		t.Errorf("x = %v, want -1/3", f.world.X)
	}
	if math.Abs(f.world.Z-8.0/3) > 1e-12 || math.Abs(f.invZ-0.375) > 1e-12 {
		t.Errorf("z = %v invZ = %v, want 8/3 and 0.375", f.world.Z, f.invZ)
	}
	if !f.normal.ApproxEqual(math3d.V3(0, 0, -1), 1e-12) {
		t.Errorf("normal = %v", f.normal)
	}

	// The endpoints come back unchanged.
	if got := p1.lerp(p2, 0).fragment().world; !got.ApproxEqual(math3d.V3(-1, 0, 2), 1e-12) {
		t.Errorf("t=0 world = %v", got)
	}
	if got := p1.lerp(p2, 1).fragment().world; !got.ApproxEqual(math3d.V3(1, 0, 4), 1e-12) {
		t.Errorf("t=1 world = %v", got)
	}
}

func screenTriangle(pts [3]math3d.Vec2, depths [3]float64) [3]screenVertex {
	var sv [3]screenVertex
	for i, p := range pts {
		sv[i] = screenVertex{
			x: p.X,
			y: p.Y,
			p: newPayload(math3d.V3(0, 0, depths[i]), math3d.Zero3(), math3d.V2(0, 0)),
		}
	}
	return sv
}

func coverage(t *testing.T, sv [3]screenVertex, strategy Strategy, r rect) map[[2]int]float64 {
	t.Helper()
	got := make(map[[2]int]float64)
	s, ok := newTriSetup(sv, 8, 8, strategy)
	if !ok {
		return got
	}
	s.rasterize(r, strategy, func(x, y int, p payload) {
		key := [2]int{x, y}
		if _, dup := got[key]; dup {
			t.Errorf("%v plotted (%d,%d) twice", strategy, x, y)
		}
		got[key] = p.invZ
	})
	return got
}

func TestTriSetupBounds(t *testing.T) {
	sv := screenTriangle([3]math3d.Vec2{math3d.V2(2, 2), math3d.V2(6, 2), math3d.V2(2, 6)}, [3]float64{1, 1, 1})
	s, ok := newTriSetup(sv, 8, 8, StrategyBarycentric)
	if !ok {
		t.Fatal("triangle rejected")
	}
	if s.minX != 2 || s.maxX != 5 || s.minY != 2 || s.maxY != 5 {
		t.Errorf("bounds = [%d,%d]x[%d,%d], want [2,5]x[2,5]", s.minX, s.maxX, s.minY, s.maxY)
	}
	if !s.overlaps(rect{0, 0, 3, 3}) || s.overlaps(rect{6, 0, 8, 8}) {
		t.Error("overlaps disagrees with bounds")
	}
}

func TestTriSetupRejects(t *testing.T) {
	tests := []struct {
		name string
		pts  [3]math3d.Vec2
	}{
		{"degenerate", [3]math3d.Vec2{math3d.V2(1, 1), math3d.V2(3, 3), math3d.V2(5, 5)}},
		{"offscreen", [3]math3d.Vec2{math3d.V2(10, 10), math3d.V2(14, 10), math3d.V2(10, 14)}},
		{"between centers", [3]math3d.Vec2{math3d.V2(1.6, 1.6), math3d.V2(2.4, 1.6), math3d.V2(1.6, 2.4)}},
		{"NaN", [3]math3d.Vec2{math3d.V2(math.NaN(), 1), math3d.V2(3, 1), math3d.V2(1, 3)}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for _, strategy := range strategies {
				sv := screenTriangle(tc.pts, [3]float64{1, 1, 1})
				if _, ok := newTriSetup(sv, 8, 8, strategy); ok {
					t.Errorf("%v accepted the triangle", strategy)
				}
			}
		})
	}
}

func TestStrategiesAgree(t *testing.T) {
	pts := [3]math3d.Vec2{math3d.V2(1.3, 0.7), math3d.V2(6.1, 2.2), math3d.V2(3.4, 7.6)}
	depths := [3]float64{1, 2, 4}
	full := rect{0, 0, 8, 8}

	for _, name := range []string{"clockwise", "counterclockwise"} {
		t.Run(name, func(t *testing.T) {
			sv := screenTriangle(pts, depths)
			if name == "counterclockwise" {
				sv[1], sv[2] = sv[2], sv[1]
			}
			bary := coverage(t, sv, StrategyBarycentric, full)
			walk := coverage(t, sv, StrategyEdgeWalk, full)

			if len(bary) == 0 {
				t.Fatal("no pixels covered")
			}
			if len(bary) != len(walk) {
				t.Fatalf("barycentric covered %d pixels, edge walk %d", len(bary), len(walk))
			}
			for px, invZ := range bary {
				other, ok := walk[px]
				if !ok {
					t.Errorf("edge walk missed %v", px)
					continue
				}
				if math.Abs(invZ-other) > 1e-9 {
					t.Errorf("invZ at %v: %v vs %v", px, invZ, other)
				}
			}
		})
	}
}

func TestRasterizeHonorsRect(t *testing.T) {
	sv := screenTriangle([3]math3d.Vec2{math3d.V2(0, 0), math3d.V2(8, 0), math3d.V2(0, 8)}, [3]float64{1, 1, 1})
	tile := rect{2, 2, 4, 4}

	for _, strategy := range strategies {
		whole := coverage(t, sv, strategy, rect{0, 0, 8, 8})
		part := coverage(t, sv, strategy, tile)
		for px := range part {
			if px[0] < 2 || px[0] >= 4 || px[1] < 2 || px[1] >= 4 {
				t.Errorf("%v plotted %v outside the tile", strategy, px)
			}
		}
		for px := range whole {
			inTile := px[0] >= 2 && px[0] < 4 && px[1] >= 2 && px[1] < 4
			if _, ok := part[px]; inTile && !ok {
				t.Errorf("%v missed %v inside the tile", strategy, px)
			}
		}
	}
}

func BenchmarkRasterize(b *testing.B) {
	var sv [3]screenVertex
	for i, p := range []math3d.Vec3{math3d.V3(10, 5, 2), math3d.V3(250, 40, 3), math3d.V3(90, 230, 5)} {
		sv[i] = screenVertex{x: p.X, y: p.Y, p: newPayload(math3d.V3(0, 0, p.Z), math3d.Zero3(), math3d.V2(0, 0))}
	}
	full := rect{0, 0, 256, 256}

	for _, strategy := range strategies {
		b.Run(strategy.String(), func(b *testing.B) {
			var sink float64
			for b.Loop() {
				s, _ := newTriSetup(sv, 256, 256, strategy)
				s.rasterize(full, strategy, func(x, y int, p payload) {
					sink += p.invZ
				})
			}
			_ = sink
		})
	}
}
