package render

import (
	"math"
	"testing"

	"github.com/taigrr/softrender/pkg/math3d"
	"github.com/taigrr/softrender/pkg/models"
)

// zPlane keeps z >= 0.
var zPlane = NewPlane(math3d.Zero3(), math3d.V3(0, 0, 1))

func texturedTriangle(a, b, c math3d.Vec3) *models.Mesh {
	mesh := models.NewMesh("tri", []math3d.Vec3{a, b, c}, [][3]int{{0, 1, 2}})
	mesh.TexCoords = []math3d.Vec2{math3d.V2(0, 0), math3d.V2(1, 0), math3d.V2(0, 1)}
	mesh.TexTris = [][3]int{{0, 1, 2}}
	mesh.RecalculateNormals()
	return mesh
}

func meshArea(mesh *models.Mesh) float64 {
	total := 0.0
	for _, tri := range mesh.Triangles {
		p0, p1, p2 := mesh.Vertices[tri[0]], mesh.Vertices[tri[1]], mesh.Vertices[tri[2]]
		total += p1.Sub(p0).Cross(p2.Sub(p0)).Len() / 2
	}
	return total
}

func TestClipAllInside(t *testing.T) {
	mesh := models.NewCube(1)
	mesh.Translate(math3d.V3(0, 0, 5))
	before := mesh.Clone()

	stats := ClipAgainstPlane(mesh, zPlane)

	if stats != (ClipStats{Kept: 12}) {
		t.Errorf("stats = %+v, want only 12 kept", stats)
	}
	if len(mesh.Triangles) != len(before.Triangles) || len(mesh.Vertices) != len(before.Vertices) {
		t.Fatalf("mesh changed size: %d tris %d verts", len(mesh.Triangles), len(mesh.Vertices))
	}
	for i := range mesh.Triangles {
		if mesh.Triangles[i] != before.Triangles[i] || mesh.TexTris[i] != before.TexTris[i] {
			t.Errorf("triangle %d changed", i)
		}
	}
	if err := mesh.Validate(); err != nil {
		t.Error(err)
	}
}

func TestClipAllOutside(t *testing.T) {
	mesh := models.NewCube(1)
	mesh.Translate(math3d.V3(0, 0, -5))

	stats := ClipAgainstPlane(mesh, zPlane)

	if stats.Removed != 12 || stats.Kept != 0 || stats.Emitted != 0 {
		t.Errorf("stats = %+v, want 12 removed", stats)
	}
	if len(mesh.Triangles) != 0 || len(mesh.FaceNormals) != 0 || len(mesh.TexTris) != 0 {
		t.Errorf("triangles left: %d/%d/%d", len(mesh.Triangles), len(mesh.FaceNormals), len(mesh.TexTris))
	}
}

func TestClipOneInside(t *testing.T) {
	mesh := texturedTriangle(math3d.V3(0, 0, 1), math3d.V3(1, 0, -1), math3d.V3(0, 1, -1))

	stats := ClipAgainstPlane(mesh, zPlane)

	if stats.Split != 1 || stats.Emitted != 1 || stats.NewVertices != 2 {
		t.Fatalf("stats = %+v", stats)
	}
	if len(mesh.Triangles) != 1 {
		t.Fatalf("got %d triangles, want 1", len(mesh.Triangles))
	}
	tri := mesh.Triangles[0]
	if tri[0] != 0 {
		t.Errorf("inside vertex moved out of slot 0: %v", tri)
	}
	if got := mesh.Vertices[tri[1]]; !got.ApproxEqual(math3d.V3(0.5, 0, 0), 1e-9) {
		t.Errorf("slot 1 = %v, want (0.5, 0, 0)", got)
	}
	if got := mesh.Vertices[tri[2]]; !got.ApproxEqual(math3d.V3(0, 0.5, 0), 1e-9) {
		t.Errorf("slot 2 = %v, want (0, 0.5, 0)", got)
	}

	tex := mesh.TexTris[0]
	if got := mesh.TexCoords[tex[1]]; math.Abs(got.X-0.5) > 1e-9 || math.Abs(got.Y) > 1e-9 {
		t.Errorf("texcoord slot 1 = %v, want (0.5, 0)", got)
	}
	if got := mesh.TexCoords[tex[2]]; math.Abs(got.X) > 1e-9 || math.Abs(got.Y-0.5) > 1e-9 {
		t.Errorf("texcoord slot 2 = %v, want (0, 0.5)", got)
	}
	if mesh.FaceNormals[0] != (math3d.Vec3{}) {
		t.Errorf("new face normal = %v, want zero", mesh.FaceNormals[0])
	}
	if err := mesh.Validate(); err != nil {
		t.Error(err)
	}
}

func TestClipTwoInside(t *testing.T) {
	mesh := texturedTriangle(math3d.V3(0, 0, 1), math3d.V3(1, 0, 1), math3d.V3(0, 1, -1))
	orig := mesh.FaceNormals[0]

	stats := ClipAgainstPlane(mesh, zPlane)

	if stats.Split != 1 || stats.Emitted != 2 || stats.NewVertices != 2 {
		t.Fatalf("stats = %+v", stats)
	}
	want := [][3]int{{0, 1, 3}, {3, 1, 4}}
	for i, tri := range mesh.Triangles {
		if tri != want[i] {
			t.Errorf("triangle %d = %v, want %v", i, tri, want[i])
		}
	}
	if got := mesh.Vertices[3]; !got.ApproxEqual(math3d.V3(0, 0.5, 0), 1e-9) {
		t.Errorf("new vertex 3 = %v", got)
	}
	if got := mesh.Vertices[4]; !got.ApproxEqual(math3d.V3(0.5, 0.5, 0), 1e-9) {
		t.Errorf("new vertex 4 = %v", got)
	}

	// Winding survives the split.
	mesh.RecalculateNormals()
	for i, n := range mesh.FaceNormals {
		if n.Dot(orig) <= 0 {
			t.Errorf("triangle %d normal %v flipped against %v", i, n, orig)
		}
	}
}

func TestClipSharesEdgeVertices(t *testing.T) {
	// A quad split by the plane: both triangles cut the diagonal A-C.
	mesh := models.NewMesh("quad", []math3d.Vec3{
		math3d.V3(0, 0, 1), math3d.V3(1, 0, 1), math3d.V3(1, 1, -1), math3d.V3(0, 1, -1),
	}, [][3]int{{0, 1, 2}, {0, 2, 3}})
	mesh.RecalculateNormals()
	texBefore := len(mesh.TexCoords)

	stats := ClipAgainstPlane(mesh, zPlane)

	if stats.NewVertices != 3 {
		t.Errorf("new vertices = %d, want 3 (diagonal shared)", stats.NewVertices)
	}
	if got := len(mesh.TexCoords) - texBefore; got != 5 {
		t.Errorf("new texcoords = %d, want 5 (never shared)", got)
	}
	if len(mesh.Triangles) != 3 {
		t.Errorf("got %d triangles, want 3", len(mesh.Triangles))
	}
	if err := mesh.Validate(); err != nil {
		t.Error(err)
	}
}

func TestClipConservesInsideArea(t *testing.T) {
	// Right triangle in the y=0 plane with legs of 2; area 2.
	// The hypotenuse is x = 1 - z.
	tri := func() *models.Mesh {
		return texturedTriangle(math3d.V3(0, 0, -1), math3d.V3(2, 0, -1), math3d.V3(0, 0, 1))
	}

	tests := []struct {
		name  string
		plane Plane
		area  float64
	}{
		{"keep z >= 0", zPlane, 0.5},
		{"keep z <= 0", NewPlane(math3d.Zero3(), math3d.V3(0, 0, -1)), 1.5},
		{"keep z >= -0.5", NewPlane(math3d.V3(0, 0, -0.5), math3d.V3(0, 0, 1)), 1.125},
		{"keep everything", NewPlane(math3d.V3(0, 0, -2), math3d.V3(0, 0, 1)), 2},
		{"keep nothing", NewPlane(math3d.V3(0, 0, 2), math3d.V3(0, 0, 1)), 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mesh := tri()
			ClipAgainstPlane(mesh, tc.plane)
			if got := meshArea(mesh); math.Abs(got-tc.area) > 1e-9 {
				t.Errorf("area = %v, want %v", got, tc.area)
			}
			for _, tri := range mesh.Triangles {
				for _, idx := range tri {
					if d := tc.plane.DistanceToPoint(mesh.Vertices[idx]); d < -1e-9 {
						t.Errorf("vertex %v outside plane by %v", mesh.Vertices[idx], d)
					}
				}
			}
		})
	}
}

func BenchmarkClipAgainstPlane(b *testing.B) {
	src := models.NewCube(2)
	src.Translate(math3d.V3(0, 0, 0.5))

	for b.Loop() {
		ClipAgainstPlane(src.Clone(), zPlane)
	}
}
