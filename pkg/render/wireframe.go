package render

import (
	"math"

	"github.com/taigrr/softrender/pkg/models"
	"github.com/taigrr/softrender/pkg/texture"
)

// WireframeColor is the color DrawWireframe draws edges in.
var WireframeColor = texture.RGB(0.988, 0.784, 0.353)

// DrawWireframe draws every triangle edge of mesh on top of the pixel
// buffer. Edges ignore and do not update the depth buffer. Backfaces are
// skipped when the mesh culls them, and so is any triangle with a vertex
// in front of the near plane. The mesh is not modified.
func (v *Viewport) DrawWireframe(mesh *models.Mesh) {
	near := v.NearPlane()
	for _, tri := range mesh.Triangles {
		if !inRange(tri, len(mesh.Vertices)) {
			continue
		}
		p0, p1, p2 := mesh.Vertices[tri[0]], mesh.Vertices[tri[1]], mesh.Vertices[tri[2]]
		if near.DistanceToPoint(p0) < 0 || near.DistanceToPoint(p1) < 0 || near.DistanceToPoint(p2) < 0 {
			continue
		}
		if mesh.CullBackfaces {
			// Same test as DrawMesh: view vector from the camera position.
			n := p1.Sub(p0).Cross(p2.Sub(p0))
			if n.Dot(p0) > 0 {
				continue
			}
		}

		s0, s1, s2 := v.Project(p0), v.Project(p1), v.Project(p2)
		x0, y0 := int(math.Floor(s0.X)), int(math.Floor(s0.Y))
		x1, y1 := int(math.Floor(s1.X)), int(math.Floor(s1.Y))
		x2, y2 := int(math.Floor(s2.X)), int(math.Floor(s2.Y))
		v.fb.DrawLine(x0, y0, x1, y1, WireframeColor)
		v.fb.DrawLine(x1, y1, x2, y2, WireframeColor)
		v.fb.DrawLine(x2, y2, x0, y0, WireframeColor)
	}
}

func inRange(tri [3]int, n int) bool {
	for _, idx := range tri {
		if idx < 0 || idx >= n {
			return false
		}
	}
	return true
}
