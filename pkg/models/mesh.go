// Package models provides the triangle mesh and the loaders that build
// one from OBJ or glTF files.
package models

import (
	"errors"
	"fmt"

	"github.com/taigrr/softrender/pkg/math3d"
	"github.com/taigrr/softrender/pkg/texture"
)

// ErrInvalidMesh is wrapped by every error Validate returns.
var ErrInvalidMesh = errors.New("invalid mesh")

// Mesh is an indexed triangle mesh.
//
// Texture coordinates are indexed separately from vertices: TexTris[i]
// names the texcoords of the three corners of Triangles[i]. FaceNormals
// has one entry per triangle and VertexNormals one per vertex.
//
// Triangles are expected clockwise as seen from the camera, so that
// (p2-p1)×(p3-p1) points toward it.
type Mesh struct {
	Name string

	Vertices      []math3d.Vec3
	Triangles     [][3]int
	TexCoords     []math3d.Vec2
	TexTris       [][3]int
	FaceNormals   []math3d.Vec3
	VertexNormals []math3d.Vec3

	// Pivot for rotation and scaling.
	Origin math3d.Vec3

	Material      Material
	Texture       *texture.Texture
	CullBackfaces bool
}

// NewMesh creates a mesh from positions and vertex-index triangles. Every
// corner maps to a single (0,0) texcoord and all normals start at zero;
// call RecalculateNormals before lighting it.
func NewMesh(name string, vertices []math3d.Vec3, triangles [][3]int) *Mesh {
	return &Mesh{
		Name:          name,
		Vertices:      vertices,
		Triangles:     triangles,
		TexCoords:     []math3d.Vec2{{}},
		TexTris:       make([][3]int, len(triangles)),
		FaceNormals:   make([]math3d.Vec3, len(triangles)),
		VertexNormals: make([]math3d.Vec3, len(vertices)),
		Material:      MissingMaterial(),
		Texture:       texture.Missing(10, 10, 2),
		CullBackfaces: true,
	}
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Triangles)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// Validate reports the first broken length or index invariant.
func (m *Mesh) Validate() error {
	if len(m.FaceNormals) != len(m.Triangles) {
		return fmt.Errorf("%w: %d face normals for %d triangles", ErrInvalidMesh, len(m.FaceNormals), len(m.Triangles))
	}
	if len(m.TexTris) != len(m.Triangles) {
		return fmt.Errorf("%w: %d tex triangles for %d triangles", ErrInvalidMesh, len(m.TexTris), len(m.Triangles))
	}
	if len(m.VertexNormals) != len(m.Vertices) {
		return fmt.Errorf("%w: %d vertex normals for %d vertices", ErrInvalidMesh, len(m.VertexNormals), len(m.Vertices))
	}
	for i, tri := range m.Triangles {
		for _, idx := range tri {
			if idx < 0 || idx >= len(m.Vertices) {
				return fmt.Errorf("%w: triangle %d references vertex %d of %d", ErrInvalidMesh, i, idx, len(m.Vertices))
			}
		}
	}
	for i, tri := range m.TexTris {
		for _, idx := range tri {
			if idx < 0 || idx >= len(m.TexCoords) {
				return fmt.Errorf("%w: triangle %d references texcoord %d of %d", ErrInvalidMesh, i, idx, len(m.TexCoords))
			}
		}
	}
	return nil
}

// Translate moves every vertex and the origin by v.
func (m *Mesh) Translate(v math3d.Vec3) {
	for i := range m.Vertices {
		m.Vertices[i] = m.Vertices[i].Add(v)
	}
	m.Origin = m.Origin.Add(v)
}

// Scale multiplies every vertex elementwise by v about the origin. Normals
// follow through the normal matrix of the scale.
func (m *Mesh) Scale(v math3d.Vec3) {
	for i := range m.Vertices {
		m.Vertices[i] = m.Vertices[i].Sub(m.Origin).Mul(v).Add(m.Origin)
	}
	nm := math3d.Scale(v).NormalMatrix()
	for i, n := range m.VertexNormals {
		m.VertexNormals[i] = nm.MulVec3Dir(n).Normalize()
	}
	for i, n := range m.FaceNormals {
		m.FaceNormals[i] = nm.MulVec3Dir(n).Normalize()
	}
}

// RotateX rotates the mesh about the X axis through its origin.
func (m *Mesh) RotateX(angle float64) {
	m.rotate(math3d.RotateX(angle))
}

// RotateY rotates the mesh about the Y axis through its origin.
func (m *Mesh) RotateY(angle float64) {
	m.rotate(math3d.RotateY(angle))
}

// RotateZ rotates the mesh about the Z axis through its origin.
func (m *Mesh) RotateZ(angle float64) {
	m.rotate(math3d.RotateZ(angle))
}

func (m *Mesh) rotate(rot math3d.Mat4) {
	about := rot.About(m.Origin)
	for i := range m.Vertices {
		m.Vertices[i] = about.MulVec3(m.Vertices[i])
	}
	for i := range m.VertexNormals {
		m.VertexNormals[i] = rot.MulVec3Dir(m.VertexNormals[i])
	}
	for i := range m.FaceNormals {
		m.FaceNormals[i] = rot.MulVec3Dir(m.FaceNormals[i])
	}
}

// Rotate reflects every vertex across a and then across b, relative to
// the origin. The result is a rotation about a×b by twice the angle
// between a and b. Normals go through the same reflections and stay valid.
func (m *Mesh) Rotate(a, b math3d.Vec3) {
	for i, v := range m.Vertices {
		m.Vertices[i] = v.Sub(m.Origin).RotateBetween(a, b).Add(m.Origin)
	}
	for i, n := range m.VertexNormals {
		m.VertexNormals[i] = n.RotateBetween(a, b)
	}
	for i, n := range m.FaceNormals {
		m.FaceNormals[i] = n.RotateBetween(a, b)
	}
}

// Transform applies mat to every vertex and the origin in world space.
// Vertex normals go through the normal matrix so authored normals survive
// non-uniform scales; face normals are recomputed from the winding.
func (m *Mesh) Transform(mat math3d.Mat4) {
	for i := range m.Vertices {
		m.Vertices[i] = mat.MulVec3(m.Vertices[i])
	}
	m.Origin = mat.MulVec3(m.Origin)

	if len(m.VertexNormals) != len(m.Vertices) || len(m.FaceNormals) != len(m.Triangles) {
		m.RecalculateNormals()
		return
	}
	nm := mat.NormalMatrix()
	for i, n := range m.VertexNormals {
		m.VertexNormals[i] = nm.MulVec3Dir(n).Normalize()
	}
	m.RecalculateFaceNormals()
}

// RecalculateNormals recomputes face normals from the winding and sets
// each vertex normal to the normalized sum of its faces' normals.
// A vertex that no triangle references gets the zero vector.
func (m *Mesh) RecalculateNormals() {
	if len(m.VertexNormals) != len(m.Vertices) {
		m.VertexNormals = make([]math3d.Vec3, len(m.Vertices))
	}
	for i := range m.VertexNormals {
		m.VertexNormals[i] = math3d.Zero3()
	}

	m.RecalculateFaceNormals()
	for i, tri := range m.Triangles {
		for _, idx := range tri {
			m.VertexNormals[idx] = m.VertexNormals[idx].Add(m.FaceNormals[i])
		}
	}

	for i := range m.VertexNormals {
		m.VertexNormals[i] = m.VertexNormals[i].Normalize()
	}
}

// RecalculateFaceNormals recomputes only the face normals, leaving the
// vertex normals as they are.
func (m *Mesh) RecalculateFaceNormals() {
	if len(m.FaceNormals) != len(m.Triangles) {
		m.FaceNormals = make([]math3d.Vec3, len(m.Triangles))
	}
	for i, tri := range m.Triangles {
		p1, p2, p3 := m.Vertices[tri[0]], m.Vertices[tri[1]], m.Vertices[tri[2]]
		m.FaceNormals[i] = p2.Sub(p1).Cross(p3.Sub(p1)).Normalize()
	}
}

// HasVertexNormals reports whether every vertex a triangle uses carries a
// non-zero normal.
func (m *Mesh) HasVertexNormals() bool {
	if len(m.VertexNormals) != len(m.Vertices) {
		return false
	}
	for _, tri := range m.Triangles {
		for _, idx := range tri {
			if m.VertexNormals[idx] == (math3d.Vec3{}) {
				return false
			}
		}
	}
	return true
}

// Center returns the mean of the vertices.
func (m *Mesh) Center() math3d.Vec3 {
	if len(m.Vertices) == 0 {
		return math3d.Zero3()
	}
	sum := math3d.Zero3()
	for _, v := range m.Vertices {
		sum = sum.Add(v)
	}
	return sum.Div(float64(len(m.Vertices)))
}

// Bounds returns the axis-aligned bounding box of the vertices.
func (m *Mesh) Bounds() (lo, hi math3d.Vec3) {
	if len(m.Vertices) == 0 {
		return
	}
	lo, hi = m.Vertices[0], m.Vertices[0]
	for _, v := range m.Vertices[1:] {
		lo = lo.Min(v)
		hi = hi.Max(v)
	}
	return lo, hi
}

// Clone creates a deep copy of the mesh. The texture is shared.
func (m *Mesh) Clone() *Mesh {
	clone := *m
	clone.Vertices = append([]math3d.Vec3(nil), m.Vertices...)
	clone.Triangles = append([][3]int(nil), m.Triangles...)
	clone.TexCoords = append([]math3d.Vec2(nil), m.TexCoords...)
	clone.TexTris = append([][3]int(nil), m.TexTris...)
	clone.FaceNormals = append([]math3d.Vec3(nil), m.FaceNormals...)
	clone.VertexNormals = append([]math3d.Vec3(nil), m.VertexNormals...)
	return &clone
}
