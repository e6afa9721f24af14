package models

import "github.com/taigrr/softrender/pkg/math3d"

// cubeFaces lists each face's outward normal and one in-plane axis.
var cubeFaces = [6][2]math3d.Vec3{
	{{X: 0, Y: 0, Z: -1}, {X: 1, Y: 0, Z: 0}},
	{{X: 0, Y: 0, Z: 1}, {X: -1, Y: 0, Z: 0}},
	{{X: -1, Y: 0, Z: 0}, {X: 0, Y: 0, Z: -1}},
	{{X: 1, Y: 0, Z: 0}, {X: 0, Y: 0, Z: 1}},
	{{X: 0, Y: -1, Z: 0}, {X: 1, Y: 0, Z: 0}},
	{{X: 0, Y: 1, Z: 0}, {X: -1, Y: 0, Z: 0}},
}

// NewCube creates an axis-aligned cube of the given edge length centered
// on the world origin. Faces do not share vertices, so flat and smooth
// normals agree. Each face maps the full [0,1]² texture.
func NewCube(size float64) *Mesh {
	h := size / 2
	vertices := make([]math3d.Vec3, 0, 24)
	triangles := make([][3]int, 0, 12)
	texTris := make([][3]int, 0, 12)

	for _, f := range cubeFaces {
		n, u := f[0], f[1]
		v := u.Cross(n)
		c := n.Scale(h)
		u, v = u.Scale(h), v.Scale(h)

		base := len(vertices)
		vertices = append(vertices,
			c.Sub(u).Sub(v),
			c.Sub(u).Add(v),
			c.Add(u).Add(v),
			c.Add(u).Sub(v),
		)
		triangles = append(triangles,
			[3]int{base, base + 1, base + 2},
			[3]int{base, base + 2, base + 3},
		)
		texTris = append(texTris, [3]int{0, 1, 2}, [3]int{0, 2, 3})
	}

	mesh := NewMesh("cube", vertices, triangles)
	mesh.TexCoords = []math3d.Vec2{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}}
	mesh.TexTris = texTris
	mesh.RecalculateNormals()
	return mesh
}
