package render

import (
	"github.com/taigrr/softrender/pkg/math3d"
	"github.com/taigrr/softrender/pkg/models"
)

// ClipStats counts what one ClipAgainstPlane call did.
type ClipStats struct {
	Kept        int // Triangles entirely inside
	Removed     int // Triangles entirely outside
	Split       int // Triangles partially inside, replaced by Emitted
	Emitted     int // Triangles appended in place of the split ones
	NewVertices int
}

// ClipAgainstPlane clips every triangle of mesh against plane, keeping the
// part on the side the normal points to. A vertex exactly on the plane is
// inside.
//
// Split triangles are removed and their replacements appended, with each
// corner in the slot of the vertex it replaced so winding is preserved.
// Intersection vertices are shared between triangles that cut the same
// edge; their texcoords are not, since a seam may run along the edge.
// Replacement triangles get a zero face normal until the next
// RecalculateNormals.
func ClipAgainstPlane(mesh *models.Mesh, plane Plane) ClipStats {
	var stats ClipStats

	dist := make([]float64, len(mesh.Vertices))
	for i, v := range mesh.Vertices {
		dist[i] = plane.DistanceToPoint(v)
	}

	// Keyed by the unordered vertex pair of the cut edge.
	shared := make(map[[2]int]int)
	cut := func(from, to int) (int, float64) {
		t := -dist[from] / (dist[to] - dist[from])
		key := [2]int{min(from, to), max(from, to)}
		if idx, ok := shared[key]; ok {
			return idx, t
		}
		idx := len(mesh.Vertices)
		mesh.Vertices = append(mesh.Vertices, mesh.Vertices[from].Lerp(mesh.Vertices[to], t))
		mesh.VertexNormals = append(mesh.VertexNormals, mesh.VertexNormals[from].Lerp(mesh.VertexNormals[to], t))
		dist = append(dist, 0)
		shared[key] = idx
		stats.NewVertices++
		return idx, t
	}
	texCut := func(from, to int, t float64) int {
		idx := len(mesh.TexCoords)
		mesh.TexCoords = append(mesh.TexCoords, mesh.TexCoords[from].Lerp(mesh.TexCoords[to], t))
		return idx
	}
	emit := func(tri, tex [3]int) {
		mesh.Triangles = append(mesh.Triangles, tri)
		mesh.TexTris = append(mesh.TexTris, tex)
		mesh.FaceNormals = append(mesh.FaceNormals, math3d.Vec3{})
		stats.Emitted++
	}

	n := len(mesh.Triangles)
	remove := make([]bool, n)
	for t := range n {
		tri, tex := mesh.Triangles[t], mesh.TexTris[t]

		var inside, outside []int
		for slot, idx := range tri {
			if dist[idx] >= 0 {
				inside = append(inside, slot)
			} else {
				outside = append(outside, slot)
			}
		}

		switch len(inside) {
		case 3:
			stats.Kept++

		case 0:
			remove[t] = true
			stats.Removed++

		case 1:
			i, o1, o2 := inside[0], outside[0], outside[1]
			v1, t1 := cut(tri[o1], tri[i])
			v2, t2 := cut(tri[o2], tri[i])

			newTri, newTex := tri, tex
			newTri[o1], newTri[o2] = v1, v2
			newTex[o1] = texCut(tex[o1], tex[i], t1)
			newTex[o2] = texCut(tex[o2], tex[i], t2)
			emit(newTri, newTex)

			remove[t] = true
			stats.Split++

		case 2:
			i1, i2, o := inside[0], inside[1], outside[0]
			v1, t1 := cut(tri[o], tri[i1])
			v2, t2 := cut(tri[o], tri[i2])

			// (i1, i2, new1) and (new1, i2, new2) in the original slots.
			first, firstTex := tri, tex
			first[o] = v1
			firstTex[o] = texCut(tex[o], tex[i1], t1)

			second, secondTex := tri, tex
			second[i1], second[o] = v1, v2
			secondTex[i1] = texCut(tex[o], tex[i1], t1)
			secondTex[o] = texCut(tex[o], tex[i2], t2)

			emit(first, firstTex)
			emit(second, secondTex)

			remove[t] = true
			stats.Split++
		}
	}

	if stats.Removed+stats.Split == 0 {
		return stats
	}

	// One pass over the three per-triangle slices in lockstep.
	keep := 0
	for t := range mesh.Triangles {
		if t < n && remove[t] {
			continue
		}
		mesh.Triangles[keep] = mesh.Triangles[t]
		mesh.TexTris[keep] = mesh.TexTris[t]
		mesh.FaceNormals[keep] = mesh.FaceNormals[t]
		keep++
	}
	mesh.Triangles = mesh.Triangles[:keep]
	mesh.TexTris = mesh.TexTris[:keep]
	mesh.FaceNormals = mesh.FaceNormals[:keep]
	return stats
}
