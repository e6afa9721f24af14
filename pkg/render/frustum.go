package render

import (
	"github.com/taigrr/softrender/pkg/math3d"
	"github.com/taigrr/softrender/pkg/models"
)

// Plane represents a plane in 3D space using the equation: Ax + By + Cz + D = 0
// where (A, B, C) is the normal.
type Plane struct {
	Normal math3d.Vec3
	D      float64
}

// NewPlane creates the plane through point with the given normal. The
// normal is normalized, so DistanceToPoint returns true distances.
func NewPlane(point, normal math3d.Vec3) Plane {
	n := normal.Normalize()
	return Plane{Normal: n, D: -n.Dot(point)}
}

// Normalize normalizes the plane equation so the normal has unit length.
func (p *Plane) Normalize() {
	l := p.Normal.Len()
	if l == 0 {
		return
	}
	p.Normal = p.Normal.Scale(1.0 / l)
	p.D /= l
}

// DistanceToPoint returns the signed distance from the plane to a point.
// Positive = in front (same side as normal), negative = behind.
func (p Plane) DistanceToPoint(point math3d.Vec3) float64 {
	return p.Normal.Dot(point) + p.D
}

// Frustum represents the 6 planes of a view frustum.
// Planes are ordered: Left, Right, Bottom, Top, Near, Far.
// Each plane's normal points inward (toward the center of the frustum).
type Frustum struct {
	Planes [6]Plane
}

// FrustumPlane indices for clarity.
const (
	FrustumLeft = iota
	FrustumRight
	FrustumBottom
	FrustumTop
	FrustumNear
	FrustumFar
)

// NewPinholeFrustum builds the frustum of a camera at the origin looking
// down +Z that projects (x, y, z) to (x·f/z + w/2, y·f/z + h/2). The side
// planes pass through the origin and the viewport edges. "Bottom" is the
// y = 0 row, which is the top of the image.
func NewPinholeFrustum(width, height int, focal, near, far float64) Frustum {
	hw, hh := float64(width)/2, float64(height)/2

	var f Frustum
	f.Planes[FrustumLeft] = Plane{Normal: math3d.V3(focal, 0, hw)}
	f.Planes[FrustumRight] = Plane{Normal: math3d.V3(-focal, 0, hw)}
	f.Planes[FrustumBottom] = Plane{Normal: math3d.V3(0, focal, hh)}
	f.Planes[FrustumTop] = Plane{Normal: math3d.V3(0, -focal, hh)}
	f.Planes[FrustumNear] = NewPlane(math3d.V3(0, 0, near), math3d.Forward())
	f.Planes[FrustumFar] = NewPlane(math3d.V3(0, 0, far), math3d.Forward().Negate())

	for i := range f.Planes {
		f.Planes[i].Normalize()
	}
	return f
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min math3d.Vec3
	Max math3d.Vec3
}

// NewAABB creates an AABB from min and max points.
func NewAABB(min, max math3d.Vec3) AABB {
	return AABB{Min: min, Max: max}
}

// MeshAABB returns the bounds of a mesh's vertices.
func MeshAABB(mesh *models.Mesh) AABB {
	lo, hi := mesh.Bounds()
	return AABB{Min: lo, Max: hi}
}

// corner returns the box corner furthest along n, or the nearest one when
// far is false.
func (b AABB) corner(n math3d.Vec3, far bool) math3d.Vec3 {
	pick := func(positive bool, lo, hi float64) float64 {
		if positive == far {
			return hi
		}
		return lo
	}
	return math3d.V3(
		pick(n.X >= 0, b.Min.X, b.Max.X),
		pick(n.Y >= 0, b.Min.Y, b.Max.Y),
		pick(n.Z >= 0, b.Min.Z, b.Max.Z),
	)
}

// IntersectAABB reports whether box is at least partly inside the frustum.
// It is conservative: a box near a frustum corner may pass without being
// visible.
func (f Frustum) IntersectAABB(box AABB) bool {
	for _, plane := range f.Planes {
		if plane.DistanceToPoint(box.corner(plane.Normal, true)) < 0 {
			return false
		}
	}
	return true
}

// ContainsAABB reports whether box is entirely inside the frustum.
func (f Frustum) ContainsAABB(box AABB) bool {
	for _, plane := range f.Planes {
		if plane.DistanceToPoint(box.corner(plane.Normal, false)) < 0 {
			return false
		}
	}
	return true
}
