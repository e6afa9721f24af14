package math3d

import (
	"math"
	"testing"
)

func TestRotationMatrices(t *testing.T) {
	tests := []struct {
		name string
		m    Mat4
		v    Vec3
		want Vec3
	}{
		{"x quarter turn", RotateX(math.Pi / 2), V3(0, 1, 0), V3(0, 0, 1)},
		{"y quarter turn", RotateY(math.Pi / 2), V3(0, 0, 1), V3(1, 0, 0)},
		{"z quarter turn", RotateZ(math.Pi / 2), V3(1, 0, 0), V3(0, 1, 0)},
		{"axis angle matches z", Rotate(V3(0, 0, 2), math.Pi/2), V3(1, 0, 0), V3(0, 1, 0)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.m.MulVec3Dir(tc.v)
			if !got.ApproxEqual(tc.want, 1e-9) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMat4About(t *testing.T) {
	m := RotateZ(math.Pi / 2).About(V3(1, 0, 0))

	got := m.MulVec3(V3(2, 0, 0))
	if !got.ApproxEqual(V3(1, 1, 0), 1e-9) {
		t.Errorf("rotation about pivot = %v, want (1, 1, 0)", got)
	}

	if pivot := m.MulVec3(V3(1, 0, 0)); !pivot.ApproxEqual(V3(1, 0, 0), 1e-9) {
		t.Errorf("pivot moved to %v", pivot)
	}
}

func TestMat4MulTranslate(t *testing.T) {
	m := Translate(V3(1, 2, 3)).Mul(Scale(V3(2, 2, 2)))
	got := m.MulVec3(V3(1, 1, 1))
	if !got.ApproxEqual(V3(3, 4, 5), 1e-12) {
		t.Errorf("got %v, want (3, 4, 5)", got)
	}

	dir := m.MulVec3Dir(V3(1, 0, 0))
	if !dir.ApproxEqual(V3(2, 0, 0), 1e-12) {
		t.Errorf("direction ignored translation incorrectly: %v", dir)
	}
}

func TestNormalMatrix(t *testing.T) {
	// Stretching x by 2 tilts the normal of the plane x+y=c toward y.
	m := Scale(V3(2, 1, 1))
	n := m.NormalMatrix().MulVec3Dir(V3(1, 1, 0)).Normalize()
	want := V3(1, 2, 0).Normalize()
	if !n.ApproxEqual(want, 1e-9) {
		t.Errorf("normal = %v, want %v", n, want)
	}

	// Pure rotations map normals like directions.
	r := RotateY(0.7)
	got := r.NormalMatrix().MulVec3Dir(V3(0, 0, 1))
	if !got.ApproxEqual(r.MulVec3Dir(V3(0, 0, 1)), 1e-9) {
		t.Errorf("rotation normal = %v, want %v", got, r.MulVec3Dir(V3(0, 0, 1)))
	}
}
