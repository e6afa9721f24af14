package main

import (
	"math"
	"testing"

	"github.com/taigrr/softrender/pkg/math3d"
)

func TestRotationAxisDecays(t *testing.T) {
	axis := NewRotationAxis(60)
	axis.Velocity = 0.1

	prev := axis.Position
	for range 600 {
		axis.Update()
		if axis.Position < prev {
			t.Fatalf("position went backwards: %v after %v", axis.Position, prev)
		}
		prev = axis.Position
	}

	if math.Abs(axis.Velocity) > 1e-4 {
		t.Errorf("velocity after 10s = %v, want ~0", axis.Velocity)
	}
	if axis.Position <= 0.1 {
		t.Errorf("position = %v, want more than one frame of travel", axis.Position)
	}
}

func TestRotationState(t *testing.T) {
	r := NewRotationState(60)
	if r.Spinning() {
		t.Error("new state is spinning")
	}

	r.ApplyImpulse(0.1, -0.2, 0.3)
	if r.Pitch.Velocity != 0.1 || r.Yaw.Velocity != -0.2 || r.Roll.Velocity != 0.3 {
		t.Errorf("velocities %v %v %v", r.Pitch.Velocity, r.Yaw.Velocity, r.Roll.Velocity)
	}
	if !r.Spinning() {
		t.Error("state with velocity is not spinning")
	}

	r.Update()
	if r.Pitch.Position != 0.1 || r.Yaw.Position != -0.2 || r.Roll.Position != 0.3 {
		t.Errorf("positions %v %v %v", r.Pitch.Position, r.Yaw.Position, r.Roll.Position)
	}

	r.Reset()
	if r.Pitch.Position != 0 || r.Yaw.Velocity != 0 || r.Spinning() {
		t.Error("Reset left motion behind")
	}

	// A reset state decays exactly like a new one.
	fresh := NewRotationState(60)
	r.ApplyImpulse(0, 0.2, 0)
	fresh.ApplyImpulse(0, 0.2, 0)
	for range 30 {
		r.Update()
		fresh.Update()
	}
	if r.Yaw != fresh.Yaw {
		t.Errorf("reset yaw %+v, fresh %+v", r.Yaw, fresh.Yaw)
	}
}

func TestScreenToLight(t *testing.T) {
	tests := []struct {
		name string
		x, y int
		want math3d.Vec3
	}{
		{"center", 40, 12, math3d.V3(0, 0, -1)},
		{"right edge", 80, 12, math3d.V3(1, 0, 0)},
		{"top edge", 40, 0, math3d.V3(0, -1, 0)},
		{"far corner", 80, 24, math3d.V3(1, 1, 0).Normalize()},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := screenToLight(tc.x, tc.y, 80, 24)
			if !got.ApproxEqual(tc.want, 1e-9) {
				t.Errorf("screenToLight(%d,%d) = %v, want %v", tc.x, tc.y, got, tc.want)
			}
			if math.Abs(got.Len()-1) > 1e-9 {
				t.Errorf("not unit length: %v", got.Len())
			}
		})
	}

	if got := screenToLight(1, 1, 0, 0); got != math3d.V3(0, 0, -1) {
		t.Errorf("empty screen gave %v", got)
	}
}
