package main

import (
	"math"

	"github.com/charmbracelet/harmonica"
	"github.com/taigrr/softrender/pkg/math3d"
)

// RotationAxis tracks position and velocity for one rotation axis with spring decay
type RotationAxis struct {
	Position  float64
	Velocity  float64
	velSpring harmonica.Spring
	velAccel  float64 // Spring velocity of Velocity itself
}

// NewRotationAxis creates an axis whose velocity decays smoothly to zero.
func NewRotationAxis(fps int) RotationAxis {
	return RotationAxis{
		// Critically damped, so the spin slows without reversing.
		velSpring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0),
	}
}

// Update advances one frame.
func (a *RotationAxis) Update() {
	a.Position += a.Velocity
	a.Velocity, a.velAccel = a.velSpring.Update(a.Velocity, a.velAccel, 0)
}

// RotationState holds pitch, yaw and roll, in radians.
type RotationState struct {
	Pitch, Yaw, Roll RotationAxis
	fps              int
}

// NewRotationState returns a resting state whose axes decay at fps.
func NewRotationState(fps int) *RotationState {
	return &RotationState{
		Pitch: NewRotationAxis(fps),
		Yaw:   NewRotationAxis(fps),
		Roll:  NewRotationAxis(fps),
		fps:   fps,
	}
}

func (r *RotationState) axes() [3]*RotationAxis {
	return [3]*RotationAxis{&r.Pitch, &r.Yaw, &r.Roll}
}

// Update advances every axis one frame.
func (r *RotationState) Update() {
	for _, a := range r.axes() {
		a.Update()
	}
}

// ApplyImpulse adds to the angular velocity of each axis, in radians per
// frame.
func (r *RotationState) ApplyImpulse(pitch, yaw, roll float64) {
	r.Pitch.Velocity += pitch
	r.Yaw.Velocity += yaw
	r.Roll.Velocity += roll
}

// Reset returns to the rest pose with no motion.
func (r *RotationState) Reset() {
	*r = *NewRotationState(r.fps)
}

// Spinning reports whether any axis still moves noticeably.
func (r *RotationState) Spinning() bool {
	const eps = 1e-4
	for _, a := range r.axes() {
		if math.Abs(a.Velocity) > eps {
			return true
		}
	}
	return false
}

// screenToLight maps a cell on a width×height screen onto a hemisphere
// facing the model: the center puts the light behind the camera and the
// edges put it level with the model.
func screenToLight(x, y, width, height int) math3d.Vec3 {
	if width <= 0 || height <= 0 {
		return math3d.V3(0, 0, -1)
	}
	nx := (float64(x)/float64(width))*2 - 1
	ny := (float64(y)/float64(height))*2 - 1

	lenSq := nx*nx + ny*ny
	if lenSq > 1 {
		l := math.Sqrt(lenSq)
		nx /= l
		ny /= l
		lenSq = 1
	}
	nz := math.Sqrt(1 - lenSq)

	// Camera space is y-down and the camera looks down +Z.
	return math3d.V3(nx, ny, -nz).Normalize()
}
