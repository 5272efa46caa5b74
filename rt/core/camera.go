package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// CameraState is a free-flying camera. Yaw/pitch are radians, Y-up.
type CameraState struct {
	Position    mgl32.Vec3
	Yaw         float32
	Pitch       float32
	Fov         float32 // vertical, degrees
	Speed       float32
	Sensitivity float32
}

func NewCameraState() *CameraState {
	return &CameraState{
		Position:    mgl32.Vec3{4.57, 0.75, -3.16},
		Yaw:         float32(math.Pi),
		Pitch:       0,
		Fov:         45.0,
		Speed:       4.0,
		Sensitivity: 0.0025,
	}
}

func (c *CameraState) Forward() mgl32.Vec3 {
	cp := float32(math.Cos(float64(c.Pitch)))
	return mgl32.Vec3{
		cp * float32(math.Sin(float64(c.Yaw))),
		float32(math.Sin(float64(c.Pitch))),
		cp * float32(math.Cos(float64(c.Yaw))),
	}
}

func (c *CameraState) Right() mgl32.Vec3 {
	return c.Forward().Cross(mgl32.Vec3{0, 1, 0}).Normalize()
}

func (c *CameraState) Up() mgl32.Vec3 {
	return c.Right().Cross(c.Forward()).Normalize()
}

// ClampPitch keeps the camera from flipping over the poles.
func (c *CameraState) ClampPitch() {
	limit := float32(math.Pi/2 - 0.01)
	if c.Pitch > limit {
		c.Pitch = limit
	}
	if c.Pitch < -limit {
		c.Pitch = -limit
	}
}

// Snapshot captures the pose fields that invalidate progressive
// accumulation when they change.
type CameraSnapshot struct {
	Position mgl32.Vec3
	Yaw      float32
	Pitch    float32
	Fov      float32
}

func (c *CameraState) Snapshot() CameraSnapshot {
	return CameraSnapshot{Position: c.Position, Yaw: c.Yaw, Pitch: c.Pitch, Fov: c.Fov}
}
