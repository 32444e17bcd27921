package camera

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// OrbitCamera circles a target point. Yaw and pitch are in degrees.
type OrbitCamera struct {
	Target    rl.Vector3
	Distance  float32
	Yaw       float32
	Pitch     float32
	LookSpeed float32
	PanSpeed  float32
	ZoomSpeed float32

	MinDistance float32
	MaxDistance float32
}

func New(target rl.Vector3, distance float32) *OrbitCamera {
	return &OrbitCamera{
		Target:      target,
		Distance:    distance,
		Yaw:         -135.0,
		Pitch:       30.0,
		LookSpeed:   0.3,
		PanSpeed:    0.002, // scaled by distance
		ZoomSpeed:   0.1,
		MinDistance: 1,
		MaxDistance: 500,
	}
}

// Update handles input: right drag orbits, middle drag pans, the wheel zooms.
func (c *OrbitCamera) Update() {
	mouseDelta := rl.GetMouseDelta()

	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		c.Orbit(mouseDelta.X*c.LookSpeed, mouseDelta.Y*c.LookSpeed)
	}
	if rl.IsMouseButtonDown(rl.MouseButtonMiddle) {
		c.Pan(-mouseDelta.X, mouseDelta.Y)
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		c.Zoom(wheel)
	}
}

// Orbit rotates around the target. Pitch stays clear of the poles.
func (c *OrbitCamera) Orbit(dYaw, dPitch float32) {
	c.Yaw += dYaw
	c.Pitch += dPitch

	if c.Pitch > 89 {
		c.Pitch = 89
	}
	if c.Pitch < -89 {
		c.Pitch = -89
	}
}

// Pan slides the target in the view plane, faster when zoomed out.
func (c *OrbitCamera) Pan(dx, dy float32) {
	right, up := c.getDirections()
	scale := c.PanSpeed * c.Distance
	c.Target = rl.Vector3Add(c.Target, rl.Vector3Scale(right, dx*scale))
	c.Target = rl.Vector3Add(c.Target, rl.Vector3Scale(up, dy*scale))
}

// Zoom moves toward the target by a fraction of the current distance.
func (c *OrbitCamera) Zoom(steps float32) {
	c.Distance *= 1 - steps*c.ZoomSpeed
	c.Distance = max(c.MinDistance, min(c.Distance, c.MaxDistance))
}

// Position is the eye point on the orbit sphere.
func (c *OrbitCamera) Position() rl.Vector3 {
	yawRad := float64(c.Yaw) * math.Pi / 180
	pitchRad := float64(c.Pitch) * math.Pi / 180

	offset := rl.Vector3{
		X: float32(math.Cos(yawRad) * math.Cos(pitchRad)),
		Y: float32(math.Sin(pitchRad)),
		Z: float32(math.Sin(yawRad) * math.Cos(pitchRad)),
	}
	return rl.Vector3Add(c.Target, rl.Vector3Scale(offset, c.Distance))
}

func (c *OrbitCamera) getDirections() (right, up rl.Vector3) {
	forward := rl.Vector3Normalize(rl.Vector3Subtract(c.Target, c.Position()))
	right = rl.Vector3Normalize(rl.Vector3CrossProduct(forward, rl.Vector3{Y: 1}))
	up = rl.Vector3CrossProduct(right, forward)
	return
}

func (c *OrbitCamera) GetRaylibCamera() rl.Camera3D {
	return rl.Camera3D{
		Position:   c.Position(),
		Target:     c.Target,
		Up:         rl.Vector3{X: 0, Y: 1, Z: 0},
		Fovy:       45,
		Projection: rl.CameraPerspective,
	}
}
