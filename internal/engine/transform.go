package engine

import rl "github.com/gen2brain/raylib-go/raylib"

type Transform struct {
	Position rl.Vector3
	Rotation rl.Quaternion
	Scale    rl.Vector3
}

// NewTransform returns an identity transform at position.
func NewTransform(position rl.Vector3) Transform {
	return Transform{
		Position: position,
		Rotation: rl.QuaternionIdentity(),
		Scale:    rl.Vector3One(),
	}
}

// SetEuler sets the rotation from euler angles in degrees (X, Y, Z).
func (t *Transform) SetEuler(degrees rl.Vector3) {
	t.Rotation = rl.QuaternionFromEuler(degrees.X*rl.Deg2rad, degrees.Y*rl.Deg2rad, degrees.Z*rl.Deg2rad)
}

// Euler returns the rotation as euler angles in degrees.
func (t Transform) Euler() rl.Vector3 {
	return rl.Vector3Scale(rl.QuaternionToEuler(t.Rotation), rl.Rad2deg)
}

// TransformPoint maps a local point to world space (scale, rotate, translate).
func (t Transform) TransformPoint(local rl.Vector3) rl.Vector3 {
	scaled := rl.Vector3Multiply(local, t.Scale)
	return rl.Vector3Add(t.Position, rl.Vector3RotateByQuaternion(scaled, t.Rotation))
}

// InverseTransformPoint maps a world point back to local space.
// Zero scale components are treated as 1.
func (t Transform) InverseTransformPoint(world rl.Vector3) rl.Vector3 {
	rel := rl.Vector3Subtract(world, t.Position)
	local := rl.Vector3RotateByQuaternion(rel, rl.QuaternionInvert(t.Rotation))
	return rl.Vector3{
		X: local.X / nonZero(t.Scale.X),
		Y: local.Y / nonZero(t.Scale.Y),
		Z: local.Z / nonZero(t.Scale.Z),
	}
}

// TransformDirection rotates a direction into world space. Scale is ignored.
func (t Transform) TransformDirection(dir rl.Vector3) rl.Vector3 {
	return rl.Vector3RotateByQuaternion(dir, t.Rotation)
}

// InverseTransformDirection rotates a world direction into local space.
func (t Transform) InverseTransformDirection(dir rl.Vector3) rl.Vector3 {
	return rl.Vector3RotateByQuaternion(dir, rl.QuaternionInvert(t.Rotation))
}

// Matrix returns the model matrix in raylib's scale-rotate-translate order.
func (t Transform) Matrix() rl.Matrix {
	scale := rl.MatrixScale(t.Scale.X, t.Scale.Y, t.Scale.Z)
	rot := rl.QuaternionToMatrix(t.Rotation)
	trans := rl.MatrixTranslate(t.Position.X, t.Position.Y, t.Position.Z)
	return rl.MatrixMultiply(rl.MatrixMultiply(scale, rot), trans)
}

func nonZero(v float32) float32 {
	if v == 0 {
		return 1
	}
	return v
}
