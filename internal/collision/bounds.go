package collision

import (
	"math"

	"rigid3d/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// AABB is a world-space axis-aligned box.
type AABB struct {
	Min rl.Vector3
	Max rl.Vector3
}

func (a AABB) Intersects(b AABB) bool {
	return a.Min.X <= b.Max.X && a.Max.X >= b.Min.X &&
		a.Min.Y <= b.Max.Y && a.Max.Y >= b.Min.Y &&
		a.Min.Z <= b.Max.Z && a.Max.Z >= b.Min.Z
}

// Center returns the midpoint of the box.
func (a AABB) Center() rl.Vector3 {
	return rl.Vector3Scale(rl.Vector3Add(a.Min, a.Max), 0.5)
}

// Radius is the radius of the sphere through the box corners.
func (a AABB) Radius() float32 {
	return rl.Vector3Length(rl.Vector3Subtract(a.Max, a.Min)) * 0.5
}

// OBB is an oriented bounding box.
type OBB struct {
	Center   rl.Vector3    // World-space center
	HalfSize rl.Vector3    // Half-extents along Axes
	Axes     [3]rl.Vector3 // Unit local X, Y, Z in world space
}

// IntersectsOBB tests two boxes with the Separating Axis Theorem over the 15
// candidate axes: 3 face normals of each box and the 9 edge cross products.
func (a OBB) IntersectsOBB(b OBB) bool {
	t := rl.Vector3Subtract(b.Center, a.Center)

	for i := 0; i < 3; i++ {
		if !overlapOnAxis(a, b, a.Axes[i], t) {
			return false
		}
	}
	for i := 0; i < 3; i++ {
		if !overlapOnAxis(a, b, b.Axes[i], t) {
			return false
		}
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			axis := rl.Vector3CrossProduct(a.Axes[i], b.Axes[j])
			// Parallel edges give no new axis.
			if rl.Vector3Length(axis) > 0.0001 {
				axis = rl.Vector3Normalize(axis)
				if !overlapOnAxis(a, b, axis, t) {
					return false
				}
			}
		}
	}
	return true
}

func (o OBB) projectedRadius(axis rl.Vector3) float32 {
	return o.HalfSize.X*absf(rl.Vector3DotProduct(o.Axes[0], axis)) +
		o.HalfSize.Y*absf(rl.Vector3DotProduct(o.Axes[1], axis)) +
		o.HalfSize.Z*absf(rl.Vector3DotProduct(o.Axes[2], axis))
}

func overlapOnAxis(a, b OBB, axis, t rl.Vector3) bool {
	distance := absf(rl.Vector3DotProduct(t, axis))
	return distance <= a.projectedRadius(axis)+b.projectedRadius(axis)
}

// RayIntersect returns the entry distance of a ray into the box using the slab
// test in box space. dir must be normalized.
func (o OBB) RayIntersect(origin, dir rl.Vector3) (float32, bool) {
	p := rl.Vector3Subtract(o.Center, origin)
	half := [3]float32{o.HalfSize.X, o.HalfSize.Y, o.HalfSize.Z}
	tMin := float32(-math.MaxFloat32)
	tMax := float32(math.MaxFloat32)

	for i := 0; i < 3; i++ {
		e := rl.Vector3DotProduct(o.Axes[i], p)
		f := rl.Vector3DotProduct(o.Axes[i], dir)
		if absf(f) > 1e-6 {
			t1 := (e + half[i]) / f
			t2 := (e - half[i]) / f
			if t1 > t2 {
				t1, t2 = t2, t1
			}
			if t1 > tMin {
				tMin = t1
			}
			if t2 < tMax {
				tMax = t2
			}
			if tMin > tMax || tMax < 0 {
				return 0, false
			}
		} else if -e-half[i] > 0 || -e+half[i] < 0 {
			return 0, false
		}
	}
	if tMin > 0 {
		return tMin, true
	}
	return tMax, true
}

// ClosestPoint returns the point of the box closest to p.
func (o OBB) ClosestPoint(p rl.Vector3) rl.Vector3 {
	local := rl.Vector3Subtract(p, o.Center)
	half := [3]float32{o.HalfSize.X, o.HalfSize.Y, o.HalfSize.Z}
	result := o.Center
	for i := 0; i < 3; i++ {
		d := clampf(rl.Vector3DotProduct(local, o.Axes[i]), -half[i], half[i])
		result = rl.Vector3Add(result, rl.Vector3Scale(o.Axes[i], d))
	}
	return result
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// HalfExtents caches the bounds of one shape under the current body transform.
type HalfExtents struct {
	LocalMin rl.Vector3
	LocalMax rl.Vector3
	Corners  [8]rl.Vector3 // world space
	World    AABB
	OBB      OBB
}

// NewHalfExtents seeds the bounds from a shape's local box.
func NewHalfExtents(s *CollisionShape) HalfExtents {
	return HalfExtents{LocalMin: s.Min, LocalMax: s.Max}
}

// Update recomputes the world corners, AABB and OBB from t.
func (h *HalfExtents) Update(t engine.Transform) {
	lo, hi := h.LocalMin, h.LocalMax
	i := 0
	for _, x := range [2]float32{lo.X, hi.X} {
		for _, y := range [2]float32{lo.Y, hi.Y} {
			for _, z := range [2]float32{lo.Z, hi.Z} {
				h.Corners[i] = t.TransformPoint(rl.Vector3{X: x, Y: y, Z: z})
				i++
			}
		}
	}

	h.World = AABB{Min: h.Corners[0], Max: h.Corners[0]}
	for _, c := range h.Corners[1:] {
		h.World.Min = rl.Vector3Min(h.World.Min, c)
		h.World.Max = rl.Vector3Max(h.World.Max, c)
	}

	scale := t.Scale
	h.OBB = OBB{
		Center: t.TransformPoint(rl.Vector3Scale(rl.Vector3Add(lo, hi), 0.5)),
		HalfSize: rl.Vector3{
			X: absf(scale.X) * (hi.X - lo.X) * 0.5,
			Y: absf(scale.Y) * (hi.Y - lo.Y) * 0.5,
			Z: absf(scale.Z) * (hi.Z - lo.Z) * 0.5,
		},
		Axes: [3]rl.Vector3{
			t.TransformDirection(rl.Vector3{X: 1}),
			t.TransformDirection(rl.Vector3{Y: 1}),
			t.TransformDirection(rl.Vector3{Z: 1}),
		},
	}
}
