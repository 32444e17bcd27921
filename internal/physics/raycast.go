package physics

import (
	"iter"
	"math"
	"slices"

	"rigid3d/internal/collision"

	rl "github.com/gen2brain/raylib-go/raylib"
)

type RaycastHit struct {
	Body     Body
	Shape    int // index into the body's shapes
	Point    rl.Vector3
	Normal   rl.Vector3
	Distance float32
}

// Raycast returns the closest hit along the ray within maxDistance. Spheres are
// hit exactly; every other shape is hit on its oriented bounding box. Rays that
// start inside a box report the exit point.
func Raycast(bodies iter.Seq[Body], origin, direction rl.Vector3, maxDistance float32) (RaycastHit, bool) {
	direction = rl.Vector3Normalize(direction)
	var closestHit RaycastHit
	closestHit.Distance = maxDistance
	hit := false

	for b := range bodies {
		rb := b.RigidBody
		if !rb.HasShapes() {
			continue
		}
		shapes := rb.Shapes().Shapes
		for i := range rb.HalfExtents {
			var hitInfo RaycastHit
			var ok bool
			if shapes[i].Kind == collision.ShapeSphere {
				hitInfo, ok = raycastSphere(origin, direction, &shapes[i], rb.HalfExtents[i].OBB, maxDistance)
			} else {
				hitInfo, ok = raycastBox(origin, direction, rb.HalfExtents[i].OBB, maxDistance)
			}
			if ok && hitInfo.Distance < closestHit.Distance {
				closestHit = hitInfo
				closestHit.Body = b
				closestHit.Shape = i
				hit = true
			}
		}
	}

	return closestHit, hit
}

// Raycast casts against the bodies of the last Step.
func (p *PhysicsWorld) Raycast(origin, direction rl.Vector3, maxDistance float32) (RaycastHit, bool) {
	return Raycast(slices.Values(p.bodies), origin, direction, maxDistance)
}

func raycastBox(origin, direction rl.Vector3, box collision.OBB, maxDistance float32) (RaycastHit, bool) {
	t, ok := box.RayIntersect(origin, direction)
	if !ok || t < 0 || t > maxDistance {
		return RaycastHit{}, false
	}
	point := rl.Vector3Add(origin, rl.Vector3Scale(direction, t))

	// Normal of the face the point lies on: the axis where it sits closest to
	// the box surface relative to the half size.
	local := rl.Vector3Subtract(point, box.Center)
	half := [3]float32{box.HalfSize.X, box.HalfSize.Y, box.HalfSize.Z}
	best, bestRatio := 0, float32(-1)
	sign := float32(1)
	for i := 0; i < 3; i++ {
		if half[i] <= 0 {
			continue
		}
		d := rl.Vector3DotProduct(local, box.Axes[i])
		r := float32(math.Abs(float64(d))) / half[i]
		if r > bestRatio {
			best, bestRatio = i, r
			sign = 1
			if d < 0 {
				sign = -1
			}
		}
	}
	normal := rl.Vector3Scale(box.Axes[best], sign)

	return RaycastHit{Point: point, Normal: normal, Distance: t}, true
}

// raycastSphere treats the sphere as round with the largest scaled radius of
// its box.
func raycastSphere(origin, direction rl.Vector3, s *collision.CollisionShape, box collision.OBB, maxDistance float32) (RaycastHit, bool) {
	center := box.Center
	radius := max(box.HalfSize.X, box.HalfSize.Y, box.HalfSize.Z)
	if radius <= 0 {
		radius = s.Radius
	}

	oc := rl.Vector3Subtract(origin, center)
	b := rl.Vector3DotProduct(oc, direction)
	c := rl.Vector3DotProduct(oc, oc) - radius*radius

	discriminant := b*b - c
	if discriminant < 0 {
		return RaycastHit{}, false
	}

	root := float32(math.Sqrt(float64(discriminant)))
	t := -b - root
	if t < 0 {
		t = -b + root
	}
	if t < 0 || t > maxDistance {
		return RaycastHit{}, false
	}

	point := rl.Vector3Add(origin, rl.Vector3Scale(direction, t))
	normal := rl.Vector3Normalize(rl.Vector3Subtract(point, center))

	return RaycastHit{Point: point, Normal: normal, Distance: t}, true
}
