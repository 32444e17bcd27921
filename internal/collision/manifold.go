package collision

import rl "github.com/gen2brain/raylib-go/raylib"

// Manifold is the result of a narrow-phase test. The zero value means no contact.
type Manifold struct {
	HasCollision   bool
	CollisionDepth float32
	Normal         rl.Vector3 // unit, from A towards B

	ContactPointA rl.Vector3 // world
	ContactPointB rl.Vector3
	// Witness points in each body's local space, used to re-derive the world
	// points after the bodies move.
	LocalContactPointA rl.Vector3
	LocalContactPointB rl.Vector3
}

// Flipped returns the same contact seen from B.
func (m Manifold) Flipped() Manifold {
	if !m.HasCollision {
		return m
	}
	return Manifold{
		HasCollision:       true,
		CollisionDepth:     m.CollisionDepth,
		Normal:             rl.Vector3Negate(m.Normal),
		ContactPointA:      m.ContactPointB,
		ContactPointB:      m.ContactPointA,
		LocalContactPointA: m.LocalContactPointB,
		LocalContactPointB: m.LocalContactPointA,
	}
}

// Valid reports whether every field is finite.
func (m Manifold) Valid() bool {
	if !finite(m.CollisionDepth) {
		return false
	}
	for _, v := range [...]rl.Vector3{m.Normal, m.ContactPointA, m.ContactPointB, m.LocalContactPointA, m.LocalContactPointB} {
		if !finite(v.X) || !finite(v.Y) || !finite(v.Z) {
			return false
		}
	}
	return true
}
