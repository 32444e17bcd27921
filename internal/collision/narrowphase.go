package collision

import (
	"rigid3d/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// TestCollision runs GJK and EPA on two placed shapes. The returned normal points
// from a towards b. Shapes without a support function never collide.
func TestCollision(a *CollisionShape, ta engine.Transform, b *CollisionShape, tb engine.Transform) Manifold {
	if !a.Collidable() || !b.Collidable() {
		return Manifold{}
	}
	pair := shapePair{a: a, b: b, ta: ta, tb: tb}
	var s simplex
	if !gjk(&pair, &s) {
		return Manifold{}
	}
	m := epa(&pair, &s)
	if !m.HasCollision {
		return m
	}
	refineFlatContact(&pair, &m)
	return m
}

// refineFlatContact moves the witness points of a face or edge contact to the
// centroid of the smaller touching feature.
func refineFlatContact(p *shapePair, m *Manifold) {
	featA := p.a.contactFeature(p.ta, m.Normal)
	featB := p.b.contactFeature(p.tb, rl.Vector3Negate(m.Normal))
	if len(featA) <= 1 && len(featB) <= 1 {
		return
	}

	ca, spreadA := centroid(featA)
	cb, spreadB := centroid(featB)
	offset := rl.Vector3Scale(m.Normal, m.CollisionDepth)
	if len(featB) == 0 || (len(featA) > 0 && spreadA <= spreadB) {
		cb = rl.Vector3Subtract(ca, offset)
	} else {
		ca = rl.Vector3Add(cb, offset)
	}

	refined := *m
	refined.ContactPointA = ca
	refined.ContactPointB = cb
	refined.LocalContactPointA = p.ta.InverseTransformPoint(ca)
	refined.LocalContactPointB = p.tb.InverseTransformPoint(cb)
	if refined.Valid() {
		*m = refined
	}
}

// centroid returns the mean of pts and their largest distance from it.
func centroid(pts []rl.Vector3) (rl.Vector3, float32) {
	if len(pts) == 0 {
		return rl.Vector3{}, 0
	}
	var c rl.Vector3
	for _, p := range pts {
		c = rl.Vector3Add(c, p)
	}
	c = rl.Vector3Scale(c, 1/float32(len(pts)))
	var spread float32
	for _, p := range pts {
		if d := rl.Vector3Distance(p, c); d > spread {
			spread = d
		}
	}
	return c, spread
}
