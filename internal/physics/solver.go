package physics

import (
	"math"

	"rigid3d/internal/config"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// liveContact is a cached manifold re-evaluated under the current poses.
type liveContact struct {
	pointA rl.Vector3
	pointB rl.Vector3
	normal rl.Vector3
	depth  float32
}

// contactList holds the refreshed contacts of one pair.
type contactList struct {
	items [MaxReducedContacts]liveContact
	n     int
}

func (l *contactList) slice() []liveContact {
	return l.items[:l.n]
}

// refreshContacts maps each reduced manifold's local points back to world space.
// Depth is the separation along the cached normal, positive when overlapping.
func refreshContacts(set *ContactSet, a, b Body) contactList {
	var out contactList
	for _, m := range set.Slice() {
		pa := a.Transform.TransformPoint(m.LocalContactPointA)
		pb := b.Transform.TransformPoint(m.LocalContactPointB)
		out.items[out.n] = liveContact{
			pointA: pa,
			pointB: pb,
			normal: m.Normal,
			depth:  rl.Vector3DotProduct(rl.Vector3Subtract(pa, pb), m.Normal),
		}
		out.n++
	}
	return out
}

// mobility is how a body takes part in one contact solve. Static and sleeping
// bodies have zero inverse mass.
type mobility struct {
	body    Body
	invMass float32
	mobile  bool
}

func mobilityOf(b Body) mobility {
	if !b.RigidBody.Awake() {
		return mobility{body: b}
	}
	return mobility{body: b, invMass: b.RigidBody.InverseMass(), mobile: true}
}

func (m mobility) invInertia(v rl.Vector3) rl.Vector3 {
	if !m.mobile {
		return rl.Vector3{}
	}
	return m.body.RigidBody.InverseInertiaWorld(*m.body.Transform, v)
}

func (m mobility) pointVelocity(arm rl.Vector3) rl.Vector3 {
	if !m.mobile {
		return rl.Vector3{}
	}
	rb := m.body.RigidBody
	return rl.Vector3Add(rb.LinearVelocity, rl.Vector3CrossProduct(rb.AngularVelocity, arm))
}

// apply adds an impulse at arm to a mobile body's velocities.
func (m mobility) apply(impulse, arm rl.Vector3) {
	if !m.mobile {
		return
	}
	rb := m.body.RigidBody
	rb.LinearVelocity = rl.Vector3Add(rb.LinearVelocity, rl.Vector3Scale(impulse, m.invMass))
	rb.AngularVelocity = rl.Vector3Add(rb.AngularVelocity, m.invInertia(rl.Vector3CrossProduct(arm, impulse)))
}

// wakeOnImpact wakes a sleeping body when the other body approaches it faster
// than the wake threshold at any contact.
func wakeOnImpact(a, b Body, contacts []liveContact, threshold float32) {
	ra, rb := a.RigidBody, b.RigidBody
	if ra.IsSleeping() == rb.IsSleeping() {
		return
	}
	ma, mb := mobilityOf(a), mobilityOf(b)
	for _, c := range contacts {
		armA := rl.Vector3Subtract(c.pointA, a.Transform.Position)
		armB := rl.Vector3Subtract(c.pointB, b.Transform.Position)
		rel := rl.Vector3Subtract(ma.pointVelocity(armA), mb.pointVelocity(armB))
		approach := rl.Vector3DotProduct(rel, c.normal)
		if approach > threshold {
			if ra.IsSleeping() {
				ra.Wake()
			} else {
				rb.Wake()
			}
			return
		}
	}
}

// solvePosition pushes the pair apart along the normal of the deepest contact,
// leaving the slop uncorrected. The correction is split by inverse mass.
func solvePosition(a, b Body, contacts []liveContact, s config.Settings) {
	deepest := -1
	for i, c := range contacts {
		if deepest < 0 || c.depth > contacts[deepest].depth {
			deepest = i
		}
	}
	if deepest < 0 {
		return
	}
	c := contacts[deepest]
	correction := s.Correction * max(c.depth-s.Slop, 0)
	if correction <= 0 {
		return
	}

	ma, mb := mobilityOf(a), mobilityOf(b)
	total := ma.invMass + mb.invMass
	if total <= 0 {
		return
	}
	push := rl.Vector3Scale(c.normal, correction/total)
	if ma.mobile {
		a.Transform.Position = rl.Vector3Subtract(a.Transform.Position, rl.Vector3Scale(push, ma.invMass))
		a.RigidBody.UpdateHalfExtents(*a.Transform)
	}
	if mb.mobile {
		b.Transform.Position = rl.Vector3Add(b.Transform.Position, rl.Vector3Scale(push, mb.invMass))
		b.RigidBody.UpdateHalfExtents(*b.Transform)
	}
}

// solveImpulse is a single sequential pass: each contact's impulse is applied
// before the next contact measures its relative velocity. Each contact
// contributes 1/n of its impulse so a full manifold does not overshoot.
func solveImpulse(a, b Body, contacts []liveContact) {
	if len(contacts) == 0 {
		return
	}
	ma, mb := mobilityOf(a), mobilityOf(b)
	if !ma.mobile && !mb.mobile {
		return
	}
	ra, rb := a.RigidBody, b.RigidBody
	restitution := max(ra.Restitution, rb.Restitution)
	friction := float32(math.Sqrt(float64(ra.StaticFriction * rb.StaticFriction)))
	count := float32(len(contacts))

	for _, c := range contacts {
		if c.depth < 0 {
			continue
		}
		n := c.normal
		armA := rl.Vector3Subtract(c.pointA, a.Transform.Position)
		armB := rl.Vector3Subtract(c.pointB, b.Transform.Position)

		// Velocity of B relative to A, measured along the normal from A to B.
		rel := rl.Vector3Subtract(mb.pointVelocity(armB), ma.pointVelocity(armA))
		vn := rl.Vector3DotProduct(rel, n)
		if vn >= 0 {
			continue
		}

		k := effectiveMass(ma, mb, armA, armB, n)
		if k <= 0 {
			continue
		}
		j := -(1 + restitution) * vn / k / count
		impulse := rl.Vector3Scale(n, j)

		tangent := rl.Vector3Subtract(rel, rl.Vector3Scale(n, vn))
		if tl := rl.Vector3Length(tangent); tl > 1e-6 {
			t := rl.Vector3Scale(tangent, 1/tl)
			if kt := effectiveMass(ma, mb, armA, armB, t); kt > 0 {
				jt := clampf(-rl.Vector3DotProduct(rel, t)/kt/count, -friction*j, friction*j)
				impulse = rl.Vector3Add(impulse, rl.Vector3Scale(t, jt))
			}
		}

		ma.apply(rl.Vector3Negate(impulse), armA)
		mb.apply(impulse, armB)
	}
}

// effectiveMass is the inverse of the pair's resistance to an impulse along dir.
func effectiveMass(ma, mb mobility, armA, armB, dir rl.Vector3) float32 {
	k := ma.invMass + mb.invMass
	angA := rl.Vector3CrossProduct(ma.invInertia(rl.Vector3CrossProduct(armA, dir)), armA)
	angB := rl.Vector3CrossProduct(mb.invInertia(rl.Vector3CrossProduct(armB, dir)), armB)
	return k + rl.Vector3DotProduct(rl.Vector3Add(angA, angB), dir)
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
