package components

import (
	"math"

	"rigid3d/internal/collision"
	"rigid3d/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

func init() {
	engine.RegisterComponent("RigidBody", func() engine.Serializable {
		return NewRigidBody()
	})
}

// BodyType selects between simulated and immovable bodies. Values are stable on disk.
type BodyType uint32

const (
	Dynamic BodyType = iota
	Static
)

func (t BodyType) String() string {
	if t == Static {
		return "static"
	}
	return "dynamic"
}

// SleepConfig holds the rest detection thresholds.
type SleepConfig struct {
	Epsilon float32 // max position and rotation change per sub-step
	Time    float32 // seconds of rest before sleeping
}

// DefaultSleep matches the engine constants: 5e-5 for both deltas, one second of rest.
var DefaultSleep = SleepConfig{Epsilon: 5e-5, Time: 1.0}

// ContactRingSize is the number of recent contact points kept for debug drawing.
const ContactRingSize = 4

type RigidBody struct {
	engine.BaseComponent
	Type           BodyType
	Mass           float32
	StaticFriction float32
	Restitution    float32
	LinearDamping  float32 // fraction of linear velocity kept per second, 1 is undamped
	AngularDamping float32 // fraction of angular velocity kept per second, 1 is undamped

	LinearVelocity  rl.Vector3
	AngularVelocity rl.Vector3 // radians per second, world space
	NetForce        rl.Vector3
	NetTorque       rl.Vector3

	// InertiaTensor is the local, diagonal box approximation. Rebuilt on every
	// integration from the current scale.
	InertiaTensor rl.Matrix
	HalfExtents   []collision.HalfExtents

	// ColliderID names the shape asset. It survives save/load even while the
	// asset itself has not been resolved yet.
	ColliderID string

	SleepTimer float32
	sleeping   bool

	shapes       *collision.Shapes
	contacts     [ContactRingSize]rl.Vector3
	contactHead  int
	contactCount int
}

func NewRigidBody() *RigidBody {
	return &RigidBody{
		Type:           Dynamic,
		Mass:           1.0,
		StaticFriction: 0.5,
		Restitution:    0.0,
		LinearDamping:  1.0,
		AngularDamping: 0.9,
		InertiaTensor:  rl.MatrixIdentity(),
	}
}

// AddCollider attaches a resolved shape asset. The body only references it.
func (rb *RigidBody) AddCollider(shapes *collision.Shapes) {
	rb.shapes = shapes
	if shapes == nil {
		rb.HalfExtents = nil
		return
	}
	rb.ColliderID = shapes.ID
	rb.HalfExtents = make([]collision.HalfExtents, len(shapes.Shapes))
	for i := range shapes.Shapes {
		rb.HalfExtents[i] = collision.NewHalfExtents(&shapes.Shapes[i])
	}
	if g := rb.GetGameObject(); g != nil {
		rb.UpdateHalfExtents(g.Transform)
	}
}

// Shapes returns the attached asset, nil until resolved.
func (rb *RigidBody) Shapes() *collision.Shapes {
	return rb.shapes
}

// HasShapes reports whether the shape asset has been resolved.
func (rb *RigidBody) HasShapes() bool {
	return rb.shapes.Len() > 0
}

// Active reports whether the body takes part in integration: non-static with shapes.
func (rb *RigidBody) Active() bool {
	return rb.Type != Static && rb.HasShapes()
}

func (rb *RigidBody) IsStatic() bool {
	return rb.Type == Static
}

func (rb *RigidBody) IsSleeping() bool {
	return rb.sleeping
}

// Awake reports whether the body is dynamic and not sleeping.
func (rb *RigidBody) Awake() bool {
	return rb.Type != Static && !rb.sleeping
}

// Wake clears the sleep state.
func (rb *RigidBody) Wake() {
	rb.sleeping = false
	rb.SleepTimer = 0
}

// InverseMass is zero for static bodies. Mass is not guarded against zero.
func (rb *RigidBody) InverseMass() float32 {
	if rb.Type == Static {
		return 0
	}
	return 1 / rb.Mass
}

// AddForce accumulates a world-space force at the center of mass.
func (rb *RigidBody) AddForce(force rl.Vector3) {
	if rb.Type == Static {
		return
	}
	rb.NetForce = rl.Vector3Add(rb.NetForce, force)
	rb.Wake()
}

func (rb *RigidBody) AddTorque(torque rl.Vector3) {
	if rb.Type == Static {
		return
	}
	rb.NetTorque = rl.Vector3Add(rb.NetTorque, torque)
	rb.Wake()
}

// AddForceAtPoint applies force at a world point, adding the resulting torque.
func (rb *RigidBody) AddForceAtPoint(force, point, center rl.Vector3) {
	rb.AddForce(force)
	rb.AddTorque(rl.Vector3CrossProduct(rl.Vector3Subtract(point, center), force))
}

// ApplyImpulse changes velocity immediately. arm is the contact point relative to
// the center of mass.
func (rb *RigidBody) ApplyImpulse(t engine.Transform, impulse, arm rl.Vector3) {
	if rb.Type == Static {
		return
	}
	rb.applyImpulse(t, impulse, arm)
	rb.Wake()
}

// applyImpulse is the solver path; it does not touch the sleep state.
func (rb *RigidBody) applyImpulse(t engine.Transform, impulse, arm rl.Vector3) {
	rb.LinearVelocity = rl.Vector3Add(rb.LinearVelocity, rl.Vector3Scale(impulse, rb.InverseMass()))
	angular := rb.InverseInertiaWorld(t, rl.Vector3CrossProduct(arm, impulse))
	rb.AngularVelocity = rl.Vector3Add(rb.AngularVelocity, angular)
}

func (rb *RigidBody) SetLinearVelocity(v rl.Vector3) {
	if rb.Type == Static {
		return
	}
	rb.LinearVelocity = v
	rb.Wake()
}

func (rb *RigidBody) SetAngularVelocity(v rl.Vector3) {
	if rb.Type == Static {
		return
	}
	rb.AngularVelocity = v
	rb.Wake()
}

// ApplyGravity adds a mass-scaled acceleration without waking the body.
func (rb *RigidBody) ApplyGravity(accel rl.Vector3) {
	if rb.Type == Static {
		return
	}
	rb.NetForce = rl.Vector3Add(rb.NetForce, rl.Vector3Scale(accel, rb.Mass))
}

// ClearForces resets the accumulators after integration.
func (rb *RigidBody) ClearForces() {
	rb.NetForce = rl.Vector3{}
	rb.NetTorque = rl.Vector3{}
}

// localBounds is the union of all shape bounds in local space.
func (rb *RigidBody) localBounds() (rl.Vector3, rl.Vector3) {
	if len(rb.HalfExtents) == 0 {
		return rl.Vector3{}, rl.Vector3{}
	}
	lo, hi := rb.HalfExtents[0].LocalMin, rb.HalfExtents[0].LocalMax
	for _, he := range rb.HalfExtents[1:] {
		lo = rl.Vector3Min(lo, he.LocalMin)
		hi = rl.Vector3Max(hi, he.LocalMax)
	}
	return lo, hi
}

// UpdateInertia rebuilds the diagonal box inertia from the scaled local bounds.
func (rb *RigidBody) UpdateInertia(scale rl.Vector3) {
	lo, hi := rb.localBounds()
	size := rl.Vector3Multiply(rl.Vector3Subtract(hi, lo), scale)
	x2, y2, z2 := size.X*size.X, size.Y*size.Y, size.Z*size.Z

	k := rb.Mass / 12
	rb.InertiaTensor = rl.MatrixIdentity()
	rb.InertiaTensor.M0 = k * (y2 + z2)
	rb.InertiaTensor.M5 = k * (x2 + z2)
	rb.InertiaTensor.M10 = k * (x2 + y2)
}

// InverseInertiaWorld applies the world-space inverse inertia to v.
func (rb *RigidBody) InverseInertiaWorld(t engine.Transform, v rl.Vector3) rl.Vector3 {
	if rb.Type == Static {
		return rl.Vector3{}
	}
	local := t.InverseTransformDirection(v)
	local.X *= invOrZero(rb.InertiaTensor.M0)
	local.Y *= invOrZero(rb.InertiaTensor.M5)
	local.Z *= invOrZero(rb.InertiaTensor.M10)
	return t.TransformDirection(local)
}

func invOrZero(x float32) float32 {
	if x <= 0 {
		return 0
	}
	return 1 / x
}

// UpdateHalfExtents refreshes the world bounds of every shape.
func (rb *RigidBody) UpdateHalfExtents(t engine.Transform) {
	for i := range rb.HalfExtents {
		rb.HalfExtents[i].Update(t)
	}
}

// Integrate advances the body by dt with the default sleep thresholds.
func (rb *RigidBody) Integrate(t *engine.Transform, dt, prevDt float32) {
	rb.IntegrateWith(t, dt, prevDt, DefaultSleep)
}

// IntegrateWith advances velocities and pose by dt. The predicted pose is committed
// unless the body falls asleep during this call.
func (rb *RigidBody) IntegrateWith(t *engine.Transform, dt, prevDt float32, sleep SleepConfig) {
	if !rb.Active() || rb.sleeping {
		return
	}
	rb.UpdateHalfExtents(*t)
	rb.UpdateInertia(t.Scale)

	rb.LinearVelocity = rl.Vector3Add(rb.LinearVelocity, rl.Vector3Scale(rb.NetForce, rb.InverseMass()*dt))
	rb.AngularVelocity = rl.Vector3Add(rb.AngularVelocity, rl.Vector3Scale(rb.InverseInertiaWorld(*t, rb.NetTorque), dt))
	rb.LinearVelocity = rl.Vector3Scale(rb.LinearVelocity, dampingFactor(rb.LinearDamping, dt))
	rb.AngularVelocity = rl.Vector3Scale(rb.AngularVelocity, dampingFactor(rb.AngularDamping, dt))

	// Carried velocity was solved for the previous step length.
	ratio := float32(1)
	if prevDt > 0 {
		ratio = clampf(dt/prevDt, 0.5, 2)
	}
	step := dt * ratio

	predicted := *t
	predicted.Position = rl.Vector3Add(t.Position, rl.Vector3Scale(rb.LinearVelocity, step))
	predicted.Rotation = integrateRotation(t.Rotation, rb.AngularVelocity, step)

	if rb.shouldSleep(*t, predicted, dt, sleep) {
		rb.sleeping = true
		rb.LinearVelocity = rl.Vector3{}
		rb.AngularVelocity = rl.Vector3{}
		return
	}
	*t = predicted
	rb.UpdateHalfExtents(*t)
}

// shouldSleep advances the rest timer while the predicted pose stays within epsilon.
func (rb *RigidBody) shouldSleep(prev, next engine.Transform, dt float32, sleep SleepConfig) bool {
	moved := rl.Vector3Length(rl.Vector3Subtract(next.Position, prev.Position))
	delta := rl.QuaternionMultiply(next.Rotation, rl.QuaternionInvert(prev.Rotation))
	turned := 2 * rl.Vector3Length(rl.Vector3{X: delta.X, Y: delta.Y, Z: delta.Z})

	if moved < sleep.Epsilon && turned < sleep.Epsilon {
		rb.SleepTimer += dt
	} else {
		rb.SleepTimer = 0
	}
	return rb.SleepTimer >= sleep.Time
}

func integrateRotation(q rl.Quaternion, omega rl.Vector3, dt float32) rl.Quaternion {
	spin := rl.QuaternionMultiply(rl.Quaternion{X: omega.X, Y: omega.Y, Z: omega.Z}, q)
	next := rl.Quaternion{
		X: q.X + 0.5*dt*spin.X,
		Y: q.Y + 0.5*dt*spin.Y,
		Z: q.Z + 0.5*dt*spin.Z,
		W: q.W + 0.5*dt*spin.W,
	}
	return rl.QuaternionNormalize(next)
}

// dampingFactor scales velocity by damping^dt. Damping is clamped to [0, 1]; zero
// is a configuration error that stops the body on its first integration.
func dampingFactor(damping, dt float32) float32 {
	return float32(math.Pow(float64(clampf(damping, 0, 1)), float64(dt)))
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

// TestCollision tests every shape pair and keeps the deepest hit. Ties keep the
// first pair found, in shape order of rb then other.
func (rb *RigidBody) TestCollision(ta engine.Transform, other *RigidBody, tb engine.Transform) collision.Manifold {
	var best collision.Manifold
	if !rb.HasShapes() || !other.HasShapes() {
		return best
	}
	for i := range rb.shapes.Shapes {
		for j := range other.shapes.Shapes {
			m := collision.TestCollision(&rb.shapes.Shapes[i], ta, &other.shapes.Shapes[j], tb)
			if m.HasCollision && (!best.HasCollision || m.CollisionDepth > best.CollisionDepth) {
				best = m
			}
		}
	}
	return best
}

// AABBOverlaps reports whether any pair of shape bounds overlap.
func (rb *RigidBody) AABBOverlaps(other *RigidBody) bool {
	for i := range rb.HalfExtents {
		for j := range other.HalfExtents {
			if rb.HalfExtents[i].World.Intersects(other.HalfExtents[j].World) {
				return true
			}
		}
	}
	return false
}

// OBBOverlaps runs the separating axis test on every pair of shape boxes.
func (rb *RigidBody) OBBOverlaps(other *RigidBody) bool {
	for i := range rb.HalfExtents {
		for j := range other.HalfExtents {
			if rb.HalfExtents[i].OBB.IntersectsOBB(other.HalfExtents[j].OBB) {
				return true
			}
		}
	}
	return false
}

// PushContact records a local contact point in the debug ring.
func (rb *RigidBody) PushContact(p rl.Vector3) {
	rb.contacts[rb.contactHead] = p
	rb.contactHead = (rb.contactHead + 1) % ContactRingSize
	if rb.contactCount < ContactRingSize {
		rb.contactCount++
	}
}

// ContactPoints returns the recorded contact points, oldest first.
func (rb *RigidBody) ContactPoints() []rl.Vector3 {
	out := make([]rl.Vector3, 0, rb.contactCount)
	start := rb.contactHead - rb.contactCount
	for i := 0; i < rb.contactCount; i++ {
		out = append(out, rb.contacts[(start+i+ContactRingSize)%ContactRingSize])
	}
	return out
}

// TypeName implements engine.Serializable
func (rb *RigidBody) TypeName() string {
	return "RigidBody"
}

// Serialize implements engine.Serializable
func (rb *RigidBody) Serialize() map[string]any {
	return map[string]any{
		"type":           "RigidBody",
		"bodyType":       rb.Type.String(),
		"mass":           rb.Mass,
		"friction":       rb.StaticFriction,
		"restitution":    rb.Restitution,
		"linearDamping":  rb.LinearDamping,
		"angularDamping": rb.AngularDamping,
		"collider":       rb.ColliderID,
	}
}

// Deserialize implements engine.Serializable
func (rb *RigidBody) Deserialize(data map[string]any) {
	if t, ok := data["bodyType"].(string); ok {
		rb.Type = Dynamic
		if t == "static" {
			rb.Type = Static
		}
	}
	if m, ok := data["mass"].(float64); ok {
		rb.Mass = float32(m)
	}
	if f, ok := data["friction"].(float64); ok {
		rb.StaticFriction = float32(f)
	}
	if r, ok := data["restitution"].(float64); ok {
		rb.Restitution = float32(r)
	}
	if d, ok := data["linearDamping"].(float64); ok {
		rb.LinearDamping = float32(d)
	}
	if d, ok := data["angularDamping"].(float64); ok {
		rb.AngularDamping = float32(d)
	}
	if c, ok := data["collider"].(string); ok {
		rb.ColliderID = c
	}
}
