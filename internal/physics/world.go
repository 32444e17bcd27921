package physics

import (
	"iter"
	"log"
	"slices"

	"rigid3d/internal/collision"
	"rigid3d/internal/components"
	"rigid3d/internal/compute"
	"rigid3d/internal/config"
	"rigid3d/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// DefaultIterationCount is the number of sub-steps per Step. Step restores it on
// every call.
const DefaultIterationCount = 5

// MaxPhysicsBodies is the maximum body count the GPU prefilter is sized for.
const MaxPhysicsBodies = 50000

// ContactEvent is raised for every resolved pair in every sub-step.
type ContactEvent struct {
	A, B     Body
	Manifold collision.Manifold
}

type touchingPair struct {
	a, b *engine.GameObject
}

// PhysicsWorld owns the solver state that lives across steps: the contact
// cache, the previous sub-step length and the touching set for callbacks.
// Bodies are borrowed for the duration of each Step.
type PhysicsWorld struct {
	Settings  config.Settings
	OnContact engine.Event[ContactEvent]

	iterationCount int
	deltaDT        float32
	cache          *ContactCache
	bodies         []Body

	// Collision tracking for callbacks
	activeCollisions  map[PairKey]touchingPair
	currentCollisions map[PairKey]touchingPair

	// GPU prefilter (nil if compute unavailable)
	pairFinder *compute.PairFinder
	useGPU     bool
	spheres    []compute.BoundingSphere
}

func NewPhysicsWorld(settings config.Settings) *PhysicsWorld {
	return &PhysicsWorld{
		Settings:          settings,
		iterationCount:    DefaultIterationCount,
		cache:             NewContactCache(),
		activeCollisions:  make(map[PairKey]touchingPair),
		currentCollisions: make(map[PairKey]touchingPair),
	}
}

// IterationCount is the number of sub-steps the next Step will run.
func (p *PhysicsWorld) IterationCount() int {
	return p.iterationCount
}

// SetIterationCount changes the sub-step count. Values below one are ignored.
func (p *PhysicsWorld) SetIterationCount(n int) {
	if n < 1 {
		return
	}
	p.iterationCount = n
}

// DeltaDT is the sub-step length of the last completed Step.
func (p *PhysicsWorld) DeltaDT() float32 {
	return p.deltaDT
}

// Cache exposes the contact cache of the last Step.
func (p *PhysicsWorld) Cache() *ContactCache {
	return p.cache
}

// InitGPU sets up the GPU pair prefilter. Call after compute.Initialize().
func (p *PhysicsWorld) InitGPU() error {
	if p.pairFinder != nil {
		return nil
	}
	pf, err := compute.NewPairFinder(MaxPhysicsBodies, MaxPhysicsBodies*20)
	if err != nil {
		return err
	}
	p.pairFinder = pf
	log.Printf("Physics: GPU pair prefilter ready (threshold: %d bodies)", p.Settings.GPUPairThreshold)
	return nil
}

// UsingGPU reports whether the last Step used the GPU prefilter.
func (p *PhysicsWorld) UsingGPU() bool {
	return p.useGPU
}

// Release frees GPU resources.
func (p *PhysicsWorld) Release() {
	if p.pairFinder != nil {
		p.pairFinder.Release()
		p.pairFinder = nil
	}
	p.useGPU = false
}

// Step advances every body by deltaTime in IterationCount sub-steps. Each
// sub-step integrates the awake bodies and then resolves every overlapping pair
// in index order. A sub-step of a second or more is rejected.
func (p *PhysicsWorld) Step(bodies iter.Seq[Body], deltaTime float32) {
	p.iterationCount = DefaultIterationCount
	n := p.iterationCount
	dt := deltaTime / float32(n)
	if dt >= 1.0 || dt <= 0 {
		return
	}

	p.cache.Clear()
	clear(p.currentCollisions)
	p.bodies = slices.AppendSeq(p.bodies[:0], bodies)
	p.updateGPUMode()

	for _, b := range p.bodies {
		if b.RigidBody.IsStatic() && b.RigidBody.HasShapes() {
			b.RigidBody.UpdateHalfExtents(*b.Transform)
		}
	}

	gravity := rl.Vector3Scale(p.Settings.Gravity.Vector3, 1/float32(n))
	sleep := components.SleepConfig{Epsilon: p.Settings.SleepEpsilon, Time: p.Settings.SleepTime}
	prevDt := p.deltaDT

	for range n {
		for _, b := range p.bodies {
			rb := b.RigidBody
			if !rb.Awake() {
				continue
			}
			rb.ApplyGravity(gravity)
			rb.IntegrateWith(b.Transform, dt, prevDt, sleep)
			rb.ClearForces()
		}
		prevDt = dt

		if p.useGPU {
			if p.collideGPU() {
				continue
			}
		}
		for i := 0; i < len(p.bodies); i++ {
			for j := i + 1; j < len(p.bodies); j++ {
				p.collide(p.bodies[i], p.bodies[j])
			}
		}
	}

	p.deltaDT = dt
	p.dispatchCollisionCallbacks()
}

// collide runs the narrow phase and both solvers for one pair. Pairs without
// two distinct handles are skipped since the contact cache is keyed on them.
func (p *PhysicsWorld) collide(a, b Body) {
	if !a.Entity.Valid() || !b.Entity.Valid() || a.Entity == b.Entity {
		return
	}
	ra, rb := a.RigidBody, b.RigidBody
	if !ra.HasShapes() || !rb.HasShapes() {
		return
	}
	if !ra.Awake() && !rb.Awake() {
		return
	}
	if !ra.AABBOverlaps(rb) || !ra.OBBOverlaps(rb) {
		return
	}
	m := ra.TestCollision(*a.Transform, rb, *b.Transform)
	if !m.HasCollision {
		return
	}

	p.cache.IntegrateContact(m, a.Entity, b.Entity)
	set := p.cache.GetReducedContacts(a.Entity, b.Entity)
	contacts := refreshContacts(&set, a, b)

	wakeOnImpact(a, b, contacts.slice(), p.Settings.WakeThreshold)
	solvePosition(a, b, contacts.slice(), p.Settings)
	solveImpulse(a, b, contacts.slice())

	for _, c := range set.Slice() {
		ra.PushContact(c.LocalContactPointA)
		rb.PushContact(c.LocalContactPointB)
	}

	if a.Object != nil && b.Object != nil {
		key, flipped := MakePairKey(a.Entity, b.Entity)
		pair := touchingPair{a: a.Object, b: b.Object}
		if flipped {
			pair.a, pair.b = pair.b, pair.a
		}
		p.currentCollisions[key] = pair
	}
	p.OnContact.Invoke(ContactEvent{A: a, B: b, Manifold: m})
}

// updateGPUMode switches the prefilter on once the body count reaches the
// threshold.
func (p *PhysicsWorld) updateGPUMode() {
	count := len(p.bodies)
	wasUsingGPU := p.useGPU
	threshold := p.Settings.GPUPairThreshold
	p.useGPU = p.pairFinder != nil && threshold > 0 && count >= threshold &&
		count <= p.pairFinder.MaxSpheres()

	if p.useGPU && !wasUsingGPU {
		log.Printf("Physics: GPU pair prefilter ON (%d bodies)", count)
	} else if !p.useGPU && wasUsingGPU {
		log.Printf("Physics: GPU pair prefilter OFF (%d bodies)", count)
	}
}

// collideGPU resolves only the pairs whose bounding spheres overlap, visiting
// them in the same order as the CPU loop. Returns false if the GPU failed; the
// rest of the Step then runs on the CPU.
func (p *PhysicsWorld) collideGPU() bool {
	p.spheres = p.spheres[:0]
	for _, b := range p.bodies {
		p.spheres = append(p.spheres, boundingSphere(b.RigidBody, p.Settings.Slop))
	}
	pairs, err := p.pairFinder.FindPairs(p.spheres)
	if err != nil {
		log.Printf("Physics: GPU prefilter failed, using CPU: %v", err)
		p.useGPU = false
		return false
	}
	for _, pair := range pairs {
		p.collide(p.bodies[pair.A], p.bodies[pair.B])
	}
	return true
}

// boundingSphere encloses the union of a body's shape AABBs, grown by margin.
// Bodies without shapes get a sphere far away that overlaps nothing.
func boundingSphere(rb *components.RigidBody, margin float32) compute.BoundingSphere {
	if !rb.HasShapes() || len(rb.HalfExtents) == 0 {
		return compute.BoundingSphere{Y: -1e30}
	}
	box := rb.HalfExtents[0].World
	for _, h := range rb.HalfExtents[1:] {
		box.Min = rl.Vector3Min(box.Min, h.World.Min)
		box.Max = rl.Vector3Max(box.Max, h.World.Max)
	}
	c := box.Center()
	return compute.BoundingSphere{X: c.X, Y: c.Y, Z: c.Z, Radius: box.Radius() + margin}
}

// dispatchCollisionCallbacks sends OnCollisionEnter/Exit to handlers
func (p *PhysicsWorld) dispatchCollisionCallbacks() {
	for key, pair := range p.currentCollisions {
		if _, ok := p.activeCollisions[key]; !ok {
			notifyCollisionEnter(pair.a, pair.b)
			notifyCollisionEnter(pair.b, pair.a)
		}
	}
	for key, pair := range p.activeCollisions {
		if _, ok := p.currentCollisions[key]; !ok {
			notifyCollisionExit(pair.a, pair.b)
			notifyCollisionExit(pair.b, pair.a)
		}
	}

	// Swap buffers
	p.activeCollisions, p.currentCollisions = p.currentCollisions, p.activeCollisions
}

// notifyCollisionEnter calls OnCollisionEnter on all handlers in obj
func notifyCollisionEnter(obj, other *engine.GameObject) {
	for _, comp := range obj.Components() {
		if handler, ok := comp.(engine.CollisionHandler); ok {
			handler.OnCollisionEnter(other)
		}
	}
}

// notifyCollisionExit calls OnCollisionExit on all handlers in obj
func notifyCollisionExit(obj, other *engine.GameObject) {
	for _, comp := range obj.Components() {
		if handler, ok := comp.(engine.CollisionHandler); ok {
			handler.OnCollisionExit(other)
		}
	}
}
