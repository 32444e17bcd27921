package physics

import (
	"math"
	"testing"

	"rigid3d/internal/collision"
	"rigid3d/internal/components"
	"rigid3d/internal/config"
	"rigid3d/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

const frame = float32(1.0 / 60)

func addBox(scene *engine.Scene, name string, pos, half rl.Vector3, bodyType components.BodyType) (*engine.GameObject, *components.RigidBody) {
	obj := engine.NewGameObject(name)
	obj.Transform.Position = pos
	scene.AddGameObject(obj)

	rb := components.NewRigidBody()
	rb.Type = bodyType
	obj.AddComponent(rb)
	rb.AddCollider(collision.NewShapes(name, collision.NewBoxShape(half)))
	return obj, rb
}

func addGround(scene *engine.Scene) (*engine.GameObject, *components.RigidBody) {
	return addBox(scene, "Ground", rl.Vector3{Y: -0.5}, rl.Vector3{X: 10, Y: 0.5, Z: 10}, components.Static)
}

func unit() rl.Vector3 {
	return rl.Vector3{X: 0.5, Y: 0.5, Z: 0.5}
}

type collisionCounter struct {
	engine.BaseComponent
	enters, exits int
	last          *engine.GameObject
}

func (c *collisionCounter) OnCollisionEnter(other *engine.GameObject) {
	c.enters++
	c.last = other
}

func (c *collisionCounter) OnCollisionExit(other *engine.GameObject) {
	c.exits++
}

func TestBoxSettlesAndSleeps(t *testing.T) {
	scene := engine.NewScene("test")
	addGround(scene)
	box, rb := addBox(scene, "Box", rl.Vector3{Y: 5}, unit(), components.Dynamic)
	rb.Mass = 10

	world := NewPhysicsWorld(config.Default())
	for i := 0; i < 600 && !rb.IsSleeping(); i++ {
		world.Step(SceneBodies(scene), frame)
	}

	if !rb.IsSleeping() {
		t.Fatalf("Expected box to fall asleep, still moving at %v", rb.LinearVelocity)
	}
	if y := box.Transform.Position.Y; y < 0.47 || y > 0.51 {
		t.Errorf("Expected box resting near y=0.5, got %f", y)
	}
	if vy := rb.LinearVelocity.Y; vy != 0 {
		t.Errorf("Expected zero velocity once asleep, got %f", vy)
	}
}

func TestStaticBodyNeverMoves(t *testing.T) {
	scene := engine.NewScene("test")
	ground, groundRB := addGround(scene)
	addBox(scene, "Box", rl.Vector3{Y: 1}, unit(), components.Dynamic)

	groundRB.SetLinearVelocity(rl.Vector3{X: 5})
	groundRB.AddForce(rl.Vector3{Y: 100})
	before := ground.Transform

	world := NewPhysicsWorld(config.Default())
	for i := 0; i < 120; i++ {
		world.Step(SceneBodies(scene), frame)
	}

	if ground.Transform != before {
		t.Errorf("Expected static transform unchanged, got %+v", ground.Transform)
	}
	if groundRB.LinearVelocity != (rl.Vector3{}) {
		t.Errorf("Expected static velocity to stay zero, got %v", groundRB.LinearVelocity)
	}
}

func TestRestingBoxesGainNoEnergy(t *testing.T) {
	scene := engine.NewScene("test")
	addGround(scene)
	var boxes [2]*components.RigidBody
	var objs [2]*engine.GameObject
	for i, x := range []float32{-1.5, 1.5} {
		objs[i], boxes[i] = addBox(scene, "Box", rl.Vector3{X: x, Y: 0.49}, unit(), components.Dynamic)
		boxes[i].Restitution = 0
		boxes[i].StaticFriction = 0.5
	}

	world := NewPhysicsWorld(config.Default())
	for i := 0; i < 240; i++ {
		world.Step(SceneBodies(scene), frame)
		for k, rb := range boxes {
			if speed := rl.Vector3Length(rb.LinearVelocity); speed > 0.05 {
				t.Fatalf("Frame %d: resting box %d picked up speed %f", i, k, speed)
			}
		}
	}
	for k, rb := range boxes {
		if speed := rl.Vector3Length(rb.LinearVelocity); speed > 1e-3 {
			t.Errorf("Expected box %d at rest, got speed %f", k, speed)
		}
		if y := objs[k].Transform.Position.Y; y > 0.51 || y < 0.47 {
			t.Errorf("Expected box %d to stay on the ground, got y=%f", k, y)
		}
	}
}

func TestOverlappingBoxesSeparate(t *testing.T) {
	scene := engine.NewScene("test")
	a, ra := addBox(scene, "A", rl.Vector3{Y: 10}, unit(), components.Dynamic)
	b, rb := addBox(scene, "B", rl.Vector3{Y: 10}, unit(), components.Dynamic)

	world := NewPhysicsWorld(config.Default())
	hits := 0
	world.OnContact.AddListener(func(e ContactEvent) {
		if e.Manifold.HasCollision {
			hits++
		}
	})

	depth := func() float32 {
		m := ra.TestCollision(a.Transform, rb, b.Transform)
		if !m.HasCollision {
			return 0
		}
		return m.CollisionDepth
	}

	prev := depth()
	if prev <= 0 {
		t.Fatalf("Expected coincident boxes to overlap, got depth %f", prev)
	}
	for i := 0; i < 30; i++ {
		world.Step(SceneBodies(scene), frame)
		d := depth()
		if d > prev+1e-4 {
			t.Fatalf("Step %d: overlap grew from %f to %f", i, prev, d)
		}
		prev = d
	}

	if hits == 0 {
		t.Error("Expected at least one contact event")
	}
	if prev > 0.05 {
		t.Errorf("Expected boxes pushed apart to the slop, overlap still %f", prev)
	}
}

func TestStepForcesIterationCount(t *testing.T) {
	scene := engine.NewScene("test")
	addBox(scene, "Box", rl.Vector3{Y: 10}, unit(), components.Dynamic)

	world := NewPhysicsWorld(config.Default())
	world.SetIterationCount(2)
	if world.IterationCount() != 2 {
		t.Errorf("Expected iteration count 2 before stepping, got %d", world.IterationCount())
	}

	world.Step(SceneBodies(scene), frame)

	if world.IterationCount() != DefaultIterationCount {
		t.Errorf("Expected iteration count reset to %d, got %d", DefaultIterationCount, world.IterationCount())
	}
	want := frame / DefaultIterationCount
	if math.Abs(float64(world.DeltaDT()-want)) > 1e-9 {
		t.Errorf("Expected sub-step %f, got %f", want, world.DeltaDT())
	}

	world.SetIterationCount(0)
	if world.IterationCount() != DefaultIterationCount {
		t.Errorf("Expected zero iteration count to be ignored, got %d", world.IterationCount())
	}
}

func TestStepRejectsHugeTimestep(t *testing.T) {
	scene := engine.NewScene("test")
	box, _ := addBox(scene, "Box", rl.Vector3{Y: 10}, unit(), components.Dynamic)

	world := NewPhysicsWorld(config.Default())
	world.Step(SceneBodies(scene), 5)

	if box.Transform.Position.Y != 10 {
		t.Errorf("Expected no motion for an oversized step, got y=%f", box.Transform.Position.Y)
	}
	if world.DeltaDT() != 0 {
		t.Errorf("Expected DeltaDT untouched, got %f", world.DeltaDT())
	}
}

func TestFreeFall(t *testing.T) {
	scene := engine.NewScene("test")
	_, rb := addBox(scene, "Box", rl.Vector3{Y: 10}, unit(), components.Dynamic)

	world := NewPhysicsWorld(config.Default())
	for i := 0; i < 60; i++ {
		world.Step(SceneBodies(scene), frame)
	}

	// Gravity is spread over the sub-steps of each Step.
	want := float32(-9.8 / DefaultIterationCount)
	if !near(rb.LinearVelocity.Y, want, 1e-3) {
		t.Errorf("Expected vy=%f after one second, got %f", want, rb.LinearVelocity.Y)
	}
}

func TestSleepingBodyWakesOnImpact(t *testing.T) {
	scene := engine.NewScene("test")
	addGround(scene)
	_, lower := addBox(scene, "Lower", rl.Vector3{Y: 0.5}, unit(), components.Dynamic)

	world := NewPhysicsWorld(config.Default())
	for i := 0; i < 600 && !lower.IsSleeping(); i++ {
		world.Step(SceneBodies(scene), frame)
	}
	if !lower.IsSleeping() {
		t.Fatal("Expected lower box to fall asleep")
	}

	_, upper := addBox(scene, "Upper", rl.Vector3{Y: 3}, unit(), components.Dynamic)
	woke := false
	for i := 0; i < 120; i++ {
		world.Step(SceneBodies(scene), frame)
		if !lower.IsSleeping() {
			woke = true
			break
		}
	}
	if !woke {
		t.Errorf("Expected impact to wake the lower box, upper at v=%v", upper.LinearVelocity)
	}
}

func TestCollisionCallbacks(t *testing.T) {
	scene := engine.NewScene("test")
	ground, _ := addGround(scene)
	box, rb := addBox(scene, "Box", rl.Vector3{Y: 0.49}, unit(), components.Dynamic)
	counter := &collisionCounter{}
	box.AddComponent(counter)

	world := NewPhysicsWorld(config.Default())
	world.Step(SceneBodies(scene), frame)
	if counter.enters != 1 || counter.last != ground {
		t.Fatalf("Expected one enter with the ground, got %d (%v)", counter.enters, counter.last)
	}

	world.Step(SceneBodies(scene), frame)
	if counter.enters != 1 {
		t.Errorf("Expected no repeated enter while touching, got %d", counter.enters)
	}

	box.Transform.Position.Y = 20
	rb.UpdateHalfExtents(box.Transform)
	world.Step(SceneBodies(scene), frame)
	if counter.exits != 1 {
		t.Errorf("Expected one exit after separating, got %d", counter.exits)
	}
}

func TestRaycastHitsClosestBox(t *testing.T) {
	scene := engine.NewScene("test")
	closest, _ := addBox(scene, "Near", rl.Vector3{Z: 5}, unit(), components.Static)
	addBox(scene, "Far", rl.Vector3{Z: 9}, unit(), components.Static)

	hit, ok := Raycast(SceneBodies(scene), rl.Vector3{}, rl.Vector3{Z: 1}, 100)
	if !ok {
		t.Fatal("Expected a hit")
	}
	if hit.Body.Object != closest {
		t.Errorf("Expected closest box, got %s", hit.Body.Object.Name)
	}
	if !nearf(hit.Distance, 4.5) {
		t.Errorf("Expected distance 4.5, got %f", hit.Distance)
	}
	if hit.Normal != (rl.Vector3{Z: -1}) {
		t.Errorf("Expected normal (0,0,-1), got %v", hit.Normal)
	}

	if _, ok := Raycast(SceneBodies(scene), rl.Vector3{}, rl.Vector3{X: 1}, 100); ok {
		t.Error("Expected miss along X")
	}
	if _, ok := Raycast(SceneBodies(scene), rl.Vector3{}, rl.Vector3{Z: 1}, 2); ok {
		t.Error("Expected miss beyond max distance")
	}
}

func TestRaycastSphere(t *testing.T) {
	scene := engine.NewScene("test")
	obj := engine.NewGameObject("Ball")
	obj.Transform.Position = rl.Vector3{Y: 3}
	scene.AddGameObject(obj)
	rb := components.NewRigidBody()
	obj.AddComponent(rb)
	rb.AddCollider(collision.NewShapes("sphere:1", collision.NewSphereShape(1)))

	hit, ok := Raycast(SceneBodies(scene), rl.Vector3{}, rl.Vector3{Y: 1}, 10)
	if !ok || !nearf(hit.Distance, 2) {
		t.Fatalf("Expected sphere hit at 2, got %v %f", ok, hit.Distance)
	}
	if !nearf(hit.Normal.Y, -1) {
		t.Errorf("Expected downward normal, got %v", hit.Normal)
	}
}

func TestStepperFixedSteps(t *testing.T) {
	scene := engine.NewScene("test")
	addBox(scene, "Box", rl.Vector3{Y: 10}, unit(), components.Dynamic)

	world := NewPhysicsWorld(config.Default())
	stepper := NewStepper(world)

	if n := stepper.Advance(SceneBodies(scene), frame/2); n != 0 {
		t.Errorf("Expected no step for half a frame, got %d", n)
	}
	if n := stepper.Advance(SceneBodies(scene), frame); n != 1 {
		t.Errorf("Expected one step, got %d", n)
	}
	if a := stepper.Alpha(); !near(a, 0.5, 1e-3) {
		t.Errorf("Expected half a step left over, got %f", a)
	}

	if n := stepper.Advance(SceneBodies(scene), 1); n != stepper.MaxSteps {
		t.Errorf("Expected stall clamped to %d steps, got %d", stepper.MaxSteps, n)
	}
	if stepper.Alpha() != 0 {
		t.Errorf("Expected dropped backlog, got alpha %f", stepper.Alpha())
	}
}

func near(a, b, eps float32) bool {
	return float32(math.Abs(float64(a-b))) <= eps
}

func nearf(a, b float32) bool {
	return near(a, b, 1e-4)
}

func TestShapelessBodyIsSkipped(t *testing.T) {
	scene := engine.NewScene("test")
	addGround(scene)
	addBox(scene, "Box", rl.Vector3{Y: 0.49}, unit(), components.Dynamic)

	ghost := engine.NewGameObject("Ghost")
	ghost.Transform.Position = rl.Vector3{Y: 0.49}
	scene.AddGameObject(ghost)
	ghostRB := components.NewRigidBody()
	ghost.AddComponent(ghostRB)

	world := NewPhysicsWorld(config.Default())
	world.OnContact.AddListener(func(e ContactEvent) {
		if e.A.Object == ghost || e.B.Object == ghost {
			t.Errorf("Expected no contact with the shapeless body, got %s/%s", e.A.Object.Name, e.B.Object.Name)
		}
	})
	for i := 0; i < 30; i++ {
		world.Step(SceneBodies(scene), frame)
	}

	if ghost.Transform.Position.Y != 0.49 {
		t.Errorf("Expected shapeless body to stay put, got y=%f", ghost.Transform.Position.Y)
	}
	if world.Cache().PairCount() > 1 {
		t.Errorf("Expected at most the box/ground pair cached, got %d", world.Cache().PairCount())
	}
}

func TestBodiesWithoutHandlesNeverCollide(t *testing.T) {
	scene := engine.NewScene("test")
	a, ra := addBox(scene, "A", rl.Vector3{Y: 10}, unit(), components.Dynamic)
	b, rb := addBox(scene, "B", rl.Vector3{Y: 10}, unit(), components.Dynamic)

	bodies := func(yield func(Body) bool) {
		if !yield(Body{RigidBody: ra, Transform: &a.Transform}) {
			return
		}
		yield(Body{RigidBody: rb, Transform: &b.Transform})
	}

	world := NewPhysicsWorld(config.Default())
	world.Step(bodies, frame)

	if world.Cache().PairCount() != 0 {
		t.Errorf("Expected no cached pairs for bodies without handles, got %d", world.Cache().PairCount())
	}
	if a.Transform.Position.X != b.Transform.Position.X || a.Transform.Position.Y != b.Transform.Position.Y {
		t.Errorf("Expected both bodies to fall together, got %v and %v", a.Transform.Position, b.Transform.Position)
	}
}
