package physics

import (
	"math"
	"testing"

	"rigid3d/internal/components"
	"rigid3d/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

func bodyOf(obj *engine.GameObject, rb *components.RigidBody) Body {
	return Body{Entity: obj.Handle, RigidBody: rb, Transform: &obj.Transform, Object: obj}
}

func TestImpulseSolveIsSequential(t *testing.T) {
	scene := engine.NewScene("test")
	groundObj, ground := addGround(scene)
	boxObj, box := addBox(scene, "Box", rl.Vector3{Y: 0.5}, unit(), components.Dynamic)
	box.Mass = 2
	box.LinearVelocity = rl.Vector3{Y: -1}

	// Two contacts at the box center: no angular response, no tangent.
	c := liveContact{
		pointA: boxObj.Transform.Position,
		pointB: boxObj.Transform.Position,
		normal: rl.Vector3{Y: 1},
		depth:  0.01,
	}
	solveImpulse(bodyOf(groundObj, ground), bodyOf(boxObj, box), []liveContact{c, c})

	// The first contact halves the approach speed, the second sees -0.5 and
	// removes half of that again.
	if vy := box.LinearVelocity.Y; math.Abs(float64(vy+0.25)) > 1e-5 {
		t.Errorf("Expected vy -0.25 after a sequential pass, got %f", vy)
	}
	if ground.LinearVelocity != (rl.Vector3{}) {
		t.Errorf("Expected static body untouched, got %v", ground.LinearVelocity)
	}
}

func TestImpulseSolveSkipsSeparatingContacts(t *testing.T) {
	scene := engine.NewScene("test")
	groundObj, ground := addGround(scene)
	boxObj, box := addBox(scene, "Box", rl.Vector3{Y: 0.5}, unit(), components.Dynamic)
	box.LinearVelocity = rl.Vector3{Y: 2}

	c := liveContact{
		pointA: boxObj.Transform.Position,
		pointB: boxObj.Transform.Position,
		normal: rl.Vector3{Y: 1},
		depth:  0.01,
	}
	solveImpulse(bodyOf(groundObj, ground), bodyOf(boxObj, box), []liveContact{c})

	if box.LinearVelocity.Y != 2 {
		t.Errorf("Expected separating body unchanged, got %f", box.LinearVelocity.Y)
	}
}
