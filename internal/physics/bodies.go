package physics

import (
	"iter"

	"rigid3d/internal/components"
	"rigid3d/internal/engine"
)

// Body is one entry of the simulation view. Entity is required: it keys the
// contact cache, and bodies with an invalid handle never collide. Object is
// optional and only used to deliver collision callbacks.
type Body struct {
	Entity    engine.Entity
	RigidBody *components.RigidBody
	Transform *engine.Transform
	Object    *engine.GameObject
}

// SceneBodies yields every active game object carrying a RigidBody, in scene order.
func SceneBodies(scene *engine.Scene) iter.Seq[Body] {
	return func(yield func(Body) bool) {
		for _, obj := range scene.GameObjects {
			if !obj.Active {
				continue
			}
			rb := engine.GetComponent[*components.RigidBody](obj)
			if rb == nil {
				continue
			}
			if !yield(Body{Entity: obj.Handle, RigidBody: rb, Transform: &obj.Transform, Object: obj}) {
				return
			}
		}
	}
}
