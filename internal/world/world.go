// Package world assembles a scene, the shape library and the physics world into
// something a command can load, step and save.
package world

import (
	"iter"
	"log"

	"rigid3d/internal/assets"
	"rigid3d/internal/collision"
	"rigid3d/internal/components"
	"rigid3d/internal/config"
	"rigid3d/internal/engine"
	"rigid3d/internal/physics"

	rl "github.com/gen2brain/raylib-go/raylib"
)

type World struct {
	Scene        *engine.Scene
	Library      *assets.Library
	PhysicsWorld *physics.PhysicsWorld
	Stepper      *physics.Stepper
	Settings     config.Settings

	// colliders maps a body to the asset id it holds a reference on.
	colliders map[*components.RigidBody]string
	scenePath string
}

// New creates an empty world. Shape files are resolved under assetRoot.
func New(settings config.Settings, assetRoot string) *World {
	pw := physics.NewPhysicsWorld(settings)
	return &World{
		Scene:        engine.NewScene("Main"),
		Library:      assets.NewLibrary(assetRoot),
		PhysicsWorld: pw,
		Stepper:      physics.NewStepper(pw),
		Settings:     settings,
		colliders:    make(map[*components.RigidBody]string),
	}
}

// Initialize sets up GPU compute where the platform allows it and starts the
// scene. headless worlds never share a GL context with compute.
func (w *World) Initialize(headless bool) {
	w.initializeCompute(headless)
	w.Scene.Start()
}

// Bodies yields the simulated bodies of the scene.
func (w *World) Bodies() iter.Seq[physics.Body] {
	return physics.SceneBodies(w.Scene)
}

// Update delivers finished asset loads, runs scene scripts and advances physics
// by whole fixed steps. Returns the number of physics steps taken.
func (w *World) Update(deltaTime float32) int {
	w.Library.Poll()
	w.Scene.Update(deltaTime)
	return w.Stepper.Advance(w.Bodies(), deltaTime)
}

// Step advances physics by exactly one fixed step, bypassing the accumulator.
func (w *World) Step() {
	w.Library.Poll()
	w.PhysicsWorld.Step(w.Bodies(), w.Settings.FixedTimestep)
}

// Spawn adds an object with a rigid body whose collider resolves
// asynchronously from colliderID.
func (w *World) Spawn(name string, position rl.Vector3, colliderID string, bodyType components.BodyType) (*engine.GameObject, *components.RigidBody) {
	g := engine.NewGameObject(name)
	g.Transform.Position = position
	rb := components.NewRigidBody()
	rb.Type = bodyType
	rb.ColliderID = colliderID
	g.AddComponent(rb)
	w.Scene.AddGameObject(g)
	w.attachCollider(rb)
	return g, rb
}

// Remove takes an object out of the scene and drops its asset reference.
func (w *World) Remove(g *engine.GameObject) {
	if rb := engine.GetComponent[*components.RigidBody](g); rb != nil {
		w.releaseCollider(rb)
	}
	w.Scene.RemoveGameObject(g)
}

// Clear empties the scene and releases every asset reference.
func (w *World) Clear() {
	for rb := range w.colliders {
		w.releaseCollider(rb)
	}
	w.Scene.Clear()
}

// attachCollider requests the body's collider. The shapes are attached when the
// library delivers them, unless the body left the scene in the meantime.
func (w *World) attachCollider(rb *components.RigidBody) {
	id := rb.ColliderID
	if id == "" {
		return
	}
	w.Library.Request(id, func(_ *collision.Shapes, err error) {
		if err != nil {
			return
		}
		g := rb.GetGameObject()
		if g == nil || g.Scene != w.Scene || rb.ColliderID != id {
			return
		}
		shapes, ok := w.Library.Acquire(id)
		if !ok {
			return
		}
		w.releaseCollider(rb)
		w.colliders[rb] = id
		rb.AddCollider(shapes)
	})
}

func (w *World) releaseCollider(rb *components.RigidBody) {
	if id, ok := w.colliders[rb]; ok {
		w.Library.Release(id)
		delete(w.colliders, rb)
	}
}

// ReloadAsset drops a cached shape asset and re-requests it for every body
// that uses it. Bodies keep the old shapes until the new ones arrive.
func (w *World) ReloadAsset(id string) {
	var users []*components.RigidBody
	for _, g := range w.Scene.GameObjects {
		if rb := engine.GetComponent[*components.RigidBody](g); rb != nil && rb.ColliderID == id {
			w.releaseCollider(rb)
			users = append(users, rb)
		}
	}
	w.Library.Invalidate(id)
	for _, rb := range users {
		w.attachCollider(rb)
	}
	if len(users) > 0 {
		log.Printf("Assets: reloading %s for %d bodies", id, len(users))
	}
}

// Release frees GPU resources held by physics.
func (w *World) Release() {
	w.Clear()
	w.PhysicsWorld.Release()
}
