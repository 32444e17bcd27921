package world

import (
	"rigid3d/internal/collision"
	"rigid3d/internal/components"
	"rigid3d/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Renderer draws the physics state of a scene as wireframes: shape boxes,
// sphere outlines and the recent contact points of every body.
type Renderer struct {
	ShowBounds   bool
	ShowContacts bool

	// Drawn and Culled count bodies in the last frame.
	Drawn  int
	Culled int
}

func NewRenderer() *Renderer {
	return &Renderer{ShowBounds: true, ShowContacts: true}
}

// Draw must run between rl.BeginMode3D and rl.EndMode3D.
func (r *Renderer) Draw(camera rl.Camera3D, gameObjects []*engine.GameObject) {
	aspect := float32(rl.GetScreenWidth()) / float32(max(rl.GetScreenHeight(), 1))
	frustum := ExtractFrustum(camera, aspect)
	r.Drawn, r.Culled = 0, 0

	for _, g := range gameObjects {
		rb := engine.GetComponent[*components.RigidBody](g)
		if rb == nil || !rb.HasShapes() {
			continue
		}
		if !visible(&frustum, rb) {
			r.Culled++
			continue
		}
		r.Drawn++
		r.drawBody(g, rb)
	}
}

func visible(f *Frustum, rb *components.RigidBody) bool {
	for i := range rb.HalfExtents {
		if f.ContainsAABB(rb.HalfExtents[i].World) {
			return true
		}
	}
	return false
}

func (r *Renderer) drawBody(g *engine.GameObject, rb *components.RigidBody) {
	color := BodyColor(rb)
	shapes := rb.Shapes().Shapes

	for i := range rb.HalfExtents {
		h := &rb.HalfExtents[i]
		if shapes[i].Kind == collision.ShapeSphere {
			rl.DrawSphereWires(h.OBB.Center, h.OBB.HalfSize.X, 8, 8, color)
		} else {
			for _, e := range BoxEdges(h.Corners) {
				rl.DrawLine3D(e[0], e[1], color)
			}
		}
		if r.ShowBounds {
			box := rl.BoundingBox{Min: h.World.Min, Max: h.World.Max}
			rl.DrawBoundingBox(box, rl.Fade(color, 0.25))
		}
	}

	if r.ShowContacts {
		for _, p := range rb.ContactPoints() {
			rl.DrawSphere(g.Transform.TransformPoint(p), 0.04, rl.Red)
		}
	}
}

// BodyColor encodes the body state: static gray, sleeping blue, awake orange.
func BodyColor(rb *components.RigidBody) rl.Color {
	switch {
	case rb.IsStatic():
		return rl.Gray
	case rb.IsSleeping():
		return rl.SkyBlue
	default:
		return rl.Orange
	}
}

// BoxEdges lists the 12 edges of a box whose corners are ordered x, then y, then
// z, low before high. Corners sharing an edge differ in exactly one index bit.
func BoxEdges(corners [8]rl.Vector3) [12][2]rl.Vector3 {
	var edges [12][2]rl.Vector3
	n := 0
	for i := 0; i < 8; i++ {
		for _, bit := range [3]int{4, 2, 1} {
			if i&bit == 0 {
				edges[n] = [2]rl.Vector3{corners[i], corners[i|bit]}
				n++
			}
		}
	}
	return edges
}
