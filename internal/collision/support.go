package collision

import (
	"rigid3d/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// SupportPoint is the furthest point of a shape in a query direction, in world and
// local space.
type SupportPoint struct {
	World rl.Vector3
	Local rl.Vector3
}

// supportFunc returns the furthest local point along a local-space direction.
type supportFunc func(s *CollisionShape, dir rl.Vector3) rl.Vector3

// featureFunc returns the local points of the face, edge or vertex facing dir.
type featureFunc func(s *CollisionShape, dir rl.Vector3, tol float32) []rl.Vector3

var supportFuncs = [shapeKindCount]supportFunc{
	ShapeSphere:   supportSphere,
	ShapeCylinder: supportCylinder,
	ShapeCapsule:  supportCapsule,
	ShapeMesh:     supportMesh,
}

var featureFuncs = [shapeKindCount]featureFunc{
	ShapeSphere:   featureSphere,
	ShapeCylinder: featureCylinder,
	ShapeCapsule:  featureCapsule,
	ShapeMesh:     featureMesh,
}

// localDirection maps a world direction d into the shape's local frame so that
// support_world(d) = T(support_local(S * R^-1 * d)).
func localDirection(t engine.Transform, dir rl.Vector3) rl.Vector3 {
	return rl.Vector3Multiply(t.InverseTransformDirection(dir), t.Scale)
}

// FindFurthestPointWorld is the GJK support function: the point of the shape, placed
// by t, that maximizes the dot product with dir.
func (s *CollisionShape) FindFurthestPointWorld(t engine.Transform, dir rl.Vector3) SupportPoint {
	fn := supportFuncs[s.Kind]
	if fn == nil {
		return SupportPoint{World: t.Position}
	}
	local := fn(s, localDirection(t, dir))
	return SupportPoint{World: t.TransformPoint(local), Local: local}
}

// contactFeature returns the world-space points of the feature facing dir. A single
// point means a vertex (or a curved surface).
func (s *CollisionShape) contactFeature(t engine.Transform, dir rl.Vector3) []rl.Vector3 {
	fn := featureFuncs[s.Kind]
	if fn == nil {
		return nil
	}
	ld := localDirection(t, dir)
	if l := rl.Vector3Length(ld); l > 0 {
		ld = rl.Vector3Scale(ld, 1/l)
	}
	size := rl.Vector3Length(rl.Vector3Subtract(s.Max, s.Min))
	pts := fn(s, ld, featureTolerance*size)
	for i := range pts {
		pts[i] = t.TransformPoint(pts[i])
	}
	return pts
}

// featureTolerance is the fraction of a shape's diagonal within which vertices count
// as lying on the same supporting plane.
const featureTolerance = 1e-3

// angularTolerance bounds the direction component under which a curved shape's flat
// cap or straight side is treated as facing the query.
const angularTolerance = 1e-3

func supportMesh(s *CollisionShape, dir rl.Vector3) rl.Vector3 {
	best := s.Vertices[0]
	bestDot := rl.Vector3DotProduct(best, dir)
	for _, v := range s.Vertices[1:] {
		if d := rl.Vector3DotProduct(v, dir); d > bestDot {
			best, bestDot = v, d
		}
	}
	return best
}

func featureMesh(s *CollisionShape, dir rl.Vector3, tol float32) []rl.Vector3 {
	maxDot := rl.Vector3DotProduct(supportMesh(s, dir), dir)
	var pts []rl.Vector3
	for _, v := range s.Vertices {
		if rl.Vector3DotProduct(v, dir) >= maxDot-tol {
			pts = append(pts, v)
		}
	}
	return pts
}

func unitOr(dir rl.Vector3, fallback rl.Vector3) rl.Vector3 {
	l := rl.Vector3Length(dir)
	if l < 1e-12 {
		return fallback
	}
	return rl.Vector3Scale(dir, 1/l)
}

func supportSphere(s *CollisionShape, dir rl.Vector3) rl.Vector3 {
	return rl.Vector3Scale(unitOr(dir, rl.Vector3{X: 1}), s.Radius)
}

func featureSphere(s *CollisionShape, dir rl.Vector3, _ float32) []rl.Vector3 {
	return []rl.Vector3{supportSphere(s, dir)}
}

func signY(y float32) float32 {
	if y < 0 {
		return -1
	}
	return 1
}

func supportCapsule(s *CollisionShape, dir rl.Vector3) rl.Vector3 {
	p := supportSphere(s, dir)
	p.Y += signY(dir.Y) * s.HalfHeight
	return p
}

func featureCapsule(s *CollisionShape, dir rl.Vector3, _ float32) []rl.Vector3 {
	if absf(dir.Y) <= angularTolerance {
		side := rl.Vector3Scale(unitOr(rl.Vector3{X: dir.X, Z: dir.Z}, rl.Vector3{X: 1}), s.Radius)
		top, bottom := side, side
		top.Y += s.HalfHeight
		bottom.Y -= s.HalfHeight
		return []rl.Vector3{bottom, top}
	}
	return []rl.Vector3{supportCapsule(s, dir)}
}

func supportCylinder(s *CollisionShape, dir rl.Vector3) rl.Vector3 {
	sigma := sqrtf(dir.X*dir.X + dir.Z*dir.Z)
	p := rl.Vector3{Y: signY(dir.Y) * s.HalfHeight}
	if sigma > 1e-12 {
		p.X = s.Radius * dir.X / sigma
		p.Z = s.Radius * dir.Z / sigma
	}
	return p
}

func featureCylinder(s *CollisionShape, dir rl.Vector3, _ float32) []rl.Vector3 {
	sigma := sqrtf(dir.X*dir.X + dir.Z*dir.Z)
	y := signY(dir.Y) * s.HalfHeight
	if sigma <= angularTolerance {
		// Cap disc, sampled on four rim points.
		r := s.Radius
		return []rl.Vector3{{X: r, Y: y}, {Z: r, Y: y}, {X: -r, Y: y}, {Z: -r, Y: y}}
	}
	if absf(dir.Y) <= angularTolerance {
		p := supportCylinder(s, dir)
		top, bottom := p, p
		top.Y, bottom.Y = s.HalfHeight, -s.HalfHeight
		return []rl.Vector3{bottom, top}
	}
	return []rl.Vector3{supportCylinder(s, dir)}
}
