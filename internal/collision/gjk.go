package collision

import (
	"rigid3d/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

const gjkMaxIterations = 32

// minkowskiPoint is a vertex of the Minkowski difference A - B together with the
// support points of each shape that produced it.
type minkowskiPoint struct {
	P rl.Vector3
	A SupportPoint
	B SupportPoint
}

// shapePair binds two shapes to their transforms for support queries.
type shapePair struct {
	a, b   *CollisionShape
	ta, tb engine.Transform
}

func (p *shapePair) support(dir rl.Vector3) minkowskiPoint {
	sa := p.a.FindFurthestPointWorld(p.ta, dir)
	sb := p.b.FindFurthestPointWorld(p.tb, rl.Vector3Negate(dir))
	return minkowskiPoint{P: rl.Vector3Subtract(sa.World, sb.World), A: sa, B: sb}
}

// simplex holds 1-4 points, the most recent last.
type simplex struct {
	pts   [4]minkowskiPoint
	count int
}

func (s *simplex) push(p minkowskiPoint) {
	s.pts[s.count] = p
	s.count++
}

func (s *simplex) set(pts ...minkowskiPoint) {
	s.count = copy(s.pts[:], pts)
}

// gjk reports whether the Minkowski difference of the pair contains the origin.
// On overlap the simplex holds the terminal points (not always a tetrahedron).
func gjk(p *shapePair, s *simplex) bool {
	dir := rl.Vector3Subtract(p.tb.Position, p.ta.Position)
	if rl.Vector3LengthSqr(dir) < 1e-8 {
		dir = rl.Vector3{X: 1}
	}

	s.set(p.support(dir))
	dir = rl.Vector3Negate(s.pts[0].P)
	if rl.Vector3LengthSqr(dir) < 1e-12 {
		return true
	}

	for i := 0; i < gjkMaxIterations; i++ {
		next := p.support(dir)
		if rl.Vector3DotProduct(next.P, dir) <= 0 {
			return false
		}
		s.push(next)
		if nearestSimplex(s, &dir) {
			return true
		}
	}
	return false
}

// nearestSimplex reduces the simplex to the feature closest to the origin and points
// dir at the origin from it. Returns true when the origin is enclosed.
func nearestSimplex(s *simplex, dir *rl.Vector3) bool {
	switch s.count {
	case 2:
		return gjkLine(s, dir)
	case 3:
		return gjkTriangle(s, dir)
	case 4:
		return gjkTetrahedron(s, dir)
	}
	return false
}

func tripleCross(a, b, c rl.Vector3) rl.Vector3 {
	return rl.Vector3CrossProduct(rl.Vector3CrossProduct(a, b), c)
}

func gjkLine(s *simplex, dir *rl.Vector3) bool {
	a, b := s.pts[1], s.pts[0]
	ab := rl.Vector3Subtract(b.P, a.P)
	ao := rl.Vector3Negate(a.P)

	if rl.Vector3LengthSqr(ab) < 1e-8 {
		s.set(a)
		*dir = ao
		return rl.Vector3LengthSqr(ao) < 1e-8
	}
	if rl.Vector3DotProduct(ab, ao) <= 0 {
		s.set(a)
		*dir = ao
		return false
	}

	perp := tripleCross(ab, ao, ab)
	if rl.Vector3LengthSqr(perp) < 1e-8 {
		// Origin on the segment.
		return true
	}
	*dir = perp
	return false
}

func gjkTriangle(s *simplex, dir *rl.Vector3) bool {
	a, b, c := s.pts[2], s.pts[1], s.pts[0]
	ab := rl.Vector3Subtract(b.P, a.P)
	ac := rl.Vector3Subtract(c.P, a.P)
	ao := rl.Vector3Negate(a.P)
	abc := rl.Vector3CrossProduct(ab, ac)

	if rl.Vector3LengthSqr(abc) < 1e-10 {
		s.set(b, a)
		return gjkLine(s, dir)
	}

	if rl.Vector3DotProduct(rl.Vector3CrossProduct(ab, abc), ao) > 0 {
		s.set(b, a)
		*dir = tripleCross(ab, ao, ab)
		return false
	}
	if rl.Vector3DotProduct(rl.Vector3CrossProduct(abc, ac), ao) > 0 {
		s.set(c, a)
		*dir = tripleCross(ac, ao, ac)
		return false
	}

	if rl.Vector3DotProduct(abc, ao) > 0 {
		*dir = abc
	} else {
		s.set(b, c, a)
		*dir = rl.Vector3Negate(abc)
	}
	return false
}

func gjkTetrahedron(s *simplex, dir *rl.Vector3) bool {
	a, b, c, d := s.pts[3], s.pts[2], s.pts[1], s.pts[0]
	ab := rl.Vector3Subtract(b.P, a.P)
	ac := rl.Vector3Subtract(c.P, a.P)
	ad := rl.Vector3Subtract(d.P, a.P)
	ao := rl.Vector3Negate(a.P)

	// Face normals pointing away from the opposite vertex.
	abc := rl.Vector3CrossProduct(ab, ac)
	if rl.Vector3DotProduct(abc, ad) > 0 {
		abc = rl.Vector3Negate(abc)
	}
	acd := rl.Vector3CrossProduct(ac, ad)
	if rl.Vector3DotProduct(acd, ab) > 0 {
		acd = rl.Vector3Negate(acd)
	}
	adb := rl.Vector3CrossProduct(ad, ab)
	if rl.Vector3DotProduct(adb, ac) > 0 {
		adb = rl.Vector3Negate(adb)
	}

	if rl.Vector3LengthSqr(abc) < 1e-10 || rl.Vector3LengthSqr(acd) < 1e-10 || rl.Vector3LengthSqr(adb) < 1e-10 {
		s.set(c, b, a)
		return gjkTriangle(s, dir)
	}

	switch {
	case rl.Vector3DotProduct(abc, ao) > 0:
		s.set(c, b, a)
		return gjkTriangle(s, dir)
	case rl.Vector3DotProduct(acd, ao) > 0:
		s.set(d, c, a)
		return gjkTriangle(s, dir)
	case rl.Vector3DotProduct(adb, ao) > 0:
		s.set(b, d, a)
		return gjkTriangle(s, dir)
	}
	return true
}
