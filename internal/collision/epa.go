package collision

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
)

const (
	epaMaxIterations = 64
	// epaTolerance is the distance gain below which the closest face is accepted.
	epaTolerance = 1e-4
	// Points closer than this are treated as the same Minkowski vertex.
	epaMergeDistance = 1e-6
)

type epaFace struct {
	v      [3]int
	normal rl.Vector3 // unit, pointing out of the polytope
	dist   float32
}

// polytope is the expanding hull of Minkowski vertices. centroid is interior to the
// initial tetrahedron and therefore to every later hull.
type polytope struct {
	verts    []minkowskiPoint
	faces    []epaFace
	centroid rl.Vector3
}

// addFace appends the triangle with its normal oriented away from the centroid.
// Degenerate triangles are dropped.
func (pt *polytope) addFace(i, j, k int) {
	a, b, c := pt.verts[i].P, pt.verts[j].P, pt.verts[k].P
	n := rl.Vector3CrossProduct(rl.Vector3Subtract(b, a), rl.Vector3Subtract(c, a))
	l := rl.Vector3Length(n)
	if l < 1e-12 {
		return
	}
	n = rl.Vector3Scale(n, 1/l)
	if rl.Vector3DotProduct(n, rl.Vector3Subtract(a, pt.centroid)) < 0 {
		n = rl.Vector3Negate(n)
		j, k = k, j
	}
	pt.faces = append(pt.faces, epaFace{v: [3]int{i, j, k}, normal: n, dist: rl.Vector3DotProduct(n, a)})
}

func (pt *polytope) closest() int {
	best := 0
	for i := 1; i < len(pt.faces); i++ {
		if pt.faces[i].dist < pt.faces[best].dist {
			best = i
		}
	}
	return best
}

type edgeKey struct{ a, b int }

func makeEdge(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// expand removes every face visible from vertex idx and stitches the horizon to it.
func (pt *polytope) expand(idx int) {
	p := pt.verts[idx].P
	counts := make(map[edgeKey]int)
	var order []edgeKey // keep insertion order for deterministic face lists
	kept := pt.faces[:0]
	for _, f := range pt.faces {
		if rl.Vector3DotProduct(f.normal, rl.Vector3Subtract(p, pt.verts[f.v[0]].P)) > 0 {
			for e := 0; e < 3; e++ {
				k := makeEdge(f.v[e], f.v[(e+1)%3])
				if counts[k] == 0 {
					order = append(order, k)
				}
				counts[k]++
			}
			continue
		}
		kept = append(kept, f)
	}
	pt.faces = kept
	for _, e := range order {
		if counts[e] == 1 {
			pt.addFace(e.a, e.b, idx)
		}
	}
}

func (pt *polytope) contains(p rl.Vector3) bool {
	for _, v := range pt.verts {
		if rl.Vector3Distance(v.P, p) < epaMergeDistance {
			return true
		}
	}
	return false
}

// epa expands a GJK simplex that contains the origin into the face of the Minkowski
// difference closest to it and derives normal, depth and witness points.
func epa(p *shapePair, s *simplex) Manifold {
	if !blowUp(p, s) {
		return Manifold{}
	}

	pt := &polytope{verts: append([]minkowskiPoint(nil), s.pts[:4]...)}
	for _, v := range pt.verts {
		pt.centroid = rl.Vector3Add(pt.centroid, v.P)
	}
	pt.centroid = rl.Vector3Scale(pt.centroid, 0.25)
	pt.addFace(0, 1, 2)
	pt.addFace(0, 3, 1)
	pt.addFace(0, 2, 3)
	pt.addFace(1, 3, 2)
	if len(pt.faces) < 4 {
		return Manifold{}
	}

	var face epaFace
	for i := 0; i < epaMaxIterations && len(pt.faces) > 0; i++ {
		face = pt.faces[pt.closest()]
		next := p.support(face.normal)
		gain := rl.Vector3DotProduct(next.P, face.normal) - face.dist
		if gain < epaTolerance || pt.contains(next.P) {
			break
		}
		pt.verts = append(pt.verts, next)
		pt.expand(len(pt.verts) - 1)
	}
	if len(pt.faces) == 0 {
		return Manifold{}
	}
	face = pt.faces[pt.closest()]
	if face.dist <= 0 || !finite(face.dist) {
		return Manifold{}
	}

	a, b, c := pt.verts[face.v[0]], pt.verts[face.v[1]], pt.verts[face.v[2]]
	u, v, w := barycentric(rl.Vector3Scale(face.normal, face.dist), a.P, b.P, c.P)
	m := Manifold{
		HasCollision:       true,
		CollisionDepth:     face.dist,
		Normal:             face.normal,
		ContactPointA:      blend(u, v, w, a.A.World, b.A.World, c.A.World),
		ContactPointB:      blend(u, v, w, a.B.World, b.B.World, c.B.World),
		LocalContactPointA: blend(u, v, w, a.A.Local, b.A.Local, c.A.Local),
		LocalContactPointB: blend(u, v, w, a.B.Local, b.B.Local, c.B.Local),
	}
	if !m.Valid() {
		return Manifold{}
	}
	return m
}

func blend(u, v, w float32, a, b, c rl.Vector3) rl.Vector3 {
	return rl.Vector3Add(rl.Vector3Add(rl.Vector3Scale(a, u), rl.Vector3Scale(b, v)), rl.Vector3Scale(c, w))
}

// barycentric returns the coordinates of p projected onto triangle abc.
func barycentric(p, a, b, c rl.Vector3) (float32, float32, float32) {
	v0 := rl.Vector3Subtract(b, a)
	v1 := rl.Vector3Subtract(c, a)
	v2 := rl.Vector3Subtract(p, a)
	d00 := rl.Vector3DotProduct(v0, v0)
	d01 := rl.Vector3DotProduct(v0, v1)
	d11 := rl.Vector3DotProduct(v1, v1)
	d20 := rl.Vector3DotProduct(v2, v0)
	d21 := rl.Vector3DotProduct(v2, v1)
	denom := d00*d11 - d01*d01
	if absf(denom) < 1e-12 {
		return 1, 0, 0
	}
	v := (d11*d20 - d01*d21) / denom
	w := (d00*d21 - d01*d20) / denom
	return 1 - v - w, v, w
}

var searchAxes = [...]rl.Vector3{
	{X: 1}, {X: -1}, {Y: 1}, {Y: -1}, {Z: 1}, {Z: -1},
}

// blowUp grows a simplex that encloses the origin on its boundary into a
// tetrahedron. It fails when the Minkowski difference is flat.
func blowUp(p *shapePair, s *simplex) bool {
	if s.count == 1 {
		for _, axis := range searchAxes {
			q := p.support(axis)
			if rl.Vector3Distance(q.P, s.pts[0].P) > epaMergeDistance {
				s.push(q)
				break
			}
		}
		if s.count == 1 {
			return false
		}
	}

	if s.count == 2 {
		d := rl.Vector3Normalize(rl.Vector3Subtract(s.pts[1].P, s.pts[0].P))
		// Least aligned axis gives a stable perpendicular.
		axis := rl.Vector3{X: 1}
		if absf(d.Y) < absf(d.X) && absf(d.Y) <= absf(d.Z) {
			axis = rl.Vector3{Y: 1}
		} else if absf(d.Z) < absf(d.X) {
			axis = rl.Vector3{Z: 1}
		}
		perp := rl.Vector3Normalize(rl.Vector3CrossProduct(d, axis))
		rot := rl.QuaternionFromAxisAngle(d, math.Pi/3)
		for k := 0; k < 6; k++ {
			q := p.support(perp)
			if distanceToLine(q.P, s.pts[0].P, d) > epaMergeDistance {
				s.push(q)
				break
			}
			perp = rl.Vector3RotateByQuaternion(perp, rot)
		}
		if s.count == 2 {
			return false
		}
	}

	if s.count == 3 {
		a, b, c := s.pts[0].P, s.pts[1].P, s.pts[2].P
		n := rl.Vector3CrossProduct(rl.Vector3Subtract(b, a), rl.Vector3Subtract(c, a))
		if rl.Vector3LengthSqr(n) < 1e-12 {
			return false
		}
		n = rl.Vector3Normalize(n)
		up, down := p.support(n), p.support(rl.Vector3Negate(n))
		du := rl.Vector3DotProduct(rl.Vector3Subtract(up.P, a), n)
		dd := -rl.Vector3DotProduct(rl.Vector3Subtract(down.P, a), n)
		switch {
		case du >= dd && du > epaMergeDistance:
			s.push(up)
		case dd > epaMergeDistance:
			s.push(down)
		default:
			return false
		}
	}
	return s.count == 4
}

func distanceToLine(p, origin, dir rl.Vector3) float32 {
	rel := rl.Vector3Subtract(p, origin)
	return rl.Vector3Length(rl.Vector3Subtract(rel, rl.Vector3Scale(dir, rl.Vector3DotProduct(rel, dir))))
}
