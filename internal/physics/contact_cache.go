package physics

import (
	"math"

	"rigid3d/internal/collision"
	"rigid3d/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// MaxPairManifolds bounds the manifolds kept per pair within one Step.
const MaxPairManifolds = 64

// MaxReducedContacts is the size of a reduced contact set.
const MaxReducedContacts = 4

// PairKey identifies an unordered body pair. A is always the lesser handle.
type PairKey struct {
	A, B engine.Entity
}

// MakePairKey orders the handles. flipped reports whether a and b were swapped.
func MakePairKey(a, b engine.Entity) (key PairKey, flipped bool) {
	if b.Less(a) {
		return PairKey{A: b, B: a}, true
	}
	return PairKey{A: a, B: b}, false
}

// manifoldRing keeps the most recent MaxPairManifolds manifolds.
type manifoldRing struct {
	items [MaxPairManifolds]collision.Manifold
	head  int
	count int
}

func (r *manifoldRing) push(m collision.Manifold) {
	r.items[r.head] = m
	r.head = (r.head + 1) % MaxPairManifolds
	if r.count < MaxPairManifolds {
		r.count++
	}
}

// at returns the i-th manifold, oldest first.
func (r *manifoldRing) at(i int) *collision.Manifold {
	start := r.head - r.count + MaxPairManifolds
	return &r.items[(start+i)%MaxPairManifolds]
}

func (r *manifoldRing) contains(m *collision.Manifold) bool {
	for i := 0; i < r.count; i++ {
		if samePoints(r.at(i), m) {
			return true
		}
	}
	return false
}

// samePoints compares the world and local contact points bit for bit.
func samePoints(a, b *collision.Manifold) bool {
	return a.ContactPointA == b.ContactPointA && a.ContactPointB == b.ContactPointB &&
		a.LocalContactPointA == b.LocalContactPointA && a.LocalContactPointB == b.LocalContactPointB
}

// ContactSet is a fixed-capacity set of up to four manifolds.
type ContactSet struct {
	items [MaxReducedContacts]collision.Manifold
	n     int
}

func (s *ContactSet) Len() int {
	return s.n
}

// At returns the i-th contact.
func (s *ContactSet) At(i int) collision.Manifold {
	return s.items[i]
}

// Slice views the set without copying.
func (s *ContactSet) Slice() []collision.Manifold {
	return s.items[:s.n]
}

func (s *ContactSet) add(m collision.Manifold) bool {
	if s.n == MaxReducedContacts {
		return false
	}
	s.items[s.n] = m
	s.n++
	return true
}

func (s *ContactSet) flip() {
	for i := 0; i < s.n; i++ {
		s.items[i] = s.items[i].Flipped()
	}
}

// ContactCache accumulates manifolds per body pair across the sub-steps of one
// Step. Manifolds are stored as seen from the lesser handle.
type ContactCache struct {
	pairs map[PairKey]*manifoldRing
}

func NewContactCache() *ContactCache {
	return &ContactCache{pairs: make(map[PairKey]*manifoldRing)}
}

// IntegrateContact stores m for the pair (a, b) unless a manifold with identical
// points is already present. Returns whether m was added.
func (c *ContactCache) IntegrateContact(m collision.Manifold, a, b engine.Entity) bool {
	if !m.HasCollision {
		return false
	}
	key, flipped := MakePairKey(a, b)
	if flipped {
		m = m.Flipped()
	}
	ring := c.pairs[key]
	if ring == nil {
		ring = &manifoldRing{}
		c.pairs[key] = ring
	}
	if ring.contains(&m) {
		return false
	}
	ring.push(m)
	return true
}

// Manifolds returns a copy of the pair's manifolds, oriented from a to b.
func (c *ContactCache) Manifolds(a, b engine.Entity) []collision.Manifold {
	key, flipped := MakePairKey(a, b)
	ring := c.pairs[key]
	if ring == nil {
		return nil
	}
	out := make([]collision.Manifold, ring.count)
	for i := range out {
		out[i] = *ring.at(i)
		if flipped {
			out[i] = out[i].Flipped()
		}
	}
	return out
}

// PairCount is the number of pairs with at least one manifold.
func (c *ContactCache) PairCount() int {
	return len(c.pairs)
}

// Clear drops every pair.
func (c *ContactCache) Clear() {
	clear(c.pairs)
}

// GetReducedContacts picks up to four well spread manifolds for the pair:
// the deepest, the one farthest from it, the one spanning the largest triangle
// with those two, and the one spanning the largest triangle with the third and
// the first. Distances and areas use A's local contact points. Result is
// oriented from a to b.
func (c *ContactCache) GetReducedContacts(a, b engine.Entity) ContactSet {
	var set ContactSet
	key, flipped := MakePairKey(a, b)
	ring := c.pairs[key]
	if ring == nil || ring.count == 0 {
		return set
	}

	var chosen [MaxReducedContacts]int
	picked := func(i int) bool {
		m := ring.at(i)
		for k := 0; k < set.n; k++ {
			if chosen[k] == i || samePoints(ring.at(chosen[k]), m) {
				return true
			}
		}
		return false
	}
	pick := func(score func(m *collision.Manifold) float32) bool {
		best, bestScore := -1, float32(-1)
		for i := 0; i < ring.count; i++ {
			if picked(i) || !ring.at(i).Valid() {
				continue
			}
			s := score(ring.at(i))
			if !finite(s) {
				continue
			}
			if s > bestScore {
				best, bestScore = i, s
			}
		}
		if best < 0 {
			return false
		}
		chosen[set.n] = best
		return set.add(*ring.at(best))
	}

	if !pick(func(m *collision.Manifold) float32 { return m.CollisionDepth }) {
		return set
	}
	pa := set.items[0].LocalContactPointA
	normal := set.items[0].Normal

	if !pick(func(m *collision.Manifold) float32 {
		return rl.Vector3Distance(m.LocalContactPointA, pa)
	}) {
		return finish(set, flipped)
	}
	pb := set.items[1].LocalContactPointA

	if !pick(func(m *collision.Manifold) float32 {
		return triangleArea(pa, pb, m.LocalContactPointA, normal)
	}) {
		return finish(set, flipped)
	}
	pc := set.items[2].LocalContactPointA

	pick(func(m *collision.Manifold) float32 {
		return triangleArea(pc, pa, m.LocalContactPointA, normal)
	})
	return finish(set, flipped)
}

func finish(set ContactSet, flipped bool) ContactSet {
	if flipped {
		set.flip()
	}
	return set
}

// triangleArea is the area of abc projected onto the plane of normal.
func triangleArea(a, b, c, normal rl.Vector3) float32 {
	cross := rl.Vector3CrossProduct(rl.Vector3Subtract(a, c), rl.Vector3Subtract(b, c))
	return float32(math.Abs(float64(rl.Vector3DotProduct(cross, normal)))) * 0.5
}

func finite(x float32) bool {
	f := float64(x)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
