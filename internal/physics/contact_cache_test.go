package physics

import (
	"math"
	"testing"

	"rigid3d/internal/collision"
	"rigid3d/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

func twoEntities() (engine.Entity, engine.Entity) {
	var arena engine.Arena[int]
	return arena.Insert(1), arena.Insert(2)
}

func contactAt(x, z, depth float32) collision.Manifold {
	p := rl.Vector3{X: x, Z: z}
	return collision.Manifold{
		HasCollision:       true,
		CollisionDepth:     depth,
		Normal:             rl.Vector3{Y: 1},
		ContactPointA:      p,
		ContactPointB:      rl.Vector3{X: x, Y: -depth, Z: z},
		LocalContactPointA: p,
		LocalContactPointB: rl.Vector3{X: x, Y: 0.5 - depth, Z: z},
	}
}

func TestMakePairKey(t *testing.T) {
	a, b := twoEntities()

	key, flipped := MakePairKey(a, b)
	if flipped || key.A != a || key.B != b {
		t.Errorf("Expected (%v, %v) unflipped, got %+v flipped=%v", a, b, key, flipped)
	}
	key2, flipped := MakePairKey(b, a)
	if !flipped || key2 != key {
		t.Errorf("Expected the same key flipped, got %+v flipped=%v", key2, flipped)
	}
}

func TestIntegrateContactDeduplicates(t *testing.T) {
	a, b := twoEntities()
	cache := NewContactCache()

	m := contactAt(0, 0, 0.1)
	if !cache.IntegrateContact(m, a, b) {
		t.Error("Expected first manifold to be stored")
	}
	if cache.IntegrateContact(m, a, b) {
		t.Error("Expected identical manifold to be rejected")
	}
	if cache.IntegrateContact(collision.Manifold{}, a, b) {
		t.Error("Expected empty manifold to be rejected")
	}
	if got := len(cache.Manifolds(a, b)); got != 1 {
		t.Errorf("Expected 1 manifold, got %d", got)
	}

	cache.Clear()
	if cache.PairCount() != 0 {
		t.Errorf("Expected empty cache after Clear, got %d pairs", cache.PairCount())
	}
}

func TestContactCacheOrientation(t *testing.T) {
	a, b := twoEntities()
	cache := NewContactCache()

	m := contactAt(1, 2, 0.1)
	cache.IntegrateContact(m, b, a)

	if got := cache.Manifolds(b, a); len(got) != 1 || got[0] != m {
		t.Errorf("Expected manifold as stored from b's side, got %+v", got)
	}
	if got := cache.Manifolds(a, b); len(got) != 1 || got[0] != m.Flipped() {
		t.Errorf("Expected flipped manifold from a's side, got %+v", got)
	}

	// Storing the flipped copy from the other side is the same contact.
	if cache.IntegrateContact(m.Flipped(), a, b) {
		t.Error("Expected mirrored manifold to be a duplicate")
	}

	set := cache.GetReducedContacts(b, a)
	if set.Len() != 1 || set.At(0) != m {
		t.Errorf("Expected reduced set oriented from b, got %+v", set.Slice())
	}
}

func TestReducedContactsPickSpreadPoints(t *testing.T) {
	a, b := twoEntities()
	cache := NewContactCache()

	cache.IntegrateContact(contactAt(0, 0, 0.5), a, b)
	cache.IntegrateContact(contactAt(2, 0, 0.1), a, b)
	cache.IntegrateContact(contactAt(0, 2, 0.1), a, b)
	cache.IntegrateContact(contactAt(2, 2, 0.1), a, b)
	cache.IntegrateContact(contactAt(1, 1, 0.2), a, b)
	cache.IntegrateContact(contactAt(0.1, 0, 0.1), a, b)

	set := cache.GetReducedContacts(a, b)
	if set.Len() != MaxReducedContacts {
		t.Fatalf("Expected %d contacts, got %d", MaxReducedContacts, set.Len())
	}

	expected := []rl.Vector3{{}, {X: 2, Z: 2}, {X: 2}, {Z: 2}}
	for i, want := range expected {
		if got := set.At(i).LocalContactPointA; got != want {
			t.Errorf("Contact %d: expected %v, got %v", i, want, got)
		}
	}

	seen := map[rl.Vector3]bool{}
	for _, m := range set.Slice() {
		if seen[m.LocalContactPointA] {
			t.Errorf("Duplicate contact %v", m.LocalContactPointA)
		}
		seen[m.LocalContactPointA] = true
	}
}

func TestReducedContactsFewerThanFour(t *testing.T) {
	a, b := twoEntities()
	cache := NewContactCache()

	if got := cache.GetReducedContacts(a, b); got.Len() != 0 {
		t.Errorf("Expected no contacts for unknown pair, got %d", got.Len())
	}

	cache.IntegrateContact(contactAt(0, 0, 0.3), a, b)
	cache.IntegrateContact(contactAt(1, 0, 0.2), a, b)
	set := cache.GetReducedContacts(a, b)
	if set.Len() != 2 {
		t.Fatalf("Expected 2 contacts, got %d", set.Len())
	}
	if set.At(0).CollisionDepth != 0.3 {
		t.Errorf("Expected deepest contact first, got depth %f", set.At(0).CollisionDepth)
	}
}

func TestManifoldRingKeepsNewest(t *testing.T) {
	a, b := twoEntities()
	cache := NewContactCache()

	for i := 0; i < MaxPairManifolds+10; i++ {
		cache.IntegrateContact(contactAt(float32(i), 0, 0.1), a, b)
	}
	got := cache.Manifolds(a, b)
	if len(got) != MaxPairManifolds {
		t.Fatalf("Expected %d manifolds, got %d", MaxPairManifolds, len(got))
	}
	if got[0].LocalContactPointA.X != 10 {
		t.Errorf("Expected oldest kept manifold at x=10, got %v", got[0].LocalContactPointA)
	}
}

func TestReducedContactsSkipNonFinite(t *testing.T) {
	a, b := twoEntities()
	cache := NewContactCache()

	nanDepth := contactAt(5, 5, 0.1)
	nanDepth.CollisionDepth = float32(math.NaN())
	infPoint := contactAt(3, 3, 0.9)
	infPoint.LocalContactPointA.X = float32(math.Inf(1))

	cache.IntegrateContact(infPoint, a, b)
	cache.IntegrateContact(nanDepth, a, b)
	for _, p := range [][2]float32{{0, 0}, {2, 0}, {0, 2}, {2, 2}} {
		cache.IntegrateContact(contactAt(p[0], p[1], 0.1), a, b)
	}

	set := cache.GetReducedContacts(a, b)
	if set.Len() != 4 {
		t.Fatalf("Expected 4 finite contacts, got %d", set.Len())
	}
	for _, m := range set.Slice() {
		d := float64(m.CollisionDepth)
		x := float64(m.LocalContactPointA.X)
		if math.IsNaN(d) || math.IsInf(d, 0) || math.IsNaN(x) || math.IsInf(x, 0) {
			t.Errorf("Expected only finite contacts, got %+v", m)
		}
	}
}

func TestReducedContactsAllNonFinite(t *testing.T) {
	a, b := twoEntities()
	cache := NewContactCache()

	m := contactAt(0, 0, 0.1)
	m.Normal = rl.Vector3{X: float32(math.NaN()), Y: 1}
	cache.IntegrateContact(m, a, b)

	if got := cache.GetReducedContacts(a, b); got.Len() != 0 {
		t.Errorf("Expected no contacts from a non-finite manifold, got %d", got.Len())
	}
}
