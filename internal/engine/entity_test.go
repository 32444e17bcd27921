package engine

import "testing"

func TestArenaInsertGet(t *testing.T) {
	var a Arena[string]
	h := a.Insert("box")

	v, ok := a.Get(h)
	if !ok || v != "box" {
		t.Errorf("Expected (box, true), got (%s, %v)", v, ok)
	}
	if a.Len() != 1 {
		t.Errorf("Expected len 1, got %d", a.Len())
	}
}

func TestArenaStaleHandle(t *testing.T) {
	var a Arena[int]
	h := a.Insert(7)

	if !a.Remove(h) {
		t.Fatal("Remove should succeed for a live handle")
	}
	if a.Remove(h) {
		t.Error("Removing twice should be a no-op")
	}
	if _, ok := a.Get(h); ok {
		t.Error("Get should fail for a removed handle")
	}

	h2 := a.Insert(9)
	if h2.Index() != h.Index() || h2.Generation() == h.Generation() {
		t.Errorf("Expected recycled slot with new generation, got %v after %v", h2, h)
	}
	if a.Alive(h) {
		t.Error("Stale handle reported alive")
	}
}

func TestArenaEachOrder(t *testing.T) {
	var a Arena[int]
	for i := 1; i <= 3; i++ {
		a.Insert(i)
	}
	var got []int
	a.Each(func(_ Entity, v int) { got = append(got, v) })

	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Errorf("Expected [1 2 3], got %v", got)
	}
}

func TestEntityLess(t *testing.T) {
	a := makeEntity(1, 5)
	b := makeEntity(2, 1)
	if !a.Less(b) || b.Less(a) {
		t.Error("Less should order by slot index first")
	}
	if NoEntity.Valid() {
		t.Error("NoEntity should not be valid")
	}
}

func TestRegistryCreate(t *testing.T) {
	componentRegistry = map[string]ComponentFactory{}
	RegisterComponent("Probe", func() Serializable { return &probe{} })

	c := CreateComponent("Probe", map[string]any{"value": 3.0})
	p, ok := c.(*probe)
	if !ok || p.value != 3 {
		t.Errorf("Expected probe with value 3, got %#v", c)
	}
	if CreateComponent("Missing", nil) != nil {
		t.Error("Unknown component should return nil")
	}
	if names := RegisteredComponents(); len(names) != 1 || names[0] != "Probe" {
		t.Errorf("Expected [Probe], got %v", names)
	}
}

type probe struct {
	BaseComponent
	value float64
}

func (p *probe) TypeName() string { return "Probe" }

func (p *probe) Serialize() map[string]any { return map[string]any{"value": p.value} }

func (p *probe) Deserialize(data map[string]any) {
	if v, ok := data["value"].(float64); ok {
		p.value = v
	}
}

func TestEventInvoke(t *testing.T) {
	var e Event[int]
	sum := 0
	e.AddListener(func(v int) { sum += v })
	e.AddListener(nil)
	e.AddListener(func(v int) { sum += v * 10 })

	e.Invoke(2)

	if sum != 22 {
		t.Errorf("Expected 22, got %d", sum)
	}
	if e.ListenerCount() != 2 {
		t.Errorf("Expected 2 listeners, got %d", e.ListenerCount())
	}
}
