package engine

import "strconv"

// Entity is a generational handle: the low 32 bits index a slot, the high 32 bits
// hold the slot's generation when the handle was issued. A handle to a destroyed
// object never matches the slot again once it has been recycled.
type Entity uint64

const entityIndexBits = 32

// NoEntity is the zero handle. Arenas never issue it.
const NoEntity Entity = 0

func makeEntity(index, gen uint32) Entity {
	return Entity(uint64(gen)<<entityIndexBits | uint64(index))
}

// Index returns the slot index (1-based, 0 means none).
func (e Entity) Index() uint32 {
	return uint32(e)
}

// Generation returns the slot generation the handle was issued with.
func (e Entity) Generation() uint32 {
	return uint32(uint64(e) >> entityIndexBits)
}

func (e Entity) Valid() bool {
	return e.Index() != 0
}

func (e Entity) String() string {
	return strconv.FormatUint(uint64(e.Index()), 10) + "v" + strconv.FormatUint(uint64(e.Generation()), 10)
}

// Less orders handles by slot then generation. Used to build canonical pair keys.
func (e Entity) Less(o Entity) bool {
	if e.Index() != o.Index() {
		return e.Index() < o.Index()
	}
	return e.Generation() < o.Generation()
}

type arenaSlot[T any] struct {
	gen   uint32
	alive bool
	value T
}

// Arena stores values behind generational handles. Freed slots are reused with a
// bumped generation so stale handles resolve to nothing.
type Arena[T any] struct {
	slots []arenaSlot[T]
	free  []uint32
	count int
}

// Insert stores v and returns its handle.
func (a *Arena[T]) Insert(v T) Entity {
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		a.slots = append(a.slots, arenaSlot[T]{gen: 1})
		idx = uint32(len(a.slots))
	}
	slot := &a.slots[idx-1]
	slot.alive = true
	slot.value = v
	a.count++
	return makeEntity(idx, slot.gen)
}

func (a *Arena[T]) slot(e Entity) *arenaSlot[T] {
	idx := e.Index()
	if idx == 0 || int(idx) > len(a.slots) {
		return nil
	}
	s := &a.slots[idx-1]
	if !s.alive || s.gen != e.Generation() {
		return nil
	}
	return s
}

// Get returns the value for e. ok is false for stale or unknown handles.
func (a *Arena[T]) Get(e Entity) (v T, ok bool) {
	if s := a.slot(e); s != nil {
		return s.value, true
	}
	return v, false
}

// Alive reports whether e still refers to a live slot.
func (a *Arena[T]) Alive(e Entity) bool {
	return a.slot(e) != nil
}

// Remove frees the slot behind e. Removing a stale handle is a no-op.
func (a *Arena[T]) Remove(e Entity) bool {
	s := a.slot(e)
	if s == nil {
		return false
	}
	var zero T
	s.value = zero
	s.alive = false
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	a.free = append(a.free, e.Index())
	a.count--
	return true
}

// Len returns the number of live values.
func (a *Arena[T]) Len() int {
	return a.count
}

// Each calls fn for every live value in slot order.
func (a *Arena[T]) Each(fn func(e Entity, v T)) {
	for i := range a.slots {
		s := &a.slots[i]
		if s.alive {
			fn(makeEntity(uint32(i+1), s.gen), s.value)
		}
	}
}
