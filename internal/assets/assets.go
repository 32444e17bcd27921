// Package assets resolves collider ids to shared collision shapes. Loads run on
// background goroutines; results are handed back to the simulation thread by Poll.
package assets

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"rigid3d/internal/collision"
	"rigid3d/internal/config"

	rl "github.com/gen2brain/raylib-go/raylib"
)

var ErrBadProcedural = errors.New("bad procedural shape id")

// Callback receives a resolved asset, or the error that prevented it.
type Callback func(shapes *collision.Shapes, err error)

type entry struct {
	shapes *collision.Shapes
	refs   int
	pinned bool // registered by hand, never evicted
}

type result struct {
	id     string
	shapes *collision.Shapes
	err    error
}

// Library caches shape assets by id and counts their users.
type Library struct {
	root string

	mu      sync.Mutex
	entries map[string]*entry
	pending map[string][]Callback
	ready   []result
	loads   sync.WaitGroup
}

// NewLibrary creates a library that resolves file ids relative to root.
func NewLibrary(root string) *Library {
	return &Library{
		root:    root,
		entries: make(map[string]*entry),
		pending: make(map[string][]Callback),
	}
}

// Root is the directory file ids are resolved against.
func (l *Library) Root() string {
	return l.root
}

// Register adds an asset built in code. It stays cached until the library is
// cleared.
func (l *Library) Register(shapes *collision.Shapes) {
	if shapes == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.entries[shapes.ID]; ok {
		e.shapes = shapes
		e.pinned = true
		return
	}
	l.entries[shapes.ID] = &entry{shapes: shapes, pinned: true}
}

// Get returns a cached asset without loading it.
func (l *Library) Get(id string) (*collision.Shapes, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.entries[id]; ok {
		return e.shapes, true
	}
	return nil, false
}

// Request resolves id and calls cb from the next Poll that sees the result.
// Concurrent requests for the same id share one load.
func (l *Library) Request(id string, cb Callback) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.entries[id]; ok {
		l.pending[id] = append(l.pending[id], cb)
		l.ready = append(l.ready, result{id: id, shapes: e.shapes})
		return
	}
	if waiting, ok := l.pending[id]; ok {
		l.pending[id] = append(waiting, cb)
		return
	}

	l.pending[id] = []Callback{cb}
	l.loads.Add(1)
	go func() {
		defer l.loads.Done()
		shapes, err := Load(l.root, id)
		if err != nil {
			log.Printf("Assets: failed to load %s: %v", id, err)
		}
		l.mu.Lock()
		l.ready = append(l.ready, result{id: id, shapes: shapes, err: err})
		l.mu.Unlock()
	}()
}

// Poll delivers finished loads to their callbacks on the calling goroutine and
// returns how many callbacks ran.
func (l *Library) Poll() int {
	l.mu.Lock()
	ready := l.ready
	l.ready = nil
	type delivery struct {
		callbacks []Callback
		res       result
	}
	var deliveries []delivery
	for _, r := range ready {
		callbacks, ok := l.pending[r.id]
		if !ok {
			continue
		}
		delete(l.pending, r.id)
		if r.err == nil {
			if _, cached := l.entries[r.id]; !cached {
				l.entries[r.id] = &entry{shapes: r.shapes}
			}
			r.shapes = l.entries[r.id].shapes
		}
		deliveries = append(deliveries, delivery{callbacks: callbacks, res: r})
	}
	l.mu.Unlock()

	n := 0
	for _, d := range deliveries {
		for _, cb := range d.callbacks {
			if cb != nil {
				cb(d.res.shapes, d.res.err)
			}
			n++
		}
	}
	return n
}

// Wait blocks until every load in flight has finished. Poll still has to run to
// deliver them.
func (l *Library) Wait() {
	l.loads.Wait()
}

// Acquire takes a reference on a cached asset.
func (l *Library) Acquire(id string) (*collision.Shapes, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[id]
	if !ok {
		return nil, false
	}
	e.refs++
	return e.shapes, true
}

// Release drops a reference. Loaded assets are evicted when the last one goes.
func (l *Library) Release(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[id]
	if !ok || e.refs == 0 {
		return
	}
	e.refs--
	if e.refs == 0 && !e.pinned {
		delete(l.entries, id)
	}
}

// Refs is the current reference count of id.
func (l *Library) Refs(id string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.entries[id]; ok {
		return e.refs
	}
	return 0
}

// Invalidate forgets a loaded asset so the next Request reads it again. Bodies
// keep the shapes they already hold.
func (l *Library) Invalidate(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.entries[id]; ok && !e.pinned {
		delete(l.entries, id)
	}
}

// Len is the number of cached assets.
func (l *Library) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Load resolves id synchronously: procedural ids are built in place, anything
// else is read as a YAML shape file under root.
func Load(root, id string) (*collision.Shapes, error) {
	if shapes, ok, err := ParseProcedural(id); ok {
		return shapes, err
	}
	path := id
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, id)
	}
	shapes, err := config.LoadShapeFile(path)
	if err != nil {
		return nil, err
	}
	if shapes.ID != id {
		shapes = collision.NewShapes(id, shapes.Shapes...)
	}
	return shapes, nil
}

// ParseProcedural builds the shapes named by ids like "box:0.5,0.5,0.5",
// "sphere:1", "capsule:0.5,1" and "cylinder:0.5,1". ok is false when id has no
// procedural prefix.
func ParseProcedural(id string) (shapes *collision.Shapes, ok bool, err error) {
	kind, args, found := strings.Cut(id, ":")
	if !found {
		return nil, false, nil
	}

	var want int
	switch kind {
	case "box":
		want = 3
	case "sphere":
		want = 1
	case "capsule", "cylinder":
		want = 2
	default:
		return nil, false, nil
	}

	fields := strings.Split(args, ",")
	if len(fields) != want {
		return nil, true, fmt.Errorf("%w: %q takes %d values", ErrBadProcedural, id, want)
	}
	v := make([]float32, want)
	for i, f := range fields {
		x, err := strconv.ParseFloat(strings.TrimSpace(f), 32)
		if err != nil || x <= 0 {
			return nil, true, fmt.Errorf("%w: %q", ErrBadProcedural, id)
		}
		v[i] = float32(x)
	}

	var shape collision.CollisionShape
	switch kind {
	case "box":
		shape = collision.NewBoxShape(rl.Vector3{X: v[0], Y: v[1], Z: v[2]})
	case "sphere":
		shape = collision.NewSphereShape(v[0])
	case "capsule":
		shape = collision.NewCapsuleShape(v[0], v[1])
	case "cylinder":
		shape = collision.NewCylinderShape(v[0], v[1])
	}
	return collision.NewShapes(id, shape), true, nil
}
