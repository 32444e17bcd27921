package engine

// Scene owns game objects and hands out generational handles for them.
// GameObjects keeps insertion order, which is the iteration order physics sees.
type Scene struct {
	Name        string
	GameObjects []*GameObject
	objects     Arena[*GameObject]
}

func NewScene(name string) *Scene {
	return &Scene{
		Name:        name,
		GameObjects: make([]*GameObject, 0),
	}
}

func (s *Scene) AddGameObject(g *GameObject) {
	g.Handle = s.objects.Insert(g)
	g.Scene = s
	s.GameObjects = append(s.GameObjects, g)
}

// RemoveGameObject detaches g and invalidates its handle.
func (s *Scene) RemoveGameObject(g *GameObject) {
	for i, obj := range s.GameObjects {
		if obj == g {
			s.GameObjects = append(s.GameObjects[:i], s.GameObjects[i+1:]...)
			s.objects.Remove(g.Handle)
			g.Handle = NoEntity
			g.Scene = nil
			return
		}
	}
}

// Find resolves a handle. Stale handles return nil.
func (s *Scene) Find(e Entity) *GameObject {
	g, _ := s.objects.Get(e)
	return g
}

func (s *Scene) FindByName(name string) *GameObject {
	for _, g := range s.GameObjects {
		if g.Name == name {
			return g
		}
	}
	return nil
}

func (s *Scene) FindByTag(tag string) []*GameObject {
	var result []*GameObject
	for _, g := range s.GameObjects {
		if g.HasTag(tag) {
			result = append(result, g)
		}
	}
	return result
}

// Clear removes every object.
func (s *Scene) Clear() {
	for _, g := range s.GameObjects {
		s.objects.Remove(g.Handle)
		g.Handle = NoEntity
		g.Scene = nil
	}
	s.GameObjects = s.GameObjects[:0]
}

func (s *Scene) Start() {
	for _, g := range s.GameObjects {
		g.Start()
	}
}

func (s *Scene) Update(deltaTime float32) {
	for _, g := range s.GameObjects {
		g.Update(deltaTime)
	}
}
