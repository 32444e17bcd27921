package config

import (
	"fmt"
	"os"

	"rigid3d/internal/collision"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gopkg.in/yaml.v3"
)

// ShapeFile describes a collision asset on disk:
//
//	id: crate
//	shapes:
//	  - kind: mesh
//	    box: [0.5, 0.5, 0.5]
//	  - kind: sphere
//	    radius: 0.25
type ShapeFile struct {
	ID     string     `yaml:"id"`
	Shapes []ShapeDef `yaml:"shapes"`
}

// ShapeDef is one convex piece. Mesh shapes take either box half sizes or an
// explicit vertex list.
type ShapeDef struct {
	Kind       string  `yaml:"kind"`
	Radius     float32 `yaml:"radius"`
	HalfHeight float32 `yaml:"half_height"`
	Box        *Vec3   `yaml:"box"`
	Vertices   []Vec3  `yaml:"vertices"`
	Normal     *Vec3   `yaml:"normal"`
	Offset     float32 `yaml:"offset"`
}

// LoadShapeFile reads and builds a collision asset. An empty id falls back to the
// file path.
func LoadShapeFile(path string) (*collision.Shapes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: load %s: %w", path, err)
	}
	shapes, err := ParseShapes(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if shapes.ID == "" {
		shapes.ID = path
	}
	return shapes, nil
}

// ParseShapes decodes a shape file.
func ParseShapes(data []byte) (*collision.Shapes, error) {
	var file ShapeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal shapes: %w", err)
	}
	if len(file.Shapes) == 0 {
		return nil, fmt.Errorf("shape file %q has no shapes", file.ID)
	}

	out := make([]collision.CollisionShape, 0, len(file.Shapes))
	for i, def := range file.Shapes {
		s, err := def.Build()
		if err != nil {
			return nil, fmt.Errorf("shape %d: %w", i, err)
		}
		out = append(out, s)
	}
	return collision.NewShapes(file.ID, out...), nil
}

// Build converts the definition into a shape.
func (d ShapeDef) Build() (collision.CollisionShape, error) {
	kind, err := collision.ParseShapeKind(d.Kind)
	if err != nil {
		return collision.CollisionShape{}, err
	}

	switch kind {
	case collision.ShapeSphere:
		if d.Radius <= 0 {
			return collision.CollisionShape{}, fmt.Errorf("sphere radius must be > 0")
		}
		return collision.NewSphereShape(d.Radius), nil
	case collision.ShapeCapsule:
		if d.Radius <= 0 || d.HalfHeight < 0 {
			return collision.CollisionShape{}, fmt.Errorf("capsule needs radius > 0 and half_height >= 0")
		}
		return collision.NewCapsuleShape(d.Radius, d.HalfHeight), nil
	case collision.ShapeCylinder:
		if d.Radius <= 0 || d.HalfHeight <= 0 {
			return collision.CollisionShape{}, fmt.Errorf("cylinder needs radius and half_height > 0")
		}
		return collision.NewCylinderShape(d.Radius, d.HalfHeight), nil
	case collision.ShapePlane:
		if d.Normal == nil {
			return collision.CollisionShape{}, fmt.Errorf("plane needs a normal")
		}
		return collision.NewPlaneShape(d.Normal.Vector3, d.Offset), nil
	}

	if d.Box != nil {
		return collision.NewBoxShape(d.Box.Vector3), nil
	}
	verts := make([]rl.Vector3, len(d.Vertices))
	for i, v := range d.Vertices {
		verts[i] = v.Vector3
	}
	return collision.NewMeshShape(verts)
}
