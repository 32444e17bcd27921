// Package collision holds the convex shape data model and the narrow-phase tests
// (GJK overlap, EPA penetration) that run on it.
package collision

import (
	"errors"
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// ShapeKind enumerates the closed set of shape variants. Values are stable on disk.
type ShapeKind uint32

const (
	ShapeSphere ShapeKind = iota
	ShapeCylinder
	ShapeCapsule
	ShapePlane
	ShapeMesh
	shapeKindCount
)

var shapeKindNames = [...]string{
	ShapeSphere:   "sphere",
	ShapeCylinder: "cylinder",
	ShapeCapsule:  "capsule",
	ShapePlane:    "plane",
	ShapeMesh:     "mesh",
}

func (k ShapeKind) String() string {
	if k < shapeKindCount {
		return shapeKindNames[k]
	}
	return fmt.Sprintf("ShapeKind(%d)", uint32(k))
}

// ParseShapeKind maps a name from a shape file to its kind.
func ParseShapeKind(name string) (ShapeKind, error) {
	for k, n := range shapeKindNames {
		if n == name {
			return ShapeKind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownShape, name)
}

var (
	ErrUnknownShape = errors.New("unknown shape kind")
	ErrEmptyMesh    = errors.New("mesh shape has no vertices")
)

// CollisionShape is one convex piece of geometry in local space. Only the fields
// relevant to Kind are set. Shapes are immutable once built.
type CollisionShape struct {
	Kind ShapeKind

	Radius     float32    // sphere, capsule, cylinder
	HalfHeight float32    // capsule segment / cylinder half length along local Y
	Normal     rl.Vector3 // plane
	Offset     float32    // plane distance from the origin along Normal
	Vertices   []rl.Vector3

	// Local bounds used for half-extents. Planes have none.
	Min, Max rl.Vector3
}

// NewMeshShape builds a convex mesh shape from its hull vertices.
func NewMeshShape(vertices []rl.Vector3) (CollisionShape, error) {
	if len(vertices) == 0 {
		return CollisionShape{}, ErrEmptyMesh
	}
	verts := make([]rl.Vector3, len(vertices))
	copy(verts, vertices)
	s := CollisionShape{Kind: ShapeMesh, Vertices: verts}
	s.Min, s.Max = verts[0], verts[0]
	for _, v := range verts[1:] {
		s.Min = rl.Vector3Min(s.Min, v)
		s.Max = rl.Vector3Max(s.Max, v)
	}
	return s, nil
}

// NewBoxShape builds the 8-vertex mesh of a box with the given half sizes.
func NewBoxShape(half rl.Vector3) CollisionShape {
	verts := make([]rl.Vector3, 0, 8)
	for _, x := range [2]float32{-half.X, half.X} {
		for _, y := range [2]float32{-half.Y, half.Y} {
			for _, z := range [2]float32{-half.Z, half.Z} {
				verts = append(verts, rl.Vector3{X: x, Y: y, Z: z})
			}
		}
	}
	s, _ := NewMeshShape(verts)
	return s
}

func NewSphereShape(radius float32) CollisionShape {
	r := rl.Vector3{X: radius, Y: radius, Z: radius}
	return CollisionShape{Kind: ShapeSphere, Radius: radius, Min: rl.Vector3Negate(r), Max: r}
}

// NewCapsuleShape builds a capsule along local Y. halfHeight is the half length of
// the inner segment, so the total height is 2*(halfHeight+radius).
func NewCapsuleShape(radius, halfHeight float32) CollisionShape {
	ext := rl.Vector3{X: radius, Y: halfHeight + radius, Z: radius}
	return CollisionShape{Kind: ShapeCapsule, Radius: radius, HalfHeight: halfHeight,
		Min: rl.Vector3Negate(ext), Max: ext}
}

func NewCylinderShape(radius, halfHeight float32) CollisionShape {
	ext := rl.Vector3{X: radius, Y: halfHeight, Z: radius}
	return CollisionShape{Kind: ShapeCylinder, Radius: radius, HalfHeight: halfHeight,
		Min: rl.Vector3Negate(ext), Max: ext}
}

// NewPlaneShape describes an infinite plane. Planes have no support function and are
// ignored by collision tests; model ground as a flat box instead.
func NewPlaneShape(normal rl.Vector3, offset float32) CollisionShape {
	return CollisionShape{Kind: ShapePlane, Normal: rl.Vector3Normalize(normal), Offset: offset}
}

// Collidable reports whether the shape kind has a support function.
func (s *CollisionShape) Collidable() bool {
	return s.Kind < shapeKindCount && supportFuncs[s.Kind] != nil
}

// Shapes is the shared, read-only collision asset a body references.
type Shapes struct {
	ID     string
	Shapes []CollisionShape
}

// NewShapes wraps shapes under an asset id.
func NewShapes(id string, shapes ...CollisionShape) *Shapes {
	return &Shapes{ID: id, Shapes: shapes}
}

// Len returns the number of shapes, tolerating a nil asset.
func (s *Shapes) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Shapes)
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func sqrtf(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}

func finite(x float32) bool {
	f := float64(x)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
