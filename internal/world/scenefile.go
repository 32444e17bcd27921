package world

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"rigid3d/internal/components"
	"rigid3d/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// --- JSON types ---

type SceneFile struct {
	Objects []ObjectDef `json:"objects"`
}

type ObjectDef struct {
	Name       string           `json:"name"`
	Tags       []string         `json:"tags,omitempty"`
	Position   [3]float32       `json:"position"`
	Rotation   [3]float32       `json:"rotation"` // euler degrees
	Scale      [3]float32       `json:"scale"`
	Components []map[string]any `json:"components"`
}

// ParseScene decodes a scene file.
func ParseScene(data []byte) (SceneFile, error) {
	var sf SceneFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return SceneFile{}, fmt.Errorf("parse scene: %w", err)
	}
	return sf, nil
}

// --- Loading ---

// LoadScene replaces the current scene with the objects in path. Colliders are
// requested from the library and attach on a later Poll.
func (w *World) LoadScene(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read scene: %w", err)
	}
	sf, err := ParseScene(data)
	if err != nil {
		return err
	}

	w.Clear()
	for _, objDef := range sf.Objects {
		w.Scene.AddGameObject(buildObject(objDef))
	}
	for _, g := range w.Scene.GameObjects {
		if rb := engine.GetComponent[*components.RigidBody](g); rb != nil {
			w.attachCollider(rb)
		}
	}
	w.scenePath = path
	log.Printf("Physics: loaded scene %s (%d objects)", path, len(sf.Objects))
	return nil
}

// Reload loads the last scene again.
func (w *World) Reload() error {
	if w.scenePath == "" {
		return nil
	}
	return w.LoadScene(w.scenePath)
}

// ScenePath is the file the current scene came from.
func (w *World) ScenePath() string {
	return w.scenePath
}

func buildObject(objDef ObjectDef) *engine.GameObject {
	g := engine.NewGameObject(objDef.Name)
	g.Tags = objDef.Tags
	g.Transform.Position = rl.Vector3{X: objDef.Position[0], Y: objDef.Position[1], Z: objDef.Position[2]}
	g.Transform.SetEuler(rl.Vector3{X: objDef.Rotation[0], Y: objDef.Rotation[1], Z: objDef.Rotation[2]})

	// Default scale to 1 if zero
	if objDef.Scale == [3]float32{} {
		g.Transform.Scale = rl.Vector3{X: 1, Y: 1, Z: 1}
	} else {
		g.Transform.Scale = rl.Vector3{X: objDef.Scale[0], Y: objDef.Scale[1], Z: objDef.Scale[2]}
	}

	for _, data := range objDef.Components {
		typeName, _ := data["type"].(string)
		c := engine.CreateComponent(typeName, data)
		if c == nil {
			log.Printf("Physics: unknown component %q on %s", typeName, objDef.Name)
			continue
		}
		if comp, ok := c.(engine.Component); ok {
			g.AddComponent(comp)
		}
	}
	return g
}

// --- Saving ---

// SaveScene writes every object and its serializable components to path.
func (w *World) SaveScene(path string) error {
	data, err := json.MarshalIndent(w.SceneFile(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal scene: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write scene: %w", err)
	}

	return nil
}

// SceneFile snapshots the current scene.
func (w *World) SceneFile() SceneFile {
	var sf SceneFile
	for _, g := range w.Scene.GameObjects {
		euler := g.Transform.Euler()
		objDef := ObjectDef{
			Name:     g.Name,
			Tags:     g.Tags,
			Position: [3]float32{g.Transform.Position.X, g.Transform.Position.Y, g.Transform.Position.Z},
			Rotation: [3]float32{euler.X, euler.Y, euler.Z},
			Scale:    [3]float32{g.Transform.Scale.X, g.Transform.Scale.Y, g.Transform.Scale.Z},
		}

		for _, c := range g.Components() {
			s, ok := c.(engine.Serializable)
			if !ok {
				continue
			}
			data := s.Serialize()
			data["type"] = s.TypeName()
			objDef.Components = append(objDef.Components, data)
		}

		sf.Objects = append(sf.Objects, objDef)
	}
	return sf
}
