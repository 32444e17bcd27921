package world

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"rigid3d/internal/components"
	"rigid3d/internal/config"
	"rigid3d/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

const testScene = `{
  "objects": [
    {
      "name": "Ground",
      "position": [0, -0.5, 0],
      "rotation": [0, 0, 0],
      "scale": [1, 1, 1],
      "components": [
        {"type": "RigidBody", "bodyType": "static", "collider": "box:10,0.5,10"}
      ]
    },
    {
      "name": "Crate",
      "tags": ["crate"],
      "position": [0, 3, 0],
      "rotation": [0, 0, 0],
      "scale": [0, 0, 0],
      "components": [
        {"type": "RigidBody", "bodyType": "dynamic", "mass": 2, "restitution": 0.25, "collider": "crate.yaml"}
      ]
    }
  ]
}`

const crateShape = "shapes:\n  - kind: mesh\n    box: [0.5, 0.5, 0.5]\n"

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
}

func loadTestWorld(t *testing.T) (*World, string) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "scene.json"), testScene)
	writeFile(t, filepath.Join(dir, "crate.yaml"), crateShape)

	w := New(config.Default(), dir)
	if err := w.LoadScene(filepath.Join(dir, "scene.json")); err != nil {
		t.Fatalf("LoadScene failed: %v", err)
	}
	w.Library.Wait()
	w.Library.Poll()
	return w, dir
}

func body(t *testing.T, w *World, name string) (*engine.GameObject, *components.RigidBody) {
	t.Helper()
	g := w.Scene.FindByName(name)
	if g == nil {
		t.Fatalf("Expected object %q", name)
	}
	rb := engine.GetComponent[*components.RigidBody](g)
	if rb == nil {
		t.Fatalf("Expected %q to have a RigidBody", name)
	}
	return g, rb
}

func TestLoadSceneAttachesColliders(t *testing.T) {
	w, _ := loadTestWorld(t)

	if len(w.Scene.GameObjects) != 2 {
		t.Fatalf("Expected 2 objects, got %d", len(w.Scene.GameObjects))
	}

	crate, rb := body(t, w, "Crate")
	if !rb.HasShapes() {
		t.Error("Expected crate collider to be attached after Poll")
	}
	if rb.Mass != 2 || rb.Restitution != 0.25 {
		t.Errorf("Expected mass 2 and restitution 0.25, got %f and %f", rb.Mass, rb.Restitution)
	}
	if crate.Transform.Scale != rl.Vector3One() {
		t.Errorf("Expected zero scale to default to one, got %v", crate.Transform.Scale)
	}
	if !crate.HasTag("crate") {
		t.Error("Expected crate tag")
	}

	_, ground := body(t, w, "Ground")
	if !ground.IsStatic() || !ground.HasShapes() {
		t.Error("Expected static ground with shapes")
	}
	if w.Library.Refs("crate.yaml") != 1 {
		t.Errorf("Expected one reference on crate.yaml, got %d", w.Library.Refs("crate.yaml"))
	}
}

func TestLoadSceneErrors(t *testing.T) {
	w := New(config.Default(), t.TempDir())
	if err := w.LoadScene(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for missing scene")
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	writeFile(t, bad, "{not json")
	if err := w.LoadScene(bad); err == nil {
		t.Error("Expected error for malformed scene")
	}
}

func TestSaveSceneRoundTrip(t *testing.T) {
	w, dir := loadTestWorld(t)
	crate, _ := body(t, w, "Crate")
	crate.Transform.Position = rl.Vector3{X: 1, Y: 2, Z: 3}

	out := filepath.Join(dir, "saved.json")
	if err := w.SaveScene(out); err != nil {
		t.Fatalf("SaveScene failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	sf, err := ParseScene(data)
	if err != nil {
		t.Fatalf("ParseScene failed: %v", err)
	}
	if len(sf.Objects) != 2 {
		t.Fatalf("Expected 2 saved objects, got %d", len(sf.Objects))
	}
	saved := sf.Objects[1]
	if saved.Position != [3]float32{1, 2, 3} {
		t.Errorf("Expected position [1 2 3], got %v", saved.Position)
	}
	if len(saved.Components) != 1 || saved.Components[0]["type"] != "RigidBody" {
		t.Fatalf("Expected one RigidBody component, got %v", saved.Components)
	}
	if saved.Components[0]["collider"] != "crate.yaml" {
		t.Errorf("Expected collider crate.yaml, got %v", saved.Components[0]["collider"])
	}

	w2 := New(config.Default(), dir)
	if err := w2.LoadScene(out); err != nil {
		t.Fatalf("Reloading saved scene failed: %v", err)
	}
	_, ground := body(t, w2, "Ground")
	if !ground.IsStatic() {
		t.Error("Expected ground to stay static after round trip")
	}
}

func TestClearReleasesAssets(t *testing.T) {
	w, _ := loadTestWorld(t)
	if w.Library.Len() != 2 {
		t.Fatalf("Expected 2 cached assets, got %d", w.Library.Len())
	}

	w.Clear()
	if len(w.Scene.GameObjects) != 0 {
		t.Errorf("Expected empty scene, got %d objects", len(w.Scene.GameObjects))
	}
	if w.Library.Len() != 0 {
		t.Errorf("Expected assets evicted after Clear, got %d", w.Library.Len())
	}
}

func TestSpawnedBodyFallsOntoGround(t *testing.T) {
	w := New(config.Default(), t.TempDir())
	w.Spawn("Ground", rl.Vector3{Y: -0.5}, "box:10,0.5,10", components.Static)
	box, rb := w.Spawn("Box", rl.Vector3{Y: 2}, "box:0.5,0.5,0.5", components.Dynamic)
	w.Library.Wait()

	for i := 0; i < 180; i++ {
		w.Update(1.0 / 60)
	}

	if !rb.HasShapes() {
		t.Fatal("Expected spawned collider to attach")
	}
	if y := box.Transform.Position.Y; y < 0.45 || y > 0.55 {
		t.Errorf("Expected box resting on the ground, got y=%f", y)
	}
}

func TestRemoveReleasesReference(t *testing.T) {
	w, _ := loadTestWorld(t)
	crate, _ := body(t, w, "Crate")

	w.Remove(crate)
	if w.Library.Refs("crate.yaml") != 0 {
		t.Errorf("Expected no references after Remove, got %d", w.Library.Refs("crate.yaml"))
	}
	if w.Scene.FindByName("Crate") != nil {
		t.Error("Expected crate removed from scene")
	}
}

func TestReloadAsset(t *testing.T) {
	w, dir := loadTestWorld(t)
	_, rb := body(t, w, "Crate")

	writeFile(t, filepath.Join(dir, "crate.yaml"), "shapes:\n  - kind: mesh\n    box: [1, 1, 1]\n")
	changed, err := w.HandleChange(filepath.Join(dir, "crate.yaml"))
	if err != nil || !changed {
		t.Fatalf("Expected shape change to be handled, got %v %v", changed, err)
	}
	w.Library.Wait()
	w.Library.Poll()

	if got := rb.Shapes().Shapes[0].Max; got != (rl.Vector3{X: 1, Y: 1, Z: 1}) {
		t.Errorf("Expected reloaded box bounds (1,1,1), got %v", got)
	}
	if w.Library.Refs("crate.yaml") != 1 {
		t.Errorf("Expected one reference after reload, got %d", w.Library.Refs("crate.yaml"))
	}
}

func TestHandleChangeScene(t *testing.T) {
	w, dir := loadTestWorld(t)
	crate, _ := body(t, w, "Crate")
	crate.Transform.Position.Y = 50

	changed, err := w.HandleChange(filepath.Join(dir, "scene.json"))
	if err != nil || !changed {
		t.Fatalf("Expected scene reload, got %v %v", changed, err)
	}
	crate, _ = body(t, w, "Crate")
	if crate.Transform.Position.Y != 3 {
		t.Errorf("Expected reloaded crate at y=3, got %f", crate.Transform.Position.Y)
	}

	if changed, _ := w.HandleChange(filepath.Join(dir, "other.json")); changed {
		t.Error("Expected unrelated scene file to be ignored")
	}
	if changed, _ := w.HandleChange(filepath.Join(dir, "notes.txt")); changed {
		t.Error("Expected unrelated file to be ignored")
	}
}

func TestWatcherReportsWrites(t *testing.T) {
	dir := t.TempDir()
	watcher, err := NewWatcher(dir)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer watcher.Close()

	path := filepath.Join(dir, "scene.json")
	writeFile(t, filepath.Join(dir, "ignored.txt"), "x")
	writeFile(t, path, testScene)

	select {
	case got := <-watcher.Events:
		if got != path {
			t.Errorf("Expected event for %s, got %s", path, got)
		}
	case err := <-watcher.Errors:
		t.Fatalf("Watcher error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for watcher event")
	}

	if err := watcher.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if _, ok := <-watcher.Events; ok {
		// Drain a buffered duplicate, the channel must close afterwards.
		for range watcher.Events {
		}
	}
}

func TestSampleSceneLoads(t *testing.T) {
	root := filepath.Join("..", "..", "scenes")
	settings, err := config.LoadSettings(filepath.Join(root, "physics.yaml"))
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}

	w := New(settings, root)
	if err := w.LoadScene(filepath.Join(root, "stack.json")); err != nil {
		t.Fatalf("LoadScene failed: %v", err)
	}
	w.Library.Wait()
	w.Library.Poll()

	for _, g := range w.Scene.GameObjects {
		rb := engine.GetComponent[*components.RigidBody](g)
		if rb == nil || !rb.HasShapes() {
			t.Errorf("Expected %s to have a resolved collider", g.Name)
		}
	}
}
