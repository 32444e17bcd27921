package assets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"rigid3d/internal/collision"

	rl "github.com/gen2brain/raylib-go/raylib"
)

func TestParseProcedural(t *testing.T) {
	tests := []struct {
		id   string
		kind collision.ShapeKind
	}{
		{"box:0.5,1,2", collision.ShapeMesh},
		{"sphere:1", collision.ShapeSphere},
		{"capsule:0.5, 1", collision.ShapeCapsule},
		{"cylinder:0.5,1", collision.ShapeCylinder},
	}
	for _, tt := range tests {
		shapes, ok, err := ParseProcedural(tt.id)
		if !ok || err != nil {
			t.Errorf("%s: expected procedural shape, got ok=%v err=%v", tt.id, ok, err)
			continue
		}
		if shapes.ID != tt.id || shapes.Len() != 1 || shapes.Shapes[0].Kind != tt.kind {
			t.Errorf("%s: expected one %v, got %+v", tt.id, tt.kind, shapes)
		}
	}

	box, _, _ := ParseProcedural("box:0.5,1,2")
	if box.Shapes[0].Max != (rl.Vector3{X: 0.5, Y: 1, Z: 2}) {
		t.Errorf("Expected box bounds (0.5,1,2), got %v", box.Shapes[0].Max)
	}
}

func TestParseProceduralErrors(t *testing.T) {
	for _, id := range []string{"box:1,2", "sphere:x", "sphere:-1", "capsule:1"} {
		if _, ok, err := ParseProcedural(id); !ok || !errors.Is(err, ErrBadProcedural) {
			t.Errorf("%s: expected ErrBadProcedural, got ok=%v err=%v", id, ok, err)
		}
	}
	if _, ok, _ := ParseProcedural("crate.yaml"); ok {
		t.Error("Expected plain file id not to be procedural")
	}
	if _, ok, _ := ParseProcedural("torus:1"); ok {
		t.Error("Expected unknown prefix not to be procedural")
	}
}

func writeShapeFile(t *testing.T, dir, name string) {
	t.Helper()
	data := []byte("shapes:\n  - kind: sphere\n    radius: 0.25\n  - kind: mesh\n    box: [1, 1, 1]\n")
	if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadShapeFile(t *testing.T) {
	dir := t.TempDir()
	writeShapeFile(t, dir, "crate.yaml")

	shapes, err := Load(dir, "crate.yaml")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if shapes.ID != "crate.yaml" {
		t.Errorf("Expected id crate.yaml, got %q", shapes.ID)
	}
	if shapes.Len() != 2 {
		t.Errorf("Expected 2 shapes, got %d", shapes.Len())
	}

	if _, err := Load(dir, "missing.yaml"); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestRequestDeliversOnPoll(t *testing.T) {
	dir := t.TempDir()
	writeShapeFile(t, dir, "crate.yaml")
	lib := NewLibrary(dir)

	var got []*collision.Shapes
	cb := func(shapes *collision.Shapes, err error) {
		if err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
		got = append(got, shapes)
	}
	lib.Request("crate.yaml", cb)
	lib.Request("crate.yaml", cb)

	if len(got) != 0 {
		t.Fatal("Callbacks must not run before Poll")
	}
	lib.Wait()
	if n := lib.Poll(); n != 2 {
		t.Errorf("Expected 2 callbacks, got %d", n)
	}
	if len(got) != 2 || got[0] != got[1] {
		t.Fatalf("Expected both requests to share one asset, got %v", got)
	}

	// Cached assets still arrive through Poll.
	lib.Request("crate.yaml", cb)
	if n := lib.Poll(); n != 1 || got[2] != got[0] {
		t.Errorf("Expected cached asset on next Poll, got %d callbacks", n)
	}
}

func TestRequestReportsErrors(t *testing.T) {
	lib := NewLibrary(t.TempDir())

	var gotErr error
	lib.Request("missing.yaml", func(shapes *collision.Shapes, err error) {
		gotErr = err
	})
	lib.Wait()
	lib.Poll()

	if gotErr == nil {
		t.Error("Expected load error")
	}
	if _, ok := lib.Get("missing.yaml"); ok {
		t.Error("Failed load should not be cached")
	}
}

func TestAcquireRelease(t *testing.T) {
	lib := NewLibrary("")
	lib.Request("sphere:1", nil)
	lib.Wait()
	lib.Poll()

	if _, ok := lib.Acquire("sphere:1"); !ok {
		t.Fatal("Expected cached asset")
	}
	lib.Acquire("sphere:1")
	if lib.Refs("sphere:1") != 2 {
		t.Errorf("Expected 2 refs, got %d", lib.Refs("sphere:1"))
	}

	lib.Release("sphere:1")
	if _, ok := lib.Get("sphere:1"); !ok {
		t.Error("Asset evicted while still referenced")
	}
	lib.Release("sphere:1")
	if _, ok := lib.Get("sphere:1"); ok {
		t.Error("Expected asset evicted after last release")
	}
}

func TestRegisteredAssetsStay(t *testing.T) {
	lib := NewLibrary("")
	ground := collision.NewShapes("ground", collision.NewBoxShape(rl.Vector3{X: 10, Y: 0.5, Z: 10}))
	lib.Register(ground)

	shapes, ok := lib.Acquire("ground")
	if !ok || shapes != ground {
		t.Fatal("Expected registered asset")
	}
	lib.Release("ground")
	lib.Invalidate("ground")
	if _, ok := lib.Get("ground"); !ok {
		t.Error("Registered asset should never be evicted")
	}
	if lib.Len() != 1 {
		t.Errorf("Expected 1 asset, got %d", lib.Len())
	}
}
