// Headless simulation runner: loads a scene, steps it at a fixed rate and
// reports where every body came to rest.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"rigid3d/internal/components"
	"rigid3d/internal/config"
	"rigid3d/internal/engine"
	"rigid3d/internal/physics"
	"rigid3d/internal/world"

	rl "github.com/gen2brain/raylib-go/raylib"
)

func main() {
	scenePath := flag.String("scene", "", "scene file (JSON); empty runs the built-in box stack")
	settingsPath := flag.String("settings", "", "physics settings file (YAML)")
	assetRoot := flag.String("assets", "scenes", "directory shape files are resolved against")
	frames := flag.Int("frames", 600, "number of fixed steps to run")
	savePath := flag.String("save", "", "write the final scene to this file")
	gpu := flag.Bool("gpu", false, "try the GPU pair prefilter")
	flag.Parse()

	settings := config.Default()
	if *settingsPath != "" {
		s, err := config.LoadSettings(*settingsPath)
		if err != nil {
			log.Fatalf("settings: %v", err)
		}
		settings = s
	}

	w := world.New(settings, *assetRoot)
	if *gpu {
		w.Initialize(true)
	} else {
		w.Scene.Start()
	}
	defer w.Release()

	if *scenePath != "" {
		if err := w.LoadScene(*scenePath); err != nil {
			log.Fatalf("scene: %v", err)
		}
	} else {
		buildStack(w, 5)
	}

	// Colliders resolve in the background; attach them before the first step.
	w.Library.Wait()
	w.Library.Poll()

	contacts := 0
	w.PhysicsWorld.OnContact.AddListener(func(physics.ContactEvent) {
		contacts++
	})

	start := time.Now()
	for i := 0; i < *frames; i++ {
		w.Step()
	}
	elapsed := time.Since(start)

	fmt.Printf("%d steps in %v (%v/step), %d contact resolutions, gpu=%v\n",
		*frames, elapsed.Round(time.Microsecond), (elapsed / time.Duration(max(*frames, 1))).Round(time.Microsecond),
		contacts, w.PhysicsWorld.UsingGPU())
	report(w.Scene)

	if *savePath != "" {
		if err := w.SaveScene(*savePath); err != nil {
			log.Fatalf("save: %v", err)
		}
	}
}

// buildStack drops a column of boxes onto a static ground.
func buildStack(w *world.World, height int) {
	w.Spawn("Ground", rl.Vector3{Y: -0.5}, "box:20,0.5,20", components.Static)
	for i := 0; i < height; i++ {
		pos := rl.Vector3{X: float32(i) * 0.05, Y: 0.5 + float32(i)*1.2, Z: 0}
		w.Spawn(fmt.Sprintf("Box_%d", i), pos, "box:0.5,0.5,0.5", components.Dynamic)
	}
}

func report(scene *engine.Scene) {
	for _, g := range scene.GameObjects {
		rb := engine.GetComponent[*components.RigidBody](g)
		if rb == nil {
			continue
		}
		state := "awake"
		switch {
		case rb.IsStatic():
			state = "static"
		case rb.IsSleeping():
			state = "asleep"
		case !rb.HasShapes():
			state = "no collider"
		}
		p := g.Transform.Position
		v := rb.LinearVelocity
		fmt.Fprintf(os.Stdout, "%-12s %-11s pos (%7.3f, %7.3f, %7.3f)  vel (%6.3f, %6.3f, %6.3f)\n",
			g.Name, state, p.X, p.Y, p.Z, v.X, v.Y, v.Z)
	}
}
