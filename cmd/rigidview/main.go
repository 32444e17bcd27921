// Interactive viewer: steps a scene in real time, draws bodies as wireframes
// and reloads scene and shape files when they change on disk.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"rigid3d/internal/camera"
	"rigid3d/internal/components"
	"rigid3d/internal/config"
	"rigid3d/internal/engine"
	"rigid3d/internal/world"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

const (
	panelWidth = 220
	pushSpeed  = 4.0 // m/s change applied to a clicked body
)

type viewer struct {
	world    *world.World
	renderer *world.Renderer
	camera   *camera.OrbitCamera
	watcher  *world.Watcher

	paused    bool
	stepOnce  bool
	timeScale float32
	spawned   int
	lastHit   string
}

func main() {
	// Change working directory to executable location for deployed builds.
	// Skip this for "go run" which puts the binary in a temp directory.
	if execPath, err := os.Executable(); err == nil {
		execDir := filepath.Dir(execPath)
		if !strings.Contains(execDir, "go-build") {
			os.Chdir(execDir)
		}
	}

	scenePath := flag.String("scene", "scenes/stack.json", "scene file (JSON)")
	settingsPath := flag.String("settings", "scenes/physics.yaml", "physics settings file (YAML)")
	assetRoot := flag.String("assets", "scenes", "directory shape files are resolved against")
	flag.Parse()

	settings := config.Default()
	if s, err := config.LoadSettings(*settingsPath); err == nil {
		settings = s
	} else {
		log.Printf("Physics: using default settings: %v", err)
	}

	rl.SetConfigFlags(rl.FlagWindowHighdpi | rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(1280, 720, "Rigid Body Viewer")
	defer rl.CloseWindow()
	rl.SetTargetFPS(120)

	v := &viewer{
		world:     world.New(settings, *assetRoot),
		renderer:  world.NewRenderer(),
		camera:    camera.New(rl.Vector3{Y: 2}, 18),
		timeScale: 1,
	}
	v.world.Initialize(false)
	defer v.world.Release()

	if err := v.world.LoadScene(*scenePath); err != nil {
		log.Printf("Scene: %v", err)
	}

	watcher, err := world.NewWatcher(filepath.Dir(*scenePath), *assetRoot)
	if err != nil {
		log.Printf("Watcher: hot reload disabled: %v", err)
	} else {
		v.watcher = watcher
		defer watcher.Close()
	}

	applyStyle()
	for !rl.WindowShouldClose() {
		v.update()
		v.draw()
	}
}

func applyStyle() {
	gui.SetStyle(gui.DEFAULT, gui.BACKGROUND_COLOR, gui.NewColorPropertyValue(rl.NewColor(24, 24, 32, 255)))
	gui.SetStyle(gui.DEFAULT, gui.BASE_COLOR_NORMAL, gui.NewColorPropertyValue(rl.NewColor(38, 38, 50, 255)))
	gui.SetStyle(gui.DEFAULT, gui.BASE_COLOR_FOCUSED, gui.NewColorPropertyValue(rl.NewColor(50, 50, 66, 255)))
	gui.SetStyle(gui.DEFAULT, gui.BASE_COLOR_PRESSED, gui.NewColorPropertyValue(rl.NewColor(99, 102, 241, 255)))
	gui.SetStyle(gui.DEFAULT, gui.TEXT_COLOR_NORMAL, gui.NewColorPropertyValue(rl.NewColor(180, 180, 195, 255)))
	gui.SetStyle(gui.DEFAULT, gui.TEXT_COLOR_FOCUSED, gui.NewColorPropertyValue(rl.RayWhite))
	gui.SetStyle(gui.DEFAULT, gui.TEXT_COLOR_PRESSED, gui.NewColorPropertyValue(rl.RayWhite))
	gui.SetStyle(gui.DEFAULT, gui.TEXT_SIZE, 15)
}

func (v *viewer) update() {
	v.pollWatcher()

	mouse := rl.GetMousePosition()
	overPanel := mouse.X < panelWidth
	if !overPanel {
		v.camera.Update()
		if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
			v.push(mouse)
		}
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		v.paused = !v.paused
	}
	if rl.IsKeyPressed(rl.KeyN) {
		v.stepOnce = true
	}

	switch {
	case v.stepOnce:
		v.world.Step()
		v.stepOnce = false
	case !v.paused:
		v.world.Update(rl.GetFrameTime() * v.timeScale)
	default:
		v.world.Library.Poll()
	}
}

// pollWatcher drains pending file changes without blocking the frame.
func (v *viewer) pollWatcher() {
	if v.watcher == nil {
		return
	}
	for {
		select {
		case path, ok := <-v.watcher.Events:
			if !ok {
				v.watcher = nil
				return
			}
			if _, err := v.world.HandleChange(path); err != nil {
				log.Printf("Reload %s: %v", path, err)
			}
		case err, ok := <-v.watcher.Errors:
			if !ok {
				v.watcher = nil
				return
			}
			log.Printf("Watcher: %v", err)
		default:
			return
		}
	}
}

// push fires a ray from the cursor and kicks the first dynamic body it hits.
func (v *viewer) push(mouse rl.Vector2) {
	ray := rl.GetScreenToWorldRay(mouse, v.camera.GetRaylibCamera())
	hit, ok := v.world.PhysicsWorld.Raycast(ray.Position, ray.Direction, 1000)
	if !ok {
		v.lastHit = ""
		return
	}
	v.lastHit = hit.Body.Object.Name
	rb := hit.Body.RigidBody
	if rb.IsStatic() {
		return
	}
	arm := rl.Vector3Subtract(hit.Point, hit.Body.Transform.Position)
	impulse := rl.Vector3Scale(ray.Direction, pushSpeed*rb.Mass)
	rb.ApplyImpulse(*hit.Body.Transform, impulse, arm)
}

func (v *viewer) spawnBox() {
	v.spawned++
	target := v.camera.Target
	pos := rl.Vector3{X: target.X, Y: target.Y + 6, Z: target.Z}
	v.world.Spawn(fmt.Sprintf("Spawned_%d", v.spawned), pos, "box:0.5,0.5,0.5", components.Dynamic)
}

func (v *viewer) draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.NewColor(18, 18, 24, 255))

	rl.BeginMode3D(v.camera.GetRaylibCamera())
	rl.DrawGrid(40, 1)
	v.renderer.Draw(v.camera.GetRaylibCamera(), v.world.Scene.GameObjects)
	rl.EndMode3D()

	v.drawPanel()
	rl.EndDrawing()
}

func (v *viewer) drawPanel() {
	h := float32(rl.GetScreenHeight())
	rl.DrawRectangleRec(rl.Rectangle{Width: panelWidth, Height: h}, rl.NewColor(24, 24, 32, 235))

	x := float32(10)
	y := float32(10)
	w := float32(panelWidth - 20)
	row := func(height float32) rl.Rectangle {
		r := rl.Rectangle{X: x, Y: y, Width: w, Height: height}
		y += height + 6
		return r
	}

	pauseLabel := "Pause"
	if v.paused {
		pauseLabel = "Resume"
	}
	if gui.Button(row(26), pauseLabel) {
		v.paused = !v.paused
	}
	if gui.Button(row(26), "Step") {
		v.stepOnce = true
	}
	if gui.Button(row(26), "Spawn box") {
		v.spawnBox()
	}
	if gui.Button(row(26), "Reset scene") {
		if err := v.world.Reload(); err != nil {
			log.Printf("Scene: %v", err)
		}
	}

	y += 6
	v.renderer.ShowBounds = gui.CheckBox(rl.Rectangle{X: x, Y: y, Width: 18, Height: 18}, "Bounds", v.renderer.ShowBounds)
	y += 26
	v.renderer.ShowContacts = gui.CheckBox(rl.Rectangle{X: x, Y: y, Width: 18, Height: 18}, "Contacts", v.renderer.ShowContacts)
	y += 30

	rl.DrawText("Time scale", int32(x), int32(y), 15, rl.LightGray)
	y += 20
	v.timeScale = gui.Slider(rl.Rectangle{X: x, Y: y, Width: w - 40, Height: 18}, "", fmt.Sprintf("%.2f", v.timeScale), v.timeScale, 0.05, 2)
	y += 34

	awake, asleep := v.counts()
	pw := v.world.PhysicsWorld
	lines := []string{
		fmt.Sprintf("FPS: %d", rl.GetFPS()),
		fmt.Sprintf("Bodies: %d awake, %d asleep", awake, asleep),
		fmt.Sprintf("Drawn: %d  Culled: %d", v.renderer.Drawn, v.renderer.Culled),
		fmt.Sprintf("Touching pairs: %d", pw.Cache().PairCount()),
		fmt.Sprintf("Sub-steps: %d", pw.IterationCount()),
		fmt.Sprintf("GPU pairs: %v", pw.UsingGPU()),
	}
	if v.lastHit != "" {
		lines = append(lines, "Hit: "+v.lastHit)
	}
	for _, line := range lines {
		rl.DrawText(line, int32(x), int32(y), 14, rl.Gray)
		y += 18
	}

	rl.DrawText("LMB push  RMB orbit  MMB pan", int32(x), int32(h-44), 12, rl.DarkGray)
	rl.DrawText("Space pause  N step", int32(x), int32(h-26), 12, rl.DarkGray)
}

func (v *viewer) counts() (awake, asleep int) {
	for _, g := range v.world.Scene.GameObjects {
		rb := engine.GetComponent[*components.RigidBody](g)
		if rb == nil || rb.IsStatic() {
			continue
		}
		if rb.IsSleeping() {
			asleep++
		} else {
			awake++
		}
	}
	return
}
