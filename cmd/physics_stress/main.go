// Stress test comparing CPU vs GPU pair finding, then timing full world steps
// with a growing number of boxes.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"time"

	"rigid3d/internal/components"
	"rigid3d/internal/compute"
	"rigid3d/internal/config"
	"rigid3d/internal/world"

	rl "github.com/gen2brain/raylib-go/raylib"
)

func main() {
	skipGPU := flag.Bool("cpu", false, "skip the GPU pair comparison")
	steps := flag.Int("steps", 120, "world steps timed per body count")
	flag.Parse()

	if !*skipGPU {
		info, err := compute.Initialize()
		if err != nil {
			fmt.Printf("GPU unavailable, skipping pair comparison: %v\n\n", err)
		} else {
			fmt.Printf("GPU: %s | %s | %s\n\n", info.Backend, info.Vendor, info.Name)
			for _, count := range []int{100, 500, 1000, 2000, 5000, 10000, 20000} {
				testPairs(count)
			}
			fmt.Println()
		}
	}

	for _, count := range []int{10, 50, 100, 250, 500} {
		testWorld(count, *steps)
	}
}

func randomSpheres(count int) []compute.BoundingSphere {
	rng := rand.New(rand.NewSource(42)) // Consistent results

	// Spawn in a cube, size scales with count to keep density reasonable
	spawnSize := float32(50.0) + float32(count)/100.0

	spheres := make([]compute.BoundingSphere, count)
	for i := range spheres {
		spheres[i] = compute.BoundingSphere{
			X:      rng.Float32()*spawnSize - spawnSize/2,
			Y:      rng.Float32()*spawnSize - spawnSize/2,
			Z:      rng.Float32()*spawnSize - spawnSize/2,
			Radius: 0.5 + rng.Float32()*0.5, // 0.5 to 1.0 radius
		}
	}
	return spheres
}

func testPairs(count int) {
	spheres := randomSpheres(count)

	maxPairs := uint32(count * 20) // Generous pair buffer
	pf, err := compute.NewPairFinder(uint32(count), maxPairs)
	if err != nil {
		fmt.Printf("%5d objects: GPU ERROR: %v\n", count, err)
		return
	}
	defer pf.Release()

	// Warm up
	pf.FindPairs(spheres)

	const iterations = 10
	gpuStart := time.Now()
	var gpuPairs []compute.Pair
	for i := 0; i < iterations; i++ {
		gpuPairs, err = pf.FindPairs(spheres)
		if err != nil {
			fmt.Printf("%5d objects: GPU ERROR: %v\n", count, err)
			return
		}
	}
	gpuTime := time.Since(gpuStart) / iterations

	cpuStart := time.Now()
	var cpuPairs []compute.Pair
	for i := 0; i < iterations; i++ {
		cpuPairs = compute.FindPairsCPU(spheres)
	}
	cpuTime := time.Since(cpuStart) / iterations

	match := "ok"
	if !samePairs(gpuPairs, cpuPairs) {
		match = "MISMATCH"
	}

	speedup := float64(cpuTime) / float64(gpuTime)
	fmt.Printf("%5d objects: GPU %8v (%4d pairs) | CPU %10v (%4d pairs) | %.1fx speedup | %s\n",
		count, gpuTime.Round(time.Microsecond), len(gpuPairs),
		cpuTime.Round(time.Microsecond), len(cpuPairs), speedup, match)
}

func samePairs(a, b []compute.Pair) bool {
	if len(a) != len(b) {
		return false
	}
	compute.SortPairs(a)
	compute.SortPairs(b)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// testWorld drops a grid of boxes onto a ground plate and times the steps.
func testWorld(count, steps int) {
	w := world.New(config.Default(), ".")
	defer w.Release()

	w.Spawn("Ground", rl.Vector3{Y: -0.5}, "box:50,0.5,50", components.Static)
	side := 1
	for side*side < count {
		side++
	}
	for i := 0; i < count; i++ {
		x := float32(i%side)*1.5 - float32(side)*0.75
		z := float32(i/side)*1.5 - float32(side)*0.75
		y := 1 + float32(i%3)*1.2
		w.Spawn(fmt.Sprintf("Box_%d", i), rl.Vector3{X: x, Y: y, Z: z}, "box:0.5,0.5,0.5", components.Dynamic)
	}
	w.Library.Wait()
	w.Library.Poll()

	start := time.Now()
	for i := 0; i < steps; i++ {
		w.Step()
	}
	elapsed := time.Since(start)

	asleep := 0
	for b := range w.Bodies() {
		if b.RigidBody.IsSleeping() {
			asleep++
		}
	}
	fmt.Printf("%5d boxes: %8v/step | %4d touching pairs | %4d asleep after %d steps\n",
		count, (elapsed / time.Duration(steps)).Round(time.Microsecond),
		w.PhysicsWorld.Cache().PairCount(), asleep, steps)
}
