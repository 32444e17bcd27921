//go:build linux

package world

import (
	"log"

	"rigid3d/internal/compute"
)

func (w *World) initializeCompute(headless bool) {
	if !headless {
		// Disabled next to a window due to EGL/WebGPU conflicts with NVIDIA on X11
		log.Println("Compute: disabled on Linux with a window (EGL conflict workaround)")
		return
	}
	startCompute(w)
}

func startCompute(w *World) {
	info, err := compute.Initialize()
	if err != nil {
		log.Printf("Compute shaders unavailable: %v", err)
		return
	}
	log.Printf("Compute: %s", info)
	if err := w.PhysicsWorld.InitGPU(); err != nil {
		log.Printf("Physics: GPU pair prefilter unavailable: %v", err)
	}
}
