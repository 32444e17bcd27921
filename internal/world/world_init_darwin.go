//go:build darwin

package world

import (
	"log"

	"rigid3d/internal/compute"
)

func (w *World) initializeCompute(headless bool) {
	// Metal on Mac works fine next to a window
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
