//go:build !linux && !darwin

package world

import "log"

func (w *World) initializeCompute(headless bool) {
	log.Println("Compute: not supported on this platform")
}
