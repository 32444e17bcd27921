package physics

import "iter"

// Stepper feeds variable frame times to a world in fixed steps. Time beyond
// MaxSteps steps per frame is dropped so a long stall cannot snowball.
type Stepper struct {
	World       *PhysicsWorld
	Timestep    float32
	MaxSteps    int
	accumulator float32
}

func NewStepper(world *PhysicsWorld) *Stepper {
	return &Stepper{
		World:    world,
		Timestep: world.Settings.FixedTimestep,
		MaxSteps: world.Settings.MaxStepsPerFrame,
	}
}

// Advance accumulates frameDt and runs as many whole steps as fit. Returns the
// number of steps taken.
func (s *Stepper) Advance(bodies iter.Seq[Body], frameDt float32) int {
	if s.Timestep <= 0 || frameDt <= 0 {
		return 0
	}
	s.accumulator += frameDt
	steps := 0
	for s.accumulator >= s.Timestep {
		if s.MaxSteps > 0 && steps >= s.MaxSteps {
			s.accumulator = 0
			break
		}
		s.World.Step(bodies, s.Timestep)
		s.accumulator -= s.Timestep
		steps++
	}
	return steps
}

// Alpha is the fraction of a step left in the accumulator, for interpolation.
func (s *Stepper) Alpha() float32 {
	if s.Timestep <= 0 {
		return 0
	}
	return s.accumulator / s.Timestep
}
