// Package config loads physics settings and collision shape files from YAML.
package config

import (
	"fmt"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gopkg.in/yaml.v3"
)

// Settings tunes the physics world. Zero fields in a file keep their defaults.
type Settings struct {
	Gravity       Vec3    `yaml:"gravity"`
	Slop          float32 `yaml:"slop"`           // penetration left uncorrected
	Correction    float32 `yaml:"correction"`     // fraction of penetration removed per sub-step
	SleepEpsilon  float32 `yaml:"sleep_epsilon"`  // max pose change per sub-step at rest
	SleepTime     float32 `yaml:"sleep_time"`     // seconds at rest before sleeping
	WakeThreshold float32 `yaml:"wake_threshold"` // approach speed that wakes a sleeping body

	FixedTimestep    float32 `yaml:"fixed_timestep"`
	MaxStepsPerFrame int     `yaml:"max_steps_per_frame"`

	// Body count at which the GPU pair prefilter takes over. Zero disables it.
	GPUPairThreshold int `yaml:"gpu_pair_threshold"`
}

// Default returns the engine constants.
func Default() Settings {
	return Settings{
		Gravity:          Vec3{rl.Vector3{Y: -9.8}},
		Slop:             0.01,
		Correction:       0.99,
		SleepEpsilon:     5e-5,
		SleepTime:        1.0,
		WakeThreshold:    0.1,
		FixedTimestep:    1.0 / 60,
		MaxStepsPerFrame: 4,
		GPUPairThreshold: 750,
	}
}

// LoadSettings reads a settings file over the defaults.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("config: load %s: %w", path, err)
	}
	return ParseSettings(data)
}

// ParseSettings decodes YAML over the defaults.
func ParseSettings(data []byte) (Settings, error) {
	s := Default()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("config: unmarshal settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate rejects values the solver cannot run with.
func (s Settings) Validate() error {
	switch {
	case s.Slop < 0:
		return fmt.Errorf("config: slop must be >= 0, got %g", s.Slop)
	case s.Correction < 0 || s.Correction > 1:
		return fmt.Errorf("config: correction must be in [0,1], got %g", s.Correction)
	case s.SleepEpsilon < 0 || s.SleepTime < 0:
		return fmt.Errorf("config: sleep thresholds must be >= 0")
	case s.FixedTimestep <= 0:
		return fmt.Errorf("config: fixed_timestep must be > 0, got %g", s.FixedTimestep)
	case s.MaxStepsPerFrame < 1:
		return fmt.Errorf("config: max_steps_per_frame must be >= 1, got %d", s.MaxStepsPerFrame)
	}
	return nil
}

// Vec3 is a vector written as a flow sequence: [x, y, z].
type Vec3 struct {
	rl.Vector3
}

func (v *Vec3) UnmarshalYAML(value *yaml.Node) error {
	var xyz []float32
	if err := value.Decode(&xyz); err != nil {
		return fmt.Errorf("vector must be a sequence: %w", err)
	}
	if len(xyz) != 3 {
		return fmt.Errorf("vector needs 3 components, got %d", len(xyz))
	}
	v.X, v.Y, v.Z = xyz[0], xyz[1], xyz[2]
	return nil
}

func (v Vec3) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, f := range [3]float32{v.X, v.Y, v.Z} {
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: fmt.Sprint(f)})
	}
	return node, nil
}
