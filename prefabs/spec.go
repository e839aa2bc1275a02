package prefabs

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

var ErrInvalidSpec = errors.New("prefabs: invalid spec")

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

// SimSpec configures one simulation run.
type SimSpec struct {
	Name     string      `yaml:"name"`
	TickRate int         `yaml:"tick_rate"`
	Seed     uint64      `yaml:"seed"`
	LogLevel string      `yaml:"log_level"`
	Level    string      `yaml:"level"`
	Routes   RoutesSpec  `yaml:"routes"`
	Spawner  SpawnerSpec `yaml:"spawner"`
	Player   PlayerSpec  `yaml:"player"`
}

type RoutesSpec struct {
	Names      []string `yaml:"names"`
	Difficulty float64  `yaml:"difficulty"`
}

type SpawnerSpec struct {
	Count       int      `yaml:"count"`
	Prefabs     []string `yaml:"prefabs"`
	EntryPoints []string `yaml:"entry_points"`
	ClearRadius float64  `yaml:"clear_radius"`
	MaxAttempts int      `yaml:"max_attempts"`
}

// PlayerSpec places the player's vehicle. An empty Prefab runs without one.
type PlayerSpec struct {
	Prefab string `yaml:"prefab"`
	Start  string `yaml:"start"`
}

func LoadSimSpec(name string) (SimSpec, error) {
	spec, err := LoadSpec[SimSpec](name)
	if err != nil {
		return SimSpec{}, err
	}
	if err := spec.Validate(); err != nil {
		return SimSpec{}, fmt.Errorf("prefabs: %s: %w", name, err)
	}
	return spec, nil
}

// Validate reports every problem with the sim file at once.
func (s SimSpec) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidSpec}, args...)...))
	}
	if s.TickRate <= 0 {
		bad("tick_rate must be positive, got %d", s.TickRate)
	}
	if s.Level == "" {
		bad("level is required")
	}
	if len(s.Routes.Names) == 0 {
		bad("routes.names is empty")
	}
	if s.Routes.Difficulty < 0 || s.Routes.Difficulty > 100 {
		bad("routes.difficulty must be within [0, 100], got %v", s.Routes.Difficulty)
	}
	if s.Spawner.Count < 0 {
		bad("spawner.count must not be negative")
	}
	if s.Spawner.Count > 0 && len(s.Spawner.Prefabs) == 0 {
		bad("spawner.prefabs is empty")
	}
	if s.Spawner.ClearRadius < 0 {
		bad("spawner.clear_radius must not be negative")
	}
	return errors.Join(errs...)
}
