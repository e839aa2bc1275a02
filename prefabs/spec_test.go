package prefabs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadSimSpecEmbedded(t *testing.T) {
	spec, err := LoadSimSpec("sim.yaml")
	if err != nil {
		t.Fatalf("load sim spec: %v", err)
	}
	if spec.TickRate <= 0 || spec.Level == "" || len(spec.Routes.Names) == 0 {
		t.Fatalf("unexpected spec %+v", spec)
	}
}

func TestSimSpecValidate(t *testing.T) {
	valid := SimSpec{
		TickRate: 30,
		Level:    "demo",
		Routes:   RoutesSpec{Names: []string{"red"}, Difficulty: 50},
		Spawner:  SpawnerSpec{Count: 1, Prefabs: []string{"car.yaml"}},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid spec rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(s *SimSpec)
	}{
		{"zero_tick_rate", func(s *SimSpec) { s.TickRate = 0 }},
		{"no_level", func(s *SimSpec) { s.Level = "" }},
		{"no_routes", func(s *SimSpec) { s.Routes.Names = nil }},
		{"difficulty_high", func(s *SimSpec) { s.Routes.Difficulty = 150 }},
		{"spawner_without_prefabs", func(s *SimSpec) { s.Spawner.Prefabs = nil }},
		{"negative_radius", func(s *SimSpec) { s.Spawner.ClearRadius = -1 }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := valid
			s.Routes.Names = append([]string(nil), valid.Routes.Names...)
			c.mutate(&s)
			if err := s.Validate(); !errors.Is(err, ErrInvalidSpec) {
				t.Fatalf("expected ErrInvalidSpec, got %v", err)
			}
		})
	}
}

func TestVehiclePrefabsDecode(t *testing.T) {
	for _, name := range []string{"car.yaml", "car_scripted.yaml", "bus.yaml", "player_bus.yaml"} {
		t.Run(name, func(t *testing.T) {
			spec, err := LoadEntityBuildSpec(name)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			steering, err := DecodeComponentSpec[SteeringComponentSpec](spec.Components["steering"])
			if err != nil {
				t.Fatalf("decode steering: %v", err)
			}
			if steering.BaseSpeed <= 0 {
				t.Fatalf("expected a base speed, got %+v", steering)
			}
			sensors, err := DecodeComponentSpec[SensorsComponentSpec](spec.Components["sensors"])
			if err != nil {
				t.Fatalf("decode sensors: %v", err)
			}
			if len(sensors.Sensors) == 0 || sensors.Sensors[0].Offset.Z <= 0 {
				t.Fatalf("expected a forward sensor, got %+v", sensors)
			}
		})
	}
}

func TestCleanPaths(t *testing.T) {
	cases := []struct {
		fn   func(string) string
		in   string
		want string
	}{
		{cleanPrefabPath, "prefabs/car.yaml", "car.yaml"},
		{cleanPrefabPath, "car", "car.yaml"},
		{cleanScriptPath, "intersection.tengo", "scripts/intersection.tengo"},
		{cleanScriptPath, "prefabs/scripts/intersection", "scripts/intersection.tengo"},
	}
	for _, c := range cases {
		if got := c.fn(c.in); got != c.want {
			t.Fatalf("clean(%q) = %q, want %q", c.in, got, c.want)
		}
	}
	if _, err := LoadScript("intersection"); err != nil {
		t.Fatalf("load embedded script: %v", err)
	}
}

func TestWatcherReportsChanges(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "turns.tengo"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case ch := <-w.Events:
		if ch.Kind != ChangeScript || filepath.Base(ch.Path) != "turns.tengo" {
			t.Fatalf("unexpected change %+v", ch)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for change")
	}
}
