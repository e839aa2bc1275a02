package prefabs

import (
	"github.com/milk9111/busline/common"
	"gopkg.in/yaml.v3"
)

// EntityBuildSpec is a vehicle prefab: a name and a map of component specs
// keyed by component name.
type EntityBuildSpec struct {
	Name       string         `yaml:"name"`
	Components map[string]any `yaml:"components"`
}

func LoadEntityBuildSpec(filename string) (EntityBuildSpec, error) {
	return LoadSpec[EntityBuildSpec](filename)
}

func DecodeComponentSpec[T any](raw any) (T, error) {
	var zero T
	if raw == nil {
		return zero, nil
	}
	b, err := yaml.Marshal(raw)
	if err != nil {
		return zero, err
	}
	var out T
	if err := yaml.Unmarshal(b, &out); err != nil {
		return zero, err
	}
	return out, nil
}

type TransformComponentSpec struct {
	// YawOffset is added to the heading of the entry node, in degrees.
	YawOffset float64 `yaml:"yaw_offset"`
}

type SteeringComponentSpec struct {
	BaseSpeed        float64 `yaml:"base_speed"`
	RotationSpeed    float64 `yaml:"rotation_speed"`
	StoppingDistance float64 `yaml:"stopping_distance"`
}

type SensorSpec struct {
	Offset      common.Vec3 `yaml:"offset"`
	Angle       float64     `yaml:"angle"`
	MaxDistance float64     `yaml:"max_distance"`
}

type SensorsComponentSpec struct {
	RaycastDistance float64      `yaml:"raycast_distance"`
	StopSpeed       float64      `yaml:"stop_speed"`
	Mask            []string     `yaml:"mask"`
	Sensors         []SensorSpec `yaml:"sensors"`
}

type BodyComponentSpec struct {
	Radius float64 `yaml:"radius"`
}

type NavigatorComponentSpec struct {
	Driver   string `yaml:"driver"`
	Backward bool   `yaml:"backward"`
}

type PlayerControlComponentSpec struct {
	QTEDistance float64 `yaml:"qte_distance"`
}

type IntersectionPolicyComponentSpec struct {
	Script string `yaml:"script"`
}

type VehicleComponentSpec struct {
	Label string `yaml:"label"`
}

// RouteComponentSpec asks the builder to draw a route pack. A fixed Route name
// pins the pack instead.
type RouteComponentSpec struct {
	Route string `yaml:"route"`
}
