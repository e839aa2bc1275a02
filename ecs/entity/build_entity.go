package entity

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/busline/common"
	"github.com/milk9111/busline/ecs"
	"github.com/milk9111/busline/ecs/component"
	"github.com/milk9111/busline/ecs/system"
	"github.com/milk9111/busline/prefabs"
	"github.com/milk9111/busline/route"
	"github.com/milk9111/busline/waypoint"
)

// BuildContext binds a prefab to the place it is spawned.
type BuildContext struct {
	Graph  *waypoint.Graph
	Node   waypoint.ID
	Rng    *rand.Rand
	Routes *route.Selector
	// Policy validates intersection scripts through its compile cache. Nil
	// compiles the script on every build.
	Policy *system.ScriptPolicy

	PrefabPath string
}

type componentBuildFn func(w *ecs.World, e ecs.Entity, raw any, ctx *BuildContext) error

var componentRegistry = map[string]componentBuildFn{
	"vehicle":             addVehicle,
	"transform":           addTransform,
	"steering":            addSteering,
	"sensors":             addSensors,
	"body":                addBody,
	"navigator":           addNavigator,
	"player_control":      addPlayerControl,
	"intersection_policy": addIntersectionPolicy,
	"route":               addRoute,
}

// navigator checks for steering, so order matters.
var componentBuildOrder = []string{
	"vehicle",
	"transform",
	"steering",
	"sensors",
	"body",
	"navigator",
	"player_control",
	"intersection_policy",
	"route",
}

// BuildVehicle loads a prefab and builds it at ctx.Node.
func BuildVehicle(w *ecs.World, prefabPath string, ctx *BuildContext) (ecs.Entity, error) {
	spec, err := prefabs.LoadEntityBuildSpec(prefabPath)
	if err != nil {
		return 0, fmt.Errorf("build entity: load %q: %w", prefabPath, err)
	}
	return BuildVehicleFromSpec(w, prefabPath, spec, ctx)
}

// BuildVehicleFromSpec builds an already decoded prefab. On any component
// error the half-built entity is destroyed.
func BuildVehicleFromSpec(w *ecs.World, prefabPath string, spec prefabs.EntityBuildSpec, ctx *BuildContext) (ecs.Entity, error) {
	if w == nil {
		return 0, fmt.Errorf("build entity: world is nil")
	}
	if ctx == nil || ctx.Graph == nil {
		return 0, fmt.Errorf("build entity: %q: no graph to place the vehicle on", prefabPath)
	}
	if !ctx.Graph.Has(ctx.Node) {
		return 0, fmt.Errorf("build entity: %q: node %d: %w", prefabPath, ctx.Node, waypoint.ErrUnknownNode)
	}
	if len(spec.Components) == 0 {
		return 0, fmt.Errorf("build entity: prefab %q does not define components", prefabPath)
	}
	ctx.PrefabPath = prefabPath

	names := make([]string, 0, len(spec.Components))
	for name := range spec.Components {
		if _, ok := componentRegistry[name]; !ok {
			return 0, fmt.Errorf("build entity: %q: no builder for component %q", prefabPath, name)
		}
		names = append(names, name)
	}
	sort.SliceStable(names, func(i, j int) bool {
		return buildRank(names[i]) < buildRank(names[j])
	})

	e := ecs.CreateEntity(w)
	for _, name := range names {
		if err := componentRegistry[name](w, e, spec.Components[name], ctx); err != nil {
			ecs.DestroyEntity(w, e)
			return 0, fmt.Errorf("build entity: %q: add %q: %w", prefabPath, name, err)
		}
	}
	return e, nil
}

func buildRank(name string) int {
	for i, n := range componentBuildOrder {
		if n == name {
			return i
		}
	}
	return len(componentBuildOrder)
}

func addVehicle(w *ecs.World, e ecs.Entity, raw any, ctx *BuildContext) error {
	spec, err := prefabs.DecodeComponentSpec[prefabs.VehicleComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode vehicle spec: %w", err)
	}
	return ecs.Add(w, e, component.VehicleComponent.Kind(), &component.Vehicle{
		ID:     uuid.New(),
		Prefab: ctx.PrefabPath,
		Label:  spec.Label,
	})
}

func addTransform(w *ecs.World, e ecs.Entity, raw any, ctx *BuildContext) error {
	spec, err := prefabs.DecodeComponentSpec[prefabs.TransformComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode transform spec: %w", err)
	}
	node, _ := ctx.Graph.Node(ctx.Node)
	return ecs.Add(w, e, component.TransformComponent.Kind(), &component.Transform{
		Position: node.Position,
		Yaw:      common.YawOf(node.Forward) + spec.YawOffset*math.Pi/180,
	})
}

func addSteering(w *ecs.World, e ecs.Entity, raw any, ctx *BuildContext) error {
	spec, err := prefabs.DecodeComponentSpec[prefabs.SteeringComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode steering spec: %w", err)
	}
	if spec.BaseSpeed < 0 || spec.RotationSpeed < 0 || spec.StoppingDistance < 0 {
		return fmt.Errorf("steering values must not be negative: %+v", spec)
	}
	st := &component.Steering{
		BaseSpeed:        spec.BaseSpeed,
		RotationSpeed:    spec.RotationSpeed,
		StoppingDistance: spec.StoppingDistance,
		CurrentSpeed:     spec.BaseSpeed,
	}
	st.SetDestination(ctx.Graph.SamplePosition(ctx.Node, ctx.Rng))
	return ecs.Add(w, e, component.SteeringComponent.Kind(), st)
}

// ParseMask turns category names into a collision mask. An empty list sees everything.
func ParseMask(names []string) (uint, error) {
	if len(names) == 0 {
		return cp.ALL_CATEGORIES, nil
	}
	var mask uint
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "static":
			mask |= ecs.CategoryStatic
		case "vehicle":
			mask |= ecs.CategoryVehicle
		case "all":
			mask |= cp.ALL_CATEGORIES
		default:
			return 0, fmt.Errorf("unknown mask category %q", name)
		}
	}
	return mask, nil
}

func addSensors(w *ecs.World, e ecs.Entity, raw any, _ *BuildContext) error {
	spec, err := prefabs.DecodeComponentSpec[prefabs.SensorsComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode sensors spec: %w", err)
	}
	mask, err := ParseMask(spec.Mask)
	if err != nil {
		return err
	}
	arr := &component.SensorArray{
		RaycastDistance: spec.RaycastDistance,
		Mask:            mask,
		StopSpeed:       spec.StopSpeed,
	}
	if arr.StopSpeed <= 0 {
		arr.StopSpeed = component.DefaultStopSpeed
	}
	for i, s := range spec.Sensors {
		if s.MaxDistance <= 0 && spec.RaycastDistance <= 0 {
			return fmt.Errorf("sensor %d has no range", i)
		}
		arr.Sensors = append(arr.Sensors, component.Sensor{
			Offset:      s.Offset,
			Angle:       s.Angle,
			MaxDistance: s.MaxDistance,
		})
	}
	return ecs.Add(w, e, component.SensorArrayComponent.Kind(), arr)
}

func addBody(w *ecs.World, e ecs.Entity, raw any, _ *BuildContext) error {
	spec, err := prefabs.DecodeComponentSpec[prefabs.BodyComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode body spec: %w", err)
	}
	if spec.Radius <= 0 {
		return fmt.Errorf("body radius must be positive, got %v", spec.Radius)
	}
	return ecs.Add(w, e, component.BodyComponent.Kind(), &component.Body{Radius: spec.Radius})
}

func ParseDriver(s string) (component.DriverKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "autonomous", "ai":
		return component.DriverAutonomous, nil
	case "player":
		return component.DriverPlayer, nil
	default:
		return 0, fmt.Errorf("unknown driver %q", s)
	}
}

func addNavigator(w *ecs.World, e ecs.Entity, raw any, ctx *BuildContext) error {
	spec, err := prefabs.DecodeComponentSpec[prefabs.NavigatorComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode navigator spec: %w", err)
	}
	driver, err := ParseDriver(spec.Driver)
	if err != nil {
		return err
	}
	if !ecs.Has(w, e, component.SteeringComponent.Kind()) {
		return fmt.Errorf("navigator requires steering on the same entity")
	}
	return ecs.Add(w, e, component.NavigatorComponent.Kind(), &component.Navigator{
		Current:  ctx.Node,
		Backward: spec.Backward,
		Driver:   driver,
	})
}

func addPlayerControl(w *ecs.World, e ecs.Entity, raw any, _ *BuildContext) error {
	spec, err := prefabs.DecodeComponentSpec[prefabs.PlayerControlComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode player_control spec: %w", err)
	}
	if spec.QTEDistance <= 0 {
		return fmt.Errorf("qte_distance must be positive, got %v", spec.QTEDistance)
	}
	return ecs.Add(w, e, component.PlayerControlComponent.Kind(), &component.PlayerControl{QTEDistance: spec.QTEDistance})
}

func addIntersectionPolicy(w *ecs.World, e ecs.Entity, raw any, ctx *BuildContext) error {
	spec, err := prefabs.DecodeComponentSpec[prefabs.IntersectionPolicyComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode intersection_policy spec: %w", err)
	}
	if strings.TrimSpace(spec.Script) == "" {
		return fmt.Errorf("intersection_policy requires a script")
	}
	check := system.CheckPolicyScript
	if ctx != nil && ctx.Policy != nil {
		check = ctx.Policy.Check
	}
	if err := check(spec.Script); err != nil {
		return fmt.Errorf("intersection_policy %q: %w", spec.Script, err)
	}
	return ecs.Add(w, e, component.IntersectionPolicyComponent.Kind(), &component.IntersectionPolicy{Script: spec.Script})
}

func addRoute(w *ecs.World, e ecs.Entity, raw any, ctx *BuildContext) error {
	spec, err := prefabs.DecodeComponentSpec[prefabs.RouteComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode route spec: %w", err)
	}
	if ctx.Routes == nil {
		return fmt.Errorf("route requires a route selector")
	}
	pack := ctx.Routes.GetRandomRoute()
	if spec.Route != "" {
		pack, err = findRoute(ctx.Routes, spec.Route)
		if err != nil {
			return err
		}
	}
	return ecs.Add(w, e, component.RouteAssignmentComponent.Kind(), &component.RouteAssignment{Pack: pack})
}

func findRoute(sel *route.Selector, name string) (route.Pack, error) {
	for i, r := range sel.Routes() {
		if r == name {
			return route.Pack{Name: r, Index: i}, nil
		}
	}
	return route.Pack{}, fmt.Errorf("unknown route %q", name)
}
