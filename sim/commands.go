package sim

import (
	"fmt"

	"github.com/milk9111/busline/common"
	"github.com/milk9111/busline/ecs"
	"github.com/milk9111/busline/ecs/component"
	"github.com/milk9111/busline/ecs/entity"
	"github.com/milk9111/busline/ecs/system"
	"github.com/milk9111/busline/prefabs"
	"github.com/milk9111/busline/waypoint"
)

// buildVehicle is the spawner's factory. Decoded prefabs are cached until
// ReloadPrefab drops them.
func (s *Simulation) buildVehicle(w *ecs.World, prefab string, node waypoint.ID) (ecs.Entity, error) {
	key := prefabs.PrefabName(prefab)
	spec, ok := s.prefabs[key]
	if !ok {
		loaded, err := prefabs.LoadEntityBuildSpec(prefab)
		if err != nil {
			return 0, err
		}
		spec = loaded
		s.prefabs[key] = spec
	}
	e, err := entity.BuildVehicleFromSpec(w, prefab, spec, &entity.BuildContext{
		Graph:  s.graph,
		Node:   node,
		Rng:    s.rng,
		Routes: s.routes,
		Policy: s.policy,
	})
	if err != nil {
		return 0, err
	}
	// register the footprint now so the next spawn this tick sees it
	if body, ok := ecs.Get(w, e, component.BodyComponent.Kind()); ok {
		if t, ok := ecs.Get(w, e, component.TransformComponent.Kind()); ok {
			w.PhysicsWorld().AddVehicle(e, t.Position, body.Radius)
		}
	}
	return e, nil
}

// SpawnVehicle builds prefab at node immediately, bypassing the spawner's
// clearance check.
func (s *Simulation) SpawnVehicle(prefab string, node waypoint.ID) (ecs.Entity, error) {
	e, err := s.buildVehicle(s.world, prefab, node)
	if err != nil {
		return 0, fmt.Errorf("sim: spawn %q: %w", prefab, err)
	}
	s.world.Emit(ecs.EventSpawned, e, system.SpawnPayload{Prefab: prefab, Node: node})
	return e, nil
}

// ReloadPrefab forgets a cached prefab so later spawns pick up edits on disk.
func (s *Simulation) ReloadPrefab(name string) {
	delete(s.prefabs, prefabs.PrefabName(name))
}

// ReloadScript drops a compiled intersection script.
func (s *Simulation) ReloadScript(name string) {
	s.policy.Invalidate(name)
}

// Despawn removes a vehicle. The graph is never touched.
func (s *Simulation) Despawn(e ecs.Entity) error {
	if !ecs.IsAlive(s.world, e) {
		return fmt.Errorf("sim: despawn %s: %w", e, component.ErrEntityNotAlive)
	}
	if pc, ok := ecs.Get(s.world, e, component.PlayerControlComponent.Kind()); ok && pc.Visible {
		if p := s.nav.Presenter(); p != nil {
			p.HideButtons(e)
		}
	}
	s.world.PhysicsWorld().RemoveVehicle(e)
	ecs.DestroyEntity(s.world, e)
	s.world.Emit(ecs.EventDespawned, e, nil)
	return nil
}

func (s *Simulation) Wait(e ecs.Entity, seconds float64) error {
	return system.Wait(s.world, e, seconds)
}

func (s *Simulation) TurnLeft(e ecs.Entity) error {
	return s.resolve(e, system.CommandLeft)
}

func (s *Simulation) TurnRight(e ecs.Entity) error {
	return s.resolve(e, system.CommandRight)
}

func (s *Simulation) Stop(e ecs.Entity) error {
	return s.resolve(e, system.CommandStop)
}

func (s *Simulation) resolve(e ecs.Entity, cmd system.Command) error {
	err := system.ResolveIntersection(s.world, s.graph, s.nav.Presenter(), e, cmd)
	if err != nil {
		s.logger.Debug("intersection command rejected", "entity", e.String(), "command", cmd.String(), "err", err)
	}
	return err
}

// SetDestination retargets a vehicle's steering. The navigator keeps its
// cursor, so the next arrival resumes the graph walk.
func (s *Simulation) SetDestination(e ecs.Entity, pos common.Vec3) error {
	st, ok := ecs.Get(s.world, e, component.SteeringComponent.Kind())
	if !ok {
		return fmt.Errorf("sim: set destination %s: no steering", e)
	}
	st.SetDestination(pos)
	return nil
}

func (s *Simulation) Navigator(e ecs.Entity) (*component.Navigator, bool) {
	return ecs.Get(s.world, e, component.NavigatorComponent.Kind())
}

func (s *Simulation) Steering(e ecs.Entity) (*component.Steering, bool) {
	return ecs.Get(s.world, e, component.SteeringComponent.Kind())
}

func (s *Simulation) Transform(e ecs.Entity) (*component.Transform, bool) {
	return ecs.Get(s.world, e, component.TransformComponent.Kind())
}

// Vehicles lists every entity with a navigator.
func (s *Simulation) Vehicles() []ecs.Entity {
	var out []ecs.Entity
	ecs.ForEach(s.world, component.NavigatorComponent.Kind(), func(e ecs.Entity, _ *component.Navigator) {
		out = append(out, e)
	})
	return out
}

// State reports e's traversal state.
func (s *Simulation) State(e ecs.Entity) (component.NavState, bool) {
	nav, ok := s.Navigator(e)
	if !ok {
		return 0, false
	}
	return nav.State(system.Suspended(s.world, e)), true
}

// ResetRoutes re-rolls the route of every checkpoint and forgets who is
// standing in them.
func (s *Simulation) ResetRoutes() {
	for _, e := range s.checkpoints {
		cp, ok := ecs.Get(s.world, e, component.CheckpointComponent.Kind())
		if !ok {
			continue
		}
		cp.Route = s.routes.GetRandomRoute()
		cp.Inside = map[uint64]struct{}{}
		s.logger.Debug("checkpoint route reset", "checkpoint", cp.Name, "route", cp.Route.String())
	}
}
