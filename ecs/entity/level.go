package entity

import (
	"fmt"

	"github.com/milk9111/busline/ecs"
	"github.com/milk9111/busline/ecs/component"
	"github.com/milk9111/busline/levels"
	"github.com/milk9111/busline/prefabs"
	"github.com/milk9111/busline/route"
	"github.com/milk9111/busline/waypoint"
)

// LoadLevelToWorld adds the level's obstacle footprints to the physics world
// and creates one checkpoint entity per bus stop, each assigned a route.
func LoadLevelToWorld(w *ecs.World, lvl *levels.Level, routes *route.Selector) ([]ecs.Entity, error) {
	if w == nil || lvl == nil {
		return nil, fmt.Errorf("load level: nil world or level")
	}
	pw := w.PhysicsWorld()
	if pw == nil {
		return nil, fmt.Errorf("load level %q: world has no physics", lvl.Name)
	}
	for i, o := range lvl.Obstacles {
		if o.Width <= 0 || o.Depth <= 0 {
			return nil, fmt.Errorf("load level %q: obstacle %d has no footprint", lvl.Name, i)
		}
		pw.AddObstacle(o.Position, o.Width, o.Depth)
	}

	checkpoints := make([]ecs.Entity, 0, len(lvl.Checkpoints))
	for _, c := range lvl.Checkpoints {
		if c.Radius <= 0 {
			return nil, fmt.Errorf("load level %q: checkpoint %q has no radius", lvl.Name, c.Name)
		}
		cp := &component.Checkpoint{
			Name:        c.Name,
			Position:    c.Position,
			Radius:      c.Radius,
			WaitSeconds: c.Wait,
			Reward:      c.Reward,
			Penalty:     c.Penalty,
			Inside:      map[uint64]struct{}{},
		}
		if routes != nil {
			cp.Route = routes.GetRandomRoute()
		}
		e := ecs.CreateEntity(w)
		if err := ecs.Add(w, e, component.CheckpointComponent.Kind(), cp); err != nil {
			return nil, err
		}
		checkpoints = append(checkpoints, e)
	}
	return checkpoints, nil
}

// BuildSpawner creates the spawner entity, resolving entry point names.
func BuildSpawner(w *ecs.World, g *waypoint.Graph, spec prefabs.SpawnerSpec) (ecs.Entity, error) {
	sp := &component.Spawner{
		Remaining:   spec.Count,
		Prefabs:     append([]string(nil), spec.Prefabs...),
		ClearRadius: spec.ClearRadius,
		MaxAttempts: spec.MaxAttempts,
	}
	for _, name := range spec.EntryPoints {
		id, ok := g.Lookup(name)
		if !ok {
			return 0, fmt.Errorf("build spawner: entry point %q: %w", name, waypoint.ErrUnknownNode)
		}
		sp.EntryPoints = append(sp.EntryPoints, id)
	}
	e := ecs.CreateEntity(w)
	if err := ecs.Add(w, e, component.SpawnerComponent.Kind(), sp); err != nil {
		return 0, err
	}
	return e, nil
}
