package system

import (
	"log/slog"
	"math/rand/v2"

	"github.com/milk9111/busline/ecs"
	"github.com/milk9111/busline/ecs/component"
	"github.com/milk9111/busline/logging"
	"github.com/milk9111/busline/waypoint"
)

// VehicleFactory builds a vehicle from a prefab, bound to an entry node.
type VehicleFactory func(w *ecs.World, prefab string, node waypoint.ID) (ecs.Entity, error)

// SpawnPayload is the data of vehicle.spawned events.
type SpawnPayload struct {
	Prefab string
	Node   waypoint.ID
}

// SpawnSystem drains Spawner components, at most one vehicle per spawner per
// tick. Entry points covered by an existing collider are skipped.
type SpawnSystem struct {
	graph   *waypoint.Graph
	rng     *rand.Rand
	factory VehicleFactory
	logger  *slog.Logger
}

func NewSpawnSystem(graph *waypoint.Graph, rng *rand.Rand, factory VehicleFactory, logger *slog.Logger) *SpawnSystem {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &SpawnSystem{graph: graph, rng: rng, factory: factory, logger: logging.OrDefault(logger)}
}

func (s *SpawnSystem) Update(w *ecs.World) {
	if w == nil || s.graph == nil || s.factory == nil {
		return
	}
	ecs.ForEach(w, component.SpawnerComponent.Kind(), func(_ ecs.Entity, sp *component.Spawner) {
		if sp.Remaining <= 0 {
			return
		}
		if len(sp.Prefabs) == 0 {
			s.logger.Error("spawner has no prefabs, disabling")
			sp.Remaining = 0
			return
		}
		entries := s.entries(sp)
		if len(entries) == 0 {
			s.logger.Error("spawner has no live entry points, disabling")
			sp.Remaining = 0
			return
		}

		attempts := sp.MaxAttempts
		if attempts <= 0 {
			attempts = 1
		}
		for i := 0; i < attempts; i++ {
			node := entries[s.rng.IntN(len(entries))]
			n, _ := s.graph.Node(node)
			if sp.ClearRadius > 0 && w.PhysicsWorld().Overlaps(n.Position, sp.ClearRadius, 0) {
				sp.Rejected++
				continue
			}
			prefab := sp.Prefabs[s.rng.IntN(len(sp.Prefabs))]
			e, err := s.factory(w, prefab, node)
			if err != nil {
				s.logger.Error("spawn failed, disabling spawner", "prefab", prefab, "node", n.Name, "err", err)
				sp.Remaining = 0
				return
			}
			sp.Remaining--
			sp.Spawned++
			s.logger.Debug("vehicle spawned", "entity", e.String(), "prefab", prefab, "node", n.Name)
			w.Emit(ecs.EventSpawned, e, SpawnPayload{Prefab: prefab, Node: node})
			return
		}
	})
}

func (s *SpawnSystem) entries(sp *component.Spawner) []waypoint.ID {
	if len(sp.EntryPoints) == 0 {
		return s.graph.IDs()
	}
	out := make([]waypoint.ID, 0, len(sp.EntryPoints))
	for _, id := range sp.EntryPoints {
		if s.graph.Has(id) {
			out = append(out, id)
		}
	}
	return out
}
