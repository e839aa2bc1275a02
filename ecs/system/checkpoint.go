package system

import (
	"log/slog"

	"github.com/milk9111/busline/ecs"
	"github.com/milk9111/busline/ecs/component"
	"github.com/milk9111/busline/logging"
)

// CheckpointSystem validates the route of every vehicle entering a bus stop.
// Entry holds the vehicle for the stop's wait time and reports a signed score;
// keeping the score is left to whoever drains the events.
type CheckpointSystem struct {
	logger *slog.Logger
}

func NewCheckpointSystem(logger *slog.Logger) *CheckpointSystem {
	return &CheckpointSystem{logger: logging.OrDefault(logger)}
}

func (s *CheckpointSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}
	ecs.ForEach(w, component.CheckpointComponent.Kind(), func(_ ecs.Entity, cp *component.Checkpoint) {
		if cp.Inside == nil {
			cp.Inside = map[uint64]struct{}{}
		}
		for key := range cp.Inside {
			if !ecs.IsAlive(w, ecs.Entity(key)) {
				delete(cp.Inside, key)
			}
		}

		ecs.ForEach2(w, component.RouteAssignmentComponent.Kind(), component.TransformComponent.Kind(), func(ve ecs.Entity, ra *component.RouteAssignment, t *component.Transform) {
			key := uint64(ve)
			_, was := cp.Inside[key]
			inside := t.Position.FlatDistance(cp.Position) <= cp.Radius
			switch {
			case inside && !was:
				cp.Inside[key] = struct{}{}
				s.enter(w, ve, cp, ra)
			case !inside && was:
				delete(cp.Inside, key)
			}
		})
	})
}

func (s *CheckpointSystem) enter(w *ecs.World, e ecs.Entity, cp *component.Checkpoint, ra *component.RouteAssignment) {
	if err := Wait(w, e, cp.WaitSeconds); err != nil {
		s.logger.Warn("checkpoint wait failed", "checkpoint", cp.Name, "entity", e.String(), "err", err)
	}
	res := component.CheckpointResult{
		Checkpoint: cp.Name,
		Expected:   cp.Route,
		Got:        ra.Pack,
		Correct:    ra.Pack.Index == cp.Route.Index,
	}
	if res.Correct {
		res.Score = cp.Reward
	} else {
		res.Score = -cp.Penalty
	}
	s.logger.Debug("checkpoint reached", "checkpoint", cp.Name, "entity", e.String(), "correct", res.Correct, "score", res.Score)
	w.Emit(ecs.EventCheckpoint, e, res)
}
