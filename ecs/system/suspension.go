package system

import (
	"github.com/milk9111/busline/ecs"
	"github.com/milk9111/busline/ecs/component"
)

// SuspensionSystem lifts Wait suspensions once their resume tick is reached.
type SuspensionSystem struct{}

func NewSuspensionSystem() *SuspensionSystem {
	return &SuspensionSystem{}
}

func (s *SuspensionSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}
	tick := w.Clock().Tick
	ecs.ForEach(w, component.SuspensionComponent.Kind(), func(e ecs.Entity, sus *component.Suspension) {
		if tick >= sus.ResumeTick {
			ecs.Remove(w, e, component.SuspensionComponent.Kind())
		}
	})
}
