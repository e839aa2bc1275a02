package system

import (
	"github.com/milk9111/busline/ecs"
	"github.com/milk9111/busline/ecs/component"
)

// BodySyncSystem mirrors vehicle transforms into the physics space so this
// tick's sensor queries see everyone's current footprint.
type BodySyncSystem struct{}

func NewBodySyncSystem() *BodySyncSystem {
	return &BodySyncSystem{}
}

func (s *BodySyncSystem) Update(w *ecs.World) {
	pw := w.PhysicsWorld()
	if pw == nil {
		return
	}
	for _, e := range pw.Vehicles() {
		if !ecs.IsAlive(w, e) || !ecs.Has(w, e, component.BodyComponent.Kind()) {
			pw.RemoveVehicle(e)
		}
	}
	ecs.ForEach2(w, component.BodyComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, body *component.Body, t *component.Transform) {
		if !pw.HasVehicle(e) {
			pw.AddVehicle(e, t.Position, body.Radius)
			return
		}
		pw.MoveVehicle(e, t.Position)
	})
	pw.Step(w.Clock().DT)
}
