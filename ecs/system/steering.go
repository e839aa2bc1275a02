package system

import (
	"github.com/milk9111/busline/common"
	"github.com/milk9111/busline/ecs"
	"github.com/milk9111/busline/ecs/component"
)

// SteeringSystem moves vehicles toward their target at CurrentSpeed and turns
// them to face the direction of travel.
type SteeringSystem struct{}

func NewSteeringSystem() *SteeringSystem {
	return &SteeringSystem{}
}

func (s *SteeringSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}
	dt := w.Clock().DT
	ecs.ForEach2(w, component.SteeringComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, st *component.Steering, t *component.Transform) {
		if !st.HasTarget || Suspended(w, e) {
			return
		}
		Steer(st, t, dt)
	})
}

// Steer advances one vehicle by one tick. Arrival is judged on horizontal
// distance only; a vehicle braked to zero short of StoppingDistance stays
// unreached until it can move again.
func Steer(st *component.Steering, t *component.Transform, dt float64) {
	delta := st.Target.Sub(t.Position).Flat()
	dist := delta.Length()
	if dist > 0 && dist >= st.StoppingDistance {
		st.Reached = false
		dir := delta.Scale(1 / dist)
		step := st.CurrentSpeed * dt
		if step > dist {
			step = dist
		}
		t.Position = t.Position.Add(dir.Scale(step))
		t.Yaw = common.SlerpYaw(t.Yaw, common.YawOf(dir), st.RotationSpeed/10*dt)
		return
	}
	st.Reached = true
}
