package system

import (
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/busline/common"
	"github.com/milk9111/busline/ecs"
	"github.com/milk9111/busline/ecs/component"
)

// SensorSystem casts each vehicle's probes and sets Steering.CurrentSpeed by
// proportional braking on the first probe that hits something.
type SensorSystem struct{}

func NewSensorSystem() *SensorSystem {
	return &SensorSystem{}
}

func (s *SensorSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}
	pw := w.PhysicsWorld()
	ecs.ForEach3(w, component.SensorArrayComponent.Kind(), component.SteeringComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, arr *component.SensorArray, st *component.Steering, t *component.Transform) {
		if Suspended(w, e) {
			return
		}
		arr.HasHit = false
		arr.Hit = component.SensorHit{}
		st.CurrentSpeed = st.BaseSpeed
		if pw == nil {
			return
		}

		mask := arr.Mask
		if mask == 0 {
			mask = cp.ALL_CATEGORIES
		}
		for i, sensor := range arr.Sensors {
			maxDist := arr.Range(i)
			if maxDist <= 0 {
				continue
			}
			origin := t.Position.Add(common.RotateYaw(sensor.Offset, t.Yaw))
			dir := common.YawForward(t.Yaw + sensor.Angle*math.Pi/180)
			hit, ok := pw.Raycast(origin, origin.Add(dir.Scale(maxDist)), e, mask)
			if !ok {
				continue
			}
			arr.HasHit = true
			arr.Hit = component.SensorHit{
				Sensor:      i,
				Distance:    hit.Distance,
				MaxDistance: maxDist,
				Origin:      origin,
				Point:       hit.Point,
			}
			st.CurrentSpeed = BrakingSpeed(st.BaseSpeed, hit.Distance, maxDist, arr.StopSpeed)
			return
		}
	})
}

// BrakingSpeed scales base linearly with how far along the probe the obstacle
// is. Anything under stopSpeed is a full stop; stopSpeed <= 0 uses the default.
func BrakingSpeed(base, dist, maxDist, stopSpeed float64) float64 {
	if maxDist <= 0 {
		return base
	}
	if stopSpeed <= 0 {
		stopSpeed = component.DefaultStopSpeed
	}
	speed := common.Lerp(0, base, common.Clamp01(dist/maxDist))
	if speed < stopSpeed {
		return 0
	}
	return speed
}
