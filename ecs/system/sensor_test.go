package system

import (
	"math"
	"testing"

	"github.com/milk9111/busline/common"
	"github.com/milk9111/busline/ecs"
	"github.com/milk9111/busline/ecs/component"
)

func TestBrakingSpeed(t *testing.T) {
	cases := []struct {
		name            string
		base, dist, max float64
		want            float64
	}{
		{"half_way", 5, 5, 10, 2.5},
		{"at_probe_end", 5, 10, 10, 5},
		{"touching", 5, 0, 10, 0},
		{"below_stop_speed", 5, 0.1, 10, 0},
		{"just_above_stop_speed", 1, 1.5, 10, 0.15},
		{"beyond_range_clamped", 5, 20, 10, 5},
		{"no_range", 5, 1, 0, 5},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := BrakingSpeed(c.base, c.dist, c.max, 0)
			if math.Abs(got-c.want) > 1e-9 {
				t.Fatalf("BrakingSpeed(%v, %v, %v) = %v, want %v", c.base, c.dist, c.max, got, c.want)
			}
		})
	}
}

func sensorAgent(t *testing.T, w *ecs.World, sensors ...component.Sensor) (ecs.Entity, *component.SensorArray, *component.Steering) {
	t.Helper()
	e := ecs.CreateEntity(w)
	arr := &component.SensorArray{Sensors: sensors, RaycastDistance: 10, Mask: ecs.CategoryStatic | ecs.CategoryVehicle}
	st := &component.Steering{BaseSpeed: 4, CurrentSpeed: 4}
	if err := ecs.Add(w, e, component.SensorArrayComponent.Kind(), arr); err != nil {
		t.Fatal(err)
	}
	if err := ecs.Add(w, e, component.SteeringComponent.Kind(), st); err != nil {
		t.Fatal(err)
	}
	if err := ecs.Add(w, e, component.TransformComponent.Kind(), &component.Transform{}); err != nil {
		t.Fatal(err)
	}
	return e, arr, st
}

func TestSensorSystem(t *testing.T) {
	t.Run("first_hit_wins", func(t *testing.T) {
		w := newTestWorld(0.1)
		// footprint spans z 5..7
		w.PhysicsWorld().AddObstacle(common.Vec3{Z: 6}, 4, 2)
		_, arr, st := sensorAgent(t, w,
			component.Sensor{Angle: 90},
			component.Sensor{},
			component.Sensor{Offset: common.Vec3{Z: 3}},
		)
		NewSensorSystem().Update(w)

		if !arr.HasHit || arr.Hit.Sensor != 1 {
			t.Fatalf("expected the forward probe to report, got %+v", arr.Hit)
		}
		if math.Abs(arr.Hit.Distance-5) > 1e-6 {
			t.Fatalf("expected hit at 5, got %v", arr.Hit.Distance)
		}
		if math.Abs(st.CurrentSpeed-2) > 1e-6 {
			t.Fatalf("expected speed 2, got %v", st.CurrentSpeed)
		}
	})

	t.Run("per_probe_range", func(t *testing.T) {
		w := newTestWorld(0.1)
		w.PhysicsWorld().AddObstacle(common.Vec3{Z: 6}, 4, 2)
		_, arr, st := sensorAgent(t, w, component.Sensor{MaxDistance: 4})
		NewSensorSystem().Update(w)
		if arr.HasHit || st.CurrentSpeed != st.BaseSpeed {
			t.Fatalf("short probe should miss, got %+v speed=%v", arr.Hit, st.CurrentSpeed)
		}
	})

	t.Run("miss_restores_base_speed", func(t *testing.T) {
		w := newTestWorld(0.1)
		_, arr, st := sensorAgent(t, w, component.Sensor{})
		st.CurrentSpeed = 0
		NewSensorSystem().Update(w)
		if arr.HasHit || st.CurrentSpeed != 4 {
			t.Fatalf("expected base speed with no obstacle, got %v", st.CurrentSpeed)
		}
	})

	t.Run("sees_other_vehicles_not_itself", func(t *testing.T) {
		w := newTestWorld(0.1)
		e, arr, st := sensorAgent(t, w, component.Sensor{})
		w.PhysicsWorld().AddVehicle(e, common.Vec3{}, 1)
		other := ecs.CreateEntity(w)
		w.PhysicsWorld().AddVehicle(other, common.Vec3{Z: 9}, 1)
		NewSensorSystem().Update(w)
		if !arr.HasHit || math.Abs(arr.Hit.Distance-8) > 1e-6 {
			t.Fatalf("expected hit on the other vehicle at 8, got %+v", arr.Hit)
		}
		if math.Abs(st.CurrentSpeed-3.2) > 1e-6 {
			t.Fatalf("expected speed 3.2, got %v", st.CurrentSpeed)
		}
	})

	t.Run("suspended_skipped", func(t *testing.T) {
		w := newTestWorld(0.1)
		w.PhysicsWorld().AddObstacle(common.Vec3{Z: 6}, 4, 2)
		e, arr, _ := sensorAgent(t, w, component.Sensor{})
		if err := Wait(w, e, 1); err != nil {
			t.Fatal(err)
		}
		NewSensorSystem().Update(w)
		if arr.HasHit {
			t.Fatalf("suspended vehicle should not sense")
		}
	})
}
