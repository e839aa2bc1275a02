package system

import (
	"math"
	"testing"

	"github.com/milk9111/busline/common"
	"github.com/milk9111/busline/ecs"
	"github.com/milk9111/busline/ecs/component"
)

func TestSteerArrival(t *testing.T) {
	st := &component.Steering{BaseSpeed: 5, CurrentSpeed: 5, RotationSpeed: 10, StoppingDistance: 0.5}
	tr := &component.Transform{}
	st.SetDestination(common.Vec3{X: 10})

	for i := 0; i < 100 && !st.Reached; i++ {
		Steer(st, tr, 0.1)
	}
	if !st.Reached {
		t.Fatalf("expected to reach the target, at %+v", tr.Position)
	}
	if d := tr.Position.FlatDistance(st.Target); d > st.StoppingDistance {
		t.Fatalf("stopped %v away, stopping distance is %v", d, st.StoppingDistance)
	}
}

func TestSteerIgnoresHeight(t *testing.T) {
	st := &component.Steering{CurrentSpeed: 5, StoppingDistance: 0.5}
	tr := &component.Transform{}
	st.SetDestination(common.Vec3{Y: 30})
	Steer(st, tr, 0.1)
	if !st.Reached || tr.Position != (common.Vec3{}) {
		t.Fatalf("a target straight above should count as reached, got %+v", tr.Position)
	}
}

func TestStalledVehicleNeverReaches(t *testing.T) {
	st := &component.Steering{BaseSpeed: 5, CurrentSpeed: 0, StoppingDistance: 0.5}
	tr := &component.Transform{}
	st.SetDestination(common.Vec3{Z: 10})
	for i := 0; i < 200; i++ {
		Steer(st, tr, 0.1)
	}
	if st.Reached || tr.Position != (common.Vec3{}) {
		t.Fatalf("braked vehicle must hold position unreached, got reached=%v at %+v", st.Reached, tr.Position)
	}
}

func TestSteerTurnsTowardTarget(t *testing.T) {
	st := &component.Steering{CurrentSpeed: 1, RotationSpeed: 10, StoppingDistance: 0.1}
	tr := &component.Transform{}
	st.SetDestination(common.Vec3{X: 100})

	prev := math.Abs(common.DeltaAngle(tr.Yaw, math.Pi/2))
	for i := 0; i < 20; i++ {
		Steer(st, tr, 0.1)
		gap := math.Abs(common.DeltaAngle(tr.Yaw, math.Pi/2))
		if gap > prev+1e-12 {
			t.Fatalf("heading moved away from the target at step %d", i)
		}
		prev = gap
	}
	if prev > 0.5 {
		t.Fatalf("expected heading close to +X after 20 steps, gap %v", prev)
	}
}

func TestSteeringSystemRespectsWait(t *testing.T) {
	w := newTestWorld(0.1)
	e := ecs.CreateEntity(w)
	st := &component.Steering{CurrentSpeed: 5, StoppingDistance: 0.5}
	st.SetDestination(common.Vec3{Z: 10})
	tr := &component.Transform{}
	_ = ecs.Add(w, e, component.SteeringComponent.Kind(), st)
	_ = ecs.Add(w, e, component.TransformComponent.Kind(), tr)

	sched := ecs.NewScheduler(NewSuspensionSystem(), NewSteeringSystem())
	if err := Wait(w, e, 1); err != nil {
		t.Fatal(err)
	}
	target := st.Target
	for i := 0; i < 9; i++ {
		sched.Update(w)
	}
	if tr.Position != (common.Vec3{}) || st.Target != target {
		t.Fatalf("vehicle moved or lost its target while waiting: %+v", tr.Position)
	}

	// a newer, shorter wait replaces the running one
	if err := Wait(w, e, 0.1); err != nil {
		t.Fatal(err)
	}
	sched.Update(w)
	sched.Update(w)
	if tr.Position == (common.Vec3{}) {
		t.Fatalf("expected movement once the wait expired")
	}
	if Suspended(w, e) {
		t.Fatalf("suspension should be lifted")
	}
}
