package system

import (
	"errors"
	"testing"

	"github.com/milk9111/busline/ecs"
	"github.com/milk9111/busline/ecs/component"
	"github.com/milk9111/busline/waypoint"
)

func TestResolveIntersection(t *testing.T) {
	t.Run("stop_takes_right_link", func(t *testing.T) {
		g, n := turnGraph(t, waypoint.KindStop)
		w := newTestWorld(0.1)
		e, nav, st := addAgent(t, w, g, n["I"], component.DriverPlayer)
		if err := ResolveIntersection(w, g, nil, e, CommandStop); err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if nav.Next != n["R"] || !nav.IntersectionPending {
			t.Fatalf("expected pending move to R, got next=%d pending=%v", nav.Next, nav.IntersectionPending)
		}
		arrive(w, newNav(g, 1), st)
		if nav.Current != n["R"] {
			t.Fatalf("expected to take the stop link, got %d", nav.Current)
		}
	})

	t.Run("left_clears_backward", func(t *testing.T) {
		g, n := turnGraph(t, waypoint.KindNormal)
		w := newTestWorld(0.1)
		e, nav, _ := addAgent(t, w, g, n["I"], component.DriverPlayer)
		nav.Backward = true
		if err := ResolveIntersection(w, g, nil, e, CommandLeft); err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if nav.Next != n["L"] || nav.Backward {
			t.Fatalf("expected forward move to L, got next=%d backward=%v", nav.Next, nav.Backward)
		}
		if got := eventsOf(w, ecs.EventIntersectionChoice); len(got) != 1 {
			t.Fatalf("expected one choice event, got %d", len(got))
		}
	})

	t.Run("hides_qte", func(t *testing.T) {
		g, n := turnGraph(t, waypoint.KindStop)
		w := newTestWorld(0.1)
		e, _, _ := addAgent(t, w, g, n["I"], component.DriverPlayer)
		pc := &component.PlayerControl{QTEDistance: 12}
		_ = ecs.Add(w, e, component.PlayerControlComponent.Kind(), pc)
		p := &recordingPresenter{}
		s := newNav(g, 2)
		s.SetPresenter(p)
		s.Update(w)

		if err := ResolveIntersection(w, g, p, e, CommandStop); err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if pc.Visible || len(p.calls) != 2 || p.calls[1].show {
			t.Fatalf("expected buttons hidden after a choice, got %+v", p.calls)
		}
		s.Update(w)
		if len(p.calls) != 2 {
			t.Fatalf("QTE reopened after a choice: %+v", p.calls)
		}
	})

	errCases := []struct {
		name  string
		kind  waypoint.Kind
		at    string
		cmd   Command
		setup func(nav *component.Navigator)
		want  error
	}{
		{"not_at_intersection", waypoint.KindNormal, "A", CommandLeft, nil, ErrNotAtIntersection},
		{"missing_right", waypoint.KindNormal, "I", CommandRight, nil, ErrMissingLink},
		{"halted", waypoint.KindNormal, "I", CommandLeft, func(nav *component.Navigator) { nav.Halted = true }, ErrHalted},
	}
	for _, c := range errCases {
		t.Run(c.name, func(t *testing.T) {
			g, n := turnGraph(t, c.kind)
			w := newTestWorld(0.1)
			e, nav, _ := addAgent(t, w, g, n[c.at], component.DriverPlayer)
			if c.setup != nil {
				c.setup(nav)
			}
			before := *nav
			err := ResolveIntersection(w, g, nil, e, c.cmd)
			if !errors.Is(err, c.want) {
				t.Fatalf("expected %v, got %v", c.want, err)
			}
			if *nav != before {
				t.Fatalf("rejected command changed the navigator: %+v -> %+v", before, *nav)
			}
		})
	}

	t.Run("no_navigator", func(t *testing.T) {
		g, _ := turnGraph(t, waypoint.KindNormal)
		w := newTestWorld(0.1)
		e := ecs.CreateEntity(w)
		if err := ResolveIntersection(w, g, nil, e, CommandLeft); !errors.Is(err, ErrNoNavigator) {
			t.Fatalf("expected ErrNoNavigator, got %v", err)
		}
	})
}

func TestWait(t *testing.T) {
	w := newTestWorld(0.1)
	e := ecs.CreateEntity(w)
	sched := ecs.NewScheduler(NewSuspensionSystem())

	if err := Wait(w, e, 0.5); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		sched.Update(w)
		if !Suspended(w, e) {
			t.Fatalf("lifted early at tick %d", w.Clock().Tick)
		}
	}
	sched.Update(w)
	sched.Update(w)
	if Suspended(w, e) {
		t.Fatalf("expected suspension lifted after 0.5s")
	}

	t.Run("from_inside_a_tick", func(t *testing.T) {
		w := newTestWorld(0.1)
		e := ecs.CreateEntity(w)
		gated := 0
		sched := ecs.NewScheduler(
			NewSuspensionSystem(),
			ecs.SystemFunc(func(w *ecs.World) {
				if Suspended(w, e) {
					gated++
				}
			}),
			ecs.SystemFunc(func(w *ecs.World) {
				if w.Clock().Tick == 0 {
					_ = Wait(w, e, 1.0)
				}
			}),
		)
		for i := 0; i < 20; i++ {
			sched.Update(w)
		}
		if gated != 10 {
			t.Fatalf("expected a 1s wait at dt 0.1 to gate 10 ticks, got %d", gated)
		}
	})

	t.Run("zero_cancels", func(t *testing.T) {
		_ = Wait(w, e, 10)
		if err := Wait(w, e, 0); err != nil {
			t.Fatal(err)
		}
		if Suspended(w, e) {
			t.Fatalf("a zero wait should cancel the suspension")
		}
	})

	t.Run("dead_entity", func(t *testing.T) {
		dead := ecs.CreateEntity(w)
		ecs.DestroyEntity(w, dead)
		if err := Wait(w, dead, 1); !errors.Is(err, component.ErrEntityNotAlive) {
			t.Fatalf("expected ErrEntityNotAlive, got %v", err)
		}
	})
}
