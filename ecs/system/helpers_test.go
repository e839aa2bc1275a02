package system

import (
	"math/rand/v2"
	"testing"

	"github.com/milk9111/busline/common"
	"github.com/milk9111/busline/ecs"
	"github.com/milk9111/busline/ecs/component"
	"github.com/milk9111/busline/logging"
	"github.com/milk9111/busline/waypoint"
)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed+1))
}

func newTestWorld(dt float64) *ecs.World {
	w := ecs.NewWorld()
	w.SetTimestep(dt)
	w.SetPhysicsWorld(ecs.NewPhysicsWorld())
	return w
}

// line builds a linked chain of nodes 10 units apart along +Z.
func line(t *testing.T, names ...string) (*waypoint.Graph, []waypoint.ID) {
	t.Helper()
	g := waypoint.New()
	ids := make([]waypoint.ID, 0, len(names))
	for i, name := range names {
		id := g.Add(waypoint.Node{Name: name, Position: common.Vec3{Z: float64(i) * 10}, Width: waypoint.MinWidth})
		if i > 0 {
			if err := g.Connect(ids[i-1], id); err != nil {
				t.Fatalf("connect: %v", err)
			}
		}
		ids = append(ids, id)
	}
	return g, ids
}

func addAgent(t *testing.T, w *ecs.World, g *waypoint.Graph, node waypoint.ID, driver component.DriverKind) (ecs.Entity, *component.Navigator, *component.Steering) {
	t.Helper()
	n, ok := g.Node(node)
	if !ok {
		t.Fatalf("unknown node %d", node)
	}
	e := ecs.CreateEntity(w)
	nav := &component.Navigator{Current: node, Driver: driver}
	st := &component.Steering{BaseSpeed: 5, CurrentSpeed: 5, RotationSpeed: 20, StoppingDistance: 0.5}
	st.SetDestination(n.Position)
	tr := &component.Transform{Position: n.Position.Sub(common.Vec3{Z: 5})}
	for _, err := range []error{
		ecs.Add(w, e, component.NavigatorComponent.Kind(), nav),
		ecs.Add(w, e, component.SteeringComponent.Kind(), st),
		ecs.Add(w, e, component.TransformComponent.Kind(), tr),
	} {
		if err != nil {
			t.Fatalf("add component: %v", err)
		}
	}
	return e, nav, st
}

func newNav(g *waypoint.Graph, seed uint64) *NavigationSystem {
	return NewNavigationSystem(g, seeded(seed), logging.Discard())
}

// arrive marks the agent as having reached its target and runs navigation once.
func arrive(w *ecs.World, s *NavigationSystem, st *component.Steering) {
	st.Reached = true
	s.Update(w)
}

func eventsOf(w *ecs.World, typ string) []ecs.Event {
	var out []ecs.Event
	for _, ev := range w.Events().Drain() {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

type call struct {
	show    bool
	node    waypoint.ID
	buttons component.ButtonSet
}

type recordingPresenter struct {
	calls []call
}

func (p *recordingPresenter) ShowButtons(_ ecs.Entity, node waypoint.ID, buttons component.ButtonSet) {
	p.calls = append(p.calls, call{show: true, node: node, buttons: buttons})
}

func (p *recordingPresenter) HideButtons(ecs.Entity) {
	p.calls = append(p.calls, call{})
}
