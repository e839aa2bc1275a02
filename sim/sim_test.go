package sim

import (
	"errors"
	"testing"

	"github.com/milk9111/busline/common"
	"github.com/milk9111/busline/ecs"
	"github.com/milk9111/busline/ecs/component"
	"github.com/milk9111/busline/logging"
	"github.com/milk9111/busline/prefabs"
	"github.com/milk9111/busline/route"
	"github.com/milk9111/busline/waypoint"
)

type recordingPresenter struct {
	shown  []component.ButtonSet
	hidden int
}

func (p *recordingPresenter) ShowButtons(_ ecs.Entity, _ waypoint.ID, b component.ButtonSet) {
	p.shown = append(p.shown, b)
}

func (p *recordingPresenter) HideButtons(ecs.Entity) {
	p.hidden++
}

func bareConfig() Config {
	return Config{
		Name:     "test",
		TickRate: 10,
		Seed:     3,
		Level:    "inline",
		Routes:   prefabs.RoutesSpec{Names: []string{"red", "blue"}, Difficulty: 50},
	}
}

func chainGraph(t *testing.T) *waypoint.Graph {
	t.Helper()
	g := waypoint.New()
	var prev waypoint.ID
	for i, name := range []string{"A", "B", "C"} {
		id := g.Add(waypoint.Node{Name: name, Position: common.Vec3{Z: float64(i) * 10}, Width: waypoint.MinWidth})
		if i > 0 {
			if err := g.Connect(prev, id); err != nil {
				t.Fatal(err)
			}
		}
		prev = id
	}
	return g
}

// stopGraph is A -> I -> C with a stop intersection at I whose right link is R.
func stopGraph(t *testing.T) *waypoint.Graph {
	t.Helper()
	g := waypoint.New()
	a := g.Add(waypoint.Node{Name: "A", Width: 1})
	i := g.Add(waypoint.Node{Name: "I", Position: common.Vec3{Z: 10}, Width: 1})
	c := g.Add(waypoint.Node{Name: "C", Position: common.Vec3{Z: 20}, Width: 1})
	r := g.Add(waypoint.Node{Name: "R", Position: common.Vec3{X: 10, Z: 10}, Width: 1})
	for _, link := range [][2]waypoint.ID{{a, i}, {i, c}} {
		if err := g.Connect(link[0], link[1]); err != nil {
			t.Fatal(err)
		}
	}
	if err := g.SetTurns(i, waypoint.KindStop, waypoint.None, r); err != nil {
		t.Fatal(err)
	}
	return g
}

func TestNewErrors(t *testing.T) {
	t.Run("invalid_config", func(t *testing.T) {
		cfg := bareConfig()
		cfg.TickRate = 0
		if _, err := New(cfg, WithGraph(chainGraph(t))); !errors.Is(err, prefabs.ErrInvalidSpec) {
			t.Fatalf("expected ErrInvalidSpec, got %v", err)
		}
	})

	t.Run("unknown_player_start", func(t *testing.T) {
		cfg := bareConfig()
		cfg.Player = prefabs.PlayerSpec{Prefab: "player_bus.yaml", Start: "Z"}
		if _, err := New(cfg, WithGraph(chainGraph(t)), WithLogger(logging.Discard())); !errors.Is(err, waypoint.ErrUnknownNode) {
			t.Fatalf("expected ErrUnknownNode, got %v", err)
		}
	})

	t.Run("unknown_level", func(t *testing.T) {
		cfg := bareConfig()
		cfg.Level = "does-not-exist"
		if _, err := New(cfg, WithLogger(logging.Discard())); err == nil {
			t.Fatalf("expected a level load error")
		}
	})
}

func TestChainEndToEnd(t *testing.T) {
	s, err := New(bareConfig(), WithGraph(chainGraph(t)), WithLogger(logging.Discard()))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	a, _ := s.Graph().Lookup("A")
	bus, err := s.SpawnVehicle("bus", a)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	for i := 0; i < 300 && !s.Log().HasEntry("navigation", "reversed", ""); i++ {
		s.Step()
	}
	arrivals := s.Log().Filter("navigation", "arrived")
	if len(arrivals) < 2 {
		t.Fatalf("expected two arrivals, log:\n%s", s.Log().Format())
	}
	if arrivals[0].Value != "A -> B" || arrivals[1].Value != "B -> C" {
		t.Fatalf("unexpected arrival order %q, %q", arrivals[0].Value, arrivals[1].Value)
	}
	if !s.Log().HasEntry("navigation", "reversed", "C -> B") {
		t.Fatalf("expected reversal at C, log:\n%s", s.Log().Format())
	}
	nav, _ := s.Navigator(bus)
	b, _ := s.Graph().Lookup("B")
	if nav.Current != b || !nav.Backward {
		t.Fatalf("expected to head back to B, got %+v", nav)
	}
}

func TestPlayerStopsAtIntersection(t *testing.T) {
	cfg := bareConfig()
	cfg.Player = prefabs.PlayerSpec{Prefab: "player_bus.yaml", Start: "A"}
	p := &recordingPresenter{}
	s, err := New(cfg, WithGraph(stopGraph(t)), WithPresenter(p), WithLogger(logging.Discard()))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	player, ok := s.Player()
	if !ok {
		t.Fatalf("expected a player vehicle")
	}

	for i := 0; i < 100 && len(p.shown) == 0; i++ {
		s.Step()
	}
	if len(p.shown) != 1 || !p.shown[0].Has(component.ButtonStop) || p.shown[0].Has(component.ButtonLeft) {
		t.Fatalf("expected Stop only, got %v", p.shown)
	}
	if err := s.TurnLeft(player); err == nil {
		t.Fatalf("left has no link at this stop")
	}
	if err := s.Stop(player); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if p.hidden != 1 {
		t.Fatalf("expected buttons hidden after the choice, got %d", p.hidden)
	}

	r, _ := s.Graph().Lookup("R")
	nav, _ := s.Navigator(player)
	for i := 0; i < 200 && nav.Current != r; i++ {
		s.Step()
	}
	if nav.Current != r {
		t.Fatalf("expected the player to take the stop link, at %d", nav.Current)
	}
	if !s.Log().HasEntry("intersection", "choice", "player stop") {
		t.Fatalf("choice not logged:\n%s", s.Log().Format())
	}
	if s.Log().CountCategory("intersection", "rejected") != 1 {
		t.Fatalf("expected the left command to be logged as rejected")
	}
}

func TestWaitHoldsVehicle(t *testing.T) {
	s, err := New(bareConfig(), WithGraph(chainGraph(t)), WithLogger(logging.Discard()))
	if err != nil {
		t.Fatal(err)
	}
	a, _ := s.Graph().Lookup("A")
	bus, err := s.SpawnVehicle("bus", a)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		s.Step()
	}
	if err := s.Wait(bus, 1); err != nil {
		t.Fatal(err)
	}
	tr, _ := s.Transform(bus)
	held := tr.Position
	for i := 0; i < 9; i++ {
		s.Step()
		if state, _ := s.State(bus); state != component.StateWaiting {
			t.Fatalf("tick %d: expected waiting, got %v", s.Tick(), state)
		}
	}
	if tr.Position != held {
		t.Fatalf("vehicle moved while waiting")
	}
	s.Step()
	s.Step()
	if tr.Position == held {
		t.Fatalf("vehicle did not resume after the wait")
	}
}

func TestDespawn(t *testing.T) {
	s, err := New(bareConfig(), WithGraph(chainGraph(t)), WithLogger(logging.Discard()))
	if err != nil {
		t.Fatal(err)
	}
	a, _ := s.Graph().Lookup("A")
	bus, err := s.SpawnVehicle("bus", a)
	if err != nil {
		t.Fatal(err)
	}
	s.Step()
	if len(s.Vehicles()) != 1 || !s.World().PhysicsWorld().HasVehicle(bus) {
		t.Fatalf("expected one registered vehicle")
	}
	if err := s.Despawn(bus); err != nil {
		t.Fatalf("despawn: %v", err)
	}
	if len(s.Vehicles()) != 0 || s.World().PhysicsWorld().HasVehicle(bus) {
		t.Fatalf("vehicle still present after despawn")
	}
	if s.Graph().Len() != 3 {
		t.Fatalf("despawn must not touch the graph")
	}
	if err := s.Despawn(bus); !errors.Is(err, component.ErrEntityNotAlive) {
		t.Fatalf("expected ErrEntityNotAlive, got %v", err)
	}
	s.Step()
	if s.Log().CountCategory("vehicle", "despawned") != 1 {
		t.Fatalf("despawn not logged")
	}
}

func TestSetDestination(t *testing.T) {
	s, err := New(bareConfig(), WithGraph(chainGraph(t)), WithLogger(logging.Discard()))
	if err != nil {
		t.Fatal(err)
	}
	a, _ := s.Graph().Lookup("A")
	bus, _ := s.SpawnVehicle("bus", a)
	target := common.Vec3{X: 5, Z: 5}
	if err := s.SetDestination(bus, target); err != nil {
		t.Fatal(err)
	}
	st, _ := s.Steering(bus)
	if st.Target != target || st.Reached {
		t.Fatalf("expected new target, got %+v", st)
	}
	if err := s.SetDestination(ecs.Entity(0), target); err == nil {
		t.Fatalf("expected an error for an entity without steering")
	}
}

func TestDemoRun(t *testing.T) {
	cfg, err := prefabs.LoadSimSpec("sim")
	if err != nil {
		t.Fatalf("load sim spec: %v", err)
	}
	s, err := New(cfg, WithLogger(logging.Discard()))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if len(s.Checkpoints()) != 2 {
		t.Fatalf("expected 2 checkpoints, got %d", len(s.Checkpoints()))
	}
	if _, ok := s.Player(); !ok {
		t.Fatalf("expected the configured player")
	}

	for i := 0; i < 600; i++ {
		s.Step()
	}
	if s.Log().CountCategory("vehicle", "spawned") < 2 {
		t.Fatalf("spawner never ran:\n%s", s.Log().Format())
	}
	if n := s.Log().CountCategory("navigation", "fault"); n != 0 {
		t.Fatalf("unexpected faults: %d", n)
	}
	for _, e := range s.Vehicles() {
		nav, _ := s.Navigator(e)
		if !nav.Halted && !s.Graph().Has(nav.Current) {
			t.Fatalf("%s points outside the graph", e)
		}
	}
}

func TestSameSeedSameRun(t *testing.T) {
	cfg, err := prefabs.LoadSimSpec("sim")
	if err != nil {
		t.Fatal(err)
	}
	run := func() string {
		s, err := New(cfg, WithSeed(99), WithLogger(logging.Discard()))
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 300; i++ {
			s.Step()
		}
		return s.Log().Format()
	}
	if a, b := run(), run(); a != b {
		t.Fatalf("runs with the same seed diverged")
	}
}

func TestResetRoutes(t *testing.T) {
	cfg, err := prefabs.LoadSimSpec("sim")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Player = prefabs.PlayerSpec{}
	sel, err := route.NewSelector([]string{"only"}, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	s, err := New(cfg, WithRouteSelector(sel), WithLogger(logging.Discard()))
	if err != nil {
		t.Fatal(err)
	}
	s.ResetRoutes()
	for _, e := range s.Checkpoints() {
		cp, _ := ecs.Get(s.World(), e, component.CheckpointComponent.Kind())
		if cp.Route.Name != "only" || len(cp.Inside) != 0 {
			t.Fatalf("unexpected checkpoint after reset %+v", cp)
		}
	}
}

// turnGraph is A -> I -> C with a normal intersection at I whose left link is L.
func turnGraph(t *testing.T) *waypoint.Graph {
	t.Helper()
	g := waypoint.New()
	a := g.Add(waypoint.Node{Name: "A", Width: 1})
	i := g.Add(waypoint.Node{Name: "I", Position: common.Vec3{Z: 10}, Width: 1})
	c := g.Add(waypoint.Node{Name: "C", Position: common.Vec3{Z: 20}, Width: 1})
	l := g.Add(waypoint.Node{Name: "L", Position: common.Vec3{X: -10, Z: 10}, Width: 1})
	for _, link := range [][2]waypoint.ID{{a, i}, {i, c}} {
		if err := g.Connect(link[0], link[1]); err != nil {
			t.Fatal(err)
		}
	}
	if err := g.SetTurns(i, waypoint.KindNormal, l, waypoint.None); err != nil {
		t.Fatal(err)
	}
	return g
}

func TestAutonomousTurnShare(t *testing.T) {
	const cars = 1000
	cases := []struct {
		prefab           string
		minLeft, maxLeft float64
	}{
		{"car.yaml", 0.45, 0.55},
		// the shipped script keeps most traffic going straight
		{"car_scripted.yaml", 0.05, 0.35},
	}
	for _, c := range cases {
		t.Run(c.prefab, func(t *testing.T) {
			s, err := New(bareConfig(), WithGraph(turnGraph(t)), WithLogger(logging.Discard()))
			if err != nil {
				t.Fatalf("new: %v", err)
			}
			a, _ := s.Graph().Lookup("A")
			for i := 0; i < cars; i++ {
				if _, err := s.SpawnVehicle(c.prefab, a); err != nil {
					t.Fatalf("spawn: %v", err)
				}
			}
			for i := 0; i < 5 && s.Log().CountCategory("intersection", "choice") < cars; i++ {
				s.Step()
			}

			choices := s.Log().Filter("intersection", "choice")
			if len(choices) != cars {
				t.Fatalf("expected %d choices, got %d", cars, len(choices))
			}
			left, forward := 0, 0
			for _, e := range choices {
				switch e.Value {
				case "auto left at I -> L":
					left++
				case "auto forward at I -> C":
					forward++
				default:
					t.Fatalf("unexpected choice %q", e.Value)
				}
			}
			share := float64(left) / cars
			if share < c.minLeft || share > c.maxLeft {
				t.Fatalf("left share %.3f outside [%.2f, %.2f] (left=%d forward=%d)", share, c.minLeft, c.maxLeft, left, forward)
			}
		})
	}
}
