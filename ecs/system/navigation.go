package system

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/milk9111/busline/ecs"
	"github.com/milk9111/busline/ecs/component"
	"github.com/milk9111/busline/logging"
	"github.com/milk9111/busline/waypoint"
)

// TurnPolicy picks a turn for an autonomous vehicle carrying an
// IntersectionPolicy. Returning an option outside options, or an error, falls
// back to a uniform choice.
type TurnPolicy interface {
	Choose(w *ecs.World, e ecs.Entity, script string, node *waypoint.Node, options []Command) (Command, error)
}

// NavigationSystem walks every navigator through the waypoint graph: it picks
// the next node on arrival, makes autonomous intersection choices and drives
// the player's QTE window.
type NavigationSystem struct {
	graph     *waypoint.Graph
	rng       *rand.Rand
	presenter Presenter
	policy    TurnPolicy
	logger    *slog.Logger
}

// NavigationPayload is the data of arrival, branch, reversal and halt events.
type NavigationPayload struct {
	From waypoint.ID
	To   waypoint.ID
}

func NewNavigationSystem(graph *waypoint.Graph, rng *rand.Rand, logger *slog.Logger) *NavigationSystem {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &NavigationSystem{graph: graph, rng: rng, logger: logging.OrDefault(logger)}
}

func (s *NavigationSystem) SetPresenter(p Presenter) {
	s.presenter = p
}

func (s *NavigationSystem) Presenter() Presenter {
	return s.presenter
}

func (s *NavigationSystem) SetPolicy(p TurnPolicy) {
	s.policy = p
}

func (s *NavigationSystem) Update(w *ecs.World) {
	if w == nil || s.graph == nil {
		return
	}
	ecs.ForEach2(w, component.NavigatorComponent.Kind(), component.SteeringComponent.Kind(), func(e ecs.Entity, nav *component.Navigator, st *component.Steering) {
		s.step(w, e, nav, st)
	})
}

// step runs one vehicle. A panic is confined to that vehicle, which is halted.
func (s *NavigationSystem) step(w *ecs.World, e ecs.Entity, nav *component.Navigator, st *component.Steering) {
	defer func() {
		if r := recover(); r != nil {
			nav.Halted = true
			s.logger.Error("navigation fault, vehicle halted", "entity", e.String(), "panic", fmt.Sprint(r))
			w.Emit(ecs.EventFault, e, fmt.Sprint(r))
		}
	}()

	if nav.Halted {
		return
	}
	if !s.graph.Has(nav.Current) {
		s.halt(w, e, nav)
		return
	}
	if !st.HasTarget {
		st.SetDestination(s.graph.SamplePosition(nav.Current, s.rng))
	} else if st.Reached {
		s.arrive(w, e, nav, st)
		if nav.Halted {
			return
		}
	}

	if nav.Driver == component.DriverAutonomous {
		s.decide(w, e, nav)
	}
	if pc, ok := ecs.Get(w, e, component.PlayerControlComponent.Kind()); ok {
		s.updateQTE(w, e, nav, st, pc)
	}
}

// arrive advances the cursor after the vehicle reached Current.
func (s *NavigationSystem) arrive(w *ecs.World, e ecs.Entity, nav *component.Navigator, st *component.Steering) {
	from := nav.Current

	if nav.IntersectionPending {
		nav.Current = nav.Next
		nav.Next = waypoint.None
		nav.IntersectionPending = false
		if !s.graph.Has(nav.Current) {
			s.halt(w, e, nav)
			return
		}
		st.SetDestination(s.graph.SamplePosition(nav.Current, s.rng))
		w.Emit(ecs.EventArrived, e, NavigationPayload{From: from, To: nav.Current})
		return
	}

	candidate := s.follow(from, nav.Backward)
	if branches := s.graph.Branches(from); len(branches) > 0 {
		node, _ := s.graph.Node(from)
		if s.rng.Float64() < node.BranchRatio {
			candidate = branches[s.rng.IntN(len(branches))]
			w.Emit(ecs.EventBranched, e, NavigationPayload{From: from, To: candidate})
		}
	}
	if candidate == waypoint.None {
		nav.Backward = !nav.Backward
		candidate = s.follow(from, nav.Backward)
		w.Emit(ecs.EventReversed, e, NavigationPayload{From: from, To: candidate})
	}
	if candidate == waypoint.None || !s.graph.Has(candidate) {
		s.halt(w, e, nav)
		return
	}

	nav.Current = candidate
	st.SetDestination(s.graph.SamplePosition(candidate, s.rng))
	w.Emit(ecs.EventArrived, e, NavigationPayload{From: from, To: candidate})
}

func (s *NavigationSystem) follow(id waypoint.ID, backward bool) waypoint.ID {
	if backward {
		return s.graph.Prev(id)
	}
	return s.graph.Next(id)
}

func (s *NavigationSystem) halt(w *ecs.World, e ecs.Entity, nav *component.Navigator) {
	if nav.Halted {
		return
	}
	nav.Halted = true
	nav.IntersectionPending = false
	nav.Next = waypoint.None
	s.logger.Warn("graph exhausted, vehicle halted", "entity", e.String(), "node", int(nav.Current))
	w.Emit(ecs.EventHalted, e, NavigationPayload{From: nav.Current})
	if pc, ok := ecs.Get(w, e, component.PlayerControlComponent.Kind()); ok {
		hideQTE(w, s.presenter, e, pc)
	}
}

// Options lists the legal autonomous directions at node.
func Options(g *waypoint.Graph, node *waypoint.Node) []Command {
	if node == nil || node.Intersection == nil {
		return nil
	}
	var out []Command
	if g.Has(node.Intersection.Left) {
		out = append(out, CommandLeft)
	}
	if g.Has(node.Intersection.Right) {
		out = append(out, CommandRight)
	}
	if g.Has(node.Next) {
		out = append(out, CommandForward)
	}
	return out
}

// decide resolves a Normal intersection for an autonomous vehicle, once per
// visit. Stop intersections wait for an external command.
func (s *NavigationSystem) decide(w *ecs.World, e ecs.Entity, nav *component.Navigator) {
	if nav.IntersectionPending {
		return
	}
	node, ok := s.graph.Node(nav.Current)
	if !ok || node.Intersection == nil || node.Intersection.Kind != waypoint.KindNormal {
		return
	}
	options := Options(s.graph, node)
	if len(options) == 0 {
		return
	}

	choice := options[s.rng.IntN(len(options))]
	if pol, ok := ecs.Get(w, e, component.IntersectionPolicyComponent.Kind()); ok && s.policy != nil && pol.Script != "" {
		picked, err := s.policy.Choose(w, e, pol.Script, node, options)
		switch {
		case err != nil:
			s.logger.Warn("intersection policy failed, choosing at random", "entity", e.String(), "script", pol.Script, "err", err)
		case !containsCommand(options, picked):
			s.logger.Warn("intersection policy returned an unavailable direction", "entity", e.String(), "script", pol.Script, "choice", picked.String())
		default:
			choice = picked
		}
	}

	nav.Next = resolveLink(node.Intersection, node, choice)
	nav.IntersectionPending = true
	nav.Backward = false
	w.Emit(ecs.EventIntersectionChoice, e, ChoicePayload{Node: node.ID, Command: choice, Next: nav.Next})
}

func containsCommand(options []Command, c Command) bool {
	for _, o := range options {
		if o == c {
			return true
		}
	}
	return false
}

// QTEButtons returns the buttons offered at node: Stop alone at a Stop
// intersection, otherwise Left and Right for the links that exist.
func QTEButtons(g *waypoint.Graph, node *waypoint.Node) component.ButtonSet {
	var set component.ButtonSet
	if node == nil || node.Intersection == nil {
		return set
	}
	if node.Intersection.Kind == waypoint.KindStop {
		return set.With(component.ButtonStop)
	}
	if g.Has(node.Intersection.Left) {
		set = set.With(component.ButtonLeft)
	}
	if g.Has(node.Intersection.Right) {
		set = set.With(component.ButtonRight)
	}
	return set
}

func (s *NavigationSystem) updateQTE(w *ecs.World, e ecs.Entity, nav *component.Navigator, st *component.Steering, pc *component.PlayerControl) {
	node, ok := s.graph.Node(nav.Current)
	if !ok || node.Intersection == nil {
		hideQTE(w, s.presenter, e, pc)
		return
	}
	if nav.Next != waypoint.None {
		return
	}
	t, ok := ecs.Get(w, e, component.TransformComponent.Kind())
	if !ok || t.Position.FlatDistance(st.Target) > pc.QTEDistance {
		return
	}
	buttons := QTEButtons(s.graph, node)
	if buttons == 0 {
		hideQTE(w, s.presenter, e, pc)
		return
	}
	if pc.Visible && pc.Buttons == buttons && pc.Node == node.ID {
		return
	}
	pc.Visible = true
	pc.Buttons = buttons
	pc.Node = node.ID
	if s.presenter != nil {
		s.presenter.ShowButtons(e, node.ID, buttons)
	}
	w.Emit(ecs.EventQTEShow, e, QTEPayload{Node: node.ID, Buttons: buttons})
}

func hideQTE(w *ecs.World, presenter Presenter, e ecs.Entity, pc *component.PlayerControl) {
	if !pc.Visible {
		return
	}
	node := pc.Node
	pc.Visible = false
	pc.Buttons = 0
	pc.Node = waypoint.None
	if presenter != nil {
		presenter.HideButtons(e)
	}
	w.Emit(ecs.EventQTEHide, e, QTEPayload{Node: node})
}
