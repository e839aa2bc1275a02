package system

import (
	"errors"
	"fmt"

	"github.com/milk9111/busline/ecs"
	"github.com/milk9111/busline/ecs/component"
	"github.com/milk9111/busline/waypoint"
)

var (
	ErrNotAtIntersection = errors.New("system: vehicle is not heading to an intersection")
	ErrMissingLink       = errors.New("system: intersection has no link in that direction")
	ErrNoNavigator       = errors.New("system: entity has no navigator")
	ErrHalted            = errors.New("system: navigator is halted")
)

// Command is a discrete intersection resolution sent by the presentation layer.
type Command int

const (
	CommandLeft Command = iota
	CommandRight
	CommandStop
	CommandForward
)

func (c Command) String() string {
	switch c {
	case CommandLeft:
		return "left"
	case CommandRight:
		return "right"
	case CommandStop:
		return "stop"
	default:
		return "forward"
	}
}

// ChoicePayload is the data of intersection.choice events.
type ChoicePayload struct {
	Node    waypoint.ID
	Command Command
	Next    waypoint.ID
	Player  bool
}

// resolveLink maps a command to the link it takes. Stop shares the right-hand
// link with Right.
func resolveLink(in *waypoint.Intersection, node *waypoint.Node, cmd Command) waypoint.ID {
	switch cmd {
	case CommandLeft:
		return in.Left
	case CommandRight, CommandStop:
		return in.Right
	default:
		return node.Next
	}
}

// ResolveIntersection applies a turn command to e's navigator. It is rejected
// without side effects when the navigator is not heading to an intersection or
// the chosen link is unset. On success the QTE buttons are hidden.
func ResolveIntersection(w *ecs.World, g *waypoint.Graph, presenter Presenter, e ecs.Entity, cmd Command) error {
	nav, ok := ecs.Get(w, e, component.NavigatorComponent.Kind())
	if !ok {
		return fmt.Errorf("resolve %s for %s: %w", cmd, e, ErrNoNavigator)
	}
	if nav.Halted {
		return fmt.Errorf("resolve %s for %s: %w", cmd, e, ErrHalted)
	}
	node, ok := g.Node(nav.Current)
	if !ok || node.Intersection == nil {
		w.Emit(ecs.EventIntersectionSkip, e, ChoicePayload{Node: nav.Current, Command: cmd, Player: true})
		return fmt.Errorf("resolve %s for %s: %w", cmd, e, ErrNotAtIntersection)
	}
	next := resolveLink(node.Intersection, node, cmd)
	if next == waypoint.None || !g.Has(next) {
		w.Emit(ecs.EventIntersectionSkip, e, ChoicePayload{Node: node.ID, Command: cmd, Player: true})
		return fmt.Errorf("resolve %s at %q: %w", cmd, node.Name, ErrMissingLink)
	}

	nav.Next = next
	nav.IntersectionPending = true
	nav.Backward = false
	w.Emit(ecs.EventIntersectionChoice, e, ChoicePayload{Node: node.ID, Command: cmd, Next: next, Player: true})

	if pc, ok := ecs.Get(w, e, component.PlayerControlComponent.Kind()); ok {
		hideQTE(w, presenter, e, pc)
	}
	return nil
}

// Wait suspends e's movement for seconds of simulated time, counted from the
// next tick that has not started. A newer call replaces the running suspension.
func Wait(w *ecs.World, e ecs.Entity, seconds float64) error {
	if !ecs.IsAlive(w, e) {
		return fmt.Errorf("wait %s: %w", e, component.ErrEntityNotAlive)
	}
	if seconds <= 0 {
		ecs.Remove(w, e, component.SuspensionComponent.Kind())
		return nil
	}
	clock := w.Clock()
	resume := clock.Pending() + clock.TicksFor(seconds)
	w.Emit(ecs.EventWait, e, seconds)
	return ecs.Add(w, e, component.SuspensionComponent.Kind(), &component.Suspension{ResumeTick: resume})
}

// Suspended reports whether e is inside a Wait.
func Suspended(w *ecs.World, e ecs.Entity) bool {
	return ecs.Has(w, e, component.SuspensionComponent.Kind())
}
