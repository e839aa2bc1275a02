package component

import "github.com/milk9111/busline/waypoint"

type DriverKind int

const (
	DriverAutonomous DriverKind = iota
	DriverPlayer
)

func (d DriverKind) String() string {
	if d == DriverPlayer {
		return "player"
	}
	return "autonomous"
}

type NavState int

const (
	StateTravelling NavState = iota
	StateIntersectionPending
	StateWaiting
	StateHalted
)

func (s NavState) String() string {
	switch s {
	case StateIntersectionPending:
		return "intersection_pending"
	case StateWaiting:
		return "waiting"
	case StateHalted:
		return "halted"
	default:
		return "travelling"
	}
}

// Navigator is a vehicle's cursor into the waypoint graph. Current is the node
// being driven to; Next is only set while an intersection choice is pending.
type Navigator struct {
	Current             waypoint.ID
	Next                waypoint.ID
	Backward            bool
	IntersectionPending bool
	Halted              bool
	Driver              DriverKind
}

// State derives the traversal state. Halted wins over everything, then a
// running suspension, then a pending intersection choice.
func (n *Navigator) State(suspended bool) NavState {
	switch {
	case n.Halted:
		return StateHalted
	case suspended:
		return StateWaiting
	case n.IntersectionPending:
		return StateIntersectionPending
	default:
		return StateTravelling
	}
}

var NavigatorComponent = NewComponent[Navigator]("navigator")
