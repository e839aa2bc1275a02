package component

import (
	"strings"

	"github.com/milk9111/busline/waypoint"
)

type Button uint8

const (
	ButtonLeft Button = 1 << iota
	ButtonRight
	ButtonStop
)

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	case ButtonStop:
		return "stop"
	default:
		return "none"
	}
}

// ButtonSet is the subset of QTE buttons currently offered.
type ButtonSet uint8

func (s ButtonSet) Has(b Button) bool {
	return s&ButtonSet(b) != 0
}

func (s ButtonSet) With(b Button) ButtonSet {
	return s | ButtonSet(b)
}

func (s ButtonSet) Buttons() []Button {
	var out []Button
	for _, b := range []Button{ButtonLeft, ButtonRight, ButtonStop} {
		if s.Has(b) {
			out = append(out, b)
		}
	}
	return out
}

func (s ButtonSet) String() string {
	names := make([]string, 0, 3)
	for _, b := range s.Buttons() {
		names = append(names, b.String())
	}
	return "{" + strings.Join(names, ",") + "}"
}

// PlayerControl marks the vehicle the presentation layer drives. Visible and
// Buttons mirror what was last sent to the presenter.
type PlayerControl struct {
	QTEDistance float64

	Visible bool
	Buttons ButtonSet
	Node    waypoint.ID
}

var PlayerControlComponent = NewComponent[PlayerControl]("player_control")
