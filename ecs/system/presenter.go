package system

import (
	"github.com/milk9111/busline/ecs"
	"github.com/milk9111/busline/ecs/component"
	"github.com/milk9111/busline/waypoint"
)

// Presenter is the presentation side of the QTE window. Calls only happen when
// the offered button set changes.
type Presenter interface {
	ShowButtons(e ecs.Entity, node waypoint.ID, buttons component.ButtonSet)
	HideButtons(e ecs.Entity)
}

// QTEPayload is the data of qte.show and qte.hide events.
type QTEPayload struct {
	Node    waypoint.ID
	Buttons component.ButtonSet
}
