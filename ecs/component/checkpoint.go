package component

import (
	"github.com/milk9111/busline/common"
	"github.com/milk9111/busline/route"
)

// Checkpoint is a bus stop trigger. Inside tracks which vehicles are within
// Radius so entry fires once per visit.
type Checkpoint struct {
	Name        string
	Position    common.Vec3
	Radius      float64
	Route       route.Pack
	WaitSeconds float64
	Reward      int
	Penalty     int

	Inside map[uint64]struct{}
}

// CheckpointResult is the payload of a checkpoint event.
type CheckpointResult struct {
	Checkpoint string
	Expected   route.Pack
	Got        route.Pack
	Correct    bool
	Score      int
}

var CheckpointComponent = NewComponent[Checkpoint]("checkpoint")
