package component

import "github.com/milk9111/busline/waypoint"

// Spawner seeds vehicles at entry nodes, one per tick while Remaining > 0.
type Spawner struct {
	Remaining   int
	Prefabs     []string
	EntryPoints []waypoint.ID
	ClearRadius float64
	MaxAttempts int

	Spawned  int
	Rejected int
}

var SpawnerComponent = NewComponent[Spawner]("spawner")

// IntersectionPolicy names the script that picks turns for an autonomous driver.
type IntersectionPolicy struct {
	Script string
}

var IntersectionPolicyComponent = NewComponent[IntersectionPolicy]("intersection_policy")
