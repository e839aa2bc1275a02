package component

import "github.com/milk9111/busline/common"

// Steering moves a vehicle toward Target. CurrentSpeed is written by the
// sensor pass each tick; Reached flips once the target is within
// StoppingDistance.
type Steering struct {
	BaseSpeed        float64
	RotationSpeed    float64
	StoppingDistance float64

	CurrentSpeed float64
	Target       common.Vec3
	HasTarget    bool
	Reached      bool
}

// SetDestination retargets the vehicle and clears Reached.
func (s *Steering) SetDestination(pos common.Vec3) {
	s.Target = pos
	s.HasTarget = true
	s.Reached = false
}

var SteeringComponent = NewComponent[Steering]("steering")
