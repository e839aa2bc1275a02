package component

import "github.com/milk9111/busline/common"

// DefaultStopSpeed is the speed below which braking becomes a full stop.
const DefaultStopSpeed = 0.1

// Sensor is one forward ray probe. Offset is in the vehicle's local frame
// (X right, Z forward); Angle turns the probe in degrees relative to the body.
type Sensor struct {
	Offset      common.Vec3
	Angle       float64
	MaxDistance float64
}

// SensorHit records the first probe that saw an obstacle this tick.
type SensorHit struct {
	Sensor      int
	Distance    float64
	MaxDistance float64
	Origin      common.Vec3
	Point       common.Vec3
}

type SensorArray struct {
	Sensors []Sensor
	// RaycastDistance is used by probes without their own MaxDistance.
	RaycastDistance float64
	Mask            uint
	StopSpeed       float64

	Hit    SensorHit
	HasHit bool
}

// Range returns the effective length of probe i.
func (a *SensorArray) Range(i int) float64 {
	if i < 0 || i >= len(a.Sensors) {
		return 0
	}
	if d := a.Sensors[i].MaxDistance; d > 0 {
		return d
	}
	return a.RaycastDistance
}

var SensorArrayComponent = NewComponent[SensorArray]("sensors")
