package component

import "github.com/milk9111/busline/common"

// Transform places a vehicle on the road plane. Yaw is in radians, zero faces +Z.
type Transform struct {
	Position common.Vec3
	Yaw      float64
}

func (t *Transform) Forward() common.Vec3 {
	return common.YawForward(t.Yaw)
}

var TransformComponent = NewComponent[Transform]("transform")
