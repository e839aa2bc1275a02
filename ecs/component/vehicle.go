package component

import "github.com/google/uuid"

type Vehicle struct {
	ID     uuid.UUID
	Prefab string
	Label  string
}

var VehicleComponent = NewComponent[Vehicle]("vehicle")

// Body is the vehicle's circular footprint in the physics space.
type Body struct {
	Radius float64
}

var BodyComponent = NewComponent[Body]("body")
