package component

import "github.com/milk9111/busline/route"

type RouteAssignment struct {
	Pack route.Pack
}

var RouteAssignmentComponent = NewComponent[RouteAssignment]("route")
