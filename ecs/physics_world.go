package ecs

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/busline/common"
)

// Collision categories. Sensor masks select which of these a probe can see.
const (
	CategoryStatic uint = 1 << iota
	CategoryVehicle
)

// PhysicsWorld owns the Chipmunk space. The road plane is mapped onto the 2D
// space with X -> X and Z -> Y; there is no gravity and nothing is simulated
// dynamically, the space is only used for spatial queries.
type PhysicsWorld struct {
	space *cp.Space

	shapeToEntity map[*cp.Shape]Entity
	vehicles      map[Entity]*cp.Shape
	obstacles     []*cp.Shape
}

// RayHit is the first shape hit by a segment query.
type RayHit struct {
	Entity   Entity // zero for static obstacles
	Point    common.Vec3
	Distance float64
}

// NewPhysicsWorld creates an empty query space.
func NewPhysicsWorld() *PhysicsWorld {
	space := cp.NewSpace()
	space.SetGravity(cp.Vector{})
	return &PhysicsWorld{
		space:         space,
		shapeToEntity: make(map[*cp.Shape]Entity),
		vehicles:      make(map[Entity]*cp.Shape),
	}
}

func toCP(v common.Vec3) cp.Vector {
	return cp.Vector{X: v.X, Y: v.Z}
}

func fromCP(v cp.Vector) common.Vec3 {
	return common.Vec3{X: v.X, Z: v.Y}
}

// Space returns the underlying Chipmunk space.
func (pw *PhysicsWorld) Space() *cp.Space {
	if pw == nil {
		return nil
	}
	return pw.space
}

// AddObstacle adds a static box footprint centred on pos.
func (pw *PhysicsWorld) AddObstacle(pos common.Vec3, width, depth float64) *cp.Shape {
	if pw == nil || width <= 0 || depth <= 0 {
		return nil
	}
	body := cp.NewStaticBody()
	body.SetPosition(toCP(pos))
	shape := cp.NewBox(body, width, depth, 0)
	shape.SetFilter(cp.ShapeFilter{Group: 0, Categories: CategoryStatic, Mask: cp.ALL_CATEGORIES})
	pw.space.AddBody(body)
	pw.space.AddShape(shape)
	pw.obstacles = append(pw.obstacles, shape)
	return shape
}

// AddVehicle registers a kinematic circle for e. The entity is its own
// collision group so its sensors never see it.
func (pw *PhysicsWorld) AddVehicle(e Entity, pos common.Vec3, radius float64) *cp.Shape {
	if pw == nil || radius <= 0 {
		return nil
	}
	pw.RemoveVehicle(e)
	body := cp.NewKinematicBody()
	body.SetPosition(toCP(pos))
	shape := cp.NewCircle(body, radius, cp.Vector{})
	shape.SetFilter(cp.ShapeFilter{Group: uint(e), Categories: CategoryVehicle, Mask: cp.ALL_CATEGORIES})
	shape.UserData = e
	pw.space.AddBody(body)
	pw.space.AddShape(shape)
	pw.vehicles[e] = shape
	pw.shapeToEntity[shape] = e
	return shape
}

// MoveVehicle teleports e's body. The shape is taken out of the spatial index
// and put back so queries see the new position before the next Step.
func (pw *PhysicsWorld) MoveVehicle(e Entity, pos common.Vec3) {
	if pw == nil {
		return
	}
	shape, ok := pw.vehicles[e]
	if !ok {
		return
	}
	pw.space.RemoveShape(shape)
	shape.Body().SetPosition(toCP(pos))
	pw.space.AddShape(shape)
}

func (pw *PhysicsWorld) HasVehicle(e Entity) bool {
	if pw == nil {
		return false
	}
	_, ok := pw.vehicles[e]
	return ok
}

// Vehicles returns every entity with a registered body.
func (pw *PhysicsWorld) Vehicles() []Entity {
	if pw == nil {
		return nil
	}
	out := make([]Entity, 0, len(pw.vehicles))
	for e := range pw.vehicles {
		out = append(out, e)
	}
	return out
}

func (pw *PhysicsWorld) RemoveVehicle(e Entity) {
	if pw == nil {
		return
	}
	shape, ok := pw.vehicles[e]
	if !ok {
		return
	}
	body := shape.Body()
	pw.space.RemoveShape(shape)
	delete(pw.shapeToEntity, shape)
	pw.space.RemoveBody(body)
	delete(pw.vehicles, e)
}

// Raycast returns the first shape crossed by the segment from -> to, ignoring
// ignore's own shape and anything outside mask.
func (pw *PhysicsWorld) Raycast(from, to common.Vec3, ignore Entity, mask uint) (RayHit, bool) {
	if pw == nil {
		return RayHit{}, false
	}
	start, end := toCP(from), toCP(to)
	filter := cp.ShapeFilter{Group: uint(ignore), Categories: cp.ALL_CATEGORIES, Mask: mask}
	info := pw.space.SegmentQueryFirst(start, end, 0, filter)
	if info.Shape == nil {
		return RayHit{}, false
	}
	return RayHit{
		Entity:   pw.shapeToEntity[info.Shape],
		Point:    fromCP(info.Point),
		Distance: info.Alpha * start.Distance(end),
	}, true
}

// Overlaps reports whether any shape lies within radius of pos.
func (pw *PhysicsWorld) Overlaps(pos common.Vec3, radius float64, ignore Entity) bool {
	if pw == nil {
		return false
	}
	filter := cp.ShapeFilter{Group: uint(ignore), Categories: cp.ALL_CATEGORIES, Mask: cp.ALL_CATEGORIES}
	info := pw.space.PointQueryNearest(toCP(pos), radius, filter)
	return info != nil && info.Shape != nil
}

// Step advances the space. Kinematic bodies are repositioned explicitly, so
// this only keeps the broadphase current.
func (pw *PhysicsWorld) Step(dt float64) {
	if pw == nil || dt <= 0 {
		return
	}
	pw.space.Step(dt)
}

// ObstacleBounds returns the axis-aligned footprint of every static obstacle.
func (pw *PhysicsWorld) ObstacleBounds() []cp.BB {
	if pw == nil {
		return nil
	}
	out := make([]cp.BB, 0, len(pw.obstacles))
	for _, shape := range pw.obstacles {
		out = append(out, shape.BB())
	}
	return out
}
