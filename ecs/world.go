package ecs

import (
	"fmt"

	"github.com/milk9111/busline/ecs/component"
)

// Clock is the fixed-timestep simulation time. The scheduler advances Tick.
type Clock struct {
	Tick int
	DT   float64

	// Running is set while the scheduler is inside Update.
	Running bool
}

// Pending returns the first tick whose systems have not started yet.
func (c Clock) Pending() int {
	if c.Running {
		return c.Tick + 1
	}
	return c.Tick
}

// Seconds returns the simulated time at the start of the current tick.
func (c Clock) Seconds() float64 {
	return float64(c.Tick) * c.DT
}

// TicksFor converts a duration to a whole number of ticks, rounding up.
func (c Clock) TicksFor(seconds float64) int {
	if c.DT <= 0 || seconds <= 0 {
		return 0
	}
	n := int(seconds / c.DT)
	if float64(n)*c.DT < seconds-1e-9 {
		n++
	}
	return n
}

// World owns entities, their components, the event queue and the physics space.
type World struct {
	entities entityStore
	stores   map[component.ComponentID]*SparseSet
	events   EventQueue
	clock    Clock

	physicsWorld *PhysicsWorld
}

// NewWorld creates an empty ECS world ticking at dt seconds.
func NewWorld() *World {
	return &World{
		stores: make(map[component.ComponentID]*SparseSet),
		clock:  Clock{DT: 1.0 / 60.0},
	}
}

func (w *World) store(id component.ComponentID, create bool) *SparseSet {
	s, ok := w.stores[id]
	if !ok && create {
		s = newSparseSet()
		w.stores[id] = s
	}
	return s
}

func (w *World) addComponent(e Entity, id component.ComponentID, value any) error {
	if id == 0 {
		return component.ErrInvalidComponentKind
	}
	if !w.entities.isAlive(e) {
		return fmt.Errorf("add component %d to %s: %w", id, e, component.ErrEntityNotAlive)
	}
	w.store(id, true).Set(e.id(), value)
	return nil
}

func (w *World) getComponent(e Entity, id component.ComponentID) (any, bool) {
	if !w.entities.isAlive(e) {
		return nil, false
	}
	s := w.store(id, false)
	if !s.Has(e.id()) {
		return nil, false
	}
	return s.Get(e.id()), true
}

func (w *World) removeComponent(e Entity, id component.ComponentID) bool {
	if !w.entities.isAlive(e) {
		return false
	}
	return w.store(id, false).Remove(e.id())
}

// Events returns the world event queue.
func (w *World) Events() *EventQueue {
	if w == nil {
		return nil
	}
	return &w.events
}

// Emit pushes an event stamped with the current tick.
func (w *World) Emit(typ string, e Entity, data any) {
	if w == nil {
		return
	}
	w.events.Push(Event{Tick: w.clock.Tick, Type: typ, Entity: e, Data: data})
}

func (w *World) Clock() Clock {
	return w.clock
}

func (w *World) SetTimestep(dt float64) {
	if dt > 0 {
		w.clock.DT = dt
	}
}

// SetPhysicsWorld attaches a physics world to this ECS world.
func (w *World) SetPhysicsWorld(pw *PhysicsWorld) {
	if w == nil {
		return
	}
	w.physicsWorld = pw
}

// PhysicsWorld returns the attached physics world, if any.
func (w *World) PhysicsWorld() *PhysicsWorld {
	if w == nil {
		return nil
	}
	return w.physicsWorld
}
