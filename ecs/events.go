package ecs

// Event is a generic ECS event payload.
type Event struct {
	Tick   int
	Type   string
	Entity Entity
	Data   any
}

// Event types pushed by the simulation systems.
const (
	EventSpawned            = "vehicle.spawned"
	EventDespawned          = "vehicle.despawned"
	EventArrived            = "navigation.arrived"
	EventReversed           = "navigation.reversed"
	EventBranched           = "navigation.branched"
	EventHalted             = "navigation.halted"
	EventFault              = "navigation.fault"
	EventIntersectionChoice = "intersection.choice"
	EventIntersectionSkip   = "intersection.rejected"
	EventQTEShow            = "qte.show"
	EventQTEHide            = "qte.hide"
	EventCheckpoint         = "checkpoint.reached"
	EventWait               = "agent.wait"
)

// EventQueue is a simple FIFO queue.
type EventQueue struct {
	items []Event
}

// Push adds an event.
func (q *EventQueue) Push(evt Event) {
	if q == nil {
		return
	}
	q.items = append(q.items, evt)
}

// Len returns the number of queued events.
func (q *EventQueue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.items)
}

// Drain returns all events and clears the queue.
func (q *EventQueue) Drain() []Event {
	if q == nil || len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}
