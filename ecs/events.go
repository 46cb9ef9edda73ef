package ecs

import "github.com/milk9111/wheelchair/controller"

// Event is a queued world event. Data holds one of the typed payloads below.
type Event struct {
	Type string
	Data any
}

const (
	EventModeChanged = "mode_changed"
	EventBrake       = "brake"
)

type ModeChangedEvent struct {
	Entity Entity
	From   controller.DriveMode
	To     controller.DriveMode
}

// BrakeEvent is emitted on the frame the wheels come to rest.
type BrakeEvent struct {
	Entity    Entity
	PrevSpeed float64
}

// EventQueue is a FIFO drained once per tick.
type EventQueue struct {
	items []Event
}

func (q *EventQueue) Push(evt Event) {
	if q == nil {
		return
	}
	q.items = append(q.items, evt)
}

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
