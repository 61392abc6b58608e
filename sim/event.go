package sim

// EventType tags an event for monitor dispatch and deterministic tie-breaking
// among events sharing the same timestamp.
type EventType string

const (
	EventTypeExternalStart    EventType = "ExternalStart"
	EventTypeInternalStart    EventType = "InternalStart"
	EventTypeManageChannels   EventType = "ManageActiveChannels"
	EventTypeStartReservation EventType = "StartReservation"
	EventTypeHeralded         EventType = "HeraldedAttempt"
	EventTypeQubitArrival     EventType = "QubitArrival"
	EventTypeQubitEntangled   EventType = "QubitEntangled"
	EventTypeQubitDecohered   EventType = "QubitDecohered"
	EventTypeQubitReleased    EventType = "QubitReleased"
	EventTypeClassicArrival   EventType = "ClassicArrival"
)

// eventTypePriority breaks ties between events scheduled for the same tick.
// Lower values are processed first. Channel housekeeping and qubit delivery
// are ordered ahead of the signaling that reacts to them, so a forwarder
// handling a classical message this tick sees memory state already updated.
var eventTypePriority = map[EventType]int{
	EventTypeExternalStart:    0,
	EventTypeInternalStart:    0,
	EventTypeManageChannels:   1,
	EventTypeStartReservation: 2,
	EventTypeHeralded:         3,
	EventTypeQubitArrival:     4,
	EventTypeQubitEntangled:   5,
	EventTypeQubitDecohered:   6,
	EventTypeQubitReleased:    6,
	EventTypeClassicArrival:   7,
}

// Event is anything the simulator can schedule and invoke. Ordering is by
// (Timestamp, type priority, EventID); EventID is a monotonic counter handed
// out by the Simulator so ties are broken deterministically.
type Event interface {
	Timestamp() Time
	EventID() uint64
	Type() EventType
	IsCanceled() bool
	Cancel()
	Invoke(sim *Simulator)
}

// BaseEvent implements the bookkeeping common to every event. Concrete event
// types embed it and only implement Invoke.
type BaseEvent struct {
	timestamp Time
	eventID   uint64
	eventType EventType
	canceled  bool
}

func newBaseEvent(t Time, eventType EventType, id uint64) BaseEvent {
	return BaseEvent{timestamp: t, eventID: id, eventType: eventType}
}

func (e *BaseEvent) Timestamp() Time  { return e.timestamp }
func (e *BaseEvent) EventID() uint64  { return e.eventID }
func (e *BaseEvent) Type() EventType  { return e.eventType }
func (e *BaseEvent) IsCanceled() bool { return e.canceled }
func (e *BaseEvent) Cancel()          { e.canceled = true }

// FuncEvent adapts a plain closure into an Event. Most of the protocol stack
// schedules continuations this way instead of declaring a named event type
// per suspension point; named types are reserved for events a monitor or a
// test wants to match on by Type().
type FuncEvent struct {
	BaseEvent
	fn func(sim *Simulator)
}

// NewFuncEvent schedules fn to run at t, tagged with eventType for priority
// ordering and monitor dispatch.
func NewFuncEvent(t Time, eventType EventType, id uint64, fn func(sim *Simulator)) *FuncEvent {
	return &FuncEvent{BaseEvent: newBaseEvent(t, eventType, id), fn: fn}
}

func (e *FuncEvent) Invoke(sim *Simulator) { e.fn(sim) }
