package sim

import "container/heap"

// eventHeap is a priority queue of events with deterministic ordering:
// timestamp, then event-type priority, then event ID.
type eventHeap struct {
	events []Event
}

func newEventHeap() *eventHeap {
	h := &eventHeap{events: make([]Event, 0)}
	heap.Init(h)
	return h
}

func (h *eventHeap) Len() int { return len(h.events) }

func (h *eventHeap) Less(i, j int) bool {
	ei, ej := h.events[i], h.events[j]

	if ei.Timestamp().Ticks != ej.Timestamp().Ticks {
		return ei.Timestamp().Ticks < ej.Timestamp().Ticks
	}
	priI := eventTypePriority[ei.Type()]
	priJ := eventTypePriority[ej.Type()]
	if priI != priJ {
		return priI < priJ
	}
	return ei.EventID() < ej.EventID()
}

func (h *eventHeap) Swap(i, j int) {
	h.events[i], h.events[j] = h.events[j], h.events[i]
}

func (h *eventHeap) Push(x any) {
	h.events = append(h.events, x.(Event))
}

func (h *eventHeap) Pop() any {
	old := h.events
	n := len(old)
	item := old[n-1]
	h.events = old[:n-1]
	return item
}

// Schedule inserts an event into the heap.
func (h *eventHeap) Schedule(e Event) {
	heap.Push(h, e)
}

// PopNext removes and returns the next event to run, or nil if empty.
func (h *eventHeap) PopNext() Event {
	if h.Len() == 0 {
		return nil
	}
	return heap.Pop(h).(Event)
}

// Peek returns the next event without removing it, or nil if empty.
func (h *eventHeap) Peek() Event {
	if h.Len() == 0 {
		return nil
	}
	return h.events[0]
}
