package sim

import "github.com/sirupsen/logrus"

// QubitState is the unified lifecycle state of a memory slot.
type QubitState int

const (
	StateRelease QubitState = iota
	StateEntangled
	StatePurif
	StatePending
	StateEligible
)

func (s QubitState) String() string {
	switch s {
	case StateRelease:
		return "RELEASE"
	case StateEntangled:
		return "ENTANGLED"
	case StatePurif:
		return "PURIF"
	case StatePending:
		return "PENDING"
	case StateEligible:
		return "ELIGIBLE"
	default:
		return "UNKNOWN"
	}
}

// MemoryQubit is one memory slot: its addressing, FSM state, and the
// bookkeeping the mux schemes and forwarder hang off it. It holds at most
// one Entanglement at a time, owned by the parent QuantumMemory.
type MemoryQubit struct {
	Addr int

	State QubitState

	QChannel      QChannelID
	PathID        PathID
	PathDirection PathDirection
	PurifRounds   int

	// Active is non-empty exactly while a reservation is in flight for this
	// slot and no pair has been delivered yet.
	Active string

	// TmpPathIDs is populated by the statistical mux scheme: the set of
	// paths this freshly-entangled pair is still a candidate for.
	TmpPathIDs map[PathID]bool

	pair        *Entanglement
	decohereEvt Event
	storedAt    Time
}

// transition logs invalid FSM moves rather than panicking — a forwarder
// racing a decoherence event can legitimately attempt one, and it's an
// expected runtime loss, not a bug.
func (q *MemoryQubit) transition(to QubitState) {
	if !validQubitTransition(q.State, to) {
		logrus.Debugf("memory: qubit %d ignored invalid transition %s -> %s", q.Addr, q.State, to)
		return
	}
	q.State = to
}

func validQubitTransition(from, to QubitState) bool {
	if to == StateRelease {
		return true
	}
	switch from {
	case StateRelease:
		return to == StateEntangled
	case StateEntangled:
		return to == StatePurif || to == StateEligible
	case StatePurif:
		return to == StatePending || to == StateEligible || to == StatePurif
	case StatePending:
		return to == StatePurif || to == StateEligible
	case StateEligible:
		return false
	default:
		return false
	}
}

// QuantumMemory is a fixed-capacity array of slots belonging to one node.
type QuantumMemory struct {
	node  NodeID
	slots []*MemoryQubit
}

// NewQuantumMemory allocates a memory with the given number of slots, all
// initially RELEASE and unassigned.
func NewQuantumMemory(node NodeID, capacity int) *QuantumMemory {
	slots := make([]*MemoryQubit, capacity)
	for i := range slots {
		slots[i] = &MemoryQubit{Addr: i, State: StateRelease}
	}
	return &QuantumMemory{node: node, slots: slots}
}

// Capacity returns the total number of slots.
func (m *QuantumMemory) Capacity() int { return len(m.slots) }

// Count returns the number of slots currently holding a pair.
func (m *QuantumMemory) Count() int {
	n := 0
	for _, s := range m.slots {
		if s.pair != nil {
			n++
		}
	}
	return n
}

// Free returns the number of RELEASE slots with no pair.
func (m *QuantumMemory) Free() int { return len(m.slots) - m.Count() }

// Find returns every slot matching predicate.
func (m *QuantumMemory) Find(predicate func(*MemoryQubit) bool) []*MemoryQubit {
	var out []*MemoryQubit
	for _, s := range m.slots {
		if predicate(s) {
			out = append(out, s)
		}
	}
	return out
}

// Slot returns the slot at addr.
func (m *QuantumMemory) Slot(addr int) *MemoryQubit {
	if addr < 0 || addr >= len(m.slots) {
		return nil
	}
	return m.slots[addr]
}

// Pair returns the entanglement currently stored in slot, if any.
func (m *QuantumMemory) Pair(slot *MemoryQubit) *Entanglement {
	return slot.pair
}

// FindByEPRName returns the slot currently holding the named pair, or nil.
func (m *QuantumMemory) FindByEPRName(name string) *MemoryQubit {
	for _, s := range m.slots {
		if s.pair != nil && s.pair.Name == name {
			return s
		}
	}
	return nil
}

// Assign sets QChannel on one free, unassigned slot and returns it.
func (m *QuantumMemory) Assign(qchannel QChannelID) *MemoryQubit {
	for _, s := range m.slots {
		if s.pair == nil && s.Active == "" && s.QChannel == "" {
			s.QChannel = qchannel
			return s
		}
	}
	return nil
}

// Unassign clears a slot's channel assignment.
func (m *QuantumMemory) Unassign(slot *MemoryQubit) {
	slot.QChannel = ""
}

// Allocate sets PathID/PathDirection on up to n qubits already assigned to
// qchannel (or any qubit, if qchannel is empty), for buffer-space mux.
// Returns the number actually allocated.
func (m *QuantumMemory) Allocate(pathID PathID, dir PathDirection, qchannel QChannelID, n int) int {
	allocated := 0
	for _, s := range m.slots {
		if allocated >= n {
			break
		}
		if s.PathID != "" {
			continue
		}
		if qchannel != "" && s.QChannel != qchannel {
			continue
		}
		s.PathID = pathID
		s.PathDirection = dir
		allocated++
	}
	return allocated
}

// Deallocate clears the path allocation on every slot assigned to pathID.
func (m *QuantumMemory) Deallocate(pathID PathID) {
	for _, s := range m.slots {
		if s.PathID == pathID {
			s.PathID = ""
			s.PathDirection = DirNone
		}
	}
}

// FreeForReservation returns a slot with no pair and no in-flight
// reservation, or nil. A non-empty qchannel must match the slot's channel; a
// non-empty pathID must match the slot's path unless the slot has none.
func (m *QuantumMemory) FreeForReservation(qchannel QChannelID, pathID PathID) *MemoryQubit {
	for _, s := range m.slots {
		if s.pair != nil || s.Active != "" {
			continue
		}
		if qchannel != "" && s.QChannel != qchannel {
			continue
		}
		if pathID != "" && s.PathID != "" && s.PathID != pathID {
			continue
		}
		return s
	}
	return nil
}

// Write stores pair into slot, schedules its decoherence event on sim, and
// marks the slot ENTANGLED. The slot must currently hold no pair.
func (m *QuantumMemory) Write(sim *Simulator, ll *LinkLayer, slot *MemoryQubit, pair *Entanglement) {
	slot.pair = pair
	slot.Active = ""
	slot.storedAt = sim.Now()
	slot.transition(StateEntangled)

	evt := NewFuncEvent(pair.DecoherenceTime, EventTypeQubitDecohered, sim.NextEventID(), func(s *Simulator) {
		m.decohere(s, ll, slot)
	})
	slot.decohereEvt = evt
	sim.Schedule(evt)
}

// Read removes and returns the pair from slot when destructive, applying
// StoreErrorModel for the elapsed storage duration and canceling the
// pending decoherence event. Non-destructive reads leave the slot intact
// and do not touch fidelity.
func (m *QuantumMemory) Read(sim *Simulator, slot *MemoryQubit, destructive bool, decoherenceRate float64) (*Entanglement, bool) {
	if slot.pair == nil {
		return nil, false
	}
	pair := slot.pair
	if !destructive {
		return pair, true
	}
	elapsed := sim.Now().Sub(slot.storedAt)
	pair.StoreErrorModel(elapsed, decoherenceRate)
	if slot.decohereEvt != nil {
		slot.decohereEvt.Cancel()
		slot.decohereEvt = nil
	}
	slot.pair = nil
	slot.transition(StateRelease)
	return pair, true
}

// Update replaces the pair held by slot without resetting its decoherence
// clock, used when a swap produces a merged pair that inherits the older of
// the two original decoherence times.
func (m *QuantumMemory) Update(slot *MemoryQubit, newPair *Entanglement) bool {
	if slot.pair == nil {
		return false
	}
	slot.pair = newPair
	return true
}

// Clear releases every slot and cancels all pending decoherence events.
func (m *QuantumMemory) Clear() {
	for _, s := range m.slots {
		if s.decohereEvt != nil {
			s.decohereEvt.Cancel()
			s.decohereEvt = nil
		}
		s.pair = nil
		s.Active = ""
		s.State = StateRelease
	}
}

// decohere runs when a slot's scheduled decoherence event fires. If the
// pair is still present (not already consumed or swapped away), the slot is
// released and the link layer is notified so it can restart generation.
func (m *QuantumMemory) decohere(sim *Simulator, ll *LinkLayer, slot *MemoryQubit) {
	if slot.pair == nil {
		return
	}
	qchannel := slot.QChannel
	slot.pair = nil
	slot.decohereEvt = nil
	slot.transition(StateRelease)
	logrus.Debugf("memory[%s]: qubit %d decohered", m.node, slot.Addr)
	if ll != nil {
		ll.HandleQubitDecohered(sim, slot, qchannel)
	}
}
