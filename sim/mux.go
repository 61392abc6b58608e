package sim

// MuxScheme is the pluggable policy deciding how memory slots are
// associated with paths: pre-allocated (buffer-space) or on-the-fly
// (statistical).
type MuxScheme interface {
	Kind() MuxKind

	// InstallPathNeighbor allocates or assigns memory qubits for one hop of
	// a freshly-installed path.
	InstallPathNeighbor(mem *QuantumMemory, in PathInstructions, entry *FibEntry, dir PathDirection, qchannel QChannelID)

	// QubitIsEntangled decides the FSM state a freshly-entangled qubit
	// enters, given the fib entries of the paths it could belong to.
	QubitIsEntangled(mem *QuantumMemory, slot *MemoryQubit, fib *ForwardingInformationBase, isolatePaths bool)

	// FindSwapCandidate picks a partner qubit (and its fib entry) to swap
	// with slot, or ok=false if none is eligible yet.
	FindSwapCandidate(mem *QuantumMemory, fib *ForwardingInformationBase, slot *MemoryQubit, entry *FibEntry, isolatePaths bool) (partner *MemoryQubit, partnerEntry *FibEntry, ok bool)

	// SwappingSucceeded lets the scheme update per-path bookkeeping (e.g.
	// the statistical scheme's candidate-path intersection) on the merged
	// pair after a successful swap.
	SwappingSucceeded(merged *Entanglement, a, b *Entanglement)

	// SUParallelAvoidConflict reports whether a parallel-swap reconciliation
	// in progress for pathID should be abandoned to avoid a conflicting
	// candidate-path assignment. Buffer-space paths are exclusive and never
	// conflict.
	SUParallelAvoidConflict(myNewPair *Entanglement, pathID PathID) bool

	// SUParallelSucceeded mirrors SwappingSucceeded for the parallel-merge
	// reconciliation branch of a swap update.
	SUParallelSucceeded(merged, a, b *Entanglement)
}

// --- Buffer-space mux: paths get pre-allocated qubits. ---

// BufferSpaceMux implements path-preallocated multiplexing: InstallPath
// reserves a fixed number of qubits per hop (from the path's MV table), and
// a qubit becomes an exclusive candidate for its own path (or, when paths
// are not isolated, any sibling path of the same request).
type BufferSpaceMux struct{}

func (BufferSpaceMux) Kind() MuxKind { return MuxBufferSpace }

func (BufferSpaceMux) InstallPathNeighbor(mem *QuantumMemory, in PathInstructions, entry *FibEntry, dir PathDirection, qchannel QChannelID) {
	n := 0
	if len(in.MV) > 0 {
		hop := entry.OwnIdx
		if dir == DirLeft {
			hop--
		}
		if hop >= 0 && hop < len(in.MV) {
			if dir == DirLeft {
				n = in.MV[hop].Right
			} else {
				n = in.MV[hop].Left
			}
		}
	}
	if n == 0 {
		// 0 means "use every qubit assigned to this qchannel".
		n = mem.Capacity()
	}
	mem.Allocate(entry.PathID, dir, qchannel, n)
}

func (BufferSpaceMux) QubitIsEntangled(mem *QuantumMemory, slot *MemoryQubit, fib *ForwardingInformationBase, isolatePaths bool) {
	slot.transition(StatePurif)
}

func (BufferSpaceMux) FindSwapCandidate(mem *QuantumMemory, fib *ForwardingInformationBase, slot *MemoryQubit, entry *FibEntry, isolatePaths bool) (*MemoryQubit, *FibEntry, bool) {
	wantDir := slot.PathDirection.Opposite()
	siblingPaths := siblingPathSet(fib, entry, isolatePaths)

	for _, candidate := range mem.slots {
		if candidate == slot || candidate.State != StateEligible {
			continue
		}
		if candidate.QChannel == slot.QChannel {
			continue
		}
		if !siblingPaths[candidate.PathID] {
			continue
		}
		if candidate.PathDirection != wantDir {
			continue
		}
		return candidate, fib.Get(candidate.PathID), true
	}
	return nil, nil, false
}

func (BufferSpaceMux) SwappingSucceeded(merged *Entanglement, a, b *Entanglement) {}

func (BufferSpaceMux) SUParallelAvoidConflict(myNewPair *Entanglement, pathID PathID) bool {
	return false
}

func (BufferSpaceMux) SUParallelSucceeded(merged, a, b *Entanglement) {}

func siblingPathSet(fib *ForwardingInformationBase, entry *FibEntry, isolatePaths bool) map[PathID]bool {
	set := map[PathID]bool{entry.PathID: true}
	if !isolatePaths {
		for _, id := range fib.ListByRequest(entry.ReqID) {
			set[id] = true
		}
	}
	return set
}

// --- Statistical mux: no pre-allocation; pairs carry a candidate-path set. ---

// StatisticalMux implements on-the-fly multiplexing: qubits are only
// assigned to a qchannel, never to a specific path. A freshly-entangled
// pair records every path routed over this qchannel as a TmpPathIDs
// candidate set, narrowed by intersection at each swap.
type StatisticalMux struct {
	// qchannelPaths maps a qchannel to the set of path IDs whose route
	// crosses it at this node, rebuilt as paths are installed.
	qchannelPaths map[QChannelID]map[PathID]bool
}

// NewStatisticalMux creates an empty StatisticalMux.
func NewStatisticalMux() *StatisticalMux {
	return &StatisticalMux{qchannelPaths: make(map[QChannelID]map[PathID]bool)}
}

func (StatisticalMux) Kind() MuxKind { return MuxStatistical }

func (m *StatisticalMux) InstallPathNeighbor(mem *QuantumMemory, in PathInstructions, entry *FibEntry, dir PathDirection, qchannel QChannelID) {
	mem.Assign(qchannel)
	if m.qchannelPaths[qchannel] == nil {
		m.qchannelPaths[qchannel] = make(map[PathID]bool)
	}
	m.qchannelPaths[qchannel][entry.PathID] = true
}

func (m *StatisticalMux) QubitIsEntangled(mem *QuantumMemory, slot *MemoryQubit, fib *ForwardingInformationBase, isolatePaths bool) {
	candidates := m.qchannelPaths[slot.QChannel]
	slot.TmpPathIDs = make(map[PathID]bool, len(candidates))
	for id := range candidates {
		slot.TmpPathIDs[id] = true
	}
	if m.canEnterPurif(mem, slot, fib) {
		slot.transition(StateEligible)
	} else {
		slot.transition(StatePurif)
	}
}

// canEnterPurif requires that every remaining candidate path's endpoint
// classification at this node agrees: an endpoint qubit only ever entangles
// toward another endpoint's partner, never mixes with an intermediate
// node's routing role. Classified purely by FibEntry.IsEndpoint, never by
// node-name convention.
func (m *StatisticalMux) canEnterPurif(mem *QuantumMemory, slot *MemoryQubit, fib *ForwardingInformationBase) bool {
	sawEndpoint, sawIntermediate := false, false
	for id := range slot.TmpPathIDs {
		entry := fib.Get(id)
		if entry == nil {
			continue
		}
		if entry.IsEndpoint() {
			sawEndpoint = true
		} else {
			sawIntermediate = true
		}
	}
	return sawEndpoint && !sawIntermediate
}

func (m *StatisticalMux) FindSwapCandidate(mem *QuantumMemory, fib *ForwardingInformationBase, slot *MemoryQubit, entry *FibEntry, isolatePaths bool) (*MemoryQubit, *FibEntry, bool) {
	for _, candidate := range mem.slots {
		if candidate == slot || candidate.State != StateEligible {
			continue
		}
		if candidate.QChannel == slot.QChannel {
			continue
		}
		if !intersects(slot.TmpPathIDs, candidate.TmpPathIDs) {
			continue
		}
		shared := intersection(slot.TmpPathIDs, candidate.TmpPathIDs)
		var pathID PathID
		for id := range shared {
			pathID = id
			break
		}
		return candidate, fib.Get(pathID), true
	}
	return nil, nil, false
}

func (m *StatisticalMux) SwappingSucceeded(merged *Entanglement, a, b *Entanglement) {
	merged.CandidatePaths = intersection(a.CandidatePaths, b.CandidatePaths)
}

func (m *StatisticalMux) SUParallelAvoidConflict(myNewPair *Entanglement, pathID PathID) bool {
	return myNewPair.CandidatePaths != nil && !myNewPair.CandidatePaths[pathID]
}

func (m *StatisticalMux) SUParallelSucceeded(merged, a, b *Entanglement) {
	merged.CandidatePaths = intersection(a.CandidatePaths, b.CandidatePaths)
}

func intersects(a, b map[PathID]bool) bool {
	for id := range a {
		if b[id] {
			return true
		}
	}
	return false
}

func intersection(a, b map[PathID]bool) map[PathID]bool {
	out := make(map[PathID]bool)
	for id := range a {
		if b[id] {
			out[id] = true
		}
	}
	return out
}

// NewMuxScheme builds the MuxScheme named by kind.
func NewMuxScheme(kind MuxKind) MuxScheme {
	switch kind {
	case MuxStatistical:
		return NewStatisticalMux()
	default:
		return BufferSpaceMux{}
	}
}
