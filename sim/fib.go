package sim

// FibEntry is one path's routing, swap-rank, and purification program as
// installed at a single node on that path.
type FibEntry struct {
	PathID  PathID
	ReqID   ReqID
	Route   []NodeID
	OwnIdx  int
	Swap    []int
	Purif   map[string]int
	Mux     MuxKind
}

// IsEndpoint reports whether this node is a route endpoint — the sole,
// name-convention-free definition of "end node" used throughout the stack.
func (f *FibEntry) IsEndpoint() bool {
	return f.OwnIdx == 0 || f.OwnIdx == len(f.Route)-1
}

// OwnRank returns this node's swap rank on the path.
func (f *FibEntry) OwnRank() int {
	return f.Swap[f.OwnIdx]
}

// SwapDisabled reports whether the path was installed with swapping turned
// off end-to-end: the forwarder then consumes directly after purification.
func (f *FibEntry) SwapDisabled() bool {
	return f.Swap[0] == 0 && f.Swap[len(f.Swap)-1] == 0
}

// NeighborIndex returns the route index and rank of the given neighbor on
// this path, or ok=false if the neighbor is not on the route.
func (f *FibEntry) NeighborIndex(neighbor NodeID) (idx, rank int, ok bool) {
	for i, n := range f.Route {
		if n == neighbor {
			return i, f.Swap[i], true
		}
	}
	return 0, 0, false
}

// PurifRounds returns the required purification round count for the
// segment between a and b (in route order), defaulting to 0.
func (f *FibEntry) PurifRounds(a, b NodeID) int {
	if rounds, ok := f.Purif[string(a)+"-"+string(b)]; ok {
		return rounds
	}
	if rounds, ok := f.Purif[string(b)+"-"+string(a)]; ok {
		return rounds
	}
	return 0
}

// ForwardingInformationBase is the per-node table mapping path ID to its
// installed FibEntry, plus a reverse index from request ID to path IDs.
type ForwardingInformationBase struct {
	table      map[PathID]*FibEntry
	byRequest  map[ReqID]map[PathID]bool
}

// NewFIB creates an empty FIB.
func NewFIB() *ForwardingInformationBase {
	return &ForwardingInformationBase{
		table:     make(map[PathID]*FibEntry),
		byRequest: make(map[ReqID]map[PathID]bool),
	}
}

// InsertOrReplace installs or overwrites the entry for entry.PathID.
func (f *ForwardingInformationBase) InsertOrReplace(entry *FibEntry) {
	if old, ok := f.table[entry.PathID]; ok && old.ReqID != entry.ReqID {
		f.removeFromRequestIndex(old.ReqID, old.PathID)
	}
	f.table[entry.PathID] = entry
	if f.byRequest[entry.ReqID] == nil {
		f.byRequest[entry.ReqID] = make(map[PathID]bool)
	}
	f.byRequest[entry.ReqID][entry.PathID] = true
}

// Erase removes the entry for pathID, if any.
func (f *ForwardingInformationBase) Erase(pathID PathID) {
	entry, ok := f.table[pathID]
	if !ok {
		return
	}
	delete(f.table, pathID)
	f.removeFromRequestIndex(entry.ReqID, pathID)
}

func (f *ForwardingInformationBase) removeFromRequestIndex(reqID ReqID, pathID PathID) {
	if set, ok := f.byRequest[reqID]; ok {
		delete(set, pathID)
		if len(set) == 0 {
			delete(f.byRequest, reqID)
		}
	}
}

// Get returns the entry for pathID, or nil.
func (f *ForwardingInformationBase) Get(pathID PathID) *FibEntry {
	return f.table[pathID]
}

// ListByRequest returns every path ID installed for reqID.
func (f *ForwardingInformationBase) ListByRequest(reqID ReqID) []PathID {
	set := f.byRequest[reqID]
	out := make([]PathID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// All returns every installed entry, for iteration by the mux schemes that
// need to consider sibling paths of the same request.
func (f *ForwardingInformationBase) All() map[PathID]*FibEntry {
	return f.table
}

// HasRequestEndpoints reports whether any installed path's route begins and
// ends at src and dst (in either order). Used when a pair isn't tied to a
// single path — statistical mux, before the first swap narrows its candidate
// set to one — to decide whether its current endpoints already satisfy a
// standing request.
func (f *ForwardingInformationBase) HasRequestEndpoints(src, dst NodeID) bool {
	for _, entry := range f.table {
		if len(entry.Route) == 0 {
			continue
		}
		a, b := entry.Route[0], entry.Route[len(entry.Route)-1]
		if (a == src && b == dst) || (a == dst && b == src) {
			return true
		}
	}
	return false
}
