package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// ForwarderCounters collects the observable outcome counters the protocol
// state machine maintains as a run proceeds.
type ForwarderCounters struct {
	NEntg               int
	NPurif              []int
	NEligible           int
	NSwappedS           int
	NSwappedP           int
	NConsumed           int
	ConsumedSumFidelity float64
}

func (c *ForwarderCounters) incrementPurif(round int) {
	for len(c.NPurif) <= round {
		c.NPurif = append(c.NPurif, 0)
	}
	c.NPurif[round]++
}

// NSwapped returns the total successful swap count, sequential + parallel.
func (c *ForwarderCounters) NSwapped() int { return c.NSwappedS + c.NSwappedP }

// ConsumedAvgFidelity returns the mean fidelity across every consumed pair,
// or 0 if none have been consumed yet.
func (c *ForwarderCounters) ConsumedAvgFidelity() float64 {
	if c.NConsumed == 0 {
		return 0
	}
	return c.ConsumedSumFidelity / float64(c.NConsumed)
}

func (c *ForwarderCounters) String() string {
	return fmt.Sprintf("entg=%d purif=%v eligible=%d swapped=%d+%d consumed=%d (F=%.4f)",
		c.NEntg, c.NPurif, c.NEligible, c.NSwappedS, c.NSwappedP, c.NConsumed, c.ConsumedAvgFidelity())
}

type pendingSwapUpdate struct {
	msg SwapUpdateMsg
	fib *FibEntry
}

type parallelSwap struct {
	shared, other, merged *Entanglement
}

type pendingQubitEntangled struct {
	slot     *MemoryQubit
	neighbor NodeID
}

// Forwarder is the per-node proactive-forwarding protocol state machine: it
// drives a freshly-entangled elementary qubit through purification and
// swapping until it is consumed at an endpoint, acting on routing
// instructions installed by the routing controller.
type Forwarder struct {
	node NodeID
	net  *Network

	memory *QuantumMemory
	fib    *ForwardingInformationBase
	mux    MuxScheme

	ps              float64
	isolatePaths    bool
	decoherenceRate float64

	timingMode TimingMode
	syncPhase  SignalType

	waitingQubits []pendingQubitEntangled

	waitingSU         map[int]pendingSwapUpdate
	parallelSwappings map[string]parallelSwap
	remoteSwappedEPRs map[string]*Entanglement

	cnt ForwarderCounters
}

// NewForwarder builds a Forwarder for node, backed by mem and reporting
// through net.
func NewForwarder(node NodeID, mem *QuantumMemory, net *Network, mux MuxScheme, ps, decoherenceRate float64, isolatePaths bool, timingMode TimingMode) *Forwarder {
	return &Forwarder{
		node:              node,
		net:               net,
		memory:            mem,
		fib:               NewFIB(),
		mux:               mux,
		ps:                ps,
		isolatePaths:      isolatePaths,
		decoherenceRate:   decoherenceRate,
		timingMode:        timingMode,
		syncPhase:         SignalInternal,
		waitingSU:         make(map[int]pendingSwapUpdate),
		parallelSwappings: make(map[string]parallelSwap),
		remoteSwappedEPRs: make(map[string]*Entanglement),
	}
}

// Counters exposes the observable outcome counters.
func (f *Forwarder) Counters() *ForwarderCounters { return &f.cnt }

// HandleSyncSignal updates the current SYNC phase. Entering EXTERNAL clears
// the remote-swap staging area (the previous INTERNAL phase's leftovers are
// stale); entering INTERNAL flushes every qubit queued while EXTERNAL was in
// force.
func (f *Forwarder) HandleSyncSignal(sim *Simulator, phase SignalType) {
	f.syncPhase = phase
	switch phase {
	case SignalExternal:
		f.remoteSwappedEPRs = make(map[string]*Entanglement)
	case SignalInternal:
		queued := f.waitingQubits
		f.waitingQubits = nil
		logrus.Debugf("forwarder[%s]: %d entangled qubits queued for INTERNAL phase", f.node, len(queued))
		for _, pq := range queued {
			f.HandleQubitEntangled(sim, pq.slot, pq.neighbor)
		}
	}
}

// HandleInstallPath installs msg's routing instructions into the FIB,
// allocates or assigns memory for the path's neighbor hops, and kicks off
// elementary-pair generation toward the right neighbor.
func (f *Forwarder) HandleInstallPath(sim *Simulator, msg InstallPathMsg) {
	if err := ValidatePathInstructions(msg.Instructions); err != nil {
		logrus.Fatalf("forwarder[%s]: invalid path instructions for %s: %v", f.node, msg.PathID, err)
	}
	in := msg.Instructions

	ownIdx := -1
	for i, n := range in.Route {
		if n == f.node {
			ownIdx = i
			break
		}
	}
	if ownIdx < 0 {
		logrus.Fatalf("forwarder[%s]: install_path route %v does not include this node", f.node, in.Route)
	}

	entry := &FibEntry{
		PathID: msg.PathID,
		ReqID:  in.ReqID,
		Route:  in.Route,
		OwnIdx: ownIdx,
		Swap:   in.Swap,
		Purif:  in.Purif,
		Mux:    in.Mux,
	}
	f.fib.InsertOrReplace(entry)
	logrus.Debugf("forwarder[%s]: installed path %s: %+v", f.node, msg.PathID, in)

	left, right := f.neighborOn(entry, -1), f.neighborOn(entry, +1)
	if left != "" {
		if qc := f.net.quantumChannelBetween(f.node, left); qc != nil {
			f.mux.InstallPathNeighbor(f.memory, in, entry, DirLeft, qc.ID)
		}
	}
	if right != "" {
		if qc := f.net.quantumChannelBetween(f.node, right); qc != nil {
			f.mux.InstallPathNeighbor(f.memory, in, entry, DirRight, qc.ID)
			if ll := f.net.linkLayer(f.node); ll != nil {
				ll.HandleManageActiveChannels(sim, qc, true)
			}
		}
	}
}

func (f *Forwarder) neighborOn(entry *FibEntry, offset int) NodeID {
	idx := entry.OwnIdx + offset
	if idx < 0 || idx >= len(entry.Route) {
		return ""
	}
	return entry.Route[idx]
}

// HandleQubitEntangled runs when the link layer reports a freshly-entangled
// elementary qubit. In SYNC mode, during the EXTERNAL phase the qubit is
// queued until INTERNAL begins.
func (f *Forwarder) HandleQubitEntangled(sim *Simulator, slot *MemoryQubit, neighbor NodeID) {
	if f.timingMode == TimingSync && f.syncPhase == SignalExternal {
		f.waitingQubits = append(f.waitingQubits, pendingQubitEntangled{slot: slot, neighbor: neighbor})
		return
	}

	f.cnt.NEntg++
	f.mux.QubitIsEntangled(f.memory, slot, f.fib, f.isolatePaths)

	if pending, ok := f.waitingSU[slot.Addr]; ok {
		delete(f.waitingSU, slot.Addr)
		f.resolveSwapUpdate(sim, pending.msg, pending.fib, slot)
	}

	entry := f.fib.Get(slot.PathID)
	switch slot.State {
	case StatePurif:
		f.qubitIsPurif(sim, slot, entry, neighbor)
	case StateEligible:
		f.qubitIsEligible(sim, slot, entry)
	}
}

// qubitIsPurif decides whether this qubit's segment needs more purification
// rounds and, if this node is the segment's primary, solicits one.
func (f *Forwarder) qubitIsPurif(sim *Simulator, qubit *MemoryQubit, entry *FibEntry, partner NodeID) {
	if entry == nil {
		return
	}
	ownIdx, ownRank := entry.OwnIdx, entry.OwnRank()
	partnerIdx, partnerRank, ok := entry.NeighborIndex(partner)
	if !ok {
		return
	}
	if ownRank > partnerRank {
		return
	}

	segA, segB := f.node, partner
	if ownIdx >= partnerIdx {
		segA, segB = partner, f.node
	}
	wantRounds := entry.PurifRounds(segA, segB)
	logrus.Debugf("forwarder[%s]: segment %s-%s (qubit %d) has %d, needs %d purif rounds",
		f.node, segA, segB, qubit.Addr, qubit.PurifRounds, wantRounds)

	if qubit.PurifRounds == wantRounds {
		f.cnt.NEligible++
		qubit.PurifRounds = 0
		qubit.transition(StateEligible)
		f.qubitIsEligible(sim, qubit, entry)
		return
	}

	isPrimary := ownRank < partnerRank || (ownRank == partnerRank && ownIdx < partnerIdx)
	if !isPrimary {
		logrus.Debugf("forwarder[%s]: not primary for segment %s-%s purif", f.node, segA, segB)
		return
	}

	candidates := f.memory.Find(func(q *MemoryQubit) bool {
		if q.Addr == qubit.Addr || q.State != StatePurif || q.PurifRounds != qubit.PurifRounds || q.PathID != entry.PathID {
			return false
		}
		pair := f.memory.Pair(q)
		return pair != nil && (pair.Src == partner || pair.Dst == partner)
	})
	if len(candidates) == 0 {
		logrus.Debugf("forwarder[%s]: no candidate EPR for segment %s-%s purif round %d", f.node, segA, segB, qubit.PurifRounds+1)
		return
	}
	f.sendPurifSolicit(sim, qubit, candidates[0], entry, partner)
}

func (f *Forwarder) sendPurifSolicit(sim *Simulator, kept, aux *MemoryQubit, entry *FibEntry, partner NodeID) {
	keptPair, ok1 := f.memory.Read(sim, kept, false, 0)
	auxPair, ok2 := f.memory.Read(sim, aux, true, f.decoherenceRate)
	if !ok1 || !ok2 {
		return
	}
	logrus.Debugf("forwarder[%s]: request purif qubit %d (F=%.4f) and %d (F=%.4f) with partner %s",
		f.node, kept.Addr, keptPair.Fidelity, aux.Addr, auxPair.Fidelity, partner)

	kept.transition(StatePending)
	f.releaseQubit(sim, aux)

	f.net.SendClassical(sim, f.node, partner, PurifSolicitMsg{
		Dest: partner, PathID: entry.PathID, PurifNode: f.node, Partner: partner,
		EPR: keptPair.Name, MeasureEPR: auxPair.Name, Round: kept.PurifRounds,
	})
}

// HandlePurifSolicit runs on the partner side of a purification round.
func (f *Forwarder) HandlePurifSolicit(sim *Simulator, from NodeID, msg PurifSolicitMsg) {
	if f.ForwardIfNotMine(sim, msg) {
		return
	}
	entry := f.fib.Get(msg.PathID)
	kept := f.memory.FindByEPRName(msg.EPR)
	measured := f.memory.FindByEPRName(msg.MeasureEPR)
	if entry == nil || kept == nil || measured == nil {
		logrus.Debugf("forwarder[%s]: purif solicit references decohered state, discarding", f.node)
		return
	}

	keptPair, _ := f.memory.Read(sim, kept, false, 0)
	measuredPair, _ := f.memory.Read(sim, measured, true, f.decoherenceRate)

	result := keptPair.Purify(measuredPair, f.net.RNGForForwarder(f.node))
	logrus.Debugf("forwarder[%s]: purif %s on qubit %d (F=%.4f) round %d with primary %s",
		f.node, succFail(result), kept.Addr, keptPair.Fidelity, kept.PurifRounds+1, msg.PurifNode)

	if result {
		f.memory.Update(kept, keptPair)
		f.cnt.incrementPurif(kept.PurifRounds)
		kept.PurifRounds++
		kept.transition(StatePurif)
		f.qubitIsPurif(sim, kept, entry, msg.PurifNode)
	} else {
		f.memory.Read(sim, kept, true, f.decoherenceRate)
		f.releaseQubit(sim, kept)
	}
	f.releaseQubit(sim, measured)

	f.net.SendClassical(sim, f.node, msg.PurifNode, PurifResponseMsg{
		Dest: msg.PurifNode, PathID: msg.PathID, PurifNode: msg.PurifNode, Partner: f.node,
		EPR: msg.EPR, MeasureEPR: msg.MeasureEPR, Round: msg.Round, Result: result,
	})
}

// HandlePurifResponse runs on the primary side, reconciling the outcome of a
// round it solicited.
func (f *Forwarder) HandlePurifResponse(sim *Simulator, from NodeID, msg PurifResponseMsg) {
	if f.ForwardIfNotMine(sim, msg) {
		return
	}
	entry := f.fib.Get(msg.PathID)
	slot := f.memory.FindByEPRName(msg.EPR)
	if entry == nil || slot == nil {
		logrus.Debugf("forwarder[%s]: purif response for decohered EPR %s, discarding", f.node, msg.EPR)
		return
	}

	if !msg.Result {
		f.memory.Read(sim, slot, true, f.decoherenceRate)
		f.releaseQubit(sim, slot)
		return
	}

	f.cnt.incrementPurif(slot.PurifRounds)
	slot.PurifRounds++
	slot.transition(StatePurif)
	f.qubitIsPurif(sim, slot, entry, msg.Partner)
}

// qubitIsEligible either consumes the pair (this node is an endpoint, or
// swapping is disabled for the path) or looks for a swap candidate.
func (f *Forwarder) qubitIsEligible(sim *Simulator, qubit *MemoryQubit, entry *FibEntry) {
	if f.timingMode == TimingSync && f.syncPhase != SignalInternal {
		logrus.Debugf("forwarder[%s]: INTERNAL phase over, stop swaps", f.node)
		return
	}

	pair := f.memory.Pair(qubit)
	if pair == nil {
		return
	}
	if f.canConsume(entry, pair) {
		f.consumeAndRelease(sim, qubit)
		return
	}

	partner, partnerEntry, ok := f.mux.FindSwapCandidate(f.memory, f.fib, qubit, entry, f.isolatePaths)
	if ok {
		f.doSwapping(sim, qubit, partner, entry, partnerEntry)
	}
}

func (f *Forwarder) canConsume(entry *FibEntry, pair *Entanglement) bool {
	if entry == nil {
		return f.fib.HasRequestEndpoints(pair.Src, pair.Dst)
	}
	return entry.SwapDisabled() || entry.IsEndpoint()
}

func (f *Forwarder) consumeAndRelease(sim *Simulator, qubit *MemoryQubit) {
	pair, ok := f.memory.Read(sim, qubit, true, f.decoherenceRate)
	if !ok {
		return
	}
	logrus.Debugf("forwarder[%s]: consume EPR %s: %s-%s F=%.4f", f.node, pair.Name, pair.Src, pair.Dst, pair.Fidelity)
	f.cnt.NConsumed++
	f.cnt.ConsumedSumFidelity += pair.Fidelity
	f.releaseQubit(sim, qubit)
}

type swapLeg struct {
	partner NodeID
	qubit   *MemoryQubit
	pair    *Entanglement
	entry   *FibEntry
}

// doSwapping performs entanglement swapping between two ELIGIBLE qubits from
// different qchannels, notifying both partners of the outcome.
func (f *Forwarder) doSwapping(sim *Simulator, q0, q1 *MemoryQubit, entry0, entry1 *FibEntry) {
	var prev, next *swapLeg
	for i, q := range [2]*MemoryQubit{q0, q1} {
		entry := entry0
		if i == 1 {
			entry = entry1
		}
		pair, ok := f.memory.Read(sim, q, true, f.decoherenceRate)
		if !ok {
			continue
		}
		if pair.CandidatePaths == nil && q.TmpPathIDs != nil {
			pair.CandidatePaths = q.TmpPathIDs
		}
		leg := &swapLeg{qubit: q, pair: pair, entry: entry}
		switch {
		case pair.Dst == f.node:
			leg.partner = pair.Src
			prev = leg
		case pair.Src == f.node:
			leg.partner = pair.Dst
			next = leg
		default:
			logrus.Fatalf("forwarder[%s]: swapping EPR %s: neither end is this node", f.node, pair.Name)
		}
	}
	if prev == nil || next == nil {
		return
	}

	if len(prev.pair.OrigEPRs) == 1 {
		prev.pair.ChIndex = prev.entry.OwnIdx - 1
	}
	if len(next.pair.OrigEPRs) == 1 {
		next.pair.ChIndex = next.entry.OwnIdx
	}

	rng := f.net.RNGForForwarder(f.node)
	newPair, ok := prev.pair.Swap(next.pair, f.ps, rng)
	logrus.Debugf("forwarder[%s]: swap %s | %d x %d", f.node, succFail(ok), prev.qubit.Addr, next.qubit.Addr)

	if ok {
		f.cnt.NSwappedS++
		newPair.Src, newPair.Dst = prev.partner, next.partner
		f.mux.SwappingSucceeded(newPair, prev.pair, next.pair)

		if !routeContains(prev.entry.Route, prev.partner) || !routeContains(next.entry.Route, next.partner) {
			logrus.Fatalf("forwarder[%s]: conflicting parallel swap with non-isolated paths", f.node)
		}

		if _, prevRank, ok2 := prev.entry.NeighborIndex(prev.partner); ok2 && prev.entry.OwnRank() == prevRank {
			f.parallelSwappings[prev.pair.Name] = parallelSwap{shared: prev.pair, other: next.pair, merged: newPair}
		}
		if _, nextRank, ok2 := next.entry.NeighborIndex(next.partner); ok2 && next.entry.OwnRank() == nextRank {
			f.parallelSwappings[next.pair.Name] = parallelSwap{shared: next.pair, other: prev.pair, merged: newPair}
		}
	}

	legs := [2]struct {
		partner NodeID
		oldPair *Entanglement
		newPart NodeID
		entry   *FibEntry
	}{
		{prev.partner, prev.pair, next.partner, prev.entry},
		{next.partner, next.pair, prev.partner, next.entry},
	}
	for _, leg := range legs {
		var newEPR string
		if ok {
			newEPR = newPair.Name
			f.publishRemoteSwap(leg.partner, newPair)
		}
		f.net.SendClassical(sim, f.node, leg.partner, SwapUpdateMsg{
			Dest: leg.partner, PathID: leg.entry.PathID, SwappingNode: f.node,
			Partner: leg.newPart, EPR: leg.oldPair.Name, NewEPR: newEPR,
		})
	}

	f.releaseQubit(sim, prev.qubit)
	f.releaseQubit(sim, next.qubit)
}

func (f *Forwarder) publishRemoteSwap(partner NodeID, pair *Entanglement) {
	if peer := f.net.forwarder(partner); peer != nil {
		peer.remoteSwappedEPRs[pair.Name] = pair
	}
}

// HandleSwapUpdate processes a notification that a neighbor swapped (or
// failed to swap) an EPR this node shares with it.
func (f *Forwarder) HandleSwapUpdate(sim *Simulator, from NodeID, msg SwapUpdateMsg) {
	if f.ForwardIfNotMine(sim, msg) {
		return
	}
	if f.timingMode == TimingSync && f.syncPhase != SignalInternal {
		logrus.Debugf("forwarder[%s]: INTERNAL phase over, stop swaps", f.node)
		return
	}
	entry := f.fib.Get(msg.PathID)
	if entry == nil {
		logrus.Debugf("forwarder[%s]: swap update for unknown path %s, discarding", f.node, msg.PathID)
		return
	}

	_, senderRank, ok := entry.NeighborIndex(msg.SwappingNode)
	if !ok {
		logrus.Debugf("forwarder[%s]: swap update from non-route node %s, discarding", f.node, msg.SwappingNode)
		return
	}
	if entry.OwnRank() < senderRank {
		logrus.Debugf("forwarder[%s]: swap update from higher-rank node, discarding", f.node)
		return
	}

	var newPair *Entanglement
	if msg.NewEPR != "" {
		newPair = f.remoteSwappedEPRs[msg.NewEPR]
		delete(f.remoteSwappedEPRs, msg.NewEPR)
	}

	if slot := f.memory.FindByEPRName(msg.EPR); slot != nil {
		if slot.State == StateEntangled {
			if newPair != nil {
				f.remoteSwappedEPRs[msg.NewEPR] = newPair
			}
			f.waitingSU[slot.Addr] = pendingSwapUpdate{msg: msg, fib: entry}
			return
		}
		delete(f.parallelSwappings, msg.EPR)
		f.resolveSequentialSwapUpdate(sim, msg, entry, slot, newPair, entry.OwnRank() > senderRank)
		return
	}

	if parallel, ok := f.parallelSwappings[msg.EPR]; ok && entry.OwnRank() == senderRank {
		f.resolveParallelSwapUpdate(sim, msg, entry, newPair, parallel)
		return
	}

	logrus.Debugf("forwarder[%s]: EPR %s decohered during swap update transmission", f.node, msg.EPR)
}

// resolveSwapUpdate replays, from HandleQubitEntangled, a SwapUpdate that
// HandleSwapUpdate deferred because the local slot hadn't finished
// processing its own entanglement notification yet when the update arrived.
func (f *Forwarder) resolveSwapUpdate(sim *Simulator, msg SwapUpdateMsg, entry *FibEntry, slot *MemoryQubit) {
	_, senderRank, _ := entry.NeighborIndex(msg.SwappingNode)
	var newPair *Entanglement
	if msg.NewEPR != "" {
		newPair = f.remoteSwappedEPRs[msg.NewEPR]
		delete(f.remoteSwappedEPRs, msg.NewEPR)
	}
	delete(f.parallelSwappings, msg.EPR)
	f.resolveSequentialSwapUpdate(sim, msg, entry, slot, newPair, entry.OwnRank() > senderRank)
}

func (f *Forwarder) resolveSequentialSwapUpdate(sim *Simulator, msg SwapUpdateMsg, entry *FibEntry, slot *MemoryQubit, newPair *Entanglement, maybePurif bool) {
	if newPair == nil || !newPair.DecoherenceTime.After(sim.Now()) {
		if newPair != nil {
			logrus.Debugf("forwarder[%s]: new EPR %s decohered during swap update transmission", f.node, newPair.Name)
		}
		f.memory.Read(sim, slot, true, f.decoherenceRate)
		f.releaseQubit(sim, slot)
		return
	}

	if !f.memory.Update(slot, newPair) {
		logrus.Fatalf("forwarder[%s]: EPR update failed old=%s new=%s", f.node, msg.EPR, newPair.Name)
	}

	if maybePurif {
		slot.PurifRounds = 0
		slot.transition(StatePurif)
		f.qubitIsPurif(sim, slot, entry, msg.Partner)
	}
}

// resolveParallelSwapUpdate reconciles a SwapUpdate arriving for an EPR this
// node already swapped away in parallel with the sender, merging the two
// swaps (which already happened physically) and relaying the combined
// outcome toward the far destination.
func (f *Forwarder) resolveParallelSwapUpdate(sim *Simulator, msg SwapUpdateMsg, entry *FibEntry, newPair *Entanglement, parallel parallelSwap) {
	delete(f.parallelSwappings, msg.EPR)

	if f.mux.SUParallelAvoidConflict(parallel.merged, msg.PathID) {
		return
	}

	if newPair == nil || !newPair.DecoherenceTime.After(sim.Now()) {
		destination := parallel.other.Dst
		if parallel.other.Dst == f.node {
			destination = parallel.other.Src
		}
		f.net.SendClassical(sim, f.node, destination, SwapUpdateMsg{
			Dest: destination, PathID: msg.PathID, SwappingNode: msg.SwappingNode,
			Partner: msg.Partner, EPR: parallel.merged.Name,
		})
		return
	}

	rng := f.net.RNGForForwarder(f.node)
	merged, ok := newPair.Swap(parallel.other, 1, rng)

	var partner, destination NodeID
	if parallel.other.Dst == f.node {
		if ok {
			merged.Src, merged.Dst = parallel.other.Src, newPair.Dst
		}
		partner, destination = newPair.Dst, parallel.other.Src
	} else {
		if ok {
			merged.Src, merged.Dst = newPair.Src, parallel.other.Dst
		}
		partner, destination = newPair.Src, parallel.other.Dst
	}

	if ok {
		f.cnt.NSwappedP++
		f.mux.SUParallelSucceeded(merged, newPair, parallel.other)
		f.publishRemoteSwap(destination, merged)
	}

	var newEPRName string
	if ok {
		newEPRName = merged.Name
	}
	f.net.SendClassical(sim, f.node, destination, SwapUpdateMsg{
		Dest: destination, PathID: msg.PathID, SwappingNode: msg.SwappingNode,
		Partner: partner, EPR: parallel.merged.Name, NewEPR: newEPRName,
	})

	if _, pRank, ok2 := entry.NeighborIndex(partner); ok2 && entry.OwnRank() == pRank && ok {
		f.parallelSwappings[newPair.Name] = parallelSwap{shared: newPair, other: parallel.other, merged: merged}
	}
}

func (f *Forwarder) releaseQubit(sim *Simulator, slot *MemoryQubit) {
	qchannel := slot.QChannel
	if ll := f.net.linkLayer(f.node); ll != nil {
		ll.HandleQubitReleased(sim, slot, qchannel)
	}
}

// ForwardIfNotMine forwards msg one hop closer to its addressee along the
// FIB route when this node isn't the final destination. It returns false
// when the message is addressed to this node, so the caller proceeds with
// local handling, and true when the message was forwarded or, for a path
// missing from the FIB, discarded; the caller then stops processing it.
func (f *Forwarder) ForwardIfNotMine(sim *Simulator, msg ClassicMessage) bool {
	dest := msg.messageDest()
	if dest == f.node {
		return false
	}
	entry := f.fib.Get(messagePathID(msg))
	if entry == nil {
		logrus.Debugf("forwarder[%s]: cannot forward message for unknown path, discarding", f.node)
		return true
	}
	destIdx := -1
	for i, n := range entry.Route {
		if n == dest {
			destIdx = i
			break
		}
	}
	var nextHop NodeID
	if destIdx > entry.OwnIdx {
		nextHop = entry.Route[entry.OwnIdx+1]
	} else {
		nextHop = entry.Route[entry.OwnIdx-1]
	}
	logrus.Debugf("forwarder[%s]: forwarding message for %s via %s", f.node, dest, nextHop)
	f.net.SendClassical(sim, f.node, nextHop, msg)
	return true
}

func messagePathID(msg ClassicMessage) PathID {
	switch m := msg.(type) {
	case InstallPathMsg:
		return m.PathID
	case SwapUpdateMsg:
		return m.PathID
	case PurifSolicitMsg:
		return m.PathID
	case PurifResponseMsg:
		return m.PathID
	default:
		return ""
	}
}

func succFail(ok bool) string {
	if ok {
		return "SUCCESS"
	}
	return "FAILED"
}

func routeContains(route []NodeID, node NodeID) bool {
	for _, n := range route {
		if n == node {
			return true
		}
	}
	return false
}
