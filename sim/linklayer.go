package sim

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat/distuv"
)

// LinkLayerConfig bundles the physical parameters behind elementary
// entanglement generation.
type LinkLayerConfig struct {
	AlphaDBPerKM    float64 // fiber loss, dB/km
	EtaS, EtaD      float64 // source / detector efficiency
	AttemptRate     float64 // reservation-attempt rate, Hz
	Frequency       float64 // source attempt-reset frequency, Hz
	InitFidelity    float64
	LightSpeedKMs   float64 // speed of light in fiber, km/s
	DecoherenceRate float64
}

type pendingReservation struct {
	qchannel QChannelID
	neighbor NodeID
	slot     *MemoryQubit
	key      string
}

type reservationRequest struct {
	fromNode NodeID
	pathID   PathID
	key      string
}

// LinkLayer produces elementary EPR pairs across its node's active quantum
// channels, one reservation at a time per assigned memory slot, on behalf of
// the forwarder. Node1 of a QuantumChannel is always the reservation initiator
// ("primary"); Node2 is the responder ("secondary").
type LinkLayer struct {
	node   NodeID
	memory *QuantumMemory
	cfg    LinkLayerConfig
	net    *Network

	forwarder *Forwarder

	active               map[QChannelID]bool
	pendingByKey         map[string]*pendingReservation
	fifoByChannel        map[QChannelID][]reservationRequest
}

// NewLinkLayer builds a LinkLayer for node, backed by mem.
func NewLinkLayer(node NodeID, mem *QuantumMemory, cfg LinkLayerConfig, net *Network) *LinkLayer {
	return &LinkLayer{
		node:          node,
		memory:        mem,
		cfg:           cfg,
		net:           net,
		active:        make(map[QChannelID]bool),
		pendingByKey:  make(map[string]*pendingReservation),
		fifoByChannel: make(map[QChannelID][]reservationRequest),
	}
}

// ActiveChannels returns the IDs of every channel currently marked active.
func (ll *LinkLayer) ActiveChannels() []QChannelID {
	out := make([]QChannelID, 0, len(ll.active))
	for id := range ll.active {
		out = append(out, id)
	}
	return out
}

func (ll *LinkLayer) isPrimary(qc *QuantumChannel) bool {
	return qc.Node1 == ll.node
}

func (ll *LinkLayer) neighborOn(qc *QuantumChannel) NodeID {
	if qc.Node1 == ll.node {
		return qc.Node2
	}
	return qc.Node1
}

// ValidateChannel rejects a channel whose length exceeds the coherence
// window: it could never deliver before decohering. Setup-time
// configuration error, surfaced to the caller rather than discovered at run
// time.
func (ll *LinkLayer) ValidateChannel(qc *QuantumChannel, coherenceSeconds float64) error {
	if qc.LengthKM >= 2*ll.cfg.LightSpeedKMs*coherenceSeconds {
		return fmt.Errorf("linklayer: channel %s length %.3fkm too long for coherence window %.3fs", qc.ID, qc.LengthKM, coherenceSeconds)
	}
	return nil
}

// HandleManageActiveChannels activates (or deactivates) qc. On activation at
// the primary (Node1) side, every free local slot already assigned to qc gets
// a reservation attempt scheduled, staggered by 1/AttemptRate so simultaneous
// slots don't all fire on the same tick; the secondary side only marks the
// channel active.
func (ll *LinkLayer) HandleManageActiveChannels(sim *Simulator, qc *QuantumChannel, add bool) {
	if !add {
		delete(ll.active, qc.ID)
		return
	}
	ll.active[qc.ID] = true
	if !ll.isPrimary(qc) {
		return
	}
	stagger := 0.0
	if ll.cfg.AttemptRate > 0 {
		stagger = 1 / ll.cfg.AttemptRate
	}
	i := 0
	for _, slot := range ll.memory.Find(func(q *MemoryQubit) bool {
		return q.QChannel == qc.ID && q.pair == nil && q.Active == ""
	}) {
		at := sim.Now().Add(float64(i) * stagger)
		slot := slot
		sim.Schedule(NewFuncEvent(at, EventTypeStartReservation, sim.NextEventID(), func(s *Simulator) {
			ll.startReservation(s, qc, slot)
		}))
		i++
	}
}

// startReservation is run by the primary side: it claims slot, synthesizes
// a unique key, and sends ReserveQubit to the neighbor.
func (ll *LinkLayer) startReservation(sim *Simulator, qc *QuantumChannel, slot *MemoryQubit) {
	if slot.pair != nil || slot.Active != "" {
		return
	}
	neighbor := ll.neighborOn(qc)
	key := fmt.Sprintf("%s-%s-%s-%d", ll.node, neighbor, slot.PathID, slot.Addr)
	if _, exists := ll.pendingByKey[key]; exists {
		panic(fmt.Sprintf("linklayer: duplicate reservation key %q", key))
	}
	slot.Active = key
	ll.pendingByKey[key] = &pendingReservation{qchannel: qc.ID, neighbor: neighbor, slot: slot, key: key}

	ll.net.SendClassical(sim, ll.node, neighbor, ReserveQubitMsg{Dest: neighbor, PathID: slot.PathID, Key: key})
}

// HandleReserveQubit runs on the secondary side. If a free local slot for
// pathID exists, it is claimed and ReserveQubitOK is returned; otherwise the
// request is queued FIFO for when a slot frees up.
func (ll *LinkLayer) HandleReserveQubit(sim *Simulator, qc *QuantumChannel, from NodeID, msg ReserveQubitMsg) {
	slot := ll.memory.FreeForReservation(qc.ID, msg.PathID)
	if slot == nil {
		ll.fifoByChannel[qc.ID] = append(ll.fifoByChannel[qc.ID], reservationRequest{fromNode: from, pathID: msg.PathID, key: msg.Key})
		return
	}
	slot.Active = msg.Key
	ll.net.SendClassical(sim, ll.node, from, ReserveQubitOKMsg{Dest: from, PathID: msg.PathID, Key: msg.Key})
}

// HandleReserveQubitOK runs on the primary side: it starts the heralding
// process for the pending reservation matching msg.Key.
func (ll *LinkLayer) HandleReserveQubitOK(sim *Simulator, qc *QuantumChannel, msg ReserveQubitOKMsg) {
	pending, ok := ll.pendingByKey[msg.Key]
	if !ok {
		logrus.Debugf("linklayer[%s]: ReserveQubitOK for unknown key %q, discarding", ll.node, msg.Key)
		return
	}
	ll.beginHeralding(sim, qc, pending)
}

// beginHeralding samples the skip-ahead geometric attempt count and
// schedules the single successful-attempt event directly; failed attempts
// are never materialized.
func (ll *LinkLayer) beginHeralding(sim *Simulator, qc *QuantumChannel, pending *pendingReservation) {
	tau := qc.LengthKM / ll.cfg.LightSpeedKMs
	p := heraldingSuccessProb(ll.cfg.AlphaDBPerKM, ll.cfg.EtaS, ll.cfg.EtaD, qc.LengthKM)

	rng := ll.net.RNGFor(qc)
	geom := distuv.Geometric{P: p, Src: rngSource{rng}}
	k := int(geom.Rand()) + 1

	resetTime := 1.0
	if ll.cfg.Frequency > 0 {
		resetTime = 1 / ll.cfg.Frequency
	}
	attemptDuration := math.Max(5.5*tau, resetTime)
	tSuccess := float64(k-1)*attemptDuration + 4*tau

	at := sim.Now().Add(tSuccess)
	sim.Schedule(NewFuncEvent(at, EventTypeHeralded, sim.NextEventID(), func(s *Simulator) {
		ll.onHeraldedSuccess(s, qc, pending, k, tau)
	}))
}

// heraldingSuccessProb computes p = 0.5 * etaS^2 * etaD^2 * 10^(-alpha*L/10).
func heraldingSuccessProb(alphaDBPerKM, etaS, etaD, lengthKM float64) float64 {
	p := 0.5 * etaS * etaS * etaD * etaD * math.Pow(10, -alphaDBPerKM*lengthKM/10)
	if p <= 0 {
		return 1e-12
	}
	if p > 1 {
		return 1
	}
	return p
}

func (ll *LinkLayer) onHeraldedSuccess(sim *Simulator, qc *QuantumChannel, pending *pendingReservation, attempts int, tau float64) {
	delete(ll.pendingByKey, pending.key)

	name := fmt.Sprintf("epr-%d", sim.NextEventID())
	pair := &Entanglement{
		Name:            name,
		Fidelity:        ll.cfg.InitFidelity,
		Src:             ll.node,
		Dst:             pending.neighbor,
		CreationTime:    sim.Now().Add(-4 * tau),
		DecoherenceTime: sim.Now().Add(-4*tau + 1/nonZero(ll.cfg.DecoherenceRate)),
		PathID:          pending.slot.PathID,
		OrigEPRs:        []string{name},
	}

	ll.memory.Write(sim, ll, pending.slot, pair)

	secondaryPair := *pair
	rng := ll.net.RNGFor(qc)
	_ = qc.Send(sim, rng, ll.node, pending.neighbor, &secondaryPair, func(s *Simulator, pkt QubitPacket) {
		peer := ll.net.linkLayer(pending.neighbor)
		if peer != nil {
			peer.HandleQubitArrival(s, qc, pending.key, pkt)
		}
	})

	notifyAt := sim.Now().Add(tau)
	sim.Schedule(NewFuncEvent(notifyAt, EventTypeQubitEntangled, sim.NextEventID(), func(s *Simulator) {
		if ll.forwarder != nil {
			ll.forwarder.HandleQubitEntangled(s, pending.slot, pending.neighbor)
		}
	}))
}

// HandleQubitArrival runs on the secondary side when the peer's half of a
// freshly-heralded pair arrives. It is stored in the slot this side reserved
// under key, or in a free slot for the pair's path when no such slot is
// found. A pair that already decohered in flight (see QuantumChannel.Send's
// uniform drop-marking) is stored anyway — the FSM and the forwarder treat it
// the same as any other pair whose DecoherenceTime has already passed.
func (ll *LinkLayer) HandleQubitArrival(sim *Simulator, qc *QuantumChannel, key string, pkt QubitPacket) {
	var slot *MemoryQubit
	if reserved := ll.memory.Find(func(q *MemoryQubit) bool {
		return q.QChannel == qc.ID && q.pair == nil && q.Active == key
	}); len(reserved) > 0 {
		slot = reserved[0]
	} else {
		slot = ll.memory.FreeForReservation(qc.ID, pkt.Pair.PathID)
	}
	if slot == nil {
		logrus.Debugf("linklayer[%s]: no slot for arriving qubit on %s, discarding", ll.node, qc.ID)
		return
	}
	ll.memory.Write(sim, ll, slot, pkt.Pair)
	if ll.forwarder != nil {
		ll.forwarder.HandleQubitEntangled(sim, slot, pkt.Src)
	}
}

// HandleQubitDecohered restarts generation if this node is primary for the
// qubit's channel; otherwise it frees the reservation slot and tries to
// satisfy a queued FIFO request.
func (ll *LinkLayer) HandleQubitDecohered(sim *Simulator, slot *MemoryQubit, qchannel QChannelID) {
	slot.Active = ""
	qc := ll.net.quantumChannel(qchannel)
	if qc == nil {
		return
	}
	if ll.isPrimary(qc) {
		sim.Schedule(NewFuncEvent(sim.Now(), EventTypeStartReservation, sim.NextEventID(), func(s *Simulator) {
			ll.startReservation(s, qc, slot)
		}))
		return
	}
	ll.fulfillQueued(sim, qc, slot)
}

// HandleQubitReleased is the forwarder-driven counterpart of
// HandleQubitDecohered: a slot released after consumption or a failed swap
// restarts generation the same way.
func (ll *LinkLayer) HandleQubitReleased(sim *Simulator, slot *MemoryQubit, qchannel QChannelID) {
	ll.HandleQubitDecohered(sim, slot, qchannel)
}

func (ll *LinkLayer) fulfillQueued(sim *Simulator, qc *QuantumChannel, slot *MemoryQubit) {
	queue := ll.fifoByChannel[qc.ID]
	for i, req := range queue {
		if slot.PathID != "" && slot.PathID != req.pathID {
			continue
		}
		slot.Active = req.key
		ll.fifoByChannel[qc.ID] = append(append([]reservationRequest{}, queue[:i]...), queue[i+1:]...)
		ll.net.SendClassical(sim, ll.node, req.fromNode, ReserveQubitOKMsg{Dest: req.fromNode, PathID: req.pathID, Key: req.key})
		return
	}
}

func nonZero(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}

// rngSource adapts *rand.Rand to gonum's distuv.Rander source interface.
type rngSource struct {
	rng interface{ Float64() float64 }
}

func (s rngSource) Uint64() uint64 {
	return uint64(s.rng.Float64() * (1 << 63))
}
