package sim

import (
	"math/rand"

	"github.com/sirupsen/logrus"
)

// classicMessageSize is the nominal size (in wireSend's bandwidth units)
// charged for every control message; the protocol carries no payload large
// enough to make message size worth modeling per message type.
const classicMessageSize = 1.0

// controllerNodeID is the sentinel source address stamped on packets sent
// over a controller-to-node channel; no handler inspects it, since InstallPath
// and its siblings carry their own addressing in the message body.
const controllerNodeID NodeID = "__controller__"

type nodeState struct {
	linkLayer *LinkLayer
	forwarder *Forwarder
}

// TimingMode selects how the network paces entanglement generation and
// swapping across nodes.
type TimingMode int

const (
	TimingAsync TimingMode = iota
	TimingLSync
	TimingSync
)

// SignalType distinguishes the two alternating phases of SYNC timing.
type SignalType int

const (
	SignalExternal SignalType = iota
	SignalInternal
)

type nodePair [2]NodeID

func makeNodePair(a, b NodeID) nodePair {
	if a > b {
		a, b = b, a
	}
	return nodePair{a, b}
}

// Network is the topology container: it owns every node's link layer and
// forwarder, every channel, and the single PartitionedRNG the whole run
// draws from. Nothing in the protocol stack holds a direct pointer to
// another node's state; every cross-node interaction is resolved through
// Network's lookup methods, so the wiring can be rebuilt from a scenario
// file without touching the protocol code.
type Network struct {
	nodes map[NodeID]*nodeState

	quantumChannels map[QChannelID]*QuantumChannel
	classicChannels map[CChannelID]*ClassicChannel

	quantumBetween map[nodePair]*QuantumChannel
	classicBetween map[nodePair]*ClassicChannel

	// controllerChannels are the controller's dedicated classical links to
	// every node on a route, separate from the node-to-node fabric: the
	// controller is a control-plane participant, not a topology node, so it
	// never occupies a nodePair slot.
	controllerChannels map[NodeID]*ClassicChannel

	controller *Controller

	rng *PartitionedRNG
}

// StartTimingSignals schedules the self-repeating housekeeping events for
// mode. ASYNC schedules nothing: entanglement and swapping simply run as
// events occur. LSYNC clears every node's memory and restarts every active
// channel every tSlot seconds. SYNC alternates EXTERNAL (tExt seconds) and
// INTERNAL (tInt seconds) phases, broadcasting each transition to every
// forwarder.
func (n *Network) StartTimingSignals(sim *Simulator, mode TimingMode, tSlot, tExt, tInt float64) {
	switch mode {
	case TimingLSync:
		n.scheduleLSyncTick(sim, tSlot)
	case TimingSync:
		n.scheduleSyncPhase(sim, SignalExternal, tExt, tInt)
	}
}

func (n *Network) scheduleLSyncTick(sim *Simulator, tSlot float64) {
	sim.Schedule(NewFuncEvent(sim.Now().Add(tSlot), EventTypeExternalStart, sim.NextEventID(), func(s *Simulator) {
		for _, st := range n.nodes {
			if st.forwarder != nil {
				st.forwarder.memory.Clear()
			}
			if st.linkLayer != nil {
				for _, qid := range st.linkLayer.ActiveChannels() {
					if qc := n.quantumChannel(qid); qc != nil {
						st.linkLayer.HandleManageActiveChannels(s, qc, true)
					}
				}
			}
		}
		n.scheduleLSyncTick(s, tSlot)
	}))
}

func (n *Network) scheduleSyncPhase(sim *Simulator, phase SignalType, tExt, tInt float64) {
	next := SignalInternal
	eventType := EventTypeInternalStart
	duration := tExt
	if phase == SignalInternal {
		next = SignalExternal
		eventType = EventTypeExternalStart
		duration = tInt
	}
	sim.Schedule(NewFuncEvent(sim.Now().Add(duration), eventType, sim.NextEventID(), func(s *Simulator) {
		for _, st := range n.nodes {
			if st.forwarder != nil {
				st.forwarder.HandleSyncSignal(s, next)
			}
		}
		n.scheduleSyncPhase(s, next, tExt, tInt)
	}))
}

// NewNetwork creates an empty Network seeded by key.
func NewNetwork(key SimulationKey) *Network {
	return &Network{
		nodes:              make(map[NodeID]*nodeState),
		quantumChannels:    make(map[QChannelID]*QuantumChannel),
		classicChannels:    make(map[CChannelID]*ClassicChannel),
		quantumBetween:     make(map[nodePair]*QuantumChannel),
		classicBetween:     make(map[nodePair]*ClassicChannel),
		controllerChannels: make(map[NodeID]*ClassicChannel),
		rng:                NewPartitionedRNG(key),
	}
}

func (n *Network) node(id NodeID) *nodeState {
	st, ok := n.nodes[id]
	if !ok {
		st = &nodeState{}
		n.nodes[id] = st
	}
	return st
}

// AttachLinkLayer registers ll as the link layer running at its node.
func (n *Network) AttachLinkLayer(ll *LinkLayer) {
	n.node(ll.node).linkLayer = ll
}

// AttachForwarder registers f as the forwarder running at its node.
func (n *Network) AttachForwarder(f *Forwarder) {
	n.node(f.node).forwarder = f
	if ll := n.node(f.node).linkLayer; ll != nil {
		ll.forwarder = f
	}
}

func (n *Network) linkLayer(node NodeID) *LinkLayer {
	if st, ok := n.nodes[node]; ok {
		return st.linkLayer
	}
	return nil
}

func (n *Network) forwarder(node NodeID) *Forwarder {
	if st, ok := n.nodes[node]; ok {
		return st.forwarder
	}
	return nil
}

// Forwarder returns the forwarder running at node, for callers (the CLI's
// final report, tests) that need to read its counters after a run.
func (n *Network) Forwarder(node NodeID) *Forwarder {
	return n.forwarder(node)
}

// Nodes returns every node name registered in the network, in no particular
// order.
func (n *Network) Nodes() []NodeID {
	out := make([]NodeID, 0, len(n.nodes))
	for id := range n.nodes {
		out = append(out, id)
	}
	return out
}

// AddQuantumChannel registers qc and indexes it by its two endpoints.
func (n *Network) AddQuantumChannel(qc *QuantumChannel) {
	n.quantumChannels[qc.ID] = qc
	n.quantumBetween[makeNodePair(qc.Node1, qc.Node2)] = qc
}

// AddClassicChannel registers cc and indexes it by its two endpoints.
func (n *Network) AddClassicChannel(cc *ClassicChannel) {
	n.classicChannels[cc.ID] = cc
	n.classicBetween[makeNodePair(cc.Node1, cc.Node2)] = cc
}

func (n *Network) quantumChannel(id QChannelID) *QuantumChannel {
	return n.quantumChannels[id]
}

func (n *Network) quantumChannelBetween(a, b NodeID) *QuantumChannel {
	return n.quantumBetween[makeNodePair(a, b)]
}

func (n *Network) classicChannelBetween(a, b NodeID) *ClassicChannel {
	return n.classicBetween[makeNodePair(a, b)]
}

// SetController installs the routing controller the forwarders report to.
func (n *Network) SetController(c *Controller) {
	n.controller = c
}

// AddControllerChannel registers the controller's dedicated classical link
// to node.
func (n *Network) AddControllerChannel(node NodeID, cc *ClassicChannel) {
	n.controllerChannels[node] = cc
}

// RNGFor returns the isolated heralding RNG for a quantum channel's link
// layer.
func (n *Network) RNGFor(qc *QuantumChannel) *rand.Rand {
	return n.rng.ForSubsystem(SubsystemLinkLayer(qc.ID))
}

// RNGForForwarder returns the isolated RNG a node's forwarder uses for its
// swap and purification outcome draws.
func (n *Network) RNGForForwarder(node NodeID) *rand.Rand {
	return n.rng.ForSubsystem(SubsystemForwarder(node))
}

// RNGForController returns the controller's RNG (the master seed, for
// backward-compatible single-seed reproduction of a whole run).
func (n *Network) RNGForController() *rand.Rand {
	return n.rng.ForSubsystem(SubsystemController)
}

func (n *Network) rngForChannelWire(id string) *rand.Rand {
	return n.rng.ForSubsystem(SubsystemChannel(id))
}

// SendClassical delivers msg from src to dst over the classical channel
// connecting them, applying that channel's bandwidth/buffer/drop/delay
// model. A message with no classical channel between its endpoints is
// logged and dropped; that is a topology error, not a runtime loss, but the
// protocol handlers never need to distinguish the two.
func (n *Network) SendClassical(sim *Simulator, src, dst NodeID, msg ClassicMessage) {
	cc := n.classicChannelBetween(src, dst)
	if cc == nil {
		logrus.Errorf("network: no classical channel between %s and %s", src, dst)
		return
	}
	rng := n.rngForChannelWire(string(cc.ID))
	qc := n.quantumChannelBetween(src, dst)
	if err := cc.Send(sim, rng, src, dst, msg, classicMessageSize, func(s *Simulator, pkt ClassicPacket) {
		n.deliverClassic(s, qc, pkt)
	}); err != nil {
		logrus.Debugf("network: %T from %s to %s: %v", msg, src, dst, err)
	}
}

// SendFromController delivers msg from the routing controller to dst over
// their dedicated control-plane channel, installed via AddControllerChannel.
func (n *Network) SendFromController(sim *Simulator, dst NodeID, msg ClassicMessage) {
	cc, ok := n.controllerChannels[dst]
	if !ok {
		logrus.Errorf("network: no controller channel to %s", dst)
		return
	}
	rng := n.rngForChannelWire(string(cc.ID))
	if err := cc.Send(sim, rng, controllerNodeID, dst, msg, classicMessageSize, func(s *Simulator, pkt ClassicPacket) {
		n.deliverClassic(s, nil, pkt)
	}); err != nil {
		logrus.Debugf("network: %T from controller to %s: %v", msg, dst, err)
	}
}

// deliverClassic dispatches an arrived classical packet to the handler on
// its destination node. qc is the quantum channel between the same two
// nodes, if any — the link-layer reservation handshake needs it to know
// which channel the request concerns, since the handshake itself always
// travels over the paired classical channel, never the quantum one.
func (n *Network) deliverClassic(sim *Simulator, qc *QuantumChannel, pkt ClassicPacket) {
	switch m := pkt.Msg.(type) {
	case ReserveQubitMsg:
		if ll := n.linkLayer(pkt.Dst); ll != nil && qc != nil {
			ll.HandleReserveQubit(sim, qc, pkt.Src, m)
		}
	case ReserveQubitOKMsg:
		if ll := n.linkLayer(pkt.Dst); ll != nil && qc != nil {
			ll.HandleReserveQubitOK(sim, qc, m)
		}
	case InstallPathMsg:
		if f := n.forwarder(pkt.Dst); f != nil {
			f.HandleInstallPath(sim, m)
		}
	case SwapUpdateMsg:
		if f := n.forwarder(pkt.Dst); f != nil {
			f.HandleSwapUpdate(sim, pkt.Src, m)
		}
	case PurifSolicitMsg:
		if f := n.forwarder(pkt.Dst); f != nil {
			f.HandlePurifSolicit(sim, pkt.Src, m)
		}
	case PurifResponseMsg:
		if f := n.forwarder(pkt.Dst); f != nil {
			f.HandlePurifResponse(sim, pkt.Src, m)
		}
	default:
		logrus.Debugf("network: unhandled classical message type %T addressed to %s", m, pkt.Dst)
	}
}
