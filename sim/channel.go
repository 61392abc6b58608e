package sim

import (
	"errors"
	"math/rand"
)

// ErrNextHopNotConnected is returned when Send's destination is not one of
// the channel's two endpoints.
var ErrNextHopNotConnected = errors.New("sim: destination is not connected to this channel")

// wireSend is the bandwidth/buffer/drop/delay logic shared by classical and
// quantum channels. It returns the simulated arrival time and whether the
// packet should actually be delivered (false means silently dropped).
type wireSend struct {
	bandwidth     float64 // units/s; 0 = unlimited
	maxBufferSize float64 // units; 0 = unlimited
	dropRate      float64
	delay         DelayModel
	extraDelay    float64

	nextAvailable Time // next tick the channel is clear to accept a send
}

func (w *wireSend) send(sim *Simulator, rng *rand.Rand, size float64) (arrival Time, delivered bool) {
	now := sim.Now()

	if w.bandwidth > 0 && w.maxBufferSize > 0 {
		bufferSeconds := w.maxBufferSize / w.bandwidth
		deadline := now.Add(bufferSeconds)
		if w.nextAvailable.Ticks > 0 && w.nextAvailable.After(deadline) {
			return Time{}, false
		}
	}

	txTime := 0.0
	if w.bandwidth > 0 {
		txTime = size / w.bandwidth
	}
	start := now
	if w.nextAvailable.Ticks > now.Ticks {
		start = w.nextAvailable
	}
	w.nextAvailable = start.Add(txTime)

	if w.dropRate > 0 && rng.Float64() < w.dropRate {
		return Time{}, false
	}

	delaySeconds := w.extraDelay
	if w.delay != nil {
		delaySeconds += w.delay.Sample(rng)
	}
	return start.Add(delaySeconds), true
}

// ClassicPacket carries one classical protocol message between two nodes.
type ClassicPacket struct {
	Msg      ClassicMessage
	Src, Dst NodeID
}

// ClassicChannel connects exactly two nodes with bandwidth, buffering, and
// drop behavior, but no transfer error model (classical bits don't decohere).
type ClassicChannel struct {
	ID           CChannelID
	Node1, Node2 NodeID

	wire wireSend
}

// NewClassicChannel builds a classical channel between two nodes.
func NewClassicChannel(id CChannelID, n1, n2 NodeID, bandwidth, maxBufferSize, dropRate float64, delay DelayModel) *ClassicChannel {
	return &ClassicChannel{
		ID: id, Node1: n1, Node2: n2,
		wire: wireSend{bandwidth: bandwidth, maxBufferSize: maxBufferSize, dropRate: dropRate, delay: delay},
	}
}

func (c *ClassicChannel) otherEnd(dst NodeID) (NodeID, error) {
	switch dst {
	case c.Node1:
		return c.Node1, nil
	case c.Node2:
		return c.Node2, nil
	default:
		return "", ErrNextHopNotConnected
	}
}

// Send schedules delivery of msg from src to dst, invoking deliver with the
// packet once it arrives. A dropped packet never calls deliver.
func (c *ClassicChannel) Send(sim *Simulator, rng *rand.Rand, src, dst NodeID, msg ClassicMessage, size float64, deliver func(*Simulator, ClassicPacket)) error {
	if _, err := c.otherEnd(dst); err != nil {
		return err
	}
	arrival, ok := c.wire.send(sim, rng, size)
	if !ok {
		return nil
	}
	pkt := ClassicPacket{Msg: msg, Src: src, Dst: dst}
	sim.Schedule(NewFuncEvent(arrival, EventTypeClassicArrival, sim.NextEventID(), func(s *Simulator) {
		deliver(s, pkt)
	}))
	return nil
}

// QuantumChannel additionally models photon loss on the wire: a dropped
// qubit has its pair marked decohered (the in-flight half is unusable)
// rather than being silently discarded, so every downstream handler treats
// a lost qubit the same way it treats one that decohered in storage.
type QuantumChannel struct {
	ID           QChannelID
	Node1, Node2 NodeID
	LengthKM     float64

	// Node1Capacity/Node2Capacity are the number of local memory slots each
	// end has assigned to this channel; 0 means "use every slot assigned".
	Node1Capacity, Node2Capacity int

	DecoherenceRate float64

	wire wireSend
}

// NewQuantumChannel builds a quantum channel between two nodes.
func NewQuantumChannel(id QChannelID, n1, n2 NodeID, lengthKM, bandwidth, maxBufferSize, dropRate, decoherenceRate float64, delay DelayModel) *QuantumChannel {
	return &QuantumChannel{
		ID: id, Node1: n1, Node2: n2, LengthKM: lengthKM, DecoherenceRate: decoherenceRate,
		wire: wireSend{bandwidth: bandwidth, maxBufferSize: maxBufferSize, dropRate: dropRate, delay: delay},
	}
}

func (c *QuantumChannel) otherEnd(dst NodeID) (NodeID, error) {
	switch dst {
	case c.Node1:
		return c.Node1, nil
	case c.Node2:
		return c.Node2, nil
	default:
		return "", ErrNextHopNotConnected
	}
}

// CapacityFor returns this channel's assigned slot capacity on the side of
// the given node, or 0 ("use every assigned slot") if node is neither end.
func (c *QuantumChannel) CapacityFor(node NodeID) int {
	switch node {
	case c.Node1:
		return c.Node1Capacity
	case c.Node2:
		return c.Node2Capacity
	default:
		return 0
	}
}

// QubitPacket carries one half of an EPR pair across a quantum channel.
type QubitPacket struct {
	Pair     *Entanglement
	Src, Dst NodeID
}

// Send transmits pair from src to dst. deliver is invoked on arrival, with
// the transfer error model already applied, unless the photon is dropped —
// in which case the pair is marked decohered (DecoherenceTime set to now)
// and deliver is still invoked, so the receiving memory write path sees a
// pair that is already unusable rather than nothing arriving at all.
func (c *QuantumChannel) Send(sim *Simulator, rng *rand.Rand, src, dst NodeID, pair *Entanglement, deliver func(*Simulator, QubitPacket)) error {
	if _, err := c.otherEnd(dst); err != nil {
		return err
	}
	arrival, ok := c.wire.send(sim, rng, 1)
	if !ok {
		pair.DecoherenceTime = sim.Now()
		sim.Schedule(NewFuncEvent(sim.Now(), EventTypeQubitArrival, sim.NextEventID(), func(s *Simulator) {
			deliver(s, QubitPacket{Pair: pair, Src: src, Dst: dst})
		}))
		return nil
	}
	elapsed := arrival.Sub(sim.Now())
	pair.TransferErrorModel(elapsed, c.DecoherenceRate)
	sim.Schedule(NewFuncEvent(arrival, EventTypeQubitArrival, sim.NextEventID(), func(s *Simulator) {
		deliver(s, QubitPacket{Pair: pair, Src: src, Dst: dst})
	}))
	return nil
}
