package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// SimulationKey uniquely identifies a reproducible simulation run. Two runs
// with the same SimulationKey and identical scenario configuration must
// produce bit-for-bit identical counters and fidelities.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

const (
	// SubsystemController is the RNG subsystem for routing-controller
	// decisions (k-shortest-path tie-breaking, statistical-mux path choice).
	// Uses the master seed directly for backward compatibility with
	// single-seed reproduction of a whole run.
	SubsystemController = "controller"
)

// SubsystemLinkLayer returns the RNG subsystem name for the link layer
// serving the given quantum channel. Each channel's heralding process is
// isolated so that adding or removing an unrelated channel never perturbs
// another channel's attempt sequence.
func SubsystemLinkLayer(qchannel QChannelID) string {
	return fmt.Sprintf("linklayer_%s", qchannel)
}

// SubsystemForwarder returns the RNG subsystem name for the forwarder at the
// given node (swap and purification outcome draws).
func SubsystemForwarder(node NodeID) string {
	return fmt.Sprintf("forwarder_%s", node)
}

// SubsystemChannel returns the RNG subsystem name for a channel's own
// Bernoulli drop and delay sampling, isolated from the link layer's
// heralding RNG that rides over the same physical channel.
func SubsystemChannel(id string) string {
	return fmt.Sprintf("channel_%s", id)
}

// PartitionedRNG provides deterministic, isolated RNG instances per
// subsystem, derived from a single master seed.
//
// Derivation: masterSeed XOR fnv1a64(subsystemName), except for
// SubsystemController which uses the master seed directly.
//
// Not safe for concurrent use; the simulator is single-threaded so every
// caller already runs on the simulator goroutine.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named
// subsystem. The same name always returns the same *rand.Rand (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}

	var derivedSeed int64
	if name == SubsystemController {
		derivedSeed = int64(p.key)
	} else {
		derivedSeed = int64(p.key) ^ fnv1a64(name)
	}

	rng := rand.New(rand.NewSource(derivedSeed))
	p.subsystems[name] = rng
	return rng
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
