package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoNodeConfig() *NetworkConfig {
	cfg := DefaultConfig()
	cfg.Duration = 0.01
	node := func(name NodeID) NodeConfig {
		return NodeConfig{
			Name:            name,
			MemoryCapacity:  4,
			Mux:             MuxBufferSpace,
			SwapProbability: 1.0,
			AlphaDBPerKM:    0.2,
			EtaSource:       0.9,
			EtaDetector:     0.9,
			AttemptRate:     1e6,
			Frequency:       1e6,
			InitFidelity:    0.95,
			LightSpeedKMs:   2e5,
			DecoherenceRate: 10,
		}
	}
	cfg.Nodes = []NodeConfig{node("node1"), node("node2")}
	cfg.QChannels = []QChannelConfig{
		{ID: "l1", Node1: "node1", Node2: "node2", LengthKM: 1, Bandwidth: 1e9, MaxBufferSize: 1e9, DecoherenceRate: 1},
	}
	cfg.CChannels = []CChannelConfig{
		{ID: "c1", Node1: "node1", Node2: "node2", Bandwidth: 1e9, MaxBufferSize: 1e9},
		{ID: "ctrl1", Node2: "node1", Bandwidth: 1e9, MaxBufferSize: 1e9},
		{ID: "ctrl2", Node2: "node2", Bandwidth: 1e9, MaxBufferSize: 1e9},
	}
	cfg.Controller.Requests = []PathRequestSpec{
		{ReqID: "r1", PathID: "p1", Src: "node1", Dst: "node2", Policy: "asap"},
	}
	return cfg
}

func TestBuildNetwork_ConstructsRunnableSimulator(t *testing.T) {
	cfg := twoNodeConfig()

	sim, net, controller, err := BuildNetwork(cfg)
	require.NoError(t, err)
	require.NotNil(t, sim)
	require.NotNil(t, controller)

	assert.ElementsMatch(t, []NodeID{"node1", "node2"}, net.Nodes())
	assert.NotNil(t, net.Forwarder("node1"))
	assert.NotNil(t, net.Forwarder("node2"))
}

func TestBuildNetwork_RunProducesMetrics(t *testing.T) {
	cfg := twoNodeConfig()

	sim, net, _, err := BuildNetwork(cfg)
	require.NoError(t, err)

	sim.Run()

	metrics := CollectMetrics(net)
	assert.Contains(t, metrics.PerNode, NodeID("node1"))
	assert.Contains(t, metrics.PerNode, NodeID("node2"))
	assert.NotEmpty(t, metrics.Report())

	// Buffer-space mux qubits must actually be assigned to the channel at
	// build time, or no elementary entanglement is ever generated.
	assert.Greater(t, metrics.PerNode["node1"].NEntg, 0)
	assert.Greater(t, metrics.PerNode["node2"].NEntg, 0)
}

func TestAssignMemorySlots_HonorsPerEndCapacity(t *testing.T) {
	mem := NewQuantumMemory("node1", 4)
	channel := NewQuantumChannel("l1", "node1", "node2", 1, 1e9, 1e9, 0, 1, nil)
	channel.Node1Capacity = 2

	assignMemorySlots(mem, channel, "node1")

	got := mem.Find(func(q *MemoryQubit) bool { return q.QChannel == "l1" })
	assert.Len(t, got, 2)
}

func TestAssignMemorySlots_ZeroCapacityTakesEverySlot(t *testing.T) {
	mem := NewQuantumMemory("node1", 4)
	channel := NewQuantumChannel("l1", "node1", "node2", 1, 1e9, 1e9, 0, 1, nil)

	assignMemorySlots(mem, channel, "node1")

	got := mem.Find(func(q *MemoryQubit) bool { return q.QChannel == "l1" })
	assert.Len(t, got, 4)
}

func TestBuildNetwork_InvalidConfigFails(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Nodes = []NodeConfig{{Name: "node1", MemoryCapacity: 0}}

	_, _, _, err := BuildNetwork(cfg)
	assert.Error(t, err)
}
