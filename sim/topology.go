package sim

import "fmt"

// Topology builds a network's node and quantum-channel shape. It is the
// simulator core's other injected interface, alongside Router: the core
// never generates a topology itself, only consumes one.
type Topology interface {
	Build() (nodes []NodeID, qchannels []*QuantumChannel)
}

// LineTopology builds a chain of n nodes named node1..nodeN, connected by
// n-1 quantum channels sharing the given physical parameters.
type LineTopology struct {
	N               int
	LengthKM        float64
	Bandwidth       float64
	MaxBufferSize   float64
	DropRate        float64
	DecoherenceRate float64
}

// Build implements Topology.
func (t LineTopology) Build() ([]NodeID, []*QuantumChannel) {
	nodes := make([]NodeID, t.N)
	for i := range nodes {
		nodes[i] = NodeID(fmt.Sprintf("node%d", i+1))
	}
	qchannels := make([]*QuantumChannel, 0, t.N-1)
	for i := 0; i+1 < t.N; i++ {
		id := QChannelID(fmt.Sprintf("l%d", i+1))
		qchannels = append(qchannels, NewQuantumChannel(id, nodes[i], nodes[i+1],
			t.LengthKM, t.Bandwidth, t.MaxBufferSize, t.DropRate, t.DecoherenceRate, nil))
	}
	return nodes, qchannels
}
