package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineTopology_Build_ProducesChain(t *testing.T) {
	topo := LineTopology{N: 4, LengthKM: 5, Bandwidth: 1, MaxBufferSize: 1, DropRate: 0, DecoherenceRate: 0.1}

	nodes, qchannels := topo.Build()
	require.Len(t, nodes, 4)
	require.Len(t, qchannels, 3)

	assert.Equal(t, NodeID("node1"), nodes[0])
	assert.Equal(t, NodeID("node4"), nodes[3])

	for i, qc := range qchannels {
		assert.Equal(t, nodes[i], qc.Node1)
		assert.Equal(t, nodes[i+1], qc.Node2)
		assert.Equal(t, 5.0, qc.LengthKM)
	}
}

func TestLineTopology_Build_SingleNodeHasNoChannels(t *testing.T) {
	topo := LineTopology{N: 1}
	nodes, qchannels := topo.Build()
	assert.Len(t, nodes, 1)
	assert.Empty(t, qchannels)
}
