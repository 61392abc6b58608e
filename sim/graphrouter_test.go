package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphRouter_Query_ShortestPath(t *testing.T) {
	r := NewGraphRouter(1)
	r.AddEdge("node1", "node2", 10)
	r.AddEdge("node2", "node3", 10)
	r.AddEdge("node1", "node3", 100)

	candidates, err := r.Query("node1", "node3")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, []string{"node1", "node2", "node3"}, candidates[0].Route)
	assert.Equal(t, 20.0, candidates[0].Metric)
}

func TestGraphRouter_Query_KShortestPaths(t *testing.T) {
	r := NewGraphRouter(2)
	r.AddEdge("node1", "node2", 10)
	r.AddEdge("node2", "node3", 10)
	r.AddEdge("node1", "node3", 25)

	candidates, err := r.Query("node1", "node3")
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.LessOrEqual(t, candidates[0].Metric, candidates[1].Metric)
}

func TestGraphRouter_Query_UnknownNodeErrors(t *testing.T) {
	r := NewGraphRouter(1)
	r.AddEdge("node1", "node2", 1)

	_, err := r.Query("node1", "ghost")
	assert.Error(t, err)
}

func TestGraphRouter_Query_NoPathReturnsEmpty(t *testing.T) {
	r := NewGraphRouter(1)
	r.AddEdge("node1", "node2", 1)
	r.AddEdge("node3", "node4", 1)

	candidates, err := r.Query("node1", "node3")
	require.NoError(t, err)
	assert.Empty(t, candidates)
}
