package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwappingOrder_TableLookup(t *testing.T) {
	v, err := swappingOrder("asap", 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 0, 1}, v)
}

func TestSwappingOrder_RawPolicyNameTakesPriority(t *testing.T) {
	v, err := swappingOrder("no_swap", 0)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0}, v)

	v, err = swappingOrder("swap_1", 0)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 1}, v)
}

func TestSwappingOrder_SynthesizesUntabulatedLength(t *testing.T) {
	v, err := swappingOrder("l2r", 6)
	require.NoError(t, err)
	require.Len(t, v, 8)
	assert.Equal(t, 7, v[0])
	assert.Equal(t, 7, v[len(v)-1])
}

func TestSwappingOrder_SynthesizesR2L(t *testing.T) {
	v, err := swappingOrder("r2l", 6)
	require.NoError(t, err)
	require.Len(t, v, 8)
	assert.Equal(t, 7, v[0])
	assert.Equal(t, 7, v[len(v)-1])
}

func TestSwappingOrder_UnknownPolicyErrors(t *testing.T) {
	_, err := swappingOrder("bogus", 6)
	assert.Error(t, err)
}

func TestController_InstallPath_NoRouteErrors(t *testing.T) {
	net := NewNetwork(NewSimulationKey(1))
	router := NewGraphRouter(1)
	router.AddEdge("node1", "node2", 1)
	// node3 is never added to the router, so no route exists to it.
	c := NewController(net, router, nil)

	sim := NewSimulator(0, 1, DefaultAccuracy)
	err := c.InstallPath(sim, PathRequest{ReqID: "r1", PathID: "p1", Src: "node1", Dst: "node3", Policy: "asap"})
	assert.Error(t, err)
}

func TestController_ComputeMV_FollowQChannelLeavesZero(t *testing.T) {
	c := NewController(nil, nil, nil)
	mv := c.computeMV([]NodeID{"a", "b", "c"}, AllocFollowQChannel)
	for _, hop := range mv {
		assert.Equal(t, 0, hop.Left)
		assert.Equal(t, 0, hop.Right)
	}
}

func TestController_ComputeMV_MinCapacitySplitsEvenly(t *testing.T) {
	c := NewController(nil, nil, map[NodeID]int{"a": 10, "b": 4, "c": 10})
	mv := c.computeMV([]NodeID{"a", "b", "c"}, AllocMinCapacity)
	for _, hop := range mv {
		assert.Equal(t, 2, hop.Left)
		assert.Equal(t, 2, hop.Right)
	}
}
