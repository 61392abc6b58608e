package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFibEntry_IsEndpoint(t *testing.T) {
	entry := &FibEntry{Route: []NodeID{"a", "b", "c"}, OwnIdx: 0}
	assert.True(t, entry.IsEndpoint())

	entry.OwnIdx = 2
	assert.True(t, entry.IsEndpoint())

	entry.OwnIdx = 1
	assert.False(t, entry.IsEndpoint())
}

func TestFibEntry_SwapDisabled(t *testing.T) {
	entry := &FibEntry{Swap: []int{0, 0, 0}}
	assert.True(t, entry.SwapDisabled())

	entry.Swap = []int{1, 0, 1}
	assert.False(t, entry.SwapDisabled())
}

func TestFibEntry_NeighborIndex(t *testing.T) {
	entry := &FibEntry{Route: []NodeID{"a", "b", "c"}, Swap: []int{1, 0, 1}}

	idx, rank, ok := entry.NeighborIndex("b")
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, 0, rank)

	_, _, ok = entry.NeighborIndex("z")
	assert.False(t, ok)
}

func TestFibEntry_PurifRounds_OrderIndependent(t *testing.T) {
	entry := &FibEntry{Purif: map[string]int{"a-b": 2}}
	assert.Equal(t, 2, entry.PurifRounds("a", "b"))
	assert.Equal(t, 2, entry.PurifRounds("b", "a"))
	assert.Equal(t, 0, entry.PurifRounds("a", "c"))
}

func TestFIB_InsertOrReplace_ReplacesSamePathDifferentRequest(t *testing.T) {
	fib := NewFIB()
	fib.InsertOrReplace(&FibEntry{PathID: "p1", ReqID: "r1"})
	fib.InsertOrReplace(&FibEntry{PathID: "p1", ReqID: "r2"})

	assert.Equal(t, ReqID("r2"), fib.Get("p1").ReqID)
	assert.Empty(t, fib.ListByRequest("r1"))
	assert.Equal(t, []PathID{"p1"}, fib.ListByRequest("r2"))
}

func TestFIB_Erase_RemovesFromRequestIndex(t *testing.T) {
	fib := NewFIB()
	fib.InsertOrReplace(&FibEntry{PathID: "p1", ReqID: "r1"})
	fib.Erase("p1")

	assert.Nil(t, fib.Get("p1"))
	assert.Empty(t, fib.ListByRequest("r1"))
}

func TestFIB_HasRequestEndpoints_EitherOrder(t *testing.T) {
	fib := NewFIB()
	fib.InsertOrReplace(&FibEntry{PathID: "p1", ReqID: "r1", Route: []NodeID{"a", "b", "c"}})

	assert.True(t, fib.HasRequestEndpoints("a", "c"))
	assert.True(t, fib.HasRequestEndpoints("c", "a"))
	assert.False(t, fib.HasRequestEndpoints("a", "b"))
}
