package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntanglement_Swap_MergesEndpointsAndOrigEPRs(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	left := &Entanglement{Name: "a", Fidelity: 0.9, Src: "n1", Dst: "n2", OrigEPRs: []string{"a"}}
	right := &Entanglement{Name: "b", Fidelity: 0.9, Src: "n2", Dst: "n3", OrigEPRs: []string{"b"}}

	merged, ok := left.Swap(right, 1.0, rng)
	assert.True(t, ok)
	assert.Equal(t, NodeID("n1"), merged.Src)
	assert.Equal(t, NodeID("n3"), merged.Dst)
	assert.ElementsMatch(t, []string{"a", "b"}, merged.OrigEPRs)
	assert.Less(t, merged.Fidelity, left.Fidelity, "swapping two imperfect pairs must not raise fidelity")
}

func TestEntanglement_Swap_FailureReturnsNil(t *testing.T) {
	// ps = 0: every rng draw is >= ps, so the swap fails whatever the seed.
	rng := rand.New(rand.NewSource(1))
	left := &Entanglement{Name: "a", Fidelity: 0.9}
	right := &Entanglement{Name: "b", Fidelity: 0.9}

	merged, ok := left.Swap(right, 0.0, rng)
	assert.False(t, ok)
	assert.Nil(t, merged)
}

func TestEntanglement_Purify_RaisesFidelityOnSuccess(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	kept := &Entanglement{Fidelity: 0.7}
	sacrificed := &Entanglement{Fidelity: 0.7}

	before := kept.Fidelity
	ok := kept.Purify(sacrificed, rng)
	if ok {
		assert.Greater(t, kept.Fidelity, before)
	}
}

func TestEntanglement_Decay_ZeroDoseIsNoOp(t *testing.T) {
	e := &Entanglement{Fidelity: 0.8}
	e.TransferErrorModel(0, 0.5)
	assert.Equal(t, 0.8, e.Fidelity)
}

func TestEntanglement_Decay_ShrinksFidelityTowardMaximallyMixed(t *testing.T) {
	e := &Entanglement{Fidelity: 0.99}
	e.StoreErrorModel(10, 1.0)
	assert.Less(t, e.Fidelity, 0.99)
	assert.GreaterOrEqual(t, e.Fidelity, 0.25, "fidelity must never drop below the maximally-mixed floor")
}

func TestClampFidelity_Bounds(t *testing.T) {
	assert.Equal(t, 0.25, clampFidelity(0))
	assert.Equal(t, 1.0, clampFidelity(1.5))
	assert.Equal(t, 0.6, clampFidelity(0.6))
}

func TestWernerParameter_RoundTrip(t *testing.T) {
	f := 0.83
	p := wernerParameter(f)
	assert.InDelta(t, f, fidelityFromParameter(p), 1e-9)
}
