package sim

import (
	"fmt"
	"math"
	"math/rand"
)

// Entanglement is a Werner-state EPR pair: the single opaque physics
// primitive the protocol stack depends on. Swap and Purify are the only two
// operations that touch fidelity; everything above this file treats fidelity
// as a black box.
type Entanglement struct {
	Name string

	Fidelity float64
	Src, Dst NodeID

	CreationTime    Time
	DecoherenceTime Time

	// ChIndex is the elementary-link index along the eventual end-to-end
	// path; set once, the first time the pair participates in a swap.
	ChIndex int
	// OrigEPRs names the elementary pairs merged into this one so far.
	OrigEPRs []string

	PathID PathID

	// CandidatePaths is the statistical mux's per-pair candidate-path set,
	// narrowed by intersection at each swap; unused under buffer-space mux.
	CandidatePaths map[PathID]bool
}

// wernerParameter converts a Werner fidelity to the underlying mixing
// parameter p, where F = (3p+1)/4.
func wernerParameter(f float64) float64 {
	return (4*f - 1) / 3
}

func fidelityFromParameter(p float64) float64 {
	f := (3*p + 1) / 4
	return clampFidelity(f)
}

func clampFidelity(f float64) float64 {
	if f < 0.25 {
		return 0.25
	}
	if f > 1 {
		return 1
	}
	return f
}

// Swap performs entanglement swapping between this pair (the "prev" leg,
// toward the left partner) and other (the "next" leg, toward the right
// partner), as the repeater node sitting between them would. With
// probability ps a merged pair is returned whose fidelity follows the
// standard Werner-parameter recursion; otherwise ok is false and the swap
// produced nothing.
func (e *Entanglement) Swap(other *Entanglement, ps float64, rng *rand.Rand) (*Entanglement, bool) {
	if rng.Float64() >= ps {
		return nil, false
	}

	p1, p2 := wernerParameter(e.Fidelity), wernerParameter(other.Fidelity)
	newFidelity := fidelityFromParameter(p1 * p2)

	creation := e.CreationTime
	decoherence := e.DecoherenceTime
	if other.CreationTime.Before(creation) {
		creation = other.CreationTime
	}
	if other.DecoherenceTime.Before(decoherence) {
		decoherence = other.DecoherenceTime
	}

	merged := &Entanglement{
		Name:            fmt.Sprintf("%s+%s", e.Name, other.Name),
		Fidelity:        newFidelity,
		Src:             e.Src,
		Dst:             other.Dst,
		CreationTime:    creation,
		DecoherenceTime: decoherence,
		ChIndex:         e.ChIndex,
		OrigEPRs:        append(append([]string{}, e.OrigEPRs...), other.OrigEPRs...),
		PathID:          e.PathID,
	}
	return merged, true
}

// Purify runs one round of the BBPSSW recurrence protocol between this pair
// (kept) and other (measured/sacrificed). On success, the receiver's
// fidelity is updated in place and Purify returns true; on failure the pair
// is left unusable and Purify returns false. The caller releases the measured
// pair either way, and the kept pair only on failure.
func (e *Entanglement) Purify(other *Entanglement, rng *rand.Rand) bool {
	p1, p2 := wernerParameter(e.Fidelity), wernerParameter(other.Fidelity)
	successProb := (1 + p1*p2) / 2
	if rng.Float64() >= successProb {
		return false
	}
	newP := (p1 + p2) / (1 + p1*p2)
	e.Fidelity = fidelityFromParameter(newP)
	return true
}

// TransferErrorModel applies a fiber-transit fidelity penalty for a pair
// that spent elapsedSeconds in flight across a channel with the given
// decoherence rate.
func (e *Entanglement) TransferErrorModel(elapsedSeconds, decoherenceRate float64) *Entanglement {
	return e.decay(elapsedSeconds * decoherenceRate)
}

// StoreErrorModel applies a storage-duration fidelity penalty for a pair
// that sat in memory for elapsedSeconds before being read.
func (e *Entanglement) StoreErrorModel(elapsedSeconds, decoherenceRate float64) *Entanglement {
	return e.decay(elapsedSeconds * decoherenceRate)
}

// decay shrinks the Werner parameter geometrically with the given dose,
// modeling gradual depolarization rather than a hard cutoff; the hard cutoff
// is DecoherenceTime, checked by callers before any of this ever runs.
func (e *Entanglement) decay(dose float64) *Entanglement {
	if dose <= 0 {
		return e
	}
	p := wernerParameter(e.Fidelity)
	e.Fidelity = fidelityFromParameter(p * math.Exp(-dose))
	return e
}
