package abv

import (
	"boundedvote/pkg/crypto"

	"go.dedis.ch/kyber/v3"
)

// PaddingValue is the value committed by every padding entry, under a zero
// blinding. Prover and verifier must agree on it.
const PaddingValue = 0

// PaddingCommitment is PaddingValue·G1 + 0·P, the group identity.
func PaddingCommitment() kyber.Point {
	return crypto.Suite.Point().Null()
}

// NextPowerOfTwo returns the smallest power of two that is >= n (1 for n <= 1).
func NextPowerOfTwo(n int) int {
	m := 1
	for m < n {
		m <<= 1
	}
	return m
}

// PadCommitments extends the list to the next power of two with padding
// commitments. The aggregated range proof only handles power-of-two batches.
func PadCommitments(commitments []kyber.Point) []kyber.Point {
	target := NextPowerOfTwo(len(commitments))
	for len(commitments) < target {
		commitments = append(commitments, PaddingCommitment())
	}
	return commitments
}

func padOpenings(openings []crypto.Opening) []crypto.Opening {
	target := NextPowerOfTwo(len(openings))
	for len(openings) < target {
		openings = append(openings, crypto.Opening{
			Value:    PaddingValue,
			Blinding: crypto.Suite.Scalar().Zero(),
		})
	}
	return openings
}
