package crypto

import (
	"fmt"

	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/proof"
	"golang.org/x/xerrors"
)

// RangeBits is the width of the proven range: every committed value lies
// in [0, 2^RangeBits).
const RangeBits = 32

// Opening is the witness behind a commitment Value·G1 + Blinding·P.
type Opening struct {
	Value    uint32
	Blinding kyber.Scalar
}

// RangeProof covers a power-of-two batch of commitments. Each commitment
// is decomposed into RangeBits bit commitments C_j = b_j·G1 + s_j·P with
// Σ 2^j·C_j equal to the commitment, and every bit commitment carries its
// own Or proof that b_j is 0 or 1.
type RangeProof struct {
	BitCommitments [][]kyber.Point
	BitProofs      [][][]byte
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func bitWeight(j int) kyber.Scalar {
	return Suite.Scalar().SetInt64(int64(1) << uint(j))
}

// bitPredicate states that C opens to 0 or D = C − G1 opens to 0, both
// over P. kyber only accepts Or at the top level of a predicate, so
// every bit is proven on its own.
var bitPredicate = proof.Or(proof.Rep("C", "s", "P"), proof.Rep("D", "s", "P"))

func bitPoints(pollPoint, c kyber.Point) map[string]kyber.Point {
	return map[string]kyber.Point{
		"P": pollPoint,
		"C": c,
		"D": Suite.Point().Sub(c, G1),
	}
}

// batchLabel binds every bit proof to the whole batch; bitLabel then adds
// the bit's position so proofs cannot be moved between bits.
func batchLabel(pollPoint kyber.Point, commitments []kyber.Point, bits [][]kyber.Point) (string, error) {
	statement := []kyber.Point{pollPoint, G1}
	statement = append(statement, commitments...)
	for _, row := range bits {
		statement = append(statement, row...)
	}
	return statementLabel(rangeDomain, statement...)
}

func bitLabel(batch string, i, j int) string {
	return fmt.Sprintf("%s/%d/%d", batch, i, j)
}

// ProveAggregatedRange proves that every commitment opens to a value in
// range. The batch size must be a power of two; callers pad beforehand.
func ProveAggregatedRange(pollPoint kyber.Point, commitments []kyber.Point, openings []Opening) (*RangeProof, error) {
	n := len(commitments)
	if n != len(openings) {
		return nil, xerrors.Errorf("range proof: %d commitments but %d openings", n, len(openings))
	}
	if !IsPowerOfTwo(n) {
		return nil, xerrors.Errorf("range proof: batch size %d is not a power of two", n)
	}

	bits := make([][]kyber.Point, n)
	blindings := make([][]kyber.Scalar, n)
	for i, o := range openings {
		if o.Blinding == nil {
			return nil, xerrors.Errorf("range proof: nil blinding for commitment %d", i)
		}
		bits[i] = make([]kyber.Point, RangeBits)
		blindings[i] = make([]kyber.Scalar, RangeBits)

		// The low bit absorbs whatever is left so the weighted sum of bit
		// blindings equals the commitment blinding.
		rest := Suite.Scalar().Set(o.Blinding)
		for j := 1; j < RangeBits; j++ {
			s := RandomScalar()
			blindings[i][j] = s
			rest.Sub(rest, Suite.Scalar().Mul(bitWeight(j), s))
		}
		blindings[i][0] = rest

		for j := 0; j < RangeBits; j++ {
			c := Suite.Point().Mul(blindings[i][j], pollPoint)
			if (o.Value>>uint(j))&1 == 1 {
				c.Add(c, G1)
			}
			bits[i][j] = c
		}
	}

	batch, err := batchLabel(pollPoint, commitments, bits)
	if err != nil {
		return nil, err
	}
	proofs := make([][][]byte, n)
	for i, o := range openings {
		proofs[i] = make([][]byte, RangeBits)
		for j := 0; j < RangeBits; j++ {
			secrets := map[string]kyber.Scalar{"s": blindings[i][j]}
			choice := map[proof.Predicate]int{bitPredicate: int((o.Value >> uint(j)) & 1)}
			p, err := hashProve(bitPredicate, bitLabel(batch, i, j), bitPoints(pollPoint, bits[i][j]), secrets, choice)
			if err != nil {
				return nil, xerrors.Errorf("range proof: bit %d of commitment %d: %w", j, i, err)
			}
			proofs[i][j] = p
		}
	}
	return &RangeProof{BitCommitments: bits, BitProofs: proofs}, nil
}

// VerifyAggregatedRange checks a RangeProof against the padded commitment list.
func VerifyAggregatedRange(pollPoint kyber.Point, commitments []kyber.Point, rp *RangeProof) error {
	if rp == nil {
		return xerrors.New("range proof: missing")
	}
	n := len(commitments)
	if !IsPowerOfTwo(n) {
		return xerrors.Errorf("range proof: batch size %d is not a power of two", n)
	}
	if len(rp.BitCommitments) != n || len(rp.BitProofs) != n {
		return xerrors.Errorf("range proof: covers %d/%d commitments, expected %d",
			len(rp.BitCommitments), len(rp.BitProofs), n)
	}

	for i, row := range rp.BitCommitments {
		if len(row) != RangeBits || len(rp.BitProofs[i]) != RangeBits {
			return xerrors.Errorf("range proof: commitment %d has %d bits and %d proofs, expected %d",
				i, len(row), len(rp.BitProofs[i]), RangeBits)
		}
		if commitments[i] == nil {
			return xerrors.Errorf("range proof: nil commitment %d", i)
		}
		sum := Suite.Point().Null()
		for j, c := range row {
			if c == nil {
				return xerrors.Errorf("range proof: nil bit commitment %d/%d", i, j)
			}
			sum.Add(sum, Suite.Point().Mul(bitWeight(j), c))
		}
		if !sum.Equal(commitments[i]) {
			return xerrors.Errorf("range proof: bit decomposition of commitment %d does not match", i)
		}
	}

	batch, err := batchLabel(pollPoint, commitments, rp.BitCommitments)
	if err != nil {
		return err
	}
	for i, row := range rp.BitCommitments {
		for j, c := range row {
			if err := hashVerify(bitPredicate, bitLabel(batch, i, j), bitPoints(pollPoint, c), rp.BitProofs[i][j]); err != nil {
				return xerrors.Errorf("range proof: bit %d of commitment %d: %w", j, i, err)
			}
		}
	}
	return nil
}
