package crypto

import (
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/proof"
	"golang.org/x/xerrors"
)

// BalanceProof shows that blank − votedSum − rest = δ·P, i.e. the three
// commitments agree on the committed value and differ only in blinding.
type BalanceProof struct {
	Proof []byte
}

func balancePredicate() proof.Predicate {
	return proof.Rep("D", "delta", "P")
}

// BalanceDifference returns blank − votedSum − rest.
func BalanceDifference(votedSum, rest, blank kyber.Point) kyber.Point {
	d := Suite.Point().Sub(blank, votedSum)
	return d.Sub(d, rest)
}

func balanceStatement(votedSum, rest, blank, pollPoint kyber.Point) (map[string]kyber.Point, string, error) {
	label, err := statementLabel(balanceDomain, pollPoint, votedSum, rest, blank)
	if err != nil {
		return nil, "", err
	}
	points := map[string]kyber.Point{
		"D": BalanceDifference(votedSum, rest, blank),
		"P": pollPoint,
	}
	return points, label, nil
}

// ProveBalance takes delta, the blank blinding minus all voted and rest
// blindings. Honest splitting makes it zero.
func ProveBalance(votedSum, rest, blank, pollPoint kyber.Point, delta kyber.Scalar) (*BalanceProof, error) {
	if delta == nil {
		return nil, xerrors.New("balance proof: nil delta")
	}
	points, label, err := balanceStatement(votedSum, rest, blank, pollPoint)
	if err != nil {
		return nil, err
	}
	p, err := hashProve(balancePredicate(), label, points, map[string]kyber.Scalar{"delta": delta}, nil)
	if err != nil {
		return nil, err
	}
	return &BalanceProof{Proof: p}, nil
}

func VerifyBalance(votedSum, rest, blank, pollPoint kyber.Point, bp *BalanceProof) error {
	if bp == nil {
		return xerrors.New("balance proof: missing")
	}
	points, label, err := balanceStatement(votedSum, rest, blank, pollPoint)
	if err != nil {
		return err
	}
	return hashVerify(balancePredicate(), label, points, bp.Proof)
}
