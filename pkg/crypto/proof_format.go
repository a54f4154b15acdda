package crypto

import (
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/proof"
	"golang.org/x/xerrors"
)

// FormatProof shows that (C1, C2) = (r·P + v·G1, r·G2) for one r and some v.
type FormatProof struct {
	Proof []byte
}

func formatPredicate() proof.Predicate {
	return proof.And(
		proof.Rep("C1", "r", "P", "v", "G1"),
		proof.Rep("C2", "r", "G2"),
	)
}

func formatStatement(c1, c2, pollPoint kyber.Point) (map[string]kyber.Point, string, error) {
	label, err := statementLabel(formatDomain, pollPoint, G1, G2, c1, c2)
	if err != nil {
		return nil, "", err
	}
	points := map[string]kyber.Point{"C1": c1, "C2": c2, "P": pollPoint, "G1": G1, "G2": G2}
	return points, label, nil
}

// ProveFormat proves that c1 and c2 share the blinding scalar.
func ProveFormat(c1, c2, pollPoint kyber.Point, value uint32, blinding kyber.Scalar) (*FormatProof, error) {
	if blinding == nil {
		return nil, xerrors.New("format proof: nil blinding")
	}
	points, label, err := formatStatement(c1, c2, pollPoint)
	if err != nil {
		return nil, err
	}
	secrets := map[string]kyber.Scalar{"r": blinding, "v": ScalarFromUint32(value)}
	p, err := hashProve(formatPredicate(), label, points, secrets, nil)
	if err != nil {
		return nil, err
	}
	return &FormatProof{Proof: p}, nil
}

func VerifyFormat(c1, c2, pollPoint kyber.Point, fp *FormatProof) error {
	if fp == nil {
		return xerrors.New("format proof: missing")
	}
	points, label, err := formatStatement(c1, c2, pollPoint)
	if err != nil {
		return err
	}
	return hashVerify(formatPredicate(), label, points, fp.Proof)
}
