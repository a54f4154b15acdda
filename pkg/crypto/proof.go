package crypto

import (
	"encoding/hex"

	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/proof"
	"golang.org/x/crypto/sha3"
	"golang.org/x/xerrors"
)

// Domain tags keep transcripts of different proof kinds apart.
const (
	rangeDomain   = "boundedvote/range"
	formatDomain  = "boundedvote/format"
	balanceDomain = "boundedvote/balance"
)

// statementLabel derives the Fiat-Shamir protocol name from the public
// statement. proof.HashProve only absorbs prover messages, so the statement
// points have to enter the transcript through the label.
func statementLabel(domain string, points ...kyber.Point) (string, error) {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(domain))
	for i, p := range points {
		if p == nil {
			return "", xerrors.Errorf("%s statement: nil point at position %d", domain, i)
		}
		if _, err := p.MarshalTo(h); err != nil {
			return "", err
		}
	}
	return domain + "/" + hex.EncodeToString(h.Sum(nil)), nil
}

// hashProve runs the predicate prover non-interactively.
func hashProve(pred proof.Predicate, label string, points map[string]kyber.Point,
	secrets map[string]kyber.Scalar, choice map[proof.Predicate]int) ([]byte, error) {
	prover := pred.Prover(Suite, secrets, points, choice)
	p, err := proof.HashProve(Suite, label, prover)
	if err != nil {
		return nil, xerrors.Errorf("ZKP proof generation failed: %w", err)
	}
	return p, nil
}

func hashVerify(pred proof.Predicate, label string, points map[string]kyber.Point, p []byte) error {
	if len(p) == 0 {
		return xerrors.New("empty proof")
	}
	verifier := pred.Verifier(Suite, points)
	if err := proof.HashVerify(Suite, label, verifier, p); err != nil {
		return xerrors.Errorf("ZKP verification failed: %w", err)
	}
	return nil
}
