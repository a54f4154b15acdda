package abv

import (
	"boundedvote/pkg/crypto"
	"boundedvote/pkg/log"

	"golang.org/x/xerrors"
)

// MakeSystemParameters sums the counters' poll point shares. The caller
// must pass exactly one share per registered counter: a missing or extra
// share silently changes the poll point. Repeated counter IDs and an empty
// set are rejected here.
func MakeSystemParameters(candidates []string, shares []*CounterParameterShare) (*SystemParameters, error) {
	if len(shares) == 0 {
		return nil, xerrors.Errorf("no counter shares: %w", ErrIncompleteAggregation)
	}

	seen := make(map[string]struct{}, len(shares))
	pollPoint := crypto.Suite.Point().Null()
	for i, share := range shares {
		if share == nil || share.PollPointShare == nil {
			return nil, xerrors.Errorf("share %d has no poll point: %w", i, ErrParse)
		}
		if _, dup := seen[share.CounterID]; dup {
			return nil, xerrors.Errorf("counter %s reported twice: %w", share.CounterID, ErrIncompleteAggregation)
		}
		seen[share.CounterID] = struct{}{}
		pollPoint.Add(pollPoint, share.PollPointShare)
	}

	log.Debug("Aggregated %d counter shares over %d candidates", len(shares), len(candidates))
	return &SystemParameters{
		Candidates: append([]string(nil), candidates...),
		PollPoint:  pollPoint,
	}, nil
}

// BallotDigest hashes the encodings of C1 and C2, in that order.
func BallotDigest(h crypto.Hasher, ballot *Ballot) ([]byte, error) {
	if ballot == nil {
		return nil, xerrors.Errorf("missing ballot: %w", ErrParse)
	}
	data, err := crypto.ConcatPoints(ballot.C1, ballot.C2)
	if err != nil {
		return nil, xerrors.Errorf("encoding ballot: %v: %w", err, ErrParse)
	}
	return h.Hash(data), nil
}

// CertifyBoundedVoter issues a blank ballot committing to value under the
// voter's blinded bases and signs it with the coordinator key.
func CertifyBoundedVoter(prims crypto.Primitives, secretKey []byte, value uint32, request *RegistrationRequest) (*RegistrationResponse, error) {
	if request == nil || request.BlindingPollPoint == nil || request.BlindingBasepointG2 == nil {
		return nil, xerrors.Errorf("registration request: %w", ErrParse)
	}

	ballot := &Ballot{
		C1: crypto.Suite.Point().Add(request.BlindingPollPoint, crypto.ValuePoint(value)),
		C2: crypto.Suite.Point().Set(request.BlindingBasepointG2),
	}
	digest, err := BallotDigest(prims.Hash, ballot)
	if err != nil {
		return nil, err
	}
	signature, err := prims.Signature.Sign(secretKey, digest)
	if err != nil {
		return nil, xerrors.Errorf("signing blank ballot: %w", err)
	}

	return &RegistrationResponse{
		Signature:   signature,
		Ballot:      ballot,
		VoterWeight: value,
	}, nil
}

// verifyBallotSignature checks the coordinator signature over a blank ballot.
func verifyBallotSignature(prims crypto.Primitives, publicKey []byte, ballot *Ballot, signature []byte) error {
	digest, err := BallotDigest(prims.Hash, ballot)
	if err != nil {
		return err
	}
	if !prims.Signature.Verify(publicKey, digest, signature) {
		return xerrors.Errorf("blank ballot signature: %w", ErrVerification)
	}
	return nil
}
