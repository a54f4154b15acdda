package abv

import (
	"boundedvote/pkg/crypto"
	"boundedvote/pkg/log"

	"go.dedis.ch/kyber/v3"
	"golang.org/x/xerrors"
)

// MakeVoterSecret draws the blinding scalar behind a voter's blank ballot.
func MakeVoterSecret() *VoterSecret {
	return &VoterSecret{Blinding: crypto.RandomScalar()}
}

// MakeBoundedRegistrationRequest blinds the poll point and G2 with the
// voter secret. The secret itself stays with the voter.
func MakeBoundedRegistrationRequest(secret *VoterSecret, params *SystemParameters) (*RegistrationRequest, error) {
	if secret == nil || secret.Blinding == nil {
		return nil, xerrors.Errorf("voter secret: %w", ErrParse)
	}
	if params == nil || params.PollPoint == nil {
		return nil, xerrors.Errorf("system parameters: %w", ErrParse)
	}
	return &RegistrationRequest{
		BlindingPollPoint:   crypto.Suite.Point().Mul(secret.Blinding, params.PollPoint),
		BlindingBasepointG2: crypto.Suite.Point().Mul(secret.Blinding, crypto.G2),
	}, nil
}

// VerifyBlankBallot checks the coordinator signature and that the blank
// ballot is built on this voter's request and commits to the stated weight.
func VerifyBlankBallot(prims crypto.Primitives, coordinatorPublicKey []byte, request *RegistrationRequest, response *RegistrationResponse) error {
	if request == nil || request.BlindingPollPoint == nil || request.BlindingBasepointG2 == nil {
		return xerrors.Errorf("registration request: %w", ErrParse)
	}
	if response == nil || response.Ballot == nil || response.Ballot.C1 == nil || response.Ballot.C2 == nil {
		return xerrors.Errorf("registration response: %w", ErrParse)
	}
	if err := verifyBallotSignature(prims, coordinatorPublicKey, response.Ballot, response.Signature); err != nil {
		return err
	}
	if !response.Ballot.C2.Equal(request.BlindingBasepointG2) {
		return xerrors.Errorf("blank ballot is not bound to this request: %w", ErrVerification)
	}
	unblinded := crypto.Suite.Point().Sub(response.Ballot.C1, request.BlindingPollPoint)
	if !unblinded.Equal(crypto.ValuePoint(response.VoterWeight)) {
		return xerrors.Errorf("blank ballot does not commit to weight %d: %w", response.VoterWeight, ErrVerification)
	}
	return nil
}

// RecoverValuePoint strips the voter's blinding from a ballot, leaving v·G1.
func RecoverValuePoint(blinding kyber.Scalar, params *SystemParameters, ballot *Ballot) kyber.Point {
	return crypto.Suite.Point().Sub(ballot.C1, crypto.Suite.Point().Mul(blinding, params.PollPoint))
}

// splitBallot is one candidate (or rest) ballot together with its witness.
type splitBallot struct {
	ballot  *Ballot
	opening crypto.Opening
}

func commitValue(params *SystemParameters, value uint32, blinding kyber.Scalar) *Ballot {
	c1 := crypto.Suite.Point().Mul(blinding, params.PollPoint)
	c1.Add(c1, crypto.ValuePoint(value))
	return &Ballot{
		C1: c1,
		C2: crypto.Suite.Point().Mul(blinding, crypto.G2),
	}
}

func checkChoices(choices VoteChoices, params *SystemParameters, weight uint32) error {
	if len(choices) != len(params.Candidates) {
		return xerrors.Errorf("%d choices for %d candidates: %w", len(choices), len(params.Candidates), ErrInvalidChoices)
	}
	for i, choice := range choices {
		if choice.Candidate != params.Candidates[i] {
			return xerrors.Errorf("choice %d is for %q, expected %q: %w", i, choice.Candidate, params.Candidates[i], ErrInvalidChoices)
		}
	}
	if total := choices.Total(); total > uint64(weight) {
		return xerrors.Errorf("choices total %d, certified weight %d: %w", total, weight, ErrOverspend)
	}
	return nil
}

// splitWeight commits to every choice under a fresh blinding and puts the
// unspent weight in the rest ballot under blinding − Σ r_i. Choices must
// already be checked against weight.
func splitWeight(blinding kyber.Scalar, choices VoteChoices, weight uint32, params *SystemParameters) ([]splitBallot, splitBallot) {
	restBlinding := crypto.Suite.Scalar().Set(blinding)
	voted := make([]splitBallot, len(choices))
	for i, choice := range choices {
		r := crypto.RandomScalar()
		restBlinding.Sub(restBlinding, r)
		voted[i] = splitBallot{
			ballot:  commitValue(params, choice.Value, r),
			opening: crypto.Opening{Value: choice.Value, Blinding: r},
		}
	}
	restValue := weight - uint32(choices.Total())
	rest := splitBallot{
		ballot:  commitValue(params, restValue, restBlinding),
		opening: crypto.Opening{Value: restValue, Blinding: restBlinding},
	}
	return voted, rest
}

// VoteBounded splits the certified weight across candidates. Every
// candidate ballot gets a fresh blinding r_i; the rest ballot takes
// r − Σ r_i so that all blindings add back up to the blank ballot's.
func VoteBounded(secret *VoterSecret, choices VoteChoices, response *RegistrationResponse, params *SystemParameters) (*VoteRequest, error) {
	if secret == nil || secret.Blinding == nil {
		return nil, xerrors.Errorf("voter secret: %w", ErrParse)
	}
	if response == nil || response.Ballot == nil || response.Ballot.C1 == nil || response.Ballot.C2 == nil {
		return nil, xerrors.Errorf("registration response: %w", ErrParse)
	}
	if params == nil || params.PollPoint == nil {
		return nil, xerrors.Errorf("system parameters: %w", ErrParse)
	}
	if err := checkChoices(choices, params, response.VoterWeight); err != nil {
		return nil, err
	}

	voted, rest := splitWeight(secret.Blinding, choices, response.VoterWeight, params)

	// Range proof over candidate ballots then rest, padded to a power of two.
	commitments := make([]kyber.Point, 0, len(voted)+1)
	openings := make([]crypto.Opening, 0, len(voted)+1)
	for _, v := range voted {
		commitments = append(commitments, v.ballot.C1)
		openings = append(openings, v.opening)
	}
	commitments = append(commitments, rest.ballot.C1)
	openings = append(openings, rest.opening)
	commitments = PadCommitments(commitments)
	openings = padOpenings(openings)

	rangeProof, err := crypto.ProveAggregatedRange(params.PollPoint, commitments, openings)
	if err != nil {
		return nil, xerrors.Errorf("proving range: %w", err)
	}

	vote := &Vote{
		Signature:    append([]byte(nil), response.Signature...),
		BlankBallot:  response.Ballot,
		VotedBallots: make([]CandidateBallot, len(voted)),
		RestBallot:   rest.ballot,
	}
	ballotProofs := make([]CandidateProof, len(voted))
	votedSum := crypto.Suite.Point().Null()
	for i, v := range voted {
		candidate := choices[i].Candidate
		formatProof, err := crypto.ProveFormat(v.ballot.C1, v.ballot.C2, params.PollPoint, v.opening.Value, v.opening.Blinding)
		if err != nil {
			return nil, xerrors.Errorf("proving format for %q: %w", candidate, err)
		}
		vote.VotedBallots[i] = CandidateBallot{Candidate: candidate, Ballot: v.ballot}
		ballotProofs[i] = CandidateProof{Candidate: candidate, FormatProof: formatProof}
		votedSum.Add(votedSum, v.ballot.C1)
	}

	// delta is zero by construction of the rest blinding.
	delta := crypto.Suite.Scalar().Set(secret.Blinding)
	for _, v := range voted {
		delta.Sub(delta, v.opening.Blinding)
	}
	delta.Sub(delta, rest.opening.Blinding)
	balanceProof, err := crypto.ProveBalance(votedSum, rest.ballot.C1, response.Ballot.C1, params.PollPoint, delta)
	if err != nil {
		return nil, xerrors.Errorf("proving balance: %w", err)
	}

	log.Debug("Built vote request over %d candidates (%d range commitments)", len(voted), len(commitments))
	return &VoteRequest{
		Vote:         vote,
		RangeProof:   rangeProof,
		BallotProofs: ballotProofs,
		BalanceProof: balanceProof,
	}, nil
}
