package abv

import (
	"boundedvote/pkg/crypto"

	"go.dedis.ch/kyber/v3"
	"golang.org/x/xerrors"
)

// checkShape rejects requests whose structure does not follow the
// candidate list before any proof is looked at.
func checkShape(params *SystemParameters, request *VoteRequest) error {
	if params == nil || params.PollPoint == nil {
		return xerrors.Errorf("system parameters: %w", ErrParse)
	}
	if request == nil || request.Vote == nil {
		return xerrors.Errorf("vote request: %w", ErrParse)
	}
	vote := request.Vote
	if vote.BlankBallot == nil || vote.RestBallot == nil || vote.RestBallot.C1 == nil {
		return xerrors.Errorf("vote request ballots: %w", ErrParse)
	}
	if len(vote.VotedBallots) != len(params.Candidates) || len(request.BallotProofs) != len(params.Candidates) {
		return xerrors.Errorf("vote request covers %d ballots and %d proofs for %d candidates: %w",
			len(vote.VotedBallots), len(request.BallotProofs), len(params.Candidates), ErrParse)
	}
	for i, candidate := range params.Candidates {
		cb := vote.VotedBallots[i]
		if cb.Candidate != candidate || request.BallotProofs[i].Candidate != candidate {
			return xerrors.Errorf("entry %d is not for candidate %q: %w", i, candidate, ErrParse)
		}
		if cb.Ballot == nil || cb.Ballot.C1 == nil || cb.Ballot.C2 == nil {
			return xerrors.Errorf("ballot for %q: %w", candidate, ErrParse)
		}
	}
	return nil
}

// VerifyBoundedVoteRequest checks, in order, the coordinator signature on
// the blank ballot, the aggregated range proof, every format proof and the
// balance proof. The first failure is returned with its error kind.
func VerifyBoundedVoteRequest(prims crypto.Primitives, params *SystemParameters, request *VoteRequest, coordinatorPublicKey []byte) error {
	if err := checkShape(params, request); err != nil {
		return err
	}
	vote := request.Vote

	if err := verifyBallotSignature(prims, coordinatorPublicKey, vote.BlankBallot, vote.Signature); err != nil {
		return err
	}

	commitments := make([]kyber.Point, 0, len(vote.VotedBallots)+1)
	votedSum := crypto.Suite.Point().Null()
	for _, cb := range vote.VotedBallots {
		commitments = append(commitments, cb.Ballot.C1)
		votedSum.Add(votedSum, cb.Ballot.C1)
	}
	commitments = append(commitments, vote.RestBallot.C1)
	commitments = PadCommitments(commitments)

	if err := crypto.VerifyAggregatedRange(params.PollPoint, commitments, request.RangeProof); err != nil {
		return xerrors.Errorf("%v: %w", err, ErrRangeProof)
	}

	for i, cb := range vote.VotedBallots {
		if err := crypto.VerifyFormat(cb.Ballot.C1, cb.Ballot.C2, params.PollPoint, request.BallotProofs[i].FormatProof); err != nil {
			return xerrors.Errorf("candidate %q: %v: %w", cb.Candidate, err, ErrFormatProof)
		}
	}

	if err := crypto.VerifyBalance(votedSum, vote.RestBallot.C1, vote.BlankBallot.C1, params.PollPoint, request.BalanceProof); err != nil {
		return xerrors.Errorf("%v: %w", err, ErrBalanceProof)
	}
	return nil
}
