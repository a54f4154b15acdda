// Package abv implements anonymous bounded voting: counters jointly publish
// a poll point, a coordinator certifies blinded weight commitments, voters
// split their certified weight across candidates and anyone can verify the
// resulting vote request without learning the split.
package abv

import (
	"fmt"

	"boundedvote/pkg/crypto"

	"go.dedis.ch/kyber/v3"
)

// SystemParameters are published once all counters reported and never
// change afterwards.
type SystemParameters struct {
	Candidates []string
	PollPoint  kyber.Point
}

func (p *SystemParameters) String() string {
	return fmt.Sprintf("SystemParameters{Candidates: %v, PollPoint: %s}", p.Candidates, p.PollPoint)
}

// CounterSecret is a counter's share of the poll key. It never leaves the counter.
type CounterSecret struct {
	PollSecretShare kyber.Scalar
}

// CounterParameterShare is the public half of a CounterSecret.
type CounterParameterShare struct {
	CounterID      string
	PollPointShare kyber.Point
}

// VoterSecret holds the blinding scalar behind a voter's blank ballot.
type VoterSecret struct {
	Blinding kyber.Scalar
}

// RegistrationRequest carries the blinded bases the coordinator builds a
// blank ballot from: r·PollPoint and r·G2.
type RegistrationRequest struct {
	BlindingPollPoint   kyber.Point
	BlindingBasepointG2 kyber.Point
}

// Ballot is a two-component commitment (r·PollPoint + v·G1, r·G2).
type Ballot struct {
	C1 kyber.Point
	C2 kyber.Point
}

func (b *Ballot) Equal(o *Ballot) bool {
	return b.C1.Equal(o.C1) && b.C2.Equal(o.C2)
}

func (b *Ballot) String() string {
	return fmt.Sprintf("Ballot{C1: %s, C2: %s}", b.C1, b.C2)
}

// RegistrationResponse is the signed blank ballot.
type RegistrationResponse struct {
	Signature   []byte
	Ballot      *Ballot
	VoterWeight uint32
}

type VoteChoice struct {
	Candidate string
	Value     uint32
}

// VoteChoices must list every candidate, in candidate-list order.
type VoteChoices []VoteChoice

// Total sums the chosen values without overflow.
func (c VoteChoices) Total() uint64 {
	var total uint64
	for _, choice := range c {
		total += uint64(choice.Value)
	}
	return total
}

type CandidateBallot struct {
	Candidate string
	Ballot    *Ballot
}

type CandidateProof struct {
	Candidate   string
	FormatProof *crypto.FormatProof
}

// Vote holds the ciphertexts a voter discloses.
type Vote struct {
	Signature    []byte
	BlankBallot  *Ballot
	VotedBallots []CandidateBallot
	RestBallot   *Ballot
}

// VoteRequest is a Vote together with the proofs that make it checkable.
type VoteRequest struct {
	Vote         *Vote
	RangeProof   *crypto.RangeProof
	BallotProofs []CandidateProof
	BalanceProof *crypto.BalanceProof
}
