package abv

import (
	"boundedvote/pkg/crypto"
	"boundedvote/pkg/serialization"

	"go.dedis.ch/kyber/v3"
	"golang.org/x/xerrors"
)

// Wire encodings. Every UnmarshalBinary failure wraps ErrParse.

func parseError(what string, err error) error {
	return xerrors.Errorf("decoding %s: %v: %w", what, err, ErrParse)
}

func writeBallot(s *serialization.Serializer, b *Ballot) {
	if b == nil {
		s.WriteKyber(nil)
		return
	}
	s.WriteKyber(b.C1, b.C2)
}

func readBallot(d *serialization.Deserializer) *Ballot {
	b := &Ballot{C1: crypto.Suite.Point(), C2: crypto.Suite.Point()}
	d.ReadKyber(b.C1, b.C2)
	return b
}

func (b *Ballot) MarshalBinary() ([]byte, error) {
	s := serialization.NewSerializer()
	writeBallot(s, b)
	return s.Bytes()
}

func (b *Ballot) UnmarshalBinary(data []byte) error {
	d := serialization.NewDeserializer(data)
	decoded := readBallot(d)
	if err := d.Finish(); err != nil {
		return parseError("ballot", err)
	}
	*b = *decoded
	return nil
}

func (p *SystemParameters) MarshalBinary() ([]byte, error) {
	s := serialization.NewSerializer()
	s.WriteCount(len(p.Candidates))
	for _, c := range p.Candidates {
		s.WriteString(c)
	}
	s.WriteKyber(p.PollPoint)
	return s.Bytes()
}

func (p *SystemParameters) UnmarshalBinary(data []byte) error {
	d := serialization.NewDeserializer(data)
	n := d.ReadCount()
	var candidates []string
	for i := 0; i < n && d.Err() == nil; i++ {
		candidates = append(candidates, d.ReadString())
	}
	poll := crypto.Suite.Point()
	d.ReadKyber(poll)
	if err := d.Finish(); err != nil {
		return parseError("system parameters", err)
	}
	p.Candidates, p.PollPoint = candidates, poll
	return nil
}

func (c *CounterSecret) MarshalBinary() ([]byte, error) {
	s := serialization.NewSerializer()
	s.WriteKyber(c.PollSecretShare)
	return s.Bytes()
}

func (c *CounterSecret) UnmarshalBinary(data []byte) error {
	d := serialization.NewDeserializer(data)
	secret := crypto.Suite.Scalar()
	d.ReadKyber(secret)
	if err := d.Finish(); err != nil {
		return parseError("counter secret", err)
	}
	c.PollSecretShare = secret
	return nil
}

func (c *CounterParameterShare) MarshalBinary() ([]byte, error) {
	s := serialization.NewSerializer()
	s.WriteString(c.CounterID)
	s.WriteKyber(c.PollPointShare)
	return s.Bytes()
}

func (c *CounterParameterShare) UnmarshalBinary(data []byte) error {
	d := serialization.NewDeserializer(data)
	id := d.ReadString()
	share := crypto.Suite.Point()
	d.ReadKyber(share)
	if err := d.Finish(); err != nil {
		return parseError("counter parameter share", err)
	}
	c.CounterID, c.PollPointShare = id, share
	return nil
}

func (r *RegistrationRequest) MarshalBinary() ([]byte, error) {
	s := serialization.NewSerializer()
	s.WriteKyber(r.BlindingPollPoint, r.BlindingBasepointG2)
	return s.Bytes()
}

func (r *RegistrationRequest) UnmarshalBinary(data []byte) error {
	d := serialization.NewDeserializer(data)
	poll, g2 := crypto.Suite.Point(), crypto.Suite.Point()
	d.ReadKyber(poll, g2)
	if err := d.Finish(); err != nil {
		return parseError("registration request", err)
	}
	r.BlindingPollPoint, r.BlindingBasepointG2 = poll, g2
	return nil
}

func (r *RegistrationResponse) MarshalBinary() ([]byte, error) {
	s := serialization.NewSerializer()
	s.WriteByteSlice(r.Signature)
	writeBallot(s, r.Ballot)
	s.WriteUint32(r.VoterWeight)
	return s.Bytes()
}

func (r *RegistrationResponse) UnmarshalBinary(data []byte) error {
	d := serialization.NewDeserializer(data)
	sig := d.ReadByteSlice()
	ballot := readBallot(d)
	weight := d.ReadUint32()
	if err := d.Finish(); err != nil {
		return parseError("registration response", err)
	}
	r.Signature, r.Ballot, r.VoterWeight = sig, ballot, weight
	return nil
}

// writeRangeProof writes one row per commitment, each bit as its
// commitment followed by its proof.
func writeRangeProof(s *serialization.Serializer, rp *crypto.RangeProof) {
	if rp == nil {
		s.WriteCount(0)
		return
	}
	s.WriteCount(len(rp.BitCommitments))
	for i, row := range rp.BitCommitments {
		s.WriteCount(len(row))
		for j, c := range row {
			s.WriteKyber(c)
			var p []byte
			if i < len(rp.BitProofs) && j < len(rp.BitProofs[i]) {
				p = rp.BitProofs[i][j]
			}
			s.WriteByteSlice(p)
		}
	}
}

func readRangeProof(d *serialization.Deserializer) *crypto.RangeProof {
	rp := &crypto.RangeProof{}
	n := d.ReadCount()
	for i := 0; i < n && d.Err() == nil; i++ {
		width := d.ReadCount()
		var row []kyber.Point
		var proofs [][]byte
		for j := 0; j < width && d.Err() == nil; j++ {
			c := crypto.Suite.Point()
			d.ReadKyber(c)
			row = append(row, c)
			proofs = append(proofs, d.ReadByteSlice())
		}
		rp.BitCommitments = append(rp.BitCommitments, row)
		rp.BitProofs = append(rp.BitProofs, proofs)
	}
	return rp
}

// MarshalBinary encodes the vote, then the range proof, the format proofs
// in candidate order and finally the balance proof.
func (v *VoteRequest) MarshalBinary() ([]byte, error) {
	if v.Vote == nil {
		return nil, xerrors.Errorf("vote request without vote: %w", ErrParse)
	}
	s := serialization.NewSerializer()
	s.WriteByteSlice(v.Vote.Signature)
	writeBallot(s, v.Vote.BlankBallot)
	s.WriteCount(len(v.Vote.VotedBallots))
	for _, cb := range v.Vote.VotedBallots {
		s.WriteString(cb.Candidate)
		writeBallot(s, cb.Ballot)
	}
	writeBallot(s, v.Vote.RestBallot)

	writeRangeProof(s, v.RangeProof)
	s.WriteCount(len(v.BallotProofs))
	for _, cp := range v.BallotProofs {
		s.WriteString(cp.Candidate)
		if cp.FormatProof == nil {
			s.WriteByteSlice(nil)
		} else {
			s.WriteByteSlice(cp.FormatProof.Proof)
		}
	}
	if v.BalanceProof == nil {
		s.WriteByteSlice(nil)
	} else {
		s.WriteByteSlice(v.BalanceProof.Proof)
	}
	return s.Bytes()
}

func (v *VoteRequest) UnmarshalBinary(data []byte) error {
	d := serialization.NewDeserializer(data)
	vote := &Vote{Signature: d.ReadByteSlice()}
	vote.BlankBallot = readBallot(d)
	n := d.ReadCount()
	for i := 0; i < n && d.Err() == nil; i++ {
		candidate := d.ReadString()
		vote.VotedBallots = append(vote.VotedBallots, CandidateBallot{Candidate: candidate, Ballot: readBallot(d)})
	}
	vote.RestBallot = readBallot(d)

	rangeProof := readRangeProof(d)
	m := d.ReadCount()
	var proofs []CandidateProof
	for i := 0; i < m && d.Err() == nil; i++ {
		candidate := d.ReadString()
		proofs = append(proofs, CandidateProof{
			Candidate:   candidate,
			FormatProof: &crypto.FormatProof{Proof: d.ReadByteSlice()},
		})
	}
	balance := &crypto.BalanceProof{Proof: d.ReadByteSlice()}
	if err := d.Finish(); err != nil {
		return parseError("vote request", err)
	}

	v.Vote, v.RangeProof, v.BallotProofs, v.BalanceProof = vote, rangeProof, proofs, balance
	return nil
}
