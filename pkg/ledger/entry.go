package ledger

import (
	"bytes"
	"encoding/binary"

	"boundedvote/pkg/abv"
	"boundedvote/pkg/crypto"

	"github.com/cbergoon/merkletree"
	"golang.org/x/xerrors"
)

// CertificationEntry is published by the coordinator for every blank
// ballot it signs. It reveals the weight but not the voter. The ballot
// signature covers only the ciphertexts, so the weight carries its own
// signature over the ballot digest and the weight together.
type CertificationEntry struct {
	Weight          uint32
	BallotDigest    []byte
	Signature       []byte
	WeightSignature []byte
}

// NewCertificationEntry signs weight against the ballot digest and wraps
// the ballot signature the voter received.
func NewCertificationEntry(prims crypto.Primitives, secretKey []byte, weight uint32, ballotDigest, ballotSignature []byte) (*CertificationEntry, error) {
	weightSig, err := prims.Signature.Sign(secretKey, weightDigest(prims.Hash, ballotDigest, weight))
	if err != nil {
		return nil, xerrors.Errorf("failed to sign certified weight: %w", err)
	}
	return &CertificationEntry{
		Weight:          weight,
		BallotDigest:    append([]byte(nil), ballotDigest...),
		Signature:       append([]byte(nil), ballotSignature...),
		WeightSignature: weightSig,
	}, nil
}

func weightDigest(h crypto.Hasher, ballotDigest []byte, weight uint32) []byte {
	msg := make([]byte, 0, len(ballotDigest)+4)
	msg = append(msg, ballotDigest...)
	msg = binary.BigEndian.AppendUint32(msg, weight)
	return h.Hash(msg)
}

// Verify checks the coordinator signatures over the ballot digest and over
// the certified weight.
func (c *CertificationEntry) Verify(prims crypto.Primitives, coordinatorPublicKey []byte) error {
	if !prims.Signature.Verify(coordinatorPublicKey, c.BallotDigest, c.Signature) {
		return xerrors.Errorf("certification %x: %w", c.BallotDigest, abv.ErrVerification)
	}
	if !prims.Signature.Verify(coordinatorPublicKey, weightDigest(prims.Hash, c.BallotDigest, c.Weight), c.WeightSignature) {
		return xerrors.Errorf("certification %x: weight %d not signed: %w", c.BallotDigest, c.Weight, abv.ErrVerification)
	}
	return nil
}

// VoteEntry is a published vote request together with its encoding, which
// is what the Merkle tree commits to.
type VoteEntry struct {
	Request     *abv.VoteRequest
	BlankDigest []byte
	encoded     []byte
}

// NewVoteEntry encodes request and digests its blank ballot.
func NewVoteEntry(h crypto.Hasher, request *abv.VoteRequest) (*VoteEntry, error) {
	if request == nil || request.Vote == nil {
		return nil, xerrors.Errorf("vote entry without vote: %w", abv.ErrParse)
	}
	digest, err := abv.BallotDigest(h, request.Vote.BlankBallot)
	if err != nil {
		return nil, err
	}
	encoded, err := request.MarshalBinary()
	if err != nil {
		return nil, xerrors.Errorf("encoding vote request: %w", err)
	}
	return &VoteEntry{Request: request, BlankDigest: digest, encoded: encoded}, nil
}

// Encoded returns the published bytes of the vote request.
func (v *VoteEntry) Encoded() []byte {
	return v.encoded
}

// CalculateHash implements merkletree.Content.
func (v *VoteEntry) CalculateHash() ([]byte, error) {
	return crypto.Keccak256{}.Hash(v.encoded), nil
}

// Equals implements merkletree.Content.
func (v *VoteEntry) Equals(other merkletree.Content) (bool, error) {
	o, ok := other.(*VoteEntry)
	if !ok {
		return false, xerrors.New("value is not of type VoteEntry")
	}
	return bytes.Equal(v.encoded, o.encoded), nil
}
