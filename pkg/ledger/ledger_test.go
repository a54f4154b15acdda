package ledger_test

import (
	"testing"

	"boundedvote/pkg/abv"
	"boundedvote/pkg/actors"
	"boundedvote/pkg/config"
	"boundedvote/pkg/context"
	"boundedvote/pkg/crypto"
	"boundedvote/pkg/ledger"
	"boundedvote/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

var candidates = []string{"yes", "no"}

type board struct {
	prims    crypto.Primitives
	co       *actors.Coordinator
	verifier *actors.Verifier
	ledger   *ledger.Ledger
}

func newBoard(t *testing.T) *board {
	t.Helper()
	prims := crypto.DefaultPrimitives()
	counter := actors.NewCounter("c0")
	co, err := actors.NewCoordinator(prims, []string{counter.ID()})
	require.NoError(t, err)
	share, err := counter.ParameterShare()
	require.NoError(t, err)
	require.NoError(t, co.ReceiveShare(share))
	params, err := co.Aggregate(candidates)
	require.NoError(t, err)
	return &board{
		prims:    prims,
		co:       co,
		verifier: actors.NewVerifier(prims, params, co.PublicKey()),
		ledger:   ledger.NewLedger(prims.Hash),
	}
}

// cast registers a voter with weight and returns its vote request.
func (b *board) cast(t *testing.T, id string, weight, yes uint32) *abv.VoteRequest {
	t.Helper()
	voter := actors.NewVoter(id, b.co.Params())
	request, err := voter.RegistrationRequest()
	require.NoError(t, err)
	response, entry, err := b.co.Certify(id, weight, request)
	require.NoError(t, err)
	require.NoError(t, voter.AcceptBlankBallot(b.prims, b.co.PublicKey(), response))
	b.ledger.AppendCertificationRecord(entry)

	vote, err := voter.Vote(abv.VoteChoices{{Candidate: "yes", Value: yes}, {Candidate: "no", Value: 0}})
	require.NoError(t, err)
	return vote
}

func TestLedger(t *testing.T) {
	crypto.InitCryptoParams("boundedvote")
	b := newBoard(t)
	ctx := context.NewContext(&config.Config{Cores: 2}, metrics.NewRecorder())

	_, err := b.ledger.MerkleRoot()
	assert.True(t, xerrors.Is(err, ledger.ErrEmpty))

	first := b.cast(t, "v1", 10, 4)
	second := b.cast(t, "v2", 5, 5)
	assert.Equal(t, uint64(15), b.ledger.TotalCertifiedWeight())

	e1, err := b.ledger.AppendVoteRecord(first)
	require.NoError(t, err)
	root1, err := b.ledger.MerkleRoot()
	require.NoError(t, err)

	e2, err := b.ledger.AppendVoteRecord(second)
	require.NoError(t, err)
	root2, err := b.ledger.MerkleRoot()
	require.NoError(t, err)
	assert.NotEqual(t, root1, root2, "root should change with every vote")

	t.Run("blank_ballot_consumed_once", func(t *testing.T) {
		_, err := b.ledger.AppendVoteRecord(first)
		assert.True(t, xerrors.Is(err, ledger.ErrBallotReused), "got %v", err)
		assert.Len(t, b.ledger.GetVotingRecords(), 2)
	})

	t.Run("inclusion", func(t *testing.T) {
		for _, e := range []*ledger.VoteEntry{e1, e2} {
			ok, err := b.ledger.VerifyInclusion(e)
			require.NoError(t, err)
			assert.True(t, ok)
		}
		outsider, err := ledger.NewVoteEntry(b.prims.Hash, b.cast(t, "v3", 1, 1))
		require.NoError(t, err)
		ok, err := b.ledger.VerifyInclusion(outsider)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("audit", func(t *testing.T) {
		err := ledger.VerifyLedgerContents(ctx, b.prims, b.co.PublicKey(), b.verifier,
			b.ledger.GetCertificationRecords(), b.ledger.GetVotingRecords())
		assert.NoError(t, err)
	})

	t.Run("audit_uncertified", func(t *testing.T) {
		err := ledger.VerifyLedgerContents(ctx, b.prims, b.co.PublicKey(), b.verifier,
			nil, b.ledger.GetVotingRecords())
		assert.True(t, xerrors.Is(err, ledger.ErrUncertified), "got %v", err)
	})

	t.Run("audit_forged_certification", func(t *testing.T) {
		certs := b.ledger.GetCertificationRecords()
		forged := *certs[0]
		forged.Weight = 1000
		forged.Signature = append([]byte(nil), forged.Signature...)
		forged.Signature[0] ^= 0xff
		err := ledger.VerifyLedgerContents(ctx, b.prims, b.co.PublicKey(), b.verifier,
			[]*ledger.CertificationEntry{&forged}, nil)
		assert.True(t, xerrors.Is(err, abv.ErrVerification), "got %v", err)
	})

	t.Run("audit_inflated_weight", func(t *testing.T) {
		certs := b.ledger.GetCertificationRecords()
		require.NoError(t, certs[0].Verify(b.prims, b.co.PublicKey()))

		inflated := *certs[0]
		inflated.Weight++
		err := inflated.Verify(b.prims, b.co.PublicKey())
		assert.True(t, xerrors.Is(err, abv.ErrVerification), "got %v", err)

		err = ledger.VerifyLedgerContents(ctx, b.prims, b.co.PublicKey(), b.verifier,
			append([]*ledger.CertificationEntry{&inflated}, certs[1:]...), nil)
		assert.True(t, xerrors.Is(err, abv.ErrVerification), "got %v", err)

		// A weight signature cannot be moved to another ballot.
		moved := *certs[1]
		moved.WeightSignature = certs[0].WeightSignature
		moved.Weight = certs[0].Weight
		err = moved.Verify(b.prims, b.co.PublicKey())
		assert.True(t, xerrors.Is(err, abv.ErrVerification), "got %v", err)
	})

	t.Run("audit_duplicate_spend", func(t *testing.T) {
		votes := b.ledger.GetVotingRecords()
		err := ledger.VerifyLedgerContents(ctx, b.prims, b.co.PublicKey(), b.verifier,
			b.ledger.GetCertificationRecords(), append(votes, votes[0]))
		assert.True(t, xerrors.Is(err, ledger.ErrBallotReused), "got %v", err)
	})
}
