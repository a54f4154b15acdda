package actors

import (
	"fmt"
	"sync"
	"testing"

	"boundedvote/pkg/abv"
	"boundedvote/pkg/crypto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

var candidates = []string{"alice", "bob", "carol"}

func setup(t *testing.T, n int) (*Coordinator, []*Counter) {
	t.Helper()
	counters := make([]*Counter, n)
	ids := make([]string, n)
	for i := range counters {
		counters[i] = NewCounter(fmt.Sprintf("counter-%d", i))
		ids[i] = counters[i].ID()
	}
	co, err := NewCoordinator(crypto.DefaultPrimitives(), ids)
	require.NoError(t, err)
	return co, counters
}

func TestCoordinatorAggregation(t *testing.T) {
	crypto.InitCryptoParams("boundedvote")

	t.Run("concurrent_shares", func(t *testing.T) {
		co, counters := setup(t, 5)
		var wg sync.WaitGroup
		for _, c := range counters {
			wg.Add(1)
			go func(c *Counter) {
				defer wg.Done()
				share, err := c.ParameterShare()
				assert.NoError(t, err)
				assert.NoError(t, co.ReceiveShare(share))
			}(c)
		}
		wg.Wait()

		params, err := co.Aggregate(candidates)
		require.NoError(t, err)
		assert.Same(t, params, co.Params())
	})

	t.Run("incomplete", func(t *testing.T) {
		co, counters := setup(t, 3)
		for _, c := range counters[:2] {
			share, err := c.ParameterShare()
			require.NoError(t, err)
			require.NoError(t, co.ReceiveShare(share))
		}
		_, err := co.Aggregate(candidates)
		assert.True(t, xerrors.Is(err, abv.ErrIncompleteAggregation), "got %v", err)
		assert.Nil(t, co.Params())
	})

	t.Run("unknown_and_duplicate", func(t *testing.T) {
		co, counters := setup(t, 2)
		stranger, err := NewCounter("stranger").ParameterShare()
		require.NoError(t, err)
		assert.True(t, xerrors.Is(co.ReceiveShare(stranger), ErrUnknownCounter))

		share, err := counters[0].ParameterShare()
		require.NoError(t, err)
		require.NoError(t, co.ReceiveShare(share))
		assert.True(t, xerrors.Is(co.ReceiveShare(share), abv.ErrIncompleteAggregation))
	})

	t.Run("aggregate_twice", func(t *testing.T) {
		co, counters := setup(t, 1)
		share, err := counters[0].ParameterShare()
		require.NoError(t, err)
		require.NoError(t, co.ReceiveShare(share))

		params, err := co.Aggregate(candidates)
		require.NoError(t, err)
		again, err := co.Aggregate([]string{"alice", "bob", "carol"})
		require.NoError(t, err)
		assert.Same(t, params, again)

		_, err = co.Aggregate([]string{"alice", "bob"})
		assert.True(t, xerrors.Is(err, ErrNotReady), "got %v", err)
		assert.Equal(t, candidates, co.Params().Candidates)
	})

	t.Run("no_counters", func(t *testing.T) {
		_, err := NewCoordinator(crypto.DefaultPrimitives(), nil)
		assert.True(t, xerrors.Is(err, abv.ErrIncompleteAggregation))
	})
}

func aggregated(t *testing.T) *Coordinator {
	t.Helper()
	co, counters := setup(t, 3)
	for _, c := range counters {
		share, err := c.ParameterShare()
		require.NoError(t, err)
		require.NoError(t, co.ReceiveShare(share))
	}
	_, err := co.Aggregate(candidates)
	require.NoError(t, err)
	return co
}

func TestRegistrationAndVoting(t *testing.T) {
	crypto.InitCryptoParams("boundedvote")
	prims := crypto.DefaultPrimitives()
	co := aggregated(t)
	verifier := NewVerifier(prims, co.Params(), co.PublicKey())

	voter := NewVoter("v1", co.Params())
	_, err := voter.Vote(abv.VoteChoices{})
	assert.True(t, xerrors.Is(err, ErrNotReady))

	request, err := voter.RegistrationRequest()
	require.NoError(t, err)
	again, err := voter.RegistrationRequest()
	require.NoError(t, err)
	assert.Same(t, request, again)

	response, entry, err := co.Certify(voter.ID(), 100, request)
	require.NoError(t, err)
	require.NoError(t, voter.AcceptBlankBallot(prims, co.PublicKey(), response))
	assert.Equal(t, uint32(100), voter.Weight())
	assert.Equal(t, uint32(100), entry.Weight)
	assert.NoError(t, entry.Verify(prims, co.PublicKey()))

	_, _, err = co.Certify(voter.ID(), 100, request)
	assert.True(t, xerrors.Is(err, ErrAlreadyRegistered))

	vote, err := voter.Vote(abv.VoteChoices{{Candidate: "alice", Value: 20}, {Candidate: "bob", Value: 30}, {Candidate: "carol", Value: 10}})
	require.NoError(t, err)
	assert.NoError(t, verifier.Verify(vote))

	_, err = voter.Vote(abv.VoteChoices{{Candidate: "alice", Value: 60}, {Candidate: "bob", Value: 30}, {Candidate: "carol", Value: 11}})
	assert.True(t, xerrors.Is(err, abv.ErrOverspend))
}

func TestCertifyBeforeAggregation(t *testing.T) {
	crypto.InitCryptoParams("boundedvote")
	co, _ := setup(t, 1)
	_, _, err := co.Certify("v", 1, &abv.RegistrationRequest{})
	assert.True(t, xerrors.Is(err, ErrNotReady))
}

func TestRejectForeignBlankBallot(t *testing.T) {
	crypto.InitCryptoParams("boundedvote")
	prims := crypto.DefaultPrimitives()
	co := aggregated(t)

	a, b := NewVoter("a", co.Params()), NewVoter("b", co.Params())
	reqA, err := a.RegistrationRequest()
	require.NoError(t, err)
	_, err = b.RegistrationRequest()
	require.NoError(t, err)

	respA, _, err := co.Certify(a.ID(), 10, reqA)
	require.NoError(t, err)
	err = b.AcceptBlankBallot(prims, co.PublicKey(), respA)
	assert.True(t, xerrors.Is(err, abv.ErrVerification), "got %v", err)
}
