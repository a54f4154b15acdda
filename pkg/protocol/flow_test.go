package protocol

import (
	"fmt"
	"testing"

	"boundedvote/pkg/abv"
	"boundedvote/pkg/actors"
	"boundedvote/pkg/config"
	"boundedvote/pkg/context"
	"boundedvote/pkg/crypto"
	"boundedvote/pkg/hardware"
	"boundedvote/pkg/ledger"
	"boundedvote/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

var candidates = []string{"alice", "bob", "carol"}

func newFlow(t *testing.T, cfg *config.Config) (*Flow, *context.OperationContext) {
	t.Helper()
	crypto.InitCryptoParams("boundedvote")
	prims, err := crypto.PrimitivesByName(cfg.Scheme)
	require.NoError(t, err)

	counters := make([]*actors.Counter, cfg.Counters)
	ids := make([]string, len(counters))
	for i := range counters {
		counters[i] = actors.NewCounter(fmt.Sprintf("counter-%d", i))
		ids[i] = counters[i].ID()
	}
	co, err := actors.NewCoordinator(prims, ids)
	require.NoError(t, err)
	hw, err := hardware.New(cfg)
	require.NoError(t, err)

	ctx := context.NewContext(cfg, metrics.NewRecorder())
	return NewFlow(prims, co, counters, ledger.NewLedger(prims.Hash), hw), ctx
}

func TestFlow(t *testing.T) {
	for _, hw := range []config.HardwareType{config.HWCore, config.HWDisk} {
		t.Run(string(hw), func(t *testing.T) {
			cfg := &config.Config{Counters: 3, Cores: 2, HardwareType: hw, Scheme: "secp256k1", PicturePath: t.TempDir()}
			flow, ctx := newFlow(t, cfg)

			_, err := flow.Audit(ctx)
			assert.True(t, xerrors.Is(err, actors.ErrNotReady))

			params, err := flow.Setup(ctx, candidates)
			require.NoError(t, err)

			voters := []*actors.Voter{actors.NewVoter("v0", params), actors.NewVoter("v1", params)}
			for _, v := range voters {
				_, err := flow.Register(ctx, v, 100)
				require.NoError(t, err)
				assert.Equal(t, uint32(100), v.Weight())
			}

			entry, err := flow.CastVote(ctx, voters[0], abv.VoteChoices{{Candidate: "alice", Value: 20}, {Candidate: "bob", Value: 30}, {Candidate: "carol", Value: 10}})
			require.NoError(t, err)
			_, err = flow.CastVote(ctx, voters[1], abv.VoteChoices{{Candidate: "alice", Value: 0}, {Candidate: "bob", Value: 100}, {Candidate: "carol", Value: 0}})
			require.NoError(t, err)

			_, err = flow.CastVote(ctx, voters[0], abv.VoteChoices{{Candidate: "alice", Value: 1}, {Candidate: "bob", Value: 1}, {Candidate: "carol", Value: 1}})
			assert.True(t, xerrors.Is(err, ledger.ErrBallotReused), "got %v", err)

			root, err := flow.Audit(ctx)
			require.NoError(t, err)
			assert.NotEmpty(t, root)
			ok, err := flow.ledger.VerifyInclusion(entry)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestFlowRejectsDoubleRegistration(t *testing.T) {
	cfg := &config.Config{Counters: 1, Cores: 1, HardwareType: config.HWCore, Scheme: "schnorr"}
	flow, ctx := newFlow(t, cfg)
	params, err := flow.Setup(ctx, candidates)
	require.NoError(t, err)

	v := actors.NewVoter("v", params)
	_, err = flow.Register(ctx, v, 5)
	require.NoError(t, err)
	_, err = flow.Register(ctx, v, 5)
	assert.True(t, xerrors.Is(err, actors.ErrAlreadyRegistered), "got %v", err)
}
