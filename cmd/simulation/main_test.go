package main

import (
	"math/rand"
	"testing"

	"boundedvote/pkg/config"
	"boundedvote/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomChoices(t *testing.T) {
	rng := rand.New(rand.NewSource(choiceSeed("boundedvote", 0)))
	candidates := []string{"a", "b", "c"}
	for _, weight := range []uint32{0, 1, 2, 100, 1<<32 - 1} {
		choices := randomChoices(rng, candidates, weight)
		require.Len(t, choices, len(candidates))
		for i, c := range choices {
			assert.Equal(t, candidates[i], c.Candidate)
		}
		assert.LessOrEqual(t, choices.Total(), uint64(weight))
	}
	assert.Equal(t, choiceSeed("s", 1), choiceSeed("s", 1))
	assert.NotEqual(t, choiceSeed("s", 1), choiceSeed("s", 2))
}

func TestSimulationRun(t *testing.T) {
	cfg := &config.Config{
		Voters:       3,
		Counters:     2,
		Candidates:   []string{"yes", "no"},
		Weight:       10,
		Runs:         1,
		Cores:        2,
		HardwareType: config.HWCore,
		Scheme:       "schnorr",
		Seed:         "boundedvote",
	}
	rec := metrics.NewRecorder()
	sim, err := NewSimulation(cfg, rec, 0)
	require.NoError(t, err)
	require.NoError(t, rec.Record("Simulation", metrics.MLogic, sim.Run))

	assert.Len(t, sim.ledger.GetVotingRecords(), 3)
	assert.Equal(t, uint64(30), sim.ledger.TotalCertifiedWeight())

	analysis := func() metrics.AnalysisResult {
		a := metrics.NewAnalyzer()
		a.Add(rec)
		return a.Analyze()
	}()
	for _, phase := range []string{"Setup", "Registration", "Voting", "Audit", "CastAVote"} {
		assert.Contains(t, analysis.Components, phase)
	}
}
