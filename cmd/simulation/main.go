package main

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"os"

	"boundedvote/pkg/abv"
	"boundedvote/pkg/actors"
	"boundedvote/pkg/config"
	"boundedvote/pkg/context"
	"boundedvote/pkg/crypto"
	"boundedvote/pkg/hardware"
	"boundedvote/pkg/ledger"
	"boundedvote/pkg/log"
	"boundedvote/pkg/metrics"
	"boundedvote/pkg/protocol"
	"boundedvote/pkg/result"

	"github.com/google/uuid"
	"golang.org/x/xerrors"
)

// Simulation holds everything one run needs: the configuration, the actors,
// the hand-off hardware and the public ledger.
type Simulation struct {
	config   *config.Config
	metrics  *metrics.Recorder
	prims    crypto.Primitives
	counters []*actors.Counter
	coord    *actors.Coordinator
	ledger   *ledger.Ledger
	hw       hardware.Hardware
	rng      *rand.Rand
}

func main() {
	cfg := config.NewConfig()

	analyzer := metrics.NewAnalyzer()
	var hwName string

	for run := uint64(0); run < cfg.Runs; run++ {
		log.Info("----- Starting run %d of %d -----", run+1, cfg.Runs)

		rec := metrics.NewRecorder()
		sim, err := NewSimulation(cfg, rec, run)
		if err != nil {
			log.Fatalf("Failed to initialize simulation: %v", err)
		}
		hwName = sim.hw.Name()

		if err = rec.Record("Simulation", metrics.MLogic, sim.Run); err != nil {
			log.Fatalf("Failed to run simulation: %v", err)
		}

		if cfg.PrintMetrics {
			rec.PrintTree(os.Stdout, cfg.MaxDepth, cfg.MaxChildren)
		}
		analyzer.Add(rec)
	}

	finalAnalysis := analyzer.Analyze()

	resultsWriter := result.NewWriter(cfg.ResultsPath, hwName, cfg.Runs, cfg.Voters)
	if _, _, err := resultsWriter.WriteAllResults(finalAnalysis); err != nil {
		log.Fatalf("Failed to write results: %v", err)
	}

	printConsoleSummary(finalAnalysis)
}

func printConsoleSummary(result metrics.AnalysisResult) {
	fmt.Println("\n-------------------------------------------------")
	fmt.Printf("--- Median Phase Times (Per Simulation Run) ---\n")
	fmt.Println("-------------------------------------------------")

	phases := []string{"Simulation", "Setup", "Registration", "Voting", "Audit"}
	for a, phase := range phases {
		if comp, ok := result.Components[phase]; ok {
			if summary, ok := comp.Summaries[metrics.WallClockMetric]; ok {
				fmt.Printf("Median %-18s Time: %s\n", phase, summary.WallClock.P50)
				if a == 0 {
					fmt.Println("-------------------------------------------------")
				}
			}
		}
	}
	fmt.Println("-------------------------------------------------")
}

// NewSimulation creates the counters, the coordinator, the ledger and the
// hardware for one run.
func NewSimulation(cfg *config.Config, rec *metrics.Recorder, run uint64) (*Simulation, error) {
	log.Debug("Initializing crypto parameters, actors and hardware")

	crypto.InitCryptoParams(cfg.Seed)

	prims, err := crypto.PrimitivesByName(cfg.Scheme)
	if err != nil {
		return nil, err
	}

	sim := &Simulation{
		config:  cfg,
		metrics: rec,
		prims:   prims,
		ledger:  ledger.NewLedger(prims.Hash),
		rng:     rand.New(rand.NewSource(choiceSeed(cfg.Seed, run))),
	}

	sim.counters = make([]*actors.Counter, cfg.Counters)
	ids := make([]string, cfg.Counters)
	for i := range sim.counters {
		sim.counters[i] = actors.NewCounter(uuid.NewString())
		ids[i] = sim.counters[i].ID()
	}
	if sim.coord, err = actors.NewCoordinator(prims, ids); err != nil {
		return nil, err
	}

	if sim.hw, err = hardware.New(cfg); err != nil {
		return nil, err
	}
	return sim, nil
}

// Run drives one election from parameter setup to the final audit.
func (s *Simulation) Run() error {
	log.Info("Starting simulation with %d voters on '%s' hardware (%s)...", s.config.Voters, s.hw.Name(), s.prims)

	runCtx := context.NewContext(s.config, s.metrics)
	flow := protocol.NewFlow(s.prims, s.coord, s.counters, s.ledger, s.hw)

	// --- Setup Phase ---
	var params *abv.SystemParameters
	if err := s.metrics.Record("Setup", metrics.MLogic, func() error {
		var err error
		params, err = flow.Setup(runCtx, s.config.Candidates)
		return err
	}); err != nil {
		return xerrors.Errorf("failed during setup: %w", err)
	}

	voters := make([]*actors.Voter, s.config.Voters)
	for i := range voters {
		voters[i] = actors.NewVoter(uuid.NewString(), params)
	}

	// --- Registration Phase ---
	log.Info("--- Registering %d voters with weight %d ---", len(voters), s.config.Weight)
	if err := s.metrics.Record("Registration", metrics.MLogic, func() error {
		for _, voter := range voters {
			log.Debug("-- Registering voter %s...", voter.ID())
			if err := s.metrics.Record("RegisterAVoter", metrics.MLogic, func() error {
				_, err := flow.Register(runCtx, voter, s.config.Weight)
				return err
			}); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return xerrors.Errorf("failed during registration phase: %w", err)
	}

	// --- Voting Phase ---
	if err := s.metrics.Record("Voting", metrics.MLogic, func() error {
		for _, voter := range voters {
			choices := randomChoices(s.rng, params.Candidates, voter.Weight())
			if err := s.metrics.Record("CastAVote", metrics.MLogic, func() error {
				_, err := flow.CastVote(runCtx, voter, choices)
				return err
			}); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return xerrors.Errorf("failed during voting phase: %w", err)
	}

	// --- Audit Phase ---
	log.Info("--- Starting Audit Phase ---")
	if err := s.metrics.Record("Audit", metrics.MLogic, func() error {
		_, err := flow.Audit(runCtx)
		return err
	}); err != nil {
		return xerrors.Errorf("failed during audit phase: %w", err)
	}
	return nil
}

// randomChoices spreads at most weight over the candidates, each receiving
// no more than an equal share.
func randomChoices(rng *rand.Rand, candidates []string, weight uint32) abv.VoteChoices {
	share := weight / uint32(len(candidates))
	choices := make(abv.VoteChoices, len(candidates))
	for i, name := range candidates {
		choices[i] = abv.VoteChoice{Candidate: name, Value: uint32(rng.Int63n(int64(share) + 1))}
	}
	return choices
}

// choiceSeed derives the per-run source of vote choices from the seed.
func choiceSeed(seed string, run uint64) int64 {
	h := fnv.New64a()
	_, _ = fmt.Fprintf(h, "%s/%d", seed, run)
	return int64(h.Sum64())
}
