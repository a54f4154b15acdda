package protocol

import (
	"boundedvote/pkg/abv"
	"boundedvote/pkg/actors"
	"boundedvote/pkg/concurrency"
	"boundedvote/pkg/context"
	"boundedvote/pkg/crypto"
	"boundedvote/pkg/hardware"
	"boundedvote/pkg/io"
	"boundedvote/pkg/ledger"
	"boundedvote/pkg/log"
	"boundedvote/pkg/metrics"

	"golang.org/x/xerrors"
)

// Flow mediates between actors, the hand-off hardware and the ledger.
type Flow struct {
	prims       crypto.Primitives
	coordinator *actors.Coordinator
	counters    []*actors.Counter
	verifier    *actors.Verifier
	ledger      *ledger.Ledger
	hw          hardware.Hardware
}

func NewFlow(prims crypto.Primitives, co *actors.Coordinator, counters []*actors.Counter, l *ledger.Ledger, hw hardware.Hardware) *Flow {
	return &Flow{prims: prims, coordinator: co, counters: counters, ledger: l, hw: hw}
}

// --- Setup ---

// Setup collects every counter's share in parallel and publishes the
// system parameters.
func (f *Flow) Setup(ctx *context.OperationContext, candidates []string) (*abv.SystemParameters, error) {
	err := ctx.Recorder.Record("CollectShares", metrics.MLogic, func() error {
		shares, err := concurrency.Map(ctx, f.counters, func(c *actors.Counter) (*abv.CounterParameterShare, error) {
			return c.ParameterShare()
		})
		if err != nil {
			return err
		}
		return concurrency.ForEach(ctx, shares, func(_ int, s *abv.CounterParameterShare) error {
			return f.coordinator.ReceiveShare(s)
		})
	})
	if err != nil {
		return nil, xerrors.Errorf("collecting counter shares: %w", err)
	}

	var params *abv.SystemParameters
	err = ctx.Recorder.Record("Aggregate", metrics.MLogic, func() error {
		params, err = f.coordinator.Aggregate(candidates)
		return err
	})
	if err != nil {
		return nil, err
	}
	f.verifier = actors.NewVerifier(f.prims, params, f.coordinator.PublicKey())
	log.Info("Published system parameters for %d candidates from %d counters", len(params.Candidates), len(f.counters))
	return params, nil
}

// --- Registration ---

// Register runs one voter through registration: the request travels to the
// coordinator as a code, the signed blank ballot travels back, and the
// certification is published.
func (f *Flow) Register(ctx *context.OperationContext, voter *actors.Voter, weight uint32) (*io.HandoffMaterials, error) {
	materials := io.NewHandoffMaterials()

	err := ctx.Recorder.Record("CreateRequest", metrics.MLogic, func() error {
		request, err := voter.RegistrationRequest()
		if err != nil {
			return err
		}
		materials.Request = &io.RegistrationRequestQR{Request: request}
		return f.hw.Write(ctx, materials, materials.Request)
	})
	if err != nil {
		return nil, xerrors.Errorf("voter %s request: %w", voter.ID(), err)
	}

	err = ctx.Recorder.Record("Certify", metrics.MLogic, func() error {
		code, err := f.hw.Read(ctx, materials, io.RegistrationRequestQRType)
		if err != nil {
			return err
		}
		scanned, ok := code.(*io.RegistrationRequestQR)
		if !ok {
			return xerrors.Errorf("read code was not a RegistrationRequestQR")
		}
		response, entry, err := f.coordinator.Certify(voter.ID(), weight, scanned.Request)
		if err != nil {
			return err
		}
		f.ledger.AppendCertificationRecord(entry)
		materials.BlankBallot = &io.BlankBallotQR{Response: response}
		return f.hw.Write(ctx, materials, materials.BlankBallot)
	})
	if err != nil {
		return nil, xerrors.Errorf("voter %s certification: %w", voter.ID(), err)
	}

	err = ctx.Recorder.Record("AcceptBlankBallot", metrics.MLogic, func() error {
		code, err := f.hw.Read(ctx, materials, io.BlankBallotQRType)
		if err != nil {
			return err
		}
		scanned, ok := code.(*io.BlankBallotQR)
		if !ok {
			return xerrors.Errorf("read code was not a BlankBallotQR")
		}
		return voter.AcceptBlankBallot(f.prims, f.coordinator.PublicKey(), scanned.Response)
	})
	if err != nil {
		return nil, xerrors.Errorf("voter %s blank ballot: %w", voter.ID(), err)
	}
	return materials, nil
}

// --- Voting ---

// CastVote builds the voter's request, checks it as any verifier would and
// publishes it.
func (f *Flow) CastVote(ctx *context.OperationContext, voter *actors.Voter, choices abv.VoteChoices) (*ledger.VoteEntry, error) {
	if f.verifier == nil {
		return nil, xerrors.Errorf("cast before setup: %w", actors.ErrNotReady)
	}

	var request *abv.VoteRequest
	err := ctx.Recorder.Record("Vote", metrics.MLogic, func() error {
		var err error
		request, err = voter.Vote(choices)
		return err
	})
	if err != nil {
		return nil, xerrors.Errorf("voter %s: %w", voter.ID(), err)
	}

	var entry *ledger.VoteEntry
	err = ctx.Recorder.Record("VerifyAndPublish", metrics.MLogic, func() error {
		if err := f.verifier.Verify(request); err != nil {
			return err
		}
		entry, err = f.ledger.AppendVoteRecord(request)
		return err
	})
	if err != nil {
		return nil, xerrors.Errorf("voter %s: %w", voter.ID(), err)
	}
	return entry, nil
}

// --- Audit ---

// Audit re-verifies the whole ledger and returns the Merkle root of the
// published votes.
func (f *Flow) Audit(ctx *context.OperationContext) ([]byte, error) {
	if f.verifier == nil {
		return nil, xerrors.Errorf("audit before setup: %w", actors.ErrNotReady)
	}
	certs, votes := f.ledger.GetCertificationRecords(), f.ledger.GetVotingRecords()
	log.Info("Auditing %d certifications and %d votes...", len(certs), len(votes))

	err := ctx.Recorder.Record("VerifyLedger", metrics.MLogic, func() error {
		return ledger.VerifyLedgerContents(ctx, f.prims, f.coordinator.PublicKey(), f.verifier, certs, votes)
	})
	if err != nil {
		return nil, err
	}

	var root []byte
	err = ctx.Recorder.Record("MerkleRoot", metrics.MLogic, func() error {
		root, err = f.ledger.MerkleRoot()
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Info("Ledger verified: %d votes, certified weight %d, root %x", len(votes), f.ledger.TotalCertifiedWeight(), root)
	return root, nil
}
