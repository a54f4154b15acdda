package actors

import (
	"slices"
	"sync"

	"boundedvote/pkg/abv"
	"boundedvote/pkg/crypto"
	"boundedvote/pkg/ledger"
	"boundedvote/pkg/log"

	"golang.org/x/xerrors"
)

var (
	// ErrUnknownCounter reports a share from a counter that was never registered.
	ErrUnknownCounter = xerrors.New("actors: unknown counter")
	// ErrAlreadyRegistered reports a second certification for the same voter.
	ErrAlreadyRegistered = xerrors.New("actors: voter already certified")
	// ErrNotReady reports an operation attempted before its prerequisite step.
	ErrNotReady = xerrors.New("actors: protocol step out of order")
)

// --- Counter ---

// Counter holds one share of the poll secret.
type Counter struct {
	id     string
	secret *abv.CounterSecret
}

// NewCounter draws a fresh poll secret share for the counter.
func NewCounter(id string) *Counter {
	return &Counter{id: id, secret: abv.MakeCounterSecret()}
}

func (c *Counter) ID() string { return c.id }

// ParameterShare returns the public share for the coordinator.
func (c *Counter) ParameterShare() (*abv.CounterParameterShare, error) {
	return abv.MakeSystemParametersShare(c.id, c.secret)
}

// --- Coordinator ---

// Coordinator aggregates counter shares into the system parameters and
// certifies voters. Shares may arrive concurrently.
type Coordinator struct {
	prims     crypto.Primitives
	publicKey []byte
	secretKey []byte

	mu        sync.Mutex
	counters  map[string]struct{}
	shares    map[string]*abv.CounterParameterShare
	params    *abv.SystemParameters
	certified map[string]struct{}
}

// NewCoordinator generates the coordinator's signing key and registers the
// counters whose shares it will wait for.
func NewCoordinator(prims crypto.Primitives, counterIDs []string) (*Coordinator, error) {
	if len(counterIDs) == 0 {
		return nil, xerrors.Errorf("no counters registered: %w", abv.ErrIncompleteAggregation)
	}
	pk, sk, err := prims.Signature.GenerateKeyPair()
	if err != nil {
		return nil, xerrors.Errorf("failed to create coordinator key: %w", err)
	}
	counters := make(map[string]struct{}, len(counterIDs))
	for _, id := range counterIDs {
		counters[id] = struct{}{}
	}
	return &Coordinator{
		prims:     prims,
		publicKey: pk,
		secretKey: sk,
		counters:  counters,
		shares:    make(map[string]*abv.CounterParameterShare, len(counterIDs)),
		certified: make(map[string]struct{}),
	}, nil
}

// PublicKey returns the key blank ballot signatures verify under.
func (co *Coordinator) PublicKey() []byte {
	return co.publicKey
}

// ReceiveShare stores a counter's share. Shares from unknown counters, and
// a second share from the same counter, are rejected.
func (co *Coordinator) ReceiveShare(share *abv.CounterParameterShare) error {
	if share == nil {
		return xerrors.Errorf("nil share: %w", abv.ErrParse)
	}
	co.mu.Lock()
	defer co.mu.Unlock()
	if co.params != nil {
		return xerrors.Errorf("share from %s after aggregation: %w", share.CounterID, ErrNotReady)
	}
	if _, ok := co.counters[share.CounterID]; !ok {
		return xerrors.Errorf("counter %s: %w", share.CounterID, ErrUnknownCounter)
	}
	if _, dup := co.shares[share.CounterID]; dup {
		return xerrors.Errorf("counter %s reported twice: %w", share.CounterID, abv.ErrIncompleteAggregation)
	}
	co.shares[share.CounterID] = share
	log.Trace("Coordinator received share %d/%d from %s", len(co.shares), len(co.counters), share.CounterID)
	return nil
}

// Aggregate publishes the system parameters once every registered counter
// has reported. Repeating the call with the same candidates returns the
// published parameters; a different list is rejected.
func (co *Coordinator) Aggregate(candidates []string) (*abv.SystemParameters, error) {
	co.mu.Lock()
	defer co.mu.Unlock()
	if co.params != nil {
		if !slices.Equal(co.params.Candidates, candidates) {
			return nil, xerrors.Errorf("parameters already published for %v: %w", co.params.Candidates, ErrNotReady)
		}
		return co.params, nil
	}
	if len(co.shares) != len(co.counters) {
		return nil, xerrors.Errorf("%d of %d counters reported: %w", len(co.shares), len(co.counters), abv.ErrIncompleteAggregation)
	}
	shares := make([]*abv.CounterParameterShare, 0, len(co.shares))
	for _, s := range co.shares {
		shares = append(shares, s)
	}
	params, err := abv.MakeSystemParameters(candidates, shares)
	if err != nil {
		return nil, err
	}
	co.params = params
	return params, nil
}

// Params returns the published system parameters, or nil before Aggregate.
func (co *Coordinator) Params() *abv.SystemParameters {
	co.mu.Lock()
	defer co.mu.Unlock()
	return co.params
}

// Certify issues a signed blank ballot of the given weight. A voter is
// certified at most once.
func (co *Coordinator) Certify(voterID string, weight uint32, request *abv.RegistrationRequest) (*abv.RegistrationResponse, *ledger.CertificationEntry, error) {
	co.mu.Lock()
	if co.params == nil {
		co.mu.Unlock()
		return nil, nil, xerrors.Errorf("certify before aggregation: %w", ErrNotReady)
	}
	if _, dup := co.certified[voterID]; dup {
		co.mu.Unlock()
		return nil, nil, xerrors.Errorf("voter %s: %w", voterID, ErrAlreadyRegistered)
	}
	co.certified[voterID] = struct{}{}
	co.mu.Unlock()

	response, err := abv.CertifyBoundedVoter(co.prims, co.secretKey, weight, request)
	if err != nil {
		co.mu.Lock()
		delete(co.certified, voterID)
		co.mu.Unlock()
		return nil, nil, err
	}
	digest, err := abv.BallotDigest(co.prims.Hash, response.Ballot)
	if err != nil {
		return nil, nil, err
	}
	entry, err := ledger.NewCertificationEntry(co.prims, co.secretKey, weight, digest, response.Signature)
	if err != nil {
		return nil, nil, err
	}
	return response, entry, nil
}

// --- Voter ---

// Voter keeps the blinding secret behind its blank ballot.
type Voter struct {
	id       string
	params   *abv.SystemParameters
	secret   *abv.VoterSecret
	request  *abv.RegistrationRequest
	response *abv.RegistrationResponse
}

func NewVoter(id string, params *abv.SystemParameters) *Voter {
	return &Voter{id: id, params: params}
}

func (v *Voter) ID() string { return v.id }

// RegistrationRequest draws the voter secret and blinds the bases with it.
// Calling it again returns the same request.
func (v *Voter) RegistrationRequest() (*abv.RegistrationRequest, error) {
	if v.request != nil {
		return v.request, nil
	}
	secret := abv.MakeVoterSecret()
	request, err := abv.MakeBoundedRegistrationRequest(secret, v.params)
	if err != nil {
		return nil, err
	}
	v.secret, v.request = secret, request
	return request, nil
}

// AcceptBlankBallot checks the coordinator's response before keeping it.
func (v *Voter) AcceptBlankBallot(prims crypto.Primitives, coordinatorPublicKey []byte, response *abv.RegistrationResponse) error {
	if v.request == nil {
		return xerrors.Errorf("voter %s has no pending request: %w", v.id, ErrNotReady)
	}
	if err := abv.VerifyBlankBallot(prims, coordinatorPublicKey, v.request, response); err != nil {
		return xerrors.Errorf("voter %s: %w", v.id, err)
	}
	v.response = response
	return nil
}

// Weight is the certified weight, zero before registration.
func (v *Voter) Weight() uint32 {
	if v.response == nil {
		return 0
	}
	return v.response.VoterWeight
}

// Vote splits the certified weight according to choices.
func (v *Voter) Vote(choices abv.VoteChoices) (*abv.VoteRequest, error) {
	if v.response == nil {
		return nil, xerrors.Errorf("voter %s holds no blank ballot: %w", v.id, ErrNotReady)
	}
	return abv.VoteBounded(v.secret, choices, v.response, v.params)
}

// --- Verifier ---

// Verifier checks vote requests against fixed parameters and coordinator key.
type Verifier struct {
	prims                crypto.Primitives
	params               *abv.SystemParameters
	coordinatorPublicKey []byte
}

func NewVerifier(prims crypto.Primitives, params *abv.SystemParameters, coordinatorPublicKey []byte) *Verifier {
	return &Verifier{prims: prims, params: params, coordinatorPublicKey: coordinatorPublicKey}
}

// Verify implements ledger.VoteVerifier.
func (vf *Verifier) Verify(request *abv.VoteRequest) error {
	return abv.VerifyBoundedVoteRequest(vf.prims, vf.params, request, vf.coordinatorPublicKey)
}
