// Package ledger is the in-memory bulletin board: an append-only record of
// certified blank ballots and published vote requests.
package ledger

import (
	"sync"

	"boundedvote/pkg/abv"
	"boundedvote/pkg/concurrency"
	"boundedvote/pkg/context"
	"boundedvote/pkg/crypto"
	"boundedvote/pkg/log"

	"github.com/cbergoon/merkletree"
	"golang.org/x/crypto/sha3"
	"golang.org/x/xerrors"
)

var (
	// ErrBallotReused reports a second vote request built on the same blank ballot.
	ErrBallotReused = xerrors.New("ledger: blank ballot already consumed")
	// ErrUncertified reports a vote whose blank ballot was never certified.
	ErrUncertified = xerrors.New("ledger: blank ballot not certified")
	// ErrEmpty reports a Merkle operation on a ledger without votes.
	ErrEmpty = xerrors.New("ledger: no vote records")
)

// VoteVerifier checks a single published vote request.
type VoteVerifier interface {
	Verify(request *abv.VoteRequest) error
}

// Ledger is safe for concurrent use.
type Ledger struct {
	mu             sync.RWMutex
	hasher         crypto.Hasher
	certifications []*CertificationEntry
	votes          []*VoteEntry
	consumed       map[string]struct{} // blank ballot digests already voted with
	tree           *merkletree.MerkleTree
}

func NewLedger(h crypto.Hasher) *Ledger {
	return &Ledger{
		hasher:   h,
		consumed: make(map[string]struct{}),
	}
}

// AppendCertificationRecord publishes a certified blank ballot.
func (l *Ledger) AppendCertificationRecord(entry *CertificationEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.certifications = append(l.certifications, entry)
}

// GetCertificationRecords returns a snapshot of the certification records.
func (l *Ledger) GetCertificationRecords() []*CertificationEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]*CertificationEntry(nil), l.certifications...)
}

// TotalCertifiedWeight sums the weight of every certified blank ballot.
// Records are not re-verified here; VerifyLedgerContents checks each
// weight signature.
func (l *Ledger) TotalCertifiedWeight() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var total uint64
	for _, c := range l.certifications {
		total += uint64(c.Weight)
	}
	return total
}

// AppendVoteRecord publishes a vote request. Each blank ballot can be
// consumed exactly once.
func (l *Ledger) AppendVoteRecord(request *abv.VoteRequest) (*VoteEntry, error) {
	entry, err := NewVoteEntry(l.hasher, request)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	key := string(entry.BlankDigest)
	if _, used := l.consumed[key]; used {
		return nil, xerrors.Errorf("blank ballot %x: %w", entry.BlankDigest, ErrBallotReused)
	}
	l.consumed[key] = struct{}{}
	l.votes = append(l.votes, entry)
	l.tree = nil
	log.Trace("Appended vote record %d for blank ballot %x", len(l.votes), entry.BlankDigest)
	return entry, nil
}

// GetVotingRecords returns a snapshot of the vote records.
func (l *Ledger) GetVotingRecords() []*VoteEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]*VoteEntry(nil), l.votes...)
}

// merkleTree builds the tree over the current votes, reusing the last one
// while no vote was appended. Callers hold l.mu.
func (l *Ledger) merkleTree() (*merkletree.MerkleTree, error) {
	if l.tree != nil {
		return l.tree, nil
	}
	if len(l.votes) == 0 {
		return nil, ErrEmpty
	}
	contents := make([]merkletree.Content, len(l.votes))
	for i, v := range l.votes {
		contents[i] = v
	}
	tree, err := merkletree.NewTreeWithHashStrategy(contents, sha3.NewLegacyKeccak256)
	if err != nil {
		return nil, xerrors.Errorf("building vote tree: %w", err)
	}
	l.tree = tree
	return tree, nil
}

// MerkleRoot commits to every vote record in append order.
func (l *Ledger) MerkleRoot() ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	tree, err := l.merkleTree()
	if err != nil {
		return nil, err
	}
	return tree.MerkleRoot(), nil
}

// VerifyInclusion reports whether entry is one of the vote records under
// the current root.
func (l *Ledger) VerifyInclusion(entry *VoteEntry) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	tree, err := l.merkleTree()
	if err != nil {
		return false, err
	}
	return tree.VerifyContent(entry)
}

// VerifyLedgerContents audits the board: every certification carries a
// valid coordinator signature, every vote spends a distinct certified
// blank ballot and passes verifier. Votes are checked in parallel.
func VerifyLedgerContents(ctx *context.OperationContext,
	prims crypto.Primitives,
	coordinatorPublicKey []byte,
	verifier VoteVerifier,
	certs []*CertificationEntry,
	votes []*VoteEntry) error {

	log.Debug("Verifying %d certification records", len(certs))
	certified := make(map[string]struct{}, len(certs))
	if err := concurrency.ForEach(ctx, certs, func(_ int, c *CertificationEntry) error {
		return c.Verify(prims, coordinatorPublicKey)
	}); err != nil {
		return xerrors.Errorf("failed to verify certification record: %w", err)
	}
	for _, c := range certs {
		certified[string(c.BallotDigest)] = struct{}{}
	}

	log.Debug("Checking %d vote records against certified ballots", len(votes))
	spent := make(map[string]struct{}, len(votes))
	for i, v := range votes {
		key := string(v.BlankDigest)
		if _, ok := certified[key]; !ok {
			return xerrors.Errorf("vote record %d: %w", i, ErrUncertified)
		}
		if _, dup := spent[key]; dup {
			return xerrors.Errorf("vote record %d: %w", i, ErrBallotReused)
		}
		spent[key] = struct{}{}
	}

	log.Debug("Verifying %d vote requests", len(votes))
	return concurrency.ForEach(ctx, votes, func(i int, v *VoteEntry) error {
		if err := verifier.Verify(v.Request); err != nil {
			return xerrors.Errorf("failed to verify vote record %d: %w", i, err)
		}
		return nil
	})
}
