package abv

import (
	"boundedvote/pkg/crypto"

	"golang.org/x/xerrors"
)

// MakeCounterSecret draws a fresh poll secret share.
func MakeCounterSecret() *CounterSecret {
	return &CounterSecret{PollSecretShare: crypto.RandomScalar()}
}

// MakeSystemParametersShare publishes secret·G2 under the counter's ID.
func MakeSystemParametersShare(counterID string, secret *CounterSecret) (*CounterParameterShare, error) {
	if secret == nil || secret.PollSecretShare == nil {
		return nil, xerrors.Errorf("counter %s: missing poll secret share: %w", counterID, ErrParse)
	}
	return &CounterParameterShare{
		CounterID:      counterID,
		PollPointShare: crypto.Suite.Point().Mul(secret.PollSecretShare, crypto.G2),
	}, nil
}
