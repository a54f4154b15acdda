package crypto

import (
	"go.dedis.ch/kyber/v3/sign/schnorr"
	"golang.org/x/xerrors"
)

// Schnorr signs over the same kyber suite as the ballots. Keys are the
// binary encodings of a kyber scalar (private) and point (public).
type Schnorr struct{}

func (Schnorr) Name() string { return "schnorr" }

func (Schnorr) GenerateKeyPair() ([]byte, []byte, error) {
	sk := RandomScalar()
	pk := Suite.Point().Mul(sk, nil)
	pkBytes, err := pk.MarshalBinary()
	if err != nil {
		return nil, nil, err
	}
	skBytes, err := sk.MarshalBinary()
	if err != nil {
		return nil, nil, err
	}
	return pkBytes, skBytes, nil
}

func (Schnorr) Sign(privateKey, messageHash []byte) ([]byte, error) {
	sk, err := BytesToScalar(privateKey)
	if err != nil {
		return nil, xerrors.Errorf("parsing schnorr private key: %w", err)
	}
	return schnorr.Sign(Suite, sk, messageHash)
}

func (Schnorr) Verify(publicKey, messageHash, signature []byte) bool {
	pk, err := BytesToPoint(publicKey)
	if err != nil {
		return false
	}
	return schnorr.Verify(Suite, pk, messageHash, signature) == nil
}
