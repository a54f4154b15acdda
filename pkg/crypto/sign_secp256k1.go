package crypto

import (
	"bytes"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/xerrors"
)

// Secp256k1 is ECDSA over secp256k1. Public keys are 65-byte uncompressed
// encodings, private keys 32 bytes, signatures 65-byte [R || S || V].
type Secp256k1 struct{}

func (Secp256k1) Name() string { return "secp256k1" }

func (Secp256k1) GenerateKeyPair() ([]byte, []byte, error) {
	key, err := ethcrypto.GenerateKey()
	if err != nil {
		return nil, nil, xerrors.Errorf("generating secp256k1 key: %w", err)
	}
	return ethcrypto.FromECDSAPub(&key.PublicKey), ethcrypto.FromECDSA(key), nil
}

func (Secp256k1) Sign(privateKey, messageHash []byte) ([]byte, error) {
	key, err := ethcrypto.ToECDSA(privateKey)
	if err != nil {
		return nil, xerrors.Errorf("parsing secp256k1 private key: %w", err)
	}
	sig, err := ethcrypto.Sign(messageHash, key)
	if err != nil {
		return nil, xerrors.Errorf("secp256k1 sign: %w", err)
	}
	return sig, nil
}

// Verify accepts 64-byte [R || S] signatures, and 65-byte ones whose
// recovery byte yields publicKey.
func (Secp256k1) Verify(publicKey, messageHash, signature []byte) bool {
	if len(signature) == ethcrypto.SignatureLength {
		recovered, err := ethcrypto.Ecrecover(messageHash, signature)
		if err != nil || !bytes.Equal(recovered, publicKey) {
			return false
		}
		signature = signature[:ethcrypto.SignatureLength-1]
	}
	if len(signature) != ethcrypto.SignatureLength-1 {
		return false
	}
	return ethcrypto.VerifySignature(publicKey, messageHash, signature)
}
