package crypto

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Hasher digests the byte encoding that a signature binds.
type Hasher interface {
	Hash(data []byte) []byte
}

// SignatureScheme signs and verifies message digests. Keys and signatures
// travel as opaque byte strings so schemes can be swapped freely.
type SignatureScheme interface {
	Name() string
	GenerateKeyPair() (publicKey, privateKey []byte, err error)
	Sign(privateKey, messageHash []byte) ([]byte, error)
	Verify(publicKey, messageHash, signature []byte) bool
}

// Primitives is the capability set handed to every operation that signs or
// checks a signature.
type Primitives struct {
	Hash      Hasher
	Signature SignatureScheme
}

func (p Primitives) String() string {
	return fmt.Sprintf("Primitives{Signature: %s}", p.Signature.Name())
}

// Keccak256 is the legacy (pre-FIPS) Keccak-256 hash used by Ethereum.
type Keccak256 struct{}

func (Keccak256) Hash(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

// DefaultPrimitives is Keccak-256 with ECDSA over secp256k1.
func DefaultPrimitives() Primitives {
	return Primitives{Hash: Keccak256{}, Signature: Secp256k1{}}
}

// PrimitivesByName resolves the signature scheme named on the command line.
func PrimitivesByName(name string) (Primitives, error) {
	switch strings.ToLower(name) {
	case "", "secp256k1":
		return DefaultPrimitives(), nil
	case "schnorr":
		return Primitives{Hash: Keccak256{}, Signature: Schnorr{}}, nil
	default:
		return Primitives{}, fmt.Errorf("unknown signature scheme %q", name)
	}
}
