package crypto

import (
	"crypto/cipher"

	"boundedvote/pkg/log"

	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/suites"
	"go.dedis.ch/kyber/v3/util/random"
)

// Suite is the prime-order group every ballot, share and proof lives in.
var Suite = suites.MustFind("Ed25519")

// RandomStream is the source for every secret and blinding scalar.
var RandomStream cipher.Stream

// g2Label seeds the derivation of G2. Changing it changes every commitment.
const g2Label = "boundedvote/generator/G2"

var (
	// G1 is the value basis of a ballot commitment.
	G1 = Suite.Point().Base()
	// G2 is the blinding basis. It is hashed from a public label so nobody
	// knows its discrete logarithm with respect to G1.
	G2 = Suite.Point().Pick(Suite.XOF([]byte(g2Label)))
)

func init() {
	RandomStream = Suite.RandomStream()
}

// InitCryptoParams selects the random source. A non-empty seed makes every
// draw deterministic, which is only meant for tests and reproducible runs.
func InitCryptoParams(seed string) {
	if seed != "" {
		log.Debug("Using deterministic randomness seed: %s", seed)
		RandomStream = random.New(Suite.XOF([]byte(seed)))
	} else {
		log.Debug("Using random source")
		RandomStream = Suite.RandomStream()
	}
}

// RandomScalar draws a uniformly random scalar from RandomStream.
func RandomScalar() kyber.Scalar {
	return Suite.Scalar().Pick(RandomStream)
}

// ScalarFromUint32 lifts a weight or vote value into the scalar field.
func ScalarFromUint32(v uint32) kyber.Scalar {
	return Suite.Scalar().SetInt64(int64(v))
}

// ValuePoint returns v·G1.
func ValuePoint(v uint32) kyber.Point {
	return Suite.Point().Mul(ScalarFromUint32(v), G1)
}
