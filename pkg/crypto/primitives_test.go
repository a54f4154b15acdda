package crypto

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func TestKeccak256(t *testing.T) {
	// Keccak-256 of the empty string, as used by Ethereum.
	want := "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"
	if got := hex.EncodeToString(Keccak256{}.Hash(nil)); got != want {
		t.Errorf("Keccak256(\"\") = %s, want %s", got, want)
	}
}

func TestSignatureSchemes(t *testing.T) {
	InitCryptoParams("boundedvote")
	digest := Keccak256{}.Hash([]byte("blank ballot"))

	for _, scheme := range []SignatureScheme{Secp256k1{}, Schnorr{}} {
		t.Run(scheme.Name(), func(t *testing.T) {
			pk, sk, err := scheme.GenerateKeyPair()
			if err != nil {
				t.Fatalf("GenerateKeyPair() error = %v", err)
			}
			sig, err := scheme.Sign(sk, digest)
			if err != nil {
				t.Fatalf("Sign() error = %v", err)
			}
			if !scheme.Verify(pk, digest, sig) {
				t.Errorf("Verify() rejected a valid signature")
			}

			other := Keccak256{}.Hash([]byte("another ballot"))
			if scheme.Verify(pk, other, sig) {
				t.Errorf("Verify() accepted a signature over a different digest")
			}

			otherPK, _, err := scheme.GenerateKeyPair()
			if err != nil {
				t.Fatalf("GenerateKeyPair() error = %v", err)
			}
			if scheme.Verify(otherPK, digest, sig) {
				t.Errorf("Verify() accepted a signature under the wrong key")
			}

			if scheme.Verify(pk, digest, sig[:len(sig)-2]) {
				t.Errorf("Verify() accepted a truncated signature")
			}
			if _, err := scheme.Sign([]byte{1, 2, 3}, digest); err == nil {
				t.Errorf("Sign() accepted a malformed private key")
			}
		})
	}
}

func TestPrimitivesByName(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"", "secp256k1", false},
		{"secp256k1", "secp256k1", false},
		{"Schnorr", "schnorr", false},
		{"rsa", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prims, err := PrimitivesByName(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("PrimitivesByName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if !tt.wantErr && prims.Signature.Name() != tt.want {
				t.Errorf("PrimitivesByName(%q) = %s, want %s", tt.name, prims.Signature.Name(), tt.want)
			}
		})
	}
}

func TestEncoding(t *testing.T) {
	InitCryptoParams("boundedvote")

	t.Run("points", func(t *testing.T) {
		p := Suite.Point().Pick(RandomStream)
		b, err := PointToBytes(p)
		if err != nil {
			t.Fatalf("PointToBytes() error = %v", err)
		}
		q, err := BytesToPoint(b)
		if err != nil {
			t.Fatalf("BytesToPoint() error = %v", err)
		}
		if !p.Equal(q) {
			t.Errorf("point did not survive encoding")
		}
		if _, err := PointToBytes(nil); err == nil {
			t.Errorf("PointToBytes(nil) should fail")
		}
	})

	t.Run("scalars", func(t *testing.T) {
		s := RandomScalar()
		b, err := ScalarToBytes(s)
		if err != nil {
			t.Fatalf("ScalarToBytes() error = %v", err)
		}
		u, err := BytesToScalar(b)
		if err != nil {
			t.Fatalf("BytesToScalar() error = %v", err)
		}
		if !s.Equal(u) {
			t.Errorf("scalar did not survive encoding")
		}
	})

	t.Run("concat", func(t *testing.T) {
		a, b := G1, G2
		out, err := ConcatPoints(a, b)
		if err != nil {
			t.Fatalf("ConcatPoints() error = %v", err)
		}
		ab, _ := a.MarshalBinary()
		bb, _ := b.MarshalBinary()
		if !bytes.Equal(out, append(ab, bb...)) {
			t.Errorf("ConcatPoints() is not the back-to-back encoding")
		}
		if _, err := ConcatPoints(a, nil); err == nil {
			t.Errorf("ConcatPoints() accepted a nil point")
		}
	})

	t.Run("generators", func(t *testing.T) {
		if G1.Equal(G2) {
			t.Errorf("G1 and G2 must differ")
		}
		if !ValuePoint(0).Equal(Suite.Point().Null()) {
			t.Errorf("ValuePoint(0) should be the identity")
		}
		if !ValuePoint(2).Equal(Suite.Point().Add(G1, G1)) {
			t.Errorf("ValuePoint(2) should be G1+G1")
		}
	})
}
