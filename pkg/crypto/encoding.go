package crypto

import (
	"go.dedis.ch/kyber/v3"
	"golang.org/x/xerrors"
)

// PointToBytes returns the canonical encoding of p.
func PointToBytes(p kyber.Point) ([]byte, error) {
	if p == nil {
		return nil, xerrors.New("nil point")
	}
	return p.MarshalBinary()
}

// BytesToPoint decodes a point, rejecting invalid or non-canonical input.
func BytesToPoint(b []byte) (kyber.Point, error) {
	p := Suite.Point()
	if err := p.UnmarshalBinary(b); err != nil {
		return nil, xerrors.Errorf("decoding point: %w", err)
	}
	return p, nil
}

func ScalarToBytes(s kyber.Scalar) ([]byte, error) {
	if s == nil {
		return nil, xerrors.New("nil scalar")
	}
	return s.MarshalBinary()
}

func BytesToScalar(b []byte) (kyber.Scalar, error) {
	s := Suite.Scalar()
	if err := s.UnmarshalBinary(b); err != nil {
		return nil, xerrors.Errorf("decoding scalar: %w", err)
	}
	return s, nil
}

// ConcatPoints encodes the points back to back.
func ConcatPoints(points ...kyber.Point) ([]byte, error) {
	var out []byte
	for i, p := range points {
		b, err := PointToBytes(p)
		if err != nil {
			return nil, xerrors.Errorf("point %d: %w", i, err)
		}
		out = append(out, b...)
	}
	return out, nil
}
