package serialization

import (
	"bytes"
	"encoding/binary"
	"math"

	"go.dedis.ch/kyber/v3"
	"golang.org/x/xerrors"
)

// Serializer accumulates a binary encoding. The first error is sticky and
// reported by Bytes; every later write is a no-op.
type Serializer struct {
	buf *bytes.Buffer
	err error
}

func NewSerializer() *Serializer {
	return &Serializer{buf: new(bytes.Buffer)}
}

func (s *Serializer) Write(data []byte) {
	if s.err != nil {
		return
	}
	_, s.err = s.buf.Write(data)
}

func (s *Serializer) WriteUint32(u uint32) {
	if s.err != nil {
		return
	}
	s.err = binary.Write(s.buf, binary.BigEndian, u)
}

func (s *Serializer) WriteUint64(u uint64) {
	if s.err != nil {
		return
	}
	s.err = binary.Write(s.buf, binary.BigEndian, u)
}

// WriteCount writes a collection length as a uint32.
func (s *Serializer) WriteCount(n int) {
	if s.err != nil {
		return
	}
	if n < 0 || n > math.MaxUint32 {
		s.err = xerrors.Errorf("count %d out of range", n)
		return
	}
	s.WriteUint32(uint32(n))
}

// WriteKyber marshals points and scalars back to back. A nil value is an error.
func (s *Serializer) WriteKyber(obj ...kyber.Marshaling) {
	if s.err != nil {
		return
	}
	for i, o := range obj {
		if o == nil {
			s.err = xerrors.Errorf("nil kyber value at position %d", i)
			return
		}
		_, s.err = o.MarshalTo(s.buf)
		if s.err != nil {
			return
		}
	}
}

// WriteByteSlice writes a length-prefixed byte slice.
func (s *Serializer) WriteByteSlice(b []byte) {
	if s.err != nil {
		return
	}
	s.WriteCount(len(b))
	s.Write(b)
}

// WriteString writes a length-prefixed UTF-8 string.
func (s *Serializer) WriteString(str string) {
	s.WriteByteSlice([]byte(str))
}

func (s *Serializer) Bytes() ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.buf.Bytes(), nil
}
