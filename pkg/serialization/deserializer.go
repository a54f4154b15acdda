package serialization

import (
	"bytes"
	"encoding/binary"
	"io"

	"go.dedis.ch/kyber/v3"
	"golang.org/x/xerrors"
)

// maxSliceLen bounds length prefixes so a corrupt input cannot force a huge allocation.
const maxSliceLen = 1 << 24

type Deserializer struct {
	r   *bytes.Reader
	err error
}

func NewDeserializer(data []byte) *Deserializer {
	return &Deserializer{r: bytes.NewReader(data)}
}

func (d *Deserializer) Read(p []byte) {
	if d.err != nil {
		return
	}
	_, d.err = io.ReadFull(d.r, p)
}

func (d *Deserializer) ReadUint32() uint32 {
	if d.err != nil {
		return 0
	}
	var u uint32
	d.err = binary.Read(d.r, binary.BigEndian, &u)
	return u
}

func (d *Deserializer) ReadUint64() uint64 {
	if d.err != nil {
		return 0
	}
	var u uint64
	d.err = binary.Read(d.r, binary.BigEndian, &u)
	return u
}

// ReadCount reads a collection length written by WriteCount.
func (d *Deserializer) ReadCount() int {
	n := d.ReadUint32()
	if d.err != nil {
		return 0
	}
	if n > maxSliceLen {
		d.err = xerrors.Errorf("count %d exceeds limit %d", n, maxSliceLen)
		return 0
	}
	// Every element takes at least one byte, so a count past the unread
	// input is corrupt.
	if int64(n) > int64(d.r.Len()) {
		d.err = xerrors.Errorf("count %d exceeds the %d unread bytes", n, d.r.Len())
		return 0
	}
	return int(n)
}

func (d *Deserializer) ReadKyber(obj ...kyber.Marshaling) {
	if d.err != nil {
		return
	}
	for _, o := range obj {
		_, d.err = o.UnmarshalFrom(d.r)
		if d.err != nil {
			return
		}
	}
}

// ReadByteSlice reads a length-prefixed byte slice.
func (d *Deserializer) ReadByteSlice() []byte {
	length := d.ReadCount()
	if d.err != nil {
		return nil
	}
	buf := make([]byte, length)
	d.Read(buf)
	return buf
}

func (d *Deserializer) ReadString() string {
	return string(d.ReadByteSlice())
}

// Finish reports the sticky error, or an error if unread bytes remain.
func (d *Deserializer) Finish() error {
	if d.err != nil {
		return d.err
	}
	if d.r.Len() != 0 {
		return xerrors.Errorf("%d trailing bytes", d.r.Len())
	}
	return nil
}

func (d *Deserializer) Err() error {
	if d.err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return d.err
}
