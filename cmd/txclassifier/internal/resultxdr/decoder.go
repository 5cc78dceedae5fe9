package resultxdr

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	ErrTruncated           = errors.New("xdr: truncated input")
	ErrInvalidLength       = errors.New("xdr: invalid length")
	ErrUnknownDiscriminant = errors.New("xdr: unknown discriminant")
	ErrUnsupportedArm      = errors.New("xdr: unsupported union arm")
)

const unitSize = 4

// Decoder reads big-endian XDR primitives from a byte slice.
//
// Every read either returns a value and advances the cursor, or returns an
// error and leaves the cursor where it was. Malformed input never panics.
type Decoder struct {
	buf []byte
	pos int
}

func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// NewDecoderAt returns a decoder whose cursor starts at offset. An offset
// outside the buffer leaves nothing to read.
func NewDecoderAt(buf []byte, offset int) *Decoder {
	if offset < 0 || offset > len(buf) {
		offset = len(buf)
	}
	return &Decoder{buf: buf, pos: offset}
}

func (d *Decoder) Offset() int {
	return d.pos
}

func (d *Decoder) Remaining() int {
	return len(d.buf) - d.pos
}

func (d *Decoder) take(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, n)
	}
	if n > d.Remaining() {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d",
			ErrTruncated, n, d.pos, d.Remaining())
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *Decoder) ReadUint32() (uint32, error) {
	b, err := d.take(unitSize)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (d *Decoder) ReadInt32() (int32, error) {
	v, err := d.ReadUint32()
	return int32(v), err
}

// ReadDiscriminant reads a union tag. Mapping the tag to an arm (or to an
// unknown-arm failure) is up to the caller.
func (d *Decoder) ReadDiscriminant() (uint32, error) {
	return d.ReadUint32()
}

func (d *Decoder) ReadInt64() (int64, error) {
	b, err := d.take(2 * unitSize)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

// ReadFixedBytes reads exactly n bytes. The returned slice does not alias the
// decoder's buffer.
func (d *Decoder) ReadFixedBytes(n int) ([]byte, error) {
	b, err := d.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// ReadOpaqueVarBytes reads a length-prefixed opaque block and skips the
// padding up to the next 4-byte boundary.
func (d *Decoder) ReadOpaqueVarBytes() ([]byte, error) {
	start := d.pos
	n, err := d.ReadInt32()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		d.pos = start
		return nil, fmt.Errorf("%w: opaque length %d at offset %d", ErrInvalidLength, n, start)
	}
	length := int(n)
	padded := length + padding(length)
	if padded > d.Remaining() {
		d.pos = start
		return nil, fmt.Errorf("%w: opaque block of %d bytes at offset %d, have %d",
			ErrTruncated, length, start, len(d.buf)-start-unitSize)
	}
	out := make([]byte, length)
	copy(out, d.buf[d.pos:d.pos+length])
	d.pos += padded
	return out, nil
}

func padding(n int) int {
	return (unitSize - n%unitSize) % unitSize
}
