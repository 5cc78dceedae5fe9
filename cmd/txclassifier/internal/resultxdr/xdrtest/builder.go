// Package xdrtest assembles result records byte by byte for tests.
package xdrtest

import (
	"encoding/base64"
	"encoding/binary"
)

type Builder struct {
	buf []byte
}

func (b *Builder) Uint32(v uint32) *Builder {
	b.buf = binary.BigEndian.AppendUint32(b.buf, v)
	return b
}

func (b *Builder) Int32(v int32) *Builder {
	return b.Uint32(uint32(v))
}

func (b *Builder) Int64(v int64) *Builder {
	b.buf = binary.BigEndian.AppendUint64(b.buf, uint64(v))
	return b
}

func (b *Builder) Fixed(p []byte) *Builder {
	b.buf = append(b.buf, p...)
	return b
}

// Opaque appends a length-prefixed block padded with zeros to 4 bytes.
func (b *Builder) Opaque(p []byte) *Builder {
	b.Uint32(uint32(len(p)))
	b.buf = append(b.buf, p...)
	for len(b.buf)%4 != 0 {
		b.buf = append(b.buf, 0)
	}
	return b
}

// Op describes one operation result record. Outer zero selects the inner arm.
type Op struct {
	Outer int32
	Kind  int32
	Code  int32
}

func InnerOp(kind, code int32) Op {
	return Op{Kind: kind, Code: code}
}

func OuterOp(code int32) Op {
	return Op{Outer: code}
}

// Ops appends an operation result array.
func (b *Builder) Ops(ops ...Op) *Builder {
	b.Uint32(uint32(len(ops)))
	for _, op := range ops {
		b.Int32(op.Outer)
		if op.Outer == 0 {
			b.Int32(op.Kind).Int32(op.Code)
		}
	}
	return b
}

func (b *Builder) Bytes() []byte {
	return append([]byte(nil), b.buf...)
}

func (b *Builder) Base64() string {
	return base64.StdEncoding.EncodeToString(b.buf)
}

// Result is a bare record holding only a result code.
func Result(code int32) *Builder {
	return new(Builder).Int32(code)
}

// FailedResult is a bare txFAILED record with the given operation results.
func FailedResult(ops ...Op) *Builder {
	return new(Builder).Int32(-1).Ops(ops...)
}
