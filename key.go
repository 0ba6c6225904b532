// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package artindex

import (
	"encoding/binary"
	"math"

	"golang.org/x/exp/constraints"
)

// Index keys compare bytewise, so typed values must be encoded in a way
// that makes byte order agree with value order. The encoders here do
// that: big-endian for unsigned values, a flipped sign bit for signed
// ones, the usual sign-dependent bit trick for floats, and an escaped
// form for raw bytes so that no encoded value is a prefix of another.
// All integers widen to 8 bytes so that values of different declared
// widths still compare correctly.

const signFlip = uint64(1) << 63

// AppendUint appends the order-preserving encoding of an unsigned
// integer to dst.
func AppendUint[U constraints.Unsigned](dst []byte, v U) []byte {
	return binary.BigEndian.AppendUint64(dst, uint64(v))
}

// AppendInt appends the order-preserving encoding of a signed integer
// to dst. Flipping the sign bit moves negative values below positive
// ones in unsigned byte order.
func AppendInt[S constraints.Signed](dst []byte, v S) []byte {
	return binary.BigEndian.AppendUint64(dst, uint64(int64(v))^signFlip)
}

// AppendFloat64 appends the order-preserving encoding of a float to
// dst. Negative floats have all bits flipped, non-negative ones only
// the sign bit, which makes the IEEE 754 total order line up with byte
// order. NaN encodes among the extremes and is the caller's problem.
func AppendFloat64(dst []byte, v float64) []byte {
	bits := math.Float64bits(v)
	if bits&signFlip != 0 {
		bits = ^bits
	} else {
		bits |= signFlip
	}
	return binary.BigEndian.AppendUint64(dst, bits)
}

// AppendBool appends a bool as a single byte, false before true.
func AppendBool(dst []byte, v bool) []byte {
	if v {
		return append(dst, 1)
	}
	return append(dst, 0)
}

// AppendBytes appends an escaped encoding of b: every 0x00 becomes
// 0x00 0x01 and the value ends with 0x00 0x00. The escape keeps byte
// order intact and no encoded value is a prefix of another, so bytes
// columns compose with further key parts.
func AppendBytes(dst, b []byte) []byte {
	for _, c := range b {
		if c == 0x00 {
			dst = append(dst, 0x00, 0x01)
		} else {
			dst = append(dst, c)
		}
	}
	return append(dst, 0x00, 0x00)
}

// AppendString appends s with the same encoding as AppendBytes.
func AppendString(dst []byte, s string) []byte {
	return AppendBytes(dst, []byte(s))
}

// KeyBuilder accumulates the encoded parts of a composite key. The
// zero value is ready to use. Built keys order first by the first part,
// then by the second, matching a column-by-column comparison of the
// original values.
type KeyBuilder struct {
	buf []byte
}

func (b *KeyBuilder) Uint64(v uint64) *KeyBuilder {
	b.buf = AppendUint(b.buf, v)
	return b
}

func (b *KeyBuilder) Int64(v int64) *KeyBuilder {
	b.buf = AppendInt(b.buf, v)
	return b
}

func (b *KeyBuilder) Float64(v float64) *KeyBuilder {
	b.buf = AppendFloat64(b.buf, v)
	return b
}

func (b *KeyBuilder) Bool(v bool) *KeyBuilder {
	b.buf = AppendBool(b.buf, v)
	return b
}

func (b *KeyBuilder) Bytes(v []byte) *KeyBuilder {
	b.buf = AppendBytes(b.buf, v)
	return b
}

func (b *KeyBuilder) String(v string) *KeyBuilder {
	b.buf = AppendString(b.buf, v)
	return b
}

// Key returns the accumulated key. The builder keeps ownership of the
// returned slice until Reset is called.
func (b *KeyBuilder) Key() []byte {
	return b.buf
}

// Reset clears the builder for reuse, keeping its allocation.
func (b *KeyBuilder) Reset() {
	b.buf = b.buf[:0]
}
