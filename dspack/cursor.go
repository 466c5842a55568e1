// SPDX-License-Identifier: MIT
// Copyright (c) 2026 NomadWithoutAHome
// Source: github.com/NomadWithoutAHome/F.E.A.R-Tools

package dspack

import (
	"encoding/binary"
	"fmt"
	"math"
)

// cursor is a positioned, endian-aware reader of fixed-width integers over a
// byte section. The byte order is fixed at construction and never mutated, so
// every field of an archive is decoded with the same explicit order.
type cursor struct {
	buf   []byte
	order binary.ByteOrder
	pos   int
}

// newCursor returns a cursor over buf decoding with the given byte order.
func newCursor(buf []byte, order binary.ByteOrder) *cursor {
	return &cursor{buf: buf, order: order}
}

// remaining reports how many unread bytes are left in the section.
func (c *cursor) remaining() int {
	return len(c.buf) - c.pos
}

// skip advances the position by n bytes.
func (c *cursor) skip(n int) error {
	if n < 0 || c.pos+n > len(c.buf) {
		return fmt.Errorf("%w: skip %d at %d exceeds section of %d bytes", ErrBounds, n, c.pos, len(c.buf))
	}
	c.pos += n

	return nil
}

// take consumes the next n bytes of the section.
func (c *cursor) take(n int) ([]byte, error) {
	if n < 0 || c.pos+n > len(c.buf) {
		return nil, fmt.Errorf("%w: read %d at %d exceeds section of %d bytes", ErrBounds, n, c.pos, len(c.buf))
	}
	out := c.buf[c.pos : c.pos+n]
	c.pos += n

	return out, nil
}

// uint32 consumes one unsigned 32-bit field.
func (c *cursor) uint32() (uint32, error) {
	raw, err := c.take(4)
	if err != nil {
		return 0, err
	}

	return c.order.Uint32(raw), nil
}

// int32 consumes one signed 32-bit field.
func (c *cursor) int32() (int32, error) {
	v, err := c.uint32()
	if err != nil {
		return 0, err
	}

	return int32(v), nil
}

// checkedUint32ToInt converts a wire-declared size to int, failing on
// platforms where it overflows int.
func checkedUint32ToInt(v uint32) (int, error) {
	if uint64(v) > uint64(math.MaxInt) {
		return 0, fmt.Errorf("%w: size %d not addressable", ErrBounds, v)
	}

	return int(v), nil
}
