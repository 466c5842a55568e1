// SPDX-License-Identifier: MIT
// Copyright (c) 2026 NomadWithoutAHome
// Source: github.com/NomadWithoutAHome/F.E.A.R-Tools

package dspack

import (
	"fmt"
	"math"
)

// DecompressMiniPack inflates a MiniPack token stream into a buffer of
// exactly decompressedSize bytes.
//
// The stream is a sequence of segments, each led by one control byte whose
// bits are consumed from least to most significant. A set bit copies the next
// input byte verbatim. A clear bit consumes two bytes b0 and b1 encoding a
// back-reference: offset = ((b1 & 0xF0) << 4) | b0 is a distance back from
// the current output position, length = (b1 & 0x0F) + 3. Back-references are
// copied byte at a time because offset < length is legal and must reproduce
// overlapping repeats.
//
// Decoding stops once the output is full or the input is exhausted, including
// mid-token; the returned buffer always has decompressedSize bytes, with a
// zero tail when the stream ends early. A back-reference reaching before the
// start of the output, or a copy that would run past its end, fails with
// ErrDecompress. A fresh buffer is allocated per call; no state is shared
// between invocations.
func DecompressMiniPack(src []byte, decompressedSize uint32) ([]byte, error) {
	if uint64(decompressedSize) > uint64(math.MaxInt) {
		return nil, fmt.Errorf("%w: output size %d not addressable", ErrDecompress, decompressedSize)
	}

	out := make([]byte, int(decompressedSize))
	outPos := 0
	inPos := 0

stream:
	for inPos < len(src) && outPos < len(out) {
		control := src[inPos]
		inPos++

		for bit := 0; bit < 8 && inPos < len(src) && outPos < len(out); bit++ {
			if control&(1<<bit) != 0 {
				// Literal token: one input byte verbatim.
				out[outPos] = src[inPos]
				outPos++
				inPos++
				continue
			}

			if inPos+1 >= len(src) {
				break stream
			}
			b0 := src[inPos]
			b1 := src[inPos+1]
			inPos += 2

			offset := int(uint32(b1&0xF0)<<4 | uint32(b0))
			length := int(b1&0x0F) + 3

			if offset > outPos {
				return nil, fmt.Errorf("%w: back-reference distance %d at output position %d", ErrDecompress, offset, outPos)
			}
			if outPos+length > len(out) {
				return nil, fmt.Errorf("%w: copy of %d bytes at output position %d overruns %d-byte output", ErrDecompress, length, outPos, len(out))
			}

			from := outPos - offset
			for i := 0; i < length; i++ {
				out[outPos] = out[from]
				outPos++
				from++
			}
		}
	}

	return out, nil
}
