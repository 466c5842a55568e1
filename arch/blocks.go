// SPDX-License-Identifier: MIT
// Copyright (c) 2026 NomadWithoutAHome
// Source: github.com/NomadWithoutAHome/F.E.A.R-Tools

package arch

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// blockResult summarizes one decoded block stream.
type blockResult struct {
	bytes  int64
	blocks int
}

// decodeBlockStream inflates a framed zlib block stream of storedSize total
// bytes from r into w.
//
// Each block is [compressed u32][decompressed u32][compressed bytes][pad to a
// 4-byte boundary]. A block whose sizes are equal is stored raw; any other
// block is one independent raw-DEFLATE stream. A decompressed length that
// disagrees with the block header is reported through logf and tolerated.
func decodeBlockStream(r io.Reader, w io.Writer, storedSize uint32, logf func(string, ...any)) (blockResult, error) {
	br := bufio.NewReader(r)
	var res blockResult
	var fr io.ReadCloser

	limit := int64(storedSize)
	var read int64
	for read < limit {
		var hdr [8]byte
		if _, err := io.ReadFull(br, hdr[:]); err != nil {
			return res, fmt.Errorf("%w: block header: %w", ErrTruncated, err)
		}
		comp := binary.LittleEndian.Uint32(hdr[0:4])
		decomp := binary.LittleEndian.Uint32(hdr[4:8])
		read += 8

		if int64(comp) > limit-read {
			return res, fmt.Errorf("%w: block of %d bytes exceeds remaining %d", ErrTruncated, comp, limit-read)
		}

		block := make([]byte, comp)
		if _, err := io.ReadFull(br, block); err != nil {
			return res, fmt.Errorf("%w: block payload: %w", ErrTruncated, err)
		}
		read += int64(comp)

		if pad := int64((4 - comp%4) % 4); pad > 0 {
			if _, err := io.CopyN(io.Discard, br, pad); err != nil {
				return res, fmt.Errorf("%w: block padding: %w", ErrTruncated, err)
			}
			read += pad
		}

		if comp == decomp {
			if _, err := w.Write(block); err != nil {
				return res, fmt.Errorf("write stored block: %w", err)
			}
			res.bytes += int64(decomp)
			res.blocks++
			continue
		}

		if fr == nil {
			fr = flate.NewReader(bytes.NewReader(block))
		} else if err := fr.(flate.Resetter).Reset(bytes.NewReader(block), nil); err != nil {
			return res, fmt.Errorf("%w: reset inflater: %w", ErrDecompress, err)
		}

		n, err := io.Copy(w, fr)
		if err != nil {
			return res, fmt.Errorf("%w: inflate block %d: %w", ErrDecompress, res.blocks, err)
		}
		if n != int64(decomp) {
			logf("(!) Block %d decompressed size mismatch: expected %d, got %d", res.blocks, decomp, n)
		}

		res.bytes += n
		res.blocks++
	}

	return res, nil
}
