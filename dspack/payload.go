// SPDX-License-Identifier: MIT
// Copyright (c) 2026 NomadWithoutAHome
// Source: github.com/NomadWithoutAHome/F.E.A.R-Tools

package dspack

import (
	"fmt"
)

// FileData returns the logical content of file i: stored bytes for raw
// entries, the decompressed stream for MiniPack entries. Entries whose
// stream cannot be reconstructed, or whose size pair violates the format
// contract, fail with ErrDecompress; callers doing their own salvage can
// still fetch the stored bytes through ExtractAll's fallback path.
func (a *Archive) FileData(i int) ([]byte, error) {
	if a == nil {
		return nil, ErrNilArchive
	}
	if a.isClosed() {
		return nil, ErrClosed
	}

	f, err := a.File(i)
	if err != nil {
		return nil, err
	}
	if f.Empty() {
		return nil, nil
	}

	switch f.Compression() {
	case CompressionNone:
		return a.readRaw(&f)
	case CompressionMiniPack:
		raw, err := a.readRaw(&f)
		if err != nil {
			return nil, err
		}

		return DecompressMiniPack(raw, f.DecompressedSize)
	default:
		return nil, fmt.Errorf("%w: file %d compressed size %d exceeds decompressed size %d",
			ErrDecompress, i, f.CompressedSize, f.DecompressedSize)
	}
}

// readRaw fetches the stored payload bytes of one entry.
func (a *Archive) readRaw(f *FileEntry) ([]byte, error) {
	n, err := checkedUint32ToInt(f.CompressedSize)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, n)
	if n > 0 {
		if _, err := a.ra.ReadAt(buf, int64(f.DataOffset)); err != nil {
			return nil, fmt.Errorf("read payload of %d bytes at %d: %w", n, f.DataOffset, err)
		}
	}

	return buf, nil
}

// decodePayload classifies one entry and produces the bytes to materialize.
// fellBack reports that the stored bytes are returned verbatim because the
// MiniPack stream could not be reconstructed or the size pair is anomalous;
// the logical content is never silently dropped.
func (a *Archive) decodePayload(f *FileEntry) (data []byte, fellBack bool, err error) {
	if f.Empty() {
		return nil, false, nil
	}

	raw, err := a.readRaw(f)
	if err != nil {
		return nil, false, err
	}

	switch f.Compression() {
	case CompressionNone:
		return raw, false, nil
	case CompressionMiniPack:
		decoded, err := DecompressMiniPack(raw, f.DecompressedSize)
		if err != nil {
			return raw, true, nil
		}

		return decoded, false, nil
	default:
		return raw, true, nil
	}
}

// isClosed reports whether Close was already called.
func (a *Archive) isClosed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.closed
}
