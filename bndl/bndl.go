// SPDX-License-Identifier: MIT
// Copyright (c) 2026 NomadWithoutAHome
// Source: github.com/NomadWithoutAHome/F.E.A.R-Tools

// Package bndl extracts BNDL resource bundles.
//
// A bundle is a flat length-prefixed container: a 24-byte header, a name
// table of NUL-terminated strings, and one [size][size][payload] run per
// file. The engine shipped localization and UI resources this way alongside
// its main archives. Nothing in a bundle is compressed, so extraction is a
// single sequential pass.
package bndl

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/NomadWithoutAHome/F.E.A.R-Tools/internal/safepath"
)

// marker opens every bundle file.
var marker = [4]byte{'B', 'N', 'D', 'L'}

const headerSize = 24

// Errors returned while reading a bundle.
var (
	// ErrBadMagic reports a file that does not start with the BNDL marker.
	ErrBadMagic = errors.New("not a BNDL bundle")

	// ErrBounds reports a header field inconsistent with the bundle size.
	ErrBounds = errors.New("bundle header field out of bounds")

	// ErrTruncated reports a bundle shorter than its own bookkeeping claims.
	ErrTruncated = errors.New("bundle truncated")
)

// Header is the fixed 24-byte bundle prologue. All fields are little-endian.
// Unknown1 and Unknown2 are undocumented; Unknown2 counts 32-bit words
// inserted between the name table and the first payload.
type Header struct {
	Version   uint32 `json:"version"`
	TableSize uint32 `json:"table_size"`
	Unknown1  uint32 `json:"unknown1"`
	Unknown2  uint32 `json:"unknown2"`
	FileCount uint32 `json:"file_count"`
}

// ExtractOptions tunes Extract. The zero value extracts silently.
type ExtractOptions struct {
	// Logf receives one progress line per extracted file. Nil discards them.
	Logf func(format string, args ...any)
}

// applyDefaults returns a usable copy of the options with nil fields filled.
func (o *ExtractOptions) applyDefaults() ExtractOptions {
	var opts ExtractOptions
	if o != nil {
		opts = *o
	}
	if opts.Logf == nil {
		opts.Logf = func(string, ...any) {}
	}

	return opts
}

// Result reports what one Extract call produced.
type Result struct {
	Bundle    string `json:"bundle"`    // bundle file name
	Extracted int    `json:"extracted"` // files written
	Bytes     int64  `json:"bytes"`     // payload bytes written
}

// nameCursor walks the bundle name table the way the payload run consumes
// it: one NUL-terminated string per file, each advanced to the next 4-byte
// multiple. A table with no terminator yields the remaining bytes as the
// final name; an exhausted table yields empty names.
type nameCursor struct {
	table []byte
	pos   int
}

func (c *nameCursor) next() string {
	if c.pos >= len(c.table) {
		return ""
	}

	var name string
	if end := bytes.IndexByte(c.table[c.pos:], 0); end < 0 {
		name = string(c.table[c.pos:])
	} else {
		name = string(c.table[c.pos : c.pos+end])
	}

	stride := len(name) + 1
	stride += (4 - stride%4) % 4
	c.pos += stride

	return name
}

// Extract unpacks the bundle at path under dstRoot/<stem>, where stem is the
// bundle file name without its extension. Payloads are copied verbatim. The
// first short read aborts the bundle with ErrTruncated; files written before
// the failure are left in place.
func Extract(path, dstRoot string, opts *ExtractOptions) (*Result, error) {
	o := opts.applyDefaults()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bundle: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat bundle: %w", err)
	}

	base := filepath.Base(path)
	res := &Result{Bundle: base}

	br := bufio.NewReader(f)

	var raw [headerSize]byte
	if _, err := io.ReadFull(br, raw[:]); err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrTruncated, err)
	}
	if !bytes.Equal(raw[0:4], marker[:]) {
		return nil, fmt.Errorf("%w: marker %q", ErrBadMagic, raw[0:4])
	}

	hdr := Header{
		Version:   binary.LittleEndian.Uint32(raw[4:8]),
		TableSize: binary.LittleEndian.Uint32(raw[8:12]),
		Unknown1:  binary.LittleEndian.Uint32(raw[12:16]),
		Unknown2:  binary.LittleEndian.Uint32(raw[16:20]),
		FileCount: binary.LittleEndian.Uint32(raw[20:24]),
	}
	if hdr.TableSize == 0 || hdr.FileCount == 0 {
		o.Logf("(!) Empty bundle, nothing to extract")
		return res, nil
	}
	if err := checkHeader(hdr, info.Size()); err != nil {
		return nil, err
	}

	table := make([]byte, hdr.TableSize)
	if _, err := io.ReadFull(br, table); err != nil {
		return nil, fmt.Errorf("%w: name table: %w", ErrTruncated, err)
	}

	if hdr.Unknown2 != 0 {
		if _, err := io.CopyN(io.Discard, br, int64(hdr.Unknown2)*4); err != nil {
			return nil, fmt.Errorf("%w: table padding: %w", ErrTruncated, err)
		}
	}

	stem := strings.TrimSuffix(base, filepath.Ext(base))
	outDir := filepath.Join(dstRoot, safepath.Sanitize(safepath.NormalizeSeparators(stem)))
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	names := nameCursor{table: table}
	var sizes [8]byte
	for i := uint32(0); i < hdr.FileCount; i++ {
		if _, err := io.ReadFull(br, sizes[:]); err != nil {
			return nil, fmt.Errorf("%w: size words for entry %d: %w", ErrTruncated, i, err)
		}
		// Both words usually agree; only the second is the payload length.
		length := binary.LittleEndian.Uint32(sizes[4:8])

		rel := entryRelPath(names.next(), i)
		dest := filepath.Join(outDir, filepath.FromSlash(rel))
		o.Logf("Extracting: %s", dest)

		if err := writeEntry(dest, br, int64(length)); err != nil {
			return nil, fmt.Errorf("extract %s: %w", rel, err)
		}

		res.Extracted++
		res.Bytes += int64(length)
	}

	return res, nil
}

// checkHeader rejects header fields that cannot fit inside a bundle of the
// given size before any of them are used to allocate or seek.
func checkHeader(hdr Header, size int64) error {
	need := int64(headerSize) + int64(hdr.TableSize) + int64(hdr.Unknown2)*4
	if need > size {
		return fmt.Errorf("%w: name table of %d bytes exceeds bundle of %d bytes", ErrBounds, hdr.TableSize, size)
	}
	if limit := (size - need) / 8; int64(hdr.FileCount) > limit {
		return fmt.Errorf("%w: %d entries cannot fit in %d remaining bytes", ErrBounds, hdr.FileCount, size-need)
	}

	return nil
}

// entryRelPath converts a table name to a filesystem-safe relative slash
// path. Entries past the end of the name table get an index placeholder.
func entryRelPath(name string, index uint32) string {
	if name == "" {
		return fmt.Sprintf("file_%d", index)
	}

	return safepath.Sanitize(safepath.NormalizeSeparators(name))
}

// writeEntry copies length payload bytes from r into a fresh file at dest.
func writeEntry(dest string, r io.Reader, length int64) (err error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return err
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	w := bufio.NewWriter(out)
	if _, err := io.CopyN(w, r, length); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: payload: %w", ErrTruncated, err)
		}

		return err
	}

	return w.Flush()
}
