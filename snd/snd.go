// SPDX-License-Identifier: MIT
// Copyright (c) 2026 NomadWithoutAHome
// Source: github.com/NomadWithoutAHome/F.E.A.R-Tools

// Package snd converts SND audio containers to WAV files.
//
// An SND file bundles several sounds behind one 284-byte prologue. The
// container carries no marker; the prologue points at a run of 40-byte chunk
// headers, each followed by its sound data. Every chunk header already holds
// the canonical WAVE format fields, so conversion is a matter of framing the
// payload with a fresh 44-byte RIFF prologue.
package snd

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/NomadWithoutAHome/F.E.A.R-Tools/internal/safepath"
)

const (
	headerSize      = 284
	chunkHeaderSize = 40
	wavHeaderSize   = 44

	// payloadSlack is the trailing data every chunk stores past DataSize.
	payloadSlack = 24

	// Values the chunk bookkeeping fields hold in every known container.
	sndVersion          = 2
	canonChunkSize      = 16
	canonWaveHeaderSize = 40
	canonDataOffset     = 56
)

// Errors returned while reading a sound container.
var (
	// ErrBounds reports a header field inconsistent with the container size.
	ErrBounds = errors.New("sound header field out of bounds")

	// ErrTruncated reports a container shorter than its bookkeeping claims.
	ErrTruncated = errors.New("sound container truncated")
)

// Header is the fixed 284-byte container prologue. ChunkEntryOffset and
// ChunkInfoOffset point at index tables the conversion does not need; the
// unknown fields are preserved for inspection.
type Header struct {
	Version          uint32     `json:"version"`
	FileCount        uint32     `json:"file_count"`
	ChunkEntryOffset uint32     `json:"chunk_entry_offset"`
	ChunkInfoOffset  uint32     `json:"chunk_info_offset"`
	ChunkBaseOffset  uint32     `json:"chunk_base_offset"`
	UnknownCount     uint32     `json:"unknown_count"`
	Unknown          [65]uint32 `json:"-"`
}

// ChunkHeader is the 40-byte prologue in front of each sound. The lower six
// fields mirror a canonical WAVE fmt chunk.
type ChunkHeader struct {
	TotalSize      uint32
	SoundType      uint32
	ChunkSize      uint32 // 16 in every known container
	WaveHeaderSize uint32 // 40 in every known container
	DataOffset     uint32 // 56 in every known container
	DataSize       uint32
	Format         uint16
	Channels       uint16
	SampleRate     uint32
	ByteRate       uint32
	BlockAlign     uint16
	BitsPerSample  uint16
}

// ConvertOptions tunes Convert. The zero value converts silently.
type ConvertOptions struct {
	// Logf receives progress and warning lines. Nil discards them.
	Logf func(format string, args ...any)
}

// applyDefaults returns a usable copy of the options with nil fields filled.
func (o *ConvertOptions) applyDefaults() ConvertOptions {
	var opts ConvertOptions
	if o != nil {
		opts = *o
	}
	if opts.Logf == nil {
		opts.Logf = func(string, ...any) {}
	}

	return opts
}

// Result reports what one Convert call produced.
type Result struct {
	Source    string `json:"source"`    // container file name
	Converted int    `json:"converted"` // WAV files written
	Bytes     int64  `json:"bytes"`     // payload bytes written, WAV framing excluded
}

// Convert splits the container at path into WAV files under dstDir/<stem>,
// one <stem>_<n>.wav per sound, where stem is the container file name
// without its extension. Nonstandard chunk bookkeeping is reported through
// Logf and tolerated; the first short read aborts with ErrTruncated.
func Convert(path, dstDir string, opts *ConvertOptions) (*Result, error) {
	o := opts.applyDefaults()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sound container: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat sound container: %w", err)
	}

	var raw [headerSize]byte
	if _, err := io.ReadFull(f, raw[:]); err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrTruncated, err)
	}
	hdr := parseHeader(raw)
	if hdr.Version != sndVersion {
		o.Logf("(!) Unexpected container version %d", hdr.Version)
	}

	size := info.Size()
	if int64(hdr.ChunkBaseOffset) > size {
		return nil, fmt.Errorf("%w: chunk base offset %d beyond %d-byte file", ErrBounds, hdr.ChunkBaseOffset, size)
	}
	if limit := (size - int64(hdr.ChunkBaseOffset)) / chunkHeaderSize; int64(hdr.FileCount) > limit {
		return nil, fmt.Errorf("%w: %d sounds cannot fit in %d remaining bytes", ErrBounds, hdr.FileCount, size-int64(hdr.ChunkBaseOffset))
	}

	base := filepath.Base(path)
	stem := safepath.Sanitize(safepath.NormalizeSeparators(strings.TrimSuffix(base, filepath.Ext(base))))
	res := &Result{Source: base}

	o.Logf("SND v%d: %d sounds, data at offset %d", hdr.Version, hdr.FileCount, hdr.ChunkBaseOffset)
	if hdr.FileCount == 0 {
		return res, nil
	}

	outDir := filepath.Join(dstDir, filepath.FromSlash(stem))
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	if _, err := f.Seek(int64(hdr.ChunkBaseOffset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek chunk base: %w", err)
	}
	br := bufio.NewReader(f)

	var rawChunk [chunkHeaderSize]byte
	for i := uint32(0); i < hdr.FileCount; i++ {
		if _, err := io.ReadFull(br, rawChunk[:]); err != nil {
			return nil, fmt.Errorf("%w: chunk header %d: %w", ErrTruncated, i, err)
		}
		chunk := parseChunkHeader(rawChunk)
		if chunk.ChunkSize != canonChunkSize || chunk.WaveHeaderSize != canonWaveHeaderSize || chunk.DataOffset != canonDataOffset {
			o.Logf("(!) Chunk %d nonstandard layout (chunk size %d, header size %d, data offset %d)",
				i, chunk.ChunkSize, chunk.WaveHeaderSize, chunk.DataOffset)
		}

		name := fmt.Sprintf("%s_%d.wav", stem, i)
		o.Logf("[%d/%d] %s", i+1, hdr.FileCount, name)
		o.Logf("  > %d Hz, %d channel(s), %d bits", chunk.SampleRate, chunk.Channels, chunk.BitsPerSample)

		payload := int64(chunk.DataSize) + payloadSlack
		if err := writeSound(filepath.Join(outDir, name), br, chunk, payload); err != nil {
			return nil, fmt.Errorf("convert %s: %w", name, err)
		}

		res.Converted++
		res.Bytes += payload
	}

	return res, nil
}

// parseHeader decodes the fixed container prologue.
func parseHeader(raw [headerSize]byte) Header {
	hdr := Header{
		Version:          binary.LittleEndian.Uint32(raw[0:4]),
		FileCount:        binary.LittleEndian.Uint32(raw[4:8]),
		ChunkEntryOffset: binary.LittleEndian.Uint32(raw[8:12]),
		ChunkInfoOffset:  binary.LittleEndian.Uint32(raw[12:16]),
		ChunkBaseOffset:  binary.LittleEndian.Uint32(raw[16:20]),
		UnknownCount:     binary.LittleEndian.Uint32(raw[20:24]),
	}
	for i := range hdr.Unknown {
		hdr.Unknown[i] = binary.LittleEndian.Uint32(raw[24+i*4 : 28+i*4])
	}

	return hdr
}

// parseChunkHeader decodes one 40-byte sound prologue.
func parseChunkHeader(raw [chunkHeaderSize]byte) ChunkHeader {
	return ChunkHeader{
		TotalSize:      binary.LittleEndian.Uint32(raw[0:4]),
		SoundType:      binary.LittleEndian.Uint32(raw[4:8]),
		ChunkSize:      binary.LittleEndian.Uint32(raw[8:12]),
		WaveHeaderSize: binary.LittleEndian.Uint32(raw[12:16]),
		DataOffset:     binary.LittleEndian.Uint32(raw[16:20]),
		DataSize:       binary.LittleEndian.Uint32(raw[20:24]),
		Format:         binary.LittleEndian.Uint16(raw[24:26]),
		Channels:       binary.LittleEndian.Uint16(raw[26:28]),
		SampleRate:     binary.LittleEndian.Uint32(raw[28:32]),
		ByteRate:       binary.LittleEndian.Uint32(raw[32:36]),
		BlockAlign:     binary.LittleEndian.Uint16(raw[36:38]),
		BitsPerSample:  binary.LittleEndian.Uint16(raw[38:40]),
	}
}

// writeSound copies payload bytes from r into a fresh WAV file at dest,
// framed by a canonical 44-byte RIFF prologue built from the chunk fields.
func writeSound(dest string, r io.Reader, chunk ChunkHeader, payload int64) (err error) {
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
	if err := writeWAVHeader(w, chunk, uint32(payload)); err != nil {
		return err
	}
	if _, err := io.CopyN(w, r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: sound data: %w", ErrTruncated, err)
		}

		return err
	}

	return w.Flush()
}

// writeWAVHeader emits the RIFF, fmt, and data framing for one payload.
func writeWAVHeader(w io.Writer, chunk ChunkHeader, payloadLen uint32) error {
	var hdr [wavHeaderSize]byte
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], payloadLen+36)
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], chunk.Format)
	binary.LittleEndian.PutUint16(hdr[22:24], chunk.Channels)
	binary.LittleEndian.PutUint32(hdr[24:28], chunk.SampleRate)
	binary.LittleEndian.PutUint32(hdr[28:32], chunk.ByteRate)
	binary.LittleEndian.PutUint16(hdr[32:34], chunk.BlockAlign)
	binary.LittleEndian.PutUint16(hdr[34:36], chunk.BitsPerSample)
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], payloadLen)

	_, err := w.Write(hdr[:])

	return err
}
