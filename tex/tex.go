// SPDX-License-Identifier: MIT
// Copyright (c) 2026 NomadWithoutAHome
// Source: github.com/NomadWithoutAHome/F.E.A.R-Tools

// Package tex converts TEXR texture containers.
//
// A .tex file is a 12-byte TEXR prologue followed by a complete DDS image.
// ToDDS and ToTEX move between the two forms byte-exactly; DecodeDDS renders
// the embedded image for previewing.
package tex

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// texMarker opens every TEXR container, ddsMarker every DDS image.
var (
	texMarker = [4]byte{'T', 'E', 'X', 'R'}
	ddsMarker = [4]byte{'D', 'D', 'S', ' '}
)

// TEXR prologue layout: marker, version, file type, 4 bytes each.
const (
	headerSize  = 12
	texVersion  = 1
	texFileType = 0
)

// Errors returned by the conversion and decode functions.
var (
	// ErrBadMagic reports input that does not carry the expected marker.
	ErrBadMagic = errors.New("texture marker mismatch")

	// ErrTruncated reports input shorter than its fixed-size framing.
	ErrTruncated = errors.New("texture truncated")

	// ErrUnsupportedFormat reports a DDS pixel format the decoder cannot
	// render.
	ErrUnsupportedFormat = errors.New("unsupported pixel format")
)

// ToDDS strips the TEXR prologue from tex and returns the embedded DDS
// image as a fresh slice. The prologue's version and file type fields are
// not validated, only the markers on both sides of the cut.
func ToDDS(tex []byte) ([]byte, error) {
	if len(tex) < headerSize+4 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncated, len(tex))
	}
	if !bytes.Equal(tex[0:4], texMarker[:]) {
		return nil, fmt.Errorf("%w: want %q, have %q", ErrBadMagic, texMarker[:], tex[0:4])
	}

	dds := tex[headerSize:]
	if !bytes.Equal(dds[0:4], ddsMarker[:]) {
		return nil, fmt.Errorf("%w: embedded payload is not DDS", ErrBadMagic)
	}

	out := make([]byte, len(dds))
	copy(out, dds)

	return out, nil
}

// ToTEX prepends a fresh TEXR prologue to the DDS image in dds.
func ToTEX(dds []byte) ([]byte, error) {
	if len(dds) < 4 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncated, len(dds))
	}
	if !bytes.Equal(dds[0:4], ddsMarker[:]) {
		return nil, fmt.Errorf("%w: want %q, have %q", ErrBadMagic, ddsMarker[:], dds[0:4])
	}

	out := make([]byte, 0, headerSize+len(dds))
	out = append(out, texMarker[:]...)
	out = binary.LittleEndian.AppendUint32(out, texVersion)
	out = binary.LittleEndian.AppendUint32(out, texFileType)

	return append(out, dds...), nil
}
