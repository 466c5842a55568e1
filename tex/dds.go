// SPDX-License-Identifier: MIT
// Copyright (c) 2026 NomadWithoutAHome
// Source: github.com/NomadWithoutAHome/F.E.A.R-Tools

package tex

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"io"

	"github.com/mauserzjeh/dxt"
)

// DDS header layout constants. Offsets are into the fixed 128-byte header;
// only the fields the decoder consumes are named.
const (
	ddsHeaderSize     = 128
	ddsDescriptorSize = 124
	ddsHeightOff      = 12
	ddsWidthOff       = 16
	ddsPFFlagsOff     = 80
	ddsFourCCOff      = 84

	// ddpfFourCC flags a compressed pixel format named by the FourCC field.
	ddpfFourCC = 0x4

	// maxSurfaceDim matches the largest texture dimension Direct3D accepts.
	maxSurfaceDim = 16384
)

// DecodeDDS parses a DDS image from r and decodes its top-level surface to
// RGBA. Only the DXT1 and DXT5 block-compressed formats appear in the game's
// textures; anything else returns ErrUnsupportedFormat. Mipmaps after the
// top-level surface are ignored.
func DecodeDDS(r io.Reader) (image.Image, error) {
	var hdr [ddsHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: DDS header: %w", ErrTruncated, err)
	}
	if !bytes.Equal(hdr[0:4], ddsMarker[:]) {
		return nil, fmt.Errorf("%w: want %q, have %q", ErrBadMagic, ddsMarker[:], hdr[0:4])
	}
	if size := binary.LittleEndian.Uint32(hdr[4:8]); size != ddsDescriptorSize {
		return nil, fmt.Errorf("%w: descriptor size %d, want %d", ErrBadMagic, size, ddsDescriptorSize)
	}

	height := binary.LittleEndian.Uint32(hdr[ddsHeightOff : ddsHeightOff+4])
	width := binary.LittleEndian.Uint32(hdr[ddsWidthOff : ddsWidthOff+4])
	if width == 0 || height == 0 || width > maxSurfaceDim || height > maxSurfaceDim {
		return nil, fmt.Errorf("%w: %dx%d surface", ErrUnsupportedFormat, width, height)
	}

	if flags := binary.LittleEndian.Uint32(hdr[ddsPFFlagsOff : ddsPFFlagsOff+4]); flags&ddpfFourCC == 0 {
		return nil, fmt.Errorf("%w: uncompressed pixel data", ErrUnsupportedFormat)
	}

	fourCC := string(hdr[ddsFourCCOff : ddsFourCCOff+4])
	blockSize := 0
	switch fourCC {
	case "DXT1":
		blockSize = 8
	case "DXT5":
		blockSize = 16
	default:
		return nil, fmt.Errorf("%w: FourCC %q", ErrUnsupportedFormat, fourCC)
	}

	blocks := int64((width+3)/4) * int64((height+3)/4)
	data := make([]byte, blocks*int64(blockSize))
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("%w: %s surface: %w", ErrTruncated, fourCC, err)
	}

	var (
		pix []byte
		err error
	)
	if fourCC == "DXT1" {
		pix, err = dxt.DecodeDXT1(data, uint(width), uint(height))
	} else {
		pix, err = dxt.DecodeDXT5(data, uint(width), uint(height))
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s surface: %w", fourCC, err)
	}

	return &image.RGBA{
		Pix:    pix,
		Stride: int(width) * 4,
		Rect:   image.Rect(0, 0, int(width), int(height)),
	}, nil
}
