// SPDX-License-Identifier: MIT
// Copyright (c) 2026 NomadWithoutAHome
// Source: github.com/NomadWithoutAHome/F.E.A.R-Tools

package arch

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/flate"
)

// archFixtureFolder describes one folder table record.
type archFixtureFolder struct {
	name      string
	fileCount uint32
}

// archFixtureFile describes one file table record and its stored bytes.
type archFixtureFile struct {
	name    string
	method  uint32
	rawSize uint32
	stored  []byte
	// storedSize overrides len(stored) when nonzero, for corrupt fixtures.
	storedSize uint32
}

// blockSpec describes one block of a framed stream fixture.
type blockSpec struct {
	content []byte
	// stored frames the content uncompressed with equal size words.
	stored bool
}

// createManualArch assembles a complete Arch00 byte image: header, name
// table, file table, folder table, payloads.
func createManualArch(t testing.TB, folders []archFixtureFolder, files []archFixtureFile) []byte {
	t.Helper()

	var names bytes.Buffer
	nameOff := func(s string) uint32 {
		off := uint32(names.Len())
		names.WriteString(s)
		names.WriteByte(0)
		return off
	}

	folderNames := make([]uint32, len(folders))
	for i := range folders {
		folderNames[i] = nameOff(folders[i].name)
	}
	fileNames := make([]uint32, len(files))
	for i := range files {
		fileNames[i] = nameOff(files[i].name)
	}

	dataStart := headerSize + names.Len() + len(files)*fileEntrySize + len(folders)*folderEntrySize
	dataOffs := make([]uint32, len(files))
	next := uint32(dataStart)
	for i := range files {
		dataOffs[i] = next
		next += uint32(len(files[i].stored))
	}

	var w bytes.Buffer
	u32 := func(v uint32) {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], v)
		w.Write(b[:])
	}

	u32(0x30305241) // marker bytes "AR00"
	u32(3)          // version
	u32(uint32(names.Len()))
	u32(uint32(len(folders)))
	u32(uint32(len(files)))
	for i := 0; i < 7; i++ {
		u32(0)
	}

	w.Write(names.Bytes())

	for i := range files {
		storedSize := files[i].storedSize
		if storedSize == 0 {
			storedSize = uint32(len(files[i].stored))
		}

		u32(fileNames[i])
		u32(dataOffs[i])
		u32(0)
		u32(storedSize)
		u32(0)
		u32(files[i].rawSize)
		u32(0)
		u32(files[i].method)
	}

	for i := range folders {
		u32(folderNames[i])
		u32(0)
		u32(0)
		u32(folders[i].fileCount)
	}

	for i := range files {
		w.Write(files[i].stored)
	}

	return w.Bytes()
}

// createManualArchFile writes a manual archive image to a temp file.
func createManualArchFile(t testing.TB, folders []archFixtureFolder, files []archFixtureFile) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "manual.Arch00")
	if err := os.WriteFile(path, createManualArch(t, folders, files), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

// openManualArch parses a manual archive image through NewFromReaderAt.
func openManualArch(t testing.TB, image []byte) *Archive {
	t.Helper()

	a, err := NewFromReaderAt(bytes.NewReader(image), int64(len(image)))
	if err != nil {
		t.Fatalf("parse manual archive: %v", err)
	}

	return a
}

// deflateChunk compresses one chunk as a complete raw-DEFLATE stream.
func deflateChunk(t testing.TB, chunk []byte) []byte {
	t.Helper()

	var b bytes.Buffer
	fw, err := flate.NewWriter(&b, flate.BestCompression)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(chunk); err != nil {
		t.Fatal(err)
	}
	if err := fw.Close(); err != nil {
		t.Fatal(err)
	}

	comp := b.Bytes()
	if len(comp) == len(chunk) {
		t.Fatal("fixture chunk compressed to identical size; pick different content")
	}

	return comp
}

// frameBlock wraps block bytes in the [comp][decomp][data][pad] frame.
func frameBlock(data []byte, decompLen uint32) []byte {
	out := make([]byte, 0, 8+len(data)+3)
	var hdr [8]byte
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(len(data)))
	binary.LittleEndian.PutUint32(hdr[4:8], decompLen)
	out = append(out, hdr[:]...)
	out = append(out, data...)
	for len(out)%4 != 0 {
		out = append(out, 0)
	}

	return out
}

// buildBlockStream frames the given blocks into one stored stream.
func buildBlockStream(t testing.TB, blocks []blockSpec) (stream []byte, content []byte) {
	t.Helper()

	for _, b := range blocks {
		content = append(content, b.content...)
		if b.stored {
			stream = append(stream, frameBlock(b.content, uint32(len(b.content)))...)
		} else {
			stream = append(stream, frameBlock(deflateChunk(t, b.content), uint32(len(b.content)))...)
		}
	}

	return stream, content
}
