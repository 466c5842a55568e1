// SPDX-License-Identifier: MIT
// Copyright (c) 2026 NomadWithoutAHome
// Source: github.com/NomadWithoutAHome/F.E.A.R-Tools

package dspack

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// fixtureFolder describes one folder record for manual archive assembly.
type fixtureFolder struct {
	name      string
	parent    int32
	lastSub   int32
	firstSub  int32
	firstFile int32
	lastFile  int32
}

// fixtureFile describes one file record and its stored payload bytes.
type fixtureFile struct {
	name         string
	parent       int32
	decompressed uint32
	compressed   uint32
	unknown      uint32
	data         []byte
}

// createManualArchive assembles a complete dsPack byte image in the given
// byte order: header, name table, file directory, folder directory, payloads.
func createManualArchive(t testing.TB, order binary.ByteOrder, folders []fixtureFolder, files []fixtureFile) []byte {
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

	namesOff := uint32(headerSize)
	fileDirOff := namesOff + uint32(names.Len())
	folderDirOff := fileDirOff + uint32(len(files)*fileRecordSize)
	dataOff := folderDirOff + uint32(len(folders)*folderRecordSize)

	dataOffs := make([]uint32, len(files))
	next := dataOff
	for i := range files {
		dataOffs[i] = next
		next += uint32(len(files[i].data))
	}

	var w bytes.Buffer
	u32 := func(v uint32) {
		var b [4]byte
		order.PutUint32(b[:], v)
		w.Write(b[:])
	}
	i32 := func(v int32) { u32(uint32(v)) }

	if order == binary.ByteOrder(binary.BigEndian) {
		w.Write(magicBE1[:])
		w.Write(magicBE2[:])
	} else {
		w.Write(magicLE1[:])
		w.Write(magicLE2[:])
	}
	w.Write([]byte{0, 0, 0, 0})

	u32(uint32(len(files)))
	u32(uint32(len(files) * fileRecordSize))
	u32(fileDirOff)
	u32(uint32(len(folders)))
	u32(uint32(len(folders) * folderRecordSize))
	u32(folderDirOff)
	u32(uint32(names.Len()))
	u32(namesOff)

	w.Write(names.Bytes())

	for i := range files {
		u32(fileNames[i])
		i32(files[i].parent)
		u32(files[i].decompressed)
		u32(files[i].compressed)
		u32(files[i].unknown)
		u32(dataOffs[i])
	}

	for i := range folders {
		u32(folderNames[i])
		i32(folders[i].parent)
		i32(folders[i].lastSub)
		i32(folders[i].firstSub)
		i32(folders[i].firstFile)
		i32(folders[i].lastFile)
	}

	for i := range files {
		w.Write(files[i].data)
	}

	// Trailing slack keeps degenerate zero-size section offsets inside the
	// file, the way real archives always have payload bytes there.
	w.WriteByte(0xEE)

	return w.Bytes()
}

// createManualArchiveFile writes a manual archive image to a temp file.
func createManualArchiveFile(t testing.TB, order binary.ByteOrder, folders []fixtureFolder, files []fixtureFile) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "manual.dsPack")
	if err := os.WriteFile(path, createManualArchive(t, order, folders, files), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

// openManualArchive parses a manual archive image through NewFromReaderAt.
func openManualArchive(t testing.TB, image []byte) *Archive {
	t.Helper()

	a, err := NewFromReaderAt(bytes.NewReader(image), int64(len(image)))
	if err != nil {
		t.Fatalf("parse manual archive: %v", err)
	}

	return a
}

// miniPackABC returns a valid MiniPack stream producing "ABCABCABC":
// three literals followed by an overlapping back-reference of length 6.
func miniPackABC() (stream []byte, decompressed []byte) {
	return []byte{0x07, 'A', 'B', 'C', 0x03, 0x03}, []byte("ABCABCABC")
}
