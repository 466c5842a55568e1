// SPDX-License-Identifier: MIT
// Copyright (c) 2026 NomadWithoutAHome
// Source: github.com/NomadWithoutAHome/F.E.A.R-Tools

package arch

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestOpenArch(t *testing.T) {
	t.Parallel()

	folders := []archFixtureFolder{
		{name: "Audio", fileCount: 1},
		{name: `Maps\City`, fileCount: 2},
	}
	files := []archFixtureFile{
		{name: "track.wav", method: MethodRaw, rawSize: 5, stored: []byte("music")},
		{name: "city.dat", method: MethodRaw, rawSize: 3, stored: []byte("abc")},
		{name: "city.nav", method: MethodRaw, rawSize: 2, stored: []byte("xy")},
	}
	path := createManualArchFile(t, folders, files)

	a, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer a.Close()

	if got := a.Name(); got != "manual.Arch00" {
		t.Errorf("Name = %q", got)
	}

	h := a.Header()
	if h.FileCount != 3 || h.FolderCount != 2 {
		t.Errorf("header counts = %d files, %d folders, want 3 and 2", h.FileCount, h.FolderCount)
	}

	gotFiles := a.Files()
	if len(gotFiles) != 3 {
		t.Fatalf("Files = %d entries, want 3", len(gotFiles))
	}
	if gotFiles[0].Name != "track.wav" || gotFiles[0].FolderIndex != 0 {
		t.Errorf("file 0 = %+v", gotFiles[0])
	}
	if gotFiles[1].FolderIndex != 1 || gotFiles[2].FolderIndex != 1 {
		t.Errorf("binding = %d, %d, want both in folder 1", gotFiles[1].FolderIndex, gotFiles[2].FolderIndex)
	}

	gotFolders := a.Folders()
	if gotFolders[1].Name != `Maps\City` || gotFolders[1].FileCount != 2 {
		t.Errorf("folder 1 = %+v", gotFolders[1])
	}
}

func TestArchUnclaimedFiles(t *testing.T) {
	t.Parallel()

	folders := []archFixtureFolder{
		{name: "Audio", fileCount: 1},
	}
	files := []archFixtureFile{
		{name: "a.wav", method: MethodRaw, rawSize: 1, stored: []byte("a")},
		{name: "orphan.bin", method: MethodRaw, rawSize: 1, stored: []byte("b")},
	}
	a := openManualArch(t, createManualArch(t, folders, files))

	got := a.Files()
	if got[0].FolderIndex != 0 {
		t.Errorf("file 0 folder = %d, want 0", got[0].FolderIndex)
	}
	if got[1].FolderIndex != NoFolder {
		t.Errorf("file 1 folder = %d, want NoFolder", got[1].FolderIndex)
	}
}

func TestArchParseErrors(t *testing.T) {
	t.Parallel()

	base := func() ([]archFixtureFolder, []archFixtureFile) {
		return []archFixtureFolder{{name: "Audio", fileCount: 1}},
			[]archFixtureFile{{name: "a.wav", method: MethodRaw, rawSize: 1, stored: []byte("a")}}
	}

	tests := []struct {
		name  string
		build func(t *testing.T) []byte
		want  error
	}{
		{
			name: "short header",
			build: func(t *testing.T) []byte {
				folders, files := base()
				return createManualArch(t, folders, files)[:30]
			},
			want: ErrTruncated,
		},
		{
			name: "name table extent",
			build: func(t *testing.T) []byte {
				folders, files := base()
				img := createManualArch(t, folders, files)
				binary.LittleEndian.PutUint32(img[8:12], uint32(len(img)))
				return img
			},
			want: ErrTruncated,
		},
		{
			name: "file table extent",
			build: func(t *testing.T) []byte {
				folders, files := base()
				img := createManualArch(t, folders, files)
				binary.LittleEndian.PutUint32(img[16:20], 500)
				return img
			},
			want: ErrTruncated,
		},
		{
			name: "file count ceiling",
			build: func(t *testing.T) []byte {
				folders, files := base()
				img := createManualArch(t, folders, files)
				binary.LittleEndian.PutUint32(img[16:20], maxTableCount+1)
				return img
			},
			want: ErrBounds,
		},
		{
			name: "folder count ceiling",
			build: func(t *testing.T) []byte {
				folders, files := base()
				img := createManualArch(t, folders, files)
				binary.LittleEndian.PutUint32(img[12:16], maxTableCount+1)
				return img
			},
			want: ErrBounds,
		},
		{
			name: "folders claim too many files",
			build: func(t *testing.T) []byte {
				folders, files := base()
				folders[0].fileCount = 5
				return createManualArch(t, folders, files)
			},
			want: ErrIntegrity,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			img := tc.build(t)
			_, err := NewFromReaderAt(bytes.NewReader(img), int64(len(img)))
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestArchNameFallbacks(t *testing.T) {
	t.Parallel()

	folders := []archFixtureFolder{{name: "Audio", fileCount: 1}}
	files := []archFixtureFile{{name: "a.wav", method: MethodRaw, rawSize: 1, stored: []byte("a")}}
	img := createManualArch(t, folders, files)

	// Point the first file record's name offset outside the table.
	nameTableLen := binary.LittleEndian.Uint32(img[8:12])
	fileTableOff := headerSize + int(nameTableLen)
	binary.LittleEndian.PutUint32(img[fileTableOff:fileTableOff+4], 60000)

	a := openManualArch(t, img)
	if got := a.Files()[0].Name; got != "" {
		t.Fatalf("unresolvable name = %q, want empty", got)
	}
}

func TestArchNilReceivers(t *testing.T) {
	t.Parallel()

	var a *Archive

	if err := a.Close(); err != nil {
		t.Errorf("Close on nil = %v", err)
	}
	if got := a.Files(); got != nil {
		t.Errorf("Files on nil = %v", got)
	}
	if got := a.Folders(); got != nil {
		t.Errorf("Folders on nil = %v", got)
	}
	if _, err := a.ExtractAll(t.TempDir(), nil); !errors.Is(err, ErrNilArchive) {
		t.Errorf("ExtractAll on nil err = %v, want ErrNilArchive", err)
	}
}

func TestArchNewFromReaderAtNil(t *testing.T) {
	t.Parallel()

	if _, err := NewFromReaderAt(nil, 0); !errors.Is(err, ErrNilArchive) {
		t.Fatalf("err = %v, want ErrNilArchive", err)
	}
}
