// SPDX-License-Identifier: MIT
// Copyright (c) 2026 NomadWithoutAHome
// Source: github.com/NomadWithoutAHome/F.E.A.R-Tools

package bndl

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fixtureEntry struct {
	name string
	data []byte

	// size1 overrides the first, unused size word. Zero means len(data).
	size1 uint32
	// size2 overrides the payload length word. Zero means len(data).
	size2 uint32
}

// paddedName returns name, its NUL terminator, and zero padding up to the
// next 4-byte multiple, the stride the name cursor expects.
func paddedName(name string) []byte {
	out := append([]byte(name), 0)
	for len(out)%4 != 0 {
		out = append(out, 0)
	}

	return out
}

// createBundle assembles a complete bundle image: header, name table,
// unknown2 filler words, then one [size1][size2][payload] run per entry.
func createBundle(t testing.TB, unknown2 uint32, entries []fixtureEntry) []byte {
	t.Helper()

	var table []byte
	for _, e := range entries {
		table = append(table, paddedName(e.name)...)
	}

	img := append([]byte{}, 'B', 'N', 'D', 'L')
	img = binary.LittleEndian.AppendUint32(img, 1) // version
	img = binary.LittleEndian.AppendUint32(img, uint32(len(table)))
	img = binary.LittleEndian.AppendUint32(img, 0) // unknown1
	img = binary.LittleEndian.AppendUint32(img, unknown2)
	img = binary.LittleEndian.AppendUint32(img, uint32(len(entries)))
	img = append(img, table...)
	img = append(img, make([]byte, int(unknown2)*4)...)

	for _, e := range entries {
		size1 := e.size1
		if size1 == 0 {
			size1 = uint32(len(e.data))
		}
		size2 := e.size2
		if size2 == 0 {
			size2 = uint32(len(e.data))
		}
		img = binary.LittleEndian.AppendUint32(img, size1)
		img = binary.LittleEndian.AppendUint32(img, size2)
		img = append(img, e.data...)
	}

	return img
}

// createBundleFile writes a bundle image to disk under the given file name
// and returns its path.
func createBundleFile(t testing.TB, fileName string, img []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), fileName)
	if err := os.WriteFile(path, img, 0o600); err != nil {
		t.Fatalf("write bundle fixture: %v", err)
	}

	return path
}

// listTree returns all regular files under root as sorted slash paths.
func listTree(t *testing.T, root string) []string {
	t.Helper()

	var out []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))

		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", root, err)
	}

	return out
}

func TestExtractBundle(t *testing.T) {
	t.Parallel()

	entries := []fixtureEntry{
		{name: "menu.dds", data: []byte("texture bytes")},
		{name: `strings\credits.txt`, data: []byte("thanks for playing")},
		{name: "abc", data: []byte{0xDE, 0xAD}},
	}
	path := createBundleFile(t, "interface.bndl", createBundle(t, 2, entries))

	var logs []string
	dst := t.TempDir()
	res, err := Extract(path, dst, &ExtractOptions{Logf: func(format string, args ...any) {
		logs = append(logs, fmt.Sprintf(format, args...))
	}})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if res.Bundle != "interface.bndl" {
		t.Errorf("Bundle = %q", res.Bundle)
	}
	if res.Extracted != 3 {
		t.Errorf("Extracted = %d, want 3", res.Extracted)
	}
	if want := int64(13 + 18 + 2); res.Bytes != want {
		t.Errorf("Bytes = %d, want %d", res.Bytes, want)
	}

	want := []string{
		"interface/abc",
		"interface/menu.dds",
		"interface/strings/credits.txt",
	}
	if got := listTree(t, dst); len(got) != len(want) {
		t.Fatalf("tree = %v, want %v", got, want)
	} else {
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("tree = %v, want %v", got, want)
			}
		}
	}

	got, err := os.ReadFile(filepath.Join(dst, "interface", "strings", "credits.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("thanks for playing")) {
		t.Errorf("credits.txt = %q", got)
	}

	if len(logs) != 3 {
		t.Fatalf("logs = %q, want 3 lines", logs)
	}
	for i, l := range logs {
		if !strings.HasPrefix(l, "Extracting: ") {
			t.Errorf("logs[%d] = %q, want Extracting: prefix", i, l)
		}
	}
}

func TestExtractBundleEmpty(t *testing.T) {
	t.Parallel()

	path := createBundleFile(t, "empty.bndl", createBundle(t, 0, nil))

	var logs []string
	dst := t.TempDir()
	res, err := Extract(path, dst, &ExtractOptions{Logf: func(format string, args ...any) {
		logs = append(logs, fmt.Sprintf(format, args...))
	}})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Extracted != 0 || res.Bytes != 0 {
		t.Errorf("res = %+v, want nothing extracted", res)
	}

	if len(logs) != 1 || logs[0] != "(!) Empty bundle, nothing to extract" {
		t.Errorf("logs = %q", logs)
	}

	entries, err := os.ReadDir(dst)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("empty bundle created output entries: %v", entries)
	}
}

func TestExtractBundleBadMarker(t *testing.T) {
	t.Parallel()

	img := createBundle(t, 0, []fixtureEntry{{name: "a", data: []byte("x")}})
	img[0] = 'X'
	path := createBundleFile(t, "bad.bndl", img)

	_, err := Extract(path, t.TempDir(), nil)
	if !errors.Is(err, ErrBadMagic) {
		t.Fatalf("err = %v, want ErrBadMagic", err)
	}
}

func TestExtractBundleShortHeader(t *testing.T) {
	t.Parallel()

	path := createBundleFile(t, "short.bndl", []byte("BNDL\x01\x00"))

	_, err := Extract(path, t.TempDir(), nil)
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("err = %v, want ErrTruncated", err)
	}
}

func TestExtractBundleMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Extract(filepath.Join(t.TempDir(), "nope.bndl"), t.TempDir(), nil)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("err = %v, want fs.ErrNotExist", err)
	}
}

func TestExtractBundleBounds(t *testing.T) {
	t.Parallel()

	base := createBundle(t, 0, []fixtureEntry{{name: "a.bin", data: []byte("abcd")}})

	tests := []struct {
		name  string
		patch func(img []byte)
	}{
		{
			name: "name table larger than bundle",
			patch: func(img []byte) {
				binary.LittleEndian.PutUint32(img[8:12], uint32(len(img)))
			},
		},
		{
			name: "file count larger than remaining bytes",
			patch: func(img []byte) {
				binary.LittleEndian.PutUint32(img[20:24], 1_000_000)
			},
		},
		{
			name: "padding words beyond bundle end",
			patch: func(img []byte) {
				binary.LittleEndian.PutUint32(img[16:20], uint32(len(img)))
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			img := append([]byte{}, base...)
			tc.patch(img)
			path := createBundleFile(t, "patched.bndl", img)

			_, err := Extract(path, t.TempDir(), nil)
			if !errors.Is(err, ErrBounds) {
				t.Fatalf("err = %v, want ErrBounds", err)
			}
		})
	}
}

func TestExtractBundleTruncatedPayload(t *testing.T) {
	t.Parallel()

	img := createBundle(t, 0, []fixtureEntry{
		{name: "cut.bin", data: []byte("abc"), size2: 4000},
	})
	path := createBundleFile(t, "cut.bndl", img)

	_, err := Extract(path, t.TempDir(), nil)
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("err = %v, want ErrTruncated", err)
	}
}

func TestExtractBundleNameExhaustion(t *testing.T) {
	t.Parallel()

	// The second table slot holds an empty name, so the second entry falls
	// back to an index placeholder.
	img := createBundle(t, 0, []fixtureEntry{
		{name: "named.bin", data: []byte("one")},
		{name: "", data: []byte("two")},
	})
	path := createBundleFile(t, "gaps.bndl", img)

	dst := t.TempDir()
	res, err := Extract(path, dst, nil)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Extracted != 2 {
		t.Fatalf("Extracted = %d, want 2", res.Extracted)
	}

	got, err := os.ReadFile(filepath.Join(dst, "gaps", "file_1"))
	if err != nil {
		t.Fatalf("placeholder entry missing: %v", err)
	}
	if !bytes.Equal(got, []byte("two")) {
		t.Errorf("file_1 = %q", got)
	}
}

func TestExtractBundleHostileNames(t *testing.T) {
	t.Parallel()

	img := createBundle(t, 0, []fixtureEntry{
		{name: `..\..\evil.bin`, data: []byte("x")},
	})
	path := createBundleFile(t, "spite.bndl", img)

	base := t.TempDir()
	dst := filepath.Join(base, "out")
	if _, err := Extract(path, dst, nil); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if got := listTree(t, dst); len(got) != 1 || got[0] != "spite/evil.bin" {
		t.Errorf("tree = %v, want [spite/evil.bin]", got)
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "out" {
		t.Errorf("output escaped the extraction root: %v", entries)
	}
}

func TestNameCursor(t *testing.T) {
	t.Parallel()

	// "abc" strides 4 bytes, "abcd" strides 8, and the final name has no
	// terminator so the cursor consumes the tail whole.
	table := append(paddedName("abc"), paddedName("abcd")...)
	table = append(table, 't', 'a', 'i', 'l')

	c := nameCursor{table: table}
	for _, want := range []string{"abc", "abcd", "tail", "", ""} {
		if got := c.next(); got != want {
			t.Fatalf("next() = %q, want %q", got, want)
		}
	}
}
