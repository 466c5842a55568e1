// SPDX-License-Identifier: MIT
// Copyright (c) 2026 NomadWithoutAHome
// Source: github.com/NomadWithoutAHome/F.E.A.R-Tools

package dspack

import "testing"

func TestFileEntryClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		decompressed uint32
		compressed   uint32
		want         Compression
		empty        bool
	}{
		{name: "raw", decompressed: 10, compressed: 10, want: CompressionNone},
		{name: "minipack", decompressed: 10, compressed: 4, want: CompressionMiniPack},
		{name: "invalid", decompressed: 4, compressed: 10, want: CompressionInvalid},
		{name: "empty", decompressed: 0, compressed: 0, want: CompressionNone, empty: true},
		{name: "empty with logical size", decompressed: 9, compressed: 0, want: CompressionMiniPack, empty: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			e := FileEntry{DecompressedSize: tc.decompressed, CompressedSize: tc.compressed}
			if got := e.Compression(); got != tc.want {
				t.Errorf("Compression() = %v, want %v", got, tc.want)
			}
			if got := e.Empty(); got != tc.empty {
				t.Errorf("Empty() = %v, want %v", got, tc.empty)
			}
		})
	}
}

func TestCompressionString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		c    Compression
		want string
	}{
		{CompressionNone, "none"},
		{CompressionMiniPack, "MiniPack"},
		{CompressionInvalid, "invalid"},
		{Compression(99), "unknown"},
	}

	for _, tc := range tests {
		if got := tc.c.String(); got != tc.want {
			t.Errorf("%d.String() = %q, want %q", tc.c, got, tc.want)
		}
	}
}

func TestFolderFileCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		first int32
		last  int32
		want  int
	}{
		{name: "no files", first: -1, last: -1, want: 0},
		{name: "single file", first: 3, last: 3, want: 1},
		{name: "range", first: 2, last: 9, want: 8},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			e := FolderEntry{FirstFile: tc.first, LastFile: tc.last}
			if got := e.FileCount(); got != tc.want {
				t.Errorf("FileCount() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestExtractOptionsDefaults(t *testing.T) {
	t.Parallel()

	var nilOpts *ExtractOptions
	got := nilOpts.applyDefaults()
	if got.Logf == nil {
		t.Fatal("applyDefaults left Logf nil")
	}

	// The default Logf must be callable without observable effect.
	got.Logf("[%d/%d] %s", 1, 1, "x")

	custom := &ExtractOptions{RawNames: true}
	applied := custom.applyDefaults()
	if !applied.RawNames {
		t.Fatal("applyDefaults dropped RawNames")
	}
	if custom.Logf != nil {
		t.Fatal("applyDefaults mutated the caller's options")
	}
}
