// SPDX-License-Identifier: MIT
// Copyright (c) 2026 NomadWithoutAHome
// Source: github.com/NomadWithoutAHome/F.E.A.R-Tools

package dspack

import (
	"github.com/woozymasta/pathrules"
)

const (
	// headerSize is the fixed byte length of the dsPack header.
	headerSize = 44
	// fileRecordSize is the fixed byte length of one file directory record.
	fileRecordSize = 24
	// folderRecordSize is the fixed byte length of one folder directory record.
	folderRecordSize = 24
	// maxDirectoryCount rejects absurd file/folder counts as corruption.
	maxDirectoryCount = 100_000
	// RootFolder is the sentinel parent index meaning "directly under the archive root".
	RootFolder = -1
	// CompressedMarker is inserted before the extension of files whose
	// MiniPack stream could not be reconstructed and were written raw.
	CompressedMarker = "[Compressed]"
)

// Magic word pairs identifying a dsPack archive and its byte order.
var (
	magicLE1 = [4]byte{'m', 'g', 'f', ' '}
	magicLE2 = [4]byte{0x08, 0x01, 0x5A, 0x5A}
	magicBE1 = [4]byte{' ', 'f', 'g', 'm'}
	magicBE2 = [4]byte{0x5A, 0x5A, 0x01, 0x08}
)

// Header holds the eight directory descriptor fields of a dsPack archive.
type Header struct {
	NumFiles        uint32 `json:"num_files"`
	FileDirLength   uint32 `json:"file_dir_length"`
	FileDirOffset   uint32 `json:"file_dir_offset"`
	NumFolders      uint32 `json:"num_folders"`
	FolderDirLength uint32 `json:"folder_dir_length"`
	FolderDirOffset uint32 `json:"folder_dir_offset"`
	NamesDirLength  uint32 `json:"names_dir_length"`
	NamesDirOffset  uint32 `json:"names_dir_offset"`
}

// FileEntry is one record of the file directory.
type FileEntry struct {
	// Name is the entry name resolved from the name table.
	Name string `json:"name"`
	// ParentFolder is a folder directory index, or RootFolder.
	ParentFolder int32 `json:"parent_folder"`
	// DecompressedSize is the logical payload size in bytes.
	DecompressedSize uint32 `json:"decompressed_size"`
	// CompressedSize is the stored payload size in bytes.
	CompressedSize uint32 `json:"compressed_size"`
	// Unknown is a reverse-engineered field with no established meaning,
	// preserved opaquely.
	Unknown uint32 `json:"unknown"`
	// DataOffset is the absolute offset of the stored payload.
	DataOffset uint32 `json:"data_offset"`
}

// FolderEntry is one record of the folder directory.
type FolderEntry struct {
	// Name is the folder name resolved from the name table.
	Name string `json:"name"`
	// ParentFolder is a folder directory index, or RootFolder.
	ParentFolder int32 `json:"parent_folder"`
	// LastSubfolder and FirstSubfolder describe the sibling range; they are
	// descriptive only and not used for path resolution.
	LastSubfolder  int32 `json:"last_subfolder"`
	FirstSubfolder int32 `json:"first_subfolder"`
	// FirstFile and LastFile bound the file directory range belonging to
	// this folder, used only for reporting counts.
	FirstFile int32 `json:"first_file"`
	LastFile  int32 `json:"last_file"`
}

// FileCount derives how many files the folder owns from its file range.
// The sentinel -1 in FirstFile means the folder owns none.
func (e *FolderEntry) FileCount() int {
	if e.FirstFile < 0 {
		return 0
	}

	return int(e.LastFile - e.FirstFile + 1)
}

// Compression classifies how a file entry's payload is stored.
type Compression uint8

const (
	// CompressionNone means the payload is stored raw.
	CompressionNone Compression = iota
	// CompressionMiniPack means the payload is a MiniPack token stream.
	CompressionMiniPack
	// CompressionInvalid means the size pair violates the format contract
	// (compressed larger than decompressed).
	CompressionInvalid
)

// String returns a human-readable classification name.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionMiniPack:
		return "MiniPack"
	case CompressionInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Empty reports whether the entry has no stored payload at all.
func (e *FileEntry) Empty() bool {
	return e.CompressedSize == 0
}

// Compression classifies the entry from its size pair.
func (e *FileEntry) Compression() Compression {
	switch {
	case e.CompressedSize == e.DecompressedSize:
		return CompressionNone
	case e.CompressedSize < e.DecompressedSize:
		return CompressionMiniPack
	default:
		return CompressionInvalid
	}
}

// ExtractOptions controls ExtractAll behavior.
type ExtractOptions struct {
	// Logf receives the ordered human-readable progress lines. Nil means silent.
	Logf func(format string, args ...any)
	// Select limits extraction to entries whose archive path matches the
	// rules. Empty means extract everything.
	Select []pathrules.Rule
	// SelectMatcherOptions tunes Select matching. Zero value means
	// case-insensitive with unmatched entries excluded.
	SelectMatcherOptions pathrules.MatcherOptions
	// RawNames disables filesystem-name sanitization of entry and folder
	// names. Unsafe paths still fail per entry.
	RawNames bool
}

// applyDefaults returns a copy of options with default values applied.
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

// FileFailure records one file that could not be materialized.
type FileFailure struct {
	// Index is the file directory index of the failed entry.
	Index int `json:"index"`
	// Path is the archive-relative path of the failed entry.
	Path string `json:"path"`
	// Err is the underlying error.
	Err error `json:"-"`
}

// ExtractResult aggregates the outcome of one ExtractAll run.
type ExtractResult struct {
	// Extracted counts files written with fully reconstructed content.
	Extracted int `json:"extracted"`
	// Skipped counts entries with no stored payload.
	Skipped int `json:"skipped"`
	// Filtered counts entries excluded by selection rules.
	Filtered int `json:"filtered"`
	// Fallbacks counts files written raw with the CompressedMarker because
	// their MiniPack stream could not be reconstructed.
	Fallbacks int `json:"fallbacks"`
	// Failures lists files that could not be written at all.
	Failures []FileFailure `json:"failures,omitempty"`
}

// OK reports whether every selected file was fully reconstructed and written.
func (r *ExtractResult) OK() bool {
	return r.Fallbacks == 0 && len(r.Failures) == 0
}
