// SPDX-License-Identifier: MIT
// Copyright (c) 2026 NomadWithoutAHome
// Source: github.com/NomadWithoutAHome/F.E.A.R-Tools

package arch

const (
	// headerSize is the fixed byte length of the Arch00/Arch01 header.
	headerSize = 48
	// fileEntrySize is the fixed byte length of one file table record.
	fileEntrySize = 32
	// folderEntrySize is the fixed byte length of one folder table record.
	folderEntrySize = 16
	// maxTableCount rejects absurd file/folder counts as corruption.
	maxTableCount = 100_000

	// MethodRaw stores the payload as-is.
	MethodRaw = 0
	// MethodZlibBlocks stores the payload as a sequence of framed zlib blocks.
	MethodZlibBlocks = 9

	// NoFolder is the folder index of a file record no folder claimed.
	NoFolder = -1
)

// Header holds the twelve descriptor words of an Arch00/Arch01 archive.
// Marker and Version are preserved but not validated; real archives in the
// wild vary and the payload layout does not depend on them.
type Header struct {
	Marker        uint32    `json:"marker"`
	Version       uint32    `json:"version"`
	NameTableSize uint32    `json:"name_table_size"`
	FolderCount   uint32    `json:"folder_count"`
	FileCount     uint32    `json:"file_count"`
	Unknown       [7]uint32 `json:"unknown"`
}

// FileEntry is one record of the file table.
type FileEntry struct {
	// Name is the entry name resolved from the name table. It may contain
	// backslash-separated subpath segments; empty means the name offset was
	// unresolvable.
	Name string `json:"name"`
	// FolderIndex is the folder that claimed this entry, or NoFolder.
	FolderIndex int `json:"folder_index"`
	// DataOffset is the absolute offset of the stored payload.
	DataOffset uint32 `json:"data_offset"`
	// StoredSize is the on-disk payload length including block framing.
	StoredSize uint32 `json:"stored_size"`
	// RawSize is the logical payload length after decompression.
	RawSize uint32 `json:"raw_size"`
	// Method is the compression method word.
	Method uint32 `json:"method"`
}

// FolderEntry is one record of the folder table.
type FolderEntry struct {
	// Name is the folder path resolved from the name table, backslash form.
	Name string `json:"name"`
	// FileCount is how many sequential file records this folder claims.
	FileCount uint32 `json:"file_count"`
}

// ExtractOptions controls ExtractAll behavior.
type ExtractOptions struct {
	// Logf receives the ordered human-readable progress lines. Nil means silent.
	Logf func(format string, args ...any)
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
