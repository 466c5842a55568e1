// SPDX-License-Identifier: MIT
// Copyright (c) 2026 NomadWithoutAHome
// Source: github.com/NomadWithoutAHome/F.E.A.R-Tools

package dspack

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// summarySampleCount limits how many sample files a summary carries.
const summarySampleCount = 5

// FolderSummary describes one folder line of the analysis report.
type FolderSummary struct {
	// Path is the resolved archive path of the folder.
	Path string `json:"path"`
	// FileCount is derived from the folder's first/last file range.
	FileCount int `json:"file_count"`
}

// FileSummary describes one sample file of the analysis report.
type FileSummary struct {
	Name             string `json:"name"`
	DecompressedSize uint32 `json:"decompressed_size"`
	CompressedSize   uint32 `json:"compressed_size"`
	// Ratio is the space saving in percent, zero for raw entries.
	Ratio float64 `json:"compression_ratio"`
}

// Summary is the read-only analysis of one parsed archive. Building it has
// no side effects on the archive or the filesystem.
type Summary struct {
	Name       string          `json:"name,omitempty"`
	Endianness string          `json:"endianness"`
	Files      int             `json:"files"`
	Folders    int             `json:"folders"`
	FolderTree []FolderSummary `json:"folder_tree"`
	Samples    []FileSummary   `json:"samples"`
}

// Summarize builds the analysis summary of the parsed archive.
func (a *Archive) Summarize() *Summary {
	if a == nil {
		return nil
	}

	s := &Summary{
		Name:       a.name,
		Endianness: a.Endianness(),
		Files:      len(a.files),
		Folders:    len(a.folders),
		FolderTree: make([]FolderSummary, 0, len(a.folders)),
	}

	for i := range a.folders {
		s.FolderTree = append(s.FolderTree, FolderSummary{
			Path:      a.folderPaths[i],
			FileCount: a.folders[i].FileCount(),
		})
	}

	for i := range a.files {
		if i == summarySampleCount {
			break
		}

		f := &a.files[i]
		var ratio float64
		if f.DecompressedSize > 0 {
			ratio = (1 - float64(f.CompressedSize)/float64(f.DecompressedSize)) * 100
		}

		s.Samples = append(s.Samples, FileSummary{
			Name:             f.Name,
			DecompressedSize: f.DecompressedSize,
			CompressedSize:   f.CompressedSize,
			Ratio:            ratio,
		})
	}

	return s
}

// Render writes the summary as the human-readable report lines.
func (s *Summary) Render(w io.Writer) error {
	if s == nil {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[Archive Analysis: %s]\n", s.Name)
	b.WriteString(strings.Repeat("=", 50) + "\n")
	fmt.Fprintf(&b, "Format: %s\n", s.Endianness)
	fmt.Fprintf(&b, "Files: %d\n", s.Files)
	fmt.Fprintf(&b, "Folders: %d\n", s.Folders)

	b.WriteString("\n[Folder Structure]\n")
	for _, f := range s.FolderTree {
		fmt.Fprintf(&b, "  %s/ (%d files)\n", f.Path, f.FileCount)
	}

	b.WriteString("\n[Sample Files]\n")
	for _, f := range s.Samples {
		fmt.Fprintf(&b, "  * %s\n", f.Name)
		fmt.Fprintf(&b, "    Size: %s bytes\n", groupDigits(uint64(f.DecompressedSize)))
		if f.Ratio > 0 {
			fmt.Fprintf(&b, "    Compression: %.1f%%\n", f.Ratio)
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// groupDigits renders n with comma thousands separators.
func groupDigits(n uint64) string {
	s := strconv.FormatUint(n, 10)
	if len(s) <= 3 {
		return s
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}

	return b.String()
}
