// SPDX-License-Identifier: MIT
// Copyright (c) 2026 NomadWithoutAHome
// Source: github.com/NomadWithoutAHome/F.E.A.R-Tools

package dspack

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/NomadWithoutAHome/F.E.A.R-Tools/internal/safepath"
)

// ExtractAll materializes the archive's logical tree under outputRoot.
//
// Folders are pre-created first, then files are written in directory order.
// Entries with no stored payload are skipped. Entries whose MiniPack stream
// cannot be reconstructed, and entries whose compressed size exceeds their
// decompressed size, are written as the raw stored bytes with the
// CompressedMarker inserted before the extension, so no logical content is
// ever dropped. One file's failure never aborts the remaining files.
//
// The run is single-threaded and blocking; drive one archive as one unit of
// work when orchestrating from a concurrent context. Progress is reported
// through opts.Logf as ordered human-readable lines.
func (a *Archive) ExtractAll(outputRoot string, opts *ExtractOptions) (*ExtractResult, error) {
	if a == nil {
		return nil, ErrNilArchive
	}
	if a.isClosed() {
		return nil, ErrClosed
	}

	o := opts.applyDefaults()
	sel, err := newSelectMatcher(o.Select, o.SelectMatcherOptions)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outputRoot, 0o750); err != nil {
		return nil, fmt.Errorf("create output root: %w", err)
	}
	if err := a.prepareFolders(outputRoot, sel, o.RawNames); err != nil {
		return nil, err
	}

	res := &ExtractResult{}
	total := len(a.files)
	for i := range a.files {
		f := &a.files[i]
		o.Logf("[%d/%d] %s", i+1, total, f.Name)

		archivePath := a.archivePathOf(i)
		if !sel.selected(archivePath, false) {
			o.Logf("  > Skipped by selection rules")
			res.Filtered++
			continue
		}

		if f.Empty() {
			o.Logf("  > Empty entry, skipping")
			res.Skipped++
			continue
		}

		data, fellBack, err := a.decodePayload(f)
		if err != nil {
			o.Logf("(!!) Failed to extract: %v", err)
			res.Failures = append(res.Failures, FileFailure{Index: i, Path: archivePath, Err: err})
			continue
		}
		logDecode(o.Logf, f, fellBack, len(data))

		dest, err := destPath(outputRoot, archivePath, fellBack, o.RawNames)
		if err != nil {
			o.Logf("(!!) Failed to extract: %v", err)
			res.Failures = append(res.Failures, FileFailure{Index: i, Path: archivePath, Err: err})
			continue
		}

		if err := writeExtractFile(dest, data); err != nil {
			o.Logf("(!!) Failed to extract: %v", err)
			res.Failures = append(res.Failures, FileFailure{Index: i, Path: archivePath, Err: err})
			continue
		}

		if fellBack {
			res.Fallbacks++
		} else {
			res.Extracted++
		}
	}

	return res, nil
}

// archivePathOf joins file i's resolved parent path and name. Records are
// already cross-reference validated at parse time.
func (a *Archive) archivePathOf(i int) string {
	f := &a.files[i]
	if f.ParentFolder == RootFolder {
		return f.Name
	}

	return a.folderPaths[f.ParentFolder] + "/" + f.Name
}

// prepareFolders pre-creates the selected folder tree under outputRoot.
// Already existing directories are not an error. A folder whose name cannot
// form a safe path is left uncreated; its files fail individually later.
func (a *Archive) prepareFolders(outputRoot string, sel *selectMatcher, rawNames bool) error {
	for _, p := range a.folderPaths {
		if !sel.selected(p, true) {
			continue
		}

		rel, err := fsRelPath(p, rawNames)
		if err != nil {
			continue
		}

		if err := os.MkdirAll(filepath.Join(outputRoot, filepath.FromSlash(rel)), 0o750); err != nil {
			return fmt.Errorf("create folder %s: %w", p, err)
		}
	}

	return nil
}

// fsRelPath converts an archive path to a filesystem-safe relative slash path.
// With rawNames the path is only validated against escaping the destination;
// otherwise hostile segments are rewritten instead of failing hard.
func fsRelPath(archivePath string, rawNames bool) (string, error) {
	normalized, err := safepath.NormalizeEntryPath(archivePath)
	if rawNames {
		return normalized, err
	}

	if err != nil {
		normalized = safepath.NormalizeSeparators(archivePath)
	}

	return safepath.NormalizeEntryPath(safepath.Sanitize(normalized))
}

// destPath computes the destination of one file, marking fallback payloads.
func destPath(outputRoot, archivePath string, fellBack, rawNames bool) (string, error) {
	rel, err := fsRelPath(archivePath, rawNames)
	if err != nil {
		return "", err
	}
	if fellBack {
		rel = markFallback(rel)
	}

	return filepath.Join(outputRoot, filepath.FromSlash(rel)), nil
}

// markFallback inserts the CompressedMarker immediately before the extension.
func markFallback(path string) string {
	ext := filepath.Ext(path)

	return strings.TrimSuffix(path, ext) + CompressedMarker + ext
}

// writeExtractFile writes one materialized payload, creating parent dirs.
func writeExtractFile(dest string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return fmt.Errorf("create parent of %s: %w", dest, err)
	}
	if err := os.WriteFile(dest, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}

	return nil
}

// logDecode emits the reference extractor's per-file classification lines.
func logDecode(logf func(string, ...any), f *FileEntry, fellBack bool, decoded int) {
	switch f.Compression() {
	case CompressionNone:
		logf("  > File is not compressed")
	case CompressionMiniPack:
		if fellBack {
			logf("(!!) Unknown compression format: extracting as-is")
		} else {
			logf("  > Successfully decompressed (%s -> %s bytes)",
				groupDigits(uint64(f.CompressedSize)), groupDigits(uint64(decoded)))
		}
	default:
		logf("(!!) Invalid compression: compressed size larger than decompressed size")
	}
}
