// SPDX-License-Identifier: MIT
// Copyright (c) 2026 NomadWithoutAHome
// Source: github.com/NomadWithoutAHome/F.E.A.R-Tools

package arch

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/NomadWithoutAHome/F.E.A.R-Tools/internal/safepath"
)

// ExtractAll materializes every folder-claimed file under outputRoot and
// returns how many files were written.
//
// Folders consume their claimed files in table order. Unlike dsPack
// extraction this is fail-fast: the first file that cannot be materialized
// aborts the archive with files written so far left in place. Progress is
// reported through opts.Logf as ordered human-readable lines.
func (a *Archive) ExtractAll(outputRoot string, opts *ExtractOptions) (int, error) {
	if a == nil {
		return 0, ErrNilArchive
	}
	if a.isClosed() {
		return 0, ErrClosed
	}

	o := opts.applyDefaults()
	if err := os.MkdirAll(outputRoot, 0o750); err != nil {
		return 0, fmt.Errorf("create output root: %w", err)
	}

	written := 0
	idx := 0
	for fi := range a.folders {
		folder := &a.folders[fi]
		count := int(folder.FileCount)
		if count == 0 {
			continue
		}

		dir := filepath.Join(outputRoot, filepath.FromSlash(fsRelPath(folder.Name, "unknown_folder")))
		o.Logf("Creating directory: %s", dir)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return written, fmt.Errorf("create folder %s: %w", dir, err)
		}

		for j := 0; j < count; j++ {
			if err := a.extractFile(&a.files[idx], dir, o.Logf); err != nil {
				return written, err
			}

			written++
			idx++
		}
	}

	return written, nil
}

// fsRelPath converts a table name to a filesystem-safe relative slash path,
// substituting placeholder for unresolvable names.
func fsRelPath(name, placeholder string) string {
	if name == "" {
		return placeholder
	}

	return safepath.Sanitize(safepath.NormalizeSeparators(name))
}

// extractFile streams one file payload to its destination under destDir.
func (a *Archive) extractFile(f *FileEntry, destDir string, logf func(string, ...any)) error {
	dest := filepath.Join(destDir, filepath.FromSlash(fsRelPath(f.Name, "unknown")))
	logf("Writing file: %s", dest)

	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return fmt.Errorf("create parent of %s: %w", dest, err)
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}

	w := bufio.NewWriter(out)
	werr := a.writePayload(f, w, logf)
	if flushErr := w.Flush(); werr == nil {
		werr = flushErr
	}
	if closeErr := out.Close(); werr == nil {
		werr = closeErr
	}
	if werr != nil {
		return fmt.Errorf("extract %s: %w", dest, werr)
	}

	return nil
}

// writePayload decodes one payload according to its compression method.
func (a *Archive) writePayload(f *FileEntry, w io.Writer, logf func(string, ...any)) error {
	switch f.Method {
	case MethodRaw:
		if err := a.checkExtent(f.DataOffset, f.RawSize); err != nil {
			return err
		}
		if _, err := io.Copy(w, io.NewSectionReader(a.ra, int64(f.DataOffset), int64(f.RawSize))); err != nil {
			return fmt.Errorf("read stored payload: %w", err)
		}
		logf("  > Raw file, %d bytes", f.RawSize)

	case MethodZlibBlocks:
		if err := a.checkExtent(f.DataOffset, f.StoredSize); err != nil {
			return err
		}
		sr := io.NewSectionReader(a.ra, int64(f.DataOffset), int64(f.StoredSize))
		res, err := decodeBlockStream(sr, w, f.StoredSize, logf)
		if err != nil {
			return err
		}
		logf("  > Decompressed %d bytes from %d blocks", res.bytes, res.blocks)

	default:
		return fmt.Errorf("%w: method %d", ErrUnsupportedMethod, f.Method)
	}

	return nil
}

// checkExtent rejects payload ranges that run past the end of the source.
func (a *Archive) checkExtent(offset, length uint32) error {
	if int64(offset)+int64(length) > a.size {
		return fmt.Errorf("%w: payload of %d bytes at %d runs past file of %d bytes", ErrTruncated, length, offset, a.size)
	}

	return nil
}
