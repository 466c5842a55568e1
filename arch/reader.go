// SPDX-License-Identifier: MIT
// Copyright (c) 2026 NomadWithoutAHome
// Source: github.com/NomadWithoutAHome/F.E.A.R-Tools

package arch

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Archive provides read-only access to a parsed Arch00/Arch01 archive.
//
// The header, name table, and both directory tables are fully buffered at
// parse time; payloads are streamed from the source during extraction.
type Archive struct {
	ra   io.ReaderAt
	file *os.File
	// header holds the twelve descriptor words.
	header Header
	// names is the raw name table blob.
	names []byte
	// files and folders are parsed immutable table records.
	files   []FileEntry
	folders []FolderEntry
	// name is the base name of the source file.
	name string
	// size is the total source size in bytes.
	size int64

	mu     sync.Mutex
	closed bool
}

// Open opens an Arch00/Arch01 archive by path and parses its tables.
func Open(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open arch: %w", err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat: %w", err)
	}

	a, err := NewFromReaderAt(f, fi.Size())
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	a.file = f
	a.name = filepath.Base(path)
	return a, nil
}

// NewFromReaderAt parses an Arch00/Arch01 archive from an existing ReaderAt
// and known size. The caller keeps ownership of the reader.
func NewFromReaderAt(ra io.ReaderAt, size int64) (*Archive, error) {
	if ra == nil {
		return nil, ErrNilArchive
	}

	a := &Archive{ra: ra, size: size}
	if err := a.parse(); err != nil {
		return nil, err
	}

	return a, nil
}

// Close releases the underlying file if the archive owns one. It is safe to
// call more than once.
func (a *Archive) Close() error {
	if a == nil {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}

	a.closed = true
	if a.file != nil {
		return a.file.Close()
	}

	return nil
}

// Header returns the parsed header descriptors.
func (a *Archive) Header() Header {
	if a == nil {
		return Header{}
	}

	return a.header
}

// Name returns the base name of the opened archive file, when known.
func (a *Archive) Name() string {
	if a == nil {
		return ""
	}

	return a.name
}

// Files returns a copy of the parsed file table.
func (a *Archive) Files() []FileEntry {
	if a == nil {
		return nil
	}

	files := make([]FileEntry, len(a.files))
	copy(files, a.files)
	return files
}

// Folders returns a copy of the parsed folder table.
func (a *Archive) Folders() []FolderEntry {
	if a == nil {
		return nil
	}

	folders := make([]FolderEntry, len(a.folders))
	copy(folders, a.folders)
	return folders
}

// parse reads the header and all tables and binds files to folders.
func (a *Archive) parse() error {
	if err := a.parseHeader(); err != nil {
		return err
	}
	if err := a.loadNameTable(); err != nil {
		return err
	}
	if err := a.parseFileTable(); err != nil {
		return err
	}
	if err := a.parseFolderTable(); err != nil {
		return err
	}

	return a.bindFilesToFolders()
}

// parseHeader reads the twelve descriptor words and validates the counts.
func (a *Archive) parseHeader() error {
	if a.size < headerSize {
		return fmt.Errorf("%w: file of %d bytes is shorter than header", ErrTruncated, a.size)
	}

	raw := make([]byte, headerSize)
	if _, err := a.ra.ReadAt(raw, 0); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: short header", ErrTruncated)
		}

		return fmt.Errorf("read header: %w", err)
	}

	a.header = Header{
		Marker:        binary.LittleEndian.Uint32(raw[0:4]),
		Version:       binary.LittleEndian.Uint32(raw[4:8]),
		NameTableSize: binary.LittleEndian.Uint32(raw[8:12]),
		FolderCount:   binary.LittleEndian.Uint32(raw[12:16]),
		FileCount:     binary.LittleEndian.Uint32(raw[16:20]),
	}
	for i := range a.header.Unknown {
		a.header.Unknown[i] = binary.LittleEndian.Uint32(raw[20+4*i : 24+4*i])
	}

	if a.header.FileCount > maxTableCount {
		return fmt.Errorf("%w: file count %d exceeds sanity ceiling %d", ErrBounds, a.header.FileCount, maxTableCount)
	}
	if a.header.FolderCount > maxTableCount {
		return fmt.Errorf("%w: folder count %d exceeds sanity ceiling %d", ErrBounds, a.header.FolderCount, maxTableCount)
	}

	return nil
}

// loadNameTable reads the name table blob that follows the header.
func (a *Archive) loadNameTable() error {
	length := int64(a.header.NameTableSize)
	if headerSize+length > a.size {
		return fmt.Errorf("%w: incomplete name table", ErrTruncated)
	}

	a.names = make([]byte, length)
	if length > 0 {
		if _, err := a.ra.ReadAt(a.names, headerSize); err != nil {
			return fmt.Errorf("read name table: %w", err)
		}
	}

	return nil
}

// parseFileTable reads every 32-byte file record. The second word of each
// size pair is a pad/high word and is skipped.
func (a *Archive) parseFileTable() error {
	offset := headerSize + int64(a.header.NameTableSize)
	count := int(a.header.FileCount)
	section := make([]byte, count*fileEntrySize)
	if offset+int64(len(section)) > a.size {
		return fmt.Errorf("%w: incomplete file table", ErrTruncated)
	}
	if count > 0 {
		if _, err := a.ra.ReadAt(section, offset); err != nil {
			return fmt.Errorf("read file table: %w", err)
		}
	}

	a.files = make([]FileEntry, 0, count)
	for i := 0; i < count; i++ {
		rec := section[i*fileEntrySize : (i+1)*fileEntrySize]
		a.files = append(a.files, FileEntry{
			Name:        a.resolveName(binary.LittleEndian.Uint32(rec[0:4])),
			FolderIndex: NoFolder,
			DataOffset:  binary.LittleEndian.Uint32(rec[4:8]),
			StoredSize:  binary.LittleEndian.Uint32(rec[12:16]),
			RawSize:     binary.LittleEndian.Uint32(rec[20:24]),
			Method:      binary.LittleEndian.Uint32(rec[28:32]),
		})
	}

	return nil
}

// parseFolderTable reads every 16-byte folder record.
func (a *Archive) parseFolderTable() error {
	offset := headerSize + int64(a.header.NameTableSize) + int64(a.header.FileCount)*fileEntrySize
	count := int(a.header.FolderCount)
	section := make([]byte, count*folderEntrySize)
	if offset+int64(len(section)) > a.size {
		return fmt.Errorf("%w: incomplete folder table", ErrTruncated)
	}
	if count > 0 {
		if _, err := a.ra.ReadAt(section, offset); err != nil {
			return fmt.Errorf("read folder table: %w", err)
		}
	}

	a.folders = make([]FolderEntry, 0, count)
	for i := 0; i < count; i++ {
		rec := section[i*folderEntrySize : (i+1)*folderEntrySize]
		a.folders = append(a.folders, FolderEntry{
			Name:      a.resolveName(binary.LittleEndian.Uint32(rec[0:4])),
			FileCount: binary.LittleEndian.Uint32(rec[12:16]),
		})
	}

	return nil
}

// bindFilesToFolders assigns file records to folders in table order: each
// folder claims its FileCount next files. Files no folder claims keep
// NoFolder and are listed but never extracted.
func (a *Archive) bindFilesToFolders() error {
	idx := 0
	for fi := range a.folders {
		count := int(a.folders[fi].FileCount)
		if idx+count > len(a.files) {
			return fmt.Errorf("%w: folder %d claims %d files but only %d remain", ErrIntegrity, fi, count, len(a.files)-idx)
		}

		for j := 0; j < count; j++ {
			a.files[idx].FolderIndex = fi
			idx++
		}
	}

	return nil
}

// resolveName extracts a NUL-terminated name from the name table. Out of
// range offsets resolve to the empty string; a missing terminator takes the
// rest of the table. The format tolerates both and extraction substitutes
// placeholder names.
func (a *Archive) resolveName(offset uint32) string {
	if int64(offset) >= int64(len(a.names)) {
		return ""
	}

	tail := a.names[offset:]
	if end := bytes.IndexByte(tail, 0); end >= 0 {
		tail = tail[:end]
	}

	return string(tail)
}

// isClosed reports the closed state under the handle lock.
func (a *Archive) isClosed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.closed
}
