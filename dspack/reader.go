// SPDX-License-Identifier: MIT
// Copyright (c) 2026 NomadWithoutAHome
// Source: github.com/NomadWithoutAHome/F.E.A.R-Tools

package dspack

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Archive provides read-only access to a parsed dsPack archive.
//
// The name table, both directories, and the resolved folder paths are fully
// buffered at parse time; file payloads are read from the source on demand.
// The archive exclusively owns all of them until Close.
type Archive struct {
	// ra is the underlying random-access source for payload reads.
	ra io.ReaderAt
	// file is set when the Archive owns an *os.File opened via Open.
	file *os.File
	// order is the byte order detected from the magic pair, fixed at parse
	// and threaded through every field read.
	order binary.ByteOrder
	// header holds the eight validated directory descriptors.
	header Header
	// names is the archive's name table blob.
	names nameTable
	// files and folders are parsed immutable directory records.
	files   []FileEntry
	folders []FolderEntry
	// folderPaths caches the resolved path of every folder for the lifetime
	// of the handle.
	folderPaths []string
	// name is the base name of the source file, used in summaries.
	name string
	// size is the total source size in bytes.
	size int64
	// mu guards closed state and close operation.
	mu sync.Mutex
	// closed reports whether Close was already called.
	closed bool
}

// Open opens a dsPack archive by path and parses its control structures.
func Open(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dsPack: %w", err)
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

// NewFromReaderAt parses a dsPack archive from an existing ReaderAt and
// known size. The caller keeps ownership of the reader.
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

// Header returns the validated header descriptors.
func (a *Archive) Header() Header {
	if a == nil {
		return Header{}
	}

	return a.header
}

// Endianness reports the detected archive byte order as a human-readable word.
func (a *Archive) Endianness() string {
	if a == nil || a.order == nil {
		return "unknown"
	}
	if a.order == binary.ByteOrder(binary.BigEndian) {
		return "Big-endian"
	}

	return "Little-endian"
}

// Name returns the base name of the opened archive file, when known.
func (a *Archive) Name() string {
	if a == nil {
		return ""
	}

	return a.name
}

// Files returns a copy of the parsed file directory.
func (a *Archive) Files() []FileEntry {
	if a == nil {
		return nil
	}

	files := make([]FileEntry, len(a.files))
	copy(files, a.files)
	return files
}

// Folders returns a copy of the parsed folder directory.
func (a *Archive) Folders() []FolderEntry {
	if a == nil {
		return nil
	}

	folders := make([]FolderEntry, len(a.folders))
	copy(folders, a.folders)
	return folders
}

// File returns the file record at directory index i.
func (a *Archive) File(i int) (FileEntry, error) {
	if a == nil {
		return FileEntry{}, ErrNilArchive
	}
	if i < 0 || i >= len(a.files) {
		return FileEntry{}, fmt.Errorf("%w: file %d of %d", ErrEntryIndex, i, len(a.files))
	}

	return a.files[i], nil
}

// FolderPath returns the full archive path of folder i from the resolved cache.
func (a *Archive) FolderPath(i int) (string, error) {
	if a == nil {
		return "", ErrNilArchive
	}
	if i < 0 || i >= len(a.folderPaths) {
		return "", fmt.Errorf("%w: folder %d of %d", ErrEntryIndex, i, len(a.folderPaths))
	}

	return a.folderPaths[i], nil
}

// FilePath returns the full archive path of file i, including its folder chain.
func (a *Archive) FilePath(i int) (string, error) {
	if a == nil {
		return "", ErrNilArchive
	}
	if i < 0 || i >= len(a.files) {
		return "", fmt.Errorf("%w: file %d of %d", ErrEntryIndex, i, len(a.files))
	}

	return a.archivePathOf(i), nil
}

// parse reads and validates the whole dsPack control structure.
func (a *Archive) parse() error {
	if err := a.parseHeader(); err != nil {
		return err
	}
	if err := a.loadNameTable(); err != nil {
		return err
	}
	if err := a.parseFileDir(); err != nil {
		return err
	}
	if err := a.parseFolderDir(); err != nil {
		return err
	}

	paths, err := newFolderPathResolver(a.folders).resolveAll()
	if err != nil {
		return err
	}
	a.folderPaths = paths

	return nil
}

// parseHeader detects the byte order from the magic pair and reads the eight
// directory descriptors. Every violation aborts the whole parse: all later
// offsets depend on a trusted header.
func (a *Archive) parseHeader() error {
	if a.size < headerSize {
		return fmt.Errorf("%w: file of %d bytes is shorter than header", ErrBadMagic, a.size)
	}

	raw := make([]byte, headerSize)
	if _, err := a.ra.ReadAt(raw, 0); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: short header", ErrBadMagic)
		}

		return fmt.Errorf("read header: %w", err)
	}

	order, err := detectByteOrder(raw)
	if err != nil {
		return err
	}
	a.order = order

	// Magic pair, then 4 reserved bytes, then the descriptor fields.
	body := raw[12:headerSize]
	a.header = Header{
		NumFiles:        order.Uint32(body[0:4]),
		FileDirLength:   order.Uint32(body[4:8]),
		FileDirOffset:   order.Uint32(body[8:12]),
		NumFolders:      order.Uint32(body[12:16]),
		FolderDirLength: order.Uint32(body[16:20]),
		FolderDirOffset: order.Uint32(body[20:24]),
		NamesDirLength:  order.Uint32(body[24:28]),
		NamesDirOffset:  order.Uint32(body[28:32]),
	}

	if err := a.validateCount("file count", a.header.NumFiles); err != nil {
		return err
	}
	if err := a.validateCount("folder count", a.header.NumFolders); err != nil {
		return err
	}
	if err := a.validateOffset("file directory offset", a.header.FileDirOffset); err != nil {
		return err
	}
	if err := a.validateOffset("folder directory offset", a.header.FolderDirOffset); err != nil {
		return err
	}
	if err := a.validateOffset("name table offset", a.header.NamesDirOffset); err != nil {
		return err
	}

	if err := a.validateExtent("file directory", a.header.FileDirOffset, int64(a.header.NumFiles)*fileRecordSize); err != nil {
		return err
	}
	if err := a.validateExtent("folder directory", a.header.FolderDirOffset, int64(a.header.NumFolders)*folderRecordSize); err != nil {
		return err
	}

	return a.validateExtent("name table", a.header.NamesDirOffset, int64(a.header.NamesDirLength))
}

// detectByteOrder matches the magic pair against the two accepted patterns.
func detectByteOrder(raw []byte) (binary.ByteOrder, error) {
	var m1, m2 [4]byte
	copy(m1[:], raw[0:4])
	copy(m2[:], raw[4:8])

	switch {
	case m1 == magicLE1 && m2 == magicLE2:
		return binary.LittleEndian, nil
	case m1 == magicBE1 && m2 == magicBE2:
		return binary.BigEndian, nil
	}

	return nil, fmt.Errorf("%w: magic % X", ErrBadMagic, raw[0:8])
}

// validateCount rejects absurd directory counts as corruption.
func (a *Archive) validateCount(what string, count uint32) error {
	if count > maxDirectoryCount {
		return fmt.Errorf("%w: %s %d exceeds sanity ceiling %d", ErrBounds, what, count, maxDirectoryCount)
	}

	return nil
}

// validateOffset rejects offsets at or past the end of the source.
func (a *Archive) validateOffset(what string, offset uint32) error {
	if int64(offset) >= a.size {
		return fmt.Errorf("%w: %s %d outside file of %d bytes", ErrBounds, what, offset, a.size)
	}

	return nil
}

// validateExtent rejects sections that run past the end of the source.
func (a *Archive) validateExtent(what string, offset uint32, length int64) error {
	if int64(offset)+length > a.size {
		return fmt.Errorf("%w: %s of %d bytes at %d runs past file of %d bytes", ErrBounds, what, length, offset, a.size)
	}

	return nil
}

// loadNameTable reads the full name table blob declared by the header.
func (a *Archive) loadNameTable() error {
	length, err := checkedUint32ToInt(a.header.NamesDirLength)
	if err != nil {
		return err
	}

	blob := make([]byte, length)
	if length > 0 {
		if _, err := a.ra.ReadAt(blob, int64(a.header.NamesDirOffset)); err != nil {
			return fmt.Errorf("read name table: %w", err)
		}
	}
	a.names = nameTable{data: blob}

	return nil
}

// parseFileDir reads and validates every file directory record.
func (a *Archive) parseFileDir() error {
	section, err := a.readDirSection("file directory", a.header.FileDirOffset, int(a.header.NumFiles), fileRecordSize)
	if err != nil {
		return err
	}

	cur := newCursor(section, a.order)
	a.files = make([]FileEntry, 0, a.header.NumFiles)
	for i := 0; i < int(a.header.NumFiles); i++ {
		var e FileEntry

		nameOffset, err := cur.uint32()
		if err != nil {
			return err
		}
		if e.Name, err = a.resolveEntryName("file", i, nameOffset); err != nil {
			return err
		}

		if e.ParentFolder, err = cur.int32(); err != nil {
			return err
		}
		if err := a.validateParent("file", i, e.ParentFolder); err != nil {
			return err
		}

		if e.DecompressedSize, err = cur.uint32(); err != nil {
			return err
		}
		if e.CompressedSize, err = cur.uint32(); err != nil {
			return err
		}
		if int64(e.CompressedSize) > a.size {
			return fmt.Errorf("%w: file %d compressed size %d exceeds file of %d bytes", ErrBounds, i, e.CompressedSize, a.size)
		}
		if e.Unknown, err = cur.uint32(); err != nil {
			return err
		}
		if e.DataOffset, err = cur.uint32(); err != nil {
			return err
		}
		if int64(e.DataOffset) >= a.size {
			return fmt.Errorf("%w: file %d data offset %d outside file of %d bytes", ErrBounds, i, e.DataOffset, a.size)
		}

		a.files = append(a.files, e)
	}

	return nil
}

// parseFolderDir reads and validates every folder directory record.
func (a *Archive) parseFolderDir() error {
	section, err := a.readDirSection("folder directory", a.header.FolderDirOffset, int(a.header.NumFolders), folderRecordSize)
	if err != nil {
		return err
	}

	cur := newCursor(section, a.order)
	a.folders = make([]FolderEntry, 0, a.header.NumFolders)
	for i := 0; i < int(a.header.NumFolders); i++ {
		var e FolderEntry

		nameOffset, err := cur.uint32()
		if err != nil {
			return err
		}
		if e.Name, err = a.resolveEntryName("folder", i, nameOffset); err != nil {
			return err
		}

		if e.ParentFolder, err = cur.int32(); err != nil {
			return err
		}
		if err := a.validateParent("folder", i, e.ParentFolder); err != nil {
			return err
		}

		// Sibling-range fields are stored last before first; they are
		// descriptive only and carry no validation.
		if e.LastSubfolder, err = cur.int32(); err != nil {
			return err
		}
		if e.FirstSubfolder, err = cur.int32(); err != nil {
			return err
		}

		if e.FirstFile, err = cur.int32(); err != nil {
			return err
		}
		if err := a.validateFileRange("folder", i, "first file", e.FirstFile); err != nil {
			return err
		}
		if e.LastFile, err = cur.int32(); err != nil {
			return err
		}
		if err := a.validateFileRange("folder", i, "last file", e.LastFile); err != nil {
			return err
		}

		a.folders = append(a.folders, e)
	}

	return nil
}

// readDirSection fully reads one directory section of count fixed-size records.
func (a *Archive) readDirSection(what string, offset uint32, count, recordSize int) ([]byte, error) {
	section := make([]byte, count*recordSize)
	if len(section) == 0 {
		return section, nil
	}

	if _, err := a.ra.ReadAt(section, int64(offset)); err != nil {
		return nil, fmt.Errorf("read %s: %w", what, err)
	}

	return section, nil
}

// resolveEntryName resolves a directory record name. The format has no
// per-entry skip framing, so any unresolved or empty name poisons the whole
// directory read.
func (a *Archive) resolveEntryName(kind string, index int, nameOffset uint32) (string, error) {
	name, err := a.names.resolve(nameOffset)
	if err != nil {
		return "", fmt.Errorf("%s %d: %w", kind, index, err)
	}
	if name == "" {
		return "", fmt.Errorf("%w: %s %d has an empty name", ErrIntegrity, kind, index)
	}

	return name, nil
}

// validateParent checks a parent folder cross-reference.
func (a *Archive) validateParent(kind string, index int, parent int32) error {
	if parent != RootFolder && (parent < 0 || parent >= int32(a.header.NumFolders)) {
		return fmt.Errorf("%w: %s %d references parent folder %d of %d", ErrIntegrity, kind, index, parent, a.header.NumFolders)
	}

	return nil
}

// validateFileRange checks one first/last file bound of a folder record.
// The sentinel -1 means the folder owns no files.
func (a *Archive) validateFileRange(kind string, index int, what string, value int32) error {
	if value < -1 || value > int32(a.header.NumFiles) {
		return fmt.Errorf("%w: %s %d %s index %d of %d", ErrIntegrity, kind, index, what, value, a.header.NumFiles)
	}

	return nil
}
