// SPDX-License-Identifier: MIT
// Copyright (c) 2026 NomadWithoutAHome
// Source: github.com/NomadWithoutAHome/F.E.A.R-Tools

package dspack

import "errors"

// Sentinel errors for dsPack operations. Use errors.Is in callers.
var (
	// ErrBadMagic means the file does not start with a recognized dsPack magic pair.
	ErrBadMagic = errors.New("not a dsPack archive: unrecognized magic")
	// ErrBounds means a header count or offset lies outside the trusted range.
	ErrBounds = errors.New("dsPack header field out of bounds")
	// ErrIntegrity means a directory cross-reference or name offset is invalid.
	ErrIntegrity = errors.New("dsPack directory integrity violation")
	// ErrCorruptArchive means the folder parent chain forms a cycle.
	ErrCorruptArchive = errors.New("corrupt archive: folder parent chain forms a cycle")
	// ErrDecompress means a MiniPack token stream violated its buffer bounds.
	ErrDecompress = errors.New("MiniPack stream cannot be decompressed")
	// ErrNilArchive means the archive handle is nil.
	ErrNilArchive = errors.New("archive is nil")
	// ErrClosed means the archive handle is already closed.
	ErrClosed = errors.New("archive already closed")
	// ErrEntryIndex means a file or folder index is out of range for this archive.
	ErrEntryIndex = errors.New("entry index out of range")
	// ErrInvalidSelectPattern means one or more extraction selection rules are invalid.
	ErrInvalidSelectPattern = errors.New("invalid selection rules")
)
