// SPDX-License-Identifier: MIT
// Copyright (c) 2026 NomadWithoutAHome
// Source: github.com/NomadWithoutAHome/F.E.A.R-Tools

package arch

import "errors"

// Sentinel errors for Arch00/Arch01 operations. Use errors.Is in callers.
var (
	// ErrTruncated means the file ends before a declared structure or payload.
	ErrTruncated = errors.New("arch file truncated")
	// ErrBounds means a header count lies outside the trusted range.
	ErrBounds = errors.New("arch header field out of bounds")
	// ErrIntegrity means the folder table claims more files than the file table holds.
	ErrIntegrity = errors.New("arch directory integrity violation")
	// ErrUnsupportedMethod means a file entry uses an unknown compression method.
	ErrUnsupportedMethod = errors.New("unsupported compression method")
	// ErrDecompress means a zlib block stream could not be inflated.
	ErrDecompress = errors.New("arch block stream cannot be decompressed")
	// ErrNilArchive means the archive handle is nil.
	ErrNilArchive = errors.New("archive is nil")
	// ErrClosed means the archive handle is already closed.
	ErrClosed = errors.New("archive already closed")
)
