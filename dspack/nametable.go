// SPDX-License-Identifier: MIT
// Copyright (c) 2026 NomadWithoutAHome
// Source: github.com/NomadWithoutAHome/F.E.A.R-Tools

package dspack

import (
	"bytes"
	"fmt"
)

// nameTable is the archive's flat blob of NUL-terminated name strings,
// loaded once at parse time and addressed by byte offset from directory
// records. Names are ASCII in practice but decoded UTF-8 tolerant.
type nameTable struct {
	data []byte
}

// resolve returns the string starting at offset and ending at the next NUL.
// Offsets at or past the table end, and runs with no terminator before the
// blob end, fail.
func (t *nameTable) resolve(offset uint32) (string, error) {
	if int64(offset) >= int64(len(t.data)) {
		return "", fmt.Errorf("%w: name offset %d outside table of %d bytes", ErrIntegrity, offset, len(t.data))
	}

	end := bytes.IndexByte(t.data[offset:], 0)
	if end < 0 {
		return "", fmt.Errorf("%w: name at offset %d has no NUL terminator", ErrIntegrity, offset)
	}

	return string(t.data[offset : int(offset)+end]), nil
}
