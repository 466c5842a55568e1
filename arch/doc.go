// SPDX-License-Identifier: MIT
// Copyright (c) 2026 NomadWithoutAHome
// Source: github.com/NomadWithoutAHome/F.E.A.R-Tools

// Package arch reads LithTech Arch00/Arch01 archives as shipped with
// F.E.A.R. 2 (.Arch00/.Arch01 files).
//
// An archive is a 48-byte header, a name table, a file table, and a folder
// table; folders claim consecutive runs of file records. Payloads are either
// stored raw or framed as zlib blocks, each block one independent
// raw-DEFLATE stream. Extraction streams payloads to disk and fails fast on
// the first unrecoverable file.
package arch
