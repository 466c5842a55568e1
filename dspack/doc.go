// SPDX-License-Identifier: MIT
// Copyright (c) 2026 NomadWithoutAHome
// Source: github.com/NomadWithoutAHome/F.E.A.R-Tools

/*
Package dspack decodes dsPack archives, the hierarchical asset containers of
F.E.A.R. era games (.dsPack). An archive carries a dual-magic header, a flat
name-string table, a file directory, and a folder directory whose records
form an implicit tree through parent-index fields. Payloads are stored raw or
compressed with "MiniPack", a reverse-engineered LZ77-style token scheme
decoded here without a published specification.

The format exists in little-endian and byte-reversed big-endian flavors; the
byte order is detected from the magic pair and applied to every field of that
archive. Parsing is fail-fast: a bad magic, an out-of-bounds offset, an
unresolved name, or a cyclic folder chain poisons the whole archive, because
every later read depends on trusted control structures. Payload decoding is
the opposite: an undecodable MiniPack stream never fails an extraction run,
the stored bytes are written with a "[Compressed]" filename marker instead.

# Reading

Open an archive and walk its directory:

	a, err := dspack.Open("game.dsPack")
	if err != nil {
	    return err
	}
	defer a.Close()
	for i, f := range a.Files() {
	    path, _ := a.FilePath(i)
	    fmt.Printf("%s (%d bytes, %s)\n", path, f.DecompressedSize, f.Compression())
	}

Fetch one entry's logical content:

	data, err := a.FileData(0)
	if err != nil {
	    return err
	}
	_ = data

# Analyzing

Summarize builds a read-only report of counts, the folder tree, and sample
entries; Render prints it in the classic extractor layout:

	_ = a.Summarize().Render(os.Stdout)

# Extracting

ExtractAll materializes the tree under a destination root. Selection rules
limit the run to matching archive paths, and Logf receives the ordered
progress lines:

	res, err := a.ExtractAll("out", &dspack.ExtractOptions{
	    Logf: log.Printf,
	    Select: []pathrules.Rule{
	        {Action: pathrules.ActionInclude, Pattern: "Data/Textures/**"},
	    },
	})
	if err != nil {
	    return err
	}
	if !res.OK() {
	    fmt.Printf("%d payloads fell back to raw bytes\n", res.Fallbacks)
	}

Failed MiniPack streams and contract-violating size pairs are written raw
with the marker, counted in ExtractResult.Fallbacks; per-file write errors
are collected in ExtractResult.Failures without stopping the run.
*/
package dspack
