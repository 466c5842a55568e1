// SPDX-License-Identifier: MIT
// Copyright (c) 2026 NomadWithoutAHome
// Source: github.com/NomadWithoutAHome/F.E.A.R-Tools

// Package safepath normalizes and sanitizes archive entry paths before they
// touch the local filesystem. Entry names inside F.E.A.R. era containers are
// attacker-controlled bytes: they may carry backslash separators, absolute
// prefixes, traversal segments, or characters the host filesystem rejects.
package safepath

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxSegmentLen limits one path segment to a broadly filesystem-safe length.
const maxSegmentLen = 200

// ErrUnsafePath reports an entry path that would escape the extraction root.
var ErrUnsafePath = errors.New("unsafe entry path")

// reservedNames holds case-insensitive device names Windows refuses as file names.
var reservedNames = map[string]struct{}{
	"con": {}, "prn": {}, "aux": {}, "nul": {},
	"com1": {}, "com2": {}, "com3": {}, "com4": {}, "com5": {},
	"com6": {}, "com7": {}, "com8": {}, "com9": {},
	"lpt1": {}, "lpt2": {}, "lpt3": {}, "lpt4": {}, "lpt5": {},
	"lpt6": {}, "lpt7": {}, "lpt8": {}, "lpt9": {},
}

// NormalizeSeparators converts archive path separators to forward slash form.
func NormalizeSeparators(name string) string {
	return strings.ReplaceAll(name, `\`, "/")
}

// NormalizeEntryPath validates one entry path as safe to join under an
// extraction root and returns its cleaned slash-separated relative form.
func NormalizeEntryPath(entryPath string) (string, error) {
	converted := NormalizeSeparators(entryPath)
	if strings.HasPrefix(converted, "/") || hasDrivePrefix(converted) {
		return "", fmt.Errorf("%w: absolute path %s", ErrUnsafePath, entryPath)
	}

	cleaned := path.Clean(converted)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: path escapes destination %s", ErrUnsafePath, entryPath)
	}

	return cleaned, nil
}

// hasDrivePrefix reports whether path starts like an absolute Windows drive path.
func hasDrivePrefix(p string) bool {
	if len(p) < 3 {
		return false
	}

	drive := p[0]
	isAlpha := (drive >= 'a' && drive <= 'z') || (drive >= 'A' && drive <= 'Z')

	return isAlpha && p[1] == ':' && p[2] == '/'
}

// Sanitize rewrites a relative slash-separated path so every segment is
// acceptable to common filesystems. Empty input collapses to "_".
func Sanitize(relativePath string) string {
	parts := strings.Split(relativePath, "/")
	sanitized := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" || part == "." || part == ".." {
			continue
		}

		sanitized = append(sanitized, sanitizeSegment(part))
	}
	if len(sanitized) == 0 {
		return "_"
	}

	return strings.Join(sanitized, "/")
}

// sanitizeSegment rewrites a single path segment to a filesystem-safe name.
func sanitizeSegment(segment string) string {
	var b strings.Builder
	b.Grow(len(segment))
	for _, r := range segment {
		if unicode.IsControl(r) || r == utf8.RuneError || strings.ContainsRune(`<>:"/\|?*`, r) {
			b.WriteRune('_')
			continue
		}

		b.WriteRune(r)
	}

	out := strings.TrimRight(b.String(), ". ")
	if out == "" {
		return "_"
	}

	if isReservedName(out) {
		out = "_" + out
	}
	if len(out) > maxSegmentLen {
		out = out[:maxSegmentLen]
	}

	return out
}

// isReservedName reports whether the segment stem is a reserved device name.
func isReservedName(segment string) bool {
	stem := strings.ToLower(segment)
	if dot := strings.IndexByte(stem, '.'); dot >= 0 {
		stem = stem[:dot]
	}
	stem = strings.TrimRight(stem, ". ")

	_, ok := reservedNames[stem]
	return ok
}
