// SPDX-License-Identifier: MIT
// Copyright (c) 2026 NomadWithoutAHome
// Source: github.com/NomadWithoutAHome/F.E.A.R-Tools

// Package termlog is the command-line logger: leveled, ANSI-colored line
// output over the standard log package. The extraction packages stay silent
// on their own; the CLI forwards their Logf streams through here.
package termlog

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Level orders log severities from chattiest to most severe.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	}

	return "UNKNOWN"
}

// NoColor suppresses the ANSI color around level prefixes, for piped or
// captured output.
var NoColor bool

var (
	current = LevelInfo
	std     = log.New(os.Stderr, "", 0)
)

// SetLevel drops every message below l.
func SetLevel(l Level) {
	current = l
}

// SetOutput redirects all log lines to w.
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

const (
	colorReset  = "\033[0m"
	colorCyan   = "\033[36m"
	colorBlue   = "\033[34m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
)

func levelColor(l Level) string {
	switch l {
	case LevelDebug:
		return colorCyan
	case LevelInfo:
		return colorBlue
	case LevelWarn:
		return colorYellow
	case LevelError:
		return colorRed
	}

	return ""
}

func logMessage(level Level, format string, v ...any) {
	if level < current {
		return
	}

	prefix := fmt.Sprintf("[%s] ", level)
	if !NoColor {
		prefix = fmt.Sprintf("%s[%s]%s ", levelColor(level), level, colorReset)
	}
	std.Printf(prefix+format, v...)
}

func Debug(format string, v ...any) { logMessage(LevelDebug, format, v...) }
func Info(format string, v ...any)  { logMessage(LevelInfo, format, v...) }
func Warn(format string, v ...any)  { logMessage(LevelWarn, format, v...) }
func Error(format string, v ...any) { logMessage(LevelError, format, v...) }

// Raw prints one line with no level prefix. The extraction packages format
// their own progress streams; Raw forwards them under the Info gate.
func Raw(format string, v ...any) {
	if LevelInfo < current {
		return
	}

	std.Printf(format, v...)
}
