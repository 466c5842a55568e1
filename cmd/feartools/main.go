// SPDX-License-Identifier: MIT
// Copyright (c) 2026 NomadWithoutAHome
// Source: github.com/NomadWithoutAHome/F.E.A.R-Tools

// Command feartools inspects and unpacks F.E.A.R. game assets: dsPack and
// Arch00/Arch01 archives, BNDL bundles, SND audio containers, and TEXR
// textures. Paths may be files or directories; directories are searched for
// the extensions the command handles, and every found file is one unit of
// work. A failing unit is reported and the batch moves on.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/woozymasta/pathrules"

	"github.com/NomadWithoutAHome/F.E.A.R-Tools/arch"
	"github.com/NomadWithoutAHome/F.E.A.R-Tools/bndl"
	"github.com/NomadWithoutAHome/F.E.A.R-Tools/dspack"
	"github.com/NomadWithoutAHome/F.E.A.R-Tools/internal/termlog"
	"github.com/NomadWithoutAHome/F.E.A.R-Tools/snd"
	"github.com/NomadWithoutAHome/F.E.A.R-Tools/tex"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	var (
		failed int
		err    error
	)
	switch os.Args[1] {
	case "analyze":
		failed, err = cmdAnalyze(os.Args[2:])
	case "extract":
		failed, err = cmdExtract(os.Args[2:])
	case "arch":
		failed, err = cmdArch(os.Args[2:])
	case "bndl":
		failed, err = cmdBndl(os.Args[2:])
	case "snd":
		failed, err = cmdSnd(os.Args[2:])
	case "tex":
		failed, err = cmdTex(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(2)
	}

	if err != nil {
		termlog.Error("%v", err)
		os.Exit(2)
	}
	if failed > 0 {
		termlog.Error("%d unit(s) failed", failed)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `F.E.A.R. asset tools

Usage:
  feartools <command> [flags] <path>...

Commands:
  analyze   report dsPack archive structure (-json for machine output)
  extract   unpack dsPack archives
  arch      unpack Arch00/Arch01 archives
  bndl      unpack BNDL bundles
  snd       split SND containers into WAV files
  tex       convert TEXR textures to DDS (-png for previews, -to-tex for the reverse)

Paths may be files or directories; directories are searched recursively for
the extensions the command handles. Run "feartools <command> -h" for the
command's flags.
`)
}

// outputFlags registers the logging flags every command shares.
func outputFlags(fs *flag.FlagSet) (quiet, noColor *bool) {
	quiet = fs.Bool("quiet", false, "only warnings and errors")
	noColor = fs.Bool("no-color", false, "plain log prefixes")

	return quiet, noColor
}

func applyOutputFlags(quiet, noColor bool) {
	termlog.NoColor = noColor
	if quiet {
		termlog.SetLevel(termlog.LevelWarn)
	}
}

// stemOf returns the file name without its extension.
func stemOf(path string) string {
	base := filepath.Base(path)

	return strings.TrimSuffix(base, filepath.Ext(base))
}

// collectUnits expands the positional arguments into the files to process.
// A file argument is taken as-is; a directory is walked for the given
// lowercase extensions.
func collectUnits(args, exts []string) ([]string, error) {
	if len(args) == 0 {
		return nil, errors.New("no input paths given")
	}

	var units []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			units = append(units, arg)
			continue
		}

		found := 0
		err = filepath.WalkDir(arg, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !matchesExt(p, exts) {
				return nil
			}
			units = append(units, p)
			found++

			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", arg, err)
		}
		if found == 0 {
			termlog.Warn("No matching files under %s", arg)
		}
	}
	if len(units) == 0 {
		return nil, errors.New("nothing to process")
	}

	return units, nil
}

func matchesExt(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}

	return false
}

// ruleFlag appends one selection rule per flag occurrence into a shared
// slice, so include and exclude rules keep their command-line order.
type ruleFlag struct {
	rules  *[]pathrules.Rule
	action pathrules.Action
}

func (f ruleFlag) String() string { return "" }

func (f ruleFlag) Set(pattern string) error {
	*f.rules = append(*f.rules, pathrules.Rule{Action: f.action, Pattern: pattern})

	return nil
}

func cmdAnalyze(args []string) (int, error) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "emit the summaries as a JSON array")
	quiet, noColor := outputFlags(fs)
	_ = fs.Parse(args)
	applyOutputFlags(*quiet, *noColor)

	units, err := collectUnits(fs.Args(), []string{".dspack"})
	if err != nil {
		return 0, err
	}

	failed := 0
	var summaries []*dspack.Summary
	for _, unit := range units {
		a, err := dspack.Open(unit)
		if err != nil {
			termlog.Error("%s: %v", unit, err)
			failed++
			continue
		}

		s := a.Summarize()
		_ = a.Close()

		if *asJSON {
			summaries = append(summaries, s)
			continue
		}
		if err := s.Render(os.Stdout); err != nil {
			return failed, err
		}
	}

	if *asJSON {
		out, err := json.MarshalIndent(summaries, "", "  ")
		if err != nil {
			return failed, err
		}
		fmt.Println(string(out))
	}

	return failed, nil
}

func cmdExtract(args []string) (int, error) {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	out := fs.String("out", "extracted", "output directory root")
	rawNames := fs.Bool("raw-names", false, "keep entry names unsanitized")
	var rules []pathrules.Rule
	fs.Var(ruleFlag{rules: &rules, action: pathrules.ActionInclude}, "include", "gitignore-style pattern to extract (repeatable)")
	fs.Var(ruleFlag{rules: &rules, action: pathrules.ActionExclude}, "exclude", "gitignore-style pattern to skip (repeatable)")
	quiet, noColor := outputFlags(fs)
	_ = fs.Parse(args)
	applyOutputFlags(*quiet, *noColor)

	units, err := collectUnits(fs.Args(), []string{".dspack"})
	if err != nil {
		return 0, err
	}

	// A rule set with only excludes keeps everything else, matching what
	// "-exclude" reads as on the command line.
	var matcherOpts pathrules.MatcherOptions
	if len(rules) > 0 && !hasInclude(rules) {
		matcherOpts = pathrules.MatcherOptions{
			CaseInsensitive: true,
			DefaultAction:   pathrules.ActionInclude,
		}
	}

	failed := 0
	for _, unit := range units {
		if err := extractPackUnit(unit, *out, rules, matcherOpts, *rawNames); err != nil {
			termlog.Error("%s: %v", unit, err)
			failed++
		}
	}

	return failed, nil
}

func hasInclude(rules []pathrules.Rule) bool {
	for _, r := range rules {
		if r.Action == pathrules.ActionInclude {
			return true
		}
	}

	return false
}

func extractPackUnit(path, outRoot string, rules []pathrules.Rule, matcherOpts pathrules.MatcherOptions, rawNames bool) error {
	a, err := dspack.Open(path)
	if err != nil {
		return err
	}
	defer a.Close()

	dest := filepath.Join(outRoot, stemOf(path))
	termlog.Info("Extracting %s to %s", path, dest)

	res, err := a.ExtractAll(dest, &dspack.ExtractOptions{
		Logf:                 termlog.Raw,
		Select:               rules,
		SelectMatcherOptions: matcherOpts,
		RawNames:             rawNames,
	})
	if err != nil {
		return err
	}

	termlog.Info("Done: %d extracted, %d skipped, %d filtered", res.Extracted, res.Skipped, res.Filtered)
	if !res.OK() {
		return fmt.Errorf("%d fallback(s), %d failure(s)", res.Fallbacks, len(res.Failures))
	}

	return nil
}

func cmdArch(args []string) (int, error) {
	fs := flag.NewFlagSet("arch", flag.ExitOnError)
	out := fs.String("out", "extracted", "output directory root")
	quiet, noColor := outputFlags(fs)
	_ = fs.Parse(args)
	applyOutputFlags(*quiet, *noColor)

	units, err := collectUnits(fs.Args(), []string{".arch00", ".arch01"})
	if err != nil {
		return 0, err
	}

	failed := 0
	for _, unit := range units {
		if err := extractArchUnit(unit, *out); err != nil {
			termlog.Error("%s: %v", unit, err)
			failed++
		}
	}

	return failed, nil
}

func extractArchUnit(path, outRoot string) error {
	a, err := arch.Open(path)
	if err != nil {
		return err
	}
	defer a.Close()

	dest := filepath.Join(outRoot, stemOf(path))
	termlog.Info("Extracting %s to %s", path, dest)

	written, err := a.ExtractAll(dest, &arch.ExtractOptions{Logf: termlog.Raw})
	if err != nil {
		return err
	}
	termlog.Info("Done: %d file(s) written", written)

	unclaimed := 0
	for i, f := range a.Files() {
		if f.FolderIndex != arch.NoFolder {
			continue
		}
		name := f.Name
		if name == "" {
			name = fmt.Sprintf("entry %d", i)
		}
		termlog.Warn("Not claimed by any folder: %s", name)
		unclaimed++
	}
	if unclaimed > 0 {
		termlog.Warn("%d file(s) left unextracted", unclaimed)
	}

	return nil
}

func cmdBndl(args []string) (int, error) {
	fs := flag.NewFlagSet("bndl", flag.ExitOnError)
	out := fs.String("out", "extracted", "output directory root")
	quiet, noColor := outputFlags(fs)
	_ = fs.Parse(args)
	applyOutputFlags(*quiet, *noColor)

	units, err := collectUnits(fs.Args(), []string{".bndl"})
	if err != nil {
		return 0, err
	}

	failed := 0
	for _, unit := range units {
		termlog.Info("Extracting: %s", unit)
		res, err := bndl.Extract(unit, *out, &bndl.ExtractOptions{Logf: termlog.Raw})
		if err != nil {
			termlog.Error("%s: %v", unit, err)
			failed++
			continue
		}
		termlog.Info("Done: %d file(s), %d bytes", res.Extracted, res.Bytes)
	}

	return failed, nil
}

func cmdSnd(args []string) (int, error) {
	fs := flag.NewFlagSet("snd", flag.ExitOnError)
	out := fs.String("out", "wavs", "output directory root")
	quiet, noColor := outputFlags(fs)
	_ = fs.Parse(args)
	applyOutputFlags(*quiet, *noColor)

	units, err := collectUnits(fs.Args(), []string{".snd"})
	if err != nil {
		return 0, err
	}

	failed := 0
	for _, unit := range units {
		termlog.Info("Converting: %s", unit)
		res, err := snd.Convert(unit, *out, &snd.ConvertOptions{Logf: termlog.Raw})
		if err != nil {
			termlog.Error("%s: %v", unit, err)
			failed++
			continue
		}
		termlog.Info("Done: %d sound(s) written", res.Converted)
	}

	return failed, nil
}

func cmdTex(args []string) (int, error) {
	fs := flag.NewFlagSet("tex", flag.ExitOnError)
	out := fs.String("out", "", "output directory (default: alongside the source)")
	wantPNG := fs.Bool("png", false, "also decode a PNG preview per texture")
	toTex := fs.Bool("to-tex", false, "convert DDS images back to TEXR instead")
	quiet, noColor := outputFlags(fs)
	_ = fs.Parse(args)
	applyOutputFlags(*quiet, *noColor)

	exts := []string{".tex"}
	if *toTex {
		exts = []string{".dds"}
	}
	units, err := collectUnits(fs.Args(), exts)
	if err != nil {
		return 0, err
	}

	if *out != "" {
		if err := os.MkdirAll(*out, 0o750); err != nil {
			return 0, fmt.Errorf("create output directory: %w", err)
		}
	}

	failed := 0
	for _, unit := range units {
		var convErr error
		if *toTex {
			convErr = convertToTexUnit(unit, *out)
		} else {
			convErr = convertToDDSUnit(unit, *out, *wantPNG)
		}
		if convErr != nil {
			termlog.Error("%s: %v", unit, convErr)
			failed++
		}
	}

	return failed, nil
}

// unitOutDir resolves where a converted texture lands: next to its source
// unless an output root was given.
func unitOutDir(path, outRoot string) string {
	if outRoot == "" {
		return filepath.Dir(path)
	}

	return outRoot
}

func convertToDDSUnit(path, outRoot string, wantPNG bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	dds, err := tex.ToDDS(data)
	if err != nil {
		return err
	}

	dir := unitOutDir(path, outRoot)
	ddsPath := filepath.Join(dir, stemOf(path)+".dds")
	termlog.Info("Converting %s to %s", path, ddsPath)
	if err := os.WriteFile(ddsPath, dds, 0o600); err != nil {
		return err
	}

	if !wantPNG {
		return nil
	}

	// Previews are best effort: plenty of real textures use formats the
	// decoder does not cover.
	img, err := tex.DecodeDDS(bytes.NewReader(dds))
	if err != nil {
		termlog.Warn("No preview for %s: %v", path, err)
		return nil
	}

	pngPath := filepath.Join(dir, stemOf(path)+".png")
	f, err := os.OpenFile(pngPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", pngPath, err)
	}
	termlog.Info("Preview: %s", pngPath)

	return f.Close()
}

func convertToTexUnit(path, outRoot string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	texData, err := tex.ToTEX(data)
	if err != nil {
		return err
	}

	texPath := filepath.Join(unitOutDir(path, outRoot), stemOf(path)+".tex")
	termlog.Info("Converting %s to %s", path, texPath)

	return os.WriteFile(texPath, texData, 0o600)
}
