package config

// This file implements CLI flag parsing and help text.
// Flags are grouped into conversion, output, display, and utility.
// Negated flags (e.g. --no-recursive) are applied after Parse so Config defaults hold unless set.

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ParseFlags parses args (without the program name) into cfg. When --config
// names an app-config file it is merged first and the flags are re-applied on
// top, so explicit flags always win. On --help or --version it prints and
// exits. On error it returns non-nil (e.g. unknown flag, bad value).
func ParseFlags(cfg *Config, version string, args []string) error {
	n, fs, err := parseOnce(cfg, version, args)
	if err != nil {
		return err
	}

	if cfg.ConfigFile != "" {
		if err := LoadFile(cfg.ConfigFile, cfg); err != nil {
			return err
		}
		if n, fs, err = parseOnce(cfg, version, args); err != nil {
			return err
		}
	}

	applyNegatedFlags(cfg, n)

	if n.showHelp {
		printUsage(os.Stdout, version)
		os.Exit(0)
	}
	if n.showVersion {
		fmt.Fprintln(os.Stdout, "pixshift v"+version)
		os.Exit(0)
	}

	parsePositionalArgs(fs, cfg)
	return nil
}

func parseOnce(cfg *Config, version string, args []string) (*negatedFlags, *flag.FlagSet, error) {
	fs := flag.NewFlagSet("pixshift", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() { printUsage(os.Stderr, version) }

	n := &negatedFlags{}
	defineConversionFlags(fs, cfg)
	defineOutputFlags(fs, cfg, n)
	defineDisplayFlags(fs, cfg, n)
	defineUtilityFlags(fs, n)

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return n, fs, nil
}

// negatedFlags holds boolean flags that are applied after Parse.
// These either invert a default (e.g. noRecursive -> Recursive=false) or trigger exit (showHelp, showVersion).
type negatedFlags struct {
	noRecursive bool
	noLimits    bool
	noFilter    bool
	force       bool
	forceColor  bool
	noColor     bool
	showVersion bool
	showHelp    bool
}

// defineConversionFlags registers -t/--to, -q/--quality, --preview-edge and the limit overrides.
func defineConversionFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Format, "to", cfg.Format, "Output format id")
	fs.StringVar(&cfg.Format, "t", cfg.Format, "Same as --to")
	fs.Var(&qualityValue{&cfg.Quality}, "quality", "Lossy quality in [0,1]")
	fs.Var(&qualityValue{&cfg.Quality}, "q", "Same as --quality")
	fs.IntVar(&cfg.PreviewMaxEdge, "preview-edge", cfg.PreviewMaxEdge, "Longest preview edge in pixels")
	fs.IntVar(&cfg.Limits.MaxFiles, "max-files", cfg.Limits.MaxFiles, "Maximum files per selection")
	fs.Int64Var(&cfg.Limits.MaxTotalBytes, "max-bytes", cfg.Limits.MaxTotalBytes, "Maximum total bytes per selection")
	fs.Float64Var(&cfg.Limits.MaxTotalMegapixels, "max-megapixels", cfg.Limits.MaxTotalMegapixels, "Maximum total megapixels per selection")
}

// defineOutputFlags registers -o/--output, --previews, --config, --force, --no-recursive, --no-limits, --no-filter.
func defineOutputFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.StringVar(&cfg.OutputDir, "output", cfg.OutputDir, "Directory converted files are saved to")
	fs.StringVar(&cfg.OutputDir, "o", cfg.OutputDir, "Same as --output")
	fs.StringVar(&cfg.PreviewDir, "previews", cfg.PreviewDir, "Write preview PNGs to this directory")
	fs.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "App-config file (.json, .yaml, .toml)")
	fs.BoolVar(&n.force, "force", false, "Overwrite existing output files")
	fs.BoolVar(&n.force, "f", false, "Same as --force")
	fs.BoolVar(&n.noRecursive, "no-recursive", false, "Do not descend into directories")
	fs.BoolVar(&n.noLimits, "no-limits", false, "Disable selection limits")
	fs.BoolVar(&n.noFilter, "no-filter", false, "Offer the input's own format for single files")
}

// defineDisplayFlags registers --color, --no-color, --theme, verbose, --check, --log.
func defineDisplayFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.BoolVar(&n.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&n.noColor, "no-color", false, "Disable colored logs")
	fs.Var(&themeValue{&cfg.Theme}, "theme", "Palette: light | dark")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Verbose output")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Same as --verbose")
	fs.BoolVar(&cfg.CheckOnly, "check", cfg.CheckOnly, "Run diagnostics and exit")
	fs.BoolVar(&cfg.CheckOnly, "c", cfg.CheckOnly, "Same as --check")
	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "Append logs to file")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "Same as --log")
}

// defineUtilityFlags registers --version and --help (exit after printing).
func defineUtilityFlags(fs *flag.FlagSet, n *negatedFlags) {
	fs.BoolVar(&n.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&n.showVersion, "V", false, "Same as --version")
	fs.BoolVar(&n.showHelp, "help", false, "Show this help and exit")
	fs.BoolVar(&n.showHelp, "h", false, "Same as --help")
}

// applyNegatedFlags copies negated and override flag values into cfg.
func applyNegatedFlags(cfg *Config, n *negatedFlags) {
	if n.noRecursive {
		cfg.Recursive = false
	}
	if n.noLimits {
		cfg.Features.SelectionLimits = false
	}
	if n.noFilter {
		cfg.Features.SingleFileFormatFiltering = false
	}
	if n.force {
		cfg.SkipExisting = false
	}
	if n.noColor {
		cfg.ColorMode = ColorNever
	} else if n.forceColor {
		cfg.ColorMode = ColorAlways
	}
}

// parsePositionalArgs sets Inputs from the remaining args and tidies directory flags.
func parsePositionalArgs(fs *flag.FlagSet, cfg *Config) {
	cfg.Inputs = append([]string(nil), fs.Args()...)
	cfg.OutputDir = NormalizeDirArg(cfg.OutputDir)
	cfg.PreviewDir = NormalizeDirArg(cfg.PreviewDir)
}

// printUsage writes the help text to w. Column-aligned for readability.
func printUsage(w io.Writer, version string) {
	const col1 = 30 // width of "  -x, --long-name <arg>  "
	lines := []struct {
		flags string
		desc  string
	}{
		{"", "pixshift v" + version + " - batch image format converter"},
		{"", ""},
		{"  pixshift [OPTIONS] <file|dir>...", ""},
		{"", ""},
		{"Conversion", ""},
		{"  -t, --to <id>", "Output format (default: first encodable)"},
		{"  -q, --quality <0..1>", "Lossy quality (default: 0.92)"},
		{"  --preview-edge <px>", "Longest preview edge (default: 420)"},
		{"", ""},
		{"Selection", ""},
		{"  --max-files <n>", "Files per selection (default: 30)"},
		{"  --max-bytes <n>", "Total bytes per selection (default: 100 MiB)"},
		{"  --max-megapixels <n>", "Total megapixels per selection (default: 120)"},
		{"  --no-limits", "Disable selection limits"},
		{"  --no-filter", "Offer the input's own format for single files"},
		{"  --no-recursive", "Do not descend into directories"},
		{"", ""},
		{"Output & behavior", ""},
		{"  -o, --output <dir>", "Save converted files here (default: .)"},
		{"  --previews <dir>", "Also write preview PNGs"},
		{"  -f, --force", "Overwrite existing output files"},
		{"  --config <path>", "Load an app-config file"},
		{"", ""},
		{"Display", ""},
		{"  --theme <light|dark>", "Palette (remembered between runs)"},
		{"  --color", "Force colored logs"},
		{"  --no-color", "Disable colored logs"},
		{"  -v, --verbose", "Verbose output"},
		{"", ""},
		{"Utility", ""},
		{"  -l, --log <path>", "Append logs to file"},
		{"  -c, --check", "Diagnostics (decoders, encodable formats)"},
		{"  -V, --version", "Print version and exit"},
		{"  -h, --help", "Show this help and exit"},
	}

	for _, l := range lines {
		if l.flags == "" && l.desc == "" {
			fmt.Fprintln(w)
			continue
		}
		if l.desc == "" {
			fmt.Fprintln(w, l.flags)
			continue
		}
		if l.flags == "" {
			fmt.Fprintln(w, l.desc)
			continue
		}
		padding := col1 - len(l.flags)
		if padding < 1 {
			padding = 1
		}
		fmt.Fprintf(w, "%s%*s%s\n", l.flags, padding, "", l.desc)
	}
}

// flag.Value adapters so we can use validated types (quality, Theme) with flag.Var.

type qualityValue struct{ p *float64 }

func (q *qualityValue) String() string {
	if q.p == nil {
		return ""
	}
	return strconv.FormatFloat(*q.p, 'g', -1, 64)
}

func (q *qualityValue) Set(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("quality must be a number (got %q)", s)
	}
	// Percent form ("85") is accepted for convenience.
	if v > 1 && v <= 100 {
		v /= 100
	}
	if v < 0 || v > 1 {
		return fmt.Errorf("quality %q out of range (use 0..1 or 1..100)", s)
	}
	*q.p = v
	return nil
}

type themeValue struct{ p *Theme }

func (t *themeValue) String() string {
	if t.p == nil {
		return ""
	}
	return string(*t.p)
}

func (t *themeValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "light":
		*t.p = ThemeLight
	case "dark":
		*t.p = ThemeDark
	default:
		return fmt.Errorf("invalid theme %q (use 'light' or 'dark')", s)
	}
	return nil
}
