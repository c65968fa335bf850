// Package config holds runtime configuration: defaults, CLI flag parsing,
// app-config file loading, and validation.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/backmassage/pixshift/internal/formats"
)

// --- Enum types for validated string fields ---

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// Theme selects the terminal palette.
type Theme string

const (
	ThemeUnset Theme = ""      // Use the stored preference.
	ThemeLight Theme = "light" // Default when nothing is stored.
	ThemeDark  Theme = "dark"
)

// Limits caps a single selection. Checked in order: count, bytes, megapixels.
type Limits struct {
	MaxFiles           int
	MaxTotalBytes      int64
	MaxTotalMegapixels float64
}

// Features toggles optional behavior.
type Features struct {
	ThemeToggle               bool // Allow --theme to persist a new preference.
	SingleFileFormatFiltering bool // Hide the input's own format for single-file selections.
	SelectionLimits           bool // Enforce Limits during validation.
	LockInputDuringConversion bool // Refuse new selections while converting.
	TileDownloads             bool // Per-entry download after multi-file runs.
	BulkDownload              bool // Primary action downloads everything.
}

// Labels are the user-facing names of the primary controls.
type Labels struct {
	FormatControl string
	Convert       string
	Clear         string
	Download      string
	DownloadAll   string
}

// Config holds all runtime settings. It is populated by [DefaultConfig],
// optionally merged with an app-config file by [LoadFile], then mutated by
// [ParseFlags] before being passed (by pointer) to packages that need it.
type Config struct {
	// Paths (set from positional args and flags).
	Inputs     []string
	OutputDir  string // Default: ".".
	PreviewDir string // Optional; previews are written here when set.
	ConfigFile string // Optional app-config file (.json, .yaml, .yml, .toml).

	// Conversion.
	Format                   string // Output format id; empty selects the first offered format.
	Quality                  float64
	PreviewMaxEdge           int
	SupportedInputExtensions []string
	OutputFormats            []formats.OutputFormat

	// Selection.
	Limits    Limits
	Features  Features
	Recursive bool // Default: true. Descend into directories.

	// Download.
	DownloadInterval time.Duration // Fixed: 45ms between bulk downloads.
	SkipExisting     bool          // Default: true. Cleared by --force.

	// Display and logging.
	Title     string
	Subtitle  string
	Labels    Labels
	Verbose   bool
	ColorMode ColorMode // Default: "auto".
	Theme     Theme     // Default: unset (stored preference).
	LogFile   string    // Optional log file path.
	CheckOnly bool      // Run --check diagnostics and exit.
}

// DefaultLossyQuality is the quality used for lossy output formats.
const DefaultLossyQuality = 0.92

// DefaultInputExtensions lists the extensions accepted without an image/*
// media type.
func DefaultInputExtensions() []string {
	return []string{
		"png", "jpg", "jpeg", "jfif", "webp", "apng", "gif", "bmp", "ico",
		"avif", "avifs", "heic", "heif", "hiec", "hic", "hif", "tif", "tiff", "svg",
	}
}

// DefaultConfig returns a Config with all defaults. Used as the base before
// [LoadFile] and [ParseFlags] apply overrides.
func DefaultConfig() Config {
	return Config{
		OutputDir:                ".",
		Quality:                  DefaultLossyQuality,
		PreviewMaxEdge:           420,
		SupportedInputExtensions: DefaultInputExtensions(),
		OutputFormats:            formats.DefaultCatalog(),
		Limits: Limits{
			MaxFiles:           30,
			MaxTotalBytes:      100 * 1024 * 1024,
			MaxTotalMegapixels: 120,
		},
		Features: Features{
			ThemeToggle:               true,
			SingleFileFormatFiltering: true,
			SelectionLimits:           true,
			LockInputDuringConversion: true,
			TileDownloads:             true,
			BulkDownload:              true,
		},
		Recursive:        true,
		DownloadInterval: 45 * time.Millisecond,
		SkipExisting:     true,
		Title:            "Image Format Converter",
		Subtitle:         "Convert one or many images between popular formats.",
		Labels: Labels{
			FormatControl: "Convert To",
			Convert:       "Convert",
			Clear:         "Clear",
			Download:      "Download",
			DownloadAll:   "Download All",
		},
		ColorMode: ColorAuto,
	}
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks enum fields, numeric ranges and the selected output format.
// When not in CheckOnly mode, it also requires at least one input path.
func (c *Config) Validate() error {
	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return errors.New("invalid color mode (use 'auto', 'always' or 'never')")
	}

	switch c.Theme {
	case ThemeUnset, ThemeLight, ThemeDark:
		// valid
	default:
		return errors.New("invalid theme (use 'light' or 'dark')")
	}

	if c.Quality < 0 || c.Quality > 1 {
		return fmt.Errorf("quality must be between 0 and 1 (got %g)", c.Quality)
	}
	if c.PreviewMaxEdge <= 0 {
		return fmt.Errorf("preview edge must be positive (got %d)", c.PreviewMaxEdge)
	}
	if c.Limits.MaxFiles <= 0 || c.Limits.MaxTotalBytes <= 0 || c.Limits.MaxTotalMegapixels <= 0 {
		return errors.New("selection limits must be positive")
	}
	if len(c.OutputFormats) == 0 {
		return errors.New("no output formats configured")
	}
	if c.Format != "" {
		c.Format = strings.ToLower(strings.TrimSpace(c.Format))
		if _, ok := formats.ByID(c.Format, c.OutputFormats); !ok {
			return fmt.Errorf("unknown output format %q (use %s)", c.Format, formatIDs(c.OutputFormats))
		}
	}
	if !c.Features.BulkDownload && !c.Features.TileDownloads {
		c.Features.BulkDownload = true
	}

	if c.CheckOnly {
		return nil
	}
	if len(c.Inputs) == 0 {
		return errors.New("need at least one input file or directory")
	}
	if c.OutputDir == "" {
		return errors.New("output directory must not be empty")
	}
	return nil
}

func formatIDs(list []formats.OutputFormat) string {
	ids := make([]string, len(list))
	for i, f := range list {
		ids[i] = "'" + f.ID + "'"
	}
	return strings.Join(ids, ", ")
}
