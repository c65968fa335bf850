package config

// This file loads app-config files. The layout mirrors the JSON app-config
// shape (features, limits, conversion, ui); JSON and YAML go through yaml.v3,
// TOML through BurntSushi/toml. Missing or invalid values keep the current
// setting, so a partial file only overrides what it names.

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/backmassage/pixshift/internal/formats"
)

type appConfigFile struct {
	Features   featuresFile   `yaml:"features" toml:"features"`
	Limits     limitsFile     `yaml:"limits" toml:"limits"`
	Conversion conversionFile `yaml:"conversion" toml:"conversion"`
	UI         uiFile         `yaml:"ui" toml:"ui"`
}

type featuresFile struct {
	ThemeToggle               *bool `yaml:"themeToggle" toml:"themeToggle"`
	SingleFileFormatFiltering *bool `yaml:"singleFileFormatFiltering" toml:"singleFileFormatFiltering"`
	SelectionLimits           *bool `yaml:"selectionLimits" toml:"selectionLimits"`
	LockInputDuringConversion *bool `yaml:"lockInputDuringConversion" toml:"lockInputDuringConversion"`
	TileDownloads             *bool `yaml:"tileDownloads" toml:"tileDownloads"`
	BulkDownload              *bool `yaml:"bulkDownload" toml:"bulkDownload"`
}

type limitsFile struct {
	MaxFiles           *float64 `yaml:"maxFiles" toml:"maxFiles"`
	MaxTotalBytes      *float64 `yaml:"maxTotalBytes" toml:"maxTotalBytes"`
	MaxTotalMegapixels *float64 `yaml:"maxTotalMegapixels" toml:"maxTotalMegapixels"`
}

type conversionFile struct {
	SupportedInputExtensions []string       `yaml:"supportedInputExtensions" toml:"supportedInputExtensions"`
	OutputFormats            []outputFormat `yaml:"outputFormats" toml:"outputFormats"`
	PreviewMaxEdge           *float64       `yaml:"previewMaxEdge" toml:"previewMaxEdge"`
	DefaultLossyQuality      *float64       `yaml:"defaultLossyQuality" toml:"defaultLossyQuality"`
}

type outputFormat struct {
	ID        *string `yaml:"id" toml:"id"`
	Label     *string `yaml:"label" toml:"label"`
	Extension *string `yaml:"extension" toml:"extension"`
	MimeType  *string `yaml:"mimeType" toml:"mimeType"`
	Lossy     *bool   `yaml:"lossy" toml:"lossy"`
}

type uiFile struct {
	HeroTitle    *string    `yaml:"heroTitle" toml:"heroTitle"`
	HeroSubtitle *string    `yaml:"heroSubtitle" toml:"heroSubtitle"`
	Labels       labelsFile `yaml:"labels" toml:"labels"`
}

type labelsFile struct {
	FormatControl *string `yaml:"formatControl" toml:"formatControl"`
	Convert       *string `yaml:"convert" toml:"convert"`
	Clear         *string `yaml:"clear" toml:"clear"`
	Download      *string `yaml:"download" toml:"download"`
	DownloadAll   *string `yaml:"downloadAll" toml:"downloadAll"`
}

// LoadFile reads an app-config file and merges it into cfg. The format is
// chosen by extension: .toml uses TOML, everything else (.json, .yaml, .yml)
// is decoded as YAML, which also accepts JSON.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var raw appConfigFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &raw)
	default:
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	raw.apply(cfg)
	return nil
}

func (f *appConfigFile) apply(cfg *Config) {
	feat := &cfg.Features
	setBool(&feat.ThemeToggle, f.Features.ThemeToggle)
	setBool(&feat.SingleFileFormatFiltering, f.Features.SingleFileFormatFiltering)
	setBool(&feat.SelectionLimits, f.Features.SelectionLimits)
	setBool(&feat.LockInputDuringConversion, f.Features.LockInputDuringConversion)
	setBool(&feat.TileDownloads, f.Features.TileDownloads)
	setBool(&feat.BulkDownload, f.Features.BulkDownload)
	if !feat.BulkDownload && !feat.TileDownloads {
		feat.BulkDownload = true
	}

	cfg.Limits.MaxFiles = int(positiveInteger(f.Limits.MaxFiles, int64(cfg.Limits.MaxFiles)))
	cfg.Limits.MaxTotalBytes = positiveInteger(f.Limits.MaxTotalBytes, cfg.Limits.MaxTotalBytes)
	cfg.Limits.MaxTotalMegapixels = positiveNumber(f.Limits.MaxTotalMegapixels, cfg.Limits.MaxTotalMegapixels)

	conv := f.Conversion
	if conv.SupportedInputExtensions != nil {
		cfg.SupportedInputExtensions = NormalizeExtensions(conv.SupportedInputExtensions, cfg.SupportedInputExtensions)
	}
	if conv.OutputFormats != nil {
		cfg.OutputFormats = normalizeOutputFormats(conv.OutputFormats)
	}
	cfg.PreviewMaxEdge = int(positiveInteger(conv.PreviewMaxEdge, int64(cfg.PreviewMaxEdge)))
	cfg.Quality = unitInterval(conv.DefaultLossyQuality, cfg.Quality)

	setString(&cfg.Title, f.UI.HeroTitle)
	setString(&cfg.Subtitle, f.UI.HeroSubtitle)
	setString(&cfg.Labels.FormatControl, f.UI.Labels.FormatControl)
	setString(&cfg.Labels.Convert, f.UI.Labels.Convert)
	setString(&cfg.Labels.Clear, f.UI.Labels.Clear)
	setString(&cfg.Labels.Download, f.UI.Labels.Download)
	setString(&cfg.Labels.DownloadAll, f.UI.Labels.DownloadAll)
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v == nil {
		return
	}
	if s := strings.TrimSpace(*v); s != "" {
		*dst = s
	}
}

func finite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

// positiveInteger floors v and keeps it when positive.
func positiveInteger(v *float64, fallback int64) int64 {
	if !finite(v) {
		return fallback
	}
	n := int64(math.Floor(*v))
	if n <= 0 {
		return fallback
	}
	return n
}

func positiveNumber(v *float64, fallback float64) float64 {
	if !finite(v) || *v <= 0 {
		return fallback
	}
	return *v
}

func unitInterval(v *float64, fallback float64) float64 {
	if !finite(v) || *v < 0 || *v > 1 {
		return fallback
	}
	return *v
}

// NormalizeExtension lowercases ext and strips one leading dot. Blank input
// yields "".
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	return strings.TrimPrefix(ext, ".")
}

// NormalizeExtensions normalizes and de-duplicates values, preserving order.
// An empty result yields a copy of fallback.
func NormalizeExtensions(values, fallback []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		ext := NormalizeExtension(v)
		if ext == "" || seen[ext] {
			continue
		}
		seen[ext] = true
		out = append(out, ext)
	}
	if len(out) == 0 {
		return append([]string(nil), fallback...)
	}
	return out
}

// normalizeOutputFormats fills missing fields of each entry from the default
// catalog entry at the same index (cycling), drops incomplete entries and
// duplicate ids, and falls back to the default catalog when nothing is left.
func normalizeOutputFormats(values []outputFormat) []formats.OutputFormat {
	defaults := formats.DefaultCatalog()
	seen := make(map[string]bool, len(values))
	var out []formats.OutputFormat
	for i, v := range values {
		fb := defaults[i%len(defaults)]
		f := formats.OutputFormat{
			ID:        strings.ToLower(nonEmpty(v.ID, fb.ID)),
			Label:     nonEmpty(v.Label, fb.Label),
			Extension: fb.Extension,
			MimeType:  strings.ToLower(nonEmpty(v.MimeType, fb.MimeType)),
			Lossy:     fb.Lossy,
		}
		if v.Extension != nil {
			if ext := NormalizeExtension(*v.Extension); ext != "" {
				f.Extension = ext
			}
		}
		setBool(&f.Lossy, v.Lossy)
		if f.ID == "" || f.Extension == "" || f.MimeType == "" || seen[f.ID] {
			continue
		}
		seen[f.ID] = true
		out = append(out, f)
	}
	if len(out) == 0 {
		return defaults
	}
	return out
}

func nonEmpty(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	if s := strings.TrimSpace(*v); s != "" {
		return s
	}
	return fallback
}
