package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestNormalizeDirArg(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no trailing slash", "/photos/out", "/photos/out"},
		{"single trailing slash", "/photos/out/", "/photos/out"},
		{"multiple trailing slashes", "/photos/out///", "/photos/out"},
		{"root path", "/", "/"},
		{"relative with slash", "output/", "output"},
		{"empty string", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeDirArg(tt.in)
			if got != tt.want {
				t.Errorf("NormalizeDirArg(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidate_ColorMode(t *testing.T) {
	tests := []struct {
		name    string
		mode    ColorMode
		wantErr bool
	}{
		{"auto is valid", ColorAuto, false},
		{"never is valid", ColorNever, false},
		{"empty is invalid", "", true},
		{"unknown is invalid", "rainbow", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.CheckOnly = true // skip path requirement
			cfg.ColorMode = tt.mode
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_Format(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		wantErr bool
	}{
		{"empty picks first offered", "", false},
		{"jpeg is valid", "jpeg", false},
		{"case folded", " PNG ", false},
		{"unknown is invalid", "heic", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.CheckOnly = true
			cfg.Format = tt.format
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_Ranges(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"quality above 1", func(c *Config) { c.Quality = 1.5 }},
		{"negative quality", func(c *Config) { c.Quality = -0.1 }},
		{"zero preview edge", func(c *Config) { c.PreviewMaxEdge = 0 }},
		{"zero max files", func(c *Config) { c.Limits.MaxFiles = 0 }},
		{"bad theme", func(c *Config) { c.Theme = "sepia" }},
		{"no formats", func(c *Config) { c.OutputFormats = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.CheckOnly = true
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}
}

func TestValidate_RequiresInputs(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should fail without inputs")
	}
	cfg.Inputs = []string{"a.png"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestValidate_DownloadFlagsForceBulk(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CheckOnly = true
	cfg.Features.BulkDownload = false
	cfg.Features.TileDownloads = false
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if !cfg.Features.BulkDownload {
		t.Error("BulkDownload should be forced on when both download modes are off")
	}
}

func TestDefaultConfig_SaneDefaults(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Limits.MaxFiles != 30 || cfg.Limits.MaxTotalBytes != 100*1024*1024 || cfg.Limits.MaxTotalMegapixels != 120 {
		t.Errorf("default limits = %+v", cfg.Limits)
	}
	if cfg.PreviewMaxEdge != 420 {
		t.Errorf("default PreviewMaxEdge = %d", cfg.PreviewMaxEdge)
	}
	if cfg.Quality != DefaultLossyQuality {
		t.Errorf("default Quality = %v", cfg.Quality)
	}
	if len(cfg.SupportedInputExtensions) != 19 {
		t.Errorf("default extensions = %d, want 19", len(cfg.SupportedInputExtensions))
	}
	if !cfg.SkipExisting || !cfg.Recursive {
		t.Error("SkipExisting and Recursive should default to true")
	}
	if cfg.ColorMode != ColorAuto || cfg.Theme != ThemeUnset {
		t.Errorf("ColorMode=%q Theme=%q", cfg.ColorMode, cfg.Theme)
	}
}

func TestParseFlags(t *testing.T) {
	cfg := DefaultConfig()
	args := []string{"-t", "jpeg", "--quality", "85", "--force", "--no-color", "--theme", "dark", "-o", "out/", "a.png", "dir"}
	if err := ParseFlags(&cfg, "test", args); err != nil {
		t.Fatal(err)
	}
	if cfg.Format != "jpeg" {
		t.Errorf("Format = %q", cfg.Format)
	}
	if cfg.Quality != 0.85 {
		t.Errorf("Quality = %v, want 0.85", cfg.Quality)
	}
	if cfg.SkipExisting {
		t.Error("--force should clear SkipExisting")
	}
	if cfg.ColorMode != ColorNever {
		t.Errorf("ColorMode = %q", cfg.ColorMode)
	}
	if cfg.Theme != ThemeDark {
		t.Errorf("Theme = %q", cfg.Theme)
	}
	if cfg.OutputDir != "out" {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}
	if !reflect.DeepEqual(cfg.Inputs, []string{"a.png", "dir"}) {
		t.Errorf("Inputs = %v", cfg.Inputs)
	}
}

func TestParseFlags_BadValues(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"quality not a number", []string{"-q", "high"}},
		{"quality out of range", []string{"-q", "150"}},
		{"bad theme", []string{"--theme", "sepia"}},
		{"unknown flag", []string{"--nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			if err := ParseFlags(&cfg, "test", tt.args); err == nil {
				t.Error("ParseFlags() should fail")
			}
		})
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile_JSON(t *testing.T) {
	path := writeFile(t, "app-config.json", `{
  "features": {"tileDownloads": false, "bulkDownload": false, "selectionLimits": false},
  "limits": {"maxFiles": 5.7, "maxTotalBytes": -1, "maxTotalMegapixels": 12.5},
  "conversion": {
    "supportedInputExtensions": [".PNG", "jpg", "png", " "],
    "previewMaxEdge": 0,
    "defaultLossyQuality": 1.5,
    "outputFormats": [
      {"id": "PNG"},
      {"id": "gif", "label": "GIF", "extension": ".gif", "mimeType": "image/gif", "lossy": false},
      {"id": "png", "label": "dup"}
    ]
  },
  "ui": {"labels": {"convert": "Go", "download": "  "}}
}`)

	cfg := DefaultConfig()
	if err := LoadFile(path, &cfg); err != nil {
		t.Fatal(err)
	}

	if !cfg.Features.BulkDownload || cfg.Features.TileDownloads {
		t.Errorf("download flags = %+v", cfg.Features)
	}
	if cfg.Features.SelectionLimits {
		t.Error("SelectionLimits should be off")
	}
	if cfg.Limits.MaxFiles != 5 {
		t.Errorf("MaxFiles = %d, want 5 (floored)", cfg.Limits.MaxFiles)
	}
	if cfg.Limits.MaxTotalBytes != 100*1024*1024 {
		t.Errorf("MaxTotalBytes = %d, want default", cfg.Limits.MaxTotalBytes)
	}
	if cfg.Limits.MaxTotalMegapixels != 12.5 {
		t.Errorf("MaxTotalMegapixels = %v", cfg.Limits.MaxTotalMegapixels)
	}
	if !reflect.DeepEqual(cfg.SupportedInputExtensions, []string{"png", "jpg"}) {
		t.Errorf("extensions = %v", cfg.SupportedInputExtensions)
	}
	if cfg.PreviewMaxEdge != 420 || cfg.Quality != DefaultLossyQuality {
		t.Errorf("invalid values should keep defaults: edge=%d quality=%v", cfg.PreviewMaxEdge, cfg.Quality)
	}

	if len(cfg.OutputFormats) != 2 {
		t.Fatalf("OutputFormats = %+v", cfg.OutputFormats)
	}
	if got := cfg.OutputFormats[0]; got.ID != "png" || got.MimeType != "image/png" || got.Label != "PNG" {
		t.Errorf("first format = %+v", got)
	}
	if got := cfg.OutputFormats[1]; got.ID != "gif" || got.Extension != "gif" {
		t.Errorf("second format = %+v", got)
	}

	if cfg.Labels.Convert != "Go" || cfg.Labels.Download != "Download" {
		t.Errorf("labels = %+v", cfg.Labels)
	}
}

func TestLoadFile_TOML(t *testing.T) {
	path := writeFile(t, "pixshift.toml", `
[limits]
maxFiles = 3

[conversion]
defaultLossyQuality = 0.5
`)
	cfg := DefaultConfig()
	if err := LoadFile(path, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Limits.MaxFiles != 3 || cfg.Quality != 0.5 {
		t.Errorf("limits=%+v quality=%v", cfg.Limits, cfg.Quality)
	}
	if len(cfg.OutputFormats) != 3 {
		t.Errorf("catalog should be untouched, got %d formats", len(cfg.OutputFormats))
	}
}

func TestLoadFile_Errors(t *testing.T) {
	cfg := DefaultConfig()
	if err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), &cfg); err == nil {
		t.Error("missing file should fail")
	}
	bad := writeFile(t, "bad.yaml", "limits: [unclosed")
	if err := LoadFile(bad, &cfg); err == nil {
		t.Error("malformed file should fail")
	}
}

func TestParseFlags_ConfigFileThenFlags(t *testing.T) {
	path := writeFile(t, "c.yaml", "limits:\n  maxFiles: 7\nconversion:\n  defaultLossyQuality: 0.4\n")
	cfg := DefaultConfig()
	if err := ParseFlags(&cfg, "test", []string{"--config", path, "-q", "0.6", "x.png"}); err != nil {
		t.Fatal(err)
	}
	if cfg.Limits.MaxFiles != 7 {
		t.Errorf("MaxFiles = %d, want 7 from file", cfg.Limits.MaxFiles)
	}
	if cfg.Quality != 0.6 {
		t.Errorf("Quality = %v, want flag value 0.6", cfg.Quality)
	}
}
