// Package check provides system diagnostics (--check mode) and the
// pre-run validation (CheckDeps) of the codec engine and output directories.
package check

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/backmassage/pixshift/internal/codec"
	"github.com/backmassage/pixshift/internal/config"
	"github.com/backmassage/pixshift/internal/formats"
)

// Sentinel errors returned by CheckDeps.
var (
	ErrNoEncodableFormat = errors.New("none of the configured output formats can be encoded")
	ErrFormatUnavailable = errors.New("requested output format cannot be encoded")
	ErrOutputNotWritable = errors.New("output directory is not writable")
)

// Logger is the minimal logging interface needed by RunCheck.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(bool, string, ...interface{})
}

// Prober reports whether an output format can be encoded.
type Prober interface {
	ProbeFormatSupport(ctx context.Context, f formats.OutputFormat) bool
}

// RunCheck runs the --check flow: lists the decoders, probes every configured
// output format and tests the output directories. Informational only.
func RunCheck(ctx context.Context, cfg *config.Config, log Logger, p Prober) {
	log.Info("=== System Check ===")

	log.Info("Decoders: %s", strings.Join(codec.Decoders(), ", "))
	checkEncoders(ctx, cfg, log, p)
	checkDir(log, "Output", cfg.OutputDir)
	if cfg.PreviewDir != "" {
		checkDir(log, "Previews", cfg.PreviewDir)
	}
	checkLimits(cfg, log)
}

func checkEncoders(ctx context.Context, cfg *config.Config, log Logger, p Prober) {
	log.Info("Output formats:")
	usable := 0
	for _, f := range cfg.OutputFormats {
		if p.ProbeFormatSupport(ctx, f) {
			usable++
			log.Success("  %-6s %s (%s)", f.ID, f.Label, f.MimeType)
		} else {
			log.Warn("  %-6s %s (%s): no encoder", f.ID, f.Label, f.MimeType)
		}
	}
	if usable == 0 {
		log.Error("No configured output format can be encoded")
	}
}

func checkDir(log Logger, label, dir string) {
	if err := probeWritable(dir); err != nil {
		log.Error("%s directory %s: %v", label, dir, err)
		return
	}
	log.Success("%s directory %s is writable", label, dir)
}

func checkLimits(cfg *config.Config, log Logger) {
	if !cfg.Features.SelectionLimits {
		log.Warn("Selection limits disabled")
		return
	}
	log.Info("Limits: %d files, %d bytes, %.1f MP",
		cfg.Limits.MaxFiles, cfg.Limits.MaxTotalBytes, cfg.Limits.MaxTotalMegapixels)
}

// CheckDeps is the pre-run validation: at least one configured format must
// encode, an explicitly requested format must encode, and the output
// directory must accept writes. Returns a sentinel error on failure.
func CheckDeps(ctx context.Context, cfg *config.Config, p Prober) error {
	usable := 0
	for _, f := range cfg.OutputFormats {
		if p.ProbeFormatSupport(ctx, f) {
			usable++
		} else if f.ID == cfg.Format {
			return fmt.Errorf("%w: %s", ErrFormatUnavailable, f.ID)
		}
	}
	if usable == 0 {
		return ErrNoEncodableFormat
	}
	if err := probeWritable(cfg.OutputDir); err != nil {
		return fmt.Errorf("%w: %v", ErrOutputNotWritable, err)
	}
	return nil
}

// --- internal helpers ---

// probeWritable creates dir if needed and writes then removes a scratch file.
func probeWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".pixshift-check-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(filepath.Clean(name))
}
