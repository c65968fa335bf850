// Command pixshift is the CLI entrypoint for the batch image converter.
//
// It parses flags, validates configuration, and either runs system
// diagnostics (--check) or selects the input images, converts them to the
// target format and saves the results into the output directory.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/backmassage/pixshift/internal/check"
	"github.com/backmassage/pixshift/internal/codec"
	"github.com/backmassage/pixshift/internal/config"
	"github.com/backmassage/pixshift/internal/console"
	"github.com/backmassage/pixshift/internal/display"
	"github.com/backmassage/pixshift/internal/logging"
	"github.com/backmassage/pixshift/internal/media"
	"github.com/backmassage/pixshift/internal/pipeline"
	"github.com/backmassage/pixshift/internal/prefs"
	"github.com/backmassage/pixshift/internal/resource"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "1.0.0"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Phase 1: Bootstrap. The logger doesn't exist yet, so errors go
	// directly to stderr via fmt.
	cfg := config.DefaultConfig()
	if err := config.ParseFlags(&cfg, version, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "pixshift: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "pixshift: %v\n", err)
		return 1
	}
	themeErr := resolveTheme(&cfg)

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pixshift: %v\n", err)
		return 1
	}
	defer log.Close()

	// Phase 2: Logger available. All output goes through log from here on.
	display.PrintBanner(os.Stdout, cfg.Subtitle)
	if themeErr != nil {
		log.Warn("Theme preference not saved: %v", themeErr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	engine := codec.NewEngine()

	if cfg.CheckOnly {
		check.RunCheck(ctx, &cfg, log, engine)
		return 0
	}
	if err := check.CheckDeps(ctx, &cfg, engine); err != nil {
		log.Error("%v", err)
		return 1
	}

	files, err := pipeline.Collect(cfg.Inputs, cfg.Recursive)
	if err != nil {
		log.Error("%v", err)
		return 1
	}

	log.Info("=== %s v%s (%s) ===", cfg.Title, version, commit)
	log.Info("In:  %s", strings.Join(cfg.Inputs, ", "))
	log.Info("Out: %s", cfg.OutputDir)
	log.Info("")
	if cfg.Verbose {
		inspect(ctx, log, engine, files)
	}

	tracker := resource.NewTracker()
	view := console.NewView(console.ViewOptions{
		Log:        log,
		Out:        os.Stdout,
		Tracker:    tracker,
		PreviewDir: cfg.PreviewDir,
		Verbose:    cfg.Verbose,
	})
	writer := console.NewDiskWriter(cfg.OutputDir, !cfg.SkipExisting, log)
	session, err := pipeline.NewSession(ctx, pipeline.Options{
		Config:     &cfg,
		Engine:     engine,
		View:       view,
		Downloader: writer,
		Tracker:    tracker,
		Log:        log,
	})
	if err != nil {
		log.Error("%v", err)
		return 1
	}
	defer func() {
		session.Clear()
		view.Flush()
		if n := tracker.ReleaseAll(); n > 0 {
			log.Debug(cfg.Verbose, "Released %d leaked handle(s)", n)
		}
		acquired, released := tracker.Stats()
		log.Debug(cfg.Verbose, "Handles: %d acquired, %d released", acquired, released)
	}()

	// Phase 3: Signal handling. SIGINT/SIGTERM cancels the active run; the
	// entries converted so far are still saved.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Received interrupt, stopping after the current file...")
			if !session.Cancel() {
				cancel()
			}
		case <-ctx.Done():
		}
	}()

	// Phase 4: select -> preview -> convert -> download.
	if err := session.Select(ctx, files); err != nil {
		return 1
	}
	stats, err := session.Convert(ctx)
	cancelled := errors.Is(err, pipeline.ErrCancelled)
	if err != nil && !cancelled {
		log.Error("%v", err)
		return 1
	}

	if stats.Converted > 0 {
		saveOutputs(ctx, &cfg, session, view, log)
	}
	printSummary(log, &stats, writer)

	if cancelled || stats.Failed > 0 {
		return 1
	}
	return 0
}

// resolveTheme applies the stored theme when none was given, and stores an
// explicitly chosen one when the theme toggle is enabled.
func resolveTheme(cfg *config.Config) error {
	path, err := prefs.DefaultPath()
	if err != nil {
		return nil
	}
	store := prefs.NewStore(path)
	if cfg.Theme == config.ThemeUnset {
		if theme, err := store.Theme(); err == nil {
			cfg.Theme = theme
		}
		return nil
	}
	if !cfg.Features.ThemeToggle {
		return nil
	}
	return store.SetTheme(cfg.Theme)
}

// saveOutputs triggers the downloads: the bulk action when enabled,
// otherwise every per-tile action.
func saveOutputs(ctx context.Context, cfg *config.Config, s *pipeline.Session, view *console.View, log *logging.Logger) {
	if cfg.Features.BulkDownload {
		if err := s.DownloadAll(ctx); err != nil {
			log.Error("Download failed: %v", err)
		}
		return
	}
	for _, download := range view.DownloadActions() {
		download()
	}
}

// inspect logs per-file dimensions and camera metadata.
func inspect(ctx context.Context, log *logging.Logger, engine *codec.Engine, files []media.File) {
	for _, f := range files {
		if !strings.HasPrefix(f.MediaType, "image/") {
			continue
		}
		info, err := engine.Inspect(ctx, f)
		if err != nil {
			log.Debug(true, "%s: %v", f.Name, err)
			continue
		}
		line := fmt.Sprintf("%s: %s, %s, %s", f.Name,
			display.FormatDimensions(info.Dimensions.Width, info.Dimensions.Height),
			display.FormatMegapixels(info.Dimensions.Megapixels()),
			display.FormatBytes(f.Size))
		if info.CameraModel != "" {
			line += ", " + info.CameraModel
		}
		if !info.Taken.IsZero() {
			line += ", taken " + info.Taken.Format("2006-01-02")
		}
		log.Debug(true, "%s", line)
	}
}

func printSummary(log *logging.Logger, stats *pipeline.RunStats, w *console.DiskWriter) {
	log.Info("")
	log.Info("=== Summary ===")
	log.Info("Converted: %d  Failed: %d  Skipped: %d", stats.Converted, stats.Failed, stats.Skipped)
	if stats.Converted > 0 {
		log.Info("Size: %s -> %s (%s)",
			display.FormatBytes(stats.TotalInputBytes),
			display.FormatBytes(stats.TotalOutputBytes),
			display.FormatBytesWithSign(-stats.SpaceSaved()))
	}
	if n := len(w.Written()); n > 0 {
		log.Success("Saved %d file(s), %s", n, display.FormatBytes(w.Bytes()))
	}
	if n := len(w.Skipped()); n > 0 {
		log.Warn("Kept %d existing file(s); use --force to overwrite", n)
	}
}
