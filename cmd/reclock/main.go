// Command reclock is the CLI entrypoint for the sidecar-driven media
// timestamp repair tool.
//
// It parses flags, validates configuration and the target path, and either
// runs system diagnostics (--check) or the repair pipeline: walk the target
// tree, match each JSON sidecar to its media file, resolve the capture
// timestamp, and drive exiftool to rewrite the embedded and filesystem
// dates.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/reclock/reclock/internal/check"
	"github.com/reclock/reclock/internal/config"
	"github.com/reclock/reclock/internal/display"
	"github.com/reclock/reclock/internal/logging"
	"github.com/reclock/reclock/internal/pipeline"
)

// Exit codes: distinguish a run that completed with recorded failures (101)
// from a fatal setup error (1).
const (
	exitOK           = 0
	exitFatal        = 1
	exitWithFailures = 101
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
	// Phase 1: Bootstrap — the logger doesn't exist yet, so errors go
	// directly to stderr via fmt. Once NewLogger succeeds, all output
	// goes through the logger for consistent formatting and log-file capture.
	cfg := config.DefaultConfig()
	if err := config.ParseFlags(&cfg, version); err != nil {
		fmt.Fprintf(os.Stderr, "reclock: %v\n", err)
		return exitFatal
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "reclock: %v\n", err)
		return exitFatal
	}

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reclock: %v\n", err)
		return exitFatal
	}
	defer log.Close()

	// Phase 2: Logger available — all output goes through log from here on.
	display.PrintBanner()

	if cfg.CheckOnly {
		if !check.RunCheck(log) {
			return exitFatal
		}
		return exitOK
	}

	// The target must exist and be a directory before the batch starts.
	rootAbs, err := absPath(cfg.RootDir)
	if err != nil {
		log.Error("Target directory not found: %s", cfg.RootDir)
		return exitFatal
	}
	fi, err := os.Stat(rootAbs)
	if err != nil || !fi.IsDir() {
		log.Error("Not a directory: %s", cfg.RootDir)
		return exitFatal
	}

	log.Info("=== reclock v%s (%s) ===", version, commit)
	log.Info("Target: %s", rootAbs)
	log.Info("")

	// Fail fast if exiftool is unavailable.
	if !cfg.DryRun {
		if err := check.CheckDeps(); err != nil {
			log.Error("%v", err)
			return exitFatal
		}
	}

	// Phase 3: Signal handling — cancel context on SIGINT/SIGTERM so the
	// pipeline can stop between files without leaving a half-written batch.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn("Received interrupt, finishing current file…")
		cancel()
	}()

	// Phase 4: Run pipeline (discover → match → resolve → execute).
	cfg.RootDir = rootAbs
	stats, err := pipeline.Run(ctx, &cfg, log)
	if err != nil {
		log.Error("%v", err)
		return exitFatal
	}

	if stats.Failed > 0 {
		return exitWithFailures
	}
	return exitOK
}

// absPath returns the absolute path with symlinks resolved.
func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
