// Package pipeline orchestrates sidecar discovery, per-file processing, and
// batch summary reporting.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/reclock/reclock/internal/config"
	"github.com/reclock/reclock/internal/exiftool"
	"github.com/reclock/reclock/internal/logging"
	"github.com/reclock/reclock/internal/match"
	"github.com/reclock/reclock/internal/sidecar"
	"github.com/reclock/reclock/internal/verify"
)

// Run is the top-level batch entry point. It discovers sidecars, processes
// each one sequentially, writes the failure report when failures occurred,
// and returns aggregate stats. Per-file failures never abort the walk; a
// failed walk itself (unreadable directory) is a fatal error for the caller,
// distinct from a run that completed with per-file failures.
func Run(ctx context.Context, cfg *config.Config, log *logging.Logger) (RunStats, error) {
	stats, report, err := run(ctx, cfg, log, exiftool.NewRunner())
	if err != nil {
		return stats, err
	}

	if stats.Failed > 0 {
		path := ReportPath(cfg.LogFile, time.Now())
		if err := report.Write(path); err != nil {
			log.Error("Cannot write failure report: %v", err)
		} else {
			log.Warn("Failure report: %s", path)
		}
	}
	return stats, nil
}

// run carries the batch with an injectable tool runner (tests swap in a fake
// executor). The report accumulates failures in occurrence order.
func run(ctx context.Context, cfg *config.Config, log *logging.Logger, tool *exiftool.Runner) (RunStats, *RunReport, error) {
	var stats RunStats
	report := NewReport(cfg.RootDir)

	sidecars, err := Discover(cfg.RootDir)
	if err != nil {
		return stats, report, fmt.Errorf("sidecar discovery: %w", err)
	}

	stats.Total = len(sidecars)
	logBatchHeader(cfg, log, &stats)

	for i, path := range sidecars {
		stats.Current = i + 1

		if ctx.Err() != nil {
			log.Warn("Interrupted")
			break
		}

		processSidecar(ctx, cfg, log, tool, path, &stats, report)
	}

	logSummary(log, &stats)
	report.Finalize(&stats)
	return stats, report, nil
}

// processSidecar handles one sidecar: match → load → resolve → build args →
// execute with retry. Each stage failure is recorded with a reason and ends
// processing of this file only.
func processSidecar(
	ctx context.Context,
	cfg *config.Config,
	log *logging.Logger,
	tool *exiftool.Runner,
	path string,
	stats *RunStats,
	report *RunReport,
) {
	log.Info("[%d/%d] %s", stats.Current, stats.Total, filepath.Base(path))

	// --- Match sidecar to media file ---
	media, err := match.Match(path)
	if err != nil {
		log.Warn("No match: %v", err)
		stats.Failed++
		report.Record(path, err.Error())
		return
	}
	log.Debug(cfg.Verbose, "  Media: %s", filepath.Base(media))

	// --- Parse sidecar JSON ---
	rec, err := sidecar.Load(path)
	if err != nil {
		log.Warn("Sidecar unreadable: %v", err)
		stats.Failed++
		report.Record(path, fmt.Sprintf("sidecar parse: %v", err))
		return
	}

	// --- Resolve timestamp ---
	res, ok := sidecar.Resolve(rec)
	for _, fe := range res.FieldErrors {
		log.Warn("  Bad time field %s: %v", fe.Field, fe.Err)
	}
	if !ok {
		log.Warn("No usable timestamp in sidecar")
		stats.Failed++
		report.Record(media, "no usable timestamp in sidecar")
		return
	}
	log.Debug(cfg.Verbose, "  Time: %s (from %s)", res.Time.Format(time.RFC3339), res.Field)

	// --- Skip files that are already tagged ---
	if cfg.SkipTagged && verify.HasCaptureDate(media) {
		log.Info("  Skip (already tagged): %s", filepath.Base(media))
		stats.Skipped++
		return
	}

	// --- Build exiftool arguments ---
	stamp := exiftool.FormatTimestamp(res.Time, cfg.TZOffsetHours)
	args := exiftool.Build(media, stamp, coordinates(cfg, log, rec))

	if cfg.DryRun {
		log.Success("[DRY] Would run: %s", strings.Join(args, " "))
		stats.Updated++
		return
	}

	// --- Execute with retry ---
	result, attempts := tool.Run(ctx, args)
	switch result.Outcome {
	case exiftool.OutcomeSuccess:
		if attempts > 1 {
			log.Success("Updated after %d attempts: %s", attempts, filepath.Base(media))
		} else {
			log.Success("Updated: %s", filepath.Base(media))
		}
		stats.Updated++
	case exiftool.OutcomeTimeout:
		log.Error("exiftool timed out (%s): %s", exiftool.ExecTimeout, filepath.Base(media))
		stats.Failed++
		report.Record(media, fmt.Sprintf("exiftool timed out after %s", exiftool.ExecTimeout))
	case exiftool.OutcomeCancelled:
		// Interrupted mid-run; the batch loop stops before the next file.
		log.Warn("Interrupted while running exiftool: %s", filepath.Base(media))
	case exiftool.OutcomeTransient:
		log.Error("File still locked after %d attempts: %s", attempts, filepath.Base(media))
		logStderr(log, result.Stderr)
		stats.Failed++
		report.Record(media, fmt.Sprintf("file in use after %d attempts", attempts))
	default:
		log.Error("exiftool failed: %v", result.Err)
		logStderr(log, result.Stderr)
		stats.Failed++
		report.Record(media, failureReason(result))
	}
}

// coordinates extracts a valid GPS position from the sidecar, or nil when
// GPS writing is disabled or no usable fix exists. Out-of-range values warn.
func coordinates(cfg *config.Config, log *logging.Logger, rec *sidecar.Record) *exiftool.Coordinates {
	if !cfg.WriteGPS {
		return nil
	}
	lat, lon, err := rec.Coordinates()
	if err != nil {
		if err != sidecar.ErrNoCoordinates {
			log.Warn("  Ignoring GPS data: %v", err)
		}
		return nil
	}
	return &exiftool.Coordinates{Latitude: lat, Longitude: lon}
}

// failureReason condenses a permanent failure into the report's reason
// string, preferring the first real diagnostic line over the exit status.
func failureReason(result exiftool.Result) string {
	filtered := exiftool.FilterMinor(result.Stderr)
	if filtered != "" {
		if i := strings.Index(filtered, "\n"); i > 0 {
			filtered = filtered[:i]
		}
		return filtered
	}
	return fmt.Sprintf("exiftool failed: %v", result.Err)
}

// logStderr prints the tool's diagnostics with minor-warning lines stripped.
func logStderr(log *logging.Logger, stderr string) {
	filtered := exiftool.FilterMinor(stderr)
	if filtered == "" {
		return
	}
	for _, l := range strings.Split(filtered, "\n") {
		log.Error("  %s", l)
	}
}

// --- Logging helpers ---

func logBatchHeader(cfg *config.Config, log *logging.Logger, stats *RunStats) {
	log.Info("Found %d sidecar files", stats.Total)
	log.Info("Timezone: UTC%+d", cfg.TZOffsetHours)
	if cfg.SkipTagged {
		log.Info("Skip policy: leave files with an embedded capture date untouched")
	}
	if !cfg.WriteGPS {
		log.Info("GPS: disabled")
	}
	if cfg.DryRun {
		log.Warn("DRY RUN: no files will be modified")
	}
	log.Info("")
}

func logSummary(log *logging.Logger, stats *RunStats) {
	log.Info("==============================")
	log.Info("Done: %d updated, %d skipped, %d failed", stats.Updated, stats.Skipped, stats.Failed)
	log.Info("  Total sidecars processed: %d", stats.Current)
}
