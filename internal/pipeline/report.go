package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// FailureRecord pairs a file path (sidecar or media, depending on the stage
// that failed) with a short reason string.
type FailureRecord struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// ReportSummary holds the run's aggregate counts.
type ReportSummary struct {
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// RunReport is the machine-readable failure report, written alongside the
// log only when failures occurred. Failures keep occurrence order.
type RunReport struct {
	RunID      uuid.UUID       `json:"run_id"`
	Root       string          `json:"root"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Summary    ReportSummary   `json:"summary"`
	Failures   []FailureRecord `json:"failures"`
}

// NewReport starts a report for one batch run over root.
func NewReport(root string) *RunReport {
	return &RunReport{
		RunID:     uuid.New(),
		Root:      root,
		StartedAt: time.Now().UTC(),
	}
}

// Record appends one failure in occurrence order.
func (r *RunReport) Record(path, reason string) {
	r.Failures = append(r.Failures, FailureRecord{Path: path, Reason: reason})
}

// Finalize stamps the finish time (UTC, so JSON serializes with a Z suffix)
// and copies the run counters into the summary.
func (r *RunReport) Finalize(stats *RunStats) {
	r.FinishedAt = time.Now().UTC()
	r.Summary = ReportSummary{
		Updated: stats.Updated,
		Skipped: stats.Skipped,
		Failed:  stats.Failed,
	}
}

// Write serializes the report as indented JSON at path.
func (r *RunReport) Write(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// ReportPath chooses where the failure report goes: next to the log file
// when one is configured, otherwise the working directory.
func ReportPath(logFile string, now time.Time) string {
	name := fmt.Sprintf("failures_%s.json", now.Format("20060102_150405"))
	if logFile == "" {
		return name
	}
	return filepath.Join(filepath.Dir(logFile), name)
}
