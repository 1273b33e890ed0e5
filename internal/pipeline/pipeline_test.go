package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/reclock/reclock/internal/config"
	"github.com/reclock/reclock/internal/exiftool"
	"github.com/reclock/reclock/internal/logging"
)

func testConfig(root string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.RootDir = root
	cfg.ColorMode = config.ColorNever
	return &cfg
}

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	log, err := logging.NewLogger(&config.Config{ColorMode: config.ColorNever})
	if err != nil {
		t.Fatal(err)
	}
	return log
}

// fakeTool returns a Runner whose executions are scripted and recorded.
func fakeTool(result exiftool.Result, calls *[][]string) *exiftool.Runner {
	return &exiftool.Runner{
		Exec: func(ctx context.Context, args []string) exiftool.Result {
			*calls = append(*calls, args)
			return result
		},
		Sleep: func(time.Duration) {},
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

const takenSidecar = `{
  "title": "IMG_0001.jpg",
  "photoTakenTime": {"timestamp": "1609459200", "formatted": "Jan 1, 2021, 12:00:00 AM UTC"}
}`

func TestRun_UpdatesMatchedMedia(t *testing.T) {
	dir := t.TempDir()
	media := filepath.Join(dir, "IMG_0001.jpg")
	writeFile(t, media, "jpeg bytes")
	writeFile(t, filepath.Join(dir, "IMG_0001.jpg.supplemental-metadata.json"), takenSidecar)

	var calls [][]string
	stats, report, _ := run(context.Background(), testConfig(dir), testLogger(t),
		fakeTool(exiftool.Result{Outcome: exiftool.OutcomeSuccess}, &calls))

	if stats.Updated != 1 || stats.Failed != 0 || stats.Skipped != 0 {
		t.Fatalf("stats = %+v, want 1 updated", stats)
	}
	if len(calls) != 1 {
		t.Fatalf("exiftool invoked %d times, want 1", len(calls))
	}
	args := calls[0]
	if args[len(args)-1] != media {
		t.Errorf("target = %q, want %q", args[len(args)-1], media)
	}
	// 1609459200 is 2021-01-01 00:00:00 UTC; the default display zone is UTC+8.
	found := false
	for _, a := range args {
		if strings.Contains(a, "2021:01:01 08:00:00+0800") {
			found = true
		}
	}
	if !found {
		t.Errorf("no argument carries the resolved timestamp: %v", args)
	}
	if len(report.Failures) != 0 {
		t.Errorf("unexpected failures: %v", report.Failures)
	}
}

func TestRun_RecordsUnmatchedSidecar(t *testing.T) {
	dir := t.TempDir()
	sc := filepath.Join(dir, "metadata.json")
	writeFile(t, sc, `{"title": "album"}`)

	var calls [][]string
	stats, report, _ := run(context.Background(), testConfig(dir), testLogger(t),
		fakeTool(exiftool.Result{Outcome: exiftool.OutcomeSuccess}, &calls))

	if stats.Failed != 1 {
		t.Fatalf("Failed = %d, want 1", stats.Failed)
	}
	if len(calls) != 0 {
		t.Error("exiftool should not run for an unmatched sidecar")
	}
	if len(report.Failures) != 1 || report.Failures[0].Path != sc {
		t.Errorf("failure record = %+v, want path %q", report.Failures, sc)
	}
}

func TestRun_RecordsUnparseableSidecar(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "IMG_0002.jpg"), "jpeg bytes")
	writeFile(t, filepath.Join(dir, "IMG_0002.jpg.json"), "{not json")

	var calls [][]string
	stats, report, _ := run(context.Background(), testConfig(dir), testLogger(t),
		fakeTool(exiftool.Result{Outcome: exiftool.OutcomeSuccess}, &calls))

	if stats.Failed != 1 {
		t.Fatalf("Failed = %d, want 1", stats.Failed)
	}
	if len(report.Failures) != 1 || !strings.HasPrefix(report.Failures[0].Reason, "sidecar parse:") {
		t.Errorf("failure record = %+v, want a parse reason", report.Failures)
	}
}

func TestRun_RecordsMissingTimestamp(t *testing.T) {
	dir := t.TempDir()
	media := filepath.Join(dir, "IMG_0003.jpg")
	writeFile(t, media, "jpeg bytes")
	writeFile(t, filepath.Join(dir, "IMG_0003.jpg.json"), `{"title": "IMG_0003.jpg"}`)

	var calls [][]string
	stats, report, _ := run(context.Background(), testConfig(dir), testLogger(t),
		fakeTool(exiftool.Result{Outcome: exiftool.OutcomeSuccess}, &calls))

	if stats.Failed != 1 {
		t.Fatalf("Failed = %d, want 1", stats.Failed)
	}
	if len(report.Failures) != 1 || report.Failures[0].Path != media {
		t.Errorf("failure should name the media file: %+v", report.Failures)
	}
	if report.Failures[0].Reason != "no usable timestamp in sidecar" {
		t.Errorf("reason = %q", report.Failures[0].Reason)
	}
}

func TestRun_DryRunSkipsExecution(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "IMG_0001.jpg"), "jpeg bytes")
	writeFile(t, filepath.Join(dir, "IMG_0001.jpg.json"), takenSidecar)

	cfg := testConfig(dir)
	cfg.DryRun = true

	var calls [][]string
	stats, _, _ := run(context.Background(), cfg, testLogger(t),
		fakeTool(exiftool.Result{Outcome: exiftool.OutcomeSuccess}, &calls))

	if len(calls) != 0 {
		t.Error("dry run must not invoke exiftool")
	}
	if stats.Updated != 1 {
		t.Errorf("Updated = %d, want 1", stats.Updated)
	}
}

func TestRun_PersistentLockIsRecorded(t *testing.T) {
	dir := t.TempDir()
	media := filepath.Join(dir, "IMG_0001.jpg")
	writeFile(t, media, "jpeg bytes")
	writeFile(t, filepath.Join(dir, "IMG_0001.jpg.json"), takenSidecar)

	var calls [][]string
	stats, report, _ := run(context.Background(), testConfig(dir), testLogger(t),
		fakeTool(exiftool.Result{
			Outcome: exiftool.OutcomeTransient,
			Stderr:  "Error: File is in use - IMG_0001.jpg",
		}, &calls))

	if stats.Failed != 1 {
		t.Fatalf("Failed = %d, want 1", stats.Failed)
	}
	if len(calls) != 1+exiftool.MaxRetries {
		t.Errorf("attempts = %d, want %d", len(calls), 1+exiftool.MaxRetries)
	}
	if len(report.Failures) != 1 || report.Failures[0].Path != media {
		t.Fatalf("failure record = %+v", report.Failures)
	}
	if !strings.Contains(report.Failures[0].Reason, "file in use") {
		t.Errorf("reason = %q", report.Failures[0].Reason)
	}
}

func TestRun_Idempotent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "IMG_0001.jpg"), "jpeg bytes")
	writeFile(t, filepath.Join(dir, "IMG_0001.jpg.json"), takenSidecar)
	writeFile(t, filepath.Join(dir, "IMG_0002.jpg"), "jpeg bytes")
	writeFile(t, filepath.Join(dir, "IMG_0002.jpg.json"), takenSidecar)

	var first, second [][]string
	ok := exiftool.Result{Outcome: exiftool.OutcomeSuccess}

	s1, _, _ := run(context.Background(), testConfig(dir), testLogger(t), fakeTool(ok, &first))
	s2, _, _ := run(context.Background(), testConfig(dir), testLogger(t), fakeTool(ok, &second))

	if s1 != s2 {
		t.Errorf("second run stats %+v differ from first %+v", s2, s1)
	}
	if len(first) != len(second) {
		t.Errorf("invocation counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if strings.Join(first[i], "\x00") != strings.Join(second[i], "\x00") {
			t.Errorf("invocation %d differs between runs", i)
		}
	}
}

func TestRun_CancelledContextStopsBatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "IMG_0001.jpg"), "jpeg bytes")
	writeFile(t, filepath.Join(dir, "IMG_0001.jpg.json"), takenSidecar)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls [][]string
	stats, _, _ := run(ctx, testConfig(dir), testLogger(t),
		fakeTool(exiftool.Result{Outcome: exiftool.OutcomeSuccess}, &calls))

	if len(calls) != 0 {
		t.Error("cancelled run must not invoke exiftool")
	}
	if stats.Updated != 0 {
		t.Errorf("Updated = %d, want 0", stats.Updated)
	}
}

func TestRun_DiscoveryErrorIsFatal(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")

	var calls [][]string
	stats, _, err := run(context.Background(), testConfig(dir), testLogger(t),
		fakeTool(exiftool.Result{Outcome: exiftool.OutcomeSuccess}, &calls))

	if err == nil {
		t.Fatal("a failed walk must surface as an error, not a clean run")
	}
	if stats.Failed != 0 || stats.Updated != 0 {
		t.Errorf("stats = %+v, want zero counters on an aborted batch", stats)
	}
	if len(calls) != 0 {
		t.Error("exiftool must not run when discovery fails")
	}
}

func TestRun_CancelledExecutionIsNotAFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "IMG_0001.jpg"), "jpeg bytes")
	writeFile(t, filepath.Join(dir, "IMG_0001.jpg.json"), takenSidecar)

	var calls [][]string
	stats, report, err := run(context.Background(), testConfig(dir), testLogger(t),
		fakeTool(exiftool.Result{Outcome: exiftool.OutcomeCancelled}, &calls))

	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stats.Failed != 0 || stats.Updated != 0 {
		t.Errorf("stats = %+v, an interrupted attempt must not count as a failure", stats)
	}
	if len(report.Failures) != 0 {
		t.Errorf("unexpected failure records: %v", report.Failures)
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "album", "2021")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "b.json"), "{}")
	writeFile(t, filepath.Join(dir, "a.JSON"), "{}")
	writeFile(t, filepath.Join(sub, "c.json"), "{}")
	writeFile(t, filepath.Join(dir, "photo.jpg"), "not a sidecar")

	files, err := Discover(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 {
		t.Fatalf("found %d files, want 3: %v", len(files), files)
	}
	if !sort.StringsAreSorted(files) {
		t.Errorf("results not sorted: %v", files)
	}
	for _, f := range files {
		if strings.HasSuffix(f, "photo.jpg") {
			t.Errorf("non-sidecar discovered: %s", f)
		}
	}
}

func TestReport_WriteRoundTrip(t *testing.T) {
	report := NewReport("/photos")
	report.Record("/photos/a.json", "filename format not recognized")
	report.Record("/photos/b.jpg", "no usable timestamp in sidecar")
	report.Finalize(&RunStats{Updated: 5, Skipped: 2, Failed: 2})

	path := filepath.Join(t.TempDir(), "failures.json")
	if err := report.Write(path); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got RunReport
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.RunID != report.RunID {
		t.Errorf("RunID = %s, want %s", got.RunID, report.RunID)
	}
	if got.Summary != (ReportSummary{Updated: 5, Skipped: 2, Failed: 2}) {
		t.Errorf("Summary = %+v", got.Summary)
	}
	if len(got.Failures) != 2 || got.Failures[0].Path != "/photos/a.json" {
		t.Errorf("Failures = %+v", got.Failures)
	}
	if got.FinishedAt.Before(got.StartedAt) {
		t.Error("FinishedAt precedes StartedAt")
	}
}

func TestReportPath(t *testing.T) {
	now := time.Date(2021, 6, 15, 10, 30, 45, 0, time.UTC)

	if got := ReportPath("", now); got != "failures_20210615_103045.json" {
		t.Errorf("ReportPath without log file = %q", got)
	}
	got := ReportPath("/var/log/reclock/run.log", now)
	want := filepath.Join("/var/log/reclock", "failures_20210615_103045.json")
	if got != want {
		t.Errorf("ReportPath = %q, want %q", got, want)
	}
}
