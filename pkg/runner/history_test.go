package runner

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadHistoryWithNoExistingFileIsEmptyNotAnError(t *testing.T) {
	dir := t.TempDir()
	h, err := LoadHistory(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h.Runs) != 0 {
		t.Fatalf("expected no runs yet, got %d", len(h.Runs))
	}
}

func TestRecordThenReloadRoundTripsRuns(t *testing.T) {
	dir := t.TempDir()
	h, err := LoadHistory(dir)
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}

	run := HistoryRun{
		RunID:     "run-1",
		Timestamp: time.Date(2026, 8, 6, 12, 0, 0, 0, time.UTC).Format(time.RFC3339),
		Mode:      "solve",
		Sections:  []HistorySection{{Name: "part_one", DurationMS: 5}},
	}
	if err := h.Record(run); err != nil {
		t.Fatalf("Record: %v", err)
	}

	reloaded, err := LoadHistory(dir)
	if err != nil {
		t.Fatalf("LoadHistory after Record: %v", err)
	}
	if len(reloaded.Runs) != 1 {
		t.Fatalf("expected 1 run after reload, got %d", len(reloaded.Runs))
	}
	if reloaded.Runs[0].RunID != "run-1" {
		t.Fatalf("expected run-1, got %q", reloaded.Runs[0].RunID)
	}
	if len(reloaded.Runs[0].Sections) != 1 || reloaded.Runs[0].Sections[0].Name != "part_one" {
		t.Fatalf("expected part_one section to round-trip, got %+v", reloaded.Runs[0].Sections)
	}
}

func TestRecordAppendsAcrossMultipleCalls(t *testing.T) {
	dir := t.TempDir()
	h, err := LoadHistory(dir)
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if err := h.Record(HistoryRun{RunID: "a", Mode: "solve"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := h.Record(HistoryRun{RunID: "b", Mode: "test"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if len(h.Runs) != 2 {
		t.Fatalf("expected 2 accumulated runs, got %d", len(h.Runs))
	}

	reloaded, err := LoadHistory(dir)
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if len(reloaded.Runs) != 2 {
		t.Fatalf("expected 2 runs persisted to disk, got %d", len(reloaded.Runs))
	}
}

func TestRunFromSolveSkipsNothingAndStampsMode(t *testing.T) {
	result := &SolveResult{
		RunID: "r1",
		Parts: []Part{{Name: "part_one", Value: "1", DurationMS: 10}, {Name: "part_two", Value: "2", DurationMS: 20}},
	}
	run := RunFromSolve(result, time.Date(2026, 8, 6, 0, 0, 0, 0, time.UTC))
	if run.Mode != "solve" {
		t.Fatalf("expected mode solve, got %q", run.Mode)
	}
	if len(run.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(run.Sections))
	}
}

func TestRunFromTestSkipsSkippedTests(t *testing.T) {
	result := &TestResult{
		RunID: "r2",
		Tests: []TestCase{
			{Index: 0, Passed: true, DurationMS: 5},
			{Index: 1, Skipped: true},
		},
	}
	run := RunFromTest(result, time.Now())
	if run.Mode != "test" {
		t.Fatalf("expected mode test, got %q", run.Mode)
	}
	if len(run.Sections) != 1 {
		t.Fatalf("expected the skipped test to be excluded, got %d sections", len(run.Sections))
	}
	if run.Sections[0].Name != "test[0]" {
		t.Fatalf("expected section name test[0], got %q", run.Sections[0].Name)
	}
}

func TestHistoryPathIsUnderCacheDir(t *testing.T) {
	dir := t.TempDir()
	h, err := LoadHistory(dir)
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if filepath.Base(h.Path) != historyFileName {
		t.Fatalf("expected history file name %q, got %q", historyFileName, h.Path)
	}
}
