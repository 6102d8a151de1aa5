package runner

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const historyFileName = "history.yml"

// History is the run-history sidecar: every run's timings, newest first,
// keyed by section name, giving an embedding enough to show trend data
// across runs without re-deriving it from logs.
type History struct {
	Path string
	Runs []HistoryRun
}

// HistoryRun is one Solve or Test invocation's timings.
type HistoryRun struct {
	RunID     string           `yaml:"run_id"`
	Timestamp string           `yaml:"timestamp"`
	Mode      string           `yaml:"mode"` // "solve" or "test"
	Sections  []HistorySection `yaml:"sections"`
}

// HistorySection is one section's recorded duration for a run.
type HistorySection struct {
	Name       string `yaml:"name"`
	DurationMS int64  `yaml:"duration_ms"`
}

// LoadHistory reads the sidecar under cacheDir, returning an empty
// History (not an error) if it doesn't exist yet.
func LoadHistory(cacheDir string) (*History, error) {
	path := filepath.Join(cacheDir, historyFileName)
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("history: resolve %s: %w", path, err)
	}

	file, err := os.Open(abs)
	if os.IsNotExist(err) {
		return &History{Path: abs}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", abs, err)
	}
	defer file.Close()

	var h History
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&h); err != nil {
		return nil, fmt.Errorf("history: parse %s: %w", abs, err)
	}
	h.Path = abs
	return &h, nil
}

// Record appends a run to the history and writes it back to h.Path,
// creating the cache directory if necessary.
func (h *History) Record(run HistoryRun) error {
	h.Runs = append(h.Runs, run)

	dir := filepath.Dir(h.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("history: create cache dir %s: %w", dir, err)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(h); err != nil {
		return fmt.Errorf("history: marshal %s: %w", h.Path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("history: encoder close: %w", err)
	}
	if err := os.WriteFile(h.Path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("history: write %s: %w", h.Path, err)
	}
	return nil
}

// RunFromSolve builds a HistoryRun from a SolveResult, stamped at t.
func RunFromSolve(result *SolveResult, t time.Time) HistoryRun {
	run := HistoryRun{
		RunID:     result.RunID,
		Timestamp: t.UTC().Format(time.RFC3339),
		Mode:      "solve",
	}
	for _, part := range result.Parts {
		run.Sections = append(run.Sections, HistorySection{Name: part.Name, DurationMS: part.DurationMS})
	}
	return run
}

// RunFromTest builds a HistoryRun from a TestResult, stamped at t.
func RunFromTest(result *TestResult, t time.Time) HistoryRun {
	run := HistoryRun{
		RunID:     result.RunID,
		Timestamp: t.UTC().Format(time.RFC3339),
		Mode:      "test",
	}
	for _, test := range result.Tests {
		if test.Skipped {
			continue
		}
		run.Sections = append(run.Sections, HistorySection{
			Name:       fmt.Sprintf("test[%d]", test.Index),
			DurationMS: test.DurationMS,
		})
	}
	return run
}
