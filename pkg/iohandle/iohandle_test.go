package iohandle

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestInputReadsLocalFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "puzzle.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	h := New(dir, "")
	got, err := h.Input(path)
	if err != nil {
		t.Fatalf("Input: %v", err)
	}
	if got != "hello" {
		t.Fatalf("expected %q, got %q", "hello", got)
	}
}

func TestInputReportsErrorForMissingLocalFile(t *testing.T) {
	h := New(t.TempDir(), "")
	if _, err := h.Input(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatalf("expected an error for a missing local file")
	}
}

func TestOutputIsNoOpWithNoArguments(t *testing.T) {
	var buf bytes.Buffer
	h := &Handle{Out: &buf}
	h.Output(nil)
	if buf.Len() != 0 {
		t.Fatalf("expected no output for a zero-argument call, got %q", buf.String())
	}
}

func TestOutputJoinsArgumentsWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	h := &Handle{Out: &buf}
	h.Output([]string{"a", "b", "c"})
	if buf.String() != "a b c\n" {
		t.Fatalf("expected %q, got %q", "a b c\n", buf.String())
	}
}

func TestFetchAoCReturnsCachedInputWithoutNetworkAccess(t *testing.T) {
	dir := t.TempDir()
	fileName := "aoc2023_day05.input"
	if err := os.WriteFile(filepath.Join(dir, fileName), []byte("cached contents"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	h := New(dir, "") // no session cookie — a cache miss would fail loudly
	got, err := h.Input("aoc://2023/5")
	if err != nil {
		t.Fatalf("expected a cache hit to succeed with no session configured, got error: %v", err)
	}
	if got != "cached contents" {
		t.Fatalf("expected %q, got %q", "cached contents", got)
	}
}

func TestFetchAoCWithoutSessionOnCacheMissReturnsError(t *testing.T) {
	h := New(t.TempDir(), "")
	if _, err := h.Input("aoc://2023/1"); err == nil {
		t.Fatalf("expected an error when the cache misses and no session cookie is configured")
	}
}

func TestParseAocPathRejectsMalformedInput(t *testing.T) {
	cases := []string{"aoc://2023", "aoc://not-a-year/5", "aoc://2023/not-a-day"}
	for _, c := range cases {
		if _, _, err := parseAocPath(c); err == nil {
			t.Fatalf("expected %q to be rejected as malformed", c)
		}
	}
}

func TestParseAocPathAcceptsWellFormedInput(t *testing.T) {
	year, day, err := parseAocPath("aoc://2023/5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if year != 2023 || day != 5 {
		t.Fatalf("expected year=2023 day=5, got year=%d day=%d", year, day)
	}
}
