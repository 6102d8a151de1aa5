// Package iohandle provides the default runtime.IOHandle: local
// filesystem paths, http(s):// URLs, and an aoc://YEAR/DAY puzzle-input
// resolver that caches fetched input under a git working tree so every
// fetch leaves a diffable, committed record of exactly what bytes were
// used.
package iohandle

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

var logger = log.New(os.Stderr, "lang: ", log.LstdFlags)

// Handle is the default IOHandle implementation. CacheDir and Session are
// only consulted for aoc:// paths; a zero-value Handle still resolves
// local paths and http(s):// URLs.
type Handle struct {
	CacheDir string
	Session  string
	Out      io.Writer

	client *http.Client
}

// New builds a Handle writing puts output to stdout.
func New(cacheDir, session string) *Handle {
	return &Handle{CacheDir: cacheDir, Session: session, Out: os.Stdout}
}

// Input resolves path per §6: local filesystem path, http(s):// URL, or
// aoc://YEAR/DAY.
func (h *Handle) Input(path string) (string, error) {
	switch {
	case strings.HasPrefix(path, "aoc://"):
		return h.fetchAoC(path)
	case strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://"):
		return h.fetchHTTP(path)
	default:
		return h.readLocal(path)
	}
}

// Output emits a line. A zero-argument call is a documented no-op.
func (h *Handle) Output(args []string) {
	if len(args) == 0 {
		return
	}
	out := h.Out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintln(out, strings.Join(args, " "))
}

func (h *Handle) readLocal(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

func (h *Handle) httpClient() *http.Client {
	if h.client == nil {
		h.client = &http.Client{Timeout: 30 * time.Second}
	}
	return h.client
}

func (h *Handle) fetchHTTP(url string) (string, error) {
	resp, err := h.httpClient().Get(url)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("fetch %s: status %s", url, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body for %s: %w", url, err)
	}
	return string(data), nil
}

// fetchAoC resolves aoc://YEAR/DAY against the local git-backed cache,
// fetching from adventofcode.com and committing on a miss.
func (h *Handle) fetchAoC(path string) (string, error) {
	year, day, err := parseAocPath(path)
	if err != nil {
		return "", err
	}

	cacheDir := h.CacheDir
	if cacheDir == "" {
		cacheDir = ".lang-cache"
	}
	fileName := fmt.Sprintf("aoc%d_day%02d.input", year, day)
	fullPath := filepath.Join(cacheDir, fileName)

	if data, err := os.ReadFile(fullPath); err == nil {
		logger.Printf("aoc cache hit: %s", fileName)
		return string(data), nil
	}

	if h.Session == "" {
		return "", fmt.Errorf("aoc://%d/%d: no session cookie configured", year, day)
	}

	logger.Printf("aoc cache miss: %s, fetching", fileName)
	url := fmt.Sprintf("https://adventofcode.com/%d/day/%d/input", year, day)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request for %s: %w", url, err)
	}
	req.Header.Set("Cookie", "session="+h.Session)
	req.Header.Set("User-Agent", "lang-iohandle")

	resp, err := h.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("fetch %s: status %s", url, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body for %s: %w", url, err)
	}
	content := strings.TrimRight(string(data), "\n")

	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir %s: %w", cacheDir, err)
	}
	if err := os.WriteFile(fullPath, []byte(content+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("write cache file %s: %w", fullPath, err)
	}
	if err := commitCacheFile(cacheDir, fileName); err != nil {
		logger.Printf("aoc cache commit failed for %s: %v", fileName, err)
	}

	return content, nil
}

func parseAocPath(path string) (year, day int, err error) {
	rest := strings.TrimPrefix(path, "aoc://")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed aoc path %q, expected aoc://YEAR/DAY", path)
	}
	year, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed aoc year in %q: %w", path, err)
	}
	day, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed aoc day in %q: %w", path, err)
	}
	return year, day, nil
}

// commitCacheFile ensures cacheDir is a git working tree (initialising it
// on first use) and commits fileName, so the cache's history is a
// diffable ledger of every fetch.
func commitCacheFile(cacheDir, fileName string) error {
	repo, err := git.PlainOpen(cacheDir)
	if err != nil {
		repo, err = git.PlainInit(cacheDir, false)
		if err != nil {
			return fmt.Errorf("init cache repo: %w", err)
		}
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open cache worktree: %w", err)
	}
	if _, err := worktree.Add(fileName); err != nil {
		return fmt.Errorf("stage %s: %w", fileName, err)
	}
	_, err = worktree.Commit("cache "+fileName, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "lang iohandle",
			Email: "iohandle@lang.local",
			When:  time.Now(),
		},
	})
	if err != nil && err != git.ErrEmptyCommit {
		return fmt.Errorf("commit %s: %w", fileName, err)
	}
	return nil
}
