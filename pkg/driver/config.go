// Package driver loads the optional per-project configuration file that
// customises the CLI collaborator and the default IOHandle: cache
// location, AoC session cookie, default "slow tests" flag, and default
// puzzle year. Absence of a config file is not an error — every field
// has a documented default.
package driver

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultCacheDir = ".lang-cache"

	configFileNamePrimary   = ".langrc.yml"
	configFileNameSecondary = "langrc.yml"
)

// Config is the resolved, validated configuration an embedding reads.
type Config struct {
	Path        string // empty if no file was found; defaults are in effect
	CacheDir    string
	AocSession  string
	RunSlow     bool
	DefaultYear int
}

// ValidationError aggregates every configuration issue found, rather than
// failing on the first one.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "config: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("config validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// Load discovers a config file by walking up from startDir (or the
// current working directory, if startDir is empty) and decodes it,
// falling back to defaults with no error when none is found.
func Load(startDir string) (*Config, error) {
	cfg := defaultConfig()

	path, err := discover(startDir)
	if err != nil {
		return nil, err
	}
	if path == "" {
		applyEnvOverrides(cfg)
		return cfg, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var raw configFile
	if err := decoder.Decode(&raw); err != nil {
		if err == io.EOF {
			cfg.Path = path
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.Path = path
	raw.applyTo(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		CacheDir:    DefaultCacheDir,
		RunSlow:     false,
		DefaultYear: 0,
	}
}

func applyEnvOverrides(cfg *Config) {
	if session := os.Getenv("AOC_SESSION"); session != "" {
		cfg.AocSession = session
	}
}

func (c *Config) validate() error {
	var errs ValidationError
	if strings.TrimSpace(c.CacheDir) == "" {
		errs.Issues = append(errs.Issues, "cache_dir must not be empty")
	}
	if c.DefaultYear != 0 && (c.DefaultYear < 2015 || c.DefaultYear > 2100) {
		errs.Issues = append(errs.Issues, fmt.Sprintf("default_year %d is out of range", c.DefaultYear))
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

// discover walks upward from dir looking for .langrc.yml or langrc.yml,
// returning "" (not an error) if neither is found before the filesystem
// root.
func discover(dir string) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("config: determine working directory: %w", err)
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("config: resolve %s: %w", dir, err)
	}
	for {
		for _, name := range []string{configFileNamePrimary, configFileNameSecondary} {
			candidate := filepath.Join(abs, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", nil
		}
		abs = parent
	}
}

type configFile struct {
	CacheDir    string `yaml:"cache_dir"`
	AocSession  string `yaml:"aoc_session"`
	RunSlow     bool   `yaml:"run_slow"`
	DefaultYear int    `yaml:"default_year"`
}

func (raw configFile) applyTo(cfg *Config) {
	if strings.TrimSpace(raw.CacheDir) != "" {
		cfg.CacheDir = raw.CacheDir
	}
	if raw.AocSession != "" {
		cfg.AocSession = raw.AocSession
	}
	cfg.RunSlow = raw.RunSlow
	if raw.DefaultYear != 0 {
		cfg.DefaultYear = raw.DefaultYear
	}
}
