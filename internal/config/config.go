// Package config loads and validates repoman configuration.
//
// Configuration lives at ~/.config/repoman/config.yaml. Every field has a
// working default so a missing file is not an error. A small set of
// environment variables override the file:
//
//	REPOMAN_CONFIG_DIR    base directory for config, state, and logs
//	REPOMAN_DATA_DIR      directory holding the database and text index
//	REPOMAN_TEXT_BACKEND  text index backend: sqlite (default) or bleve
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the complete repoman configuration.
type Config struct {
	Version int           `yaml:"version"`
	DataDir string        `yaml:"data_dir"`
	Index   IndexConfig   `yaml:"index"`
	Search  SearchConfig  `yaml:"search"`
	Logging LoggingConfig `yaml:"logging"`
}

// IndexConfig configures the indexing pipeline.
type IndexConfig struct {
	// Root is the default directory indexing starts from.
	Root string `yaml:"root"`

	// Suffixes is the allow-list of file suffixes indexed when no explicit
	// suffix is requested.
	Suffixes []string `yaml:"suffixes"`

	// SkipDirs are directory names pruned entirely during traversal.
	SkipDirs []string `yaml:"skip_dirs"`

	// Workers overrides the worker pool size (0 = auto: 2*NumCPU-1 for
	// large batches, serial otherwise).
	Workers int `yaml:"workers"`

	// ParallelThreshold is the candidate count above which the worker pool
	// is used instead of serial processing.
	ParallelThreshold int `yaml:"parallel_threshold"`
}

// SearchConfig configures querying.
type SearchConfig struct {
	// TextBackend selects the full-text index backend.
	// Options: "sqlite" (FTS5, default) or "bleve".
	TextBackend string `yaml:"text_backend"`

	// SortOrder is the default result ordering (rank, lastmod, name, path,
	// suffix; leading '-' reverses).
	SortOrder string `yaml:"sort_order"`

	// SnippetTokens is the maximum snippet length in tokens.
	SnippetTokens int `yaml:"snippet_tokens"`

	// PageSize fixes the browse page size (0 = derive from terminal).
	PageSize int `yaml:"page_size"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultSkipDirs are directory names never descended into.
var DefaultSkipDirs = []string{
	".git",
	".venv",
	"venv",
	"_vm",
	".vm",
	"__pycache__",
	"node_modules",
}

// DefaultSuffixes is the indexing allow-list: every suffix with an
// extraction strategy.
var DefaultSuffixes = []string{"txt", "py", "md", "org", "pdf"}

// New returns a Config populated with defaults.
func New() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Version: 1,
		DataDir: Dir(),
		Index: IndexConfig{
			Root:              home,
			Suffixes:          append([]string(nil), DefaultSuffixes...),
			SkipDirs:          append([]string(nil), DefaultSkipDirs...),
			ParallelThreshold: 100,
		},
		Search: SearchConfig{
			TextBackend:   "sqlite",
			SortOrder:     "lastmod",
			SnippetTokens: 8,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Dir returns the repoman config directory, honoring REPOMAN_CONFIG_DIR.
func Dir() string {
	if dir := os.Getenv("REPOMAN_CONFIG_DIR"); dir != "" {
		return dir
	}
	base, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "repoman")
}

// Path returns the config file path inside the config directory.
func Path() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load reads configuration from the config directory, applying defaults for
// anything unset and environment overrides on top. A missing file yields the
// defaults.
func Load() (*Config, error) {
	cfg := New()

	data, err := os.ReadFile(Path())
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid config %s: %w", Path(), err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the config directory.
func (c *Config) Save() error {
	if err := os.MkdirAll(Dir(), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(Path(), data, 0o644)
}

// DatabasePath returns the SQLite database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "repoman.db")
}

// TextIndexBasePath returns the base path (no extension) for the text index.
// The backend appends its own extension.
func (c *Config) TextIndexBasePath() string {
	return filepath.Join(c.DataDir, "textindex")
}

func (c *Config) applyEnv() {
	if v := os.Getenv("REPOMAN_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("REPOMAN_TEXT_BACKEND"); v != "" {
		c.Search.TextBackend = v
	}
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = Dir()
	}
	if len(c.Index.Suffixes) == 0 {
		c.Index.Suffixes = append([]string(nil), DefaultSuffixes...)
	}
	if len(c.Index.SkipDirs) == 0 {
		c.Index.SkipDirs = append([]string(nil), DefaultSkipDirs...)
	}
	if c.Index.ParallelThreshold <= 0 {
		c.Index.ParallelThreshold = 100
	}
	if c.Search.TextBackend == "" {
		c.Search.TextBackend = "sqlite"
	}
	if c.Search.SortOrder == "" {
		c.Search.SortOrder = "lastmod"
	}
	if c.Search.SnippetTokens <= 0 {
		c.Search.SnippetTokens = 8
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	switch c.Search.TextBackend {
	case "sqlite", "bleve":
	default:
		return fmt.Errorf("invalid text_backend %q (valid options: sqlite, bleve)", c.Search.TextBackend)
	}
	if c.Index.Workers < 0 {
		return fmt.Errorf("index.workers must be >= 0, got %d", c.Index.Workers)
	}
	return nil
}
