package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Parser names accepted by indexing.parser.
const (
	ParserExec = "exec"
	ParserHCL  = "hcl"
)

// FileNames are the config files Load looks for, in order.
var FileNames = []string{"tfindex.yml", "tfindex.yaml", "tfindex.toml"}

// ProjectConfig holds project-level settings loaded from tfindex.yml or
// tfindex.toml.
type ProjectConfig struct {
	Indexing IndexingConfig `yaml:"indexing" toml:"indexing"`

	// Include and Exclude are doublestar globs relative to the workspace
	// root. A file is indexed when it matches an include pattern and no
	// exclude pattern.
	Include []string `yaml:"include,omitempty" toml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty" toml:"exclude,omitempty"`

	// SupportedVersions overrides the accepted parser result versions,
	// oldest first.
	SupportedVersions []string `yaml:"supportedVersions,omitempty" toml:"supportedVersions,omitempty"`

	// Source is the file the config was read from, empty for defaults.
	Source string `yaml:"-" toml:"-"`
}

// IndexingConfig controls how and when files are indexed.
type IndexingConfig struct {
	Enabled     bool   `yaml:"enabled" toml:"enabled"`
	IndexerPath string `yaml:"indexerPath,omitempty" toml:"indexerPath,omitempty"`
	Parser      string `yaml:"parser,omitempty" toml:"parser,omitempty"`

	// LiveIndexing re-indexes files as they change on disk.
	LiveIndexing bool `yaml:"liveIndexing" toml:"liveIndexing"`
	// LiveIndexingDelay is the debounce delay in milliseconds.
	LiveIndexingDelay int `yaml:"liveIndexingDelay" toml:"liveIndexingDelay"`

	// Concurrency bounds parallel parses; 0 means one per CPU.
	Concurrency int `yaml:"concurrency,omitempty" toml:"concurrency,omitempty"`
}

// Default returns the settings used when no config file exists.
func Default() *ProjectConfig {
	return &ProjectConfig{
		Indexing: IndexingConfig{
			Enabled:           true,
			IndexerPath:       "terraform-index",
			Parser:            ParserHCL,
			LiveIndexing:      true,
			LiveIndexingDelay: 500,
		},
		Include: []string{"**/*.{tf,tfvars}"},
		Exclude: []string{"**/.terraform/**", "**/.git/**"},
	}
}

// Load attempts to read tfindex.yml, tfindex.yaml or tfindex.toml from the
// given directory. Settings absent from the file keep their defaults.
// Returns the default config (not an error) if no config file exists.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}

		cfg := Default()
		if filepath.Ext(name) == ".toml" {
			err = toml.Unmarshal(data, cfg)
		} else {
			err = yaml.Unmarshal(data, cfg)
		}
		if err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg.Source = path
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
		return cfg, nil
	}
	return Default(), nil
}

// Validate reports the first invalid setting.
func (c *ProjectConfig) Validate() error {
	switch c.Indexing.Parser {
	case ParserExec, ParserHCL:
	default:
		return fmt.Errorf("indexing.parser must be %q or %q, got %q", ParserExec, ParserHCL, c.Indexing.Parser)
	}
	if c.Indexing.LiveIndexingDelay < 0 {
		return fmt.Errorf("indexing.liveIndexingDelay must not be negative, got %d", c.Indexing.LiveIndexingDelay)
	}
	if c.Indexing.Concurrency < 0 {
		return fmt.Errorf("indexing.concurrency must not be negative, got %d", c.Indexing.Concurrency)
	}
	for _, p := range append(append([]string(nil), c.Include...), c.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid glob %q", p)
		}
	}
	return nil
}

// Delay returns the live indexing debounce delay.
func (c *ProjectConfig) Delay() time.Duration {
	return time.Duration(c.Indexing.LiveIndexingDelay) * time.Millisecond
}
