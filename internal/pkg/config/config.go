package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/geo-optimizer/geo/internal/pkg/robots"
)

const (
	FileName    = ".geo-optimizer.yml"
	AltFileName = ".geo-optimizer.yaml"

	maxFileSize = 1 << 20 // 1 MiB
)

var (
	ErrTooLarge      = errors.New("config file exceeds maximum size")
	ErrInvalidConfig = errors.New("invalid config")
)

// Defaults for geo audit.
type AuditConfig struct {
	URL     string        `yaml:"url"`
	Format  string        `yaml:"format"`
	Output  string        `yaml:"output"`
	Timeout time.Duration `yaml:"timeout"`
	MaxSize int64         `yaml:"max_size"`
	Verbose bool          `yaml:"verbose"`
}

// Defaults for geo llms.
type LlmsConfig struct {
	BaseURL     string   `yaml:"base_url"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	MaxURLs     int      `yaml:"max_urls"`
	FetchTitles bool     `yaml:"fetch_titles"`
	Skip        []string `yaml:"skip"`
}

// Schema types the project expects on its pages.
type SchemaConfig struct {
	Types []string `yaml:"types"`
}

// Contents of .geo-optimizer.yml. Zero values mean "use the built-in default".
type ProjectConfig struct {
	Audit     AuditConfig       `yaml:"audit"`
	Llms      LlmsConfig        `yaml:"llms"`
	Schema    SchemaConfig      `yaml:"schema"`
	ExtraBots map[string]string `yaml:"extra_bots"`

	// File the values came from; empty when defaults are used.
	Path string `yaml:"-"`
}

func Default() ProjectConfig {
	return ProjectConfig{
		Audit:     AuditConfig{Format: "text"},
		ExtraBots: map[string]string{},
	}
}

// Looks for the config file in dir, .yml first.
func Find(dir string) (string, bool) {
	for _, name := range []string{FileName, AltFileName} {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, true
		}
	}
	return "", false
}

// Loads an explicit config file, or the one found in the working directory
// when path is empty. No file found means defaults; a file that exists but
// does not decode is an error.
func Load(path string) (ProjectConfig, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Default(), nil
		}
		found, ok := Find(wd)
		if !ok {
			return Default(), nil
		}
		path = found
	}

	info, err := os.Stat(path)
	if err != nil {
		return ProjectConfig{}, fmt.Errorf("error while reading config: %w", err)
	}
	if info.Size() > maxFileSize {
		return ProjectConfig{}, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, path, info.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ProjectConfig{}, fmt.Errorf("error while reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ProjectConfig{}, fmt.Errorf("%w %s: %v", ErrInvalidConfig, path, err)
	}
	if cfg.ExtraBots == nil {
		cfg.ExtraBots = map[string]string{}
	}
	if cfg.Audit.Format == "" {
		cfg.Audit.Format = "text"
	}
	if err := cfg.Validate(); err != nil {
		return ProjectConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Rejects values no command could use.
func (c ProjectConfig) Validate() error {
	switch {
	case c.Audit.Timeout < 0:
		return fmt.Errorf("%w: audit.timeout must not be negative", ErrInvalidConfig)
	case c.Audit.MaxSize < 0:
		return fmt.Errorf("%w: audit.max_size must not be negative", ErrInvalidConfig)
	case c.Llms.MaxURLs < 0:
		return fmt.Errorf("%w: llms.max_urls must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Bot catalog extended with extra_bots.
func (c ProjectConfig) Catalog() robots.Catalog {
	return robots.DefaultCatalog.WithExtra(c.ExtraBots)
}
