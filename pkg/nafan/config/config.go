// Package config loads nafan settings from YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/nafan/nafan/pkg/nafan/ingest"
	"github.com/nafan/nafan/pkg/nafan/internalerr"
)

// AppName names the data directory below XDG_DATA_HOME.
const AppName = "nafan"

// Config is the root of the YAML configuration file.
type Config struct {
	Store  Store  `yaml:"store"`
	Index  Index  `yaml:"index"`
	Ingest Ingest `yaml:"ingest"`
	Source Source `yaml:"source"`
	Log    Log    `yaml:"log"`
}

// Store selects the persistence backend.
type Store struct {
	Driver string `yaml:"driver"` // sqlite, postgres or memory
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn"`
}

// Index selects the search index collaborator.
type Index struct {
	Driver       string        `yaml:"driver"` // memory, elastic or none
	URL          string        `yaml:"url"`
	Name         string        `yaml:"name"`
	MaxRetries   int           `yaml:"max_retries"`
	Timeout      time.Duration `yaml:"timeout"`
	Stopwords    []string      `yaml:"stopwords"`
	StoplistPath string        `yaml:"stoplist"`
}

// Ingest tunes the compiler and the harvest loop.
type Ingest struct {
	MaxDepth    int    `yaml:"max_depth"`
	Concurrency int    `yaml:"concurrency"`
	SnacURL     string `yaml:"snac_url"`
	WikiURL     string `yaml:"wiki_url"`
}

// Source holds remote harvesting settings.
type Source struct {
	Bucket     string        `yaml:"bucket"`
	Region     string        `yaml:"region"`
	Endpoint   string        `yaml:"endpoint"`
	PathStyle  bool          `yaml:"path_style"`
	MaxRetries int           `yaml:"max_retries"`
	Timeout    time.Duration `yaml:"timeout"`
}

// Log configures the logrus logger.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// DefaultDataDir is where the SQLite database lives unless configured.
func DefaultDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Store: Store{
			Driver: "sqlite",
			Path:   filepath.Join(DefaultDataDir(), "nafan.db"),
		},
		Index: Index{
			Driver:     "memory",
			Name:       "nafan",
			MaxRetries: 3,
			Timeout:    10 * time.Second,
		},
		Ingest: Ingest{
			Concurrency: 4,
			SnacURL:     ingest.DefaultSnacURL,
			WikiURL:     ingest.DefaultWikiURL,
		},
		Source: Source{
			Region:     "us-east-1",
			MaxRetries: 3,
			Timeout:    30 * time.Second,
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

// Load reads the YAML file at path over the defaults. An empty path
// returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %v: %w", path, err, internalerr.ErrInvalidConfig)
	}
	return cfg, cfg.Validate()
}

func invalid(key string, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %s: %w", key, fmt.Sprintf(format, args...), internalerr.ErrInvalidConfig)
}

// Validate checks every section and names the first offending key.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			return invalid("store.path", "required for sqlite")
		}
	case "postgres", "memory":
	default:
		return invalid("store.driver", "unknown driver %q", c.Store.Driver)
	}

	switch c.Index.Driver {
	case "elastic":
		if c.Index.URL == "" {
			return invalid("index.url", "required for elastic")
		}
	case "memory", "none":
	default:
		return invalid("index.driver", "unknown driver %q", c.Index.Driver)
	}
	if c.Index.MaxRetries < 0 {
		return invalid("index.max_retries", "must not be negative")
	}

	if c.Ingest.MaxDepth < 0 {
		return invalid("ingest.max_depth", "must not be negative")
	}
	if c.Ingest.Concurrency < 1 {
		return invalid("ingest.concurrency", "must be at least 1")
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level", "%v", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return invalid("log.format", "unknown format %q", c.Log.Format)
	}
	return nil
}

// Stoplist is a YAML list of index stopwords.
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// LoadStoplist loads stopwords from a YAML file
func LoadStoplist(path string) (*Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, err
	}

	return &sl, nil
}
