package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/nafan/nafan/pkg/nafan/index"
	"github.com/nafan/nafan/pkg/nafan/index/elastic"
	"github.com/nafan/nafan/pkg/nafan/index/memindex"
	"github.com/nafan/nafan/pkg/nafan/internalerr"
	"github.com/nafan/nafan/pkg/nafan/source"
	"github.com/nafan/nafan/pkg/nafan/store"
	"github.com/nafan/nafan/pkg/nafan/store/memstore"
	"github.com/nafan/nafan/pkg/nafan/store/postgres"
	"github.com/nafan/nafan/pkg/nafan/store/sqlite"
)

// OpenStore opens the configured persistence backend.
func (c Config) OpenStore(ctx context.Context) (store.Store, error) {
	switch c.Store.Driver {
	case "memory":
		return memstore.New(), nil
	case "postgres":
		return postgres.Open(ctx, c.Store.DSN)
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(c.Store.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		return sqlite.OpenSQLite(ctx, c.Store.Path)
	default:
		return nil, invalid("store.driver", "unknown driver %q", c.Store.Driver)
	}
}

// Stopwords returns the inline stopwords plus those of the stoplist file.
func (c Config) Stopwords() ([]string, error) {
	words := append([]string(nil), c.Index.Stopwords...)
	if c.Index.StoplistPath == "" {
		return words, nil
	}
	sl, err := LoadStoplist(c.Index.StoplistPath)
	if err != nil {
		return nil, fmt.Errorf("load stoplist: %w", err)
	}
	return append(words, sl.Terms...), nil
}

// NewIndexer builds the configured search index collaborator.
func (c Config) NewIndexer() (index.Indexer, error) {
	switch c.Index.Driver {
	case "none":
		return index.Nop{}, nil
	case "memory":
		words, err := c.Stopwords()
		if err != nil {
			return nil, err
		}
		return memindex.New(words), nil
	case "elastic":
		return elastic.New(elastic.Config{
			URL:        c.Index.URL,
			Name:       c.Index.Name,
			MaxRetries: c.Index.MaxRetries,
			Timeout:    c.Index.Timeout,
		})
	default:
		return nil, invalid("index.driver", "unknown driver %q", c.Index.Driver)
	}
}

// NewLogger builds a logrus logger with the configured level and format.
func (c Config) NewLogger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("log.level: %v: %w", err, internalerr.ErrInvalidConfig)
	}
	log := logrus.New()
	log.SetLevel(level)
	if c.Log.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log, nil
}

// Profile builds a harvest profile for the given type and location using
// the source section's remote settings.
func (c Config) Profile(typ, location string) source.Profile {
	return source.Profile{
		Type:       typ,
		Location:   location,
		MaxRetries: c.Source.MaxRetries,
		Timeout:    c.Source.Timeout,
		S3: source.S3Config{
			Bucket:    c.Source.Bucket,
			Region:    c.Source.Region,
			Endpoint:  c.Source.Endpoint,
			PathStyle: c.Source.PathStyle,
		},
	}
}
