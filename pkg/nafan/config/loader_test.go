package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/nafan/nafan/pkg/nafan/index"
	"github.com/nafan/nafan/pkg/nafan/index/elastic"
	"github.com/nafan/nafan/pkg/nafan/index/memindex"
	"github.com/nafan/nafan/pkg/nafan/internalerr"
	"github.com/nafan/nafan/pkg/nafan/source"
)

func TestOpenStoreSQLiteCreatesDataDir(t *testing.T) {
	cfg := Default()
	cfg.Store.Path = filepath.Join(t.TempDir(), "nested", "dir", "nafan.db")

	st, err := cfg.OpenStore(context.Background())
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer st.Close()

	if _, err := os.Stat(cfg.Store.Path); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestOpenStoreMemory(t *testing.T) {
	cfg := Default()
	cfg.Store.Driver = "memory"

	st, err := cfg.OpenStore(context.Background())
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	if _, err := st.GetFindingAid(context.Background(), 1); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("Expected ErrNotFound from empty store, got %v", err)
	}
}

func TestNewIndexer(t *testing.T) {
	cfg := Default()

	ix, err := cfg.NewIndexer()
	if err != nil {
		t.Fatalf("NewIndexer: %v", err)
	}
	if _, ok := ix.(*memindex.Index); !ok {
		t.Errorf("Expected memory index, got %T", ix)
	}

	cfg.Index.Driver = "none"
	ix, _ = cfg.NewIndexer()
	if _, ok := ix.(index.Nop); !ok {
		t.Errorf("Expected Nop, got %T", ix)
	}

	cfg.Index.Driver = "elastic"
	cfg.Index.URL = "http://localhost:9200"
	ix, _ = cfg.NewIndexer()
	if _, ok := ix.(*elastic.Client); !ok {
		t.Errorf("Expected elastic client, got %T", ix)
	}
}

func TestStopwordsMergesStoplist(t *testing.T) {
	path := writeConfig(t, "terms:\n  - papers\n")
	cfg := Default()
	cfg.Index.Stopwords = []string{"records"}
	cfg.Index.StoplistPath = path

	words, err := cfg.Stopwords()
	if err != nil {
		t.Fatalf("Stopwords: %v", err)
	}
	if len(words) != 2 || words[0] != "records" || words[1] != "papers" {
		t.Errorf("unexpected stopwords %v", words)
	}

	cfg.Index.StoplistPath = "/nonexistent/stoplist.yaml"
	if _, err := cfg.NewIndexer(); err == nil {
		t.Error("Should error on nonexistent stoplist")
	}
}

func TestNewLogger(t *testing.T) {
	cfg := Default()
	cfg.Log = Log{Level: "debug", Format: "json"}

	log, err := cfg.NewLogger()
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if log.GetLevel() != logrus.DebugLevel {
		t.Errorf("Expected debug level, got %v", log.GetLevel())
	}
	if _, ok := log.Formatter.(*logrus.JSONFormatter); !ok {
		t.Errorf("Expected JSON formatter, got %T", log.Formatter)
	}
}

func TestProfileCarriesSourceSettings(t *testing.T) {
	cfg := Default()
	cfg.Source.Bucket = "finding-aids"
	cfg.Source.PathStyle = true

	p := cfg.Profile(source.TypeS3, "ead/")
	if p.S3.Bucket != "finding-aids" || !p.S3.PathStyle || p.Location != "ead/" {
		t.Errorf("unexpected profile %+v", p)
	}
	if p.MaxRetries != cfg.Source.MaxRetries {
		t.Errorf("Expected %d retries, got %d", cfg.Source.MaxRetries, p.MaxRetries)
	}
}
