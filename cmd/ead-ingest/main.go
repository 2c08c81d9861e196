package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nafan/nafan/pkg/nafan"
	"github.com/nafan/nafan/pkg/nafan/config"
	"github.com/nafan/nafan/pkg/nafan/ingest"
	"github.com/nafan/nafan/pkg/nafan/metrics"
	"github.com/nafan/nafan/pkg/nafan/source"
	"github.com/nafan/nafan/pkg/nafan/store"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Config file (optional)")
		repoName    = flag.String("repo", "", "Repository name (required)")
		repoID      = flag.Int64("repo-id", 0, "Repository id")
		operator    = flag.String("operator", "", "Operator recorded on every record (required)")
		profile     = flag.String("profile", source.TypeFile, "Harvest profile: file, dir, sitemap or s3")
		format      = flag.String("format", string(store.KindEAD), "Document format: ead, marc or pdf")
		since       = flag.String("since", "", "Only harvest sitemap entries modified since this date")
		metricsFile = flag.String("metrics", "", "Write metrics in text format to this file")
	)
	flag.Parse()

	if *repoName == "" {
		log.Fatal("--repo required")
	}
	if *operator == "" {
		log.Fatal("--operator required")
	}
	if flag.NArg() == 0 {
		log.Fatal("at least one LOCATION required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	reg := prometheus.NewRegistry()
	engine, cleanup, err := buildEngine(ctx, cfg, reg)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	var sinceTime time.Time
	if *since != "" {
		if sinceTime, err = dateparse.ParseAny(*since); err != nil {
			log.Fatalf("--since %q: %v", *since, err)
		}
	}

	harvester, err := buildHarvester(ctx, cfg, *profile, sinceTime, flag.Args())
	if err != nil {
		log.Fatal(err)
	}

	results, err := engine.Harvest(ctx, nafan.HarvestRequest{
		Harvester:  harvester,
		Kind:       store.Kind(strings.ToLower(*format)),
		Repository: ingest.Repository{ID: *repoID, Name: *repoName},
		Operator:   *operator,
	})
	if err != nil {
		log.Fatal("Harvest failed: ", err)
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			continue
		}
		log.Printf("%s: record %d, %d components, %d diagnostics",
			r.Locator, r.Outcome.ID, r.Outcome.Records-1, len(r.Outcome.Diagnostics))
	}

	if *metricsFile != "" {
		if err := prometheus.WriteToTextfile(*metricsFile, reg); err != nil {
			log.Printf("Failed to write metrics: %v", err)
		}
	}

	log.Printf("Harvest complete: %d documents, %d failed", len(results), failed)
	if failed > 0 {
		cleanup()
		os.Exit(1)
	}
}

func buildEngine(ctx context.Context, cfg config.Config, reg prometheus.Registerer) (*nafan.Nafan, func(), error) {
	logger, err := cfg.NewLogger()
	if err != nil {
		return nil, nil, err
	}

	m, err := metrics.New(reg)
	if err != nil {
		return nil, nil, fmt.Errorf("register metrics: %w", err)
	}

	indexer, err := cfg.NewIndexer()
	if err != nil {
		return nil, nil, fmt.Errorf("build indexer: %w", err)
	}

	st, err := cfg.OpenStore(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	engine := nafan.New(nafan.Options{
		Store:       st,
		Indexer:     indexer,
		Logger:      logger,
		Metrics:     m,
		MaxDepth:    cfg.Ingest.MaxDepth,
		Concurrency: cfg.Ingest.Concurrency,
		SnacURL:     cfg.Ingest.SnacURL,
		WikiURL:     cfg.Ingest.WikiURL,
	})

	cleanup := func() {
		engine.Close()
	}

	return engine, cleanup, nil
}

// buildHarvester turns the command line locations into one harvester. The
// file profile accepts any number of paths; the others take exactly one.
func buildHarvester(ctx context.Context, cfg config.Config, profile string, since time.Time, locations []string) (source.Harvester, error) {
	if profile == source.TypeFile {
		return source.File{Paths: locations}, nil
	}
	if len(locations) != 1 {
		return nil, fmt.Errorf("profile %s takes exactly one location, got %d", profile, len(locations))
	}
	p := cfg.Profile(profile, locations[0])
	p.Since = since
	return source.FromProfile(ctx, p)
}
