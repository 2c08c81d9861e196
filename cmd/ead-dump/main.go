package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/segmentio/encoding/json"
	"github.com/sirupsen/logrus"

	"github.com/nafan/nafan/pkg/nafan"
	"github.com/nafan/nafan/pkg/nafan/index/memindex"
	"github.com/nafan/nafan/pkg/nafan/ingest"
	"github.com/nafan/nafan/pkg/nafan/source"
	"github.com/nafan/nafan/pkg/nafan/store/memstore"
)

// line is one JSON line of output.
type line struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func main() {
	var (
		maxDepth = flag.Int("max-depth", 0, "Abandon components nested deeper than this (0: no limit)")
		verbose  = flag.Bool("v", false, "Log field diagnostics")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("usage: ead-dump [-max-depth N] [-v] FILE")
	}
	path := flag.Arg(0)

	rc, err := source.OpenFile(path)
	if err != nil {
		log.Fatal(err)
	}
	defer rc.Close()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if !*verbose {
		logger.SetLevel(logrus.ErrorLevel)
	}

	if err := dump(context.Background(), rc, path, os.Stdout, logger, *maxDepth); err != nil {
		log.Fatal(err)
	}
}

// dump compiles one document into memory and writes every record, then the
// chronology, then the controlled terms, as JSON lines.
func dump(ctx context.Context, r io.Reader, locator string, w io.Writer, logger logrus.FieldLogger, maxDepth int) error {
	engine := nafan.New(nafan.Options{
		Store:    memstore.New(),
		Indexer:  memindex.New(nil),
		Logger:   logger,
		MaxDepth: maxDepth,
	})
	defer engine.Close()

	out, err := engine.Ingest(ctx, ingest.Document{Source: r, Locator: locator, Operator: "ead-dump"})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	records, err := engine.Contents(ctx, out.ID)
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}
	for _, rec := range records {
		if err := enc.Encode(line{Type: "finding_aid", Data: rec}); err != nil {
			return err
		}
	}

	chron, err := engine.Chronology(ctx, out.ID)
	if err != nil {
		return fmt.Errorf("list chronology: %w", err)
	}
	for _, c := range chron {
		if err := enc.Encode(line{Type: "chronology", Data: c}); err != nil {
			return err
		}
	}

	terms, err := engine.Terms(ctx, out.ID)
	if err != nil {
		return fmt.Errorf("list terms: %w", err)
	}
	for _, t := range terms {
		if err := enc.Encode(line{Type: "control_access", Data: t}); err != nil {
			return err
		}
	}
	return nil
}
