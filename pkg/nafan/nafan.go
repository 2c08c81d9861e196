package nafan

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/nafan/nafan/pkg/nafan/index"
	"github.com/nafan/nafan/pkg/nafan/ingest"
	"github.com/nafan/nafan/pkg/nafan/internalerr"
	"github.com/nafan/nafan/pkg/nafan/metrics"
	"github.com/nafan/nafan/pkg/nafan/source"
	"github.com/nafan/nafan/pkg/nafan/store"
)

// DefaultConcurrency bounds parallel ingestions during a harvest.
const DefaultConcurrency = 4

// Nafan is the finding aid service facade
type Nafan struct {
	store       store.Store
	indexer     index.Indexer
	compiler    *ingest.Compiler
	log         logrus.FieldLogger
	concurrency int
	clock       func() time.Time
}

// Options configures a Nafan instance
type Options struct {
	Store       store.Store
	Indexer     index.Indexer
	Logger      logrus.FieldLogger
	Metrics     *metrics.Metrics
	MaxDepth    int
	Concurrency int
	SnacURL     string
	WikiURL     string
	Clock       func() time.Time
}

// New creates a Nafan instance with the given dependencies
func New(opts Options) *Nafan {
	n := &Nafan{
		store:       opts.Store,
		indexer:     opts.Indexer,
		log:         opts.Logger,
		concurrency: opts.Concurrency,
		clock:       opts.Clock,
	}
	if n.indexer == nil {
		n.indexer = index.Nop{}
	}
	if n.log == nil {
		n.log = logrus.StandardLogger()
	}
	if n.concurrency < 1 {
		n.concurrency = DefaultConcurrency
	}
	if n.clock == nil {
		n.clock = time.Now
	}
	n.compiler = ingest.New(ingest.Options{
		Store:    n.store,
		Indexer:  n.indexer,
		Logger:   n.log,
		Metrics:  opts.Metrics,
		MaxDepth: opts.MaxDepth,
		SnacURL:  opts.SnacURL,
		WikiURL:  opts.WikiURL,
		Clock:    n.clock,
	})
	return n
}

// Close cleanly shuts down the Nafan instance
func (n *Nafan) Close() error {
	return n.store.Close()
}

// Ingest compiles a single document
func (n *Nafan) Ingest(ctx context.Context, doc ingest.Document) (ingest.Outcome, error) {
	return n.compiler.Ingest(ctx, doc)
}

// HarvestRequest names what to harvest and on whose behalf.
type HarvestRequest struct {
	Harvester  source.Harvester
	Kind       store.Kind
	Repository ingest.Repository
	Operator   string
}

// HarvestResult is the per-document result of a harvest, in listing order.
type HarvestResult struct {
	Locator string
	Outcome ingest.Outcome
	Err     error
}

// Harvest ingests every document the harvester lists, several at a time.
// A failed document is reported in its result and does not stop the
// others. The returned error is set only when listing fails or ctx ends.
func (n *Nafan) Harvest(ctx context.Context, req HarvestRequest) ([]HarvestResult, error) {
	locators, err := req.Harvester.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	results := make([]HarvestResult, len(locators))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n.concurrency)
	for i, loc := range locators {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = n.harvestOne(gctx, req, loc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	n.log.WithFields(logrus.Fields{"documents": len(results), "failed": failed}).Info("harvest complete")
	return results, nil
}

func (n *Nafan) harvestOne(ctx context.Context, req HarvestRequest, loc string) HarvestResult {
	res := HarvestResult{Locator: loc}
	rc, err := req.Harvester.Open(ctx, loc)
	if err != nil {
		res.Err = &ingest.Error{Locator: loc, Err: err}
		n.log.WithError(err).WithField("locator", loc).Error("unable to open document")
		return res
	}
	defer rc.Close()

	res.Outcome, res.Err = n.Ingest(ctx, ingest.Document{
		Source:     rc,
		Locator:    loc,
		Repository: req.Repository,
		Operator:   req.Operator,
		Kind:       req.Kind,
	})
	if res.Err != nil {
		n.log.WithError(res.Err).Error("ingestion failed")
	}
	return res
}

func (n *Nafan) topLevel(ctx context.Context, id int64) (store.FindingAid, error) {
	aid, err := n.store.GetFindingAid(ctx, id)
	if err != nil {
		return aid, err
	}
	if !aid.IsTopLevel() {
		return aid, fmt.Errorf("finding aid %d is a component of %d: %w", id, aid.ProgenitorID, internalerr.ErrInvalidInput)
	}
	return aid, nil
}

// Reindex writes the top-level record id to the search index again,
// updating the existing index entry when it has one.
func (n *Nafan) Reindex(ctx context.Context, id int64, operator string) (string, error) {
	aid, err := n.topLevel(ctx, id)
	if err != nil {
		return "", err
	}

	summary := index.SummaryOf(aid)
	var indexID string
	if aid.IndexID != "" {
		indexID, err = n.indexer.Update(ctx, aid.IndexID, summary)
	} else {
		indexID, err = n.indexer.Index(ctx, summary)
	}
	if err != nil {
		return "", fmt.Errorf("reindex %d: %w", id, err)
	}

	aid.IndexID = indexID
	if err := n.store.UpdateFindingAid(ctx, aid); err != nil {
		return "", fmt.Errorf("record index id for %d: %w", id, err)
	}
	if err := n.audit(ctx, id, operator, "Reindexed"); err != nil {
		return "", err
	}
	return indexID, nil
}

// Unindex removes the top-level record id from the search index. Records
// that were never indexed are left as they are.
func (n *Nafan) Unindex(ctx context.Context, id int64, operator string) error {
	aid, err := n.topLevel(ctx, id)
	if err != nil {
		return err
	}
	if aid.IndexID == "" {
		return nil
	}
	if err := n.indexer.Delete(ctx, aid.IndexID); err != nil {
		return fmt.Errorf("unindex %d: %w", id, err)
	}
	aid.IndexID = ""
	if err := n.store.UpdateFindingAid(ctx, aid); err != nil {
		return fmt.Errorf("clear index id for %d: %w", id, err)
	}
	return n.audit(ctx, id, operator, "Removed from index")
}

func (n *Nafan) audit(ctx context.Context, id int64, operator, notes string) error {
	_, err := n.store.CreateAudit(ctx, store.Audit{
		FindingAidID:  id,
		RevisionNotes: notes,
		UpdateDate:    n.clock(),
		UpdatedBy:     operator,
	})
	if err != nil {
		return fmt.Errorf("persist audit for %d: %w", id, err)
	}
	return nil
}

// Contents returns every record of the finding aid, top level first.
func (n *Nafan) Contents(ctx context.Context, id int64) ([]store.FindingAid, error) {
	return n.store.ListComponents(ctx, id)
}

// Series returns the first-level components of the finding aid.
func (n *Nafan) Series(ctx context.Context, id int64) ([]store.FindingAid, error) {
	all, err := n.store.ListComponents(ctx, id)
	if err != nil {
		return nil, err
	}
	var series []store.FindingAid
	for _, aid := range all {
		if aid.Depth == 1 {
			series = append(series, aid)
		}
	}
	return series, nil
}

// Chronology returns the finding aid's chronology in document order.
func (n *Nafan) Chronology(ctx context.Context, id int64) ([]store.ChronologyEntry, error) {
	return n.store.ListChronology(ctx, id)
}

// Names returns the personal names, sorted.
func (n *Nafan) Names(ctx context.Context, id int64) ([]store.ControlAccess, error) {
	return n.store.ListControlAccess(ctx, id, store.TermPerson)
}

// Subjects returns the subject terms, sorted.
func (n *Nafan) Subjects(ctx context.Context, id int64) ([]store.ControlAccess, error) {
	return n.store.ListControlAccess(ctx, id, store.TermSubject)
}

// Materials returns the genre and form terms, sorted.
func (n *Nafan) Materials(ctx context.Context, id int64) ([]store.ControlAccess, error) {
	return n.store.ListControlAccess(ctx, id, store.TermGenreForm)
}

// Terms returns every controlled term in the order it was recorded.
func (n *Nafan) Terms(ctx context.Context, id int64) ([]store.ControlAccess, error) {
	return n.store.ListControlAccess(ctx, id, "")
}
