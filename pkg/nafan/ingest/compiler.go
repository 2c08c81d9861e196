// Package ingest compiles EAD documents into flat finding aid records.
package ingest

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/now"
	"github.com/sirupsen/logrus"

	"github.com/nafan/nafan/pkg/nafan/ead"
	"github.com/nafan/nafan/pkg/nafan/index"
	"github.com/nafan/nafan/pkg/nafan/internalerr"
	"github.com/nafan/nafan/pkg/nafan/metrics"
	"github.com/nafan/nafan/pkg/nafan/store"
)

// Default external authority links stamped on top-level records.
const (
	DefaultSnacURL = "https://snaccooperative.org"
	DefaultWikiURL = "https://www.wikidata.org"
)

// DefaultRevisionNotes is recorded on the audit row of a fresh ingestion.
const DefaultRevisionNotes = "Ingested from EAD"

// Repository identifies the archive that owns an ingested document.
type Repository struct {
	ID   int64
	Name string
}

// Document is one unit of work for the compiler.
type Document struct {
	Source     io.Reader
	Locator    string // provenance only, never parsed
	Repository Repository
	Operator   string
	Kind       store.Kind // defaults to store.KindEAD
}

// Outcome summarises a successful ingestion.
type Outcome struct {
	RunID       string
	ID          int64 // top-level record id
	Records     int   // finding aid records persisted, top level included
	Terms       int
	Chronology  int
	IndexID     string // empty when indexing failed
	Diagnostics ead.Diagnostics
}

// Error is returned when a document could not be ingested. Its message names
// the document's locator.
type Error struct {
	Locator string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("unable to process %s: %v", e.Locator, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Options configures a Compiler.
type Options struct {
	Store   store.Store
	Indexer index.Indexer
	Logger  logrus.FieldLogger
	Metrics *metrics.Metrics

	// MaxDepth abandons components nested deeper than this. Zero means no limit.
	MaxDepth      int
	SnacURL       string
	WikiURL       string
	RevisionNotes string

	// Clock returns the current time; defaults to time.Now.
	Clock func() time.Time
}

// Compiler turns EAD documents into persisted finding aid trees.
// It is safe for concurrent use when its store and indexer are.
type Compiler struct {
	store    store.Store
	indexer  index.Indexer
	log      logrus.FieldLogger
	metrics  *metrics.Metrics
	maxDepth int
	snac     string
	wiki     string
	notes    string
	clock    func() time.Time
}

// New creates a Compiler with the given dependencies.
func New(opts Options) *Compiler {
	c := &Compiler{
		store:    opts.Store,
		indexer:  opts.Indexer,
		log:      opts.Logger,
		metrics:  opts.Metrics,
		maxDepth: opts.MaxDepth,
		snac:     opts.SnacURL,
		wiki:     opts.WikiURL,
		notes:    opts.RevisionNotes,
		clock:    opts.Clock,
	}
	if c.indexer == nil {
		c.indexer = index.Nop{}
	}
	if c.log == nil {
		c.log = logrus.StandardLogger()
	}
	if c.snac == "" {
		c.snac = DefaultSnacURL
	}
	if c.wiki == "" {
		c.wiki = DefaultWikiURL
	}
	if c.notes == "" {
		c.notes = DefaultRevisionNotes
	}
	if c.clock == nil {
		c.clock = time.Now
	}
	return c
}

// run carries the per-document state through the component walk.
type run struct {
	template store.FindingAid // provenance shared by every record of the tree
	log      logrus.FieldLogger
	out      *Outcome
}

func (c *Compiler) diagnose(r *run, diags ead.Diagnostics) {
	for _, d := range diags {
		r.out.Diagnostics = append(r.out.Diagnostics, d)
		c.metrics.Diagnostic(d.Field)
		r.log.WithFields(logrus.Fields{"level": d.Level, "field": d.Field}).Warn(d.Err)
	}
}

// Ingest compiles one document: the top-level record, its chronology and
// controlled terms, then every component tree, and finally hands the
// top-level record to the search index.
//
// Parse failures persist nothing. Field and subtree failures are returned in
// Outcome.Diagnostics. An index failure leaves Outcome.IndexID empty and is
// not an error. Store failures abort the ingestion; records written before
// the failure remain.
func (c *Compiler) Ingest(ctx context.Context, doc Document) (Outcome, error) {
	start := c.clock()
	out, err := c.ingest(ctx, doc)
	if err != nil {
		c.metrics.Document(metrics.OutcomeFailed)
		return out, &Error{Locator: doc.Locator, Err: err}
	}
	c.metrics.Document(metrics.OutcomeOK)
	c.metrics.ObserveDuration(c.clock().Sub(start))
	return out, nil
}

func (c *Compiler) ingest(ctx context.Context, doc Document) (Outcome, error) {
	out := Outcome{RunID: uuid.NewString()}
	r := &run{
		log: c.log.WithFields(logrus.Fields{"run": out.RunID, "locator": doc.Locator}),
		out: &out,
	}

	kind := doc.Kind
	if kind == "" {
		kind = store.KindEAD
	}
	if kind != store.KindEAD {
		return out, fmt.Errorf("%s records: %w", kind, internalerr.ErrUnsupportedFormat)
	}
	if doc.Source == nil {
		return out, fmt.Errorf("no document source: %w", internalerr.ErrInvalidInput)
	}

	tree, err := ead.Parse(doc.Source)
	if err != nil {
		return out, err
	}
	arch, err := ead.Archdesc(tree)
	if err != nil {
		return out, err
	}

	r.template = store.FindingAid{
		RepositoryID:   doc.Repository.ID,
		RepositoryName: doc.Repository.Name,
		Kind:           kind,
		LastUpdate:     now.With(c.clock()).BeginningOfDay(),
		UpdatedBy:      doc.Operator,
		SourceLocator:  doc.Locator,
	}

	desc, diags := ead.ParseDescriptiveBlock(arch, store.LevelArchdesc)
	c.diagnose(r, diags)

	top := r.template
	top.Level = store.LevelArchdesc
	top.Description = desc
	top.DigitalLink = ead.DigitalLink(tree)
	top.RevisionNotes = c.notes

	id, err := c.store.CreateFindingAid(ctx, top)
	if err != nil {
		return out, fmt.Errorf("persist top-level record: %w", err)
	}
	top.ID, top.ProgenitorID, top.ParentID = id, id, id
	top.Ark = "ark://" + strconv.FormatInt(id, 10)
	top.Snac, top.Wiki = c.snac, c.wiki
	if err := c.store.UpdateFindingAid(ctx, top); err != nil {
		return out, fmt.Errorf("link top-level record %d: %w", id, err)
	}
	out.ID = id
	out.Records++
	c.metrics.Record(metrics.RecordFindingAid)
	r.template.ProgenitorID = id
	r.log = r.log.WithField("progenitor", id)

	if _, err := c.store.CreateAudit(ctx, store.Audit{
		FindingAidID:  id,
		RevisionNotes: c.notes,
		UpdateDate:    top.LastUpdate,
		UpdatedBy:     doc.Operator,
	}); err != nil {
		return out, fmt.Errorf("persist audit for %d: %w", id, err)
	}

	for i, item := range ead.Chronology(arch) {
		entry := store.ChronologyEntry{FindingAidID: id, Date: item.Date, Event: item.Event, SortOrder: i}
		if _, err := c.store.CreateChronology(ctx, entry); err != nil {
			return out, fmt.Errorf("persist chronology %d: %w", i, err)
		}
		out.Chronology++
		c.metrics.Record(metrics.RecordChronology)
	}

	if err := c.persistTerms(ctx, r, arch, store.LevelArchdesc); err != nil {
		return out, err
	}

	for _, comp := range ead.Components(tree, 1) {
		if err := c.walk(ctx, r, comp, id, 1); err != nil {
			return out, err
		}
	}

	indexID, err := c.indexer.Index(ctx, index.SummaryOf(top))
	if err != nil {
		c.metrics.IndexFailure()
		r.log.WithError(err).Warn("indexing failed; record left un-indexed")
		return out, nil
	}
	top.IndexID = indexID
	if err := c.store.UpdateFindingAid(ctx, top); err != nil {
		return out, fmt.Errorf("record index id for %d: %w", id, err)
	}
	out.IndexID = indexID

	r.log.WithFields(logrus.Fields{"records": out.Records, "terms": out.Terms}).Info("ingested")
	return out, nil
}

// persistTerms stores the controlled terms declared at node's own level,
// linked to the progenitor.
func (c *Compiler) persistTerms(ctx context.Context, r *run, node *ead.Node, level string) error {
	terms, diags := ead.ExtractControlledTerms(node)
	for i := range diags {
		diags[i].Level = level
	}
	c.diagnose(r, diags)

	for _, t := range terms {
		ca := store.ControlAccess{FindingAidID: r.template.ProgenitorID, Type: t.Type, Term: t.Term, Link: t.Link}
		if _, err := c.store.CreateControlAccess(ctx, ca); err != nil {
			return fmt.Errorf("persist %s term %q: %w", t.Type, t.Term, err)
		}
		r.out.Terms++
		c.metrics.Record(metrics.RecordTerm)
	}
	return nil
}

// walk compiles the component node at depth and then its children.
//
// A failure local to the subtree (unexpected structure, excessive depth) is
// recorded as a diagnostic and abandons this subtree only. Store failures
// and cancellation are returned and end the ingestion.
func (c *Compiler) walk(ctx context.Context, r *run, node *ead.Node, parentID int64, depth int) (err error) {
	level := ead.LevelTag(depth)
	defer func() {
		if p := recover(); p != nil {
			err = c.abandon(r, level, fmt.Errorf("%v: %w", p, internalerr.ErrUnexpectedMarkup))
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	if c.maxDepth > 0 && depth > c.maxDepth {
		return c.abandon(r, level, fmt.Errorf("depth %d exceeds %d: %w", depth, c.maxDepth, internalerr.ErrTooDeep))
	}

	desc, diags := ead.ParseDescriptiveBlock(node, level)
	c.diagnose(r, diags)
	if desc.ScopeAndContent == "" {
		desc.ScopeAndContent = ead.ScopeContentFallback(node)
	}

	aid := r.template
	aid.ParentID = parentID
	aid.Level = level
	aid.Component = level
	aid.Depth = depth
	aid.Indent = strings.Repeat(store.IndentMarker, depth-1)
	aid.Description = desc

	id, err := c.store.CreateFindingAid(ctx, aid)
	if err != nil {
		return fmt.Errorf("persist %s record: %w", level, err)
	}
	r.out.Records++
	c.metrics.Record(metrics.RecordFindingAid)

	if err := c.persistTerms(ctx, r, node, level); err != nil {
		return err
	}

	for _, child := range ead.Components(node, depth+1) {
		if err := c.walk(ctx, r, child, id, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// abandon records a subtree-local failure and lets the walk continue.
func (c *Compiler) abandon(r *run, level string, cause error) error {
	r.out.Diagnostics = append(r.out.Diagnostics, ead.Diagnostic{Level: level, Field: "component", Err: cause})
	c.metrics.Diagnostic("component")
	r.log.WithField("level", level).WithError(cause).Error("component subtree abandoned")
	return nil
}
