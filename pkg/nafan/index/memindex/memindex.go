// Package memindex is an in-process search index for finding aid summaries.
package memindex

import (
	"context"
	"crypto/rand"
	"fmt"
	"sort"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/nafan/nafan/pkg/nafan/index"
	"github.com/nafan/nafan/pkg/nafan/internalerr"
)

type entry struct {
	summary index.Summary
	tokens  map[string]struct{}
}

// Index keeps summaries in memory and answers conjunctive token queries.
type Index struct {
	mu        sync.RWMutex
	entropy   *ulid.MonotonicEntropy
	tokenizer *Tokenizer
	docs      map[string]entry
}

// New creates an empty index. Stopwords are dropped from both documents
// and queries.
func New(stopwords []string) *Index {
	return &Index{
		entropy:   ulid.Monotonic(rand.Reader, 0),
		tokenizer: NewTokenizer(stopwords),
		docs:      make(map[string]entry),
	}
}

func (ix *Index) entry(s index.Summary) entry {
	tokens := make(map[string]struct{})
	for _, field := range []string{s.Title, s.Content, s.Repository} {
		for _, tok := range ix.tokenizer.Tokenize(field) {
			tokens[tok] = struct{}{}
		}
	}
	return entry{summary: s, tokens: tokens}
}

// Index stores s under a fresh ULID.
func (ix *Index) Index(ctx context.Context, s index.Summary) (string, error) {
	e := ix.entry(s)

	ix.mu.Lock()
	defer ix.mu.Unlock()
	id := ulid.MustNew(ulid.Now(), ix.entropy).String()
	ix.docs[id] = e
	return id, nil
}

// Update replaces the summary stored under id. The id is kept.
func (ix *Index) Update(ctx context.Context, id string, s index.Summary) (string, error) {
	e := ix.entry(s)

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if _, ok := ix.docs[id]; !ok {
		return "", fmt.Errorf("index document %s: %w", id, internalerr.ErrNotFound)
	}
	ix.docs[id] = e
	return id, nil
}

// Delete removes the summary stored under id.
func (ix *Index) Delete(ctx context.Context, id string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if _, ok := ix.docs[id]; !ok {
		return fmt.Errorf("index document %s: %w", id, internalerr.ErrNotFound)
	}
	delete(ix.docs, id)
	return nil
}

// Get returns the summary stored under id.
func (ix *Index) Get(id string) (index.Summary, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	e, ok := ix.docs[id]
	return e.summary, ok
}

// Len returns the number of indexed summaries.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// Hit is one search result.
type Hit struct {
	ID      string
	Summary index.Summary
}

// Search returns the summaries containing every token of query, ordered by
// index id (insertion order). An empty query matches nothing.
func (ix *Index) Search(query string) []Hit {
	terms := ix.tokenizer.Tokenize(query)
	if len(terms) == 0 {
		return nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var hits []Hit
	for id, e := range ix.docs {
		if containsAll(e.tokens, terms) {
			hits = append(hits, Hit{ID: id, Summary: e.summary})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].ID < hits[j].ID })
	return hits
}

func containsAll(tokens map[string]struct{}, terms []string) bool {
	for _, t := range terms {
		if _, ok := tokens[t]; !ok {
			return false
		}
	}
	return true
}

var _ index.Indexer = (*Index)(nil)
