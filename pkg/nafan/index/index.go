// Package index defines the search index collaborator fed by the compiler.
package index

import (
	"context"
	"strconv"

	"github.com/nafan/nafan/pkg/nafan/internalerr"
	"github.com/nafan/nafan/pkg/nafan/store"
)

// Summary is the document shape handed to the search index.
type Summary struct {
	ID          int64  `json:"id"`
	Kind        string `json:"type"`
	Title       string `json:"title"`
	Repository  string `json:"repository"`
	Content     string `json:"content"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

// Key returns the summary's record id as a string.
func (s Summary) Key() string {
	return strconv.FormatInt(s.ID, 10)
}

// SummaryOf builds the index summary of a top-level finding aid.
func SummaryOf(f store.FindingAid) Summary {
	return Summary{
		ID:         f.ID,
		Kind:       string(f.Kind),
		Title:      f.Title,
		Repository: f.RepositoryName,
		Content:    f.ScopeAndContent,
		Source:     f.SourceLocator,
	}
}

// Indexer writes summaries to a search index. Index returns the identifier
// assigned by the index; Update may return a new one.
// Implementations must be safe for concurrent use.
type Indexer interface {
	Index(ctx context.Context, s Summary) (string, error)
	Update(ctx context.Context, id string, s Summary) (string, error)
	Delete(ctx context.Context, id string) error
}

// Nop is the indexer used when indexing is disabled. Every call fails with
// ErrIndex so records stay un-indexed.
type Nop struct{}

func (Nop) Index(context.Context, Summary) (string, error) {
	return "", internalerr.ErrIndex
}

func (Nop) Update(context.Context, string, Summary) (string, error) {
	return "", internalerr.ErrIndex
}

func (Nop) Delete(context.Context, string) error {
	return internalerr.ErrIndex
}
