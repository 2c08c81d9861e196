package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/nafan/nafan/pkg/nafan/internalerr"
	"github.com/nafan/nafan/pkg/nafan/store"
)

// Store is an in-memory implementation of store.Store for tests and dry runs.
type Store struct {
	mu         sync.RWMutex
	nextID     int64
	aids       map[int64]store.FindingAid
	chronology map[int64]store.ChronologyEntry
	terms      map[int64]store.ControlAccess
	audits     map[int64]store.Audit
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		nextID:     1,
		aids:       make(map[int64]store.FindingAid),
		chronology: make(map[int64]store.ChronologyEntry),
		terms:      make(map[int64]store.ControlAccess),
		audits:     make(map[int64]store.Audit),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// allocate hands out ids from a single sequence shared by all entity kinds.
// Callers must hold s.mu.
func (s *Store) allocate() int64 {
	id := s.nextID
	s.nextID++
	return id
}

// CreateFindingAid stores f under a fresh id.
func (s *Store) CreateFindingAid(ctx context.Context, f store.FindingAid) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f.ID = s.allocate()
	s.aids[f.ID] = f
	return f.ID, nil
}

// UpdateFindingAid replaces a stored finding aid.
func (s *Store) UpdateFindingAid(ctx context.Context, f store.FindingAid) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.aids[f.ID]; !ok {
		return fmt.Errorf("finding aid %d: %w", f.ID, internalerr.ErrNotFound)
	}
	s.aids[f.ID] = f
	return nil
}

// GetFindingAid returns a finding aid by ID.
func (s *Store) GetFindingAid(ctx context.Context, id int64) (store.FindingAid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if f, ok := s.aids[id]; ok {
		return f, nil
	}
	return store.FindingAid{}, fmt.Errorf("finding aid %d: %w", id, internalerr.ErrNotFound)
}

// ListComponents returns every record of a tree, top level included, in id order.
func (s *Store) ListComponents(ctx context.Context, progenitorID int64) ([]store.FindingAid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.FindingAid
	for _, f := range s.aids {
		if f.ProgenitorID == progenitorID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CreateChronology stores a chronology entry.
func (s *Store) CreateChronology(ctx context.Context, c store.ChronologyEntry) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.aids[c.FindingAidID]; !ok {
		return 0, fmt.Errorf("chronology for finding aid %d: %w", c.FindingAidID, internalerr.ErrNotFound)
	}
	c.ID = s.allocate()
	s.chronology[c.ID] = c
	return c.ID, nil
}

// ListChronology returns the chronology of a finding aid by sort order.
func (s *Store) ListChronology(ctx context.Context, findingAidID int64) ([]store.ChronologyEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.ChronologyEntry
	for _, c := range s.chronology {
		if c.FindingAidID == findingAidID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

// CreateControlAccess stores a controlled access term.
func (s *Store) CreateControlAccess(ctx context.Context, c store.ControlAccess) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !c.Type.Valid() {
		return 0, fmt.Errorf("term type %q: %w", c.Type, internalerr.ErrInvalidInput)
	}
	if _, ok := s.aids[c.FindingAidID]; !ok {
		return 0, fmt.Errorf("term for finding aid %d: %w", c.FindingAidID, internalerr.ErrNotFound)
	}
	c.ID = s.allocate()
	s.terms[c.ID] = c
	return c.ID, nil
}

// ListControlAccess returns the terms of one type ordered by term, or every
// term in creation order when typ is empty.
func (s *Store) ListControlAccess(ctx context.Context, findingAidID int64, typ store.TermType) ([]store.ControlAccess, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.ControlAccess
	for _, c := range s.terms {
		if c.FindingAidID != findingAidID {
			continue
		}
		if typ != "" && c.Type != typ {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if typ != "" && out[i].Term != out[j].Term {
			return out[i].Term < out[j].Term
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// CreateAudit stores an audit row.
func (s *Store) CreateAudit(ctx context.Context, a store.Audit) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.aids[a.FindingAidID]; !ok {
		return 0, fmt.Errorf("audit for finding aid %d: %w", a.FindingAidID, internalerr.ErrNotFound)
	}
	a.ID = s.allocate()
	s.audits[a.ID] = a
	return a.ID, nil
}

// ListAudits returns the audit rows of a finding aid, oldest first.
func (s *Store) ListAudits(ctx context.Context, findingAidID int64) ([]store.Audit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.Audit
	for _, a := range s.audits {
		if a.FindingAidID == findingAidID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Len returns the number of stored finding aids.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.aids)
}
