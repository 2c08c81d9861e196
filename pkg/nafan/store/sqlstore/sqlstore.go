// Package sqlstore implements store.Store on database/sql. The sqlite and
// postgres packages open a connection, apply the schema and hand it here.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nafan/nafan/pkg/nafan/internalerr"
	"github.com/nafan/nafan/pkg/nafan/store"
)

// Dialect captures the differences between the supported SQL engines.
type Dialect struct {
	Name string
	// NumberedParams rewrites ? placeholders to $1, $2, ...
	NumberedParams bool
	// IDColumn is the DDL of an auto-assigned primary key column.
	IDColumn string
}

var (
	SQLite   = Dialect{Name: "sqlite", IDColumn: "id INTEGER PRIMARY KEY AUTOINCREMENT"}
	Postgres = Dialect{Name: "postgres", NumberedParams: true, IDColumn: "id BIGSERIAL PRIMARY KEY"}
)

// Rebind rewrites ? placeholders for the dialect.
func (d Dialect) Rebind(query string) string {
	if !d.NumberedParams {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Schema returns the DDL statements for the dialect.
func (d Dialect) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS finding_aids (
	` + d.IDColumn + `,
	progenitor_id BIGINT NOT NULL DEFAULT 0,
	parent_id BIGINT NOT NULL DEFAULT 0,
	level TEXT NOT NULL,
	component TEXT NOT NULL DEFAULT '',
	depth INTEGER NOT NULL DEFAULT 0,
	indent TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL,
	date TEXT NOT NULL DEFAULT '',
	extent TEXT NOT NULL DEFAULT '',
	creator TEXT NOT NULL DEFAULT '',
	scope_and_content TEXT NOT NULL DEFAULT '',
	governing_access TEXT NOT NULL DEFAULT '',
	rights TEXT NOT NULL DEFAULT '',
	citation TEXT NOT NULL DEFAULT '',
	bioghist TEXT NOT NULL DEFAULT '',
	custodhist TEXT NOT NULL DEFAULT '',
	acqinfo TEXT NOT NULL DEFAULT '',
	processinfo TEXT NOT NULL DEFAULT '',
	originals_location TEXT NOT NULL DEFAULT '',
	note TEXT NOT NULL DEFAULT '',
	abstract TEXT NOT NULL DEFAULT '',
	languages TEXT NOT NULL DEFAULT '',
	reference_code TEXT NOT NULL DEFAULT '',
	container TEXT NOT NULL DEFAULT '',
	intra_repository TEXT NOT NULL DEFAULT '',
	digital_link TEXT NOT NULL DEFAULT '',
	ark TEXT NOT NULL DEFAULT '',
	snac TEXT NOT NULL DEFAULT '',
	wiki TEXT NOT NULL DEFAULT '',
	repository_id BIGINT NOT NULL DEFAULT 0,
	repository_name TEXT NOT NULL DEFAULT '',
	kind TEXT NOT NULL DEFAULT '',
	last_update TEXT NOT NULL DEFAULT '',
	updated_by TEXT NOT NULL DEFAULT '',
	revision_notes TEXT NOT NULL DEFAULT '',
	source_locator TEXT NOT NULL DEFAULT '',
	index_id TEXT NOT NULL DEFAULT ''
)`,
		`CREATE INDEX IF NOT EXISTS finding_aids_progenitor ON finding_aids (progenitor_id)`,
		`CREATE TABLE IF NOT EXISTS chronology (
	` + d.IDColumn + `,
	finding_aid_id BIGINT NOT NULL REFERENCES finding_aids(id) ON DELETE CASCADE,
	date TEXT NOT NULL DEFAULT '',
	event TEXT NOT NULL DEFAULT '',
	sort_order INTEGER NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS control_access (
	` + d.IDColumn + `,
	finding_aid_id BIGINT NOT NULL REFERENCES finding_aids(id) ON DELETE CASCADE,
	type TEXT NOT NULL,
	term TEXT NOT NULL DEFAULT '',
	link TEXT NOT NULL DEFAULT ''
)`,
		`CREATE INDEX IF NOT EXISTS control_access_aid ON control_access (finding_aid_id, type)`,
		`CREATE TABLE IF NOT EXISTS audits (
	` + d.IDColumn + `,
	finding_aid_id BIGINT NOT NULL REFERENCES finding_aids(id) ON DELETE CASCADE,
	revision_notes TEXT NOT NULL DEFAULT '',
	update_date TEXT NOT NULL DEFAULT '',
	updated_by TEXT NOT NULL DEFAULT ''
)`,
	}
}

// InitSchema applies the dialect's DDL. It is safe to run repeatedly.
func InitSchema(ctx context.Context, db *sql.DB, d Dialect) error {
	for _, stmt := range d.Schema() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply %s schema: %w", d.Name, err)
		}
	}
	return nil
}

// Store implements store.Store over a *sql.DB.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// New wraps an open database whose schema has been initialised.
func New(db *sql.DB, d Dialect) *Store {
	return &Store{db: db, dialect: d}
}

// DB exposes the underlying handle for tests and migrations.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

const aidColumns = `progenitor_id, parent_id, level, component, depth, indent,
	title, date, extent, creator, scope_and_content, governing_access, rights,
	citation, bioghist, custodhist, acqinfo, processinfo, originals_location,
	note, abstract, languages, reference_code, container, intra_repository,
	digital_link, ark, snac, wiki, repository_id, repository_name, kind,
	last_update, updated_by, revision_notes, source_locator, index_id`

func aidArgs(f store.FindingAid) []interface{} {
	d := f.Description
	return []interface{}{
		f.ProgenitorID, f.ParentID, f.Level, f.Component, f.Depth, f.Indent,
		d.Title, d.Date, d.Extent, d.Creator, d.ScopeAndContent, d.GoverningAccess, d.Rights,
		d.Citation, d.Bioghist, d.Custodhist, d.Acqinfo, d.Processinfo, d.OriginalsLocation,
		d.Note, d.Abstract, d.Languages, d.ReferenceCode, d.Container, d.IntraRepository,
		f.DigitalLink, f.Ark, f.Snac, f.Wiki, f.RepositoryID, f.RepositoryName, string(f.Kind),
		formatDate(f.LastUpdate), f.UpdatedBy, f.RevisionNotes, f.SourceLocator, f.IndexID,
	}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// CreateFindingAid inserts f and returns its assigned id.
func (s *Store) CreateFindingAid(ctx context.Context, f store.FindingAid) (int64, error) {
	args := aidArgs(f)
	query := fmt.Sprintf(`INSERT INTO finding_aids (%s) VALUES (%s) RETURNING id`, aidColumns, placeholders(len(args)))

	var id int64
	if err := s.db.QueryRowContext(ctx, s.dialect.Rebind(query), args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert finding aid: %w", err)
	}
	return id, nil
}

// UpdateFindingAid rewrites every column of a stored finding aid.
func (s *Store) UpdateFindingAid(ctx context.Context, f store.FindingAid) error {
	cols := strings.Split(aidColumns, ",")
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = strings.TrimSpace(c) + " = ?"
	}
	args := append(aidArgs(f), f.ID)
	query := fmt.Sprintf(`UPDATE finding_aids SET %s WHERE id = ?`, strings.Join(sets, ", "))

	res, err := s.db.ExecContext(ctx, s.dialect.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("update finding aid %d: %w", f.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("finding aid %d: %w", f.ID, internalerr.ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanFindingAid(row scanner) (store.FindingAid, error) {
	var (
		f          store.FindingAid
		kind       string
		lastUpdate string
	)
	d := &f.Description
	err := row.Scan(
		&f.ID,
		&f.ProgenitorID, &f.ParentID, &f.Level, &f.Component, &f.Depth, &f.Indent,
		&d.Title, &d.Date, &d.Extent, &d.Creator, &d.ScopeAndContent, &d.GoverningAccess, &d.Rights,
		&d.Citation, &d.Bioghist, &d.Custodhist, &d.Acqinfo, &d.Processinfo, &d.OriginalsLocation,
		&d.Note, &d.Abstract, &d.Languages, &d.ReferenceCode, &d.Container, &d.IntraRepository,
		&f.DigitalLink, &f.Ark, &f.Snac, &f.Wiki, &f.RepositoryID, &f.RepositoryName, &kind,
		&lastUpdate, &f.UpdatedBy, &f.RevisionNotes, &f.SourceLocator, &f.IndexID,
	)
	if err != nil {
		return store.FindingAid{}, err
	}
	f.Kind = store.Kind(kind)
	f.LastUpdate = parseDate(lastUpdate)
	return f, nil
}

// GetFindingAid loads a finding aid by id.
func (s *Store) GetFindingAid(ctx context.Context, id int64) (store.FindingAid, error) {
	query := `SELECT id, ` + aidColumns + ` FROM finding_aids WHERE id = ?`
	f, err := scanFindingAid(s.db.QueryRowContext(ctx, s.dialect.Rebind(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return store.FindingAid{}, fmt.Errorf("finding aid %d: %w", id, internalerr.ErrNotFound)
	}
	if err != nil {
		return store.FindingAid{}, fmt.Errorf("select finding aid %d: %w", id, err)
	}
	return f, nil
}

// ListComponents returns every record of a tree, top level included, in id order.
func (s *Store) ListComponents(ctx context.Context, progenitorID int64) ([]store.FindingAid, error) {
	query := `SELECT id, ` + aidColumns + ` FROM finding_aids WHERE progenitor_id = ? ORDER BY id`
	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(query), progenitorID)
	if err != nil {
		return nil, fmt.Errorf("list components: %w", err)
	}
	defer rows.Close()

	var out []store.FindingAid
	for rows.Next() {
		f, err := scanFindingAid(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// CreateChronology inserts a chronology entry.
func (s *Store) CreateChronology(ctx context.Context, c store.ChronologyEntry) (int64, error) {
	const query = `INSERT INTO chronology (finding_aid_id, date, event, sort_order) VALUES (?, ?, ?, ?) RETURNING id`
	var id int64
	err := s.db.QueryRowContext(ctx, s.dialect.Rebind(query), c.FindingAidID, c.Date, c.Event, c.SortOrder).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert chronology: %w", err)
	}
	return id, nil
}

// ListChronology returns a finding aid's chronology by sort order.
func (s *Store) ListChronology(ctx context.Context, findingAidID int64) ([]store.ChronologyEntry, error) {
	const query = `SELECT id, finding_aid_id, date, event, sort_order FROM chronology WHERE finding_aid_id = ? ORDER BY sort_order`
	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(query), findingAidID)
	if err != nil {
		return nil, fmt.Errorf("list chronology: %w", err)
	}
	defer rows.Close()

	var out []store.ChronologyEntry
	for rows.Next() {
		var c store.ChronologyEntry
		if err := rows.Scan(&c.ID, &c.FindingAidID, &c.Date, &c.Event, &c.SortOrder); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateControlAccess inserts a controlled access term.
func (s *Store) CreateControlAccess(ctx context.Context, c store.ControlAccess) (int64, error) {
	if !c.Type.Valid() {
		return 0, fmt.Errorf("term type %q: %w", c.Type, internalerr.ErrInvalidInput)
	}
	const query = `INSERT INTO control_access (finding_aid_id, type, term, link) VALUES (?, ?, ?, ?) RETURNING id`
	var id int64
	err := s.db.QueryRowContext(ctx, s.dialect.Rebind(query), c.FindingAidID, string(c.Type), c.Term, c.Link).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert control access: %w", err)
	}
	return id, nil
}

// ListControlAccess returns the terms of one type ordered by term, or every
// term in creation order when typ is empty.
func (s *Store) ListControlAccess(ctx context.Context, findingAidID int64, typ store.TermType) ([]store.ControlAccess, error) {
	query := `SELECT id, finding_aid_id, type, term, link FROM control_access WHERE finding_aid_id = ? ORDER BY id`
	args := []interface{}{findingAidID}
	if typ != "" {
		query = `SELECT id, finding_aid_id, type, term, link FROM control_access WHERE finding_aid_id = ? AND type = ? ORDER BY term, id`
		args = append(args, string(typ))
	}
	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list control access: %w", err)
	}
	defer rows.Close()

	var out []store.ControlAccess
	for rows.Next() {
		var (
			c store.ControlAccess
			t string
		)
		if err := rows.Scan(&c.ID, &c.FindingAidID, &t, &c.Term, &c.Link); err != nil {
			return nil, err
		}
		c.Type = store.TermType(t)
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateAudit inserts an audit row.
func (s *Store) CreateAudit(ctx context.Context, a store.Audit) (int64, error) {
	const query = `INSERT INTO audits (finding_aid_id, revision_notes, update_date, updated_by) VALUES (?, ?, ?, ?) RETURNING id`
	var id int64
	err := s.db.QueryRowContext(ctx, s.dialect.Rebind(query), a.FindingAidID, a.RevisionNotes, formatDate(a.UpdateDate), a.UpdatedBy).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert audit: %w", err)
	}
	return id, nil
}

// ListAudits returns the audit rows of a finding aid, oldest first.
func (s *Store) ListAudits(ctx context.Context, findingAidID int64) ([]store.Audit, error) {
	const query = `SELECT id, finding_aid_id, revision_notes, update_date, updated_by FROM audits WHERE finding_aid_id = ? ORDER BY id`
	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(query), findingAidID)
	if err != nil {
		return nil, fmt.Errorf("list audits: %w", err)
	}
	defer rows.Close()

	var out []store.Audit
	for rows.Next() {
		var (
			a  store.Audit
			ts string
		)
		if err := rows.Scan(&a.ID, &a.FindingAidID, &a.RevisionNotes, &ts, &a.UpdatedBy); err != nil {
			return nil, err
		}
		a.UpdateDate = parseDate(ts)
		out = append(out, a)
	}
	return out, rows.Err()
}

const dateLayout = "2006-01-02"

// formatDate keeps the calendar date t has in its own location.
func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// parseDate returns midnight UTC of the stored date. Values written as full
// RFC 3339 timestamps are still read.
func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
