package store

import (
	"context"
	"time"
)

// Store is the persistence collaborator for compiled finding aids.
// Create methods assign and return a unique id; implementations must make
// id assignment safe for concurrent ingestions.
type Store interface {
	Close() error

	// Finding aids (top level and components)
	CreateFindingAid(ctx context.Context, f FindingAid) (int64, error)
	UpdateFindingAid(ctx context.Context, f FindingAid) error
	GetFindingAid(ctx context.Context, id int64) (FindingAid, error)
	ListComponents(ctx context.Context, progenitorID int64) ([]FindingAid, error)

	// Chronology
	CreateChronology(ctx context.Context, c ChronologyEntry) (int64, error)
	ListChronology(ctx context.Context, findingAidID int64) ([]ChronologyEntry, error)

	// Controlled access terms
	CreateControlAccess(ctx context.Context, c ControlAccess) (int64, error)
	ListControlAccess(ctx context.Context, findingAidID int64, typ TermType) ([]ControlAccess, error)

	// Audit trail
	CreateAudit(ctx context.Context, a Audit) (int64, error)
	ListAudits(ctx context.Context, findingAidID int64) ([]Audit, error)
}

// Kind is the source format of a finding aid.
type Kind string

const (
	KindEAD  Kind = "ead"
	KindMARC Kind = "marc"
	KindPDF  Kind = "pdf"
)

// Level of the top-level record of an EAD document.
const LevelArchdesc = "archdesc"

// DefaultTitle is assigned when no usable title is found.
const DefaultTitle = "No title"

// IndentMarker is repeated once per nesting level below c01.
const IndentMarker = "&nbsp;&nbsp;"

// Description holds the descriptive fields extracted from one did block.
type Description struct {
	Title             string
	Date              string
	Extent            string
	Creator           string
	ScopeAndContent   string
	GoverningAccess   string
	Rights            string
	Citation          string
	Bioghist          string
	Custodhist        string
	Acqinfo           string
	Processinfo       string
	OriginalsLocation string
	Note              string
	Abstract          string
	Languages         string
	ReferenceCode     string
	Container         string
	IntraRepository   string
}

// FindingAid is one flattened unit of description: either the whole
// document (Level "archdesc") or a single component (Level "c01", "c02", ...).
type FindingAid struct {
	ID           int64
	ProgenitorID int64
	ParentID     int64
	Level        string
	Component    string
	Depth        int
	Indent       string

	Description

	DigitalLink string
	Ark         string
	Snac        string
	Wiki        string

	RepositoryID   int64
	RepositoryName string
	Kind           Kind
	LastUpdate     time.Time
	UpdatedBy      string
	RevisionNotes  string
	SourceLocator  string

	// IndexID is empty until the search index accepted the record.
	IndexID string
}

// IsTopLevel reports whether f is the progenitor of its tree.
func (f FindingAid) IsTopLevel() bool {
	return f.ID != 0 && f.ID == f.ProgenitorID
}

// ChronologyEntry is one dated event of a finding aid's chronology.
type ChronologyEntry struct {
	ID           int64
	FindingAidID int64
	Date         string
	Event        string
	SortOrder    int
}

// TermType is the closed vocabulary of controlled access term kinds.
type TermType string

const (
	TermPerson        TermType = "person"
	TermFamily        TermType = "family"
	TermCorporateBody TermType = "corporate-body"
	TermFunction      TermType = "function"
	TermGenreForm     TermType = "genre-form"
	TermPlace         TermType = "place"
	TermOccupation    TermType = "occupation"
	TermSubject       TermType = "subject"
	TermTitle         TermType = "title"
)

// TermTypes lists every TermType.
var TermTypes = []TermType{
	TermPerson, TermFamily, TermCorporateBody, TermFunction, TermGenreForm,
	TermPlace, TermOccupation, TermSubject, TermTitle,
}

// Valid reports whether t belongs to the vocabulary.
func (t TermType) Valid() bool {
	for _, v := range TermTypes {
		if v == t {
			return true
		}
	}
	return false
}

// ControlAccess links an authority-controlled term to a finding aid.
type ControlAccess struct {
	ID           int64
	FindingAidID int64
	Type         TermType
	Term         string
	Link         string
}

// Audit records who (re)compiled a finding aid and when.
type Audit struct {
	ID            int64
	FindingAidID  int64
	RevisionNotes string
	UpdateDate    time.Time
	UpdatedBy     string
}
