package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nafan/nafan/pkg/nafan/internalerr"
	"github.com/nafan/nafan/pkg/nafan/store"
)

func openTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "nafan.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestFindingAidRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	in := store.FindingAid{
		Level: store.LevelArchdesc,
		Description: store.Description{
			Title:         "Smith Family Papers",
			Date:          "1890-1950 [bulk 1900-1920]",
			Extent:        "3 linear feet; ",
			ReferenceCode: "MS 12; ",
			Languages:     "English",
		},
		DigitalLink:    "https://example.org/dao/2",
		Snac:           "https://snaccooperative.org",
		Wiki:           "https://www.wikidata.org",
		RepositoryID:   7,
		RepositoryName: "State Archives",
		Kind:           store.KindEAD,
		LastUpdate:     time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
		UpdatedBy:      "harvester",
		RevisionNotes:  "Initial ingestion",
		SourceLocator:  "/data/smith.xml",
	}
	id, err := st.CreateFindingAid(ctx, in)
	if err != nil {
		t.Fatalf("CreateFindingAid: %v", err)
	}

	got, err := st.GetFindingAid(ctx, id)
	if err != nil {
		t.Fatalf("GetFindingAid: %v", err)
	}
	in.ID = id
	if !got.LastUpdate.Equal(in.LastUpdate) {
		t.Errorf("LastUpdate = %v, want %v", got.LastUpdate, in.LastUpdate)
	}
	got.LastUpdate, in.LastUpdate = time.Time{}, time.Time{}
	if got != in {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, in)
	}
}

func TestUpdateFindingAid_SetsProgenitor(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	id, err := st.CreateFindingAid(ctx, store.FindingAid{Level: store.LevelArchdesc, Description: store.Description{Title: "T"}})
	if err != nil {
		t.Fatalf("CreateFindingAid: %v", err)
	}
	f, _ := st.GetFindingAid(ctx, id)
	f.ProgenitorID, f.ParentID, f.Ark = id, id, "ark://1"
	if err := st.UpdateFindingAid(ctx, f); err != nil {
		t.Fatalf("UpdateFindingAid: %v", err)
	}

	got, _ := st.GetFindingAid(ctx, id)
	if !got.IsTopLevel() || got.ParentID != id || got.Ark != "ark://1" {
		t.Errorf("update not persisted: %+v", got)
	}

	err = st.UpdateFindingAid(ctx, store.FindingAid{ID: id + 100, Level: "c01"})
	if !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := st.GetFindingAid(ctx, id+100); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListComponents(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	root, _ := st.CreateFindingAid(ctx, store.FindingAid{Level: store.LevelArchdesc})
	f, _ := st.GetFindingAid(ctx, root)
	f.ProgenitorID, f.ParentID = root, root
	if err := st.UpdateFindingAid(ctx, f); err != nil {
		t.Fatalf("UpdateFindingAid: %v", err)
	}
	series, _ := st.CreateFindingAid(ctx, store.FindingAid{Level: "c01", Depth: 1, ProgenitorID: root, ParentID: root})
	_, _ = st.CreateFindingAid(ctx, store.FindingAid{Level: "c02", Depth: 2, Indent: store.IndentMarker, ProgenitorID: root, ParentID: series})

	tree, err := st.ListComponents(ctx, root)
	if err != nil {
		t.Fatalf("ListComponents: %v", err)
	}
	if len(tree) != 3 {
		t.Fatalf("expected 3 records, got %d", len(tree))
	}
	if tree[2].ParentID != series || tree[2].Indent != store.IndentMarker {
		t.Errorf("unexpected leaf: %+v", tree[2])
	}
}

func TestChronologyAndTerms(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	id, _ := st.CreateFindingAid(ctx, store.FindingAid{Level: store.LevelArchdesc})

	for i, ev := range []string{"Born", "Moved", "Died"} {
		if _, err := st.CreateChronology(ctx, store.ChronologyEntry{FindingAidID: id, Event: ev, SortOrder: 2 - i}); err != nil {
			t.Fatalf("CreateChronology: %v", err)
		}
	}
	chron, err := st.ListChronology(ctx, id)
	if err != nil {
		t.Fatalf("ListChronology: %v", err)
	}
	if len(chron) != 3 || chron[0].Event != "Died" {
		t.Errorf("chronology not ordered by sort order: %+v", chron)
	}

	for _, term := range []string{"Zeta", "Alpha"} {
		if _, err := st.CreateControlAccess(ctx, store.ControlAccess{FindingAidID: id, Type: store.TermSubject, Term: term}); err != nil {
			t.Fatalf("CreateControlAccess: %v", err)
		}
	}
	subjects, _ := st.ListControlAccess(ctx, id, store.TermSubject)
	if len(subjects) != 2 || subjects[0].Term != "Alpha" {
		t.Errorf("subjects not sorted: %+v", subjects)
	}
	people, _ := st.ListControlAccess(ctx, id, store.TermPerson)
	if len(people) != 0 {
		t.Errorf("expected no person terms, got %+v", people)
	}
	if _, err := st.CreateControlAccess(ctx, store.ControlAccess{FindingAidID: id, Type: "bogus"}); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAudits(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	id, _ := st.CreateFindingAid(ctx, store.FindingAid{Level: store.LevelArchdesc})

	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	if _, err := st.CreateAudit(ctx, store.Audit{FindingAidID: id, RevisionNotes: "Initial ingestion", UpdateDate: day, UpdatedBy: "ops"}); err != nil {
		t.Fatalf("CreateAudit: %v", err)
	}
	audits, err := st.ListAudits(ctx, id)
	if err != nil {
		t.Fatalf("ListAudits: %v", err)
	}
	if len(audits) != 1 || audits[0].UpdatedBy != "ops" || !audits[0].UpdateDate.Equal(day) {
		t.Errorf("unexpected audits: %+v", audits)
	}
}

func TestDatesKeepCalendarDay(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	tokyo := time.FixedZone("JST", 9*60*60)
	midnight := time.Date(2024, 5, 2, 0, 0, 0, 0, tokyo)
	id, err := st.CreateFindingAid(ctx, store.FindingAid{Level: store.LevelArchdesc, LastUpdate: midnight})
	if err != nil {
		t.Fatalf("CreateFindingAid: %v", err)
	}
	if _, err := st.CreateAudit(ctx, store.Audit{FindingAidID: id, UpdateDate: midnight.Add(30 * time.Minute), UpdatedBy: "ops"}); err != nil {
		t.Fatalf("CreateAudit: %v", err)
	}

	want := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	got, err := st.GetFindingAid(ctx, id)
	if err != nil {
		t.Fatalf("GetFindingAid: %v", err)
	}
	if !got.LastUpdate.Equal(want) {
		t.Errorf("LastUpdate = %v, want %v", got.LastUpdate, want)
	}
	audits, err := st.ListAudits(ctx, id)
	if err != nil {
		t.Fatalf("ListAudits: %v", err)
	}
	if len(audits) != 1 || !audits[0].UpdateDate.Equal(want) {
		t.Errorf("unexpected audits: %+v", audits)
	}
}

func TestConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	const n = 20
	var wg sync.WaitGroup
	ids := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := st.CreateFindingAid(ctx, store.FindingAid{Level: "c01"})
			if err != nil {
				t.Error(err)
				return
			}
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[int64]bool{}
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
	}
	if len(seen) != n {
		t.Errorf("expected %d ids, got %d", n, len(seen))
	}
}
