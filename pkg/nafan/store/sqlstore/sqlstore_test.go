package sqlstore

import (
	"strings"
	"testing"

	"github.com/nafan/nafan/pkg/nafan/store"
)

func TestRebind(t *testing.T) {
	q := "INSERT INTO t (a, b) VALUES (?, ?) RETURNING id"
	if got := SQLite.Rebind(q); got != q {
		t.Errorf("SQLite rebind changed query: %q", got)
	}
	want := "INSERT INTO t (a, b) VALUES ($1, $2) RETURNING id"
	if got := Postgres.Rebind(q); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestSchemaUsesDialectIDColumn(t *testing.T) {
	for _, d := range []Dialect{SQLite, Postgres} {
		tables := 0
		for _, s := range d.Schema() {
			if strings.HasPrefix(s, "CREATE TABLE") {
				tables++
				if !strings.Contains(s, d.IDColumn) {
					t.Errorf("%s: table without id column: %s", d.Name, s)
				}
			}
		}
		if tables != 4 {
			t.Errorf("%s: expected 4 tables, got %d", d.Name, tables)
		}
	}
}

func TestAidColumnsMatchArgs(t *testing.T) {
	cols := strings.Split(aidColumns, ",")
	args := aidArgs(store.FindingAid{Level: store.LevelArchdesc})
	if len(args) != len(cols) {
		t.Errorf("Expected %d args, got %d", len(cols), len(args))
	}
}
