// Package postgres opens a Postgres-backed finding aid store through the pgx
// database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"github.com/nafan/nafan/pkg/nafan/internalerr"
	"github.com/nafan/nafan/pkg/nafan/store"
	"github.com/nafan/nafan/pkg/nafan/store/sqlstore"
)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/nafan?sslmode=disable"
)

var sqlOpen = sql.Open

// Open connects to dsn (falling back to a local default), verifies the
// connection and applies the schema.
func Open(ctx context.Context, dsn string) (store.Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	db, err := sqlOpen(defaultDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %v: %w", err, internalerr.ErrStoreUnavailable)
	}
	if err := sqlstore.InitSchema(ctx, db, sqlstore.Postgres); err != nil {
		db.Close()
		return nil, err
	}
	return sqlstore.New(db, sqlstore.Postgres), nil
}
