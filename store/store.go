// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Queryer is satisfied by both *sql.DB and *sql.Tx.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Tx bundles one handle per table over a single Queryer. Every operation
// receives the handles it writes through explicitly.
type Tx struct {
	Registries *Registries
	Accounts   *Accounts
	Ballots    *Ballots
	Receipts   *Receipts
	Stakes     *Stakes
}

// New binds the table handles to q. Pass a *sql.DB for read-only lookups
// and a *sql.Tx for anything that writes.
func New(q Queryer) *Tx {
	return &Tx{
		Registries: &Registries{q: q},
		Accounts:   &Accounts{q: q},
		Ballots:    &Ballots{q: q},
		Receipts:   &Receipts{q: q},
		Stakes:     &Stakes{q: q},
	}
}

// Run executes fn inside one database transaction. The transaction commits
// only if fn returns nil; any error rolls back every write fn made.
func Run(ctx context.Context, db *sql.DB, fn func(tx *Tx) error) error {
	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(New(sqlTx)); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func fromUnix(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

// rowsAffected turns "no row matched" into the caller's not-found error.
func rowsAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
