// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/danielhkuo/ballotbox/apperr"
	"github.com/danielhkuo/ballotbox/models"
)

// Accounts is the account table, keyed by (owner, symbol code).
type Accounts struct {
	q Queryer
}

func accountKey(owner, code string) string {
	return owner + "/" + code
}

// Find returns the account and whether it exists.
func (s *Accounts) Find(ctx context.Context, owner, code string) (models.Account, bool, error) {
	var (
		acct      models.Account
		precision int
		balance   int64
	)
	err := s.q.QueryRowContext(ctx, `
		SELECT a.owner, a.balance, a.num_votes, r.symbol_precision
		FROM account a
		JOIN registry r ON r.symbol_code = a.symbol_code
		WHERE a.owner = $1 AND a.symbol_code = $2
	`, owner, code).Scan(&acct.Owner, &balance, &acct.NumVotes, &precision)
	if err == sql.ErrNoRows {
		return models.Account{}, false, nil
	}
	if err != nil {
		return models.Account{}, false, fmt.Errorf("failed to query account: %w", err)
	}

	acct.Balance = models.NewAsset(balance, models.Symbol{Code: code, Precision: uint8(precision)})
	return acct, true, nil
}

// Get returns the account, or a NotFound error.
func (s *Accounts) Get(ctx context.Context, owner, code string) (models.Account, error) {
	acct, ok, err := s.Find(ctx, owner, code)
	if err != nil {
		return models.Account{}, err
	}
	if !ok {
		return models.Account{}, apperr.NotFound(accountKey(owner, code), "account not found")
	}
	return acct, nil
}

// Insert creates a zero-balance account.
func (s *Accounts) Insert(ctx context.Context, owner, code string) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO account (owner, symbol_code, balance, num_votes)
		VALUES ($1, $2, 0, 0)
	`, owner, code)
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

func (s *Accounts) SetBalance(ctx context.Context, owner, code string, balance int64) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE account SET balance = $1
		WHERE owner = $2 AND symbol_code = $3
	`, balance, owner, code)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	return rowsAffected(res, apperr.NotFound(accountKey(owner, code), "account not found"))
}

// AddVotes adjusts the outstanding-vote counter by delta. The counter may
// never go negative.
func (s *Accounts) AddVotes(ctx context.Context, owner, code string, delta int) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE account SET num_votes = num_votes + $1
		WHERE owner = $2 AND symbol_code = $3 AND num_votes + $1 >= 0
	`, delta, owner, code)
	if err != nil {
		return fmt.Errorf("failed to update vote count: %w", err)
	}
	return rowsAffected(res, apperr.Invariant(accountKey(owner, code),
		"outstanding vote count cannot change by %d", delta))
}

func (s *Accounts) Delete(ctx context.Context, owner, code string) error {
	res, err := s.q.ExecContext(ctx, `
		DELETE FROM account WHERE owner = $1 AND symbol_code = $2
	`, owner, code)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return rowsAffected(res, apperr.NotFound(accountKey(owner, code), "account not found"))
}

// SumBalances totals every balance of a unit. It must always equal the
// registry supply.
func (s *Accounts) SumBalances(ctx context.Context, code string) (int64, error) {
	var total int64
	err := s.q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(balance), 0) FROM account WHERE symbol_code = $1
	`, code).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum balances: %w", err)
	}
	return total, nil
}

func (s *Accounts) CountBySymbol(ctx context.Context, code string) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM account WHERE symbol_code = $1
	`, code).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return n, nil
}
