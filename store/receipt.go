// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/danielhkuo/ballotbox/apperr"
	"github.com/danielhkuo/ballotbox/models"
)

// Receipts is the vote receipt table, keyed by (voter, ballot name) with a
// secondary (voter, expiration) index for sweeps.
type Receipts struct {
	q Queryer
}

func receiptKey(voter, ballotName string) string {
	return voter + "/" + ballotName
}

// Option names are restricted to [a-z0-9._-], so a comma never appears
// inside one.
func joinOptions(names []string) string {
	return strings.Join(names, ",")
}

func splitOptions(raw string) []string {
	if raw == "" {
		return []string{}
	}
	return strings.Split(raw, ",")
}

const receiptSelect = `
	SELECT v.voter, v.ballot_name, v.option_names, v.amount, v.expiration,
	       v.symbol_code, r.symbol_precision
	FROM vote_receipt v
	JOIN registry r ON r.symbol_code = v.symbol_code
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReceipt(row rowScanner) (models.Receipt, error) {
	var (
		rec        models.Receipt
		options    string
		amount     int64
		expiration int64
		sym        models.Symbol
		precision  int
	)
	if err := row.Scan(&rec.Voter, &rec.BallotName, &options, &amount, &expiration,
		&sym.Code, &precision); err != nil {
		return models.Receipt{}, err
	}
	sym.Precision = uint8(precision)
	rec.OptionNames = splitOptions(options)
	rec.Amount = models.NewAsset(amount, sym)
	rec.Expiration = fromUnix(expiration)
	return rec, nil
}

func (s *Receipts) list(ctx context.Context, query string, args ...any) ([]models.Receipt, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query receipts: %w", err)
	}
	defer rows.Close()

	receipts := []models.Receipt{}
	for rows.Next() {
		rec, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan receipt: %w", err)
		}
		receipts = append(receipts, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read receipts: %w", err)
	}
	return receipts, nil
}

// Find returns the voter's receipt for a ballot and whether it exists.
func (s *Receipts) Find(ctx context.Context, voter, ballotName string) (models.Receipt, bool, error) {
	rec, err := scanReceipt(s.q.QueryRowContext(ctx, receiptSelect+`
		WHERE v.voter = $1 AND v.ballot_name = $2
	`, voter, ballotName))
	if err == sql.ErrNoRows {
		return models.Receipt{}, false, nil
	}
	if err != nil {
		return models.Receipt{}, false, fmt.Errorf("failed to query receipt: %w", err)
	}
	return rec, true, nil
}

func (s *Receipts) Insert(ctx context.Context, rec models.Receipt) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO vote_receipt (voter, ballot_name, symbol_code, option_names, amount, expiration)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rec.Voter, rec.BallotName, rec.Amount.Symbol.Code, joinOptions(rec.OptionNames),
		rec.Amount.Amount, toUnix(rec.Expiration))
	if err != nil {
		return fmt.Errorf("failed to insert receipt: %w", err)
	}
	return nil
}

// Update writes the option set and recorded amount.
func (s *Receipts) Update(ctx context.Context, rec models.Receipt) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE vote_receipt SET option_names = $1, amount = $2
		WHERE voter = $3 AND ballot_name = $4
	`, joinOptions(rec.OptionNames), rec.Amount.Amount, rec.Voter, rec.BallotName)
	if err != nil {
		return fmt.Errorf("failed to update receipt: %w", err)
	}
	return rowsAffected(res, apperr.NotFound(receiptKey(rec.Voter, rec.BallotName), "vote receipt not found"))
}

func (s *Receipts) Delete(ctx context.Context, voter, ballotName string) error {
	res, err := s.q.ExecContext(ctx, `
		DELETE FROM vote_receipt WHERE voter = $1 AND ballot_name = $2
	`, voter, ballotName)
	if err != nil {
		return fmt.Errorf("failed to delete receipt: %w", err)
	}
	return rowsAffected(res, apperr.NotFound(receiptKey(voter, ballotName), "vote receipt not found"))
}

// ListByVoter returns the voter's receipts ordered by expiration. An empty
// code lists every unit.
func (s *Receipts) ListByVoter(ctx context.Context, voter, code string) ([]models.Receipt, error) {
	if code == "" {
		return s.list(ctx, receiptSelect+`
			WHERE v.voter = $1
			ORDER BY v.expiration, v.ballot_name
		`, voter)
	}
	return s.list(ctx, receiptSelect+`
		WHERE v.voter = $1 AND v.symbol_code = $2
		ORDER BY v.expiration, v.ballot_name
	`, voter, code)
}

// CountByVoter counts the voter's receipts in a unit, or in every unit when
// code is empty.
func (s *Receipts) CountByVoter(ctx context.Context, voter, code string) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM vote_receipt WHERE voter = $1 AND ($2 = '' OR symbol_code = $2)
	`, voter, code).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count receipts: %w", err)
	}
	return n, nil
}

func (s *Receipts) CountByBallot(ctx context.Context, ballotName string) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM vote_receipt WHERE ballot_name = $1
	`, ballotName).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count receipts: %w", err)
	}
	return n, nil
}

// ListSweepable returns up to limit of the voter's receipts in a unit that
// no longer count: the ballot is closed, archived or gone, or the receipt
// expired at or before now. Oldest expiration first.
func (s *Receipts) ListSweepable(ctx context.Context, voter, code string, now time.Time, limit int) ([]models.Receipt, error) {
	return s.list(ctx, receiptSelect+`
		LEFT JOIN ballot b ON b.ballot_name = v.ballot_name
		WHERE v.voter = $1 AND v.symbol_code = $2
		  AND (b.ballot_name IS NULL OR b.status IN ($3, $4) OR v.expiration <= $5)
		ORDER BY v.expiration, v.ballot_name
		LIMIT $6
	`, voter, code, int(models.StatusClosed), int(models.StatusArchived), now.Unix(), limit)
}

// ListByBallot returns up to limit receipts referencing a ballot.
func (s *Receipts) ListByBallot(ctx context.Context, ballotName string, limit int) ([]models.Receipt, error) {
	return s.list(ctx, receiptSelect+`
		WHERE v.ballot_name = $1
		ORDER BY v.voter
		LIMIT $2
	`, ballotName, limit)
}
