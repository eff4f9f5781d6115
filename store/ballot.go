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

// Ballots is the ballot table plus its ordered options, keyed by ballot name.
type Ballots struct {
	q Queryer
}

// Get loads a ballot with its options in insertion order, or returns NotFound.
func (s *Ballots) Get(ctx context.Context, name string) (models.Ballot, error) {
	var (
		b          models.Ballot
		precision  int
		maxOptions int
		beginTime  int64
		endTime    int64
		status     int
	)
	err := s.q.QueryRowContext(ctx, `
		SELECT b.ballot_name, b.category, b.publisher, b.title, b.description, b.info_url,
		       b.unique_voters, b.max_votable_options, b.symbol_code, r.symbol_precision,
		       b.begin_time, b.end_time, b.status
		FROM ballot b
		JOIN registry r ON r.symbol_code = b.symbol_code
		WHERE b.ballot_name = $1
	`, name).Scan(
		&b.Name, &b.Category, &b.Publisher, &b.Title, &b.Description, &b.InfoURL,
		&b.UniqueVoters, &maxOptions, &b.VotingSymbol.Code, &precision,
		&beginTime, &endTime, &status,
	)
	if err == sql.ErrNoRows {
		return models.Ballot{}, apperr.NotFound(name, "ballot not found")
	}
	if err != nil {
		return models.Ballot{}, fmt.Errorf("failed to query ballot: %w", err)
	}

	b.VotingSymbol.Precision = uint8(precision)
	b.MaxVotableOptions = uint8(maxOptions)
	b.BeginTime = fromUnix(beginTime)
	b.EndTime = fromUnix(endTime)
	b.Status = models.BallotStatus(status)

	rows, err := s.q.QueryContext(ctx, `
		SELECT option_name, info, votes
		FROM ballot_option
		WHERE ballot_name = $1
		ORDER BY position
	`, name)
	if err != nil {
		return models.Ballot{}, fmt.Errorf("failed to query options: %w", err)
	}
	defer rows.Close()

	b.Options = []models.Option{}
	for rows.Next() {
		var (
			opt   models.Option
			votes int64
		)
		if err := rows.Scan(&opt.Name, &opt.Info, &votes); err != nil {
			return models.Ballot{}, fmt.Errorf("failed to scan option: %w", err)
		}
		opt.Votes = models.NewAsset(votes, b.VotingSymbol)
		b.Options = append(b.Options, opt)
	}
	if err := rows.Err(); err != nil {
		return models.Ballot{}, fmt.Errorf("failed to read options: %w", err)
	}

	return b, nil
}

func (s *Ballots) Exists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.q.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM ballot WHERE ballot_name = $1)
	`, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check ballot: %w", err)
	}
	return exists, nil
}

// Insert stores a new ballot row. Options are written by Update.
func (s *Ballots) Insert(ctx context.Context, b models.Ballot) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO ballot (ballot_name, category, publisher, title, description, info_url,
		                    unique_voters, max_votable_options, symbol_code,
		                    begin_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, b.Name, b.Category, b.Publisher, b.Title, b.Description, b.InfoURL,
		b.UniqueVoters, int(b.MaxVotableOptions), b.VotingSymbol.Code,
		toUnix(b.BeginTime), toUnix(b.EndTime), int(b.Status))
	if err != nil {
		return fmt.Errorf("failed to insert ballot: %w", err)
	}
	return s.saveOptions(ctx, b)
}

// Update writes every mutable ballot field and upserts all options with
// their current tallies.
func (s *Ballots) Update(ctx context.Context, b models.Ballot) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE ballot
		SET title = $1, description = $2, info_url = $3, unique_voters = $4,
		    begin_time = $5, end_time = $6, status = $7
		WHERE ballot_name = $8
	`, b.Title, b.Description, b.InfoURL, b.UniqueVoters,
		toUnix(b.BeginTime), toUnix(b.EndTime), int(b.Status), b.Name)
	if err != nil {
		return fmt.Errorf("failed to update ballot: %w", err)
	}
	if err := rowsAffected(res, apperr.NotFound(b.Name, "ballot not found")); err != nil {
		return err
	}
	return s.saveOptions(ctx, b)
}

func (s *Ballots) saveOptions(ctx context.Context, b models.Ballot) error {
	for i, opt := range b.Options {
		_, err := s.q.ExecContext(ctx, `
			INSERT INTO ballot_option (ballot_name, option_name, position, info, votes)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (ballot_name, option_name)
			DO UPDATE SET position = excluded.position, info = excluded.info, votes = excluded.votes
		`, b.Name, opt.Name, i, opt.Info, opt.Votes.Amount)
		if err != nil {
			return fmt.Errorf("failed to save option %s: %w", opt.Name, err)
		}
	}
	return nil
}

// Delete removes the ballot and its options.
func (s *Ballots) Delete(ctx context.Context, name string) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM ballot_option WHERE ballot_name = $1`, name); err != nil {
		return fmt.Errorf("failed to delete options: %w", err)
	}
	res, err := s.q.ExecContext(ctx, `DELETE FROM ballot WHERE ballot_name = $1`, name)
	if err != nil {
		return fmt.Errorf("failed to delete ballot: %w", err)
	}
	return rowsAffected(res, apperr.NotFound(name, "ballot not found"))
}

func (s *Ballots) CountBySymbol(ctx context.Context, code string) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM ballot WHERE symbol_code = $1
	`, code).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count ballots: %w", err)
	}
	return n, nil
}
