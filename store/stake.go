// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Stakes exposes staked holdings written by the staking subsystem.
type Stakes struct {
	q Queryer
}

// StakedAmount returns the principal's staked amount, zero when nothing is staked.
func (s *Stakes) StakedAmount(ctx context.Context, owner string) (int64, error) {
	var amount int64
	err := s.q.QueryRowContext(ctx, `
		SELECT amount FROM stake WHERE owner = $1
	`, owner).Scan(&amount)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query stake: %w", err)
	}
	return amount, nil
}

// Put records a staked amount. Rebalancing afterwards is the caller's job.
func (s *Stakes) Put(ctx context.Context, owner string, amount int64) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO stake (owner, amount) VALUES ($1, $2)
		ON CONFLICT (owner) DO UPDATE SET amount = excluded.amount
	`, owner, amount)
	if err != nil {
		return fmt.Errorf("failed to save stake: %w", err)
	}
	return nil
}
