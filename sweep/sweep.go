// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package sweep removes vote receipts that no longer count toward any tally.
// Every sweep is bounded by an explicit count so one transaction never does
// unbounded work.
package sweep

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/ballotbox/apperr"
	"github.com/danielhkuo/ballotbox/auth"
	"github.com/danielhkuo/ballotbox/clock"
	"github.com/danielhkuo/ballotbox/models"
	"github.com/danielhkuo/ballotbox/store"
)

type Sweeper struct {
	clock clock.Clock
}

func New(c clock.Clock) *Sweeper {
	return &Sweeper{clock: c}
}

// removeReceipt deletes a receipt and decrements its owner's outstanding
// vote count. Tallies are left as they are.
func removeReceipt(ctx context.Context, tx *store.Tx, rec models.Receipt) error {
	if err := tx.Receipts.Delete(ctx, rec.Voter, rec.BallotName); err != nil {
		return err
	}
	return tx.Accounts.AddVotes(ctx, rec.Voter, rec.Amount.Symbol.Code, -1)
}

// Cleanup removes up to maxCount of voter's receipts in the unit whose ballot
// is closed or archived, or whose expiration has passed. It returns how many
// were removed.
func (s *Sweeper) Cleanup(ctx context.Context, tx *store.Tx, voter string, maxCount int, sym models.Symbol) (int, error) {
	if err := auth.Require(ctx, voter); err != nil {
		return 0, err
	}
	if maxCount <= 0 {
		return 0, apperr.InvalidArgument(voter, "max count must be positive")
	}

	receipts, err := tx.Receipts.ListSweepable(ctx, voter, sym.Code, s.clock.Now(), maxCount)
	if err != nil {
		return 0, err
	}
	for _, rec := range receipts {
		if err := removeReceipt(ctx, tx, rec); err != nil {
			return 0, err
		}
	}

	if len(receipts) > 0 {
		slog.Info("vote receipts cleaned", "voter", voter, "symbol", sym.String(), "removed", len(receipts))
	}
	return len(receipts), nil
}

// CleanupAll repeats Cleanup in batches of models.CleanupBatchSize, each in
// its own transaction, until a batch removes nothing. Batches committed
// before a failure stay committed.
func (s *Sweeper) CleanupAll(ctx context.Context, db *sql.DB, voter string, sym models.Symbol) (int, error) {
	total := 0
	for {
		var removed int
		err := store.Run(ctx, db, func(tx *store.Tx) error {
			var err error
			removed, err = s.Cleanup(ctx, tx, voter, models.CleanupBatchSize, sym)
			return err
		})
		if err != nil {
			return total, err
		}
		total += removed
		if removed == 0 {
			break
		}
	}

	slog.Info("vote receipts swept", "voter", voter, "symbol", sym.String(), "removed", humanize.Comma(int64(total)))
	return total, nil
}

// PurgeBallot removes up to maxCount receipts, from any voter, on a closed or
// archived ballot. The publisher uses it to empty a ballot before deleting it.
func (s *Sweeper) PurgeBallot(ctx context.Context, tx *store.Tx, name, publisher string, maxCount int) (int, error) {
	if err := auth.Require(ctx, publisher); err != nil {
		return 0, err
	}
	if maxCount <= 0 {
		return 0, apperr.InvalidArgument(name, "max count must be positive")
	}

	b, err := tx.Ballots.Get(ctx, name)
	if err != nil {
		return 0, err
	}
	if b.Publisher != publisher {
		return 0, apperr.Unauthorized(name, "only publisher %s may purge this ballot", b.Publisher)
	}
	if !b.Status.Finished() {
		return 0, apperr.InvalidState(name, "ballot is %s; only closed or archived ballots can be purged", b.Status)
	}

	receipts, err := tx.Receipts.ListByBallot(ctx, name, maxCount)
	if err != nil {
		return 0, err
	}
	for _, rec := range receipts {
		if err := removeReceipt(ctx, tx, rec); err != nil {
			return 0, err
		}
	}

	slog.Info("ballot receipts purged", "ballot", name, "removed", len(receipts))
	return len(receipts), nil
}
