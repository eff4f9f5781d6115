// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package votes casts, retracts and rebalances weighted vote receipts.
//
// A receipt's recorded amount is the weight currently added to every option
// it selects. Rebalance is the only path by which balance changes reach
// option tallies: the ledger calls it after each credit and debit.
package votes

import (
	"context"
	"log/slog"

	"github.com/danielhkuo/ballotbox/apperr"
	"github.com/danielhkuo/ballotbox/auth"
	"github.com/danielhkuo/ballotbox/clock"
	"github.com/danielhkuo/ballotbox/ledger"
	"github.com/danielhkuo/ballotbox/models"
	"github.com/danielhkuo/ballotbox/store"
)

type Engine struct {
	clock clock.Clock
}

func New(c clock.Clock) *Engine {
	return &Engine{clock: c}
}

func receiptKey(voter, ballotName string) string {
	return voter + "/" + ballotName
}

// weight is the voter's current voting weight in a unit: the staked amount
// for the staked unit, the account balance otherwise.
func weight(ctx context.Context, tx *store.Tx, voter string, sym models.Symbol) (int64, error) {
	if sym.Code == models.StakedSymbol.Code {
		return tx.Stakes.StakedAmount(ctx, voter)
	}
	acct, ok, err := tx.Accounts.Find(ctx, voter, sym.Code)
	if err != nil || !ok {
		return 0, err
	}
	return acct.Balance.Amount, nil
}

// applyDelta adds delta to the tally of every named option.
func applyDelta(b *models.Ballot, optionNames []string, delta int64) error {
	for _, name := range optionNames {
		idx := b.OptionIndex(name)
		if idx < 0 {
			return apperr.Invariant(b.Name+"/"+name, "receipt references unknown option")
		}
		votes := b.Options[idx].Votes.Amount + delta
		if votes < 0 {
			return apperr.Invariant(b.Name+"/"+name, "tally would go negative")
		}
		b.Options[idx].Votes.Amount = votes
	}
	return nil
}

// openBallot loads a ballot that is OPEN and still inside its voting window.
func (e *Engine) openBallot(ctx context.Context, tx *store.Tx, ballotName string) (models.Ballot, error) {
	b, err := tx.Ballots.Get(ctx, ballotName)
	if err != nil {
		return models.Ballot{}, err
	}
	if b.Status != models.StatusOpen {
		return models.Ballot{}, apperr.InvalidState(ballotName, "ballot is %s, not open", b.Status)
	}
	if !e.clock.Now().Before(b.EndTime) {
		return models.Ballot{}, apperr.Timing(ballotName, "voting window ended at %s", b.EndTime.Format("2006-01-02 15:04:05"))
	}
	return b, nil
}

// CastVote adds the voter's full current weight to an option.
func (e *Engine) CastVote(ctx context.Context, tx *store.Tx, voter, ballotName, option string) error {
	if err := auth.Require(ctx, voter); err != nil {
		return err
	}
	b, err := e.openBallot(ctx, tx, ballotName)
	if err != nil {
		return err
	}
	idx := b.OptionIndex(option)
	if idx < 0 {
		return apperr.NotFound(ballotName+"/"+option, "option not found on ballot")
	}

	sym := b.VotingSymbol
	var acct models.Account
	if sym.Code == models.StakedSymbol.Code {
		acct, err = ledger.EnsureAccount(ctx, tx, voter, sym.Code)
	} else {
		acct, err = tx.Accounts.Get(ctx, voter, sym.Code)
	}
	if err != nil {
		return err
	}
	w, err := weight(ctx, tx, voter, sym)
	if err != nil {
		return err
	}

	rec, found, err := tx.Receipts.Find(ctx, voter, ballotName)
	if err != nil {
		return err
	}

	if found {
		if rec.HasOption(option) {
			return apperr.AlreadyExists(receiptKey(voter, ballotName), "already voted for %s", option)
		}
		if len(rec.OptionNames) >= int(b.MaxVotableOptions) {
			return apperr.Capacity(receiptKey(voter, ballotName), "ballot allows at most %d options", b.MaxVotableOptions)
		}
		// Existing selections move to the current weight before the new one joins.
		if err := applyDelta(&b, rec.OptionNames, w-rec.Amount.Amount); err != nil {
			return err
		}
		rec.Amount.Amount = w
		rec.OptionNames = append(rec.OptionNames, option)
		b.Options[idx].Votes.Amount += w
		if err := tx.Receipts.Update(ctx, rec); err != nil {
			return err
		}
	} else {
		total, err := tx.Receipts.CountByVoter(ctx, voter, "")
		if err != nil {
			return err
		}
		if total >= models.MaxVoteReceipts {
			return apperr.Capacity(voter, "voter already holds %d vote receipts", total)
		}
		if b.MaxVotableOptions < 1 {
			return apperr.Capacity(ballotName, "ballot allows no options")
		}

		rec = models.Receipt{
			Voter:       voter,
			BallotName:  ballotName,
			OptionNames: []string{option},
			Amount:      models.NewAsset(w, sym),
			Expiration:  b.EndTime,
		}
		b.Options[idx].Votes.Amount += w
		b.UniqueVoters++
		if err := tx.Receipts.Insert(ctx, rec); err != nil {
			return err
		}
		if err := tx.Accounts.AddVotes(ctx, voter, sym.Code, 1); err != nil {
			return err
		}
		acct.NumVotes++
	}

	if err := tx.Ballots.Update(ctx, b); err != nil {
		return err
	}

	slog.Info("vote cast", "voter", voter, "ballot", ballotName, "option", option,
		"weight", rec.Amount.String(), "outstanding_votes", acct.NumVotes)
	return nil
}

// RetractVote removes one option from the voter's receipt and subtracts the
// recorded weight from its tally. An emptied receipt is deleted.
func (e *Engine) RetractVote(ctx context.Context, tx *store.Tx, voter, ballotName, option string) error {
	if err := auth.Require(ctx, voter); err != nil {
		return err
	}
	b, err := e.openBallot(ctx, tx, ballotName)
	if err != nil {
		return err
	}

	key := receiptKey(voter, ballotName)
	rec, found, err := tx.Receipts.Find(ctx, voter, ballotName)
	if err != nil {
		return err
	}
	if !found {
		return apperr.NotFound(key, "no vote receipt for ballot")
	}
	if !rec.HasOption(option) {
		return apperr.NotFound(key+"/"+option, "option not in vote receipt")
	}

	if err := applyDelta(&b, []string{option}, -rec.Amount.Amount); err != nil {
		return err
	}
	remaining := make([]string, 0, len(rec.OptionNames)-1)
	for _, name := range rec.OptionNames {
		if name != option {
			remaining = append(remaining, name)
		}
	}
	rec.OptionNames = remaining

	if len(remaining) == 0 {
		if err := tx.Receipts.Delete(ctx, voter, ballotName); err != nil {
			return err
		}
		if err := tx.Accounts.AddVotes(ctx, voter, rec.Amount.Symbol.Code, -1); err != nil {
			return err
		}
		if b.UniqueVoters > 0 {
			b.UniqueVoters--
		}
	} else if err := tx.Receipts.Update(ctx, rec); err != nil {
		return err
	}

	if err := tx.Ballots.Update(ctx, b); err != nil {
		return err
	}

	slog.Info("vote retracted", "voter", voter, "ballot", ballotName, "option", option,
		"receipt_deleted", len(remaining) == 0)
	return nil
}

// RebalanceVoter is the public rebalance operation over every unit.
func (e *Engine) RebalanceVoter(ctx context.Context, tx *store.Tx, voter string) error {
	if err := auth.Require(ctx, voter); err != nil {
		return err
	}
	return e.Rebalance(ctx, tx, voter, "")
}

// Rebalance moves every live receipt of voter to the voter's current weight,
// applying the difference to each selected option's tally. An empty code
// covers every unit. Receipts on finished or expired ballots stay frozen.
// Receipts already at the current weight are not written.
func (e *Engine) Rebalance(ctx context.Context, tx *store.Tx, voter, code string) error {
	receipts, err := tx.Receipts.ListByVoter(ctx, voter, code)
	if err != nil {
		return err
	}

	now := e.clock.Now()
	weights := make(map[string]int64)
	for _, rec := range receipts {
		if !rec.Expiration.After(now) {
			continue
		}
		b, err := tx.Ballots.Get(ctx, rec.BallotName)
		if apperr.Is(err, apperr.KindNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if b.Status != models.StatusOpen {
			continue
		}

		sym := rec.Amount.Symbol
		w, ok := weights[sym.Code]
		if !ok {
			if w, err = weight(ctx, tx, voter, sym); err != nil {
				return err
			}
			weights[sym.Code] = w
		}

		delta := w - rec.Amount.Amount
		if delta == 0 {
			continue
		}
		if err := applyDelta(&b, rec.OptionNames, delta); err != nil {
			return err
		}
		rec.Amount.Amount = w
		if err := tx.Receipts.Update(ctx, rec); err != nil {
			return err
		}
		if err := tx.Ballots.Update(ctx, b); err != nil {
			return err
		}

		slog.Info("receipt rebalanced", "voter", voter, "ballot", rec.BallotName,
			"delta", models.NewAsset(delta, sym).String(), "weight", rec.Amount.String())
	}
	return nil
}
