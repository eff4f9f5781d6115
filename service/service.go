// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package service binds the ledger, ballot, vote and sweep components to a
// database. Every command runs in its own transaction.
package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/danielhkuo/ballotbox/auth"
	"github.com/danielhkuo/ballotbox/ballots"
	"github.com/danielhkuo/ballotbox/clock"
	"github.com/danielhkuo/ballotbox/command"
	"github.com/danielhkuo/ballotbox/ledger"
	"github.com/danielhkuo/ballotbox/models"
	"github.com/danielhkuo/ballotbox/store"
	"github.com/danielhkuo/ballotbox/sweep"
	"github.com/danielhkuo/ballotbox/votes"
)

// StakedPublisher owns the staked voting registry.
const StakedPublisher = "ballotbox"

type Service struct {
	db      *sql.DB
	ledger  *ledger.Ledger
	votes   *votes.Engine
	ballots *ballots.Manager
	sweeper *sweep.Sweeper
}

var _ command.Handler = (*Service)(nil)

// New wires the components and makes sure the staked voting registry exists.
func New(ctx context.Context, db *sql.DB, c clock.Clock) (*Service, error) {
	engine := votes.New(c)
	s := &Service{
		db:      db,
		ledger:  ledger.New(engine),
		votes:   engine,
		ballots: ballots.New(c),
		sweeper: sweep.New(c),
	}

	err := store.Run(ctx, db, func(tx *store.Tx) error {
		return ledger.EnsureStakedRegistry(ctx, tx, StakedPublisher)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create staked registry: %w", err)
	}
	return s, nil
}

func (s *Service) run(ctx context.Context, fn func(tx *store.Tx) error) error {
	return store.Run(ctx, s.db, fn)
}

// Token registry and accounts

func (s *Service) CreateToken(ctx context.Context, c command.CreateToken) (any, error) {
	var reg models.Registry
	err := s.run(ctx, func(tx *store.Tx) error {
		var err error
		reg, err = s.ledger.CreateToken(ctx, tx, c.Publisher, c.MaxSupply, c.Settings, c.InfoURL)
		return err
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

func (s *Service) Mint(ctx context.Context, c command.Mint) (any, error) {
	return nil, s.run(ctx, func(tx *store.Tx) error {
		return s.ledger.Mint(ctx, tx, c.Publisher, c.Recipient, c.Amount)
	})
}

func (s *Service) Burn(ctx context.Context, c command.Burn) (any, error) {
	return nil, s.run(ctx, func(tx *store.Tx) error {
		return s.ledger.Burn(ctx, tx, c.Publisher, c.Amount)
	})
}

func (s *Service) Transfer(ctx context.Context, c command.Transfer) (any, error) {
	return nil, s.run(ctx, func(tx *store.Tx) error {
		return s.ledger.Transfer(ctx, tx, c.Sender, c.Recipient, c.Amount, c.Memo)
	})
}

func (s *Service) Seize(ctx context.Context, c command.Seize) (any, error) {
	return nil, s.run(ctx, func(tx *store.Tx) error {
		return s.ledger.Seize(ctx, tx, c.Publisher, c.Owner, c.Amount)
	})
}

func (s *Service) SetMaxSupply(ctx context.Context, c command.SetMaxSupply) (any, error) {
	return nil, s.run(ctx, func(tx *store.Tx) error {
		return s.ledger.SetMaxSupply(ctx, tx, c.Publisher, c.MaxSupply)
	})
}

func (s *Service) DestroyToken(ctx context.Context, c command.DestroyToken) (any, error) {
	return nil, s.run(ctx, func(tx *store.Tx) error {
		return s.ledger.DestroyToken(ctx, tx, c.Publisher, c.Symbol)
	})
}

func (s *Service) OpenAccount(ctx context.Context, c command.OpenAccount) (any, error) {
	return nil, s.run(ctx, func(tx *store.Tx) error {
		return s.ledger.OpenAccount(ctx, tx, c.Owner, c.Symbol)
	})
}

func (s *Service) CloseAccount(ctx context.Context, c command.CloseAccount) (any, error) {
	return nil, s.run(ctx, func(tx *store.Tx) error {
		return s.ledger.CloseAccount(ctx, tx, c.Owner, c.Symbol)
	})
}

// Ballots

func (s *Service) CreateBallot(ctx context.Context, c command.CreateBallot) (any, error) {
	var b models.Ballot
	err := s.run(ctx, func(tx *store.Tx) error {
		var err error
		b, err = s.ballots.Create(ctx, tx, ballots.NewBallot{
			Name:              c.BallotName,
			Category:          c.Category,
			Publisher:         c.Publisher,
			Title:             c.Title,
			Description:       c.Description,
			InfoURL:           c.InfoURL,
			MaxVotableOptions: c.MaxVotableOptions,
			VotingSymbol:      c.VotingSymbol,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) SetInfo(ctx context.Context, c command.SetInfo) (any, error) {
	return nil, s.run(ctx, func(tx *store.Tx) error {
		return s.ballots.SetInfo(ctx, tx, c.BallotName, c.Publisher, c.Title, c.Description, c.InfoURL)
	})
}

func (s *Service) AddOption(ctx context.Context, c command.AddOption) (any, error) {
	return nil, s.run(ctx, func(tx *store.Tx) error {
		return s.ballots.AddOption(ctx, tx, c.BallotName, c.Publisher, c.OptionName, c.Info)
	})
}

func (s *Service) ReadyBallot(ctx context.Context, c command.ReadyBallot) (any, error) {
	return nil, s.run(ctx, func(tx *store.Tx) error {
		return s.ballots.Ready(ctx, tx, c.BallotName, c.Publisher, c.EndTime)
	})
}

func (s *Service) CloseBallot(ctx context.Context, c command.CloseBallot) (any, error) {
	return nil, s.run(ctx, func(tx *store.Tx) error {
		return s.ballots.Close(ctx, tx, c.BallotName, c.Publisher, c.Status)
	})
}

func (s *Service) DeleteBallot(ctx context.Context, c command.DeleteBallot) (any, error) {
	return nil, s.run(ctx, func(tx *store.Tx) error {
		return s.ballots.Delete(ctx, tx, c.BallotName, c.Publisher)
	})
}

func (s *Service) PurgeBallot(ctx context.Context, c command.PurgeBallot) (any, error) {
	var removed int
	err := s.run(ctx, func(tx *store.Tx) error {
		var err error
		removed, err = s.sweeper.PurgeBallot(ctx, tx, c.BallotName, c.Publisher, c.MaxCount)
		return err
	})
	if err != nil {
		return nil, err
	}
	return models.CountResult{Removed: removed}, nil
}

// Votes

func (s *Service) CastVote(ctx context.Context, c command.CastVote) (any, error) {
	return nil, s.run(ctx, func(tx *store.Tx) error {
		return s.votes.CastVote(ctx, tx, c.Voter, c.BallotName, c.OptionName)
	})
}

func (s *Service) RetractVote(ctx context.Context, c command.RetractVote) (any, error) {
	return nil, s.run(ctx, func(tx *store.Tx) error {
		return s.votes.RetractVote(ctx, tx, c.Voter, c.BallotName, c.OptionName)
	})
}

func (s *Service) Rebalance(ctx context.Context, c command.Rebalance) (any, error) {
	return nil, s.run(ctx, func(tx *store.Tx) error {
		return s.votes.RebalanceVoter(ctx, tx, c.Voter)
	})
}

// Sweeps

func (s *Service) Cleanup(ctx context.Context, c command.Cleanup) (any, error) {
	var removed int
	err := s.run(ctx, func(tx *store.Tx) error {
		var err error
		removed, err = s.sweeper.Cleanup(ctx, tx, c.Voter, c.MaxCount, c.Symbol)
		return err
	})
	if err != nil {
		return nil, err
	}
	return models.CountResult{Removed: removed}, nil
}

func (s *Service) CleanupAll(ctx context.Context, c command.CleanupAll) (any, error) {
	removed, err := s.sweeper.CleanupAll(ctx, s.db, c.Voter, c.Symbol)
	if err != nil {
		// Earlier batches stay committed; the partial count goes with the error.
		slog.Warn("cleanup stopped early", "voter", c.Voter, "removed", removed, "error", err)
		return models.CountResult{Removed: removed}, err
	}
	return models.CountResult{Removed: removed}, nil
}

// Reads

func (s *Service) Token(ctx context.Context, code string) (models.Registry, error) {
	var reg models.Registry
	err := s.run(ctx, func(tx *store.Tx) error {
		var err error
		reg, err = tx.Registries.Get(ctx, code)
		return err
	})
	return reg, err
}

func (s *Service) Account(ctx context.Context, owner, code string) (models.Account, error) {
	owner = auth.Canonical(owner)
	var acct models.Account
	err := s.run(ctx, func(tx *store.Tx) error {
		var err error
		acct, err = tx.Accounts.Get(ctx, owner, code)
		return err
	})
	return acct, err
}

func (s *Service) Ballot(ctx context.Context, name string) (models.Ballot, error) {
	var b models.Ballot
	err := s.run(ctx, func(tx *store.Tx) error {
		var err error
		b, err = tx.Ballots.Get(ctx, name)
		return err
	})
	return b, err
}

func (s *Service) Results(ctx context.Context, name string) (models.BallotResults, error) {
	var res models.BallotResults
	err := s.run(ctx, func(tx *store.Tx) error {
		var err error
		res, err = ballots.Results(ctx, tx, name)
		return err
	})
	return res, err
}

// Receipts lists a voter's receipts across every unit.
func (s *Service) Receipts(ctx context.Context, voter string) (models.ReceiptList, error) {
	voter = auth.Canonical(voter)
	list := models.ReceiptList{Voter: voter}
	err := s.run(ctx, func(tx *store.Tx) error {
		var err error
		list.Receipts, err = tx.Receipts.ListByVoter(ctx, voter, "")
		return err
	})
	return list, err
}

// SetStake records a staked amount on behalf of the staking subsystem. It
// does not rebalance; voters call rebalance to pick up the new weight.
func (s *Service) SetStake(ctx context.Context, owner string, amount int64) error {
	owner = auth.Canonical(owner)
	if amount < 0 || amount > models.MaxAssetAmount {
		return fmt.Errorf("stake for %s out of range: %d", owner, amount)
	}
	return s.run(ctx, func(tx *store.Tx) error {
		return tx.Stakes.Put(ctx, owner, amount)
	})
}
