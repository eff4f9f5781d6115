// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"log/slog"

	"github.com/danielhkuo/ballotbox/apperr"
	"github.com/danielhkuo/ballotbox/auth"
	"github.com/danielhkuo/ballotbox/models"
	"github.com/danielhkuo/ballotbox/store"
)

// RebalanceHook reconciles a principal's vote receipts in one unit with
// their current balance. The ledger calls it after every credit and debit,
// inside the same transaction.
type RebalanceHook interface {
	Rebalance(ctx context.Context, tx *store.Tx, voter, code string) error
}

// Ledger owns balances and token registries.
type Ledger struct {
	hook RebalanceHook
}

func New(hook RebalanceHook) *Ledger {
	if hook == nil {
		panic("ledger: nil rebalance hook")
	}
	return &Ledger{hook: hook}
}

// OpenAccount creates a zero-balance account for owner in the unit.
func (l *Ledger) OpenAccount(ctx context.Context, tx *store.Tx, owner string, sym models.Symbol) error {
	if err := auth.Require(ctx, owner); err != nil {
		return err
	}
	reg, err := tx.Registries.Get(ctx, sym.Code)
	if err != nil {
		return err
	}
	if reg.Symbol() != sym {
		return apperr.InvalidArgument(sym.Code, "symbol precision mismatch: registry is %s", reg.Symbol())
	}

	_, ok, err := tx.Accounts.Find(ctx, owner, sym.Code)
	if err != nil {
		return err
	}
	if ok {
		return apperr.AlreadyExists(owner+"/"+sym.Code, "account already exists")
	}

	if err := createAccount(ctx, tx, owner, &reg); err != nil {
		return err
	}
	if err := tx.Registries.Update(ctx, reg); err != nil {
		return err
	}

	slog.Info("account opened", "owner", owner, "symbol", sym.String())
	return nil
}

// CloseAccount deletes an account holding no balance and no outstanding votes.
func (l *Ledger) CloseAccount(ctx context.Context, tx *store.Tx, owner string, sym models.Symbol) error {
	if err := auth.Require(ctx, owner); err != nil {
		return err
	}
	reg, err := tx.Registries.Get(ctx, sym.Code)
	if err != nil {
		return err
	}
	acct, err := tx.Accounts.Get(ctx, owner, sym.Code)
	if err != nil {
		return err
	}

	key := owner + "/" + sym.Code
	if acct.Balance.Amount != 0 {
		return apperr.Invariant(key, "cannot close account with balance %s", acct.Balance)
	}
	if acct.NumVotes != 0 {
		return apperr.Invariant(key, "cannot close account with %d outstanding votes", acct.NumVotes)
	}

	if err := tx.Accounts.Delete(ctx, owner, sym.Code); err != nil {
		return err
	}
	if reg.TotalVoters > 0 {
		reg.TotalVoters--
	}
	if err := tx.Registries.Update(ctx, reg); err != nil {
		return err
	}

	slog.Info("account closed", "owner", owner, "symbol", sym.String())
	return nil
}

// EnsureAccount returns the owner's account in the unit, creating an empty
// one when absent. The registry row is updated when an account is created.
func EnsureAccount(ctx context.Context, tx *store.Tx, owner, code string) (models.Account, error) {
	acct, ok, err := tx.Accounts.Find(ctx, owner, code)
	if err != nil || ok {
		return acct, err
	}

	reg, err := tx.Registries.Get(ctx, code)
	if err != nil {
		return models.Account{}, err
	}
	if err := createAccount(ctx, tx, owner, &reg); err != nil {
		return models.Account{}, err
	}
	if err := tx.Registries.Update(ctx, reg); err != nil {
		return models.Account{}, err
	}
	return tx.Accounts.Get(ctx, owner, code)
}

func createAccount(ctx context.Context, tx *store.Tx, owner string, reg *models.Registry) error {
	if !models.ValidPrincipal(owner) {
		return apperr.InvalidArgument(owner, "invalid principal name")
	}
	if err := tx.Accounts.Insert(ctx, owner, reg.Symbol().Code); err != nil {
		return err
	}
	reg.TotalVoters++
	return nil
}

// credit adds amount to owner's balance, creating the account on first
// credit, then rebalances owner's receipts in the unit. A created account
// bumps reg.TotalVoters; the caller persists reg.
func (l *Ledger) credit(ctx context.Context, tx *store.Tx, owner string, reg *models.Registry, amount int64) error {
	code := reg.Symbol().Code
	acct, ok, err := tx.Accounts.Find(ctx, owner, code)
	if err != nil {
		return err
	}
	if !ok {
		if err := createAccount(ctx, tx, owner, reg); err != nil {
			return err
		}
		acct = models.Account{Owner: owner, Balance: models.NewAsset(0, reg.Symbol())}
	}

	balance := acct.Balance.Amount + amount
	if amount < 0 || balance > models.MaxAssetAmount {
		return apperr.Invariant(owner+"/"+code, "balance overflow crediting %d", amount)
	}
	if err := tx.Accounts.SetBalance(ctx, owner, code, balance); err != nil {
		return err
	}
	return l.hook.Rebalance(ctx, tx, owner, code)
}

// debit removes amount from owner's balance, never letting it go negative,
// then rebalances owner's receipts in the unit.
func (l *Ledger) debit(ctx context.Context, tx *store.Tx, owner string, reg *models.Registry, amount int64) error {
	code := reg.Symbol().Code
	acct, err := tx.Accounts.Get(ctx, owner, code)
	if err != nil {
		return err
	}

	if amount < 0 || acct.Balance.Amount < amount {
		return apperr.Invariant(owner+"/"+code, "insufficient balance: have %s, need %s",
			acct.Balance, models.NewAsset(amount, reg.Symbol()))
	}
	if err := tx.Accounts.SetBalance(ctx, owner, code, acct.Balance.Amount-amount); err != nil {
		return err
	}
	return l.hook.Rebalance(ctx, tx, owner, code)
}
