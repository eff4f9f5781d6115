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

// CreateToken registers a new unit under publisher.
func (l *Ledger) CreateToken(ctx context.Context, tx *store.Tx, publisher string, maxSupply models.Asset,
	settings models.TokenSettings, infoURL string) (models.Registry, error) {
	if err := auth.Require(ctx, publisher); err != nil {
		return models.Registry{}, err
	}

	sym := maxSupply.Symbol
	if !maxSupply.Valid() || maxSupply.Amount <= 0 {
		return models.Registry{}, apperr.InvalidArgument(sym.Code, "max supply must be positive, got %s", maxSupply)
	}
	if sym.Code == models.StakedSymbol.Code {
		return models.Registry{}, apperr.InvalidArgument(sym.Code, "symbol is reserved for staked voting")
	}

	exists, err := tx.Registries.Exists(ctx, sym.Code)
	if err != nil {
		return models.Registry{}, err
	}
	if exists {
		return models.Registry{}, apperr.AlreadyExists(sym.Code, "token registry already exists")
	}

	reg := models.Registry{
		Supply:    models.NewAsset(0, sym),
		MaxSupply: maxSupply,
		Publisher: publisher,
		Settings:  settings,
		InfoURL:   infoURL,
	}
	if err := tx.Registries.Insert(ctx, reg); err != nil {
		return models.Registry{}, err
	}

	slog.Info("token created", "symbol", sym.String(), "publisher", publisher, "max_supply", maxSupply.String())
	return reg, nil
}

// EnsureStakedRegistry creates the reserved staked-voting registry if it is
// missing. Its supply stays zero; weight comes from the staking subsystem.
func EnsureStakedRegistry(ctx context.Context, tx *store.Tx, publisher string) error {
	exists, err := tx.Registries.Exists(ctx, models.StakedSymbol.Code)
	if err != nil || exists {
		return err
	}
	return tx.Registries.Insert(ctx, models.Registry{
		Supply:    models.NewAsset(0, models.StakedSymbol),
		MaxSupply: models.NewAsset(0, models.StakedSymbol),
		Publisher: publisher,
	})
}

// publisherRegistry loads the registry for amount's unit and checks that
// publisher signed and owns it.
func publisherRegistry(ctx context.Context, tx *store.Tx, publisher string, sym models.Symbol) (models.Registry, error) {
	if err := auth.Require(ctx, publisher); err != nil {
		return models.Registry{}, err
	}
	reg, err := tx.Registries.Get(ctx, sym.Code)
	if err != nil {
		return models.Registry{}, err
	}
	if reg.Publisher != publisher {
		return models.Registry{}, apperr.Unauthorized(sym.Code, "only publisher %s may manage this token", reg.Publisher)
	}
	return reg, nil
}

// checkAmount rejects non-positive amounts and amounts in a different
// symbol or precision than the registry.
func checkAmount(reg models.Registry, amount models.Asset) error {
	if amount.Symbol != reg.Symbol() {
		return apperr.InvalidArgument(amount.Symbol.Code, "amount symbol %s does not match %s", amount.Symbol, reg.Symbol())
	}
	if !amount.Valid() || amount.Amount <= 0 {
		return apperr.InvalidArgument(amount.Symbol.Code, "amount must be positive, got %s", amount)
	}
	return nil
}

// Mint issues new units to recipient.
func (l *Ledger) Mint(ctx context.Context, tx *store.Tx, publisher, recipient string, amount models.Asset) error {
	reg, err := publisherRegistry(ctx, tx, publisher, amount.Symbol)
	if err != nil {
		return err
	}
	if err := checkAmount(reg, amount); err != nil {
		return err
	}
	if amount.Amount > reg.MaxSupply.Amount-reg.Supply.Amount {
		return apperr.Invariant(reg.Symbol().Code, "minting %s would exceed max supply %s (supply %s)",
			amount, reg.MaxSupply, reg.Supply)
	}

	reg.Supply.Amount += amount.Amount
	if err := l.credit(ctx, tx, recipient, &reg, amount.Amount); err != nil {
		return err
	}
	if err := tx.Registries.Update(ctx, reg); err != nil {
		return err
	}

	slog.Info("tokens minted", "publisher", publisher, "recipient", recipient,
		"amount", amount.String(), "supply", reg.Supply.String())
	return nil
}

// Burn destroys units from the publisher's own balance.
func (l *Ledger) Burn(ctx context.Context, tx *store.Tx, publisher string, amount models.Asset) error {
	reg, err := publisherRegistry(ctx, tx, publisher, amount.Symbol)
	if err != nil {
		return err
	}
	if !reg.Settings.Burnable {
		return apperr.SettingDisabled(reg.Symbol().Code, "token is not burnable")
	}
	if err := checkAmount(reg, amount); err != nil {
		return err
	}

	if err := l.debit(ctx, tx, publisher, &reg, amount.Amount); err != nil {
		return err
	}
	reg.Supply.Amount -= amount.Amount
	if err := tx.Registries.Update(ctx, reg); err != nil {
		return err
	}

	slog.Info("tokens burned", "publisher", publisher, "amount", amount.String(), "supply", reg.Supply.String())
	return nil
}

// Transfer moves units between two holders.
func (l *Ledger) Transfer(ctx context.Context, tx *store.Tx, sender, recipient string, amount models.Asset, memo string) error {
	if err := auth.Require(ctx, sender); err != nil {
		return err
	}
	if sender == recipient {
		return apperr.InvalidArgument(sender, "cannot transfer to self")
	}
	if len(memo) > models.MaxMemoLength {
		return apperr.InvalidArgument(sender, "memo longer than %d bytes", models.MaxMemoLength)
	}

	reg, err := tx.Registries.Get(ctx, amount.Symbol.Code)
	if err != nil {
		return err
	}
	if !reg.Settings.Transferable {
		return apperr.SettingDisabled(reg.Symbol().Code, "token is not transferable")
	}
	if err := checkAmount(reg, amount); err != nil {
		return err
	}

	if err := l.debit(ctx, tx, sender, &reg, amount.Amount); err != nil {
		return err
	}
	if err := l.credit(ctx, tx, recipient, &reg, amount.Amount); err != nil {
		return err
	}
	if err := tx.Registries.Update(ctx, reg); err != nil {
		return err
	}

	slog.Info("tokens transferred", "sender", sender, "recipient", recipient, "amount", amount.String())
	return nil
}

// Seize moves units from owner back to the publisher. Supply is unchanged.
func (l *Ledger) Seize(ctx context.Context, tx *store.Tx, publisher, owner string, amount models.Asset) error {
	reg, err := publisherRegistry(ctx, tx, publisher, amount.Symbol)
	if err != nil {
		return err
	}
	if !reg.Settings.Seizable {
		return apperr.SettingDisabled(reg.Symbol().Code, "token is not seizable")
	}
	if owner == publisher {
		return apperr.InvalidArgument(owner, "cannot seize from publisher")
	}
	if err := checkAmount(reg, amount); err != nil {
		return err
	}

	if err := l.debit(ctx, tx, owner, &reg, amount.Amount); err != nil {
		return err
	}
	if err := l.credit(ctx, tx, publisher, &reg, amount.Amount); err != nil {
		return err
	}
	if err := tx.Registries.Update(ctx, reg); err != nil {
		return err
	}

	slog.Info("tokens seized", "publisher", publisher, "owner", owner, "amount", amount.String())
	return nil
}

// SetMaxSupply changes the cap on supply. It may never drop below supply.
func (l *Ledger) SetMaxSupply(ctx context.Context, tx *store.Tx, publisher string, maxSupply models.Asset) error {
	reg, err := publisherRegistry(ctx, tx, publisher, maxSupply.Symbol)
	if err != nil {
		return err
	}
	if !reg.Settings.MaxMutable {
		return apperr.SettingDisabled(reg.Symbol().Code, "max supply is not mutable")
	}
	if err := checkAmount(reg, maxSupply); err != nil {
		return err
	}
	if maxSupply.Amount < reg.Supply.Amount {
		return apperr.Invariant(reg.Symbol().Code, "max supply %s below current supply %s", maxSupply, reg.Supply)
	}

	reg.MaxSupply = maxSupply
	if err := tx.Registries.Update(ctx, reg); err != nil {
		return err
	}

	slog.Info("max supply changed", "symbol", reg.Symbol().String(), "max_supply", maxSupply.String())
	return nil
}

// DestroyToken removes a registry that nothing references any more.
func (l *Ledger) DestroyToken(ctx context.Context, tx *store.Tx, publisher string, sym models.Symbol) error {
	reg, err := publisherRegistry(ctx, tx, publisher, sym)
	if err != nil {
		return err
	}
	if !reg.Settings.Destructible {
		return apperr.SettingDisabled(sym.Code, "token is not destructible")
	}
	if reg.Supply.Amount != 0 {
		return apperr.Invariant(sym.Code, "cannot destroy token with supply %s", reg.Supply)
	}

	accounts, err := tx.Accounts.CountBySymbol(ctx, sym.Code)
	if err != nil {
		return err
	}
	if accounts > 0 {
		return apperr.Invariant(sym.Code, "cannot destroy token with %d open accounts", accounts)
	}
	ballots, err := tx.Ballots.CountBySymbol(ctx, sym.Code)
	if err != nil {
		return err
	}
	if ballots > 0 {
		return apperr.Invariant(sym.Code, "cannot destroy token used by %d ballots", ballots)
	}

	if err := tx.Registries.Delete(ctx, sym.Code); err != nil {
		return err
	}

	slog.Info("token destroyed", "symbol", sym.String(), "publisher", publisher)
	return nil
}
