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

// Registries is the registry table, keyed by symbol code.
type Registries struct {
	q Queryer
}

const registryColumns = `symbol_code, symbol_precision, supply, max_supply, publisher,
	total_voters, total_proxies,
	is_destructible, is_proxyable, is_burnable, is_seizable, is_max_mutable, is_transferable,
	info_url`

// Get returns the registry for code, or a NotFound error.
func (s *Registries) Get(ctx context.Context, code string) (models.Registry, error) {
	var (
		reg       models.Registry
		sym       models.Symbol
		precision int
		supply    int64
		maxSupply int64
	)
	err := s.q.QueryRowContext(ctx, `
		SELECT `+registryColumns+`
		FROM registry
		WHERE symbol_code = $1
	`, code).Scan(
		&sym.Code, &precision, &supply, &maxSupply, &reg.Publisher,
		&reg.TotalVoters, &reg.TotalProxies,
		&reg.Settings.Destructible, &reg.Settings.Proxyable, &reg.Settings.Burnable,
		&reg.Settings.Seizable, &reg.Settings.MaxMutable, &reg.Settings.Transferable,
		&reg.InfoURL,
	)
	if err == sql.ErrNoRows {
		return models.Registry{}, apperr.NotFound(code, "token registry not found")
	}
	if err != nil {
		return models.Registry{}, fmt.Errorf("failed to query registry: %w", err)
	}

	sym.Precision = uint8(precision)
	reg.Supply = models.NewAsset(supply, sym)
	reg.MaxSupply = models.NewAsset(maxSupply, sym)
	return reg, nil
}

func (s *Registries) Exists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := s.q.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM registry WHERE symbol_code = $1)
	`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check registry: %w", err)
	}
	return exists, nil
}

func (s *Registries) Insert(ctx context.Context, reg models.Registry) error {
	sym := reg.Symbol()
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO registry (`+registryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, sym.Code, int(sym.Precision), reg.Supply.Amount, reg.MaxSupply.Amount, reg.Publisher,
		reg.TotalVoters, reg.TotalProxies,
		reg.Settings.Destructible, reg.Settings.Proxyable, reg.Settings.Burnable,
		reg.Settings.Seizable, reg.Settings.MaxMutable, reg.Settings.Transferable,
		reg.InfoURL)
	if err != nil {
		return fmt.Errorf("failed to insert registry: %w", err)
	}
	return nil
}

// Update writes the mutable registry fields. Symbol and publisher never change.
func (s *Registries) Update(ctx context.Context, reg models.Registry) error {
	code := reg.Symbol().Code
	res, err := s.q.ExecContext(ctx, `
		UPDATE registry
		SET supply = $1, max_supply = $2, total_voters = $3, total_proxies = $4, info_url = $5
		WHERE symbol_code = $6
	`, reg.Supply.Amount, reg.MaxSupply.Amount, reg.TotalVoters, reg.TotalProxies, reg.InfoURL, code)
	if err != nil {
		return fmt.Errorf("failed to update registry: %w", err)
	}
	return rowsAffected(res, apperr.NotFound(code, "token registry not found"))
}

func (s *Registries) Delete(ctx context.Context, code string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM registry WHERE symbol_code = $1`, code)
	if err != nil {
		return fmt.Errorf("failed to delete registry: %w", err)
	}
	return rowsAffected(res, apperr.NotFound(code, "token registry not found"))
}
