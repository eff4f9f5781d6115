// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// Driver names registered by lib/pq and modernc.org/sqlite.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// DropSchema removes every table, children first.
func DropSchema(db *sql.DB) error {
	_, err := db.Exec(`
		DROP TABLE IF EXISTS stake;
		DROP TABLE IF EXISTS vote_receipt;
		DROP TABLE IF EXISTS ballot_option;
		DROP TABLE IF EXISTS ballot;
		DROP TABLE IF EXISTS account;
		DROP TABLE IF EXISTS registry;
	`)
	if err != nil {
		return fmt.Errorf("failed to drop schema: %w", err)
	}
	return nil
}

// The DDL sticks to types and clauses PostgreSQL and SQLite share.
// Times are unix seconds.
const schema = `
-- Token registries
CREATE TABLE IF NOT EXISTS registry (
    symbol_code TEXT PRIMARY KEY,
    symbol_precision INTEGER NOT NULL,
    supply BIGINT NOT NULL DEFAULT 0 CHECK (supply >= 0),
    max_supply BIGINT NOT NULL CHECK (max_supply >= supply),
    publisher TEXT NOT NULL,
    total_voters INTEGER NOT NULL DEFAULT 0,
    total_proxies INTEGER NOT NULL DEFAULT 0,
    is_destructible BOOLEAN NOT NULL DEFAULT FALSE,
    is_proxyable BOOLEAN NOT NULL DEFAULT FALSE,
    is_burnable BOOLEAN NOT NULL DEFAULT FALSE,
    is_seizable BOOLEAN NOT NULL DEFAULT FALSE,
    is_max_mutable BOOLEAN NOT NULL DEFAULT FALSE,
    is_transferable BOOLEAN NOT NULL DEFAULT FALSE,
    info_url TEXT NOT NULL DEFAULT ''
);

-- Accounts
CREATE TABLE IF NOT EXISTS account (
    owner TEXT NOT NULL,
    symbol_code TEXT NOT NULL REFERENCES registry(symbol_code),
    balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
    num_votes INTEGER NOT NULL DEFAULT 0 CHECK (num_votes >= 0),
    PRIMARY KEY (owner, symbol_code)
);

CREATE INDEX IF NOT EXISTS idx_account_symbol ON account(symbol_code);

-- Ballots
CREATE TABLE IF NOT EXISTS ballot (
    ballot_name TEXT PRIMARY KEY,
    category TEXT NOT NULL,
    publisher TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    info_url TEXT NOT NULL DEFAULT '',
    unique_voters INTEGER NOT NULL DEFAULT 0,
    max_votable_options INTEGER NOT NULL,
    symbol_code TEXT NOT NULL REFERENCES registry(symbol_code),
    begin_time BIGINT NOT NULL DEFAULT 0,
    end_time BIGINT NOT NULL DEFAULT 0,
    status INTEGER NOT NULL DEFAULT 0 CHECK (status BETWEEN 0 AND 3)
);

CREATE INDEX IF NOT EXISTS idx_ballot_symbol ON ballot(symbol_code);

-- Options
CREATE TABLE IF NOT EXISTS ballot_option (
    ballot_name TEXT NOT NULL REFERENCES ballot(ballot_name) ON DELETE CASCADE,
    option_name TEXT NOT NULL,
    position INTEGER NOT NULL,
    info TEXT NOT NULL DEFAULT '',
    votes BIGINT NOT NULL DEFAULT 0,
    PRIMARY KEY (ballot_name, option_name)
);

-- Vote receipts
CREATE TABLE IF NOT EXISTS vote_receipt (
    voter TEXT NOT NULL,
    ballot_name TEXT NOT NULL,
    symbol_code TEXT NOT NULL,
    option_names TEXT NOT NULL,
    amount BIGINT NOT NULL DEFAULT 0,
    expiration BIGINT NOT NULL,
    PRIMARY KEY (voter, ballot_name)
);

CREATE INDEX IF NOT EXISTS idx_vote_receipt_expiration ON vote_receipt(voter, expiration);
CREATE INDEX IF NOT EXISTS idx_vote_receipt_ballot ON vote_receipt(ballot_name);

-- Staked holdings, owned by the staking subsystem
CREATE TABLE IF NOT EXISTS stake (
    owner TEXT PRIMARY KEY,
    amount BIGINT NOT NULL DEFAULT 0 CHECK (amount >= 0)
);
`
