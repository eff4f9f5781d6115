// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The same DDL runs on PostgreSQL (lib/pq) and SQLite (modernc.org/sqlite).

# Tables

  - registry: one row per token, keyed by symbol code
  - account: balance and outstanding vote count per (owner, symbol)
  - ballot: ballot metadata, timing and status
  - ballot_option: ordered options and their tallies
  - vote_receipt: one row per (voter, ballot)
  - stake: staked amounts fed by the staking subsystem

# Relationships

	registry 1──* account
	registry 1──* ballot
	ballot   1──* ballot_option

Receipts carry no foreign key to ballot; ballot deletion checks for them
instead.

# Indexes

  - account.symbol_code
  - ballot.symbol_code
  - vote_receipt.(voter, expiration) for sweeps
  - vote_receipt.ballot_name for purges
*/
package db
