// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the ballotbox API server.

ballotbox is a ledger-backed voting service. A publisher creates a custom
token; holders vote on ballots with weight equal to their current balance,
and every balance change flows into the open ballots they voted on.

# Starting the Server

With no configuration the server uses a local SQLite file:

	PRINCIPAL_KEY_SALT=... go run .

Or against PostgreSQL:

	go run . -t postgres -d "postgres://..." -p 3318

Settings may also live in a .env file (see -env).

# Configuration

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - DATABASE_URL (-d): connection string or SQLite path
  - AUTH_MODE (-auth): key or signature (default: key)
  - PRINCIPAL_KEY_SALT (-key-salt): secret for principal key HMAC

Print the key for a principal and exit:

	go run . -issue-key alice

# Architecture

  - command: the tagged action set and dispatch
  - service: one transaction per action
  - ledger, ballots, votes, sweep: domain components
  - store, db: tables and schema
  - handlers, router, middleware: HTTP surface
  - auth: principal keys, request signatures, authority checks
  - apperr, clock, models, cliparse: shared support

See package documentation for each component.
*/
package main
