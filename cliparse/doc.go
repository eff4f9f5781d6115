// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# CLI Flags

	-p          Server port
	-d          Database URL or SQLite path
	-t          Database type (sqlite or postgres)
	-auth       Authentication mode (key or signature)
	-key-salt   Principal key salt
	-env        Env file to load (default .env)
	-issue-key  Print a principal key and exit

# Environment Variables

Flags fall back to environment variables:

	PORT               → -p
	DATABASE_URL       → -d
	DATABASE_TYPE      → -t
	AUTH_MODE          → -auth
	PRINCIPAL_KEY_SALT → -key-salt

CLI flags take precedence over environment variables, and real environment
variables take precedence over the env file.

# Validation

  - postgres requires DATABASE_URL; sqlite defaults to ballotbox.db
  - key auth and -issue-key require PRINCIPAL_KEY_SALT
*/
package cliparse
