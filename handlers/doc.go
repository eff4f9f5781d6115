// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the ballotbox API.

# Actions

ActionHandler decodes POST /actions/{action} into a command and dispatches
it:

	POST /actions/mint
	{"publisher": "pub", "recipient": "alice", "amount": "50.00 TEST"}

Successful actions answer with the action name, request ID and any result.

# Queries

QueryHandler serves tokens, accounts, ballots, ranked results and a
voter's receipts. It depends only on the Reader interface.
*/
package handlers
