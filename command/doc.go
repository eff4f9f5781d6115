// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package command defines every public ballotbox action as a tagged variant.

# Variants

Each action is a struct with JSON fields and a tag returned by Action:

	create-token   mint           burn          transfer
	seize          set-max-supply destroy-token open-account
	close-account  create-ballot  set-info      add-option
	ready-ballot   close-ballot   delete-ballot purge-ballot
	cast-vote      retract-vote   rebalance     cleanup
	cleanup-all

Amounts travel as text ("50.00 TEST") and symbols as "precision,CODE"
("2,TEST").

# Dispatch

Decode turns an action tag and a JSON body into a Command. Dispatch checks
the command's required fields and calls the matching Handler method. The
Handler interface has one method per variant; the service package
implements it.
*/
package command
