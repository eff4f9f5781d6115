// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package command

import "github.com/danielhkuo/ballotbox/auth"

// Each canonical method rewrites the variant's principal fields with
// auth.Canonical. Accounts and receipts are keyed by the exact string, so an
// address must reach the handlers in one spelling.

func (c CreateToken) canonical() Command {
	c.Publisher = auth.Canonical(c.Publisher)
	return c
}

func (c Mint) canonical() Command {
	c.Publisher = auth.Canonical(c.Publisher)
	c.Recipient = auth.Canonical(c.Recipient)
	return c
}

func (c Burn) canonical() Command {
	c.Publisher = auth.Canonical(c.Publisher)
	return c
}

func (c Transfer) canonical() Command {
	c.Sender = auth.Canonical(c.Sender)
	c.Recipient = auth.Canonical(c.Recipient)
	return c
}

func (c Seize) canonical() Command {
	c.Publisher = auth.Canonical(c.Publisher)
	c.Owner = auth.Canonical(c.Owner)
	return c
}

func (c SetMaxSupply) canonical() Command {
	c.Publisher = auth.Canonical(c.Publisher)
	return c
}

func (c DestroyToken) canonical() Command {
	c.Publisher = auth.Canonical(c.Publisher)
	return c
}

func (c OpenAccount) canonical() Command {
	c.Owner = auth.Canonical(c.Owner)
	return c
}

func (c CloseAccount) canonical() Command {
	c.Owner = auth.Canonical(c.Owner)
	return c
}

func (c CreateBallot) canonical() Command {
	c.Publisher = auth.Canonical(c.Publisher)
	return c
}

func (c SetInfo) canonical() Command {
	c.Publisher = auth.Canonical(c.Publisher)
	return c
}

func (c AddOption) canonical() Command {
	c.Publisher = auth.Canonical(c.Publisher)
	return c
}

func (c ReadyBallot) canonical() Command {
	c.Publisher = auth.Canonical(c.Publisher)
	return c
}

func (c CloseBallot) canonical() Command {
	c.Publisher = auth.Canonical(c.Publisher)
	return c
}

func (c DeleteBallot) canonical() Command {
	c.Publisher = auth.Canonical(c.Publisher)
	return c
}

func (c PurgeBallot) canonical() Command {
	c.Publisher = auth.Canonical(c.Publisher)
	return c
}

func (c CastVote) canonical() Command {
	c.Voter = auth.Canonical(c.Voter)
	return c
}

func (c RetractVote) canonical() Command {
	c.Voter = auth.Canonical(c.Voter)
	return c
}

func (c Rebalance) canonical() Command {
	c.Voter = auth.Canonical(c.Voter)
	return c
}

func (c Cleanup) canonical() Command {
	c.Voter = auth.Canonical(c.Voter)
	return c
}

func (c CleanupAll) canonical() Command {
	c.Voter = auth.Canonical(c.Voter)
	return c
}
