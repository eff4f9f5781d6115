// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/danielhkuo/ballotbox/apperr"
	"github.com/danielhkuo/ballotbox/command"
	"github.com/danielhkuo/ballotbox/models"
	"github.com/danielhkuo/ballotbox/testutil"
)

const (
	pub   = "pub"
	alice = "alice"
	bob   = "bob"
)

func mint(t *testing.T, env *testutil.Env, to, amount string) {
	t.Helper()
	env.Do(t, pub, command.Mint{Publisher: pub, Recipient: to, Amount: testutil.MustAsset(t, amount)})
}

func receipts(t *testing.T, env *testutil.Env, voter string) []models.Receipt {
	t.Helper()
	list, err := env.Service.Receipts(context.Background(), voter)
	if err != nil {
		t.Fatalf("Failed to list receipts: %v", err)
	}
	return list.Receipts
}

func numVotes(t *testing.T, env *testutil.Env, owner string, sym models.Symbol) int {
	t.Helper()
	acct, err := env.Service.Account(context.Background(), owner, sym.Code)
	if err != nil {
		t.Fatalf("Failed to load account: %v", err)
	}
	return acct.NumVotes
}

func TestLifecycleScenarios(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	// Scenario A
	sym := env.CreateTestToken(t, pub, "1000 U")
	mint(t, env, alice, "50 U")

	reg, err := env.Service.Token(ctx, "U")
	if err != nil {
		t.Fatalf("Failed to load token: %v", err)
	}
	if reg.Supply.Amount != 50 {
		t.Errorf("Expected supply 50, got %d", reg.Supply.Amount)
	}
	if got := env.Balance(t, alice, sym); got != 50 {
		t.Errorf("Expected alice balance 50, got %d", got)
	}
	env.CheckInvariants(t)

	// Scenario B
	env.CreateTestBallot(t, pub, "budget", sym, 2, "a", "b")
	err = env.Try(pub, command.ReadyBallot{
		BallotName: "budget", Publisher: pub, EndTime: env.Clock.Now().Add(48 * time.Hour),
	})
	if !apperr.Is(err, apperr.KindTiming) {
		t.Fatalf("Expected timing error for 2-day ballot, got %v", err)
	}
	end := env.Clock.Now().Add(96 * time.Hour)
	env.Do(t, pub, command.ReadyBallot{BallotName: "budget", Publisher: pub, EndTime: end})

	b, err := env.Service.Ballot(ctx, "budget")
	if err != nil {
		t.Fatalf("Failed to load ballot: %v", err)
	}
	if b.Status != models.StatusOpen {
		t.Errorf("Expected status open, got %s", b.Status)
	}
	if !b.BeginTime.Equal(env.Clock.Now()) || !b.EndTime.Equal(end) {
		t.Errorf("Expected window %v..%v, got %v..%v", env.Clock.Now(), end, b.BeginTime, b.EndTime)
	}

	// Scenario C
	env.Do(t, alice, command.CastVote{Voter: alice, BallotName: "budget", OptionName: "a"})
	if got := env.Tally(t, "budget", "a"); got != 50 {
		t.Errorf("Expected tally 50, got %d", got)
	}
	recs := receipts(t, env, alice)
	if len(recs) != 1 || recs[0].Amount.Amount != 50 || !recs[0].Expiration.Equal(end) {
		t.Fatalf("Expected one receipt of 50 expiring %v, got %+v", end, recs)
	}
	b, _ = env.Service.Ballot(ctx, "budget")
	if b.UniqueVoters != 1 {
		t.Errorf("Expected 1 unique voter, got %d", b.UniqueVoters)
	}
	env.CheckInvariants(t)

	// Scenario D
	mint(t, env, alice, "20 U")
	if got := env.Tally(t, "budget", "a"); got != 70 {
		t.Errorf("Expected tally 70 after mint, got %d", got)
	}
	if recs := receipts(t, env, alice); recs[0].Amount.Amount != 70 {
		t.Errorf("Expected recorded amount 70, got %d", recs[0].Amount.Amount)
	}
	env.CheckInvariants(t)

	// Scenario E
	env.Do(t, alice, command.RetractVote{Voter: alice, BallotName: "budget", OptionName: "a"})
	if got := env.Tally(t, "budget", "a"); got != 0 {
		t.Errorf("Expected tally 0 after retract, got %d", got)
	}
	if recs := receipts(t, env, alice); len(recs) != 0 {
		t.Errorf("Expected receipt deleted, got %+v", recs)
	}
	if got := numVotes(t, env, alice, sym); got != 0 {
		t.Errorf("Expected 0 outstanding votes, got %d", got)
	}
	env.CheckInvariants(t)

	// Scenario F
	env.Do(t, alice, command.CastVote{Voter: alice, BallotName: "budget", OptionName: "b"})
	env.Clock.Set(end.Add(time.Minute))
	env.Do(t, pub, command.CloseBallot{BallotName: "budget", Publisher: pub, Status: models.StatusClosed})

	result := env.Do(t, alice, command.Cleanup{Voter: alice, MaxCount: 10, Symbol: sym})
	if got := result.(models.CountResult).Removed; got != 1 {
		t.Errorf("Expected first cleanup to remove 1, got %d", got)
	}
	result = env.Do(t, alice, command.Cleanup{Voter: alice, MaxCount: 10, Symbol: sym})
	if got := result.(models.CountResult).Removed; got != 0 {
		t.Errorf("Expected second cleanup to remove 0, got %d", got)
	}
	if got := env.Tally(t, "budget", "b"); got != 70 {
		t.Errorf("Expected closed tally to stay 70, got %d", got)
	}
	env.CheckInvariants(t)
}

func TestRebalanceRoundTrip(t *testing.T) {
	env := testutil.NewEnv(t)
	sym := env.CreateTestToken(t, pub, "1000.00 GOV")
	mint(t, env, alice, "100.00 GOV")
	mint(t, env, bob, "10.00 GOV")
	env.OpenTestBallot(t, pub, "one", sym, 2, "x", "y")
	env.OpenTestBallot(t, pub, "two", sym, 1, "z")

	env.Do(t, alice, command.CastVote{Voter: alice, BallotName: "one", OptionName: "x"})
	env.Do(t, alice, command.CastVote{Voter: alice, BallotName: "one", OptionName: "y"})
	env.Do(t, alice, command.CastVote{Voter: alice, BallotName: "two", OptionName: "z"})

	before := map[string]int64{
		"x": env.Tally(t, "one", "x"),
		"y": env.Tally(t, "one", "y"),
		"z": env.Tally(t, "two", "z"),
	}

	// +d then -d through a transfer and its reverse
	amount := testutil.MustAsset(t, "25.50 GOV")
	env.Do(t, alice, command.Transfer{Sender: alice, Recipient: bob, Amount: amount})
	if got := env.Tally(t, "one", "x"); got != before["x"]-2550 {
		t.Errorf("Expected x to drop by 2550, got %d", got)
	}
	env.CheckInvariants(t)

	env.Do(t, bob, command.Transfer{Sender: bob, Recipient: alice, Amount: amount})
	for opt, want := range before {
		ballot := "one"
		if opt == "z" {
			ballot = "two"
		}
		if got := env.Tally(t, ballot, opt); got != want {
			t.Errorf("Option %s: expected %d restored, got %d", opt, want, got)
		}
	}
	for _, rec := range receipts(t, env, alice) {
		if rec.Amount.Amount != 10000 {
			t.Errorf("Receipt %s: expected 10000 recorded, got %d", rec.BallotName, rec.Amount.Amount)
		}
	}

	// Zero delta writes nothing and changes nothing
	env.Do(t, alice, command.Rebalance{Voter: alice})
	if got := env.Tally(t, "one", "x"); got != before["x"] {
		t.Errorf("Expected rebalance no-op, got %d", got)
	}
	env.CheckInvariants(t)
}

func TestStakedVoting(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	if err := env.Service.SetStake(ctx, alice, 400); err != nil {
		t.Fatalf("Failed to set stake: %v", err)
	}
	env.OpenTestBallot(t, pub, "council", models.StakedSymbol, 1, "yes", "no")

	env.Do(t, alice, command.CastVote{Voter: alice, BallotName: "council", OptionName: "yes"})
	if got := env.Tally(t, "council", "yes"); got != 400 {
		t.Errorf("Expected staked weight 400, got %d", got)
	}
	if got := numVotes(t, env, alice, models.StakedSymbol); got != 1 {
		t.Errorf("Expected auto-opened account with 1 vote, got %d", got)
	}

	if err := env.Service.SetStake(ctx, alice, 150); err != nil {
		t.Fatalf("Failed to set stake: %v", err)
	}
	env.Do(t, alice, command.Rebalance{Voter: alice})
	if got := env.Tally(t, "council", "yes"); got != 150 {
		t.Errorf("Expected rebalanced weight 150, got %d", got)
	}

	err := env.Try(pub, command.CreateToken{
		Publisher: pub,
		MaxSupply: models.NewAsset(10, models.StakedSymbol),
	})
	if !apperr.Is(err, apperr.KindInvalidArgument) {
		t.Errorf("Expected VOTE to be reserved, got %v", err)
	}
	env.CheckInvariants(t)
}

func TestReceiptBounds(t *testing.T) {
	env := testutil.NewEnv(t)
	sym := env.CreateTestToken(t, pub, "1000 U")
	mint(t, env, alice, "5 U")

	env.OpenTestBallot(t, pub, "pick", sym, 2, "a", "b", "c")
	env.Do(t, alice, command.CastVote{Voter: alice, BallotName: "pick", OptionName: "a"})
	env.Do(t, alice, command.CastVote{Voter: alice, BallotName: "pick", OptionName: "b"})

	err := env.Try(alice, command.CastVote{Voter: alice, BallotName: "pick", OptionName: "c"})
	if !apperr.Is(err, apperr.KindCapacity) {
		t.Errorf("Expected capacity error for third option, got %v", err)
	}
	err = env.Try(alice, command.CastVote{Voter: alice, BallotName: "pick", OptionName: "a"})
	if !apperr.Is(err, apperr.KindAlreadyExists) {
		t.Errorf("Expected already-exists for repeat option, got %v", err)
	}

	// Fill up to the receipt limit across ballots
	for i := 1; i < models.MaxVoteReceipts; i++ {
		name := "b" + string(rune('a'+i/26)) + string(rune('a'+i%26))
		env.OpenTestBallot(t, pub, name, sym, 1, "x")
		env.Do(t, alice, command.CastVote{Voter: alice, BallotName: name, OptionName: "x"})
	}
	if got := len(receipts(t, env, alice)); got != models.MaxVoteReceipts {
		t.Fatalf("Expected %d receipts, got %d", models.MaxVoteReceipts, got)
	}

	env.OpenTestBallot(t, pub, "overflow", sym, 1, "x")
	err = env.Try(alice, command.CastVote{Voter: alice, BallotName: "overflow", OptionName: "x"})
	if !apperr.Is(err, apperr.KindCapacity) {
		t.Errorf("Expected capacity error past %d receipts, got %v", models.MaxVoteReceipts, err)
	}

	// The limit is on the voter's total, not per unit
	other := env.CreateTestToken(t, pub, "1000 V")
	mint(t, env, alice, "5 V")
	env.OpenTestBallot(t, pub, "other-unit", other, 1, "x")
	err = env.Try(alice, command.CastVote{Voter: alice, BallotName: "other-unit", OptionName: "x"})
	if !apperr.Is(err, apperr.KindCapacity) {
		t.Errorf("Expected capacity error in a second unit, got %v", err)
	}
	env.CheckInvariants(t)
}

func TestFailedActionLeavesNoWrites(t *testing.T) {
	env := testutil.NewEnv(t)
	sym := env.CreateTestToken(t, pub, "100 U")
	mint(t, env, alice, "30 U")
	env.OpenTestBallot(t, pub, "poll", sym, 1, "a")
	env.Do(t, alice, command.CastVote{Voter: alice, BallotName: "poll", OptionName: "a"})

	// Debit succeeds and rebalances, then the credit side fails on a bad
	// principal name; the whole transfer must roll back.
	err := env.Try(alice, command.Transfer{
		Sender: alice, Recipient: "not a principal!", Amount: testutil.MustAsset(t, "10 U"),
	})
	if !apperr.Is(err, apperr.KindInvalidArgument) {
		t.Fatalf("Expected invalid argument, got %v", err)
	}
	if got := env.Balance(t, alice, sym); got != 30 {
		t.Errorf("Expected balance 30 after rollback, got %d", got)
	}
	if got := env.Tally(t, "poll", "a"); got != 30 {
		t.Errorf("Expected tally 30 after rollback, got %d", got)
	}
	env.CheckInvariants(t)
}

func TestDeleteBallotAfterPurge(t *testing.T) {
	env := testutil.NewEnv(t)
	sym := env.CreateTestToken(t, pub, "100 U")
	mint(t, env, alice, "10 U")
	mint(t, env, bob, "10 U")
	end := env.OpenTestBallot(t, pub, "old", sym, 1, "a")
	env.Do(t, alice, command.CastVote{Voter: alice, BallotName: "old", OptionName: "a"})
	env.Do(t, bob, command.CastVote{Voter: bob, BallotName: "old", OptionName: "a"})

	env.Clock.Set(end)
	env.Do(t, pub, command.CloseBallot{BallotName: "old", Publisher: pub, Status: models.StatusArchived})

	err := env.Try(pub, command.DeleteBallot{BallotName: "old", Publisher: pub})
	if !apperr.Is(err, apperr.KindInvalidState) {
		t.Fatalf("Expected delete rejected while receipts exist, got %v", err)
	}

	result := env.Do(t, pub, command.PurgeBallot{BallotName: "old", Publisher: pub, MaxCount: 1})
	if got := result.(models.CountResult).Removed; got != 1 {
		t.Errorf("Expected purge to remove 1, got %d", got)
	}
	env.CheckInvariants(t)
	result = env.Do(t, pub, command.PurgeBallot{BallotName: "old", Publisher: pub, MaxCount: 10})
	if got := result.(models.CountResult).Removed; got != 1 {
		t.Errorf("Expected purge to remove 1, got %d", got)
	}

	env.Do(t, pub, command.DeleteBallot{BallotName: "old", Publisher: pub})
	if _, err := env.Service.Ballot(context.Background(), "old"); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("Expected ballot gone, got %v", err)
	}
	env.CheckInvariants(t)
}

func TestAuthorityRequired(t *testing.T) {
	env := testutil.NewEnv(t)
	sym := env.CreateTestToken(t, pub, "100 U")
	mint(t, env, alice, "10 U")

	tests := []struct {
		name  string
		actor string
		cmd   command.Command
	}{
		{"mint by stranger", bob, command.Mint{Publisher: pub, Recipient: bob, Amount: testutil.MustAsset(t, "1 U")}},
		{"mint naming another publisher", bob, command.Mint{Publisher: bob, Recipient: bob, Amount: testutil.MustAsset(t, "1 U")}},
		{"transfer from another", bob, command.Transfer{Sender: alice, Recipient: bob, Amount: testutil.MustAsset(t, "1 U")}},
		{"open account for another", bob, command.OpenAccount{Owner: alice, Symbol: sym}},
		{"cleanup for another", bob, command.Cleanup{Voter: alice, MaxCount: 1, Symbol: sym}},
		{"rebalance for another", bob, command.Rebalance{Voter: alice}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := env.Try(tt.actor, tt.cmd)
			if !apperr.Is(err, apperr.KindAuthorization) {
				t.Errorf("Expected authorization error, got %v", err)
			}
		})
	}
	env.CheckInvariants(t)
}

func TestAddressSpellingsShareOneIdentity(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	lower := "0xabcdef0123456789abcdef0123456789abcdef01"
	upper := "0x" + strings.ToUpper(lower[2:])

	sym := env.CreateTestToken(t, pub, "1000 U")
	mint(t, env, lower, "50 U")
	env.OpenTestBallot(t, pub, "lunch", sym, 2, "pizza", "tacos")
	env.Do(t, lower, command.CastVote{Voter: lower, BallotName: "lunch", OptionName: "pizza"})

	// Moving funds to another spelling is a transfer to self.
	err := env.Try(lower, command.Transfer{Sender: lower, Recipient: upper, Amount: testutil.MustAsset(t, "25 U")})
	if !apperr.Is(err, apperr.KindInvalidArgument) {
		t.Errorf("Expected transfer to self rejected, got %v", err)
	}

	// Voting again under another spelling hits the same receipt.
	err = env.Try(lower, command.CastVote{Voter: upper, BallotName: "lunch", OptionName: "pizza"})
	if !apperr.Is(err, apperr.KindAlreadyExists) {
		t.Errorf("Expected duplicate selection, got %v", err)
	}
	env.Do(t, upper, command.CastVote{Voter: upper, BallotName: "lunch", OptionName: "tacos"})

	b, err := env.Service.Ballot(ctx, "lunch")
	if err != nil {
		t.Fatalf("Failed to load ballot: %v", err)
	}
	if b.UniqueVoters != 1 {
		t.Errorf("Expected 1 unique voter, got %d", b.UniqueVoters)
	}
	if got := len(receipts(t, env, lower)); got != 1 {
		t.Errorf("Expected 1 receipt for lower spelling, got %d", got)
	}
	if got := len(receipts(t, env, upper)); got != 1 {
		t.Errorf("Expected the same receipt for upper spelling, got %d", got)
	}
	if got := env.Tally(t, "lunch", "tacos"); got != 50 {
		t.Errorf("Expected tacos at the full 50, got %d", got)
	}
	if got := numVotes(t, env, upper, sym); got != 1 {
		t.Errorf("Expected 1 outstanding vote, got %d", got)
	}
	env.CheckInvariants(t)
}

func TestCleanupAll(t *testing.T) {
	env := testutil.NewEnv(t)
	sym := env.CreateTestToken(t, pub, "100 U")
	mint(t, env, alice, "10 U")

	var end time.Time
	for i := 0; i < 30; i++ {
		name := "c" + string(rune('a'+i/26)) + string(rune('a'+i%26))
		end = env.OpenTestBallot(t, pub, name, sym, 1, "x")
		env.Do(t, alice, command.CastVote{Voter: alice, BallotName: name, OptionName: "x"})
	}
	env.Clock.Set(end.Add(time.Second))

	result := env.Do(t, alice, command.CleanupAll{Voter: alice, Symbol: sym})
	if got := result.(models.CountResult).Removed; got != 30 {
		t.Errorf("Expected 30 removed across batches, got %d", got)
	}
	if got := numVotes(t, env, alice, sym); got != 0 {
		t.Errorf("Expected 0 outstanding votes, got %d", got)
	}
	env.CheckInvariants(t)
}
