// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package command_test

import (
	"context"
	"errors"
	"sort"
	"testing"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/danielhkuo/ballotbox/apperr"
	"github.com/danielhkuo/ballotbox/command"
	"github.com/danielhkuo/ballotbox/models"
)

// castOnly handles cast-vote and panics on anything else.
type castOnly struct {
	command.Handler
	got []command.CastVote
	err error
}

func (h *castOnly) CastVote(ctx context.Context, c command.CastVote) (any, error) {
	h.got = append(h.got, c)
	return "ok", h.err
}

func TestActionsSortedAndDecodable(t *testing.T) {
	actions := command.Actions()
	if len(actions) != 21 {
		t.Errorf("Expected 21 actions, got %d", len(actions))
	}
	if !sort.StringsAreSorted(actions) {
		t.Errorf("Expected sorted actions, got %v", actions)
	}
	for _, action := range actions {
		c, err := command.Decode(action, []byte(`{}`))
		if err != nil {
			t.Errorf("Decode(%s, {}) failed: %v", action, err)
			continue
		}
		if c.Action() != action {
			t.Errorf("Decode(%s) produced %s", action, c.Action())
		}
	}
}

func TestDecode(t *testing.T) {
	c, err := command.Decode("transfer", []byte(`{
		"sender": "alice",
		"recipient": "bob",
		"amount": "12.50 TEST",
		"memo": "lunch"
	}`))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	tr, ok := c.(command.Transfer)
	if !ok {
		t.Fatalf("Expected Transfer, got %T", c)
	}
	want := models.NewAsset(1250, models.Symbol{Code: "TEST", Precision: 2})
	if tr.Sender != "alice" || tr.Recipient != "bob" || tr.Amount != want || tr.Memo != "lunch" {
		t.Errorf("Unexpected transfer %+v", tr)
	}

	c, err = command.Decode("ready-ballot", []byte(`{"ballot_name":"x","publisher":"pub","end_time":"2025-01-04T12:00:00Z"}`))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if end := c.(command.ReadyBallot).EndTime; !end.Equal(time.Date(2025, 1, 4, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected end time %v", end)
	}

	c, err = command.Decode("close-ballot", []byte(`{"ballot_name":"x","publisher":"pub","status":"archived"}`))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if status := c.(command.CloseBallot).Status; status != models.StatusArchived {
		t.Errorf("Expected archived, got %s", status)
	}

	tests := []struct {
		name   string
		action string
		body   string
	}{
		{"unknown action", "vote-twice", `{}`},
		{"unknown field", "mint", `{"publisher":"pub","bonus":1}`},
		{"malformed json", "mint", `{"publisher":`},
		{"bad asset", "mint", `{"amount":"12,5 TEST"}`},
		{"negative asset", "burn", `{"amount":"-1.00 TEST"}`},
		{"bad symbol", "open-account", `{"owner":"a","symbol":"2,lower"}`},
		{"bad status", "close-ballot", `{"status":"paused"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := command.Decode(tt.action, []byte(tt.body)); !apperr.Is(err, apperr.KindInvalidArgument) {
				t.Errorf("Expected invalid argument, got %v", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	sym := models.Symbol{Code: "TEST", Precision: 2}
	amount := models.NewAsset(100, sym)

	tests := []struct {
		name  string
		cmd   command.Command
		valid bool
	}{
		{"mint", command.Mint{Publisher: "pub", Recipient: "alice", Amount: amount}, true},
		{"mint without recipient", command.Mint{Publisher: "pub", Amount: amount}, false},
		{"mint zero", command.Mint{Publisher: "pub", Recipient: "alice", Amount: models.NewAsset(0, sym)}, false},
		{"burn negative", command.Burn{Publisher: "pub", Amount: models.NewAsset(-5, sym)}, false},
		{"transfer without sender", command.Transfer{Recipient: "bob", Amount: amount}, false},
		{"create token without symbol", command.CreateToken{Publisher: "pub", MaxSupply: models.Asset{Amount: 5}}, false},
		{"destroy token", command.DestroyToken{Publisher: "pub", Symbol: sym}, true},
		{"open account bad symbol", command.OpenAccount{Owner: "alice", Symbol: models.Symbol{Code: "bad"}}, false},
		{"create ballot", command.CreateBallot{BallotName: "x", Category: "poll", Publisher: "pub", VotingSymbol: sym}, true},
		{"create ballot without category", command.CreateBallot{BallotName: "x", Publisher: "pub", VotingSymbol: sym}, false},
		{"ready without end", command.ReadyBallot{BallotName: "x", Publisher: "pub"}, false},
		{"add option without name", command.AddOption{BallotName: "x", Publisher: "pub"}, false},
		{"cast vote", command.CastVote{Voter: "alice", BallotName: "x", OptionName: "a"}, true},
		{"retract without option", command.RetractVote{Voter: "alice", BallotName: "x"}, false},
		{"rebalance without voter", command.Rebalance{}, false},
		{"cleanup", command.Cleanup{Voter: "alice", MaxCount: 5, Symbol: sym}, true},
		{"cleanup all without symbol", command.CleanupAll{Voter: "alice"}, false},
		{"purge", command.PurgeBallot{BallotName: "x", Publisher: "pub", MaxCount: 5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if tt.valid && err != nil {
				t.Errorf("Expected valid, got %v", err)
			}
			if !tt.valid && !apperr.Is(err, apperr.KindInvalidArgument) {
				t.Errorf("Expected invalid argument, got %v", err)
			}
		})
	}
}

func TestDispatch(t *testing.T) {
	h := &castOnly{}
	cmd := command.CastVote{Voter: "alice", BallotName: "x", OptionName: "a"}

	result, err := command.Dispatch(context.Background(), h, cmd)
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if result != "ok" || len(h.got) != 1 || h.got[0] != cmd {
		t.Errorf("Expected one routed cast-vote, got %v / %+v", result, h.got)
	}

	// Invalid commands never reach the handler.
	if _, err := command.Dispatch(context.Background(), h, command.CastVote{Voter: "alice"}); err == nil {
		t.Error("Expected validation error")
	}
	if len(h.got) != 1 {
		t.Errorf("Expected handler untouched, got %d calls", len(h.got))
	}

	h.err = apperr.Timing("x", "voting window ended")
	result, err = command.Dispatch(context.Background(), h, cmd)
	var domainErr *apperr.Error
	if !errors.As(err, &domainErr) || domainErr.Kind != apperr.KindTiming {
		t.Errorf("Expected handler error returned unchanged, got %v", err)
	}
	if result != "ok" {
		t.Errorf("Expected handler result kept alongside the error, got %v", result)
	}
}

func TestDispatchCanonicalizesAddresses(t *testing.T) {
	checksum := common.HexToAddress("0xabcdef0123456789abcdef0123456789abcdef01").Hex()

	testCases := []struct {
		name  string
		voter string
		want  string
	}{
		{"lowercase address", strings.ToLower(checksum), checksum},
		{"uppercase address", "0x" + strings.ToUpper(checksum[2:]), checksum},
		{"checksum address", checksum, checksum},
		{"plain name untouched", "Alice", "Alice"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := &castOnly{}
			cmd := command.CastVote{Voter: tc.voter, BallotName: "x", OptionName: "a"}
			if _, err := command.Dispatch(context.Background(), h, cmd); err != nil {
				t.Fatalf("Dispatch failed: %v", err)
			}
			if got := h.got[0].Voter; got != tc.want {
				t.Errorf("Expected voter %s, got %s", tc.want, got)
			}
		})
	}
}
