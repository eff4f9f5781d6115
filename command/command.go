// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package command

import (
	"context"
	"time"

	"github.com/danielhkuo/ballotbox/apperr"
	"github.com/danielhkuo/ballotbox/models"
)

// Command is one public action. The set is closed: only this package can
// add variants, and every variant reaches exactly one Handler method.
type Command interface {
	Action() string
	Validate() error
	canonical() Command
	apply(ctx context.Context, h Handler) (any, error)
}

// Handler executes commands. Adding a variant adds a method here, so an
// implementation that misses one fails to compile.
type Handler interface {
	CreateToken(ctx context.Context, c CreateToken) (any, error)
	Mint(ctx context.Context, c Mint) (any, error)
	Burn(ctx context.Context, c Burn) (any, error)
	Transfer(ctx context.Context, c Transfer) (any, error)
	Seize(ctx context.Context, c Seize) (any, error)
	SetMaxSupply(ctx context.Context, c SetMaxSupply) (any, error)
	DestroyToken(ctx context.Context, c DestroyToken) (any, error)
	OpenAccount(ctx context.Context, c OpenAccount) (any, error)
	CloseAccount(ctx context.Context, c CloseAccount) (any, error)

	CreateBallot(ctx context.Context, c CreateBallot) (any, error)
	SetInfo(ctx context.Context, c SetInfo) (any, error)
	AddOption(ctx context.Context, c AddOption) (any, error)
	ReadyBallot(ctx context.Context, c ReadyBallot) (any, error)
	CloseBallot(ctx context.Context, c CloseBallot) (any, error)
	DeleteBallot(ctx context.Context, c DeleteBallot) (any, error)
	PurgeBallot(ctx context.Context, c PurgeBallot) (any, error)

	CastVote(ctx context.Context, c CastVote) (any, error)
	RetractVote(ctx context.Context, c RetractVote) (any, error)
	Rebalance(ctx context.Context, c Rebalance) (any, error)

	Cleanup(ctx context.Context, c Cleanup) (any, error)
	CleanupAll(ctx context.Context, c CleanupAll) (any, error)
}

func required(action string, fields ...[2]string) error {
	for _, f := range fields {
		if f[1] == "" {
			return apperr.InvalidArgument(action, "%s is required", f[0])
		}
	}
	return nil
}

func field(name, value string) [2]string {
	return [2]string{name, value}
}

func requireSymbol(action string, sym models.Symbol) error {
	if !sym.Valid() {
		return apperr.InvalidArgument(action, "invalid symbol %q", sym.String())
	}
	return nil
}

func requireAmount(action, name string, a models.Asset) error {
	if !a.Valid() || a.Amount <= 0 {
		return apperr.InvalidArgument(action, "%s must be a positive amount", name)
	}
	return nil
}

// Token registry and accounts

type CreateToken struct {
	Publisher string               `json:"publisher"`
	MaxSupply models.Asset         `json:"max_supply"`
	Settings  models.TokenSettings `json:"settings"`
	InfoURL   string               `json:"info_url"`
}

func (CreateToken) Action() string { return "create-token" }

func (c CreateToken) Validate() error {
	if err := required(c.Action(), field("publisher", c.Publisher)); err != nil {
		return err
	}
	return requireAmount(c.Action(), "max_supply", c.MaxSupply)
}

func (c CreateToken) apply(ctx context.Context, h Handler) (any, error) {
	return h.CreateToken(ctx, c)
}

type Mint struct {
	Publisher string       `json:"publisher"`
	Recipient string       `json:"recipient"`
	Amount    models.Asset `json:"amount"`
}

func (Mint) Action() string { return "mint" }

func (c Mint) Validate() error {
	if err := required(c.Action(), field("publisher", c.Publisher), field("recipient", c.Recipient)); err != nil {
		return err
	}
	return requireAmount(c.Action(), "amount", c.Amount)
}

func (c Mint) apply(ctx context.Context, h Handler) (any, error) { return h.Mint(ctx, c) }

type Burn struct {
	Publisher string       `json:"publisher"`
	Amount    models.Asset `json:"amount"`
}

func (Burn) Action() string { return "burn" }

func (c Burn) Validate() error {
	if err := required(c.Action(), field("publisher", c.Publisher)); err != nil {
		return err
	}
	return requireAmount(c.Action(), "amount", c.Amount)
}

func (c Burn) apply(ctx context.Context, h Handler) (any, error) { return h.Burn(ctx, c) }

type Transfer struct {
	Sender    string       `json:"sender"`
	Recipient string       `json:"recipient"`
	Amount    models.Asset `json:"amount"`
	Memo      string       `json:"memo"`
}

func (Transfer) Action() string { return "transfer" }

func (c Transfer) Validate() error {
	if err := required(c.Action(), field("sender", c.Sender), field("recipient", c.Recipient)); err != nil {
		return err
	}
	return requireAmount(c.Action(), "amount", c.Amount)
}

func (c Transfer) apply(ctx context.Context, h Handler) (any, error) { return h.Transfer(ctx, c) }

type Seize struct {
	Publisher string       `json:"publisher"`
	Owner     string       `json:"owner"`
	Amount    models.Asset `json:"amount"`
}

func (Seize) Action() string { return "seize" }

func (c Seize) Validate() error {
	if err := required(c.Action(), field("publisher", c.Publisher), field("owner", c.Owner)); err != nil {
		return err
	}
	return requireAmount(c.Action(), "amount", c.Amount)
}

func (c Seize) apply(ctx context.Context, h Handler) (any, error) { return h.Seize(ctx, c) }

type SetMaxSupply struct {
	Publisher string       `json:"publisher"`
	MaxSupply models.Asset `json:"max_supply"`
}

func (SetMaxSupply) Action() string { return "set-max-supply" }

func (c SetMaxSupply) Validate() error {
	if err := required(c.Action(), field("publisher", c.Publisher)); err != nil {
		return err
	}
	return requireAmount(c.Action(), "max_supply", c.MaxSupply)
}

func (c SetMaxSupply) apply(ctx context.Context, h Handler) (any, error) {
	return h.SetMaxSupply(ctx, c)
}

type DestroyToken struct {
	Publisher string        `json:"publisher"`
	Symbol    models.Symbol `json:"symbol"`
}

func (DestroyToken) Action() string { return "destroy-token" }

func (c DestroyToken) Validate() error {
	if err := required(c.Action(), field("publisher", c.Publisher)); err != nil {
		return err
	}
	return requireSymbol(c.Action(), c.Symbol)
}

func (c DestroyToken) apply(ctx context.Context, h Handler) (any, error) {
	return h.DestroyToken(ctx, c)
}

type OpenAccount struct {
	Owner  string        `json:"owner"`
	Symbol models.Symbol `json:"symbol"`
}

func (OpenAccount) Action() string { return "open-account" }

func (c OpenAccount) Validate() error {
	if err := required(c.Action(), field("owner", c.Owner)); err != nil {
		return err
	}
	return requireSymbol(c.Action(), c.Symbol)
}

func (c OpenAccount) apply(ctx context.Context, h Handler) (any, error) {
	return h.OpenAccount(ctx, c)
}

type CloseAccount struct {
	Owner  string        `json:"owner"`
	Symbol models.Symbol `json:"symbol"`
}

func (CloseAccount) Action() string { return "close-account" }

func (c CloseAccount) Validate() error {
	if err := required(c.Action(), field("owner", c.Owner)); err != nil {
		return err
	}
	return requireSymbol(c.Action(), c.Symbol)
}

func (c CloseAccount) apply(ctx context.Context, h Handler) (any, error) {
	return h.CloseAccount(ctx, c)
}

// Ballots

type CreateBallot struct {
	BallotName        string        `json:"ballot_name"`
	Category          string        `json:"category"`
	Publisher         string        `json:"publisher"`
	Title             string        `json:"title"`
	Description       string        `json:"description"`
	InfoURL           string        `json:"info_url"`
	MaxVotableOptions uint8         `json:"max_votable_options"`
	VotingSymbol      models.Symbol `json:"voting_symbol"`
}

func (CreateBallot) Action() string { return "create-ballot" }

func (c CreateBallot) Validate() error {
	if err := required(c.Action(),
		field("ballot_name", c.BallotName),
		field("category", c.Category),
		field("publisher", c.Publisher),
	); err != nil {
		return err
	}
	return requireSymbol(c.Action(), c.VotingSymbol)
}

func (c CreateBallot) apply(ctx context.Context, h Handler) (any, error) {
	return h.CreateBallot(ctx, c)
}

type SetInfo struct {
	BallotName  string `json:"ballot_name"`
	Publisher   string `json:"publisher"`
	Title       string `json:"title"`
	Description string `json:"description"`
	InfoURL     string `json:"info_url"`
}

func (SetInfo) Action() string { return "set-info" }

func (c SetInfo) Validate() error {
	return required(c.Action(), field("ballot_name", c.BallotName), field("publisher", c.Publisher))
}

func (c SetInfo) apply(ctx context.Context, h Handler) (any, error) { return h.SetInfo(ctx, c) }

type AddOption struct {
	BallotName string `json:"ballot_name"`
	Publisher  string `json:"publisher"`
	OptionName string `json:"option_name"`
	Info       string `json:"info"`
}

func (AddOption) Action() string { return "add-option" }

func (c AddOption) Validate() error {
	return required(c.Action(),
		field("ballot_name", c.BallotName),
		field("publisher", c.Publisher),
		field("option_name", c.OptionName),
	)
}

func (c AddOption) apply(ctx context.Context, h Handler) (any, error) { return h.AddOption(ctx, c) }

type ReadyBallot struct {
	BallotName string    `json:"ballot_name"`
	Publisher  string    `json:"publisher"`
	EndTime    time.Time `json:"end_time"`
}

func (ReadyBallot) Action() string { return "ready-ballot" }

func (c ReadyBallot) Validate() error {
	if err := required(c.Action(), field("ballot_name", c.BallotName), field("publisher", c.Publisher)); err != nil {
		return err
	}
	if c.EndTime.IsZero() {
		return apperr.InvalidArgument(c.Action(), "end_time is required")
	}
	return nil
}

func (c ReadyBallot) apply(ctx context.Context, h Handler) (any, error) {
	return h.ReadyBallot(ctx, c)
}

type CloseBallot struct {
	BallotName string              `json:"ballot_name"`
	Publisher  string              `json:"publisher"`
	Status     models.BallotStatus `json:"status"`
}

func (CloseBallot) Action() string { return "close-ballot" }

func (c CloseBallot) Validate() error {
	return required(c.Action(), field("ballot_name", c.BallotName), field("publisher", c.Publisher))
}

func (c CloseBallot) apply(ctx context.Context, h Handler) (any, error) {
	return h.CloseBallot(ctx, c)
}

type DeleteBallot struct {
	BallotName string `json:"ballot_name"`
	Publisher  string `json:"publisher"`
}

func (DeleteBallot) Action() string { return "delete-ballot" }

func (c DeleteBallot) Validate() error {
	return required(c.Action(), field("ballot_name", c.BallotName), field("publisher", c.Publisher))
}

func (c DeleteBallot) apply(ctx context.Context, h Handler) (any, error) {
	return h.DeleteBallot(ctx, c)
}

type PurgeBallot struct {
	BallotName string `json:"ballot_name"`
	Publisher  string `json:"publisher"`
	MaxCount   int    `json:"max_count"`
}

func (PurgeBallot) Action() string { return "purge-ballot" }

func (c PurgeBallot) Validate() error {
	return required(c.Action(), field("ballot_name", c.BallotName), field("publisher", c.Publisher))
}

func (c PurgeBallot) apply(ctx context.Context, h Handler) (any, error) {
	return h.PurgeBallot(ctx, c)
}

// Votes

type CastVote struct {
	Voter      string `json:"voter"`
	BallotName string `json:"ballot_name"`
	OptionName string `json:"option_name"`
}

func (CastVote) Action() string { return "cast-vote" }

func (c CastVote) Validate() error {
	return required(c.Action(),
		field("voter", c.Voter),
		field("ballot_name", c.BallotName),
		field("option_name", c.OptionName),
	)
}

func (c CastVote) apply(ctx context.Context, h Handler) (any, error) { return h.CastVote(ctx, c) }

type RetractVote struct {
	Voter      string `json:"voter"`
	BallotName string `json:"ballot_name"`
	OptionName string `json:"option_name"`
}

func (RetractVote) Action() string { return "retract-vote" }

func (c RetractVote) Validate() error {
	return required(c.Action(),
		field("voter", c.Voter),
		field("ballot_name", c.BallotName),
		field("option_name", c.OptionName),
	)
}

func (c RetractVote) apply(ctx context.Context, h Handler) (any, error) {
	return h.RetractVote(ctx, c)
}

type Rebalance struct {
	Voter string `json:"voter"`
}

func (Rebalance) Action() string { return "rebalance" }

func (c Rebalance) Validate() error {
	return required(c.Action(), field("voter", c.Voter))
}

func (c Rebalance) apply(ctx context.Context, h Handler) (any, error) { return h.Rebalance(ctx, c) }

// Sweeps

type Cleanup struct {
	Voter    string        `json:"voter"`
	MaxCount int           `json:"max_count"`
	Symbol   models.Symbol `json:"symbol"`
}

func (Cleanup) Action() string { return "cleanup" }

func (c Cleanup) Validate() error {
	if err := required(c.Action(), field("voter", c.Voter)); err != nil {
		return err
	}
	return requireSymbol(c.Action(), c.Symbol)
}

func (c Cleanup) apply(ctx context.Context, h Handler) (any, error) { return h.Cleanup(ctx, c) }

type CleanupAll struct {
	Voter  string        `json:"voter"`
	Symbol models.Symbol `json:"symbol"`
}

func (CleanupAll) Action() string { return "cleanup-all" }

func (c CleanupAll) Validate() error {
	if err := required(c.Action(), field("voter", c.Voter)); err != nil {
		return err
	}
	return requireSymbol(c.Action(), c.Symbol)
}

func (c CleanupAll) apply(ctx context.Context, h Handler) (any, error) {
	return h.CleanupAll(ctx, c)
}
