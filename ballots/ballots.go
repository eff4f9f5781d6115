// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballots

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/ballotbox/apperr"
	"github.com/danielhkuo/ballotbox/auth"
	"github.com/danielhkuo/ballotbox/clock"
	"github.com/danielhkuo/ballotbox/models"
	"github.com/danielhkuo/ballotbox/store"
)

// Manager runs the ballot lifecycle: setup -> open -> closed | archived.
type Manager struct {
	clock clock.Clock
}

func New(c clock.Clock) *Manager {
	return &Manager{clock: c}
}

// NewBallot holds the fields of a ballot in setup.
type NewBallot struct {
	Name              string
	Category          string
	Publisher         string
	Title             string
	Description       string
	InfoURL           string
	MaxVotableOptions uint8
	VotingSymbol      models.Symbol
}

// Create stores a ballot in setup status.
func (m *Manager) Create(ctx context.Context, tx *store.Tx, nb NewBallot) (models.Ballot, error) {
	if err := auth.Require(ctx, nb.Publisher); err != nil {
		return models.Ballot{}, err
	}
	if !models.ValidName(nb.Name) {
		return models.Ballot{}, apperr.InvalidArgument(nb.Name, "invalid ballot name")
	}
	if !models.ValidName(nb.Category) {
		return models.Ballot{}, apperr.InvalidArgument(nb.Name, "invalid category %q", nb.Category)
	}
	if nb.MaxVotableOptions < 1 || nb.MaxVotableOptions > models.MaxBallotOptions {
		return models.Ballot{}, apperr.InvalidArgument(nb.Name, "max votable options must be between 1 and %d", models.MaxBallotOptions)
	}

	reg, err := tx.Registries.Get(ctx, nb.VotingSymbol.Code)
	if err != nil {
		return models.Ballot{}, err
	}
	if reg.Symbol() != nb.VotingSymbol {
		return models.Ballot{}, apperr.InvalidArgument(nb.Name, "voting symbol %s does not match registry %s", nb.VotingSymbol, reg.Symbol())
	}

	exists, err := tx.Ballots.Exists(ctx, nb.Name)
	if err != nil {
		return models.Ballot{}, err
	}
	if exists {
		return models.Ballot{}, apperr.AlreadyExists(nb.Name, "ballot already exists")
	}

	b := models.Ballot{
		Name:              nb.Name,
		Category:          nb.Category,
		Publisher:         nb.Publisher,
		Title:             nb.Title,
		Description:       nb.Description,
		InfoURL:           nb.InfoURL,
		Options:           []models.Option{},
		MaxVotableOptions: nb.MaxVotableOptions,
		VotingSymbol:      nb.VotingSymbol,
		Status:            models.StatusSetup,
	}
	if err := tx.Ballots.Insert(ctx, b); err != nil {
		return models.Ballot{}, err
	}

	slog.Info("ballot created", "ballot", b.Name, "publisher", b.Publisher, "symbol", b.VotingSymbol.String())
	return b, nil
}

// publisherBallot loads a ballot and checks publisher signed and owns it.
func publisherBallot(ctx context.Context, tx *store.Tx, name, publisher string) (models.Ballot, error) {
	if err := auth.Require(ctx, publisher); err != nil {
		return models.Ballot{}, err
	}
	b, err := tx.Ballots.Get(ctx, name)
	if err != nil {
		return models.Ballot{}, err
	}
	if b.Publisher != publisher {
		return models.Ballot{}, apperr.Unauthorized(name, "only publisher %s may manage this ballot", b.Publisher)
	}
	return b, nil
}

func requireSetup(b models.Ballot) error {
	if b.Status != models.StatusSetup {
		return apperr.InvalidState(b.Name, "ballot is %s; only ballots in setup can be modified", b.Status)
	}
	return nil
}

// SetInfo replaces the ballot's descriptive text.
func (m *Manager) SetInfo(ctx context.Context, tx *store.Tx, name, publisher, title, description, infoURL string) error {
	b, err := publisherBallot(ctx, tx, name, publisher)
	if err != nil {
		return err
	}
	if err := requireSetup(b); err != nil {
		return err
	}

	b.Title = title
	b.Description = description
	b.InfoURL = infoURL
	if err := tx.Ballots.Update(ctx, b); err != nil {
		return err
	}

	slog.Info("ballot info updated", "ballot", name)
	return nil
}

// AddOption appends a uniquely named option.
func (m *Manager) AddOption(ctx context.Context, tx *store.Tx, name, publisher, option, info string) error {
	b, err := publisherBallot(ctx, tx, name, publisher)
	if err != nil {
		return err
	}
	if err := requireSetup(b); err != nil {
		return err
	}
	if !models.ValidName(option) {
		return apperr.InvalidArgument(name+"/"+option, "invalid option name")
	}
	if b.OptionIndex(option) >= 0 {
		return apperr.AlreadyExists(name+"/"+option, "option already on ballot")
	}
	if len(b.Options) >= models.MaxBallotOptions {
		return apperr.Capacity(name, "ballot already has %d options", len(b.Options))
	}

	b.Options = append(b.Options, models.Option{
		Name:  option,
		Info:  info,
		Votes: models.NewAsset(0, b.VotingSymbol),
	})
	if err := tx.Ballots.Update(ctx, b); err != nil {
		return err
	}

	slog.Info("option added", "ballot", name, "option", option)
	return nil
}

// Ready opens the ballot for voting now, until endTime.
func (m *Manager) Ready(ctx context.Context, tx *store.Tx, name, publisher string, endTime time.Time) error {
	b, err := publisherBallot(ctx, tx, name, publisher)
	if err != nil {
		return err
	}
	if err := requireSetup(b); err != nil {
		return err
	}

	now := m.clock.Now()
	endTime = endTime.UTC().Truncate(time.Second)
	if !endTime.After(now) {
		return apperr.Timing(name, "end time must be after begin time")
	}
	if endTime.Sub(now) < models.MinBallotLength {
		return apperr.Timing(name, "ballot must run at least %s", span(models.MinBallotLength))
	}
	if endTime.Before(now.Add(models.MinCloseLength)) {
		return apperr.Timing(name, "end time %s is too soon; ballots must stay open at least %s",
			humanize.RelTime(endTime, now, "ago", "from now"), span(models.MinCloseLength))
	}

	b.BeginTime = now
	b.EndTime = endTime
	b.Status = models.StatusOpen
	if err := tx.Ballots.Update(ctx, b); err != nil {
		return err
	}

	slog.Info("ballot opened", "ballot", name, "begin_time", now, "end_time", endTime)
	return nil
}

// Close finishes an open ballot once its end time has passed.
func (m *Manager) Close(ctx context.Context, tx *store.Tx, name, publisher string, newStatus models.BallotStatus) error {
	b, err := publisherBallot(ctx, tx, name, publisher)
	if err != nil {
		return err
	}
	if b.Status != models.StatusOpen {
		return apperr.InvalidState(name, "ballot is %s, not open", b.Status)
	}
	if !newStatus.Finished() {
		return apperr.InvalidState(name, "cannot close ballot into status %s", newStatus)
	}
	now := m.clock.Now()
	if now.Before(b.EndTime) {
		return apperr.Timing(name, "ballot ends %s", humanize.RelTime(b.EndTime, now, "ago", "from now"))
	}

	b.Status = newStatus
	if err := tx.Ballots.Update(ctx, b); err != nil {
		return err
	}

	slog.Info("ballot closed", "ballot", name, "status", newStatus.String())
	return nil
}

// Delete removes a ballot in setup or archived status. Receipts referencing
// the ballot must be swept first.
func (m *Manager) Delete(ctx context.Context, tx *store.Tx, name, publisher string) error {
	b, err := publisherBallot(ctx, tx, name, publisher)
	if err != nil {
		return err
	}
	if b.Status != models.StatusSetup && b.Status != models.StatusArchived {
		return apperr.InvalidState(name, "ballot is %s; only setup or archived ballots can be deleted", b.Status)
	}

	outstanding, err := tx.Receipts.CountByBallot(ctx, name)
	if err != nil {
		return err
	}
	if outstanding > 0 {
		return apperr.InvalidState(name, "ballot still has %d vote receipts; purge them first", outstanding)
	}

	if err := tx.Ballots.Delete(ctx, name); err != nil {
		return err
	}

	slog.Info("ballot deleted", "ballot", name, "publisher", publisher)
	return nil
}

// span renders a duration like "3 days".
func span(d time.Duration) string {
	epoch := time.Unix(0, 0)
	return strings.TrimSpace(humanize.RelTime(epoch, epoch.Add(d), "", ""))
}

// Results ranks a ballot's options by tally. Equal tallies keep option order.
func Results(ctx context.Context, tx *store.Tx, name string) (models.BallotResults, error) {
	b, err := tx.Ballots.Get(ctx, name)
	if err != nil {
		return models.BallotResults{}, err
	}

	options := make([]models.Option, len(b.Options))
	copy(options, b.Options)
	sort.SliceStable(options, func(i, j int) bool {
		return options[i].Votes.Amount > options[j].Votes.Amount
	})

	rankings := make([]models.OptionRank, len(options))
	for i, opt := range options {
		rankings[i] = models.OptionRank{
			Name:  opt.Name,
			Info:  opt.Info,
			Votes: opt.Votes,
			Rank:  i + 1,
		}
	}

	return models.BallotResults{
		BallotName:   b.Name,
		Status:       b.Status,
		UniqueVoters: b.UniqueVoters,
		Rankings:     rankings,
	}, nil
}
