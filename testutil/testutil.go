// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/danielhkuo/ballotbox/auth"
	"github.com/danielhkuo/ballotbox/cliparse"
	"github.com/danielhkuo/ballotbox/clock"
	"github.com/danielhkuo/ballotbox/command"
	"github.com/danielhkuo/ballotbox/db"
	"github.com/danielhkuo/ballotbox/models"
	"github.com/danielhkuo/ballotbox/service"
	"github.com/danielhkuo/ballotbox/store"
)

// TestKeySalt signs principal keys in tests
const TestKeySalt = "test-principal-salt"

// Epoch is the manual clock's starting time
var Epoch = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

// SetupTestDB opens a private in-memory SQLite database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sql.Open(db.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// Each connection to :memory: is its own database.
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:             3318,
		DatabaseURL:      ":memory:",
		DatabaseType:     db.DriverSQLite,
		AuthMode:         cliparse.AuthModeKey,
		PrincipalKeySalt: TestKeySalt,
	}
}

// As returns a context acting with principal's authority, resolved to
// canonical form the way the authenticators resolve it
func As(principal string) context.Context {
	return auth.WithPrincipal(context.Background(), auth.Canonical(principal))
}

// MustRun runs fn in a transaction and fails the test on error
func MustRun(t *testing.T, conn *sql.DB, fn func(tx *store.Tx) error) {
	t.Helper()
	if err := store.Run(context.Background(), conn, fn); err != nil {
		t.Fatalf("Transaction failed: %v", err)
	}
}

// MustAsset parses "50.00 TEST"
func MustAsset(t *testing.T, raw string) models.Asset {
	t.Helper()
	a, err := models.ParseAsset(raw)
	if err != nil {
		t.Fatalf("Bad asset %q: %v", raw, err)
	}
	return a
}

// AllSettings enables every token setting
func AllSettings() models.TokenSettings {
	return models.TokenSettings{
		Destructible: true,
		Proxyable:    true,
		Burnable:     true,
		Seizable:     true,
		MaxMutable:   true,
		Transferable: true,
	}
}

// Env is a service over a fresh database and a manual clock
type Env struct {
	DB      *sql.DB
	Clock   *clock.Manual
	Service *service.Service
}

func NewEnv(t *testing.T) *Env {
	t.Helper()

	conn := SetupTestDB(t)
	clk := clock.NewManual(Epoch)
	svc, err := service.New(context.Background(), conn, clk)
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}
	return &Env{DB: conn, Clock: clk, Service: svc}
}

// Try dispatches c acting as principal
func (e *Env) Try(principal string, c command.Command) error {
	_, err := command.Dispatch(As(principal), e.Service, c)
	return err
}

// Do dispatches c acting as principal and fails the test on error
func (e *Env) Do(t *testing.T, principal string, c command.Command) any {
	t.Helper()
	result, err := command.Dispatch(As(principal), e.Service, c)
	if err != nil {
		t.Fatalf("%s as %s failed: %v", c.Action(), principal, err)
	}
	return result
}

// CreateTestToken creates a token with every setting enabled
func (e *Env) CreateTestToken(t *testing.T, publisher, maxSupply string) models.Symbol {
	t.Helper()
	limit := MustAsset(t, maxSupply)
	e.Do(t, publisher, command.CreateToken{
		Publisher: publisher,
		MaxSupply: limit,
		Settings:  AllSettings(),
	})
	return limit.Symbol
}

// CreateTestBallot creates a ballot in setup with the given options
func (e *Env) CreateTestBallot(t *testing.T, publisher, name string, sym models.Symbol, maxOptions uint8, options ...string) {
	t.Helper()
	e.Do(t, publisher, command.CreateBallot{
		BallotName:        name,
		Category:          "poll",
		Publisher:         publisher,
		Title:             "Test Ballot",
		MaxVotableOptions: maxOptions,
		VotingSymbol:      sym,
	})
	for _, opt := range options {
		e.Do(t, publisher, command.AddOption{BallotName: name, Publisher: publisher, OptionName: opt})
	}
}

// OpenTestBallot creates a ballot and readies it to end MinCloseLength from now
func (e *Env) OpenTestBallot(t *testing.T, publisher, name string, sym models.Symbol, maxOptions uint8, options ...string) time.Time {
	t.Helper()
	e.CreateTestBallot(t, publisher, name, sym, maxOptions, options...)
	end := e.Clock.Now().Add(models.MinCloseLength)
	e.Do(t, publisher, command.ReadyBallot{BallotName: name, Publisher: publisher, EndTime: end})
	return end
}

// Balance returns owner's balance in the unit, or 0 without an account
func (e *Env) Balance(t *testing.T, owner string, sym models.Symbol) int64 {
	t.Helper()
	acct, err := e.Service.Account(context.Background(), owner, sym.Code)
	if err != nil {
		return 0
	}
	return acct.Balance.Amount
}

// Tally returns an option's current votes
func (e *Env) Tally(t *testing.T, ballot, option string) int64 {
	t.Helper()
	b, err := e.Service.Ballot(context.Background(), ballot)
	if err != nil {
		t.Fatalf("Failed to load ballot %s: %v", ballot, err)
	}
	idx := b.OptionIndex(option)
	if idx < 0 {
		t.Fatalf("Ballot %s has no option %s", ballot, option)
	}
	return b.Options[idx].Votes.Amount
}

// CheckInvariants verifies the cross-table invariants: balances sum to
// supply, every account's vote counter matches its receipts, and every
// live open ballot's tallies equal the recorded weights selecting them.
func (e *Env) CheckInvariants(t *testing.T) {
	t.Helper()

	rows, err := e.DB.Query(`
		SELECT r.symbol_code, r.supply, COALESCE(SUM(a.balance), 0)
		FROM registry r LEFT JOIN account a ON a.symbol_code = r.symbol_code
		GROUP BY r.symbol_code, r.supply
	`)
	if err != nil {
		t.Fatalf("Failed to query supply: %v", err)
	}
	for rows.Next() {
		var code string
		var supply, sum int64
		if err := rows.Scan(&code, &supply, &sum); err != nil {
			t.Fatalf("Failed to scan supply: %v", err)
		}
		if supply != sum {
			t.Errorf("%s: supply %d but balances sum to %d", code, supply, sum)
		}
	}
	rows.Close()

	rows, err = e.DB.Query(`
		SELECT a.owner, a.symbol_code, a.num_votes,
		       (SELECT COUNT(*) FROM vote_receipt v WHERE v.voter = a.owner AND v.symbol_code = a.symbol_code)
		FROM account a
	`)
	if err != nil {
		t.Fatalf("Failed to query vote counters: %v", err)
	}
	for rows.Next() {
		var owner, code string
		var counter, receipts int
		if err := rows.Scan(&owner, &code, &counter, &receipts); err != nil {
			t.Fatalf("Failed to scan vote counter: %v", err)
		}
		if counter != receipts {
			t.Errorf("%s/%s: num_votes %d but %d receipts", owner, code, counter, receipts)
		}
	}
	rows.Close()

	// Only live ballots: sweeps on finished or expired ballots leave tallies alone.
	rows, err = e.DB.Query(`
		SELECT ballot_name FROM ballot WHERE status = $1 AND end_time > $2
	`, int(models.StatusOpen), e.Clock.Now().Unix())
	if err != nil {
		t.Fatalf("Failed to query ballots: %v", err)
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("Failed to scan ballot: %v", err)
		}
		names = append(names, name)
	}
	rows.Close()

	for _, name := range names {
		var b models.Ballot
		var receipts []models.Receipt
		MustRun(t, e.DB, func(tx *store.Tx) error {
			var err error
			if b, err = tx.Ballots.Get(context.Background(), name); err != nil {
				return err
			}
			receipts, err = tx.Receipts.ListByBallot(context.Background(), name, models.MaxVoteReceipts*1000)
			return err
		})
		for _, opt := range b.Options {
			var want int64
			for _, rec := range receipts {
				if rec.HasOption(opt.Name) {
					want += rec.Amount.Amount
				}
			}
			if opt.Votes.Amount != want {
				t.Errorf("%s/%s: tally %d but receipts record %d", name, opt.Name, opt.Votes.Amount, want)
			}
		}
	}
}

// AuthHeaders returns key-auth headers for principal
func AuthHeaders(principal string) map[string]string {
	return map[string]string{
		auth.HeaderPrincipal:    principal,
		auth.HeaderPrincipalKey: auth.GeneratePrincipalKey(principal, TestKeySalt),
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
