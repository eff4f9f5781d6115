package models

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"
)

// Ledger limits
const (
	MinBallotLength  = 24 * time.Hour     // 1 day
	MinCloseLength   = 3 * 24 * time.Hour // 3 days
	MaxVoteReceipts  = 51
	MaxBallotOptions = 20
	MaxMemoLength    = 256
	CleanupBatchSize = 25
)

// StakedSymbol is the reserved unit whose voting weight comes from the
// staking subsystem instead of a transferable balance.
var StakedSymbol = Symbol{Code: "VOTE", Precision: 0}

var (
	namePattern      = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{0,31}$`)
	principalPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)
)

// ValidName checks ballot, option and category names.
func ValidName(s string) bool {
	return namePattern.MatchString(s)
}

// ValidPrincipal checks account identities.
func ValidPrincipal(s string) bool {
	return principalPattern.MatchString(s)
}

// Ballot status

type BallotStatus uint8

const (
	StatusSetup BallotStatus = iota
	StatusOpen
	StatusClosed
	StatusArchived
)

func (s BallotStatus) String() string {
	switch s {
	case StatusSetup:
		return "setup"
	case StatusOpen:
		return "open"
	case StatusClosed:
		return "closed"
	case StatusArchived:
		return "archived"
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

func ParseBallotStatus(raw string) (BallotStatus, error) {
	for s := StatusSetup; s <= StatusArchived; s++ {
		if s.String() == raw {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown ballot status %q", raw)
}

// Finished reports whether the ballot no longer accepts tally changes.
func (s BallotStatus) Finished() bool {
	return s == StatusClosed || s == StatusArchived
}

func (s BallotStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *BallotStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseBallotStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Domain types

type TokenSettings struct {
	Destructible bool `json:"destructible"`
	Proxyable    bool `json:"proxyable"`
	Burnable     bool `json:"burnable"`
	Seizable     bool `json:"seizable"`
	MaxMutable   bool `json:"max_mutable"`
	Transferable bool `json:"transferable"`
}

type Registry struct {
	Supply       Asset         `json:"supply"`
	MaxSupply    Asset         `json:"max_supply"`
	Publisher    string        `json:"publisher"`
	TotalVoters  uint32        `json:"total_voters"`
	TotalProxies uint32        `json:"total_proxies"`
	Settings     TokenSettings `json:"settings"`
	InfoURL      string        `json:"info_url"`
}

func (r Registry) Symbol() Symbol {
	return r.MaxSupply.Symbol
}

type Account struct {
	Owner    string `json:"owner"`
	Balance  Asset  `json:"balance"`
	NumVotes int    `json:"num_votes"`
}

type Option struct {
	Name  string `json:"name"`
	Info  string `json:"info"`
	Votes Asset  `json:"votes"`
}

type Ballot struct {
	Name              string       `json:"ballot_name"`
	Category          string       `json:"category"`
	Publisher         string       `json:"publisher"`
	Title             string       `json:"title"`
	Description       string       `json:"description"`
	InfoURL           string       `json:"info_url"`
	Options           []Option     `json:"options"`
	UniqueVoters      uint32       `json:"unique_voters"`
	MaxVotableOptions uint8        `json:"max_votable_options"`
	VotingSymbol      Symbol       `json:"voting_symbol"`
	BeginTime         time.Time    `json:"begin_time"`
	EndTime           time.Time    `json:"end_time"`
	Status            BallotStatus `json:"status"`
}

// OptionIndex returns the position of the named option, or -1.
func (b *Ballot) OptionIndex(name string) int {
	for i, opt := range b.Options {
		if opt.Name == name {
			return i
		}
	}
	return -1
}

// Receipt records which options a voter chose on a ballot and the weight
// currently applied to each of them.
type Receipt struct {
	Voter       string    `json:"voter"`
	BallotName  string    `json:"ballot_name"`
	OptionNames []string  `json:"option_names"`
	Amount      Asset     `json:"amount"`
	Expiration  time.Time `json:"expiration"`
}

// HasOption reports whether the receipt already selects the option.
func (r *Receipt) HasOption(name string) bool {
	for _, n := range r.OptionNames {
		if n == name {
			return true
		}
	}
	return false
}

// Response types

type ActionResponse struct {
	Action    string `json:"action"`
	RequestID string `json:"request_id,omitempty"`
	Result    any    `json:"result,omitempty"`
}

type CountResult struct {
	Removed int `json:"removed"`
}

type OptionRank struct {
	Name  string `json:"name"`
	Info  string `json:"info"`
	Votes Asset  `json:"votes"`
	Rank  int    `json:"rank"` // 1-indexed ranking
}

type BallotResults struct {
	BallotName   string       `json:"ballot_name"`
	Status       BallotStatus `json:"status"`
	UniqueVoters uint32       `json:"unique_voters"`
	Rankings     []OptionRank `json:"rankings"`
}

type ReceiptList struct {
	Voter    string    `json:"voter"`
	Receipts []Receipt `json:"receipts"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Key     string `json:"key,omitempty"`
	// Result carries work committed before the failure, if any.
	Result any `json:"result,omitempty"`
}
