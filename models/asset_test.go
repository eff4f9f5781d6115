// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseAsset(t *testing.T) {
	tests := []struct {
		raw    string
		amount int64
		sym    Symbol
	}{
		{"50.00 TEST", 5000, Symbol{Code: "TEST", Precision: 2}},
		{"7 VOTE", 7, Symbol{Code: "VOTE", Precision: 0}},
		{"0.0001 GOV", 1, Symbol{Code: "GOV", Precision: 4}},
		{"  12.5   ABC ", 125, Symbol{Code: "ABC", Precision: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			a, err := ParseAsset(tt.raw)
			if err != nil {
				t.Fatalf("ParseAsset failed: %v", err)
			}
			if a.Amount != tt.amount || a.Symbol != tt.sym {
				t.Errorf("Expected %d %v, got %d %v", tt.amount, tt.sym, a.Amount, a.Symbol)
			}
		})
	}

	for _, raw := range []string{
		"", "TEST", "50.00", "-1.00 TEST", "1. TEST", ".5 TEST", "1.2.3 TEST",
		"1.00 test", "1.00 TOOLONGX", "99999999999999999999 BIG", "1e5 TEST",
	} {
		if _, err := ParseAsset(raw); err == nil {
			t.Errorf("Expected %q to be rejected", raw)
		}
	}
}

func TestAssetString(t *testing.T) {
	sym := Symbol{Code: "TEST", Precision: 2}
	tests := []struct {
		amount int64
		want   string
	}{
		{5000, "50.00 TEST"},
		{5, "0.05 TEST"},
		{0, "0.00 TEST"},
		{-250, "-2.50 TEST"},
	}
	for _, tt := range tests {
		if got := NewAsset(tt.amount, sym).String(); got != tt.want {
			t.Errorf("NewAsset(%d).String() = %q, want %q", tt.amount, got, tt.want)
		}
	}
	if got := NewAsset(42, StakedSymbol).String(); got != "42 VOTE" {
		t.Errorf("Expected 42 VOTE, got %q", got)
	}
}

func TestAssetValid(t *testing.T) {
	sym := Symbol{Code: "TEST", Precision: 2}
	if !NewAsset(MaxAssetAmount, sym).Valid() {
		t.Error("Expected max amount valid")
	}
	if NewAsset(MaxAssetAmount+1, sym).Valid() {
		t.Error("Expected amount above max invalid")
	}
	if NewAsset(1, Symbol{Code: "TEST", Precision: MaxPrecision + 1}).Valid() {
		t.Error("Expected oversized precision invalid")
	}
}

func TestSymbol(t *testing.T) {
	sym, err := ParseSymbol("2,TEST")
	if err != nil || sym != (Symbol{Code: "TEST", Precision: 2}) {
		t.Errorf("Expected 2,TEST, got %v (%v)", sym, err)
	}
	sym, err = ParseSymbol("VOTE")
	if err != nil || sym != StakedSymbol {
		t.Errorf("Expected bare code at precision 0, got %v (%v)", sym, err)
	}
	for _, raw := range []string{"", "x,TEST", "-1,TEST", "19,TEST", "2,test", "2,"} {
		if _, err := ParseSymbol(raw); !errors.Is(err, ErrInvalidSymbol) {
			t.Errorf("Expected %q rejected with ErrInvalidSymbol, got %v", raw, err)
		}
	}
	if got := (Symbol{Code: "GOV", Precision: 4}).String(); got != "4,GOV" {
		t.Errorf("Expected 4,GOV, got %q", got)
	}
}

func TestAssetJSON(t *testing.T) {
	var body struct {
		Amount Asset  `json:"amount"`
		Symbol Symbol `json:"symbol"`
	}
	if err := json.Unmarshal([]byte(`{"amount":"1.50 TEST","symbol":"2,TEST"}`), &body); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if body.Amount.Amount != 150 || body.Symbol != body.Amount.Symbol {
		t.Errorf("Unexpected decode %+v", body)
	}

	out, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(out) != `{"amount":"1.50 TEST","symbol":"2,TEST"}` {
		t.Errorf("Unexpected encoding %s", out)
	}

	if err := json.Unmarshal([]byte(`{"amount":150}`), &body); err == nil {
		t.Error("Expected numeric asset rejected")
	}
}

func TestBallotStatus(t *testing.T) {
	for s := StatusSetup; s <= StatusArchived; s++ {
		parsed, err := ParseBallotStatus(s.String())
		if err != nil || parsed != s {
			t.Errorf("Status %s did not parse back: %v", s, err)
		}
	}
	if StatusOpen.Finished() || StatusSetup.Finished() {
		t.Error("Expected setup and open unfinished")
	}
	if !StatusClosed.Finished() || !StatusArchived.Finished() {
		t.Error("Expected closed and archived finished")
	}
	if _, err := ParseBallotStatus("paused"); err == nil {
		t.Error("Expected unknown status rejected")
	}
}

func TestNames(t *testing.T) {
	for _, name := range []string{"lunch", "q3-budget", "v1.2", "a_b"} {
		if !ValidName(name) {
			t.Errorf("Expected %q valid", name)
		}
	}
	for _, name := range []string{"", "Lunch", "-lead", "has space", "a,b", "thirty-three-characters-long-name"} {
		if ValidName(name) {
			t.Errorf("Expected %q invalid", name)
		}
	}
	if !ValidPrincipal("0xAbC123") || ValidPrincipal("bad/principal") {
		t.Error("Unexpected principal validation")
	}
}
