// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MaxAssetAmount bounds every supply, balance and tally.
const MaxAssetAmount int64 = 1<<62 - 1

// MaxPrecision keeps 10^precision inside an int64.
const MaxPrecision = 18

var (
	ErrInvalidSymbol = errors.New("invalid symbol")
	ErrInvalidAsset  = errors.New("invalid asset")
)

var symbolCodePattern = regexp.MustCompile(`^[A-Z]{1,7}$`)

// Symbol identifies a unit: an uppercase code plus a decimal precision.
type Symbol struct {
	Code      string
	Precision uint8
}

func NewSymbol(code string, precision uint8) (Symbol, error) {
	s := Symbol{Code: code, Precision: precision}
	if !s.Valid() {
		return Symbol{}, fmt.Errorf("%w: %q precision %d", ErrInvalidSymbol, code, precision)
	}
	return s, nil
}

func (s Symbol) Valid() bool {
	return symbolCodePattern.MatchString(s.Code) && s.Precision <= MaxPrecision
}

// String renders "precision,CODE", e.g. "2,TEST".
func (s Symbol) String() string {
	return strconv.Itoa(int(s.Precision)) + "," + s.Code
}

// ParseSymbol accepts "2,TEST" or a bare "TEST" (precision 0).
func ParseSymbol(raw string) (Symbol, error) {
	raw = strings.TrimSpace(raw)
	precision := 0
	code := raw
	if i := strings.IndexByte(raw, ','); i >= 0 {
		p, err := strconv.Atoi(raw[:i])
		if err != nil || p < 0 || p > MaxPrecision {
			return Symbol{}, fmt.Errorf("%w: %q", ErrInvalidSymbol, raw)
		}
		precision = p
		code = raw[i+1:]
	}
	return NewSymbol(code, uint8(precision))
}

func (s Symbol) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Symbol) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseSymbol(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Asset is an amount of a unit in its smallest denomination.
type Asset struct {
	Amount int64
	Symbol Symbol
}

func NewAsset(amount int64, sym Symbol) Asset {
	return Asset{Amount: amount, Symbol: sym}
}

// Valid reports whether the amount is within bounds and the symbol is well formed.
func (a Asset) Valid() bool {
	return a.Symbol.Valid() && a.Amount >= -MaxAssetAmount && a.Amount <= MaxAssetAmount
}

// String renders the amount with its precision, e.g. "50.00 TEST".
func (a Asset) String() string {
	amount := a.Amount
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	if a.Symbol.Precision == 0 {
		return sign + strconv.FormatInt(amount, 10) + " " + a.Symbol.Code
	}
	unit := pow10(a.Symbol.Precision)
	frac := strconv.FormatInt(amount%unit, 10)
	frac = strings.Repeat("0", int(a.Symbol.Precision)-len(frac)) + frac
	return sign + strconv.FormatInt(amount/unit, 10) + "." + frac + " " + a.Symbol.Code
}

// ParseAsset parses "50.00 TEST". The number of fractional digits sets the
// symbol precision. Negative amounts are rejected.
func ParseAsset(raw string) (Asset, error) {
	fields := strings.Fields(raw)
	if len(fields) != 2 {
		return Asset{}, fmt.Errorf("%w: %q", ErrInvalidAsset, raw)
	}
	number, code := fields[0], fields[1]

	whole, frac, hasDot := strings.Cut(number, ".")
	if whole == "" || (hasDot && frac == "") || len(frac) > MaxPrecision {
		return Asset{}, fmt.Errorf("%w: %q", ErrInvalidAsset, raw)
	}
	for _, c := range whole + frac {
		if c < '0' || c > '9' {
			return Asset{}, fmt.Errorf("%w: %q", ErrInvalidAsset, raw)
		}
	}

	sym, err := NewSymbol(code, uint8(len(frac)))
	if err != nil {
		return Asset{}, err
	}
	amount, err := strconv.ParseInt(whole+frac, 10, 64)
	if err != nil || amount > MaxAssetAmount {
		return Asset{}, fmt.Errorf("%w: %q out of range", ErrInvalidAsset, raw)
	}
	return Asset{Amount: amount, Symbol: sym}, nil
}

func (a Asset) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Asset) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseAsset(raw)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func pow10(p uint8) int64 {
	n := int64(1)
	for i := uint8(0); i < p; i++ {
		n *= 10
	}
	return n
}
