// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package command

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"time"

	"github.com/danielhkuo/ballotbox/apperr"
)

// decoders maps each action tag to a decoder for its variant.
var decoders = map[string]func(dec *json.Decoder) (Command, error){
	"create-token":   decodeAs[CreateToken],
	"mint":           decodeAs[Mint],
	"burn":           decodeAs[Burn],
	"transfer":       decodeAs[Transfer],
	"seize":          decodeAs[Seize],
	"set-max-supply": decodeAs[SetMaxSupply],
	"destroy-token":  decodeAs[DestroyToken],
	"open-account":   decodeAs[OpenAccount],
	"close-account":  decodeAs[CloseAccount],
	"create-ballot":  decodeAs[CreateBallot],
	"set-info":       decodeAs[SetInfo],
	"add-option":     decodeAs[AddOption],
	"ready-ballot":   decodeAs[ReadyBallot],
	"close-ballot":   decodeAs[CloseBallot],
	"delete-ballot":  decodeAs[DeleteBallot],
	"purge-ballot":   decodeAs[PurgeBallot],
	"cast-vote":      decodeAs[CastVote],
	"retract-vote":   decodeAs[RetractVote],
	"rebalance":      decodeAs[Rebalance],
	"cleanup":        decodeAs[Cleanup],
	"cleanup-all":    decodeAs[CleanupAll],
}

func decodeAs[T Command](dec *json.Decoder) (Command, error) {
	var c T
	if err := dec.Decode(&c); err != nil {
		return nil, err
	}
	return c, nil
}

// Actions lists every action tag in sorted order.
func Actions() []string {
	names := make([]string, 0, len(decoders))
	for name := range decoders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Decode parses a JSON body into the variant named by action. Unknown
// actions, unknown fields and malformed values are InvalidArgument errors.
func Decode(action string, body []byte) (Command, error) {
	decode, ok := decoders[action]
	if !ok {
		return nil, apperr.InvalidArgument(action, "unknown action")
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	c, err := decode(dec)
	if err != nil {
		return nil, apperr.InvalidArgument(action, "invalid body: %v", err)
	}
	return c, nil
}

// Dispatch canonicalizes principals in c, validates it and runs it on h.
// A failed action may still return a result describing committed work.
func Dispatch(ctx context.Context, h Handler, c Command) (any, error) {
	c = c.canonical()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := c.apply(ctx, h)
	if err != nil {
		slog.Warn("action failed", "action", c.Action(), "kind", apperr.KindOf(err), "error", err)
		return result, err
	}

	slog.Info("action applied", "action", c.Action(), "duration_ms", time.Since(start).Milliseconds())
	return result, nil
}
