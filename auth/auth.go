// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/danielhkuo/ballotbox/apperr"
)

var (
	ErrInvalidPrincipalKey = errors.New("invalid principal key")
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrMissingPrincipal    = errors.New("missing principal")
)

// GeneratePrincipalKey creates an HMAC-based key for a principal.
// This is deterministic and verifiable
func GeneratePrincipalKey(principal, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(principal))
	sum := h.Sum(nil)
	// Use URL-safe base64 and trim padding for cleaner keys
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// ValidatePrincipalKey checks if the provided key is valid for the principal
func ValidatePrincipalKey(principal, key, salt string) error {
	expected := GeneratePrincipalKey(principal, salt)
	if !hmac.Equal([]byte(key), []byte(expected)) {
		return ErrInvalidPrincipalKey
	}
	return nil
}

type principalKey struct{}

// WithPrincipal returns a context acting as principal.
func WithPrincipal(ctx context.Context, principal string) context.Context {
	return context.WithValue(ctx, principalKey{}, principal)
}

// PrincipalFrom returns the authenticated principal carried by ctx.
func PrincipalFrom(ctx context.Context) (string, bool) {
	p, ok := ctx.Value(principalKey{}).(string)
	return p, ok && p != ""
}

// Require fails with an authorization error unless ctx acts as principal.
func Require(ctx context.Context, principal string) error {
	actor, ok := PrincipalFrom(ctx)
	if !ok {
		return apperr.Unauthorized(principal, "no authenticated principal")
	}
	if actor == principal {
		return nil
	}
	return apperr.Unauthorized(principal, "missing authority of %s (acting as %s)", principal, actor)
}
