// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth identifies the principal behind a request and checks that an
operation runs with the authority it needs.

# Principal Keys

Principal keys use HMAC-SHA256 to create deterministic, verifiable keys:

	key := auth.GeneratePrincipalKey("alice", salt)
	err := auth.ValidatePrincipalKey("alice", key, salt)

The key is URL-safe base64 encoded without padding. Since it's deterministic,
the same principal and salt always produce the same key, so nothing is
stored.

# Request Signatures

In signature mode the principal is an Ethereum-style address. The client
signs the keccak256 digest of method, path and body with its secp256k1 key
and sends the hex signature in X-Signature:

	sig, err := auth.SignRequest(key, "POST", "/actions/cast-vote", body)

The server recovers the signer and compares it with X-Principal.

# Authority

Middleware stores the authenticated principal in the request context.
Every operation then checks the authority it needs:

	if err := auth.Require(ctx, voter); err != nil {
		return err
	}

Require compares principals exactly. Address principals are first reduced
to their checksum spelling with Canonical, which the authenticators and
command dispatch both apply.
*/
package auth
