// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the ballotbox API.

# Route Registration

	mux := router.NewRouter(svc, authn)

# Endpoints

Health:

	GET /health

Actions (authenticated with X-Principal plus X-Principal-Key or X-Signature):

	GET  /actions          - List action tags
	POST /actions/{action} - Run one action, e.g. /actions/cast-vote

Reads (public):

	GET /tokens/{symbol}
	GET /accounts/{owner}/{symbol}
	GET /ballots/{name}
	GET /ballots/{name}/results
	GET /voters/{voter}/receipts
*/
package router
