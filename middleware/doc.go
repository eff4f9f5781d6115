// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Each request gets an X-Request-ID (a client-supplied UUID is kept) that
appears in every log line and in action responses.

# Authentication

WithAuth reads the body once, hands it to an auth.Authenticator and puts
the principal in the request context:

	middleware.WithLogging(middleware.WithAuth(authn, handler))

# Errors

DomainError maps apperr kinds to statuses:

	not_found                       404
	authorization                   401
	invalid_argument                400
	timing                          422
	invalid_state, already_exists,
	invariant_violation,
	setting_disabled, capacity      409

Anything else is a logged 500.

# CORS Middleware

	server := http.Server{
		Handler: middleware.CORS(mux),
	}
*/
package middleware
