// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/ballotbox/auth"
	"github.com/danielhkuo/ballotbox/cliparse"
	"github.com/danielhkuo/ballotbox/handlers"
	"github.com/danielhkuo/ballotbox/middleware"
	"github.com/danielhkuo/ballotbox/service"
)

// NewAuthenticator picks the request authenticator for the configured mode.
func NewAuthenticator(cfg cliparse.Config) auth.Authenticator {
	if cfg.AuthMode == cliparse.AuthModeSignature {
		return auth.SignatureAuthenticator{}
	}
	return auth.KeyAuthenticator{Salt: cfg.PrincipalKeySalt}
}

func NewRouter(svc *service.Service, authn auth.Authenticator) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	actionHandler := handlers.NewActionHandler(svc)
	queryHandler := handlers.NewQueryHandler(svc)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Actions (authenticated)
	mux.HandleFunc("GET /actions", middleware.WithLogging(actionHandler.ListActions))
	mux.HandleFunc("POST /actions/{action}",
		middleware.WithLogging(middleware.WithAuth(authn, actionHandler.Perform)))

	// Reads (public)
	mux.HandleFunc("GET /tokens/{symbol}", middleware.WithLogging(queryHandler.GetToken))
	mux.HandleFunc("GET /accounts/{owner}/{symbol}", middleware.WithLogging(queryHandler.GetAccount))
	mux.HandleFunc("GET /ballots/{name}", middleware.WithLogging(queryHandler.GetBallot))
	mux.HandleFunc("GET /ballots/{name}/results", middleware.WithLogging(queryHandler.GetResults))
	mux.HandleFunc("GET /voters/{voter}/receipts", middleware.WithLogging(queryHandler.GetReceipts))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ballotbox API v1"))
	})

	return mux
}
