// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"

	"github.com/danielhkuo/ballotbox/middleware"
	"github.com/danielhkuo/ballotbox/models"
)

// Reader is the read side of the service.
type Reader interface {
	Token(ctx context.Context, code string) (models.Registry, error)
	Account(ctx context.Context, owner, code string) (models.Account, error)
	Ballot(ctx context.Context, name string) (models.Ballot, error)
	Results(ctx context.Context, name string) (models.BallotResults, error)
	Receipts(ctx context.Context, voter string) (models.ReceiptList, error)
}

type QueryHandler struct {
	reader Reader
}

func NewQueryHandler(r Reader) *QueryHandler {
	return &QueryHandler{reader: r}
}

// symbolCode accepts "TEST" or "2,TEST" and returns the code.
func symbolCode(w http.ResponseWriter, raw string) (string, bool) {
	sym, err := models.ParseSymbol(raw)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid symbol")
		return "", false
	}
	return sym.Code, true
}

func respond[T any](w http.ResponseWriter, r *http.Request, v T, err error) {
	if err != nil {
		middleware.DomainError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, v)
}

// GetToken handles GET /tokens/{symbol}
func (h *QueryHandler) GetToken(w http.ResponseWriter, r *http.Request) {
	code, ok := symbolCode(w, r.PathValue("symbol"))
	if !ok {
		return
	}
	reg, err := h.reader.Token(r.Context(), code)
	respond(w, r, reg, err)
}

// GetAccount handles GET /accounts/{owner}/{symbol}
func (h *QueryHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	code, ok := symbolCode(w, r.PathValue("symbol"))
	if !ok {
		return
	}
	acct, err := h.reader.Account(r.Context(), r.PathValue("owner"), code)
	respond(w, r, acct, err)
}

// GetBallot handles GET /ballots/{name}
func (h *QueryHandler) GetBallot(w http.ResponseWriter, r *http.Request) {
	b, err := h.reader.Ballot(r.Context(), r.PathValue("name"))
	respond(w, r, b, err)
}

// GetResults handles GET /ballots/{name}/results
func (h *QueryHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	res, err := h.reader.Results(r.Context(), r.PathValue("name"))
	respond(w, r, res, err)
}

// GetReceipts handles GET /voters/{voter}/receipts
func (h *QueryHandler) GetReceipts(w http.ResponseWriter, r *http.Request) {
	list, err := h.reader.Receipts(r.Context(), r.PathValue("voter"))
	respond(w, r, list, err)
}
