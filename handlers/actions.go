// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"io"
	"net/http"

	"github.com/danielhkuo/ballotbox/command"
	"github.com/danielhkuo/ballotbox/middleware"
	"github.com/danielhkuo/ballotbox/models"
)

type ActionHandler struct {
	handler command.Handler
}

func NewActionHandler(h command.Handler) *ActionHandler {
	return &ActionHandler{handler: h}
}

// Perform handles POST /actions/{action}
func (h *ActionHandler) Perform(w http.ResponseWriter, r *http.Request) {
	action := r.PathValue("action")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Failed to read body")
		return
	}

	cmd, err := command.Decode(action, body)
	if err != nil {
		middleware.DomainError(w, r, err)
		return
	}

	result, err := command.Dispatch(r.Context(), h.handler, cmd)
	if err != nil {
		middleware.PartialError(w, r, err, result)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ActionResponse{
		Action:    cmd.Action(),
		RequestID: middleware.RequestID(r.Context()),
		Result:    result,
	})
}

// ListActions handles GET /actions
func (h *ActionHandler) ListActions(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, command.Actions())
}
