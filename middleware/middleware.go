// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/ballotbox/apperr"
	"github.com/danielhkuo/ballotbox/auth"
	"github.com/danielhkuo/ballotbox/models"
)

// HeaderRequestID echoes the request ID back to the client.
const HeaderRequestID = "X-Request-ID"

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 1 << 20

type requestIDKey struct{}

// RequestID returns the ID WithLogging attached to ctx, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WithLogging wraps a handler with request logging and a request ID
func WithLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id))

		// Log request
		slog.Info("request started",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"remote", GetClientIP(r),
		)

		// Call the next handler
		next(w, r)

		// Log completion
		duration := time.Since(start)
		slog.Info("request completed",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", duration.Milliseconds(),
		)
	}
}

// WithAuth resolves the acting principal with authn and carries it in the
// request context. Requests without an X-Principal header pass through
// unauthenticated; any action needing authority then fails.
func WithAuth(authn auth.Authenticator, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			var err error
			body, err = io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
			r.Body.Close()
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					ErrorResponse(w, http.StatusRequestEntityTooLarge, "Request body too large")
				} else {
					ErrorResponse(w, http.StatusBadRequest, "Failed to read body")
				}
				return
			}
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		if r.Header.Get(auth.HeaderPrincipal) == "" {
			next(w, r)
			return
		}

		principal, err := authn.Authenticate(r, body)
		if err != nil {
			slog.Warn("authentication failed", "request_id", RequestID(r.Context()), "error", err)
			ErrorResponse(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		next(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
	}
}

// JSONResponse writes a JSON response
func JSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// ErrorResponse writes a JSON error response
func ErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	JSONResponse(w, statusCode, models.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}

// StatusFor maps an error kind to an HTTP status.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindAuthorization:
		return http.StatusUnauthorized
	case apperr.KindInvalidArgument:
		return http.StatusBadRequest
	case apperr.KindTiming:
		return http.StatusUnprocessableEntity
	case apperr.KindInvalidState, apperr.KindAlreadyExists, apperr.KindInvariantViolation,
		apperr.KindSettingDisabled, apperr.KindCapacity:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// DomainError writes err as a JSON error. Errors outside the taxonomy are
// logged and reported as a generic 500.
func DomainError(w http.ResponseWriter, r *http.Request, err error) {
	PartialError(w, r, err, nil)
}

// PartialError is DomainError for an action that committed some work before
// failing; partial is returned in the error body.
func PartialError(w http.ResponseWriter, r *http.Request, err error, partial any) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		slog.Error("request failed", "request_id", RequestID(r.Context()), "error", err)
		JSONResponse(w, http.StatusInternalServerError, models.ErrorResponse{
			Error:   http.StatusText(http.StatusInternalServerError),
			Message: "Internal error",
			Result:  partial,
		})
		return
	}

	status := StatusFor(appErr.Kind)
	JSONResponse(w, status, models.ErrorResponse{
		Error:   http.StatusText(status),
		Message: appErr.Message,
		Kind:    string(appErr.Kind),
		Key:     appErr.Key,
		Result:  partial,
	})
}

// CORS middleware allows cross-origin requests from browser clients
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers",
			"Content-Type, "+auth.HeaderPrincipal+", "+auth.HeaderPrincipalKey+", "+auth.HeaderSignature)
		w.Header().Set("Access-Control-Expose-Headers", HeaderRequestID)

		// Handle preflight requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GetClientIP extracts the client IP address
// Checks X-Forwarded-For, X-Real-IP, then falls back to RemoteAddr
func GetClientIP(r *http.Request) string {
	// Check X-Forwarded-For (load balancers)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Take first IP in chain
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' || xff[i] == ' ' {
				return xff[:i]
			}
		}
		return xff
	}

	// Check X-Real-IP (nginx)
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// Fall back to RemoteAddr
	// Strip port if present
	addr := r.RemoteAddr
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[:i]
		}
	}
	return addr
}
