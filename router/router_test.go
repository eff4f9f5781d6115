// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/ballotbox/auth"
	"github.com/danielhkuo/ballotbox/cliparse"
	"github.com/danielhkuo/ballotbox/middleware"
	"github.com/danielhkuo/ballotbox/models"
	"github.com/danielhkuo/ballotbox/testutil"
)

func newTestRouter(t *testing.T) (*testutil.Env, *http.ServeMux) {
	t.Helper()
	env := testutil.NewEnv(t)
	return env, NewRouter(env.Service, NewAuthenticator(testutil.GetTestConfig()))
}

func TestNewAuthenticator(t *testing.T) {
	cfg := testutil.GetTestConfig()
	if _, ok := NewAuthenticator(cfg).(auth.KeyAuthenticator); !ok {
		t.Errorf("Expected key authenticator for mode %s", cfg.AuthMode)
	}
	cfg.AuthMode = cliparse.AuthModeSignature
	if _, ok := NewAuthenticator(cfg).(auth.SignatureAuthenticator); !ok {
		t.Error("Expected signature authenticator")
	}
}

func TestHealthEndpoint(t *testing.T) {
	_, mux := newTestRouter(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", w.Body.String())
	}
}

func TestRootEndpoint(t *testing.T) {
	_, mux := newTestRouter(t)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	expected := "ballotbox API v1"
	if w.Body.String() != expected {
		t.Errorf("Expected body '%s', got '%s'", expected, w.Body.String())
	}
}

func TestRouteExistence(t *testing.T) {
	_, mux := newTestRouter(t)

	// 400, 401, 404 are all valid responses depending on handler logic
	testCases := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"GET", "/"},
		{"GET", "/actions"},
		{"POST", "/actions/mint"},
		{"POST", "/actions/cast-vote"},
		{"GET", "/tokens/TEST"},
		{"GET", "/accounts/alice/TEST"},
		{"GET", "/ballots/lunch"},
		{"GET", "/ballots/lunch/results"},
		{"GET", "/voters/alice/receipts"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			if w.Code == http.StatusMethodNotAllowed {
				t.Errorf("Route %s %s returned 405, expected route handler to exist", tc.method, tc.path)
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	_, mux := newTestRouter(t)

	testCases := []struct {
		method string
		path   string
	}{
		{"POST", "/health"},
		{"DELETE", "/ballots/lunch"},
		{"PUT", "/actions/mint"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			if w.Code != http.StatusMethodNotAllowed {
				t.Errorf("Expected 405 for %s %s, got %d", tc.method, tc.path, w.Code)
			}
		})
	}
}

func TestPathParameterExtraction(t *testing.T) {
	env, mux := newTestRouter(t)
	env.CreateTestToken(t, "pub", "1000.00 TEST")

	for _, symbol := range []string{"TEST", "2,TEST"} {
		t.Run(symbol, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/tokens/"+symbol, nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			testutil.AssertStatus(t, w, http.StatusOK)
			var reg models.Registry
			testutil.AssertJSON(t, w, &reg)
			if reg.Publisher != "pub" || reg.MaxSupply.String() != "1000.00 TEST" {
				t.Errorf("Unexpected registry %+v", reg)
			}
		})
	}

	req := httptest.NewRequest("GET", "/tokens/not-a-symbol", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestActionsRequireAuthentication(t *testing.T) {
	env, mux := newTestRouter(t)
	env.CreateTestToken(t, "pub", "1000.00 TEST")
	body := map[string]string{"publisher": "pub", "recipient": "alice", "amount": "5.00 TEST"}

	testCases := []struct {
		name    string
		headers map[string]string
		status  int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"bad key", map[string]string{auth.HeaderPrincipal: "pub", auth.HeaderPrincipalKey: "forged"}, http.StatusUnauthorized},
		{"wrong principal", testutil.AuthHeaders("alice"), http.StatusUnauthorized},
		{"publisher", testutil.AuthHeaders("pub"), http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, testutil.MakeRequest("POST", "/actions/mint", body, tc.headers))

			testutil.AssertStatus(t, w, tc.status)
			if id := w.Header().Get(middleware.HeaderRequestID); id == "" {
				t.Error("Expected request ID header on action responses")
			}
		})
	}

	if got := env.Balance(t, "alice", models.Symbol{Code: "TEST", Precision: 2}); got != 500 {
		t.Errorf("Expected exactly one mint to land, balance %d", got)
	}
}
