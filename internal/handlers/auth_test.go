package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func postJSON(t *testing.T, mux *http.ServeMux, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeAuthResponse(t *testing.T, rec *httptest.ResponseRecorder) authResponse {
	t.Helper()

	var resp authResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestAuthHandlerRegister(t *testing.T) {
	env := newTestEnv(t)

	rec := postJSON(t, env.mux, "/api/v1/auth/register", credentialsRequest{Username: "alice", Password: "supersafe"})

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	resp := decodeAuthResponse(t, rec)
	if resp.Tokens.AccessToken == "" || resp.Tokens.RefreshToken == "" {
		t.Fatalf("expected tokens to be issued, got %+v", resp.Tokens)
	}

	stored, err := env.users.FindByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("expected user to be stored: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("supersafe")) != nil {
		t.Fatal("stored password is not hashed")
	}
	if stored.IsSuperuser {
		t.Fatal("registration must not grant superuser")
	}
}

func TestAuthHandlerRegisterShortPassword(t *testing.T) {
	env := newTestEnv(t)

	rec := postJSON(t, env.mux, "/api/v1/auth/register", credentialsRequest{Username: "alice", Password: "short"})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestAuthHandlerRegisterDuplicateUsername(t *testing.T) {
	env := newTestEnv(t)

	first := postJSON(t, env.mux, "/api/v1/auth/register", credentialsRequest{Username: "alice", Password: "supersafe"})
	if first.Code != http.StatusCreated {
		t.Fatalf("expected first registration to succeed, got %d", first.Code)
	}

	second := postJSON(t, env.mux, "/api/v1/auth/register", credentialsRequest{Username: "alice", Password: "different-pass"})
	if second.Code != http.StatusConflict {
		t.Fatalf("expected status %d got %d", http.StatusConflict, second.Code)
	}
}

func TestAuthHandlerLogin(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.accounts.Register(context.Background(), "bob", "password123"); err != nil {
		t.Fatalf("register: %v", err)
	}

	rec := postJSON(t, env.mux, "/api/v1/auth/login", credentialsRequest{Username: "bob", Password: "password123"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	resp := decodeAuthResponse(t, rec)
	if resp.Tokens.AccessToken == "" || resp.Tokens.RefreshToken == "" {
		t.Fatalf("expected tokens to be issued, got %+v", resp.Tokens)
	}
}

func TestAuthHandlerLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.accounts.Register(context.Background(), "bob", "password123"); err != nil {
		t.Fatalf("register: %v", err)
	}

	wrongPassword := postJSON(t, env.mux, "/api/v1/auth/login", credentialsRequest{Username: "bob", Password: "wrong-pass"})
	unknownUser := postJSON(t, env.mux, "/api/v1/auth/login", credentialsRequest{Username: "nobody", Password: "password123"})

	for name, rec := range map[string]*httptest.ResponseRecorder{"wrong password": wrongPassword, "unknown user": unknownUser} {
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected status %d got %d", name, http.StatusUnauthorized, rec.Code)
		}
	}

	// Both failure modes must be indistinguishable to the caller.
	if wrongPassword.Body.String() != unknownUser.Body.String() {
		t.Fatalf("expected identical error bodies, got %q and %q", wrongPassword.Body.String(), unknownUser.Body.String())
	}
}

func TestAuthHandlerRefreshRotatesTokens(t *testing.T) {
	env := newTestEnv(t)

	tokens, err := env.sessions.Issue(context.Background(), "carol-id")
	if err != nil {
		t.Fatalf("issue tokens: %v", err)
	}

	rec := postJSON(t, env.mux, "/api/v1/auth/refresh", refreshRequest{RefreshToken: tokens.RefreshToken})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	resp := decodeAuthResponse(t, rec)
	if resp.Tokens.RefreshToken == tokens.RefreshToken {
		t.Fatal("expected a new refresh token to be issued")
	}

	// The consumed token must not be reusable.
	replay := postJSON(t, env.mux, "/api/v1/auth/refresh", refreshRequest{RefreshToken: tokens.RefreshToken})
	if replay.Code != http.StatusUnauthorized {
		t.Fatalf("expected replayed refresh to fail with %d got %d", http.StatusUnauthorized, replay.Code)
	}
}

func TestAuthHandlerLogoutRevokesSession(t *testing.T) {
	env := newTestEnv(t)

	tokens, err := env.sessions.Issue(context.Background(), "dave-id")
	if err != nil {
		t.Fatalf("issue tokens: %v", err)
	}

	rec := postJSON(t, env.mux, "/api/v1/auth/logout", refreshRequest{RefreshToken: tokens.RefreshToken})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	refresh := postJSON(t, env.mux, "/api/v1/auth/refresh", refreshRequest{RefreshToken: tokens.RefreshToken})
	if refresh.Code != http.StatusUnauthorized {
		t.Fatalf("expected revoked refresh to fail with %d got %d", http.StatusUnauthorized, refresh.Code)
	}
}

func TestAuthHandlerRateLimiting(t *testing.T) {
	env := newTestEnv(t)
	limiter := &limiterStub{allow: false}

	handler := AuthHandler{Accounts: env.accounts, Sessions: env.sessions, Limiter: limiter}

	body, err := json.Marshal(credentialsRequest{Username: "alice", Password: "supersafe"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	req.RemoteAddr = "203.0.113.9:4455"
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status %d got %d", http.StatusTooManyRequests, rec.Code)
	}
	if len(limiter.keys) != 1 || limiter.keys[0] != "login:203.0.113.9" {
		t.Fatalf("unexpected limiter keys: %v", limiter.keys)
	}
}

func TestAuthHandlerMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/login", nil)
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status %d got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}
