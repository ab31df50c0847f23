package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/cliphub/backend/internal/logging"
	"github.com/cliphub/backend/internal/models"
)

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// errNotAuthenticated is a handler-local marker; it never reaches responses.
var errNotAuthenticated = errors.New("not authenticated")

// authenticateRequest resolves the request's bearer token to a user record.
func authenticateRequest(ctx context.Context, sessions SessionManager, users UserStore, r *http.Request) (models.User, error) {
	token := bearerToken(r)
	if token == "" {
		return models.User{}, errNotAuthenticated
	}

	userID, err := sessions.Authenticate(ctx, token)
	if err != nil {
		return models.User{}, err
	}

	return users.FindByID(ctx, userID)
}

// requireUser writes a 401 response and returns false when the request is not
// authenticated.
func requireUser(ctx context.Context, w http.ResponseWriter, r *http.Request, sessions SessionManager, users UserStore) (models.User, bool) {
	user, err := authenticateRequest(ctx, sessions, users, r)
	if err != nil {
		logging.FromContext(ctx).Warn("request not authenticated", "error", err)
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return models.User{}, false
	}
	return user, true
}

// requireSuperuser additionally enforces the superuser flag, writing a 403 for
// regular accounts.
func requireSuperuser(ctx context.Context, w http.ResponseWriter, r *http.Request, sessions SessionManager, users UserStore) (models.User, bool) {
	user, ok := requireUser(ctx, w, r, sessions, users)
	if !ok {
		return models.User{}, false
	}
	if !user.IsSuperuser {
		logging.FromContext(ctx).Warn("superuser action refused", "userId", user.ID)
		respondJSON(ctx, w, http.StatusForbidden, map[string]string{"error": "superuser privileges required"})
		return models.User{}, false
	}
	return user, true
}
