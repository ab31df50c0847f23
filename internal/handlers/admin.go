package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cliphub/backend/internal/logging"
	"github.com/cliphub/backend/internal/models"
	"github.com/cliphub/backend/internal/repositories"
)

// AdminHandler exposes the administration surface: the dashboard listing and
// user removal. Every endpoint requires a superuser session.
type AdminHandler struct {
	Users    UserStore
	Videos   VideoStore
	Sessions SessionManager
}

// Dashboard handles GET /api/v1/admin, returning all accounts and
// video records.
func (h AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if _, ok := requireSuperuser(ctx, w, r, h.Sessions, h.Users); !ok {
		return
	}

	users, err := h.Users.List(ctx)
	if err != nil {
		logger.Error("list accounts failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to list accounts"})
		return
	}

	records, err := h.Videos.List(ctx, "")
	if err != nil {
		logger.Error("list videos failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to list videos"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, dashboardResponse{Users: toAccountViews(users), Videos: records})
}

// DeleteUser handles DELETE /api/v1/admin/users/{id}. Superuser accounts are
// never removable.
func (h AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	admin, ok := requireSuperuser(ctx, w, r, h.Sessions, h.Users)
	if !ok {
		return
	}

	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "user id is required"})
		return
	}

	if err := h.Users.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repositories.ErrSuperuserProtected):
			logger.Warn("refused superuser deletion", "targetId", id, "adminId", admin.ID)
			respondJSON(ctx, w, http.StatusForbidden, map[string]string{"error": err.Error()})
		case errors.Is(err, repositories.ErrNotFound):
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "user not found"})
		default:
			logger.Error("delete account failed", "targetId", id, "error", err)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to delete account"})
		}
		return
	}

	logger.Info("account deleted", "targetId", id, "adminId", admin.ID)
	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "deleted"})
}

// accountView mirrors models.User without the password hash.
type accountView struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	IsSuperuser bool   `json:"isSuperuser"`
	CreatedAt   string `json:"createdAt"`
}

func toAccountViews(users []models.User) []accountView {
	views := make([]accountView, 0, len(users))
	for _, u := range users {
		views = append(views, accountView{
			ID:          u.ID,
			Username:    u.Username,
			IsSuperuser: u.IsSuperuser,
			CreatedAt:   u.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return views
}

type dashboardResponse struct {
	Users  []accountView  `json:"users"`
	Videos []models.Video `json:"videos"`
}
