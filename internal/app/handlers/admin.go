package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/samber/lo"
	"github.com/smolnikov/goshop/internal/domain/models"
	"github.com/smolnikov/goshop/internal/service"
)

// UserResponse — представление пользователя для панели администратора,
// хэш пароля наружу не отдаётся
type UserResponse struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// GetDashboardStatsHandler обрабатывает запрос GET /api/admin/stats (только админ)
func GetDashboardStatsHandler(log *slog.Logger, adminService service.AdminService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetDashboardStatsHandler"
		logger := log.With(slog.String("op", op))

		stats, err := adminService.GetDashboardStats(r.Context())
		if err != nil {
			logger.Error("failed to get dashboard stats", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(stats); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}

// ListUsersHandler обрабатывает запрос GET /api/admin/users (только админ)
func ListUsersHandler(log *slog.Logger, adminService service.AdminService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListUsersHandler"
		logger := log.With(slog.String("op", op))

		offset, limit := parsePagination(r)
		users, err := adminService.ListUsers(r.Context(), offset, limit)
		if err != nil {
			logger.Error("failed to list users", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		resp := lo.Map(users, func(u *models.User, _ int) UserResponse {
			return UserResponse{ID: u.ID, Email: u.Email, FullName: u.FullName}
		})

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}
