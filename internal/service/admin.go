package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/smolnikov/goshop/internal/domain/models"
	"github.com/smolnikov/goshop/internal/storage"
)

// AdminService — панель администратора: агрегированная статистика магазина
// и список покупателей. Все операции только для администраторов.
type AdminService interface {
	GetDashboardStats(ctx context.Context) (*models.DashboardStats, error)
	ListUsers(ctx context.Context, offset, limit int) ([]*models.User, error)
}

type adminService struct {
	log       *slog.Logger
	statsRepo storage.StatsStorage
	userRepo  storage.UserStorage
}

func NewAdminService(log *slog.Logger, statsRepo storage.StatsStorage, userRepo storage.UserStorage) AdminService {
	return &adminService{
		log:       log,
		statsRepo: statsRepo,
		userRepo:  userRepo,
	}
}

func (s *adminService) GetDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	const op = "service.AdminService.GetDashboardStats"

	stats, err := s.statsRepo.GetDashboardStats(ctx)
	if err != nil {
		s.log.Error("failed to get dashboard stats", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get dashboard stats: %w", op, err)
	}
	return stats, nil
}

func (s *adminService) ListUsers(ctx context.Context, offset, limit int) ([]*models.User, error) {
	const op = "service.AdminService.ListUsers"

	users, err := s.userRepo.ListUsers(ctx, offset, limit)
	if err != nil {
		s.log.Error("failed to list users", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list users: %w", op, err)
	}
	return users, nil
}
