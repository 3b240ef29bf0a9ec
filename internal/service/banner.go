package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/smolnikov/goshop/internal/domain/models"
	"github.com/smolnikov/goshop/internal/storage"
)

var ErrBannerNotFound = errors.New("banner not found")

// BannerService — баннеры главной страницы. Покупателям отдаются только
// активные, управление полным списком доступно администраторам.
type BannerService interface {
	ListActiveBanners(ctx context.Context) ([]*models.Banner, error)
	ListBanners(ctx context.Context, offset, limit int) ([]*models.Banner, error)
	CreateBanner(ctx context.Context, banner *models.Banner) (*models.Banner, error)
	UpdateBanner(ctx context.Context, id int64, patch models.BannerPatch) (*models.Banner, error)
	DeleteBanner(ctx context.Context, id int64) error
}

type bannerService struct {
	log        *slog.Logger
	bannerRepo storage.BannerStorage
}

func NewBannerService(log *slog.Logger, bannerRepo storage.BannerStorage) BannerService {
	return &bannerService{log: log, bannerRepo: bannerRepo}
}

func (s *bannerService) ListActiveBanners(ctx context.Context) ([]*models.Banner, error) {
	const op = "service.BannerService.ListActiveBanners"

	banners, err := s.bannerRepo.ListActiveBanners(ctx)
	if err != nil {
		s.log.Error("failed to list active banners", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list active banners: %w", op, err)
	}
	return banners, nil
}

func (s *bannerService) ListBanners(ctx context.Context, offset, limit int) ([]*models.Banner, error) {
	const op = "service.BannerService.ListBanners"

	banners, err := s.bannerRepo.ListBanners(ctx, offset, limit)
	if err != nil {
		s.log.Error("failed to list banners", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list banners: %w", op, err)
	}
	return banners, nil
}

func (s *bannerService) CreateBanner(ctx context.Context, banner *models.Banner) (*models.Banner, error) {
	const op = "service.BannerService.CreateBanner"

	created, err := s.bannerRepo.CreateBanner(ctx, banner)
	if err != nil {
		s.log.Error("failed to create banner", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create banner: %w", op, err)
	}

	s.log.Info("banner created", slog.String("op", op), slog.Int64("bannerID", created.ID))
	return created, nil
}

func (s *bannerService) UpdateBanner(ctx context.Context, id int64, patch models.BannerPatch) (*models.Banner, error) {
	const op = "service.BannerService.UpdateBanner"

	banner, err := s.bannerRepo.UpdateBanner(ctx, id, patch)
	if err != nil {
		if errors.Is(err, storage.ErrBannerNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrBannerNotFound)
		}
		s.log.Error("failed to update banner", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to update banner: %w", op, err)
	}
	return banner, nil
}

func (s *bannerService) DeleteBanner(ctx context.Context, id int64) error {
	const op = "service.BannerService.DeleteBanner"

	if err := s.bannerRepo.DeleteBanner(ctx, id); err != nil {
		if errors.Is(err, storage.ErrBannerNotFound) {
			return fmt.Errorf("%s: %w", op, ErrBannerNotFound)
		}
		s.log.Error("failed to delete banner", slog.String("op", op), slog.Any("error", err))
		return fmt.Errorf("%s: failed to delete banner: %w", op, err)
	}

	s.log.Info("banner deleted", slog.String("op", op), slog.Int64("bannerID", id))
	return nil
}
