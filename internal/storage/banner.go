package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/smolnikov/goshop/internal/domain/models"
)

var ErrBannerNotFound = errors.New("banner not found")

// BannerStorage описывает методы для работы с баннерами главной страницы.
type BannerStorage interface {
	GetBannerByID(ctx context.Context, id int64) (*models.Banner, error)
	// ListActiveBanners возвращает только активные баннеры — публичная выдача.
	ListActiveBanners(ctx context.Context) ([]*models.Banner, error)
	// ListBanners возвращает все баннеры, включая выключенные, для панели администратора.
	ListBanners(ctx context.Context, offset, limit int) ([]*models.Banner, error)
	CreateBanner(ctx context.Context, banner *models.Banner) (*models.Banner, error)
	UpdateBanner(ctx context.Context, id int64, patch models.BannerPatch) (*models.Banner, error)
	DeleteBanner(ctx context.Context, id int64) error
}

type bannerRepository struct {
	db *sql.DB
}

func NewBannerRepository(db *sql.DB) BannerStorage {
	return &bannerRepository{db: db}
}

const bannerColumns = "id, title, image_url, link_url, is_active"

func (r *bannerRepository) GetBannerByID(ctx context.Context, id int64) (*models.Banner, error) {
	banner := &models.Banner{}
	row := r.db.QueryRowContext(ctx,
		"SELECT "+bannerColumns+" FROM banners WHERE id = $1", id)
	if err := row.Scan(&banner.ID, &banner.Title, &banner.ImageURL, &banner.LinkURL, &banner.IsActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBannerNotFound
		}
		return nil, err
	}
	return banner, nil
}

func (r *bannerRepository) ListActiveBanners(ctx context.Context) ([]*models.Banner, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+bannerColumns+" FROM banners WHERE is_active = TRUE ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBanners(rows)
}

func (r *bannerRepository) ListBanners(ctx context.Context, offset, limit int) ([]*models.Banner, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+bannerColumns+" FROM banners ORDER BY id OFFSET $1 LIMIT $2", offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBanners(rows)
}

func scanBanners(rows *sql.Rows) ([]*models.Banner, error) {
	var banners []*models.Banner
	for rows.Next() {
		banner := &models.Banner{}
		if err := rows.Scan(&banner.ID, &banner.Title, &banner.ImageURL, &banner.LinkURL, &banner.IsActive); err != nil {
			return nil, err
		}
		banners = append(banners, banner)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return banners, nil
}

func (r *bannerRepository) CreateBanner(ctx context.Context, banner *models.Banner) (*models.Banner, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO banners (title, image_url, link_url, is_active) VALUES ($1, $2, $3, $4) RETURNING id",
		banner.Title, banner.ImageURL, banner.LinkURL, banner.IsActive,
	).Scan(&id)
	if err != nil {
		return nil, err
	}
	banner.ID = id
	return banner, nil
}

// UpdateBanner применяет частичное обновление: только заполненные поля patch
// заменяют текущие значения. Возвращает обновлённый баннер.
func (r *bannerRepository) UpdateBanner(ctx context.Context, id int64, patch models.BannerPatch) (*models.Banner, error) {
	banner, err := r.GetBannerByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		banner.Title = *patch.Title
	}
	if patch.ImageURL != nil {
		banner.ImageURL = *patch.ImageURL
	}
	if patch.LinkURL != nil {
		banner.LinkURL = patch.LinkURL
	}
	if patch.IsActive != nil {
		banner.IsActive = *patch.IsActive
	}

	res, err := r.db.ExecContext(ctx,
		"UPDATE banners SET title = $1, image_url = $2, link_url = $3, is_active = $4 WHERE id = $5",
		banner.Title, banner.ImageURL, banner.LinkURL, banner.IsActive, id)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrBannerNotFound
	}
	return banner, nil
}

func (r *bannerRepository) DeleteBanner(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM banners WHERE id = $1", id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrBannerNotFound
	}
	return nil
}
