package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/smolnikov/goshop/internal/app/handlers"
	"github.com/smolnikov/goshop/internal/domain/models"
	"github.com/smolnikov/goshop/internal/service"
	"github.com/stretchr/testify/assert"
)

// fakeBannerService — фиктивная реализация интерфейса BannerService.
type fakeBannerService struct {
	banners []*models.Banner
	banner  *models.Banner
	err     error
}

func (f *fakeBannerService) ListActiveBanners(ctx context.Context) ([]*models.Banner, error) {
	return f.banners, f.err
}

func (f *fakeBannerService) ListBanners(ctx context.Context, offset, limit int) ([]*models.Banner, error) {
	return f.banners, f.err
}

func (f *fakeBannerService) CreateBanner(ctx context.Context, banner *models.Banner) (*models.Banner, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.banner, nil
}

func (f *fakeBannerService) UpdateBanner(ctx context.Context, id int64, patch models.BannerPatch) (*models.Banner, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.banner, nil
}

func (f *fakeBannerService) DeleteBanner(ctx context.Context, id int64) error {
	return f.err
}

// fakeAdminService — фиктивная реализация интерфейса AdminService.
type fakeAdminService struct {
	stats *models.DashboardStats
	users []*models.User
	err   error
}

func (f *fakeAdminService) GetDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stats, nil
}

func (f *fakeAdminService) ListUsers(ctx context.Context, offset, limit int) ([]*models.User, error) {
	return f.users, f.err
}

func TestListActiveBannersHandler_EmptyList(t *testing.T) {
	handler := handlers.ListActiveBannersHandler(testLogger(), &fakeBannerService{})

	req := httptest.NewRequest(http.MethodGet, "/api/banners/active", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	// Пустая выдача — это [], а не null.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestCreateBannerHandler_ValidationError(t *testing.T) {
	handler := handlers.CreateBannerHandler(testLogger(), &fakeBannerService{})

	// image_url обязателен и должен быть URL.
	body := bytes.NewBufferString(`{"title": "Summer Sale", "image_url": "not-a-url"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/banners", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateBannerHandler_NotFound(t *testing.T) {
	router := chi.NewRouter()
	router.Patch("/api/banners/{bannerID}", handlers.UpdateBannerHandler(testLogger(),
		&fakeBannerService{err: service.ErrBannerNotFound}))

	body := bytes.NewBufferString(`{"is_active": false}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/banners/42", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetDashboardStatsHandler_Success(t *testing.T) {
	svc := &fakeAdminService{stats: &models.DashboardStats{
		TotalSales:    decimal.RequireFromString("1234.50"),
		TotalOrders:   17,
		TotalUsers:    42,
		TotalProducts: 9,
	}}

	handler := handlers.GetDashboardStatsHandler(testLogger(), svc)
	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var stats models.DashboardStats
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(17), stats.TotalOrders)
	assert.True(t, stats.TotalSales.Equal(decimal.RequireFromString("1234.50")))
}

func TestListUsersHandler_HidesPassHash(t *testing.T) {
	svc := &fakeAdminService{users: []*models.User{
		{ID: 1, Email: "customer@example.com", FullName: "Customer", PassHash: []byte("bcrypt-hash")},
	}}

	handler := handlers.ListUsersHandler(testLogger(), svc)
	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "customer@example.com")
	// Хэш пароля не должен попадать в ответ ни под каким ключом.
	assert.NotContains(t, rec.Body.String(), "hash")

	var resp []handlers.UserResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp, 1)
	assert.Equal(t, "Customer", resp[0].FullName)
}
