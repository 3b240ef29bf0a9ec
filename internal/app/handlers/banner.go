package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/smolnikov/goshop/internal/domain/models"
	"github.com/smolnikov/goshop/internal/service"
)

// CreateBannerRequest — структура запроса на создание баннера
type CreateBannerRequest struct {
	Title    string  `json:"title" validate:"required"`
	ImageURL string  `json:"image_url" validate:"required,url"`
	LinkURL  *string `json:"link_url"`
	IsActive *bool   `json:"is_active"`
}

// UpdateBannerRequest — частичное обновление: применяются только присланные поля
type UpdateBannerRequest struct {
	Title    *string `json:"title"`
	ImageURL *string `json:"image_url"`
	LinkURL  *string `json:"link_url"`
	IsActive *bool   `json:"is_active"`
}

// ListActiveBannersHandler обрабатывает запрос GET /api/banners/active
func ListActiveBannersHandler(log *slog.Logger, bannerService service.BannerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListActiveBannersHandler"
		logger := log.With(slog.String("op", op))

		banners, err := bannerService.ListActiveBanners(r.Context())
		if err != nil {
			logger.Error("failed to list active banners", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		if banners == nil {
			banners = []*models.Banner{}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(banners); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}

// ListBannersHandler обрабатывает запрос GET /api/banners (только админ):
// возвращает все баннеры, включая выключенные
func ListBannersHandler(log *slog.Logger, bannerService service.BannerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListBannersHandler"
		logger := log.With(slog.String("op", op))

		offset, limit := parsePagination(r)
		banners, err := bannerService.ListBanners(r.Context(), offset, limit)
		if err != nil {
			logger.Error("failed to list banners", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		if banners == nil {
			banners = []*models.Banner{}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(banners); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}

// CreateBannerHandler обрабатывает запрос POST /api/banners (только админ)
func CreateBannerHandler(log *slog.Logger, bannerService service.BannerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateBannerHandler"
		logger := log.With(slog.String("op", op))

		var req CreateBannerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			http.Error(w, "validation error", http.StatusBadRequest)
			return
		}

		// новый баннер активен, если явно не указано обратное
		isActive := true
		if req.IsActive != nil {
			isActive = *req.IsActive
		}

		banner, err := bannerService.CreateBanner(r.Context(), &models.Banner{
			Title:    req.Title,
			ImageURL: req.ImageURL,
			LinkURL:  req.LinkURL,
			IsActive: isActive,
		})
		if err != nil {
			logger.Error("failed to create banner", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(banner); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}

// UpdateBannerHandler обрабатывает запрос PATCH /api/banners/{bannerID} (только админ)
func UpdateBannerHandler(log *slog.Logger, bannerService service.BannerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateBannerHandler"
		logger := log.With(slog.String("op", op))

		bannerID, err := strconv.ParseInt(chi.URLParam(r, "bannerID"), 10, 64)
		if err != nil {
			http.Error(w, "invalid banner id", http.StatusBadRequest)
			return
		}

		var req UpdateBannerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if req.ImageURL != nil && *req.ImageURL == "" {
			http.Error(w, "image_url must not be empty", http.StatusBadRequest)
			return
		}

		banner, err := bannerService.UpdateBanner(r.Context(), bannerID, models.BannerPatch{
			Title:    req.Title,
			ImageURL: req.ImageURL,
			LinkURL:  req.LinkURL,
			IsActive: req.IsActive,
		})
		if err != nil {
			if errors.Is(err, service.ErrBannerNotFound) {
				http.Error(w, "banner not found", http.StatusNotFound)
				return
			}
			logger.Error("failed to update banner", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(banner); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}

// DeleteBannerHandler обрабатывает запрос DELETE /api/banners/{bannerID} (только админ)
func DeleteBannerHandler(log *slog.Logger, bannerService service.BannerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteBannerHandler"
		logger := log.With(slog.String("op", op))

		bannerID, err := strconv.ParseInt(chi.URLParam(r, "bannerID"), 10, 64)
		if err != nil {
			http.Error(w, "invalid banner id", http.StatusBadRequest)
			return
		}

		if err := bannerService.DeleteBanner(r.Context(), bannerID); err != nil {
			if errors.Is(err, service.ErrBannerNotFound) {
				http.Error(w, "banner not found", http.StatusNotFound)
				return
			}
			logger.Error("failed to delete banner", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(MessageResponse{Message: "Banner deleted successfully"}); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}
