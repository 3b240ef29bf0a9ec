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

// CategoryRequest — структура запроса на создание/обновление категории
type CategoryRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description"`
}

// ListCategoriesHandler обрабатывает запрос GET /api/categories
func ListCategoriesHandler(log *slog.Logger, catalogService service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListCategoriesHandler"
		logger := log.With(slog.String("op", op))

		offset, limit := parsePagination(r)
		categories, err := catalogService.ListCategories(r.Context(), offset, limit)
		if err != nil {
			logger.Error("failed to list categories", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		if categories == nil {
			categories = []*models.Category{}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(categories); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}

// GetCategoryHandler обрабатывает запрос GET /api/categories/{categoryID}
func GetCategoryHandler(log *slog.Logger, catalogService service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetCategoryHandler"
		logger := log.With(slog.String("op", op))

		categoryID, err := strconv.ParseInt(chi.URLParam(r, "categoryID"), 10, 64)
		if err != nil {
			http.Error(w, "invalid category id", http.StatusBadRequest)
			return
		}

		category, err := catalogService.GetCategory(r.Context(), categoryID)
		if err != nil {
			if errors.Is(err, service.ErrCategoryNotFound) {
				http.Error(w, "category not found", http.StatusNotFound)
				return
			}
			logger.Error("failed to get category", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(category); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}

// CreateCategoryHandler обрабатывает запрос POST /api/categories (только админ)
func CreateCategoryHandler(log *slog.Logger, catalogService service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateCategoryHandler"
		logger := log.With(slog.String("op", op))

		var req CategoryRequest
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

		category, err := catalogService.CreateCategory(r.Context(), &models.Category{
			Title:       req.Title,
			Description: req.Description,
		})
		if err != nil {
			logger.Error("failed to create category", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(category); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}

// UpdateCategoryHandler обрабатывает запрос PUT /api/categories/{categoryID} (только админ)
func UpdateCategoryHandler(log *slog.Logger, catalogService service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateCategoryHandler"
		logger := log.With(slog.String("op", op))

		categoryID, err := strconv.ParseInt(chi.URLParam(r, "categoryID"), 10, 64)
		if err != nil {
			http.Error(w, "invalid category id", http.StatusBadRequest)
			return
		}

		var req CategoryRequest
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

		category, err := catalogService.UpdateCategory(r.Context(), &models.Category{
			ID:          categoryID,
			Title:       req.Title,
			Description: req.Description,
		})
		if err != nil {
			if errors.Is(err, service.ErrCategoryNotFound) {
				http.Error(w, "category not found", http.StatusNotFound)
				return
			}
			logger.Error("failed to update category", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(category); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}

// DeleteCategoryHandler обрабатывает запрос DELETE /api/categories/{categoryID} (только админ)
func DeleteCategoryHandler(log *slog.Logger, catalogService service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteCategoryHandler"
		logger := log.With(slog.String("op", op))

		categoryID, err := strconv.ParseInt(chi.URLParam(r, "categoryID"), 10, 64)
		if err != nil {
			http.Error(w, "invalid category id", http.StatusBadRequest)
			return
		}

		if err := catalogService.DeleteCategory(r.Context(), categoryID); err != nil {
			if errors.Is(err, service.ErrCategoryNotFound) {
				http.Error(w, "category not found", http.StatusNotFound)
				return
			}
			logger.Error("failed to delete category", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(MessageResponse{Message: "Category deleted successfully"}); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}
