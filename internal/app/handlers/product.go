package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/smolnikov/goshop/internal/domain/models"
	"github.com/smolnikov/goshop/internal/service"
)

// CreateProductRequest — структура запроса на создание товара
type CreateProductRequest struct {
	SKU         string          `json:"sku" validate:"required"`
	Name        string          `json:"name" validate:"required"`
	Description *string         `json:"description"`
	ImageURL    *string         `json:"image_url"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	Stock       int             `json:"stock" validate:"gte=0"`
	CategoryID  int64           `json:"category_id" validate:"required,gt=0"`
}

// UpdateProductRequest — частичное обновление: применяются только присланные поля
type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	ImageURL    *string          `json:"image_url"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	CategoryID  *int64           `json:"category_id"`
}

func parsePagination(r *http.Request) (offset, limit int) {
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}

// ListProductsHandler обрабатывает запрос GET /api/products
func ListProductsHandler(log *slog.Logger, catalogService service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListProductsHandler"
		logger := log.With(slog.String("op", op))

		offset, limit := parsePagination(r)
		products, err := catalogService.ListProducts(r.Context(), offset, limit)
		if err != nil {
			logger.Error("failed to list products", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		if products == nil {
			products = []*models.Product{}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(products); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}

// GetProductHandler обрабатывает запрос GET /api/products/{productID}
func GetProductHandler(log *slog.Logger, catalogService service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetProductHandler"
		logger := log.With(slog.String("op", op))

		productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
		if err != nil {
			http.Error(w, "invalid product id", http.StatusBadRequest)
			return
		}

		product, err := catalogService.GetProduct(r.Context(), productID)
		if err != nil {
			if errors.Is(err, service.ErrProductNotFound) {
				http.Error(w, "product not found", http.StatusNotFound)
				return
			}
			logger.Error("failed to get product", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(product); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}

// CreateProductHandler обрабатывает запрос POST /api/products (только админ)
func CreateProductHandler(log *slog.Logger, catalogService service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateProductHandler"
		logger := log.With(slog.String("op", op))

		var req CreateProductRequest
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
		if req.Price.IsNegative() {
			http.Error(w, "price must not be negative", http.StatusBadRequest)
			return
		}

		product, err := catalogService.CreateProduct(r.Context(), &models.Product{
			SKU:         req.SKU,
			Name:        req.Name,
			Description: req.Description,
			ImageURL:    req.ImageURL,
			Price:       req.Price,
			Stock:       req.Stock,
			CategoryID:  req.CategoryID,
		})
		if err != nil {
			switch {
			case errors.Is(err, service.ErrCategoryNotFound):
				http.Error(w, "category not found", http.StatusBadRequest)
			case errors.Is(err, service.ErrSKUTaken):
				http.Error(w, "sku already taken", http.StatusConflict)
			default:
				logger.Error("failed to create product", slog.Any("error", err))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(product); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}

// UpdateProductHandler обрабатывает запрос PATCH /api/products/{productID} (только админ)
func UpdateProductHandler(log *slog.Logger, catalogService service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateProductHandler"
		logger := log.With(slog.String("op", op))

		productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
		if err != nil {
			http.Error(w, "invalid product id", http.StatusBadRequest)
			return
		}

		var req UpdateProductRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if req.Price != nil && req.Price.IsNegative() {
			http.Error(w, "price must not be negative", http.StatusBadRequest)
			return
		}
		if req.Stock != nil && *req.Stock < 0 {
			http.Error(w, "stock must not be negative", http.StatusBadRequest)
			return
		}

		product, err := catalogService.UpdateProduct(r.Context(), productID, models.ProductPatch{
			Name:        req.Name,
			Description: req.Description,
			ImageURL:    req.ImageURL,
			Price:       req.Price,
			Stock:       req.Stock,
			CategoryID:  req.CategoryID,
		})
		if err != nil {
			switch {
			case errors.Is(err, service.ErrProductNotFound):
				http.Error(w, "product not found", http.StatusNotFound)
			case errors.Is(err, service.ErrCategoryNotFound):
				http.Error(w, "category not found", http.StatusBadRequest)
			default:
				logger.Error("failed to update product", slog.Any("error", err))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(product); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}

// DeleteProductHandler обрабатывает запрос DELETE /api/products/{productID} (только админ)
func DeleteProductHandler(log *slog.Logger, catalogService service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteProductHandler"
		logger := log.With(slog.String("op", op))

		productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
		if err != nil {
			http.Error(w, "invalid product id", http.StatusBadRequest)
			return
		}

		if err := catalogService.DeleteProduct(r.Context(), productID); err != nil {
			if errors.Is(err, service.ErrProductNotFound) {
				http.Error(w, "product not found", http.StatusNotFound)
				return
			}
			logger.Error("failed to delete product", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(MessageResponse{Message: "Product deleted successfully"}); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}
