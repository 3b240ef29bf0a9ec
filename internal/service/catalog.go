package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/smolnikov/goshop/internal/domain/models"
	"github.com/smolnikov/goshop/internal/storage"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrSKUTaken         = errors.New("sku already taken")
)

// CatalogService — CRUD каталога (товары и категории). Чтение публичное,
// запись доступна только администраторам (это решает обработчик).
type CatalogService interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListProducts(ctx context.Context, offset, limit int) ([]*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, id int64, patch models.ProductPatch) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error

	GetCategory(ctx context.Context, id int64) (*models.Category, error)
	ListCategories(ctx context.Context, offset, limit int) ([]*models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error)
	UpdateCategory(ctx context.Context, category *models.Category) (*models.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
}

type catalogService struct {
	log          *slog.Logger
	productRepo  storage.ProductStorage
	categoryRepo storage.CategoryStorage
}

func NewCatalogService(log *slog.Logger, productRepo storage.ProductStorage, categoryRepo storage.CategoryStorage) CatalogService {
	return &catalogService{
		log:          log,
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
	}
}

func (s *catalogService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	const op = "service.CatalogService.GetProduct"

	product, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrProductNotFound)
		}
		s.log.Error("failed to get product", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get product: %w", op, err)
	}
	return product, nil
}

func (s *catalogService) ListProducts(ctx context.Context, offset, limit int) ([]*models.Product, error) {
	const op = "service.CatalogService.ListProducts"

	products, err := s.productRepo.ListProducts(ctx, offset, limit)
	if err != nil {
		s.log.Error("failed to list products", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list products: %w", op, err)
	}
	return products, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	const op = "service.CatalogService.CreateProduct"
	logger := s.log.With(slog.String("op", op), slog.String("sku", product.SKU))

	// категория должна существовать
	if _, err := s.categoryRepo.GetCategoryByID(ctx, product.CategoryID); err != nil {
		if errors.Is(err, storage.ErrCategoryNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrCategoryNotFound)
		}
		logger.Error("failed to get category", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get category: %w", op, err)
	}

	created, err := s.productRepo.CreateProduct(ctx, product)
	if err != nil {
		if errors.Is(err, storage.ErrSKUAlreadyTaken) {
			logger.Warn("sku already taken")
			return nil, fmt.Errorf("%s: %w", op, ErrSKUTaken)
		}
		logger.Error("failed to create product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create product: %w", op, err)
	}

	logger.Info("product created", slog.Int64("productID", created.ID))
	return created, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id int64, patch models.ProductPatch) (*models.Product, error) {
	const op = "service.CatalogService.UpdateProduct"
	logger := s.log.With(slog.String("op", op), slog.Int64("productID", id))

	if patch.CategoryID != nil {
		if _, err := s.categoryRepo.GetCategoryByID(ctx, *patch.CategoryID); err != nil {
			if errors.Is(err, storage.ErrCategoryNotFound) {
				return nil, fmt.Errorf("%s: %w", op, ErrCategoryNotFound)
			}
			logger.Error("failed to get category", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to get category: %w", op, err)
		}
	}

	product, err := s.productRepo.UpdateProduct(ctx, id, patch)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrProductNotFound)
		}
		logger.Error("failed to update product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to update product: %w", op, err)
	}

	logger.Info("product updated")
	return product, nil
}

// DeleteProduct удаляет товар из каталога.
// Исторические позиции заказов сохраняют количество и зафиксированную цену,
// их ссылка на товар становится висячей (NULL).
func (s *catalogService) DeleteProduct(ctx context.Context, id int64) error {
	const op = "service.CatalogService.DeleteProduct"

	if err := s.productRepo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return fmt.Errorf("%s: %w", op, ErrProductNotFound)
		}
		s.log.Error("failed to delete product", slog.String("op", op), slog.Any("error", err))
		return fmt.Errorf("%s: failed to delete product: %w", op, err)
	}

	s.log.Info("product deleted", slog.String("op", op), slog.Int64("productID", id))
	return nil
}

func (s *catalogService) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	const op = "service.CatalogService.GetCategory"

	category, err := s.categoryRepo.GetCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrCategoryNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrCategoryNotFound)
		}
		s.log.Error("failed to get category", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get category: %w", op, err)
	}
	return category, nil
}

func (s *catalogService) ListCategories(ctx context.Context, offset, limit int) ([]*models.Category, error) {
	const op = "service.CatalogService.ListCategories"

	categories, err := s.categoryRepo.ListCategories(ctx, offset, limit)
	if err != nil {
		s.log.Error("failed to list categories", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list categories: %w", op, err)
	}
	return categories, nil
}

func (s *catalogService) CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	const op = "service.CatalogService.CreateCategory"

	created, err := s.categoryRepo.CreateCategory(ctx, category)
	if err != nil {
		s.log.Error("failed to create category", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create category: %w", op, err)
	}

	s.log.Info("category created", slog.String("op", op), slog.Int64("categoryID", created.ID))
	return created, nil
}

func (s *catalogService) UpdateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	const op = "service.CatalogService.UpdateCategory"

	if err := s.categoryRepo.UpdateCategory(ctx, category); err != nil {
		if errors.Is(err, storage.ErrCategoryNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrCategoryNotFound)
		}
		s.log.Error("failed to update category", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to update category: %w", op, err)
	}
	return category, nil
}

func (s *catalogService) DeleteCategory(ctx context.Context, id int64) error {
	const op = "service.CatalogService.DeleteCategory"

	if err := s.categoryRepo.DeleteCategory(ctx, id); err != nil {
		if errors.Is(err, storage.ErrCategoryNotFound) {
			return fmt.Errorf("%s: %w", op, ErrCategoryNotFound)
		}
		s.log.Error("failed to delete category", slog.String("op", op), slog.Any("error", err))
		return fmt.Errorf("%s: failed to delete category: %w", op, err)
	}
	return nil
}
