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
	ErrProductNotFound = errors.New("product not found")
	ErrItemNotInCart   = errors.New("item not in cart")
	ErrCartNotFound    = errors.New("cart not found")
)

// InsufficientStockError называет товар, которого не хватило.
// Возвращается и проверкой при добавлении в корзину (рекомендательной),
// и оформлением заказа (авторитетной, под блокировкой строки).
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %q (id=%d): requested %d, available %d",
		e.ProductName, e.ProductID, e.Requested, e.Available)
}

type CartService interface {
	GetCart(ctx context.Context, userID int64) (*models.Cart, error)
	// AddItem добавляет товар в корзину либо суммирует количество с уже лежащим.
	AddItem(ctx context.Context, userID, productID int64, quantity int) (*models.CartItem, error)
	// SetQuantity заменяет количество позиции; quantity <= 0 означает удаление
	// (не ошибку). Возвращает nil, nil при удалении.
	SetQuantity(ctx context.Context, userID, productID int64, quantity int) (*models.CartItem, error)
	RemoveItem(ctx context.Context, userID, productID int64) error
}

type cartService struct {
	log         *slog.Logger
	cartRepo    storage.CartStorage
	productRepo storage.ProductStorage
}

func NewCartService(log *slog.Logger, cartRepo storage.CartStorage, productRepo storage.ProductStorage) CartService {
	return &cartService{
		log:         log,
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

func (s *cartService) GetCart(ctx context.Context, userID int64) (*models.Cart, error) {
	const op = "service.CartService.GetCart"

	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrCartNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrCartNotFound)
		}
		s.log.Error("failed to get cart", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get cart: %w", op, err)
	}
	return cart, nil
}

// AddItem выполняет рекомендательную проверку остатка: к моменту оформления
// заказа остаток может измениться, авторитетная проверка — в OrderService.
func (s *cartService) AddItem(ctx context.Context, userID, productID int64, quantity int) (*models.CartItem, error) {
	const op = "service.CartService.AddItem"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("productID", productID))

	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrCartNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrCartNotFound)
		}
		logger.Error("failed to get cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get cart: %w", op, err)
	}

	product, err := s.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			logger.Warn("product not found")
			return nil, fmt.Errorf("%s: %w", op, ErrProductNotFound)
		}
		logger.Error("failed to get product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get product: %w", op, err)
	}

	newQuantity := quantity
	for _, item := range cart.Items {
		if item.ProductID == productID {
			newQuantity += item.Quantity
			break
		}
	}

	if newQuantity > product.Stock {
		logger.Warn("insufficient stock",
			slog.Int("requested", newQuantity), slog.Int("available", product.Stock))
		return nil, fmt.Errorf("%s: %w", op, &InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   newQuantity,
			Available:   product.Stock,
		})
	}

	item, err := s.cartRepo.UpsertItem(ctx, cart.ID, productID, newQuantity)
	if err != nil {
		logger.Error("failed to upsert cart item", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to upsert cart item: %w", op, err)
	}

	logger.Info("item added to cart", slog.Int("quantity", newQuantity))
	return item, nil
}

func (s *cartService) SetQuantity(ctx context.Context, userID, productID int64, quantity int) (*models.CartItem, error) {
	const op = "service.CartService.SetQuantity"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("productID", productID))

	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrCartNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrCartNotFound)
		}
		logger.Error("failed to get cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get cart: %w", op, err)
	}

	// нулевое или отрицательное количество — сигнал удаления, не ошибка
	if quantity <= 0 {
		if _, err := s.cartRepo.DeleteItem(ctx, cart.ID, productID); err != nil {
			logger.Error("failed to delete cart item", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to delete cart item: %w", op, err)
		}
		logger.Info("item removed from cart")
		return nil, nil
	}

	var exists bool
	for _, item := range cart.Items {
		if item.ProductID == productID {
			exists = true
			break
		}
	}
	if !exists {
		logger.Warn("item not in cart")
		return nil, fmt.Errorf("%s: %w", op, ErrItemNotInCart)
	}

	product, err := s.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrProductNotFound)
		}
		logger.Error("failed to get product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get product: %w", op, err)
	}

	// в отличие от AddItem количество заменяется, а не суммируется
	if quantity > product.Stock {
		logger.Warn("insufficient stock",
			slog.Int("requested", quantity), slog.Int("available", product.Stock))
		return nil, fmt.Errorf("%s: %w", op, &InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   quantity,
			Available:   product.Stock,
		})
	}

	item, err := s.cartRepo.UpsertItem(ctx, cart.ID, productID, quantity)
	if err != nil {
		logger.Error("failed to upsert cart item", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to upsert cart item: %w", op, err)
	}

	logger.Info("item quantity updated", slog.Int("quantity", quantity))
	return item, nil
}

// RemoveItem удаляет позицию; отсутствие позиции — отдельная ошибка,
// чтобы обработчик мог ответить 404.
func (s *cartService) RemoveItem(ctx context.Context, userID, productID int64) error {
	const op = "service.CartService.RemoveItem"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("productID", productID))

	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrCartNotFound) {
			return fmt.Errorf("%s: %w", op, ErrCartNotFound)
		}
		logger.Error("failed to get cart", slog.Any("error", err))
		return fmt.Errorf("%s: failed to get cart: %w", op, err)
	}

	existed, err := s.cartRepo.DeleteItem(ctx, cart.ID, productID)
	if err != nil {
		logger.Error("failed to delete cart item", slog.Any("error", err))
		return fmt.Errorf("%s: failed to delete cart item: %w", op, err)
	}
	if !existed {
		return fmt.Errorf("%s: %w", op, ErrItemNotInCart)
	}

	logger.Info("item removed from cart")
	return nil
}
