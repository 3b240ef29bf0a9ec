package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/smolnikov/goshop/internal/domain/models"
	"github.com/smolnikov/goshop/internal/storage"
)

var (
	ErrEmptyCart     = errors.New("cart is empty")
	ErrOrderNotFound = errors.New("order not found")
	ErrInvalidStatus = errors.New("invalid order status")
)

type OrderService interface {
	// CreateOrderFromCart атомарно превращает корзину в заказ:
	// резервирует остатки, фиксирует цены, очищает корзину. Всё или ничего.
	CreateOrderFromCart(ctx context.Context, userID int64) (*models.Order, error)
	GetOrders(ctx context.Context, userID int64) ([]*models.Order, error)
	// GetOrder возвращает заказ владельцу или администратору; чужой и
	// несуществующий заказы неразличимы для вызывающего.
	GetOrder(ctx context.Context, orderID, userID int64, isAdmin bool) (*models.Order, error)
	// UpdateStatus — административная смена статуса; принимает только значения
	// из фиксированного набора, исходный статус не ограничивает переход.
	UpdateStatus(ctx context.Context, orderID int64, status string) (*models.Order, error)
}

type orderService struct {
	log         *slog.Logger
	db          *sql.DB
	cartRepo    storage.CartStorage
	productRepo storage.ProductStorage
	orderRepo   storage.OrderStorage
}

func NewOrderService(log *slog.Logger, db *sql.DB, cartRepo storage.CartStorage,
	productRepo storage.ProductStorage, orderRepo storage.OrderStorage) OrderService {
	return &orderService{
		log:         log,
		db:          db,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
	}
}

// CreateOrderFromCart — ядро оформления заказа.
// Если что-то идёт не так, транзакция откатывается целиком: ни частичного
// заказа, ни частичного списания остатков не остаётся.
func (s *orderService) CreateOrderFromCart(ctx context.Context, userID int64) (*models.Order, error) {
	const op = "service.OrderService.CreateOrderFromCart"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))
	logger.Info("starting checkout transaction")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	// единое согласованное чтение корзины вместе с товарами,
	// позиции упорядочены по product_id
	cart, err := s.cartRepo.GetCartByUserIDTx(ctx, tx, userID)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		if errors.Is(err, storage.ErrCartNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrCartNotFound)
		}
		logger.Error("failed to get cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get cart: %w", op, err)
	}

	if len(cart.Items) == 0 {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Warn("cart is empty")
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyCart)
	}

	// Резервируем остатки в порядке возрастания product_id (порядок задан
	// запросом корзины) — одинаковая дисциплина захвата блокировок у всех
	// конкурентных оформлений исключает взаимные блокировки.
	var (
		orderItems  []*models.OrderItem
		consumedIDs []int64 // позиции, вошедшие в заказ
		danglingIDs []int64 // позиции с исчезнувшим товаром — подлежат очистке
		totalPrice  = decimal.Zero
	)
	for _, item := range cart.Items {
		// исчезнувший товар не срывает оформление заказа, его строка просто выбывает
		if item.Product == nil {
			danglingIDs = append(danglingIDs, item.ProductID)
			continue
		}

		available, err := s.productRepo.ReserveStockTx(ctx, tx, item.ProductID, item.Quantity)
		if err != nil {
			if errors.Is(err, storage.ErrProductNotFound) {
				// товар удалили между чтением корзины и захватом блокировки
				danglingIDs = append(danglingIDs, item.ProductID)
				continue
			}
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("transaction rollback failed", slog.Any("error", rbErr))
			}
			if errors.Is(err, storage.ErrInsufficientStock) {
				// available — остаток, прочитанный под блокировкой, а не снимок
				// из корзины: клиент видит число, с которым сравнивалось списание
				logger.Warn("insufficient stock",
					slog.Int64("productID", item.ProductID),
					slog.Int("requested", item.Quantity),
					slog.Int("available", available))
				return nil, fmt.Errorf("%s: %w", op, &InsufficientStockError{
					ProductID:   item.ProductID,
					ProductName: item.Product.Name,
					Requested:   item.Quantity,
					Available:   available,
				})
			}
			logger.Error("failed to reserve stock", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to reserve stock: %w", op, err)
		}

		// цена фиксируется в момент оформления и больше не пересчитывается
		orderItems = append(orderItems, &models.OrderItem{
			ProductID:       &item.Product.ID,
			ProductName:     item.Product.Name,
			Quantity:        item.Quantity,
			PriceAtPurchase: item.Product.Price,
		})
		consumedIDs = append(consumedIDs, item.ProductID)
		totalPrice = totalPrice.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	// корзина состояла только из висячих позиций: вычищаем их (исполнить их
	// невозможно) и сообщаем о пустой корзине
	if len(orderItems) == 0 {
		if err := s.cartRepo.DeleteItemsTx(ctx, tx, cart.ID, danglingIDs); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("transaction rollback failed", slog.Any("error", rbErr))
			}
			logger.Error("failed to prune dangling cart items", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to prune dangling cart items: %w", op, err)
		}
		if err := tx.Commit(); err != nil {
			logger.Error("failed to commit transaction", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
		}
		logger.Warn("cart contained only vanished products", slog.Int("pruned", len(danglingIDs)))
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyCart)
	}

	order, err := s.orderRepo.CreateOrderTx(ctx, tx, &models.Order{
		UserID:     userID,
		TotalPrice: totalPrice,
		Status:     models.OrderStatusPendingPayment,
		Items:      orderItems,
	})
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to create order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create order: %w", op, err)
	}

	// очищаем преобразованные и висячие позиции одной транзакцией с заказом
	if err := s.cartRepo.DeleteItemsTx(ctx, tx, cart.ID, append(consumedIDs, danglingIDs...)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to clear cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to clear cart: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	logger.Info("order created",
		slog.Int64("orderID", order.ID),
		slog.String("total", order.TotalPrice.String()),
		slog.Int("items", len(order.Items)))
	return order, nil
}

func (s *orderService) GetOrders(ctx context.Context, userID int64) ([]*models.Order, error) {
	const op = "service.OrderService.GetOrders"

	orders, err := s.orderRepo.GetOrdersByUserID(ctx, userID)
	if err != nil {
		s.log.Error("failed to get orders", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get orders: %w", op, err)
	}
	return orders, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID, userID int64, isAdmin bool) (*models.Order, error) {
	const op = "service.OrderService.GetOrder"

	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrOrderNotFound)
		}
		s.log.Error("failed to get order", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get order: %w", op, err)
	}

	// чужой заказ неотличим от несуществующего — не раскрываем его наличие
	if !isAdmin && order.UserID != userID {
		return nil, fmt.Errorf("%s: %w", op, ErrOrderNotFound)
	}
	return order, nil
}

// UpdateStatus меняет статус под блокировкой строки: административное
// обновление и обработчик платёжных уведомлений могут сработать почти
// одновременно, и оба обязаны читать статус через FOR UPDATE.
func (s *orderService) UpdateStatus(ctx context.Context, orderID int64, status string) (*models.Order, error) {
	const op = "service.OrderService.UpdateStatus"
	logger := s.log.With(slog.String("op", op), slog.Int64("orderID", orderID), slog.String("status", status))

	target, err := models.ToOrderStatus(status)
	if err != nil {
		logger.Warn("invalid status value")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidStatus)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	order, err := s.orderRepo.LockOrderByIDTx(ctx, tx, orderID)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		if errors.Is(err, storage.ErrOrderNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrOrderNotFound)
		}
		logger.Error("failed to lock order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to lock order: %w", op, err)
	}

	if err := s.orderRepo.UpdateStatusTx(ctx, tx, orderID, target); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to update status", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to update status: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	order.Status = target
	logger.Info("order status updated")
	return order, nil
}
