package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/smolnikov/goshop/internal/domain/models"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrPaymentIntentTaken = errors.New("payment intent already bound to another order")
)

// OrderStorage описывает методы для работы с заказами.
// Заказ создаётся только внутри транзакции сборки заказа (CreateOrderTx)
// и после создания не теряет и не приобретает позиций.
type OrderStorage interface {
	// CreateOrderTx вставляет заказ вместе с позициями в рамках транзакции вызывающей стороны.
	CreateOrderTx(ctx context.Context, tx *sql.Tx, order *models.Order) (*models.Order, error)
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error)
	// LockOrderByIDTx читает заказ (без позиций) под блокировкой строки.
	// Обе стороны, меняющие статус (админ и обработчик платежей), обязаны
	// проходить через эту блокировку, иначе возможна потеря обновления.
	LockOrderByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Order, error)
	UpdateStatusTx(ctx context.Context, tx *sql.Tx, id int64, status models.OrderStatus) error
	SetPaymentIntentTx(ctx context.Context, tx *sql.Tx, id int64, paymentIntentID string) error
}

type orderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *orderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) CreateOrderTx(ctx context.Context, tx *sql.Tx, order *models.Order) (*models.Order, error) {
	err := tx.QueryRowContext(ctx,
		`INSERT INTO orders (user_id, total_price, status, created_at) VALUES ($1, $2, $3, NOW())
		 RETURNING id, created_at`,
		order.UserID, order.TotalPrice, order.Status,
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	for _, item := range order.Items {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity, price_at_purchase)
			 VALUES ($1, $2, $3, $4) RETURNING id`,
			order.ID, item.ProductID, item.Quantity, item.PriceAtPurchase,
		).Scan(&item.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to create order item: %w", err)
		}
		item.OrderID = order.ID
	}
	return order, nil
}

const orderItemsQuery = `
	SELECT oi.id, oi.order_id, oi.product_id, COALESCE(p.name, ''), oi.quantity, oi.price_at_purchase
	FROM order_items oi
	LEFT JOIN products p ON oi.product_id = p.id
	WHERE oi.order_id = ANY($1)
	ORDER BY oi.id`

func (r *orderRepository) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	order := &models.Order{}
	row := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, total_price, status, payment_intent_id, created_at FROM orders WHERE id = $1", id)
	if err := row.Scan(&order.ID, &order.UserID, &order.TotalPrice, &order.Status,
		&order.PaymentIntentID, &order.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	items, err := r.loadItems(ctx, []int64{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]
	return order, nil
}

// GetOrdersByUserID возвращает заказы пользователя вместе с позициями,
// самые свежие — первыми.
func (r *orderRepository) GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, total_price, status, payment_intent_id, created_at
		 FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.Order
	var ids []int64
	for rows.Next() {
		order := &models.Order{}
		if err := rows.Scan(&order.ID, &order.UserID, &order.TotalPrice, &order.Status,
			&order.PaymentIntentID, &order.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return orders, nil
	}
	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, order := range orders {
		order.Items = items[order.ID]
	}
	return orders, nil
}

func (r *orderRepository) loadItems(ctx context.Context, orderIDs []int64) (map[int64][]*models.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, orderItemsQuery, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make(map[int64][]*models.OrderItem)
	for rows.Next() {
		item := &models.OrderItem{}
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.Quantity, &item.PriceAtPurchase); err != nil {
			return nil, err
		}
		items[item.OrderID] = append(items[item.OrderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *orderRepository) LockOrderByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Order, error) {
	order := &models.Order{}
	row := tx.QueryRowContext(ctx,
		"SELECT id, user_id, total_price, status, payment_intent_id, created_at FROM orders WHERE id = $1 FOR UPDATE", id)
	if err := row.Scan(&order.ID, &order.UserID, &order.TotalPrice, &order.Status,
		&order.PaymentIntentID, &order.CreatedAt); err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "55P03" { // lock_not_available
				return nil, fmt.Errorf("resource is locked, please try again: %w", err)
			}
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id int64, status models.OrderStatus) error {
	res, err := tx.ExecContext(ctx, "UPDATE orders SET status = $1 WHERE id = $2", status, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) SetPaymentIntentTx(ctx context.Context, tx *sql.Tx, id int64, paymentIntentID string) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE orders SET payment_intent_id = $1 WHERE id = $2", paymentIntentID, id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
			return ErrPaymentIntentTaken
		}
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}
