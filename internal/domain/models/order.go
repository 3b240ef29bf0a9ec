package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus — статус заказа, хранится в БД как строка
type OrderStatus string

// при добавлении нового статуса не забыть про validOrderStatuses
const (
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	OrderStatusPaid           OrderStatus = "paid"
	OrderStatusShipped        OrderStatus = "shipped"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

var validOrderStatuses = map[OrderStatus]struct{}{
	OrderStatusPendingPayment: {},
	OrderStatusPaid:           {},
	OrderStatusShipped:        {},
	OrderStatusDelivered:      {},
	OrderStatusCancelled:      {},
}

var ErrInvalidOrderStatus = errors.New("invalid order status")

// ToOrderStatus проверяет строку на принадлежность к фиксированному набору статусов
func ToOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if _, ok := validOrderStatuses[status]; ok {
		return status, nil
	}
	return "", ErrInvalidOrderStatus
}

// Order представляет заказ — неизменяемый снимок корзины на момент оформления.
// После создания меняется только Status и PaymentIntentID.
type Order struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	CreatedAt       time.Time       `json:"created_at"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	Status          OrderStatus     `json:"status"`
	PaymentIntentID *string         `json:"payment_intent_id,omitempty"` // идентификатор платежа во внешнем провайдере
	Items           []*OrderItem    `json:"items"`
}

// OrderItem представляет позицию заказа.
// PriceAtPurchase — цена товара, зафиксированная в момент оформления,
// никогда не пересчитывается из актуальной цены товара.
type OrderItem struct {
	ID              int64           `json:"id"`
	OrderID         int64           `json:"order_id"`
	ProductID       *int64          `json:"product_id,omitempty"` // nil, если товар позже удалили из каталога
	ProductName     string          `json:"product_name"`         // заполняется через JOIN с таблицей products
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
}
