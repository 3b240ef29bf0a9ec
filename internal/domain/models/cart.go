package models

// Cart представляет корзину пользователя (1:1 с пользователем, создаётся при регистрации)
type Cart struct {
	ID     int64       `json:"id"`
	UserID int64       `json:"user_id"`
	Items  []*CartItem `json:"items"`
}

// CartItem представляет позицию корзины.
// Уникальна в рамках пары (корзина, товар) — повторное добавление суммирует количество.
type CartItem struct {
	ID        int64    `json:"id"`
	CartID    int64    `json:"cart_id"`
	ProductID int64    `json:"product_id"`
	Quantity  int      `json:"quantity"`
	Product   *Product `json:"product,omitempty"` // nil, если товар был удалён из каталога
}
