package models

import "github.com/shopspring/decimal"

// Product представляет товар каталога.
// Stock изменяется только через ReserveStockTx (резерв при оформлении заказа)
// либо через административное обновление.
type Product struct {
	ID          int64           `json:"id"`
	SKU         string          `json:"sku"` // уникальный артикул
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	ImageURL    *string         `json:"image_url,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CategoryID  int64           `json:"category_id"`
}

// ProductPatch — частичное обновление товара: заполненные (не nil) поля
// заменяют текущие значения, остальные не трогаются.
type ProductPatch struct {
	Name        *string
	Description *string
	ImageURL    *string
	Price       *decimal.Decimal
	Stock       *int
	CategoryID  *int64
}
