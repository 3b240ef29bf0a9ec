package models

import "github.com/shopspring/decimal"

// DashboardStats — агрегированные показатели магазина для панели администратора.
// TotalSales учитывает только оплаченные заказы, TotalUsers — только покупателей.
type DashboardStats struct {
	TotalSales    decimal.Decimal `json:"total_sales"`
	TotalOrders   int64           `json:"total_orders"`
	TotalUsers    int64           `json:"total_users"`
	TotalProducts int64           `json:"total_products"`
}
