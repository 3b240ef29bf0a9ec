package storage

import (
	"context"
	"database/sql"

	"github.com/smolnikov/goshop/internal/domain/models"
)

// StatsStorage отдаёт агрегированные показатели магазина.
type StatsStorage interface {
	GetDashboardStats(ctx context.Context) (*models.DashboardStats, error)
}

type statsRepository struct {
	db *sql.DB
}

func NewStatsRepository(db *sql.DB) StatsStorage {
	return &statsRepository{db: db}
}

// GetDashboardStats собирает все показатели одним запросом: четыре
// скалярных подзапроса выполняются на одном снимке данных.
func (r *statsRepository) GetDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{}
	row := r.db.QueryRowContext(ctx,
		`SELECT
			COALESCE((SELECT SUM(total_price) FROM orders WHERE status = $1), 0),
			(SELECT COUNT(*) FROM orders),
			(SELECT COUNT(*) FROM users WHERE is_admin = FALSE),
			(SELECT COUNT(*) FROM products)`,
		models.OrderStatusPaid)
	if err := row.Scan(&stats.TotalSales, &stats.TotalOrders, &stats.TotalUsers, &stats.TotalProducts); err != nil {
		return nil, err
	}
	return stats, nil
}
