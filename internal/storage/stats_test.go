package storage_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/smolnikov/goshop/internal/domain/models"
	"github.com/smolnikov/goshop/internal/storage"
	"github.com/stretchr/testify/assert"
)

func TestGetDashboardStats_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewStatsRepository(db)

	// Все показатели собираются одним запросом; в сумму продаж входят
	// только оплаченные заказы.
	mock.ExpectQuery("SELECT").
		WithArgs(models.OrderStatusPaid).
		WillReturnRows(sqlmock.NewRows([]string{"total_sales", "total_orders", "total_users", "total_products"}).
			AddRow("1234.50", int64(17), int64(42), int64(9)))

	stats, err := repo.GetDashboardStats(context.Background())
	assert.NoError(t, err)
	assert.True(t, stats.TotalSales.Equal(decimal.RequireFromString("1234.50")),
		"total sales should be 1234.50, got %s", stats.TotalSales)
	assert.Equal(t, int64(17), stats.TotalOrders)
	assert.Equal(t, int64(42), stats.TotalUsers)
	assert.Equal(t, int64(9), stats.TotalProducts)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDashboardStats_EmptyShop(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewStatsRepository(db)

	mock.ExpectQuery("SELECT").
		WithArgs(models.OrderStatusPaid).
		WillReturnRows(sqlmock.NewRows([]string{"total_sales", "total_orders", "total_users", "total_products"}).
			AddRow("0", int64(0), int64(0), int64(0)))

	stats, err := repo.GetDashboardStats(context.Background())
	assert.NoError(t, err)
	assert.True(t, stats.TotalSales.IsZero())
	assert.Zero(t, stats.TotalOrders)

	assert.NoError(t, mock.ExpectationsWereMet())
}
