package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/smolnikov/goshop/internal/domain/models"
)

var (
	ErrCartNotFound     = errors.New("cart not found")
	ErrCartItemNotFound = errors.New("cart item not found")
)

// CartStorage описывает методы для работы с корзиной.
// Позиции загружаются жадно вместе с товарами (LEFT JOIN): удалённый товар
// виден как позиция с Product == nil, ленивых дозагрузок нет.
type CartStorage interface {
	GetCartByUserID(ctx context.Context, userID int64) (*models.Cart, error)
	// GetCartByUserIDTx — то же согласованное чтение, но в рамках транзакции вызывающей стороны.
	GetCartByUserIDTx(ctx context.Context, tx *sql.Tx, userID int64) (*models.Cart, error)
	// UpsertItem записывает позицию с итоговым количеством quantity
	// (слияние с текущим количеством — ответственность сервиса).
	UpsertItem(ctx context.Context, cartID, productID int64, quantity int) (*models.CartItem, error)
	// DeleteItem удаляет позицию; вторым результатом сообщает, существовала ли она.
	DeleteItem(ctx context.Context, cartID, productID int64) (bool, error)
	// DeleteItemsTx удаляет перечисленные позиции в рамках транзакции вызывающей стороны —
	// частичная очистка корзины не должна быть наблюдаема извне.
	DeleteItemsTx(ctx context.Context, tx *sql.Tx, cartID int64, productIDs []int64) error
}

type cartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) *cartRepository {
	return &cartRepository{db: db}
}

// единый источник запроса позиций: корзина + товары одним JOIN, стабильный порядок по product_id
const cartItemsQuery = `
	SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity,
	       p.id, p.sku, p.name, p.description, p.image_url, p.price, p.stock, p.category_id
	FROM cart_items ci
	LEFT JOIN products p ON ci.product_id = p.id
	WHERE ci.cart_id = $1
	ORDER BY ci.product_id`

// queryRower покрывает и *sql.DB, и *sql.Tx
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (r *cartRepository) GetCartByUserID(ctx context.Context, userID int64) (*models.Cart, error) {
	return getCart(ctx, r.db, userID)
}

func (r *cartRepository) GetCartByUserIDTx(ctx context.Context, tx *sql.Tx, userID int64) (*models.Cart, error) {
	return getCart(ctx, tx, userID)
}

func getCart(ctx context.Context, q queryRower, userID int64) (*models.Cart, error) {
	cart := &models.Cart{UserID: userID}
	row := q.QueryRowContext(ctx, "SELECT id FROM carts WHERE user_id = $1", userID)
	if err := row.Scan(&cart.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}

	rows, err := q.QueryContext(ctx, cartItemsQuery, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		item := &models.CartItem{}
		var (
			pID         sql.NullInt64
			pSKU        sql.NullString
			pName       sql.NullString
			pDesc       *string
			pImage      *string
			pPrice      decimal.NullDecimal
			pStock      sql.NullInt64
			pCategoryID sql.NullInt64
		)
		if err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.Quantity,
			&pID, &pSKU, &pName, &pDesc, &pImage, &pPrice, &pStock, &pCategoryID); err != nil {
			return nil, err
		}
		// товар мог быть удалён из каталога после добавления в корзину
		if pID.Valid {
			item.Product = &models.Product{
				ID:          pID.Int64,
				SKU:         pSKU.String,
				Name:        pName.String,
				Description: pDesc,
				ImageURL:    pImage,
				Price:       pPrice.Decimal,
				Stock:       int(pStock.Int64),
				CategoryID:  pCategoryID.Int64,
			}
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *cartRepository) UpsertItem(ctx context.Context, cartID, productID int64, quantity int) (*models.CartItem, error) {
	item := &models.CartItem{CartID: cartID, ProductID: productID, Quantity: quantity}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO cart_items (cart_id, product_id, quantity) VALUES ($1, $2, $3)
		 ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity
		 RETURNING id`,
		cartID, productID, quantity,
	).Scan(&item.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert cart item: %w", err)
	}
	return item, nil
}

func (r *cartRepository) DeleteItem(ctx context.Context, cartID, productID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2", cartID, productID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *cartRepository) DeleteItemsTx(ctx context.Context, tx *sql.Tx, cartID int64, productIDs []int64) error {
	if len(productIDs) == 0 {
		return nil
	}
	_, err := tx.ExecContext(ctx,
		"DELETE FROM cart_items WHERE cart_id = $1 AND product_id = ANY($2)",
		cartID, pq.Array(productIDs))
	if err != nil {
		return fmt.Errorf("failed to delete cart items: %w", err)
	}
	return nil
}
