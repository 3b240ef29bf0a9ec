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
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrSKUAlreadyTaken   = errors.New("sku already taken")
)

// ProductStorage описывает методы для работы с товарами,
// включая единственный разрешённый способ списания остатков — ReserveStockTx.
type ProductStorage interface {
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	ListProducts(ctx context.Context, offset, limit int) ([]*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, id int64, patch models.ProductPatch) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	// ReserveStockTx атомарно списывает quantity единиц товара в рамках транзакции tx.
	// Строка товара блокируется (FOR UPDATE), остаток перечитывается под блокировкой:
	// два конкурентных оформления заказа не могут продать одни и те же последние единицы.
	// Возвращает остаток, прочитанный под блокировкой; при ErrInsufficientStock это
	// фактически доступное количество на момент списания.
	ReserveStockTx(ctx context.Context, tx *sql.Tx, productID int64, quantity int) (int, error)
}

type productRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *productRepository {
	return &productRepository{db: db}
}

const productColumns = "id, sku, name, description, image_url, price, stock, category_id"

func scanProduct(row *sql.Row) (*models.Product, error) {
	p := &models.Product{}
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.ImageURL, &p.Price, &p.Stock, &p.CategoryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *productRepository) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = $1", id)
	return scanProduct(row)
}

func (r *productRepository) ListProducts(ctx context.Context, offset, limit int) ([]*models.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products ORDER BY id OFFSET $1 LIMIT $2", offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		p := &models.Product{}
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.ImageURL, &p.Price, &p.Stock, &p.CategoryID); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO products (sku, name, description, image_url, price, stock, category_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		product.SKU, product.Name, product.Description, product.ImageURL,
		product.Price, product.Stock, product.CategoryID,
	).Scan(&id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
			return nil, ErrSKUAlreadyTaken
		}
		return nil, err
	}
	product.ID = id
	return product, nil
}

// UpdateProduct применяет частичное обновление: только заполненные поля patch
// заменяют текущие значения. Возвращает обновлённый товар.
func (r *productRepository) UpdateProduct(ctx context.Context, id int64, patch models.ProductPatch) (*models.Product, error) {
	product, err := r.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		product.Name = *patch.Name
	}
	if patch.Description != nil {
		product.Description = patch.Description
	}
	if patch.ImageURL != nil {
		product.ImageURL = patch.ImageURL
	}
	if patch.Price != nil {
		product.Price = *patch.Price
	}
	if patch.Stock != nil {
		product.Stock = *patch.Stock
	}
	if patch.CategoryID != nil {
		product.CategoryID = *patch.CategoryID
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET name = $1, description = $2, image_url = $3, price = $4, stock = $5, category_id = $6
		 WHERE id = $7`,
		product.Name, product.Description, product.ImageURL,
		product.Price, product.Stock, product.CategoryID, id)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrProductNotFound
	}
	return product, nil
}

func (r *productRepository) DeleteProduct(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// ReserveStockTx списывает остаток под блокировкой строки.
// Чтение и списание происходят в одной транзакции tx вызывающей стороны —
// при её откате списание тоже откатывается.
func (r *productRepository) ReserveStockTx(ctx context.Context, tx *sql.Tx, productID int64, quantity int) (int, error) {
	var stock int
	row := tx.QueryRowContext(ctx, "SELECT stock FROM products WHERE id = $1 FOR UPDATE", productID)
	if err := row.Scan(&stock); err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "55P03" { // lock_not_available: истёк lock_timeout
				return 0, fmt.Errorf("resource is locked, please try again: %w", err)
			}
		}
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrProductNotFound
		}
		return 0, err
	}

	if stock < quantity {
		return stock, ErrInsufficientStock
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE products SET stock = stock - $1 WHERE id = $2", quantity, productID); err != nil {
		return stock, fmt.Errorf("failed to decrement stock: %w", err)
	}
	return stock, nil
}
