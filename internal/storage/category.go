package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/smolnikov/goshop/internal/domain/models"
)

var ErrCategoryNotFound = errors.New("category not found")

// CategoryStorage описывает методы для работы с категориями каталога.
type CategoryStorage interface {
	GetCategoryByID(ctx context.Context, id int64) (*models.Category, error)
	ListCategories(ctx context.Context, offset, limit int) ([]*models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error)
	UpdateCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, id int64) error
}

type categoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) CategoryStorage {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) GetCategoryByID(ctx context.Context, id int64) (*models.Category, error) {
	category := &models.Category{}
	row := r.db.QueryRowContext(ctx, "SELECT id, title, description FROM categories WHERE id = $1", id)
	if err := row.Scan(&category.ID, &category.Title, &category.Description); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

func (r *categoryRepository) ListCategories(ctx context.Context, offset, limit int) ([]*models.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, title, description FROM categories ORDER BY id OFFSET $1 LIMIT $2", offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		category := &models.Category{}
		if err := rows.Scan(&category.ID, &category.Title, &category.Description); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepository) CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO categories (title, description) VALUES ($1, $2) RETURNING id",
		category.Title, category.Description,
	).Scan(&id)
	if err != nil {
		return nil, err
	}
	category.ID = id
	return category, nil
}

func (r *categoryRepository) UpdateCategory(ctx context.Context, category *models.Category) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE categories SET title = $1, description = $2 WHERE id = $3",
		category.Title, category.Description, category.ID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func (r *categoryRepository) DeleteCategory(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM categories WHERE id = $1", id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}
