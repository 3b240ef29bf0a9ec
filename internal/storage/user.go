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
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailAlreadyTaken = errors.New("email already taken")
)

type UserStorage interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	// CreateUser создаёт пользователя и (для не-админов) его корзину в одной транзакции.
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	// ListUsers возвращает покупателей (без администраторов) страницами.
	ListUsers(ctx context.Context, offset, limit int) ([]*models.User, error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *userRepository {
	return &userRepository{db: db}
}

// получение уже существующего пользователя
func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	row := r.db.QueryRowContext(ctx,
		"SELECT id, email, pass_hash, full_name, is_admin FROM users WHERE email = $1", email)
	if err := row.Scan(&user.ID, &user.Email, &user.PassHash, &user.FullName, &user.IsAdmin); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user := &models.User{}
	row := r.db.QueryRowContext(ctx,
		"SELECT id, email, pass_hash, full_name, is_admin FROM users WHERE id = $1", id)
	if err := row.Scan(&user.ID, &user.Email, &user.PassHash, &user.FullName, &user.IsAdmin); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepository) ListUsers(ctx context.Context, offset, limit int) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, email, pass_hash, full_name, is_admin FROM users
		 WHERE is_admin = FALSE ORDER BY id OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(&user.ID, &user.Email, &user.PassHash, &user.FullName, &user.IsAdmin); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateUser создаёт пользователя вместе с корзиной (1:1), админам корзина не нужна
func (r *userRepository) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	var id int64
	err = tx.QueryRowContext(ctx,
		"INSERT INTO users (email, pass_hash, full_name, is_admin) VALUES ($1, $2, $3, $4) RETURNING id",
		user.Email, user.PassHash, user.FullName, user.IsAdmin,
	).Scan(&id)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return nil, fmt.Errorf("rollback failed: %w", rbErr)
		}
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
			return nil, ErrEmailAlreadyTaken
		}
		return nil, err
	}
	user.ID = id

	if !user.IsAdmin {
		if _, err := tx.ExecContext(ctx, "INSERT INTO carts (user_id) VALUES ($1)", id); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				return nil, fmt.Errorf("rollback failed: %w", rbErr)
			}
			return nil, fmt.Errorf("failed to create cart: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return user, nil
}
