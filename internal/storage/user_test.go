package storage_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/smolnikov/goshop/internal/domain/models"
	"github.com/smolnikov/goshop/internal/storage"
	"github.com/stretchr/testify/assert"
)

func TestCreateUser_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)
	ctx := context.Background()

	// Пользователь и его корзина создаются одной транзакцией.
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("test@example.com", []byte("hashed-password"), "Test User", false).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec("INSERT INTO carts").
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	user, err := repo.CreateUser(ctx, &models.User{
		Email:    "test@example.com",
		PassHash: []byte("hashed-password"),
		FullName: "Test User",
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_AdminHasNoCart(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)

	// Для администратора корзина не создаётся.
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("admin@example.com", []byte("hashed-password"), "Admin", true).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectCommit()

	user, err := repo.CreateUser(context.Background(), &models.User{
		Email:    "admin@example.com",
		PassHash: []byte("hashed-password"),
		FullName: "Admin",
		IsAdmin:  true,
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(2), user.ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_EmailTaken(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	user, err := repo.CreateUser(context.Background(), &models.User{
		Email:    "test@example.com",
		PassHash: []byte("hashed-password"),
	})
	assert.ErrorIs(t, err, storage.ErrEmailAlreadyTaken)
	assert.Nil(t, user)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsers_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)

	// Выборка для панели администратора: только покупатели, страницами.
	mock.ExpectQuery("FROM users\\s+WHERE is_admin = FALSE ORDER BY id OFFSET \\$1 LIMIT \\$2").
		WithArgs(0, 100).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "pass_hash", "full_name", "is_admin"}).
			AddRow(int64(1), "first@example.com", []byte("hash"), "First User", false).
			AddRow(int64(2), "second@example.com", []byte("hash"), "Second User", false))

	users, err := repo.ListUsers(context.Background(), 0, 100)
	assert.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, "first@example.com", users[0].Email)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)

	mock.ExpectQuery("SELECT id, email, pass_hash, full_name, is_admin FROM users WHERE email = \\$1").
		WithArgs("missing@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "pass_hash", "full_name", "is_admin"}))

	user, err := repo.GetUserByEmail(context.Background(), "missing@example.com")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
	assert.Nil(t, user)

	assert.NoError(t, mock.ExpectationsWereMet())
}
