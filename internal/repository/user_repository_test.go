package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"approvalCPT/internal/models"
)

var userColumns = []string{
	"user_id", "username", "email", "password_hash", "role",
	"first_name", "last_name", "phone_number", "theme",
	"refresh_token", "refresh_token_expiry_time", "created_at",
}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestUserRepository_CreateUser(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewUserRepository(sqlxDB)

	ctx := context.Background()
	password := "password123"

	insertQuery := `
		INSERT INTO users
		(user_id, username, email, password_hash, role, first_name, last_name,
		 phone_number, theme, refresh_token, refresh_token_expiry_time, created_at)
		VALUES
		(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	t.Run("Успешное создание пользователя", func(t *testing.T) {
		user := &models.User{
			Username:     "acme",
			Email:        "client@acme.io",
			Role:         models.RoleClient,
			RefreshToken: "refresh_token",
		}

		mock.ExpectExec(insertQuery).
			WithArgs(
				sqlmock.AnyArg(), // user_id генерируется в репозитории
				"acme",
				"client@acme.io",
				sqlmock.AnyArg(), // password_hash
				models.RoleClient,
				"", "", "",
				"light", // тема по умолчанию
				"refresh_token",
				time.Time{},
				sqlmock.AnyArg(),
			).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.CreateUser(ctx, sqlxDB, user, password)

		assert.NoError(t, err)
		assert.NotEmpty(t, user.UserID)
		assert.NotEqual(t, password, user.PasswordHash)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Дубликат имени или email", func(t *testing.T) {
		user := &models.User{
			Username: "acme",
			Email:    "client@acme.io",
			Role:     models.RoleClient,
		}

		mock.ExpectExec(insertQuery).
			WillReturnError(errors.New("duplicate key value violates unique constraint"))

		err := repo.CreateUser(ctx, sqlxDB, user, password)

		assert.Error(t, err)
		assert.True(t, models.IsValidation(err))
		assert.Contains(t, err.Error(), "уже существует")
	})
}

func TestUserRepository_GetUserByID(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewUserRepository(sqlxDB)

	ctx := context.Background()
	userID := uuid.New().String()

	t.Run("Успешное получение пользователя по ID", func(t *testing.T) {
		rows := sqlmock.NewRows(userColumns).
			AddRow(userID, "acme", "client@acme.io", "hashed", models.RoleClient,
				"Иван", "Петров", "", "light", "", time.Time{}, time.Now())

		mock.ExpectQuery(`SELECT * FROM users WHERE user_id = $1`).
			WithArgs(userID).
			WillReturnRows(rows)

		user, err := repo.GetUserByID(ctx, userID)

		require.NoError(t, err)
		assert.Equal(t, userID, user.UserID)
		assert.Equal(t, "acme", user.Username)
		assert.Equal(t, models.RoleClient, user.Role)
	})

	t.Run("Пользователь не найден", func(t *testing.T) {
		mock.ExpectQuery(`SELECT * FROM users WHERE user_id = $1`).
			WithArgs(userID).
			WillReturnError(sql.ErrNoRows)

		user, err := repo.GetUserByID(ctx, userID)

		assert.Nil(t, user)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("Ошибка базы данных", func(t *testing.T) {
		mock.ExpectQuery(`SELECT * FROM users WHERE user_id = $1`).
			WithArgs(userID).
			WillReturnError(errors.New("connection failed"))

		user, err := repo.GetUserByID(ctx, userID)

		assert.Nil(t, user)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "ошибка при получении пользователя")
	})
}

func TestUserRepository_VerifyPassword(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewUserRepository(sqlxDB)

	ctx := context.Background()
	username := "acme"
	password := "correct_password"

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)

	userRow := func() *sqlmock.Rows {
		return sqlmock.NewRows(userColumns).
			AddRow(uuid.New().String(), username, "client@acme.io", string(hashedPassword),
				models.RoleClient, "", "", "", "light", "", time.Time{}, time.Now())
	}

	t.Run("Успешная проверка пароля", func(t *testing.T) {
		mock.ExpectQuery(`SELECT * FROM users WHERE username = $1`).
			WithArgs(username).
			WillReturnRows(userRow())

		user, err := repo.VerifyPassword(ctx, username, password)

		require.NoError(t, err)
		assert.Equal(t, username, user.Username)
	})

	t.Run("Неверный пароль", func(t *testing.T) {
		mock.ExpectQuery(`SELECT * FROM users WHERE username = $1`).
			WithArgs(username).
			WillReturnRows(userRow())

		user, err := repo.VerifyPassword(ctx, username, "wrong_password")

		assert.Nil(t, user)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "неверный пароль")
	})

	t.Run("Пользователь не найден", func(t *testing.T) {
		mock.ExpectQuery(`SELECT * FROM users WHERE username = $1`).
			WithArgs(username).
			WillReturnError(sql.ErrNoRows)

		user, err := repo.VerifyPassword(ctx, username, password)

		assert.Nil(t, user)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewUserRepository(sqlxDB)

	ctx := context.Background()
	userID := uuid.New().String()

	query := `
		UPDATE users
		SET password_hash = $1, refresh_token = '', refresh_token_expiry_time = CURRENT_TIMESTAMP
		WHERE user_id = $2
	`

	t.Run("Смена пароля сбрасывает refresh token", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(sqlmock.AnyArg(), userID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdatePassword(ctx, userID, "new_password")

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Пользователь не найден", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(sqlmock.AnyArg(), userID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdatePassword(ctx, userID, "new_password")

		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestUserRepository_GetUserByRefreshToken(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewUserRepository(sqlxDB)

	ctx := context.Background()
	refreshToken := "valid_refresh_token"

	query := `
		SELECT * FROM users
		WHERE refresh_token = $1
		AND refresh_token_expiry_time > CURRENT_TIMESTAMP
	`

	t.Run("Валидный refresh token", func(t *testing.T) {
		rows := sqlmock.NewRows(userColumns).
			AddRow(uuid.New().String(), "acme", "client@acme.io", "hashed", models.RoleClient,
				"", "", "", "light", refreshToken, time.Now().Add(time.Hour), time.Now())

		mock.ExpectQuery(query).
			WithArgs(refreshToken).
			WillReturnRows(rows)

		user, err := repo.GetUserByRefreshToken(ctx, refreshToken)

		require.NoError(t, err)
		assert.Equal(t, refreshToken, user.RefreshToken)
	})

	t.Run("Просроченный или неизвестный refresh token", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs("expired_token").
			WillReturnError(sql.ErrNoRows)

		user, err := repo.GetUserByRefreshToken(ctx, "expired_token")

		assert.Nil(t, user)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "недействительный или просроченный")
	})
}
