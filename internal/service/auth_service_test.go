package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"approvalCPT/internal/config"
	"approvalCPT/internal/database"
	"approvalCPT/internal/models"
	"approvalCPT/internal/repository"
)

var userColumns = []string{
	"user_id", "username", "email", "password_hash", "role", "first_name", "last_name",
	"phone_number", "theme", "refresh_token", "refresh_token_expiry_time", "created_at",
}

func newTestAuthService(t *testing.T) (AuthService, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	wrapped := &database.DB{DB: sqlxDB}
	rep := repository.NewRepository(sqlxDB)

	cfg := &config.Config{
		JWTSecretKey:         "test-secret",
		AccessTokenDuration:  15 * time.Minute,
		RefreshTokenDuration: 24 * time.Hour,
	}

	return NewAuthService(wrapped, rep.User, rep.Client, rep.Audit, cfg), mock
}

func expectUserByUsername(mock sqlmock.Sqlmock, username, password string) {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)

	rows := sqlmock.NewRows(userColumns).
		AddRow("user-1", username, "admin@agency.io", string(hash), models.RoleAdmin,
			"", "", "", "light", "", time.Now(), time.Now())

	mock.ExpectQuery(`SELECT * FROM users WHERE username = $1`).
		WithArgs(username).
		WillReturnRows(rows)
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("Токен и запись о входе - одна транзакция", func(t *testing.T) {
		svc, mock := newTestAuthService(t)
		expectUserByUsername(mock, "admin", "password123")

		mock.ExpectBegin()
		mock.ExpectExec(`
			UPDATE users
			SET refresh_token = $1, refresh_token_expiry_time = $2
			WHERE user_id = $3
		`).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "user-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`
			INSERT INTO audit_log (audit_id, user_id, action, details, created_at)
			VALUES (?, ?, ?, ?, ?)
		`).
			WithArgs(sqlmock.AnyArg(), "user-1", "user_login", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		user, accessToken, refreshToken, err := svc.Login(ctx, "admin", "password123")

		require.NoError(t, err)
		assert.Equal(t, "user-1", user.UserID)
		assert.NotEmpty(t, accessToken)
		assert.NotEmpty(t, refreshToken)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Неверный пароль - без записей", func(t *testing.T) {
		svc, mock := newTestAuthService(t)
		expectUserByUsername(mock, "admin", "password123")

		_, _, _, err := svc.Login(ctx, "admin", "wrong")

		assert.Error(t, err)
		// транзакция даже не открывалась
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAuthService_RegisterClient(t *testing.T) {
	ctx := context.Background()

	req := RegisterClientRequest{
		Username:    "acme",
		Email:       "client@acme.io",
		Password:    "password123",
		Password2:   "password123",
		CompanyName: "Acme",
	}

	t.Run("Занятый email отклоняется до записи", func(t *testing.T) {
		svc, mock := newTestAuthService(t)

		mock.ExpectQuery(`SELECT COUNT(*) FROM client_profiles WHERE company_name = $1`).
			WithArgs("Acme").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		rows := sqlmock.NewRows(userColumns).
			AddRow("user-9", "other", "client@acme.io", "hash", models.RoleClient,
				"", "", "", "light", "", time.Now(), time.Now())
		mock.ExpectQuery(`SELECT * FROM users WHERE email = $1`).
			WithArgs("client@acme.io").
			WillReturnRows(rows)

		_, err := svc.RegisterClient(ctx, req)

		assert.Error(t, err)
		assert.True(t, models.IsValidation(err))
		assert.Contains(t, err.Error(), "email уже существует")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Несовпадающие пароли - без запросов", func(t *testing.T) {
		svc, mock := newTestAuthService(t)

		bad := req
		bad.Password2 = "different1234"

		_, err := svc.RegisterClient(ctx, bad)

		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
