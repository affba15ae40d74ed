package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"approvalCPT/internal/database"
	"approvalCPT/internal/models"
	"approvalCPT/internal/policy"
	"approvalCPT/internal/repository"
)

func newTestUserService(t *testing.T) (UserService, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	wrapped := &database.DB{DB: sqlxDB}
	rep := repository.NewRepository(sqlxDB)

	return NewUserService(wrapped, rep.User, rep.Client, rep.Audit), mock
}

func TestUserService_GetProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("Профиль возвращает последние записи аудита", func(t *testing.T) {
		svc, mock := newTestUserService(t)

		userRows := sqlmock.NewRows(userColumns).
			AddRow("user-1", "admin", "admin@agency.io", "hash", models.RoleAdmin,
				"", "", "", "light", "", time.Now(), time.Now())
		mock.ExpectQuery(`SELECT * FROM users WHERE user_id = $1`).
			WithArgs("user-1").
			WillReturnRows(userRows)

		auditRows := sqlmock.NewRows([]string{"audit_id", "user_id", "action", "details", "created_at"}).
			AddRow("audit-2", "user-1", "post_create", "Создан пост 'Акция'", time.Now()).
			AddRow("audit-1", "user-1", "user_login", "Пользователь admin вошел в систему", time.Now())
		mock.ExpectQuery(`SELECT * FROM audit_log WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`).
			WithArgs("user-1", 10).
			WillReturnRows(auditRows)

		profile, err := svc.GetProfile(ctx, policy.Actor{UserID: "user-1", Role: models.RoleAdmin})

		require.NoError(t, err)
		require.Len(t, profile.RecentActivity, 2)
		assert.Equal(t, "post_create", profile.RecentActivity[0].Action)
		assert.Nil(t, profile.ClientProfile)
	})
}

func TestUserService_ListClients(t *testing.T) {
	ctx := context.Background()

	t.Run("Супер-админ видит всех клиентов и назначаемых админов", func(t *testing.T) {
		svc, mock := newTestUserService(t)

		profileRows := sqlmock.NewRows([]string{"user_id", "company_name"}).
			AddRow("client-1", "Acme").
			AddRow("client-2", "Globex")
		mock.ExpectQuery(`SELECT user_id, company_name FROM client_profiles ORDER BY company_name`).
			WillReturnRows(profileRows)

		mock.ExpectQuery(`SELECT admin_user_id FROM client_admins WHERE client_user_id = $1`).
			WithArgs("client-1").
			WillReturnRows(sqlmock.NewRows([]string{"admin_user_id"}).AddRow("admin-1"))
		mock.ExpectQuery(`SELECT admin_user_id FROM client_admins WHERE client_user_id = $1`).
			WithArgs("client-2").
			WillReturnRows(sqlmock.NewRows([]string{"admin_user_id"}))

		adminRows := sqlmock.NewRows(userColumns).
			AddRow("admin-1", "admin", "admin@agency.io", "hash", models.RoleAdmin,
				"", "", "", "light", "", time.Now(), time.Now())
		mock.ExpectQuery(`SELECT * FROM users WHERE role = $1 ORDER BY username`).
			WithArgs(models.RoleAdmin).
			WillReturnRows(adminRows)

		directory, err := svc.ListClients(ctx, policy.Actor{UserID: "super-1", Role: models.RoleSuperAdmin})

		require.NoError(t, err)
		require.Len(t, directory.Clients, 2)
		assert.Equal(t, []string{"admin-1"}, directory.Clients[0].AssignedAdminIDs)
		assert.Empty(t, directory.Clients[1].AssignedAdminIDs)
		require.Len(t, directory.Admins, 1)
		assert.Equal(t, "admin-1", directory.Admins[0].UserID)
	})

	t.Run("Админ видит только своих клиентов, без списка админов", func(t *testing.T) {
		svc, mock := newTestUserService(t)

		profileRows := sqlmock.NewRows([]string{"user_id", "company_name"}).
			AddRow("client-1", "Acme")
		mock.ExpectQuery(`
			SELECT cp.user_id, cp.company_name
			FROM client_profiles cp
			JOIN client_admins ca ON ca.client_user_id = cp.user_id
			WHERE ca.admin_user_id = $1
			ORDER BY cp.company_name
		`).
			WithArgs("admin-1").
			WillReturnRows(profileRows)

		mock.ExpectQuery(`SELECT admin_user_id FROM client_admins WHERE client_user_id = $1`).
			WithArgs("client-1").
			WillReturnRows(sqlmock.NewRows([]string{"admin_user_id"}).AddRow("admin-1"))

		directory, err := svc.ListClients(ctx, policy.Actor{UserID: "admin-1", Role: models.RoleAdmin})

		require.NoError(t, err)
		require.Len(t, directory.Clients, 1)
		assert.Empty(t, directory.Admins)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Клиенту экран назначений недоступен", func(t *testing.T) {
		svc, mock := newTestUserService(t)

		_, err := svc.ListClients(ctx, policy.Actor{UserID: "client-1", Role: models.RoleClient})

		assert.ErrorIs(t, err, models.ErrUnauthorized)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
