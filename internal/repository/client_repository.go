package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"approvalCPT/internal/models"
)

type clientRepository struct {
	db *sqlx.DB
}

func NewClientRepository(db *sqlx.DB) ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) CreateProfile(ctx context.Context, ext sqlx.ExtContext, profile *models.ClientProfile) error {
	query := `
		INSERT INTO client_profiles (user_id, company_name)
		VALUES (:user_id, :company_name)
	`

	_, err := sqlx.NamedExecContext(ctx, ext, query, profile)
	if err != nil {
		if isUniqueViolation(err) {
			return models.NewValidationError("клиент с таким названием компании уже существует")
		}
		return fmt.Errorf("ошибка при создании профиля клиента: %w", err)
	}

	return nil
}

func (r *clientRepository) GetProfile(ctx context.Context, userID string) (*models.ClientProfile, error) {
	var profile models.ClientProfile

	query := `SELECT user_id, company_name FROM client_profiles WHERE user_id = $1`

	err := r.db.GetContext(ctx, &profile, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка при получении профиля клиента: %w", err)
	}

	err = r.db.SelectContext(ctx, &profile.AssignedAdminIDs,
		`SELECT admin_user_id FROM client_admins WHERE client_user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении назначенных админов: %w", err)
	}

	return &profile, nil
}

func (r *clientRepository) CompanyNameExists(ctx context.Context, companyName string) (bool, error) {
	var count int

	query := `SELECT COUNT(*) FROM client_profiles WHERE company_name = $1`

	err := r.db.GetContext(ctx, &count, query, companyName)
	if err != nil {
		return false, fmt.Errorf("ошибка при проверке названия компании: %w", err)
	}

	return count > 0, nil
}

func (r *clientRepository) UpdateCompanyName(ctx context.Context, userID, companyName string) error {
	query := `UPDATE client_profiles SET company_name = $1 WHERE user_id = $2`

	result, err := r.db.ExecContext(ctx, query, companyName, userID)
	if err != nil {
		if isUniqueViolation(err) {
			return models.NewValidationError("клиент с таким названием компании уже существует")
		}
		return fmt.Errorf("ошибка при обновлении названия компании: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка при проверке обновленных строк: %w", err)
	}

	if rowsAffected == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *clientRepository) ListProfiles(ctx context.Context) ([]models.ClientProfile, error) {
	var profiles []models.ClientProfile

	query := `SELECT user_id, company_name FROM client_profiles ORDER BY company_name`

	err := r.db.SelectContext(ctx, &profiles, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении списка клиентов: %w", err)
	}

	if err := r.fillAssignedAdmins(ctx, profiles); err != nil {
		return nil, err
	}

	return profiles, nil
}

func (r *clientRepository) ListProfilesForAdmin(ctx context.Context, adminID string) ([]models.ClientProfile, error) {
	var profiles []models.ClientProfile

	query := `
		SELECT cp.user_id, cp.company_name
		FROM client_profiles cp
		JOIN client_admins ca ON ca.client_user_id = cp.user_id
		WHERE ca.admin_user_id = $1
		ORDER BY cp.company_name
	`

	err := r.db.SelectContext(ctx, &profiles, query, adminID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении клиентов админа: %w", err)
	}

	if err := r.fillAssignedAdmins(ctx, profiles); err != nil {
		return nil, err
	}

	return profiles, nil
}

func (r *clientRepository) fillAssignedAdmins(ctx context.Context, profiles []models.ClientProfile) error {
	for i := range profiles {
		err := r.db.SelectContext(ctx, &profiles[i].AssignedAdminIDs,
			`SELECT admin_user_id FROM client_admins WHERE client_user_id = $1`, profiles[i].UserID)
		if err != nil {
			return fmt.Errorf("ошибка при получении назначенных админов: %w", err)
		}
	}
	return nil
}

func (r *clientRepository) ClientIDsForAdmin(ctx context.Context, adminID string) ([]string, error) {
	var ids []string

	query := `SELECT client_user_id FROM client_admins WHERE admin_user_id = $1`

	err := r.db.SelectContext(ctx, &ids, query, adminID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении клиентов админа: %w", err)
	}

	return ids, nil
}

func (r *clientRepository) SetAssignedAdmins(ctx context.Context, ext sqlx.ExtContext, clientID string, adminIDs []string) error {
	// полная замена набора назначений
	_, err := ext.ExecContext(ctx, `DELETE FROM client_admins WHERE client_user_id = $1`, clientID)
	if err != nil {
		return fmt.Errorf("ошибка при очистке назначений: %w", err)
	}

	for _, adminID := range adminIDs {
		_, err = ext.ExecContext(ctx,
			`INSERT INTO client_admins (client_user_id, admin_user_id) VALUES ($1, $2)`,
			clientID, adminID)
		if err != nil {
			return fmt.Errorf("ошибка при назначении админа %s: %w", adminID, err)
		}
	}

	return nil
}

func (r *clientRepository) CountProfiles(ctx context.Context) (int, error) {
	var count int

	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM client_profiles`)
	if err != nil {
		return 0, fmt.Errorf("ошибка при подсчете клиентов: %w", err)
	}

	return count, nil
}
