package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"approvalCPT/internal/database"
	"approvalCPT/internal/models"
	"approvalCPT/internal/policy"
	"approvalCPT/internal/repository"
)

type UpdateProfileRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber"`
	Theme       string `json:"theme" validate:"omitempty,oneof=light dark"`
	CompanyName string `json:"companyName"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// Profile - пользователь вместе с профилем компании (для клиентов)
// и последними записями журнала аудита.
type Profile struct {
	User           *models.User          `json:"user"`
	ClientProfile  *models.ClientProfile `json:"clientProfile,omitempty"`
	RecentActivity []models.AuditLog     `json:"recentActivity"`
}

// ClientDirectory - клиенты с текущими назначениями; супер-админ получает
// еще и список админов, доступных для назначения.
type ClientDirectory struct {
	Clients []models.ClientProfile `json:"clients"`
	Admins  []models.User          `json:"admins,omitempty"`
}

type UserService interface {
	GetProfile(ctx context.Context, actor policy.Actor) (*Profile, error)
	UpdateProfile(ctx context.Context, actor policy.Actor, req UpdateProfileRequest) (*Profile, error)
	ChangePassword(ctx context.Context, actor policy.Actor, req ChangePasswordRequest) error
	ListClients(ctx context.Context, actor policy.Actor) (*ClientDirectory, error)
	AssignAdmins(ctx context.Context, actor policy.Actor, clientID string, adminIDs []string) error
}

type userService struct {
	db         *database.DB
	userRepo   repository.UserRepository
	clientRepo repository.ClientRepository
	auditRepo  repository.AuditRepository
}

func NewUserService(db *database.DB, userRepo repository.UserRepository, clientRepo repository.ClientRepository, auditRepo repository.AuditRepository) UserService {
	return &userService{db: db, userRepo: userRepo, clientRepo: clientRepo, auditRepo: auditRepo}
}

func (s *userService) GetProfile(ctx context.Context, actor policy.Actor) (*Profile, error) {
	user, err := s.userRepo.GetUserByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	profile := &Profile{User: user}

	if user.Role == models.RoleClient {
		clientProfile, err := s.clientRepo.GetProfile(ctx, user.UserID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		profile.ClientProfile = clientProfile
	}

	profile.RecentActivity, err = s.auditRepo.ListRecentForUser(ctx, actor.UserID, 10)
	if err != nil {
		return nil, err
	}

	return profile, nil
}

// ListClients - экран назначений: клиенты в зоне видимости актора вместе
// с их админами. Супер-админ видит всех и получает список назначаемых.
func (s *userService) ListClients(ctx context.Context, actor policy.Actor) (*ClientDirectory, error) {
	if !actor.IsAdminLike() {
		return nil, models.ErrUnauthorized
	}

	directory := &ClientDirectory{}
	var err error

	if actor.IsSuperAdmin() {
		directory.Clients, err = s.clientRepo.ListProfiles(ctx)
		if err != nil {
			return nil, err
		}

		directory.Admins, err = s.userRepo.ListByRole(ctx, models.RoleAdmin)
		if err != nil {
			return nil, err
		}

		return directory, nil
	}

	directory.Clients, err = s.clientRepo.ListProfilesForAdmin(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	return directory, nil
}

func (s *userService) UpdateProfile(ctx context.Context, actor policy.Actor, req UpdateProfileRequest) (*Profile, error) {
	user, err := s.userRepo.GetUserByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.PhoneNumber = req.PhoneNumber
	if req.Theme != "" {
		user.Theme = req.Theme
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}

	// название компании меняется только у клиентов
	if user.Role == models.RoleClient && req.CompanyName != "" {
		if err := s.clientRepo.UpdateCompanyName(ctx, user.UserID, req.CompanyName); err != nil {
			return nil, err
		}
	}

	return s.GetProfile(ctx, actor)
}

func (s *userService) ChangePassword(ctx context.Context, actor policy.Actor, req ChangePasswordRequest) error {
	user, err := s.userRepo.GetUserByID(ctx, actor.UserID)
	if err != nil {
		return err
	}

	if _, err := s.userRepo.VerifyPassword(ctx, user.Username, req.CurrentPassword); err != nil {
		return models.NewValidationError("текущий пароль указан неверно")
	}

	if req.NewPassword != req.ConfirmPassword {
		return models.NewValidationError("новые пароли не совпадают")
	}

	if req.NewPassword == req.CurrentPassword {
		return models.NewValidationError("новый пароль не должен совпадать со старым")
	}

	return s.userRepo.UpdatePassword(ctx, actor.UserID, req.NewPassword)
}

// AssignAdmins полностью заменяет набор админов клиента. Только супер-админ.
func (s *userService) AssignAdmins(ctx context.Context, actor policy.Actor, clientID string, adminIDs []string) error {
	if err := policy.CheckAssignAdmins(actor); err != nil {
		return err
	}

	if _, err := s.clientRepo.GetProfile(ctx, clientID); err != nil {
		return err
	}

	for _, adminID := range adminIDs {
		admin, err := s.userRepo.GetUserByID(ctx, adminID)
		if err != nil {
			return err
		}
		if admin.Role != models.RoleAdmin {
			return models.NewValidationError("назначать можно только пользователей роли ADMIN")
		}
	}

	actorID := actor.UserID

	return s.db.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.clientRepo.SetAssignedAdmins(ctx, tx, clientID, adminIDs); err != nil {
			return err
		}

		return s.auditRepo.Create(ctx, tx, &models.AuditLog{
			UserID:  &actorID,
			Action:  models.ActionClientAssigned,
			Details: fmt.Sprintf("Обновлены назначения админов для клиента %s", clientID),
		})
	})
}
