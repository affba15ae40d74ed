package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"approvalCPT/internal/config"
	"approvalCPT/internal/database"
	"approvalCPT/internal/models"
	"approvalCPT/internal/repository"
)

type RegisterClientRequest struct {
	Username    string `json:"username" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	Password2   string `json:"password2" validate:"required"`
	CompanyName string `json:"companyName" validate:"required"`
}

type AuthService interface {
	RegisterClient(ctx context.Context, req RegisterClientRequest) (*models.User, error)
	Login(ctx context.Context, username, password string) (*models.User, string, string, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*models.User, string, string, error)
	ValidateToken(tokenString string) (*jwt.Token, error)
}

type authService struct {
	db         *database.DB
	userRepo   repository.UserRepository
	clientRepo repository.ClientRepository
	auditRepo  repository.AuditRepository
	cfg        *config.Config
}

func NewAuthService(db *database.DB, userRepo repository.UserRepository, clientRepo repository.ClientRepository, auditRepo repository.AuditRepository, cfg *config.Config) AuthService {
	return &authService{
		db:         db,
		userRepo:   userRepo,
		clientRepo: clientRepo,
		auditRepo:  auditRepo,
		cfg:        cfg,
	}
}

// RegisterClient создает пользователя роли CLIENT и его профиль компании
// одной транзакцией: клиент без профиля существовать не должен.
func (s *authService) RegisterClient(ctx context.Context, req RegisterClientRequest) (*models.User, error) {
	if req.Password != req.Password2 {
		return nil, models.NewValidationError("пароли не совпадают")
	}

	exists, err := s.clientRepo.CompanyNameExists(ctx, req.CompanyName)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, models.NewValidationError("клиент с таким названием компании уже существует")
	}

	if _, err := s.userRepo.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, models.NewValidationError("пользователь с таким email уже существует")
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	refreshToken, refreshTokenExpiry := s.generateRefreshToken()

	user := &models.User{
		Username:               req.Username,
		Email:                  req.Email,
		Role:                   models.RoleClient,
		RefreshToken:           refreshToken,
		RefreshTokenExpiryTime: refreshTokenExpiry,
	}

	err = s.db.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.userRepo.CreateUser(ctx, tx, user, req.Password); err != nil {
			return err
		}

		profile := &models.ClientProfile{
			UserID:      user.UserID,
			CompanyName: req.CompanyName,
		}
		return s.clientRepo.CreateProfile(ctx, tx, profile)
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (s *authService) Login(ctx context.Context, username, password string) (*models.User, string, string, error) {
	user, err := s.userRepo.VerifyPassword(ctx, username, password)
	if err != nil {
		return nil, "", "", fmt.Errorf("ошибка аутентификации: %w", err)
	}

	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, "", "", fmt.Errorf("ошибка генерации access token: %w", err)
	}

	refreshToken, refreshTokenExpiry := s.generateRefreshToken()
	userID := user.UserID

	// новый refresh token и запись о входе ложатся одной транзакцией
	err = s.db.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.userRepo.UpdateRefreshToken(ctx, tx, user.UserID, refreshToken, refreshTokenExpiry); err != nil {
			return fmt.Errorf("ошибка сохранения refresh token: %w", err)
		}

		return s.auditRepo.Create(ctx, tx, &models.AuditLog{
			UserID:  &userID,
			Action:  models.ActionUserLogin,
			Details: fmt.Sprintf("Пользователь %s вошел в систему", user.Username),
		})
	})
	if err != nil {
		return nil, "", "", err
	}

	return user, accessToken, refreshToken, nil
}

func (s *authService) RefreshTokens(ctx context.Context, refreshToken string) (*models.User, string, string, error) {
	user, err := s.userRepo.GetUserByRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, "", "", fmt.Errorf("недействительный refresh token: %w", err)
	}

	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, "", "", fmt.Errorf("ошибка генерации access token: %w", err)
	}

	newRefreshToken, refreshTokenExpiry := s.generateRefreshToken()

	err = s.userRepo.UpdateRefreshToken(ctx, s.db, user.UserID, newRefreshToken, refreshTokenExpiry)
	if err != nil {
		return nil, "", "", fmt.Errorf("ошибка обновления refresh token: %w", err)
	}

	return user, accessToken, newRefreshToken, nil
}

func (s *authService) generateAccessToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.UserID,
		"email":   user.Email,
		"role":    user.Role,
		"exp":     time.Now().Add(s.cfg.AccessTokenDuration).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.cfg.JWTSecretKey))
	if err != nil {
		return "", fmt.Errorf("ошибка подписи токена: %w", err)
	}

	return tokenString, nil
}

func (s *authService) generateRefreshToken() (string, time.Time) {
	return uuid.New().String(), time.Now().Add(s.cfg.RefreshTokenDuration)
}

func (s *authService) ValidateToken(tokenString string) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный метод подписи: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecretKey), nil
	})

	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга токена: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("недействительный токен")
	}

	return token, nil
}
