package test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	handlers "approvalCPT/internal/handler"
	"approvalCPT/internal/models"
)

func TestLogin(t *testing.T) {
	t.Run("Успешный вход", func(t *testing.T) {
		mockAuth := new(MockAuthService)
		mockAuth.On("Login", mock.Anything, "acme", "password123").
			Return(&models.User{
				UserID:   "client-1",
				Username: "acme",
				Email:    "client@acme.io",
				Role:     models.RoleClient,
			}, "access-token", "refresh-token", nil)

		h := &handlers.Handlers{AuthService: mockAuth, Validate: validator.New()}

		body, _ := json.Marshal(map[string]string{"username": "acme", "password": "password123"})
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))

		rec := httptest.NewRecorder()
		h.Login(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp handlers.AuthResponse
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "access-token", resp.AccessToken)
		assert.Equal(t, models.RoleClient, resp.User.Role)
		mockAuth.AssertExpectations(t)
	})

	t.Run("Неверный пароль - 403", func(t *testing.T) {
		mockAuth := new(MockAuthService)
		mockAuth.On("Login", mock.Anything, "acme", "wrong").
			Return(nil, "", "", errors.New("ошибка аутентификации"))

		h := &handlers.Handlers{AuthService: mockAuth, Validate: validator.New()}

		body, _ := json.Marshal(map[string]string{"username": "acme", "password": "wrong"})
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))

		rec := httptest.NewRecorder()
		h.Login(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Пустое тело запроса - 400", func(t *testing.T) {
		h := &handlers.Handlers{AuthService: new(MockAuthService), Validate: validator.New()}

		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader([]byte(`{}`)))

		rec := httptest.NewRecorder()
		h.Login(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRefreshToken(t *testing.T) {
	t.Run("Просроченный токен - 400", func(t *testing.T) {
		mockAuth := new(MockAuthService)
		mockAuth.On("RefreshTokens", mock.Anything, "expired").
			Return(nil, "", "", errors.New("недействительный refresh token"))

		h := &handlers.Handlers{AuthService: mockAuth, Validate: validator.New()}

		body, _ := json.Marshal(map[string]string{"refreshToken": "expired"})
		req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh-token", bytes.NewReader(body))

		rec := httptest.NewRecorder()
		h.RefreshToken(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Отсутствует refreshToken - 400", func(t *testing.T) {
		h := &handlers.Handlers{AuthService: new(MockAuthService), Validate: validator.New()}

		req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh-token", bytes.NewReader([]byte(`{}`)))

		rec := httptest.NewRecorder()
		h.RefreshToken(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
