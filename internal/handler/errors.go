package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"approvalCPT/internal/models"
)

// ErrorResponse - стандартный ответ с ошибкой
type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// WriteError - универсальная функция для отправки ошибок
func WriteError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// WriteSuccess - функция для успешных ответов
func WriteSuccess(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeServiceError переводит ошибки сервисного слоя в HTTP-статусы:
// валидация - 400, не найдено - 404, запрет политики - 403, остальное - 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case models.IsValidation(err):
		WriteError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrNotFound):
		WriteError(w, "Не найдено", http.StatusNotFound)
	case errors.Is(err, models.ErrUnauthorized):
		WriteError(w, "Доступ запрещен", http.StatusForbidden)
	default:
		WriteError(w, err.Error(), http.StatusInternalServerError)
	}
}
