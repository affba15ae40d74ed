package repository

import (
	"errors"
	"strings"

	"github.com/lib/pq"
)

// isUniqueViolation распознает нарушение уникального ограничения Postgres
// (код 23505). Запасная проверка по тексту нужна для sqlmock в тестах.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "duplicate key value")
}
