package models

import "errors"

// Ошибки уровня приложения. Репозитории и сервисы возвращают их (или
// оборачивают через %w), хендлеры переводят в HTTP-статусы.
var (
	ErrUnauthorized = errors.New("доступ запрещен")
	ErrNotFound     = errors.New("не найдено")
)

// ValidationError - некорректный ввод или нарушение бизнес-правила
// (пустой комментарий при отклонении, повторная оценка и т.д.).
// Никакие данные при этом не изменяются.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func NewValidationError(msg string) error {
	return &ValidationError{Msg: msg}
}

// IsValidation сообщает, является ли ошибка (или её причина) ошибкой валидации.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
