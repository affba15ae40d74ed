package lifecycle

import "fmt"

// TruncateTitle обрезает заголовок до 30 символов для текстов уведомлений
// и предзаполнения заявок. Режет по рунам, чтобы кириллический заголовок
// не обрывался посреди символа.
func TruncateTitle(title string) string {
	runes := []rune(title)
	if len(runes) > 30 {
		return string(runes[:30]) + "..."
	}
	return title
}

// Тексты уведомлений, привязанные к переходам таблицы статусов.

func PendingMessage(title string) string {
	return fmt.Sprintf("Новый пост готов к проверке: '%s'", TruncateTitle(title))
}

func ApprovedMessage(title string) string {
	return fmt.Sprintf("Клиент одобрил пост: '%s'", TruncateTitle(title))
}

func RejectedMessage(title string) string {
	return fmt.Sprintf("Клиент отклонил пост: '%s'", TruncateTitle(title))
}

func PublishedMessage(title string) string {
	return fmt.Sprintf("Ваш пост '%s' опубликован!", TruncateTitle(title))
}

func FeedbackMessage(title string) string {
	return fmt.Sprintf("Клиент оставил отзыв на '%s'", TruncateTitle(title))
}

func RatingMessage(title string, score int) string {
	return fmt.Sprintf("Клиент оценил '%s' на %d из 5", TruncateTitle(title), score)
}
