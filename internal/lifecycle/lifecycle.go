// Package lifecycle описывает статусы поста и заявки как закрытые типы
// с таблицами допустимых переходов. Вся проверка легальности перехода
// проходит через CanTransition, сравнения строк в коде не используются.
package lifecycle

import "fmt"

type PostStatus string

const (
	StatusDraft     PostStatus = "DRAFT"
	StatusPending   PostStatus = "PENDING"
	StatusApproved  PostStatus = "APPROVED"
	StatusRejected  PostStatus = "REJECTED"
	StatusPublished PostStatus = "PUBLISHED"
	StatusArchived  PostStatus = "ARCHIVED"
)

// postTransitions - допустимые переходы статуса поста.
// DRAFT -> PENDING      админ отправляет на согласование
// PENDING -> APPROVED   клиент одобряет
// PENDING -> REJECTED   клиент отклоняет с комментарием
// REJECTED -> PENDING   админ правит и отправляет повторно
// DRAFT -> PENDING после правки черновика тоже идет этим ребром
// APPROVED -> PUBLISHED системный sweep по расписанию
// PUBLISHED -> ARCHIVED вывод из ленты
var postTransitions = map[PostStatus]map[PostStatus]struct{}{
	StatusDraft: {
		StatusPending: {},
	},
	StatusPending: {
		StatusApproved: {},
		StatusRejected: {},
	},
	StatusApproved: {
		StatusPublished: {},
	},
	StatusRejected: {
		StatusPending: {},
	},
	StatusPublished: {
		StatusArchived: {},
	},
	StatusArchived: {},
}

func (s PostStatus) Valid() bool {
	_, ok := postTransitions[s]
	return ok
}

// CanTransition проверяет, есть ли ребро from -> to в таблице переходов.
func CanTransition(from, to PostStatus) bool {
	next, ok := postTransitions[from]
	if !ok {
		return false
	}
	_, ok = next[to]
	return ok
}

// CheckTransition - то же самое, но с ошибкой для прокидывания наверх.
func CheckTransition(from, to PostStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("переход статуса %s -> %s запрещен", from, to)
	}
	return nil
}

// ReviewableStatuses - статусы, учитываемые в знаменателе доли отклонений:
// все, что клиент видел или увидит на ревью.
func ReviewableStatuses() []PostStatus {
	return []PostStatus{StatusPending, StatusApproved, StatusRejected, StatusPublished}
}

type RequestStatus string

const (
	RequestPending   RequestStatus = "PENDING"
	RequestViewed    RequestStatus = "VIEWED"
	RequestCompleted RequestStatus = "COMPLETED"
)

// requestRank задает монотонный порядок статусов заявки: назад двигаться нельзя.
var requestRank = map[RequestStatus]int{
	RequestPending:   0,
	RequestViewed:    1,
	RequestCompleted: 2,
}

func (s RequestStatus) Valid() bool {
	_, ok := requestRank[s]
	return ok
}

// CanAdvanceRequest разрешает только движение вперед по статусам заявки.
func CanAdvanceRequest(from, to RequestStatus) bool {
	a, okA := requestRank[from]
	b, okB := requestRank[to]
	return okA && okB && b > a
}
