package service

import (
	"context"

	"approvalCPT/internal/models"
	"approvalCPT/internal/policy"
	"approvalCPT/internal/repository"
)

// UnreadNotifications - счетчик и последние непрочитанные уведомления.
type UnreadNotifications struct {
	Count         int                   `json:"count"`
	Notifications []models.Notification `json:"notifications"`
}

type NotificationService interface {
	ListUnread(ctx context.Context, actor policy.Actor) (*UnreadNotifications, error)
	MarkRead(ctx context.Context, actor policy.Actor, notificationID string) (*models.Notification, error)
}

type notificationService struct {
	notifRepo repository.NotificationRepository
}

func NewNotificationService(notifRepo repository.NotificationRepository) NotificationService {
	return &notificationService{notifRepo: notifRepo}
}

func (s *notificationService) ListUnread(ctx context.Context, actor policy.Actor) (*UnreadNotifications, error) {
	notifications, total, err := s.notifRepo.ListUnread(ctx, actor.UserID, 5)
	if err != nil {
		return nil, err
	}

	return &UnreadNotifications{Count: total, Notifications: notifications}, nil
}

func (s *notificationService) MarkRead(ctx context.Context, actor policy.Actor, notificationID string) (*models.Notification, error) {
	// чужое уведомление прочитать нельзя: фильтр по получателю в запросе
	return s.notifRepo.MarkRead(ctx, actor.UserID, notificationID)
}
