package service

import (
	"approvalCPT/internal/config"
	"approvalCPT/internal/database"
	"approvalCPT/internal/repository"
	"approvalCPT/internal/storage"
)

type Service struct {
	Auth         AuthService
	User         UserService
	Post         PostService
	Request      RequestService
	Notification NotificationService
	Report       ReportService
}

func NewService(db *database.DB, rep *repository.Repository, cfg *config.Config, storage storage.Storage) *Service {
	post := NewPostService(db, rep, storage)

	return &Service{
		Auth:         NewAuthService(db, rep.User, rep.Client, rep.Audit, cfg),
		User:         NewUserService(db, rep.User, rep.Client, rep.Audit),
		Post:         post,
		Request:      NewRequestService(db, rep.Request, rep.Client),
		Notification: NewNotificationService(rep.Notification),
		Report:       NewReportService(db, rep, post, storage, cfg),
	}
}
