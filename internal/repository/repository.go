package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"approvalCPT/internal/lifecycle"
	"approvalCPT/internal/models"
)

// Методы, участвующие в переходах статусов, принимают sqlx.ExtContext:
// сервис передает туда транзакцию, чтобы смена статуса и производные
// записи (аудит, уведомления, отзывы) легли в одну атомарную единицу.

type UserRepository interface {
	CreateUser(ctx context.Context, ext sqlx.ExtContext, user *models.User, password string) error
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	VerifyPassword(ctx context.Context, username, password string) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, userID, password string) error
	UpdateRefreshToken(ctx context.Context, ext sqlx.ExtContext, userID, refreshToken string, expiryTime time.Time) error
	GetUserByRefreshToken(ctx context.Context, refreshToken string) (*models.User, error)
	ListByRole(ctx context.Context, role string) ([]models.User, error)
	CountByRole(ctx context.Context, role string) (int, error)
}

type ClientRepository interface {
	CreateProfile(ctx context.Context, ext sqlx.ExtContext, profile *models.ClientProfile) error
	GetProfile(ctx context.Context, userID string) (*models.ClientProfile, error)
	CompanyNameExists(ctx context.Context, companyName string) (bool, error)
	UpdateCompanyName(ctx context.Context, userID, companyName string) error
	ListProfiles(ctx context.Context) ([]models.ClientProfile, error)
	ListProfilesForAdmin(ctx context.Context, adminID string) ([]models.ClientProfile, error)
	ClientIDsForAdmin(ctx context.Context, adminID string) ([]string, error)
	SetAssignedAdmins(ctx context.Context, ext sqlx.ExtContext, clientID string, adminIDs []string) error
	CountProfiles(ctx context.Context) (int, error)
}

type PostRepository interface {
	Create(ctx context.Context, ext sqlx.ExtContext, post *models.Post) error
	GetByID(ctx context.Context, postID string) (*models.Post, error)
	UpdateStatus(ctx context.Context, ext sqlx.ExtContext, postID string, from, to lifecycle.PostStatus) error
	UpdateContent(ctx context.Context, ext sqlx.ExtContext, post *models.Post) error
	Delete(ctx context.Context, ext sqlx.ExtContext, postID string) error
	CreateVersion(ctx context.Context, ext sqlx.ExtContext, version *models.PostVersion) error
	List(ctx context.Context, clientIDs []string, status lifecycle.PostStatus) ([]models.Post, error)
	StatusCounts(ctx context.Context, clientIDs []string) (map[lifecycle.PostStatus]int, error)
	PublishDue(ctx context.Context, ext sqlx.ExtContext, clientID string, now time.Time) ([]models.Post, error)
	ListScheduled(ctx context.Context, clientIDs []string, excludeDrafts bool) ([]models.Post, error)
	ListPublishedFeed(ctx context.Context, clientID string, limit, offset int) ([]PostWithRating, int, error)
	ListUpcoming(ctx context.Context, clientID string, now time.Time, limit int) ([]models.Post, error)
	CountAll(ctx context.Context) (int, error)
}

type FeedbackRepository interface {
	Create(ctx context.Context, ext sqlx.ExtContext, feedback *models.Feedback) error
	ListByPost(ctx context.Context, postID string) ([]models.Feedback, error)
	ListRecent(ctx context.Context, clientIDs []string, limit int) ([]models.Feedback, error)
}

type RatingRepository interface {
	Create(ctx context.Context, ext sqlx.ExtContext, rating *models.Rating) error
	GetByPostAndUser(ctx context.Context, postID, userID string) (*models.Rating, error)
	ListByPost(ctx context.Context, postID string) ([]models.Rating, error)
	ListRecent(ctx context.Context, clientIDs []string, limit int) ([]models.Rating, error)
	StatsForUser(ctx context.Context, userID string) (int, float64, error)
}

type RequestRepository interface {
	Create(ctx context.Context, request *models.PostRequest) error
	GetByID(ctx context.Context, requestID string) (*models.PostRequest, error)
	MarkViewed(ctx context.Context, ext sqlx.ExtContext, requestID string) error
	MarkCompleted(ctx context.Context, ext sqlx.ExtContext, requestID string) error
	List(ctx context.Context, clientIDs []string, status lifecycle.RequestStatus) ([]models.PostRequest, error)
	StatusCounts(ctx context.Context, clientIDs []string) (map[lifecycle.RequestStatus]int, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, ext sqlx.ExtContext, notification *models.Notification) error
	ListUnread(ctx context.Context, recipientID string, limit int) ([]models.Notification, int, error)
	MarkRead(ctx context.Context, recipientID, notificationID string) (*models.Notification, error)
}

type AuditRepository interface {
	Create(ctx context.Context, ext sqlx.ExtContext, entry *models.AuditLog) error
	ListRecentForUser(ctx context.Context, userID string, limit int) ([]models.AuditLog, error)
}

type ReportRepository interface {
	ClientRejectionRows(ctx context.Context, clientIDs []string) ([]ClientRejectionRow, error)
	MostRejectedPosts(ctx context.Context, clientIDs []string, limit int) ([]PostFeedbackCount, error)
	ClientsByFeedback(ctx context.Context, clientIDs []string, limit int) ([]ClientFeedbackCount, error)
	ClientsByRating(ctx context.Context, clientIDs []string, limit int) ([]ClientAvgRating, error)
	TopRatedPosts(ctx context.Context, clientID string, limit int) ([]PostWithRating, error)
	MostDiscussedPosts(ctx context.Context, clientID string, limit int) ([]PostFeedbackCount, error)
	SaveGeneratedReport(ctx context.Context, ext sqlx.ExtContext, report *models.GeneratedReport) error
	ListGeneratedReports(ctx context.Context, limit int) ([]models.GeneratedReport, error)
}

type Repository struct {
	User         UserRepository
	Client       ClientRepository
	Post         PostRepository
	Feedback     FeedbackRepository
	Rating       RatingRepository
	Request      RequestRepository
	Notification NotificationRepository
	Audit        AuditRepository
	Report       ReportRepository
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{
		User:         NewUserRepository(db),
		Client:       NewClientRepository(db),
		Post:         NewPostRepository(db),
		Feedback:     NewFeedbackRepository(db),
		Rating:       NewRatingRepository(db),
		Request:      NewRequestRepository(db),
		Notification: NewNotificationRepository(db),
		Audit:        NewAuditRepository(db),
		Report:       NewReportRepository(db),
	}
}
