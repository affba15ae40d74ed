package models

import (
	"time"

	"approvalCPT/internal/lifecycle"
)

type User struct {
	UserID                 string    `json:"userId" db:"user_id"`
	Username               string    `json:"username" db:"username"`
	Email                  string    `json:"email" db:"email"`
	PasswordHash           string    `json:"-" db:"password_hash"`
	Role                   string    `json:"role" db:"role"`
	FirstName              string    `json:"firstName" db:"first_name"`
	LastName               string    `json:"lastName" db:"last_name"`
	PhoneNumber            string    `json:"phoneNumber" db:"phone_number"`
	Theme                  string    `json:"theme" db:"theme"`
	RefreshToken           string    `json:"-" db:"refresh_token"`
	RefreshTokenExpiryTime time.Time `json:"-" db:"refresh_token_expiry_time"`
	CreatedAt              time.Time `json:"createdAt" db:"created_at"`
}

// Роли пользователей. Роль назначается при создании и больше не меняется.
const (
	RoleSuperAdmin = "SUPER_ADMIN"
	RoleAdmin      = "ADMIN"
	RoleClient     = "CLIENT"
)

// ClientProfile - профиль компании клиента, один к одному с пользователем
// роли CLIENT. AssignedAdminIDs заполняется отдельным запросом к таблице
// client_admins.
type ClientProfile struct {
	UserID           string   `json:"userId" db:"user_id"`
	CompanyName      string   `json:"companyName" db:"company_name"`
	AssignedAdminIDs []string `json:"assignedAdminIds" db:"-"`
}

type Post struct {
	PostID               string               `json:"postId" db:"post_id"`
	Title                string               `json:"title" db:"title"`
	Caption              string               `json:"caption" db:"caption"`
	ImageURL             string               `json:"imageUrl" db:"image_url"`
	Status               lifecycle.PostStatus `json:"status" db:"status"`
	ScheduledDatetime    *time.Time           `json:"scheduledDatetime" db:"scheduled_datetime"`
	CreatedBy            *string              `json:"createdBy" db:"created_by"`
	AssignedClientID     string               `json:"assignedClientId" db:"assigned_client_id"`
	CreatedFromRequestID *string              `json:"createdFromRequestId" db:"created_from_request_id"`
	CreatedAt            time.Time            `json:"createdAt" db:"created_at"`
	UpdatedAt            time.Time            `json:"updatedAt" db:"updated_at"`
}

// PostVersion - снимок содержимого поста перед редактированием.
type PostVersion struct {
	VersionID   string    `json:"versionId" db:"version_id"`
	PostID      string    `json:"postId" db:"post_id"`
	CaptionData string    `json:"captionData" db:"caption_data"`
	ImagePath   string    `json:"imagePath" db:"image_path"`
	EditedBy    *string   `json:"editedBy" db:"edited_by"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// Feedback - комментарий клиента к посту. Создается при отклонении
// (обязательно) или при одобрении (по желанию). Неизменяем.
type Feedback struct {
	FeedbackID string    `json:"feedbackId" db:"feedback_id"`
	PostID     string    `json:"postId" db:"post_id"`
	UserID     string    `json:"userId" db:"user_id"`
	Comment    string    `json:"comment" db:"comment"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// Rating - оценка опубликованного поста клиентом, не более одной на пару
// (пост, пользователь).
type Rating struct {
	RatingID  string    `json:"ratingId" db:"rating_id"`
	PostID    string    `json:"postId" db:"post_id"`
	UserID    string    `json:"userId" db:"user_id"`
	Score     int       `json:"score" db:"score"`
	Comment   *string   `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type PostRequest struct {
	RequestID      string                  `json:"requestId" db:"request_id"`
	ClientUserID   string                  `json:"clientUserId" db:"client_user_id"`
	RequestDetails string                  `json:"requestDetails" db:"request_details"`
	DesiredDate    *time.Time              `json:"desiredDate" db:"desired_date"`
	Status         lifecycle.RequestStatus `json:"status" db:"status"`
	CreatedAt      time.Time               `json:"createdAt" db:"created_at"`
}

type Notification struct {
	NotificationID string    `json:"notificationId" db:"notification_id"`
	RecipientID    string    `json:"recipientId" db:"recipient_id"`
	Message        string    `json:"message" db:"message"`
	IsRead         bool      `json:"isRead" db:"is_read"`
	RelatedPostID  *string   `json:"relatedPostId" db:"related_post_id"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}

type AuditLog struct {
	AuditID   string    `json:"auditId" db:"audit_id"`
	UserID    *string   `json:"userId" db:"user_id"`
	Action    string    `json:"action" db:"action"`
	Details   string    `json:"details" db:"details"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Действия для журнала аудита.
const (
	ActionUserLogin      = "user_login"
	ActionPostCreate     = "post_create"
	ActionPostEdit       = "post_edit"
	ActionPostDelete     = "post_delete"
	ActionPostFeedback   = "post_feedback"
	ActionPostRating     = "post_rating"
	ActionClientAssigned = "client_assigned"
	ActionReportExport   = "report_export"
)

type GeneratedReport struct {
	ReportID    string    `json:"reportId" db:"report_id"`
	Title       string    `json:"title" db:"title"`
	ReportType  string    `json:"reportType" db:"report_type"`
	GeneratedBy *string   `json:"generatedBy" db:"generated_by"`
	FileURL     string    `json:"fileUrl" db:"file_url"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}
