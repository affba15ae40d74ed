package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"approvalCPT/internal/models"
)

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, ext sqlx.ExtContext, notification *models.Notification) error {
	if notification.NotificationID == "" {
		notification.NotificationID = uuid.New().String()
	}
	notification.CreatedAt = time.Now()

	query := `
		INSERT INTO notifications (notification_id, recipient_id, message, is_read, related_post_id, created_at)
		VALUES (:notification_id, :recipient_id, :message, :is_read, :related_post_id, :created_at)
	`

	_, err := sqlx.NamedExecContext(ctx, ext, query, notification)
	if err != nil {
		return fmt.Errorf("ошибка при создании уведомления: %w", err)
	}

	return nil
}

func (r *notificationRepository) ListUnread(ctx context.Context, recipientID string, limit int) ([]models.Notification, int, error) {
	var total int

	err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = FALSE`, recipientID)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка при подсчете уведомлений: %w", err)
	}

	var notifications []models.Notification
	query := `
		SELECT * FROM notifications
		WHERE recipient_id = $1 AND is_read = FALSE
		ORDER BY created_at DESC
		LIMIT $2
	`

	err = r.db.SelectContext(ctx, &notifications, query, recipientID, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка при получении уведомлений: %w", err)
	}

	return notifications, total, nil
}

// MarkRead помечает уведомление прочитанным только у его получателя
// и возвращает его для перехода к связанному посту.
func (r *notificationRepository) MarkRead(ctx context.Context, recipientID, notificationID string) (*models.Notification, error) {
	var notification models.Notification

	query := `
		UPDATE notifications SET is_read = TRUE
		WHERE notification_id = $1 AND recipient_id = $2
		RETURNING *
	`

	err := r.db.GetContext(ctx, &notification, query, notificationID, recipientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка при отметке уведомления: %w", err)
	}

	return &notification, nil
}

type auditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, ext sqlx.ExtContext, entry *models.AuditLog) error {
	if entry.AuditID == "" {
		entry.AuditID = uuid.New().String()
	}
	entry.CreatedAt = time.Now()

	query := `
		INSERT INTO audit_log (audit_id, user_id, action, details, created_at)
		VALUES (:audit_id, :user_id, :action, :details, :created_at)
	`

	_, err := sqlx.NamedExecContext(ctx, ext, query, entry)
	if err != nil {
		return fmt.Errorf("ошибка при записи в журнал аудита: %w", err)
	}

	return nil
}

func (r *auditRepository) ListRecentForUser(ctx context.Context, userID string, limit int) ([]models.AuditLog, error) {
	var entries []models.AuditLog

	query := `
		SELECT * FROM audit_log
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	err := r.db.SelectContext(ctx, &entries, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении журнала аудита: %w", err)
	}

	return entries, nil
}
