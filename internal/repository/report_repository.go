package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"approvalCPT/internal/lifecycle"
	"approvalCPT/internal/models"
)

type reportRepository struct {
	db *sqlx.DB
}

// ClientRejectionRow - агрегат по клиенту для отчета об отклонениях.
// TotalPosts считает только посты, дошедшие до ревью (PENDING и дальше).
type ClientRejectionRow struct {
	ClientID      string  `json:"clientId" db:"client_id"`
	CompanyName   string  `json:"companyName" db:"company_name"`
	TotalPosts    int     `json:"totalPosts" db:"total_posts"`
	RejectedPosts int     `json:"rejectedPosts" db:"rejected_posts"`
	RejectionRate float64 `json:"rejectionRate" db:"-"`
}

type PostFeedbackCount struct {
	PostID        string `json:"postId" db:"post_id"`
	Title         string `json:"title" db:"title"`
	FeedbackCount int    `json:"feedbackCount" db:"feedback_count"`
}

type ClientFeedbackCount struct {
	ClientID      string `json:"clientId" db:"client_id"`
	CompanyName   string `json:"companyName" db:"company_name"`
	FeedbackCount int    `json:"feedbackCount" db:"feedback_count"`
}

type ClientAvgRating struct {
	ClientID      string  `json:"clientId" db:"client_id"`
	CompanyName   string  `json:"companyName" db:"company_name"`
	AverageRating float64 `json:"averageRating" db:"average_rating"`
}

func NewReportRepository(db *sqlx.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) ClientRejectionRows(ctx context.Context, clientIDs []string) ([]ClientRejectionRow, error) {
	if clientIDs != nil && len(clientIDs) == 0 {
		return []ClientRejectionRow{}, nil
	}

	// знаменатель доли отклонений строится из таблицы статусов,
	// а не из дублирующего списка в SQL
	query := `
		SELECT cp.user_id AS client_id,
		       cp.company_name,
		       COUNT(p.post_id) FILTER (WHERE p.status IN (?)) AS total_posts,
		       COUNT(p.post_id) FILTER (WHERE p.status = ?) AS rejected_posts
		FROM client_profiles cp
		LEFT JOIN posts p ON p.assigned_client_id = cp.user_id
	`
	inArgs := []interface{}{lifecycle.ReviewableStatuses(), lifecycle.StatusRejected}

	if clientIDs != nil {
		query += ` WHERE cp.user_id IN (?)`
		inArgs = append(inArgs, clientIDs)
	}

	query += ` GROUP BY cp.user_id, cp.company_name ORDER BY rejected_posts DESC`

	expanded, args, err := sqlx.In(query, inArgs...)
	if err != nil {
		return nil, fmt.Errorf("ошибка при построении запроса: %w", err)
	}
	query = r.db.Rebind(expanded)

	var rows []ClientRejectionRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("ошибка при расчете отклонений по клиентам: %w", err)
	}

	// долю считаем в коде: ноль постов на ревью - это 0%, а не деление на ноль
	for i := range rows {
		if rows[i].TotalPosts > 0 {
			rows[i].RejectionRate = float64(rows[i].RejectedPosts) * 100.0 / float64(rows[i].TotalPosts)
		}
	}

	return rows, nil
}

func (r *reportRepository) MostRejectedPosts(ctx context.Context, clientIDs []string, limit int) ([]PostFeedbackCount, error) {
	if clientIDs != nil && len(clientIDs) == 0 {
		return []PostFeedbackCount{}, nil
	}

	query := `
		SELECT p.post_id, p.title, COUNT(f.feedback_id) AS feedback_count
		FROM posts p
		JOIN feedback f ON f.post_id = p.post_id
	`
	var args []interface{}

	if clientIDs != nil {
		expanded, expandedArgs, err := sqlx.In(query+` WHERE p.assigned_client_id IN (?)`, clientIDs)
		if err != nil {
			return nil, fmt.Errorf("ошибка при построении запроса: %w", err)
		}
		query, args = r.db.Rebind(expanded), expandedArgs
	}

	query += fmt.Sprintf(` GROUP BY p.post_id, p.title ORDER BY feedback_count DESC LIMIT %d`, limit)

	var rows []PostFeedbackCount
	err := r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении самых отклоняемых постов: %w", err)
	}

	return rows, nil
}

func (r *reportRepository) ClientsByFeedback(ctx context.Context, clientIDs []string, limit int) ([]ClientFeedbackCount, error) {
	if clientIDs != nil && len(clientIDs) == 0 {
		return []ClientFeedbackCount{}, nil
	}

	query := `
		SELECT cp.user_id AS client_id, cp.company_name, COUNT(f.feedback_id) AS feedback_count
		FROM client_profiles cp
		JOIN feedback f ON f.user_id = cp.user_id
	`
	var args []interface{}

	if clientIDs != nil {
		expanded, expandedArgs, err := sqlx.In(query+` WHERE cp.user_id IN (?)`, clientIDs)
		if err != nil {
			return nil, fmt.Errorf("ошибка при построении запроса: %w", err)
		}
		query, args = r.db.Rebind(expanded), expandedArgs
	}

	query += fmt.Sprintf(` GROUP BY cp.user_id, cp.company_name ORDER BY feedback_count DESC LIMIT %d`, limit)

	var rows []ClientFeedbackCount
	err := r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении клиентов по отзывам: %w", err)
	}

	return rows, nil
}

func (r *reportRepository) ClientsByRating(ctx context.Context, clientIDs []string, limit int) ([]ClientAvgRating, error) {
	if clientIDs != nil && len(clientIDs) == 0 {
		return []ClientAvgRating{}, nil
	}

	query := `
		SELECT cp.user_id AS client_id, cp.company_name, AVG(r.score) AS average_rating
		FROM client_profiles cp
		JOIN ratings r ON r.user_id = cp.user_id
	`
	var args []interface{}

	if clientIDs != nil {
		expanded, expandedArgs, err := sqlx.In(query+` WHERE cp.user_id IN (?)`, clientIDs)
		if err != nil {
			return nil, fmt.Errorf("ошибка при построении запроса: %w", err)
		}
		query, args = r.db.Rebind(expanded), expandedArgs
	}

	query += fmt.Sprintf(` GROUP BY cp.user_id, cp.company_name ORDER BY average_rating DESC LIMIT %d`, limit)

	var rows []ClientAvgRating
	err := r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении клиентов по оценкам: %w", err)
	}

	return rows, nil
}

func (r *reportRepository) TopRatedPosts(ctx context.Context, clientID string, limit int) ([]PostWithRating, error) {
	query := `
		SELECT p.*, AVG(r.score) AS avg_rating
		FROM posts p
		JOIN ratings r ON r.post_id = p.post_id
		WHERE p.assigned_client_id = $1 AND p.status <> $2
		GROUP BY p.post_id
		ORDER BY avg_rating DESC
		LIMIT $3
	`

	var rows []PostWithRating
	err := r.db.SelectContext(ctx, &rows, query, clientID, lifecycle.StatusDraft, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении лучших постов: %w", err)
	}

	return rows, nil
}

func (r *reportRepository) MostDiscussedPosts(ctx context.Context, clientID string, limit int) ([]PostFeedbackCount, error) {
	query := `
		SELECT p.post_id, p.title, COUNT(f.feedback_id) AS feedback_count
		FROM posts p
		JOIN feedback f ON f.post_id = p.post_id
		WHERE p.assigned_client_id = $1 AND p.status <> $2
		GROUP BY p.post_id, p.title
		ORDER BY feedback_count DESC
		LIMIT $3
	`

	var rows []PostFeedbackCount
	err := r.db.SelectContext(ctx, &rows, query, clientID, lifecycle.StatusDraft, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении обсуждаемых постов: %w", err)
	}

	return rows, nil
}

func (r *reportRepository) SaveGeneratedReport(ctx context.Context, ext sqlx.ExtContext, report *models.GeneratedReport) error {
	if report.ReportID == "" {
		report.ReportID = uuid.New().String()
	}
	report.CreatedAt = time.Now()

	query := `
		INSERT INTO generated_reports (report_id, title, report_type, generated_by, file_url, created_at)
		VALUES (:report_id, :title, :report_type, :generated_by, :file_url, :created_at)
	`

	_, err := sqlx.NamedExecContext(ctx, ext, query, report)
	if err != nil {
		return fmt.Errorf("ошибка при сохранении отчета: %w", err)
	}

	return nil
}

func (r *reportRepository) ListGeneratedReports(ctx context.Context, limit int) ([]models.GeneratedReport, error) {
	var reports []models.GeneratedReport

	query := `SELECT * FROM generated_reports ORDER BY created_at DESC LIMIT $1`

	err := r.db.SelectContext(ctx, &reports, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении списка отчетов: %w", err)
	}

	return reports, nil
}
