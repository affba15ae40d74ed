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

type feedbackRepository struct {
	db *sqlx.DB
}

func NewFeedbackRepository(db *sqlx.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) Create(ctx context.Context, ext sqlx.ExtContext, feedback *models.Feedback) error {
	if feedback.FeedbackID == "" {
		feedback.FeedbackID = uuid.New().String()
	}
	feedback.CreatedAt = time.Now()

	query := `
		INSERT INTO feedback (feedback_id, post_id, user_id, comment, created_at)
		VALUES (:feedback_id, :post_id, :user_id, :comment, :created_at)
	`

	_, err := sqlx.NamedExecContext(ctx, ext, query, feedback)
	if err != nil {
		return fmt.Errorf("ошибка при создании отзыва: %w", err)
	}

	return nil
}

func (r *feedbackRepository) ListByPost(ctx context.Context, postID string) ([]models.Feedback, error) {
	var feedbacks []models.Feedback

	query := `SELECT * FROM feedback WHERE post_id = $1 ORDER BY created_at DESC`

	err := r.db.SelectContext(ctx, &feedbacks, query, postID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении отзывов: %w", err)
	}

	return feedbacks, nil
}

func (r *feedbackRepository) ListRecent(ctx context.Context, clientIDs []string, limit int) ([]models.Feedback, error) {
	if clientIDs != nil && len(clientIDs) == 0 {
		return []models.Feedback{}, nil
	}

	query := `
		SELECT f.* FROM feedback f
		JOIN posts p ON p.post_id = f.post_id
	`
	var args []interface{}

	if clientIDs != nil {
		expanded, expandedArgs, err := sqlx.In(query+` WHERE p.assigned_client_id IN (?)`, clientIDs)
		if err != nil {
			return nil, fmt.Errorf("ошибка при построении запроса: %w", err)
		}
		query, args = r.db.Rebind(expanded), expandedArgs
	}

	query += fmt.Sprintf(` ORDER BY f.created_at DESC LIMIT %d`, limit)

	var feedbacks []models.Feedback
	err := r.db.SelectContext(ctx, &feedbacks, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении последних отзывов: %w", err)
	}

	return feedbacks, nil
}

type ratingRepository struct {
	db *sqlx.DB
}

func NewRatingRepository(db *sqlx.DB) RatingRepository {
	return &ratingRepository{db: db}
}

func (r *ratingRepository) Create(ctx context.Context, ext sqlx.ExtContext, rating *models.Rating) error {
	if rating.Score < 1 || rating.Score > 5 {
		return models.NewValidationError("оценка должна быть от 1 до 5")
	}

	if rating.RatingID == "" {
		rating.RatingID = uuid.New().String()
	}
	rating.CreatedAt = time.Now()

	query := `
		INSERT INTO ratings (rating_id, post_id, user_id, score, comment, created_at)
		VALUES (:rating_id, :post_id, :user_id, :score, :comment, :created_at)
	`

	_, err := sqlx.NamedExecContext(ctx, ext, query, rating)
	if err != nil {
		if isUniqueViolation(err) {
			return models.NewValidationError("вы уже оценили этот пост")
		}
		return fmt.Errorf("ошибка при создании оценки: %w", err)
	}

	return nil
}

func (r *ratingRepository) GetByPostAndUser(ctx context.Context, postID, userID string) (*models.Rating, error) {
	var rating models.Rating

	query := `SELECT * FROM ratings WHERE post_id = $1 AND user_id = $2`

	err := r.db.GetContext(ctx, &rating, query, postID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка при получении оценки: %w", err)
	}

	return &rating, nil
}

func (r *ratingRepository) ListByPost(ctx context.Context, postID string) ([]models.Rating, error) {
	var ratings []models.Rating

	query := `SELECT * FROM ratings WHERE post_id = $1 ORDER BY created_at DESC`

	err := r.db.SelectContext(ctx, &ratings, query, postID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении оценок: %w", err)
	}

	return ratings, nil
}

func (r *ratingRepository) ListRecent(ctx context.Context, clientIDs []string, limit int) ([]models.Rating, error) {
	if clientIDs != nil && len(clientIDs) == 0 {
		return []models.Rating{}, nil
	}

	query := `
		SELECT r.* FROM ratings r
		JOIN posts p ON p.post_id = r.post_id
	`
	var args []interface{}

	if clientIDs != nil {
		expanded, expandedArgs, err := sqlx.In(query+` WHERE p.assigned_client_id IN (?)`, clientIDs)
		if err != nil {
			return nil, fmt.Errorf("ошибка при построении запроса: %w", err)
		}
		query, args = r.db.Rebind(expanded), expandedArgs
	}

	query += fmt.Sprintf(` ORDER BY r.created_at DESC LIMIT %d`, limit)

	var ratings []models.Rating
	err := r.db.SelectContext(ctx, &ratings, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении последних оценок: %w", err)
	}

	return ratings, nil
}

// StatsForUser возвращает количество оценок пользователя и их среднее
// (0, если оценок нет - не ошибка деления).
func (r *ratingRepository) StatsForUser(ctx context.Context, userID string) (int, float64, error) {
	row := struct {
		Cnt int      `db:"cnt"`
		Avg *float64 `db:"avg"`
	}{}

	query := `SELECT COUNT(*) AS cnt, AVG(score) AS avg FROM ratings WHERE user_id = $1`

	err := r.db.GetContext(ctx, &row, query, userID)
	if err != nil {
		return 0, 0, fmt.Errorf("ошибка при подсчете оценок: %w", err)
	}

	avg := 0.0
	if row.Avg != nil {
		avg = *row.Avg
	}

	return row.Cnt, avg, nil
}
