package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"approvalCPT/internal/lifecycle"
	"approvalCPT/internal/models"
)

type requestRepository struct {
	db *sqlx.DB
}

func NewRequestRepository(db *sqlx.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, request *models.PostRequest) error {
	if request.RequestID == "" {
		request.RequestID = uuid.New().String()
	}
	request.Status = lifecycle.RequestPending
	request.CreatedAt = time.Now()

	query := `
		INSERT INTO post_requests (request_id, client_user_id, request_details, desired_date, status, created_at)
		VALUES (:request_id, :client_user_id, :request_details, :desired_date, :status, :created_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, request)
	if err != nil {
		return fmt.Errorf("ошибка при создании заявки на пост: %w", err)
	}

	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, requestID string) (*models.PostRequest, error) {
	var request models.PostRequest

	query := `SELECT * FROM post_requests WHERE request_id = $1`

	err := r.db.GetContext(ctx, &request, query, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка при получении заявки: %w", err)
	}

	return &request, nil
}

// MarkViewed: PENDING -> VIEWED. Заявка, которую уже открывали или
// завершили, не трогается - статусы заявки движутся только вперед.
func (r *requestRepository) MarkViewed(ctx context.Context, ext sqlx.ExtContext, requestID string) error {
	query := `UPDATE post_requests SET status = $1 WHERE request_id = $2 AND status = $3`

	_, err := ext.ExecContext(ctx, query, lifecycle.RequestViewed, requestID, lifecycle.RequestPending)
	if err != nil {
		return fmt.Errorf("ошибка при отметке заявки просмотренной: %w", err)
	}

	return nil
}

// MarkCompleted переводит заявку в COMPLETED ровно один раз: повторный
// вызов по уже завершенной заявке не меняет ничего.
func (r *requestRepository) MarkCompleted(ctx context.Context, ext sqlx.ExtContext, requestID string) error {
	query := `UPDATE post_requests SET status = $1 WHERE request_id = $2 AND status <> $1`

	_, err := ext.ExecContext(ctx, query, lifecycle.RequestCompleted, requestID)
	if err != nil {
		return fmt.Errorf("ошибка при завершении заявки: %w", err)
	}

	return nil
}

func (r *requestRepository) List(ctx context.Context, clientIDs []string, status lifecycle.RequestStatus) ([]models.PostRequest, error) {
	if clientIDs != nil && len(clientIDs) == 0 {
		return []models.PostRequest{}, nil
	}

	query := `SELECT * FROM post_requests`
	var args []interface{}
	var conds []string

	if clientIDs != nil {
		conds = append(conds, `client_user_id IN (?)`)
	}
	if status != "" {
		conds = append(conds, `status = ?`)
	}

	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY created_at DESC"

	if clientIDs != nil && status != "" {
		expanded, expandedArgs, err := sqlx.In(query, clientIDs, status)
		if err != nil {
			return nil, fmt.Errorf("ошибка при построении запроса: %w", err)
		}
		query, args = expanded, expandedArgs
	} else if clientIDs != nil {
		expanded, expandedArgs, err := sqlx.In(query, clientIDs)
		if err != nil {
			return nil, fmt.Errorf("ошибка при построении запроса: %w", err)
		}
		query, args = expanded, expandedArgs
	} else if status != "" {
		expanded, expandedArgs, err := sqlx.In(query, status)
		if err != nil {
			return nil, fmt.Errorf("ошибка при построении запроса: %w", err)
		}
		query, args = expanded, expandedArgs
	}

	var requests []models.PostRequest
	err := r.db.SelectContext(ctx, &requests, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении заявок: %w", err)
	}

	return requests, nil
}

func (r *requestRepository) StatusCounts(ctx context.Context, clientIDs []string) (map[lifecycle.RequestStatus]int, error) {
	counts := make(map[lifecycle.RequestStatus]int)
	if clientIDs != nil && len(clientIDs) == 0 {
		return counts, nil
	}

	query := `SELECT status, COUNT(*) AS cnt FROM post_requests`
	var args []interface{}

	if clientIDs != nil {
		expanded, expandedArgs, err := sqlx.In(query+` WHERE client_user_id IN (?) GROUP BY status`, clientIDs)
		if err != nil {
			return nil, fmt.Errorf("ошибка при построении запроса: %w", err)
		}
		query, args = r.db.Rebind(expanded), expandedArgs
	} else {
		query += ` GROUP BY status`
	}

	rows := []struct {
		Status lifecycle.RequestStatus `db:"status"`
		Cnt    int                     `db:"cnt"`
	}{}

	err := r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка при подсчете заявок по статусам: %w", err)
	}

	for _, row := range rows {
		counts[row.Status] = row.Cnt
	}

	return counts, nil
}
