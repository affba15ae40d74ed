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

type postRepository struct {
	db *sqlx.DB
}

// PostWithRating - пост со средней оценкой для ленты и аналитики.
type PostWithRating struct {
	models.Post
	AvgRating *float64 `json:"avgRating" db:"avg_rating"`
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, ext sqlx.ExtContext, post *models.Post) error {
	if post.PostID == "" {
		post.PostID = uuid.New().String()
	}

	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now

	query := `
		INSERT INTO posts
		(post_id, title, caption, image_url, status, scheduled_datetime,
		 created_by, assigned_client_id, created_from_request_id, created_at, updated_at)
		VALUES
		(:post_id, :title, :caption, :image_url, :status, :scheduled_datetime,
		 :created_by, :assigned_client_id, :created_from_request_id, :created_at, :updated_at)
	`

	_, err := sqlx.NamedExecContext(ctx, ext, query, post)
	if err != nil {
		return fmt.Errorf("ошибка при создании поста: %w", err)
	}

	return nil
}

func (r *postRepository) GetByID(ctx context.Context, postID string) (*models.Post, error) {
	var post models.Post

	query := `SELECT * FROM posts WHERE post_id = $1`

	err := r.db.GetContext(ctx, &post, query, postID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка при получении поста: %w", err)
	}

	return &post, nil
}

// UpdateStatus переводит пост по ребру from -> to. Условие WHERE по
// исходному статусу защищает от гонки двух конкурирующих переходов:
// проигравший получает 0 строк и транзакция откатывается целиком.
func (r *postRepository) UpdateStatus(ctx context.Context, ext sqlx.ExtContext, postID string, from, to lifecycle.PostStatus) error {
	if err := lifecycle.CheckTransition(from, to); err != nil {
		return models.NewValidationError(err.Error())
	}

	query := `
		UPDATE posts SET
			status = $1,
			updated_at = CURRENT_TIMESTAMP
		WHERE post_id = $2 AND status = $3
	`

	result, err := ext.ExecContext(ctx, query, to, postID, from)
	if err != nil {
		return fmt.Errorf("ошибка при обновлении статуса поста: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка при проверке обновленных строк: %w", err)
	}

	if rowsAffected == 0 {
		return models.NewValidationError(fmt.Sprintf("пост не находится в статусе %s", from))
	}

	return nil
}

func (r *postRepository) UpdateContent(ctx context.Context, ext sqlx.ExtContext, post *models.Post) error {
	post.UpdatedAt = time.Now()

	query := `
		UPDATE posts SET
			title = :title,
			caption = :caption,
			image_url = :image_url,
			scheduled_datetime = :scheduled_datetime,
			status = :status,
			updated_at = :updated_at
		WHERE post_id = :post_id
	`

	result, err := sqlx.NamedExecContext(ctx, ext, query, post)
	if err != nil {
		return fmt.Errorf("ошибка при обновлении поста: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка при проверке обновленных строк: %w", err)
	}

	if rowsAffected == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *postRepository) Delete(ctx context.Context, ext sqlx.ExtContext, postID string) error {
	// отзывы, оценки и версии удаляются каскадом на уровне схемы,
	// ссылки из уведомлений становятся NULL
	result, err := ext.ExecContext(ctx, `DELETE FROM posts WHERE post_id = $1`, postID)
	if err != nil {
		return fmt.Errorf("ошибка при удалении поста: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка при проверке удаленных строк: %w", err)
	}

	if rowsAffected == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *postRepository) CreateVersion(ctx context.Context, ext sqlx.ExtContext, version *models.PostVersion) error {
	if version.VersionID == "" {
		version.VersionID = uuid.New().String()
	}
	version.CreatedAt = time.Now()

	query := `
		INSERT INTO post_versions (version_id, post_id, caption_data, image_path, edited_by, created_at)
		VALUES (:version_id, :post_id, :caption_data, :image_path, :edited_by, :created_at)
	`

	_, err := sqlx.NamedExecContext(ctx, ext, query, version)
	if err != nil {
		return fmt.Errorf("ошибка при сохранении версии поста: %w", err)
	}

	return nil
}

// List возвращает посты в области видимости clientIDs.
// nil - без ограничения (супер-админ), пустой срез - пустой результат.
func (r *postRepository) List(ctx context.Context, clientIDs []string, status lifecycle.PostStatus) ([]models.Post, error) {
	if clientIDs != nil && len(clientIDs) == 0 {
		return []models.Post{}, nil
	}

	query := `SELECT * FROM posts`
	var args []interface{}
	var conds []string

	if clientIDs != nil {
		conds = append(conds, `assigned_client_id IN (?)`)
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
	query += " ORDER BY updated_at DESC"

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

	var posts []models.Post
	err := r.db.SelectContext(ctx, &posts, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении постов: %w", err)
	}

	return posts, nil
}

func (r *postRepository) StatusCounts(ctx context.Context, clientIDs []string) (map[lifecycle.PostStatus]int, error) {
	counts := make(map[lifecycle.PostStatus]int)
	if clientIDs != nil && len(clientIDs) == 0 {
		return counts, nil
	}

	query := `SELECT status, COUNT(*) AS cnt FROM posts`
	var args []interface{}

	if clientIDs != nil {
		expanded, expandedArgs, err := sqlx.In(query+` WHERE assigned_client_id IN (?) GROUP BY status`, clientIDs)
		if err != nil {
			return nil, fmt.Errorf("ошибка при построении запроса: %w", err)
		}
		query, args = r.db.Rebind(expanded), expandedArgs
	} else {
		query += ` GROUP BY status`
	}

	rows := []struct {
		Status lifecycle.PostStatus `db:"status"`
		Cnt    int                  `db:"cnt"`
	}{}

	err := r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка при подсчете постов по статусам: %w", err)
	}

	for _, row := range rows {
		counts[row.Status] = row.Cnt
	}

	return counts, nil
}

// PublishDue - ленивый sweep: массово переводит APPROVED -> PUBLISHED все
// посты, чье время публикации наступило, и возвращает именно те строки,
// которые перевел этот вызов. Повторный запуск ничего не находит, поэтому
// уведомление об публикации уходит ровно один раз.
func (r *postRepository) PublishDue(ctx context.Context, ext sqlx.ExtContext, clientID string, now time.Time) ([]models.Post, error) {
	query := `
		UPDATE posts SET
			status = $1,
			updated_at = CURRENT_TIMESTAMP
		WHERE status = $2 AND scheduled_datetime IS NOT NULL AND scheduled_datetime <= $3
	`
	args := []interface{}{lifecycle.StatusPublished, lifecycle.StatusApproved, now}

	if clientID != "" {
		query += ` AND assigned_client_id = $4`
		args = append(args, clientID)
	}
	query += ` RETURNING *`

	rows, err := ext.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка при публикации постов по расписанию: %w", err)
	}
	defer rows.Close()

	var published []models.Post
	for rows.Next() {
		var post models.Post
		if err := rows.StructScan(&post); err != nil {
			return nil, fmt.Errorf("ошибка при чтении опубликованного поста: %w", err)
		}
		published = append(published, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при публикации постов по расписанию: %w", err)
	}

	return published, nil
}

func (r *postRepository) ListScheduled(ctx context.Context, clientIDs []string, excludeDrafts bool) ([]models.Post, error) {
	if clientIDs != nil && len(clientIDs) == 0 {
		return []models.Post{}, nil
	}

	query := `SELECT * FROM posts WHERE scheduled_datetime IS NOT NULL`
	var args []interface{}

	if excludeDrafts {
		query += fmt.Sprintf(` AND status <> '%s'`, lifecycle.StatusDraft)
	}

	if clientIDs != nil {
		expanded, expandedArgs, err := sqlx.In(query+` AND assigned_client_id IN (?)`, clientIDs)
		if err != nil {
			return nil, fmt.Errorf("ошибка при построении запроса: %w", err)
		}
		query, args = r.db.Rebind(expanded), expandedArgs
	}

	query += ` ORDER BY scheduled_datetime`

	var posts []models.Post
	err := r.db.SelectContext(ctx, &posts, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении расписания постов: %w", err)
	}

	return posts, nil
}

func (r *postRepository) ListPublishedFeed(ctx context.Context, clientID string, limit, offset int) ([]PostWithRating, int, error) {
	query := `
		SELECT p.*, AVG(r.score) AS avg_rating
		FROM posts p
		LEFT JOIN ratings r ON r.post_id = p.post_id
		WHERE p.assigned_client_id = $1 AND p.status = $2
		GROUP BY p.post_id
		ORDER BY p.scheduled_datetime DESC NULLS LAST
		LIMIT $3 OFFSET $4
	`

	var posts []PostWithRating
	err := r.db.SelectContext(ctx, &posts, query, clientID, lifecycle.StatusPublished, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка при получении ленты: %w", err)
	}

	var total int
	err = r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM posts WHERE assigned_client_id = $1 AND status = $2`,
		clientID, lifecycle.StatusPublished)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка при подсчете постов ленты: %w", err)
	}

	return posts, total, nil
}

func (r *postRepository) ListUpcoming(ctx context.Context, clientID string, now time.Time, limit int) ([]models.Post, error) {
	query := `
		SELECT * FROM posts
		WHERE assigned_client_id = $1
		AND status IN ($2, $3)
		AND scheduled_datetime >= $4
		ORDER BY scheduled_datetime
		LIMIT $5
	`

	var posts []models.Post
	err := r.db.SelectContext(ctx, &posts, query,
		clientID, lifecycle.StatusApproved, lifecycle.StatusPublished, now, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении запланированных постов: %w", err)
	}

	return posts, nil
}

func (r *postRepository) CountAll(ctx context.Context) (int, error) {
	var count int

	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM posts`)
	if err != nil {
		return 0, fmt.Errorf("ошибка при подсчете постов: %w", err)
	}

	return count, nil
}
