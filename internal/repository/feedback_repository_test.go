package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"approvalCPT/internal/models"
)

func TestRatingRepository_Create(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewRatingRepository(sqlxDB)

	ctx := context.Background()

	insertQuery := `
		INSERT INTO ratings (rating_id, post_id, user_id, score, comment, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	t.Run("Успешное создание оценки", func(t *testing.T) {
		rating := &models.Rating{
			PostID: "post-1",
			UserID: "client-1",
			Score:  4,
		}

		mock.ExpectExec(insertQuery).
			WithArgs(sqlmock.AnyArg(), "post-1", "client-1", 4, nil, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.Create(ctx, sqlxDB, rating)

		assert.NoError(t, err)
		assert.NotEmpty(t, rating.RatingID)
	})

	t.Run("Оценка вне диапазона отбивается до запроса", func(t *testing.T) {
		for _, score := range []int{0, 6, -1} {
			err := repo.Create(ctx, sqlxDB, &models.Rating{
				PostID: "post-1",
				UserID: "client-1",
				Score:  score,
			})

			assert.Error(t, err)
			assert.True(t, models.IsValidation(err))
		}
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Повторная оценка того же поста", func(t *testing.T) {
		mock.ExpectExec(insertQuery).
			WillReturnError(errors.New(`duplicate key value violates unique constraint "ratings_post_id_user_id_key"`))

		err := repo.Create(ctx, sqlxDB, &models.Rating{
			PostID: "post-1",
			UserID: "client-1",
			Score:  5,
		})

		assert.Error(t, err)
		assert.True(t, models.IsValidation(err))
		assert.Contains(t, err.Error(), "вы уже оценили этот пост")
	})
}

func TestRatingRepository_GetByPostAndUser(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewRatingRepository(sqlxDB)

	ctx := context.Background()
	postID := uuid.New().String()
	userID := uuid.New().String()

	t.Run("Оценка найдена", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"rating_id", "post_id", "user_id", "score", "comment", "created_at"}).
			AddRow(uuid.New().String(), postID, userID, 5, nil, time.Now())

		mock.ExpectQuery(`SELECT * FROM ratings WHERE post_id = $1 AND user_id = $2`).
			WithArgs(postID, userID).
			WillReturnRows(rows)

		rating, err := repo.GetByPostAndUser(ctx, postID, userID)

		require.NoError(t, err)
		assert.Equal(t, 5, rating.Score)
	})

	t.Run("Оценки нет", func(t *testing.T) {
		mock.ExpectQuery(`SELECT * FROM ratings WHERE post_id = $1 AND user_id = $2`).
			WithArgs(postID, userID).
			WillReturnError(sql.ErrNoRows)

		rating, err := repo.GetByPostAndUser(ctx, postID, userID)

		assert.Nil(t, rating)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestRatingRepository_StatsForUser(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewRatingRepository(sqlxDB)

	ctx := context.Background()
	userID := uuid.New().String()

	query := `SELECT COUNT(*) AS cnt, AVG(score) AS avg FROM ratings WHERE user_id = $1`

	t.Run("Есть оценки", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"cnt", "avg"}).AddRow(3, 4.5))

		count, avg, err := repo.StatsForUser(ctx, userID)

		require.NoError(t, err)
		assert.Equal(t, 3, count)
		assert.Equal(t, 4.5, avg)
	})

	t.Run("Оценок нет - среднее ноль, а не ошибка", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"cnt", "avg"}).AddRow(0, nil))

		count, avg, err := repo.StatsForUser(ctx, userID)

		require.NoError(t, err)
		assert.Equal(t, 0, count)
		assert.Equal(t, 0.0, avg)
	})
}

func TestFeedbackRepository_Create(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewFeedbackRepository(sqlxDB)

	ctx := context.Background()

	t.Run("Успешное создание отзыва", func(t *testing.T) {
		feedback := &models.Feedback{
			PostID:  "post-1",
			UserID:  "client-1",
			Comment: "Поправьте дату в тексте",
		}

		mock.ExpectExec(`
			INSERT INTO feedback (feedback_id, post_id, user_id, comment, created_at)
			VALUES (?, ?, ?, ?, ?)
		`).
			WithArgs(sqlmock.AnyArg(), "post-1", "client-1", "Поправьте дату в тексте", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.Create(ctx, sqlxDB, feedback)

		assert.NoError(t, err)
		assert.NotEmpty(t, feedback.FeedbackID)
	})
}
