package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"approvalCPT/internal/lifecycle"
)

func TestReportRepository_ClientRejectionRows(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewReportRepository(sqlxDB)

	ctx := context.Background()

	query := `
		SELECT cp.user_id AS client_id,
		       cp.company_name,
		       COUNT(p.post_id) FILTER (WHERE p.status IN (?, ?, ?, ?)) AS total_posts,
		       COUNT(p.post_id) FILTER (WHERE p.status = ?) AS rejected_posts
		FROM client_profiles cp
		LEFT JOIN posts p ON p.assigned_client_id = cp.user_id
		GROUP BY cp.user_id, cp.company_name ORDER BY rejected_posts DESC
	`

	t.Run("Доля отклонений считается в коде", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"client_id", "company_name", "total_posts", "rejected_posts"}).
			AddRow("client-1", "Acme", 10, 2).
			AddRow("client-2", "Globex", 0, 0)

		mock.ExpectQuery(query).
			WithArgs(lifecycle.StatusPending, lifecycle.StatusApproved,
				lifecycle.StatusRejected, lifecycle.StatusPublished, lifecycle.StatusRejected).
			WillReturnRows(rows)

		result, err := repo.ClientRejectionRows(ctx, nil)

		require.NoError(t, err)
		require.Len(t, result, 2)
		assert.Equal(t, 20.0, result[0].RejectionRate)
		// у клиента без постов на ревью доля 0, а не деление на ноль
		assert.Equal(t, 0.0, result[1].RejectionRate)
	})

	t.Run("Знаменатель строится из таблицы статусов", func(t *testing.T) {
		// черновики клиент не видел, в долю отклонений они не входят
		rows := sqlmock.NewRows([]string{"client_id", "company_name", "total_posts", "rejected_posts"}).
			AddRow("client-1", "Acme", 4, 1)

		mock.ExpectQuery(query).
			WithArgs(lifecycle.StatusPending, lifecycle.StatusApproved,
				lifecycle.StatusRejected, lifecycle.StatusPublished, lifecycle.StatusRejected).
			WillReturnRows(rows)

		result, err := repo.ClientRejectionRows(ctx, nil)

		require.NoError(t, err)
		require.Len(t, result, 1)
		assert.Equal(t, 25.0, result[0].RejectionRate)
		assert.NotContains(t, lifecycle.ReviewableStatuses(), lifecycle.StatusDraft)
	})

	t.Run("Пустая область видимости - без запроса", func(t *testing.T) {
		result, err := repo.ClientRejectionRows(ctx, []string{})

		require.NoError(t, err)
		assert.Empty(t, result)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestReportRepository_ListGeneratedReports(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewReportRepository(sqlxDB)

	ctx := context.Background()

	t.Run("Свежие отчеты первыми", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"report_id", "title", "report_type", "generated_by", "file_url", "created_at"}).
			AddRow("rep-2", "Отчет по отклонениям от 30.08.2026", "rejection", nil, "reports/2026/08/b.csv", time.Now()).
			AddRow("rep-1", "Отчет по отклонениям от 01.08.2026", "rejection", nil, "reports/2026/08/a.csv", time.Now())

		mock.ExpectQuery(`SELECT * FROM generated_reports ORDER BY created_at DESC LIMIT $1`).
			WithArgs(20).
			WillReturnRows(rows)

		reports, err := repo.ListGeneratedReports(ctx, 20)

		require.NoError(t, err)
		require.Len(t, reports, 2)
		assert.Equal(t, "rep-2", reports[0].ReportID)
	})
}
