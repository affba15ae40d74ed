package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"approvalCPT/internal/config"
	"approvalCPT/internal/database"
	"approvalCPT/internal/lifecycle"
	"approvalCPT/internal/models"
	"approvalCPT/internal/policy"
	"approvalCPT/internal/repository"
)

// stubStorage подменяет MinIO в тестах сервиса отчетов.
type stubStorage struct{}

func (stubStorage) UploadImage(ctx context.Context, postID, fileName string, file io.Reader, size int64) (string, string, error) {
	return "posts/" + postID + "/" + fileName, fileName, nil
}

func (stubStorage) DeleteImage(ctx context.Context, objectName string) error {
	return nil
}

func (stubStorage) UploadReport(ctx context.Context, fileName string, data io.Reader, size int64) (string, error) {
	return "reports/2026/08/" + fileName, nil
}

func (stubStorage) PresignedURL(ctx context.Context, bucket, objectName string) (string, error) {
	return "https://minio.local/" + bucket + "/" + objectName, nil
}

func newTestReportService(t *testing.T) (ReportService, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	wrapped := &database.DB{DB: sqlxDB}
	rep := repository.NewRepository(sqlxDB)

	cfg := &config.Config{MinIO: config.MinIO{ReportBucket: "generated-reports"}}
	post := NewPostService(wrapped, rep, stubStorage{})

	return NewReportService(wrapped, rep, post, stubStorage{}, cfg), mock
}

func expectEmptySweep(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectQuery(`
		UPDATE posts SET
			status = $1,
			updated_at = CURRENT_TIMESTAMP
		WHERE status = $2 AND scheduled_datetime IS NOT NULL AND scheduled_datetime <= $3
		RETURNING *
	`).
		WithArgs(lifecycle.StatusPublished, lifecycle.StatusApproved, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(postColumns))
	mock.ExpectCommit()
}

func TestReportService_ExportRejectionCSV(t *testing.T) {
	ctx := context.Background()
	superAdmin := policy.Actor{UserID: "super-1", Role: models.RoleSuperAdmin}

	t.Run("Файл отчета и след в аудите - одна транзакция", func(t *testing.T) {
		svc, mock := newTestReportService(t)

		expectEmptySweep(mock)

		rejectionRows := sqlmock.NewRows([]string{"client_id", "company_name", "total_posts", "rejected_posts"}).
			AddRow("client-1", "Acme", 10, 2)
		mock.ExpectQuery(`
			SELECT cp.user_id AS client_id,
			       cp.company_name,
			       COUNT(p.post_id) FILTER (WHERE p.status IN (?, ?, ?, ?)) AS total_posts,
			       COUNT(p.post_id) FILTER (WHERE p.status = ?) AS rejected_posts
			FROM client_profiles cp
			LEFT JOIN posts p ON p.assigned_client_id = cp.user_id
			GROUP BY cp.user_id, cp.company_name ORDER BY rejected_posts DESC
		`).
			WithArgs(lifecycle.StatusPending, lifecycle.StatusApproved,
				lifecycle.StatusRejected, lifecycle.StatusPublished, lifecycle.StatusRejected).
			WillReturnRows(rejectionRows)

		mock.ExpectQuery(`
			SELECT p.post_id, p.title, COUNT(f.feedback_id) AS feedback_count
			FROM posts p
			JOIN feedback f ON f.post_id = p.post_id
			GROUP BY p.post_id, p.title ORDER BY feedback_count DESC LIMIT 10
		`).
			WillReturnRows(sqlmock.NewRows([]string{"post_id", "title", "feedback_count"}))

		mock.ExpectBegin()
		mock.ExpectExec(`
			INSERT INTO generated_reports (report_id, title, report_type, generated_by, file_url, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "rejection", "super-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(`
			INSERT INTO audit_log (audit_id, user_id, action, details, created_at)
			VALUES (?, ?, ?, ?, ?)
		`).
			WithArgs(sqlmock.AnyArg(), "super-1", "report_export", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		data, fileName, err := svc.ExportRejectionCSV(ctx, superAdmin)

		require.NoError(t, err)
		assert.Contains(t, fileName, "rejection_report_")
		assert.Contains(t, string(data), "Client Name,Rejection Rate %,Rejected Posts,Total Posts")
		assert.Contains(t, string(data), "Acme,20.0,2,10")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Клиенту экспорт недоступен", func(t *testing.T) {
		svc, mock := newTestReportService(t)

		_, _, err := svc.ExportRejectionCSV(ctx, policy.Actor{UserID: "client-1", Role: models.RoleClient})

		assert.ErrorIs(t, err, models.ErrUnauthorized)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestReportService_ListExports(t *testing.T) {
	ctx := context.Background()

	t.Run("Сохраненные отчеты отдаются со ссылками на скачивание", func(t *testing.T) {
		svc, mock := newTestReportService(t)

		generatedBy := "super-1"
		rows := sqlmock.NewRows([]string{"report_id", "title", "report_type", "generated_by", "file_url", "created_at"}).
			AddRow("rep-1", "Отчет по отклонениям от 30.08.2026", "rejection", &generatedBy,
				"reports/2026/08/rejection_report_2026-08-30.csv", time.Now())

		mock.ExpectQuery(`SELECT * FROM generated_reports ORDER BY created_at DESC LIMIT $1`).
			WithArgs(20).
			WillReturnRows(rows)

		exports, err := svc.ListExports(ctx, policy.Actor{UserID: "admin-1", Role: models.RoleAdmin})

		require.NoError(t, err)
		require.Len(t, exports, 1)
		assert.Equal(t, "rep-1", exports[0].Report.ReportID)
		assert.Equal(t,
			"https://minio.local/generated-reports/reports/2026/08/rejection_report_2026-08-30.csv",
			exports[0].DownloadURL)
	})

	t.Run("Клиенту список отчетов недоступен", func(t *testing.T) {
		svc, mock := newTestReportService(t)

		_, err := svc.ListExports(ctx, policy.Actor{UserID: "client-1", Role: models.RoleClient})

		assert.ErrorIs(t, err, models.ErrUnauthorized)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
