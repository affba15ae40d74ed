package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"approvalCPT/internal/config"
	"approvalCPT/internal/database"
	"approvalCPT/internal/lifecycle"
	"approvalCPT/internal/models"
	"approvalCPT/internal/policy"
	"approvalCPT/internal/repository"
	"approvalCPT/internal/storage"
)

// RejectionReport - сводка отклонений в зоне видимости актора.
type RejectionReport struct {
	OverallRate   float64                         `json:"overallRate"`
	TotalPosts    int                             `json:"totalPosts"`
	RejectedPosts int                             `json:"rejectedPosts"`
	Clients       []repository.ClientRejectionRow `json:"clients"`
	MostRejected  []repository.PostFeedbackCount  `json:"mostRejected"`
}

type ClientActivityReport struct {
	TopByFeedback  []repository.ClientFeedbackCount `json:"topByFeedback"`
	TopByRating    []repository.ClientAvgRating     `json:"topByRating"`
	RecentFeedback []models.Feedback                `json:"recentFeedback"`
	RecentRatings  []models.Rating                  `json:"recentRatings"`
}

type ClientAnalytics struct {
	StatusCounts   map[lifecycle.PostStatus]int   `json:"statusCounts"`
	PublishedCount int                            `json:"publishedCount"`
	RatingCount    int                            `json:"ratingCount"`
	AverageRating  float64                        `json:"averageRating"`
	TopRated       []repository.PostWithRating    `json:"topRated"`
	MostDiscussed  []repository.PostFeedbackCount `json:"mostDiscussed"`
}

// PlatformTotals видят только супер-админы.
type PlatformTotals struct {
	Admins  int `json:"admins"`
	Clients int `json:"clients"`
	Posts   int `json:"posts"`
}

type AdminDashboard struct {
	StatusCounts   map[lifecycle.PostStatus]int    `json:"statusCounts"`
	RequestCounts  map[lifecycle.RequestStatus]int `json:"requestCounts"`
	RecentFeedback []models.Feedback               `json:"recentFeedback"`
	RejectedPosts  []models.Post                   `json:"rejectedPosts"`
	Totals         *PlatformTotals                 `json:"totals,omitempty"`
}

type ClientDashboard struct {
	PendingPosts  []models.Post               `json:"pendingPosts"`
	Upcoming      []models.Post               `json:"upcoming"`
	Feed          []repository.PostWithRating `json:"feed"`
	RatingCount   int                         `json:"ratingCount"`
	AverageRating float64                     `json:"averageRating"`
}

type Dashboard struct {
	Role   string           `json:"role"`
	Admin  *AdminDashboard  `json:"admin,omitempty"`
	Client *ClientDashboard `json:"client,omitempty"`
}

// CalendarEvent - проекция поста на календарь публикаций.
type CalendarEvent struct {
	PostID     string               `json:"id"`
	Title      string               `json:"title"`
	Start      time.Time            `json:"start"`
	Status     lifecycle.PostStatus `json:"status"`
	ColorClass string               `json:"colorClass"`
}

type PublishedFeed struct {
	Posts []repository.PostWithRating `json:"posts"`
	Total int                         `json:"total"`
	Page  int                         `json:"page"`
	Pages int                         `json:"pages"`
}

// ReportExport - сохраненный файл отчета вместе с временной ссылкой
// на скачивание из хранилища.
type ReportExport struct {
	Report      models.GeneratedReport `json:"report"`
	DownloadURL string                 `json:"downloadUrl"`
}

type ReportService interface {
	RejectionReport(ctx context.Context, actor policy.Actor) (*RejectionReport, error)
	ExportRejectionCSV(ctx context.Context, actor policy.Actor) ([]byte, string, error)
	ListExports(ctx context.Context, actor policy.Actor) ([]ReportExport, error)
	ClientActivityReport(ctx context.Context, actor policy.Actor) (*ClientActivityReport, error)
	ClientAnalytics(ctx context.Context, actor policy.Actor) (*ClientAnalytics, error)
	Dashboard(ctx context.Context, actor policy.Actor) (*Dashboard, error)
	Calendar(ctx context.Context, actor policy.Actor) ([]CalendarEvent, error)
	PublishedFeed(ctx context.Context, actor policy.Actor, page int) (*PublishedFeed, error)
}

type reportService struct {
	db           *database.DB
	userRepo     repository.UserRepository
	clientRepo   repository.ClientRepository
	postRepo     repository.PostRepository
	feedbackRepo repository.FeedbackRepository
	ratingRepo   repository.RatingRepository
	requestRepo  repository.RequestRepository
	auditRepo    repository.AuditRepository
	reportRepo   repository.ReportRepository
	post         PostService
	storage      storage.Storage
	cfg          *config.Config
}

func NewReportService(db *database.DB, rep *repository.Repository, post PostService, storage storage.Storage, cfg *config.Config) ReportService {
	return &reportService{
		db:           db,
		userRepo:     rep.User,
		clientRepo:   rep.Client,
		postRepo:     rep.Post,
		feedbackRepo: rep.Feedback,
		ratingRepo:   rep.Rating,
		requestRepo:  rep.Request,
		auditRepo:    rep.Audit,
		reportRepo:   rep.Report,
		post:         post,
		storage:      storage,
		cfg:          cfg,
	}
}

// sweep вызывается в начале каждого отчетного чтения: просроченные
// APPROVED посты публикуются до того, как лягут в цифры.
func (s *reportService) sweep(ctx context.Context, actor policy.Actor) error {
	clientID := ""
	if actor.IsClient() {
		clientID = actor.UserID
	}
	return s.post.PublishDue(ctx, clientID)
}

func (s *reportService) RejectionReport(ctx context.Context, actor policy.Actor) (*RejectionReport, error) {
	if !actor.IsAdminLike() {
		return nil, models.ErrUnauthorized
	}

	if err := s.sweep(ctx, actor); err != nil {
		return nil, err
	}

	clientIDs, err := scopeClientIDs(ctx, s.clientRepo, actor)
	if err != nil {
		return nil, err
	}

	rows, err := s.reportRepo.ClientRejectionRows(ctx, clientIDs)
	if err != nil {
		return nil, err
	}

	report := &RejectionReport{Clients: rows}
	for _, row := range rows {
		report.TotalPosts += row.TotalPosts
		report.RejectedPosts += row.RejectedPosts
	}
	// ноль постов на ревью - это 0%, деления на ноль быть не должно
	if report.TotalPosts > 0 {
		report.OverallRate = float64(report.RejectedPosts) * 100.0 / float64(report.TotalPosts)
	}

	report.MostRejected, err = s.reportRepo.MostRejectedPosts(ctx, clientIDs, 10)
	if err != nil {
		return nil, err
	}

	return report, nil
}

// ExportRejectionCSV формирует CSV-файл отчета, кладет его в MinIO,
// фиксирует запись в generated_reports и возвращает содержимое для отдачи.
func (s *reportService) ExportRejectionCSV(ctx context.Context, actor policy.Actor) ([]byte, string, error) {
	report, err := s.RejectionReport(ctx, actor)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Client Name", "Rejection Rate %", "Rejected Posts", "Total Posts"}); err != nil {
		return nil, "", fmt.Errorf("ошибка записи CSV: %w", err)
	}
	for _, row := range report.Clients {
		record := []string{
			row.CompanyName,
			strconv.FormatFloat(row.RejectionRate, 'f', 1, 64),
			strconv.Itoa(row.RejectedPosts),
			strconv.Itoa(row.TotalPosts),
		}
		if err := writer.Write(record); err != nil {
			return nil, "", fmt.Errorf("ошибка записи CSV: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", fmt.Errorf("ошибка записи CSV: %w", err)
	}

	fileName := fmt.Sprintf("rejection_report_%s.csv", time.Now().Format("2006-01-02_15-04-05"))

	objectName, err := s.storage.UploadReport(ctx, fileName, bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		return nil, "", fmt.Errorf("ошибка выгрузки отчета: %w", err)
	}

	actorID := actor.UserID
	generated := &models.GeneratedReport{
		Title:       fmt.Sprintf("Отчет по отклонениям от %s", time.Now().Format("02.01.2006")),
		ReportType:  "rejection",
		GeneratedBy: &actorID,
		FileURL:     objectName,
	}

	// запись об отчете и след в аудите ложатся одной транзакцией
	err = s.db.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.reportRepo.SaveGeneratedReport(ctx, tx, generated); err != nil {
			return err
		}

		return s.auditRepo.Create(ctx, tx, &models.AuditLog{
			UserID:  &actorID,
			Action:  models.ActionReportExport,
			Details: fmt.Sprintf("Экспортирован отчет по отклонениям (%s)", fileName),
		})
	})
	if err != nil {
		return nil, "", err
	}

	return buf.Bytes(), fileName, nil
}

// ListExports отдает сохраненные файлы отчетов с временными ссылками
// на скачивание из хранилища.
func (s *reportService) ListExports(ctx context.Context, actor policy.Actor) ([]ReportExport, error) {
	if !actor.IsAdminLike() {
		return nil, models.ErrUnauthorized
	}

	reports, err := s.reportRepo.ListGeneratedReports(ctx, 20)
	if err != nil {
		return nil, err
	}

	exports := make([]ReportExport, 0, len(reports))
	for _, report := range reports {
		downloadURL, err := s.storage.PresignedURL(ctx, s.cfg.MinIO.ReportBucket, report.FileURL)
		if err != nil {
			return nil, err
		}
		exports = append(exports, ReportExport{Report: report, DownloadURL: downloadURL})
	}

	return exports, nil
}

func (s *reportService) ClientActivityReport(ctx context.Context, actor policy.Actor) (*ClientActivityReport, error) {
	if !actor.IsAdminLike() {
		return nil, models.ErrUnauthorized
	}

	if err := s.sweep(ctx, actor); err != nil {
		return nil, err
	}

	clientIDs, err := scopeClientIDs(ctx, s.clientRepo, actor)
	if err != nil {
		return nil, err
	}

	report := &ClientActivityReport{}

	report.TopByFeedback, err = s.reportRepo.ClientsByFeedback(ctx, clientIDs, 5)
	if err != nil {
		return nil, err
	}

	report.TopByRating, err = s.reportRepo.ClientsByRating(ctx, clientIDs, 5)
	if err != nil {
		return nil, err
	}

	report.RecentFeedback, err = s.feedbackRepo.ListRecent(ctx, clientIDs, 10)
	if err != nil {
		return nil, err
	}

	report.RecentRatings, err = s.ratingRepo.ListRecent(ctx, clientIDs, 10)
	if err != nil {
		return nil, err
	}

	return report, nil
}

func (s *reportService) ClientAnalytics(ctx context.Context, actor policy.Actor) (*ClientAnalytics, error) {
	if !actor.IsClient() {
		return nil, models.ErrUnauthorized
	}

	if err := s.sweep(ctx, actor); err != nil {
		return nil, err
	}

	clientID := actor.UserID
	analytics := &ClientAnalytics{}

	counts, err := s.postRepo.StatusCounts(ctx, []string{clientID})
	if err != nil {
		return nil, err
	}
	analytics.StatusCounts = counts
	analytics.PublishedCount = counts[lifecycle.StatusPublished]

	analytics.RatingCount, analytics.AverageRating, err = s.ratingRepo.StatsForUser(ctx, clientID)
	if err != nil {
		return nil, err
	}

	analytics.TopRated, err = s.reportRepo.TopRatedPosts(ctx, clientID, 5)
	if err != nil {
		return nil, err
	}

	analytics.MostDiscussed, err = s.reportRepo.MostDiscussedPosts(ctx, clientID, 5)
	if err != nil {
		return nil, err
	}

	return analytics, nil
}

// Dashboard собирает стартовую страницу под роль актора.
func (s *reportService) Dashboard(ctx context.Context, actor policy.Actor) (*Dashboard, error) {
	if err := s.sweep(ctx, actor); err != nil {
		return nil, err
	}

	if actor.IsClient() {
		client, err := s.clientDashboard(ctx, actor)
		if err != nil {
			return nil, err
		}
		return &Dashboard{Role: actor.Role, Client: client}, nil
	}

	if !actor.IsAdminLike() {
		return nil, models.ErrUnauthorized
	}

	admin, err := s.adminDashboard(ctx, actor)
	if err != nil {
		return nil, err
	}
	return &Dashboard{Role: actor.Role, Admin: admin}, nil
}

func (s *reportService) adminDashboard(ctx context.Context, actor policy.Actor) (*AdminDashboard, error) {
	clientIDs, err := scopeClientIDs(ctx, s.clientRepo, actor)
	if err != nil {
		return nil, err
	}

	dashboard := &AdminDashboard{}

	dashboard.StatusCounts, err = s.postRepo.StatusCounts(ctx, clientIDs)
	if err != nil {
		return nil, err
	}

	dashboard.RequestCounts, err = s.requestRepo.StatusCounts(ctx, clientIDs)
	if err != nil {
		return nil, err
	}

	dashboard.RecentFeedback, err = s.feedbackRepo.ListRecent(ctx, clientIDs, 5)
	if err != nil {
		return nil, err
	}

	dashboard.RejectedPosts, err = s.postRepo.List(ctx, clientIDs, lifecycle.StatusRejected)
	if err != nil {
		return nil, err
	}

	if actor.IsSuperAdmin() {
		totals := &PlatformTotals{}

		totals.Admins, err = s.userRepo.CountByRole(ctx, models.RoleAdmin)
		if err != nil {
			return nil, err
		}

		totals.Clients, err = s.clientRepo.CountProfiles(ctx)
		if err != nil {
			return nil, err
		}

		totals.Posts, err = s.postRepo.CountAll(ctx)
		if err != nil {
			return nil, err
		}

		dashboard.Totals = totals
	}

	return dashboard, nil
}

func (s *reportService) clientDashboard(ctx context.Context, actor policy.Actor) (*ClientDashboard, error) {
	clientID := actor.UserID
	dashboard := &ClientDashboard{}

	pending, err := s.postRepo.List(ctx, []string{clientID}, lifecycle.StatusPending)
	if err != nil {
		return nil, err
	}
	dashboard.PendingPosts = pending

	dashboard.Upcoming, err = s.postRepo.ListUpcoming(ctx, clientID, time.Now(), 5)
	if err != nil {
		return nil, err
	}

	dashboard.Feed, _, err = s.postRepo.ListPublishedFeed(ctx, clientID, 5, 0)
	if err != nil {
		return nil, err
	}

	dashboard.RatingCount, dashboard.AverageRating, err = s.ratingRepo.StatsForUser(ctx, clientID)
	if err != nil {
		return nil, err
	}

	return dashboard, nil
}

var calendarColors = map[lifecycle.PostStatus]string{
	lifecycle.StatusDraft:     "bg-secondary",
	lifecycle.StatusPending:   "bg-warning",
	lifecycle.StatusRejected:  "bg-danger",
	lifecycle.StatusApproved:  "bg-success",
	lifecycle.StatusPublished: "bg-primary",
	lifecycle.StatusArchived:  "bg-dark",
}

// Calendar отдает запланированные посты как события. Клиенты черновиков
// не видят, админы видят все в своей зоне.
func (s *reportService) Calendar(ctx context.Context, actor policy.Actor) ([]CalendarEvent, error) {
	if err := s.sweep(ctx, actor); err != nil {
		return nil, err
	}

	clientIDs, err := scopeClientIDs(ctx, s.clientRepo, actor)
	if err != nil {
		return nil, err
	}

	posts, err := s.postRepo.ListScheduled(ctx, clientIDs, actor.IsClient())
	if err != nil {
		return nil, err
	}

	events := make([]CalendarEvent, 0, len(posts))
	for _, post := range posts {
		if post.ScheduledDatetime == nil {
			continue
		}
		events = append(events, CalendarEvent{
			PostID:     post.PostID,
			Title:      post.Title,
			Start:      *post.ScheduledDatetime,
			Status:     post.Status,
			ColorClass: calendarColors[post.Status],
		})
	}

	return events, nil
}

const feedPageSize = 10

func (s *reportService) PublishedFeed(ctx context.Context, actor policy.Actor, page int) (*PublishedFeed, error) {
	if !actor.IsClient() {
		return nil, models.ErrUnauthorized
	}

	if err := s.sweep(ctx, actor); err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}

	posts, total, err := s.postRepo.ListPublishedFeed(ctx, actor.UserID, feedPageSize, (page-1)*feedPageSize)
	if err != nil {
		return nil, err
	}

	pages := (total + feedPageSize - 1) / feedPageSize
	if pages == 0 {
		pages = 1
	}

	return &PublishedFeed{Posts: posts, Total: total, Page: page, Pages: pages}, nil
}
