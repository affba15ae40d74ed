package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"approvalCPT/internal/database"
	"approvalCPT/internal/lifecycle"
	"approvalCPT/internal/models"
	"approvalCPT/internal/policy"
	"approvalCPT/internal/repository"
	"approvalCPT/internal/storage"
)

type CreatePostRequest struct {
	Title             string     `json:"title" validate:"required"`
	Caption           string     `json:"caption" validate:"required"`
	AssignedClientID  string     `json:"assignedClientId" validate:"required"`
	ScheduledDatetime *time.Time `json:"scheduledDatetime"`
	FromRequestID     *string    `json:"fromRequestId"`
}

type UpdatePostRequest struct {
	Title             string     `json:"title" validate:"required"`
	Caption           string     `json:"caption" validate:"required"`
	ScheduledDatetime *time.Time `json:"scheduledDatetime"`
}

// PostDetail - пост вместе с историей отзывов и оценками.
type PostDetail struct {
	Post      *models.Post      `json:"post"`
	Feedback  []models.Feedback `json:"feedback"`
	Ratings   []models.Rating   `json:"ratings"`
	OwnRating *models.Rating    `json:"ownRating,omitempty"`
}

type PostService interface {
	CreatePost(ctx context.Context, actor policy.Actor, req CreatePostRequest) (*models.Post, error)
	GetPost(ctx context.Context, actor policy.Actor, postID string) (*PostDetail, error)
	UpdatePost(ctx context.Context, actor policy.Actor, postID string, req UpdatePostRequest) (*models.Post, error)
	MarkPending(ctx context.Context, actor policy.Actor, postID string) error
	ApprovePost(ctx context.Context, actor policy.Actor, postID, comment string) error
	RejectPost(ctx context.Context, actor policy.Actor, postID, comment string) error
	DeletePost(ctx context.Context, actor policy.Actor, postID string) error
	RatePost(ctx context.Context, actor policy.Actor, postID string, score int, comment string) (*models.Rating, error)
	AttachImage(ctx context.Context, actor policy.Actor, postID, fileName string, file io.Reader, size int64) (string, error)
	ListPosts(ctx context.Context, actor policy.Actor, status lifecycle.PostStatus) ([]models.Post, map[lifecycle.PostStatus]int, error)
	PublishDue(ctx context.Context, clientID string) error
}

type postService struct {
	db           *database.DB
	postRepo     repository.PostRepository
	clientRepo   repository.ClientRepository
	feedbackRepo repository.FeedbackRepository
	ratingRepo   repository.RatingRepository
	requestRepo  repository.RequestRepository
	notifRepo    repository.NotificationRepository
	auditRepo    repository.AuditRepository
	storage      storage.Storage
}

func NewPostService(db *database.DB, rep *repository.Repository, storage storage.Storage) PostService {
	return &postService{
		db:           db,
		postRepo:     rep.Post,
		clientRepo:   rep.Client,
		feedbackRepo: rep.Feedback,
		ratingRepo:   rep.Rating,
		requestRepo:  rep.Request,
		notifRepo:    rep.Notification,
		auditRepo:    rep.Audit,
		storage:      storage,
	}
}

// checkManage загружает профиль клиента поста и проверяет право актора
// действовать над ним. Единственная точка проверки для админских операций.
func (p *postService) checkManage(ctx context.Context, actor policy.Actor, clientID string) error {
	if !actor.IsAdminLike() {
		return models.ErrUnauthorized
	}
	if actor.IsSuperAdmin() {
		return nil
	}

	profile, err := p.clientRepo.GetProfile(ctx, clientID)
	if err != nil {
		return err
	}

	return policy.CheckManagePost(actor, profile.AssignedAdminIDs)
}

func (p *postService) audit(ctx context.Context, tx *sqlx.Tx, userID *string, action, details string) error {
	return p.auditRepo.Create(ctx, tx, &models.AuditLog{
		UserID:  userID,
		Action:  action,
		Details: details,
	})
}

func (p *postService) notify(ctx context.Context, tx *sqlx.Tx, recipientID, message string, postID *string) error {
	return p.notifRepo.Create(ctx, tx, &models.Notification{
		RecipientID:   recipientID,
		Message:       message,
		RelatedPostID: postID,
	})
}

func (p *postService) CreatePost(ctx context.Context, actor policy.Actor, req CreatePostRequest) (*models.Post, error) {
	if err := p.checkManage(ctx, actor, req.AssignedClientID); err != nil {
		return nil, err
	}

	if req.FromRequestID != nil {
		request, err := p.requestRepo.GetByID(ctx, *req.FromRequestID)
		if err != nil {
			return nil, err
		}
		if request.ClientUserID != req.AssignedClientID {
			return nil, models.NewValidationError("заявка принадлежит другому клиенту")
		}
	}

	actorID := actor.UserID
	post := &models.Post{
		Title:                req.Title,
		Caption:              req.Caption,
		Status:               lifecycle.StatusDraft,
		ScheduledDatetime:    req.ScheduledDatetime,
		CreatedBy:            &actorID,
		AssignedClientID:     req.AssignedClientID,
		CreatedFromRequestID: req.FromRequestID,
	}

	err := p.db.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if err := p.postRepo.Create(ctx, tx, post); err != nil {
			return err
		}

		// заявка, из которой сделан черновик, считается выполненной
		if post.CreatedFromRequestID != nil {
			if err := p.requestRepo.MarkCompleted(ctx, tx, *post.CreatedFromRequestID); err != nil {
				return err
			}
		}

		return p.audit(ctx, tx, &actorID, models.ActionPostCreate,
			fmt.Sprintf("Создан черновик поста '%s'", post.Title))
	})
	if err != nil {
		return nil, err
	}

	return post, nil
}

func (p *postService) GetPost(ctx context.Context, actor policy.Actor, postID string) (*PostDetail, error) {
	post, err := p.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	if actor.IsClient() {
		if err := policy.CheckReviewPost(actor, post.AssignedClientID); err != nil {
			return nil, err
		}
	} else if err := p.checkManage(ctx, actor, post.AssignedClientID); err != nil {
		return nil, err
	}

	feedback, err := p.feedbackRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	ratings, err := p.ratingRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	detail := &PostDetail{Post: post, Feedback: feedback, Ratings: ratings}

	if actor.IsClient() {
		own, err := p.ratingRepo.GetByPostAndUser(ctx, postID, actor.UserID)
		if err == nil {
			detail.OwnRating = own
		}
	}

	return detail, nil
}

// UpdatePost - правка с повторной отправкой: черновик или отклоненный пост
// после сохранения уходит клиенту на согласование. Прежнее содержимое
// сохраняется снимком в истории версий.
func (p *postService) UpdatePost(ctx context.Context, actor policy.Actor, postID string, req UpdatePostRequest) (*models.Post, error) {
	post, err := p.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	if err := p.checkManage(ctx, actor, post.AssignedClientID); err != nil {
		return nil, err
	}

	resubmitted := lifecycle.CanTransition(post.Status, lifecycle.StatusPending)
	if !resubmitted && post.Status != lifecycle.StatusPending {
		return nil, models.NewValidationError(
			fmt.Sprintf("пост в статусе %s нельзя редактировать", post.Status))
	}

	actorID := actor.UserID
	version := &models.PostVersion{
		PostID:      post.PostID,
		CaptionData: post.Caption,
		ImagePath:   post.ImageURL,
		EditedBy:    &actorID,
	}

	post.Title = req.Title
	post.Caption = req.Caption
	post.ScheduledDatetime = req.ScheduledDatetime
	if resubmitted {
		post.Status = lifecycle.StatusPending
	}

	err = p.db.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if err := p.postRepo.CreateVersion(ctx, tx, version); err != nil {
			return err
		}

		if err := p.postRepo.UpdateContent(ctx, tx, post); err != nil {
			return err
		}

		if err := p.audit(ctx, tx, &actorID, models.ActionPostEdit,
			fmt.Sprintf("Пост '%s' обновлен. Новый статус: %s", post.Title, post.Status)); err != nil {
			return err
		}

		if resubmitted {
			return p.notify(ctx, tx, post.AssignedClientID,
				lifecycle.PendingMessage(post.Title), &post.PostID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return post, nil
}

func (p *postService) MarkPending(ctx context.Context, actor policy.Actor, postID string) error {
	post, err := p.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}

	if err := p.checkManage(ctx, actor, post.AssignedClientID); err != nil {
		return err
	}

	if post.Status != lifecycle.StatusDraft {
		return models.NewValidationError("на согласование можно отправить только черновик")
	}

	actorID := actor.UserID

	return p.db.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if err := p.postRepo.UpdateStatus(ctx, tx, postID, lifecycle.StatusDraft, lifecycle.StatusPending); err != nil {
			return err
		}

		if err := p.audit(ctx, tx, &actorID, models.ActionPostEdit,
			fmt.Sprintf("Пост '%s' обновлен. Новый статус: %s", post.Title, lifecycle.StatusPending)); err != nil {
			return err
		}

		return p.notify(ctx, tx, post.AssignedClientID,
			lifecycle.PendingMessage(post.Title), &post.PostID)
	})
}

func (p *postService) ApprovePost(ctx context.Context, actor policy.Actor, postID, comment string) error {
	post, err := p.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}

	if err := policy.CheckReviewPost(actor, post.AssignedClientID); err != nil {
		return err
	}

	if post.Status != lifecycle.StatusPending {
		return models.NewValidationError("одобрить можно только пост на согласовании")
	}

	actorID := actor.UserID
	comment = strings.TrimSpace(comment)

	return p.db.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if err := p.postRepo.UpdateStatus(ctx, tx, postID, lifecycle.StatusPending, lifecycle.StatusApproved); err != nil {
			return err
		}

		// заявка-источник закрывается ровно один раз
		if post.CreatedFromRequestID != nil {
			if err := p.requestRepo.MarkCompleted(ctx, tx, *post.CreatedFromRequestID); err != nil {
				return err
			}
		}

		if comment != "" {
			feedback := &models.Feedback{
				PostID:  post.PostID,
				UserID:  actorID,
				Comment: comment,
			}
			if err := p.feedbackRepo.Create(ctx, tx, feedback); err != nil {
				return err
			}
			if err := p.audit(ctx, tx, &actorID, models.ActionPostFeedback,
				fmt.Sprintf("Клиент оставил отзыв на '%s'", post.Title)); err != nil {
				return err
			}
			if post.CreatedBy != nil {
				if err := p.notify(ctx, tx, *post.CreatedBy,
					lifecycle.FeedbackMessage(post.Title), &post.PostID); err != nil {
					return err
				}
			}
		}

		if err := p.audit(ctx, tx, &actorID, models.ActionPostEdit,
			fmt.Sprintf("Пост '%s' обновлен. Новый статус: %s", post.Title, lifecycle.StatusApproved)); err != nil {
			return err
		}

		if post.CreatedBy != nil {
			return p.notify(ctx, tx, *post.CreatedBy,
				lifecycle.ApprovedMessage(post.Title), &post.PostID)
		}
		return nil
	})
}

func (p *postService) RejectPost(ctx context.Context, actor policy.Actor, postID, comment string) error {
	post, err := p.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}

	if err := policy.CheckReviewPost(actor, post.AssignedClientID); err != nil {
		return err
	}

	if post.Status != lifecycle.StatusPending {
		return models.NewValidationError("отклонить можно только пост на согласовании")
	}

	// без комментария отклонение не принимается: ни статус, ни отзыв,
	// ни аудит не записываются
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return models.NewValidationError("при отклонении комментарий обязателен")
	}

	actorID := actor.UserID

	return p.db.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if err := p.postRepo.UpdateStatus(ctx, tx, postID, lifecycle.StatusPending, lifecycle.StatusRejected); err != nil {
			return err
		}

		feedback := &models.Feedback{
			PostID:  post.PostID,
			UserID:  actorID,
			Comment: comment,
		}
		if err := p.feedbackRepo.Create(ctx, tx, feedback); err != nil {
			return err
		}

		if err := p.audit(ctx, tx, &actorID, models.ActionPostFeedback,
			fmt.Sprintf("Клиент оставил отзыв на '%s'", post.Title)); err != nil {
			return err
		}

		if err := p.audit(ctx, tx, &actorID, models.ActionPostEdit,
			fmt.Sprintf("Пост '%s' обновлен. Новый статус: %s", post.Title, lifecycle.StatusRejected)); err != nil {
			return err
		}

		if post.CreatedBy != nil {
			return p.notify(ctx, tx, *post.CreatedBy,
				lifecycle.RejectedMessage(post.Title), &post.PostID)
		}
		return nil
	})
}

func (p *postService) DeletePost(ctx context.Context, actor policy.Actor, postID string) error {
	post, err := p.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}

	if err := p.checkManage(ctx, actor, post.AssignedClientID); err != nil {
		return err
	}

	actorID := actor.UserID

	return p.db.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if err := p.postRepo.Delete(ctx, tx, postID); err != nil {
			return err
		}

		return p.audit(ctx, tx, &actorID, models.ActionPostDelete,
			fmt.Sprintf("Пост '%s' удален", post.Title))
	})
}

func (p *postService) RatePost(ctx context.Context, actor policy.Actor, postID string, score int, comment string) (*models.Rating, error) {
	post, err := p.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	if err := policy.CheckReviewPost(actor, post.AssignedClientID); err != nil {
		return nil, err
	}

	if post.Status != lifecycle.StatusPublished {
		return nil, models.NewValidationError("оценить можно только опубликованный пост")
	}

	if _, err := p.ratingRepo.GetByPostAndUser(ctx, postID, actor.UserID); err == nil {
		return nil, models.NewValidationError("вы уже оценили этот пост")
	}

	actorID := actor.UserID
	rating := &models.Rating{
		PostID: post.PostID,
		UserID: actorID,
		Score:  score,
	}
	if trimmed := strings.TrimSpace(comment); trimmed != "" {
		rating.Comment = &trimmed
	}

	err = p.db.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if err := p.ratingRepo.Create(ctx, tx, rating); err != nil {
			return err
		}

		if err := p.audit(ctx, tx, &actorID, models.ActionPostRating,
			fmt.Sprintf("Клиент оценил '%s' на %d из 5", post.Title, score)); err != nil {
			return err
		}

		if post.CreatedBy != nil {
			return p.notify(ctx, tx, *post.CreatedBy,
				lifecycle.RatingMessage(post.Title, score), &post.PostID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return rating, nil
}

func (p *postService) AttachImage(ctx context.Context, actor policy.Actor, postID, fileName string, file io.Reader, size int64) (string, error) {
	post, err := p.postRepo.GetByID(ctx, postID)
	if err != nil {
		return "", err
	}

	if err := p.checkManage(ctx, actor, post.AssignedClientID); err != nil {
		return "", err
	}

	objectName, imageURL, err := p.storage.UploadImage(ctx, postID, fileName, file, size)
	if err != nil {
		return "", fmt.Errorf("ошибка загрузки изображения: %w", err)
	}

	post.ImageURL = imageURL

	err = p.db.WithinTx(ctx, func(tx *sqlx.Tx) error {
		return p.postRepo.UpdateContent(ctx, tx, post)
	})
	if err != nil {
		p.storage.DeleteImage(ctx, objectName)
		return "", fmt.Errorf("ошибка сохранения изображения: %w", err)
	}

	return imageURL, nil
}

// ListPosts - ролевой список постов. Перед чтением выполняется sweep:
// публикация по расписанию обнаруживается на ближайшем чтении, фонового
// таймера в системе нет.
func (p *postService) ListPosts(ctx context.Context, actor policy.Actor, status lifecycle.PostStatus) ([]models.Post, map[lifecycle.PostStatus]int, error) {
	sweepClient := ""
	if actor.IsClient() {
		sweepClient = actor.UserID
	}
	if err := p.PublishDue(ctx, sweepClient); err != nil {
		return nil, nil, err
	}

	clientIDs, err := scopeClientIDs(ctx, p.clientRepo, actor)
	if err != nil {
		return nil, nil, err
	}

	posts, err := p.postRepo.List(ctx, clientIDs, status)
	if err != nil {
		return nil, nil, err
	}

	counts, err := p.postRepo.StatusCounts(ctx, clientIDs)
	if err != nil {
		return nil, nil, err
	}

	return posts, counts, nil
}

// PublishDue переводит созревшие APPROVED посты в PUBLISHED и рассылает
// уведомления о публикации - ровно по одному на пост, потому что
// повторный прогон уже ничего не переводит.
func (p *postService) PublishDue(ctx context.Context, clientID string) error {
	return p.db.WithinTx(ctx, func(tx *sqlx.Tx) error {
		published, err := p.postRepo.PublishDue(ctx, tx, clientID, time.Now())
		if err != nil {
			return err
		}

		for i := range published {
			post := published[i]

			if err := p.audit(ctx, tx, post.CreatedBy, models.ActionPostEdit,
				fmt.Sprintf("Пост '%s' обновлен. Новый статус: %s", post.Title, lifecycle.StatusPublished)); err != nil {
				return err
			}

			if err := p.notify(ctx, tx, post.AssignedClientID,
				lifecycle.PublishedMessage(post.Title), &post.PostID); err != nil {
				return err
			}
		}

		return nil
	})
}
