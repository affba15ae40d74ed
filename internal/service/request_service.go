package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"approvalCPT/internal/database"
	"approvalCPT/internal/lifecycle"
	"approvalCPT/internal/models"
	"approvalCPT/internal/policy"
	"approvalCPT/internal/repository"
)

type CreateRequestRequest struct {
	RequestDetails string     `json:"requestDetails" validate:"required"`
	DesiredDate    *time.Time `json:"desiredDate"`
}

// RequestPrefill - данные для предзаполнения черновика из заявки.
type RequestPrefill struct {
	Request           *models.PostRequest `json:"request"`
	Title             string              `json:"title"`
	Caption           string              `json:"caption"`
	ScheduledDatetime *time.Time          `json:"scheduledDatetime"`
	AssignedClientID  string              `json:"assignedClientId"`
}

type RequestService interface {
	CreateRequest(ctx context.Context, actor policy.Actor, req CreateRequestRequest) (*models.PostRequest, error)
	ListRequests(ctx context.Context, actor policy.Actor, status lifecycle.RequestStatus) ([]models.PostRequest, map[lifecycle.RequestStatus]int, error)
	OpenRequest(ctx context.Context, actor policy.Actor, requestID string) (*RequestPrefill, error)
}

type requestService struct {
	db          *database.DB
	requestRepo repository.RequestRepository
	clientRepo  repository.ClientRepository
}

func NewRequestService(db *database.DB, requestRepo repository.RequestRepository, clientRepo repository.ClientRepository) RequestService {
	return &requestService{db: db, requestRepo: requestRepo, clientRepo: clientRepo}
}

func (s *requestService) CreateRequest(ctx context.Context, actor policy.Actor, req CreateRequestRequest) (*models.PostRequest, error) {
	if !actor.IsClient() {
		return nil, models.ErrUnauthorized
	}

	// у клиента должен быть профиль
	if _, err := s.clientRepo.GetProfile(ctx, actor.UserID); err != nil {
		return nil, err
	}

	request := &models.PostRequest{
		ClientUserID:   actor.UserID,
		RequestDetails: req.RequestDetails,
		DesiredDate:    req.DesiredDate,
	}

	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, err
	}

	return request, nil
}

func (s *requestService) ListRequests(ctx context.Context, actor policy.Actor, status lifecycle.RequestStatus) ([]models.PostRequest, map[lifecycle.RequestStatus]int, error) {
	clientIDs, err := scopeClientIDs(ctx, s.clientRepo, actor)
	if err != nil {
		return nil, nil, err
	}

	requests, err := s.requestRepo.List(ctx, clientIDs, status)
	if err != nil {
		return nil, nil, err
	}

	counts, err := s.requestRepo.StatusCounts(ctx, clientIDs)
	if err != nil {
		return nil, nil, err
	}

	return requests, counts, nil
}

// OpenRequest: админ открывает заявку для создания черновика. Заявка в
// статусе PENDING помечается VIEWED; возвращаются данные предзаполнения.
func (s *requestService) OpenRequest(ctx context.Context, actor policy.Actor, requestID string) (*RequestPrefill, error) {
	if !actor.IsAdminLike() {
		return nil, models.ErrUnauthorized
	}

	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if !actor.IsSuperAdmin() {
		profile, err := s.clientRepo.GetProfile(ctx, request.ClientUserID)
		if err != nil {
			return nil, err
		}
		if err := policy.CheckManagePost(actor, profile.AssignedAdminIDs); err != nil {
			return nil, err
		}
	}

	if lifecycle.CanAdvanceRequest(request.Status, lifecycle.RequestViewed) {
		err = s.db.WithinTx(ctx, func(tx *sqlx.Tx) error {
			return s.requestRepo.MarkViewed(ctx, tx, requestID)
		})
		if err != nil {
			return nil, err
		}
		request.Status = lifecycle.RequestViewed
	}

	title := lifecycle.TruncateTitle(request.RequestDetails)

	return &RequestPrefill{
		Request:           request,
		Title:             "Заявка: " + title,
		Caption:           request.RequestDetails,
		ScheduledDatetime: request.DesiredDate,
		AssignedClientID:  request.ClientUserID,
	}, nil
}
