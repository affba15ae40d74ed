package test

import (
	"context"
	"io"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"

	"approvalCPT/internal/lifecycle"
	"approvalCPT/internal/models"
	"approvalCPT/internal/policy"
	"approvalCPT/internal/service"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) RegisterClient(ctx context.Context, req service.RegisterClientRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, username, password string) (*models.User, string, string, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, "", "", args.Error(3)
	}
	return args.Get(0).(*models.User), args.String(1), args.String(2), args.Error(3)
}

func (m *MockAuthService) RefreshTokens(ctx context.Context, refreshToken string) (*models.User, string, string, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, "", "", args.Error(3)
	}
	return args.Get(0).(*models.User), args.String(1), args.String(2), args.Error(3)
}

func (m *MockAuthService) ValidateToken(tokenString string) (*jwt.Token, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jwt.Token), args.Error(1)
}

type MockPostService struct {
	mock.Mock
}

func (m *MockPostService) CreatePost(ctx context.Context, actor policy.Actor, req service.CreatePostRequest) (*models.Post, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostService) GetPost(ctx context.Context, actor policy.Actor, postID string) (*service.PostDetail, error) {
	args := m.Called(ctx, actor, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PostDetail), args.Error(1)
}

func (m *MockPostService) UpdatePost(ctx context.Context, actor policy.Actor, postID string, req service.UpdatePostRequest) (*models.Post, error) {
	args := m.Called(ctx, actor, postID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostService) MarkPending(ctx context.Context, actor policy.Actor, postID string) error {
	args := m.Called(ctx, actor, postID)
	return args.Error(0)
}

func (m *MockPostService) ApprovePost(ctx context.Context, actor policy.Actor, postID, comment string) error {
	args := m.Called(ctx, actor, postID, comment)
	return args.Error(0)
}

func (m *MockPostService) RejectPost(ctx context.Context, actor policy.Actor, postID, comment string) error {
	args := m.Called(ctx, actor, postID, comment)
	return args.Error(0)
}

func (m *MockPostService) DeletePost(ctx context.Context, actor policy.Actor, postID string) error {
	args := m.Called(ctx, actor, postID)
	return args.Error(0)
}

func (m *MockPostService) RatePost(ctx context.Context, actor policy.Actor, postID string, score int, comment string) (*models.Rating, error) {
	args := m.Called(ctx, actor, postID, score, comment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Rating), args.Error(1)
}

func (m *MockPostService) AttachImage(ctx context.Context, actor policy.Actor, postID, fileName string, file io.Reader, size int64) (string, error) {
	args := m.Called(ctx, actor, postID, fileName, file, size)
	return args.String(0), args.Error(1)
}

func (m *MockPostService) ListPosts(ctx context.Context, actor policy.Actor, status lifecycle.PostStatus) ([]models.Post, map[lifecycle.PostStatus]int, error) {
	args := m.Called(ctx, actor, status)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]models.Post), args.Get(1).(map[lifecycle.PostStatus]int), args.Error(2)
}

func (m *MockPostService) PublishDue(ctx context.Context, clientID string) error {
	args := m.Called(ctx, clientID)
	return args.Error(0)
}

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) ListUnread(ctx context.Context, actor policy.Actor) (*service.UnreadNotifications, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UnreadNotifications), args.Error(1)
}

func (m *MockNotificationService) MarkRead(ctx context.Context, actor policy.Actor, notificationID string) (*models.Notification, error) {
	args := m.Called(ctx, actor, notificationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Notification), args.Error(1)
}
