package service

import (
	"context"
	"time"

	"fieldops/sales-crm/internal/domain"
	"fieldops/sales-crm/internal/repository"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type mockFeedbackRepo struct {
	mock.Mock
}

func (m *mockFeedbackRepo) Create(ctx context.Context, fb *domain.Feedback) (primitive.ObjectID, error) {
	args := m.Called(ctx, fb)
	return args.Get(0).(primitive.ObjectID), args.Error(1)
}

func (m *mockFeedbackRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Feedback, error) {
	args := m.Called(ctx, id)
	if fb, ok := args.Get(0).(*domain.Feedback); ok {
		return fb, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockFeedbackRepo) List(ctx context.Context, page repository.Page) ([]domain.Feedback, int64, error) {
	args := m.Called(ctx, page)
	var items []domain.Feedback
	if v, ok := args.Get(0).([]domain.Feedback); ok {
		items = v
	}
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *mockFeedbackRepo) GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.Feedback, error) {
	args := m.Called(ctx, clientID)
	var items []domain.Feedback
	if v, ok := args.Get(0).([]domain.Feedback); ok {
		items = v
	}
	return items, args.Error(1)
}

func (m *mockFeedbackRepo) Update(ctx context.Context, fb *domain.Feedback) error {
	return m.Called(ctx, fb).Error(0)
}

func (m *mockFeedbackRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	return m.Called(ctx, id).Error(0)
}

type mockClientRepo struct {
	mock.Mock
}

func (m *mockClientRepo) Create(ctx context.Context, c *domain.Client) (primitive.ObjectID, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(primitive.ObjectID), args.Error(1)
}

func (m *mockClientRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Client, error) {
	args := m.Called(ctx, id)
	if c, ok := args.Get(0).(*domain.Client); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockClientRepo) List(ctx context.Context, page repository.Page) ([]domain.Client, int64, error) {
	args := m.Called(ctx, page)
	var items []domain.Client
	if v, ok := args.Get(0).([]domain.Client); ok {
		items = v
	}
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *mockClientRepo) GetBySalesmanID(ctx context.Context, salesmanID primitive.ObjectID) ([]domain.Client, error) {
	args := m.Called(ctx, salesmanID)
	var items []domain.Client
	if v, ok := args.Get(0).([]domain.Client); ok {
		items = v
	}
	return items, args.Error(1)
}

func (m *mockClientRepo) Update(ctx context.Context, c *domain.Client) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockClientRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	return m.Called(ctx, id).Error(0)
}

type mockFileStorage struct {
	mock.Mock
}

func (m *mockFileStorage) GeneratePresignedUploadURL(ctx context.Context, objectKey, contentType string, expires time.Duration) (string, error) {
	args := m.Called(ctx, objectKey, contentType, expires)
	return args.String(0), args.Error(1)
}

func (m *mockFileStorage) GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error) {
	args := m.Called(ctx, objectKey, expires)
	return args.String(0), args.Error(1)
}

func (m *mockFileStorage) DeleteObject(ctx context.Context, objectKey string) error {
	return m.Called(ctx, objectKey).Error(0)
}
