package testutil

import (
	"context"
	"time"

	"storefront/client/internal/domain"
	"storefront/client/internal/domain/task"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
)

// MockStorefront mocks the storefront REST client
type MockStorefront struct {
	mock.Mock
}

func (m *MockStorefront) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	args := m.Called(ctx, productID)
	if p, ok := args.Get(0).(*domain.Product); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStorefront) GetFrequentlyBought(ctx context.Context, productID string) ([]domain.BundleCandidate, error) {
	args := m.Called(ctx, productID)
	if c, ok := args.Get(0).([]domain.BundleCandidate); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStorefront) ValidatePromoCode(ctx context.Context, req domain.PromoValidationRequest) (*domain.PromoValidation, error) {
	args := m.Called(ctx, req)
	if v, ok := args.Get(0).(*domain.PromoValidation); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStorefront) AddToCart(ctx context.Context, productID string, quantity int) error {
	args := m.Called(ctx, productID, quantity)
	return args.Error(0)
}

func (m *MockStorefront) GetCart(ctx context.Context) (*domain.Cart, error) {
	args := m.Called(ctx)
	if c, ok := args.Get(0).(*domain.Cart); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockCandidateCache mocks the bundle candidate cache
type MockCandidateCache struct {
	mock.Mock
}

func (m *MockCandidateCache) Get(ctx context.Context, productID string) ([]domain.BundleCandidate, bool, error) {
	args := m.Called(ctx, productID)
	c, _ := args.Get(0).([]domain.BundleCandidate)
	return c, args.Bool(1), args.Error(2)
}

func (m *MockCandidateCache) Set(ctx context.Context, productID string, candidates []domain.BundleCandidate) error {
	args := m.Called(ctx, productID, candidates)
	return args.Error(0)
}

func (m *MockCandidateCache) Invalidate(ctx context.Context, productID string) error {
	args := m.Called(ctx, productID)
	return args.Error(0)
}

// MockQueue mocks the redis stream queue
type MockQueue struct {
	mock.Mock
}

func (m *MockQueue) AddTask(ctx context.Context, t task.Task) (string, error) {
	args := m.Called(ctx, t)
	return args.String(0), args.Error(1)
}

func (m *MockQueue) GetTask(ctx context.Context, group, consumer, stream string) (*redis.XMessage, error) {
	args := m.Called(ctx, group, consumer, stream)
	if msg, ok := args.Get(0).(*redis.XMessage); ok {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockQueue) AckTask(ctx context.Context, stream, group, msgID string) error {
	args := m.Called(ctx, stream, group, msgID)
	return args.Error(0)
}

func (m *MockQueue) CreateGroup(ctx context.Context, stream, group string) error {
	args := m.Called(ctx, stream, group)
	return args.Error(0)
}

func (m *MockQueue) AutoClaim(ctx context.Context, group, consumer, stream string, minIdleTime time.Duration) ([]redis.XMessage, error) {
	args := m.Called(ctx, group, consumer, stream, minIdleTime)
	msgs, _ := args.Get(0).([]redis.XMessage)
	return msgs, args.Error(1)
}

func (m *MockQueue) EnsureStreamsExist(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockQueue) StreamName(taskType string) string {
	args := m.Called(taskType)
	return args.String(0)
}

// MockCommitRepository mocks the commit audit log
type MockCommitRepository struct {
	mock.Mock
}

func (m *MockCommitRepository) SaveCommit(ctx context.Context, commit *domain.Commit) error {
	args := m.Called(ctx, commit)
	return args.Error(0)
}

func (m *MockCommitRepository) GetCommit(ctx context.Context, commitID string) (*domain.Commit, error) {
	args := m.Called(ctx, commitID)
	if c, ok := args.Get(0).(*domain.Commit); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

// Price returns a pointer to v, for optional original prices in fixtures.
func Price(v int64) *int64 {
	return &v
}
