package app

import (
	"context"
	"time"

	"redevdash/domain/pipeline"
	"redevdash/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock implementations for testing
type MockProjectRepository struct {
	mock.Mock
}

func (m *MockProjectRepository) project(args mock.Arguments) (*models.Project, error) {
	if p, ok := args.Get(0).(*models.Project); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProjectRepository) List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.Project), args.Error(1)
}

func (m *MockProjectRepository) Count(ctx context.Context, filter models.ProjectFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *MockProjectRepository) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	return m.project(m.Called(ctx, id))
}

func (m *MockProjectRepository) GetByName(ctx context.Context, name string) (*models.Project, error) {
	return m.project(m.Called(ctx, name))
}

func (m *MockProjectRepository) GetByExcelRowID(ctx context.Context, rowID string) (*models.Project, error) {
	return m.project(m.Called(ctx, rowID))
}

func (m *MockProjectRepository) Create(ctx context.Context, values models.ProjectValues, meta models.RequestMeta) (*models.Project, error) {
	return m.project(m.Called(ctx, values, meta))
}

func (m *MockProjectRepository) Update(ctx context.Context, id int64, values models.ProjectValues, meta models.RequestMeta) (*models.Project, error) {
	return m.project(m.Called(ctx, id, values, meta))
}

func (m *MockProjectRepository) SoftDelete(ctx context.Context, id int64, meta models.RequestMeta) (*models.Project, error) {
	return m.project(m.Called(ctx, id, meta))
}

func (m *MockProjectRepository) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	args := m.Called(ctx)
	stats, _ := args.Get(0).(*models.DashboardStats)
	return stats, args.Error(1)
}

func (m *MockProjectRepository) FilterOptions(ctx context.Context) (*models.FilterOptions, error) {
	args := m.Called(ctx)
	opts, _ := args.Get(0).(*models.FilterOptions)
	return opts, args.Error(1)
}

func (m *MockProjectRepository) Ping(ctx context.Context) models.ConnectionStatus {
	return m.Called(ctx).Get(0).(models.ConnectionStatus)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) user(args mock.Arguments) (*models.User, error) {
	if u, ok := args.Get(0).(*models.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) CreatePending(ctx context.Context, user *models.User, meta models.RequestMeta) error {
	return m.Called(ctx, user, meta).Error(0)
}

func (m *MockUserRepository) Exists(ctx context.Context, username, email string) (bool, error) {
	args := m.Called(ctx, username, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return m.user(m.Called(ctx, id))
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.user(m.Called(ctx, username))
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.user(m.Called(ctx, email))
}

func (m *MockUserRepository) GetByApprovalToken(ctx context.Context, token string) (*models.User, error) {
	return m.user(m.Called(ctx, token))
}

func (m *MockUserRepository) GetByResetToken(ctx context.Context, token string, now time.Time) (*models.User, error) {
	return m.user(m.Called(ctx, token, now))
}

func (m *MockUserRepository) Activate(ctx context.Context, id uuid.UUID, approvedBy string, meta models.RequestMeta) error {
	return m.Called(ctx, id, approvedBy, meta).Error(0)
}

func (m *MockUserRepository) SetResetToken(ctx context.Context, id uuid.UUID, token string, expiry time.Time) error {
	return m.Called(ctx, id, token, expiry).Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return m.Called(ctx, id, hash).Error(0)
}

func (m *MockUserRepository) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *MockUserRepository) ListPending(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]models.User)
	return users, args.Error(1)
}

func (m *MockUserRepository) Audit(ctx context.Context, userID *uuid.UUID, action string, details models.JSONBMap, meta models.RequestMeta) error {
	return m.Called(ctx, userID, action, details, meta).Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) RegistrationReceived(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockNotifier) ApprovalRequested(ctx context.Context, user *models.User, link string) error {
	return m.Called(ctx, user, link).Error(0)
}

func (m *MockNotifier) AccountApproved(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockNotifier) PasswordResetRequested(ctx context.Context, user *models.User, link string) error {
	return m.Called(ctx, user, link).Error(0)
}

// staticSource serves a fixed batch
type staticSource struct {
	batch pipeline.Batch
	err   error
	loads int
}

func (s *staticSource) Load(ctx context.Context) (pipeline.Batch, error) {
	s.loads++
	return s.batch, s.err
}

func (s *staticSource) Name() string { return "static" }

func strPtr(s string) *string { return &s }
