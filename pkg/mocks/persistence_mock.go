package mocks

import (
	"context"

	"github.com/dukex/stepwise/pkg/models"
	"github.com/dukex/stepwise/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockPersistence is a mock implementation of persistence.Persistence. The
// repository accessors return the embedded repository mocks.
type MockPersistence struct {
	mock.Mock

	Steps    *MockStepRepository
	UseCases *MockUseCaseRepository
	Addons   *MockAddonRepository
}

// NewMockPersistence creates a persistence mock with fresh repository mocks.
func NewMockPersistence() *MockPersistence {
	return &MockPersistence{
		Steps:    &MockStepRepository{},
		UseCases: &MockUseCaseRepository{},
		Addons:   &MockAddonRepository{},
	}
}

func (m *MockPersistence) StepRepository() persistence.StepRepository {
	return m.Steps
}

func (m *MockPersistence) UseCaseRepository() persistence.UseCaseRepository {
	return m.UseCases
}

func (m *MockPersistence) AddonRepository() persistence.AddonRepository {
	return m.Addons
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

// AssertExpectations asserts the expectations of the persistence mock and every repository mock.
func (m *MockPersistence) AssertExpectations(t mock.TestingT) bool {
	return m.Mock.AssertExpectations(t) &&
		m.Steps.AssertExpectations(t) &&
		m.UseCases.AssertExpectations(t) &&
		m.Addons.AssertExpectations(t)
}

// MockStepRepository is a mock implementation of persistence.StepRepository interface.
type MockStepRepository struct {
	mock.Mock
}

func (m *MockStepRepository) Create(ctx context.Context, step *models.Step) error {
	args := m.Called(ctx, step)

	return args.Error(0)
}

func (m *MockStepRepository) GetByID(ctx context.Context, id string) (*models.Step, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Step), args.Error(1)
}

func (m *MockStepRepository) GetByAlternateKey(ctx context.Context, key string) (*models.Step, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Step), args.Error(1)
}

func (m *MockStepRepository) List(ctx context.Context, opts persistence.ListStepsOptions) ([]*models.Step, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Step), args.Error(1)
}

func (m *MockStepRepository) ResolveMany(ctx context.Context, identifiers []models.Identifier) (*models.Resolution, error) {
	args := m.Called(ctx, identifiers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Resolution), args.Error(1)
}

func (m *MockStepRepository) Update(ctx context.Context, id string, patch models.StepPatch, editor string) (*models.Step, error) {
	args := m.Called(ctx, id, patch, editor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Step), args.Error(1)
}

func (m *MockStepRepository) Approve(ctx context.Context, id, approver string, useCaseIDs []string) (*models.Step, error) {
	args := m.Called(ctx, id, approver, useCaseIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Step), args.Error(1)
}

func (m *MockStepRepository) Reject(ctx context.Context, id, rejector, reason string) (*models.Step, error) {
	args := m.Called(ctx, id, rejector, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Step), args.Error(1)
}

func (m *MockStepRepository) Delete(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)

	return args.Bool(0), args.Error(1)
}

func (m *MockStepRepository) AddComment(ctx context.Context, comment *models.StepComment) error {
	args := m.Called(ctx, comment)

	return args.Error(0)
}

func (m *MockStepRepository) Comments(ctx context.Context, stepID string) ([]*models.StepComment, error) {
	args := m.Called(ctx, stepID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.StepComment), args.Error(1)
}

func (m *MockStepRepository) History(ctx context.Context, stepID string) ([]*models.StepHistoryEntry, error) {
	args := m.Called(ctx, stepID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.StepHistoryEntry), args.Error(1)
}

func (m *MockStepRepository) Approvals(ctx context.Context, stepID string) ([]*models.StepApproval, error) {
	args := m.Called(ctx, stepID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.StepApproval), args.Error(1)
}

// MockUseCaseRepository is a mock implementation of persistence.UseCaseRepository interface.
type MockUseCaseRepository struct {
	mock.Mock
}

func (m *MockUseCaseRepository) Create(ctx context.Context, useCase *models.UseCase) error {
	args := m.Called(ctx, useCase)

	return args.Error(0)
}

func (m *MockUseCaseRepository) GetByID(ctx context.Context, id string) (*models.UseCase, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.UseCase), args.Error(1)
}

func (m *MockUseCaseRepository) List(ctx context.Context, opts persistence.ListUseCasesOptions) ([]*models.UseCase, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.UseCase), args.Error(1)
}

func (m *MockUseCaseRepository) Update(ctx context.Context, id string, patch models.UseCasePatch, editor string) (*models.UseCase, error) {
	args := m.Called(ctx, id, patch, editor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.UseCase), args.Error(1)
}

func (m *MockUseCaseRepository) Delete(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)

	return args.Bool(0), args.Error(1)
}

// MockAddonRepository is a mock implementation of persistence.AddonRepository interface.
type MockAddonRepository struct {
	mock.Mock
}

func (m *MockAddonRepository) Create(ctx context.Context, addon *models.Addon) (*models.Addon, error) {
	args := m.Called(ctx, addon)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Addon), args.Error(1)
}

func (m *MockAddonRepository) GetByID(ctx context.Context, id string) (*models.Addon, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Addon), args.Error(1)
}

func (m *MockAddonRepository) ListByBase(ctx context.Context, baseUseCaseID string) ([]*models.Addon, error) {
	args := m.Called(ctx, baseUseCaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Addon), args.Error(1)
}

func (m *MockAddonRepository) Update(ctx context.Context, id string, patch models.AddonPatch) (*models.Addon, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Addon), args.Error(1)
}

func (m *MockAddonRepository) Delete(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)

	return args.Bool(0), args.Error(1)
}

func (m *MockAddonRepository) AvailableTargets(ctx context.Context, baseUseCaseID string) ([]*models.UseCase, error) {
	args := m.Called(ctx, baseUseCaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.UseCase), args.Error(1)
}

var (
	_ persistence.Persistence       = (*MockPersistence)(nil)
	_ persistence.StepRepository    = (*MockStepRepository)(nil)
	_ persistence.UseCaseRepository = (*MockUseCaseRepository)(nil)
	_ persistence.AddonRepository   = (*MockAddonRepository)(nil)
)
