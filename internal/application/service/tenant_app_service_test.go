package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/praxisgrc/praxis/internal/domain/models"
	"github.com/praxisgrc/praxis/pkg/constants"
	"github.com/praxisgrc/praxis/pkg/errors"
	"github.com/praxisgrc/praxis/pkg/logger"
)

type mockTenantRepo struct {
	mock.Mock
}

func (m *mockTenantRepo) Save(ctx context.Context, tenant *models.Tenant) error {
	return m.Called(ctx, tenant).Error(0)
}

func (m *mockTenantRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *mockTenantRepo) FindAll(ctx context.Context, limit, offset int) ([]*models.Tenant, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Tenant), args.Error(1)
}

func (m *mockTenantRepo) Update(ctx context.Context, tenant *models.Tenant) error {
	return m.Called(ctx, tenant).Error(0)
}

type recordingInvalidator struct {
	invalidated []uuid.UUID
}

func (r *recordingInvalidator) Invalidate(tenantID uuid.UUID) {
	r.invalidated = append(r.invalidated, tenantID)
}

func operatorActor() models.Actor {
	return models.Actor{ID: uuid.New(), TenantID: uuid.Nil, Role: constants.RoleOperator}
}

func TestTenantCreate_OperatorOnly(t *testing.T) {
	repo := new(mockTenantRepo)
	svc := NewTenantAppService(repo, &recordingInvalidator{}, logger.NewNoopLogger())

	admin := models.Actor{ID: uuid.New(), TenantID: uuid.New(), Role: constants.RoleAdmin}
	_, err := svc.Create(context.Background(), admin, "Acme")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, constants.ErrCodeUnauthorized))

	repo.On("Save", mock.Anything, mock.MatchedBy(func(tn *models.Tenant) bool {
		return tn.Name == "Acme"
	})).Return(nil)
	tenant, err := svc.Create(context.Background(), operatorActor(), "Acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme", tenant.Name)
	repo.AssertExpectations(t)
}

func TestTenantCreate_EmptyNameRejected(t *testing.T) {
	svc := NewTenantAppService(new(mockTenantRepo), &recordingInvalidator{}, logger.NewNoopLogger())
	_, err := svc.Create(context.Background(), operatorActor(), "")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, constants.ErrCodeInvalidArgument))
}

func TestSetCombinationPolicy_UpdatesAndInvalidates(t *testing.T) {
	repo := new(mockTenantRepo)
	invalidator := &recordingInvalidator{}
	svc := NewTenantAppService(repo, invalidator, logger.NewNoopLogger())
	tenantID := uuid.New()

	repo.On("FindByID", mock.Anything, tenantID).Return(&models.Tenant{ID: tenantID, Name: "Acme"}, nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(tn *models.Tenant) bool {
		return tn.CombinationPolicy == constants.CombinationPolicyDiminishing
	})).Return(nil)

	err := svc.SetCombinationPolicy(context.Background(), operatorActor(), tenantID.String(), "diminishing")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{tenantID}, invalidator.invalidated)
	repo.AssertExpectations(t)
}

func TestSetCombinationPolicy_UnknownPolicyRejected(t *testing.T) {
	repo := new(mockTenantRepo)
	svc := NewTenantAppService(repo, &recordingInvalidator{}, logger.NewNoopLogger())

	err := svc.SetCombinationPolicy(context.Background(), operatorActor(), uuid.NewString(), "average")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, constants.ErrCodeInvalidArgument))
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestSetCombinationPolicy_EmptyClearsOverride(t *testing.T) {
	repo := new(mockTenantRepo)
	invalidator := &recordingInvalidator{}
	svc := NewTenantAppService(repo, invalidator, logger.NewNoopLogger())
	tenantID := uuid.New()

	repo.On("FindByID", mock.Anything, tenantID).Return(&models.Tenant{
		ID:                tenantID,
		Name:              "Acme",
		CombinationPolicy: constants.CombinationPolicyMax,
	}, nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(tn *models.Tenant) bool {
		return tn.CombinationPolicy == ""
	})).Return(nil)

	err := svc.SetCombinationPolicy(context.Background(), operatorActor(), tenantID.String(), "")
	require.NoError(t, err)
	assert.Len(t, invalidator.invalidated, 1)
}
