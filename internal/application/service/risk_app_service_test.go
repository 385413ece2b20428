package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/praxisgrc/praxis/internal/application/dto"
	"github.com/praxisgrc/praxis/internal/domain/models"
	domainsvc "github.com/praxisgrc/praxis/internal/domain/service"
	"github.com/praxisgrc/praxis/pkg/constants"
	"github.com/praxisgrc/praxis/pkg/errors"
	"github.com/praxisgrc/praxis/pkg/logger"
)

type mockRiskRepository struct {
	mock.Mock
}

func (m *mockRiskRepository) Create(ctx context.Context, risk *models.Risk) error {
	return m.Called(ctx, risk).Error(0)
}

func (m *mockRiskRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Risk, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Risk), args.Error(1)
}

func (m *mockRiskRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*models.Risk, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Risk), args.Error(1)
}

func (m *mockRiskRepository) UpdateInherent(ctx context.Context, risk *models.Risk) error {
	return m.Called(ctx, risk).Error(0)
}

func (m *mockRiskRepository) UpdateResidual(ctx context.Context, tenantID, id uuid.UUID, snapshot models.ResidualSnapshot) error {
	return m.Called(ctx, tenantID, id, snapshot).Error(0)
}

func (m *mockRiskRepository) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status models.RiskStatus) error {
	return m.Called(ctx, tenantID, id, status).Error(0)
}

func (m *mockRiskRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Risk, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Risk), args.Error(1)
}

type mockSequenceRepository struct {
	mock.Mock
}

func (m *mockSequenceRepository) MaxNumber(ctx context.Context, tenantID uuid.UUID, class constants.EntityClass) (int64, error) {
	args := m.Called(ctx, tenantID, class)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSequenceRepository) Reserve(ctx context.Context, reservation *models.SequenceReservation) error {
	return m.Called(ctx, reservation).Error(0)
}

type mockControlRepository struct {
	mock.Mock
}

func (m *mockControlRepository) Create(ctx context.Context, control *models.Control) error {
	return m.Called(ctx, control).Error(0)
}

func (m *mockControlRepository) Update(ctx context.Context, control *models.Control) error {
	return m.Called(ctx, control).Error(0)
}

func (m *mockControlRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Control, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Control), args.Error(1)
}

func (m *mockControlRepository) SoftDelete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *mockControlRepository) Link(ctx context.Context, tenantID, controlID, riskID uuid.UUID) error {
	return m.Called(ctx, tenantID, controlID, riskID).Error(0)
}

func (m *mockControlRepository) Unlink(ctx context.Context, tenantID, controlID, riskID uuid.UUID) error {
	return m.Called(ctx, tenantID, controlID, riskID).Error(0)
}

func (m *mockControlRepository) ListByRisk(ctx context.Context, tenantID, riskID uuid.UUID) ([]*models.Control, error) {
	args := m.Called(ctx, tenantID, riskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Control), args.Error(1)
}

func (m *mockControlRepository) ListRiskIDs(ctx context.Context, tenantID, controlID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, tenantID, controlID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type recordingCache struct {
	invalidated []uuid.UUID
}

func (c *recordingCache) Get(ctx context.Context, tenantID, riskID uuid.UUID) (*models.ResidualSnapshot, error) {
	return nil, nil
}

func (c *recordingCache) Set(ctx context.Context, tenantID, riskID uuid.UUID, snapshot models.ResidualSnapshot) error {
	return nil
}

func (c *recordingCache) Invalidate(ctx context.Context, tenantID, riskID uuid.UUID) {
	c.invalidated = append(c.invalidated, riskID)
}

func maxPolicy() domainsvc.PolicyProvider {
	return staticPolicy(constants.CombinationPolicyMax)
}

type staticPolicy constants.CombinationPolicy

func (p staticPolicy) PolicyFor(ctx context.Context, tenantID uuid.UUID) constants.CombinationPolicy {
	return constants.CombinationPolicy(p)
}

type riskFixture struct {
	risks     *mockRiskRepository
	sequences *mockSequenceRepository
	controls  *mockControlRepository
	cache     *recordingCache
	svc       RiskAppService
	tenantID  uuid.UUID
	actor     models.Actor
}

func newRiskFixture(t *testing.T, role constants.Role) *riskFixture {
	t.Helper()
	f := &riskFixture{
		risks:     new(mockRiskRepository),
		sequences: new(mockSequenceRepository),
		controls:  new(mockControlRepository),
		cache:     &recordingCache{},
		tenantID:  uuid.New(),
	}
	f.actor = models.Actor{ID: uuid.New(), TenantID: f.tenantID, Role: role}

	log := logger.NewNoopLogger()
	allocator := domainsvc.NewSequenceAllocator(f.sequences, func() domainsvc.AllocatorOptions {
		return domainsvc.AllocatorOptions{MaxAttempts: 3, CodePadding: 3}
	}, log, domainsvc.NoopMetrics{})
	recompute := domainsvc.NewRecomputeService(f.risks, f.controls, maxPolicy(), log, domainsvc.NoopMetrics{})
	f.svc = NewRiskAppService(passthroughTx{}, f.risks, allocator, recompute, f.cache, log)
	return f
}

func TestRiskCreate_AllocatesSequentialCode(t *testing.T) {
	f := newRiskFixture(t, constants.RoleContributor)
	f.sequences.On("MaxNumber", mock.Anything, f.tenantID, constants.EntityClassRisk).Return(int64(41), nil)
	f.sequences.On("Reserve", mock.Anything, mock.MatchedBy(func(r *models.SequenceReservation) bool {
		return r.TenantID == f.tenantID && r.Class == constants.EntityClassRisk && r.Number == 42
	})).Return(nil)
	f.risks.On("Create", mock.Anything, mock.MatchedBy(func(r *models.Risk) bool {
		return r.Code == "RISK-042" && r.ResidualScore == r.InherentLikelihood*r.InherentImpact
	})).Return(nil)

	resp, err := f.svc.Create(context.Background(), f.actor, &dto.CreateRiskRequest{
		Title:              "Unpatched edge servers",
		OwnerID:            uuid.NewString(),
		InherentLikelihood: 4,
		InherentImpact:     5,
	})
	require.NoError(t, err)
	assert.Equal(t, "RISK-042", resp.Code)
	assert.Equal(t, 20, resp.ResidualScore)
	f.sequences.AssertExpectations(t)
	f.risks.AssertExpectations(t)
}

func TestRiskCreate_RetriesLostReservationRace(t *testing.T) {
	f := newRiskFixture(t, constants.RoleContributor)
	f.sequences.On("MaxNumber", mock.Anything, f.tenantID, constants.EntityClassRisk).Return(int64(7), nil).Once()
	f.sequences.On("Reserve", mock.Anything, mock.Anything).Return(errors.ErrConflict("sequence number already reserved")).Once()
	f.sequences.On("MaxNumber", mock.Anything, f.tenantID, constants.EntityClassRisk).Return(int64(8), nil).Once()
	f.sequences.On("Reserve", mock.Anything, mock.Anything).Return(nil).Once()
	f.risks.On("Create", mock.Anything, mock.Anything).Return(nil)

	resp, err := f.svc.Create(context.Background(), f.actor, &dto.CreateRiskRequest{
		Title:              "Vendor concentration",
		OwnerID:            uuid.NewString(),
		InherentLikelihood: 2,
		InherentImpact:     3,
	})
	require.NoError(t, err)
	assert.Equal(t, "RISK-009", resp.Code)
	f.sequences.AssertExpectations(t)
}

func TestRiskCreate_ViewerDenied(t *testing.T) {
	f := newRiskFixture(t, constants.RoleViewer)
	_, err := f.svc.Create(context.Background(), f.actor, &dto.CreateRiskRequest{
		Title:              "x",
		OwnerID:            uuid.NewString(),
		InherentLikelihood: 1,
		InherentImpact:     1,
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, constants.ErrCodeUnauthorized))
	f.risks.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRiskUpdateInherent_RecomputesInSameFlow(t *testing.T) {
	f := newRiskFixture(t, constants.RoleContributor)
	riskID := uuid.New()
	assessed := time.Now().UTC()
	risk := &models.Risk{
		ID:                 riskID,
		TenantID:           f.tenantID,
		Code:               "RISK-001",
		Title:              "Data exfiltration",
		OwnerID:            uuid.New(),
		Status:             models.RiskStatusOpen,
		InherentLikelihood: 2,
		InherentImpact:     2,
		ResidualLikelihood: 2,
		ResidualImpact:     2,
		ResidualScore:      4,
	}
	control := &models.Control{
		ID:                  uuid.New(),
		TenantID:            f.tenantID,
		TargetDimension:     constants.DimensionLikelihood,
		DesignScore:         3,
		ImplementationScore: 3,
		MonitoringScore:     2,
		EvaluationScore:     2,
		AssessedAt:          &assessed,
	}

	f.risks.On("FindByIDForUpdate", mock.Anything, f.tenantID, riskID).Return(risk, nil)
	f.risks.On("UpdateInherent", mock.Anything, risk).Return(nil)
	f.controls.On("ListByRisk", mock.Anything, f.tenantID, riskID).Return([]*models.Control{control}, nil)
	f.risks.On("UpdateResidual", mock.Anything, f.tenantID, riskID, mock.MatchedBy(func(s models.ResidualSnapshot) bool {
		// Inherent (4, 5) with one fully scored likelihood control at 10/12
		// effectiveness lands on residual (1, 5).
		return s.Likelihood == 1 && s.Impact == 5 && s.Score == 5
	})).Return(nil)

	resp, err := f.svc.UpdateInherent(context.Background(), f.actor, riskID.String(), &dto.UpdateInherentRequest{
		Title:              "Data exfiltration",
		OwnerID:            risk.OwnerID.String(),
		InherentLikelihood: 4,
		InherentImpact:     5,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.ResidualLikelihood)
	assert.Equal(t, 5, resp.ResidualImpact)
	assert.Equal(t, 5, resp.ResidualScore)
	assert.Equal(t, []uuid.UUID{riskID}, f.cache.invalidated)
	f.risks.AssertExpectations(t)
}

func TestRiskUpdateInherent_OutOfBandsRejected(t *testing.T) {
	f := newRiskFixture(t, constants.RoleContributor)
	_, err := f.svc.UpdateInherent(context.Background(), f.actor, uuid.NewString(), &dto.UpdateInherentRequest{
		Title:              "bad",
		OwnerID:            uuid.NewString(),
		InherentLikelihood: 7,
		InherentImpact:     1,
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, constants.ErrCodeInvalidArgument))
	assert.Empty(t, f.cache.invalidated)
}

func TestRiskGetResidual_CacheMissFallsThroughToStore(t *testing.T) {
	f := newRiskFixture(t, constants.RoleViewer)
	riskID := uuid.New()
	recomputed := time.Now().UTC()
	f.risks.On("FindByID", mock.Anything, f.tenantID, riskID).Return(&models.Risk{
		ID:                 riskID,
		TenantID:           f.tenantID,
		ResidualLikelihood: 2,
		ResidualImpact:     3,
		ResidualScore:      6,
		LastRecomputedAt:   &recomputed,
	}, nil)

	resp, err := f.svc.GetResidual(context.Background(), f.actor, riskID.String())
	require.NoError(t, err)
	assert.Equal(t, 6, resp.Score)
	f.risks.AssertExpectations(t)
}

func TestRiskGetResidual_MalformedIDRejected(t *testing.T) {
	f := newRiskFixture(t, constants.RoleViewer)
	_, err := f.svc.GetResidual(context.Background(), f.actor, "not-a-uuid")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, constants.ErrCodeInvalidArgument))
}

func TestRiskUpdateStatus_ContributorDenied(t *testing.T) {
	f := newRiskFixture(t, constants.RoleContributor)
	err := f.svc.UpdateStatus(context.Background(), f.actor, uuid.NewString(), &dto.UpdateRiskStatusRequest{Status: "mitigated"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, constants.ErrCodeUnauthorized))
}
