package service_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/praxisgrc/praxis/internal/domain/models"
	"github.com/praxisgrc/praxis/internal/domain/service"
	"github.com/praxisgrc/praxis/pkg/constants"
	"github.com/praxisgrc/praxis/pkg/errors"
)

func testSubject(status constants.UserStatus, role constants.Role) *models.User {
	return &models.User{
		ID:       uuid.New(),
		TenantID: uuid.New(),
		Status:   status,
		Role:     role,
	}
}

func actorFor(subject *models.User, role constants.Role) models.Actor {
	return models.Actor{ID: uuid.New(), TenantID: subject.TenantID, Role: role}
}

func TestCheckStatus_PendingToApproved(t *testing.T) {
	guard := service.NewTransitionGuard()
	subject := testSubject(constants.UserStatusPending, constants.RoleViewer)

	err := guard.CheckStatus(actorFor(subject, constants.RoleManager), subject, constants.UserStatusApproved, "")
	assert.NoError(t, err)
}

func TestCheckStatus_RejectedIsTerminal(t *testing.T) {
	guard := service.NewTransitionGuard()
	subject := testSubject(constants.UserStatusRejected, constants.RoleViewer)

	for _, to := range []constants.UserStatus{
		constants.UserStatusPending,
		constants.UserStatusApproved,
		constants.UserStatusSuspended,
	} {
		err := guard.CheckStatus(actorFor(subject, constants.RoleAdmin), subject, to, "cleanup")
		assert.True(t, errors.IsCode(err, constants.ErrCodeInvalidTransition), "edge rejected -> %s must be illegal", to)
	}
}

func TestCheckStatus_SuspendRequiresReason(t *testing.T) {
	guard := service.NewTransitionGuard()
	subject := testSubject(constants.UserStatusApproved, constants.RoleContributor)

	err := guard.CheckStatus(actorFor(subject, constants.RoleAdmin), subject, constants.UserStatusSuspended, "")
	assert.True(t, errors.IsCode(err, constants.ErrCodeMissingReason))

	err = guard.CheckStatus(actorFor(subject, constants.RoleAdmin), subject, constants.UserStatusSuspended, "policy breach")
	assert.NoError(t, err)
}

func TestCheckStatus_RejectRequiresReason(t *testing.T) {
	guard := service.NewTransitionGuard()
	subject := testSubject(constants.UserStatusPending, constants.RoleViewer)

	err := guard.CheckStatus(actorFor(subject, constants.RoleManager), subject, constants.UserStatusRejected, "")
	assert.True(t, errors.IsCode(err, constants.ErrCodeMissingReason))
}

func TestCheckStatus_ApprovalNeedsManager(t *testing.T) {
	guard := service.NewTransitionGuard()
	subject := testSubject(constants.UserStatusPending, constants.RoleViewer)

	err := guard.CheckStatus(actorFor(subject, constants.RoleContributor), subject, constants.UserStatusApproved, "")
	assert.True(t, errors.IsCode(err, constants.ErrCodeUnauthorized))
}

func TestCheckStatus_SuspendNeedsAdmin(t *testing.T) {
	guard := service.NewTransitionGuard()
	subject := testSubject(constants.UserStatusApproved, constants.RoleContributor)

	err := guard.CheckStatus(actorFor(subject, constants.RoleManager), subject, constants.UserStatusSuspended, "abuse")
	assert.True(t, errors.IsCode(err, constants.ErrCodeUnauthorized))
}

func TestCheckStatus_ReinstateNeedsAdmin(t *testing.T) {
	guard := service.NewTransitionGuard()
	subject := testSubject(constants.UserStatusSuspended, constants.RoleContributor)

	err := guard.CheckStatus(actorFor(subject, constants.RoleManager), subject, constants.UserStatusApproved, "")
	assert.True(t, errors.IsCode(err, constants.ErrCodeUnauthorized))

	err = guard.CheckStatus(actorFor(subject, constants.RoleAdmin), subject, constants.UserStatusApproved, "")
	assert.NoError(t, err)
}

func TestCheckStatus_CrossTenantDenied(t *testing.T) {
	guard := service.NewTransitionGuard()
	subject := testSubject(constants.UserStatusPending, constants.RoleViewer)
	outsider := models.Actor{ID: uuid.New(), TenantID: uuid.New(), Role: constants.RoleAdmin}

	err := guard.CheckStatus(outsider, subject, constants.UserStatusApproved, "")
	assert.True(t, errors.IsCode(err, constants.ErrCodeUnauthorized))
}

func TestCheckStatus_OperatorActsOnPlatformEntities(t *testing.T) {
	guard := service.NewTransitionGuard()
	subject := testSubject(constants.UserStatusPending, constants.RoleViewer)
	subject.PlatformLevel = true
	operator := models.Actor{ID: uuid.New(), TenantID: uuid.New(), Role: constants.RoleOperator}

	err := guard.CheckStatus(operator, subject, constants.UserStatusApproved, "")
	assert.NoError(t, err)
}

func TestCheckStatus_SelfTransitionDenied(t *testing.T) {
	guard := service.NewTransitionGuard()
	subject := testSubject(constants.UserStatusPending, constants.RoleAdmin)
	self := models.Actor{ID: subject.ID, TenantID: subject.TenantID, Role: constants.RoleAdmin}

	err := guard.CheckStatus(self, subject, constants.UserStatusApproved, "")
	assert.True(t, errors.IsCode(err, constants.ErrCodeUnauthorized))
}

func TestCheckRole_StrictDominanceRequired(t *testing.T) {
	guard := service.NewTransitionGuard()
	subject := testSubject(constants.UserStatusApproved, constants.RoleContributor)

	// Admin dominates contributor and manager: allowed.
	err := guard.CheckRole(actorFor(subject, constants.RoleAdmin), subject, constants.RoleManager)
	assert.NoError(t, err)

	// Manager does not strictly dominate manager (target): denied.
	err = guard.CheckRole(actorFor(subject, constants.RoleManager), subject, constants.RoleManager)
	assert.True(t, errors.IsCode(err, constants.ErrCodeUnauthorized))

	// Contributor does not dominate the current contributor role: denied.
	err = guard.CheckRole(actorFor(subject, constants.RoleContributor), subject, constants.RoleViewer)
	assert.True(t, errors.IsCode(err, constants.ErrCodeUnauthorized))
}

func TestCheckRole_SelfElevationForbidden(t *testing.T) {
	guard := service.NewTransitionGuard()
	subject := testSubject(constants.UserStatusApproved, constants.RoleManager)
	self := models.Actor{ID: subject.ID, TenantID: subject.TenantID, Role: constants.RoleManager}

	err := guard.CheckRole(self, subject, constants.RoleAdmin)
	assert.True(t, errors.IsCode(err, constants.ErrCodeUnauthorized))
}

func TestCheckRole_NoopAndUnknownTargetsRejected(t *testing.T) {
	guard := service.NewTransitionGuard()
	subject := testSubject(constants.UserStatusApproved, constants.RoleViewer)

	err := guard.CheckRole(actorFor(subject, constants.RoleAdmin), subject, constants.RoleViewer)
	assert.True(t, errors.IsCode(err, constants.ErrCodeInvalidTransition))

	err = guard.CheckRole(actorFor(subject, constants.RoleAdmin), subject, constants.Role("archmage"))
	assert.True(t, errors.IsCode(err, constants.ErrCodeInvalidTransition))
}
