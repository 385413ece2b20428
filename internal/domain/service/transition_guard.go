package service

import (
	"github.com/praxisgrc/praxis/internal/domain/models"
	"github.com/praxisgrc/praxis/pkg/constants"
	"github.com/praxisgrc/praxis/pkg/errors"
)

// statusGraph is the legal status state machine: pending -> {approved,
// rejected}; approved <-> suspended; rejected is terminal.
var statusGraph = map[constants.UserStatus][]constants.UserStatus{
	constants.UserStatusPending:   {constants.UserStatusApproved, constants.UserStatusRejected},
	constants.UserStatusApproved:  {constants.UserStatusSuspended},
	constants.UserStatusSuspended: {constants.UserStatusApproved},
	constants.UserStatusRejected:  {},
}

// destructiveStatuses are the transitions that require a recorded reason.
var destructiveStatuses = map[constants.UserStatus]bool{
	constants.UserStatusSuspended: true,
	constants.UserStatusRejected:  true,
}

// minimumStatusRole is the weakest role allowed to drive each status edge.
// Approvals and rejections are review decisions (manager and up); suspending
// or reinstating an approved user is tenant administration (admin and up).
var minimumStatusRole = map[constants.UserStatus]constants.Role{
	constants.UserStatusApproved:  constants.RoleManager,
	constants.UserStatusRejected:  constants.RoleManager,
	constants.UserStatusSuspended: constants.RoleAdmin,
}

// TransitionGuard validates the legality and authorization of guarded
// transitions. It is pure domain logic: it reads nothing and writes nothing,
// so the caller decides the transaction scope.
type TransitionGuard struct{}

// NewTransitionGuard creates a new TransitionGuard.
func NewTransitionGuard() *TransitionGuard {
	return &TransitionGuard{}
}

// CheckStatus validates one status transition and returns the specific
// rejection when the edge is illegal, unauthorized, or missing its reason.
func (g *TransitionGuard) CheckStatus(actor models.Actor, subject *models.User, to constants.UserStatus, reason string) error {
	if !g.edgeExists(subject.Status, to) {
		return errors.ErrInvalidTransition(string(subject.Status), string(to))
	}
	if destructiveStatuses[to] && reason == "" {
		return errors.ErrMissingReason(string(to))
	}
	if !g.sameScope(actor, subject) {
		return errors.ErrUnauthorized("actor is outside the subject's tenant")
	}
	// Reinstatement walks the suspended -> approved edge; it needs the same
	// level as suspension, not a review-level role.
	minimum := minimumStatusRole[to]
	if subject.Status == constants.UserStatusSuspended && to == constants.UserStatusApproved {
		minimum = constants.RoleAdmin
	}
	if actor.Role.Rank() < minimum.Rank() {
		return errors.ErrUnauthorized("acting role is below the minimum for this edge")
	}
	if actor.ID == subject.ID {
		return errors.ErrUnauthorized("actors may not transition their own status")
	}
	return nil
}

// CheckRole validates one role transition. The actor's role must strictly
// dominate both the current and the target role; self-elevation is forbidden
// (and structurally impossible, since no role strictly dominates itself).
func (g *TransitionGuard) CheckRole(actor models.Actor, subject *models.User, to constants.Role) error {
	if !to.Valid() {
		return errors.ErrInvalidTransition(string(subject.Role), string(to))
	}
	if to == subject.Role {
		return errors.ErrInvalidTransition(string(subject.Role), string(to))
	}
	if !g.sameScope(actor, subject) {
		return errors.ErrUnauthorized("actor is outside the subject's tenant")
	}
	if actor.ID == subject.ID {
		return errors.ErrUnauthorized("actors may not change their own role")
	}
	if !actor.Role.Dominates(subject.Role) || !actor.Role.Dominates(to) {
		return errors.ErrUnauthorized("acting role must strictly dominate both current and target role")
	}
	return nil
}

// DestructiveStatus reports whether a status value is reached by a
// destructive transition.
func (g *TransitionGuard) DestructiveStatus(to constants.UserStatus) bool {
	return destructiveStatuses[to]
}

func (g *TransitionGuard) edgeExists(from, to constants.UserStatus) bool {
	for _, next := range statusGraph[from] {
		if next == to {
			return true
		}
	}
	return false
}

// sameScope allows tenant-local actors on their own tenant and the platform
// operator on platform-level entities.
func (g *TransitionGuard) sameScope(actor models.Actor, subject *models.User) bool {
	if actor.TenantID == subject.TenantID {
		return true
	}
	return actor.IsOperator() && subject.PlatformLevel
}
