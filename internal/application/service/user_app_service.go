package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/praxisgrc/praxis/internal/application/dto"
	"github.com/praxisgrc/praxis/internal/domain/models"
	"github.com/praxisgrc/praxis/internal/domain/repository"
	"github.com/praxisgrc/praxis/internal/domain/service"
	"github.com/praxisgrc/praxis/pkg/constants"
	"github.com/praxisgrc/praxis/pkg/errors"
	"github.com/praxisgrc/praxis/pkg/logger"
)

// LedgerSigner computes and checks tamper-evidence signatures on ledger
// records.
type LedgerSigner interface {
	Sign(record *models.TransitionRecord) (string, error)
}

// TransitionPublisher exports a committed transition to downstream
// consumers. Called strictly after commit; a nil publisher disables export.
type TransitionPublisher interface {
	Export(ctx context.Context, record *models.TransitionRecord)
}

// UserAppService defines the protected-entity use cases, including the two
// guarded transitions. A guarded transition is one atomic unit: guard
// checks, ledger append and the protected-column write commit together or
// not at all.
type UserAppService interface {
	Create(ctx context.Context, actor models.Actor, req *dto.CreateUserRequest) (*dto.UserResponse, error)
	Get(ctx context.Context, actor models.Actor, userID string) (*dto.UserResponse, error)
	Update(ctx context.Context, actor models.Actor, userID string, req *dto.UpdateUserRequest) (*dto.UserResponse, error)
	TransitionStatus(ctx context.Context, actor models.Actor, userID string, req *dto.StatusTransitionRequest) (*dto.TransitionResponse, error)
	TransitionRole(ctx context.Context, actor models.Actor, userID string, req *dto.RoleTransitionRequest) (*dto.TransitionResponse, error)
	History(ctx context.Context, actor models.Actor, userID string) ([]*dto.TransitionResponse, error)
}

type userAppServiceImpl struct {
	tx          repository.TxManager
	users       repository.UserRepository
	transitions repository.TransitionRepository
	guard       *service.TransitionGuard
	signer      LedgerSigner
	publisher   TransitionPublisher
	log         logger.Logger
	metrics     service.Metrics
}

// NewUserAppService creates a new UserAppService.
func NewUserAppService(
	tx repository.TxManager,
	users repository.UserRepository,
	transitions repository.TransitionRepository,
	guard *service.TransitionGuard,
	signer LedgerSigner,
	publisher TransitionPublisher,
	log logger.Logger,
	metrics service.Metrics,
) UserAppService {
	return &userAppServiceImpl{
		tx:          tx,
		users:       users,
		transitions: transitions,
		guard:       guard,
		signer:      signer,
		publisher:   publisher,
		log:         log.WithComponent("UserAppService"),
		metrics:     metrics,
	}
}

// Create registers a new pending user.
func (s *userAppServiceImpl) Create(ctx context.Context, actor models.Actor, req *dto.CreateUserRequest) (*dto.UserResponse, error) {
	if err := requireRole(actor, constants.RoleAdmin); err != nil {
		return nil, err
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	user := &models.User{
		TenantID:    actor.TenantID,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Role:        constants.Role(req.Role),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return dto.UserFromModel(user), nil
}

// Get retrieves one user in the actor's tenant.
func (s *userAppServiceImpl) Get(ctx context.Context, actor models.Actor, userID string) (*dto.UserResponse, error) {
	id, err := parseEntityID(userID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	return dto.UserFromModel(user), nil
}

// Update rewrites the unprotected fields of a user.
func (s *userAppServiceImpl) Update(ctx context.Context, actor models.Actor, userID string, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if err := requireRole(actor, constants.RoleAdmin); err != nil {
		return nil, err
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	id, err := parseEntityID(userID)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	user.Email = req.Email
	user.DisplayName = req.DisplayName
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return dto.UserFromModel(user), nil
}

// TransitionStatus moves a user along the status graph under guard.
func (s *userAppServiceImpl) TransitionStatus(ctx context.Context, actor models.Actor, userID string, req *dto.StatusTransitionRequest) (*dto.TransitionResponse, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	id, err := parseEntityID(userID)
	if err != nil {
		return nil, err
	}

	to := constants.UserStatus(req.ToStatus)
	return s.transition(ctx, actor, id, constants.FieldStatus, string(to), req.Reason, req.IdempotencyKey,
		func(subject *models.User) error {
			return s.guard.CheckStatus(actor, subject, to, req.Reason)
		},
		func(subject *models.User) string {
			return string(subject.Status)
		},
	)
}

// TransitionRole changes a user's role under guard.
func (s *userAppServiceImpl) TransitionRole(ctx context.Context, actor models.Actor, userID string, req *dto.RoleTransitionRequest) (*dto.TransitionResponse, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	id, err := parseEntityID(userID)
	if err != nil {
		return nil, err
	}

	to := constants.Role(req.ToRole)
	return s.transition(ctx, actor, id, constants.FieldRole, string(to), req.Reason, req.IdempotencyKey,
		func(subject *models.User) error {
			return s.guard.CheckRole(actor, subject, to)
		},
		func(subject *models.User) string {
			return string(subject.Role)
		},
	)
}

// transition runs the shared guarded-transition flow. The subject row is
// locked first, so concurrent transitions on one subject serialize and every
// guard decision is made against the committed current value.
func (s *userAppServiceImpl) transition(
	ctx context.Context,
	actor models.Actor,
	subjectID uuid.UUID,
	field constants.ProtectedField,
	toValue, reason, idempotencyKey string,
	check func(subject *models.User) error,
	currentValue func(subject *models.User) string,
) (*dto.TransitionResponse, error) {
	var response *dto.TransitionResponse
	var committed *models.TransitionRecord

	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		if idempotencyKey != "" {
			prior, err := s.transitions.FindByIdempotencyKey(txCtx, actor.TenantID, idempotencyKey)
			if err != nil {
				return err
			}
			if prior != nil {
				if prior.EntityID != subjectID || prior.Field != field || prior.ToValue != toValue {
					return errors.ErrConflict("idempotency key was used for a different transition")
				}
				resp := dto.TransitionFromModel(prior)
				resp.Replayed = true
				response = resp
				return nil
			}
		}

		subject, err := s.users.FindByIDForUpdate(txCtx, actor.TenantID, subjectID)
		if err != nil {
			return err
		}
		if err := check(subject); err != nil {
			s.metrics.RecordTransition(field, string(errors.CodeOf(err)))
			return err
		}

		record := &models.TransitionRecord{
			TenantID:       actor.TenantID,
			EntityType:     models.EntityTypeUser,
			EntityID:       subjectID,
			Field:          field,
			FromValue:      currentValue(subject),
			ToValue:        toValue,
			ActorID:        actor.ID,
			ActorRole:      actor.Role,
			Reason:         reason,
			IdempotencyKey: idempotencyKey,
		}
		signature, err := s.signer.Sign(record)
		if err != nil {
			return err
		}
		record.Signature = signature

		if err := s.transitions.Append(txCtx, record); err != nil {
			return err
		}
		if err := s.users.ApplyTransition(txCtx, actor.TenantID, subjectID, field, toValue); err != nil {
			return err
		}

		committed = record
		response = dto.TransitionFromModel(record)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if committed != nil {
		s.metrics.RecordTransition(field, "ok")
		s.log.Info(ctx, "Guarded transition committed",
			logger.String("tenant_id", actor.TenantID.String()),
			logger.String("entity_id", subjectID.String()),
			logger.String("field", string(field)),
			logger.String("from", committed.FromValue),
			logger.String("to", committed.ToValue),
		)
		if s.publisher != nil {
			s.publisher.Export(ctx, committed)
		}
	}
	return response, nil
}

// History returns the full transition history of one user, oldest first.
func (s *userAppServiceImpl) History(ctx context.Context, actor models.Actor, userID string) ([]*dto.TransitionResponse, error) {
	if err := requireRole(actor, constants.RoleManager); err != nil {
		return nil, err
	}
	id, err := parseEntityID(userID)
	if err != nil {
		return nil, err
	}
	records, err := s.transitions.ListByEntity(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.TransitionResponse, len(records))
	for i := range records {
		out[i] = dto.TransitionFromModel(records[i])
	}
	return out, nil
}
