package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/praxisgrc/praxis/internal/domain/models"
	"github.com/praxisgrc/praxis/internal/domain/repository"
	"github.com/praxisgrc/praxis/pkg/constants"
	"github.com/praxisgrc/praxis/pkg/errors"
	"github.com/praxisgrc/praxis/pkg/logger"
	"github.com/praxisgrc/praxis/pkg/utils"
)

// AllocatorOptions tunes the allocation loop. The provider indirection lets
// the config watcher change these at runtime without restarting.
type AllocatorOptions struct {
	MaxAttempts int
	CodePadding int
}

// AllocatorOptionsProvider returns the current allocator settings.
type AllocatorOptionsProvider func() AllocatorOptions

// SequenceAllocator hands out collision-free human-readable codes, one scope
// being (tenant, entity class). Concurrent callers race on the same scope;
// the storage-level unique constraint decides the winner and losers re-read
// and retry. When the retry budget runs out the allocator degrades to a
// timestamp-derived code instead of failing the creation: an occasional
// sequence gap is acceptable, a failed entity creation is not.
type SequenceAllocator struct {
	sequences repository.SequenceRepository
	options   AllocatorOptionsProvider
	log       logger.Logger
	metrics   Metrics
}

// NewSequenceAllocator creates a new SequenceAllocator.
func NewSequenceAllocator(
	sequences repository.SequenceRepository,
	options AllocatorOptionsProvider,
	log logger.Logger,
	metrics Metrics,
) *SequenceAllocator {
	return &SequenceAllocator{
		sequences: sequences,
		options:   options,
		log:       log.WithComponent("SequenceAllocator"),
		metrics:   metrics,
	}
}

// Allocate reserves the next free number in the (tenant, class) scope and
// returns it formatted as <PREFIX>-<NNN>, optionally with a sub-dimension
// segment. Safe to call from concurrent transactions.
func (a *SequenceAllocator) Allocate(ctx context.Context, tenantID uuid.UUID, class constants.EntityClass, subDimension string) (string, error) {
	opts := a.options()
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = constants.DefaultAllocatorMaxAttempts
	}

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		max, err := a.sequences.MaxNumber(ctx, tenantID, class)
		if err != nil {
			return "", err
		}
		candidate := max + 1

		err = a.sequences.Reserve(ctx, &models.SequenceReservation{
			TenantID: tenantID,
			Class:    class,
			Number:   candidate,
		})
		if err == nil {
			a.metrics.RecordAllocation(class, "ok", attempt)
			return utils.FormatCode(class.CodePrefix(), subDimension, candidate, opts.CodePadding), nil
		}
		if !errors.IsCode(err, constants.ErrCodeConflict) {
			a.metrics.RecordAllocation(class, "error", attempt)
			return "", err
		}
		// Lost the race; another transaction took the candidate. Re-read and retry.
	}

	return a.fallback(ctx, tenantID, class, subDimension, opts)
}

// fallback reserves a timestamp-derived number. The resulting code is ugly
// but unique; the caller's creation still succeeds.
func (a *SequenceAllocator) fallback(ctx context.Context, tenantID uuid.UUID, class constants.EntityClass, subDimension string, opts AllocatorOptions) (string, error) {
	number := utils.FallbackNumber(time.Now())
	err := a.sequences.Reserve(ctx, &models.SequenceReservation{
		TenantID: tenantID,
		Class:    class,
		Number:   number,
	})
	if err != nil {
		if errors.IsCode(err, constants.ErrCodeConflict) {
			// A duplicate on a nanosecond timestamp means something is deeply
			// wrong with the store, not an ordinary lost race.
			return "", errors.ErrConstraintViolation("fallback reservation collided").WithCause(err)
		}
		return "", err
	}

	a.metrics.RecordAllocation(class, "fallback", opts.MaxAttempts)
	a.log.Warn(ctx, "Sequence allocation degraded to fallback code",
		logger.Error(errors.ErrRaceExhausted(tenantID.String(), class, opts.MaxAttempts)),
		logger.Int64("number", number),
	)
	return utils.FormatCode(class.CodePrefix(), subDimension, number, opts.CodePadding), nil
}
