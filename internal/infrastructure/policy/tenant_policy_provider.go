// Package policy resolves the effectiveness combination rule in effect for a
// tenant, layering a per-tenant override from the tenants table over the
// configured platform default.
package policy

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/praxisgrc/praxis/internal/domain/repository"
	"github.com/praxisgrc/praxis/internal/domain/service"
	"github.com/praxisgrc/praxis/pkg/constants"
	"github.com/praxisgrc/praxis/pkg/logger"
)

// DefaultPolicyFunc returns the current platform-wide combination policy.
// Backed by the config watcher, so a config reload takes effect without a
// restart.
type DefaultPolicyFunc func() constants.CombinationPolicy

// TenantPolicyProvider implements service.PolicyProvider with a short-lived
// in-memory cache in front of the tenants table. Recomputation calls this on
// every run; the cache keeps those lookups off the database.
type TenantPolicyProvider struct {
	tenants   repository.TenantRepository
	defaultOf DefaultPolicyFunc
	overrides *cache.Cache
	log       logger.Logger
}

var _ service.PolicyProvider = (*TenantPolicyProvider)(nil)

// NewTenantPolicyProvider creates a new TenantPolicyProvider.
func NewTenantPolicyProvider(
	tenants repository.TenantRepository,
	defaultOf DefaultPolicyFunc,
	ttl time.Duration,
	log logger.Logger,
) *TenantPolicyProvider {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &TenantPolicyProvider{
		tenants:   tenants,
		defaultOf: defaultOf,
		overrides: cache.New(ttl, 2*ttl),
		log:       log.WithComponent("TenantPolicyProvider"),
	}
}

// PolicyFor returns the combination policy for a tenant. An unknown tenant,
// a lookup failure or an empty override all resolve to the platform default.
func (p *TenantPolicyProvider) PolicyFor(ctx context.Context, tenantID uuid.UUID) constants.CombinationPolicy {
	key := tenantID.String()
	if cached, ok := p.overrides.Get(key); ok {
		return p.resolve(cached.(constants.CombinationPolicy))
	}

	override := constants.CombinationPolicy("")
	tenant, err := p.tenants.FindByID(ctx, tenantID)
	if err != nil {
		p.log.Warn(ctx, "Tenant policy lookup failed, using default",
			logger.Error(err),
			logger.String("tenant_id", key),
		)
	} else {
		override = tenant.CombinationPolicy
	}

	p.overrides.SetDefault(key, override)
	return p.resolve(override)
}

// Invalidate drops the cached override after a tenant update.
func (p *TenantPolicyProvider) Invalidate(tenantID uuid.UUID) {
	p.overrides.Delete(tenantID.String())
}

func (p *TenantPolicyProvider) resolve(override constants.CombinationPolicy) constants.CombinationPolicy {
	if override.Valid() {
		return override
	}
	return p.defaultOf()
}
