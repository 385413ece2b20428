// Package constants defines system-wide constants for the Praxis governance service.
// This package provides type-safe constant definitions used across all modules.
package constants

// ================================================================================
// Entity Class Constants
// ================================================================================

// EntityClass identifies the class of a governed entity for code allocation
// and audit scoping. Codes are unique per (tenant, class).
type EntityClass string

const (
	// EntityClassRisk identifies risk register entries
	EntityClassRisk EntityClass = "risk"

	// EntityClassControl identifies mitigating controls
	EntityClassControl EntityClass = "control"

	// EntityClassIndicator identifies key risk indicators
	EntityClassIndicator EntityClass = "kri"

	// EntityClassIncident identifies incident records
	EntityClassIncident EntityClass = "incident"
)

// CodePrefix returns the human-readable code prefix for an entity class.
func (c EntityClass) CodePrefix() string {
	switch c {
	case EntityClassRisk:
		return "RISK"
	case EntityClassControl:
		return "CTRL"
	case EntityClassIndicator:
		return "KRI"
	case EntityClassIncident:
		return "INC"
	default:
		return "ENT"
	}
}

// ================================================================================
// Risk Dimension Constants
// ================================================================================

// Dimension identifies which axis of a risk score a control targets.
type Dimension string

const (
	// DimensionLikelihood targets the probability axis of a risk
	DimensionLikelihood Dimension = "likelihood"

	// DimensionImpact targets the severity axis of a risk
	DimensionImpact Dimension = "impact"
)

// Valid reports whether the dimension is one of the two known axes.
func (d Dimension) Valid() bool {
	return d == DimensionLikelihood || d == DimensionImpact
}

// Score bounds for inherent and residual dimensions and control sub-scores.
const (
	// ScoreDimensionMin is the lowest value a likelihood or impact may take
	ScoreDimensionMin = 1

	// ScoreDimensionMax is the highest value a likelihood or impact may take
	ScoreDimensionMax = 6

	// ControlSubScoreMin is the lowest value a control sub-score may take
	ControlSubScoreMin = 0

	// ControlSubScoreMax is the highest value a control sub-score may take
	ControlSubScoreMax = 3

	// ControlSubScoreTotal is the denominator of the effectiveness ratio
	ControlSubScoreTotal = 12
)

// ================================================================================
// Combination Policy Constants
// ================================================================================

// CombinationPolicy selects how the effectiveness of multiple qualifying
// controls on one dimension is combined into a single value.
type CombinationPolicy string

const (
	// CombinationPolicyMax counts only the single most effective control
	CombinationPolicyMax CombinationPolicy = "max"

	// CombinationPolicyDiminishing combines controls with diminishing returns,
	// 1 - product(1 - e_i) over qualifying controls
	CombinationPolicyDiminishing CombinationPolicy = "diminishing"
)

// Valid reports whether the policy is a known combination rule.
func (p CombinationPolicy) Valid() bool {
	return p == CombinationPolicyMax || p == CombinationPolicyDiminishing
}

// ================================================================================
// User Status Constants
// ================================================================================

// UserStatus represents the lifecycle status of a protected user entity.
// Status changes only through the guarded transition path.
type UserStatus string

const (
	// UserStatusPending indicates a user awaiting review
	UserStatusPending UserStatus = "pending"

	// UserStatusApproved indicates an active, approved user
	UserStatusApproved UserStatus = "approved"

	// UserStatusRejected indicates a terminally rejected user
	UserStatusRejected UserStatus = "rejected"

	// UserStatusSuspended indicates a temporarily suspended user
	UserStatusSuspended UserStatus = "suspended"
)

// ================================================================================
// Role Constants
// ================================================================================

// Role represents a position in the ordered authorization hierarchy.
// Role changes only through the guarded transition path.
type Role string

const (
	// RoleViewer may read tenant data only
	RoleViewer Role = "viewer"

	// RoleContributor may create and edit governance entities
	RoleContributor Role = "contributor"

	// RoleManager may approve users and manage controls
	RoleManager Role = "manager"

	// RoleAdmin administers a single tenant
	RoleAdmin Role = "admin"

	// RoleOperator is the super-tenant platform operator
	RoleOperator Role = "operator"
)

// roleRanks orders the hierarchy; higher rank dominates lower.
var roleRanks = map[Role]int{
	RoleViewer:      1,
	RoleContributor: 2,
	RoleManager:     3,
	RoleAdmin:       4,
	RoleOperator:    5,
}

// Rank returns the position of the role in the hierarchy, or 0 for unknown roles.
func (r Role) Rank() int {
	return roleRanks[r]
}

// Dominates reports whether r is strictly above other in the hierarchy.
func (r Role) Dominates(other Role) bool {
	return r.Rank() > other.Rank()
}

// Valid reports whether the role is part of the hierarchy.
func (r Role) Valid() bool {
	return r.Rank() > 0
}

// ================================================================================
// Tenant Status Constants
// ================================================================================

// TenantStatus represents the lifecycle status of a tenant.
type TenantStatus string

const (
	// TenantStatusActive indicates a fully operational tenant
	TenantStatusActive TenantStatus = "active"

	// TenantStatusSuspended indicates a tenant with writes disabled
	TenantStatusSuspended TenantStatus = "suspended"

	// TenantStatusDeleted indicates a soft-deleted tenant
	TenantStatusDeleted TenantStatus = "deleted"
)

// ================================================================================
// Protected Field Constants
// ================================================================================

// ProtectedField names a column that changes only through a guarded transition.
type ProtectedField string

const (
	// FieldStatus is the user lifecycle status column
	FieldStatus ProtectedField = "status"

	// FieldRole is the user role column
	FieldRole ProtectedField = "role"
)

// ================================================================================
// Error Code Constants
// ================================================================================

// ErrorCode is a stable machine-readable error identifier.
type ErrorCode string

const (
	// ErrCodeInvalidArgument indicates a client-supplied value is out of bounds or malformed
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"

	// ErrCodeUnauthorized indicates the actor may not perform the requested transition
	ErrCodeUnauthorized ErrorCode = "unauthorized"

	// ErrCodeInvalidTransition indicates the requested edge is not in the state graph
	ErrCodeInvalidTransition ErrorCode = "invalid_transition"

	// ErrCodeMissingReason indicates a destructive transition lacked a reason
	ErrCodeMissingReason ErrorCode = "missing_reason"

	// ErrCodeRaceExhausted indicates the allocator ran out of retries and degraded
	ErrCodeRaceExhausted ErrorCode = "race_exhausted"

	// ErrCodeStaleRecompute indicates a recompute ran on superseded inputs
	ErrCodeStaleRecompute ErrorCode = "stale_recompute"

	// ErrCodeConstraintViolation indicates an invariant breach; fatal programming-error class
	ErrCodeConstraintViolation ErrorCode = "constraint_violation"

	// ErrCodeNotFound indicates the addressed entity does not exist in the actor's scope
	ErrCodeNotFound ErrorCode = "not_found"

	// ErrCodeConflict indicates a conflict with the current state of the resource
	ErrCodeConflict ErrorCode = "conflict"

	// ErrCodeInternal indicates an internal server error
	ErrCodeInternal ErrorCode = "internal"
)

// ================================================================================
// Logging Constants
// ================================================================================

// LogLevel represents the severity of a log entry.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
	LogLevelFatal LogLevel = "fatal"
)

// ================================================================================
// Allocation Defaults
// ================================================================================

const (
	// DefaultAllocatorMaxAttempts bounds the optimistic reserve/retry loop
	DefaultAllocatorMaxAttempts = 5

	// DefaultCodePadding is the minimum digit width of sequential codes
	DefaultCodePadding = 3
)
