package dto

import (
	"time"

	"github.com/praxisgrc/praxis/internal/domain/models"
)

// CreateRiskRequest opens a new risk register entry. The code is allocated
// server-side and never supplied by the caller.
type CreateRiskRequest struct {
	Title              string `json:"title" validate:"required,min=1,max=255"`
	Description        string `json:"description" validate:"omitempty,max=4000"`
	OwnerID            string `json:"owner_id" validate:"required,uuid"`
	InherentLikelihood int    `json:"inherent_likelihood" validate:"required,gte=1,lte=6"`
	InherentImpact     int    `json:"inherent_impact" validate:"required,gte=1,lte=6"`
}

// UpdateInherentRequest rewrites the owner-editable fields of a risk and
// triggers a recomputation.
type UpdateInherentRequest struct {
	Title              string `json:"title" validate:"required,min=1,max=255"`
	Description        string `json:"description" validate:"omitempty,max=4000"`
	OwnerID            string `json:"owner_id" validate:"required,uuid"`
	InherentLikelihood int    `json:"inherent_likelihood" validate:"required,gte=1,lte=6"`
	InherentImpact     int    `json:"inherent_impact" validate:"required,gte=1,lte=6"`
}

// UpdateRiskStatusRequest moves the risk lifecycle status.
type UpdateRiskStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open mitigated retired"`
}

// RiskResponse is the full read shape of a risk.
type RiskResponse struct {
	ID                 string     `json:"id"`
	Code               string     `json:"code"`
	Title              string     `json:"title"`
	Description        string     `json:"description,omitempty"`
	OwnerID            string     `json:"owner_id"`
	Status             string     `json:"status"`
	InherentLikelihood int        `json:"inherent_likelihood"`
	InherentImpact     int        `json:"inherent_impact"`
	ResidualLikelihood int        `json:"residual_likelihood"`
	ResidualImpact     int        `json:"residual_impact"`
	ResidualScore      int        `json:"residual_score"`
	LastRecomputedAt   *time.Time `json:"last_recomputed_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// ResidualResponse is the read-model slice served from the cache-backed
// residual endpoint.
type ResidualResponse struct {
	RiskID       string    `json:"risk_id"`
	Likelihood   int       `json:"likelihood"`
	Impact       int       `json:"impact"`
	Score        int       `json:"score"`
	RecomputedAt time.Time `json:"recomputed_at"`
}

// RiskFromModel converts a domain risk into its response shape.
func RiskFromModel(r *models.Risk) *RiskResponse {
	return &RiskResponse{
		ID:                 r.ID.String(),
		Code:               r.Code,
		Title:              r.Title,
		Description:        r.Description,
		OwnerID:            r.OwnerID.String(),
		Status:             string(r.Status),
		InherentLikelihood: r.InherentLikelihood,
		InherentImpact:     r.InherentImpact,
		ResidualLikelihood: r.ResidualLikelihood,
		ResidualImpact:     r.ResidualImpact,
		ResidualScore:      r.ResidualScore,
		LastRecomputedAt:   r.LastRecomputedAt,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}
