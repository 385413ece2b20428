package dto

import (
	"time"

	"github.com/praxisgrc/praxis/internal/domain/models"
)

// CreateControlRequest registers a new mitigating control. Sub-scores may be
// supplied at creation or later through an assessment.
type CreateControlRequest struct {
	Name            string `json:"name" validate:"required,min=1,max=255"`
	Description     string `json:"description" validate:"omitempty,max=4000"`
	TargetDimension string `json:"target_dimension" validate:"required,oneof=likelihood impact"`
}

// AssessControlRequest records a full assessment of a control's four
// sub-scores. Submitting it marks the control as fully scored.
type AssessControlRequest struct {
	DesignScore         int `json:"design_score" validate:"gte=0,lte=3"`
	ImplementationScore int `json:"implementation_score" validate:"gte=0,lte=3"`
	MonitoringScore     int `json:"monitoring_score" validate:"gte=0,lte=3"`
	EvaluationScore     int `json:"evaluation_score" validate:"gte=0,lte=3"`
}

// UpdateControlRequest rewrites the descriptive fields of a control.
type UpdateControlRequest struct {
	Name            string `json:"name" validate:"required,min=1,max=255"`
	Description     string `json:"description" validate:"omitempty,max=4000"`
	TargetDimension string `json:"target_dimension" validate:"required,oneof=likelihood impact"`
}

// LinkControlRequest attaches a control to a risk.
type LinkControlRequest struct {
	RiskID string `json:"risk_id" validate:"required,uuid"`
}

// ControlResponse is the full read shape of a control.
type ControlResponse struct {
	ID                  string     `json:"id"`
	Code                string     `json:"code"`
	Name                string     `json:"name"`
	Description         string     `json:"description,omitempty"`
	TargetDimension     string     `json:"target_dimension"`
	DesignScore         int        `json:"design_score"`
	ImplementationScore int        `json:"implementation_score"`
	MonitoringScore     int        `json:"monitoring_score"`
	EvaluationScore     int        `json:"evaluation_score"`
	Effectiveness       float64    `json:"effectiveness"`
	FullyScored         bool       `json:"fully_scored"`
	AssessedAt          *time.Time `json:"assessed_at,omitempty"`
	Deleted             bool       `json:"deleted"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// ControlFromModel converts a domain control into its response shape.
func ControlFromModel(c *models.Control) *ControlResponse {
	return &ControlResponse{
		ID:                  c.ID.String(),
		Code:                c.Code,
		Name:                c.Name,
		Description:         c.Description,
		TargetDimension:     string(c.TargetDimension),
		DesignScore:         c.DesignScore,
		ImplementationScore: c.ImplementationScore,
		MonitoringScore:     c.MonitoringScore,
		EvaluationScore:     c.EvaluationScore,
		Effectiveness:       c.Effectiveness(),
		FullyScored:         c.FullyScored(),
		AssessedAt:          c.AssessedAt,
		Deleted:             c.Deleted,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}
