package service

import (
	"math"

	"github.com/praxisgrc/praxis/internal/domain/models"
	"github.com/praxisgrc/praxis/pkg/constants"
)

// CombineEffectiveness reduces the effectiveness values of the qualifying
// controls on one dimension to a single 0..1 value.
//
// The default rule is max-of-effectiveness: only the single most effective
// control counts, so stacking redundant weak controls earns no extra credit.
// The diminishing rule (1 - product(1 - e_i)) is available as a per-tenant
// policy for organizations that want layered controls to compound.
func CombineEffectiveness(effs []float64, policy constants.CombinationPolicy) float64 {
	if len(effs) == 0 {
		return 0
	}
	switch policy {
	case constants.CombinationPolicyDiminishing:
		remaining := 1.0
		for _, e := range effs {
			remaining *= 1 - clamp01(e)
		}
		return 1 - remaining
	default:
		max := 0.0
		for _, e := range effs {
			if e = clamp01(e); e > max {
				max = e
			}
		}
		return max
	}
}

// ResidualDimension credits effectiveness against an inherent score:
// residual = max(1, inherent - round((inherent - 1) * eff)). A fully
// effective control set drives the dimension to 1; zero effectiveness leaves
// it at the inherent value.
func ResidualDimension(inherent int, eff float64) int {
	reduction := int(math.Round(float64(inherent-1) * clamp01(eff)))
	residual := inherent - reduction
	if residual < constants.ScoreDimensionMin {
		residual = constants.ScoreDimensionMin
	}
	return residual
}

// QualifyingEffectiveness collects the effectiveness of every control that
// earns credit for dimension d: active, fully scored, targeting d.
func QualifyingEffectiveness(controls []*models.Control, d constants.Dimension) []float64 {
	var effs []float64
	for _, c := range controls {
		if c.Qualifies(d) {
			effs = append(effs, c.Effectiveness())
		}
	}
	return effs
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
