package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/praxisgrc/praxis/internal/application/service"
	"github.com/praxisgrc/praxis/internal/interfaces/http/middleware"
	"github.com/praxisgrc/praxis/pkg/logger"
)

// RiskHandler serves the read-only risk endpoints.
type RiskHandler struct {
	risks service.RiskAppService
	log   logger.Logger
}

// NewRiskHandler creates a new RiskHandler.
func NewRiskHandler(risks service.RiskAppService, log logger.Logger) *RiskHandler {
	return &RiskHandler{risks: risks, log: log.WithComponent("RiskHandler")}
}

// GetResidual serves the residual summary of one risk, cache-first.
func (h *RiskHandler) GetResidual(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	resp, err := h.risks.GetResidual(c.Request.Context(), actor, c.Param("risk_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
