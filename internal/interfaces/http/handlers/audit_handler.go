package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/praxisgrc/praxis/internal/application/dto"
	"github.com/praxisgrc/praxis/internal/application/service"
	"github.com/praxisgrc/praxis/internal/interfaces/http/middleware"
	"github.com/praxisgrc/praxis/pkg/logger"
)

// AuditHandler serves the compliance view of the transition ledger.
type AuditHandler struct {
	audit service.AuditAppService
	log   logger.Logger
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(audit service.AuditAppService, log logger.Logger) *AuditHandler {
	return &AuditHandler{audit: audit, log: log.WithComponent("AuditHandler")}
}

// ListTransitions lists ledger records in the actor's tenant, newest first.
// A tenant_id query parameter reads a foreign tenant's ledger; that path is
// operator-only.
func (h *AuditHandler) ListTransitions(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var query dto.LedgerQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    "invalid_argument",
			Message: "malformed query parameters",
		})
		return
	}

	var page *dto.LedgerPage
	var err error
	if target := c.Query("tenant_id"); target != "" {
		page, err = h.audit.QueryTenantLedger(c.Request.Context(), actor, target, &query)
	} else {
		page, err = h.audit.QueryLedger(c.Request.Context(), actor, &query)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
