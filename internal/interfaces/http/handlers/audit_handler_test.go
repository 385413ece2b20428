package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxisgrc/praxis/internal/application/dto"
	"github.com/praxisgrc/praxis/internal/domain/models"
	"github.com/praxisgrc/praxis/pkg/constants"
	"github.com/praxisgrc/praxis/pkg/errors"
	"github.com/praxisgrc/praxis/pkg/logger"
)

// stubAuditService records the last query and serves a canned page.
type stubAuditService struct {
	page      *dto.LedgerPage
	err       error
	lastQuery *dto.LedgerQuery
	tenantArg string
}

func (s *stubAuditService) QueryLedger(ctx context.Context, actor models.Actor, query *dto.LedgerQuery) (*dto.LedgerPage, error) {
	s.lastQuery = query
	return s.page, s.err
}

func (s *stubAuditService) QueryTenantLedger(ctx context.Context, actor models.Actor, tenantID string, query *dto.LedgerQuery) (*dto.LedgerPage, error) {
	s.lastQuery = query
	s.tenantArg = tenantID
	return s.page, s.err
}

func actorInjector(actor models.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("praxis_actor", actor)
		c.Next()
	}
}

func auditTestRouter(stub *stubAuditService, actor models.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	handler := NewAuditHandler(stub, logger.NewNoopLogger())
	engine.GET("/v1/audit/transitions", actorInjector(actor), handler.ListTransitions)
	return engine
}

func adminActor() models.Actor {
	return models.Actor{ID: uuid.New(), TenantID: uuid.New(), Role: constants.RoleAdmin}
}

func TestListTransitions_ServesPage(t *testing.T) {
	stub := &stubAuditService{
		page: &dto.LedgerPage{
			Records: []*dto.TransitionResponse{{
				ID:        uuid.NewString(),
				Field:     "status",
				FromValue: "pending",
				ToValue:   "approved",
				CreatedAt: time.Now().UTC(),
			}},
			Total: 1,
			Limit: 100,
		},
	}
	engine := auditTestRouter(stub, adminActor())

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/audit/transitions?limit=25&offset=5", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var page dto.LedgerPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Records, 1)
	assert.Equal(t, "approved", page.Records[0].ToValue)
	require.NotNil(t, stub.lastQuery)
	assert.Equal(t, 25, stub.lastQuery.Limit)
	assert.Equal(t, 5, stub.lastQuery.Offset)
}

func TestListTransitions_TenantParamRoutesToTenantQuery(t *testing.T) {
	stub := &stubAuditService{page: &dto.LedgerPage{Limit: 100}}
	engine := auditTestRouter(stub, adminActor())
	foreign := uuid.NewString()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/audit/transitions?tenant_id="+foreign, nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, foreign, stub.tenantArg)
}

func TestListTransitions_ServiceErrorMapsToStatus(t *testing.T) {
	stub := &stubAuditService{err: errors.ErrUnauthorized("only the platform operator reads foreign tenant ledgers")}
	engine := auditTestRouter(stub, adminActor())

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/audit/transitions", nil))

	require.Equal(t, http.StatusForbidden, w.Code)
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "unauthorized", resp.Code)
}

func TestListTransitions_NoActorRejected(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	handler := NewAuditHandler(&stubAuditService{}, logger.NewNoopLogger())
	engine.GET("/v1/audit/transitions", handler.ListTransitions)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/audit/transitions", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
