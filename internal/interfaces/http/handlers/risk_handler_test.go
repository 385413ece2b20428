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
	"github.com/praxisgrc/praxis/pkg/errors"
	"github.com/praxisgrc/praxis/pkg/logger"
)

// stubRiskService serves only the residual read; the other use cases are not
// reachable from the HTTP surface.
type stubRiskService struct {
	residual *dto.ResidualResponse
	err      error
	askedID  string
}

func (s *stubRiskService) Create(ctx context.Context, actor models.Actor, req *dto.CreateRiskRequest) (*dto.RiskResponse, error) {
	panic("not reachable over HTTP")
}

func (s *stubRiskService) Get(ctx context.Context, actor models.Actor, riskID string) (*dto.RiskResponse, error) {
	panic("not reachable over HTTP")
}

func (s *stubRiskService) List(ctx context.Context, actor models.Actor, limit, offset int) ([]*dto.RiskResponse, error) {
	panic("not reachable over HTTP")
}

func (s *stubRiskService) UpdateInherent(ctx context.Context, actor models.Actor, riskID string, req *dto.UpdateInherentRequest) (*dto.RiskResponse, error) {
	panic("not reachable over HTTP")
}

func (s *stubRiskService) UpdateStatus(ctx context.Context, actor models.Actor, riskID string, req *dto.UpdateRiskStatusRequest) error {
	panic("not reachable over HTTP")
}

func (s *stubRiskService) GetResidual(ctx context.Context, actor models.Actor, riskID string) (*dto.ResidualResponse, error) {
	s.askedID = riskID
	return s.residual, s.err
}

func riskTestRouter(stub *stubRiskService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	handler := NewRiskHandler(stub, logger.NewNoopLogger())
	engine.GET("/v1/risks/:risk_id/residual", actorInjector(adminActor()), handler.GetResidual)
	return engine
}

func TestGetResidual_ServesSnapshot(t *testing.T) {
	riskID := uuid.NewString()
	stub := &stubRiskService{
		residual: &dto.ResidualResponse{
			RiskID:       riskID,
			Likelihood:   2,
			Impact:       4,
			Score:        8,
			RecomputedAt: time.Now().UTC(),
		},
	}
	engine := riskTestRouter(stub)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/risks/"+riskID+"/residual", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.ResidualResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 8, resp.Score)
	assert.Equal(t, riskID, stub.askedID)
}

func TestGetResidual_NotFoundMapsTo404(t *testing.T) {
	stub := &stubRiskService{err: errors.ErrNotFound("risk", uuid.NewString())}
	engine := riskTestRouter(stub)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/risks/"+uuid.NewString()+"/residual", nil))

	require.Equal(t, http.StatusNotFound, w.Code)
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "not_found", resp.Code)
}
