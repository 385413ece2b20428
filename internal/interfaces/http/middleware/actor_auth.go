package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/praxisgrc/praxis/internal/domain/models"
	"github.com/praxisgrc/praxis/pkg/constants"
	"github.com/praxisgrc/praxis/pkg/logger"
)

const actorContextKey = "praxis_actor"

// extractBearer extracts the token from the Authorization header.
func extractBearer(authHeader string) string {
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// RequireActor verifies the bearer token minted by the external auth service
// and places the resulting actor in the request context. This layer only
// verifies; it never issues tokens.
func RequireActor(secret string, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := extractBearer(c.Request.Header.Get("Authorization"))
		if tokenStr == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !token.Valid {
			log.Warn(c, "Token verification failed", logger.Error(err))
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		actor, err := actorFromClaims(claims)
		if err != nil {
			log.Warn(c, "Token claims are incomplete", logger.Error(err))
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		c.Set(actorContextKey, actor)
		c.Next()
	}
}

// ActorFrom returns the authenticated actor placed by RequireActor.
func ActorFrom(c *gin.Context) (models.Actor, bool) {
	v, ok := c.Get(actorContextKey)
	if !ok {
		return models.Actor{}, false
	}
	actor, ok := v.(models.Actor)
	return actor, ok
}

func actorFromClaims(claims jwt.MapClaims) (models.Actor, error) {
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return models.Actor{}, jwt.ErrTokenRequiredClaimMissing
	}
	actorID, err := uuid.Parse(sub)
	if err != nil {
		return models.Actor{}, jwt.ErrTokenInvalidSubject
	}

	rawTenant, _ := claims["tenant_id"].(string)
	if rawTenant == "" {
		return models.Actor{}, jwt.ErrTokenRequiredClaimMissing
	}
	tenantID, err := uuid.Parse(rawTenant)
	if err != nil {
		return models.Actor{}, jwt.ErrTokenRequiredClaimMissing
	}

	rawRole, _ := claims["role"].(string)
	role := constants.Role(rawRole)
	if !role.Valid() {
		return models.Actor{}, jwt.ErrTokenRequiredClaimMissing
	}

	return models.Actor{ID: actorID, TenantID: tenantID, Role: role}, nil
}
